package mlflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/logger"
)

const apiPrefix = "/api/2.0/mlflow"

type Config struct {
	TrackingURI string
	Timeout     time.Duration
}

// Client talks to the MLflow tracking server REST API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

func New(cfg Config, log *logger.Logger) *Client {
	uri := strings.TrimRight(strings.TrimSpace(cfg.TrackingURI), "/")
	if uri == "" {
		uri = "http://localhost:5000"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: uri + apiPrefix,
		http:    &http.Client{Timeout: timeout},
		log:     log.With("client", "MLflow"),
	}
}

type httpError struct {
	Status  int    `json:"-"`
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func (e *httpError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return http.StatusText(e.Status)
}

func isResourceMissing(err error) bool {
	var he *httpError
	if !errors.As(err, &he) {
		return false
	}
	return he.Status == http.StatusNotFound || he.Code == "RESOURCE_DOES_NOT_EXIST"
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode mlflow request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apierr.Upstream("mlflow", 0, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return apierr.Upstream("mlflow", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		he := &httpError{Status: resp.StatusCode}
		if json.Unmarshal(raw, he) != nil || (he.Code == "" && he.Message == "") {
			he.Message = strings.TrimSpace(string(raw))
		}
		c.log.Debug("mlflow request failed", "path", path, "status", resp.StatusCode, "code", he.Code)
		return apierr.Upstream("mlflow", resp.StatusCode, he)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierr.Upstream("mlflow", resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Int64 decodes int64 values that MLflow may send as JSON numbers or strings.
type Int64 int64

func (i *Int64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("mlflow: invalid int64 %q", s)
		}
		n = int64(f)
	}
	*i = Int64(n)
	return nil
}
