package githubapp

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/logger"
)

const (
	defaultBaseURL = "https://api.github.com/"
	serviceName    = "github"
	// Installation tokens live for an hour; refresh well before that.
	tokenRefreshSkew = 5 * time.Minute
)

type Config struct {
	AppID string
	// PrivateKey is either PEM text (literal "\n" escapes allowed) or a path to a PEM file.
	PrivateKey    string
	WebhookSecret string
	BaseURL       string
	Timeout       time.Duration
}

// Client speaks to GitHub as a GitHub App: app-level calls are signed with a
// short-lived JWT, repository calls use per-installation access tokens.
type Client struct {
	appID      string
	key        *rsa.PrivateKey
	secret     []byte
	baseURL    *url.URL
	httpClient *http.Client
	now        func() time.Time
	log        *logger.Logger

	mu     sync.Mutex
	tokens map[int64]*gh.InstallationToken
}

func New(cfg Config, log *logger.Logger) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("github base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		appID:      strings.TrimSpace(cfg.AppID),
		secret:     []byte(cfg.WebhookSecret),
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
		log:        log.With("client", "GitHubApp"),
		tokens:     map[int64]*gh.InstallationToken{},
	}
	if strings.TrimSpace(cfg.PrivateKey) != "" {
		pemBytes, err := loadPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("github app private key: %w", err)
		}
		c.key = key
	}
	return c, nil
}

func loadPrivateKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "-----BEGIN") {
		return []byte(strings.ReplaceAll(raw, `\n`, "\n")), nil
	}
	b, err := os.ReadFile(raw)
	if err != nil {
		return nil, fmt.Errorf("read github app private key: %w", err)
	}
	return b, nil
}

var errNotConfigured = errors.New("github app credentials are not configured")

// AppJWT signs an RS256 token valid from one minute ago for ten minutes.
func (c *Client) AppJWT() (string, error) {
	if c.key == nil || c.appID == "" {
		return "", apierr.New(http.StatusServiceUnavailable, "github_not_configured", errNotConfigured)
	}
	now := c.now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-60 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		Issuer:    c.appID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.key)
}

func (c *Client) newGitHub(httpClient *http.Client) *gh.Client {
	client := gh.NewClient(httpClient)
	client.BaseURL = c.baseURL
	return client
}

func (c *Client) appClient() (*gh.Client, error) {
	token, err := c.AppJWT()
	if err != nil {
		return nil, err
	}
	return c.newGitHub(c.httpClient).WithAuthToken(token), nil
}

// InstallationToken returns an access token for the installation, reusing a
// cached one until it is close to expiry.
func (c *Client) InstallationToken(ctx context.Context, installationID int64) (string, error) {
	c.mu.Lock()
	cached := c.tokens[installationID]
	c.mu.Unlock()
	if cached != nil && cached.GetExpiresAt().After(c.now().Add(tokenRefreshSkew)) {
		return cached.GetToken(), nil
	}

	app, err := c.appClient()
	if err != nil {
		return "", err
	}
	tok, resp, err := app.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return "", wrapErr("create installation token", resp, err)
	}
	c.mu.Lock()
	c.tokens[installationID] = tok
	c.mu.Unlock()
	c.log.Debug("minted installation token", "installation_id", installationID)
	return tok.GetToken(), nil
}

func (c *Client) installationClient(ctx context.Context, installationID int64) (*gh.Client, error) {
	token, err := c.InstallationToken(ctx, installationID)
	if err != nil {
		return nil, err
	}
	base := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(base, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "token"}))
	hc.Timeout = c.httpClient.Timeout
	return c.newGitHub(hc), nil
}

// RepoInstallationID finds the app installation that covers owner/repo.
func (c *Client) RepoInstallationID(ctx context.Context, owner, repo string) (int64, error) {
	app, err := c.appClient()
	if err != nil {
		return 0, err
	}
	inst, resp, err := app.Apps.FindRepositoryInstallation(ctx, owner, repo)
	if err != nil {
		return 0, wrapErr("find repository installation", resp, err)
	}
	return inst.GetID(), nil
}

func wrapErr(op string, resp *gh.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	if status == 0 {
		var er *gh.ErrorResponse
		if errors.As(err, &er) && er.Response != nil {
			status = er.Response.StatusCode
		}
	}
	return apierr.Upstream(serviceName, status, fmt.Errorf("%s: %w", op, err))
}
