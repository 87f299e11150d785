package mlflow

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) SearchExperiments(ctx context.Context, maxResults int) ([]Experiment, error) {
	q := url.Values{}
	if maxResults > 0 {
		q.Set("max_results", strconv.Itoa(maxResults))
	}
	var out struct {
		Experiments []Experiment `json:"experiments"`
	}
	if err := c.do(ctx, http.MethodGet, "/experiments/search", q, nil, &out); err != nil {
		return nil, err
	}
	if out.Experiments == nil {
		out.Experiments = []Experiment{}
	}
	return out.Experiments, nil
}

// GetExperimentByName returns nil when MLflow has no experiment with that name.
func (c *Client) GetExperimentByName(ctx context.Context, name string) (*Experiment, error) {
	var out struct {
		Experiment *Experiment `json:"experiment"`
	}
	err := c.do(ctx, http.MethodGet, "/experiments/get-by-name", url.Values{"experiment_name": {name}}, nil, &out)
	if err != nil {
		if isResourceMissing(err) {
			return nil, nil
		}
		return nil, err
	}
	return out.Experiment, nil
}

func (c *Client) SearchRuns(ctx context.Context, req SearchRunsRequest) ([]Run, error) {
	if req.MaxResults <= 0 {
		req.MaxResults = 100
	}
	var out struct {
		Runs []Run `json:"runs"`
	}
	if err := c.do(ctx, http.MethodPost, "/runs/search", nil, req, &out); err != nil {
		return nil, err
	}
	if out.Runs == nil {
		out.Runs = []Run{}
	}
	return out.Runs, nil
}

func (c *Client) GetRun(ctx context.Context, runID string) (*Run, error) {
	var out struct {
		Run Run `json:"run"`
	}
	if err := c.do(ctx, http.MethodGet, "/runs/get", url.Values{"run_id": {runID}}, nil, &out); err != nil {
		return nil, err
	}
	return &out.Run, nil
}

func (c *Client) GetMetricHistory(ctx context.Context, runID, metricKey string) ([]Metric, error) {
	var out struct {
		Metrics []Metric `json:"metrics"`
	}
	q := url.Values{"run_id": {runID}, "metric_key": {metricKey}}
	if err := c.do(ctx, http.MethodGet, "/metrics/get-history", q, nil, &out); err != nil {
		return nil, err
	}
	if out.Metrics == nil {
		out.Metrics = []Metric{}
	}
	return out.Metrics, nil
}

func (c *Client) ListArtifacts(ctx context.Context, runID, path string) ([]FileInfo, error) {
	q := url.Values{"run_id": {runID}}
	if path != "" {
		q.Set("path", path)
	}
	var out struct {
		Files []FileInfo `json:"files"`
	}
	if err := c.do(ctx, http.MethodGet, "/artifacts/list", q, nil, &out); err != nil {
		return nil, err
	}
	if out.Files == nil {
		out.Files = []FileInfo{}
	}
	return out.Files, nil
}
