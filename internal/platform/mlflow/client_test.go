package mlflow

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/logger"
)

func newServer(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(Config{TrackingURI: srv.URL + "/"}, logger.Nop())
}

func TestGetRunDecodesMetricsAndParams(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/mlflow/runs/get", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "run-1", r.URL.Query().Get("run_id"))
		fmt.Fprint(w, `{"run":{"info":{"run_id":"run-1","experiment_id":"3","status":"FINISHED","start_time":"1700000000000"},
			"data":{"metrics":[{"key":"loss","value":0.25,"timestamp":1700000000001,"step":"4"}],
			"params":[{"key":"lr","value":"0.01"}]}}}`)
	})
	c := newServer(t, mux)

	run, err := c.GetRun(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "FINISHED", run.Info.Status)
	assert.Equal(t, Int64(1700000000000), run.Info.StartTime)
	require.Len(t, run.Data.Metrics, 1)
	assert.Equal(t, 0.25, run.Data.Metrics[0].Value)
	assert.Equal(t, Int64(4), run.Data.Metrics[0].Step)
	assert.Equal(t, []Param{{Key: "lr", Value: "0.01"}}, run.Data.Params)
}

func TestGetExperimentByNameMissing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/mlflow/experiments/get-by-name", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error_code":"RESOURCE_DOES_NOT_EXIST","message":"no experiment"}`)
	})
	c := newServer(t, mux)

	exp, err := c.GetExperimentByName(t.Context(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, exp)
}

func TestSearchRunsPostsBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/mlflow/runs/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body SearchRunsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"3"}, body.ExperimentIDs)
		assert.Equal(t, 100, body.MaxResults)
		assert.Equal(t, []string{"start_time DESC"}, body.OrderBy)
		fmt.Fprint(w, `{}`)
	})
	c := newServer(t, mux)

	runs, err := c.SearchRuns(t.Context(), SearchRunsRequest{ExperimentIDs: []string{"3"}, OrderBy: []string{"start_time DESC"}})
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NotNil(t, runs)
}

func TestUpstreamFailureIsBadGateway(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/mlflow/experiments/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "down")
	})
	c := newServer(t, mux)

	_, err := c.SearchExperiments(t.Context(), 0)
	require.Error(t, err)
	ae, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, ae.Status)
	assert.Equal(t, http.StatusServiceUnavailable, ae.Upstream)
	assert.Contains(t, err.Error(), "503")
}

func TestListArtifactsAndHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/mlflow/artifacts/list", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "model", r.URL.Query().Get("path"))
		fmt.Fprint(w, `{"files":[{"path":"model/weights.pt","is_dir":false,"file_size":"2048"}]}`)
	})
	mux.HandleFunc("/api/2.0/mlflow/metrics/get-history", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "loss", r.URL.Query().Get("metric_key"))
		fmt.Fprint(w, `{"metrics":[{"key":"loss","value":1.5,"timestamp":1,"step":0},{"key":"loss","value":0.5,"timestamp":2,"step":1}]}`)
	})
	c := newServer(t, mux)

	files, err := c.ListArtifacts(t.Context(), "run-1", "model")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, Int64(2048), files[0].FileSize)

	hist, err := c.GetMetricHistory(t.Context(), "run-1", "loss")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, 0.5, hist[1].Value)
}
