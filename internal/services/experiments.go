package services

import (
	"context"
	"strings"

	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/logger"
	"github.com/rsamf/gamma/internal/platform/mlflow"
)

type ExperimentService interface {
	ListExperiments(ctx context.Context) ([]mlflow.Experiment, error)
	ListRuns(ctx context.Context, experimentName, filter string, maxResults int) ([]mlflow.Run, error)
	GetRun(ctx context.Context, runID string) (*mlflow.Run, error)
	MetricHistory(ctx context.Context, runID, metricKey string) ([]mlflow.Metric, error)
	ListArtifacts(ctx context.Context, runID, path string) ([]mlflow.FileInfo, error)
}

type experimentService struct {
	log     *logger.Logger
	tracker ExperimentTracker
}

func NewExperimentService(log *logger.Logger, tracker ExperimentTracker) ExperimentService {
	return &experimentService{log: log.With("service", "ExperimentService"), tracker: tracker}
}

func (s *experimentService) ListExperiments(ctx context.Context) ([]mlflow.Experiment, error) {
	return s.tracker.SearchExperiments(ctx, 0)
}

// ListRuns returns the experiment's runs, newest first.
func (s *experimentService) ListRuns(ctx context.Context, experimentName, filter string, maxResults int) ([]mlflow.Run, error) {
	exp, err := s.tracker.GetExperimentByName(ctx, experimentName)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, apierr.NotFound("Experiment")
	}
	return s.tracker.SearchRuns(ctx, mlflow.SearchRunsRequest{
		ExperimentIDs: []string{exp.ExperimentID},
		Filter:        strings.TrimSpace(filter),
		MaxResults:    maxResults,
		OrderBy:       []string{"start_time DESC"},
	})
}

func (s *experimentService) GetRun(ctx context.Context, runID string) (*mlflow.Run, error) {
	return s.tracker.GetRun(ctx, runID)
}

func (s *experimentService) MetricHistory(ctx context.Context, runID, metricKey string) ([]mlflow.Metric, error) {
	return s.tracker.GetMetricHistory(ctx, runID, metricKey)
}

func (s *experimentService) ListArtifacts(ctx context.Context, runID, path string) ([]mlflow.FileInfo, error) {
	return s.tracker.ListArtifacts(ctx, runID, path)
}
