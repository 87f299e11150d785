package services

import (
	"context"
	"time"

	"github.com/rsamf/gamma/internal/platform/githubapp"
	"github.com/rsamf/gamma/internal/platform/mlflow"
	"github.com/rsamf/gamma/internal/platform/s3store"
	"github.com/rsamf/gamma/internal/platform/sagemaker"
)

// RepoHost is the subset of the GitHub App client the services depend on.
type RepoHost interface {
	RepoInstallationID(ctx context.Context, owner, repo string) (int64, error)
	CommitDiff(ctx context.Context, installationID int64, owner, repo, sha string) (string, error)
	FileContent(ctx context.Context, installationID int64, owner, repo, path, ref string) (string, error)
	CreateCommit(ctx context.Context, installationID int64, owner, repo, branch, message string, files map[string]string) (string, error)
	ListReposForLogin(ctx context.Context, login string) ([]githubapp.Repo, error)
}

type WebhookVerifier interface {
	VerifySignature(header string, body []byte) error
}

type ExperimentTracker interface {
	SearchExperiments(ctx context.Context, maxResults int) ([]mlflow.Experiment, error)
	GetExperimentByName(ctx context.Context, name string) (*mlflow.Experiment, error)
	SearchRuns(ctx context.Context, req mlflow.SearchRunsRequest) ([]mlflow.Run, error)
	GetRun(ctx context.Context, runID string) (*mlflow.Run, error)
	GetMetricHistory(ctx context.Context, runID, metricKey string) ([]mlflow.Metric, error)
	ListArtifacts(ctx context.Context, runID, path string) ([]mlflow.FileInfo, error)
}

type ObjectStore interface {
	ListObjects(ctx context.Context, bucket, prefix string, maxKeys int) ([]s3store.Object, error)
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	HeadObject(ctx context.Context, bucket, key string) (*s3store.ObjectMetadata, error)
}

type TrainingBackend interface {
	DescribeTrainingJob(ctx context.Context, jobName string) (*sagemaker.TrainingJobStatus, error)
	ListTrainingJobs(ctx context.Context, nameContains string, maxResults int) ([]sagemaker.TrainingJobSummary, error)
}
