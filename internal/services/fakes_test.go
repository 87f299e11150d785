package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rsamf/gamma/internal/platform/githubapp"
	"github.com/rsamf/gamma/internal/platform/llm"
	"github.com/rsamf/gamma/internal/platform/mlflow"
	"github.com/rsamf/gamma/internal/platform/s3store"
	"github.com/rsamf/gamma/internal/platform/sagemaker"
)

type fakeRepoHost struct {
	installationID int64
	diff           string
	diffErr        error
	diffCalls      int32
	repos          []githubapp.Repo
	loginSeen      string
	commitFiles    map[string]string
}

func (f *fakeRepoHost) RepoInstallationID(_ context.Context, owner, repo string) (int64, error) {
	return f.installationID, nil
}

func (f *fakeRepoHost) CommitDiff(_ context.Context, _ int64, _, _, _ string) (string, error) {
	atomic.AddInt32(&f.diffCalls, 1)
	return f.diff, f.diffErr
}

func (f *fakeRepoHost) FileContent(_ context.Context, _ int64, _, _, path, _ string) (string, error) {
	return "content of " + path, nil
}

func (f *fakeRepoHost) CreateCommit(_ context.Context, _ int64, _, _, _, _ string, files map[string]string) (string, error) {
	f.commitFiles = files
	return "newsha", nil
}

func (f *fakeRepoHost) ListReposForLogin(_ context.Context, login string) ([]githubapp.Repo, error) {
	f.loginSeen = login
	return f.repos, nil
}

type fakeTracker struct {
	run        *mlflow.Run
	runErr     error
	experiment *mlflow.Experiment
	searchReq  mlflow.SearchRunsRequest
}

func (f *fakeTracker) SearchExperiments(context.Context, int) ([]mlflow.Experiment, error) {
	return []mlflow.Experiment{}, nil
}

func (f *fakeTracker) GetExperimentByName(context.Context, string) (*mlflow.Experiment, error) {
	return f.experiment, nil
}

func (f *fakeTracker) SearchRuns(_ context.Context, req mlflow.SearchRunsRequest) ([]mlflow.Run, error) {
	f.searchReq = req
	return []mlflow.Run{}, nil
}

func (f *fakeTracker) GetRun(context.Context, string) (*mlflow.Run, error) {
	return f.run, f.runErr
}

func (f *fakeTracker) GetMetricHistory(context.Context, string, string) ([]mlflow.Metric, error) {
	return []mlflow.Metric{}, nil
}

func (f *fakeTracker) ListArtifacts(context.Context, string, string) ([]mlflow.FileInfo, error) {
	return []mlflow.FileInfo{}, nil
}

type fakeLLM struct {
	mu            sync.Mutex
	summary       string
	generateCalls int32
	generateDelay time.Duration
	started       chan struct{}
	release       chan struct{}
	chunks        []string
	failAt        int
	lastSystem    string
	lastMessages  []llm.Message
	lastMaxTokens int
}

// Generate blocks on release, when set, until it is closed or ctx ends.
func (f *fakeLLM) Generate(ctx context.Context, system string, msgs []llm.Message, maxTokens int) (string, error) {
	atomic.AddInt32(&f.generateCalls, 1)
	if f.generateDelay > 0 {
		time.Sleep(f.generateDelay)
	}
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	f.lastSystem, f.lastMessages, f.lastMaxTokens = system, msgs, maxTokens
	f.mu.Unlock()
	return f.summary, nil
}

func (f *fakeLLM) Stream(ctx context.Context, system string, msgs []llm.Message, maxTokens int) (llm.Stream, error) {
	f.mu.Lock()
	f.lastSystem, f.lastMessages, f.lastMaxTokens = system, msgs, maxTokens
	f.mu.Unlock()
	return &fakeStream{ctx: ctx, chunks: f.chunks, failAt: f.failAt}, nil
}

type fakeStream struct {
	ctx    context.Context
	chunks []string
	failAt int
	pos    int
	closed bool
}

func (s *fakeStream) Recv() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.failAt > 0 && s.pos == s.failAt {
		return "", errors.New("model overloaded")
	}
	if s.pos >= len(s.chunks) {
		return "", io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}

func (s *fakeStream) Close() { s.closed = true }

type fakeStore struct {
	bucket, prefix, key string
}

func (f *fakeStore) ListObjects(_ context.Context, bucket, prefix string, _ int) ([]s3store.Object, error) {
	f.bucket, f.prefix = bucket, prefix
	return []s3store.Object{{Key: prefix + "model.pt", Size: 1}}, nil
}

func (f *fakeStore) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	f.bucket, f.key = bucket, key
	return "https://signed/" + key, nil
}

func (f *fakeStore) HeadObject(_ context.Context, bucket, key string) (*s3store.ObjectMetadata, error) {
	f.bucket, f.key = bucket, key
	return &s3store.ObjectMetadata{Key: key, Size: 3, Metadata: map[string]string{}}, nil
}

type fakeTraining struct {
	described string
}

func (f *fakeTraining) DescribeTrainingJob(_ context.Context, name string) (*sagemaker.TrainingJobStatus, error) {
	f.described = name
	return &sagemaker.TrainingJobStatus{JobName: name, Status: "InProgress"}, nil
}

func (f *fakeTraining) ListTrainingJobs(context.Context, string, int) ([]sagemaker.TrainingJobSummary, error) {
	return []sagemaker.TrainingJobSummary{}, nil
}

type fakeGuard struct {
	seen map[string]bool
}

func (g *fakeGuard) FirstSeen(_ context.Context, id string) (bool, error) {
	if id == "" {
		return true, nil
	}
	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	if g.seen[id] {
		return false, nil
	}
	g.seen[id] = true
	return true, nil
}

func (g *fakeGuard) Forget(_ context.Context, id string) error {
	delete(g.seen, id)
	return nil
}

func (g *fakeGuard) Close() error { return nil }
