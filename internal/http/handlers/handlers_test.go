package handlers_test

import (
	"bufio"
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rsamf/gamma/internal/data/repos"
	"github.com/rsamf/gamma/internal/data/repos/testutil"
	types "github.com/rsamf/gamma/internal/domain"
	gammahttp "github.com/rsamf/gamma/internal/http"
	"github.com/rsamf/gamma/internal/http/handlers"
	"github.com/rsamf/gamma/internal/platform/githubapp"
	"github.com/rsamf/gamma/internal/platform/llm"
	"github.com/rsamf/gamma/internal/platform/s3store"
	"github.com/rsamf/gamma/internal/services"
)

type scriptedModel struct {
	chunks []string
	failAt int
}

func (m *scriptedModel) Generate(context.Context, string, []llm.Message, int) (string, error) {
	return "summary", nil
}

func (m *scriptedModel) Stream(ctx context.Context, _ string, _ []llm.Message, _ int) (llm.Stream, error) {
	return &scriptedStream{ctx: ctx, chunks: m.chunks, failAt: m.failAt}, nil
}

type scriptedStream struct {
	ctx    context.Context
	chunks []string
	failAt int
	pos    int
}

func (s *scriptedStream) Recv() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.failAt > 0 && s.pos == s.failAt {
		return "", errors.New("overloaded")
	}
	if s.pos >= len(s.chunks) {
		return "", io.EOF
	}
	s.pos++
	return s.chunks[s.pos-1], nil
}

func (s *scriptedStream) Close() {}

type stubHost struct{}

func (stubHost) RepoInstallationID(context.Context, string, string) (int64, error) { return 5, nil }
func (stubHost) CommitDiff(context.Context, int64, string, string, string) (string, error) {
	return "+x", nil
}
func (stubHost) FileContent(context.Context, int64, string, string, string, string) (string, error) {
	return "", nil
}
func (stubHost) CreateCommit(context.Context, int64, string, string, string, string, map[string]string) (string, error) {
	return "c0ffee", nil
}
func (stubHost) ListReposForLogin(context.Context, string) ([]githubapp.Repo, error) {
	return nil, nil
}

type stubStore struct{}

func (stubStore) ListObjects(context.Context, string, string, int) ([]s3store.Object, error) {
	return []s3store.Object{}, nil
}
func (stubStore) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://" + bucket + "/" + key, nil
}
func (stubStore) HeadObject(context.Context, string, string) (*s3store.ObjectMetadata, error) {
	return &s3store.ObjectMetadata{}, nil
}

type env struct {
	db     *gorm.DB
	router http.Handler
	model  *scriptedModel
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	gh, err := githubapp.New(githubapp.Config{WebhookSecret: "s3cret"}, log)
	require.NoError(t, err)

	projectRepo := repos.NewProjectRepo(db, log)
	jobRepo := repos.NewTrainingJobRepo(db, log)
	model := &scriptedModel{}
	agent := services.NewAgentService(log, services.AgentConfig{}, projectRepo, jobRepo,
		repos.NewConversationRepo(db, log), repos.NewMessageRepo(db, log), repos.NewCommitSummaryRepo(db, log),
		stubHost{}, nil, model)
	projects := services.NewProjectService(log, projectRepo, repos.NewProfileRepo(db, log),
		repos.NewUserDirectory(db, "", log), stubHost{}, "gamma-artifacts")

	jobs := services.NewJobService(log, jobRepo, projectRepo, nil)
	artifacts := services.NewArtifactService(log, projectRepo, stubStore{})
	lifecycle := services.NewLifecycleService(log, gh, nil, projectRepo, jobRepo)

	router := gammahttp.NewRouter(gammahttp.RouterConfig{
		Log:             log,
		ServiceName:     "gamma",
		HealthHandler:   handlers.NewHealthHandler("gamma", nil),
		ProjectHandler:  handlers.NewProjectHandler(log, projects, agent),
		JobHandler:      handlers.NewJobHandler(log, jobs),
		ArtifactHandler: handlers.NewArtifactHandler(log, artifacts),
		AgentHandler:    handlers.NewAgentHandler(log, agent),
		WebhookHandler:  handlers.NewWebhookHandler(log, lifecycle),
	})
	return &env{db: db, router: router, model: model}
}

func (e *env) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		rdr = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// events returns the JSON payload of every "data: " line.
func events(t *testing.T, body string) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		out = append(out, ev)
	}
	return out
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"gamma"}`, rec.Body.String())
}

func TestErrorEnvelope(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/projects/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":{"message":"Project not found","code":"not_found"},"detail":"Project not found"}`, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/projects/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectCRUD(t *testing.T) {
	e := newEnv(t)
	owner := uuid.NewString()

	rec := e.do(t, http.MethodPost, "/api/projects", map[string]string{"github_repo_full_name": "acme/vision"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/projects?owner_id="+owner, map[string]string{"github_repo_full_name": "acme/vision"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[types.Project](t, rec)
	assert.Equal(t, "vision", created.Name)
	assert.Equal(t, int64(5), created.GitHubInstallationID)

	rec = e.do(t, http.MethodGet, "/api/projects?owner_id="+owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.Project](t, rec), 1)

	rec = e.do(t, http.MethodPatch, "/api/projects/"+created.ID.String(), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No fields to update")

	rec = e.do(t, http.MethodPatch, "/api/projects/"+created.ID.String(), map[string]string{"s3_prefix": "vision"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "vision", decode[types.Project](t, rec).S3Prefix)

	rec = e.do(t, http.MethodPost, "/api/projects/"+created.ID.String()+"/commits",
		map[string]any{"branch": "models/x", "message": "tune", "files": map[string]string{"a.py": "x"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "c0ffee", decode[map[string]string](t, rec)["commit_sha"])

	rec = e.do(t, http.MethodDelete, "/api/projects/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(t, http.MethodGet, "/api/projects/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatStreamsEvents(t *testing.T) {
	e := newEnv(t)
	p := testutil.SeedProject(t, e.db, uuid.New(), "acme/vision", time.Now().UTC())
	e.model.chunks = []string{"Hel", "lo"}

	rec := e.do(t, http.MethodPost, "/api/agent/chat/"+p.ID.String(), map[string]string{"message": "hi"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	evs := events(t, rec.Body.String())
	require.Len(t, evs, 3)
	assert.Equal(t, "Hel", evs[0]["text"])
	assert.Equal(t, "lo", evs[1]["text"])
	assert.Equal(t, true, evs[2]["done"])
	convID, _ := evs[2]["conversation_id"].(string)
	require.NotEmpty(t, convID)

	rec = e.do(t, http.MethodGet, "/api/agent/conversations/"+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	convs := decode[[]types.AgentConversation](t, rec)
	require.Len(t, convs, 1)
	assert.Equal(t, convID, convs[0].ID.String())

	rec = e.do(t, http.MethodGet, "/api/agent/conversations/"+convID+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decode[[]types.AgentMessage](t, rec)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "Hello", msgs[1].Content)
}

func TestChatErrorsBeforeStreamAreJSON(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/api/agent/chat/"+uuid.NewString(), map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEqual(t, "text/event-stream", rec.Header().Get("Content-Type"))
}

func TestChatModelFailureIsReportedInBand(t *testing.T) {
	e := newEnv(t)
	p := testutil.SeedProject(t, e.db, uuid.New(), "acme/vision", time.Now().UTC())
	e.model.chunks = []string{"par", "tial"}
	e.model.failAt = 1

	rec := e.do(t, http.MethodPost, "/api/agent/chat/"+p.ID.String(), map[string]string{"message": "hi"})
	require.Equal(t, http.StatusOK, rec.Code)
	evs := events(t, rec.Body.String())
	require.Len(t, evs, 2)
	assert.Equal(t, "par", evs[0]["text"])
	assert.Contains(t, evs[1]["error"], "overloaded")
}

func TestCommitSummaryEndpoint(t *testing.T) {
	e := newEnv(t)
	p := testutil.SeedProject(t, e.db, uuid.New(), "acme/vision", time.Now().UTC())

	rec := e.do(t, http.MethodPost, "/api/agent/summary/"+p.ID.String()+"/abc123", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	s := decode[types.CommitSummary](t, rec)
	assert.Equal(t, "summary", s.Summary)
	assert.Equal(t, "abc123", s.CommitSHA)
}

func TestGitHubWebhook(t *testing.T) {
	e := newEnv(t)
	testutil.SeedProject(t, e.db, uuid.New(), "acme/vision", time.Now().UTC())
	body := []byte(`{"ref":"refs/heads/models/v2","after":"abc","repository":{"full_name":"acme/vision"}}`)
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(body)
	sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	rec := e.do(t, http.MethodPost, "/api/webhooks/github", body, githubapp.HeaderEvent, "push", githubapp.HeaderSignature, sig)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[services.WebhookResult](t, rec)
	assert.Equal(t, "created", res.Status)
	require.NotNil(t, res.JobID)

	rec = e.do(t, http.MethodGet, "/api/jobs/"+res.JobID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "models/v2", decode[types.TrainingJob](t, rec).Branch)

	rec = e.do(t, http.MethodPost, "/api/webhooks/github", body, githubapp.HeaderEvent, "push", githubapp.HeaderSignature, "sha256=deadbeef")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/webhooks/github", []byte(`{}`), githubapp.HeaderEvent, "ping")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ignored","event":"ping"}`, rec.Body.String())
}

func TestArtifactDownloadURL(t *testing.T) {
	e := newEnv(t)
	p := testutil.SeedProject(t, e.db, uuid.New(), "acme/vision", time.Now().UTC())

	rec := e.do(t, http.MethodGet, "/api/artifacts/"+p.ID.String()+"/download-url", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/artifacts/"+p.ID.String()+"/download-url?key=m/model.pt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"url":"https://gamma-artifacts/m/model.pt"}`, rec.Body.String())
}

func TestJobSageMakerStatusWithoutName(t *testing.T) {
	e := newEnv(t)
	p := testutil.SeedProject(t, e.db, uuid.New(), "acme/vision", time.Now().UTC())
	job := testutil.SeedJob(t, e.db, p.ID, "abc", types.JobPending, time.Now().UTC())

	rec := e.do(t, http.MethodGet, "/api/jobs/"+job.ID.String()+"/sagemaker-status", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
