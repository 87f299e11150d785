package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/rsamf/gamma/internal/http/handlers"
	httpMW "github.com/rsamf/gamma/internal/http/middleware"
	"github.com/rsamf/gamma/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Tracing     bool

	HealthHandler     *httpH.HealthHandler
	ProjectHandler    *httpH.ProjectHandler
	JobHandler        *httpH.JobHandler
	ExperimentHandler *httpH.ExperimentHandler
	ArtifactHandler   *httpH.ArtifactHandler
	AgentHandler      *httpH.AgentHandler
	WebhookHandler    *httpH.WebhookHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	api := r.Group("/api")

	// Health
	if cfg.HealthHandler != nil {
		api.GET("/health", cfg.HealthHandler.HealthCheck)
	}

	// Projects
	if h := cfg.ProjectHandler; h != nil {
		api.GET("/projects", h.List)
		api.POST("/projects", h.Create)
		api.GET("/projects/:id", h.Get)
		api.PATCH("/projects/:id", h.Update)
		api.DELETE("/projects/:id", h.Delete)
		api.GET("/projects/:id/commits/:sha/diff", h.CommitDiff)
		api.POST("/projects/:id/commits", h.CommitFiles)
		api.GET("/projects/:id/files", h.FileContent)
		api.GET("/github/repos", h.ListGitHubRepos)
	}

	// Training jobs
	if h := cfg.JobHandler; h != nil {
		api.GET("/jobs", h.List)
		api.POST("/jobs", h.Create)
		api.GET("/jobs/:id", h.Get)
		api.PATCH("/jobs/:id", h.Update)
		api.GET("/jobs/:id/sagemaker-status", h.SageMakerStatus)
		api.GET("/sagemaker/jobs", h.ListSageMakerJobs)
	}

	// MLflow
	if h := cfg.ExperimentHandler; h != nil {
		api.GET("/experiments", h.List)
		api.GET("/experiments/:name/runs", h.ListRuns)
		api.GET("/experiments/runs/:run_id", h.GetRun)
		api.GET("/experiments/runs/:run_id/metrics/:metric_key", h.MetricHistory)
		api.GET("/experiments/runs/:run_id/artifacts", h.ListArtifacts)
	}

	// S3 artifacts
	if h := cfg.ArtifactHandler; h != nil {
		api.GET("/artifacts/:project_id", h.List)
		api.GET("/artifacts/:project_id/download-url", h.DownloadURL)
		api.GET("/artifacts/:project_id/metadata", h.Metadata)
	}

	// Agent
	if h := cfg.AgentHandler; h != nil {
		api.POST("/agent/summary/:project_id/:commit_sha", h.CommitSummary)
		api.POST("/agent/chat/:project_id", h.Chat)
		api.GET("/agent/conversations/:id", h.ListConversations)
		api.GET("/agent/conversations/:id/messages", h.ListMessages)
	}

	// Webhooks
	if cfg.WebhookHandler != nil {
		api.POST("/webhooks/github", cfg.WebhookHandler.GitHub)
	}

	return r
}
