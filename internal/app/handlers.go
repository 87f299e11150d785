package app

import (
	"github.com/rsamf/gamma/internal/db"
	"github.com/rsamf/gamma/internal/http/handlers"
	"github.com/rsamf/gamma/internal/platform/logger"
)

type Handlers struct {
	Health     *handlers.HealthHandler
	Project    *handlers.ProjectHandler
	Job        *handlers.JobHandler
	Experiment *handlers.ExperimentHandler
	Artifact   *handlers.ArtifactHandler
	Agent      *handlers.AgentHandler
	Webhook    *handlers.WebhookHandler
}

func wireHandlers(cfg Config, log *logger.Logger, gw *db.Gateway, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     handlers.NewHealthHandler(cfg.AppName, gw),
		Project:    handlers.NewProjectHandler(log, s.Projects, s.Agent),
		Job:        handlers.NewJobHandler(log, s.Jobs),
		Experiment: handlers.NewExperimentHandler(log, s.Experiments),
		Artifact:   handlers.NewArtifactHandler(log, s.Artifacts),
		Agent:      handlers.NewAgentHandler(log, s.Agent),
		Webhook:    handlers.NewWebhookHandler(log, s.Lifecycle),
	}
}
