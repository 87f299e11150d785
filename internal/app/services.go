package app

import (
	"github.com/rsamf/gamma/internal/platform/logger"
	"github.com/rsamf/gamma/internal/services"
)

type Services struct {
	Projects    services.ProjectService
	Jobs        services.JobService
	Experiments services.ExperimentService
	Artifacts   services.ArtifactService
	Agent       services.AgentService
	Lifecycle   services.LifecycleService
}

func wireServices(cfg Config, log *logger.Logger, r Repos, c Clients) Services {
	log.Info("Wiring services...")
	agentCfg := services.AgentConfig{
		MaxDiffBytes:          cfg.Agent.MaxDiffBytes,
		StreamTimeout:         cfg.LLM.StreamTimeout,
		PersistPartialReplies: cfg.Agent.PersistPartialReplies,
	}
	agent := services.NewAgentService(log, agentCfg,
		r.Project, r.TrainingJob, r.Conversation, r.Message, r.CommitSummary,
		c.GitHub, c.MLflow, c.LLM)
	return Services{
		Projects:    services.NewProjectService(log, r.Project, r.Profile, r.Users, c.GitHub, cfg.AWS.DefaultBucket),
		Jobs:        services.NewJobService(log, r.TrainingJob, r.Project, c.SageMaker),
		Experiments: services.NewExperimentService(log, c.MLflow),
		Artifacts:   services.NewArtifactService(log, r.Project, c.S3),
		Agent:       agent,
		Lifecycle:   services.NewLifecycleService(log, c.GitHub, c.Delivery, r.Project, r.TrainingJob),
	}
}
