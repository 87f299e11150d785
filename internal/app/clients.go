package app

import (
	"context"
	"fmt"

	"github.com/rsamf/gamma/internal/clients/redis"
	"github.com/rsamf/gamma/internal/db"
	"github.com/rsamf/gamma/internal/platform/awsconf"
	"github.com/rsamf/gamma/internal/platform/githubapp"
	"github.com/rsamf/gamma/internal/platform/llm"
	"github.com/rsamf/gamma/internal/platform/logger"
	"github.com/rsamf/gamma/internal/platform/mlflow"
	"github.com/rsamf/gamma/internal/platform/s3store"
	"github.com/rsamf/gamma/internal/platform/sagemaker"
)

type Clients struct {
	GitHub    *githubapp.Client
	MLflow    *mlflow.Client
	S3        *s3store.Store
	SageMaker *sagemaker.Client
	LLM       llm.Client
	Delivery  redis.DeliveryGuard
}

func wireClients(ctx context.Context, cfg Config, log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	// GitHub App
	gh, err := githubapp.New(githubapp.Config{
		AppID:         cfg.GitHub.AppID,
		PrivateKey:    cfg.GitHub.PrivateKey,
		WebhookSecret: cfg.GitHub.WebhookSecret,
		BaseURL:       cfg.GitHub.APIURL,
		Timeout:       cfg.HTTPTimeout,
	}, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init github app client: %w", err)
	}
	if cfg.GitHub.AppID == "" {
		log.Warn("GITHUB_APP_ID not set; repository features will answer 503")
	}
	if cfg.GitHub.WebhookSecret == "" {
		log.Warn("GITHUB_WEBHOOK_SECRET not set; signed webhooks will be rejected")
	}

	// MLflow
	ml := mlflow.New(mlflow.Config{TrackingURI: cfg.MLflow.TrackingURI, Timeout: cfg.HTTPTimeout}, log)

	// AWS
	awsCfg, err := awsconf.Load(ctx, cfg.AWS.Region, cfg.HTTPTimeout)
	if err != nil {
		return Clients{}, err
	}
	store := s3store.New(awsCfg, s3store.Config{Endpoint: cfg.AWS.S3Endpoint, PresignTTL: cfg.AWS.PresignTTL}, log)
	sm := sagemaker.New(awsCfg, log)

	// Anthropic
	model := llm.Unconfigured()
	if cfg.LLM.APIKey != "" {
		model, err = llm.NewClaude(ctx, llm.Config{
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
		}, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init llm client: %w", err)
		}
	} else {
		log.Warn("ANTHROPIC_API_KEY not set; agent endpoints will answer 503")
	}

	// Redis
	guard := redis.NoopGuard()
	if cfg.Redis.Addr != "" {
		guard, err = redis.NewDeliveryGuard(redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.DeliveryTTL,
		}, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init webhook delivery guard: %w", err)
		}
	}

	return Clients{
		GitHub:    gh,
		MLflow:    ml,
		S3:        store,
		SageMaker: sm,
		LLM:       model,
		Delivery:  guard,
	}, nil
}

func wireDB(cfg Config, log *logger.Logger) (*db.Gateway, error) {
	return db.Open(db.Config{
		URL:            cfg.Database.URL,
		AdminURL:       cfg.Database.AdminURL,
		SimpleProtocol: cfg.Database.SimpleProtocol,
		MaxOpenConns:   cfg.Database.MaxOpenConns,
	}, log)
}
