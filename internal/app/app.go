package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/rsamf/gamma/internal/db"
	gammahttp "github.com/rsamf/gamma/internal/http"
	"github.com/rsamf/gamma/internal/observability"
	"github.com/rsamf/gamma/internal/platform/logger"
)

// Version is stamped at build time with -ldflags "-X .../internal/app.Version=...".
var Version = "dev"

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Gateway
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *gammahttp.Server

	otelShutdown func(context.Context) error
}

func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.AppName,
		Version:     Version,
	})

	gw, err := wireDB(cfg, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := gw.AutoMigrateAll(ctx); err != nil {
			_ = gw.Close()
			log.Sync()
			return nil, fmt.Errorf("postgres automigrate: %w", err)
		}
	}

	clients, err := wireClients(ctx, cfg, log)
	if err != nil {
		_ = gw.Close()
		log.Sync()
		return nil, err
	}
	reposet := wireRepos(gw, cfg.Database.AuthUsersTable, log)
	serviceset := wireServices(cfg, log, reposet, clients)
	h := wireHandlers(cfg, log, gw, serviceset)

	server := gammahttp.NewServer(gammahttp.RouterConfig{
		Log:               log,
		ServiceName:       cfg.AppName,
		CORSOrigins:       cfg.CORSOrigins,
		Tracing:           observability.Enabled(),
		HealthHandler:     h.Health,
		ProjectHandler:    h.Project,
		JobHandler:        h.Job,
		ExperimentHandler: h.Experiment,
		ArtifactHandler:   h.Artifact,
		AgentHandler:      h.Agent,
		WebhookHandler:    h.Webhook,
	})

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           gw,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Server:       server,
		otelShutdown: shutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.Addr(), "service", a.Cfg.AppName, "version", Version)
	return a.Server.Run(ctx, a.Cfg.Addr(), a.Cfg.ShutdownTimeout)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Clients.Delivery != nil {
		if err := a.Clients.Delivery.Close(); err != nil {
			a.Log.Warn("close delivery guard failed", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("close database failed", "error", err)
		}
	}
	a.Log.Sync()
}

// Migrate creates or updates every service table through the admin tier.
func Migrate(ctx context.Context, cfg Config) error {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	gw, err := wireDB(cfg, log)
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	defer func() { _ = gw.Close() }()
	if err := gw.AutoMigrateAll(ctx); err != nil {
		return fmt.Errorf("postgres automigrate: %w", err)
	}
	log.Info("migrations applied")
	return nil
}
