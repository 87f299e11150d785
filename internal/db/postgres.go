package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/platform/logger"
)

type Config struct {
	// URL is the restricted-privilege connection used for table-scoped CRUD.
	URL string
	// AdminURL is the privileged connection used for migrations and the auth
	// user directory. Empty reuses URL.
	AdminURL string
	// SimpleProtocol disables prepared statements, required behind
	// transaction-mode poolers such as PgBouncer / Supavisor.
	SimpleProtocol bool
	MaxOpenConns   int
	ConnMaxIdle    time.Duration
}

// Gateway owns both privilege tiers of the relational store.
type Gateway struct {
	restricted *gorm.DB
	admin      *gorm.DB
	log        *logger.Logger
}

func Open(cfg Config, log *logger.Logger) (*Gateway, error) {
	gwLog := log.With("service", "DBGateway")
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("database url is required")
	}

	gwLog.Info("Connecting to Postgres (restricted tier)...")
	restricted, err := openPostgres(cfg.URL, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect restricted tier: %w", err)
	}
	admin := restricted
	if adminURL := strings.TrimSpace(cfg.AdminURL); adminURL != "" && adminURL != cfg.URL {
		gwLog.Info("Connecting to Postgres (admin tier)...")
		admin, err = openPostgres(adminURL, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect admin tier: %w", err)
		}
	}
	return &Gateway{restricted: restricted, admin: admin, log: gwLog}, nil
}

// NewGateway wraps already-open handles; admin may be nil.
func NewGateway(restricted, admin *gorm.DB, log *logger.Logger) *Gateway {
	if admin == nil {
		admin = restricted
	}
	return &Gateway{restricted: restricted, admin: admin, log: log.With("service", "DBGateway")}
}

func openPostgres(dsn string, cfg Config) (*gorm.DB, error) {
	pgxCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.SimpleProtocol {
		pgxCfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	sqlDB := stdlib.OpenDB(*pgxCfg)
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxIdle > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdle)
	}
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Warn),
	})
}

func (g *Gateway) Restricted() *gorm.DB { return g.restricted }

func (g *Gateway) Admin() *gorm.DB { return g.admin }

// AutoMigrateAll creates the service tables. In production the schema is
// owned by Supabase migrations; this exists for local and test databases.
func (g *Gateway) AutoMigrateAll(ctx context.Context) error {
	g.log.Info("Auto migrating tables...")
	if err := g.admin.WithContext(ctx).AutoMigrate(types.Models()...); err != nil {
		g.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

// Ping checks both tiers.
func (g *Gateway) Ping(ctx context.Context) error {
	for name, gdb := range map[string]*gorm.DB{"restricted": g.restricted, "admin": g.admin} {
		sqlDB, err := gdb.DB()
		if err != nil {
			return fmt.Errorf("%s tier: %w", name, err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("%s tier: %w", name, err)
		}
	}
	return nil
}

func (g *Gateway) Close() error {
	var errs []error
	seen := map[*gorm.DB]bool{}
	for _, gdb := range []*gorm.DB{g.restricted, g.admin} {
		if gdb == nil || seen[gdb] {
			continue
		}
		seen[gdb] = true
		if sqlDB, err := gdb.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
