package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rsamf/gamma/internal/platform/logger"
)

// DeliveryGuard remembers webhook delivery ids so GitHub redeliveries are not
// processed twice.
type DeliveryGuard interface {
	// FirstSeen records id and reports whether it had not been seen within the TTL.
	FirstSeen(ctx context.Context, id string) (bool, error)
	// Forget drops a recorded id so a redelivery is processed again.
	Forget(ctx context.Context, id string) error
	Close() error
}

type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

type deliveryGuard struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewDeliveryGuard(opts Options, log *logger.Logger) (DeliveryGuard, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "gamma:webhook:delivery:"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &deliveryGuard{
		log:    log.With("service", "RedisDeliveryGuard"),
		rdb:    rdb,
		prefix: opts.KeyPrefix,
		ttl:    opts.TTL,
	}, nil
}

func (g *deliveryGuard) FirstSeen(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return true, nil
	}
	ok, err := g.rdb.SetNX(ctx, g.prefix+id, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (g *deliveryGuard) Forget(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := g.rdb.Del(ctx, g.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (g *deliveryGuard) Close() error {
	return g.rdb.Close()
}

type noopGuard struct{}

// NoopGuard treats every delivery as new.
func NoopGuard() DeliveryGuard { return noopGuard{} }

func (noopGuard) FirstSeen(context.Context, string) (bool, error) { return true, nil }
func (noopGuard) Forget(context.Context, string) error { return nil }
func (noopGuard) Close() error { return nil }
