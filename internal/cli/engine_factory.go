package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/tally"
	"github.com/aretw0/tally/internal/config"
	"github.com/aretw0/tally/pkg/adapters/file"
	"github.com/aretw0/tally/pkg/adapters/memory"
	"github.com/aretw0/tally/pkg/adapters/redis"
	"github.com/aretw0/tally/pkg/observability"
	"github.com/aretw0/tally/pkg/persistence/middleware"
	"github.com/aretw0/tally/pkg/ports"
)

// Runtime bundles an Engine with the resources it owns.
type Runtime struct {
	Engine  *tally.Engine
	Store   ports.SessionStore
	Metrics *observability.Metrics
	Config  *config.Config
	Logger  *slog.Logger

	closers []func() error
}

// NewRuntime wires the store, optional encryption at rest, the optional distributed
// locker, metrics and logging hooks into an Engine according to cfg.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{
		Metrics: observability.NewMetrics(),
		Config:  cfg,
		Logger:  logger,
	}

	opts := []tally.Option{
		tally.WithLogger(logger),
		tally.WithLimits(cfg.Limits),
		tally.WithHistorySize(cfg.Session.HistorySize),
		tally.WithLifecycleHooks(rt.Metrics.Hooks().Merge(observability.LoggingHooks(logger))),
	}

	switch cfg.Store.Kind {
	case config.StoreFile:
		rt.Store = file.New(cfg.Store.Path)
	case config.StoreRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		rt.Store = store
		rt.closers = append(rt.closers, store.Close)
		if cfg.Redis.Lock {
			opts = append(opts, tally.WithLocker(redis.NewLocker(store.Client(), cfg.Redis.Prefix)))
		}
	default:
		rt.Store = memory.NewStore()
	}

	active, previous, err := cfg.Store.Keys()
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	if active != nil {
		rt.Store = middleware.Chain(rt.Store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: previous,
		}))
	}
	opts = append(opts, tally.WithStore(rt.Store))

	logger.Debug("runtime ready",
		"store", cfg.Store.Kind,
		"lock", cfg.Store.Kind == config.StoreRedis && cfg.Redis.Lock,
		"encrypted", active != nil,
	)
	rt.Engine = tally.New(opts...)
	return rt, nil
}

// Close releases store connections.
func (rt *Runtime) Close() error {
	var errs []error
	for _, c := range rt.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
