// Package bootstrap opens the storage backends selected in config. A backend
// that cannot be reached is left out and the service runs degraded.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/api/handlers"
	"github.com/ai-portfolio/backend/internal/cache/redis"
	"github.com/ai-portfolio/backend/internal/projects"
	"github.com/ai-portfolio/backend/internal/storage/csvlog"
	"github.com/ai-portfolio/backend/internal/storage/postgres"
	"github.com/ai-portfolio/backend/internal/storage/sqlite"
	"github.com/ai-portfolio/backend/internal/tracker"
	"github.com/ai-portfolio/backend/pkg/config"
	"github.com/ai-portfolio/backend/pkg/logger"
	"github.com/ai-portfolio/backend/pkg/retry"
)

const pingTimeout = 2 * time.Second

type Backends struct {
	// Projects is nil when the project store is unavailable.
	Projects projects.Store
	// Interactions is nil when the interaction log is unavailable.
	Interactions tracker.Sink
	// Cache is nil unless redis is enabled and reachable.
	Cache  *redis.Client
	Checks []handlers.Check

	sqlite   *sqlite.Client
	postgres *postgres.Client
	// Set once a backend failed, so its second role does not retry it.
	sqliteFailed   bool
	postgresFailed bool
	closers        []func() error
}

// Open connects every backend cfg asks for. It never fails; missing
// backends are logged and reported by the readiness checks.
func Open(ctx context.Context, cfg *config.Config, rc retry.Config) *Backends {
	b := &Backends{}

	switch cfg.Projects.Backend {
	case config.BackendSQLite:
		if c := b.openSQLite(ctx, cfg.SQLite.Path, rc); c != nil {
			b.Projects = c
		}
	case config.BackendPostgres:
		if c := b.openPostgres(ctx, cfg.Postgres.DSN, rc); c != nil {
			b.Projects = c
		}
	}
	if b.Projects == nil {
		logger.Warn("Project store unavailable, serving built-in projects only",
			zap.String("backend", cfg.Projects.Backend))
	}

	switch cfg.Tracker.Backend {
	case config.BackendCSV:
		sink := csvlog.New(cfg.Tracker.CSVPath)
		b.Interactions = sink
		logger.Info("Interaction log on CSV", zap.String("path", sink.Path()))
	case config.BackendSQLite:
		if c := b.openSQLite(ctx, cfg.SQLite.Path, rc); c != nil {
			b.Interactions = c
		}
	case config.BackendPostgres:
		if c := b.openPostgres(ctx, cfg.Postgres.DSN, rc); c != nil {
			b.Interactions = c
		}
	}
	if b.Interactions == nil {
		logger.Warn("Interaction log unavailable, analytics will be empty",
			zap.String("backend", cfg.Tracker.Backend))
	}

	if cfg.Redis.Enabled {
		b.Cache = b.openRedis(ctx, cfg.Redis, rc)
	}

	return b
}

// Close releases every opened client.
func (b *Backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logger.Warn("Failed to close backend", zap.Error(err))
		}
	}
	b.closers = nil
}

func (b *Backends) openSQLite(ctx context.Context, path string, rc retry.Config) *sqlite.Client {
	if b.sqlite != nil || b.sqliteFailed {
		return b.sqlite
	}

	c, err := sqlite.NewClient(path)
	if err != nil {
		logger.Error("Failed to open SQLite", zap.Error(err))
		b.sqliteFailed = true
		return nil
	}
	if err := pingAndInit(ctx, "sqlite", c.Ping, c.InitSchema, rc); err != nil {
		logger.Error("SQLite unavailable", zap.Error(err))
		c.Close()
		b.sqliteFailed = true
		return nil
	}

	b.sqlite = c
	b.closers = append(b.closers, c.Close)
	b.Checks = append(b.Checks, handlers.Check{Name: "sqlite", Fn: c.Ping})
	return c
}

func (b *Backends) openPostgres(ctx context.Context, dsn string, rc retry.Config) *postgres.Client {
	if b.postgres != nil || b.postgresFailed {
		return b.postgres
	}

	c, err := postgres.Open(dsn)
	if err != nil {
		logger.Error("Failed to open Postgres", zap.Error(err))
		b.postgresFailed = true
		return nil
	}
	if err := pingAndInit(ctx, "postgres", c.Ping, c.InitSchema, rc); err != nil {
		logger.Error("Postgres unavailable", zap.Error(err))
		c.Close()
		b.postgresFailed = true
		return nil
	}

	b.postgres = c
	b.closers = append(b.closers, c.Close)
	b.Checks = append(b.Checks, handlers.Check{Name: "postgres", Fn: c.Ping})
	return c
}

func (b *Backends) openRedis(ctx context.Context, cfg config.RedisConfig, rc retry.Config) *redis.Client {
	c := redis.NewClient(cfg.Host, cfg.Port, cfg.Password, cfg.DB)

	err := retry.Do(ctx, rc, func(ctx context.Context) error {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return c.Ping(pctx)
	})
	if err != nil {
		logger.Warn("Redis unavailable, answer cache disabled and drafts kept in memory", zap.Error(err))
		c.Close()
		return nil
	}

	b.closers = append(b.closers, c.Close)
	b.Checks = append(b.Checks, handlers.Check{Name: "redis", Fn: c.Ping})
	return c
}

func pingAndInit(ctx context.Context, name string, ping, initSchema func(context.Context) error, rc retry.Config) error {
	err := retry.Do(ctx, rc, func(ctx context.Context) error {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return ping(pctx)
	})
	if err != nil {
		return fmt.Errorf("%s ping: %w", name, err)
	}

	if err := initSchema(ctx); err != nil {
		return fmt.Errorf("%s schema: %w", name, err)
	}
	return nil
}
