// Package bootstrap assembles the ticket service and its infrastructure from configuration.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-repair/internal/config"
	"github.com/spec-kit/queue-repair/internal/events"
	"github.com/spec-kit/queue-repair/internal/observability"
	"github.com/spec-kit/queue-repair/internal/persistence"
	"github.com/spec-kit/queue-repair/internal/repository"
	"github.com/spec-kit/queue-repair/internal/service"
	"github.com/spec-kit/queue-repair/internal/worker"
)

const cleanupLockKey = "queuerepair:cleanup:lock"

// Runtime holds the wired components shared by the server and the CLI.
type Runtime struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Postgres *persistence.Postgres
	Redis    *persistence.Redis
	Tickets  *service.TicketService

	// LoadErr is the non-fatal error from the initial load, such as corrupt data.
	LoadErr error
}

// New connects storage, registers notification handlers and loads tickets.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	rt := &Runtime{Config: cfg, Logger: logger, Registry: reg, Metrics: metrics}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	rt.Postgres = pg

	if cfg.Postgres.RunMigrations && pg.Enabled() {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			rt.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	rt.Redis = persistence.NewRedis(cfg.Redis, logger)

	dispatcher := events.NewInMemoryDispatcher()
	var publisher service.EventPublisher
	if rt.Redis.Enabled() {
		publisher = rt.Redis
	}
	service.NewNotificationService(dispatcher, publisher, logger, cfg.Notification).RegisterHandlers()

	rt.Tickets = service.NewTicketService(service.TicketDependencies{
		Repository: newRepository(cfg, pg),
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
		Retention:  cfg.Cleanup.Retention(),
	})
	_, rt.LoadErr = rt.Tickets.Load(ctx)
	return rt, nil
}

func newRepository(cfg *config.Config, pg *persistence.Postgres) repository.TicketRepository {
	if cfg.Storage.Driver == config.StorageDriverPostgres {
		return repository.NewPostgresTicketRepository(pg.PoolHandle())
	}
	return repository.NewFileTicketRepository(cfg.Storage.DataPath())
}

// NewScheduler registers the cleanup job behind a Redis lock when Redis is available.
func (rt *Runtime) NewScheduler() (*worker.Scheduler, error) {
	cleanup, err := worker.NewCleanupJob(rt.Tickets, rt.Logger)
	if err != nil {
		return nil, err
	}

	var lock worker.Lock = worker.NoopLock{}
	if rt.Config.Cleanup.LockEnabled && rt.Redis.Enabled() {
		redisLock, err := worker.NewRedisLock(rt.Redis, cleanupLockKey, rt.Config.Cleanup.Interval)
		if err != nil {
			return nil, err
		}
		lock = redisLock
	}

	return worker.NewScheduler(worker.SchedulerParams{
		Logger:   rt.Logger.Named("scheduler"),
		Registry: worker.NewRegistry(cleanup),
		Lock:     lock,
		Metrics:  rt.Metrics,
		Interval: rt.Config.Cleanup.Interval,
	})
}

// Close releases connections.
func (rt *Runtime) Close() {
	rt.Redis.Close()
	rt.Postgres.Close()
}
