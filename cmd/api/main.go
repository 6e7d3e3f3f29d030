package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/queue-repair/internal/api/http"
	"github.com/spec-kit/queue-repair/internal/api/http/handlers"
	"github.com/spec-kit/queue-repair/internal/auth"
	"github.com/spec-kit/queue-repair/internal/bootstrap"
	"github.com/spec-kit/queue-repair/internal/config"
	"github.com/spec-kit/queue-repair/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize", zap.Error(err))
	}
	defer rt.Close()
	if rt.LoadErr != nil {
		logger.Warn("starting with empty ticket data", zap.Error(rt.LoadErr))
	}

	scheduler, err := rt.NewScheduler()
	if err != nil {
		logger.Fatal("failed to build scheduler", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	if !tokens.Enabled() {
		logger.Warn("AUTH_JWT_SECRET not set; mutating routes are unauthenticated")
	}

	app := httptransport.NewApp(cfg.App.Name,
		httptransport.AppDependencies{Logger: logger, Metrics: rt.Metrics, Timeout: cfg.App.RequestTimeout()},
		httptransport.RouteConfig{
			Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, rt.Tickets.StorageName(), map[string]handlers.Pinger{
				"postgres": rt.Postgres,
				"redis":    rt.Redis,
			}),
			Tickets:        handlers.NewTicketsHandler(rt.Tickets),
			Dashboard:      handlers.NewDashboardHandler(rt.Tickets),
			Maintenance:    handlers.NewMaintenanceHandler(rt.Tickets, cfg.Export.Dir),
			AuthMiddleware: auth.NewAuthMiddleware(tokens),
			Gatherer:       rt.Registry,
		})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.Shutdown()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("service stopped with error", zap.Error(err))
	}
}
