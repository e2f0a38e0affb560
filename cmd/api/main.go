package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/emiliorvera/brandvault-backend/api/responses"
	"github.com/emiliorvera/brandvault-backend/api/routes"
	"github.com/emiliorvera/brandvault-backend/internal/approval"
	"github.com/emiliorvera/brandvault-backend/internal/assets"
	"github.com/emiliorvera/brandvault-backend/internal/audit"
	"github.com/emiliorvera/brandvault-backend/internal/shares"
	"github.com/emiliorvera/brandvault-backend/internal/users"
	"github.com/emiliorvera/brandvault-backend/internal/visibility"
	"github.com/emiliorvera/brandvault-backend/pkg/config"
	"github.com/emiliorvera/brandvault-backend/pkg/db"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
	"github.com/emiliorvera/brandvault-backend/pkg/metrics"
	"github.com/emiliorvera/brandvault-backend/pkg/migrate"
	"github.com/emiliorvera/brandvault-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	registry := prometheus.NewRegistry()
	approvalMetrics := metrics.NewApprovalMetrics(registry)
	responses.SetImmutabilityObserver(approvalMetrics)

	userRepo := users.NewRepository(dbClient.DB())
	assetRepo := assets.NewRepository(dbClient.DB())
	shareRepo := shares.NewRepository(dbClient.DB())
	auditRepo := audit.NewRepository(dbClient.DB())

	auditService := audit.NewService(auditRepo, logg, cfg.Audit.QueryMaxLimit)
	shareService := shares.NewService(dbClient, shareRepo, assetRepo, userRepo, auditService, logg)
	engine := visibility.NewEngine(shareRepo)
	assetService := assets.NewService(dbClient, assetRepo, engine, shareRepo, auditService, logg)
	approvalService := approval.NewService(dbClient, assetRepo, auditService, approvalMetrics, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			assetService,
			approvalService,
			shareService,
			auditService,
		),
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := multierr.Append(server.Shutdown(shutdownCtx), <-serveErr); err != nil {
			logg.Error(ctx, "api server shutdown finished with errors", err)
			return
		}
		logg.Info(ctx, "api server stopped")
	}
}
