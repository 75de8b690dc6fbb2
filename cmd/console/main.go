package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesaboardhq/mesaboard-backend/api/routes"
	"github.com/mesaboardhq/mesaboard-backend/internal/identity"
	"github.com/mesaboardhq/mesaboard-backend/internal/profiles"
	"github.com/mesaboardhq/mesaboard-backend/internal/restaurants"
	"github.com/mesaboardhq/mesaboard-backend/internal/session"
	"github.com/mesaboardhq/mesaboard-backend/internal/snapshot"
	"github.com/mesaboardhq/mesaboard-backend/pkg/config"
	"github.com/mesaboardhq/mesaboard-backend/pkg/db"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
	"github.com/mesaboardhq/mesaboard-backend/pkg/metrics"
	"github.com/mesaboardhq/mesaboard-backend/pkg/migrate"
	"github.com/mesaboardhq/mesaboard-backend/pkg/redis"
)

const shutdownGrace = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "console"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "console",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	sessionMetrics := metrics.NewSessionMetrics(registry)

	kratosClient := identity.New(cfg.Kratos, logg)
	profileService := profiles.NewService(profiles.NewRepository(dbClient.DB()), logg)
	restaurantService := restaurants.NewService(dbClient.DB(), restaurants.NewRepository(dbClient.DB()), profiles.NewRepository(dbClient.DB()), logg)
	snapshotStore := snapshot.NewStore(cfg.Snapshot)

	reconciler := session.NewReconciler(kratosClient, profileService, snapshotStore, sessionMetrics, logg, cfg.Session)
	defer reconciler.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := reconciler.Start(ctx)
	logg.Info(logg.WithField(ctx, "session_status", string(st.Status)), "session reconciler started")

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting console server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			reconciler,
			reconciler,
			sessionMetrics,
			registry,
			profileService,
			restaurantService,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "server shutdown failed", err)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(runCtx, "console server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}
