package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"plantid_backend/internal/app/config"
	"plantid_backend/internal/app/di"
	"plantid_backend/internal/app/router"
	careadapters "plantid_backend/internal/feature/care/adapters"
	carehandler "plantid_backend/internal/feature/care/transport/handler"
	identificationhandler "plantid_backend/internal/feature/identification/transport/handler"
	"plantid_backend/internal/platform/http/handler"
	"plantid_backend/internal/platform/logging"
	"plantid_backend/internal/platform/metrics"
	infraredis "plantid_backend/internal/platform/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// config
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, err := logging.Setup(os.Stdout, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		return err
	}
	metrics.Register()

	// Redis
	var rdb *redisv9.Client
	var readiness []handler.ReadinessCheck
	if cfg.Redis.Enabled() {
		if tmp, err := infraredis.NewRedisClient(ctx, cfg.Redis); err != nil {
			slog.Warn("Redis unavailable. Running without cache.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
			readiness = append(readiness, handler.ReadinessCheck{
				Name:  "redis",
				Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			})
		}
	}

	// Adapters
	providers, closeProviders, err := di.NewProviders(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeProviders()

	store, err := di.NewImageStore(cfg)
	if err != nil {
		return err
	}
	catalog, err := careadapters.LoadCatalog(cfg.CareCatalogPath)
	if err != nil {
		return err
	}

	// Usecase
	identificationUC := di.NewIdentificationUsecase(providers, store, di.NewResultCache(rdb, cfg), cfg)

	// Handler
	identificationH := identificationhandler.NewIdentificationHandler(identificationUC, cfg.MaxUploadBytes)
	careH := carehandler.NewCareHandler(catalog)

	// ルータ生成
	engine := router.NewRouter(router.Options{
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		MaxMultipartMemory: cfg.MaxUploadBytes,
		Readiness:          readiness,
	}, identificationH, careH)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr, "providers", identificationUC.ProviderNames(), "upload_dir", store.Dir())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
