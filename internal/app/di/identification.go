// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"plantid_backend/internal/app/config"
	"plantid_backend/internal/feature/identification/adapters/gemini"
	"plantid_backend/internal/feature/identification/adapters/openai"
	"plantid_backend/internal/feature/identification/adapters/plantnet"
	"plantid_backend/internal/feature/identification/adapters/resilience"
	"plantid_backend/internal/feature/identification/adapters/vision"
	"plantid_backend/internal/feature/identification/usecase"
	"plantid_backend/internal/platform/cache"
	infrahttp "plantid_backend/internal/platform/http"
	"plantid_backend/internal/platform/tempfile"
	"plantid_backend/internal/shared/ratelimiter"
)

// NewProviders creates the configured providers in PROVIDERS order, each wrapped in a
// resilience.Guard. The returned cleanup releases gRPC connections and must be called on shutdown.
func NewProviders(ctx context.Context, cfg *config.Config) ([]usecase.PlantIdentifier, func(), error) {
	var (
		providers []usecase.PlantIdentifier
		closers   []func() error
	)
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Warn("failed to close provider", "error", err)
			}
		}
	}

	for _, name := range cfg.Providers {
		timeout := providerTimeout(name, cfg)
		p, closeFn, err := newProvider(ctx, name, cfg, timeout)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("provider %s: %w", name, err)
		}
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
		limiter := ratelimiter.NewRateLimiter(name, cfg.ProviderRatePerMinute, time.Minute)
		guardCfg := resilience.Config{Timeout: timeout, MaxRetries: cfg.ProviderMaxRetries}
		providers = append(providers, resilience.NewGuard(p, guardCfg, limiter))
	}

	slog.Info("identification providers configured", "providers", cfg.Providers, "timeout", cfg.ProviderTimeout, "max_retries", cfg.ProviderMaxRetries)
	return providers, cleanup, nil
}

func newProvider(ctx context.Context, name string, cfg *config.Config, timeout time.Duration) (usecase.PlantIdentifier, func() error, error) {
	switch name {
	case config.ProviderGemini:
		p, err := gemini.NewGeminiIdentifier(ctx, cfg.Gemini)
		return p, nil, err
	case config.ProviderOpenAI:
		p, err := openai.NewOpenAIIdentifier(cfg.OpenAI, infrahttp.NewHTTPClient(timeout))
		return p, nil, err
	case config.ProviderPlantNet:
		p, err := plantnet.NewPlantNetIdentifier(cfg.PlantNet, infrahttp.NewHTTPClient(timeout))
		return p, nil, err
	case config.ProviderVision:
		p, err := vision.NewVisionIdentifier(ctx)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown provider %q", name)
}

// providerTimeout returns the per-attempt timeout for name. OPENAI_TIMEOUT and
// PLANTNET_TIMEOUT override PROVIDER_TIMEOUT when set.
func providerTimeout(name string, cfg *config.Config) time.Duration {
	var override time.Duration
	switch name {
	case config.ProviderOpenAI:
		override = cfg.OpenAI.Timeout
	case config.ProviderPlantNet:
		override = cfg.PlantNet.Timeout
	}
	if override > 0 {
		return override
	}
	return cfg.ProviderTimeout
}

// NewResultCache creates a ResultCache implementation.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, identification runs without a cache.
func NewResultCache(rdb *redis.Client, cfg *config.Config) usecase.ResultCache {
	if rdb != nil {
		return cache.NewResultCache(rdb, cfg.CacheTTL, "plantid")
	}
	return nil
}

// NewImageStore creates the temporary upload store and removes uploads
// older than STALE_UPLOAD_AGE left behind by a previous process.
func NewImageStore(cfg *config.Config) (*tempfile.Store, error) {
	store, err := tempfile.NewStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	if n, err := store.Sweep(cfg.StaleUploadAge); err != nil {
		slog.Warn("failed to sweep stale uploads", "dir", store.Dir(), "error", err)
	} else if n > 0 {
		slog.Info("removed stale uploads", "dir", store.Dir(), "count", n)
	}
	return store, nil
}

// NewIdentificationUsecase wires providers, store and cache into the orchestrator.
func NewIdentificationUsecase(providers []usecase.PlantIdentifier, store usecase.ImageStore, resultCache usecase.ResultCache, cfg *config.Config) *usecase.IdentificationUsecase {
	return usecase.NewIdentificationUsecase(providers, nil, store, resultCache, cfg.UploadPolicy())
}
