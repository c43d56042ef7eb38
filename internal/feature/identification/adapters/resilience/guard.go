// Package resilience wraps identification providers with per-call timeouts,
// outbound rate limiting, bounded retries and metrics.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"plantid_backend/internal/feature/identification/domain"
	"plantid_backend/internal/feature/identification/domain/entity"
	"plantid_backend/internal/feature/identification/usecase"
	"plantid_backend/internal/platform/metrics"
	"plantid_backend/internal/shared/ratelimiter"
)

var _ usecase.PlantIdentifier = (*Guard)(nil)

const (
	DefaultTimeout     = 20 * time.Second
	DefaultBaseBackoff = 500 * time.Millisecond
	DefaultMaxBackoff  = 5 * time.Second
)

// Config controls how a Guard calls its provider.
type Config struct {
	// Timeout bounds a single attempt. Zero uses DefaultTimeout.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a retryable failure.
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Guard is a PlantIdentifier decorator.
type Guard struct {
	inner   usecase.PlantIdentifier
	cfg     Config
	limiter ratelimiter.RateLimiterInterface
}

// NewGuard wraps inner. limiter may be nil.
func NewGuard(inner usecase.PlantIdentifier, cfg Config, limiter ratelimiter.RateLimiterInterface) *Guard {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultBaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	return &Guard{inner: inner, cfg: cfg, limiter: limiter}
}

func (g *Guard) Name() string { return g.inner.Name() }

// Identify calls the wrapped provider, retrying retryable transport failures.
func (g *Guard) Identify(ctx context.Context, image []byte, mimeType string) (entity.ProviderResponse, error) {
	name := g.inner.Name()
	start := time.Now()

	resp, err := g.identify(ctx, image, mimeType)

	metrics.ProviderRequestDurationSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
	result := "success"
	if err != nil {
		result = string(domain.KindOf(err))
	}
	metrics.ProviderRequestsTotal.WithLabelValues(name, result).Inc()

	return resp, err
}

func (g *Guard) identify(ctx context.Context, image []byte, mimeType string) (entity.ProviderResponse, error) {
	for attempt := 0; ; attempt++ {
		resp, err := g.attempt(ctx, image, mimeType)
		if err == nil {
			return resp, nil
		}
		if attempt >= g.cfg.MaxRetries || !retryable(err) || ctx.Err() != nil {
			return nil, err
		}

		delay := g.backoff(attempt)
		metrics.ProviderRetriesTotal.WithLabelValues(g.inner.Name()).Inc()
		slog.WarnContext(ctx, "retrying provider call",
			"provider", g.inner.Name(),
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(delay):
		}
	}
}

type callResult struct {
	resp entity.ProviderResponse
	err  error
}

// attempt makes one bounded call. A provider that ignores cancellation is abandoned at the deadline.
func (g *Guard) attempt(ctx context.Context, image []byte, mimeType string) (entity.ProviderResponse, error) {
	name := g.inner.Name()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, &domain.TransportError{Provider: name, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		resp, err := g.inner.Identify(callCtx, image, mimeType)
		done <- callResult{resp: resp, err: err}
	}()

	var res callResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = callResult{err: callCtx.Err()}
	}

	if res.err == nil {
		return res.resp, nil
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, &domain.TransportError{
			Provider: name,
			Err:      fmt.Errorf("no response within %s: %w", g.cfg.Timeout, context.DeadlineExceeded),
		}
	}
	if domain.KindOf(res.err) == domain.KindInternal {
		return nil, &domain.TransportError{Provider: name, Err: res.err}
	}
	return nil, res.err
}

// backoff returns an exponentially growing delay with jitter, capped at MaxBackoff.
func (g *Guard) backoff(attempt int) time.Duration {
	d := g.cfg.MaxBackoff
	if attempt < 30 {
		d = g.cfg.BaseBackoff << attempt
	}
	if d <= 0 || d > g.cfg.MaxBackoff {
		d = g.cfg.MaxBackoff
	}
	half := d / 2
	return half + rand.N(half+1)
}

func retryable(err error) bool {
	var te *domain.TransportError
	return errors.As(err, &te) && te.Retryable()
}
