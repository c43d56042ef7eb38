package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	Wait(ctx context.Context) error
}

// RateLimiter はトークンバケットで外部API呼び出しの頻度を制限します。
// 複数のgoroutineから同時に使用できます。
type RateLimiter struct {
	name    string
	limiter *rate.Limiter
}

// NewRateLimiter はintervalあたりlimit回までの呼び出しを許可するRateLimiterを生成します。
// バースト幅はlimitと同じです。limitが0以下の場合は制限しません。
func NewRateLimiter(name string, limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{name: name, limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	every := rate.Every(interval / time.Duration(limit))
	return &RateLimiter{name: name, limiter: rate.NewLimiter(every, limit)}
}

// Wait はトークンが得られるまで待機します。ctxが先に終了した場合はそのエラーを返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limiter.Allow() {
		return nil
	}
	start := time.Now()
	if err := rl.limiter.Wait(ctx); err != nil {
		return err
	}
	slog.Debug("rate limit wait", "limiter", rl.name, "waited", time.Since(start))
	return nil
}
