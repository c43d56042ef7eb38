// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RootMessage は GET / が返す導通確認用の文字列です。
const RootMessage = "Plant identification server is running"

// readyTimeout は依存先1件あたりの確認タイムアウトです。
const readyTimeout = 2 * time.Second

// Root は / エンドポイントを処理し、サーバーが起動していることを示す文字列を返します。
func Root(c *gin.Context) {
	c.String(http.StatusOK, RootMessage)
}

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// HTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
func Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ReadinessCheck は依存先1件の疎通確認です。
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Ready は /readyz 用のハンドラーを返します。
// いずれかの確認が失敗した場合は503と失敗した依存先の名前を返します。
func Ready(checks ...ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		failed := []string{}
		for _, rc := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
			err := rc.Check(ctx)
			cancel()
			if err != nil {
				slog.Warn("readiness check failed", "dependency", rc.Name, "error", err)
				failed = append(failed, rc.Name)
			}
		}

		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
