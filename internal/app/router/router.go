package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	carehandler "plantid_backend/internal/feature/care/transport/handler"
	identificationhandler "plantid_backend/internal/feature/identification/transport/handler"
	"plantid_backend/internal/platform/http/handler"
	"plantid_backend/internal/platform/middleware"
)

// Options はルーター全体の設定です。
type Options struct {
	// AllowedOrigins はブラウザUIのオリジン。空の場合はCORSヘッダーを付けない
	AllowedOrigins []string
	// MaxMultipartMemory はmultipartをメモリに保持する上限（超過分は一時ファイル）
	MaxMultipartMemory int64
	// Readiness は /readyz で確認する依存先
	Readiness []handler.ReadinessCheck
}

func NewRouter(opts Options, identification *identificationhandler.IdentificationHandler,
	care *carehandler.CareHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())

	if opts.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = opts.MaxMultipartMemory
	}

	// ブラウザUIからのアップロードを許可
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  opts.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", middleware.RequestIDHeader},
			ExposeHeaders: []string{middleware.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	// 導通確認用
	r.GET("/", handler.Root)
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(opts.Readiness...))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 画像識別
	r.POST("/identify", identification.Identify)
	// 結果画面に表示する育て方ヒント
	r.GET("/care-instructions", care.List)

	return r
}
