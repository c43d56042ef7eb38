// Package handler はidentificationフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"plantid_backend/internal/feature/identification/domain"
	"plantid_backend/internal/feature/identification/domain/entity"
	"plantid_backend/internal/feature/identification/transport/http/dto"
	"plantid_backend/internal/feature/identification/usecase"
	"plantid_backend/internal/platform/metrics"
)

const (
	// FormField はアップロード画像のmultipartフィールド名です。
	FormField = "image"

	// GenericFailureMessage は検証エラー以外の失敗時にクライアントへ返すメッセージです。
	GenericFailureMessage = "Failed to identify plant"

	// multipartOverhead はmultipartのヘッダー等に許容する追加バイト数です。
	multipartOverhead = 64 << 10
)

// IdentificationUsecase は識別ユースケースのインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type IdentificationUsecase interface {
	Identify(ctx context.Context, upload usecase.Upload) (*entity.PlantDetails, error)
}

// IdentificationHandler は画像識別のHTTPリクエストを処理します。
type IdentificationHandler struct {
	uc       IdentificationUsecase
	maxBytes int64
}

// NewIdentificationHandler はIdentificationHandlerの新しいインスタンスを生成します。
// maxBytesは画像1枚の上限で、リクエスト本文の上限計算に使います。0以下は無制限です。
func NewIdentificationHandler(uc IdentificationUsecase, maxBytes int64) *IdentificationHandler {
	return &IdentificationHandler{uc: uc, maxBytes: maxBytes}
}

// Identify はアップロードされた植物画像を識別します。
//
// エンドポイント: POST /identify
// Content-Type: multipart/form-data
// フィールド: image（画像ファイル1枚）
//
// 失敗時はエラーの種類にかかわらず500と {"error", "kind"} を返します。
func (h *IdentificationHandler) Identify(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	}

	file, err := c.FormFile(FormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, domain.NewValidationError(domain.ErrImageTooLarge, "request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		h.fail(c, domain.NewValidationError(domain.ErrNoImage, "multipart field %q is missing: %v", FormField, err))
		return
	}

	f, err := file.Open()
	if err != nil {
		h.fail(c, &domain.ResourceError{Op: "open", Path: file.Filename, Err: err})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("画像ファイルのクローズに失敗", "error", err)
		}
	}()

	details, err := h.uc.Identify(c.Request.Context(), usecase.Upload{
		Filename: file.Filename,
		MIMEType: file.Header.Get("Content-Type"),
		Size:     file.Size,
		Content:  f,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	metrics.IdentificationsTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, dto.FromEntity(*details))
}

// fail はエラーを分類してログに残し、クライアントには汎用メッセージのみを返します。
func (h *IdentificationHandler) fail(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	metrics.IdentificationsTotal.WithLabelValues(string(kind)).Inc()

	if kind == domain.KindValidation {
		slog.WarnContext(c.Request.Context(), "識別リクエストを拒否", "kind", kind, "error", err, "remote_addr", c.ClientIP())
	} else {
		slog.ErrorContext(c.Request.Context(), "識別に失敗", "kind", kind, "error", err)
	}
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: clientMessage(err), Kind: string(kind)})
}

// clientMessage はクライアントに見せてよいメッセージを返します。
// プロバイダーの応答内容や一時ファイルのパスは含めません。
func clientMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoImage):
		return "An image file is required"
	case errors.Is(err, domain.ErrImageTooLarge):
		return "Image exceeds the maximum allowed size"
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return "Unsupported image type"
	}
	return GenericFailureMessage
}
