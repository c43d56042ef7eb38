// Package handler はcareフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"plantid_backend/internal/feature/care/domain/entity"
	"plantid_backend/internal/feature/care/transport/http/dto"
)

// CareCatalog は育て方ヒントの取得元です。
type CareCatalog interface {
	List() []entity.CareInstruction
}

// CareHandler は育て方ヒントのHTTPリクエストを処理します。
type CareHandler struct {
	catalog CareCatalog
}

// NewCareHandler はCareHandlerの新しいインスタンスを生成します。
func NewCareHandler(catalog CareCatalog) *CareHandler {
	return &CareHandler{catalog: catalog}
}

// List は育て方ヒントの一覧を返します。
//
// エンドポイント: GET /care-instructions
func (h *CareHandler) List(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, dto.FromEntities(h.catalog.List()))
}
