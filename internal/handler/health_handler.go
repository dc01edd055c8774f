package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ReMap-App/internal/application"
)

// HealthHandler ヘルスチェックのHTTPハンドラー
type HealthHandler struct {
	healthService application.HealthService
}

// NewHealthHandler HealthHandlerの新しいインスタンスを作成
func NewHealthHandler(healthService application.HealthService) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
	}
}

// GetHealth GET /health - サーバーとデータベースの稼働状況を返す
// DB接続に失敗した場合は503を返す（リトライなし）
func (h *HealthHandler) GetHealth(c *gin.Context) {
	status := h.healthService.Check(c.Request.Context())

	if status.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}

	c.JSON(http.StatusOK, status)
}
