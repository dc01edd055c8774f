package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// AvailableEndpoints APIが公開しているエンドポイントの一覧
var AvailableEndpoints = []string{
	"GET /health",
	"GET /api",
	"GET /api/memories",
	"GET /api/memories/:id",
	"POST /api/memories",
	"PUT /api/memories/:id",
	"DELETE /api/memories/:id",
}

// SystemHandler APIの案内と404応答を担当するハンドラー
type SystemHandler struct{}

// NewSystemHandler SystemHandlerの新しいインスタンスを作成
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

// GetAPIInfo GET /api - APIの案内情報を返す
func (h *SystemHandler) GetAPIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Welcome to the ReMap API",
		"service":   "remap-backend",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC(),
		"endpoints": AvailableEndpoints,
	})
}

// NotFound 未定義ルートへの404応答（利用可能なエンドポイント一覧付き）
func (h *SystemHandler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":               "not_found",
		"message":             "Route not found: " + c.Request.Method + " " + c.Request.URL.Path,
		"available_endpoints": AvailableEndpoints,
	})
}
