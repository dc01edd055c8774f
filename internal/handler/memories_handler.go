package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ReMap-App/internal/application"
	"ReMap-App/internal/domain/model"
	"ReMap-App/internal/domain/repository"
)

// MemoriesHandler メモリーに関するHTTPハンドラー
type MemoriesHandler struct {
	memoriesService application.MemoriesService
}

// NewMemoriesHandler MemoriesHandlerの新しいインスタンスを作成
func NewMemoriesHandler(memoriesService application.MemoriesService) *MemoriesHandler {
	return &MemoriesHandler{
		memoriesService: memoriesService,
	}
}

// GetMemories GET /api/memories - メモリー一覧・近傍検索・境界ボックス検索
func (h *MemoriesHandler) GetMemories(c *gin.Context) {
	bbox := c.Query("bbox")
	latStr := c.Query("lat")
	lngStr := c.Query("lng")

	var memories []model.MemorySummary
	var err error

	switch {
	case bbox != "":
		memories, err = h.getMemoriesByBBox(c, bbox)
	case latStr != "" || lngStr != "":
		memories, err = h.getNearbyMemories(c, latStr, lngStr)
	default:
		memories, err = h.listMemories(c)
	}
	if err != nil {
		// errAborted はヘルパー内でレスポンス済み
		h.respondError(c, err)
		return
	}

	// プレースホルダー時代からのレスポンスエンベロープを維持
	response := model.GetMemoriesResponse{
		Message:   "Memories retrieved successfully",
		Timestamp: time.Now().UTC(),
		Memories:  memories,
		Count:     len(memories),
	}
	if response.Memories == nil {
		response.Memories = []model.MemorySummary{}
	}

	c.JSON(http.StatusOK, response)
}

// listMemories 一覧取得（limit / offset / author）
func (h *MemoriesHandler) listMemories(c *gin.Context) ([]model.MemorySummary, error) {
	limit, ok := h.parseIntQuery(c, "limit", 0)
	if !ok {
		return nil, errAborted
	}
	offset, ok := h.parseIntQuery(c, "offset", 0)
	if !ok {
		return nil, errAborted
	}

	return h.memoriesService.ListMemories(c.Request.Context(), c.Query("author"), limit, offset)
}

// getNearbyMemories 近傍検索（lat / lng / radius / limit）
func (h *MemoriesHandler) getNearbyMemories(c *gin.Context, latStr, lngStr string) ([]model.MemorySummary, error) {
	if latStr == "" || lngStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_parameter",
			"message": "Both lat and lng are required for nearby search",
		})
		return nil, errAborted
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "Invalid lat value",
		})
		return nil, errAborted
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "Invalid lng value",
		})
		return nil, errAborted
	}

	radius, ok := h.parseIntQuery(c, "radius", 0)
	if !ok {
		return nil, errAborted
	}
	limit, ok := h.parseIntQuery(c, "limit", 0)
	if !ok {
		return nil, errAborted
	}

	return h.memoriesService.GetNearbyMemories(c.Request.Context(), model.LatLng{Lat: lat, Lng: lng}, radius, limit, c.Query("author"))
}

// getMemoriesByBBox 境界ボックス検索
func (h *MemoriesHandler) getMemoriesByBBox(c *gin.Context, bbox string) ([]model.MemorySummary, error) {
	coords := strings.Split(bbox, ",")
	if len(coords) != 4 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "bbox must contain 4 coordinates: min_lng,min_lat,max_lng,max_lat",
		})
		return nil, errAborted
	}

	values := make([]float64, 4)
	names := []string{"min_lng", "min_lat", "max_lng", "max_lat"}
	for i, coord := range coords {
		value, err := strconv.ParseFloat(strings.TrimSpace(coord), 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_parameter",
				"message": "Invalid " + names[i] + " value",
			})
			return nil, errAborted
		}
		values[i] = value
	}

	return h.memoriesService.GetMemoriesByBoundingBox(c.Request.Context(), values[0], values[1], values[2], values[3], c.Query("author"))
}

// GetMemoryDetail GET /api/memories/:id - メモリー詳細の取得
func (h *MemoriesHandler) GetMemoryDetail(c *gin.Context) {
	memoryID := c.Param("id")
	if memoryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_parameter",
			"message": "Memory ID is required",
		})
		return
	}

	memory, err := h.memoriesService.GetMemory(c.Request.Context(), memoryID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, memory)
}

// PostMemory POST /api/memories - メモリーの作成
func (h *MemoriesHandler) PostMemory(c *gin.Context) {
	var req model.CreateMemoryRequest

	// リクエストボディの解析（Ginが自動でContent-Type確認）
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	memory, err := h.memoriesService.CreateMemory(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, memory)
}

// PutMemory PUT /api/memories/:id - メモリーの更新
func (h *MemoriesHandler) PutMemory(c *gin.Context) {
	memoryID := c.Param("id")

	var req model.UpdateMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	memory, err := h.memoriesService.UpdateMemory(c.Request.Context(), memoryID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, memory)
}

// DeleteMemory DELETE /api/memories/:id - メモリーの削除
func (h *MemoriesHandler) DeleteMemory(c *gin.Context) {
	memoryID := c.Param("id")
	author := c.Query("author")

	if err := h.memoriesService.DeleteMemory(c.Request.Context(), memoryID, author); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// errAborted パラメータ解析でレスポンス済みであることを示す内部エラー
var errAborted = errors.New("request aborted")

// parseIntQuery 整数クエリパラメータを解析（不正値は400を返してfalse）
func (h *MemoriesHandler) parseIntQuery(c *gin.Context, name string, defaultValue int) (int, bool) {
	value := c.Query(name)
	if value == "" {
		return defaultValue, true
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "Invalid " + name + " value",
		})
		return 0, false
	}

	return parsed, true
}

// respondError サービス層のエラーをHTTPステータスに変換
func (h *MemoriesHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errAborted):
		return
	case errors.Is(err, application.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
	case errors.Is(err, repository.ErrMemoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Memory not found",
		})
	case errors.Is(err, repository.ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "Only the author can modify this memory",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to process memory request: " + err.Error(),
		})
	}
}
