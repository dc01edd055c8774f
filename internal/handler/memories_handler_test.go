package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReMap-App/internal/application"
	"ReMap-App/internal/domain/model"
	"ReMap-App/internal/domain/repository"
)

// stubMemoriesService テスト用のMemoriesServiceスタブ
type stubMemoriesService struct {
	memories   []model.MemorySummary
	memory     *model.Memory
	err        error
	lastRadius int
	lastLimit  int
	lastAuthor string
}

func (s *stubMemoriesService) CreateMemory(ctx context.Context, req *model.CreateMemoryRequest) (*model.Memory, error) {
	return s.memory, s.err
}

func (s *stubMemoriesService) GetMemory(ctx context.Context, id string) (*model.Memory, error) {
	return s.memory, s.err
}

func (s *stubMemoriesService) UpdateMemory(ctx context.Context, id string, req *model.UpdateMemoryRequest) (*model.Memory, error) {
	return s.memory, s.err
}

func (s *stubMemoriesService) DeleteMemory(ctx context.Context, id string, author string) error {
	return s.err
}

func (s *stubMemoriesService) ListMemories(ctx context.Context, author string, limit, offset int) ([]model.MemorySummary, error) {
	s.lastLimit = limit
	return s.memories, s.err
}

func (s *stubMemoriesService) GetNearbyMemories(ctx context.Context, location model.LatLng, radiusMeters, limit int, author string) ([]model.MemorySummary, error) {
	s.lastRadius = radiusMeters
	s.lastLimit = limit
	s.lastAuthor = author
	return s.memories, s.err
}

func (s *stubMemoriesService) GetMemoriesByBoundingBox(ctx context.Context, minLng, minLat, maxLng, maxLat float64, author string) ([]model.MemorySummary, error) {
	s.lastAuthor = author
	return s.memories, s.err
}

func (s *stubMemoriesService) WarmSpatialIndex(ctx context.Context) error {
	return s.err
}

func setupMemoriesRouter(svc application.MemoriesService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewMemoriesHandler(svc)

	r := gin.New()
	api := r.Group("/api")
	{
		api.GET("/memories", h.GetMemories)
		api.GET("/memories/:id", h.GetMemoryDetail)
		api.POST("/memories", h.PostMemory)
		api.PUT("/memories/:id", h.PutMemory)
		api.DELETE("/memories/:id", h.DeleteMemory)
	}
	return r
}

func TestGetMemories(t *testing.T) {
	t.Run("空のストアでは空配列とcount0が返る", func(t *testing.T) {
		router := setupMemoriesRouter(&stubMemoriesService{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/memories", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response model.GetMemoriesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotNil(t, response.Memories)
		assert.Empty(t, response.Memories)
		assert.Equal(t, 0, response.Count)
		assert.False(t, response.Timestamp.IsZero())
	})

	t.Run("一覧はエンベロープ形式で返る", func(t *testing.T) {
		svc := &stubMemoriesService{
			memories: []model.MemorySummary{
				{ID: "1", Title: "思い出1", CreatedAt: time.Now()},
				{ID: "2", Title: "思い出2", CreatedAt: time.Now()},
			},
		}
		router := setupMemoriesRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/memories", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response model.GetMemoriesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 2, response.Count)
		assert.Len(t, response.Memories, 2)
	})

	t.Run("latのみ指定は400", func(t *testing.T) {
		router := setupMemoriesRouter(&stubMemoriesService{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/memories?lat=35.0", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "missing_parameter")
	})

	t.Run("不正なlat値は400", func(t *testing.T) {
		router := setupMemoriesRouter(&stubMemoriesService{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/memories?lat=abc&lng=135.0", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_parameter")
	})

	t.Run("近傍検索でradiusが渡される", func(t *testing.T) {
		svc := &stubMemoriesService{}
		router := setupMemoriesRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/memories?lat=35.0&lng=135.7&radius=800", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 800, svc.lastRadius)
	})

	t.Run("近傍検索でauthorが渡される", func(t *testing.T) {
		svc := &stubMemoriesService{}
		router := setupMemoriesRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/memories?lat=35.0&lng=135.7&author=alice", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", svc.lastAuthor)
	})

	t.Run("bboxの座標数が不足していると400", func(t *testing.T) {
		router := setupMemoriesRouter(&stubMemoriesService{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/memories?bbox=135.7,35.0,135.8", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "bbox must contain 4 coordinates")
	})

	t.Run("正しいbboxは200", func(t *testing.T) {
		router := setupMemoriesRouter(&stubMemoriesService{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/memories?bbox=135.7,35.0,135.8,35.1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bbox検索でauthorが渡される", func(t *testing.T) {
		svc := &stubMemoriesService{}
		router := setupMemoriesRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/memories?bbox=135.7,35.0,135.8,35.1&author=alice", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", svc.lastAuthor)
	})

	t.Run("サービスの検証エラーは400", func(t *testing.T) {
		svc := &stubMemoriesService{err: fmt.Errorf("%w: 緯度が不正", application.ErrInvalidRequest)}
		router := setupMemoriesRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/memories?lat=35.0&lng=135.7", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_request")
	})

	t.Run("サービスの内部エラーは500", func(t *testing.T) {
		svc := &stubMemoriesService{err: fmt.Errorf("db connection lost")}
		router := setupMemoriesRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/memories", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "internal_error")
	})
}

func TestGetMemoryDetail(t *testing.T) {
	t.Run("存在するメモリーは200", func(t *testing.T) {
		svc := &stubMemoriesService{
			memory: &model.Memory{
				ID:    "3f1d6f4e-9a0b-4b4e-8c58-2c3c46a1a111",
				Title: "思い出",
			},
		}
		router := setupMemoriesRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/memories/3f1d6f4e-9a0b-4b4e-8c58-2c3c46a1a111", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var memory model.Memory
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &memory))
		assert.Equal(t, "思い出", memory.Title)
	})

	t.Run("存在しないメモリーは404", func(t *testing.T) {
		svc := &stubMemoriesService{err: repository.ErrMemoryNotFound}
		router := setupMemoriesRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/memories/3f1d6f4e-9a0b-4b4e-8c58-2c3c46a1a111", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "not_found")
	})
}

func TestPostMemory(t *testing.T) {
	t.Run("作成成功は201", func(t *testing.T) {
		svc := &stubMemoriesService{
			memory: &model.Memory{
				ID:    "3f1d6f4e-9a0b-4b4e-8c58-2c3c46a1a111",
				Title: "新しい思い出",
			},
		}
		router := setupMemoriesRouter(svc)

		body, _ := json.Marshal(model.CreateMemoryRequest{
			Title:  "新しい思い出",
			Author: "alice",
			Location: &model.Location{
				Latitude:  35.03,
				Longitude: 135.77,
			},
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/memories", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("不正なJSONは400", func(t *testing.T) {
		router := setupMemoriesRouter(&stubMemoriesService{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/memories", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_request")
	})
}

func TestPutMemory(t *testing.T) {
	t.Run("投稿者以外は403", func(t *testing.T) {
		svc := &stubMemoriesService{err: repository.ErrNotAuthor}
		router := setupMemoriesRouter(svc)

		body, _ := json.Marshal(model.UpdateMemoryRequest{Author: "mallory"})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/memories/3f1d6f4e-9a0b-4b4e-8c58-2c3c46a1a111", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "forbidden")
	})
}

func TestDeleteMemory(t *testing.T) {
	t.Run("削除成功は204", func(t *testing.T) {
		router := setupMemoriesRouter(&stubMemoriesService{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/memories/3f1d6f4e-9a0b-4b4e-8c58-2c3c46a1a111?author=alice", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("存在しないメモリーは404", func(t *testing.T) {
		svc := &stubMemoriesService{err: repository.ErrMemoryNotFound}
		router := setupMemoriesRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/memories/3f1d6f4e-9a0b-4b4e-8c58-2c3c46a1a111?author=alice", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
