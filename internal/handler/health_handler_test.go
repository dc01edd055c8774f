package handler

import (
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
	"ReMap-App/internal/infrastructure/database"
)

// stubProber テスト用のデータベース接続確認スタブ
type stubProber struct {
	result *database.ProbeResult
	err    error
}

func (p *stubProber) ProbeContext(ctx context.Context) (*database.ProbeResult, error) {
	return p.result, p.err
}

func setupHealthRouter(prober application.DatabaseProber) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewHealthHandler(application.NewHealthService(prober))

	r := gin.New()
	r.GET("/health", h.GetHealth)
	return r
}

func TestGetHealth(t *testing.T) {
	t.Run("DB接続成功時は200とhealthy", func(t *testing.T) {
		prober := &stubProber{
			result: &database.ProbeResult{
				CurrentTime: time.Now(),
				Version:     "PostgreSQL 16.2 on x86_64-pc-linux-gnu",
			},
		}
		router := setupHealthRouter(prober)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var status model.HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, "healthy", status.Status)
		assert.True(t, status.Database.Connected)
		assert.Contains(t, status.Database.Version, "PostgreSQL")
		assert.NotEmpty(t, status.Database.CurrentTime)
		assert.NotEmpty(t, status.Environment)
		assert.GreaterOrEqual(t, status.Uptime, 0.0)
	})

	t.Run("DB接続失敗時は503とunhealthy", func(t *testing.T) {
		prober := &stubProber{err: fmt.Errorf("connection refused")}
		router := setupHealthRouter(prober)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var status model.HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, "unhealthy", status.Status)
		assert.False(t, status.Database.Connected)
		assert.Contains(t, status.Error, "connection refused")
	})
}

func TestSystemHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewSystemHandler()
	r := gin.New()
	r.GET("/api", h.GetAPIInfo)
	r.NoRoute(h.NotFound)

	t.Run("GET /api は案内情報を返す", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api", nil)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Welcome to the ReMap API")
		assert.Contains(t, w.Body.String(), "GET /api/memories")
	})

	t.Run("未定義ルートは404とエンドポイント一覧", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/unknown/route", nil)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "not_found")
		assert.Contains(t, w.Body.String(), "available_endpoints")
		assert.Contains(t, w.Body.String(), "GET /health")
	})
}
