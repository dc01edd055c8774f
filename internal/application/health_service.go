package application

import (
	"context"
	"os"
	"time"

	"ReMap-App/internal/domain/model"
	"ReMap-App/internal/infrastructure/database"
)

// DatabaseProber ヘルスチェック用のデータベース接続確認インターフェース
type DatabaseProber interface {
	ProbeContext(ctx context.Context) (*database.ProbeResult, error)
}

// HealthService サーバーとデータベースの稼働状況を報告するサービス
type HealthService interface {
	// Check データベース接続を確認してヘルスレポートを作成する
	Check(ctx context.Context) *model.HealthStatus
}

// healthServiceImpl HealthServiceの実装
type healthServiceImpl struct {
	prober    DatabaseProber
	startTime time.Time
}

// NewHealthService HealthServiceの新しいインスタンスを作成
func NewHealthService(prober DatabaseProber) HealthService {
	return &healthServiceImpl{
		prober:    prober,
		startTime: time.Now(),
	}
}

// Check ヘルスチェックを実行
// DBエラー時はリトライせず、そのまま unhealthy として報告する
func (s *healthServiceImpl) Check(ctx context.Context) *model.HealthStatus {
	status := &model.HealthStatus{
		Timestamp:   time.Now().UTC(),
		Environment: environment(),
		Uptime:      time.Since(s.startTime).Seconds(),
	}

	result, err := s.prober.ProbeContext(ctx)
	if err != nil {
		status.Status = "unhealthy"
		status.Database = model.DatabaseHealth{Connected: false}
		status.Error = err.Error()
		return status
	}

	status.Status = "healthy"
	status.Database = model.DatabaseHealth{
		Connected:   true,
		CurrentTime: result.CurrentTime.UTC().Format(time.RFC3339),
		Version:     result.Version,
	}

	return status
}

// environment NODE_ENV からレポート用の環境名を取得
func environment() string {
	env := os.Getenv("NODE_ENV")
	if env == "" {
		return "development"
	}
	return env
}
