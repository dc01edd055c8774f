package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// PostgreSQLClient PostgreSQL直接接続クライアント
type PostgreSQLClient struct {
	DB *sql.DB
}

// NewPostgreSQLClient 新しいPostgreSQLクライアントを作成
func NewPostgreSQLClient() (*PostgreSQLClient, error) {
	host := os.Getenv("DB_HOST")
	dbName := os.Getenv("DB_NAME")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")

	if host == "" {
		return nil, fmt.Errorf("DB_HOST環境変数が設定されていません")
	}
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME環境変数が設定されていません")
	}
	if user == "" {
		return nil, fmt.Errorf("DB_USER環境変数が設定されていません")
	}
	if password == "" {
		return nil, fmt.Errorf("DB_PASSWORD環境変数が設定されていません")
	}

	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbName, sslMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("PostgreSQL接続の初期化に失敗: %w", err)
	}

	// コネクションプールの設定
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	// 接続テスト
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("PostgreSQLへの接続に失敗: %w", err)
	}

	return &PostgreSQLClient{
		DB: db,
	}, nil
}

// NewPostgreSQLClientWithRetry リトライ付きでPostgreSQLクライアントを作成
func NewPostgreSQLClientWithRetry(maxAttempts int, interval time.Duration) (*PostgreSQLClient, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err := NewPostgreSQLClient()
		if err == nil {
			return client, nil
		}
		lastErr = err
		log.Printf("PostgreSQL接続リトライ %d/%d: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(interval)
		}
	}
	return nil, fmt.Errorf("PostgreSQL接続に%d回失敗: %w", maxAttempts, lastErr)
}

// Close データベース接続を閉じる
func (pc *PostgreSQLClient) Close() error {
	if pc.DB != nil {
		return pc.DB.Close()
	}
	return nil
}

// HealthCheck データベース接続のヘルスチェック
func (pc *PostgreSQLClient) HealthCheck() error {
	if pc.DB == nil {
		return fmt.Errorf("PostgreSQLクライアントが初期化されていません")
	}
	return pc.DB.Ping()
}

// ProbeResult ヘルスチェッククエリの結果
type ProbeResult struct {
	CurrentTime time.Time
	Version     string
}

// ProbeContext SELECT NOW(), version() を実行してDBの現在時刻とバージョンを取得
func (pc *PostgreSQLClient) ProbeContext(ctx context.Context) (*ProbeResult, error) {
	if pc.DB == nil {
		return nil, fmt.Errorf("PostgreSQLクライアントが初期化されていません")
	}

	var result ProbeResult
	row := pc.DB.QueryRowContext(ctx, `SELECT NOW(), version()`)
	if err := row.Scan(&result.CurrentTime, &result.Version); err != nil {
		return nil, fmt.Errorf("ヘルスチェッククエリ失敗: %w", err)
	}

	return &result, nil
}
