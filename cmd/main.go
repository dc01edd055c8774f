package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"ReMap-App/internal/application"
	supabaseDB "ReMap-App/internal/database"
	domainRepo "ReMap-App/internal/domain/repository"
	"ReMap-App/internal/domain/service"
	"ReMap-App/internal/handler"
	"ReMap-App/internal/infrastructure/database"
	"ReMap-App/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	if os.Getenv("DB_HOST") == "" || os.Getenv("DB_NAME") == "" ||
		os.Getenv("DB_USER") == "" || os.Getenv("DB_PASSWORD") == "" {
		fmt.Println("⚠️  環境変数が設定されていません:")
		fmt.Println("必要な環境変数:")
		fmt.Println("  - DB_HOST")
		fmt.Println("  - DB_PORT (デフォルト: 5432)")
		fmt.Println("  - DB_NAME")
		fmt.Println("  - DB_USER")
		fmt.Println("  - DB_PASSWORD")
		fmt.Println("\n.envファイルを作成するか、環境変数を設定してください")
		log.Fatal("Environment variables not set")
	}

	fmt.Println("Initializing PostgreSQL client...")
	postgresClient, err := database.NewPostgreSQLClientWithRetry(5, 2*time.Second)
	if err != nil {
		log.Fatalf("PostgreSQLクライアント初期化失敗: %v", err)
	}
	defer postgresClient.Close()

	fmt.Println("Performing database health check...")
	if err := postgresClient.HealthCheck(); err != nil {
		log.Fatalf("データベースヘルスチェック失敗: %v", err)
	}
	fmt.Println("✅ Database connection successful!")

	// メモリーリポジトリの選択（デフォルトはPostgreSQL直接接続）
	var memoriesRepo domainRepo.MemoriesRepository
	if os.Getenv("MEMORIES_BACKEND") == "supabase" {
		fmt.Println("Initializing Supabase client...")
		supabaseClient, err := supabaseDB.NewSupabaseClient()
		if err != nil {
			log.Fatalf("Supabaseクライアント初期化失敗: %v", err)
		}
		memoriesRepo = repository.NewSupabaseMemoriesRepository(supabaseClient)
	} else {
		memoriesRepo = repository.NewPostgresMemoriesRepository(postgresClient)
	}

	// Dependency injection
	spatialIndex := service.NewMemorySpatialIndex()
	memoriesService := application.NewMemoriesService(memoriesRepo, spatialIndex)
	healthService := application.NewHealthService(postgresClient)

	memoriesHandler := handler.NewMemoriesHandler(memoriesService)
	healthHandler := handler.NewHealthHandler(healthService)
	systemHandler := handler.NewSystemHandler()

	// 公開メモリーを空間インデックスに読み込む（失敗してもDB検索にフォールバック）
	if err := memoriesService.WarmSpatialIndex(context.Background()); err != nil {
		log.Printf("空間インデックスのウォームアップ失敗（DB検索で継続）: %v", err)
	} else {
		log.Printf("✅ 空間インデックスのウォームアップ完了")
	}

	// Ginルーターのセットアップ
	r := gin.Default()

	r.GET("/health", healthHandler.GetHealth)

	api := r.Group("/api")
	{
		api.GET("", systemHandler.GetAPIInfo)
		api.GET("/memories", memoriesHandler.GetMemories)
		api.GET("/memories/:id", memoriesHandler.GetMemoryDetail)
		api.POST("/memories", memoriesHandler.PostMemory)
		api.PUT("/memories/:id", memoriesHandler.PutMemory)
		api.DELETE("/memories/:id", memoriesHandler.DeleteMemory)
	}

	r.NoRoute(systemHandler.NotFound)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	fmt.Printf("ReMap API server starting on :%s...\n", port)
	log.Fatal(r.Run(":" + port))
}
