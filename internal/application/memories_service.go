package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ReMap-App/internal/domain/model"
	"ReMap-App/internal/domain/repository"
	"ReMap-App/internal/domain/service"
)

// ErrInvalidRequest リクエスト内容が不正な場合のエラー（ハンドラーで400に変換される）
var ErrInvalidRequest = errors.New("invalid request")

// MemoriesService メモリーに関するビジネスロジックを提供するサービス
type MemoriesService interface {
	// CreateMemory メモリーを新規作成
	CreateMemory(ctx context.Context, req *model.CreateMemoryRequest) (*model.Memory, error)

	// GetMemory メモリーの詳細を取得
	GetMemory(ctx context.Context, id string) (*model.Memory, error)

	// UpdateMemory メモリーを更新（投稿者本人のみ）
	UpdateMemory(ctx context.Context, id string, req *model.UpdateMemoryRequest) (*model.Memory, error)

	// DeleteMemory メモリーを削除（投稿者本人のみ）
	DeleteMemory(ctx context.Context, id string, author string) error

	// ListMemories 新しい順にメモリー一覧を取得
	ListMemories(ctx context.Context, author string, limit, offset int) ([]model.MemorySummary, error)

	// GetNearbyMemories 指定位置の周辺メモリーを距離順に取得
	// （author指定時は本人の非公開メモリーも含む）
	GetNearbyMemories(ctx context.Context, location model.LatLng, radiusMeters, limit int, author string) ([]model.MemorySummary, error)

	// GetMemoriesByBoundingBox 境界ボックス内のメモリーを取得
	// （author指定時は本人の非公開メモリーも含む）
	GetMemoriesByBoundingBox(ctx context.Context, minLng, minLat, maxLng, maxLat float64, author string) ([]model.MemorySummary, error)

	// WarmSpatialIndex 公開メモリーをインメモリ空間インデックスに読み込む
	WarmSpatialIndex(ctx context.Context) error
}

// memoriesServiceImpl MemoriesServiceの実装
type memoriesServiceImpl struct {
	memoriesRepo repository.MemoriesRepository
	spatialIndex *service.MemorySpatialIndex
	indexWarm    bool
}

// NewMemoriesService MemoriesServiceの新しいインスタンスを作成
func NewMemoriesService(memoriesRepo repository.MemoriesRepository, spatialIndex *service.MemorySpatialIndex) MemoriesService {
	return &memoriesServiceImpl{
		memoriesRepo: memoriesRepo,
		spatialIndex: spatialIndex,
	}
}

// CreateMemory メモリーを作成
func (s *memoriesServiceImpl) CreateMemory(ctx context.Context, req *model.CreateMemoryRequest) (*model.Memory, error) {
	// 入力バリデーション
	if err := s.validateCreateMemoryRequest(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	// デフォルト値の適用
	memoryType := req.MemoryType
	if memoryType == "" {
		memoryType = model.MemoryTypeMoment
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}

	memory := &model.Memory{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Location: &model.Geometry{
			Type:        "Point",
			Coordinates: []float64{req.Location.Longitude, req.Location.Latitude},
		},
		MemoryType: memoryType,
		Author:     req.Author,
		Visibility: visibility,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// データベースに保存
	if err := s.memoriesRepo.Create(ctx, memory); err != nil {
		return nil, fmt.Errorf("メモリーの保存失敗: %w", err)
	}

	// 公開メモリーは空間インデックスにも反映
	if s.spatialIndex != nil && memory.IsPublic() {
		s.spatialIndex.Insert(memory)
	}

	return memory, nil
}

// GetMemory メモリーの詳細を取得
func (s *memoriesServiceImpl) GetMemory(ctx context.Context, id string) (*model.Memory, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: 無効なメモリーID形式: %s", ErrInvalidRequest, id)
	}

	memory, err := s.memoriesRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMemoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("メモリーの取得失敗: %w", err)
	}

	return memory, nil
}

// UpdateMemory メモリーを更新
func (s *memoriesServiceImpl) UpdateMemory(ctx context.Context, id string, req *model.UpdateMemoryRequest) (*model.Memory, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: 無効なメモリーID形式: %s", ErrInvalidRequest, id)
	}
	if req.Author == "" {
		return nil, fmt.Errorf("%w: 投稿者は必須です", ErrInvalidRequest)
	}

	memory, err := s.memoriesRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMemoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("メモリーの取得失敗: %w", err)
	}

	// 投稿者本人のみ更新可能
	if memory.Author != req.Author {
		return nil, repository.ErrNotAuthor
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, fmt.Errorf("%w: タイトルは必須です", ErrInvalidRequest)
		}
		memory.Title = *req.Title
	}
	if req.Description != nil {
		memory.Description = *req.Description
	}
	if req.MemoryType != nil {
		if !model.IsValidMemoryType(*req.MemoryType) {
			return nil, fmt.Errorf("%w: 無効なメモリー種別: %s", ErrInvalidRequest, *req.MemoryType)
		}
		memory.MemoryType = *req.MemoryType
	}
	if req.Visibility != nil {
		if !model.IsValidVisibility(*req.Visibility) {
			return nil, fmt.Errorf("%w: 無効な公開範囲: %s", ErrInvalidRequest, *req.Visibility)
		}
		memory.Visibility = *req.Visibility
	}
	memory.UpdatedAt = time.Now().UTC()

	if err := s.memoriesRepo.Update(ctx, memory); err != nil {
		return nil, fmt.Errorf("メモリーの更新失敗: %w", err)
	}

	// 公開範囲の変更を空間インデックスに反映
	if s.spatialIndex != nil {
		if memory.IsPublic() {
			s.spatialIndex.Insert(memory)
		} else {
			s.spatialIndex.Remove(memory.ID)
		}
	}

	return memory, nil
}

// DeleteMemory メモリーを削除
func (s *memoriesServiceImpl) DeleteMemory(ctx context.Context, id string, author string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: 無効なメモリーID形式: %s", ErrInvalidRequest, id)
	}
	if author == "" {
		return fmt.Errorf("%w: 投稿者は必須です", ErrInvalidRequest)
	}

	memory, err := s.memoriesRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMemoryNotFound) {
			return err
		}
		return fmt.Errorf("メモリーの取得失敗: %w", err)
	}

	// 投稿者本人のみ削除可能
	if memory.Author != author {
		return repository.ErrNotAuthor
	}

	if err := s.memoriesRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("メモリーの削除失敗: %w", err)
	}

	if s.spatialIndex != nil {
		s.spatialIndex.Remove(id)
	}

	return nil
}

// ListMemories 新しい順にメモリー一覧を取得
func (s *memoriesServiceImpl) ListMemories(ctx context.Context, author string, limit, offset int) ([]model.MemorySummary, error) {
	limit = normalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}

	memories, err := s.memoriesRepo.List(ctx, author, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("メモリー一覧の取得失敗: %w", err)
	}

	return toSummaries(memories, nil), nil
}

// GetNearbyMemories 周辺メモリーを距離順に取得
func (s *memoriesServiceImpl) GetNearbyMemories(ctx context.Context, location model.LatLng, radiusMeters, limit int, author string) ([]model.MemorySummary, error) {
	if err := validateLatLng(location); err != nil {
		return nil, err
	}

	if radiusMeters <= 0 {
		radiusMeters = model.DefaultSearchRadiusMeters
	}
	if radiusMeters > model.MaxSearchRadiusMeters {
		radiusMeters = model.MaxSearchRadiusMeters
	}
	limit = normalizeLimit(limit)

	// 公開メモリーのみの検索はウォーム済みインデックスで処理できる。
	// インデックスは公開メモリーしか持たないため、author指定時はリポジトリを参照する
	if author == "" && s.spatialIndex != nil && s.indexWarm {
		memories, distances := s.spatialIndex.SearchRadius(location, radiusMeters)
		if limit < len(memories) {
			memories = memories[:limit]
			distances = distances[:limit]
		}
		return toSummaries(memories, distances), nil
	}

	memories, distances, err := s.memoriesRepo.FindNearby(ctx, location, radiusMeters, limit, author)
	if err != nil {
		return nil, fmt.Errorf("周辺メモリーの検索失敗: %w", err)
	}

	return toSummaries(memories, distances), nil
}

// GetMemoriesByBoundingBox 境界ボックス内のメモリーを取得
func (s *memoriesServiceImpl) GetMemoriesByBoundingBox(ctx context.Context, minLng, minLat, maxLng, maxLat float64, author string) ([]model.MemorySummary, error) {
	if err := validateBoundingBox(minLng, minLat, maxLng, maxLat); err != nil {
		return nil, err
	}

	if author == "" && s.spatialIndex != nil && s.indexWarm {
		memories := s.spatialIndex.SearchBoundingBox(minLng, minLat, maxLng, maxLat)
		return toSummaries(memories, nil), nil
	}

	memories, err := s.memoriesRepo.FindByBoundingBox(ctx, minLng, minLat, maxLng, maxLat, author)
	if err != nil {
		return nil, fmt.Errorf("境界ボックス検索失敗: %w", err)
	}

	return toSummaries(memories, nil), nil
}

// WarmSpatialIndex 公開メモリーを空間インデックスに読み込む。
// リポジトリが正であり、全件読み込みが完了するまでインデックスは使用しない
func (s *memoriesServiceImpl) WarmSpatialIndex(ctx context.Context) error {
	if s.spatialIndex == nil {
		return nil
	}

	var publicMemories []*model.Memory
	offset := 0
	for {
		page, err := s.memoriesRepo.List(ctx, "", model.MaxListLimit, offset)
		if err != nil {
			return fmt.Errorf("空間インデックスのウォームアップ失敗: %w", err)
		}

		for _, memory := range page {
			if memory.IsPublic() {
				publicMemories = append(publicMemories, memory)
			}
		}

		// 最終ページまで読み切ってからインデックスを有効化する
		if len(page) < model.MaxListLimit {
			break
		}
		offset += model.MaxListLimit
	}

	s.spatialIndex.Rebuild(publicMemories)
	s.indexWarm = true

	return nil
}

// validateCreateMemoryRequest リクエストのバリデーション
func (s *memoriesServiceImpl) validateCreateMemoryRequest(req *model.CreateMemoryRequest) error {
	if req.Title == "" {
		return fmt.Errorf("%w: タイトルは必須です", ErrInvalidRequest)
	}
	if req.Author == "" {
		return fmt.Errorf("%w: 投稿者は必須です", ErrInvalidRequest)
	}
	if req.Location == nil {
		return fmt.Errorf("%w: 位置情報は必須です", ErrInvalidRequest)
	}
	if req.Location.Latitude < -90 || req.Location.Latitude > 90 {
		return fmt.Errorf("%w: 緯度は-90から90の範囲内である必要があります", ErrInvalidRequest)
	}
	if req.Location.Longitude < -180 || req.Location.Longitude > 180 {
		return fmt.Errorf("%w: 経度は-180から180の範囲内である必要があります", ErrInvalidRequest)
	}
	if req.MemoryType != "" && !model.IsValidMemoryType(req.MemoryType) {
		return fmt.Errorf("%w: 無効なメモリー種別: %s", ErrInvalidRequest, req.MemoryType)
	}
	if req.Visibility != "" && !model.IsValidVisibility(req.Visibility) {
		return fmt.Errorf("%w: 無効な公開範囲: %s", ErrInvalidRequest, req.Visibility)
	}
	return nil
}

// validateLatLng 緯度経度のバリデーション
func validateLatLng(location model.LatLng) error {
	if location.Lat < -90 || location.Lat > 90 {
		return fmt.Errorf("%w: 緯度は-90から90の範囲内である必要があります", ErrInvalidRequest)
	}
	if location.Lng < -180 || location.Lng > 180 {
		return fmt.Errorf("%w: 経度は-180から180の範囲内である必要があります", ErrInvalidRequest)
	}
	return nil
}

// validateBoundingBox 境界ボックスのバリデーション
func validateBoundingBox(minLng, minLat, maxLng, maxLat float64) error {
	if minLng >= maxLng {
		return fmt.Errorf("%w: 経度の最小値は最大値より小さい必要があります", ErrInvalidRequest)
	}
	if minLat >= maxLat {
		return fmt.Errorf("%w: 緯度の最小値は最大値より小さい必要があります", ErrInvalidRequest)
	}
	if minLng < -180 || maxLng > 180 {
		return fmt.Errorf("%w: 経度は-180から180の範囲内である必要があります", ErrInvalidRequest)
	}
	if minLat < -90 || maxLat > 90 {
		return fmt.Errorf("%w: 緯度は-90から90の範囲内である必要があります", ErrInvalidRequest)
	}
	return nil
}

// normalizeLimit 一覧取得の件数をデフォルト値と上限に揃える
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return model.DefaultListLimit
	}
	if limit > model.MaxListLimit {
		return model.MaxListLimit
	}
	return limit
}

// toSummaries Memoryのスライスを一覧表示用のサマリーに変換
func toSummaries(memories []*model.Memory, distances []float64) []model.MemorySummary {
	summaries := make([]model.MemorySummary, 0, len(memories))
	for i, memory := range memories {
		latLng := memory.ToLatLng()
		summary := model.MemorySummary{
			ID:          memory.ID,
			Title:       memory.Title,
			Description: memory.Description,
			MemoryType:  memory.MemoryType,
			Author:      memory.Author,
			Location: &model.Location{
				Latitude:  latLng.Lat,
				Longitude: latLng.Lng,
			},
			CreatedAt: memory.CreatedAt,
		}
		if distances != nil && i < len(distances) {
			d := distances[i]
			summary.DistanceMeters = &d
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
