package repository

import (
	"context"

	"ReMap-App/internal/domain/model"
)

// MemoriesRepository メモリーの永続化を担当するリポジトリのインターフェース
type MemoriesRepository interface {
	// Create メモリーを新規保存する
	Create(ctx context.Context, memory *model.Memory) error

	// GetByID 指定されたIDのメモリーを取得する
	GetByID(ctx context.Context, id string) (*model.Memory, error)

	// Update メモリーを更新する
	Update(ctx context.Context, memory *model.Memory) error

	// Delete 指定されたIDのメモリーを削除する
	Delete(ctx context.Context, id string) error

	// List 新しい順にメモリー一覧を取得する（author指定時は本人の非公開も含む）
	List(ctx context.Context, author string, limit, offset int) ([]*model.Memory, error)

	// FindNearby 指定位置の周辺メモリーを距離順に検索する
	// （author指定時は本人の非公開メモリーも含む）
	FindNearby(ctx context.Context, location model.LatLng, radiusMeters int, limit int, author string) ([]*model.Memory, []float64, error)

	// FindByBoundingBox 境界ボックス内のメモリーを検索する
	// （author指定時は本人の非公開メモリーも含む）
	FindByBoundingBox(ctx context.Context, minLng, minLat, maxLng, maxLat float64, author string) ([]*model.Memory, error)
}
