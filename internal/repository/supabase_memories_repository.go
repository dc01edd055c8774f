package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/supabase-community/postgrest-go"

	"ReMap-App/internal/database"
	"ReMap-App/internal/domain/model"
	"ReMap-App/internal/domain/repository"
)

type SupabaseMemoriesRepository struct {
	client *database.SupabaseClient
}

func NewSupabaseMemoriesRepository(client *database.SupabaseClient) repository.MemoriesRepository {
	return &SupabaseMemoriesRepository{
		client: client,
	}
}

func (r *SupabaseMemoriesRepository) Create(ctx context.Context, memory *model.Memory) error {
	// Memory を DB 保存用の形式に変換（地理情報を含む）
	memoryDB := MemoryToMemoryDB(memory)

	data, err := json.Marshal(memoryDB)
	if err != nil {
		return fmt.Errorf("メモリーデータのJSONマーシャル失敗: %w", err)
	}

	_, _, err = r.client.GetClient().From("memories").Insert(string(data), false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("メモリーデータの作成失敗: %w", err)
	}

	return nil
}

func (r *SupabaseMemoriesRepository) GetByID(ctx context.Context, id string) (*model.Memory, error) {
	var memories []model.Memory
	data, count, err := r.client.GetClient().From("memories").Select("*", "exact", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("メモリーデータの取得失敗: %w", err)
	}
	_ = count

	if err := json.Unmarshal([]byte(data), &memories); err != nil {
		return nil, fmt.Errorf("メモリーデータのJSONアンマーシャル失敗: %w", err)
	}

	if len(memories) == 0 {
		return nil, repository.ErrMemoryNotFound
	}

	return &memories[0], nil
}

func (r *SupabaseMemoriesRepository) Update(ctx context.Context, memory *model.Memory) error {
	update := map[string]interface{}{
		"title":       memory.Title,
		"description": memory.Description,
		"memory_type": memory.MemoryType,
		"visibility":  memory.Visibility,
		"updated_at":  memory.UpdatedAt,
	}

	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("更新データのJSONマーシャル失敗: %w", err)
	}

	result, _, err := r.client.GetClient().From("memories").Update(string(data), "", "exact").Eq("id", memory.ID).Execute()
	if err != nil {
		return fmt.Errorf("メモリーデータの更新失敗: %w", err)
	}

	var updated []model.Memory
	if err := json.Unmarshal([]byte(result), &updated); err == nil && len(updated) == 0 {
		return repository.ErrMemoryNotFound
	}

	return nil
}

func (r *SupabaseMemoriesRepository) Delete(ctx context.Context, id string) error {
	_, _, err := r.client.GetClient().From("memories").Delete("", "exact").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("メモリーデータの削除失敗: %w", err)
	}

	return nil
}

func (r *SupabaseMemoriesRepository) List(ctx context.Context, author string, limit, offset int) ([]*model.Memory, error) {
	query := r.client.GetClient().From("memories").Select("*", "exact", false)

	if author != "" {
		// 公開メモリーに加えて本人の非公開メモリーも含める
		if !validPostgRESTFilterValue(author) {
			return nil, fmt.Errorf("無効な投稿者名: %s", author)
		}
		query = query.Or(fmt.Sprintf("visibility.eq.public,author.eq.%s", author), "")
	} else {
		query = query.Eq("visibility", model.VisibilityPublic)
	}

	data, count, err := query.
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Range(offset, offset+limit-1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("メモリー一覧の取得失敗: %w", err)
	}
	_ = count

	return unmarshalMemories(data)
}

func (r *SupabaseMemoriesRepository) FindNearby(ctx context.Context, location model.LatLng, radiusMeters int, limit int, author string) ([]*model.Memory, []float64, error) {
	// PostGISの近傍検索関数はPostgREST経由で直接使えないため、
	// 半径を包含する境界ボックスで絞り込んでから距離で後段フィルタリングする
	center := orb.Point{location.Lng, location.Lat}
	bound := geo.NewBoundAroundPoint(center, float64(radiusMeters))

	candidates, err := r.FindByBoundingBox(ctx, bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat(), author)
	if err != nil {
		return nil, nil, err
	}

	type memoryWithDistance struct {
		memory   *model.Memory
		distance float64
	}

	var within []memoryWithDistance
	for _, memory := range candidates {
		latLng := memory.ToLatLng()
		distance := geo.Distance(center, orb.Point{latLng.Lng, latLng.Lat})
		if distance <= float64(radiusMeters) {
			within = append(within, memoryWithDistance{memory: memory, distance: distance})
		}
	}

	sort.Slice(within, func(i, j int) bool {
		return within[i].distance < within[j].distance
	})

	if limit > 0 && len(within) > limit {
		within = within[:limit]
	}

	memories := make([]*model.Memory, len(within))
	distances := make([]float64, len(within))
	for i, item := range within {
		memories[i] = item.memory
		distances[i] = item.distance
	}

	return memories, distances, nil
}

func (r *SupabaseMemoriesRepository) FindByBoundingBox(ctx context.Context, minLng, minLat, maxLng, maxLat float64, author string) ([]*model.Memory, error) {
	// 入力値の検証
	if minLng >= maxLng || minLat >= maxLat {
		return nil, fmt.Errorf("無効な境界ボックス: min値がmax値以上です")
	}

	// 座標値の範囲チェック（経度: -180〜180, 緯度: -90〜90）
	if minLng < -180 || maxLng > 180 || minLat < -90 || maxLat > 90 {
		return nil, fmt.Errorf("座標値が有効範囲外です")
	}

	wktString := BoundingBoxToWKT(minLng, minLat, maxLng, maxLat)

	query := r.client.GetClient().From("memories").Select("*", "exact", false)

	if author != "" {
		// 公開メモリーに加えて本人の非公開メモリーも含める
		if !validPostgRESTFilterValue(author) {
			return nil, fmt.Errorf("無効な投稿者名: %s", author)
		}
		query = query.Or(fmt.Sprintf("visibility.eq.public,author.eq.%s", author), "")
	} else {
		query = query.Eq("visibility", model.VisibilityPublic)
	}

	// PostGIS ST_Intersects関数を使用して境界ボックス内のメモリーを検索
	data, count, err := query.
		Filter("location", "st_intersects", fmt.Sprintf("ST_GeomFromText('%s', 4326)", wktString)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("境界ボックス検索エラー: %w", err)
	}
	_ = count

	return unmarshalMemories(data)
}

// validPostgRESTFilterValue or/andフィルタ構文を壊す文字を含まないか検証
func validPostgRESTFilterValue(value string) bool {
	return !strings.ContainsAny(value, `,()"'\`)
}

// unmarshalMemories PostgRESTのレスポンスをMemoryスライスに変換
func unmarshalMemories(data []byte) ([]*model.Memory, error) {
	var memories []model.Memory
	if err := json.Unmarshal(data, &memories); err != nil {
		return nil, fmt.Errorf("メモリーデータのJSONアンマーシャル失敗: %w", err)
	}

	result := make([]*model.Memory, len(memories))
	for i := range memories {
		result[i] = &memories[i]
	}

	return result, nil
}
