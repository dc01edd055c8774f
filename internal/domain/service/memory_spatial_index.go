// Package service のメモリー空間インデックスは、公開メモリーの
// 地図ビューポート検索をDBへの問い合わせなしで処理するためのR-Treeキャッシュ
package service

import (
	"math"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"

	"ReMap-App/internal/domain/model"
)

const (
	tolerance   = 0.01
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
	earthRadius = 6371.0 // km
)

// spatialMemory rtreego.Spatial インターフェースを実装するラッパー
type spatialMemory struct {
	memory *model.Memory
	rect   *rtreego.Rect
}

func (sm *spatialMemory) Bounds() *rtreego.Rect {
	return sm.rect
}

// MemorySpatialIndex 公開メモリーのインメモリR-Treeインデックス。
// リポジトリが正であり、本インデックスは検索の高速化のみを担う
type MemorySpatialIndex struct {
	tree  *rtreego.Rtree
	items map[string]*spatialMemory
	mu    sync.RWMutex
}

// NewMemorySpatialIndex 新しい空間インデックスを作成
func NewMemorySpatialIndex() *MemorySpatialIndex {
	return &MemorySpatialIndex{
		tree:  rtreego.NewTree(dimensions, minChildren, maxChildren),
		items: make(map[string]*spatialMemory),
	}
}

// Insert メモリーをインデックスに追加（同一IDは置き換え）
func (idx *MemorySpatialIndex) Insert(memory *model.Memory) {
	if memory == nil || memory.Location == nil || len(memory.Location.Coordinates) < 2 {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.items[memory.ID]; ok {
		idx.tree.Delete(existing)
		delete(idx.items, memory.ID)
	}

	latLng := memory.ToLatLng()
	p := rtreego.Point{latLng.Lat, latLng.Lng}
	item := &spatialMemory{
		memory: memory,
		rect:   p.ToRect(tolerance),
	}

	idx.tree.Insert(item)
	idx.items[memory.ID] = item
}

// Remove 指定されたIDのメモリーをインデックスから削除
func (idx *MemorySpatialIndex) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	item, ok := idx.items[id]
	if !ok {
		return
	}

	idx.tree.Delete(item)
	delete(idx.items, id)
}

// Rebuild インデックスを与えられたメモリー群で再構築
func (idx *MemorySpatialIndex) Rebuild(memories []*model.Memory) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.tree = rtreego.NewTree(dimensions, minChildren, maxChildren)
	idx.items = make(map[string]*spatialMemory)

	for _, memory := range memories {
		if memory == nil || memory.Location == nil || len(memory.Location.Coordinates) < 2 {
			continue
		}
		latLng := memory.ToLatLng()
		p := rtreego.Point{latLng.Lat, latLng.Lng}
		item := &spatialMemory{
			memory: memory,
			rect:   p.ToRect(tolerance),
		}
		idx.tree.Insert(item)
		idx.items[memory.ID] = item
	}
}

// Len インデックス内のメモリー数を返す
func (idx *MemorySpatialIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.items)
}

// SearchBoundingBox 境界ボックス内のメモリーを検索
func (idx *MemorySpatialIndex) SearchBoundingBox(minLng, minLat, maxLng, maxLat float64) []*model.Memory {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	bottomLeft := rtreego.Point{minLat, minLng}
	rectSize := []float64{
		maxLat - minLat,
		maxLng - minLng,
	}

	bounds, err := rtreego.NewRect(bottomLeft, rectSize)
	if err != nil {
		return nil
	}

	results := idx.tree.SearchIntersect(bounds)

	memories := make([]*model.Memory, 0, len(results))
	for _, result := range results {
		item, ok := result.(*spatialMemory)
		if !ok || item.memory == nil {
			continue
		}

		// R-Treeのtoleranceで広がった分を厳密な範囲チェックで除外
		latLng := item.memory.ToLatLng()
		if latLng.Lat >= minLat && latLng.Lat <= maxLat &&
			latLng.Lng >= minLng && latLng.Lng <= maxLng {
			memories = append(memories, item.memory)
		}
	}

	return memories
}

// SearchRadius 中心点から半径radiusMeters以内のメモリーを距離順に検索
func (idx *MemorySpatialIndex) SearchRadius(center model.LatLng, radiusMeters int) ([]*model.Memory, []float64) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	radiusKm := float64(radiusMeters) / 1000.0

	// 半径を度数に変換して境界ボックスで一次絞り込み
	deg := (radiusKm / earthRadius) * (180 / math.Pi)

	bottomLeft := rtreego.Point{center.Lat - deg, center.Lng - deg}
	rectSize := []float64{2 * deg, 2 * deg}

	bounds, err := rtreego.NewRect(bottomLeft, rectSize)
	if err != nil {
		return nil, nil
	}

	results := idx.tree.SearchIntersect(bounds)

	type memoryWithDistance struct {
		memory   *model.Memory
		distance float64
	}

	var within []memoryWithDistance
	for _, result := range results {
		item, ok := result.(*spatialMemory)
		if !ok || item.memory == nil {
			continue
		}

		latLng := item.memory.ToLatLng()
		distanceKm := Distance(center.Lat, center.Lng, latLng.Lat, latLng.Lng)
		if distanceKm <= radiusKm {
			within = append(within, memoryWithDistance{
				memory:   item.memory,
				distance: distanceKm * 1000.0,
			})
		}
	}

	sort.Slice(within, func(i, j int) bool {
		return within[i].distance < within[j].distance
	})

	memories := make([]*model.Memory, len(within))
	distances := make([]float64, len(within))
	for i, item := range within {
		memories[i] = item.memory
		distances[i] = item.distance
	}

	return memories, distances
}

// Distance 2点間のHaversine距離をキロメートル単位で計算
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}
