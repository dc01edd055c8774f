package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReMap-App/internal/domain/model"
)

func newIndexedMemory(id string, lat, lng float64) *model.Memory {
	return &model.Memory{
		ID:    id,
		Title: "memory " + id,
		Location: &model.Geometry{
			Type:        "Point",
			Coordinates: []float64{lng, lat},
		},
		Visibility: model.VisibilityPublic,
	}
}

func TestMemorySpatialIndex_InsertAndLen(t *testing.T) {
	idx := NewMemorySpatialIndex()

	idx.Insert(newIndexedMemory("a", 35.03, 135.77))
	idx.Insert(newIndexedMemory("b", 35.04, 135.78))
	assert.Equal(t, 2, idx.Len())

	// 同一IDの再挿入は置き換え
	idx.Insert(newIndexedMemory("a", 35.05, 135.79))
	assert.Equal(t, 2, idx.Len())

	// 位置情報なしは無視される
	idx.Insert(&model.Memory{ID: "c"})
	assert.Equal(t, 2, idx.Len())
}

func TestMemorySpatialIndex_Remove(t *testing.T) {
	idx := NewMemorySpatialIndex()

	idx.Insert(newIndexedMemory("a", 35.03, 135.77))
	require.Equal(t, 1, idx.Len())

	idx.Remove("a")
	assert.Equal(t, 0, idx.Len())

	// 存在しないIDの削除は何もしない
	idx.Remove("missing")
	assert.Equal(t, 0, idx.Len())

	memories, _ := idx.SearchRadius(model.LatLng{Lat: 35.03, Lng: 135.77}, 1000)
	assert.Empty(t, memories)
}

func TestMemorySpatialIndex_SearchRadius(t *testing.T) {
	idx := NewMemorySpatialIndex()

	// 京都駅周辺と東京タワー
	idx.Insert(newIndexedMemory("kyoto-1", 34.9858, 135.7588))
	idx.Insert(newIndexedMemory("kyoto-2", 34.9871, 135.7601))
	idx.Insert(newIndexedMemory("tokyo", 35.6586, 139.7454))

	memories, distances := idx.SearchRadius(model.LatLng{Lat: 34.9858, Lng: 135.7588}, 2000)

	require.Len(t, memories, 2)
	require.Len(t, distances, 2)

	// 距離の昇順で返る
	assert.Equal(t, "kyoto-1", memories[0].ID)
	assert.Equal(t, "kyoto-2", memories[1].ID)
	assert.LessOrEqual(t, distances[0], distances[1])
	assert.Less(t, distances[1], 2000.0)
}

func TestMemorySpatialIndex_SearchBoundingBox(t *testing.T) {
	idx := NewMemorySpatialIndex()

	idx.Insert(newIndexedMemory("inside", 35.03, 135.77))
	idx.Insert(newIndexedMemory("outside", 36.00, 136.50))

	memories := idx.SearchBoundingBox(135.7, 35.0, 135.8, 35.1)

	require.Len(t, memories, 1)
	assert.Equal(t, "inside", memories[0].ID)
}

func TestMemorySpatialIndex_Rebuild(t *testing.T) {
	idx := NewMemorySpatialIndex()

	idx.Insert(newIndexedMemory("old", 35.03, 135.77))

	idx.Rebuild([]*model.Memory{
		newIndexedMemory("new-1", 35.03, 135.77),
		newIndexedMemory("new-2", 35.04, 135.78),
	})

	assert.Equal(t, 2, idx.Len())

	memories, _ := idx.SearchRadius(model.LatLng{Lat: 35.03, Lng: 135.77}, 5000)
	ids := make([]string, len(memories))
	for i, m := range memories {
		ids[i] = m.ID
	}
	assert.NotContains(t, ids, "old")
}

func TestMemorySpatialIndex_ConcurrentAccess(t *testing.T) {
	idx := NewMemorySpatialIndex()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			idx.Insert(newIndexedMemory(fmt.Sprintf("m-%d", n), 35.0+float64(n)*0.001, 135.7))
		}(i)
		go func() {
			defer wg.Done()
			idx.SearchRadius(model.LatLng{Lat: 35.0, Lng: 135.7}, 10000)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, idx.Len())
}

func TestDistance(t *testing.T) {
	// 京都駅から東京駅までは約360km
	d := Distance(34.9858, 135.7588, 35.6812, 139.7671)
	assert.InDelta(t, 365.0, d, 15.0)

	// 同一地点は0
	assert.Equal(t, 0.0, Distance(35.0, 135.0, 35.0, 135.0))
}
