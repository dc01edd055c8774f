package repository

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"ReMap-App/internal/domain/model"
)

// GeoPoint PostGIS POINT 型の JSON 表現
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// LocationToGeoPoint model.Location を PostGIS POINT 形式に変換
func LocationToGeoPoint(location *model.Location) *GeoPoint {
	if location == nil {
		return nil
	}

	point := orb.Point{location.Longitude, location.Latitude}

	return &GeoPoint{
		Type:        "Point",
		Coordinates: []float64{point.Lon(), point.Lat()},
	}
}

// GeoPointToLocation PostGIS POINT を model.Location に変換
func GeoPointToLocation(geoPoint *GeoPoint) *model.Location {
	if geoPoint == nil || len(geoPoint.Coordinates) < 2 {
		return nil
	}

	point := orb.Point{geoPoint.Coordinates[0], geoPoint.Coordinates[1]}

	return &model.Location{
		Latitude:  point.Lat(),
		Longitude: point.Lon(),
	}
}

// GeometryToLocation model.Geometry を model.Location に変換
func GeometryToLocation(geometry *model.Geometry) *model.Location {
	if geometry == nil || len(geometry.Coordinates) < 2 {
		return nil
	}
	return &model.Location{
		Latitude:  geometry.Coordinates[1],
		Longitude: geometry.Coordinates[0],
	}
}

// BoundingBoxToWKT 境界ボックスをWKTポリゴン文字列に変換（PostGISフィルタ用）
func BoundingBoxToWKT(minLng, minLat, maxLng, maxLat float64) string {
	bound := orb.Bound{
		Min: orb.Point{minLng, minLat},
		Max: orb.Point{maxLng, maxLat},
	}

	polygon := bound.ToPolygon()

	return wkt.MarshalString(polygon)
}

// MemoryDB Memory を DB 保存用の構造体に変換したもの（PostgREST経由の保存用）
type MemoryDB struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    *GeoPoint `json:"location"`
	MemoryType  string    `json:"memory_type"`
	Author      string    `json:"author"`
	Visibility  string    `json:"visibility"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MemoryToMemoryDB model.Memory を DB 保存用に変換
func MemoryToMemoryDB(memory *model.Memory) *MemoryDB {
	var location *GeoPoint
	if memory.Location != nil && len(memory.Location.Coordinates) >= 2 {
		location = &GeoPoint{
			Type:        "Point",
			Coordinates: []float64{memory.Location.Coordinates[0], memory.Location.Coordinates[1]},
		}
	}

	return &MemoryDB{
		ID:          memory.ID,
		Title:       memory.Title,
		Description: memory.Description,
		Location:    location,
		MemoryType:  memory.MemoryType,
		Author:      memory.Author,
		Visibility:  memory.Visibility,
		CreatedAt:   memory.CreatedAt,
		UpdatedAt:   memory.UpdatedAt,
	}
}
