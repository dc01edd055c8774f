package model

import (
	"time"
)

// Memory 位置情報付きの思い出（メモリーピン）を表すモデル
type Memory struct {
	ID          string    `json:"id"`          // ユニークなメモリーID
	Title       string    `json:"title"`       // タイトル
	Description string    `json:"description"` // 本文・説明
	Location    *Geometry `json:"location"`    // 位置情報（PostGIS GEOMETRY型）
	MemoryType  string    `json:"memory_type"` // 種類（story / photo / audio / moment）
	Author      string    `json:"author"`      // 投稿者
	Visibility  string    `json:"visibility"`  // 公開範囲（public / private）
	CreatedAt   time.Time `json:"created_at"`  // 投稿日時
	UpdatedAt   time.Time `json:"updated_at"`  // 更新日時
}

// ToLatLng Memoryの位置情報をLatLng型に変換
func (m *Memory) ToLatLng() LatLng {
	if m.Location != nil && len(m.Location.Coordinates) >= 2 {
		return LatLng{
			Lat: m.Location.Coordinates[1], // latitude
			Lng: m.Location.Coordinates[0], // longitude
		}
	}
	return LatLng{}
}

// IsPublic 公開メモリーかどうかを判定
func (m *Memory) IsPublic() bool {
	return m.Visibility == VisibilityPublic
}

// Geometry PostGIS GEOMETRY型に対応する構造体
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [longitude, latitude]
}

// LatLng 緯度経度を表す基本的な型（近傍検索などで使用）
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	Latitude  float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

type CreateMemoryRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	MemoryType  string    `json:"memory_type"`
	Author      string    `json:"author" validate:"required"`
	Visibility  string    `json:"visibility"`
	Location    *Location `json:"location" validate:"required"`
}

type UpdateMemoryRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	MemoryType  *string `json:"memory_type"`
	Visibility  *string `json:"visibility"`
	Author      string  `json:"author" validate:"required"`
}

// MemorySummary 一覧表示用のメモリー情報（距離付き）
type MemorySummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	MemoryType     string    `json:"memory_type"`
	Author         string    `json:"author"`
	Location       *Location `json:"location"`
	CreatedAt      time.Time `json:"created_at"`
	DistanceMeters *float64  `json:"distance_meters,omitempty"` // 近傍検索時のみ設定
}

// GetMemoriesResponse GET /api/memories のレスポンスエンベロープ
type GetMemoriesResponse struct {
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Memories  []MemorySummary `json:"memories"`
	Count     int             `json:"count"`
}

// HealthStatus GET /health のレスポンス
type HealthStatus struct {
	Status      string          `json:"status"`
	Timestamp   time.Time       `json:"timestamp"`
	Environment string          `json:"environment"`
	Database    DatabaseHealth  `json:"database"`
	Uptime      float64         `json:"uptime"` // 秒単位
	Error       string          `json:"error,omitempty"`
}

// DatabaseHealth データベース接続の状態
type DatabaseHealth struct {
	Connected   bool   `json:"connected"`
	CurrentTime string `json:"current_time,omitempty"`
	Version     string `json:"version,omitempty"`
}
