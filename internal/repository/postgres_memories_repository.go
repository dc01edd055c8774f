package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"ReMap-App/internal/domain/model"
	"ReMap-App/internal/domain/repository"
	"ReMap-App/internal/infrastructure/database"
)

type PostgresMemoriesRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresMemoriesRepository(client *database.PostgreSQLClient) repository.MemoriesRepository {
	return &PostgresMemoriesRepository{
		client: client,
	}
}

// MemoryResult PostGIS関数の結果を受け取るための構造体
type MemoryResult struct {
	ID             string
	Title          string
	Description    string
	Location       string
	MemoryType     string
	Author         string
	Visibility     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DistanceMeters float64
}

// ToMemory MemoryResultをmodel.Memoryに変換
func (mr *MemoryResult) ToMemory() (*model.Memory, error) {
	var location model.Geometry
	if err := json.Unmarshal([]byte(mr.Location), &location); err != nil {
		return nil, fmt.Errorf("location JSONBパースエラー: %w", err)
	}

	return &model.Memory{
		ID:          mr.ID,
		Title:       mr.Title,
		Description: mr.Description,
		Location:    &location,
		MemoryType:  mr.MemoryType,
		Author:      mr.Author,
		Visibility:  mr.Visibility,
		CreatedAt:   mr.CreatedAt,
		UpdatedAt:   mr.UpdatedAt,
	}, nil
}

func (r *PostgresMemoriesRepository) Create(ctx context.Context, memory *model.Memory) error {
	latLng := memory.ToLatLng()

	query := `
		INSERT INTO memories (id, title, description, location, memory_type, author, visibility, created_at, updated_at)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326), $6, $7, $8, $9, $10)
	`

	_, err := r.client.DB.ExecContext(ctx, query,
		memory.ID, memory.Title, memory.Description,
		latLng.Lng, latLng.Lat,
		memory.MemoryType, memory.Author, memory.Visibility,
		memory.CreatedAt, memory.UpdatedAt)
	if err != nil {
		return fmt.Errorf("メモリーの保存失敗: %w", err)
	}

	return nil
}

func (r *PostgresMemoriesRepository) GetByID(ctx context.Context, id string) (*model.Memory, error) {
	query := `
		SELECT id, title, description,
			ST_AsGeoJSON(location)::jsonb as location,
			memory_type, author, visibility, created_at, updated_at
		FROM memories WHERE id = $1
	`

	row := r.client.DB.QueryRowContext(ctx, query, id)

	var result MemoryResult
	err := row.Scan(&result.ID, &result.Title, &result.Description, &result.Location,
		&result.MemoryType, &result.Author, &result.Visibility, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrMemoryNotFound
		}
		return nil, fmt.Errorf("メモリーの取得失敗: %w", err)
	}

	return result.ToMemory()
}

func (r *PostgresMemoriesRepository) Update(ctx context.Context, memory *model.Memory) error {
	query := `
		UPDATE memories
		SET title = $2, description = $3, memory_type = $4, visibility = $5, updated_at = $6
		WHERE id = $1
	`

	res, err := r.client.DB.ExecContext(ctx, query,
		memory.ID, memory.Title, memory.Description,
		memory.MemoryType, memory.Visibility, memory.UpdatedAt)
	if err != nil {
		return fmt.Errorf("メモリーの更新失敗: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認失敗: %w", err)
	}
	if affected == 0 {
		return repository.ErrMemoryNotFound
	}

	return nil
}

func (r *PostgresMemoriesRepository) Delete(ctx context.Context, id string) error {
	res, err := r.client.DB.ExecContext(ctx, `DELETE FROM memories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("メモリーの削除失敗: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認失敗: %w", err)
	}
	if affected == 0 {
		return repository.ErrMemoryNotFound
	}

	return nil
}

func (r *PostgresMemoriesRepository) List(ctx context.Context, author string, limit, offset int) ([]*model.Memory, error) {
	// author指定時は本人の非公開メモリーも含める
	query := `
		SELECT id, title, description,
			ST_AsGeoJSON(location)::jsonb as location,
			memory_type, author, visibility, created_at, updated_at
		FROM memories
		WHERE visibility = 'public' OR author = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.client.DB.QueryContext(ctx, query, author, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("メモリー一覧の取得失敗: %w", err)
	}
	defer rows.Close()

	memories, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}

	return memories, nil
}

func (r *PostgresMemoriesRepository) FindNearby(ctx context.Context, location model.LatLng, radiusMeters int, limit int, author string) ([]*model.Memory, []float64, error) {
	// PostGIS関数を使用した効率的な近傍検索
	// author指定時は本人の非公開メモリーも含める
	query := `
		SELECT
			m.id, m.title, m.description,
			ST_AsGeoJSON(m.location)::jsonb as location,
			m.memory_type, m.author, m.visibility, m.created_at, m.updated_at,
			ST_Distance(
				ST_GeogFromText('POINT(' || $2 || ' ' || $1 || ')'),
				m.location::geography
			) as distance_meters
		FROM memories m
		WHERE ST_DWithin(
			ST_GeogFromText('POINT(' || $2 || ' ' || $1 || ')'),
			m.location::geography,
			$3
		)
		AND (m.visibility = 'public' OR m.author = $5)
		ORDER BY distance_meters
		LIMIT $4
	`

	rows, err := r.client.DB.QueryContext(ctx, query, location.Lat, location.Lng, radiusMeters, limit, author)
	if err != nil {
		return nil, nil, fmt.Errorf("周辺メモリー検索失敗: %w", err)
	}
	defer rows.Close()

	var memories []*model.Memory
	var distances []float64
	for rows.Next() {
		var result MemoryResult
		err := rows.Scan(&result.ID, &result.Title, &result.Description, &result.Location,
			&result.MemoryType, &result.Author, &result.Visibility,
			&result.CreatedAt, &result.UpdatedAt, &result.DistanceMeters)
		if err != nil {
			return nil, nil, fmt.Errorf("メモリーデータスキャンエラー: %w", err)
		}

		memory, err := result.ToMemory()
		if err != nil {
			return nil, nil, err
		}
		memories = append(memories, memory)
		distances = append(distances, result.DistanceMeters)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("行イテレーション中のエラー: %w", err)
	}

	return memories, distances, nil
}

func (r *PostgresMemoriesRepository) FindByBoundingBox(ctx context.Context, minLng, minLat, maxLng, maxLat float64, author string) ([]*model.Memory, error) {
	wktString := BoundingBoxToWKT(minLng, minLat, maxLng, maxLat)

	query := `
		SELECT id, title, description,
			ST_AsGeoJSON(location)::jsonb as location,
			memory_type, author, visibility, created_at, updated_at
		FROM memories
		WHERE ST_Intersects(location, ST_GeomFromText($1, 4326))
		AND (visibility = 'public' OR author = $2)
		ORDER BY created_at DESC
	`

	rows, err := r.client.DB.QueryContext(ctx, query, wktString, author)
	if err != nil {
		return nil, fmt.Errorf("境界ボックス検索エラー: %w", err)
	}
	defer rows.Close()

	memories, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}

	return memories, nil
}

// scanMemories rows から Memory のスライスを読み出す共通処理
func scanMemories(rows *sql.Rows) ([]*model.Memory, error) {
	var memories []*model.Memory
	for rows.Next() {
		var result MemoryResult
		err := rows.Scan(&result.ID, &result.Title, &result.Description, &result.Location,
			&result.MemoryType, &result.Author, &result.Visibility,
			&result.CreatedAt, &result.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("メモリーデータスキャンエラー: %w", err)
		}

		memory, err := result.ToMemory()
		if err != nil {
			return nil, err
		}
		memories = append(memories, memory)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("行イテレーション中のエラー: %w", err)
	}

	return memories, nil
}
