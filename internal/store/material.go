package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/carbontrace/apiserver/types"
)

// MaterialRepository handles persistence for the material catalog.
type MaterialRepository struct {
	db *sql.DB
}

func NewMaterialRepository(db *sql.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

const materialColumns = `id, name, category, description, emission_factor, emission_unit, created_at, updated_at`

func (r *MaterialRepository) Get(ctx context.Context, id int) (types.Material, error) {
	const query = `
		SELECT ` + materialColumns + `
		FROM materials
		WHERE id = $1`
	var material types.Material
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&material.ID,
		&material.Name,
		&material.Category,
		&material.Description,
		&material.EmissionFactor,
		&material.EmissionUnit,
		&material.CreatedAt,
		&material.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Material{}, ErrNotFound
		}
		return types.Material{}, err
	}
	return material, nil
}

func (r *MaterialRepository) List(ctx context.Context, offset, limit int) ([]types.Material, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM materials`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT ` + materialColumns + `
		FROM materials
		ORDER BY id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	materials := make([]types.Material, 0, limit)
	for rows.Next() {
		var material types.Material
		if err := rows.Scan(
			&material.ID,
			&material.Name,
			&material.Category,
			&material.Description,
			&material.EmissionFactor,
			&material.EmissionUnit,
			&material.CreatedAt,
			&material.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		materials = append(materials, material)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return materials, total, nil
}

// Create inserts a material after an optimistic uniqueness check on name,
// backed by the table's unique constraint.
func (r *MaterialRepository) Create(ctx context.Context, material types.Material) (types.Material, error) {
	const existsQuery = `SELECT COUNT(1) FROM materials WHERE name = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, existsQuery, material.Name).Scan(&count); err != nil {
		return types.Material{}, err
	}
	if count > 0 {
		return types.Material{}, ErrDuplicate
	}

	now := time.Now()
	material.CreatedAt = now
	material.UpdatedAt = now

	const query = `
		INSERT INTO materials (name, category, description, emission_factor, emission_unit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		material.Name,
		material.Category,
		material.Description,
		material.EmissionFactor,
		material.EmissionUnit,
		material.CreatedAt,
		material.UpdatedAt,
	).Scan(&material.ID); err != nil {
		slog.Error("material create failed", "entity", "material", "op", "create", "name", material.Name, "error", err)
		return types.Material{}, translateError(err)
	}
	return material, nil
}

func (r *MaterialRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM materials WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Error("material delete failed", "entity", "material", "op", "delete", "id", id, "error", err)
		return translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
