package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/carbontrace/apiserver/types"
)

// CompanyRepository handles persistence for companies.
type CompanyRepository struct {
	db *sql.DB
}

func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

const companyColumns = `id, name, industry, location, size, description, created_at, updated_at`

func (r *CompanyRepository) Get(ctx context.Context, id int) (types.Company, error) {
	const query = `
		SELECT ` + companyColumns + `
		FROM companies
		WHERE id = $1`
	var company types.Company
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&company.ID,
		&company.Name,
		&company.Industry,
		&company.Location,
		&company.Size,
		&company.Description,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Company{}, ErrNotFound
		}
		return types.Company{}, err
	}
	return company, nil
}

func (r *CompanyRepository) List(ctx context.Context, offset, limit int) ([]types.Company, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM companies`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT ` + companyColumns + `
		FROM companies
		ORDER BY id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	companies := make([]types.Company, 0, limit)
	for rows.Next() {
		var company types.Company
		if err := rows.Scan(
			&company.ID,
			&company.Name,
			&company.Industry,
			&company.Location,
			&company.Size,
			&company.Description,
			&company.CreatedAt,
			&company.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		companies = append(companies, company)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return companies, total, nil
}

func (r *CompanyRepository) Create(ctx context.Context, company types.Company) (types.Company, error) {
	now := time.Now()
	company.CreatedAt = now
	company.UpdatedAt = now

	const query = `
		INSERT INTO companies (name, industry, location, size, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		company.Name,
		company.Industry,
		company.Location,
		company.Size,
		company.Description,
		company.CreatedAt,
		company.UpdatedAt,
	).Scan(&company.ID); err != nil {
		slog.Error("company create failed", "entity", "company", "op", "create", "name", company.Name, "error", err)
		return types.Company{}, translateError(err)
	}
	return company, nil
}

func (r *CompanyRepository) Update(ctx context.Context, company types.Company) (types.Company, error) {
	company.UpdatedAt = time.Now()

	const query = `
		UPDATE companies
		SET name = $1,
			industry = $2,
			location = $3,
			size = $4,
			description = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		company.Name,
		company.Industry,
		company.Location,
		company.Size,
		company.Description,
		company.UpdatedAt,
		company.ID,
	)
	if err != nil {
		slog.Error("company update failed", "entity", "company", "op", "update", "id", company.ID, "error", err)
		return types.Company{}, translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Company{}, err
	}
	if affected == 0 {
		return types.Company{}, ErrNotFound
	}
	return company, nil
}

func (r *CompanyRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM companies WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Error("company delete failed", "entity", "company", "op", "delete", "id", id, "error", err)
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
