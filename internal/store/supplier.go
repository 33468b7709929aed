package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/carbontrace/apiserver/types"
)

// SupplierRepository handles persistence for suppliers.
type SupplierRepository struct {
	db *sql.DB
}

func NewSupplierRepository(db *sql.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

const supplierColumns = `id, name, location, contact_info, description, company_id, created_at, updated_at`

func scanSupplier(scan func(...any) error) (types.Supplier, error) {
	var supplier types.Supplier
	var companyID sql.NullInt64
	err := scan(
		&supplier.ID,
		&supplier.Name,
		&supplier.Location,
		&supplier.ContactInfo,
		&supplier.Description,
		&companyID,
		&supplier.CreatedAt,
		&supplier.UpdatedAt,
	)
	if err != nil {
		return types.Supplier{}, err
	}
	if companyID.Valid {
		id := int(companyID.Int64)
		supplier.CompanyID = &id
	}
	return supplier, nil
}

func (r *SupplierRepository) Get(ctx context.Context, id int) (types.Supplier, error) {
	const query = `
		SELECT ` + supplierColumns + `
		FROM suppliers
		WHERE id = $1`
	supplier, err := scanSupplier(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Supplier{}, ErrNotFound
		}
		return types.Supplier{}, err
	}
	return supplier, nil
}

func (r *SupplierRepository) List(ctx context.Context, offset, limit int) ([]types.Supplier, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM suppliers`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT ` + supplierColumns + `
		FROM suppliers
		ORDER BY id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	suppliers := make([]types.Supplier, 0, limit)
	for rows.Next() {
		supplier, err := scanSupplier(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		suppliers = append(suppliers, supplier)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return suppliers, total, nil
}

// Create inserts a supplier after an optimistic uniqueness check on name.
// A concurrent create with the same name can pass the check; the unique
// constraint on the table decides the race and exactly one insert fails
// with ErrDuplicate.
func (r *SupplierRepository) Create(ctx context.Context, supplier types.Supplier) (types.Supplier, error) {
	const existsQuery = `SELECT COUNT(1) FROM suppliers WHERE name = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, existsQuery, supplier.Name).Scan(&count); err != nil {
		return types.Supplier{}, err
	}
	if count > 0 {
		return types.Supplier{}, ErrDuplicate
	}

	now := time.Now()
	supplier.CreatedAt = now
	supplier.UpdatedAt = now

	const query = `
		INSERT INTO suppliers (name, location, contact_info, description, company_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		supplier.Name,
		supplier.Location,
		supplier.ContactInfo,
		supplier.Description,
		nullableInt(supplier.CompanyID),
		supplier.CreatedAt,
		supplier.UpdatedAt,
	).Scan(&supplier.ID); err != nil {
		slog.Error("supplier create failed", "entity", "supplier", "op", "create", "name", supplier.Name, "error", err)
		return types.Supplier{}, translateError(err)
	}
	return supplier, nil
}

func (r *SupplierRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM suppliers WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Error("supplier delete failed", "entity", "supplier", "op", "delete", "id", id, "error", err)
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
