package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carbontrace/apiserver/types"
)

// EmissionRepository handles persistence for emission records and serves
// the read-only aggregation queries used by the analytics engine. Each
// aggregate query is self-consistent under read-committed isolation; a
// concurrent insert during an analytics computation may or may not be
// reflected but can never corrupt a partial sum.
type EmissionRepository struct {
	db *sql.DB
}

func NewEmissionRepository(db *sql.DB) *EmissionRepository {
	return &EmissionRepository{db: db}
}

const emissionColumns = `id, user_id, company_id, supplier_id, scope, category, amount, unit,
		co2_per_unit, occurred_at, data_quality, description, created_at, updated_at`

func scanEmission(scan func(...any) error) (types.EmissionRecord, error) {
	var record types.EmissionRecord
	var companyID, supplierID sql.NullInt64
	err := scan(
		&record.ID,
		&record.UserID,
		&companyID,
		&supplierID,
		&record.Scope,
		&record.Category,
		&record.Amount,
		&record.Unit,
		&record.CO2PerUnit,
		&record.OccurredAt,
		&record.DataQuality,
		&record.Description,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return types.EmissionRecord{}, err
	}
	record.CompanyID = intPtr(companyID)
	record.SupplierID = intPtr(supplierID)
	return record, nil
}

// Create inserts a record after validating that the referenced company
// exists, and the supplier too when one is given. A missing reference
// fails with ErrReferenceNotFound and performs no write.
func (r *EmissionRepository) Create(ctx context.Context, record types.EmissionRecord) (types.EmissionRecord, error) {
	if record.CompanyID != nil {
		var count int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM companies WHERE id = $1`, *record.CompanyID).Scan(&count); err != nil {
			return types.EmissionRecord{}, err
		}
		if count == 0 {
			return types.EmissionRecord{}, ErrReferenceNotFound
		}
	}
	if record.SupplierID != nil {
		var count int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM suppliers WHERE id = $1`, *record.SupplierID).Scan(&count); err != nil {
			return types.EmissionRecord{}, err
		}
		if count == 0 {
			return types.EmissionRecord{}, ErrReferenceNotFound
		}
	}

	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	const query = `
		INSERT INTO emission_records (user_id, company_id, supplier_id, scope, category, amount, unit,
			co2_per_unit, occurred_at, data_quality, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		record.UserID,
		nullableInt(record.CompanyID),
		nullableInt(record.SupplierID),
		record.Scope,
		record.Category,
		record.Amount,
		record.Unit,
		record.CO2PerUnit,
		record.OccurredAt,
		record.DataQuality,
		record.Description,
		record.CreatedAt,
		record.UpdatedAt,
	).Scan(&record.ID); err != nil {
		slog.Error("emission record create failed", "entity", "emission_record", "op", "create", "user_id", record.UserID, "error", err)
		return types.EmissionRecord{}, translateError(err)
	}
	return record, nil
}

// GetForOwner loads a record by id, scoped to the owner when ownerID is
// non-nil. A row owned by someone else reports ErrNotFound.
func (r *EmissionRepository) GetForOwner(ctx context.Context, id int, ownerID *int) (types.EmissionRecord, error) {
	query := `
		SELECT ` + emissionColumns + `
		FROM emission_records
		WHERE id = $1`
	args := []any{id}
	if ownerID != nil {
		query += ` AND user_id = $2`
		args = append(args, *ownerID)
	}

	record, err := scanEmission(r.db.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.EmissionRecord{}, ErrNotFound
		}
		return types.EmissionRecord{}, err
	}
	return record, nil
}

// ListForOwner returns records newest-first, scoped to the owner when
// ownerID is non-nil.
func (r *EmissionRepository) ListForOwner(ctx context.Context, ownerID *int, offset, limit int) ([]types.EmissionRecord, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	query := `
		SELECT ` + emissionColumns + `
		FROM emission_records`
	args := []any{}
	if ownerID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *ownerID)
	}
	query += fmt.Sprintf(` ORDER BY occurred_at DESC, id DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]types.EmissionRecord, 0, limit)
	for rows.Next() {
		record, err := scanEmission(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// DeleteForOwner removes a record scoped to the owner. A miss reports
// ErrNotFound whether the id is absent or belongs to another owner.
func (r *EmissionRepository) DeleteForOwner(ctx context.Context, id int, ownerID *int) error {
	query := `DELETE FROM emission_records WHERE id = $1`
	args := []any{id}
	if ownerID != nil {
		query += ` AND user_id = $2`
		args = append(args, *ownerID)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Error("emission record delete failed", "entity", "emission_record", "op", "delete", "id", id, "error", err)
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

// SumCO2e sums amount * co2_per_unit over [start, end] inclusive,
// returning 0 when no rows match.
func (r *EmissionRepository) SumCO2e(ctx context.Context, ownerID *int, start, end time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount * co2_per_unit), 0)
		FROM emission_records
		WHERE occurred_at >= $1 AND occurred_at <= $2`
	args := []any{start, endOfDay(end)}
	if ownerID != nil {
		query += ` AND user_id = $3`
		args = append(args, *ownerID)
	}

	var total float64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// SumCO2eByCategory groups the range's CO2-equivalent by category tag.
// Records without a category fall into the sentinel unspecified bucket.
func (r *EmissionRepository) SumCO2eByCategory(ctx context.Context, ownerID *int, start, end time.Time) ([]types.CategoryEmissions, error) {
	query := `
		SELECT COALESCE(NULLIF(category, ''), '` + types.CategoryUnspecified + `') AS category,
		       SUM(amount * co2_per_unit)
		FROM emission_records
		WHERE occurred_at >= $1 AND occurred_at <= $2`
	args := []any{start, endOfDay(end)}
	if ownerID != nil {
		query += ` AND user_id = $3`
		args = append(args, *ownerID)
	}
	query += ` GROUP BY 1`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []types.CategoryEmissions
	for rows.Next() {
		var entry types.CategoryEmissions
		if err := rows.Scan(&entry.Category, &entry.Emissions); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// SumCO2eByBucket groups the range's CO2-equivalent by bucket start
// (calendar day, ISO week start or calendar month start), ascending.
// Only buckets with at least one record appear.
func (r *EmissionRepository) SumCO2eByBucket(ctx context.Context, ownerID *int, start, end time.Time, timeframe string) ([]types.TrendPoint, error) {
	var bucketExpr string
	switch timeframe {
	case types.TimeframeDay:
		bucketExpr = `date_trunc('day', occurred_at)`
	case types.TimeframeWeek:
		bucketExpr = `date_trunc('week', occurred_at)`
	case types.TimeframeMonth:
		bucketExpr = `date_trunc('month', occurred_at)`
	default:
		return nil, fmt.Errorf("unknown timeframe %q", timeframe)
	}

	query := `
		SELECT ` + bucketExpr + ` AS bucket, SUM(amount * co2_per_unit)
		FROM emission_records
		WHERE occurred_at >= $1 AND occurred_at <= $2`
	args := []any{start, endOfDay(end)}
	if ownerID != nil {
		query += ` AND user_id = $3`
		args = append(args, *ownerID)
	}
	query += ` GROUP BY 1 ORDER BY 1`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []types.TrendPoint
	for rows.Next() {
		var point types.TrendPoint
		if err := rows.Scan(&point.Bucket, &point.Emissions); err != nil {
			return nil, err
		}
		result = append(result, point)
	}
	return result, rows.Err()
}

// endOfDay extends an inclusive calendar end date to the last instant of
// that day so timestamped rows on the end date are counted.
func endOfDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), day.Location())
}
