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

// SupplyChainRepository handles persistence for supply chain entries in
// both of their shapes. Linked entries reference catalog rows; composed
// entries own embedded material movements that are written and deleted
// with the parent in one transaction.
type SupplyChainRepository struct {
	db *sql.DB
}

func NewSupplyChainRepository(db *sql.DB) *SupplyChainRepository {
	return &SupplyChainRepository{db: db}
}

const supplyChainColumns = `id, variant, company_id, supplier_id, material_id, tier, quantity, unit,
		user_id, supplier_name, date, created_at, updated_at`

func scanSupplyChain(scan func(...any) error) (types.SupplyChain, error) {
	var sc types.SupplyChain
	var companyID, supplierID, materialID, tier, userID sql.NullInt64
	var quantity sql.NullFloat64
	var date sql.NullTime
	err := scan(
		&sc.ID,
		&sc.Variant,
		&companyID,
		&supplierID,
		&materialID,
		&tier,
		&quantity,
		&sc.Unit,
		&userID,
		&sc.SupplierName,
		&date,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	)
	if err != nil {
		return types.SupplyChain{}, err
	}
	sc.CompanyID = intPtr(companyID)
	sc.SupplierID = intPtr(supplierID)
	sc.MaterialID = intPtr(materialID)
	sc.Tier = intPtr(tier)
	sc.UserID = intPtr(userID)
	if quantity.Valid {
		q := quantity.Float64
		sc.Quantity = &q
	}
	if date.Valid {
		d := date.Time
		sc.Date = &d
	}
	return sc, nil
}

func intPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	id := int(value.Int64)
	return &id
}

// CreateLinked inserts a catalog-referencing entry. Referenced company,
// supplier and material must exist; a miss fails with
// ErrReferenceNotFound and writes nothing.
func (r *SupplyChainRepository) CreateLinked(ctx context.Context, sc types.SupplyChain) (types.SupplyChain, error) {
	for _, ref := range []struct {
		table string
		id    *int
	}{
		{"companies", sc.CompanyID},
		{"suppliers", sc.SupplierID},
		{"materials", sc.MaterialID},
	} {
		if ref.id == nil {
			continue
		}
		var count int
		query := fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE id = $1`, ref.table)
		if err := r.db.QueryRowContext(ctx, query, *ref.id).Scan(&count); err != nil {
			return types.SupplyChain{}, err
		}
		if count == 0 {
			return types.SupplyChain{}, ErrReferenceNotFound
		}
	}

	now := time.Now()
	sc.Variant = types.SupplyChainLinked
	sc.CreatedAt = now
	sc.UpdatedAt = now

	const query = `
		INSERT INTO supply_chains (variant, company_id, supplier_id, material_id, tier, quantity, unit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		sc.Variant,
		nullableInt(sc.CompanyID),
		nullableInt(sc.SupplierID),
		nullableInt(sc.MaterialID),
		nullableInt(sc.Tier),
		nullableFloat(sc.Quantity),
		sc.Unit,
		sc.CreatedAt,
		sc.UpdatedAt,
	).Scan(&sc.ID); err != nil {
		slog.Error("supply chain create failed", "entity", "supply_chain", "op", "create_linked", "error", err)
		return types.SupplyChain{}, translateError(err)
	}
	return sc, nil
}

// CreateComposed inserts a user-owned entry together with its material
// movements as a single atomic unit. The parent id is obtained inside
// the transaction so children can reference it before commit; any child
// failure rolls back the parent as well.
func (r *SupplyChainRepository) CreateComposed(ctx context.Context, sc types.SupplyChain) (types.SupplyChain, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.SupplyChain{}, err
	}
	defer tx.Rollback()

	now := time.Now()
	sc.Variant = types.SupplyChainComposed
	sc.CreatedAt = now
	sc.UpdatedAt = now

	const parentQuery = `
		INSERT INTO supply_chains (variant, user_id, supplier_name, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		parentQuery,
		sc.Variant,
		nullableInt(sc.UserID),
		sc.SupplierName,
		nullableTime(sc.Date),
		sc.CreatedAt,
		sc.UpdatedAt,
	).Scan(&sc.ID); err != nil {
		slog.Error("supply chain create failed", "entity", "supply_chain", "op", "create_composed", "error", err)
		return types.SupplyChain{}, translateError(err)
	}

	const movementQuery = `
		INSERT INTO material_movements (supply_chain_id, material_type, quantity, transport_mode, transport_distance, transport_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	for i := range sc.Materials {
		movement := &sc.Materials[i]
		movement.SupplyChainID = sc.ID
		if err := tx.QueryRowContext(
			ctx,
			movementQuery,
			movement.SupplyChainID,
			movement.MaterialType,
			movement.Quantity,
			movement.TransportMode,
			movement.TransportDistance,
			nullableTime(movement.TransportDate),
			movement.Notes,
		).Scan(&movement.ID); err != nil {
			slog.Error("material movement insert failed", "entity", "supply_chain", "op", "create_composed", "parent_id", sc.ID, "error", err)
			return types.SupplyChain{}, translateError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return types.SupplyChain{}, err
	}
	return sc, nil
}

// GetForOwner loads an entry by id, scoped to the owner when ownerID is
// non-nil. A row owned by someone else reports ErrNotFound.
func (r *SupplyChainRepository) GetForOwner(ctx context.Context, id int, ownerID *int) (types.SupplyChain, error) {
	query := `
		SELECT ` + supplyChainColumns + `
		FROM supply_chains
		WHERE id = $1`
	args := []any{id}
	if ownerID != nil {
		query += ` AND user_id = $2`
		args = append(args, *ownerID)
	}

	sc, err := scanSupplyChain(r.db.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.SupplyChain{}, ErrNotFound
		}
		return types.SupplyChain{}, err
	}

	if sc.Variant == types.SupplyChainComposed {
		sc.Materials, err = r.movements(ctx, sc.ID)
		if err != nil {
			return types.SupplyChain{}, err
		}
	}
	return sc, nil
}

// ListForOwner returns entries newest-first, scoped to the owner when
// ownerID is non-nil (admins pass nil to see every owner's rows).
func (r *SupplyChainRepository) ListForOwner(ctx context.Context, ownerID *int, offset, limit int) ([]types.SupplyChain, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	query := `
		SELECT ` + supplyChainColumns + `
		FROM supply_chains`
	args := []any{}
	if ownerID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *ownerID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chains := make([]types.SupplyChain, 0, limit)
	for rows.Next() {
		sc, err := scanSupplyChain(rows.Scan)
		if err != nil {
			return nil, err
		}
		chains = append(chains, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range chains {
		if chains[i].Variant != types.SupplyChainComposed {
			continue
		}
		chains[i].Materials, err = r.movements(ctx, chains[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return chains, nil
}

// DeleteForOwner removes an entry and its movements in one transaction.
// The movement delete is explicit; the ON DELETE CASCADE constraint is
// the backstop.
func (r *SupplyChainRepository) DeleteForOwner(ctx context.Context, id int, ownerID *int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const movementQuery = `DELETE FROM material_movements WHERE supply_chain_id = $1`
	if _, err := tx.ExecContext(ctx, movementQuery, id); err != nil {
		slog.Error("supply chain delete failed", "entity", "supply_chain", "op", "delete", "id", id, "error", err)
		return translateError(err)
	}

	query := `DELETE FROM supply_chains WHERE id = $1`
	args := []any{id}
	if ownerID != nil {
		query += ` AND user_id = $2`
		args = append(args, *ownerID)
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Error("supply chain delete failed", "entity", "supply_chain", "op", "delete", "id", id, "error", err)
		return translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (r *SupplyChainRepository) movements(ctx context.Context, supplyChainID int) ([]types.MaterialMovement, error) {
	const query = `
		SELECT id, supply_chain_id, material_type, quantity, transport_mode, transport_distance, transport_date, notes
		FROM material_movements
		WHERE supply_chain_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, supplyChainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []types.MaterialMovement
	for rows.Next() {
		var movement types.MaterialMovement
		var transportDate sql.NullTime
		if err := rows.Scan(
			&movement.ID,
			&movement.SupplyChainID,
			&movement.MaterialType,
			&movement.Quantity,
			&movement.TransportMode,
			&movement.TransportDistance,
			&transportDate,
			&movement.Notes,
		); err != nil {
			return nil, err
		}
		if transportDate.Valid {
			d := transportDate.Time
			movement.TransportDate = &d
		}
		movements = append(movements, movement)
	}
	return movements, rows.Err()
}
