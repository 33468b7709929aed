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

// PredictionRepository handles persistence for stored predictions and
// model metadata.
type PredictionRepository struct {
	db *sql.DB
}

func NewPredictionRepository(db *sql.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

const predictionColumns = `id, user_id, company_id, input_data, prediction_result, confidence_score,
		model_version, prediction_type, prediction_date, created_at`

func scanPrediction(scan func(...any) error) (types.Prediction, error) {
	var prediction types.Prediction
	var companyID sql.NullInt64
	var confidence sql.NullFloat64
	err := scan(
		&prediction.ID,
		&prediction.UserID,
		&companyID,
		&prediction.InputData,
		&prediction.Result,
		&confidence,
		&prediction.ModelVersion,
		&prediction.Type,
		&prediction.PredictedAt,
		&prediction.CreatedAt,
	)
	if err != nil {
		return types.Prediction{}, err
	}
	prediction.CompanyID = intPtr(companyID)
	if confidence.Valid {
		c := confidence.Float64
		prediction.Confidence = &c
	}
	return prediction, nil
}

func (r *PredictionRepository) Create(ctx context.Context, prediction types.Prediction) (types.Prediction, error) {
	now := time.Now()
	if prediction.PredictedAt.IsZero() {
		prediction.PredictedAt = now
	}
	prediction.CreatedAt = now

	const query = `
		INSERT INTO predictions (user_id, company_id, input_data, prediction_result, confidence_score,
			model_version, prediction_type, prediction_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		prediction.UserID,
		nullableInt(prediction.CompanyID),
		prediction.InputData,
		prediction.Result,
		nullableFloat(prediction.Confidence),
		prediction.ModelVersion,
		prediction.Type,
		prediction.PredictedAt,
		prediction.CreatedAt,
	).Scan(&prediction.ID); err != nil {
		slog.Error("prediction create failed", "entity", "prediction", "op", "create", "user_id", prediction.UserID, "error", err)
		return types.Prediction{}, translateError(err)
	}
	return prediction, nil
}

func (r *PredictionRepository) GetForOwner(ctx context.Context, id int, ownerID *int) (types.Prediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM predictions
		WHERE id = $1`
	args := []any{id}
	if ownerID != nil {
		query += ` AND user_id = $2`
		args = append(args, *ownerID)
	}

	prediction, err := scanPrediction(r.db.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Prediction{}, ErrNotFound
		}
		return types.Prediction{}, err
	}
	return prediction, nil
}

// PredictionFilter narrows List results. Nil fields are ignored.
type PredictionFilter struct {
	OwnerID   *int
	CompanyID *int
	Type      string
}

// List returns predictions newest-first by prediction date.
func (r *PredictionRepository) List(ctx context.Context, filter PredictionFilter, offset, limit int) ([]types.Prediction, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	query := `
		SELECT ` + predictionColumns + `
		FROM predictions
		WHERE 1=1`
	args := []any{}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		query += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	if filter.CompanyID != nil {
		args = append(args, *filter.CompanyID)
		query += fmt.Sprintf(` AND company_id = $%d`, len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(` AND prediction_type = $%d`, len(args))
	}
	query += fmt.Sprintf(` ORDER BY prediction_date DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := make([]types.Prediction, 0, limit)
	for rows.Next() {
		prediction, err := scanPrediction(rows.Scan)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, prediction)
	}
	return predictions, rows.Err()
}

func (r *PredictionRepository) DeleteForOwner(ctx context.Context, id int, ownerID *int) error {
	query := `DELETE FROM predictions WHERE id = $1`
	args := []any{id}
	if ownerID != nil {
		query += ` AND user_id = $2`
		args = append(args, *ownerID)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Error("prediction delete failed", "entity", "prediction", "op", "delete", "id", id, "error", err)
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

// ListModelMetadata returns model metadata newest-first, optionally
// filtered by version.
func (r *PredictionRepository) ListModelMetadata(ctx context.Context, modelVersion string) ([]types.ModelMetadata, error) {
	query := `
		SELECT id, model_name, model_version, description, accuracy, training_date, parameters, created_at
		FROM model_metadata`
	args := []any{}
	if modelVersion != "" {
		query += ` WHERE model_version = $1`
		args = append(args, modelVersion)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metadata []types.ModelMetadata
	for rows.Next() {
		var m types.ModelMetadata
		var trainingDate sql.NullTime
		if err := rows.Scan(
			&m.ID,
			&m.ModelName,
			&m.ModelVersion,
			&m.Description,
			&m.Accuracy,
			&trainingDate,
			&m.Parameters,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		if trainingDate.Valid {
			d := trainingDate.Time
			m.TrainingDate = &d
		}
		metadata = append(metadata, m)
	}
	return metadata, rows.Err()
}
