package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/carbontrace/apiserver/internal/events"
	"github.com/carbontrace/apiserver/internal/scoring"
	"github.com/carbontrace/apiserver/internal/store"
	"github.com/carbontrace/apiserver/types"
)

// PredictionRepository defines persistence operations for predictions
// and model metadata.
type PredictionRepository interface {
	Create(ctx context.Context, prediction types.Prediction) (types.Prediction, error)
	GetForOwner(ctx context.Context, id int, ownerID *int) (types.Prediction, error)
	List(ctx context.Context, filter store.PredictionFilter, offset, limit int) ([]types.Prediction, error)
	DeleteForOwner(ctx context.Context, id int, ownerID *int) error
	ListModelMetadata(ctx context.Context, modelVersion string) ([]types.ModelMetadata, error)
}

// PredictionService adapts the external scoring model to stored
// predictions. The scorer's numbers are opaque; only the storage and
// error contract is this service's business.
type PredictionService struct {
	repo      PredictionRepository
	scorer    scoring.Scorer
	publisher *events.Publisher
}

func NewPredictionService(repo PredictionRepository, scorer scoring.Scorer, publisher *events.Publisher) *PredictionService {
	return &PredictionService{repo: repo, scorer: scorer, publisher: publisher}
}

// Record scores the payload and persists the result for ownerID. When
// the scorer fails nothing is written: a placeholder prediction is never
// stored silently.
func (s *PredictionService) Record(ctx context.Context, ownerID int, companyID *int, inputData json.RawMessage, predictionType string) (types.Prediction, error) {
	if !types.ValidPredictionType(predictionType) {
		return types.Prediction{}, fmt.Errorf("%w: prediction type must be scope1, scope2, scope3 or total", ErrInvalidInput)
	}
	if len(inputData) == 0 {
		return types.Prediction{}, fmt.Errorf("%w: input data is required", ErrInvalidInput)
	}

	// Re-marshal for a stable serialized form independent of the
	// caller's whitespace.
	compact, err := json.Marshal(json.RawMessage(inputData))
	if err != nil {
		return types.Prediction{}, fmt.Errorf("%w: input data is not valid JSON", ErrInvalidInput)
	}

	result, err := s.scorer.Score(ctx, inputData, predictionType)
	if err != nil {
		return types.Prediction{}, err
	}

	prediction, err := s.repo.Create(ctx, types.Prediction{
		UserID:       ownerID,
		CompanyID:    companyID,
		InputData:    string(compact),
		Result:       result.Prediction,
		Confidence:   result.Confidence,
		ModelVersion: result.ModelVersion,
		Type:         predictionType,
	})
	if err != nil {
		return types.Prediction{}, err
	}

	s.publisher.Emit(ctx, events.KindPredictionCompleted, prediction)
	return prediction, nil
}

func (s *PredictionService) Get(ctx context.Context, id int, ownerID *int) (types.Prediction, error) {
	return s.repo.GetForOwner(ctx, id, ownerID)
}

func (s *PredictionService) List(ctx context.Context, filter store.PredictionFilter, offset, limit int) ([]types.Prediction, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *PredictionService) Delete(ctx context.Context, id int, ownerID *int) error {
	return s.repo.DeleteForOwner(ctx, id, ownerID)
}

func (s *PredictionService) ModelMetadata(ctx context.Context, modelVersion string) ([]types.ModelMetadata, error) {
	return s.repo.ListModelMetadata(ctx, modelVersion)
}
