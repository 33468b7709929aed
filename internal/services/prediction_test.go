package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/carbontrace/apiserver/internal/scoring"
	"github.com/carbontrace/apiserver/internal/store"
	"github.com/carbontrace/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePredictionRepo struct {
	created []types.Prediction
}

func (f *fakePredictionRepo) Create(ctx context.Context, prediction types.Prediction) (types.Prediction, error) {
	prediction.ID = len(f.created) + 1
	f.created = append(f.created, prediction)
	return prediction, nil
}

func (f *fakePredictionRepo) GetForOwner(ctx context.Context, id int, ownerID *int) (types.Prediction, error) {
	return types.Prediction{}, store.ErrNotFound
}

func (f *fakePredictionRepo) List(ctx context.Context, filter store.PredictionFilter, offset, limit int) ([]types.Prediction, error) {
	return f.created, nil
}

func (f *fakePredictionRepo) DeleteForOwner(ctx context.Context, id int, ownerID *int) error {
	return nil
}

func (f *fakePredictionRepo) ListModelMetadata(ctx context.Context, modelVersion string) ([]types.ModelMetadata, error) {
	return nil, nil
}

type fakeScorer struct {
	result scoring.Result
	err    error
	calls  int
}

func (f *fakeScorer) Score(ctx context.Context, inputData json.RawMessage, predictionType string) (scoring.Result, error) {
	f.calls++
	if f.err != nil {
		return scoring.Result{}, f.err
	}
	return f.result, nil
}

func TestPredictionRecordPersistsScoredResult(t *testing.T) {
	confidence := 0.92
	repo := &fakePredictionRepo{}
	scorer := &fakeScorer{result: scoring.Result{
		Prediction:   1234.5,
		Confidence:   &confidence,
		ModelVersion: "2.1.0",
	}}
	svc := NewPredictionService(repo, scorer, nil)

	prediction, err := svc.Record(context.Background(), 3, nil, json.RawMessage(`{ "monthly_kwh": 400 }`), types.PredictionScope2)
	require.NoError(t, err)

	assert.Equal(t, 3, prediction.UserID)
	assert.Equal(t, types.PredictionScope2, prediction.Type)
	assert.InDelta(t, 1234.5, prediction.Result, 1e-9)
	require.NotNil(t, prediction.Confidence)
	assert.InDelta(t, 0.92, *prediction.Confidence, 1e-9)
	assert.Equal(t, "2.1.0", prediction.ModelVersion)

	// Input is stored in a compact serialized form.
	require.Len(t, repo.created, 1)
	assert.JSONEq(t, `{"monthly_kwh":400}`, repo.created[0].InputData)
}

func TestPredictionRecordScorerFailurePersistsNothing(t *testing.T) {
	repo := &fakePredictionRepo{}
	scorer := &fakeScorer{err: scoring.ErrUnavailable}
	svc := NewPredictionService(repo, scorer, nil)

	_, err := svc.Record(context.Background(), 3, nil, json.RawMessage(`{"monthly_kwh":400}`), types.PredictionTotal)
	assert.ErrorIs(t, err, scoring.ErrUnavailable)
	assert.Empty(t, repo.created)
}

func TestPredictionRecordRejectsUnknownType(t *testing.T) {
	scorer := &fakeScorer{}
	svc := NewPredictionService(&fakePredictionRepo{}, scorer, nil)

	_, err := svc.Record(context.Background(), 3, nil, json.RawMessage(`{}`), "scope9")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, scorer.calls)
}

func TestPredictionRecordRejectsInvalidJSONBeforeScoring(t *testing.T) {
	scorer := &fakeScorer{}
	svc := NewPredictionService(&fakePredictionRepo{}, scorer, nil)

	_, err := svc.Record(context.Background(), 3, nil, json.RawMessage(`{broken`), types.PredictionScope1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, scorer.calls)
}
