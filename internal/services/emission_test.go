package services

import (
	"context"
	"testing"
	"time"

	"github.com/carbontrace/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmissionRepo struct {
	created []types.EmissionRecord
}

func (f *fakeEmissionRepo) Create(ctx context.Context, record types.EmissionRecord) (types.EmissionRecord, error) {
	record.ID = len(f.created) + 1
	f.created = append(f.created, record)
	return record, nil
}

func (f *fakeEmissionRepo) GetForOwner(ctx context.Context, id int, ownerID *int) (types.EmissionRecord, error) {
	return types.EmissionRecord{}, nil
}

func (f *fakeEmissionRepo) ListForOwner(ctx context.Context, ownerID *int, offset, limit int) ([]types.EmissionRecord, error) {
	return f.created, nil
}

func (f *fakeEmissionRepo) DeleteForOwner(ctx context.Context, id int, ownerID *int) error {
	return nil
}

func TestEmissionCreateStampsOwner(t *testing.T) {
	repo := &fakeEmissionRepo{}
	svc := NewEmissionService(repo, nil)

	created, err := svc.Create(context.Background(), types.EmissionRecord{
		Category:   "electricity",
		Amount:     10,
		CO2PerUnit: 0.5,
		OccurredAt: day(2024, time.January, 1),
	}, 42)
	require.NoError(t, err)

	assert.Equal(t, 42, created.UserID)
	assert.InDelta(t, 5.0, created.CO2e(), 1e-9)
}

func TestEmissionCreateValidation(t *testing.T) {
	svc := NewEmissionService(&fakeEmissionRepo{}, nil)

	_, err := svc.Create(context.Background(), types.EmissionRecord{
		Amount:     -1,
		CO2PerUnit: 0.5,
		OccurredAt: day(2024, time.January, 1),
	}, 42)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), types.EmissionRecord{
		Amount:     1,
		CO2PerUnit: -0.5,
		OccurredAt: day(2024, time.January, 1),
	}, 42)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), types.EmissionRecord{
		Amount:     1,
		CO2PerUnit: 0.5,
	}, 42)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
