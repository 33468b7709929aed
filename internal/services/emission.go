package services

import (
	"context"
	"fmt"

	"github.com/carbontrace/apiserver/internal/events"
	"github.com/carbontrace/apiserver/types"
)

// EmissionRepository defines persistence operations for emission records.
type EmissionRepository interface {
	Create(ctx context.Context, record types.EmissionRecord) (types.EmissionRecord, error)
	GetForOwner(ctx context.Context, id int, ownerID *int) (types.EmissionRecord, error)
	ListForOwner(ctx context.Context, ownerID *int, offset, limit int) ([]types.EmissionRecord, error)
	DeleteForOwner(ctx context.Context, id int, ownerID *int) error
}

// EmissionService encapsulates emission record use-cases.
type EmissionService struct {
	repo      EmissionRepository
	publisher *events.Publisher
}

func NewEmissionService(repo EmissionRepository, publisher *events.Publisher) *EmissionService {
	return &EmissionService{repo: repo, publisher: publisher}
}

// Create validates and persists a record owned by ownerID, then emits an
// emissions.recorded event (best-effort, never fails the write).
func (s *EmissionService) Create(ctx context.Context, record types.EmissionRecord, ownerID int) (types.EmissionRecord, error) {
	if record.Amount < 0 {
		return types.EmissionRecord{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	if record.CO2PerUnit < 0 {
		return types.EmissionRecord{}, fmt.Errorf("%w: co2_per_unit must not be negative", ErrInvalidInput)
	}
	if record.OccurredAt.IsZero() {
		return types.EmissionRecord{}, fmt.Errorf("%w: occurred_at is required", ErrInvalidInput)
	}
	record.UserID = ownerID

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return types.EmissionRecord{}, err
	}

	s.publisher.Emit(ctx, events.KindEmissionRecorded, created)
	return created, nil
}

func (s *EmissionService) Get(ctx context.Context, id int, ownerID *int) (types.EmissionRecord, error) {
	return s.repo.GetForOwner(ctx, id, ownerID)
}

func (s *EmissionService) List(ctx context.Context, ownerID *int, offset, limit int) ([]types.EmissionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.ListForOwner(ctx, ownerID, offset, limit)
}

func (s *EmissionService) Delete(ctx context.Context, id int, ownerID *int) error {
	return s.repo.DeleteForOwner(ctx, id, ownerID)
}
