package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/carbontrace/apiserver/types"
)

// MaterialRepository defines persistence operations for the material
// catalog.
type MaterialRepository interface {
	Get(ctx context.Context, id int) (types.Material, error)
	List(ctx context.Context, offset, limit int) ([]types.Material, int, error)
	Create(ctx context.Context, material types.Material) (types.Material, error)
	Delete(ctx context.Context, id int) error
}

// MaterialService encapsulates material catalog use-cases.
type MaterialService struct {
	repo MaterialRepository
}

func NewMaterialService(repo MaterialRepository) *MaterialService {
	return &MaterialService{repo: repo}
}

func (s *MaterialService) Get(ctx context.Context, id int) (types.Material, error) {
	return s.repo.Get(ctx, id)
}

func (s *MaterialService) List(ctx context.Context, offset, limit int) ([]types.Material, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *MaterialService) Create(ctx context.Context, material types.Material) (types.Material, error) {
	if strings.TrimSpace(material.Name) == "" {
		return types.Material{}, fmt.Errorf("%w: material name is required", ErrInvalidInput)
	}
	if material.EmissionFactor < 0 {
		return types.Material{}, fmt.Errorf("%w: emission factor must not be negative", ErrInvalidInput)
	}
	return s.repo.Create(ctx, material)
}

func (s *MaterialService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
