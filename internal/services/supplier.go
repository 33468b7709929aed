package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/carbontrace/apiserver/types"
)

// SupplierRepository defines persistence operations for suppliers.
type SupplierRepository interface {
	Get(ctx context.Context, id int) (types.Supplier, error)
	List(ctx context.Context, offset, limit int) ([]types.Supplier, int, error)
	Create(ctx context.Context, supplier types.Supplier) (types.Supplier, error)
	Delete(ctx context.Context, id int) error
}

// SupplierService encapsulates supplier use-cases.
type SupplierService struct {
	repo SupplierRepository
}

func NewSupplierService(repo SupplierRepository) *SupplierService {
	return &SupplierService{repo: repo}
}

func (s *SupplierService) Get(ctx context.Context, id int) (types.Supplier, error) {
	return s.repo.Get(ctx, id)
}

func (s *SupplierService) List(ctx context.Context, offset, limit int) ([]types.Supplier, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *SupplierService) Create(ctx context.Context, supplier types.Supplier) (types.Supplier, error) {
	if strings.TrimSpace(supplier.Name) == "" {
		return types.Supplier{}, fmt.Errorf("%w: supplier name is required", ErrInvalidInput)
	}
	return s.repo.Create(ctx, supplier)
}

func (s *SupplierService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
