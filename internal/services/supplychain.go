package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/carbontrace/apiserver/types"
)

// SupplyChainRepository defines persistence operations for supply chain
// entries in both shapes.
type SupplyChainRepository interface {
	CreateLinked(ctx context.Context, sc types.SupplyChain) (types.SupplyChain, error)
	CreateComposed(ctx context.Context, sc types.SupplyChain) (types.SupplyChain, error)
	GetForOwner(ctx context.Context, id int, ownerID *int) (types.SupplyChain, error)
	ListForOwner(ctx context.Context, ownerID *int, offset, limit int) ([]types.SupplyChain, error)
	DeleteForOwner(ctx context.Context, id int, ownerID *int) error
}

// SupplyChainService encapsulates supply chain use-cases. The variant is
// never guessed from context: it is derived from which field group the
// caller populated, and mixing groups is rejected.
type SupplyChainService struct {
	repo SupplyChainRepository
}

func NewSupplyChainService(repo SupplyChainRepository) *SupplyChainService {
	return &SupplyChainService{repo: repo}
}

// Create picks the variant from the populated fields and dispatches.
// Composed entries are stamped with the calling owner.
func (s *SupplyChainService) Create(ctx context.Context, sc types.SupplyChain, ownerID int) (types.SupplyChain, error) {
	linked := sc.CompanyID != nil || sc.SupplierID != nil || sc.MaterialID != nil || sc.Tier != nil || sc.Quantity != nil
	composed := strings.TrimSpace(sc.SupplierName) != "" || len(sc.Materials) > 0

	switch {
	case linked && composed:
		return types.SupplyChain{}, fmt.Errorf("%w: cannot mix linked and composed supply chain fields", ErrInvalidInput)
	case linked:
		if sc.CompanyID == nil || sc.SupplierID == nil || sc.MaterialID == nil {
			return types.SupplyChain{}, fmt.Errorf("%w: linked supply chain requires company, supplier and material", ErrInvalidInput)
		}
		return s.repo.CreateLinked(ctx, sc)
	case composed:
		if strings.TrimSpace(sc.SupplierName) == "" {
			return types.SupplyChain{}, fmt.Errorf("%w: supplier name is required", ErrInvalidInput)
		}
		sc.UserID = &ownerID
		return s.repo.CreateComposed(ctx, sc)
	default:
		return types.SupplyChain{}, fmt.Errorf("%w: no supply chain fields provided", ErrInvalidInput)
	}
}

func (s *SupplyChainService) Get(ctx context.Context, id int, ownerID *int) (types.SupplyChain, error) {
	return s.repo.GetForOwner(ctx, id, ownerID)
}

func (s *SupplyChainService) List(ctx context.Context, ownerID *int, offset, limit int) ([]types.SupplyChain, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.ListForOwner(ctx, ownerID, offset, limit)
}

func (s *SupplyChainService) Delete(ctx context.Context, id int, ownerID *int) error {
	return s.repo.DeleteForOwner(ctx, id, ownerID)
}
