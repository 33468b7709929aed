package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/carbontrace/apiserver/types"
)

// CompanyRepository defines persistence operations for companies.
type CompanyRepository interface {
	Get(ctx context.Context, id int) (types.Company, error)
	List(ctx context.Context, offset, limit int) ([]types.Company, int, error)
	Create(ctx context.Context, company types.Company) (types.Company, error)
	Update(ctx context.Context, company types.Company) (types.Company, error)
	Delete(ctx context.Context, id int) error
}

// CompanyService encapsulates company use-cases.
type CompanyService struct {
	repo CompanyRepository
}

func NewCompanyService(repo CompanyRepository) *CompanyService {
	return &CompanyService{repo: repo}
}

func (s *CompanyService) Get(ctx context.Context, id int) (types.Company, error) {
	return s.repo.Get(ctx, id)
}

func (s *CompanyService) List(ctx context.Context, offset, limit int) ([]types.Company, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *CompanyService) Create(ctx context.Context, company types.Company) (types.Company, error) {
	if strings.TrimSpace(company.Name) == "" {
		return types.Company{}, fmt.Errorf("%w: company name is required", ErrInvalidInput)
	}
	return s.repo.Create(ctx, company)
}

func (s *CompanyService) Update(ctx context.Context, company types.Company) (types.Company, error) {
	if strings.TrimSpace(company.Name) == "" {
		return types.Company{}, fmt.Errorf("%w: company name is required", ErrInvalidInput)
	}
	return s.repo.Update(ctx, company)
}

func (s *CompanyService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
