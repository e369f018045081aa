package app

import (
	"context"
	"strings"

	"claimintake/internal/model"
)

type TenantService struct {
	tenantRepo TenantStore
}

type CreateTenantInput struct {
	Name string
}

func NewTenantService(tenantRepo TenantStore) *TenantService {
	return &TenantService{tenantRepo: tenantRepo}
}

func (s *TenantService) Create(ctx context.Context, input CreateTenantInput) (*model.Tenant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 128 {
		return nil, ErrInvalidInput
	}
	tenant := &model.Tenant{Name: name}
	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *TenantService) List(ctx context.Context) ([]model.Tenant, error) {
	return s.tenantRepo.List(ctx)
}

func (s *TenantService) Get(ctx context.Context, id string) (*model.Tenant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidInput
	}
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}
	return tenant, nil
}
