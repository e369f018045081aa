package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"claimintake/internal/model"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		return fmt.Errorf("create tenant failed: %w", err)
	}
	return nil
}

func (r *TenantRepository) List(ctx context.Context) ([]model.Tenant, error) {
	var list []model.Tenant
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list tenants failed: %w", err)
	}
	return list, nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant failed: %w", err)
	}
	return &tenant, nil
}
