package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"claimintake/internal/model"
)

type ResponseRepository struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

func (r *ResponseRepository) Create(ctx context.Context, resp *model.Response) error {
	if err := r.db.WithContext(ctx).Create(resp).Error; err != nil {
		return fmt.Errorf("create response failed: %w", err)
	}
	return nil
}

func (r *ResponseRepository) ListByCase(ctx context.Context, tenantID, caseID string) ([]model.Response, error) {
	var list []model.Response
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND case_id = ?", tenantID, caseID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list responses failed: %w", err)
	}
	return list, nil
}

func (r *ResponseRepository) GetLatestByCase(ctx context.Context, tenantID, caseID string) (*model.Response, error) {
	var resp model.Response
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND case_id = ?", tenantID, caseID).
		Order("created_at DESC").
		First(&resp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest response failed: %w", err)
	}
	return &resp, nil
}

func (r *ResponseRepository) GetByIDAndTenantID(ctx context.Context, id, tenantID string) (*model.Response, error) {
	var resp model.Response
	if err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&resp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get response failed: %w", err)
	}
	return &resp, nil
}
