package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"claimintake/internal/model"
)

// CaseRepository reads and writes cases. Soft-deleted rows are filtered by
// gorm through model.Case.DeletedAt.
type CaseRepository struct {
	db *gorm.DB
}

func NewCaseRepository(db *gorm.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

func (r *CaseRepository) Create(ctx context.Context, c *model.Case) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create case failed: %w", err)
	}
	return nil
}

func (r *CaseRepository) ListByTenantID(ctx context.Context, tenantID string) ([]model.Case, error) {
	var list []model.Case
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list cases failed: %w", err)
	}
	return list, nil
}

func (r *CaseRepository) GetByIDAndTenantID(ctx context.Context, id, tenantID string) (*model.Case, error) {
	var c model.Case
	if err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get case failed: %w", err)
	}
	return &c, nil
}

func (r *CaseRepository) Update(ctx context.Context, id, tenantID string, patch map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Case{}).Where("id = ? AND tenant_id = ?", id, tenantID).Updates(patch)
	if res.Error != nil {
		return fmt.Errorf("update case failed: %w", res.Error)
	}
	return nil
}

// SoftDelete marks the case and its files deleted in one transaction.
func (r *CaseRepository) SoftDelete(ctx context.Context, id, tenantID string) (bool, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Case{})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Where("case_id = ? AND tenant_id = ?", id, tenantID).Delete(&model.File{}).Error
	})
	if err != nil {
		return false, fmt.Errorf("delete case failed: %w", err)
	}
	return affected > 0, nil
}
