package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"claimintake/internal/model"
)

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) CreateBatch(ctx context.Context, files []model.File) error {
	if len(files) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&files).Error; err != nil {
		return fmt.Errorf("create files batch failed: %w", err)
	}
	return nil
}

// uploadOrder sorts files in upload order. id breaks ties between rows that
// share a timestamp.
func uploadOrder(db *gorm.DB) *gorm.DB {
	return db.Order("uploaded_at ASC").Order("id ASC")
}

// ListByCase returns active files of a case in upload order.
func (r *FileRepository) ListByCase(ctx context.Context, tenantID, caseID string) ([]model.File, error) {
	var files []model.File
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND case_id = ?", tenantID, caseID).
		Scopes(uploadOrder).
		Find(&files).Error; err != nil {
		return nil, fmt.Errorf("list files by case failed: %w", err)
	}
	return files, nil
}

func (r *FileRepository) ListByIDs(ctx context.Context, tenantID string, ids []string) ([]model.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var files []model.File
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id IN ?", tenantID, ids).Find(&files).Error; err != nil {
		return nil, fmt.Errorf("list files by ids failed: %w", err)
	}
	return files, nil
}

func (r *FileRepository) SoftDeleteByIDs(ctx context.Context, tenantID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("tenant_id = ? AND id IN ?", tenantID, ids).Delete(&model.File{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete files failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}
