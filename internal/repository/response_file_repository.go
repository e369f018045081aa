package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"claimintake/internal/model"
)

type ResponseFileRepository struct {
	db *gorm.DB
}

func NewResponseFileRepository(db *gorm.DB) *ResponseFileRepository {
	return &ResponseFileRepository{db: db}
}

// CreateBatch inserts links, ignoring pairs that already exist.
func (r *ResponseFileRepository) CreateBatch(ctx context.Context, links []model.ResponseFile) error {
	if len(links) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
		return fmt.Errorf("create response file links failed: %w", err)
	}
	return nil
}

// ListFilesByResponseID joins links to active files.
func (r *ResponseFileRepository) ListFilesByResponseID(ctx context.Context, responseID string) ([]model.File, error) {
	var files []model.File
	if err := r.db.WithContext(ctx).
		Joins("JOIN response_files ON response_files.file_id = files.id").
		Where("response_files.response_id = ?", responseID).
		Order("files.uploaded_at ASC").
		Find(&files).Error; err != nil {
		return nil, fmt.Errorf("list files by response failed: %w", err)
	}
	return files, nil
}
