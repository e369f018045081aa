package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResponseStatus string

// Rows are written once the model run has finished, so a stored response is
// always in a terminal state.
const (
	ResponseStatusSucceeded ResponseStatus = "succeeded"
	ResponseStatusFailed    ResponseStatus = "failed"
)

// Response is one model run against a case. The decision body lives in
// object storage under S3Key.
type Response struct {
	ID          string         `gorm:"type:char(36);primaryKey" json:"id"`
	TenantID    string         `gorm:"type:char(36);not null;index" json:"tenant_id"`
	CaseID      string         `gorm:"type:char(36);not null;index" json:"case_id"`
	S3Key       string         `gorm:"size:512;not null" json:"s3_key"`
	Status      ResponseStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Response) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ResponseFile records which files were the evidentiary basis of a response.
type ResponseFile struct {
	ResponseID string    `gorm:"type:char(36);primaryKey" json:"response_id"`
	FileID     string    `gorm:"type:char(36);primaryKey" json:"file_id"`
	CreatedAt  time.Time `json:"created_at"`
}
