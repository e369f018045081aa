package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FileKind string

const (
	FileKindRawUpload   FileKind = "raw_upload"
	FileKindManualInput FileKind = "manual_input"
)

// File is one stored blob belonging to a case. S3Key is its addressable
// identity and doubles as the extracted-text cache key.
type File struct {
	ID         string         `gorm:"type:char(36);primaryKey" json:"id"`
	TenantID   string         `gorm:"type:char(36);not null;index" json:"tenant_id"`
	CaseID     string         `gorm:"type:char(36);not null;index" json:"case_id"`
	Kind       FileKind       `gorm:"size:16;not null" json:"kind"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	S3Bucket   string         `gorm:"size:128;not null" json:"s3_bucket"`
	S3Key      string         `gorm:"size:512;not null;uniqueIndex" json:"s3_key"`
	UploadedAt time.Time      `gorm:"type:datetime(3);autoCreateTime" json:"uploaded_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (f *File) BeforeCreate(_ *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
