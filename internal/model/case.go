package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CaseStatus string

// Case status is caller-managed metadata; no transitions are enforced.
const (
	CaseStatusOpen       CaseStatus = "open"
	CaseStatusProcessing CaseStatus = "processing"
	CaseStatusClosed     CaseStatus = "closed"
	CaseStatusArchived   CaseStatus = "archived"
)

func (s CaseStatus) Valid() bool {
	switch s {
	case CaseStatusOpen, CaseStatusProcessing, CaseStatusClosed, CaseStatusArchived:
		return true
	}
	return false
}

type Case struct {
	ID        string         `gorm:"type:char(36);primaryKey" json:"id"`
	TenantID  string         `gorm:"type:char(36);not null;index" json:"tenant_id"`
	CaseName  string         `gorm:"size:256;not null" json:"case_name"`
	Status    CaseStatus     `gorm:"size:16;not null;default:open" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Case) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = CaseStatusOpen
	}
	return nil
}
