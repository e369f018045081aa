package app

import (
	"context"
	"time"

	"claimintake/internal/ai"
	"claimintake/internal/model"
)

// The store interfaces are satisfied by the gorm repositories. Getters return
// nil, nil when the row does not exist.

type TenantStore interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	List(ctx context.Context) ([]model.Tenant, error)
	GetByID(ctx context.Context, id string) (*model.Tenant, error)
}

type CaseStore interface {
	Create(ctx context.Context, c *model.Case) error
	ListByTenantID(ctx context.Context, tenantID string) ([]model.Case, error)
	GetByIDAndTenantID(ctx context.Context, id, tenantID string) (*model.Case, error)
	Update(ctx context.Context, id, tenantID string, patch map[string]any) error
	SoftDelete(ctx context.Context, id, tenantID string) (bool, error)
}

type FileStore interface {
	CreateBatch(ctx context.Context, files []model.File) error
	ListByCase(ctx context.Context, tenantID, caseID string) ([]model.File, error)
	ListByIDs(ctx context.Context, tenantID string, ids []string) ([]model.File, error)
	SoftDeleteByIDs(ctx context.Context, tenantID string, ids []string) (int64, error)
}

type ResponseStore interface {
	Create(ctx context.Context, resp *model.Response) error
	ListByCase(ctx context.Context, tenantID, caseID string) ([]model.Response, error)
	GetLatestByCase(ctx context.Context, tenantID, caseID string) (*model.Response, error)
	GetByIDAndTenantID(ctx context.Context, id, tenantID string) (*model.Response, error)
}

type ResponseFileStore interface {
	CreateBatch(ctx context.Context, links []model.ResponseFile) error
	ListFilesByResponseID(ctx context.Context, responseID string) ([]model.File, error)
}

// ObjectStore is satisfied by storage.S3Store.
type ObjectStore interface {
	Bucket() string
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	SignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// TextCache is satisfied by cache.TextCache. Get reports a miss with
// ok == false and a nil error.
type TextCache interface {
	Get(ctx context.Context, objectKey string) (string, bool, error)
	Set(ctx context.Context, objectKey, text string) error
	Delete(ctx context.Context, objectKeys ...string) error
}

// ClaimAnalyzer is satisfied by ai.Analyzer.
type ClaimAnalyzer interface {
	Analyze(ctx context.Context, details string) ai.Outcome
}
