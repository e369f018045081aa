package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"claimintake/internal/app"
	"claimintake/internal/model"
	"claimintake/internal/platform/rabbitmq"
	"claimintake/internal/transport/http/response"
)

// The handler dependencies are satisfied by the services in internal/app.

type TenantService interface {
	Create(ctx context.Context, input app.CreateTenantInput) (*model.Tenant, error)
	List(ctx context.Context) ([]model.Tenant, error)
	Get(ctx context.Context, id string) (*model.Tenant, error)
}

type CaseService interface {
	CreateCase(ctx context.Context, input app.CreateCaseInput) (*model.Case, error)
	ListCases(ctx context.Context, tenantID string) ([]model.Case, error)
	GetCase(ctx context.Context, tenantID, caseID string) (*app.CaseDetail, error)
	UpdateCase(ctx context.Context, input app.UpdateCaseInput) (*model.Case, error)
	DeleteCase(ctx context.Context, tenantID, caseID string) error
	ListFiles(ctx context.Context, tenantID, caseID string) ([]app.FileView, error)
	UploadFiles(ctx context.Context, input app.UploadFilesInput) (*app.UploadResult, error)
	DeleteFiles(ctx context.Context, tenantID string, fileIDs []string) (int64, error)
	ListResponses(ctx context.Context, tenantID, caseID string) ([]app.ResponseView, error)
	LatestResponse(ctx context.Context, tenantID, caseID string) (*app.LatestResponse, error)
	ResponseFiles(ctx context.Context, tenantID, responseID string) ([]app.FileView, error)
}

type Processor interface {
	ProcessNew(ctx context.Context, input app.ProcessNewInput) (*app.ProcessResult, error)
	ProcessFromHistory(ctx context.Context, tenantID, caseID string) (*app.ProcessResult, error)
}

type BulkRunner interface {
	Run(ctx context.Context, tenantID string, caseIDs []string) ([]app.BulkItem, error)
	Enqueue(ctx context.Context, tenantID string, caseIDs []string) ([]rabbitmq.CaseJob, error)
}

// writeError maps service errors onto the response envelope.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrTenantNotFound):
		response.Error(c, http.StatusNotFound, response.CodeTenantNotFound, err.Error())
	case errors.Is(err, app.ErrCaseNotFound):
		response.Error(c, http.StatusNotFound, response.CodeCaseNotFound, err.Error())
	case errors.Is(err, app.ErrFileNotFound):
		response.Error(c, http.StatusNotFound, response.CodeFileNotFound, err.Error())
	case errors.Is(err, app.ErrResponseNotFound):
		response.Error(c, http.StatusNotFound, response.CodeResponseNotFound, err.Error())
	case errors.Is(err, app.ErrQueueDisabled):
		response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
