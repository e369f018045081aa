package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"claimintake/internal/extract"
	"claimintake/internal/metrics"
	"claimintake/internal/model"
	"claimintake/internal/storage"
)

// CaseService covers everything about a case except running the model.
type CaseService struct {
	tenants    TenantStore
	cases      CaseStore
	files      FileStore
	responses  ResponseStore
	links      ResponseFileStore
	objects    ObjectStore
	cache      TextCache
	writer     *fileWriter
	presignTTL time.Duration
	logger     *zap.Logger
}

type CaseServiceDeps struct {
	Tenants    TenantStore
	Cases      CaseStore
	Files      FileStore
	Responses  ResponseStore
	Links      ResponseFileStore
	Objects    ObjectStore
	Cache      TextCache
	PresignTTL time.Duration
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

type CreateCaseInput struct {
	TenantID string
	CaseName string
}

// UpdateCaseInput patches only the fields that are set.
type UpdateCaseInput struct {
	TenantID string
	CaseID   string
	CaseName *string
	Status   *string
}

type UploadFilesInput struct {
	TenantID string
	CaseID   string
	Files    []extract.Document
}

type UploadResult struct {
	Files  []model.File `json:"files"`
	Failed int          `json:"failed"`
}

// FileView is a file with a time-limited download link.
type FileView struct {
	model.File
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

type CaseDetail struct {
	Case  *model.Case `json:"case"`
	Files []FileView  `json:"files"`
}

type ResponseView struct {
	model.Response
	URL string `json:"url,omitempty"`
}

type LatestResponse struct {
	Response *model.Response `json:"response"`
	Decision map[string]any  `json:"decision"`
}

func NewCaseService(deps CaseServiceDeps) *CaseService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("cases")
	ttl := deps.PresignTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CaseService{
		tenants:   deps.Tenants,
		cases:     deps.Cases,
		files:     deps.Files,
		responses: deps.Responses,
		links:     deps.Links,
		objects:   deps.Objects,
		cache:     deps.Cache,
		writer: &fileWriter{
			files:   deps.Files,
			objects: deps.Objects,
			metrics: deps.Metrics,
			logger:  logger,
		},
		presignTTL: ttl,
		logger:     logger,
	}
}

func (s *CaseService) CreateCase(ctx context.Context, input CreateCaseInput) (*model.Case, error) {
	tenantID := strings.TrimSpace(input.TenantID)
	if tenantID == "" {
		return nil, ErrInvalidInput
	}
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}

	name := strings.TrimSpace(input.CaseName)
	if name == "" {
		name = defaultCaseName
	}
	c := &model.Case{TenantID: tenantID, CaseName: name, Status: model.CaseStatusOpen}
	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CaseService) ListCases(ctx context.Context, tenantID string) ([]model.Case, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrInvalidInput
	}
	return s.cases.ListByTenantID(ctx, tenantID)
}

func (s *CaseService) GetCase(ctx context.Context, tenantID, caseID string) (*CaseDetail, error) {
	c, err := s.requireCase(ctx, tenantID, caseID)
	if err != nil {
		return nil, err
	}
	files, err := s.ListFiles(ctx, tenantID, caseID)
	if err != nil {
		return nil, err
	}
	return &CaseDetail{Case: c, Files: files}, nil
}

func (s *CaseService) UpdateCase(ctx context.Context, input UpdateCaseInput) (*model.Case, error) {
	patch := make(map[string]any, 2)
	if input.CaseName != nil {
		name := strings.TrimSpace(*input.CaseName)
		if name == "" {
			return nil, ErrInvalidInput
		}
		patch["case_name"] = name
	}
	if input.Status != nil {
		status := model.CaseStatus(strings.ToLower(strings.TrimSpace(*input.Status)))
		if !status.Valid() {
			return nil, ErrInvalidInput
		}
		patch["status"] = status
	}
	if len(patch) == 0 {
		return nil, ErrInvalidInput
	}

	if _, err := s.requireCase(ctx, input.TenantID, input.CaseID); err != nil {
		return nil, err
	}
	if err := s.cases.Update(ctx, input.CaseID, input.TenantID, patch); err != nil {
		return nil, err
	}
	return s.requireCase(ctx, input.TenantID, input.CaseID)
}

// DeleteCase soft-deletes the case and its files. Blobs stay in object storage.
func (s *CaseService) DeleteCase(ctx context.Context, tenantID, caseID string) error {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(caseID) == "" {
		return ErrInvalidInput
	}
	deleted, err := s.cases.SoftDelete(ctx, caseID, tenantID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrCaseNotFound
	}
	return nil
}

// ListFiles returns the active files of a case with signed download URLs. A
// signing failure leaves that file's URL empty.
func (s *CaseService) ListFiles(ctx context.Context, tenantID, caseID string) ([]FileView, error) {
	if _, err := s.requireCase(ctx, tenantID, caseID); err != nil {
		return nil, err
	}
	files, err := s.files.ListByCase(ctx, tenantID, caseID)
	if err != nil {
		return nil, err
	}
	return s.fileViews(ctx, files), nil
}

// UploadFiles stores documents on an existing case without running the model.
func (s *CaseService) UploadFiles(ctx context.Context, input UploadFilesInput) (*UploadResult, error) {
	if len(input.Files) == 0 {
		return nil, ErrInvalidInput
	}
	if _, err := s.requireCase(ctx, input.TenantID, input.CaseID); err != nil {
		return nil, err
	}
	rows, failed, err := s.writer.store(ctx, input.TenantID, input.CaseID, uploadsFrom(input.Files, ""))
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.File{}
	}
	return &UploadResult{Files: rows, Failed: failed}, nil
}

// DeleteFiles soft-deletes files of the tenant and drops their cached text.
func (s *CaseService) DeleteFiles(ctx context.Context, tenantID string, fileIDs []string) (int64, error) {
	ids := normalizeIDs(fileIDs)
	if strings.TrimSpace(tenantID) == "" || len(ids) == 0 {
		return 0, ErrInvalidInput
	}
	files, err := s.files.ListByIDs(ctx, tenantID, ids)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, ErrFileNotFound
	}

	affected, err := s.files.SoftDeleteByIDs(ctx, tenantID, ids)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		keys := make([]string, 0, len(files))
		for _, f := range files {
			keys = append(keys, f.S3Key)
		}
		if err := s.cache.Delete(ctx, keys...); err != nil {
			s.logger.Debug("drop cached text failed", zap.Error(err))
		}
	}
	return affected, nil
}

func (s *CaseService) ListResponses(ctx context.Context, tenantID, caseID string) ([]ResponseView, error) {
	if _, err := s.requireCase(ctx, tenantID, caseID); err != nil {
		return nil, err
	}
	list, err := s.responses.ListByCase(ctx, tenantID, caseID)
	if err != nil {
		return nil, err
	}
	views := make([]ResponseView, 0, len(list))
	for _, r := range list {
		views = append(views, ResponseView{Response: r, URL: s.sign(ctx, r.S3Key)})
	}
	return views, nil
}

// LatestResponse loads the body of the most recently created response.
func (s *CaseService) LatestResponse(ctx context.Context, tenantID, caseID string) (*LatestResponse, error) {
	if _, err := s.requireCase(ctx, tenantID, caseID); err != nil {
		return nil, err
	}
	resp, err := s.responses.GetLatestByCase(ctx, tenantID, caseID)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrResponseNotFound
	}

	body, err := s.objects.Get(ctx, resp.S3Key)
	if err != nil {
		return nil, err
	}
	var decision map[string]any
	if err := json.Unmarshal(body, &decision); err != nil {
		return nil, fmt.Errorf("decode response body failed: %w", err)
	}
	return &LatestResponse{Response: resp, Decision: decision}, nil
}

// ResponseFiles lists the files a response was based on.
func (s *CaseService) ResponseFiles(ctx context.Context, tenantID, responseID string) ([]FileView, error) {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(responseID) == "" {
		return nil, ErrInvalidInput
	}
	resp, err := s.responses.GetByIDAndTenantID(ctx, responseID, tenantID)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrResponseNotFound
	}
	files, err := s.links.ListFilesByResponseID(ctx, resp.ID)
	if err != nil {
		return nil, err
	}
	return s.fileViews(ctx, files), nil
}

func (s *CaseService) requireCase(ctx context.Context, tenantID, caseID string) (*model.Case, error) {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(caseID) == "" {
		return nil, ErrInvalidInput
	}
	c, err := s.cases.GetByIDAndTenantID(ctx, caseID, tenantID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCaseNotFound
	}
	return c, nil
}

func (s *CaseService) fileViews(ctx context.Context, files []model.File) []FileView {
	views := make([]FileView, 0, len(files))
	for _, f := range files {
		views = append(views, FileView{File: f, Type: storage.FileType(f.Name), URL: s.sign(ctx, f.S3Key)})
	}
	return views
}

func (s *CaseService) sign(ctx context.Context, key string) string {
	url, err := s.objects.SignURL(ctx, key, s.presignTTL)
	if err != nil {
		s.logger.Warn("sign url failed", zap.String("s3_key", key), zap.Error(err))
		return ""
	}
	return url
}
