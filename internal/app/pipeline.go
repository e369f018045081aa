package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"claimintake/internal/ai"
	"claimintake/internal/extract"
	"claimintake/internal/metrics"
	"claimintake/internal/model"
	"claimintake/internal/storage"
)

const (
	OperationProcessNew         = "process_new"
	OperationProcessFromHistory = "process_from_history"

	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"

	defaultCaseName   = "Untitled case"
	cacheWriteTimeout = 5 * time.Second
)

// ProcessResult is what a pipeline run hands back to its caller. Model and
// storage failures are reported here; the accompanying error is reserved for
// input and authorization problems.
type ProcessResult struct {
	CaseID            string         `json:"case_id"`
	Status            string         `json:"status"`
	Decision          map[string]any `json:"decision"`
	Attempts          int            `json:"attempts"`
	Error             string         `json:"error,omitempty"`
	ResponseID        string         `json:"response_id,omitempty"`
	ResponsePersisted bool           `json:"response_persisted"`
	FilesPersisted    int            `json:"files_persisted"`
	FilesFailed       int            `json:"files_failed"`
	LinksCreated      int            `json:"links_created"`
	PersistenceErrors []string       `json:"persistence_errors,omitempty"`
}

type ProcessNewInput struct {
	TenantID    string
	CaseID      string
	CaseName    string
	ManualInput string
	// Files hold upload bytes read once by the transport layer.
	Files []extract.Document
}

type PipelineDeps struct {
	Tenants   TenantStore
	Cases     CaseStore
	Files     FileStore
	Responses ResponseStore
	Links     ResponseFileStore
	Objects   ObjectStore
	Cache     TextCache
	Analyzer  ClaimAnalyzer
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Pipeline turns case documents into a persisted model decision.
type Pipeline struct {
	tenants   TenantStore
	cases     CaseStore
	files     FileStore
	responses ResponseStore
	links     ResponseFileStore
	objects   ObjectStore
	cache     TextCache
	analyzer  ClaimAnalyzer
	writer    *fileWriter
	metrics   *metrics.Metrics
	logger    *zap.Logger

	// background cache writes
	bg sync.WaitGroup
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("pipeline")
	return &Pipeline{
		tenants:   deps.Tenants,
		cases:     deps.Cases,
		files:     deps.Files,
		responses: deps.Responses,
		links:     deps.Links,
		objects:   deps.Objects,
		cache:     deps.Cache,
		analyzer:  deps.Analyzer,
		writer: &fileWriter{
			files:   deps.Files,
			objects: deps.Objects,
			metrics: deps.Metrics,
			logger:  logger,
		},
		metrics: deps.Metrics,
		logger:  logger,
	}
}

// ProcessNew analyzes freshly uploaded documents. When input.CaseID is empty
// a case is created first.
func (p *Pipeline) ProcessNew(ctx context.Context, input ProcessNewInput) (res *ProcessResult, err error) {
	start := time.Now()
	tenantID := strings.TrimSpace(input.TenantID)
	if tenantID == "" {
		return nil, ErrInvalidInput
	}

	c, err := p.resolveCase(ctx, tenantID, strings.TrimSpace(input.CaseID), input.CaseName)
	if err != nil {
		return nil, err
	}

	res = &ProcessResult{CaseID: c.ID}
	defer p.finish(OperationProcessNew, start, res)
	defer p.recoverInto(res, OperationProcessNew)

	details := extract.Join(input.Files) + input.ManualInput
	outcome := p.analyzer.Analyze(ctx, details)
	applyOutcome(res, outcome)

	responseID := p.persistResponse(ctx, tenantID, c.ID, outcome, res)

	rows, failed, storeErr := p.writer.store(ctx, tenantID, c.ID, uploadsFrom(input.Files, input.ManualInput))
	res.FilesFailed = failed
	res.FilesPersisted = len(rows)
	if storeErr != nil {
		res.PersistenceErrors = append(res.PersistenceErrors, storeErr.Error())
	}

	if responseID != "" {
		p.link(ctx, responseID, rows, res)
	}
	return res, nil
}

func (p *Pipeline) resolveCase(ctx context.Context, tenantID, caseID, caseName string) (*model.Case, error) {
	tenant, err := p.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}

	if caseID != "" {
		c, err := p.cases.GetByIDAndTenantID(ctx, caseID, tenantID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, ErrCaseNotFound
		}
		return c, nil
	}

	name := strings.TrimSpace(caseName)
	if name == "" {
		name = defaultCaseName
	}
	c := &model.Case{TenantID: tenantID, CaseName: name, Status: model.CaseStatusOpen}
	if err := p.cases.Create(ctx, c); err != nil {
		return nil, err
	}
	if c.ID == "" {
		return nil, fmt.Errorf("create case failed: no id returned")
	}
	return c, nil
}

// persistResponse writes the decision body, then its row. It returns the new
// response id, or "" when either write failed.
func (p *Pipeline) persistResponse(ctx context.Context, tenantID, caseID string, outcome ai.Outcome, res *ProcessResult) string {
	status := model.ResponseStatusSucceeded
	if !outcome.Succeeded() {
		status = model.ResponseStatusFailed
	}

	key := storage.ResponseKey(tenantID, caseID)
	body, err := json.Marshal(res.Decision)
	if err == nil {
		err = p.objects.Put(ctx, key, body, "application/json")
	}
	if err == nil {
		now := time.Now().UTC()
		row := &model.Response{
			TenantID:    tenantID,
			CaseID:      caseID,
			S3Key:       key,
			Status:      status,
			CompletedAt: &now,
		}
		err = p.responses.Create(ctx, row)
		if err == nil && row.ID == "" {
			err = fmt.Errorf("create response failed: no id returned")
		}
		if err == nil {
			res.ResponseID = row.ID
			res.ResponsePersisted = true
			return row.ID
		}
	}

	p.metrics.RecordPersistFailure("response_persist")
	p.logger.Error("persist response failed",
		zap.String("stage", "response_persist"),
		zap.String("case_id", caseID),
		zap.Error(err),
	)
	res.PersistenceErrors = append(res.PersistenceErrors, "response: "+err.Error())
	return ""
}

func (p *Pipeline) link(ctx context.Context, responseID string, files []model.File, res *ProcessResult) {
	if len(files) == 0 {
		return
	}
	links := make([]model.ResponseFile, 0, len(files))
	for _, f := range files {
		links = append(links, model.ResponseFile{ResponseID: responseID, FileID: f.ID})
	}
	if err := p.links.CreateBatch(ctx, links); err != nil {
		p.metrics.RecordPersistFailure("link_persist")
		p.logger.Error("link files to response failed",
			zap.String("stage", "link_persist"),
			zap.String("response_id", responseID),
			zap.Error(err),
		)
		res.PersistenceErrors = append(res.PersistenceErrors, "links: "+err.Error())
		return
	}
	res.LinksCreated = len(links)
}

func applyOutcome(res *ProcessResult, outcome ai.Outcome) {
	res.Attempts = outcome.Attempts
	if outcome.Succeeded() {
		res.Status = ResultSucceeded
		res.Decision = outcome.Decision
		return
	}
	res.Status = ResultFailed
	res.Decision = outcome.ErrorPayload()
	res.Error = outcome.Reason
}

// recoverInto turns a panic during a run into a failed result.
func (p *Pipeline) recoverInto(res *ProcessResult, operation string) {
	r := recover()
	if r == nil {
		return
	}
	p.logger.Error("pipeline panic",
		zap.String("operation", operation),
		zap.String("case_id", res.CaseID),
		zap.Any("panic", r),
	)
	res.Status = ResultFailed
	res.Error = fmt.Sprintf("unexpected failure: %v", r)
	if res.Decision == nil {
		res.Decision = map[string]any{"error": res.Error}
	}
}

func (p *Pipeline) finish(operation string, start time.Time, res *ProcessResult) {
	status := res.Status
	if status == "" {
		status = ResultFailed
	}
	p.metrics.RecordPipelineRun(operation, status, time.Since(start))
	p.logger.Info("pipeline run finished",
		zap.String("operation", operation),
		zap.String("case_id", res.CaseID),
		zap.String("status", status),
		zap.Int("attempts", res.Attempts),
		zap.Bool("response_persisted", res.ResponsePersisted),
		zap.Int("files_persisted", res.FilesPersisted),
		zap.Int("links_created", res.LinksCreated),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// Wait blocks until background cache writes have finished.
func (p *Pipeline) Wait() {
	p.bg.Wait()
}
