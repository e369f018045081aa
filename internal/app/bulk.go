package app

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"claimintake/internal/platform/rabbitmq"
)

const DefaultBulkConcurrency = 5

// CaseProcessor is satisfied by Pipeline.
type CaseProcessor interface {
	ProcessFromHistory(ctx context.Context, tenantID, caseID string) (*ProcessResult, error)
}

// JobPublisher is satisfied by rabbitmq.CaseJobPublisher.
type JobPublisher interface {
	Publish(ctx context.Context, jobs ...rabbitmq.CaseJob) error
}

type BulkItem struct {
	CaseID string         `json:"case_id"`
	Result *ProcessResult `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	Err    error          `json:"-"`
}

// BulkProcessor bounds how many cases run at once. The bound is shared by
// synchronous bulk requests and queued jobs.
type BulkProcessor struct {
	processor CaseProcessor
	publisher JobPublisher
	limit     int
	sem       *semaphore.Weighted
	logger    *zap.Logger
}

func NewBulkProcessor(processor CaseProcessor, publisher JobPublisher, limit int, logger *zap.Logger) *BulkProcessor {
	if limit <= 0 {
		limit = DefaultBulkConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkProcessor{
		processor: processor,
		publisher: publisher,
		limit:     limit,
		sem:       semaphore.NewWeighted(int64(limit)),
		logger:    logger.Named("bulk"),
	}
}

func (b *BulkProcessor) Limit() int { return b.limit }

// Run processes every case from its history and returns one item per input
// id, in input order. A failing case never stops its siblings.
func (b *BulkProcessor) Run(ctx context.Context, tenantID string, caseIDs []string) ([]BulkItem, error) {
	ids := normalizeIDs(caseIDs)
	if strings.TrimSpace(tenantID) == "" || len(ids) == 0 {
		return nil, ErrInvalidInput
	}

	items := make([]BulkItem, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.limit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			items[i] = b.runOne(gctx, tenantID, id)
			return nil
		})
	}
	_ = g.Wait()
	return items, nil
}

// ProcessJob runs one queued job under the shared bound.
func (b *BulkProcessor) ProcessJob(ctx context.Context, job rabbitmq.CaseJob) BulkItem {
	return b.runOne(ctx, job.TenantID, job.CaseID)
}

func (b *BulkProcessor) runOne(ctx context.Context, tenantID, caseID string) BulkItem {
	item := BulkItem{CaseID: caseID}
	if err := b.sem.Acquire(ctx, 1); err != nil {
		item.Err, item.Error = err, err.Error()
		return item
	}
	defer b.sem.Release(1)

	res, err := b.processor.ProcessFromHistory(ctx, tenantID, caseID)
	if err != nil {
		b.logger.Warn("bulk case failed", zap.String("case_id", caseID), zap.Error(err))
		item.Err, item.Error = err, err.Error()
		return item
	}
	item.Result = res
	return item
}

// Enqueue publishes one job per case and returns the jobs.
func (b *BulkProcessor) Enqueue(ctx context.Context, tenantID string, caseIDs []string) ([]rabbitmq.CaseJob, error) {
	if b.publisher == nil {
		return nil, ErrQueueDisabled
	}
	ids := normalizeIDs(caseIDs)
	if strings.TrimSpace(tenantID) == "" || len(ids) == 0 {
		return nil, ErrInvalidInput
	}

	jobs := make([]rabbitmq.CaseJob, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, rabbitmq.CaseJob{JobID: uuid.NewString(), TenantID: tenantID, CaseID: id})
	}
	if err := b.publisher.Publish(ctx, jobs...); err != nil {
		return nil, err
	}
	return jobs, nil
}

// IsNotFound reports whether err means the tenant or case does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCaseNotFound) || errors.Is(err, ErrTenantNotFound)
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
