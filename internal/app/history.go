package app

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"claimintake/internal/ai"
	"claimintake/internal/extract"
	"claimintake/internal/model"
)

// ProcessFromHistory re-runs the model over the files already stored for a
// case and links every one of them to the new response.
func (p *Pipeline) ProcessFromHistory(ctx context.Context, tenantID, caseID string) (res *ProcessResult, err error) {
	start := time.Now()
	tenantID = strings.TrimSpace(tenantID)
	caseID = strings.TrimSpace(caseID)
	if tenantID == "" || caseID == "" {
		return nil, ErrInvalidInput
	}

	c, err := p.cases.GetByIDAndTenantID(ctx, caseID, tenantID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCaseNotFound
	}

	res = &ProcessResult{CaseID: c.ID}
	defer p.finish(OperationProcessFromHistory, start, res)
	defer p.recoverInto(res, OperationProcessFromHistory)

	files, listErr := p.files.ListByCase(ctx, tenantID, caseID)
	if listErr != nil {
		p.logger.Error("load case files failed", zap.String("case_id", caseID), zap.Error(listErr))
		res.Status = ResultFailed
		res.Error = listErr.Error()
		res.Decision = map[string]any{"error": "could not load case files: " + listErr.Error()}
		return res, nil
	}
	if len(files) == 0 {
		res.Status = ResultSucceeded
		res.Decision = ai.NoFilesDecision()
		return res, nil
	}

	var manual, extracted strings.Builder
	for _, f := range files {
		switch f.Kind {
		case model.FileKindManualInput:
			manual.WriteString(p.manualText(ctx, f))
		default:
			extracted.WriteString(p.cachedText(ctx, f))
		}
	}

	outcome := p.analyzer.Analyze(ctx, manual.String()+extracted.String())
	applyOutcome(res, outcome)

	responseID := p.persistResponse(ctx, tenantID, caseID, outcome, res)
	if responseID != "" {
		p.link(ctx, responseID, files, res)
	}
	return res, nil
}

// manualText reads a manual_input blob directly. It is small, so it is never cached.
func (p *Pipeline) manualText(ctx context.Context, f model.File) string {
	content, err := p.objects.Get(ctx, f.S3Key)
	if err != nil {
		p.logger.Warn("load manual input failed", zap.String("s3_key", f.S3Key), zap.Error(err))
		return ""
	}
	text, ok := extract.PlainText(content)
	if !ok {
		return ""
	}
	return text
}

// cachedText returns the extracted text of a stored upload, consulting the
// cache first. Only non-empty extractions are written back, so a failed
// parse is retried on the next run.
func (p *Pipeline) cachedText(ctx context.Context, f model.File) string {
	if p.cache != nil {
		text, ok, err := p.cache.Get(ctx, f.S3Key)
		switch {
		case err != nil:
			p.metrics.RecordCacheLookup("error")
			p.logger.Debug("text cache unavailable", zap.String("s3_key", f.S3Key), zap.Error(err))
		case ok:
			p.metrics.RecordCacheLookup("hit")
			return text
		default:
			p.metrics.RecordCacheLookup("miss")
		}
	}

	content, err := p.objects.Get(ctx, f.S3Key)
	if err != nil {
		p.logger.Warn("download file failed", zap.String("s3_key", f.S3Key), zap.Error(err))
		return ""
	}
	text, ok := extract.Text(f.Name, content)
	if !ok || text == "" {
		return text
	}
	p.writeCacheAsync(ctx, f.S3Key, text)
	return text
}

func (p *Pipeline) writeCacheAsync(ctx context.Context, key, text string) {
	if p.cache == nil {
		return
	}
	p.bg.Add(1)
	go func() {
		defer p.bg.Done()
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
		defer cancel()
		if err := p.cache.Set(writeCtx, key, text); err != nil {
			p.logger.Debug("text cache write failed", zap.String("s3_key", key), zap.Error(err))
		}
	}()
}
