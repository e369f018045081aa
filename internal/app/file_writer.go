package app

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"claimintake/internal/extract"
	"claimintake/internal/metrics"
	"claimintake/internal/model"
	"claimintake/internal/storage"
)

const (
	manualInputName    = "manual_input.txt"
	defaultContentType = "application/octet-stream"

	// uploadStep separates rows of one batch; uploaded_at is stored with
	// millisecond precision.
	uploadStep = time.Millisecond
)

// upload is a blob waiting to become a File row.
type upload struct {
	Name    string
	Kind    model.FileKind
	Content []byte
}

// fileWriter stores blobs under collision-resolved names and records them in
// one batch insert.
type fileWriter struct {
	files   FileStore
	objects ObjectStore
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// store uploads every blob, isolating per-file failures, then inserts the rows
// that made it. err is set only when the batch insert fails; in that case the
// uploaded blobs are removed again and no rows are returned.
func (w *fileWriter) store(ctx context.Context, tenantID, caseID string, uploads []upload) (rows []model.File, failed int, err error) {
	if len(uploads) == 0 {
		return nil, 0, nil
	}

	taken := make(map[string]struct{})
	existing, listErr := w.files.ListByCase(ctx, tenantID, caseID)
	if listErr != nil {
		w.logger.Warn("list case files for name resolution failed",
			zap.String("case_id", caseID),
			zap.Error(listErr),
		)
	}
	for _, f := range existing {
		taken[f.Name] = struct{}{}
	}

	// Stamp rows in upload order so a later listing replays them the same way.
	stamp := w.clock().UTC().Truncate(uploadStep)

	rows = make([]model.File, 0, len(uploads))
	for _, u := range uploads {
		name := resolveName(u.Name, taken)
		key := storage.UploadKey(tenantID, caseID, name)
		if putErr := w.objects.Put(ctx, key, u.Content, contentType(name)); putErr != nil {
			failed++
			w.metrics.RecordPersistFailure("file_persist")
			w.logger.Error("store file failed",
				zap.String("stage", "file_persist"),
				zap.String("case_id", caseID),
				zap.String("filename", name),
				zap.Error(putErr),
			)
			continue
		}
		taken[name] = struct{}{}
		rows = append(rows, model.File{
			TenantID:   tenantID,
			CaseID:     caseID,
			Kind:       u.Kind,
			Name:       name,
			S3Bucket:   w.objects.Bucket(),
			S3Key:      key,
			UploadedAt: stamp,
		})
		stamp = stamp.Add(uploadStep)
	}
	if len(rows) == 0 {
		return nil, failed, nil
	}

	if err := w.files.CreateBatch(ctx, rows); err != nil {
		w.metrics.RecordPersistFailure("file_persist")
		w.logger.Error("insert file rows failed",
			zap.String("stage", "file_persist"),
			zap.String("case_id", caseID),
			zap.Int("count", len(rows)),
			zap.Error(err),
		)
		for _, row := range rows {
			if delErr := w.objects.Delete(ctx, row.S3Key); delErr != nil {
				w.logger.Warn("remove orphaned blob failed", zap.String("s3_key", row.S3Key), zap.Error(delErr))
			}
		}
		return nil, failed + len(rows), fmt.Errorf("insert file rows failed: %w", err)
	}
	for _, row := range rows {
		if row.ID == "" {
			return nil, failed + len(rows), fmt.Errorf("insert file rows failed: missing id for %s", row.Name)
		}
	}
	return rows, failed, nil
}

func (w *fileWriter) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now()
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return defaultContentType
}

func uploadsFrom(docs []extract.Document, manualInput string) []upload {
	out := make([]upload, 0, len(docs)+1)
	for _, d := range docs {
		out = append(out, upload{Name: d.Filename, Kind: model.FileKindRawUpload, Content: d.Content})
	}
	if manualInput != "" {
		out = append(out, upload{Name: manualInputName, Kind: model.FileKindManualInput, Content: []byte(manualInput)})
	}
	return out
}
