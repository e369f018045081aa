package app

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimintake/internal/extract"
	"claimintake/internal/model"
	"claimintake/internal/storage"
)

func TestTenantService(t *testing.T) {
	svc := NewTenantService(tenantStore{newMemDB()})
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateTenantInput{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	tenant, err := svc.Create(ctx, CreateTenantInput{Name: " Northwind Insurance "})
	require.NoError(t, err)
	assert.Equal(t, "Northwind Insurance", tenant.Name)
	assert.NotEmpty(t, tenant.ID)

	got, err := svc.Get(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.Name, got.Name)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrTenantNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCaseLifecycle(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	c, err := h.cases.CreateCase(ctx, CreateCaseInput{TenantID: h.tenant.ID})
	require.NoError(t, err)
	assert.Equal(t, defaultCaseName, c.CaseName)
	assert.Equal(t, model.CaseStatusOpen, c.Status)

	_, err = h.cases.CreateCase(ctx, CreateCaseInput{TenantID: "ghost", CaseName: "x"})
	assert.ErrorIs(t, err, ErrTenantNotFound)

	name, status := "Hail storm 2026", "processing"
	updated, err := h.cases.UpdateCase(ctx, UpdateCaseInput{TenantID: h.tenant.ID, CaseID: c.ID, CaseName: &name, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, name, updated.CaseName)
	assert.Equal(t, model.CaseStatusProcessing, updated.Status)

	bad := "pending"
	_, err = h.cases.UpdateCase(ctx, UpdateCaseInput{TenantID: h.tenant.ID, CaseID: c.ID, Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.cases.UpdateCase(ctx, UpdateCaseInput{TenantID: h.tenant.ID, CaseID: c.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := h.cases.ListCases(ctx, h.tenant.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, h.cases.DeleteCase(ctx, h.tenant.ID, c.ID))
	assert.ErrorIs(t, h.cases.DeleteCase(ctx, h.tenant.ID, c.ID), ErrCaseNotFound)

	_, err = h.cases.GetCase(ctx, h.tenant.ID, c.ID)
	assert.ErrorIs(t, err, ErrCaseNotFound)
	list, err = h.cases.ListCases(ctx, h.tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUploadAndListFiles(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := h.db.seedCase(h.tenant.ID, "uploads")

	res, err := h.cases.UploadFiles(ctx, UploadFilesInput{
		TenantID: h.tenant.ID,
		CaseID:   c.ID,
		Files: []extract.Document{
			{Filename: "photo.jpg", Content: []byte{0xff, 0xd8}},
			{Filename: "photo.jpg", Content: []byte{0xff, 0xd9}},
			{Filename: "policy.pdf", Content: []byte("%PDF-1.4")},
		},
	})
	require.NoError(t, err)
	assert.Len(t, res.Files, 3)
	assert.Zero(t, res.Failed)
	assert.Zero(t, h.gen.calls(), "upload alone never runs the model")

	detail, err := h.cases.GetCase(ctx, h.tenant.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, detail.Files, 3)
	assert.Equal(t, "photo (1).jpg", detail.Files[1].Name)
	assert.Equal(t, "other", detail.Files[0].Type)
	assert.Equal(t, "pdf", detail.Files[2].Type)
	assert.True(t, strings.HasPrefix(detail.Files[2].URL, "https://signed.example/"))
	assert.Contains(t, detail.Files[2].URL, "ttl=600")

	_, err = h.cases.UploadFiles(ctx, UploadFilesInput{TenantID: h.tenant.ID, CaseID: "nope", Files: []extract.Document{{Filename: "a"}}})
	assert.ErrorIs(t, err, ErrCaseNotFound)
	_, err = h.cases.UploadFiles(ctx, UploadFilesInput{TenantID: h.tenant.ID, CaseID: c.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteFilesDropsCachedText(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := h.db.seedCase(h.tenant.ID, "delete files")
	f := seedStoredFile(h, c, model.FileKindRawUpload, "a.pdf", []byte("x"))
	require.NoError(t, h.cache.Set(ctx, f.S3Key, "text"))

	other := h.db.seedTenant("Other")
	_, err := h.cases.DeleteFiles(ctx, other.ID, []string{f.ID})
	assert.ErrorIs(t, err, ErrFileNotFound)

	n, err := h.cases.DeleteFiles(ctx, h.tenant.ID, []string{f.ID, f.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, h.cache.snapshot())

	files, err := h.cases.ListFiles(ctx, h.tenant.ID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestResponsesHistoryAndLatest(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := h.db.seedCase(h.tenant.ID, "responses")
	f := seedStoredFile(h, c, model.FileKindRawUpload, "notes.txt", []byte("windshield crack"))

	_, err := h.cases.LatestResponse(ctx, h.tenant.ID, c.ID)
	assert.ErrorIs(t, err, ErrResponseNotFound)

	first, err := h.pipeline.ProcessFromHistory(ctx, h.tenant.ID, c.ID)
	require.NoError(t, err)
	second, err := h.pipeline.ProcessFromHistory(ctx, h.tenant.ID, c.ID)
	require.NoError(t, err)
	h.pipeline.Wait()

	list, err := h.cases.ListResponses(ctx, h.tenant.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ResponseID, list[0].ID)
	assert.Equal(t, first.ResponseID, list[1].ID)
	assert.Contains(t, list[0].URL, storage.ResponseKey(h.tenant.ID, c.ID))

	latest, err := h.cases.LatestResponse(ctx, h.tenant.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ResponseID, latest.Response.ID)
	assert.Equal(t, "APPROVED", latest.Decision["decision"])

	linked, err := h.cases.ResponseFiles(ctx, h.tenant.ID, first.ResponseID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, f.ID, linked[0].ID)
	assert.Equal(t, "text", linked[0].Type)

	_, err = h.cases.ResponseFiles(ctx, "someone-else", first.ResponseID)
	assert.ErrorIs(t, err, ErrResponseNotFound)
}

func TestLatestResponseRejectsCorruptBody(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := h.db.seedCase(h.tenant.ID, "corrupt body")
	key := storage.ResponseKey(h.tenant.ID, c.ID)
	h.objects.blobs[key] = []byte("{not json")
	require.NoError(t, responseStore{h.db}.Create(ctx, &model.Response{TenantID: h.tenant.ID, CaseID: c.ID, S3Key: key, Status: model.ResponseStatusSucceeded}))

	_, err := h.cases.LatestResponse(ctx, h.tenant.ID, c.ID)
	require.Error(t, err)
	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}
