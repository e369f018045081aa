package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"claimintake/internal/app"
	"claimintake/internal/transport/http/response"
)

type ProcessHandler struct {
	processor      Processor
	bulk           BulkRunner
	maxUploadBytes int64
}

type BulkRequest struct {
	CaseIDs []string `json:"case_ids" binding:"required,min=1,max=100"`
}

func NewProcessHandler(processor Processor, bulk BulkRunner, maxUploadBytes int64) *ProcessHandler {
	return &ProcessHandler{processor: processor, bulk: bulk, maxUploadBytes: maxUploadBytes}
}

// Submit runs the model over uploaded files and optional manual input. An
// empty case_id creates a new case named case_name.
func (h *ProcessHandler) Submit(c *gin.Context) {
	form, docs, err := readMultipart(c, h.maxUploadBytes)
	if err != nil {
		writeUploadError(c, err)
		return
	}

	result, err := h.processor.ProcessNew(c.Request.Context(), app.ProcessNewInput{
		TenantID:    c.Param("tenant_id"),
		CaseID:      formValue(form, "case_id"),
		CaseName:    formValue(form, "case_name"),
		ManualInput: formValue(form, "manual_input"),
		Files:       docs,
	})
	if err != nil {
		writeError(c, err, "process case failed")
		return
	}
	response.OK(c, result)
}

// Reprocess runs the model again over the files already stored on a case.
func (h *ProcessHandler) Reprocess(c *gin.Context) {
	result, err := h.processor.ProcessFromHistory(c.Request.Context(), c.Param("tenant_id"), c.Param("case_id"))
	if err != nil {
		writeError(c, err, "reprocess case failed")
		return
	}
	response.OK(c, result)
}

// Bulk reprocesses many cases. With ?async=true the cases are queued and the
// job ids are returned instead of results.
func (h *ProcessHandler) Bulk(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	async, _ := strconv.ParseBool(c.DefaultQuery("async", "false"))
	tenantID := c.Param("tenant_id")

	if async {
		jobs, err := h.bulk.Enqueue(c.Request.Context(), tenantID, req.CaseIDs)
		if err != nil {
			writeError(c, err, "enqueue cases failed")
			return
		}
		response.Accepted(c, gin.H{"jobs": jobs})
		return
	}

	items, err := h.bulk.Run(c.Request.Context(), tenantID, req.CaseIDs)
	if err != nil {
		writeError(c, err, "bulk process failed")
		return
	}
	response.OK(c, gin.H{"results": items})
}
