package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"claimintake/internal/app"
	"claimintake/internal/transport/http/response"
)

type FileHandler struct {
	caseService    CaseService
	maxUploadBytes int64
}

type DeleteFilesRequest struct {
	FileIDs []string `json:"file_ids" binding:"required,min=1"`
}

func NewFileHandler(caseService CaseService, maxUploadBytes int64) *FileHandler {
	return &FileHandler{caseService: caseService, maxUploadBytes: maxUploadBytes}
}

func (h *FileHandler) List(c *gin.Context) {
	files, err := h.caseService.ListFiles(c.Request.Context(), c.Param("tenant_id"), c.Param("case_id"))
	if err != nil {
		writeError(c, err, "list files failed")
		return
	}
	response.OK(c, gin.H{"files": files})
}

// Upload attaches files to a case without running the model.
func (h *FileHandler) Upload(c *gin.Context) {
	_, docs, err := readMultipart(c, h.maxUploadBytes)
	if err != nil {
		writeUploadError(c, err)
		return
	}
	if len(docs) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "no files in request")
		return
	}

	result, err := h.caseService.UploadFiles(c.Request.Context(), app.UploadFilesInput{
		TenantID: c.Param("tenant_id"),
		CaseID:   c.Param("case_id"),
		Files:    docs,
	})
	if err != nil {
		writeError(c, err, "upload files failed")
		return
	}
	response.OK(c, result)
}

func (h *FileHandler) Delete(c *gin.Context) {
	var req DeleteFilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	n, err := h.caseService.DeleteFiles(c.Request.Context(), c.Param("tenant_id"), req.FileIDs)
	if err != nil {
		writeError(c, err, "delete files failed")
		return
	}
	response.OK(c, gin.H{"deleted": n})
}
