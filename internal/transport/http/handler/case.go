package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"claimintake/internal/app"
	"claimintake/internal/transport/http/response"
)

type CaseHandler struct {
	caseService CaseService
}

type CreateCaseRequest struct {
	CaseName string `json:"case_name" binding:"max=256"`
}

type UpdateCaseRequest struct {
	CaseName *string `json:"case_name" binding:"omitempty,max=256"`
	Status   *string `json:"status"`
}

func NewCaseHandler(caseService CaseService) *CaseHandler {
	return &CaseHandler{caseService: caseService}
}

func (h *CaseHandler) Create(c *gin.Context) {
	var req CreateCaseRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
	}

	created, err := h.caseService.CreateCase(c.Request.Context(), app.CreateCaseInput{
		TenantID: c.Param("tenant_id"),
		CaseName: req.CaseName,
	})
	if err != nil {
		writeError(c, err, "create case failed")
		return
	}
	response.OK(c, created)
}

func (h *CaseHandler) List(c *gin.Context) {
	cases, err := h.caseService.ListCases(c.Request.Context(), c.Param("tenant_id"))
	if err != nil {
		writeError(c, err, "list cases failed")
		return
	}
	response.OK(c, gin.H{"cases": cases})
}

func (h *CaseHandler) Get(c *gin.Context) {
	detail, err := h.caseService.GetCase(c.Request.Context(), c.Param("tenant_id"), c.Param("case_id"))
	if err != nil {
		writeError(c, err, "get case failed")
		return
	}
	response.OK(c, detail)
}

func (h *CaseHandler) Update(c *gin.Context) {
	var req UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	updated, err := h.caseService.UpdateCase(c.Request.Context(), app.UpdateCaseInput{
		TenantID: c.Param("tenant_id"),
		CaseID:   c.Param("case_id"),
		CaseName: req.CaseName,
		Status:   req.Status,
	})
	if err != nil {
		writeError(c, err, "update case failed")
		return
	}
	response.OK(c, updated)
}

func (h *CaseHandler) Delete(c *gin.Context) {
	if err := h.caseService.DeleteCase(c.Request.Context(), c.Param("tenant_id"), c.Param("case_id")); err != nil {
		writeError(c, err, "delete case failed")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

func (h *CaseHandler) ListResponses(c *gin.Context) {
	list, err := h.caseService.ListResponses(c.Request.Context(), c.Param("tenant_id"), c.Param("case_id"))
	if err != nil {
		writeError(c, err, "list responses failed")
		return
	}
	response.OK(c, gin.H{"responses": list})
}

func (h *CaseHandler) LatestResponse(c *gin.Context) {
	latest, err := h.caseService.LatestResponse(c.Request.Context(), c.Param("tenant_id"), c.Param("case_id"))
	if err != nil {
		writeError(c, err, "load latest response failed")
		return
	}
	response.OK(c, latest)
}

func (h *CaseHandler) ResponseFiles(c *gin.Context) {
	files, err := h.caseService.ResponseFiles(c.Request.Context(), c.Param("tenant_id"), c.Param("response_id"))
	if err != nil {
		writeError(c, err, "list response files failed")
		return
	}
	response.OK(c, gin.H{"files": files})
}
