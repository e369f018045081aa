package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"claimintake/internal/app"
	"claimintake/internal/transport/http/response"
)

type TenantHandler struct {
	tenantService TenantService
}

type CreateTenantRequest struct {
	Name string `json:"name" binding:"required,max=128"`
}

func NewTenantHandler(tenantService TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

func (h *TenantHandler) Create(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	tenant, err := h.tenantService.Create(c.Request.Context(), app.CreateTenantInput{Name: req.Name})
	if err != nil {
		writeError(c, err, "create tenant failed")
		return
	}
	response.OK(c, tenant)
}

func (h *TenantHandler) List(c *gin.Context) {
	tenants, err := h.tenantService.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "list tenants failed")
		return
	}
	response.OK(c, gin.H{"tenants": tenants})
}

func (h *TenantHandler) Get(c *gin.Context) {
	tenant, err := h.tenantService.Get(c.Request.Context(), c.Param("tenant_id"))
	if err != nil {
		writeError(c, err, "get tenant failed")
		return
	}
	response.OK(c, tenant)
}
