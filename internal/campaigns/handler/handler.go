package handler

import (
	"net/http"

	"estate_crm_backend/internal/campaigns/repository"
	"estate_crm_backend/internal/campaigns/service"
	"estate_crm_backend/internal/campaigns/transport"
	identitysvc "estate_crm_backend/internal/identity/service"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc      *service.Service
	resolver *identitysvc.Resolver
	val      *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgForbidden        = "forbidden"
)

func New(svc *service.Service, resolver *identitysvc.Resolver, val *validator.Validator) *Handler {
	return &Handler{svc: svc, resolver: resolver, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/campaigns", h.Create)
	rg.GET("/campaigns", h.List)
	rg.GET("/campaigns/:campaignID", h.Get)
	rg.DELETE("/campaigns/:campaignID", h.Delete)
	rg.POST("/campaigns/:campaignID/run", h.Run)

	rg.POST("/projects", h.CreateProject)
	rg.GET("/projects", h.ListProjects)
	rg.GET("/projects/:projectID", h.GetProject)
}

func (h *Handler) Run(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if !h.resolver.HasPermission(c.Request.Context(), identity.UserID(), identitysvc.PermCampaignRun) {
		httpkit.Error(c, http.StatusForbidden, msgForbidden, nil)
		return
	}

	campaignID, err := uuid.Parse(c.Param("campaignID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.Run(c.Request.Context(), tenantID, campaignID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToRunResponse(result))
}

func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if !h.resolver.HasPermission(c.Request.Context(), identity.UserID(), identitysvc.PermCampaignManage) {
		httpkit.Error(c, http.StatusForbidden, msgForbidden, nil)
		return
	}

	var req transport.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	campaign, err := h.svc.CreateCampaign(c.Request.Context(), repository.CreateCampaignParams{
		OrganizationID: tenantID,
		ProjectID:      projectID,
		Name:           req.Name,
		Status:         req.Status,
		StartDate:      req.StartDate,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToCampaignResponse(campaign))
}

func (h *Handler) Get(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	campaignID, err := uuid.Parse(c.Param("campaignID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	campaign, err := h.svc.GetCampaign(c.Request.Context(), tenantID, campaignID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCampaignResponse(campaign))
}

func (h *Handler) List(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	campaigns, err := h.svc.ListCampaigns(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]transport.CampaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		resp = append(resp, transport.ToCampaignResponse(campaign))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Delete(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if !h.resolver.HasPermission(c.Request.Context(), identity.UserID(), identitysvc.PermCampaignManage) {
		httpkit.Error(c, http.StatusForbidden, msgForbidden, nil)
		return
	}

	campaignID, err := uuid.Parse(c.Param("campaignID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.DeleteCampaign(c.Request.Context(), tenantID, campaignID); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateProject(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	project, campaign, err := h.svc.CreateProject(c.Request.Context(), tenantID, req.Name, req.Location)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.CreateProjectResponse{
		Project:  transport.ToProjectResponse(project),
		Campaign: transport.ToCampaignResponse(campaign),
	})
}

func (h *Handler) GetProject(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	project, err := h.svc.GetProject(c.Request.Context(), tenantID, projectID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToProjectResponse(project))
}

func (h *Handler) ListProjects(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	projects, err := h.svc.ListProjects(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]transport.ProjectResponse, 0, len(projects))
	for _, project := range projects {
		resp = append(resp, transport.ToProjectResponse(project))
	}
	httpkit.OK(c, resp)
}
