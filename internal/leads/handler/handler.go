package handler

import (
	"net/http"
	"strconv"

	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/leads/service"
	"estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads", h.Create)
	rg.GET("/leads", h.List)
	rg.GET("/leads/:leadID", h.Get)
	rg.PATCH("/leads/:leadID", h.Update)
	rg.DELETE("/leads/:leadID", h.Delete)
	rg.PATCH("/leads/:leadID/stage", h.ChangeStage)
	rg.POST("/leads/bulk", h.BulkUpdate)

	rg.GET("/pipeline-stages", h.ListStages)
	rg.POST("/pipeline-stages", h.CreateStage)
}

func (h *Handler) Create(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := repository.CreateLeadParams{
		OrganizationID: tenantID,
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Source:         req.Source,
	}
	var parseErr error
	params.ProjectID, parseErr = parseOptionalUUID(req.ProjectID, parseErr)
	params.StageID, parseErr = parseOptionalUUID(req.StageID, parseErr)
	params.AssignedTo, parseErr = parseOptionalUUID(req.AssignedTo, parseErr)
	if parseErr != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToLeadResponse(lead))
}

func (h *Handler) Get(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, err := uuid.Parse(c.Param("leadID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), tenantID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) List(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	filters := repository.ListFilters{Search: c.Query("search")}
	var parseErr error
	filters.StageID, parseErr = parseOptionalUUID(queryPtr(c, "stageId"), parseErr)
	filters.ProjectID, parseErr = parseOptionalUUID(queryPtr(c, "projectId"), parseErr)
	filters.AssignedTo, parseErr = parseOptionalUUID(queryPtr(c, "assignedTo"), parseErr)
	if parseErr != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	filters.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filters.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	leads, err := h.svc.List(c.Request.Context(), tenantID, filters)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		resp = append(resp, transport.ToLeadResponse(lead))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Update(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, err := uuid.Parse(c.Param("leadID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := repository.UpdateLeadParams{
		LeadID:         leadID,
		OrganizationID: tenantID,
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Source:         req.Source,
	}
	var parseErr error
	params.AssignedTo, parseErr = parseOptionalUUID(req.AssignedTo, parseErr)
	if parseErr != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Update(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Delete(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, err := uuid.Parse(c.Param("leadID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), tenantID, leadID); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ChangeStage(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, err := uuid.Parse(c.Param("leadID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ChangeStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	stageID, err := uuid.Parse(req.StageID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.ChangeStage(c.Request.Context(), tenantID, leadID, stageID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) BulkUpdate(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	leadIDs := make([]uuid.UUID, 0, len(req.LeadIDs))
	for _, raw := range req.LeadIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		leadIDs = append(leadIDs, id)
	}

	updates := service.BulkUpdates{Source: req.Updates.Source}
	var parseErr error
	updates.StageID, parseErr = parseOptionalUUID(req.Updates.StageID, parseErr)
	updates.AssignedTo, parseErr = parseOptionalUUID(req.Updates.AssignedTo, parseErr)
	if parseErr != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	updated, err := h.svc.BulkUpdate(c.Request.Context(), tenantID, identity.UserID(), leadIDs, updates)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.BulkUpdateResponse{UpdatedCount: updated})
}

func (h *Handler) ListStages(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	stages, err := h.svc.ListStages(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]transport.StageResponse, 0, len(stages))
	for _, stage := range stages {
		resp = append(resp, transport.ToStageResponse(stage))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) CreateStage(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	stage, err := h.svc.CreateStage(c.Request.Context(), tenantID, req.Name, req.Position)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToStageResponse(stage))
}

func parseOptionalUUID(raw *string, prior error) (*uuid.UUID, error) {
	if prior != nil {
		return nil, prior
	}
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func queryPtr(c *gin.Context, key string) *string {
	value := c.Query(key)
	if value == "" {
		return nil
	}
	return &value
}
