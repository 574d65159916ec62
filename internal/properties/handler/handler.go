package handler

import (
	"net/http"

	identitysvc "estate_crm_backend/internal/identity/service"
	"estate_crm_backend/internal/properties/repository"
	"estate_crm_backend/internal/properties/service"
	"estate_crm_backend/internal/properties/transport"
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
	rg.POST("/properties", h.Create)
	rg.GET("/properties", h.List)
	rg.GET("/properties/:propertyID", h.Get)
	rg.PATCH("/properties/:propertyID", h.Update)
	rg.DELETE("/properties/:propertyID", h.Delete)
	rg.PATCH("/properties/:propertyID/status", h.ChangeStatus)
	rg.POST("/properties/:propertyID/photos/upload-url", h.PhotoUploadURL)
	rg.GET("/properties/:propertyID/photos/download-url", h.PhotoDownloadURL)
}

// requireManage gates mutating property endpoints. Returns false after
// writing the response when the caller lacks the permission.
func (h *Handler) requireManage(c *gin.Context, userID uuid.UUID) bool {
	if !h.resolver.HasPermission(c.Request.Context(), userID, identitysvc.PermPropertyManage) {
		httpkit.Error(c, http.StatusForbidden, msgForbidden, nil)
		return false
	}
	return true
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
	if !h.requireManage(c, identity.UserID()) {
		return
	}

	var req transport.CreatePropertyRequest
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

	prop, err := h.svc.Create(c.Request.Context(), repository.CreatePropertyParams{
		OrganizationID: tenantID,
		ProjectID:      projectID,
		Title:          req.Title,
		Address:        req.Address,
		PriceCents:     req.PriceCents,
		Bedrooms:       req.Bedrooms,
		AreaSqft:       req.AreaSqft,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToPropertyResponse(prop))
}

func (h *Handler) List(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var filters repository.ListFilters
	if raw := c.Query("projectId"); raw != "" {
		projectID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		filters.ProjectID = &projectID
	}
	if raw := c.Query("status"); raw != "" {
		filters.Status = &raw
	}

	properties, err := h.svc.List(c.Request.Context(), tenantID, filters)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.PropertyResponse, 0, len(properties))
	for _, p := range properties {
		out = append(out, transport.ToPropertyResponse(p))
	}
	httpkit.OK(c, out)
}

func (h *Handler) Get(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	propertyID, err := uuid.Parse(c.Param("propertyID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	prop, err := h.svc.Get(c.Request.Context(), tenantID, propertyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPropertyResponse(prop))
}

func (h *Handler) Update(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if !h.requireManage(c, identity.UserID()) {
		return
	}
	propertyID, err := uuid.Parse(c.Param("propertyID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	prop, err := h.svc.Update(c.Request.Context(), tenantID, propertyID, repository.UpdatePropertyParams{
		Title:      req.Title,
		Address:    req.Address,
		PriceCents: req.PriceCents,
		Bedrooms:   req.Bedrooms,
		AreaSqft:   req.AreaSqft,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPropertyResponse(prop))
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
	if !h.requireManage(c, identity.UserID()) {
		return
	}
	propertyID, err := uuid.Parse(c.Param("propertyID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), tenantID, propertyID); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if !h.requireManage(c, identity.UserID()) {
		return
	}
	propertyID, err := uuid.Parse(c.Param("propertyID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var leadID *uuid.UUID
	if req.LeadID != nil {
		parsed, err := uuid.Parse(*req.LeadID)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		leadID = &parsed
	}

	change, err := h.svc.ChangeStatus(c.Request.Context(), tenantID, propertyID, identity.UserID(), req.Status, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToStatusChangeResponse(change))
}

func (h *Handler) PhotoUploadURL(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if !h.requireManage(c, identity.UserID()) {
		return
	}
	propertyID, err := uuid.Parse(c.Param("propertyID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.PhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	url, err := h.svc.PhotoUploadURL(c.Request.Context(), tenantID, propertyID, req.FileName, req.ContentType, req.SizeBytes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPresignedURLResponse(url))
}

func (h *Handler) PhotoDownloadURL(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	propertyID, err := uuid.Parse(c.Param("propertyID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	fileKey := c.Query("fileKey")
	if fileKey == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	url, err := h.svc.PhotoDownloadURL(c.Request.Context(), tenantID, propertyID, fileKey)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPresignedURLResponse(url))
}
