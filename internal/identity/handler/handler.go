package handler

import (
	"net/http"

	"estate_crm_backend/internal/identity/repository"
	"estate_crm_backend/internal/identity/service"
	"estate_crm_backend/internal/identity/transport"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc      *service.Service
	resolver *service.Resolver
	val      *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgForbidden        = "forbidden"
)

func New(svc *service.Service, resolver *service.Resolver, val *validator.Validator) *Handler {
	return &Handler{svc: svc, resolver: resolver, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/organizations", h.CreateOrganization)
	rg.GET("/organizations/me", h.GetOrganization)

	rg.GET("/users/me", h.GetMe)
	rg.PATCH("/users/me", h.UpdateMe)
	rg.GET("/users", h.ListUsers)
	rg.PATCH("/users/:userID/role", h.AssignRole)

	rg.GET("/roles", h.ListRoles)
	rg.POST("/roles", h.CreateRole)
	rg.PATCH("/roles/:roleID", h.UpdateRolePermissions)
	rg.DELETE("/roles/:roleID", h.DeleteRole)
}

func (h *Handler) CreateOrganization(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	org, err := h.svc.CreateOrganization(c.Request.Context(), req.Name, req.Slug, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, toOrganizationResponse(org))
}

func (h *Handler) GetOrganization(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	org, err := h.svc.GetOrganization(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toOrganizationResponse(org))
}

func (h *Handler) GetMe(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	profile, err := h.svc.Profile(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToProfileResponse(profile))
}

func (h *Handler) UpdateMe(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	profile, err := h.svc.UpdateProfile(c.Request.Context(), repository.UpdateProfileParams{
		UserID:         identity.UserID(),
		OrganizationID: tenantID,
		FullName:       req.FullName,
		Phone:          req.Phone,
		IsAvailable:    req.IsAvailable,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToProfileResponse(profile))
}

func (h *Handler) ListUsers(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	profiles, err := h.svc.ListProfiles(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]transport.ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		resp = append(resp, transport.ToProfileResponse(p))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) AssignRole(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if !h.resolver.HasPermission(c.Request.Context(), identity.UserID(), service.PermRoleManage) {
		httpkit.Error(c, http.StatusForbidden, msgForbidden, nil)
		return
	}

	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	roleID, err := uuid.Parse(req.RoleID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	profile, err := h.svc.AssignRole(c.Request.Context(), tenantID, userID, roleID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToProfileResponse(profile))
}

func (h *Handler) ListRoles(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	roles, err := h.svc.ListRoles(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]transport.RoleResponse, 0, len(roles))
	for _, r := range roles {
		resp = append(resp, transport.ToRoleResponse(r))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) CreateRole(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if !h.resolver.HasPermission(c.Request.Context(), identity.UserID(), service.PermRoleManage) {
		httpkit.Error(c, http.StatusForbidden, msgForbidden, nil)
		return
	}

	var req transport.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	role, err := h.svc.CreateRole(c.Request.Context(), repository.CreateRoleParams{
		OrganizationID: tenantID,
		Name:           req.Name,
		Permissions:    req.Permissions,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToRoleResponse(role))
}

func (h *Handler) UpdateRolePermissions(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if !h.resolver.HasPermission(c.Request.Context(), identity.UserID(), service.PermRoleManage) {
		httpkit.Error(c, http.StatusForbidden, msgForbidden, nil)
		return
	}

	roleID, err := uuid.Parse(c.Param("roleID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	role, err := h.svc.UpdateRolePermissions(c.Request.Context(), tenantID, roleID, req.Permissions)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToRoleResponse(role))
}

func (h *Handler) DeleteRole(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if !h.resolver.HasPermission(c.Request.Context(), identity.UserID(), service.PermRoleManage) {
		httpkit.Error(c, http.StatusForbidden, msgForbidden, nil)
		return
	}

	roleID, err := uuid.Parse(c.Param("roleID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.DeleteRole(c.Request.Context(), tenantID, roleID); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

func toOrganizationResponse(org repository.Organization) transport.OrganizationResponse {
	return transport.OrganizationResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		Slug:      org.Slug,
		CreatedAt: org.CreatedAt,
	}
}
