// Package transport defines request and response DTOs for the identity module.
package transport

import "estate_crm_backend/internal/identity/repository"

// CreateOrganizationRequest creates a tenant for the authenticated user.
type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
	Slug string `json:"slug" validate:"required,min=2,max=60,lowercase"`
}

// OrganizationResponse is the wire shape of an organization.
type OrganizationResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	CreatedAt string `json:"createdAt"`
}

// UpdateProfileRequest updates the caller's own profile. Omitted fields are
// left unchanged.
type UpdateProfileRequest struct {
	FullName    *string `json:"fullName,omitempty" validate:"omitempty,min=1,max=120"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	IsAvailable *bool   `json:"isAvailable,omitempty"`
}

// AssignRoleRequest sets another user's role.
type AssignRoleRequest struct {
	RoleID string `json:"roleId" validate:"required,uuid"`
}

// ProfileResponse is the wire shape of a user profile.
type ProfileResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FullName    string   `json:"fullName"`
	Phone       *string  `json:"phone,omitempty"`
	RoleID      *string  `json:"roleId,omitempty"`
	RoleName    string   `json:"roleName,omitempty"`
	Permissions []string `json:"permissions"`
	IsAvailable bool     `json:"isAvailable"`
	AvatarURL   *string  `json:"avatarUrl,omitempty"`
}

// CreateRoleRequest creates a role with a permission set.
type CreateRoleRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=60"`
	Permissions []string `json:"permissions" validate:"required,dive,min=1"`
}

// UpdateRolePermissionsRequest replaces a role's permissions.
type UpdateRolePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,dive,min=1"`
}

// RoleResponse is the wire shape of a role.
type RoleResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// ToProfileResponse maps a repository profile to its wire shape.
func ToProfileResponse(p repository.Profile) ProfileResponse {
	resp := ProfileResponse{
		ID:          p.ID.String(),
		Email:       p.Email,
		FullName:    p.FullName,
		Phone:       p.Phone,
		RoleName:    p.RoleName,
		Permissions: p.Permissions,
		IsAvailable: p.IsAvailable,
		AvatarURL:   p.AvatarURL,
	}
	if p.RoleID != nil {
		id := p.RoleID.String()
		resp.RoleID = &id
	}
	if resp.Permissions == nil {
		resp.Permissions = []string{}
	}
	return resp
}

// ToRoleResponse maps a repository role to its wire shape.
func ToRoleResponse(r repository.Role) RoleResponse {
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Permissions: perms,
	}
}
