package repository

import (
	"context"

	"github.com/google/uuid"
)

// Organization is the tenant boundary. Every other entity in the system is
// scoped to exactly one organization.
type Organization struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	CreatedBy uuid.UUID
	CreatedAt string
	UpdatedAt string
}

// Role groups permission feature keys. Permissions are plain strings
// (e.g. "view_all_leads", "campaign.run") checked by membership.
type Role struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Permissions    []string
	CreatedAt      string
}

// Profile is a user as seen by the rest of the system: identity plus the
// resolved role. Auth credentials live in the auth module.
type Profile struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	Email          string     `json:"email"`
	FullName       string     `json:"fullName"`
	Phone          *string    `json:"phone,omitempty"`
	RoleID         *uuid.UUID `json:"roleId,omitempty"`
	RoleName       string     `json:"roleName,omitempty"`
	Permissions    []string   `json:"permissions"`
	IsAvailable    bool       `json:"isAvailable"`
	AvatarURL      *string    `json:"avatarUrl,omitempty"`
}

// CreateOrganizationParams contains parameters for creating an organization.
type CreateOrganizationParams struct {
	Name      string
	Slug      string
	CreatedBy uuid.UUID
}

// CreateRoleParams contains parameters for creating a role.
type CreateRoleParams struct {
	OrganizationID uuid.UUID
	Name           string
	Permissions    []string
}

// UpdateProfileParams contains parameters for updating a user profile.
// Nil fields are left unchanged.
type UpdateProfileParams struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	FullName       *string
	Phone          *string
	RoleID         *uuid.UUID
	IsAvailable    *bool
	AvatarURL      *string
}

// Reader provides read operations for identity data.
type Reader interface {
	GetOrganization(ctx context.Context, id uuid.UUID) (Organization, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error)
	ListProfiles(ctx context.Context, organizationID uuid.UUID) ([]Profile, error)
	FirstAvailableAgent(ctx context.Context, organizationID uuid.UUID) (Profile, error)
	GetRole(ctx context.Context, organizationID, roleID uuid.UUID) (Role, error)
	ListRoles(ctx context.Context, organizationID uuid.UUID) ([]Role, error)
}

// Writer provides write operations for identity data.
type Writer interface {
	CreateOrganization(ctx context.Context, params CreateOrganizationParams) (Organization, error)
	AssignOrganization(ctx context.Context, userID, organizationID, roleID uuid.UUID) error
	CreateRole(ctx context.Context, params CreateRoleParams) (Role, error)
	UpdateRolePermissions(ctx context.Context, organizationID, roleID uuid.UUID, permissions []string) (Role, error)
	DeleteRole(ctx context.Context, organizationID, roleID uuid.UUID) error
	UpdateProfile(ctx context.Context, params UpdateProfileParams) (Profile, error)
}

// Repository combines all identity repository operations.
type Repository interface {
	Reader
	Writer
}
