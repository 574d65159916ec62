package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"estate_crm_backend/platform/apperr"
)

const (
	organizationNotFoundMessage = "organization not found"
	profileNotFoundMessage      = "profile not found"
	roleNotFoundMessage         = "role not found"
)

// Profile queries join users to roles so a single read resolves the caller's
// permission set. Queries that cross the users/roles boundary always verify
// organization_id equality on both sides.
const getProfileQuery = `
	SELECT u.id, u.organization_id, u.email, u.full_name, u.phone, u.role_id,
		COALESCE(r.name, ''), COALESCE(r.permissions, '{}'), u.is_available, u.avatar_url
	FROM users u
	LEFT JOIN roles r ON r.id = u.role_id AND r.organization_id = u.organization_id
	WHERE u.id = $1`

const listProfilesQuery = `
	SELECT u.id, u.organization_id, u.email, u.full_name, u.phone, u.role_id,
		COALESCE(r.name, ''), COALESCE(r.permissions, '{}'), u.is_available, u.avatar_url
	FROM users u
	LEFT JOIN roles r ON r.id = u.role_id AND r.organization_id = u.organization_id
	WHERE u.organization_id = $1
	ORDER BY u.full_name ASC`

const firstAvailableAgentQuery = `
	SELECT u.id, u.organization_id, u.email, u.full_name, u.phone, u.role_id,
		COALESCE(r.name, ''), COALESCE(r.permissions, '{}'), u.is_available, u.avatar_url
	FROM users u
	LEFT JOIN roles r ON r.id = u.role_id AND r.organization_id = u.organization_id
	WHERE u.organization_id = $1 AND u.is_available = true AND u.phone IS NOT NULL
	ORDER BY u.created_at ASC
	LIMIT 1`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new identity repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetOrganization retrieves an organization by ID.
func (r *Repo) GetOrganization(ctx context.Context, id uuid.UUID) (Organization, error) {
	query := `
		SELECT id, name, slug, created_by, created_at, updated_at
		FROM organizations
		WHERE id = $1`

	var org Organization
	var createdAt, updatedAt time.Time

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&org.ID, &org.Name, &org.Slug, &org.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organization{}, apperr.NotFound(organizationNotFoundMessage)
		}
		return Organization{}, fmt.Errorf("get organization: %w", err)
	}

	org.CreatedAt = createdAt.Format(time.RFC3339)
	org.UpdatedAt = updatedAt.Format(time.RFC3339)

	return org, nil
}

// CreateOrganization creates a new organization.
func (r *Repo) CreateOrganization(ctx context.Context, params CreateOrganizationParams) (Organization, error) {
	query := `
		INSERT INTO organizations (name, slug, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, name, slug, created_by, created_at, updated_at`

	var org Organization
	var createdAt, updatedAt time.Time

	err := r.pool.QueryRow(ctx, query, params.Name, params.Slug, params.CreatedBy).Scan(
		&org.ID, &org.Name, &org.Slug, &org.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return Organization{}, fmt.Errorf("create organization: %w", err)
	}

	org.CreatedAt = createdAt.Format(time.RFC3339)
	org.UpdatedAt = updatedAt.Format(time.RFC3339)

	return org, nil
}

// AssignOrganization attaches a user without a tenant to the organization.
// Users already belonging to an organization cannot be moved.
func (r *Repo) AssignOrganization(ctx context.Context, userID, organizationID, roleID uuid.UUID) error {
	query := `
		UPDATE users SET organization_id = $2, role_id = $3, updated_at = now()
		WHERE id = $1 AND organization_id IS NULL`

	result, err := r.pool.Exec(ctx, query, userID, organizationID, roleID)
	if err != nil {
		return fmt.Errorf("assign organization: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.Conflict("user already belongs to an organization")
	}

	return nil
}

// GetProfile retrieves a user profile with its resolved role and permissions.
func (r *Repo) GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, getProfileQuery, userID).Scan(
		&p.ID, &p.OrganizationID, &p.Email, &p.FullName, &p.Phone, &p.RoleID,
		&p.RoleName, &p.Permissions, &p.IsAvailable, &p.AvatarURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, apperr.NotFound(profileNotFoundMessage)
		}
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}

	return p, nil
}

// ListProfiles retrieves all profiles in an organization.
func (r *Repo) ListProfiles(ctx context.Context, organizationID uuid.UUID) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, listProfilesQuery, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	return scanProfiles(rows)
}

// FirstAvailableAgent returns the first available employee with a phone number
// in the organization. First-row-wins; no fairness or load balancing.
func (r *Repo) FirstAvailableAgent(ctx context.Context, organizationID uuid.UUID) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, firstAvailableAgentQuery, organizationID).Scan(
		&p.ID, &p.OrganizationID, &p.Email, &p.FullName, &p.Phone, &p.RoleID,
		&p.RoleName, &p.Permissions, &p.IsAvailable, &p.AvatarURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, apperr.NotFound(profileNotFoundMessage)
		}
		return Profile{}, fmt.Errorf("first available agent: %w", err)
	}

	return p, nil
}

// UpdateProfile updates a user profile. COALESCE keeps unset fields unchanged.
func (r *Repo) UpdateProfile(ctx context.Context, params UpdateProfileParams) (Profile, error) {
	query := `
		UPDATE users SET
			full_name = COALESCE($3, full_name),
			phone = COALESCE($4, phone),
			role_id = COALESCE($5, role_id),
			is_available = COALESCE($6, is_available),
			avatar_url = COALESCE($7, avatar_url),
			updated_at = now()
		WHERE id = $1 AND organization_id = $2`

	result, err := r.pool.Exec(ctx, query,
		params.UserID, params.OrganizationID,
		params.FullName, params.Phone, params.RoleID, params.IsAvailable, params.AvatarURL,
	)
	if err != nil {
		return Profile{}, fmt.Errorf("update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return Profile{}, apperr.NotFound(profileNotFoundMessage)
	}

	return r.GetProfile(ctx, params.UserID)
}

// GetRole retrieves a role by ID within an organization.
func (r *Repo) GetRole(ctx context.Context, organizationID, roleID uuid.UUID) (Role, error) {
	query := `
		SELECT id, organization_id, name, permissions, created_at
		FROM roles
		WHERE id = $1 AND organization_id = $2`

	var role Role
	var createdAt time.Time

	err := r.pool.QueryRow(ctx, query, roleID, organizationID).Scan(
		&role.ID, &role.OrganizationID, &role.Name, &role.Permissions, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, apperr.NotFound(roleNotFoundMessage)
		}
		return Role{}, fmt.Errorf("get role: %w", err)
	}

	role.CreatedAt = createdAt.Format(time.RFC3339)

	return role, nil
}

// ListRoles retrieves all roles in an organization.
func (r *Repo) ListRoles(ctx context.Context, organizationID uuid.UUID) ([]Role, error) {
	query := `
		SELECT id, organization_id, name, permissions, created_at
		FROM roles
		WHERE organization_id = $1
		ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var results []Role
	for rows.Next() {
		var role Role
		var createdAt time.Time
		if err := rows.Scan(&role.ID, &role.OrganizationID, &role.Name, &role.Permissions, &createdAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		role.CreatedAt = createdAt.Format(time.RFC3339)
		results = append(results, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	return results, nil
}

// CreateRole creates a new role.
func (r *Repo) CreateRole(ctx context.Context, params CreateRoleParams) (Role, error) {
	query := `
		INSERT INTO roles (organization_id, name, permissions)
		VALUES ($1, $2, $3)
		RETURNING id, organization_id, name, permissions, created_at`

	var role Role
	var createdAt time.Time

	err := r.pool.QueryRow(ctx, query, params.OrganizationID, params.Name, params.Permissions).Scan(
		&role.ID, &role.OrganizationID, &role.Name, &role.Permissions, &createdAt,
	)
	if err != nil {
		return Role{}, fmt.Errorf("create role: %w", err)
	}

	role.CreatedAt = createdAt.Format(time.RFC3339)

	return role, nil
}

// UpdateRolePermissions replaces a role's permission set.
func (r *Repo) UpdateRolePermissions(ctx context.Context, organizationID, roleID uuid.UUID, permissions []string) (Role, error) {
	query := `
		UPDATE roles SET permissions = $3
		WHERE id = $1 AND organization_id = $2
		RETURNING id, organization_id, name, permissions, created_at`

	var role Role
	var createdAt time.Time

	err := r.pool.QueryRow(ctx, query, roleID, organizationID, permissions).Scan(
		&role.ID, &role.OrganizationID, &role.Name, &role.Permissions, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, apperr.NotFound(roleNotFoundMessage)
		}
		return Role{}, fmt.Errorf("update role permissions: %w", err)
	}

	role.CreatedAt = createdAt.Format(time.RFC3339)

	return role, nil
}

// DeleteRole removes a role. Users referencing it fall back to no role (fail-closed).
func (r *Repo) DeleteRole(ctx context.Context, organizationID, roleID uuid.UUID) error {
	query := `DELETE FROM roles WHERE id = $1 AND organization_id = $2`

	result, err := r.pool.Exec(ctx, query, roleID, organizationID)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(roleNotFoundMessage)
	}

	return nil
}

func scanProfiles(rows pgx.Rows) ([]Profile, error) {
	var results []Profile
	for rows.Next() {
		var p Profile
		err := rows.Scan(
			&p.ID, &p.OrganizationID, &p.Email, &p.FullName, &p.Phone, &p.RoleID,
			&p.RoleName, &p.Permissions, &p.IsAvailable, &p.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return results, nil
}
