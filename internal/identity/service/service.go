package service

import (
	"context"
	"fmt"

	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/identity/cache"
	"estate_crm_backend/internal/identity/repository"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/phone"

	"github.com/google/uuid"
)

// Service implements organization, role and profile management. Every
// profile-mutating write goes through updateProfile so the cache is
// invalidated in exactly one place.
type Service struct {
	repo  repository.Repository
	cache *cache.ProfileCache
	bus   events.Bus
	log   *logger.Logger
}

// New creates the identity service.
func New(repo repository.Repository, profileCache *cache.ProfileCache, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: profileCache,
		bus:   bus,
		log:   log,
	}
}

// Profile returns the user's profile, served from cache when possible.
// Satisfies ProfileSource for the permission resolver.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (repository.Profile, error) {
	if cached, ok := s.cache.Get(ctx, userID); ok {
		return cached, nil
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return repository.Profile{}, err
	}
	s.cache.Set(ctx, profile)
	return profile, nil
}

// GetOrganization returns the caller's organization.
func (s *Service) GetOrganization(ctx context.Context, orgID uuid.UUID) (repository.Organization, error) {
	return s.repo.GetOrganization(ctx, orgID)
}

// CreateOrganization creates a tenant together with its admin role and
// assigns the creator to it. Publishes OrganizationCreated.
func (s *Service) CreateOrganization(ctx context.Context, name, slug string, createdBy uuid.UUID) (repository.Organization, error) {
	org, err := s.repo.CreateOrganization(ctx, repository.CreateOrganizationParams{
		Name:      name,
		Slug:      slug,
		CreatedBy: createdBy,
	})
	if err != nil {
		return repository.Organization{}, fmt.Errorf("create organization: %w", err)
	}

	adminRole, err := s.repo.CreateRole(ctx, repository.CreateRoleParams{
		OrganizationID: org.ID,
		Name:           "admin",
		Permissions: []string{
			PermViewAllLeads,
			PermEditAllLeads,
			PermCampaignRun,
			PermCampaignManage,
			PermPropertyManage,
			PermRoleManage,
			PermBillingView,
		},
	})
	if err != nil {
		return repository.Organization{}, fmt.Errorf("create admin role: %w", err)
	}

	if err := s.repo.AssignOrganization(ctx, createdBy, org.ID, adminRole.ID); err != nil {
		return repository.Organization{}, fmt.Errorf("assign admin role: %w", err)
	}
	s.cache.Invalidate(ctx, createdBy)

	s.bus.Publish(ctx, events.OrganizationCreated{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: org.ID,
		CreatedBy:      createdBy,
	})

	return org, nil
}

// ListProfiles returns all profiles in the organization.
func (s *Service) ListProfiles(ctx context.Context, orgID uuid.UUID) ([]repository.Profile, error) {
	return s.repo.ListProfiles(ctx, orgID)
}

// UpdateProfile updates the caller's own profile fields. Phone numbers are
// normalized to E.164 before storage.
func (s *Service) UpdateProfile(ctx context.Context, params repository.UpdateProfileParams) (repository.Profile, error) {
	if params.Phone != nil && *params.Phone != "" {
		if !phone.IsDialable(*params.Phone) {
			return repository.Profile{}, apperr.Validation("invalid phone number")
		}
		normalized := phone.NormalizeE164(*params.Phone)
		params.Phone = &normalized
	}
	return s.updateProfile(ctx, params)
}

// AssignRole sets a user's role after verifying the role belongs to the
// same organization.
func (s *Service) AssignRole(ctx context.Context, orgID, userID, roleID uuid.UUID) (repository.Profile, error) {
	if _, err := s.repo.GetRole(ctx, orgID, roleID); err != nil {
		return repository.Profile{}, err
	}
	return s.updateProfile(ctx, repository.UpdateProfileParams{
		UserID:         userID,
		OrganizationID: orgID,
		RoleID:         &roleID,
	})
}

// SetAvailability toggles whether the user can receive transferred calls.
func (s *Service) SetAvailability(ctx context.Context, orgID, userID uuid.UUID, available bool) (repository.Profile, error) {
	return s.updateProfile(ctx, repository.UpdateProfileParams{
		UserID:         userID,
		OrganizationID: orgID,
		IsAvailable:    &available,
	})
}

// FirstAvailableAgentPhone returns the dialable number of the first
// available employee in the organization. NotFound when nobody can take
// the call.
func (s *Service) FirstAvailableAgentPhone(ctx context.Context, orgID uuid.UUID) (string, error) {
	profile, err := s.repo.FirstAvailableAgent(ctx, orgID)
	if err != nil {
		return "", err
	}
	if profile.Phone == nil || *profile.Phone == "" {
		return "", apperr.NotFound("no available agent")
	}
	return *profile.Phone, nil
}

// OrganizationOwnerEmail resolves the email of whoever created the
// organization, the default recipient for tenant-level notifications.
func (s *Service) OrganizationOwnerEmail(ctx context.Context, orgID uuid.UUID) (string, error) {
	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return "", err
	}
	owner, err := s.Profile(ctx, org.CreatedBy)
	if err != nil {
		return "", err
	}
	return owner.Email, nil
}

// updateProfile is the single write path for profile mutations: persist,
// invalidate cache, publish.
func (s *Service) updateProfile(ctx context.Context, params repository.UpdateProfileParams) (repository.Profile, error) {
	profile, err := s.repo.UpdateProfile(ctx, params)
	if err != nil {
		return repository.Profile{}, err
	}

	s.cache.Invalidate(ctx, params.UserID)

	s.bus.Publish(ctx, events.ProfileUpdated{
		BaseEvent:      events.NewBaseEvent(),
		UserID:         params.UserID,
		OrganizationID: params.OrganizationID,
	})

	return profile, nil
}

// ListRoles returns the organization's roles.
func (s *Service) ListRoles(ctx context.Context, orgID uuid.UUID) ([]repository.Role, error) {
	return s.repo.ListRoles(ctx, orgID)
}

// CreateRole creates a role within the organization.
func (s *Service) CreateRole(ctx context.Context, params repository.CreateRoleParams) (repository.Role, error) {
	return s.repo.CreateRole(ctx, params)
}

// UpdateRolePermissions replaces a role's permission set and evicts every
// cached profile holding that role, so new permissions apply on the next
// request.
func (s *Service) UpdateRolePermissions(ctx context.Context, orgID, roleID uuid.UUID, permissions []string) (repository.Role, error) {
	role, err := s.repo.UpdateRolePermissions(ctx, orgID, roleID, permissions)
	if err != nil {
		return repository.Role{}, err
	}
	s.cache.InvalidateRole(ctx, roleID)
	return role, nil
}

// DeleteRole removes a role. Users referencing it fall back to no role and
// therefore no permissions.
func (s *Service) DeleteRole(ctx context.Context, orgID, roleID uuid.UUID) error {
	if err := s.repo.DeleteRole(ctx, orgID, roleID); err != nil {
		return err
	}
	s.cache.InvalidateRole(ctx, roleID)
	return nil
}
