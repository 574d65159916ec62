package service

import (
	"context"

	"estate_crm_backend/internal/events"
	identitysvc "estate_crm_backend/internal/identity/service"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/phone"
	"estate_crm_backend/platform/sanitize"

	"github.com/google/uuid"
)

// PermissionResolver answers scope questions for bulk operations.
// Implemented by the identity module's resolver.
type PermissionResolver interface {
	ResolveScope(ctx context.Context, userID uuid.UUID, feature identitysvc.ScopeFeature) identitysvc.AccessScope
}

type Service struct {
	repo     repository.LeadRepository
	resolver PermissionResolver
	bus      events.Bus
	log      *logger.Logger
}

func New(repo repository.LeadRepository, resolver PermissionResolver, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, bus: bus, log: log}
}

// BulkUpdates is the set of changes applied by a bulk update.
type BulkUpdates struct {
	StageID    *uuid.UUID
	AssignedTo *uuid.UUID
	Source     *string
}

func (s *Service) Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	params.Name = sanitize.Text(params.Name)
	if params.Name == "" {
		return repository.Lead{}, apperr.Validation("name is required")
	}

	if !phone.IsDialable(params.Phone) {
		return repository.Lead{}, apperr.Validation("invalid phone number")
	}
	params.Phone = phone.NormalizeE164(params.Phone)
	params.Source = sanitize.TextPtr(params.Source)

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return repository.Lead{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		OrganizationID: lead.OrganizationID,
		ProjectID:      lead.ProjectID,
		Name:           lead.Name,
		Source:         stringOrEmpty(lead.Source),
	})

	return lead, nil
}

func (s *Service) Get(ctx context.Context, orgID, leadID uuid.UUID) (repository.Lead, error) {
	return s.repo.Get(ctx, orgID, leadID)
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID, filters repository.ListFilters) ([]repository.Lead, error) {
	return s.repo.List(ctx, orgID, filters)
}

func (s *Service) Update(ctx context.Context, params repository.UpdateLeadParams) (repository.Lead, error) {
	if params.Phone != nil {
		if !phone.IsDialable(*params.Phone) {
			return repository.Lead{}, apperr.Validation("invalid phone number")
		}
		normalized := phone.NormalizeE164(*params.Phone)
		params.Phone = &normalized
	}
	if params.Name != nil {
		clean := sanitize.Text(*params.Name)
		if clean == "" {
			return repository.Lead{}, apperr.Validation("name cannot be empty")
		}
		params.Name = &clean
	}
	params.Source = sanitize.TextPtr(params.Source)
	return s.repo.Update(ctx, params)
}

func (s *Service) Delete(ctx context.Context, orgID, leadID uuid.UUID) error {
	return s.repo.Delete(ctx, orgID, leadID)
}

// ChangeStage moves a lead to another pipeline stage and publishes the
// transition.
func (s *Service) ChangeStage(ctx context.Context, orgID, leadID, stageID, actorID uuid.UUID) (repository.Lead, error) {
	// Stage must belong to the same organization.
	if _, err := s.repo.GetStage(ctx, orgID, stageID); err != nil {
		return repository.Lead{}, err
	}

	before, err := s.repo.Get(ctx, orgID, leadID)
	if err != nil {
		return repository.Lead{}, err
	}

	lead, err := s.repo.SetStage(ctx, orgID, leadID, stageID)
	if err != nil {
		return repository.Lead{}, err
	}

	s.bus.Publish(ctx, events.LeadStageChanged{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		OrganizationID: orgID,
		OldStageID:     before.StageID,
		NewStageID:     stageID,
		ActorID:        actorID,
	})

	return lead, nil
}

// BulkUpdate applies updates to many leads under the caller's resolved
// access scope. A caller whose scope excludes some of the requested leads
// gets a smaller updatedCount, never an error.
func (s *Service) BulkUpdate(ctx context.Context, orgID, callerID uuid.UUID, leadIDs []uuid.UUID, updates BulkUpdates) (int64, error) {
	scope := s.resolver.ResolveScope(ctx, callerID, identitysvc.LeadEditScope)

	params := repository.BulkUpdateParams{
		OrganizationID: orgID,
		LeadIDs:        leadIDs,
		StageID:        updates.StageID,
		AssignedTo:     updates.AssignedTo,
		Source:         updates.Source,
	}

	switch scope {
	case identitysvc.ScopeAll:
	case identitysvc.ScopeTeam:
		params.RestrictToTeamOf = &callerID
	case identitysvc.ScopeOwn:
		params.RestrictToOwner = &callerID
	default:
		return 0, apperr.Forbidden("no lead edit permission")
	}

	updated, err := s.repo.BulkUpdate(ctx, params)
	if err != nil {
		return 0, err
	}

	s.log.Info("bulk lead update",
		"organization_id", orgID.String(),
		"requested", len(leadIDs),
		"updated", updated,
		"scope", scope.String(),
	)
	return updated, nil
}

func (s *Service) ListStages(ctx context.Context, orgID uuid.UUID) ([]repository.PipelineStage, error) {
	return s.repo.ListStages(ctx, orgID)
}

func (s *Service) CreateStage(ctx context.Context, orgID uuid.UUID, name string, position int) (repository.PipelineStage, error) {
	name = sanitize.Text(name)
	if name == "" {
		return repository.PipelineStage{}, apperr.Validation("name is required")
	}
	return s.repo.CreateStage(ctx, orgID, name, position)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
