package repository

import (
	"context"

	"github.com/google/uuid"
)

// LeadRepository defines lead and pipeline stage persistence.
type LeadRepository interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	Get(ctx context.Context, organizationID, leadID uuid.UUID) (Lead, error)
	List(ctx context.Context, organizationID uuid.UUID, filters ListFilters) ([]Lead, error)
	Update(ctx context.Context, params UpdateLeadParams) (Lead, error)
	Delete(ctx context.Context, organizationID, leadID uuid.UUID) error
	SetStage(ctx context.Context, organizationID, leadID, stageID uuid.UUID) (Lead, error)
	BulkUpdate(ctx context.Context, params BulkUpdateParams) (int64, error)
	MarkContacted(ctx context.Context, organizationID, leadID uuid.UUID, transferred bool) error

	ListStages(ctx context.Context, organizationID uuid.UUID) ([]PipelineStage, error)
	GetStage(ctx context.Context, organizationID, stageID uuid.UUID) (PipelineStage, error)
	CreateStage(ctx context.Context, organizationID uuid.UUID, name string, position int) (PipelineStage, error)
}

var _ LeadRepository = (*Repository)(nil)
