package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CampaignRepository defines campaign, project and call log persistence.
type CampaignRepository interface {
	CreateCampaign(ctx context.Context, params CreateCampaignParams) (Campaign, error)
	GetCampaign(ctx context.Context, organizationID, campaignID uuid.UUID) (Campaign, error)
	ListCampaigns(ctx context.Context, organizationID uuid.UUID) ([]Campaign, error)
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]Campaign, error)
	ClaimScheduled(ctx context.Context, organizationID, campaignID uuid.UUID) error
	DeleteCampaign(ctx context.Context, organizationID, campaignID uuid.UUID) error
	ProjectLeads(ctx context.Context, organizationID, projectID uuid.UUID) ([]CampaignLead, error)
	RecordRun(ctx context.Context, organizationID, campaignID uuid.UUID, records []CallRecord) (Campaign, error)

	CreateProject(ctx context.Context, organizationID uuid.UUID, name string, location *string) (Project, error)
	GetProject(ctx context.Context, organizationID, projectID uuid.UUID) (Project, error)
	ListProjects(ctx context.Context, organizationID uuid.UUID) ([]Project, error)
}

var _ CampaignRepository = (*Repository)(nil)
