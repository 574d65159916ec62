package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estate_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

type Campaign struct {
	ID               uuid.UUID
	OrganizationID   uuid.UUID
	ProjectID        uuid.UUID
	Name             string
	Status           string
	TotalCalls       int
	TransferredCalls int
	StartDate        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Project struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Location       *string
	TotalUnits     int
	AvailableUnits int
	ReservedUnits  int
	SoldUnits      int
	CreatedAt      time.Time
}

// CampaignLead is the slice of a lead the simulation needs.
type CampaignLead struct {
	ID    uuid.UUID
	Name  string
	Phone string
}

// CallRecord is one simulated call ready to persist.
type CallRecord struct {
	LeadID          uuid.UUID
	CallSID         string
	Outcome         string
	Transferred     bool
	DurationSeconds int
	Notes           string
}

type CreateCampaignParams struct {
	OrganizationID uuid.UUID
	ProjectID      uuid.UUID
	Name           string
	Status         string
	StartDate      *time.Time
}

const campaignColumns = `id, organization_id, project_id, name, status, total_calls, transferred_calls, start_date, created_at, updated_at`

func scanCampaign(row pgx.Row) (Campaign, error) {
	var c Campaign
	err := row.Scan(
		&c.ID,
		&c.OrganizationID,
		&c.ProjectID,
		&c.Name,
		&c.Status,
		&c.TotalCalls,
		&c.TransferredCalls,
		&c.StartDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func (r *Repository) CreateCampaign(ctx context.Context, params CreateCampaignParams) (Campaign, error) {
	status := params.Status
	if status == "" {
		status = StatusDraft
	}
	campaign, err := scanCampaign(r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (organization_id, project_id, name, status, start_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+campaignColumns+`
	`, params.OrganizationID, params.ProjectID, params.Name, status, params.StartDate))
	if err != nil {
		return Campaign{}, fmt.Errorf("create campaign: %w", err)
	}
	return campaign, nil
}

const getCampaignQuery = `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE id = $1 AND organization_id = $2`

func (r *Repository) GetCampaign(ctx context.Context, organizationID, campaignID uuid.UUID) (Campaign, error) {
	campaign, err := scanCampaign(r.pool.QueryRow(ctx, getCampaignQuery, campaignID, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, apperr.NotFound("campaign not found")
	}
	if err != nil {
		return Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	return campaign, nil
}

func (r *Repository) ListCampaigns(ctx context.Context, organizationID uuid.UUID) ([]Campaign, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := make([]Campaign, 0)
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return campaigns, nil
}

// ListDueScheduled returns scheduled campaigns whose start date has passed,
// across all organizations. Used by the worker only.
func (r *Repository) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]Campaign, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE status = $1 AND start_date IS NOT NULL AND start_date <= $2
		ORDER BY start_date ASC
		LIMIT $3
	`, StatusScheduled, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due scheduled campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := make([]Campaign, 0)
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return campaigns, nil
}

const projectLeadsQuery = `
		SELECT id, name, phone
		FROM leads
		WHERE organization_id = $1 AND project_id = $2
		ORDER BY created_at ASC`

// ProjectLeads returns the leads the campaign will dial.
func (r *Repository) ProjectLeads(ctx context.Context, organizationID, projectID uuid.UUID) ([]CampaignLead, error) {
	rows, err := r.pool.Query(ctx, projectLeadsQuery, organizationID, projectID)
	if err != nil {
		return nil, fmt.Errorf("project leads: %w", err)
	}
	defer rows.Close()

	leads := make([]CampaignLead, 0)
	for rows.Next() {
		var lead CampaignLead
		if err := rows.Scan(&lead.ID, &lead.Name, &lead.Phone); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

// ClaimScheduled atomically moves a scheduled campaign to active, so exactly
// one of the exact-time task and the periodic sweep performs the run.
func (r *Repository) ClaimScheduled(ctx context.Context, organizationID, campaignID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET status = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND status = $4
	`, campaignID, organizationID, StatusActive, StatusScheduled)
	if err != nil {
		return fmt.Errorf("claim scheduled campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("campaign is not scheduled")
	}
	return nil
}

// RecordRun persists a completed simulation atomically: every call log, every
// lead contact update, and the campaign totals commit or roll back together.
func (r *Repository) RecordRun(ctx context.Context, organizationID, campaignID uuid.UUID, records []CallRecord) (Campaign, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Campaign{}, fmt.Errorf("record run: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	transferred := 0
	for _, record := range records {
		if _, err := tx.Exec(ctx, `
			INSERT INTO call_logs (organization_id, campaign_id, lead_id, call_sid, outcome, duration_seconds, transferred, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, organizationID, campaignID, record.LeadID, record.CallSID, record.Outcome, record.DurationSeconds, record.Transferred, record.Notes); err != nil {
			return Campaign{}, fmt.Errorf("record run: insert call log: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE leads SET
				transferred_to_human = transferred_to_human OR $3,
				last_contacted_at = now(),
				updated_at = now()
			WHERE id = $1 AND organization_id = $2
		`, record.LeadID, organizationID, record.Transferred); err != nil {
			return Campaign{}, fmt.Errorf("record run: update lead: %w", err)
		}

		if record.Transferred {
			transferred++
		}
	}

	campaign, err := scanCampaign(tx.QueryRow(ctx, `
		UPDATE campaigns SET
			total_calls = total_calls + $3,
			transferred_calls = transferred_calls + $4,
			status = $5,
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING `+campaignColumns+`
	`, campaignID, organizationID, len(records), transferred, StatusCompleted))
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, apperr.NotFound("campaign not found")
	}
	if err != nil {
		return Campaign{}, fmt.Errorf("record run: update campaign: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Campaign{}, fmt.Errorf("record run: commit: %w", err)
	}
	return campaign, nil
}

func (r *Repository) DeleteCampaign(ctx context.Context, organizationID, campaignID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM campaigns WHERE id = $1 AND organization_id = $2
	`, campaignID, organizationID)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("campaign not found")
	}
	return nil
}

const projectColumns = `id, organization_id, name, location, total_units, available_units, reserved_units, sold_units, created_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(
		&p.ID,
		&p.OrganizationID,
		&p.Name,
		&p.Location,
		&p.TotalUnits,
		&p.AvailableUnits,
		&p.ReservedUnits,
		&p.SoldUnits,
		&p.CreatedAt,
	)
	return p, err
}

func (r *Repository) CreateProject(ctx context.Context, organizationID uuid.UUID, name string, location *string) (Project, error) {
	project, err := scanProject(r.pool.QueryRow(ctx, `
		INSERT INTO projects (organization_id, name, location)
		VALUES ($1, $2, $3)
		RETURNING `+projectColumns+`
	`, organizationID, name, location))
	if err != nil {
		return Project{}, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

func (r *Repository) GetProject(ctx context.Context, organizationID, projectID uuid.UUID) (Project, error) {
	project, err := scanProject(r.pool.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1 AND organization_id = $2
	`, projectID, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, apperr.NotFound("project not found")
	}
	if err != nil {
		return Project{}, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

func (r *Repository) ListProjects(ctx context.Context, organizationID uuid.UUID) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return projects, nil
}
