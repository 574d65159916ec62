package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

type Lead struct {
	ID                 uuid.UUID
	OrganizationID     uuid.UUID
	ProjectID          *uuid.UUID
	StageID            *uuid.UUID
	Name               string
	Phone              string
	Email              *string
	Source             *string
	AssignedTo         *uuid.UUID
	PropertyID         *uuid.UUID
	TransferredToHuman bool
	LastContactedAt    *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type PipelineStage struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Position       int
}

type CreateLeadParams struct {
	OrganizationID uuid.UUID
	ProjectID      *uuid.UUID
	StageID        *uuid.UUID
	Name           string
	Phone          string
	Email          *string
	Source         *string
	AssignedTo     *uuid.UUID
}

// UpdateLeadParams updates a single lead. Nil fields are left unchanged.
type UpdateLeadParams struct {
	LeadID         uuid.UUID
	OrganizationID uuid.UUID
	Name           *string
	Phone          *string
	Email          *string
	Source         *string
	AssignedTo     *uuid.UUID
}

// ListFilters narrows List. Zero values mean "no filter".
type ListFilters struct {
	StageID    *uuid.UUID
	ProjectID  *uuid.UUID
	AssignedTo *uuid.UUID
	Search     string
	Limit      int
	Offset     int
}

// BulkUpdateParams applies the same changes to many leads at once. The
// restriction fields narrow the WHERE clause according to the caller's
// resolved access scope; rows narrowed away update nothing and report no
// error.
type BulkUpdateParams struct {
	OrganizationID uuid.UUID
	LeadIDs        []uuid.UUID
	StageID        *uuid.UUID
	AssignedTo     *uuid.UUID
	Source         *string

	// RestrictToOwner limits the update to leads assigned to this user.
	RestrictToOwner *uuid.UUID
	// RestrictToTeamOf limits the update to leads assigned to users who
	// share this user's role.
	RestrictToTeamOf *uuid.UUID
}

const leadColumns = `id, organization_id, project_id, stage_id, name, phone, email, source,
		assigned_to, property_id, transferred_to_human, last_contacted_at, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID,
		&lead.OrganizationID,
		&lead.ProjectID,
		&lead.StageID,
		&lead.Name,
		&lead.Phone,
		&lead.Email,
		&lead.Source,
		&lead.AssignedTo,
		&lead.PropertyID,
		&lead.TransferredToHuman,
		&lead.LastContactedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	return lead, err
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (organization_id, project_id, stage_id, name, phone, email, source, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+leadColumns+`
	`, params.OrganizationID, params.ProjectID, params.StageID, params.Name, params.Phone, params.Email, params.Source, params.AssignedTo))
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return lead, nil
}

const getLeadQuery = `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE id = $1 AND organization_id = $2`

func (r *Repository) Get(ctx context.Context, organizationID, leadID uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, getLeadQuery, leadID, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) List(ctx context.Context, organizationID uuid.UUID, filters ListFilters) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE organization_id = $1`
	args := []interface{}{organizationID}

	if filters.StageID != nil {
		args = append(args, *filters.StageID)
		query += fmt.Sprintf(" AND stage_id = $%d", len(args))
	}
	if filters.ProjectID != nil {
		args = append(args, *filters.ProjectID)
		query += fmt.Sprintf(" AND project_id = $%d", len(args))
	}
	if filters.AssignedTo != nil {
		args = append(args, *filters.AssignedTo)
		query += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		query += fmt.Sprintf(" AND (name ILIKE $%d OR phone ILIKE $%d)", len(args), len(args))
	}

	query += " ORDER BY created_at DESC"

	limit := filters.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

func (r *Repository) Update(ctx context.Context, params UpdateLeadParams) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET
			name = COALESCE($3, name),
			phone = COALESCE($4, phone),
			email = COALESCE($5, email),
			source = COALESCE($6, source),
			assigned_to = COALESCE($7, assigned_to),
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING `+leadColumns+`
	`, params.LeadID, params.OrganizationID, params.Name, params.Phone, params.Email, params.Source, params.AssignedTo))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return Lead{}, fmt.Errorf("update lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) Delete(ctx context.Context, organizationID, leadID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM leads WHERE id = $1 AND organization_id = $2
	`, leadID, organizationID)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lead not found")
	}
	return nil
}

func (r *Repository) SetStage(ctx context.Context, organizationID, leadID, stageID uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET stage_id = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING `+leadColumns+`
	`, leadID, organizationID, stageID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return Lead{}, fmt.Errorf("set lead stage: %w", err)
	}
	return lead, nil
}

// BuildBulkUpdate assembles the bulk UPDATE statement. Split out so the
// scope narrowing can be asserted without a database.
func BuildBulkUpdate(params BulkUpdateParams) (string, []interface{}) {
	sets := make([]string, 0, 3)
	args := []interface{}{params.OrganizationID, params.LeadIDs}

	if params.StageID != nil {
		args = append(args, *params.StageID)
		sets = append(sets, fmt.Sprintf("stage_id = $%d", len(args)))
	}
	if params.AssignedTo != nil {
		args = append(args, *params.AssignedTo)
		sets = append(sets, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if params.Source != nil {
		args = append(args, *params.Source)
		sets = append(sets, fmt.Sprintf("source = $%d", len(args)))
	}
	sets = append(sets, "updated_at = now()")

	query := "UPDATE leads SET " + strings.Join(sets, ", ") +
		" WHERE organization_id = $1 AND id = ANY($2)"

	if params.RestrictToOwner != nil {
		args = append(args, *params.RestrictToOwner)
		query += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	} else if params.RestrictToTeamOf != nil {
		args = append(args, *params.RestrictToTeamOf)
		query += fmt.Sprintf(` AND assigned_to IN (
			SELECT id FROM users
			WHERE organization_id = $1
			AND role_id = (SELECT role_id FROM users WHERE id = $%d)
		)`, len(args))
	}

	return query, args
}

// BulkUpdate applies the changes and reports how many rows matched. Leads
// outside the caller's scope simply do not match; that is not an error.
func (r *Repository) BulkUpdate(ctx context.Context, params BulkUpdateParams) (int64, error) {
	if len(params.LeadIDs) == 0 {
		return 0, nil
	}
	if params.StageID == nil && params.AssignedTo == nil && params.Source == nil {
		return 0, apperr.Validation("no updates provided")
	}

	query, args := BuildBulkUpdate(params)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk update leads: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkContacted stamps a lead after an outbound call.
func (r *Repository) MarkContacted(ctx context.Context, organizationID, leadID uuid.UUID, transferred bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET
			transferred_to_human = transferred_to_human OR $3,
			last_contacted_at = now(),
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
	`, leadID, organizationID, transferred)
	if err != nil {
		return fmt.Errorf("mark lead contacted: %w", err)
	}
	return nil
}

const listStagesQuery = `
		SELECT id, organization_id, name, position
		FROM pipeline_stages
		WHERE organization_id = $1
		ORDER BY position ASC`

func (r *Repository) ListStages(ctx context.Context, organizationID uuid.UUID) ([]PipelineStage, error) {
	rows, err := r.pool.Query(ctx, listStagesQuery, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	stages := make([]PipelineStage, 0)
	for rows.Next() {
		var stage PipelineStage
		if err := rows.Scan(&stage.ID, &stage.OrganizationID, &stage.Name, &stage.Position); err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return stages, nil
}

func (r *Repository) GetStage(ctx context.Context, organizationID, stageID uuid.UUID) (PipelineStage, error) {
	var stage PipelineStage
	err := r.pool.QueryRow(ctx, `
		SELECT id, organization_id, name, position
		FROM pipeline_stages
		WHERE id = $1 AND organization_id = $2
	`, stageID, organizationID).Scan(&stage.ID, &stage.OrganizationID, &stage.Name, &stage.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return PipelineStage{}, apperr.NotFound("stage not found")
	}
	if err != nil {
		return PipelineStage{}, fmt.Errorf("get stage: %w", err)
	}
	return stage, nil
}

func (r *Repository) CreateStage(ctx context.Context, organizationID uuid.UUID, name string, position int) (PipelineStage, error) {
	var stage PipelineStage
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pipeline_stages (organization_id, name, position)
		VALUES ($1, $2, $3)
		RETURNING id, organization_id, name, position
	`, organizationID, name, position).Scan(&stage.ID, &stage.OrganizationID, &stage.Name, &stage.Position)
	if err != nil {
		return PipelineStage{}, fmt.Errorf("create stage: %w", err)
	}
	return stage, nil
}
