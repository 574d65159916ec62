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

const (
	StatusAvailable = "available"
	StatusReserved  = "reserved"
	StatusSold      = "sold"
)

// Property is a single sellable unit within a project.
type Property struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	ProjectID      uuid.UUID
	Title          string
	Address        *string
	PriceCents     *int64
	Bedrooms       *int
	AreaSqft       *int
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Project mirrors the stored unit aggregates returned after a status change.
type Project struct {
	ID             uuid.UUID
	Name           string
	TotalUnits     int
	AvailableUnits int
	ReservedUnits  int
	SoldUnits      int
}

type CreatePropertyParams struct {
	OrganizationID uuid.UUID
	ProjectID      uuid.UUID
	Title          string
	Address        *string
	PriceCents     *int64
	Bedrooms       *int
	AreaSqft       *int
}

type UpdatePropertyParams struct {
	Title      *string
	Address    *string
	PriceCents *int64
	Bedrooms   *int
	AreaSqft   *int
}

type ListFilters struct {
	ProjectID *uuid.UUID
	Status    *string
}

const propertyColumns = `id, organization_id, project_id, title, address, price_cents, bedrooms, area_sqft, status, created_at, updated_at`

// Query fragments shared by the transactional status change. Exported as
// constants so the tenant scoping can be asserted in tests.
const (
	GetPropertyForUpdateQuery = `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1 AND organization_id = $2 FOR UPDATE`

	ClearOtherLeadsQuery = `UPDATE leads SET property_id = NULL, updated_at = now()
		WHERE property_id = $1 AND organization_id = $2 AND id <> $3`

	ClearAllLeadsQuery = `UPDATE leads SET property_id = NULL, updated_at = now()
		WHERE property_id = $1 AND organization_id = $2`

	LinkLeadQuery = `UPDATE leads SET property_id = $1, updated_at = now()
		WHERE id = $2 AND organization_id = $3`

	RefreshProjectUnitsQuery = `UPDATE projects SET
		total_units = (SELECT COUNT(*) FROM properties WHERE project_id = projects.id),
		available_units = (SELECT COUNT(*) FROM properties WHERE project_id = projects.id AND status = 'available'),
		reserved_units = (SELECT COUNT(*) FROM properties WHERE project_id = projects.id AND status = 'reserved'),
		sold_units = (SELECT COUNT(*) FROM properties WHERE project_id = projects.id AND status = 'sold')
		WHERE id = $1 AND organization_id = $2
		RETURNING id, name, total_units, available_units, reserved_units, sold_units`
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanProperty(row pgx.Row) (Property, error) {
	var p Property
	err := row.Scan(&p.ID, &p.OrganizationID, &p.ProjectID, &p.Title, &p.Address,
		&p.PriceCents, &p.Bedrooms, &p.AreaSqft, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repository) Create(ctx context.Context, params CreatePropertyParams) (Property, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND organization_id = $2)`,
		params.ProjectID, params.OrganizationID).Scan(&exists)
	if err != nil {
		return Property{}, fmt.Errorf("check project: %w", err)
	}
	if !exists {
		return Property{}, apperr.NotFound("project not found")
	}

	query := `INSERT INTO properties (organization_id, project_id, title, address, price_cents, bedrooms, area_sqft, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'available')
		RETURNING ` + propertyColumns

	p, err := scanProperty(r.pool.QueryRow(ctx, query,
		params.OrganizationID, params.ProjectID, params.Title, params.Address,
		params.PriceCents, params.Bedrooms, params.AreaSqft))
	if err != nil {
		return Property{}, fmt.Errorf("create property: %w", err)
	}
	return p, nil
}

func (r *Repository) Get(ctx context.Context, orgID, propertyID uuid.UUID) (Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1 AND organization_id = $2`

	p, err := scanProperty(r.pool.QueryRow(ctx, query, propertyID, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, apperr.NotFound("property not found")
		}
		return Property{}, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

func (r *Repository) List(ctx context.Context, orgID uuid.UUID, filters ListFilters) ([]Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE organization_id = $1`
	args := []interface{}{orgID}

	if filters.ProjectID != nil {
		args = append(args, *filters.ProjectID)
		query += fmt.Sprintf(" AND project_id = $%d", len(args))
	}
	if filters.Status != nil {
		args = append(args, *filters.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var properties []Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

func (r *Repository) Update(ctx context.Context, orgID, propertyID uuid.UUID, params UpdatePropertyParams) (Property, error) {
	query := `UPDATE properties SET
		title = COALESCE($3, title),
		address = COALESCE($4, address),
		price_cents = COALESCE($5, price_cents),
		bedrooms = COALESCE($6, bedrooms),
		area_sqft = COALESCE($7, area_sqft),
		updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + propertyColumns

	p, err := scanProperty(r.pool.QueryRow(ctx, query, propertyID, orgID,
		params.Title, params.Address, params.PriceCents, params.Bedrooms, params.AreaSqft))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, apperr.NotFound("property not found")
		}
		return Property{}, fmt.Errorf("update property: %w", err)
	}
	return p, nil
}

func (r *Repository) Delete(ctx context.Context, orgID, propertyID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1 AND organization_id = $2`, propertyID, orgID)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("property not found")
	}
	return nil
}

// ChangeStatus transitions a property and maintains the lead linkage
// invariant in a single transaction: at most one lead references a reserved
// or sold property, and none reference an available one. The project's unit
// aggregates are refreshed in the same transaction.
func (r *Repository) ChangeStatus(ctx context.Context, orgID, propertyID uuid.UUID, newStatus string, leadID *uuid.UUID) (Property, Project, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Property{}, Project{}, fmt.Errorf("begin status change: %w", err)
	}
	defer tx.Rollback(ctx)

	prop, err := scanProperty(tx.QueryRow(ctx, GetPropertyForUpdateQuery, propertyID, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, Project{}, apperr.NotFound("property not found")
		}
		return Property{}, Project{}, fmt.Errorf("lock property: %w", err)
	}

	switch newStatus {
	case StatusAvailable:
		if _, err := tx.Exec(ctx, ClearAllLeadsQuery, propertyID, orgID); err != nil {
			return Property{}, Project{}, fmt.Errorf("clear lead links: %w", err)
		}
	case StatusReserved, StatusSold:
		if leadID != nil {
			if _, err := tx.Exec(ctx, ClearOtherLeadsQuery, propertyID, orgID, *leadID); err != nil {
				return Property{}, Project{}, fmt.Errorf("clear other lead links: %w", err)
			}
			tag, err := tx.Exec(ctx, LinkLeadQuery, propertyID, *leadID, orgID)
			if err != nil {
				return Property{}, Project{}, fmt.Errorf("link lead: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return Property{}, Project{}, apperr.NotFound("lead not found")
			}
		}
	}

	prop, err = scanProperty(tx.QueryRow(ctx,
		`UPDATE properties SET status = $3, updated_at = now()
		 WHERE id = $1 AND organization_id = $2
		 RETURNING `+propertyColumns,
		propertyID, orgID, newStatus))
	if err != nil {
		return Property{}, Project{}, fmt.Errorf("update property status: %w", err)
	}

	var proj Project
	err = tx.QueryRow(ctx, RefreshProjectUnitsQuery, prop.ProjectID, orgID).Scan(
		&proj.ID, &proj.Name, &proj.TotalUnits, &proj.AvailableUnits, &proj.ReservedUnits, &proj.SoldUnits)
	if err != nil {
		return Property{}, Project{}, fmt.Errorf("refresh project units: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Property{}, Project{}, fmt.Errorf("commit status change: %w", err)
	}
	return prop, proj, nil
}
