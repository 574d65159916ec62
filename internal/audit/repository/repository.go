package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one append-only audit record. Rows are never updated or deleted.
type Entry struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	ActorID        *uuid.UUID
	Action         string
	EntityType     string
	EntityID       *uuid.UUID
	Detail         json.RawMessage
	OccurredAt     time.Time
	CreatedAt      time.Time
}

type AppendParams struct {
	OrganizationID uuid.UUID
	ActorID        *uuid.UUID
	Action         string
	EntityType     string
	EntityID       *uuid.UUID
	Detail         interface{}
	OccurredAt     time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Append(ctx context.Context, params AppendParams) error {
	detail, err := json.Marshal(params.Detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO audit_logs (organization_id, actor_id, action, entity_type, entity_id, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		params.OrganizationID, params.ActorID, params.Action, params.EntityType, params.EntityID, detail, params.OccurredAt)
	if err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, orgID uuid.UUID, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, organization_id, actor_id, action, entity_type, entity_id, detail, occurred_at, created_at
		FROM audit_logs
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.ActorID, &e.Action, &e.EntityType,
			&e.EntityID, &e.Detail, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
