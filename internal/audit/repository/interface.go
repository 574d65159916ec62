package repository

import (
	"context"

	"github.com/google/uuid"
)

type AuditRepository interface {
	Append(ctx context.Context, params AppendParams) error
	List(ctx context.Context, orgID uuid.UUID, limit int) ([]Entry, error)
}

var _ AuditRepository = (*Repository)(nil)
