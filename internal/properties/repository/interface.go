package repository

import (
	"context"

	"github.com/google/uuid"
)

type PropertyRepository interface {
	Create(ctx context.Context, params CreatePropertyParams) (Property, error)
	Get(ctx context.Context, orgID, propertyID uuid.UUID) (Property, error)
	List(ctx context.Context, orgID uuid.UUID, filters ListFilters) ([]Property, error)
	Update(ctx context.Context, orgID, propertyID uuid.UUID, params UpdatePropertyParams) (Property, error)
	Delete(ctx context.Context, orgID, propertyID uuid.UUID) error
	ChangeStatus(ctx context.Context, orgID, propertyID uuid.UUID, newStatus string, leadID *uuid.UUID) (Property, Project, error)
}

var _ PropertyRepository = (*Repository)(nil)
