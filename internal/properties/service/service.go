package service

import (
	"context"
	"fmt"

	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/properties/repository"
	"estate_crm_backend/internal/storage"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/sanitize"

	"github.com/google/uuid"
)

var validStatuses = map[string]bool{
	repository.StatusAvailable: true,
	repository.StatusReserved:  true,
	repository.StatusSold:      true,
}

// StatusChange is the result of a status transition: the updated property
// plus the stored unit aggregates of its project.
type StatusChange struct {
	Property repository.Property
	Project  repository.Project
}

type Service struct {
	repo         repository.PropertyRepository
	store        storage.Service
	photosBucket string
	bus          events.Bus
	log          *logger.Logger
}

// New builds the property service. store may be nil when object storage is
// not configured; photo endpoints then reject with a validation error.
func New(repo repository.PropertyRepository, store storage.Service, photosBucket string, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, store: store, photosBucket: photosBucket, bus: bus, log: log}
}

func (s *Service) Create(ctx context.Context, params repository.CreatePropertyParams) (repository.Property, error) {
	params.Title = sanitize.Text(params.Title)
	if params.Title == "" {
		return repository.Property{}, apperr.Validation("title is required")
	}
	return s.repo.Create(ctx, params)
}

func (s *Service) Get(ctx context.Context, orgID, propertyID uuid.UUID) (repository.Property, error) {
	return s.repo.Get(ctx, orgID, propertyID)
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID, filters repository.ListFilters) ([]repository.Property, error) {
	return s.repo.List(ctx, orgID, filters)
}

func (s *Service) Update(ctx context.Context, orgID, propertyID uuid.UUID, params repository.UpdatePropertyParams) (repository.Property, error) {
	if params.Title != nil {
		clean := sanitize.Text(*params.Title)
		if clean == "" {
			return repository.Property{}, apperr.Validation("title cannot be empty")
		}
		params.Title = &clean
	}
	return s.repo.Update(ctx, orgID, propertyID, params)
}

func (s *Service) Delete(ctx context.Context, orgID, propertyID uuid.UUID) error {
	return s.repo.Delete(ctx, orgID, propertyID)
}

// ChangeStatus moves a property between available, reserved and sold. A
// lead may only be linked when reserving or selling; returning to available
// always severs lead links.
func (s *Service) ChangeStatus(ctx context.Context, orgID, propertyID, actorID uuid.UUID, newStatus string, leadID *uuid.UUID) (StatusChange, error) {
	if !validStatuses[newStatus] {
		return StatusChange{}, apperr.Validation(fmt.Sprintf("invalid property status %q", newStatus))
	}
	if newStatus == repository.StatusAvailable && leadID != nil {
		return StatusChange{}, apperr.Validation("a lead cannot be linked when releasing a property")
	}

	oldProp, err := s.repo.Get(ctx, orgID, propertyID)
	if err != nil {
		return StatusChange{}, err
	}

	prop, proj, err := s.repo.ChangeStatus(ctx, orgID, propertyID, newStatus, leadID)
	if err != nil {
		return StatusChange{}, err
	}

	s.bus.Publish(ctx, events.PropertyStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		PropertyID:     prop.ID,
		OrganizationID: orgID,
		OldStatus:      oldProp.Status,
		NewStatus:      prop.Status,
		LinkedLeadID:   leadID,
		ActorID:        actorID,
	})

	s.log.Info("property status changed",
		"property_id", prop.ID.String(),
		"old_status", oldProp.Status,
		"new_status", prop.Status,
	)
	return StatusChange{Property: prop, Project: proj}, nil
}

// PhotoUploadURL presigns a direct upload for a property photo. Only image
// content types are accepted here regardless of the wider storage allowlist.
func (s *Service) PhotoUploadURL(ctx context.Context, orgID, propertyID uuid.UUID, fileName, contentType string, sizeBytes int64) (*storage.PresignedURL, error) {
	if s.store == nil {
		return nil, apperr.Validation("object storage is not configured")
	}
	if !storage.IsImageContentType(contentType) {
		return nil, apperr.Validation("property photos must be images")
	}
	if err := s.store.ValidateContentType(contentType); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := s.store.ValidateFileSize(sizeBytes); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if _, err := s.repo.Get(ctx, orgID, propertyID); err != nil {
		return nil, err
	}

	folder := fmt.Sprintf("%s/%s", orgID, propertyID)
	return s.store.GenerateUploadURL(ctx, s.photosBucket, folder, fileName, contentType, sizeBytes)
}

// PhotoDownloadURL presigns a download for a previously uploaded photo.
func (s *Service) PhotoDownloadURL(ctx context.Context, orgID, propertyID uuid.UUID, fileKey string) (*storage.PresignedURL, error) {
	if s.store == nil {
		return nil, apperr.Validation("object storage is not configured")
	}
	if _, err := s.repo.Get(ctx, orgID, propertyID); err != nil {
		return nil, err
	}
	return s.store.GenerateDownloadURL(ctx, s.photosBucket, fileKey)
}
