package service

import (
	"context"
	"testing"

	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/properties/repository"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(name string, handler events.Handler) {}

type statusCall struct {
	newStatus string
	leadID    *uuid.UUID
}

type fakeRepo struct {
	repository.PropertyRepository

	property    repository.Property
	project     repository.Project
	statusCalls []statusCall
	created     []repository.CreatePropertyParams
}

func (r *fakeRepo) Create(ctx context.Context, params repository.CreatePropertyParams) (repository.Property, error) {
	r.created = append(r.created, params)
	created := r.property
	created.Title = params.Title
	return created, nil
}

func (r *fakeRepo) Get(ctx context.Context, orgID, propertyID uuid.UUID) (repository.Property, error) {
	if r.property.ID != propertyID || r.property.OrganizationID != orgID {
		return repository.Property{}, apperr.NotFound("property not found")
	}
	return r.property, nil
}

func (r *fakeRepo) ChangeStatus(ctx context.Context, orgID, propertyID uuid.UUID, newStatus string, leadID *uuid.UUID) (repository.Property, repository.Project, error) {
	if r.property.ID != propertyID || r.property.OrganizationID != orgID {
		return repository.Property{}, repository.Project{}, apperr.NotFound("property not found")
	}
	r.statusCalls = append(r.statusCalls, statusCall{newStatus: newStatus, leadID: leadID})
	updated := r.property
	updated.Status = newStatus
	return updated, r.project, nil
}

func newFixture() (*Service, *fakeRepo, *recordingBus, repository.Property) {
	prop := repository.Property{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		ProjectID:      uuid.New(),
		Title:          "Unit 4B",
		Status:         repository.StatusAvailable,
	}
	repo := &fakeRepo{
		property: prop,
		project:  repository.Project{ID: prop.ProjectID, Name: "Sunrise Towers", TotalUnits: 10, AvailableUnits: 9, ReservedUnits: 1},
	}
	bus := &recordingBus{}
	svc := New(repo, nil, "property-photos", bus, logger.New("test"))
	return svc, repo, bus, prop
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	svc, repo, _, prop := newFixture()

	_, err := svc.ChangeStatus(context.Background(), prop.OrganizationID, prop.ID, uuid.New(), "demolished", nil)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.statusCalls) != 0 {
		t.Fatal("repository must not be called for an invalid status")
	}
}

func TestChangeStatusRejectsLeadOnRelease(t *testing.T) {
	svc, _, _, prop := newFixture()

	leadID := uuid.New()
	_, err := svc.ChangeStatus(context.Background(), prop.OrganizationID, prop.ID, uuid.New(), repository.StatusAvailable, &leadID)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestChangeStatusLinksLeadAndPublishes(t *testing.T) {
	svc, repo, bus, prop := newFixture()
	actor := uuid.New()
	leadID := uuid.New()

	change, err := svc.ChangeStatus(context.Background(), prop.OrganizationID, prop.ID, actor, repository.StatusReserved, &leadID)
	if err != nil {
		t.Fatalf("change status: %v", err)
	}

	if change.Property.Status != repository.StatusReserved {
		t.Errorf("property status = %q, want reserved", change.Property.Status)
	}
	if change.Project.Name != "Sunrise Towers" {
		t.Errorf("project aggregates missing from result")
	}
	if len(repo.statusCalls) != 1 || repo.statusCalls[0].leadID == nil || *repo.statusCalls[0].leadID != leadID {
		t.Fatalf("repository not called with linked lead: %+v", repo.statusCalls)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	evt, ok := bus.published[0].(events.PropertyStatusChanged)
	if !ok {
		t.Fatalf("unexpected event type %T", bus.published[0])
	}
	if evt.OldStatus != repository.StatusAvailable || evt.NewStatus != repository.StatusReserved {
		t.Errorf("event transition %s -> %s, want available -> reserved", evt.OldStatus, evt.NewStatus)
	}
	if evt.LinkedLeadID == nil || *evt.LinkedLeadID != leadID {
		t.Error("event missing linked lead")
	}
	if evt.ActorID != actor {
		t.Error("event missing actor")
	}
}

func TestChangeStatusCrossTenantIsNotFound(t *testing.T) {
	svc, _, bus, prop := newFixture()

	_, err := svc.ChangeStatus(context.Background(), uuid.New(), prop.ID, uuid.New(), repository.StatusSold, nil)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(bus.published) != 0 {
		t.Fatal("no event must be published on failure")
	}
}

func TestPhotoUploadURLRequiresStorage(t *testing.T) {
	svc, _, _, prop := newFixture()

	_, err := svc.PhotoUploadURL(context.Background(), prop.OrganizationID, prop.ID, "facade.jpg", "image/jpeg", 1024)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error when storage disabled, got %v", err)
	}
}

func TestCreateSanitizesTitle(t *testing.T) {
	svc, repo, _, prop := newFixture()

	created, err := svc.Create(context.Background(), repository.CreatePropertyParams{
		OrganizationID: prop.OrganizationID,
		ProjectID:      prop.ProjectID,
		Title:          "<b>Unit 4B</b> garden view",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Title != "Unit 4B garden view" {
		t.Errorf("title = %q, want markup stripped", created.Title)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(repo.created))
	}
}

func TestCreateRejectsMarkupOnlyTitle(t *testing.T) {
	svc, repo, _, prop := newFixture()

	_, err := svc.Create(context.Background(), repository.CreatePropertyParams{
		OrganizationID: prop.OrganizationID,
		ProjectID:      prop.ProjectID,
		Title:          "  <b></b>  ",
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatal("repository must not be called")
	}
}
