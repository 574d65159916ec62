package service

import (
	"context"
	"testing"

	"estate_crm_backend/internal/events"
	identitysvc "estate_crm_backend/internal/identity/service"
	"estate_crm_backend/internal/leads/repository"
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
func (b *recordingBus) Subscribe(eventName string, handler events.Handler) {}

type fixedScopeResolver struct {
	scope identitysvc.AccessScope
}

func (r fixedScopeResolver) ResolveScope(ctx context.Context, userID uuid.UUID, feature identitysvc.ScopeFeature) identitysvc.AccessScope {
	return r.scope
}

type bulkRecordingRepo struct {
	repository.LeadRepository

	lastBulk repository.BulkUpdateParams
	matched  int64
}

func (r *bulkRecordingRepo) BulkUpdate(ctx context.Context, params repository.BulkUpdateParams) (int64, error) {
	r.lastBulk = params
	return r.matched, nil
}

func newBulkService(scope identitysvc.AccessScope, matched int64) (*Service, *bulkRecordingRepo) {
	repo := &bulkRecordingRepo{matched: matched}
	svc := New(repo, fixedScopeResolver{scope: scope}, &recordingBus{}, logger.New("test"))
	return svc, repo
}

func TestBulkUpdateScopeNoneForbidden(t *testing.T) {
	svc, _ := newBulkService(identitysvc.ScopeNone, 0)
	stage := uuid.New()

	_, err := svc.BulkUpdate(context.Background(), uuid.New(), uuid.New(), []uuid.UUID{uuid.New()}, BulkUpdates{StageID: &stage})
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden kind, got %v", err)
	}
}

func TestBulkUpdateScopeOwnNarrowsToCaller(t *testing.T) {
	svc, repo := newBulkService(identitysvc.ScopeOwn, 0)
	caller := uuid.New()
	stage := uuid.New()

	// Leads assigned to someone else: the narrowed WHERE matches nothing,
	// which is a zero count, not an error.
	updated, err := svc.BulkUpdate(context.Background(), uuid.New(), caller, []uuid.UUID{uuid.New(), uuid.New()}, BulkUpdates{StageID: &stage})
	if err != nil {
		t.Fatalf("scope-own update of unowned leads must not error: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected 0 updated rows, got %d", updated)
	}
	if repo.lastBulk.RestrictToOwner == nil || *repo.lastBulk.RestrictToOwner != caller {
		t.Fatal("own scope must restrict the update to the caller's leads")
	}
}

func TestBulkUpdateScopeTeamNarrows(t *testing.T) {
	svc, repo := newBulkService(identitysvc.ScopeTeam, 3)
	caller := uuid.New()
	stage := uuid.New()

	updated, err := svc.BulkUpdate(context.Background(), uuid.New(), caller, []uuid.UUID{uuid.New()}, BulkUpdates{StageID: &stage})
	if err != nil {
		t.Fatalf("bulk update: %v", err)
	}
	if updated != 3 {
		t.Fatalf("expected matched count passthrough, got %d", updated)
	}
	if repo.lastBulk.RestrictToTeamOf == nil || *repo.lastBulk.RestrictToTeamOf != caller {
		t.Fatal("team scope must restrict to the caller's team")
	}
	if repo.lastBulk.RestrictToOwner != nil {
		t.Fatal("team scope must not set owner restriction")
	}
}

func TestBulkUpdateScopeAllUnrestricted(t *testing.T) {
	svc, repo := newBulkService(identitysvc.ScopeAll, 5)
	stage := uuid.New()

	if _, err := svc.BulkUpdate(context.Background(), uuid.New(), uuid.New(), []uuid.UUID{uuid.New()}, BulkUpdates{StageID: &stage}); err != nil {
		t.Fatalf("bulk update: %v", err)
	}
	if repo.lastBulk.RestrictToOwner != nil || repo.lastBulk.RestrictToTeamOf != nil {
		t.Fatal("all scope must not narrow the update")
	}
}

type createRecordingRepo struct {
	repository.LeadRepository

	created repository.CreateLeadParams
}

func (r *createRecordingRepo) Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	r.created = params
	return repository.Lead{
		ID:             uuid.New(),
		OrganizationID: params.OrganizationID,
		Name:           params.Name,
		Phone:          params.Phone,
		Source:         params.Source,
	}, nil
}

func TestCreateNormalizesPhoneAndStripsHTML(t *testing.T) {
	repo := &createRecordingRepo{}
	bus := &recordingBus{}
	svc := New(repo, fixedScopeResolver{}, bus, logger.New("test"))

	lead, err := svc.Create(context.Background(), repository.CreateLeadParams{
		OrganizationID: uuid.New(),
		Name:           "<b>Asha</b> Rao",
		Phone:          "098765 43210",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if lead.Name != "Asha Rao" {
		t.Fatalf("expected HTML stripped from name, got %q", lead.Name)
	}
	if repo.created.Phone != "+919876543210" {
		t.Fatalf("expected E.164 phone, got %q", repo.created.Phone)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected LeadCreated publish, got %d events", len(bus.published))
	}
}

func TestCreateRejectsInvalidPhone(t *testing.T) {
	svc := New(&createRecordingRepo{}, fixedScopeResolver{}, &recordingBus{}, logger.New("test"))

	_, err := svc.Create(context.Background(), repository.CreateLeadParams{
		OrganizationID: uuid.New(),
		Name:           "Asha Rao",
		Phone:          "not-a-number",
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
