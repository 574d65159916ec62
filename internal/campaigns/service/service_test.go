package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"estate_crm_backend/internal/campaigns/engine"
	"estate_crm_backend/internal/campaigns/repository"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}
func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}
func (b *recordingBus) Subscribe(eventName string, handler events.Handler) {}

type fakeRepo struct {
	repository.CampaignRepository

	campaign repository.Campaign
	leads    []repository.CampaignLead
	recorded []repository.CallRecord
}

func (f *fakeRepo) GetCampaign(ctx context.Context, orgID, campaignID uuid.UUID) (repository.Campaign, error) {
	if f.campaign.ID != campaignID || f.campaign.OrganizationID != orgID {
		return repository.Campaign{}, apperr.NotFound("campaign not found")
	}
	return f.campaign, nil
}

func (f *fakeRepo) ProjectLeads(ctx context.Context, orgID, projectID uuid.UUID) ([]repository.CampaignLead, error) {
	return f.leads, nil
}

func (f *fakeRepo) GetProject(ctx context.Context, orgID, projectID uuid.UUID) (repository.Project, error) {
	if f.campaign.ProjectID != projectID {
		return repository.Project{}, apperr.NotFound("project not found")
	}
	return repository.Project{ID: projectID, OrganizationID: orgID}, nil
}

func (f *fakeRepo) RecordRun(ctx context.Context, orgID, campaignID uuid.UUID, records []repository.CallRecord) (repository.Campaign, error) {
	f.recorded = records
	updated := f.campaign
	updated.TotalCalls += len(records)
	for _, r := range records {
		if r.Transferred {
			updated.TransferredCalls++
		}
	}
	updated.Status = repository.StatusCompleted
	return updated, nil
}

func newRunFixture(leadCount int) (*Service, *fakeRepo, *recordingBus) {
	orgID := uuid.New()
	repo := &fakeRepo{
		campaign: repository.Campaign{
			ID:             uuid.New(),
			OrganizationID: orgID,
			ProjectID:      uuid.New(),
			Name:           "Lakeview outreach",
			Status:         repository.StatusActive,
		},
	}
	for i := 0; i < leadCount; i++ {
		repo.leads = append(repo.leads, repository.CampaignLead{
			ID:    uuid.New(),
			Name:  "Lead",
			Phone: "+919876543210",
		})
	}
	bus := &recordingBus{}
	sims := func() *engine.Simulator { return engine.New(rand.NewSource(1)) }
	return New(repo, sims, bus, logger.New("test")), repo, bus
}

func TestRunCreatesOneCallLogPerLead(t *testing.T) {
	svc, repo, bus := newRunFixture(25)

	result, err := svc.Run(context.Background(), repo.campaign.OrganizationID, repo.campaign.ID, uuid.New())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(repo.recorded) != 25 {
		t.Fatalf("expected 25 call records, got %d", len(repo.recorded))
	}
	if len(result.Results) != 25 {
		t.Fatalf("expected 25 per-lead results, got %d", len(result.Results))
	}
	if result.Campaign.Status != repository.StatusCompleted {
		t.Fatalf("campaign status = %q, want completed", result.Campaign.Status)
	}
	if result.Campaign.TotalCalls != 25 {
		t.Fatalf("total calls = %d, want 25", result.Campaign.TotalCalls)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one CampaignCompleted event, got %d", len(bus.published))
	}

	completed, ok := bus.published[0].(events.CampaignCompleted)
	if !ok {
		t.Fatalf("unexpected event type %T", bus.published[0])
	}
	if completed.TotalCalls != 25 {
		t.Fatalf("event total calls = %d, want 25", completed.TotalCalls)
	}
}

func TestRunSummaryMatchesRecords(t *testing.T) {
	svc, repo, _ := newRunFixture(40)

	result, err := svc.Run(context.Background(), repo.campaign.OrganizationID, repo.campaign.ID, uuid.New())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	transferred := 0
	for _, record := range repo.recorded {
		if record.Transferred {
			transferred++
		}
		if record.DurationSeconds < 10 || record.DurationSeconds >= 130 {
			t.Fatalf("record duration %d out of range", record.DurationSeconds)
		}
		if record.CallSID == "" {
			t.Fatal("record missing call sid")
		}
	}
	if result.Summary.TransferredCalls != transferred {
		t.Fatalf("summary transferred = %d, records say %d", result.Summary.TransferredCalls, transferred)
	}
	if result.Summary.ConversionRate != ConversionRate(transferred, 40) {
		t.Fatalf("conversion rate mismatch: %s", result.Summary.ConversionRate)
	}
}

func TestRunNoLeadsIsBadRequest(t *testing.T) {
	svc, repo, _ := newRunFixture(0)

	_, err := svc.Run(context.Background(), repo.campaign.OrganizationID, repo.campaign.ID, uuid.New())
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request for empty project, got %v", err)
	}
}

func TestRunUnknownCampaignIsNotFound(t *testing.T) {
	svc, repo, _ := newRunFixture(3)

	_, err := svc.Run(context.Background(), repo.campaign.OrganizationID, uuid.New(), uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConversionRateFormatting(t *testing.T) {
	cases := []struct {
		transferred, total int
		want               string
	}{
		{0, 0, "0.00"},
		{1, 4, "25.00"},
		{1, 3, "33.33"},
		{25, 100, "25.00"},
		{3, 7, "42.86"},
	}
	for _, tc := range cases {
		if got := ConversionRate(tc.transferred, tc.total); got != tc.want {
			t.Errorf("ConversionRate(%d,%d) = %s, want %s", tc.transferred, tc.total, got, tc.want)
		}
	}
}

func TestCreateCampaignScheduledNeedsStartDate(t *testing.T) {
	svc, repo, _ := newRunFixture(0)

	_, err := svc.CreateCampaign(context.Background(), repository.CreateCampaignParams{
		OrganizationID: repo.campaign.OrganizationID,
		ProjectID:      repo.campaign.ProjectID,
		Name:           "Launch calls",
		Status:         repository.StatusScheduled,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// dueRepo is a concurrency-safe fake for the scheduled sweep, which runs
// campaigns in parallel.
type dueRepo struct {
	repository.CampaignRepository

	mu        sync.Mutex
	campaigns map[uuid.UUID]repository.Campaign
	leads     []repository.CampaignLead
	failing   map[uuid.UUID]bool
	runs      int
}

func (f *dueRepo) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]repository.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []repository.Campaign
	for _, c := range f.campaigns {
		due = append(due, c)
	}
	return due, nil
}

func (f *dueRepo) GetCampaign(ctx context.Context, orgID, campaignID uuid.UUID) (repository.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[campaignID]
	if !ok {
		return repository.Campaign{}, apperr.NotFound("campaign not found")
	}
	return c, nil
}

func (f *dueRepo) ClaimScheduled(ctx context.Context, orgID, campaignID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[campaignID]
	if !ok || c.Status != repository.StatusScheduled {
		return apperr.Conflict("campaign is not scheduled")
	}
	c.Status = repository.StatusActive
	f.campaigns[campaignID] = c
	return nil
}

func (f *dueRepo) ProjectLeads(ctx context.Context, orgID, projectID uuid.UUID) ([]repository.CampaignLead, error) {
	return f.leads, nil
}

func (f *dueRepo) RecordRun(ctx context.Context, orgID, campaignID uuid.UUID, records []repository.CallRecord) (repository.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[campaignID] {
		return repository.Campaign{}, errors.New("record run failed")
	}
	f.runs++
	c := f.campaigns[campaignID]
	c.Status = repository.StatusCompleted
	return c, nil
}

func TestRunDueScheduledContinuesPastFailures(t *testing.T) {
	repo := &dueRepo{
		campaigns: make(map[uuid.UUID]repository.Campaign),
		failing:   make(map[uuid.UUID]bool),
		leads:     []repository.CampaignLead{{ID: uuid.New(), Name: "Lead", Phone: "+919876543210"}},
	}
	for i := 0; i < 6; i++ {
		c := repository.Campaign{
			ID:             uuid.New(),
			OrganizationID: uuid.New(),
			ProjectID:      uuid.New(),
			Status:         repository.StatusScheduled,
		}
		repo.campaigns[c.ID] = c
		if i < 2 {
			repo.failing[c.ID] = true
		}
	}

	sims := func() *engine.Simulator { return engine.New(rand.NewSource(1)) }
	svc := New(repo, sims, &recordingBus{}, logger.New("test"))

	ran, err := svc.RunDueScheduled(context.Background(), time.Now(), 50)
	if err != nil {
		t.Fatalf("run due: %v", err)
	}
	if ran != 4 {
		t.Errorf("ran = %d, want 4 of 6 with 2 failing", ran)
	}
	if repo.runs != 4 {
		t.Errorf("persisted runs = %d, want 4", repo.runs)
	}
}

func TestRunScheduledClaimsExactlyOnce(t *testing.T) {
	repo := &dueRepo{
		campaigns: make(map[uuid.UUID]repository.Campaign),
		failing:   make(map[uuid.UUID]bool),
		leads:     []repository.CampaignLead{{ID: uuid.New(), Name: "Lead", Phone: "+919876543210"}},
	}
	c := repository.Campaign{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		ProjectID:      uuid.New(),
		Status:         repository.StatusScheduled,
	}
	repo.campaigns[c.ID] = c

	sims := func() *engine.Simulator { return engine.New(rand.NewSource(1)) }
	svc := New(repo, sims, &recordingBus{}, logger.New("test"))

	if _, err := svc.RunScheduled(context.Background(), c.OrganizationID, c.ID); err != nil {
		t.Fatalf("first run: %v", err)
	}

	_, err := svc.RunScheduled(context.Background(), c.OrganizationID, c.ID)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("second run should conflict, got %v", err)
	}
	if repo.runs != 1 {
		t.Errorf("persisted runs = %d, want 1", repo.runs)
	}
}
