package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/storage"
	"estate_crm_backend/internal/telephony/repository"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeAnswerConfig struct {
	streaming       bool
	apiKey          string
	baseURL         string
	defaultTransfer string
}

func (c fakeAnswerConfig) GetStreamingEnabled() bool        { return c.streaming }
func (c fakeAnswerConfig) GetVoiceAPIKey() string           { return c.apiKey }
func (c fakeAnswerConfig) GetStreamBaseURL() string         { return c.baseURL }
func (c fakeAnswerConfig) GetDefaultTransferNumber() string { return c.defaultTransfer }

func TestDecideAnswerAction(t *testing.T) {
	tests := []struct {
		name       string
		cfg        fakeAnswerConfig
		wantStream bool
	}{
		{"streaming fully configured", fakeAnswerConfig{true, "key", "wss://voice.example.com", ""}, true},
		{"streaming disabled", fakeAnswerConfig{false, "key", "wss://voice.example.com", ""}, false},
		{"missing credential", fakeAnswerConfig{true, "", "wss://voice.example.com", ""}, false},
		{"missing endpoint", fakeAnswerConfig{true, "key", "", ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := DecideAnswerAction(tt.cfg, "sid-1")
			switch a := action.(type) {
			case StreamAction:
				if !tt.wantStream {
					t.Fatalf("got StreamAction, want SpeakAction")
				}
				if a.WSURL != "wss://voice.example.com/streams/sid-1" {
					t.Errorf("stream url = %q", a.WSURL)
				}
			case SpeakAction:
				if tt.wantStream {
					t.Fatalf("got SpeakAction, want StreamAction")
				}
				if a.Text == "" {
					t.Error("speak action must carry a prompt")
				}
			default:
				t.Fatalf("unexpected action %T", action)
			}
		})
	}
}

func TestOutcomeForCause(t *testing.T) {
	if got := OutcomeForCause("NORMAL_CLEARING"); got != "called" {
		t.Errorf("NORMAL_CLEARING = %q, want called", got)
	}
	for _, cause := range []string{"USER_BUSY", "NO_ANSWER", "ORIGINATOR_CANCEL", ""} {
		if got := OutcomeForCause(cause); got != "no_answer" {
			t.Errorf("%q = %q, want no_answer", cause, got)
		}
	}
}

type hangupCall struct {
	outcome  string
	duration int
}

type fakeCallRepo struct {
	ctx           repository.CallContext
	ctxErr        error
	hangups       []hangupCall
	hangupErrs    []error
	transferred   int
	transferErr   error
}

func (r *fakeCallRepo) GetCallContext(ctx context.Context, callSID string) (repository.CallContext, error) {
	if r.ctxErr != nil {
		return repository.CallContext{}, r.ctxErr
	}
	return r.ctx, nil
}

func (r *fakeCallRepo) RecordHangup(ctx context.Context, callSID, outcome string, durationSeconds int) error {
	attempt := len(r.hangups)
	r.hangups = append(r.hangups, hangupCall{outcome: outcome, duration: durationSeconds})
	if attempt < len(r.hangupErrs) {
		return r.hangupErrs[attempt]
	}
	return nil
}

func (r *fakeCallRepo) MarkTransferred(ctx context.Context, orgID, campaignID, leadID uuid.UUID) error {
	if r.transferErr != nil {
		return r.transferErr
	}
	r.transferred++
	return nil
}

type fakeAgents struct {
	phone string
	err   error
}

func (a fakeAgents) FirstAvailableAgentPhone(ctx context.Context, orgID uuid.UUID) (string, error) {
	return a.phone, a.err
}

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

func newService(repo *fakeCallRepo, agents AgentDirectory, bus events.Bus) *Service {
	svc := New(repo, fakeAnswerConfig{}, agents, bus, logger.New("test"))
	svc.retryDelays = []time.Duration{0, 0, 0}
	return svc
}

func TestHangupRetriesTransientFailures(t *testing.T) {
	repo := &fakeCallRepo{hangupErrs: []error{errors.New("timeout"), errors.New("timeout")}}
	svc := newService(repo, fakeAgents{}, &recordingBus{})

	if err := svc.Hangup(context.Background(), "sid-1", "NORMAL_CLEARING", 42); err != nil {
		t.Fatalf("hangup: %v", err)
	}
	if len(repo.hangups) != 3 {
		t.Fatalf("attempts = %d, want 3", len(repo.hangups))
	}
	last := repo.hangups[len(repo.hangups)-1]
	if last.outcome != "called" || last.duration != 42 {
		t.Errorf("recorded %+v", last)
	}
}

func TestHangupGivesUpAfterRetryBudget(t *testing.T) {
	boom := errors.New("connection refused")
	repo := &fakeCallRepo{hangupErrs: []error{boom, boom, boom, boom, boom}}
	svc := newService(repo, fakeAgents{}, &recordingBus{})

	if err := svc.Hangup(context.Background(), "sid-1", "USER_BUSY", 0); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if len(repo.hangups) != 4 {
		t.Fatalf("attempts = %d, want initial try plus 3 retries", len(repo.hangups))
	}
}

func TestHangupDoesNotRetryUnknownCall(t *testing.T) {
	repo := &fakeCallRepo{hangupErrs: []error{apperr.NotFound("unknown call")}}
	svc := newService(repo, fakeAgents{}, &recordingBus{})

	if err := svc.Hangup(context.Background(), "sid-x", "NORMAL_CLEARING", 10); err == nil {
		t.Fatal("expected not found")
	}
	if len(repo.hangups) != 1 {
		t.Fatalf("attempts = %d, want 1", len(repo.hangups))
	}
}

func TestTransferPrefersAvailableAgent(t *testing.T) {
	cc := repository.CallContext{
		OrganizationID: uuid.New(),
		CampaignID:     uuid.New(),
		LeadID:         uuid.New(),
		LeadName:       "Asha Rao",
		LeadPhone:      "+919876543210",
	}
	repo := &fakeCallRepo{ctx: cc}
	bus := &recordingBus{}
	svc := newService(repo, fakeAgents{phone: "+919812345678"}, bus)

	dest, err := svc.Transfer(context.Background(), "sid-1", "+14155550100")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if dest != "+919812345678" {
		t.Errorf("destination = %q, want the agent, not the fallback", dest)
	}
	if repo.transferred != 1 {
		t.Error("call log not marked transferred")
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	evt, ok := bus.published[0].(events.LeadTransferred)
	if !ok {
		t.Fatalf("unexpected event %T", bus.published[0])
	}
	if evt.LeadID != cc.LeadID || evt.CampaignID != cc.CampaignID {
		t.Error("event missing call context")
	}
}

func TestTransferFallsBackWhenNoAgent(t *testing.T) {
	repo := &fakeCallRepo{ctx: repository.CallContext{OrganizationID: uuid.New()}}
	svc := newService(repo, fakeAgents{err: apperr.NotFound("no available agent")}, &recordingBus{})

	dest, err := svc.Transfer(context.Background(), "sid-1", "098765 43210")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if dest != "+919876543210" {
		t.Errorf("destination = %q, want normalized fallback", dest)
	}
}

func TestTransferUsesConfiguredDefaultNumber(t *testing.T) {
	repo := &fakeCallRepo{ctx: repository.CallContext{OrganizationID: uuid.New()}}
	svc := newService(repo, fakeAgents{err: apperr.NotFound("no available agent")}, &recordingBus{})
	svc.cfg = fakeAnswerConfig{defaultTransfer: "+14155550100"}

	dest, err := svc.Transfer(context.Background(), "sid-1", "")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if dest != "+14155550100" {
		t.Errorf("destination = %q, want configured default", dest)
	}
}

func TestTransferFailsWithoutDestination(t *testing.T) {
	repo := &fakeCallRepo{ctx: repository.CallContext{OrganizationID: uuid.New()}}
	bus := &recordingBus{}
	svc := newService(repo, fakeAgents{err: apperr.NotFound("no available agent")}, bus)

	_, err := svc.Transfer(context.Background(), "sid-1", "not-a-number")
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(bus.published) != 0 {
		t.Fatal("no event must be published on failure")
	}
}

type fakeStore struct {
	storage.Service
	lastBucket string
	lastKey    string
}

func (f *fakeStore) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	f.lastBucket = bucket
	f.lastKey = fileKey
	return &storage.PresignedURL{URL: "https://minio.example.com/" + bucket + "/" + fileKey, FileKey: fileKey}, nil
}

func TestRecordingURLRequiresStorage(t *testing.T) {
	svc := newService(&fakeCallRepo{}, fakeAgents{}, &recordingBus{})

	_, err := svc.RecordingURL(context.Background(), uuid.New(), "sid-1")
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordingURLScopedToOrganization(t *testing.T) {
	repo := &fakeCallRepo{ctx: repository.CallContext{OrganizationID: uuid.New()}}
	svc := newService(repo, fakeAgents{}, &recordingBus{})
	svc.SetRecordingStore(&fakeStore{}, "call-recordings")

	_, err := svc.RecordingURL(context.Background(), uuid.New(), "sid-1")
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for foreign call, got %v", err)
	}
}

func TestRecordingURLPresignsArchiveObject(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeCallRepo{ctx: repository.CallContext{OrganizationID: orgID}}
	svc := newService(repo, fakeAgents{}, &recordingBus{})
	store := &fakeStore{}
	svc.SetRecordingStore(store, "call-recordings")

	url, err := svc.RecordingURL(context.Background(), orgID, "sid-1")
	if err != nil {
		t.Fatalf("recording url: %v", err)
	}
	if store.lastBucket != "call-recordings" || store.lastKey != "sid-1.mp3" {
		t.Errorf("presigned %s/%s", store.lastBucket, store.lastKey)
	}
	if url.URL == "" {
		t.Error("empty url")
	}
}
