package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"estate_crm_backend/internal/billing/repository"
	"estate_crm_backend/internal/events"
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

type fakeRepo struct {
	repository.BillingRepository

	sub           repository.Subscription
	recorded      []repository.PaymentEvent
	statusUpdates []string
}

func (r *fakeRepo) RecordPaymentEvent(ctx context.Context, event repository.PaymentEvent) (repository.PaymentEvent, error) {
	r.recorded = append(r.recorded, event)
	event.ID = uuid.New()
	return event, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, orgID uuid.UUID, status string) (repository.Subscription, error) {
	if r.sub.OrganizationID != orgID {
		return repository.Subscription{}, apperr.NotFound("subscription not found")
	}
	r.statusUpdates = append(r.statusUpdates, status)
	r.sub.Status = status
	return r.sub, nil
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	svc := New(&fakeRepo{}, "topsecret", &recordingBus{}, logger.New("test"))
	body := []byte(`{"paymentId":"pay_1"}`)

	if !svc.VerifySignature(body, sign("topsecret", body)) {
		t.Error("valid signature rejected")
	}
	if svc.VerifySignature(body, sign("wrongsecret", body)) {
		t.Error("signature from wrong secret accepted")
	}
	if svc.VerifySignature(body, "") {
		t.Error("empty signature accepted")
	}
	if svc.VerifySignature([]byte(`{"paymentId":"pay_2"}`), sign("topsecret", body)) {
		t.Error("signature over different body accepted")
	}
}

func TestVerifySignatureWithoutSecretAlwaysFails(t *testing.T) {
	svc := New(&fakeRepo{}, "", &recordingBus{}, logger.New("test"))
	body := []byte(`{}`)
	if svc.VerifySignature(body, sign("", body)) {
		t.Error("unconfigured secret must reject all signatures")
	}
}

func paymentBody(t *testing.T, orgID uuid.UUID, eventType string) []byte {
	t.Helper()
	body, err := json.Marshal(PaymentNotification{
		OrganizationID: orgID,
		PaymentID:      "pay_123",
		EventType:      eventType,
		AmountCents:    49900,
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestApplyPaymentCapturedActivates(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeRepo{sub: repository.Subscription{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Plan:           "growth",
		Status:         repository.StatusPastDue,
	}}
	bus := &recordingBus{}
	svc := New(repo, "topsecret", bus, logger.New("test"))

	sub, err := svc.ApplyPayment(context.Background(), paymentBody(t, orgID, EventPaymentCaptured))
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}

	if sub.Status != repository.StatusActive {
		t.Errorf("status = %q, want active", sub.Status)
	}
	if len(repo.recorded) != 1 || repo.recorded[0].PaymentID != "pay_123" {
		t.Fatalf("payment event not recorded: %+v", repo.recorded)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	evt, ok := bus.published[0].(events.PaymentReceived)
	if !ok {
		t.Fatalf("unexpected event %T", bus.published[0])
	}
	if evt.AmountCents != 49900 || evt.OrganizationID != orgID {
		t.Errorf("event payload %+v", evt)
	}
}

func TestApplyPaymentFailedMarksPastDue(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeRepo{sub: repository.Subscription{OrganizationID: orgID, Status: repository.StatusActive}}
	svc := New(repo, "topsecret", &recordingBus{}, logger.New("test"))

	sub, err := svc.ApplyPayment(context.Background(), paymentBody(t, orgID, EventPaymentFailed))
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if sub.Status != repository.StatusPastDue {
		t.Errorf("status = %q, want past_due", sub.Status)
	}
}

func TestApplyPaymentRejectsUnknownEventType(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeRepo{sub: repository.Subscription{OrganizationID: orgID}}
	bus := &recordingBus{}
	svc := New(repo, "topsecret", bus, logger.New("test"))

	_, err := svc.ApplyPayment(context.Background(), paymentBody(t, orgID, "payment.refunded"))
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
	if len(repo.recorded) != 0 {
		t.Fatal("unknown events must not be recorded")
	}
	if len(bus.published) != 0 {
		t.Fatal("no event must be published")
	}
}

func TestApplyPaymentRejectsMalformedBody(t *testing.T) {
	svc := New(&fakeRepo{}, "topsecret", &recordingBus{}, logger.New("test"))

	_, err := svc.ApplyPayment(context.Background(), []byte(`{not json`))
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestCreateSubscriptionPeriod(t *testing.T) {
	created := repository.Subscription{Status: repository.StatusActive}
	repo := &fakeRepoWithCreate{created: created}
	svc := New(repo, "topsecret", &recordingBus{}, logger.New("test"))

	if _, err := svc.CreateSubscription(context.Background(), uuid.New(), "starter"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if repo.periodEnd.Sub(repo.periodStart) < 28*24*time.Hour {
		t.Errorf("period %v to %v is shorter than a month", repo.periodStart, repo.periodEnd)
	}

	if _, err := svc.CreateSubscription(context.Background(), uuid.New(), ""); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for empty plan, got %v", err)
	}
}

type fakeRepoWithCreate struct {
	repository.BillingRepository

	created     repository.Subscription
	periodStart time.Time
	periodEnd   time.Time
}

func (r *fakeRepoWithCreate) Create(ctx context.Context, orgID uuid.UUID, plan string, periodStart, periodEnd time.Time) (repository.Subscription, error) {
	r.periodStart = periodStart
	r.periodEnd = periodEnd
	return r.created, nil
}
