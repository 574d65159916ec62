package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"estate_crm_backend/internal/billing/repository"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// Gateway event types this system applies. Anything else is rejected
// before touching storage.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// PaymentNotification is the verified gateway payload.
type PaymentNotification struct {
	OrganizationID uuid.UUID `json:"organizationId"`
	PaymentID      string    `json:"paymentId"`
	EventType      string    `json:"eventType"`
	AmountCents    int64     `json:"amountCents"`
}

type Service struct {
	repo   repository.BillingRepository
	secret []byte
	bus    events.Bus
	log    *logger.Logger
}

func New(repo repository.BillingRepository, webhookSecret string, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, secret: []byte(webhookSecret), bus: bus, log: log}
}

func (s *Service) CreateSubscription(ctx context.Context, orgID uuid.UUID, plan string) (repository.Subscription, error) {
	if plan == "" {
		return repository.Subscription{}, apperr.Validation("plan is required")
	}
	now := time.Now()
	return s.repo.Create(ctx, orgID, plan, now, now.AddDate(0, 1, 0))
}

func (s *Service) Subscription(ctx context.Context, orgID uuid.UUID) (repository.Subscription, error) {
	return s.repo.GetByOrganization(ctx, orgID)
}

func (s *Service) CancelSubscription(ctx context.Context, orgID uuid.UUID) (repository.Subscription, error) {
	return s.repo.Cancel(ctx, orgID)
}

func (s *Service) PaymentEvents(ctx context.Context, orgID uuid.UUID, limit int) ([]repository.PaymentEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListPaymentEvents(ctx, orgID, limit)
}

// VerifySignature checks the hex-encoded HMAC-SHA256 of the raw request
// body. The comparison is constant-time.
func (s *Service) VerifySignature(rawBody []byte, signature string) bool {
	if len(s.secret) == 0 || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ApplyPayment parses and applies a verified notification: the event is
// recorded, then the subscription status follows the gateway's verdict.
func (s *Service) ApplyPayment(ctx context.Context, rawBody []byte) (repository.Subscription, error) {
	var payload PaymentNotification
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return repository.Subscription{}, apperr.BadRequest("malformed payment payload")
	}
	if payload.OrganizationID == uuid.Nil || payload.PaymentID == "" {
		return repository.Subscription{}, apperr.BadRequest("payment payload missing identifiers")
	}

	var newStatus string
	switch payload.EventType {
	case EventPaymentCaptured:
		newStatus = repository.StatusActive
	case EventPaymentFailed:
		newStatus = repository.StatusPastDue
	default:
		return repository.Subscription{}, apperr.BadRequest(fmt.Sprintf("unsupported event type %q", payload.EventType))
	}

	if _, err := s.repo.RecordPaymentEvent(ctx, repository.PaymentEvent{
		OrganizationID: payload.OrganizationID,
		PaymentID:      payload.PaymentID,
		EventType:      payload.EventType,
		AmountCents:    payload.AmountCents,
	}); err != nil {
		return repository.Subscription{}, err
	}

	sub, err := s.repo.UpdateStatus(ctx, payload.OrganizationID, newStatus)
	if err != nil {
		return repository.Subscription{}, err
	}

	s.bus.Publish(ctx, events.PaymentReceived{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: payload.OrganizationID,
		PaymentID:      payload.PaymentID,
		EventType:      payload.EventType,
		AmountCents:    payload.AmountCents,
	})

	s.log.Info("payment applied",
		"organization_id", payload.OrganizationID.String(),
		"event_type", payload.EventType,
		"new_status", sub.Status,
	)
	return sub, nil
}
