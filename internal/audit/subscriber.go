// Package audit records domain events into an append-only trail. Writes are
// best-effort: a failed audit insert is logged and never fails the
// originating operation.
package audit

import (
	"context"

	"estate_crm_backend/internal/audit/repository"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type Subscriber struct {
	repo repository.AuditRepository
	log  *logger.Logger
}

func NewSubscriber(repo repository.AuditRepository, log *logger.Logger) *Subscriber {
	return &Subscriber{repo: repo, log: log}
}

// Register attaches the audit trail to the audited event types.
func (s *Subscriber) Register(bus events.Bus) {
	for _, name := range []string{
		events.CampaignCompleted{}.EventName(),
		events.LeadStageChanged{}.EventName(),
		events.PropertyStatusChanged{}.EventName(),
		events.PaymentReceived{}.EventName(),
	} {
		bus.Subscribe(name, events.HandlerFunc(s.Handle))
	}
}

// Handle maps a domain event onto an audit entry. Unknown event types are
// ignored so subscription lists can grow without breaking the trail.
func (s *Subscriber) Handle(ctx context.Context, event events.Event) error {
	params, ok := s.entryFor(event)
	if !ok {
		return nil
	}
	params.OccurredAt = event.OccurredAt()

	if err := s.repo.Append(ctx, params); err != nil {
		s.log.Error("audit append failed",
			"event", event.EventName(),
			"error", err.Error(),
		)
	}
	return nil
}

func (s *Subscriber) entryFor(event events.Event) (repository.AppendParams, bool) {
	switch e := event.(type) {
	case events.CampaignCompleted:
		return repository.AppendParams{
			OrganizationID: e.OrganizationID,
			ActorID:        actorPtr(e.ActorID),
			Action:         "campaign.completed",
			EntityType:     "campaign",
			EntityID:       &e.CampaignID,
			Detail: map[string]interface{}{
				"name":             e.CampaignName,
				"totalCalls":       e.TotalCalls,
				"transferredCalls": e.TransferredCalls,
				"conversionRate":   e.ConversionRate,
			},
		}, true
	case events.LeadStageChanged:
		return repository.AppendParams{
			OrganizationID: e.OrganizationID,
			ActorID:        actorPtr(e.ActorID),
			Action:         "lead.stage_changed",
			EntityType:     "lead",
			EntityID:       &e.LeadID,
			Detail: map[string]interface{}{
				"oldStageId": e.OldStageID,
				"newStageId": e.NewStageID,
			},
		}, true
	case events.PropertyStatusChanged:
		return repository.AppendParams{
			OrganizationID: e.OrganizationID,
			ActorID:        actorPtr(e.ActorID),
			Action:         "property.status_changed",
			EntityType:     "property",
			EntityID:       &e.PropertyID,
			Detail: map[string]interface{}{
				"oldStatus":    e.OldStatus,
				"newStatus":    e.NewStatus,
				"linkedLeadId": e.LinkedLeadID,
			},
		}, true
	case events.PaymentReceived:
		return repository.AppendParams{
			OrganizationID: e.OrganizationID,
			Action:         "payment.received",
			EntityType:     "subscription",
			Detail: map[string]interface{}{
				"paymentId":   e.PaymentID,
				"eventType":   e.EventType,
				"amountCents": e.AmountCents,
			},
		}, true
	default:
		return repository.AppendParams{}, false
	}
}

// actorPtr keeps system-initiated events (worker runs use the nil UUID)
// out of the actor column.
func actorPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
