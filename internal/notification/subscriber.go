package notification

import (
	"context"

	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// RecipientDirectory resolves who should receive tenant-level notifications.
type RecipientDirectory interface {
	OrganizationOwnerEmail(ctx context.Context, orgID uuid.UUID) (string, error)
}

// Subscriber emails the organization owner about campaign activity.
// Delivery is best-effort: failures are logged and never propagated.
type Subscriber struct {
	sender     Sender
	recipients RecipientDirectory
	log        *logger.Logger
}

func NewSubscriber(sender Sender, recipients RecipientDirectory, log *logger.Logger) *Subscriber {
	return &Subscriber{sender: sender, recipients: recipients, log: log}
}

func (s *Subscriber) Register(bus events.Bus) {
	bus.Subscribe(events.CampaignCompleted{}.EventName(), events.HandlerFunc(s.Handle))
	bus.Subscribe(events.LeadTransferred{}.EventName(), events.HandlerFunc(s.Handle))
}

func (s *Subscriber) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.CampaignCompleted:
		s.notify(ctx, e.OrganizationID, event.EventName(), func(to string) error {
			return s.sender.SendCampaignSummaryEmail(ctx, to, e.CampaignName, e.ConversionRate, e.TotalCalls, e.TransferredCalls)
		})
	case events.LeadTransferred:
		s.notify(ctx, e.OrganizationID, event.EventName(), func(to string) error {
			return s.sender.SendLeadTransferEmail(ctx, to, e.LeadName, e.LeadPhone)
		})
	}
	return nil
}

func (s *Subscriber) notify(ctx context.Context, orgID uuid.UUID, eventName string, send func(to string) error) {
	to, err := s.recipients.OrganizationOwnerEmail(ctx, orgID)
	if err != nil {
		s.log.Warn("notification recipient lookup failed", "event", eventName, "error", err.Error())
		return
	}
	if err := send(to); err != nil {
		s.log.Warn("notification delivery failed", "event", eventName, "to", to, "error", err.Error())
	}
}
