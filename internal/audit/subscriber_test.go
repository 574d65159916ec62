package audit

import (
	"context"
	"errors"
	"testing"

	"estate_crm_backend/internal/audit/repository"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	repository.AuditRepository

	appended []repository.AppendParams
	err      error
}

func (r *fakeRepo) Append(ctx context.Context, params repository.AppendParams) error {
	if r.err != nil {
		return r.err
	}
	r.appended = append(r.appended, params)
	return nil
}

func TestHandleRecordsAuditedEvents(t *testing.T) {
	repo := &fakeRepo{}
	sub := NewSubscriber(repo, logger.New("test"))

	orgID := uuid.New()
	actor := uuid.New()
	audited := []events.Event{
		events.CampaignCompleted{BaseEvent: events.NewBaseEvent(), CampaignID: uuid.New(), OrganizationID: orgID, ActorID: actor},
		events.LeadStageChanged{BaseEvent: events.NewBaseEvent(), LeadID: uuid.New(), OrganizationID: orgID, NewStageID: uuid.New(), ActorID: actor},
		events.PropertyStatusChanged{BaseEvent: events.NewBaseEvent(), PropertyID: uuid.New(), OrganizationID: orgID, OldStatus: "available", NewStatus: "sold", ActorID: actor},
		events.PaymentReceived{BaseEvent: events.NewBaseEvent(), OrganizationID: orgID, PaymentID: "pay_1", EventType: "payment.captured"},
	}

	for _, evt := range audited {
		if err := sub.Handle(context.Background(), evt); err != nil {
			t.Fatalf("handle %s: %v", evt.EventName(), err)
		}
	}

	if len(repo.appended) != len(audited) {
		t.Fatalf("appended %d entries, want %d", len(repo.appended), len(audited))
	}
	if repo.appended[0].Action != "campaign.completed" {
		t.Errorf("action = %q", repo.appended[0].Action)
	}
}

func TestHandleIgnoresUnauditedEvents(t *testing.T) {
	repo := &fakeRepo{}
	sub := NewSubscriber(repo, logger.New("test"))

	err := sub.Handle(context.Background(), events.LeadCreated{BaseEvent: events.NewBaseEvent(), LeadID: uuid.New()})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(repo.appended) != 0 {
		t.Fatal("unaudited event must not be recorded")
	}
}

func TestHandleSwallowsAppendErrors(t *testing.T) {
	repo := &fakeRepo{err: errors.New("connection refused")}
	sub := NewSubscriber(repo, logger.New("test"))

	evt := events.PaymentReceived{BaseEvent: events.NewBaseEvent(), OrganizationID: uuid.New(), PaymentID: "pay_1"}
	if err := sub.Handle(context.Background(), evt); err != nil {
		t.Fatalf("audit failures must not propagate, got %v", err)
	}
}

func TestSystemActorIsOmitted(t *testing.T) {
	repo := &fakeRepo{}
	sub := NewSubscriber(repo, logger.New("test"))

	evt := events.CampaignCompleted{BaseEvent: events.NewBaseEvent(), CampaignID: uuid.New(), OrganizationID: uuid.New(), ActorID: uuid.Nil}
	if err := sub.Handle(context.Background(), evt); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if repo.appended[0].ActorID != nil {
		t.Error("nil actor must map to a null actor column")
	}
}
