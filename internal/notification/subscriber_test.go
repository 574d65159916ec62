package notification

import (
	"context"
	"errors"
	"strings"
	"testing"

	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type sentMail struct {
	kind string
	to   string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (s *fakeSender) SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error {
	s.sent = append(s.sent, sentMail{kind: "password_reset", to: toEmail})
	return s.err
}

func (s *fakeSender) SendCampaignSummaryEmail(ctx context.Context, toEmail, campaignName, conversionRate string, totalCalls, transferredCalls int) error {
	s.sent = append(s.sent, sentMail{kind: "campaign_summary", to: toEmail})
	return s.err
}

func (s *fakeSender) SendLeadTransferEmail(ctx context.Context, toEmail, leadName, leadPhone string) error {
	s.sent = append(s.sent, sentMail{kind: "lead_transfer", to: toEmail})
	return s.err
}

type fakeDirectory struct {
	email string
	err   error
}

func (d fakeDirectory) OrganizationOwnerEmail(ctx context.Context, orgID uuid.UUID) (string, error) {
	return d.email, d.err
}

func TestHandleCampaignCompleted(t *testing.T) {
	sender := &fakeSender{}
	sub := NewSubscriber(sender, fakeDirectory{email: "owner@example.com"}, logger.New("test"))

	evt := events.CampaignCompleted{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: uuid.New(),
		CampaignName:   "Sunrise Towers outreach",
		TotalCalls:     25,
	}
	if err := sub.Handle(context.Background(), evt); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].kind != "campaign_summary" || sender.sent[0].to != "owner@example.com" {
		t.Fatalf("sent = %+v", sender.sent)
	}
}

func TestHandleLeadTransferred(t *testing.T) {
	sender := &fakeSender{}
	sub := NewSubscriber(sender, fakeDirectory{email: "owner@example.com"}, logger.New("test"))

	evt := events.LeadTransferred{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: uuid.New(),
		LeadName:       "Asha Rao",
		LeadPhone:      "+919876543210",
	}
	if err := sub.Handle(context.Background(), evt); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].kind != "lead_transfer" {
		t.Fatalf("sent = %+v", sender.sent)
	}
}

func TestHandleSwallowsFailures(t *testing.T) {
	evt := events.LeadTransferred{BaseEvent: events.NewBaseEvent(), OrganizationID: uuid.New()}

	sub := NewSubscriber(&fakeSender{err: errors.New("smtp down")}, fakeDirectory{email: "x@example.com"}, logger.New("test"))
	if err := sub.Handle(context.Background(), evt); err != nil {
		t.Fatalf("delivery failure must not propagate, got %v", err)
	}

	sender := &fakeSender{}
	sub = NewSubscriber(sender, fakeDirectory{err: errors.New("no such org")}, logger.New("test"))
	if err := sub.Handle(context.Background(), evt); err != nil {
		t.Fatalf("lookup failure must not propagate, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("nothing must be sent without a recipient")
	}
}

func TestRenderTemplates(t *testing.T) {
	html, err := renderTemplate("campaign_summary.html", campaignSummaryData{
		CampaignName:     "Sunrise Towers outreach",
		TotalCalls:       25,
		TransferredCalls: 7,
		ConversionRate:   "28.00",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Sunrise Towers outreach", "25", "28.00%"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered template missing %q", want)
		}
	}

	html, err = renderTemplate("password_reset.html", passwordResetData{ResetURL: "https://app.example.com/reset?token=abc"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "https://app.example.com/reset?token=abc") {
		t.Error("reset URL missing from template")
	}

	if _, err := renderTemplate("lead_transfer.html", leadTransferData{LeadName: "Asha Rao", LeadPhone: "+919876543210"}); err != nil {
		t.Fatalf("render: %v", err)
	}
}
