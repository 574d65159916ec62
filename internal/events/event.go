// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"estate_crm_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Identity Domain Events
// =============================================================================

// OrganizationCreated is published when a new organization (tenant) is created.
type OrganizationCreated struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	CreatedBy      uuid.UUID `json:"createdBy"`
}

func (e OrganizationCreated) EventName() string { return "identity.organization.created" }

// ProfileUpdated is published after every profile-mutating write so the
// profile cache invalidates exactly once, centrally.
type ProfileUpdated struct {
	BaseEvent
	UserID         uuid.UUID `json:"userId"`
	OrganizationID uuid.UUID `json:"organizationId"`
}

func (e ProfileUpdated) EventName() string { return "identity.profile.updated" }

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead enters the pipeline.
type LeadCreated struct {
	BaseEvent
	LeadID         uuid.UUID  `json:"leadId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	ProjectID      *uuid.UUID `json:"projectId,omitempty"`
	Name           string     `json:"name"`
	Source         string     `json:"source,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStageChanged is published when a lead moves between pipeline stages.
type LeadStageChanged struct {
	BaseEvent
	LeadID         uuid.UUID  `json:"leadId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	OldStageID     *uuid.UUID `json:"oldStageId,omitempty"`
	NewStageID     uuid.UUID  `json:"newStageId"`
	ActorID        uuid.UUID  `json:"actorId"`
}

func (e LeadStageChanged) EventName() string { return "leads.stage.changed" }

// LeadTransferred is published when a call is handed off to a human agent.
type LeadTransferred struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	CampaignID     uuid.UUID `json:"campaignId"`
	LeadName       string    `json:"leadName"`
	LeadPhone      string    `json:"leadPhone"`
}

func (e LeadTransferred) EventName() string { return "leads.lead.transferred" }

// =============================================================================
// Campaign Domain Events
// =============================================================================

// CampaignCompleted is published after a campaign call run finishes.
// Subscribers (audit, notification) treat it as best-effort.
type CampaignCompleted struct {
	BaseEvent
	CampaignID       uuid.UUID `json:"campaignId"`
	OrganizationID   uuid.UUID `json:"organizationId"`
	CampaignName     string    `json:"campaignName"`
	TotalCalls       int       `json:"totalCalls"`
	TransferredCalls int       `json:"transferredCalls"`
	ConversionRate   string    `json:"conversionRate"` // two-decimal percentage string
	ActorID          uuid.UUID `json:"actorId"`
}

func (e CampaignCompleted) EventName() string { return "campaigns.campaign.completed" }

// =============================================================================
// Property Domain Events
// =============================================================================

// PropertyStatusChanged is published when a property's status transitions.
type PropertyStatusChanged struct {
	BaseEvent
	PropertyID     uuid.UUID  `json:"propertyId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	OldStatus      string     `json:"oldStatus"`
	NewStatus      string     `json:"newStatus"`
	LinkedLeadID   *uuid.UUID `json:"linkedLeadId,omitempty"`
	ActorID        uuid.UUID  `json:"actorId"`
}

func (e PropertyStatusChanged) EventName() string { return "properties.status.changed" }

// =============================================================================
// Billing Domain Events
// =============================================================================

// PaymentReceived is published when a verified payment webhook is applied.
type PaymentReceived struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	PaymentID      string    `json:"paymentId"`
	EventType      string    `json:"eventType"`
	AmountCents    int64     `json:"amountCents"`
}

func (e PaymentReceived) EventName() string { return "billing.payment.received" }
