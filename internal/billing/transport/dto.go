package transport

import (
	"time"

	"estate_crm_backend/internal/billing/repository"
)

type CreateSubscriptionRequest struct {
	Plan string `json:"plan" validate:"required,oneof=starter growth enterprise"`
}

type SubscriptionResponse struct {
	ID                 string    `json:"id"`
	Plan               string    `json:"plan"`
	Status             string    `json:"status"`
	CurrentPeriodStart time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time `json:"currentPeriodEnd"`
	CreatedAt          time.Time `json:"createdAt"`
}

type PaymentEventResponse struct {
	ID          string    `json:"id"`
	PaymentID   string    `json:"paymentId"`
	EventType   string    `json:"eventType"`
	AmountCents int64     `json:"amountCents"`
	CreatedAt   time.Time `json:"createdAt"`
}

func ToSubscriptionResponse(s repository.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                 s.ID.String(),
		Plan:               s.Plan,
		Status:             s.Status,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CreatedAt:          s.CreatedAt,
	}
}

func ToPaymentEventResponse(e repository.PaymentEvent) PaymentEventResponse {
	return PaymentEventResponse{
		ID:          e.ID.String(),
		PaymentID:   e.PaymentID,
		EventType:   e.EventType,
		AmountCents: e.AmountCents,
		CreatedAt:   e.CreatedAt,
	}
}
