package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type BillingRepository interface {
	Create(ctx context.Context, orgID uuid.UUID, plan string, periodStart, periodEnd time.Time) (Subscription, error)
	GetByOrganization(ctx context.Context, orgID uuid.UUID) (Subscription, error)
	UpdateStatus(ctx context.Context, orgID uuid.UUID, status string) (Subscription, error)
	Cancel(ctx context.Context, orgID uuid.UUID) (Subscription, error)
	RecordPaymentEvent(ctx context.Context, event PaymentEvent) (PaymentEvent, error)
	ListPaymentEvents(ctx context.Context, orgID uuid.UUID, limit int) ([]PaymentEvent, error)
}

var _ BillingRepository = (*Repository)(nil)
