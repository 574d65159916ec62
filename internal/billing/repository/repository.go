package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estate_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const (
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
)

// Subscription is one organization's billing state. One row per tenant.
type Subscription struct {
	ID                 uuid.UUID
	OrganizationID     uuid.UUID
	Plan               string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PaymentEvent is an applied, signature-verified gateway notification.
type PaymentEvent struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	PaymentID      string
	EventType      string
	AmountCents    int64
	CreatedAt      time.Time
}

const subscriptionColumns = `id, organization_id, plan, status, current_period_start, current_period_end, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSubscription(row pgx.Row) (Subscription, error) {
	var s Subscription
	err := row.Scan(&s.ID, &s.OrganizationID, &s.Plan, &s.Status,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, plan string, periodStart, periodEnd time.Time) (Subscription, error) {
	query := `INSERT INTO subscriptions (organization_id, plan, status, current_period_start, current_period_end)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + subscriptionColumns

	sub, err := scanSubscription(r.pool.QueryRow(ctx, query, orgID, plan, StatusActive, periodStart, periodEnd))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Subscription{}, apperr.Conflict("organization already has a subscription")
		}
		return Subscription{}, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

func (r *Repository) GetByOrganization(ctx context.Context, orgID uuid.UUID) (Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE organization_id = $1`

	sub, err := scanSubscription(r.pool.QueryRow(ctx, query, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subscription{}, apperr.NotFound("subscription not found")
		}
		return Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, orgID uuid.UUID, status string) (Subscription, error) {
	query := `UPDATE subscriptions SET status = $2, updated_at = now()
		WHERE organization_id = $1
		RETURNING ` + subscriptionColumns

	sub, err := scanSubscription(r.pool.QueryRow(ctx, query, orgID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subscription{}, apperr.NotFound("subscription not found")
		}
		return Subscription{}, fmt.Errorf("update subscription status: %w", err)
	}
	return sub, nil
}

func (r *Repository) Cancel(ctx context.Context, orgID uuid.UUID) (Subscription, error) {
	return r.UpdateStatus(ctx, orgID, StatusCanceled)
}

func (r *Repository) RecordPaymentEvent(ctx context.Context, event PaymentEvent) (PaymentEvent, error) {
	query := `INSERT INTO payment_events (organization_id, payment_id, event_type, amount_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING id, organization_id, payment_id, event_type, amount_cents, created_at`

	var out PaymentEvent
	err := r.pool.QueryRow(ctx, query, event.OrganizationID, event.PaymentID, event.EventType, event.AmountCents).Scan(
		&out.ID, &out.OrganizationID, &out.PaymentID, &out.EventType, &out.AmountCents, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return PaymentEvent{}, apperr.Conflict("payment event already recorded")
		}
		return PaymentEvent{}, fmt.Errorf("record payment event: %w", err)
	}
	return out, nil
}

func (r *Repository) ListPaymentEvents(ctx context.Context, orgID uuid.UUID, limit int) ([]PaymentEvent, error) {
	query := `SELECT id, organization_id, payment_id, event_type, amount_cents, created_at
		FROM payment_events
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list payment events: %w", err)
	}
	defer rows.Close()

	var out []PaymentEvent
	for rows.Next() {
		var e PaymentEvent
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.PaymentID, &e.EventType, &e.AmountCents, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
