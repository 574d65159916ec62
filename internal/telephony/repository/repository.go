package repository

import (
	"context"
	"errors"
	"fmt"

	"estate_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CallContext is everything the webhook surface needs to know about an
// in-flight call, resolved from the provider's call SID.
type CallContext struct {
	CallLogID      uuid.UUID
	OrganizationID uuid.UUID
	CampaignID     uuid.UUID
	LeadID         uuid.UUID
	LeadName       string
	LeadPhone      string
}

const getCallContextQuery = `
	SELECT cl.id, cl.organization_id, cl.campaign_id, cl.lead_id, l.name, l.phone
	FROM call_logs cl
	JOIN leads l ON l.id = cl.lead_id
	WHERE cl.call_sid = $1`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetCallContext resolves a provider call SID to its call log, campaign and
// lead. NotFound for SIDs this system never issued.
func (r *Repository) GetCallContext(ctx context.Context, callSID string) (CallContext, error) {
	var cc CallContext
	err := r.pool.QueryRow(ctx, getCallContextQuery, callSID).Scan(
		&cc.CallLogID, &cc.OrganizationID, &cc.CampaignID, &cc.LeadID, &cc.LeadName, &cc.LeadPhone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CallContext{}, apperr.NotFound("unknown call")
		}
		return CallContext{}, fmt.Errorf("get call context: %w", err)
	}
	return cc, nil
}

// RecordHangup finalizes a call log with the outcome derived from the
// hangup cause. Concurrent webhooks for the same SID are last-write-wins.
func (r *Repository) RecordHangup(ctx context.Context, callSID, outcome string, durationSeconds int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE call_logs SET outcome = $2, duration_seconds = $3
		WHERE call_sid = $1`,
		callSID, outcome, durationSeconds)
	if err != nil {
		return fmt.Errorf("record hangup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("unknown call")
	}
	return nil
}

// MarkTransferred flags the most recent call log for the lead within the
// campaign as transferred and sets the lead's handoff flag, atomically.
func (r *Repository) MarkTransferred(ctx context.Context, orgID, campaignID, leadID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE call_logs SET transferred = true
		WHERE id = (
			SELECT id FROM call_logs
			WHERE organization_id = $1 AND campaign_id = $2 AND lead_id = $3
			ORDER BY created_at DESC
			LIMIT 1
		)`,
		orgID, campaignID, leadID)
	if err != nil {
		return fmt.Errorf("mark call transferred: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("no call log for lead")
	}

	_, err = tx.Exec(ctx, `
		UPDATE leads SET transferred_to_human = true, updated_at = now()
		WHERE id = $1 AND organization_id = $2`,
		leadID, orgID)
	if err != nil {
		return fmt.Errorf("mark lead transferred: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}
	return nil
}
