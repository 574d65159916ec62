package repository

import (
	"context"

	"github.com/google/uuid"
)

type CallRepository interface {
	GetCallContext(ctx context.Context, callSID string) (CallContext, error)
	RecordHangup(ctx context.Context, callSID, outcome string, durationSeconds int) error
	MarkTransferred(ctx context.Context, orgID, campaignID, leadID uuid.UUID) error
}

var _ CallRepository = (*Repository)(nil)
