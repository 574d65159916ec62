// Package notification delivers outbound email for account flows and
// campaign activity digests.
package notification

import (
	"context"

	"estate_crm_backend/platform/logger"
)

// Sender delivers notification email. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error
	SendCampaignSummaryEmail(ctx context.Context, toEmail, campaignName, conversionRate string, totalCalls, transferredCalls int) error
	SendLeadTransferEmail(ctx context.Context, toEmail, leadName, leadPhone string) error
}

// NoopSender is used when SMTP is not configured. It logs what would have
// been sent so local environments stay observable.
type NoopSender struct {
	log *logger.Logger
}

func NewNoopSender(log *logger.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (s *NoopSender) SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error {
	s.log.Info("email disabled, skipping password reset email", "to", toEmail)
	return nil
}

func (s *NoopSender) SendCampaignSummaryEmail(ctx context.Context, toEmail, campaignName, conversionRate string, totalCalls, transferredCalls int) error {
	s.log.Info("email disabled, skipping campaign summary email", "to", toEmail, "campaign", campaignName)
	return nil
}

func (s *NoopSender) SendLeadTransferEmail(ctx context.Context, toEmail, leadName, leadPhone string) error {
	s.log.Info("email disabled, skipping lead transfer email", "to", toEmail)
	return nil
}

var _ Sender = (*NoopSender)(nil)
