package notification

import (
	"context"
	"fmt"
	"net"
	"time"

	"estate_crm_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers email over the configured SMTP relay via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error {
	content, err := renderTemplate("password_reset.html", passwordResetData{ResetURL: resetURL})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, "Reset your password", content)
}

func (s *SMTPSender) SendCampaignSummaryEmail(ctx context.Context, toEmail, campaignName, conversionRate string, totalCalls, transferredCalls int) error {
	content, err := renderTemplate("campaign_summary.html", campaignSummaryData{
		CampaignName:     campaignName,
		TotalCalls:       totalCalls,
		TransferredCalls: transferredCalls,
		ConversionRate:   conversionRate,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf("Campaign %q finished", campaignName), content)
}

func (s *SMTPSender) SendLeadTransferEmail(ctx context.Context, toEmail, leadName, leadPhone string) error {
	content, err := renderTemplate("lead_transfer.html", leadTransferData{
		LeadName:  leadName,
		LeadPhone: leadPhone,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, "A lead was transferred to you", content)
}

var _ Sender = (*SMTPSender)(nil)
