// Package billing tracks subscriptions and applies verified payment
// gateway webhooks.
package billing

import (
	"estate_crm_backend/internal/billing/handler"
	"estate_crm_backend/internal/billing/repository"
	"estate_crm_backend/internal/billing/service"
	"estate_crm_backend/internal/events"
	apphttp "estate_crm_backend/internal/http"
	identitysvc "estate_crm_backend/internal/identity/service"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	enabled bool
	log     *logger.Logger
}

func NewModule(pool *pgxpool.Pool, cfg config.BillingConfig, resolver *identitysvc.Resolver, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg.GetPaymentWebhookSecret(), eventBus, log)
	h := handler.New(svc, resolver, val, log)
	return &Module{handler: h, enabled: cfg.IsBillingEnabled(), log: log}
}

func (m *Module) Name() string {
	return "billing"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)

	// Without a shared secret every signature would be rejected, so the
	// webhook endpoint is not mounted at all.
	if !m.enabled {
		m.log.Warn("PAYMENT_WEBHOOK_SECRET not configured; payment webhook disabled")
		return
	}
	m.handler.RegisterWebhooks(ctx.Webhooks)
}

var _ apphttp.Module = (*Module)(nil)
