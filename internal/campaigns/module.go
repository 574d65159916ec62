// Package campaigns provides the outbound call campaign bounded context:
// projects, campaigns and the call simulation engine.
package campaigns

import (
	"estate_crm_backend/internal/campaigns/handler"
	"estate_crm_backend/internal/campaigns/repository"
	"estate_crm_backend/internal/campaigns/service"
	"estate_crm_backend/internal/events"
	apphttp "estate_crm_backend/internal/http"
	identitysvc "estate_crm_backend/internal/identity/service"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, resolver *identitysvc.Resolver, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, nil, eventBus, log)
	h := handler.New(svc, resolver, val)

	return &Module{handler: h, service: svc}
}

func (m *Module) Name() string {
	return "campaigns"
}

// Service exposes campaign runs to the worker (scheduled campaigns).
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
