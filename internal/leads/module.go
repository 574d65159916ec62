// Package leads provides the lead pipeline bounded context.
package leads

import (
	"estate_crm_backend/internal/events"
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/internal/leads/handler"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/leads/service"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, resolver service.PermissionResolver, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, resolver, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, repo: repo, service: svc}
}

func (m *Module) Name() string {
	return "leads"
}

// Repository exposes lead persistence to sibling modules (campaign engine,
// telephony webhooks) that update contact state.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
