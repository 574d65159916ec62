// Package properties provides the unit inventory bounded context.
package properties

import (
	"estate_crm_backend/internal/events"
	apphttp "estate_crm_backend/internal/http"
	identitysvc "estate_crm_backend/internal/identity/service"
	"estate_crm_backend/internal/properties/handler"
	"estate_crm_backend/internal/properties/repository"
	"estate_crm_backend/internal/properties/service"
	"estate_crm_backend/internal/storage"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the property inventory module. store may be nil when
// object storage is disabled; photo endpoints then reject.
func NewModule(pool *pgxpool.Pool, resolver *identitysvc.Resolver, store storage.Service, photosBucket string, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, store, photosBucket, eventBus, log)
	h := handler.New(svc, resolver, val)
	return &Module{handler: h, service: svc}
}

func (m *Module) Name() string {
	return "properties"
}

func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
