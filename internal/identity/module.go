// Package identity provides the identity bounded context module:
// organizations, profiles, roles and permission resolution.
package identity

import (
	"time"

	"estate_crm_backend/internal/events"
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/internal/identity/cache"
	"estate_crm_backend/internal/identity/handler"
	"estate_crm_backend/internal/identity/repository"
	"estate_crm_backend/internal/identity/service"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Module struct {
	handler  *handler.Handler
	service  *service.Service
	resolver *service.Resolver
}

func NewModule(pool *pgxpool.Pool, redisClient *redis.Client, cacheTTL time.Duration, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	profileCache := cache.New(redisClient, cacheTTL, log)
	svc := service.New(repo, profileCache, eventBus, log)
	resolver := service.NewResolver(svc)
	h := handler.New(svc, resolver, val)

	return &Module{handler: h, service: svc, resolver: resolver}
}

func (m *Module) Name() string {
	return "identity"
}

// Service exposes profile lookups to sibling modules (telephony transfer
// target selection, notification recipients).
func (m *Module) Service() *service.Service {
	return m.service
}

// Resolver exposes permission resolution to sibling modules.
func (m *Module) Resolver() *service.Resolver {
	return m.resolver
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
