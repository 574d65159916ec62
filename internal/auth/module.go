// Package auth provides the authentication bounded context: credentials,
// JWT issuance and refresh token rotation.
package auth

import (
	"estate_crm_backend/internal/auth/handler"
	"estate_crm_backend/internal/auth/repository"
	"estate_crm_backend/internal/auth/service"
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, mail service.Mailer, appBaseURL string, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, mail, appBaseURL, log)
	h := handler.New(svc, val)

	return &Module{handler: h}
}

func (m *Module) Name() string {
	return "auth"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(authGroup)
	m.handler.RegisterProtectedRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
