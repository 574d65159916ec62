// Package telephony terminates voice provider webhooks for the outbound
// call surface.
package telephony

import (
	"estate_crm_backend/internal/events"
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/internal/telephony/handler"
	"estate_crm_backend/internal/telephony/repository"
	"estate_crm_backend/internal/storage"
	"estate_crm_backend/internal/telephony/service"
	"estate_crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, cfg service.AnswerConfig, agents service.AgentDirectory, store storage.Service, recordingsBucket string, eventBus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, agents, eventBus, log)
	if store != nil {
		svc.SetRecordingStore(store, recordingsBucket)
	}
	h := handler.New(svc, log)
	return &Module{handler: h}
}

func (m *Module) Name() string {
	return "telephony"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Webhooks)
	m.handler.RegisterProtectedRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
