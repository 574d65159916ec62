package handler

import (
	"net/http"
	"strconv"

	"estate_crm_backend/internal/telephony/service"
	"estate_crm_backend/internal/telephony/transport"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Handler terminates the voice provider's webhooks. Providers retry on
// non-2xx and cannot act on error bodies, so every endpoint answers 200
// and failures degrade to a hangup document or an empty response.
type Handler struct {
	svc *service.Service
	log *logger.Logger
}

func New(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/telephony/answer", h.Answer)
	rg.POST("/telephony/hangup", h.Hangup)
	rg.POST("/telephony/transfer", h.Transfer)
}

// RegisterProtectedRoutes exposes the recording archive to authenticated
// users, separate from the provider-facing webhook group.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/calls/:callSID/recording-url", h.RecordingURL)
}

func (h *Handler) RecordingURL(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	callSID := c.Param("callSID")

	url, err := h.svc.RecordingURL(c.Request.Context(), tenantID, callSID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, url)
}

func (h *Handler) Answer(c *gin.Context) {
	callSID := c.PostForm("CallSid")
	h.log.WebhookEvent("telephony", "answer", callSID)

	action, err := h.svc.Answer(c.Request.Context(), callSID)
	if err != nil {
		h.log.Warn("answer webhook degraded to hangup", "call_sid", callSID, "error", err.Error())
		httpkit.XML(c, http.StatusOK, transport.HangupXML)
		return
	}

	httpkit.XML(c, http.StatusOK, transport.AnswerXML(action))
}

func (h *Handler) Hangup(c *gin.Context) {
	callSID := c.PostForm("CallSid")
	cause := c.PostForm("HangupCause")
	duration, _ := strconv.Atoi(c.PostForm("Duration"))
	h.log.WebhookEvent("telephony", "hangup", callSID)

	// Persistence failures are logged inside the service; the provider
	// always gets a 200 so it stops retrying.
	_ = h.svc.Hangup(c.Request.Context(), callSID, cause, duration)

	c.Status(http.StatusOK)
}

func (h *Handler) Transfer(c *gin.Context) {
	callSID := c.PostForm("CallSid")
	fallback := c.Query("fallback")
	h.log.WebhookEvent("telephony", "transfer", callSID)

	dest, err := h.svc.Transfer(c.Request.Context(), callSID, fallback)
	if err != nil {
		h.log.Warn("transfer webhook degraded to hangup", "call_sid", callSID, "error", err.Error())
		httpkit.XML(c, http.StatusOK, transport.HangupXML)
		return
	}

	httpkit.XML(c, http.StatusOK, transport.TransferXML(dest))
}
