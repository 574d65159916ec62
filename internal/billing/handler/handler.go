package handler

import (
	"net/http"
	"strconv"

	"estate_crm_backend/internal/billing/service"
	"estate_crm_backend/internal/billing/transport"
	identitysvc "estate_crm_backend/internal/identity/service"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgForbidden        = "forbidden"
	msgInvalidSignature = "invalid signature"

	signatureHeader = "X-Payment-Signature"
)

type Handler struct {
	svc      *service.Service
	resolver *identitysvc.Resolver
	val      *validator.Validator
	log      *logger.Logger
}

func New(svc *service.Service, resolver *identitysvc.Resolver, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, resolver: resolver, val: val, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/billing/subscription", h.CreateSubscription)
	rg.GET("/billing/subscription", h.GetSubscription)
	rg.DELETE("/billing/subscription", h.CancelSubscription)
	rg.GET("/billing/payments", h.ListPayments)
}

func (h *Handler) RegisterWebhooks(rg *gin.RouterGroup) {
	rg.POST("/billing/payment", h.PaymentWebhook)
}

func (h *Handler) requireBillingView(c *gin.Context) bool {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return false
	}
	if !h.resolver.HasPermission(c.Request.Context(), identity.UserID(), identitysvc.PermBillingView) {
		httpkit.Error(c, http.StatusForbidden, msgForbidden, nil)
		return false
	}
	return true
}

func (h *Handler) CreateSubscription(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if !h.requireBillingView(c) {
		return
	}

	var req transport.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	sub, err := h.svc.CreateSubscription(c.Request.Context(), tenantID, req.Plan)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToSubscriptionResponse(sub))
}

func (h *Handler) GetSubscription(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if !h.requireBillingView(c) {
		return
	}

	sub, err := h.svc.Subscription(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSubscriptionResponse(sub))
}

func (h *Handler) CancelSubscription(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if !h.requireBillingView(c) {
		return
	}

	sub, err := h.svc.CancelSubscription(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSubscriptionResponse(sub))
}

func (h *Handler) ListPayments(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if !h.requireBillingView(c) {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	payments, err := h.svc.PaymentEvents(c.Request.Context(), tenantID, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.PaymentEventResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, transport.ToPaymentEventResponse(p))
	}
	httpkit.OK(c, out)
}

// PaymentWebhook verifies the gateway signature over the raw body before
// any parsing. A bad signature is a hard 400; the gateway retries on its
// own schedule.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	rawBody, err := c.GetRawData()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	signature := c.GetHeader(signatureHeader)
	if !h.svc.VerifySignature(rawBody, signature) {
		h.log.WebhookEvent("billing", "signature_rejected", "")
		httpkit.Error(c, http.StatusBadRequest, msgInvalidSignature, nil)
		return
	}

	sub, err := h.svc.ApplyPayment(c.Request.Context(), rawBody)
	if httpkit.HandleError(c, err) {
		return
	}

	h.log.WebhookEvent("billing", "payment_applied", "")
	httpkit.OK(c, transport.ToSubscriptionResponse(sub))
}
