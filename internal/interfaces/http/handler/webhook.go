package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	syncapp "github.com/bloomshop/backend/internal/application/sync"
	domainsync "github.com/bloomshop/backend/internal/domain/sync"
	"github.com/bloomshop/backend/internal/infrastructure/logger"
	"github.com/bloomshop/backend/internal/interfaces/http/dto"
)

// WebhookSecretHeader carries the per-tenant shared secret on every
// CRM delivery
const WebhookSecretHeader = "X-Webhook-Secret"

// Maximum webhook payload size (1MB - CRM event payloads are small)
const maxWebhookPayloadSize = 1 << 20

// WebhookHandler receives CRM change events. These endpoints are called
// by the CRM and authenticate by webhook secret, not by user session.
type WebhookHandler struct {
	BaseHandler
	receiver *syncapp.ReceiverService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(receiver *syncapp.ReceiverService) *WebhookHandler {
	return &WebhookHandler{receiver: receiver}
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/product-sync", h.HandleProductEvent)
		webhooks.POST("/order-status-sync", h.HandleOrderEvent)
	}
}

// HandleProductEvent processes a product created/updated/deleted event
func (h *WebhookHandler) HandleProductEvent(c *gin.Context) {
	h.handleEvent(c, h.receiver.HandleProductEvent)
}

// HandleOrderEvent processes an order status change event
func (h *WebhookHandler) HandleOrderEvent(c *gin.Context) {
	h.handleEvent(c, h.receiver.HandleOrderEvent)
}

func (h *WebhookHandler) handleEvent(c *gin.Context, apply func(ctx context.Context, secret string, raw []byte) error) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeBadRequest, "Payload too large")
		return
	}

	secret := c.GetHeader(WebhookSecretHeader)
	if err := apply(c.Request.Context(), secret, payload); err != nil {
		h.handleSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAcceptedResponse())
}

// handleSyncError maps sync errors onto webhook response codes. The
// split matters to the CRM: 401/403 mean fix the configuration, 400/422
// mean the delivery is permanently rejected, 409 means retry.
func (h *WebhookHandler) handleSyncError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainsync.ErrInvalidSecret):
		h.Unauthorized(c, "Webhook secret does not match any configured tenant")
	case errors.Is(err, domainsync.ErrTenantNotBacked):
		h.Forbidden(c, "CRM sync is disabled for this tenant")
	case errors.Is(err, domainsync.ErrInvalidEnvelope):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Payload does not match a known event shape")
	case domainsync.IsParseError(err):
		h.UnprocessableEntity(c, dto.ErrCodeUnprocessable, err.Error())
	case errors.Is(err, domainsync.ErrUnknownStatusCode):
		h.UnprocessableEntity(c, dto.ErrCodeUnprocessable, "Unknown CRM order status code")
	case errors.Is(err, domainsync.ErrOrderNotFound):
		h.UnprocessableEntity(c, dto.ErrCodeUnprocessable, "No local order matches the external order ID")
	case errors.Is(err, domainsync.ErrEntityLocked):
		h.Conflict(c, dto.ErrCodeConcurrencyConflict, "Entity is being modified by a concurrent event, retry the delivery")
	default:
		logger.FromGin(c).Error("Webhook processing failed", zap.Error(err))
		h.InternalError(c, "Failed to process the event")
	}
}
