package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/circuithospitality/stockroom-sync/internal/interfaces/http/dto"
)

// maxWebhookBody bounds the accepted webhook payload size.
const maxWebhookBody = 2 << 20 // 2MB

// WebhookProcessor consumes a delivered change batch.
type WebhookProcessor interface {
	ProcessBatch(ctx context.Context, deliveryID string, payload []byte) error
}

// WebhookHandler receives change notification batches from the remote
// system. Its response contract is fixed by the sender: 200 with an
// empty body acknowledges the delivery, any other outcome triggers a
// redelivery.
type WebhookHandler struct {
	BaseHandler
	processor WebhookProcessor
	logger    *zap.Logger
}

// NewWebhookHandler creates a WebhookHandler
func NewWebhookHandler(processor WebhookProcessor, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		logger:    logger.Named("webhook_handler"),
	}
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/stockroom", h.Receive)
}

// Receive handles one webhook delivery.
func (h *WebhookHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.fail(c, "failed to read request body")
		return
	}

	deliveryID := c.GetHeader("X-Delivery-ID")
	if err := h.processor.ProcessBatch(c.Request.Context(), deliveryID, payload); err != nil {
		h.logger.Error("webhook batch rejected",
			zap.String("delivery_id", deliveryID),
			zap.String("request_id", getRequestID(c)),
			zap.Error(err),
		)
		h.fail(c, err.Error())
		return
	}

	c.Status(http.StatusOK)
}

func (h *WebhookHandler) fail(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, dto.WebhookErrorResponse{
		Status:  "error",
		Message: message,
	})
}
