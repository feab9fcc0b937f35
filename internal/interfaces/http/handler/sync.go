package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/circuithospitality/stockroom-sync/internal/interfaces/http/dto"
)

// EventPageSyncer reconciles one page of remote events and reports the
// total page count.
type EventPageSyncer interface {
	SyncEventPage(ctx context.Context, page int) (int, error)
}

// SyncHandler exposes the bulk-sync trigger. The caller drives
// pagination itself: it calls with page=1, then increments page until
// it equals totalPages.
type SyncHandler struct {
	BaseHandler
	syncer EventPageSyncer
	logger *zap.Logger
}

// NewSyncHandler creates a SyncHandler
func NewSyncHandler(syncer EventPageSyncer, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		syncer: syncer,
		logger: logger.Named("sync_handler"),
	}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sync/events", h.SyncPage)
}

// SyncPage reconciles one page of remote events.
func (h *SyncHandler) SyncPage(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		h.Error(c, http.StatusBadRequest, "INVALID_PAGE", "page must be a positive integer")
		return
	}

	totalPages, err := h.syncer.SyncEventPage(c.Request.Context(), page)
	if err != nil {
		h.logger.Error("bulk sync page failed",
			zap.Int("page", page),
			zap.String("request_id", getRequestID(c)),
			zap.Error(err),
		)
		h.Error(c, http.StatusBadGateway, "SYNC_FAILED", err.Error())
		return
	}

	h.Success(c, dto.SyncPageResponse{CurrentPage: page, TotalPages: totalPages})
}
