package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/circuithospitality/stockroom-sync/internal/domain/shared"
)

type stubProcessor struct {
	deliveryID string
	payload    string
	err        error
}

func (p *stubProcessor) ProcessBatch(_ context.Context, deliveryID string, payload []byte) error {
	p.deliveryID = deliveryID
	p.payload = string(payload)
	return p.err
}

func newWebhookRouter(p *stubProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewWebhookHandler(p, zap.NewNop()).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestWebhookReceive_AcknowledgesWithEmptyBody(t *testing.T) {
	p := &stubProcessor{}
	engine := newWebhookRouter(p)

	body := `[{"model":"Event","type":"updated","id":7,"changes":{}}]`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stockroom", strings.NewReader(body))
	req.Header.Set("X-Delivery-ID", "d-1")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "d-1", p.deliveryID)
	assert.JSONEq(t, body, p.payload)
}

func TestWebhookReceive_ErrorContract(t *testing.T) {
	p := &stubProcessor{err: fmt.Errorf("%w: not an array", shared.ErrInvalidInput)}
	engine := newWebhookRouter(p)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stockroom", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t,
		`{"status":"error","message":"Invalid input provided: not an array"}`,
		w.Body.String(),
	)
}
