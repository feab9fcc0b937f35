package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/circuithospitality/stockroom-sync/internal/interfaces/http/dto"
)

type stubSyncer struct {
	page       int
	totalPages int
	err        error
}

func (s *stubSyncer) SyncEventPage(_ context.Context, page int) (int, error) {
	s.page = page
	return s.totalPages, s.err
}

func newSyncRouter(s *stubSyncer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewSyncHandler(s, zap.NewNop()).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestSyncPage_ReturnsPagination(t *testing.T) {
	s := &stubSyncer{totalPages: 4}
	engine := newSyncRouter(s)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/events?page=2", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, s.page)

	var resp struct {
		Success bool                 `json:"success"`
		Data    dto.SyncPageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Data.CurrentPage)
	assert.Equal(t, 4, resp.Data.TotalPages)
}

func TestSyncPage_DefaultsToFirstPage(t *testing.T) {
	s := &stubSyncer{totalPages: 1}
	engine := newSyncRouter(s)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/events", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, s.page)
}

func TestSyncPage_RejectsInvalidPage(t *testing.T) {
	engine := newSyncRouter(&stubSyncer{})

	for _, page := range []string{"0", "-1", "abc"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/events?page="+page, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "page=%s", page)
	}
}

func TestSyncPage_SyncFailure(t *testing.T) {
	s := &stubSyncer{err: errors.New("fetch events page 3: connection refused")}
	engine := newSyncRouter(s)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/events?page=3", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SYNC_FAILED", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "connection refused")
}
