package sync

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/circuithospitality/stockroom-sync/internal/domain/shared"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/cache"
)

func newTestWebhook(t *testing.T) (*WebhookService, *fakeAPI, *fakeCatalog, *memRepo) {
	t.Helper()
	events, api, cat, repo := newTestEventSync(t)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	svc := NewWebhookService(events, store, shared.DefaultIdempotencyConfig(), zap.NewNop())
	return svc, api, cat, repo
}

func TestProcessBatch_MalformedPayloadFailsWholeBatch(t *testing.T) {
	svc, _, _, _ := newTestWebhook(t)

	for _, payload := range []string{`{"model":"Event"}`, `not json`, `42`} {
		err := svc.ProcessBatch(context.Background(), "", []byte(payload))
		assert.ErrorIs(t, err, shared.ErrInvalidInput, "payload %q", payload)
	}
}

func TestProcessBatch_DispatchesEventCreate(t *testing.T) {
	svc, api, cat, repo := newTestWebhook(t)
	seedVariableEventGraph(api)
	api.events["7"] = variableEvent("7")

	// Numeric id and a bare-minimum changes object: the full graph is
	// fetched because the payload lacks package data.
	payload := []byte(`[{"model":"Event","type":"created","id":7,"changes":{"name":"City Derby"}}]`)
	require.NoError(t, svc.ProcessBatch(context.Background(), "", payload))

	require.Len(t, repo.records(ModelEvent), 1)
	assert.Equal(t, "7", repo.records(ModelEvent)[0].SourceID)
	assert.NotEmpty(t, cat.products)
}

func TestProcessBatch_DeleteReplayIsNoOp(t *testing.T) {
	svc, api, cat, repo := newTestWebhook(t)
	seedVariableEventGraph(api)
	require.NoError(t, svc.events.SyncEvent(context.Background(), "42", variableEvent("42"), ChangeCreated))
	require.Len(t, repo.records(ModelEvent), 1)

	payload := []byte(`[{"model":"Event","type":"deleted","id":42,"changes":{}}]`)
	require.NoError(t, svc.ProcessBatch(context.Background(), "", payload))
	assert.Empty(t, repo.records(ModelEvent))
	assert.Empty(t, cat.products)

	// Replaying the identical batch succeeds without side effects.
	require.NoError(t, svc.ProcessBatch(context.Background(), "", payload))
	assert.Empty(t, repo.records(ModelEvent))
}

func TestProcessBatch_UnknownModelSkipped(t *testing.T) {
	svc, _, _, repo := newTestWebhook(t)

	payload := []byte(`[{"model":"Customer","type":"updated","id":5,"changes":{"name":"x"}}]`)
	require.NoError(t, svc.ProcessBatch(context.Background(), "", payload))
	assert.Empty(t, repo.records(ModelEvent))
}

func TestProcessBatch_PerEventIsolation(t *testing.T) {
	svc, api, _, repo := newTestWebhook(t)
	seedVariableEventGraph(api)
	api.events["7"] = variableEvent("7")

	// First entry references an unknown remote event and fails, second
	// entry still lands.
	payload := []byte(`[
		{"model":"Event","type":"updated","id":666,"changes":{}},
		{"model":"Event","type":"updated","id":7,"changes":{}}
	]`)
	require.NoError(t, svc.ProcessBatch(context.Background(), "", payload))
	require.Len(t, repo.records(ModelEvent), 1)
	assert.Equal(t, "7", repo.records(ModelEvent)[0].SourceID)
}

func TestProcessBatch_DispatchesEventPackageUpdate(t *testing.T) {
	svc, api, cat, repo := newTestWebhook(t)
	seedVariableEventGraph(api)
	require.NoError(t, svc.events.SyncEvent(context.Background(), "7", variableEvent("7"), ChangeCreated))
	productID := repo.records(ModelEvent)[0].TargetID

	payload := []byte(`[{"model":"EventPackage","type":"updated","id":"100","changes":{"net_price":"50.00","available_stock":1}}]`)
	require.NoError(t, svc.ProcessBatch(context.Background(), "", payload))

	variations, err := cat.Variations(context.Background(), productID)
	require.NoError(t, err)
	var found bool
	for _, v := range variations {
		if v.Price.Equal(decimal.RequireFromString("50")) {
			found = true
		}
	}
	assert.True(t, found, "expected a variation updated to 50.00")
}

func TestProcessBatch_DuplicateDeliverySkipped(t *testing.T) {
	svc, api, _, repo := newTestWebhook(t)
	seedVariableEventGraph(api)
	api.events["7"] = variableEvent("7")

	payload := []byte(`[{"model":"Event","type":"updated","id":7,"changes":{}}]`)
	require.NoError(t, svc.ProcessBatch(context.Background(), "delivery-1", payload))
	require.Len(t, repo.records(ModelEvent), 1)

	api.eventFetches = 0
	require.NoError(t, svc.ProcessBatch(context.Background(), "delivery-1", payload))
	assert.Zero(t, api.eventFetches, "duplicate delivery must not hit the remote API")
}

func TestProcessBatch_MissingIDSkipped(t *testing.T) {
	svc, _, _, repo := newTestWebhook(t)

	payload := []byte(`[{"model":"Event","type":"updated","changes":{"name":"x"}}]`)
	require.NoError(t, svc.ProcessBatch(context.Background(), "", payload))
	assert.Empty(t, repo.records(ModelEvent))
}
