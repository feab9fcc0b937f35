package stockroom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
	}, zap.NewNop())
	return client, server
}

func TestClient_NotConfiguredFailsFast(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	client.cfg.APIKey = ""

	_, err := client.Get(context.Background(), "events", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, called)
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data": []}`))
	})

	_, err := client.Get(context.Background(), "events", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestClient_401IsInvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Get(context.Background(), "events", nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestClient_ClientErrorBodyIsAccepted(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"validation failed","errors":{"order_items":["required"]}}`))
	})

	doc, err := client.Get(context.Background(), "events", nil)
	require.NoError(t, err)
	assert.True(t, doc.HasErrors())
	assert.Equal(t, http.StatusUnprocessableEntity, doc.StatusCode)
	assert.Equal(t, "validation failed; order_items: required", doc.ErrorText())
}

func TestClient_ServerErrorFailsWithStatusAndBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	})

	_, err := client.Get(context.Background(), "events", nil)
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadGateway, reqErr.Status)
	assert.Contains(t, reqErr.Body, "upstream exploded")
}

func TestClient_400FailsHard(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"bad request"}`))
	})

	_, err := client.Get(context.Background(), "events", nil)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.Status)
}

func TestClient_TransportFailureIsUnavailable(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.Get(context.Background(), "events", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_FetchEvents(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "event_packages", r.URL.Query().Get("with"))
		assert.NotEmpty(t, r.URL.Query().Get("starts_at"))

		w.Write([]byte(`{
			"data": [
				{"id": 42, "name": "Derby Day", "simple": 0, "event_packages": [{"id": "9001", "net_price": "120.5", "available_stock": 12}]}
			],
			"total": 120
		}`))
	})

	events, total, err := client.FetchEvents(context.Background(), 2, 50)
	require.NoError(t, err)
	assert.Equal(t, 120, total)
	require.Len(t, events, 1)
	assert.Equal(t, "42", events[0].ID.String())
	assert.Equal(t, "Derby Day", *events[0].Name)
	assert.False(t, events[0].Simple.Bool())
	require.Len(t, events[0].EventPackages, 1)
	assert.Equal(t, "9001", events[0].EventPackages[0].ID.String())
	assert.Equal(t, "120.5", events[0].EventPackages[0].NetPrice.String())
	assert.Equal(t, 12, *events[0].EventPackages[0].AvailableStock)
}

func TestClient_CreateBasket(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/basket", r.URL.Path)

		var req CreateBasketRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.OrderItems, 1)
		assert.Equal(t, "9001", req.OrderItems[0].EventPackageID)
		assert.Equal(t, 2, req.OrderItems[0].Quantity)

		w.Write([]byte(`{"data": {"id": "bsk_12345"}}`))
	})

	basket, err := client.CreateBasket(context.Background(), CreateBasketRequest{
		OrderItems: []OrderItem{{EventPackageID: "9001", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "bsk_12345", basket.RemoteToken())
}

func TestClient_CreateBasket_LegacyTokenField(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"token": "abc-123"}}`))
	})

	basket, err := client.CreateBasket(context.Background(), CreateBasketRequest{})
	require.NoError(t, err)
	assert.Equal(t, "abc-123", basket.RemoteToken())
}

func TestClient_CreateBasket_StructuredErrorBecomesAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"cannot create basket","errors":{"order_items.0":["out of stock"]}}`))
	})

	_, err := client.CreateBasket(context.Background(), CreateBasketRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Error(), "cannot create basket")
	assert.Contains(t, apiErr.Error(), "out of stock")
}

func TestClient_PlaceOrder(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/basket/abc-123/place-order", r.URL.Path)

		var req PlaceOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "INV-7", req.Reference)
		assert.Equal(t, "completed", req.Status)

		w.Write([]byte(`{"data": {}}`))
	})

	err := client.PlaceOrder(context.Background(), "abc-123", PlaceOrderRequest{Reference: "INV-7", Status: "completed"})
	assert.NoError(t, err)
}

func TestFlexID_UnmarshalNumberAndString(t *testing.T) {
	var payload struct {
		A FlexID  `json:"a"`
		B FlexID  `json:"b"`
		C *FlexID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 42, "b": "abc", "c": null}`), &payload))
	assert.Equal(t, "42", payload.A.String())
	assert.Equal(t, "abc", payload.B.String())
}

func TestFlag_UnmarshalVariants(t *testing.T) {
	cases := map[string]bool{
		`true`:  true,
		`false`: false,
		`1`:     true,
		`0`:     false,
		`"1"`:   true,
		`"0"`:   false,
	}
	for input, want := range cases {
		var f Flag
		require.NoError(t, json.Unmarshal([]byte(input), &f), input)
		assert.Equal(t, want, f.Bool(), input)
	}
}

func TestClient_QueryParametersEncoded(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a b", r.URL.Query().Get("name"))
		w.Write([]byte(`{"data": []}`))
	})

	q := url.Values{}
	q.Set("name", "a b")
	_, err := client.Get(context.Background(), "events", q)
	assert.NoError(t, err)
}
