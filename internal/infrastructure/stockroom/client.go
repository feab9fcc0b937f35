package stockroom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxResponseSize is the maximum allowed response size from the remote API (10MB)
const maxResponseSize = 10 * 1024 * 1024

var (
	// ErrNotConfigured indicates the client has no API key and cannot
	// make any request
	ErrNotConfigured = errors.New("stockroom: API key not configured")

	// ErrInvalidCredentials indicates the remote API rejected the
	// bearer token; callers should not retry
	ErrInvalidCredentials = errors.New("stockroom: invalid API credentials")

	// ErrUnavailable indicates a transport-level failure before any
	// HTTP response was received
	ErrUnavailable = errors.New("stockroom: API unavailable")
)

// RequestError carries the HTTP status and raw body of a rejected
// response for diagnostics.
type RequestError struct {
	Status int
	Body   string
	Err    error
}

// Error implements the error interface
func (e *RequestError) Error() string {
	msg := fmt.Sprintf("stockroom: request failed (%d)", e.Status)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap returns the underlying error
func (e *RequestError) Unwrap() error {
	return e.Err
}

// APIError is a structured error body returned with an accepted
// (401-499 range) response status.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

// Error implements the error interface, flattening field errors into one line
func (e *APIError) Error() string {
	doc := Document{Errors: e.Fields, Message: e.Message}
	text := doc.ErrorText()
	if text == "" {
		text = "unknown error"
	}
	return "stockroom: " + text
}

// Config holds the client settings
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is the authenticated request/response layer to the remote
// catalog/booking system.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Stockroom API client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Get performs an authenticated GET request
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Document, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post performs an authenticated POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body any) (*Document, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// do executes a request. A response is accepted if its status is 2xx or
// in the 402-499 range, where the body carries a structured error the
// caller can inspect. 401 fails with ErrInvalidCredentials; anything
// else fails with a RequestError carrying status and raw body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*Document, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("stockroom: failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("stockroom: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("stockroom: failed to read response: %w", err)
	}

	status := resp.StatusCode
	switch {
	case status == http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	case status >= 200 && status < 300:
		// accepted
	case status >= 402 && status < 500:
		// accepted: client error with an inspectable body
	default:
		return nil, &RequestError{Status: status, Body: string(raw)}
	}

	var doc Document
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, &RequestError{Status: status, Body: string(raw), Err: err}
		}
	}
	doc.StatusCode = status

	c.logger.Debug("stockroom request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
	)

	return &doc, nil
}

// errorFromDocument converts a structured error body into an APIError,
// or nil when the response carries no error.
func errorFromDocument(doc *Document) error {
	if doc == nil || !doc.HasErrors() {
		return nil
	}
	return &APIError{Status: doc.StatusCode, Message: doc.Message, Fields: doc.Errors}
}

// ---------------------------------------------------------------------------
// Typed endpoints
// ---------------------------------------------------------------------------

// FetchEvents returns one page of upcoming events with their packages,
// plus the total number of events for pagination.
func (c *Client) FetchEvents(ctx context.Context, page, limit int) ([]Event, int, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("active", "0")
	q.Set("starts_at", time.Now().Format(time.RFC3339))
	q.Set("with", "event_packages")

	doc, err := c.Get(ctx, "events", q)
	if err != nil {
		return nil, 0, err
	}
	if err := errorFromDocument(doc); err != nil {
		return nil, 0, err
	}

	var events []Event
	if err := doc.Decode(&events); err != nil {
		return nil, 0, fmt.Errorf("stockroom: failed to decode events: %w", err)
	}
	return events, doc.Total, nil
}

// FetchEvent returns a single event with its packages
func (c *Client) FetchEvent(ctx context.Context, id string) (*Event, error) {
	q := url.Values{}
	q.Set("with", "event_packages")

	doc, err := c.Get(ctx, "events/"+id, q)
	if err != nil {
		return nil, err
	}
	if err := errorFromDocument(doc); err != nil {
		return nil, err
	}

	var event Event
	if err := doc.Decode(&event); err != nil {
		return nil, fmt.Errorf("stockroom: failed to decode event %s: %w", id, err)
	}
	return &event, nil
}

// FetchEventType returns a single event type node
func (c *Client) FetchEventType(ctx context.Context, id string) (*EventType, error) {
	doc, err := c.Get(ctx, "event-types/"+id, nil)
	if err != nil {
		return nil, err
	}
	if err := errorFromDocument(doc); err != nil {
		return nil, err
	}

	var eventType EventType
	if err := doc.Decode(&eventType); err != nil {
		return nil, fmt.Errorf("stockroom: failed to decode event type %s: %w", id, err)
	}
	return &eventType, nil
}

// FetchClub returns a single club
func (c *Client) FetchClub(ctx context.Context, id string) (*Club, error) {
	doc, err := c.Get(ctx, "clubs/"+id, nil)
	if err != nil {
		return nil, err
	}
	if err := errorFromDocument(doc); err != nil {
		return nil, err
	}

	var club Club
	if err := doc.Decode(&club); err != nil {
		return nil, fmt.Errorf("stockroom: failed to decode club %s: %w", id, err)
	}
	return &club, nil
}

// FetchVenue returns a single venue
func (c *Client) FetchVenue(ctx context.Context, id string) (*Venue, error) {
	doc, err := c.Get(ctx, "venues/"+id, nil)
	if err != nil {
		return nil, err
	}
	if err := errorFromDocument(doc); err != nil {
		return nil, err
	}

	var venue Venue
	if err := doc.Decode(&venue); err != nil {
		return nil, fmt.Errorf("stockroom: failed to decode venue %s: %w", id, err)
	}
	return &venue, nil
}

// FetchPackage returns a single package master record
func (c *Client) FetchPackage(ctx context.Context, id string) (*Package, error) {
	doc, err := c.Get(ctx, "packages/"+id, nil)
	if err != nil {
		return nil, err
	}
	if err := errorFromDocument(doc); err != nil {
		return nil, err
	}

	var pkg Package
	if err := doc.Decode(&pkg); err != nil {
		return nil, fmt.Errorf("stockroom: failed to decode package %s: %w", id, err)
	}
	return &pkg, nil
}

// CreateBasket creates an in-progress remote order and returns its token
func (c *Client) CreateBasket(ctx context.Context, req CreateBasketRequest) (*CreatedBasket, error) {
	doc, err := c.Post(ctx, "basket", req)
	if err != nil {
		return nil, err
	}
	if err := errorFromDocument(doc); err != nil {
		return nil, err
	}

	var basket CreatedBasket
	if err := doc.Decode(&basket); err != nil {
		return nil, fmt.Errorf("stockroom: failed to decode basket: %w", err)
	}
	return &basket, nil
}

// PlaceOrder finalizes a basket into a completed order
func (c *Client) PlaceOrder(ctx context.Context, token string, req PlaceOrderRequest) error {
	doc, err := c.Post(ctx, "basket/"+token+"/place-order", req)
	if err != nil {
		return err
	}
	return errorFromDocument(doc)
}

// CreateOrder creates a completed remote order directly
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreatedOrder, error) {
	doc, err := c.Post(ctx, "orders", req)
	if err != nil {
		return nil, err
	}
	if err := errorFromDocument(doc); err != nil {
		return nil, err
	}

	var order CreatedOrder
	if err := doc.Decode(&order); err != nil {
		return nil, fmt.Errorf("stockroom: failed to decode order: %w", err)
	}
	return &order, nil
}
