package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/circuithospitality/stockroom-sync/internal/domain/shared"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/stockroom"
)

// ChangeEvent is one entry of a webhook batch: a change notification for
// a remote entity with a partial payload of the changed fields.
type ChangeEvent struct {
	Model   string           `json:"model"`
	Type    ChangeType       `json:"type"`
	ID      stockroom.FlexID `json:"id"`
	Changes json.RawMessage  `json:"changes"`
}

// WebhookService consumes webhook change batches and dispatches each
// entry to the event reconciler. Deliveries are at-least-once on the
// sender side, so processing must stay safe under replay.
type WebhookService struct {
	events      *EventSyncService
	idempotency shared.IdempotencyStore
	dedupTTL    shared.IdempotencyConfig
	logger      *zap.Logger
}

// NewWebhookService creates a WebhookService. The idempotency store is
// optional; without one every delivery is processed (reprocessing is
// idempotent by construction, dedup only saves the work).
func NewWebhookService(events *EventSyncService, idempotency shared.IdempotencyStore, cfg shared.IdempotencyConfig, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		events:      events,
		idempotency: idempotency,
		dedupTTL:    cfg,
		logger:      logger.Named("webhook"),
	}
}

// ProcessBatch handles one delivered webhook body. Malformed JSON or a
// non-array top level fails the whole batch; inside a well-formed batch
// each event is processed independently and per-event failures are
// logged without contaminating the rest.
func (s *WebhookService) ProcessBatch(ctx context.Context, deliveryID string, payload []byte) error {
	var batch []ChangeEvent
	if err := json.Unmarshal(payload, &batch); err != nil {
		return fmt.Errorf("%w: webhook payload is not a change event array: %v", shared.ErrInvalidInput, err)
	}

	dedup := s.idempotency != nil && s.dedupTTL.Enabled && deliveryID != ""
	if dedup {
		processed, err := s.idempotency.IsProcessed(ctx, deliveryID)
		if err != nil {
			s.logger.Warn("idempotency lookup failed, processing anyway",
				zap.String("delivery_id", deliveryID),
				zap.Error(err),
			)
		} else if processed {
			s.logger.Info("duplicate delivery skipped", zap.String("delivery_id", deliveryID))
			return nil
		}
	}

	for i := range batch {
		s.dispatch(ctx, &batch[i])
	}

	if dedup {
		if _, err := s.idempotency.MarkProcessed(ctx, deliveryID, s.dedupTTL.TTL); err != nil {
			s.logger.Warn("failed to record delivery as processed",
				zap.String("delivery_id", deliveryID),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (s *WebhookService) dispatch(ctx context.Context, change *ChangeEvent) {
	id := change.ID.String()
	if id == "" {
		s.logger.Warn("change event without id skipped", zap.String("model", change.Model))
		return
	}

	switch change.Type {
	case ChangeCreated, ChangeUpdated, ChangeDeleted:
	default:
		s.logger.Warn("change event with unknown type skipped",
			zap.String("model", change.Model),
			zap.String("type", string(change.Type)),
		)
		return
	}

	var err error
	switch canonicalModel(change.Model) {
	case "event":
		var ev *stockroom.Event
		ev, err = decodeChanges[stockroom.Event](change)
		if err == nil {
			if ev != nil {
				ev.ID = change.ID
			}
			err = s.events.SyncEvent(ctx, id, ev, change.Type)
		}
	case "event_package":
		var pkg *stockroom.EventPackage
		pkg, err = decodeChanges[stockroom.EventPackage](change)
		if err == nil {
			if pkg != nil {
				pkg.ID = change.ID
			}
			err = s.events.SyncEventPackage(ctx, id, pkg, change.Type)
		}
	default:
		// Unhandled models are a forward-compatible no-op.
		s.logger.Debug("unhandled model skipped",
			zap.String("model", change.Model),
			zap.String("id", id),
		)
		return
	}

	if err != nil {
		s.logger.Error("failed to process change event",
			zap.String("model", change.Model),
			zap.String("type", string(change.Type)),
			zap.String("id", id),
			zap.Error(err),
		)
	}
}

// canonicalModel normalizes the sender's model names, which arrive in
// class-name casing ("Event", "EventPackage") or snake case.
func canonicalModel(model string) string {
	switch strings.ReplaceAll(strings.ToLower(model), "_", "") {
	case "event":
		return "event"
	case "eventpackage":
		return "event_package"
	default:
		return ""
	}
}

// decodeChanges unmarshals the partial payload of a change event, or
// returns nil when the payload carries no fields at all.
func decodeChanges[T any](change *ChangeEvent) (*T, error) {
	raw := bytes.TrimSpace(change.Changes)
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "{}" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s changes: %w", change.Model, err)
	}
	return &v, nil
}
