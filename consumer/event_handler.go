package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"hubsearch/domain"
	"hubsearch/port"
)

const (
	// EventContentChanged signals a record was created or updated.
	EventContentChanged = "content.changed"
	// EventContentDeleted signals a record was removed.
	EventContentDeleted = "content.deleted"
)

// contentPayload is the payload shape of content events.
type contentPayload struct {
	Subject string `json:"subject"`
	ID      int64  `json:"id"`
}

// IndexEventHandler reacts to content events: changes become indexing queue
// entries, deletions are applied to the engine directly.
type IndexEventHandler struct {
	queue  port.QueueStore
	engine port.SearchEngine
	logger *slog.Logger
}

// NewIndexEventHandler creates an event handler bound to the queue and engine.
func NewIndexEventHandler(queue port.QueueStore, engine port.SearchEngine, logger *slog.Logger) *IndexEventHandler {
	return &IndexEventHandler{
		queue:  queue,
		engine: engine,
		logger: logger,
	}
}

// HandleEvent dispatches one event by type. Unknown event types are logged
// and dropped so the stream keeps moving.
func (h *IndexEventHandler) HandleEvent(ctx context.Context, event *Event) error {
	switch event.EventType {
	case EventContentChanged:
		return h.handleChanged(ctx, event)
	case EventContentDeleted:
		return h.handleDeleted(ctx, event)
	default:
		h.logger.Warn("unknown event type, dropping",
			"event_type", event.EventType,
			"message_id", event.MessageID)
		return nil
	}
}

func (h *IndexEventHandler) handleChanged(ctx context.Context, event *Event) error {
	payload, err := h.decodePayload(event)
	if err != nil {
		h.logger.Warn("dropping malformed change event",
			"message_id", event.MessageID,
			"error", err)
		return nil
	}

	if err := h.queue.Enqueue(ctx, payload.Subject, domain.ActionIndex); err != nil {
		return fmt.Errorf("enqueue %s: %w", payload.Subject, err)
	}

	h.logger.Info("enqueued index request",
		"subject", payload.Subject,
		"event_id", event.EventID)
	return nil
}

func (h *IndexEventHandler) handleDeleted(ctx context.Context, event *Event) error {
	payload, err := h.decodePayload(event)
	if err != nil {
		h.logger.Warn("dropping malformed delete event",
			"message_id", event.MessageID,
			"error", err)
		return nil
	}
	if payload.ID == 0 {
		h.logger.Warn("delete event without record id, dropping",
			"message_id", event.MessageID,
			"subject", payload.Subject)
		return nil
	}

	docID := domain.DocumentID(payload.Subject, payload.ID)
	deleted, err := h.engine.DeleteByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", docID, err)
	}

	h.logger.Info("processed delete event",
		"document_id", docID,
		"deleted", deleted,
		"event_id", event.EventID)
	return nil
}

func (h *IndexEventHandler) decodePayload(event *Event) (*contentPayload, error) {
	if len(event.Payload) == 0 {
		return nil, fmt.Errorf("event %s has empty payload", event.MessageID)
	}

	var payload contentPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.Subject == "" {
		return nil, fmt.Errorf("event %s payload has no subject", event.MessageID)
	}
	return &payload, nil
}
