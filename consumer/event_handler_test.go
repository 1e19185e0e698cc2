package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"hubsearch/domain"
	"hubsearch/port"
)

type stubQueue struct {
	enqueued [][2]string
	err      error
}

func (q *stubQueue) NextPending(ctx context.Context, action string) (*domain.IndexQueueEntry, error) {
	return nil, nil
}

func (q *stubQueue) Enqueue(ctx context.Context, subject, action string) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, [2]string{subject, action})
	return nil
}

func (q *stubQueue) Advance(ctx context.Context, entry *domain.IndexQueueEntry, newStart int) error {
	return nil
}

func (q *stubQueue) MarkComplete(ctx context.Context, entry *domain.IndexQueueEntry, finalStart int) error {
	return nil
}

type stubEngine struct {
	deleted []string
}

func (e *stubEngine) Status(ctx context.Context) bool { return true }

func (e *stubEngine) Index(ctx context.Context, doc domain.SearchDocument) error { return nil }
func (e *stubEngine) UpdateIndex(ctx context.Context, doc domain.SearchDocument, id string) error {
	return nil
}

func (e *stubEngine) DeleteByID(ctx context.Context, id string) (bool, error) {
	e.deleted = append(e.deleted, id)
	return true, nil
}

func (e *stubEngine) LastInsert(ctx context.Context) (time.Time, error) { return time.Time{}, nil }

func (e *stubEngine) Log(ctx context.Context, n int) ([]string, error) { return nil, nil }
func (e *stubEngine) Search(ctx context.Context, req port.SearchRequest) (*port.SearchResult, error) {
	return &port.SearchResult{}, nil
}

func (e *stubEngine) SuggestFacet(ctx context.Context, field, prefix string, limit int) ([]string, error) {
	return nil, nil
}
func (e *stubEngine) EnsureIndex(ctx context.Context) error { return nil }

func newTestHandler() (*IndexEventHandler, *stubQueue, *stubEngine) {
	queue := &stubQueue{}
	engine := &stubEngine{}
	return NewIndexEventHandler(queue, engine, slog.Default()), queue, engine
}

func payload(t *testing.T, subject string, id int64) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(contentPayload{Subject: subject, ID: id})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestHandleEvent_ContentChangedEnqueues(t *testing.T) {
	handler, queue, _ := newTestHandler()

	event := &Event{
		MessageID: "1-0",
		EventType: EventContentChanged,
		Payload:   payload(t, "article", 42),
	}

	if err := handler.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if len(queue.enqueued) != 1 {
		t.Fatalf("enqueued = %v", queue.enqueued)
	}
	if queue.enqueued[0] != [2]string{"article", "index"} {
		t.Errorf("enqueued = %v", queue.enqueued[0])
	}
}

func TestHandleEvent_ContentDeletedRemovesDocument(t *testing.T) {
	handler, queue, engine := newTestHandler()

	event := &Event{
		MessageID: "1-0",
		EventType: EventContentDeleted,
		Payload:   payload(t, "article", 42),
	}

	if err := handler.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if len(engine.deleted) != 1 || engine.deleted[0] != "article-42" {
		t.Errorf("deleted = %v, want [article-42]", engine.deleted)
	}
	if len(queue.enqueued) != 0 {
		t.Errorf("deletes must not enqueue, got %v", queue.enqueued)
	}
}

func TestHandleEvent_DropsMalformedEvents(t *testing.T) {
	handler, queue, engine := newTestHandler()
	ctx := context.Background()

	events := []*Event{
		{MessageID: "1-0", EventType: EventContentChanged},                                        // no payload
		{MessageID: "2-0", EventType: EventContentChanged, Payload: json.RawMessage(`not json`)}, // bad json
		{MessageID: "3-0", EventType: EventContentChanged, Payload: json.RawMessage(`{"id":1}`)}, // no subject
		{MessageID: "4-0", EventType: EventContentDeleted, Payload: payload(t, "article", 0)},    // no record id
		{MessageID: "5-0", EventType: "something.else", Payload: payload(t, "article", 1)},       // unknown type
	}

	for _, event := range events {
		if err := handler.HandleEvent(ctx, event); err != nil {
			t.Errorf("HandleEvent(%s) error = %v, malformed events must be dropped", event.MessageID, err)
		}
	}

	if len(queue.enqueued) != 0 || len(engine.deleted) != 0 {
		t.Errorf("side effects from malformed events: %v %v", queue.enqueued, engine.deleted)
	}
}
