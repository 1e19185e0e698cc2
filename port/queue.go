package port

import (
	"context"

	"hubsearch/domain"
)

// QueueStore persists indexing work entries.
type QueueStore interface {
	// NextPending returns the oldest incomplete entry for the action, or nil
	// when the queue is drained.
	NextPending(ctx context.Context, action string) (*domain.IndexQueueEntry, error)

	// Enqueue records work for a subject unless an incomplete entry for the
	// same (subject, action) already exists.
	Enqueue(ctx context.Context, subject, action string) error

	// Advance moves the entry's offset forward. It fails with
	// domain.ErrConcurrentModification when another processor advanced the
	// entry first (versioned write).
	Advance(ctx context.Context, entry *domain.IndexQueueEntry, newStart int) error

	// MarkComplete finalizes the entry at the given offset, also versioned.
	MarkComplete(ctx context.Context, entry *domain.IndexQueueEntry, finalStart int) error
}

// ComponentStore persists the migration driver's per-component state.
type ComponentStore interface {
	// Components lists enabled searchable components. A non-empty names list
	// restricts the result; all=true ignores the enablement filter.
	Components(ctx context.Context, names []string, all bool) ([]domain.ComponentState, error)

	// SaveComponent writes back offset and state.
	SaveComponent(ctx context.Context, c *domain.ComponentState) error
}
