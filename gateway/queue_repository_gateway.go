package gateway

import (
	"context"
	"errors"

	"hubsearch/domain"
)

// QueueDriver is the driver-level persistence surface for queue entries and
// component state.
type QueueDriver interface {
	NextPending(ctx context.Context, action string) (*domain.IndexQueueEntry, error)
	Enqueue(ctx context.Context, subject, action string) error
	Advance(ctx context.Context, entry *domain.IndexQueueEntry, newStart int) error
	MarkComplete(ctx context.Context, entry *domain.IndexQueueEntry, finalStart int) error
	Components(ctx context.Context, names []string, all bool) ([]domain.ComponentState, error)
	SaveComponent(ctx context.Context, c *domain.ComponentState) error
}

// QueueRepositoryGateway converts driver errors into repository errors while
// preserving their kind.
type QueueRepositoryGateway struct {
	driver QueueDriver
}

func NewQueueRepositoryGateway(driver QueueDriver) *QueueRepositoryGateway {
	return &QueueRepositoryGateway{driver: driver}
}

func (g *QueueRepositoryGateway) NextPending(ctx context.Context, action string) (*domain.IndexQueueEntry, error) {
	entry, err := g.driver.NextPending(ctx, action)
	if err != nil {
		return nil, wrapRepoErr("NextPending", err)
	}
	return entry, nil
}

func (g *QueueRepositoryGateway) Enqueue(ctx context.Context, subject, action string) error {
	if err := g.driver.Enqueue(ctx, subject, action); err != nil {
		return wrapRepoErr("Enqueue", err)
	}
	return nil
}

func (g *QueueRepositoryGateway) Advance(ctx context.Context, entry *domain.IndexQueueEntry, newStart int) error {
	if err := g.driver.Advance(ctx, entry, newStart); err != nil {
		return wrapRepoErr("Advance", err)
	}
	return nil
}

func (g *QueueRepositoryGateway) MarkComplete(ctx context.Context, entry *domain.IndexQueueEntry, finalStart int) error {
	if err := g.driver.MarkComplete(ctx, entry, finalStart); err != nil {
		return wrapRepoErr("MarkComplete", err)
	}
	return nil
}

func (g *QueueRepositoryGateway) Components(ctx context.Context, names []string, all bool) ([]domain.ComponentState, error) {
	components, err := g.driver.Components(ctx, names, all)
	if err != nil {
		return nil, wrapRepoErr("Components", err)
	}
	return components, nil
}

func (g *QueueRepositoryGateway) SaveComponent(ctx context.Context, c *domain.ComponentState) error {
	if err := g.driver.SaveComponent(ctx, c); err != nil {
		return wrapRepoErr("SaveComponent", err)
	}
	return nil
}

func wrapRepoErr(op string, err error) error {
	kind := error(nil)
	if errors.Is(err, domain.ErrConcurrentModification) {
		kind = domain.ErrConcurrentModification
	}
	return &domain.RepositoryError{Op: op, Err: err.Error(), Kind: kind}
}
