package indexer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hubsearch/domain"
	"hubsearch/port"
)

// Processor drains the indexing queue one block at a time: it claims the
// oldest incomplete entry, runs a block, and persists the advanced offset.
// Progress writes are versioned, so an overlapping processor instance loses
// cleanly instead of double-advancing.
type Processor struct {
	queue  port.QueueStore
	batch  *BatchIndexer
	logger *slog.Logger
}

func NewProcessor(queue port.QueueStore, batch *BatchIndexer, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{queue: queue, batch: batch, logger: logger}
}

// ProcessNext handles at most one queue entry's next block. It reports
// whether any entry was processed.
func (p *Processor) ProcessNext(ctx context.Context) (bool, error) {
	entry, err := p.queue.NextPending(ctx, domain.ActionIndex)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}

	res, err := p.batch.IndexBlock(ctx, entry.Subject, entry.Start)
	if err != nil {
		if errors.Is(err, domain.ErrNotRegistered) {
			// Nothing can ever index this entry; park it as complete so it
			// stops blocking the queue.
			p.logger.Error("queue entry for unregistered subject", "subject", entry.Subject)
			return true, p.queue.MarkComplete(ctx, entry, entry.Start)
		}
		return false, err
	}

	p.logger.Info("processed block",
		"subject", entry.Subject,
		"start", entry.Start,
		"indexed", res.Indexed,
		"failed", res.Failed,
		"total", res.Total,
		"done", res.Done,
	)

	if res.Done {
		return true, p.queue.MarkComplete(ctx, entry, res.NextOffset)
	}
	return true, p.queue.Advance(ctx, entry, res.NextOffset)
}

// Run drains the queue continuously until the context is cancelled, pausing
// for interval when the queue is empty and retryDelay after failures. Lost
// optimistic-concurrency races are left for the next pass.
func (p *Processor) Run(ctx context.Context, interval, retryDelay time.Duration) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("queue processor stopping")
			return
		default:
		}

		if p.runPass(ctx, interval, retryDelay) {
			return
		}
	}
}

// runPass handles a single pass over the queue. A panic is contained here so
// one poisoned entry cannot halt processing for the life of the process; the
// loop backs off and keeps draining. It reports whether Run should stop.
func (p *Processor) runPass(ctx context.Context, interval, retryDelay time.Duration) (stop bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("queue processor panic recovered", "err", r)
			sleepCtx(ctx, retryDelay)
		}
	}()

	processed, err := p.ProcessNext(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		return true
	case errors.Is(err, domain.ErrConcurrentModification):
		p.logger.Warn("lost queue race, deferring entry", "err", err)
		sleepCtx(ctx, retryDelay)
	case err != nil:
		p.logger.Error("processing block failed", "err", err)
		sleepCtx(ctx, retryDelay)
	case !processed:
		sleepCtx(ctx, interval)
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
