package indexer

import (
	"context"
	"fmt"
	"io"

	"hubsearch/domain"
	"hubsearch/port"
)

// Migrator bulk-indexes searchable components for the one-shot CLI path. It
// drives the same block primitive as the queue processor, tracking progress
// in the component table instead of the queue.
type Migrator struct {
	components port.ComponentStore
	batch      *BatchIndexer
	out        io.Writer
}

func NewMigrator(components port.ComponentStore, batch *BatchIndexer, out io.Writer) *Migrator {
	return &Migrator{components: components, batch: batch, out: out}
}

// Run indexes each selected component to completion. Components already fully
// indexed are skipped unless rebuild is set; rebuild restarts them from row
// zero. Failures on one component do not stop the others.
func (m *Migrator) Run(ctx context.Context, names []string, all, rebuild bool) error {
	components, err := m.components.Components(ctx, names, all)
	if err != nil {
		return err
	}
	if len(components) == 0 {
		fmt.Fprintln(m.out, "no searchable components matched")
		return nil
	}

	var failures int
	for i := range components {
		comp := &components[i]
		if comp.Indexed() && !rebuild {
			fmt.Fprintf(m.out, "%s: already indexed, skipping (use --rebuild to re-index)\n", comp.Name)
			continue
		}
		if rebuild {
			comp.Offset = 0
			comp.State = 0
		}

		if err := m.runComponent(ctx, comp); err != nil {
			failures++
			fmt.Fprintf(m.out, "%s: failed: %v\n", comp.Name, err)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d components failed", failures, len(components))
	}
	return nil
}

func (m *Migrator) runComponent(ctx context.Context, comp *domain.ComponentState) error {
	fmt.Fprintf(m.out, "%s: indexing from offset %d\n", comp.Name, comp.Offset)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := m.batch.IndexBlock(ctx, comp.Name, comp.Offset)
		if err != nil {
			return err
		}

		comp.Offset = res.NextOffset
		if res.Done {
			comp.State = 1
			if err := m.components.SaveComponent(ctx, comp); err != nil {
				return err
			}
			fmt.Fprintf(m.out, "%s: complete (%d rows)\n", comp.Name, res.Total)
			return nil
		}

		if err := m.components.SaveComponent(ctx, comp); err != nil {
			return err
		}
		fmt.Fprintf(m.out, "%s: indexed %d rows, failed %d, at %d/%d\n",
			comp.Name, res.Indexed, res.Failed, comp.Offset, res.Total)
	}
}
