package domain

import "time"

// ActionIndex is the only queue action currently processed.
const ActionIndex = "index"

// IndexQueueEntry is one persisted unit of indexing work: a content type to
// walk and the row offset reached so far. The Version column guards against
// two processors advancing the same entry.
type IndexQueueEntry struct {
	ID       int64
	Subject  string
	Action   string
	Start    int
	Complete bool
	Created  time.Time
	Version  int
}

// ComponentState is the per-content-type bookkeeping row used by the one-shot
// migration driver. It shares the queue entry's progress shape (offset,
// complete) so both paths drive the same batch primitive.
type ComponentState struct {
	ID        int64
	Name      string
	State     int // 0 = not yet fully indexed, 1 = fully indexed
	Offset    int
	BatchSize int
	Enabled   bool
}

// Indexed reports whether the component has completed a full pass.
func (c *ComponentState) Indexed() bool {
	return c.State == 1
}
