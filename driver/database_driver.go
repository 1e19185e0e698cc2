package driver

import (
	"context"
	"errors"

	"hubsearch/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the subset of pgxpool.Pool the driver needs; tests substitute a
// pgxmock pool.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DatabaseDriver persists the indexing queue and the migration driver's
// component state.
type DatabaseDriver struct {
	pool Pool
}

func NewDatabaseDriver(pool Pool) *DatabaseDriver {
	return &DatabaseDriver{pool: pool}
}

// Migrate creates the bookkeeping tables when absent.
func (d *DatabaseDriver) Migrate(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS search_queue (
			id BIGSERIAL PRIMARY KEY,
			subject TEXT NOT NULL,
			action TEXT NOT NULL,
			start_offset INTEGER NOT NULL DEFAULT 0,
			complete BOOLEAN NOT NULL DEFAULT FALSE,
			created TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			version INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS search_components (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			state INTEGER NOT NULL DEFAULT 0,
			row_offset INTEGER NOT NULL DEFAULT 0,
			batch_size INTEGER NOT NULL DEFAULT 5000,
			enabled BOOLEAN NOT NULL DEFAULT TRUE
		)`,
	}
	for _, stmt := range ddl {
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return &domain.DriverError{Op: "Migrate", Err: err.Error()}
		}
	}
	return nil
}

// NextPending returns the oldest incomplete entry for the action, nil when
// the queue is drained.
func (d *DatabaseDriver) NextPending(ctx context.Context, action string) (*domain.IndexQueueEntry, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, subject, action, start_offset, complete, created, version
		FROM search_queue
		WHERE action = $1 AND complete = FALSE
		ORDER BY created ASC
		LIMIT 1
	`, action)

	var entry domain.IndexQueueEntry
	err := row.Scan(&entry.ID, &entry.Subject, &entry.Action, &entry.Start,
		&entry.Complete, &entry.Created, &entry.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.DriverError{Op: "NextPending", Err: err.Error()}
	}
	return &entry, nil
}

// Enqueue records work for a subject unless an incomplete entry for the same
// (subject, action) already exists.
func (d *DatabaseDriver) Enqueue(ctx context.Context, subject, action string) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO search_queue (subject, action, start_offset, complete, created, version)
		SELECT $1, $2, 0, FALSE, NOW(), 0
		WHERE NOT EXISTS (
			SELECT 1 FROM search_queue
			WHERE subject = $1 AND action = $2 AND complete = FALSE
		)
	`, subject, action)
	if err != nil {
		return &domain.DriverError{Op: "Enqueue", Err: err.Error()}
	}
	return nil
}

// Advance moves the entry's offset forward under optimistic concurrency; a
// concurrent writer that advanced the entry first wins and this call fails
// with domain.ErrConcurrentModification.
func (d *DatabaseDriver) Advance(ctx context.Context, entry *domain.IndexQueueEntry, newStart int) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE search_queue
		SET start_offset = $1, version = version + 1
		WHERE id = $2 AND version = $3
	`, newStart, entry.ID, entry.Version)
	if err != nil {
		return &domain.DriverError{Op: "Advance", Err: err.Error()}
	}
	if tag.RowsAffected() == 0 {
		return &domain.DriverError{
			Op:   "Advance",
			Err:  "queue entry advanced by another processor",
			Kind: domain.ErrConcurrentModification,
		}
	}
	entry.Start = newStart
	entry.Version++
	return nil
}

// MarkComplete finalizes the entry, also versioned.
func (d *DatabaseDriver) MarkComplete(ctx context.Context, entry *domain.IndexQueueEntry, finalStart int) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE search_queue
		SET start_offset = $1, complete = TRUE, version = version + 1
		WHERE id = $2 AND version = $3
	`, finalStart, entry.ID, entry.Version)
	if err != nil {
		return &domain.DriverError{Op: "MarkComplete", Err: err.Error()}
	}
	if tag.RowsAffected() == 0 {
		return &domain.DriverError{
			Op:   "MarkComplete",
			Err:  "queue entry completed by another processor",
			Kind: domain.ErrConcurrentModification,
		}
	}
	entry.Start = finalStart
	entry.Complete = true
	entry.Version++
	return nil
}

// Components lists searchable components. A non-empty names list restricts
// the result; all=true ignores the enablement filter.
func (d *DatabaseDriver) Components(ctx context.Context, names []string, all bool) ([]domain.ComponentState, error) {
	query := `
		SELECT id, name, state, row_offset, batch_size, enabled
		FROM search_components
	`
	var args []any
	var where []string
	if !all {
		where = append(where, "enabled = TRUE")
	}
	if len(names) > 0 {
		args = append(args, names)
		where = append(where, "name = ANY($1)")
	}
	if len(where) > 0 {
		query += " WHERE " + where[0]
		for _, w := range where[1:] {
			query += " AND " + w
		}
	}
	query += " ORDER BY name ASC"

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &domain.DriverError{Op: "Components", Err: err.Error()}
	}
	defer rows.Close()

	var components []domain.ComponentState
	for rows.Next() {
		var c domain.ComponentState
		if err := rows.Scan(&c.ID, &c.Name, &c.State, &c.Offset, &c.BatchSize, &c.Enabled); err != nil {
			return nil, &domain.DriverError{Op: "Components", Err: err.Error()}
		}
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.DriverError{Op: "Components", Err: err.Error()}
	}
	return components, nil
}

// SaveComponent writes back offset and indexing state.
func (d *DatabaseDriver) SaveComponent(ctx context.Context, c *domain.ComponentState) error {
	_, err := d.pool.Exec(ctx, `
		UPDATE search_components
		SET state = $1, row_offset = $2
		WHERE id = $3
	`, c.State, c.Offset, c.ID)
	if err != nil {
		return &domain.DriverError{Op: "SaveComponent", Err: err.Error()}
	}
	return nil
}
