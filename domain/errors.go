package domain

import "errors"

// Error kinds shared across layers. Callers match them with errors.Is to
// distinguish "engine down" from "bad document" from "lost the queue race".
var (
	// ErrEngineUnavailable marks transport-level engine failures; retryable.
	ErrEngineUnavailable = errors.New("search engine unavailable")

	// ErrDocumentInvalid marks a document that cannot be indexed (missing
	// identity fields); fails the single document, never the batch.
	ErrDocumentInvalid = errors.New("search document invalid")

	// ErrConcurrentModification marks a lost optimistic-concurrency race on a
	// queue entry; the entry is retried on the next scheduled run.
	ErrConcurrentModification = errors.New("concurrent queue modification")

	// ErrNotRegistered marks a subject with no registered content source.
	ErrNotRegistered = errors.New("content type not registered")
)

// RepositoryError represents an error from the repository layer.
type RepositoryError struct {
	Op   string
	Err  string
	Kind error
}

func (e *RepositoryError) Error() string {
	return e.Op + ": " + e.Err
}

func (e *RepositoryError) Unwrap() error {
	return e.Kind
}

// SearchEngineError represents an error from the search engine layer.
type SearchEngineError struct {
	Op   string
	Err  string
	Kind error
}

func (e *SearchEngineError) Error() string {
	return e.Op + ": " + e.Err
}

func (e *SearchEngineError) Unwrap() error {
	return e.Kind
}

// DriverError represents an error from the driver layer.
type DriverError struct {
	Op   string
	Err  string
	Kind error
}

func (e *DriverError) Error() string {
	return e.Op + ": " + e.Err
}

func (e *DriverError) Unwrap() error {
	return e.Kind
}
