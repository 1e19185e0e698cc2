package port

import (
	"context"
	"time"

	"hubsearch/domain"
)

// SearchRequest is a fully built query: terms plus rendered filter clauses,
// facet fields, sort keys and paging. Filters arrive pre-rendered because the
// query layer owns clause syntax and escaping.
type SearchRequest struct {
	Terms   string
	Fields  []string
	Filters []string
	Facets  []string
	Sort    []string
	Limit   int64
	Offset  int64
}

// SearchResult carries decoded hits plus facet count breakdowns.
type SearchResult struct {
	Hits        []domain.SearchDocument
	Total       int64
	FacetCounts map[string]map[string]int64
}

// SearchEngine abstracts the index and query surface of the engine.
type SearchEngine interface {
	// Status probes engine liveness; it returns false on any transport error
	// or malformed response, never an error.
	Status(ctx context.Context) bool

	// Index upserts a document. Documents carrying an id delegate to
	// UpdateIndex so re-indexing stays idempotent.
	Index(ctx context.Context, doc domain.SearchDocument) error

	// UpdateIndex upserts a document under the given id.
	UpdateIndex(ctx context.Context, doc domain.SearchDocument, id string) error

	// DeleteByID removes the document with the given id. It returns false
	// (with no error) when id is empty; transport failures surface as
	// domain.ErrEngineUnavailable.
	DeleteByID(ctx context.Context, id string) (bool, error)

	// LastInsert returns the indexing time of the most recently indexed
	// document, for staleness checks.
	LastInsert(ctx context.Context) (time.Time, error)

	// Log returns up to n recent engine task log lines, for diagnostics.
	Log(ctx context.Context, n int) ([]string, error)

	// Search executes a built query.
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)

	// SuggestFacet returns up to limit facet values of field matching the
	// prefix, with at least one occurrence each.
	SuggestFacet(ctx context.Context, field, prefix string, limit int) ([]string, error)

	// EnsureIndex creates the index and its filterable/sortable attributes.
	EnsureIndex(ctx context.Context) error
}
