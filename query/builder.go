// Package query builds filtered, faceted, access-restricted engine queries.
package query

import (
	"context"
	"sort"

	"hubsearch/domain"
	"hubsearch/port"
)

// SuggestionFields are the auto-complete facet fields.
var SuggestionFields = []string{"author", "tags", "title"}

const suggestionLimit = 10

// Builder assembles one engine query. Builder calls mutate shared state and
// return the receiver for chaining; AddFilter/AddFacet slots are named, so a
// repeated name overwrites its previous clause. Run executes at most once:
// filters added after the first run are ignored until a new Builder is built.
type Builder struct {
	engine port.SearchEngine
	actor  domain.Actor

	terms        string
	fields       []string
	filters      map[string]string
	facets       map[string]string
	sorts        []string
	limit        int64
	start        int64
	unrestricted bool

	ran    bool
	result *port.SearchResult
}

// New builds a query running as the given actor. Access restriction is
// applied automatically on Run; trusted internal callers opt out with
// Unrestricted.
func New(engine port.SearchEngine, actor domain.Actor) *Builder {
	return &Builder{
		engine:  engine,
		actor:   actor,
		filters: make(map[string]string),
		facets:  make(map[string]string),
		limit:   20,
	}
}

func (b *Builder) Query(terms string) *Builder {
	b.terms = terms
	return b
}

func (b *Builder) Fields(fields ...string) *Builder {
	b.fields = fields
	return b
}

// AddFilter sets the named slot to an equality clause on field = value.
func (b *Builder) AddFilter(name, field, value string) *Builder {
	b.filters[name] = Eq(field, value)
	return b
}

// AddFacet requests a count breakdown over field under the given name.
func (b *Builder) AddFacet(name, field string) *Builder {
	b.facets[name] = field
	return b
}

// SortBy appends a sort key. Callers needing stable deep paging should end
// with a unique field as tie-break.
func (b *Builder) SortBy(field, dir string) *Builder {
	if dir != "asc" && dir != "desc" {
		dir = "asc"
	}
	b.sorts = append(b.sorts, field+":"+dir)
	return b
}

func (b *Builder) Limit(n int64) *Builder {
	if n > 0 {
		b.limit = n
	}
	return b
}

func (b *Builder) Start(offset int64) *Builder {
	if offset >= 0 {
		b.start = offset
	}
	return b
}

// Unrestricted disables the automatic access filter. Internal callers only.
func (b *Builder) Unrestricted() *Builder {
	b.unrestricted = true
	return b
}

// Run executes the built query once; repeated calls are no-ops against the
// memoized result.
func (b *Builder) Run(ctx context.Context) error {
	if b.ran {
		return nil
	}

	req := port.SearchRequest{
		Terms:  b.terms,
		Fields: b.fields,
		Limit:  b.limit,
		Offset: b.start,
		Sort:   b.sorts,
	}

	for _, name := range sortedKeys(b.filters) {
		req.Filters = append(req.Filters, b.filters[name])
	}
	if !b.unrestricted {
		req.Filters = append(req.Filters, AccessClause(b.actor))
	}
	for _, name := range sortedKeys(b.facets) {
		req.Facets = append(req.Facets, b.facets[name])
	}

	result, err := b.engine.Search(ctx, req)
	if err != nil {
		return err
	}
	b.ran = true
	b.result = result
	return nil
}

// Results runs the query if needed and returns the ordered hits.
func (b *Builder) Results(ctx context.Context) ([]domain.SearchDocument, error) {
	if err := b.Run(ctx); err != nil {
		return nil, err
	}
	return b.result.Hits, nil
}

// NumFound runs the query if needed and returns the total match count.
func (b *Builder) NumFound(ctx context.Context) (int64, error) {
	if err := b.Run(ctx); err != nil {
		return 0, err
	}
	return b.result.Total, nil
}

// FacetCount runs the query if needed and returns the count breakdown for a
// named facet.
func (b *Builder) FacetCount(ctx context.Context, name string) (map[string]int64, error) {
	if err := b.Run(ctx); err != nil {
		return nil, err
	}
	field, ok := b.facets[name]
	if !ok {
		return nil, nil
	}
	return b.result.FacetCounts[field], nil
}

// Suggestions returns up to ten auto-complete values per suggestion field for
// the given prefix terms. Engine failures degrade to an empty map.
func (b *Builder) Suggestions(ctx context.Context, terms string) map[string][]string {
	out := make(map[string][]string, len(SuggestionFields))
	for _, field := range SuggestionFields {
		values, err := b.engine.SuggestFacet(ctx, field, terms, suggestionLimit)
		if err != nil {
			continue
		}
		out[field] = values
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
