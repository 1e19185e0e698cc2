package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"hubsearch/domain"
	"hubsearch/port"
)

// fakeEngine records the last request and serves canned results.
type fakeEngine struct {
	lastRequest *port.SearchRequest
	searchCalls int
	result      *port.SearchResult
	searchErr   error

	suggestValues map[string][]string
	suggestErr    map[string]error
}

func (f *fakeEngine) Status(ctx context.Context) bool { return true }

func (f *fakeEngine) Index(ctx context.Context, doc domain.SearchDocument) error { return nil }

func (f *fakeEngine) UpdateIndex(ctx context.Context, doc domain.SearchDocument, id string) error {
	return nil
}

func (f *fakeEngine) DeleteByID(ctx context.Context, id string) (bool, error) { return false, nil }

func (f *fakeEngine) LastInsert(ctx context.Context) (time.Time, error) { return time.Time{}, nil }

func (f *fakeEngine) Log(ctx context.Context, n int) ([]string, error) { return nil, nil }

func (f *fakeEngine) Search(ctx context.Context, req port.SearchRequest) (*port.SearchResult, error) {
	f.searchCalls++
	f.lastRequest = &req
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &port.SearchResult{}, nil
}

func (f *fakeEngine) SuggestFacet(ctx context.Context, field, prefix string, limit int) ([]string, error) {
	if err := f.suggestErr[field]; err != nil {
		return nil, err
	}
	return f.suggestValues[field], nil
}

func (f *fakeEngine) EnsureIndex(ctx context.Context) error { return nil }

func TestBuilderAppliesAccessRestriction(t *testing.T) {
	engine := &fakeEngine{}

	err := New(engine, domain.Guest()).Query("nano").Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(engine.lastRequest.Filters) != 1 {
		t.Fatalf("Filters = %v, want exactly the access clause", engine.lastRequest.Filters)
	}
	if engine.lastRequest.Filters[0] != `access_level = "public"` {
		t.Errorf("access filter = %s", engine.lastRequest.Filters[0])
	}
}

func TestBuilderUnrestrictedSkipsAccessFilter(t *testing.T) {
	engine := &fakeEngine{}

	err := New(engine, domain.Guest()).Query("nano").Unrestricted().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(engine.lastRequest.Filters) != 0 {
		t.Errorf("Filters = %v, want none", engine.lastRequest.Filters)
	}
}

func TestBuilderNamedFilterOverwrites(t *testing.T) {
	engine := &fakeEngine{}

	b := New(engine, domain.Guest()).
		AddFilter("type", "hubtype", "article").
		AddFilter("type", "hubtype", "citation")

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// One named slot plus the access clause.
	if len(engine.lastRequest.Filters) != 2 {
		t.Fatalf("Filters = %v, want 2 entries", engine.lastRequest.Filters)
	}
	if engine.lastRequest.Filters[0] != `hubtype = "citation"` {
		t.Errorf("filter slot = %s, want the overwritten value", engine.lastRequest.Filters[0])
	}
}

func TestBuilderRunIsMemoized(t *testing.T) {
	engine := &fakeEngine{
		result: &port.SearchResult{
			Hits:  []domain.SearchDocument{{ID: "article-1"}},
			Total: 37,
		},
	}
	ctx := context.Background()

	b := New(engine, domain.Guest()).Query("water")

	hits, err := b.Results(ctx)
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}
	total, err := b.NumFound(ctx)
	if err != nil {
		t.Fatalf("NumFound() error = %v", err)
	}

	if len(hits) != 1 || total != 37 {
		t.Errorf("hits/total = %d/%d, want 1/37", len(hits), total)
	}
	if engine.searchCalls != 1 {
		t.Errorf("searchCalls = %d, want 1", engine.searchCalls)
	}
}

func TestBuilderRequestShape(t *testing.T) {
	engine := &fakeEngine{}

	b := New(engine, domain.Actor{ID: 5, Authenticated: true}).
		Query("carbon").
		Fields("title", "author").
		AddFacet("type", "hubtype").
		SortBy("created", "desc").
		Limit(50).
		Start(100)

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	req := engine.lastRequest
	if req.Terms != "carbon" {
		t.Errorf("Terms = %q", req.Terms)
	}
	if req.Limit != 50 || req.Offset != 100 {
		t.Errorf("Limit/Offset = %d/%d, want 50/100", req.Limit, req.Offset)
	}
	if len(req.Sort) != 1 || req.Sort[0] != "created:desc" {
		t.Errorf("Sort = %v", req.Sort)
	}
	if len(req.Facets) != 1 || req.Facets[0] != "hubtype" {
		t.Errorf("Facets = %v", req.Facets)
	}
}

func TestBuilderFacetCount(t *testing.T) {
	engine := &fakeEngine{
		result: &port.SearchResult{
			FacetCounts: map[string]map[string]int64{
				"hubtype": {"article": 12, "citation": 3},
			},
		},
	}
	ctx := context.Background()

	b := New(engine, domain.Guest()).AddFacet("type", "hubtype")

	counts, err := b.FacetCount(ctx, "type")
	if err != nil {
		t.Fatalf("FacetCount() error = %v", err)
	}
	if counts["article"] != 12 {
		t.Errorf("counts = %v", counts)
	}

	missing, err := b.FacetCount(ctx, "never-added")
	if err != nil {
		t.Fatalf("FacetCount() error = %v", err)
	}
	if missing != nil {
		t.Errorf("unknown facet = %v, want nil", missing)
	}
}

func TestBuilderSuggestions(t *testing.T) {
	engine := &fakeEngine{
		suggestValues: map[string][]string{
			"author": {"Alice", "Albert"},
			"tags":   {"alloy"},
			"title":  {"Alchemy"},
		},
	}

	got := New(engine, domain.Guest()).Suggestions(context.Background(), "al")

	if len(got) != 3 {
		t.Fatalf("Suggestions() = %v, want 3 fields", got)
	}
	if len(got["author"]) != 2 {
		t.Errorf("author suggestions = %v", got["author"])
	}
}

func TestBuilderSuggestionsDegradeOnError(t *testing.T) {
	engine := &fakeEngine{
		suggestValues: map[string][]string{"tags": {"alloy"}},
		suggestErr:    map[string]error{"author": errors.New("engine down")},
	}

	got := New(engine, domain.Guest()).Suggestions(context.Background(), "al")

	if _, ok := got["author"]; ok {
		t.Error("failed field should be absent")
	}
	if len(got["tags"]) != 1 {
		t.Errorf("tags suggestions = %v", got["tags"])
	}
}
