package driver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/meilisearch/meilisearch-go"
)

// newTestDriver points a real client at the given handler so transport
// behavior is exercised end to end.
func newTestDriver(t *testing.T, handler http.HandlerFunc) *MeilisearchDriver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewMeilisearchDriver(meilisearch.New(srv.URL), "articles")
}

func TestStatus_AvailableEngine(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"status":"available"}`)
			return
		}
		http.NotFound(w, r)
	})

	if !d.Status(context.Background()) {
		t.Error("Status() = false for an available engine")
	}
}

func TestStatus_UnreachableEngine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	d := NewMeilisearchDriver(meilisearch.New(srv.URL), "articles")
	if d.Status(context.Background()) {
		t.Error("Status() = true for an unreachable engine")
	}
}

func TestDeleteByID_EmptyID(t *testing.T) {
	var calls atomic.Int32
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	})

	deleted, err := d.DeleteByID(context.Background(), "")
	if err != nil {
		t.Fatalf("DeleteByID() error = %v", err)
	}
	if deleted {
		t.Error("DeleteByID(\"\") = true, want false")
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("engine received %d requests, want none for an empty id", n)
	}
}

func TestSuggestFacet_PrefixSearchRunsInEngine(t *testing.T) {
	var gotBody atomic.Value
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/indexes/articles/facet-search" {
			body, _ := io.ReadAll(r.Body)
			gotBody.Store(string(body))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"facetHits": [
					{"value": "Alice", "count": 5},
					{"value": "Albert", "count": 2},
					{"value": "alloy", "count": 2}
				],
				"facetQuery": "al",
				"processingTimeMs": 1
			}`)
			return
		}
		http.NotFound(w, r)
	})

	got, err := d.SuggestFacet(context.Background(), "author", "al", 2)
	if err != nil {
		t.Fatalf("SuggestFacet() error = %v", err)
	}
	if want := []string{"Alice", "Albert"}; !reflect.DeepEqual(got, want) {
		t.Errorf("SuggestFacet() = %v, want %v", got, want)
	}

	body, _ := gotBody.Load().(string)
	for _, fragment := range []string{`"facetName":"author"`, `"facetQuery":"al"`} {
		if !strings.Contains(body, fragment) {
			t.Errorf("facet-search request body %q missing %q", body, fragment)
		}
	}
}

func TestFacetHitValues(t *testing.T) {
	hits := []interface{}{
		map[string]any{"value": "Bob", "count": float64(9)},
		map[string]any{"value": "Alice", "count": float64(5)},
		map[string]any{"value": "nothing", "count": float64(0)},
		"not a map",
		map[string]any{"value": "Albert", "count": float64(2)},
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "engine order kept, zero counts and junk dropped", limit: 10, want: []string{"Bob", "Alice", "Albert"}},
		{name: "limit caps the result", limit: 2, want: []string{"Bob", "Alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := facetHitValues(hits, tt.limit)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("facetHitValues() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := facetHitValues(nil, 10); len(got) != 0 {
		t.Errorf("facetHitValues(nil) = %v, want empty", got)
	}
}

func TestDecodeFacetDistribution(t *testing.T) {
	// The engine returns facet counts as loosely typed JSON.
	dist := map[string]any{
		"hubtype": map[string]any{
			"article":  float64(12),
			"citation": float64(3),
		},
		"broken": "not a map",
	}

	got := decodeFacetDistribution(dist)
	if got["hubtype"]["article"] != 12 || got["hubtype"]["citation"] != 3 {
		t.Errorf("decodeFacetDistribution() = %v", got)
	}
	if _, ok := got["broken"]; ok {
		t.Error("malformed facet entry should be skipped")
	}

	if decodeFacetDistribution(nil) != nil {
		t.Error("nil distribution should decode to nil")
	}
}

func TestDecodeHit(t *testing.T) {
	hit := map[string]any{
		"id":           "article-42",
		"title":        "Sample",
		"hubtype":      "article",
		"hubid":        float64(42),
		"access_level": "public",
		"tags":         []any{"go", "search"},
		"timestamp":    float64(1700000000),
	}

	doc, err := decodeHit(hit)
	if err != nil {
		t.Fatalf("decodeHit() error = %v", err)
	}
	if doc.ID != "article-42" || doc.HubID != 42 {
		t.Errorf("decodeHit() = %+v", doc)
	}
	if doc.Timestamp != 1700000000 {
		t.Errorf("Timestamp = %d", doc.Timestamp)
	}
	if len(doc.Tags) != 2 {
		t.Errorf("Tags = %v", doc.Tags)
	}
}
