package indexer

import (
	"sort"
	"sync"

	"hubsearch/port"
)

// Searchable bundles one content type's row enumeration with its mapping,
// path, permission and field-processing hooks. Source and Mapper are
// required; the remaining hooks may be nil.
type Searchable struct {
	Source port.ContentSource
	Mapper port.FieldMapper
	Paths  port.PathBuilder
	Perms  port.PermissionCalculator
	Extra  port.FieldProcessor
}

// Registry resolves a content-type tag to its Searchable at indexing time.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Searchable
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Searchable)}
}

func (r *Registry) Register(subject string, s Searchable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[subject] = s
}

func (r *Registry) Lookup(subject string) (Searchable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.types[subject]
	return s, ok
}

// Subjects returns the registered content-type tags, sorted.
func (r *Registry) Subjects() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subjects := make([]string, 0, len(r.types))
	for s := range r.types {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	return subjects
}
