package gateway

import (
	"context"
	"errors"
	"time"

	"hubsearch/domain"
	"hubsearch/port"
)

// EngineDriver is the driver-level engine surface the gateway wraps.
type EngineDriver interface {
	Status(ctx context.Context) bool
	Index(ctx context.Context, doc domain.SearchDocument) error
	UpdateIndex(ctx context.Context, doc domain.SearchDocument, id string) error
	DeleteByID(ctx context.Context, id string) (bool, error)
	LastInsert(ctx context.Context) (time.Time, error)
	Log(ctx context.Context, n int) ([]string, error)
	Search(ctx context.Context, req port.SearchRequest) (*port.SearchResult, error)
	SuggestFacet(ctx context.Context, field, prefix string, limit int) ([]string, error)
	EnsureIndex(ctx context.Context) error
}

// SearchEngineGateway converts driver errors into domain search-engine errors
// while preserving their kind for errors.Is matching.
type SearchEngineGateway struct {
	driver EngineDriver
}

func NewSearchEngineGateway(driver EngineDriver) *SearchEngineGateway {
	return &SearchEngineGateway{driver: driver}
}

func (g *SearchEngineGateway) Status(ctx context.Context) bool {
	return g.driver.Status(ctx)
}

func (g *SearchEngineGateway) Index(ctx context.Context, doc domain.SearchDocument) error {
	if err := g.driver.Index(ctx, doc); err != nil {
		return wrapEngineErr("Index", err)
	}
	return nil
}

func (g *SearchEngineGateway) UpdateIndex(ctx context.Context, doc domain.SearchDocument, id string) error {
	if err := g.driver.UpdateIndex(ctx, doc, id); err != nil {
		return wrapEngineErr("UpdateIndex", err)
	}
	return nil
}

func (g *SearchEngineGateway) DeleteByID(ctx context.Context, id string) (bool, error) {
	ok, err := g.driver.DeleteByID(ctx, id)
	if err != nil {
		return false, wrapEngineErr("DeleteByID", err)
	}
	return ok, nil
}

func (g *SearchEngineGateway) LastInsert(ctx context.Context) (time.Time, error) {
	ts, err := g.driver.LastInsert(ctx)
	if err != nil {
		return time.Time{}, wrapEngineErr("LastInsert", err)
	}
	return ts, nil
}

func (g *SearchEngineGateway) Log(ctx context.Context, n int) ([]string, error) {
	lines, err := g.driver.Log(ctx, n)
	if err != nil {
		return nil, wrapEngineErr("Log", err)
	}
	return lines, nil
}

func (g *SearchEngineGateway) Search(ctx context.Context, req port.SearchRequest) (*port.SearchResult, error) {
	result, err := g.driver.Search(ctx, req)
	if err != nil {
		return nil, wrapEngineErr("Search", err)
	}
	return result, nil
}

func (g *SearchEngineGateway) SuggestFacet(ctx context.Context, field, prefix string, limit int) ([]string, error) {
	values, err := g.driver.SuggestFacet(ctx, field, prefix, limit)
	if err != nil {
		return nil, wrapEngineErr("SuggestFacet", err)
	}
	return values, nil
}

func (g *SearchEngineGateway) EnsureIndex(ctx context.Context) error {
	if err := g.driver.EnsureIndex(ctx); err != nil {
		return wrapEngineErr("EnsureIndex", err)
	}
	return nil
}

func wrapEngineErr(op string, err error) error {
	kind := domain.ErrEngineUnavailable
	if errors.Is(err, domain.ErrDocumentInvalid) {
		kind = domain.ErrDocumentInvalid
	}
	return &domain.SearchEngineError{Op: op, Err: err.Error(), Kind: kind}
}
