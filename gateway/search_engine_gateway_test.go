package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"hubsearch/domain"
	"hubsearch/port"
)

// Mock driver for testing
type mockEngineDriver struct {
	indexed   []domain.SearchDocument
	deleted   []string
	searchErr error
	updateErr error
	deleteErr error
}

func (m *mockEngineDriver) Status(ctx context.Context) bool { return true }

func (m *mockEngineDriver) Index(ctx context.Context, doc domain.SearchDocument) error {
	m.indexed = append(m.indexed, doc)
	return nil
}

func (m *mockEngineDriver) UpdateIndex(ctx context.Context, doc domain.SearchDocument, id string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.indexed = append(m.indexed, doc)
	return nil
}

func (m *mockEngineDriver) DeleteByID(ctx context.Context, id string) (bool, error) {
	if m.deleteErr != nil {
		return false, m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return true, nil
}

func (m *mockEngineDriver) LastInsert(ctx context.Context) (time.Time, error) {
	return time.Unix(1700000000, 0), nil
}

func (m *mockEngineDriver) Log(ctx context.Context, n int) ([]string, error) { return nil, nil }

func (m *mockEngineDriver) Search(ctx context.Context, req port.SearchRequest) (*port.SearchResult, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return &port.SearchResult{Total: 1}, nil
}

func (m *mockEngineDriver) SuggestFacet(ctx context.Context, field, prefix string, limit int) ([]string, error) {
	return []string{"alpha"}, nil
}

func (m *mockEngineDriver) EnsureIndex(ctx context.Context) error { return nil }

func TestSearchEngineGateway_WrapsTransportErrors(t *testing.T) {
	mock := &mockEngineDriver{
		searchErr: &domain.DriverError{Op: "Search", Err: "connection refused", Kind: domain.ErrEngineUnavailable},
	}
	g := NewSearchEngineGateway(mock)

	_, err := g.Search(context.Background(), port.SearchRequest{Terms: "x"})
	if err == nil {
		t.Fatal("Search() error = nil")
	}

	var engineErr *domain.SearchEngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("error type = %T, want SearchEngineError", err)
	}
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Error("unavailability kind must survive wrapping")
	}
}

func TestSearchEngineGateway_PreservesInvalidDocumentKind(t *testing.T) {
	mock := &mockEngineDriver{
		updateErr: &domain.DriverError{Op: "UpdateIndex", Err: "no identity", Kind: domain.ErrDocumentInvalid},
	}
	g := NewSearchEngineGateway(mock)

	err := g.UpdateIndex(context.Background(), domain.SearchDocument{}, "x")
	if !errors.Is(err, domain.ErrDocumentInvalid) {
		t.Errorf("error = %v, want ErrDocumentInvalid kind", err)
	}
	if errors.Is(err, domain.ErrEngineUnavailable) {
		t.Error("invalid document must not read as engine unavailability")
	}
}

func TestSearchEngineGateway_PassThrough(t *testing.T) {
	mock := &mockEngineDriver{}
	g := NewSearchEngineGateway(mock)
	ctx := context.Background()

	if err := g.UpdateIndex(ctx, domain.SearchDocument{ID: "article-1"}, "article-1"); err != nil {
		t.Fatalf("UpdateIndex() error = %v", err)
	}
	if len(mock.indexed) != 1 {
		t.Errorf("driver indexed %d docs", len(mock.indexed))
	}

	ok, err := g.DeleteByID(ctx, "article-1")
	if err != nil || !ok {
		t.Fatalf("DeleteByID() = %v, %v", ok, err)
	}

	result, err := g.Search(ctx, port.SearchRequest{Terms: "x"})
	if err != nil || result.Total != 1 {
		t.Fatalf("Search() = %+v, %v", result, err)
	}
}
