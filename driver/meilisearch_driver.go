package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"hubsearch/domain"
	"hubsearch/port"

	"github.com/cenkalti/backoff/v5"
	"github.com/meilisearch/meilisearch-go"
)

const (
	taskPollInterval = time.Second
	engineMaxTries   = 3
)

// Attributes the index must be able to filter and sort on. Facet fields are a
// subset of the filterable set.
var (
	filterableAttributes = []string{
		"access_level", "owner", "owner_type", "hubtype", "tags", "author",
		"title", "scope", "year",
	}
	sortableAttributes = []string{"timestamp", "created", "title"}
)

// MeilisearchDriver implements the engine surface against a Meilisearch
// index. Transport failures are wrapped as domain.ErrEngineUnavailable and
// every call retries with bounded exponential backoff.
type MeilisearchDriver struct {
	client    meilisearch.ServiceManager
	index     meilisearch.IndexManager
	indexName string
}

func NewMeilisearchDriver(client meilisearch.ServiceManager, indexName string) *MeilisearchDriver {
	return &MeilisearchDriver{
		client:    client,
		index:     client.Index(indexName),
		indexName: indexName,
	}
}

// Status probes engine liveness. Any transport error or non-available status
// reports false; it never returns an error.
func (d *MeilisearchDriver) Status(ctx context.Context) bool {
	health, err := retryEngine(ctx, func() (*meilisearch.Health, error) {
		return d.client.Health()
	})
	return err == nil && health != nil && health.Status == "available"
}

// Index upserts a document. A document without an id gets the deterministic
// "{hubtype}-{hubid}" id so re-indexing overwrites instead of duplicating.
func (d *MeilisearchDriver) Index(ctx context.Context, doc domain.SearchDocument) error {
	if doc.ID == "" {
		if doc.HubType == "" || doc.HubID == 0 {
			return &domain.DriverError{
				Op:   "Index",
				Err:  "document lacks id and hubtype/hubid identity",
				Kind: domain.ErrDocumentInvalid,
			}
		}
		doc.ID = domain.DocumentID(doc.HubType, doc.HubID)
	}
	return d.UpdateIndex(ctx, doc, doc.ID)
}

// UpdateIndex replaces the document stored under id.
func (d *MeilisearchDriver) UpdateIndex(ctx context.Context, doc domain.SearchDocument, id string) error {
	doc.ID = id
	if doc.Timestamp == 0 {
		doc.Timestamp = time.Now().Unix()
	}

	task, err := retryEngine(ctx, func() (*meilisearch.TaskInfo, error) {
		return d.index.AddDocuments([]domain.SearchDocument{doc})
	})
	if err != nil {
		return engineErr("UpdateIndex", err)
	}
	if _, err := d.index.WaitForTask(task.TaskUID, taskPollInterval); err != nil {
		return engineErr("UpdateIndex", fmt.Errorf("wait for indexing task: %w", err))
	}
	return nil
}

// DeleteByID removes the document with the given id and commits. An empty id
// returns false without touching the engine.
func (d *MeilisearchDriver) DeleteByID(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	task, err := retryEngine(ctx, func() (*meilisearch.TaskInfo, error) {
		return d.index.DeleteDocument(id)
	})
	if err != nil {
		return false, engineErr("DeleteByID", err)
	}
	if _, err := d.index.WaitForTask(task.TaskUID, taskPollInterval); err != nil {
		return false, engineErr("DeleteByID", fmt.Errorf("wait for delete task: %w", err))
	}
	return true, nil
}

// LastInsert returns the indexing time of the most recently indexed document.
func (d *MeilisearchDriver) LastInsert(ctx context.Context) (time.Time, error) {
	result, err := retryEngine(ctx, func() (*meilisearch.SearchResponse, error) {
		return d.index.Search("", &meilisearch.SearchRequest{
			Limit: 1,
			Sort:  []string{"timestamp:desc"},
		})
	})
	if err != nil {
		return time.Time{}, engineErr("LastInsert", err)
	}
	if len(result.Hits) == 0 {
		return time.Time{}, nil
	}
	doc, err := decodeHit(result.Hits[0])
	if err != nil {
		return time.Time{}, &domain.DriverError{Op: "LastInsert", Err: err.Error()}
	}
	return time.Unix(doc.Timestamp, 0), nil
}

// Log returns up to n recent engine task lines for administrative display.
func (d *MeilisearchDriver) Log(ctx context.Context, n int) ([]string, error) {
	tasks, err := retryEngine(ctx, func() (*meilisearch.TaskResult, error) {
		return d.client.GetTasks(&meilisearch.TasksQuery{Limit: int64(n)})
	})
	if err != nil {
		return nil, engineErr("Log", err)
	}

	lines := make([]string, 0, len(tasks.Results))
	for _, t := range tasks.Results {
		lines = append(lines, fmt.Sprintf("%s uid=%d type=%s status=%s",
			t.EnqueuedAt.Format(time.RFC3339), t.UID, t.Type, t.Status))
	}
	return lines, nil
}

// Search executes a built query.
func (d *MeilisearchDriver) Search(ctx context.Context, req port.SearchRequest) (*port.SearchResult, error) {
	searchRequest := &meilisearch.SearchRequest{
		Limit:  req.Limit,
		Offset: req.Offset,
		Sort:   req.Sort,
		Facets: req.Facets,
	}
	if len(req.Fields) > 0 {
		searchRequest.AttributesToRetrieve = req.Fields
	}
	if len(req.Filters) > 0 {
		searchRequest.Filter = strings.Join(req.Filters, " AND ")
	}

	result, err := retryEngine(ctx, func() (*meilisearch.SearchResponse, error) {
		return d.index.Search(req.Terms, searchRequest)
	})
	if err != nil {
		return nil, engineErr("Search", err)
	}

	out := &port.SearchResult{
		Total:       result.EstimatedTotalHits,
		FacetCounts: decodeFacetDistribution(result.FacetDistribution),
	}
	out.Hits = make([]domain.SearchDocument, 0, len(result.Hits))
	for _, hit := range result.Hits {
		doc, err := decodeHit(hit)
		if err != nil {
			continue
		}
		out.Hits = append(out.Hits, doc)
	}
	return out, nil
}

// SuggestFacet returns up to limit facet values of field matching the prefix.
// Prefix matching runs in the engine, so values outside the facet distribution
// cap are still found.
func (d *MeilisearchDriver) SuggestFacet(ctx context.Context, field, prefix string, limit int) ([]string, error) {
	raw, err := retryEngine(ctx, func() (*json.RawMessage, error) {
		return d.index.FacetSearch(&meilisearch.FacetSearchRequest{
			FacetName:  field,
			FacetQuery: prefix,
		})
	})
	if err != nil {
		return nil, engineErr("SuggestFacet", err)
	}

	var resp meilisearch.FacetSearchResponse
	if err := json.Unmarshal(*raw, &resp); err != nil {
		return nil, &domain.DriverError{Op: "SuggestFacet", Err: err.Error()}
	}
	return facetHitValues(resp.FacetHits, limit), nil
}

// EnsureIndex creates the index if needed and registers filterable/sortable
// attributes.
func (d *MeilisearchDriver) EnsureIndex(ctx context.Context) error {
	if _, err := d.index.FetchInfo(); err != nil {
		task, err := retryEngine(ctx, func() (*meilisearch.TaskInfo, error) {
			return d.client.CreateIndex(&meilisearch.IndexConfig{
				Uid:        d.indexName,
				PrimaryKey: "id",
			})
		})
		if err != nil {
			return engineErr("EnsureIndex", fmt.Errorf("create index: %w", err))
		}
		if _, err := d.index.WaitForTask(task.TaskUID, taskPollInterval); err != nil {
			return engineErr("EnsureIndex", fmt.Errorf("wait for index creation: %w", err))
		}
	}

	task, err := retryEngine(ctx, func() (*meilisearch.TaskInfo, error) {
		return d.index.UpdateFilterableAttributes(&filterableAttributes)
	})
	if err != nil {
		return engineErr("EnsureIndex", fmt.Errorf("set filterable attributes: %w", err))
	}
	if _, err := d.index.WaitForTask(task.TaskUID, taskPollInterval); err != nil {
		return engineErr("EnsureIndex", fmt.Errorf("wait for filterable attributes: %w", err))
	}

	task, err = retryEngine(ctx, func() (*meilisearch.TaskInfo, error) {
		return d.index.UpdateSortableAttributes(&sortableAttributes)
	})
	if err != nil {
		return engineErr("EnsureIndex", fmt.Errorf("set sortable attributes: %w", err))
	}
	if _, err := d.index.WaitForTask(task.TaskUID, taskPollInterval); err != nil {
		return engineErr("EnsureIndex", fmt.Errorf("wait for sortable attributes: %w", err))
	}
	return nil
}

// retryEngine retries a transport call with exponential backoff, bounded by
// the context and a fixed attempt cap.
func retryEngine[T any](ctx context.Context, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(engineMaxTries),
	)
}

func engineErr(op string, err error) error {
	return &domain.DriverError{
		Op:   op,
		Err:  err.Error(),
		Kind: domain.ErrEngineUnavailable,
	}
}

func decodeHit(hit any) (domain.SearchDocument, error) {
	raw, err := json.Marshal(hit)
	if err != nil {
		return domain.SearchDocument{}, err
	}
	var doc domain.SearchDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.SearchDocument{}, err
	}
	return doc, nil
}

func decodeFacetDistribution(dist any) map[string]map[string]int64 {
	fields, ok := dist.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]map[string]int64, len(fields))
	for field, counts := range fields {
		values, ok := counts.(map[string]any)
		if !ok {
			continue
		}
		out[field] = make(map[string]int64, len(values))
		for value, n := range values {
			if f, ok := n.(float64); ok {
				out[field][value] = int64(f)
			}
		}
	}
	return out
}

// facetHitValues extracts facet values from engine facet-search hits in
// engine order, dropping zero-count entries and capping at limit.
func facetHitValues(hits []interface{}, limit int) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		m, ok := h.(map[string]any)
		if !ok {
			continue
		}
		value, ok := m["value"].(string)
		if !ok {
			continue
		}
		if count, ok := m["count"].(float64); ok && count < 1 {
			continue
		}
		out = append(out, value)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
