// Package indexer walks searchable content types in fixed-size blocks and
// pushes normalized documents into the search engine. The same block
// primitive serves the continuous queue processor and the one-shot migration
// driver; only the progress bookkeeping differs.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"hubsearch/domain"
	"hubsearch/port"
	"hubsearch/sanitize"
)

// DefaultBlockSize is the number of rows one block covers.
const DefaultBlockSize = 5000

// BlockResult reports one block pass.
type BlockResult struct {
	Indexed    int
	Failed     int
	Total      int
	NextOffset int
	Done       bool
}

// BatchIndexer indexes one block of one content type per call.
type BatchIndexer struct {
	registry  *Registry
	engine    port.SearchEngine
	sanitizer *sanitize.Sanitizer
	logger    *slog.Logger
	blockSize int
}

func NewBatchIndexer(registry *Registry, engine port.SearchEngine, logger *slog.Logger, blockSize int) *BatchIndexer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchIndexer{
		registry:  registry,
		engine:    engine,
		sanitizer: sanitize.New(),
		logger:    logger,
		blockSize: blockSize,
	}
}

func (b *BatchIndexer) BlockSize() int {
	return b.blockSize
}

// IndexBlock loads up to blockSize rows of the subject starting at offset,
// builds and submits a document per row, and reports progress. A failure on
// one row never aborts the block; engine unavailability does, so the block
// can be retried without losing queue progress.
func (b *BatchIndexer) IndexBlock(ctx context.Context, subject string, offset int) (BlockResult, error) {
	searchable, ok := b.registry.Lookup(subject)
	if !ok {
		return BlockResult{}, fmt.Errorf("%w: %s", domain.ErrNotRegistered, subject)
	}

	total, err := searchable.Source.Total(ctx)
	if err != nil {
		return BlockResult{}, err
	}

	res := BlockResult{Total: total, NextOffset: offset}
	if offset >= total {
		res.Done = true
		return res, nil
	}

	rows, err := searchable.Source.Rows(ctx, offset, b.blockSize)
	if err != nil {
		return BlockResult{}, err
	}
	if len(rows) == 0 {
		res.Done = true
		return res, nil
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		doc, err := b.buildDocument(subject, row)
		if err != nil {
			res.Failed++
			b.logger.Warn("skipping row", "subject", subject, "err", err)
			continue
		}

		if err := b.engine.UpdateIndex(ctx, doc, doc.ID); err != nil {
			if errors.Is(err, domain.ErrEngineUnavailable) {
				return res, err
			}
			res.Failed++
			b.logger.Warn("indexing row failed", "subject", subject, "id", doc.ID, "err", err)
			continue
		}
		res.Indexed++
	}

	res.NextOffset = offset + len(rows)
	res.Done = res.NextOffset >= total
	if res.Failed > 0 {
		b.logger.Error("block finished with row failures",
			"subject", subject, "indexed", res.Indexed, "failed", res.Failed)
	}
	return res, nil
}

// buildDocument assembles the raw field map for one row: declarative mapping
// first, then identity, path, permissions and processed extras, then
// normalization.
func (b *BatchIndexer) buildDocument(subject string, row map[string]any) (domain.SearchDocument, error) {
	raw := make(map[string]any)

	for searchField, tmpl := range b.searchableMapping(subject) {
		source := sourceField(tmpl)
		if source == "" {
			continue
		}
		if v, ok := row[source]; ok {
			raw[searchField] = b.sanitizer.CleanValue(v)
		}
	}

	raw["hubtype"] = subject

	searchable, _ := b.registry.Lookup(subject)
	if searchable.Paths != nil {
		raw["path"] = searchable.Paths.BuildPath(subject, row)
	}
	if searchable.Perms != nil {
		perms := searchable.Perms.Permissions(subject, row)
		raw["owner"] = perms.Owner
		raw["owner_type"] = string(perms.OwnerType)
		raw["access_level"] = string(perms.Access)
	}
	if searchable.Extra != nil {
		for k, v := range searchable.Extra.ProcessFields(subject, row) {
			raw[k] = b.sanitizer.CleanValue(v)
		}
	}

	if unknown := domain.UnknownKeys(raw); len(unknown) > 0 {
		b.logger.Debug("dropping unmapped fields", "subject", subject, "fields", unknown)
	}

	return domain.Normalize(raw)
}

func (b *BatchIndexer) searchableMapping(subject string) map[string]string {
	searchable, ok := b.registry.Lookup(subject)
	if !ok || searchable.Mapper == nil {
		return nil
	}
	return searchable.Mapper.Mapping(subject)
}

// sourceField unwraps a "{field}" mapping template to the source field name.
// Templates are plain 1:1 aliases; nothing richer is supported.
func sourceField(tmpl string) string {
	tmpl = strings.TrimSpace(tmpl)
	tmpl = strings.TrimPrefix(tmpl, "{")
	tmpl = strings.TrimSuffix(tmpl, "}")
	return strings.TrimSpace(tmpl)
}
