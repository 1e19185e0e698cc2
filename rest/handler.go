// Package rest exposes the search HTTP surface.
package rest

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"hubsearch/auth"
	"hubsearch/domain"
	"hubsearch/port"
	"hubsearch/query"
)

// statusLogLines is how many recent engine task lines the status endpoint
// returns.
const statusLogLines = 20

// filterParams maps query string parameters onto document fields. Only these
// fields are filterable from the outside.
var filterParams = map[string]string{
	"hubtype": "hubtype",
	"author":  "author",
	"tag":     "tags",
	"year":    "year",
	"scope":   "scope",
}

// Handler contains the HTTP handlers for search and suggestions.
type Handler struct {
	engine port.SearchEngine
	logger *slog.Logger
}

func NewHandler(engine port.SearchEngine, logger *slog.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

type SearchResponse struct {
	Query  string                      `json:"query"`
	Total  int64                       `json:"total"`
	Limit  int64                       `json:"limit"`
	Offset int64                       `json:"offset"`
	Hits   []domain.SearchDocument     `json:"hits"`
	Facets map[string]map[string]int64 `json:"facets,omitempty"`
}

type SuggestResponse struct {
	Query       string              `json:"query"`
	Suggestions map[string][]string `json:"suggestions"`
}

// Search runs an access-controlled query for the requesting actor.
func (h *Handler) Search(c echo.Context) error {
	terms := strings.TrimSpace(c.QueryParam("q"))
	if terms == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}

	ctx := c.Request().Context()
	actor := auth.ActorFromContext(ctx)

	limit := parseInt64(c.QueryParam("limit"), 20)
	offset := parseInt64(c.QueryParam("offset"), 0)

	builder := query.New(h.engine, actor).
		Query(terms).
		Limit(limit).
		Start(offset)

	for param, field := range filterParams {
		if v := c.QueryParam(param); v != "" {
			builder.AddFilter(param, field, v)
		}
	}

	facetNames := c.QueryParams()["facet"]
	for _, name := range facetNames {
		if field, ok := filterParams[name]; ok {
			builder.AddFacet(name, field)
		}
	}

	if sort := c.QueryParam("sort"); sort != "" {
		field, dir := parseSort(sort)
		builder.SortBy(field, dir)
	}

	hits, err := builder.Results(ctx)
	if err != nil {
		h.logger.Error("search failed", "query", terms, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	total, err := builder.NumFound(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	resp := SearchResponse{
		Query:  terms,
		Total:  total,
		Limit:  limit,
		Offset: offset,
		Hits:   hits,
	}

	if len(facetNames) > 0 {
		resp.Facets = make(map[string]map[string]int64, len(facetNames))
		for _, name := range facetNames {
			if counts, err := builder.FacetCount(ctx, name); err == nil && counts != nil {
				resp.Facets[name] = counts
			}
		}
	}

	h.logger.Info("search ok",
		"query", terms,
		"actor", actor.ID,
		"count", len(resp.Hits),
		"total", resp.Total)

	return c.JSON(http.StatusOK, resp)
}

// Suggest returns facet value completions for a prefix.
func (h *Handler) Suggest(c echo.Context) error {
	terms := strings.TrimSpace(c.QueryParam("q"))
	if terms == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}

	ctx := c.Request().Context()
	actor := auth.ActorFromContext(ctx)

	suggestions := query.New(h.engine, actor).Suggestions(ctx, terms)

	return c.JSON(http.StatusOK, SuggestResponse{
		Query:       terms,
		Suggestions: suggestions,
	})
}

type StatusResponse struct {
	Status     string   `json:"status"`
	LastInsert string   `json:"last_insert,omitempty"`
	Log        []string `json:"log,omitempty"`
}

// Status reports engine health plus the most recent indexing activity, for
// administrative dashboards.
func (h *Handler) Status(c echo.Context) error {
	ctx := c.Request().Context()

	if !h.engine.Status(ctx) {
		return c.JSON(http.StatusServiceUnavailable, StatusResponse{Status: "unavailable"})
	}

	resp := StatusResponse{Status: "healthy"}
	if ts, err := h.engine.LastInsert(ctx); err == nil && !ts.IsZero() {
		resp.LastInsert = ts.UTC().Format(time.RFC3339)
	}
	if lines, err := h.engine.Log(ctx, statusLogLines); err == nil {
		resp.Log = lines
	}
	return c.JSON(http.StatusOK, resp)
}

// Health reports whether the search engine is reachable.
func (h *Handler) Health(c echo.Context) error {
	if !h.engine.Status(c.Request().Context()) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func parseInt64(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// parseSort splits "field:dir" into its parts, defaulting to descending.
func parseSort(s string) (string, string) {
	field, dir, found := strings.Cut(s, ":")
	if !found || (dir != "asc" && dir != "desc") {
		return field, "desc"
	}
	return field, dir
}
