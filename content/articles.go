// Package content provides built-in searchable content types backed by the
// CMS database. Host applications register further types through the indexer
// registry.
package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hubsearch/domain"
	"hubsearch/driver"
)

// SubjectArticle is the content-type tag for CMS articles.
const SubjectArticle = "article"

// ArticleSource enumerates CMS articles with their tags and implements the
// four indexing hooks for them.
type ArticleSource struct {
	pool    driver.Pool
	baseURL string
}

func NewArticleSource(pool driver.Pool, baseURL string) *ArticleSource {
	return &ArticleSource{pool: pool, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *ArticleSource) Total(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, &domain.DriverError{Op: "Total", Err: err.Error()}
	}
	return count, nil
}

// Rows returns one page of articles in primary-key order, each as the raw
// field map the declarative mapping consumes.
func (s *ArticleSource) Rows(ctx context.Context, offset, limit int) ([]map[string]any, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.title, a.introtext, a.fulltext, a.created_by,
			   a.author, a.access, a.state, a.scope, a.scope_id, a.created,
			   COALESCE(
				   array_agg(t.name ORDER BY t.name) FILTER (WHERE t.name IS NOT NULL),
				   '{}'
			   ) AS tag_names
		FROM articles a
		LEFT JOIN article_tags at ON a.id = at.article_id
		LEFT JOIN tags t ON at.tag_id = t.id
		GROUP BY a.id, a.title, a.introtext, a.fulltext, a.created_by,
				 a.author, a.access, a.state, a.scope, a.scope_id, a.created
		ORDER BY a.id ASC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, &domain.DriverError{Op: "Rows", Err: err.Error()}
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var (
			id, createdBy, access, state, scopeID int64
			title, introtext, fulltext            string
			author, scope                         string
			created                               time.Time
			tagNames                              []string
		)
		if err := rows.Scan(&id, &title, &introtext, &fulltext, &createdBy,
			&author, &access, &state, &scope, &scopeID, &created, &tagNames); err != nil {
			return nil, &domain.DriverError{Op: "Rows", Err: err.Error()}
		}

		out = append(out, map[string]any{
			"id":         id,
			"title":      title,
			"introtext":  introtext,
			"fulltext":   fulltext,
			"created_by": createdBy,
			"author":     author,
			"access":     access,
			"state":      state,
			"scope":      scope,
			"scope_id":   scopeID,
			"created":    created.Format("2006-01-02 15:04:05"),
			"tag_names":  tagNames,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.DriverError{Op: "Rows", Err: err.Error()}
	}
	return out, nil
}

// Mapping aliases document fields onto article row fields.
func (s *ArticleSource) Mapping(subject string) map[string]string {
	return map[string]string{
		"hubid":       "{id}",
		"title":       "{title}",
		"description": "{introtext}",
		"fulltext":    "{fulltext}",
		"author":      "{author}",
		"created":     "{created}",
		"created_by":  "{created_by}",
		"state":       "{state}",
		"scope":       "{scope}",
		"scope_id":    "{scope_id}",
		"tags":        "{tag_names}",
	}
}

// BuildPath returns the canonical article URL.
func (s *ArticleSource) BuildPath(subject string, row map[string]any) string {
	return fmt.Sprintf("%s/articles/%v", s.baseURL, row["id"])
}

// Permissions projects the CMS access column onto the document access model:
// 0 = public, 1 = registered, anything else private. Private group-scoped
// articles are owned by their group, others by their author.
func (s *ArticleSource) Permissions(subject string, row map[string]any) domain.Permissions {
	access, _ := row["access"].(int64)
	switch access {
	case 0:
		return domain.Permissions{Access: domain.AccessPublic}
	case 1:
		return domain.Permissions{Access: domain.AccessRegistered}
	}

	if scope, _ := row["scope"].(string); scope == "group" {
		owner, _ := row["scope_id"].(int64)
		return domain.Permissions{
			Owner:     owner,
			OwnerType: domain.OwnerGroup,
			Access:    domain.AccessPrivate,
		}
	}
	owner, _ := row["created_by"].(int64)
	return domain.Permissions{
		Owner:     owner,
		OwnerType: domain.OwnerUser,
		Access:    domain.AccessPrivate,
	}
}

// ProcessFields derives the date split fields from the created timestamp.
func (s *ArticleSource) ProcessFields(subject string, row map[string]any) map[string]any {
	created, _ := row["created"].(time.Time)
	if created.IsZero() {
		if raw, ok := row["created"].(string); ok {
			created, _ = time.Parse("2006-01-02 15:04:05", raw)
		}
	}
	if created.IsZero() {
		return nil
	}
	return map[string]any{
		"date":  created.Format("2006-01-02"),
		"year":  created.Year(),
		"month": int(created.Month()),
		"day":   created.Day(),
	}
}
