package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// AccessLevel gates document visibility in queries.
type AccessLevel string

const (
	AccessPublic     AccessLevel = "public"
	AccessRegistered AccessLevel = "registered"
	AccessPrivate    AccessLevel = "private"
)

// OwnerType identifies what kind of identity a private document is scoped to.
type OwnerType string

const (
	OwnerUser  OwnerType = "user"
	OwnerGroup OwnerType = "group"
)

// SearchDocument is the normalized, engine-indexed representation of one
// content row. The ID is globally unique across content types because it is
// prefixed with the content-type tag: "{hubtype}-{hubid}".
type SearchDocument struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Fulltext    string      `json:"fulltext,omitempty"`
	Author      string      `json:"author,omitempty"`
	Path        string      `json:"path,omitempty"`
	HubType     string      `json:"hubtype"`
	HubID       int64       `json:"hubid"`
	Created     string      `json:"created,omitempty"`
	Scope       string      `json:"scope,omitempty"`
	ScopeID     int64       `json:"scope_id,omitempty"`
	CreatedBy   int64       `json:"created_by,omitempty"`
	State       int         `json:"state"`
	Tags        []string    `json:"tags,omitempty"`
	AccessLevel AccessLevel `json:"access_level"`

	// Private documents are scoped to a user or a group.
	Owner     int64     `json:"owner,omitempty"`
	OwnerType OwnerType `json:"owner_type,omitempty"`

	// Optional identifiers.
	DOI      string `json:"doi,omitempty"`
	ISBN     string `json:"isbn,omitempty"`
	UID      int64  `json:"uid,omitempty"`
	GID      int64  `json:"gid,omitempty"`
	ParentID int64  `json:"parent_id,omitempty"`
	ChildID  int64  `json:"child_id,omitempty"`

	// Optional temporal fields.
	Modified    string `json:"modified,omitempty"`
	PublishUp   string `json:"publish_up,omitempty"`
	PublishDown string `json:"publish_down,omitempty"`
	Date        string `json:"date,omitempty"`
	Year        int    `json:"year,omitempty"`
	Month       int    `json:"month,omitempty"`
	Day         int    `json:"day,omitempty"`

	// Optional descriptive fields.
	Abstract     string `json:"abstract,omitempty"`
	Location     string `json:"location,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Language     string `json:"language,omitempty"`
	Badge        string `json:"badge,omitempty"`
	Organization string `json:"organization,omitempty"`
	URL          string `json:"url,omitempty"`

	// Ranking hints.
	Ranking float64 `json:"cms_ranking,omitempty"`
	Rating  float64 `json:"cms_rating,omitempty"`

	// Free-form.
	Params string `json:"params,omitempty"`
	Meta   string `json:"meta,omitempty"`

	// Timestamp is the unix indexing time, used for last-insert queries.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// DocumentID builds the deterministic engine-side id for a content row, so
// re-indexing the same row overwrites instead of duplicating.
func DocumentID(hubType string, hubID int64) string {
	return fmt.Sprintf("%s-%d", hubType, hubID)
}

// Normalize maps an assembled raw field map onto the document schema. Inputs
// come from the declarative field mapping plus the per-type hooks; values are
// expected to be sanitized already. Unknown keys are dropped (UnknownKeys
// reports them). A row without hubtype/hubid identity is rejected outright:
// such a document could never be re-indexed or deleted later.
func Normalize(raw map[string]any) (SearchDocument, error) {
	doc := SearchDocument{
		HubType: asString(raw["hubtype"]),
		HubID:   asInt64(raw["hubid"]),
	}
	if doc.HubType == "" || doc.HubID == 0 {
		return SearchDocument{}, &SearchEngineError{
			Op:   "Normalize",
			Err:  "missing hubtype/hubid identity fields",
			Kind: ErrDocumentInvalid,
		}
	}

	doc.ID = asString(raw["id"])
	if doc.ID == "" {
		doc.ID = DocumentID(doc.HubType, doc.HubID)
	}

	// Multi-value titles keep only the first element.
	doc.Title = firstString(raw["title"])
	doc.Description = asString(raw["description"])
	doc.Fulltext = asString(raw["fulltext"])
	doc.Author = asString(raw["author"])
	doc.Path = asString(raw["path"])
	doc.Created = asString(raw["created"])
	doc.Scope = asString(raw["scope"])
	doc.ScopeID = asInt64(raw["scope_id"])
	doc.CreatedBy = asInt64(raw["created_by"])
	doc.State = int(asInt64(raw["state"]))
	doc.Tags = asStringSlice(raw["tags"])
	doc.AccessLevel = ParseAccessLevel(asString(raw["access_level"]))
	doc.Owner = asInt64(raw["owner"])
	doc.OwnerType = OwnerType(asString(raw["owner_type"]))

	doc.DOI = asString(raw["doi"])
	doc.ISBN = asString(raw["isbn"])
	doc.UID = asInt64(raw["uid"])
	doc.GID = asInt64(raw["gid"])
	doc.ParentID = asInt64(raw["parent_id"])
	doc.ChildID = asInt64(raw["child_id"])
	doc.Modified = asString(raw["modified"])
	doc.PublishUp = asString(raw["publish_up"])
	doc.PublishDown = asString(raw["publish_down"])
	doc.Date = asString(raw["date"])
	doc.Year = int(asInt64(raw["year"]))
	doc.Month = int(asInt64(raw["month"]))
	doc.Day = int(asInt64(raw["day"]))
	doc.Abstract = asString(raw["abstract"])
	doc.Location = asString(raw["location"])
	doc.Keywords = asString(raw["keywords"])
	doc.Language = asString(raw["language"])
	doc.Badge = asString(raw["badge"])
	doc.Organization = asString(raw["organization"])
	doc.URL = asString(raw["url"])
	doc.Ranking = asFloat64(raw["cms_ranking"])
	doc.Rating = asFloat64(raw["cms_rating"])
	doc.Params = asString(raw["params"])
	doc.Meta = asString(raw["meta"])
	doc.Timestamp = asInt64(raw["timestamp"])

	return doc, nil
}

// ParseAccessLevel maps arbitrary source values onto the access enum.
// Anything unrecognized is treated as private, never as public.
func ParseAccessLevel(s string) AccessLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return AccessPublic
	case "registered":
		return AccessRegistered
	default:
		return AccessPrivate
	}
}

// UnknownKeys reports raw input keys that Normalize would drop.
func UnknownKeys(raw map[string]any) []string {
	var unknown []string
	for k := range raw {
		if _, ok := knownFields[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	return unknown
}

var knownFields = map[string]struct{}{
	"id": {}, "title": {}, "description": {}, "fulltext": {}, "author": {},
	"path": {}, "hubtype": {}, "hubid": {}, "created": {}, "scope": {},
	"scope_id": {}, "created_by": {}, "state": {}, "tags": {},
	"access_level": {}, "owner": {}, "owner_type": {},
	"doi": {}, "isbn": {}, "uid": {}, "gid": {}, "parent_id": {},
	"child_id": {}, "modified": {}, "publish_up": {}, "publish_down": {},
	"date": {}, "year": {}, "month": {}, "day": {}, "abstract": {},
	"location": {}, "keywords": {}, "language": {}, "badge": {},
	"organization": {}, "url": {}, "cms_ranking": {}, "cms_rating": {},
	"params": {}, "meta": {}, "timestamp": {},
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	default:
		return ""
	}
}

// firstString unwraps multi-value fields to their first element.
func firstString(v any) string {
	switch s := v.(type) {
	case []string:
		if len(s) == 0 {
			return ""
		}
		return s[0]
	case []any:
		if len(s) == 0 {
			return ""
		}
		return asString(s[0])
	default:
		return asString(v)
	}
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asStringSlice(v any) []string {
	switch s := v.(type) {
	case nil:
		return nil
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, x := range s {
			if str := asString(x); str != "" {
				out = append(out, str)
			}
		}
		return out
	case string:
		if s == "" {
			return nil
		}
		return []string{s}
	default:
		return nil
	}
}
