package domain

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		wantErr  bool
		validate func(t *testing.T, doc SearchDocument)
	}{
		{
			name: "full row maps onto schema",
			raw: map[string]any{
				"hubtype":      "article",
				"hubid":        int64(42),
				"title":        "Sample Title",
				"description":  "short text",
				"fulltext":     "long text",
				"author":       "Jane Roe",
				"tags":         []string{"go", "search"},
				"access_level": "public",
				"created_by":   int64(7),
				"state":        1,
			},
			validate: func(t *testing.T, doc SearchDocument) {
				if doc.ID != "article-42" {
					t.Errorf("ID = %q, want article-42", doc.ID)
				}
				if doc.Title != "Sample Title" {
					t.Errorf("Title = %q", doc.Title)
				}
				if doc.AccessLevel != AccessPublic {
					t.Errorf("AccessLevel = %q, want public", doc.AccessLevel)
				}
				if len(doc.Tags) != 2 {
					t.Errorf("Tags = %v, want 2 entries", doc.Tags)
				}
				if doc.State != 1 || doc.CreatedBy != 7 {
					t.Errorf("State/CreatedBy = %d/%d", doc.State, doc.CreatedBy)
				}
			},
		},
		{
			name: "multi-value title keeps first element",
			raw: map[string]any{
				"hubtype": "citation",
				"hubid":   int64(3),
				"title":   []string{"First", "Second"},
			},
			validate: func(t *testing.T, doc SearchDocument) {
				if doc.Title != "First" {
					t.Errorf("Title = %q, want First", doc.Title)
				}
			},
		},
		{
			name: "explicit id wins over derived id",
			raw: map[string]any{
				"hubtype": "article",
				"hubid":   int64(9),
				"id":      "custom-id",
			},
			validate: func(t *testing.T, doc SearchDocument) {
				if doc.ID != "custom-id" {
					t.Errorf("ID = %q, want custom-id", doc.ID)
				}
			},
		},
		{
			name: "numeric strings are coerced",
			raw: map[string]any{
				"hubtype":    "article",
				"hubid":      "17",
				"created_by": "1002",
				"cms_rating": "4.5",
			},
			validate: func(t *testing.T, doc SearchDocument) {
				if doc.HubID != 17 {
					t.Errorf("HubID = %d, want 17", doc.HubID)
				}
				if doc.CreatedBy != 1002 {
					t.Errorf("CreatedBy = %d, want 1002", doc.CreatedBy)
				}
				if doc.Rating != 4.5 {
					t.Errorf("Rating = %v, want 4.5", doc.Rating)
				}
			},
		},
		{
			name:    "missing hubtype rejected",
			raw:     map[string]any{"hubid": int64(1), "title": "x"},
			wantErr: true,
		},
		{
			name:    "missing hubid rejected",
			raw:     map[string]any{"hubtype": "article", "title": "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Normalize(tt.raw)

			if tt.wantErr {
				if err == nil {
					t.Fatal("Normalize() expected error, got nil")
				}
				if !errors.Is(err, ErrDocumentInvalid) {
					t.Errorf("Normalize() error = %v, want ErrDocumentInvalid", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, doc)
			}
		})
	}
}

func TestDocumentID(t *testing.T) {
	if got := DocumentID("article", 42); got != "article-42" {
		t.Errorf("DocumentID() = %q, want article-42", got)
	}
	// Same inputs must always produce the same id so re-indexing overwrites.
	if DocumentID("blog", 7) != DocumentID("blog", 7) {
		t.Error("DocumentID() is not deterministic")
	}
}

func TestParseAccessLevel(t *testing.T) {
	tests := []struct {
		in   string
		want AccessLevel
	}{
		{"public", AccessPublic},
		{"Public", AccessPublic},
		{"  registered ", AccessRegistered},
		{"private", AccessPrivate},
		{"", AccessPrivate},
		{"whatever", AccessPrivate},
	}

	for _, tt := range tests {
		if got := ParseAccessLevel(tt.in); got != tt.want {
			t.Errorf("ParseAccessLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnknownKeys(t *testing.T) {
	raw := map[string]any{
		"hubtype":     "article",
		"hubid":       int64(1),
		"legacy_blob": "x",
	}

	unknown := UnknownKeys(raw)
	if len(unknown) != 1 || unknown[0] != "legacy_blob" {
		t.Errorf("UnknownKeys() = %v, want [legacy_blob]", unknown)
	}
}
