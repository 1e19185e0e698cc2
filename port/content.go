package port

import (
	"context"

	"hubsearch/domain"
)

// ContentSource enumerates the rows of one searchable content type.
type ContentSource interface {
	Total(ctx context.Context) (int, error)
	Rows(ctx context.Context, offset, limit int) ([]map[string]any, error)
}

// FieldMapper declares how search fields alias source fields. Template values
// use simple "{sourceField}" aliasing, nothing richer.
type FieldMapper interface {
	Mapping(subject string) map[string]string
}

// PathBuilder computes the canonical URL for a row.
type PathBuilder interface {
	BuildPath(subject string, row map[string]any) string
}

// PermissionCalculator projects a row's ownership and access level.
type PermissionCalculator interface {
	Permissions(subject string, row map[string]any) domain.Permissions
}

// FieldProcessor contributes extra processed fields for a row.
type FieldProcessor interface {
	ProcessFields(subject string, row map[string]any) map[string]any
}
