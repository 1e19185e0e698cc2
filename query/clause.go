package query

import (
	"fmt"
	"strconv"
	"strings"
)

// escapeValue escapes quoting characters in engine filter values so
// user-supplied strings cannot break out of a clause.
func escapeValue(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	return value
}

// Eq renders an equality clause for a string value.
func Eq(field, value string) string {
	return fmt.Sprintf("%s = \"%s\"", field, escapeValue(value))
}

// EqInt renders an equality clause for a numeric value.
func EqInt(field string, value int64) string {
	return field + " = " + strconv.FormatInt(value, 10)
}

// In renders a membership clause for numeric values.
func In(field string, values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return field + " IN [" + strings.Join(parts, ", ") + "]"
}

func and(clauses ...string) string {
	return "(" + strings.Join(clauses, " AND ") + ")"
}

func or(clauses ...string) string {
	return "(" + strings.Join(clauses, " OR ") + ")"
}
