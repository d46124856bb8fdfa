package match

import (
	"strings"

	"github.com/sophialabs/testlabadvisor/internal/domain/component"
)

// Predicate tests a string value and returns true if it matches.
type Predicate func(string) bool

// ContainsFold matches values containing needle, ignoring case.
// needle is trimmed first.
func ContainsFold(needle string) Predicate {
	n := strings.ToLower(strings.TrimSpace(needle))
	return func(s string) bool {
		return strings.Contains(strings.ToLower(s), n)
	}
}

// Equal matches values exactly (case-sensitive).
func Equal(expected string) Predicate {
	return func(s string) bool {
		return s == expected
	}
}

// FieldPredicate binds a record column to its predicate.
type FieldPredicate struct {
	Field     component.Field
	Predicate Predicate
}

// AnyField reports whether at least one predicate holds for r. Columns the
// record does not carry are skipped rather than failing the record.
func AnyField(r *component.Record, preds []FieldPredicate) bool {
	for _, fp := range preds {
		v, ok := r.Value(fp.Field)
		if !ok {
			continue
		}
		if fp.Predicate(v) {
			return true
		}
	}
	return false
}

// SearchPredicates builds one ContainsFold predicate per searchable column.
func SearchPredicates(query string) []FieldPredicate {
	p := ContainsFold(query)
	preds := make([]FieldPredicate, 0, len(component.SearchFields))
	for _, f := range component.SearchFields {
		preds = append(preds, FieldPredicate{Field: f, Predicate: p})
	}
	return preds
}
