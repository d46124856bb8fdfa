package match

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/sophialabs/testlabadvisor/internal/domain/component"
)

// Status describes the outcome of a matcher operation.
type Status string

const (
	// StatusAll means no query was issued and the whole set was returned.
	StatusAll Status = "all"
	// StatusMatched means at least one record satisfied the query or selector.
	StatusMatched Status = "matched"
	// StatusNoMatch means a valid query produced zero records.
	StatusNoMatch Status = "no_match"
	// StatusNoSelection means no selector was provided.
	StatusNoSelection Status = "no_selection"
)

// SearchResult is the filtered view of a dataset.
type SearchResult struct {
	Query   string             `json:"query"`
	Status  Status             `json:"status"`
	Records []component.Record `json:"records"`
}

// Selector holds the two exact-match keys. FRUName takes precedence.
type Selector struct {
	Refcode string `json:"refcode"`
	FRUName string `json:"fru_name"`
}

// IsEmpty reports whether neither key is set.
func (s Selector) IsEmpty() bool {
	return s.FRUName == "" && s.Refcode == ""
}

// Resolution is the outcome of an exact-key lookup.
type Resolution struct {
	Status Status            `json:"status"`
	Key    component.Field   `json:"key,omitempty"`
	Index  int               `json:"index"`
	Record *component.Record `json:"record,omitempty"`
}

// Matcher answers queries over a single immutable dataset.
type Matcher struct {
	dataset *component.Dataset
}

// NewMatcher creates a matcher over ds. A nil dataset behaves as empty.
func NewMatcher(ds *component.Dataset) *Matcher {
	if ds == nil {
		ds = component.Empty()
	}
	return &Matcher{dataset: ds}
}

// Records returns every record in dataset order.
func (m *Matcher) Records() []component.Record {
	return m.dataset.Records
}

// Search filters the dataset by a case-insensitive substring over the
// searchable columns. A blank query returns the whole dataset.
func (m *Matcher) Search(query string) SearchResult {
	return Search(query, m.dataset.Records)
}

// SearchAny coerces q to its string form before searching.
func (m *Matcher) SearchAny(q any) SearchResult {
	return m.Search(Coerce(q))
}

// Search filters within by query, preserving order.
func Search(query string, within []component.Record) SearchResult {
	q := strings.TrimSpace(query)
	if q == "" {
		return SearchResult{Query: query, Status: StatusAll, Records: within}
	}

	preds := SearchPredicates(q)
	out := make([]component.Record, 0)
	for i := range within {
		if AnyField(&within[i], preds) {
			out = append(out, within[i])
		}
	}

	status := StatusMatched
	if len(out) == 0 {
		status = StatusNoMatch
	}
	return SearchResult{Query: query, Status: status, Records: out}
}

// ResolveExact picks the first record matching the selector. A non-empty
// FRU name is matched on fru_name; otherwise the refcode is used.
func ResolveExact(sel Selector, within []component.Record) Resolution {
	var (
		field component.Field
		want  string
	)
	switch {
	case sel.FRUName != "":
		field, want = component.FieldFRUName, sel.FRUName
	case sel.Refcode != "":
		field, want = component.FieldRefcode, sel.Refcode
	default:
		return Resolution{Status: StatusNoSelection, Index: -1}
	}

	eq := Equal(want)
	for i := range within {
		v, ok := within[i].Value(field)
		if ok && eq(v) {
			rec := within[i]
			return Resolution{Status: StatusMatched, Key: field, Index: i, Record: &rec}
		}
	}
	return Resolution{Status: StatusNoMatch, Key: field, Index: -1}
}

// Coerce converts arbitrary input (JSON numbers, booleans, nil) to the
// string used for matching.
func Coerce(v any) string {
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}
