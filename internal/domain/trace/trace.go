package trace

import "time"

// Kind identifies the matcher operation that produced an entry.
type Kind string

const (
	KindSearch  Kind = "search"
	KindResolve Kind = "resolve"
	KindAdvise  Kind = "advise"
)

// Entry represents a single lookup trace entry.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Kind       Kind      `json:"kind"`
	SessionID  string    `json:"session_id,omitempty"`
	Query      string    `json:"query,omitempty"`
	Refcode    string    `json:"refcode,omitempty"`
	FRUName    string    `json:"fru_name,omitempty"`
	Status     string    `json:"status"`
	Results    int       `json:"results"`
	MatchedKey string    `json:"matched_key,omitempty"`
	Category   string    `json:"category,omitempty"`
}
