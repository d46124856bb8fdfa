package component

import "strings"

// Field names a searchable or groupable column of the reference table.
type Field string

const (
	FieldRefcode    Field = "refcode"
	FieldFRUNumber  Field = "fru_number"
	FieldFRUName    Field = "fru_name"
	FieldDrawer     Field = "drawer"
	FieldLocation   Field = "location"
	FieldRecovered  Field = "recovered"
	FieldSECommands Field = "se_commands"
	FieldNotes      Field = "notes"
)

// Columns is the exact reference table header, in canonical order.
var Columns = []Field{
	FieldRefcode,
	FieldFRUNumber,
	FieldFRUName,
	FieldDrawer,
	FieldLocation,
	FieldRecovered,
	FieldSECommands,
	FieldNotes,
}

// SearchFields are the columns free-text search looks at.
var SearchFields = []Field{
	FieldRefcode,
	FieldFRUNumber,
	FieldFRUName,
	FieldDrawer,
	FieldLocation,
	FieldSECommands,
	FieldNotes,
}

// ParseField maps a column name to a Field. ok is false for unknown names.
func ParseField(name string) (Field, bool) {
	f := Field(strings.ToLower(strings.TrimSpace(name)))
	for _, c := range Columns {
		if c == f {
			return f, true
		}
	}
	return "", false
}

// Recovered reports whether a fault self-recovered.
type Recovered string

const (
	RecoveredYes Recovered = "Yes"
	RecoveredNo  Recovered = "No"
)

// ParseRecovered normalizes a raw cell. Only an exact "Yes" (surrounding
// whitespace ignored) is Yes; every other value, including "yes", is No.
func ParseRecovered(raw string) Recovered {
	if strings.TrimSpace(raw) == string(RecoveredYes) {
		return RecoveredYes
	}
	return RecoveredNo
}

// Record is one row of the reference table.
//
// Columns missing from the source are left empty and flagged in Missing,
// so they never take part in a search. The zero FieldSet means every
// column was present.
type Record struct {
	Refcode    string    `json:"refcode"`
	FRUNumber  string    `json:"fru_number"`
	FRUName    string    `json:"fru_name"`
	Drawer     string    `json:"drawer"`
	Location   string    `json:"location"`
	Recovered  Recovered `json:"recovered"`
	SECommands string    `json:"se_commands"`
	Notes      string    `json:"notes"`

	// RawRecovered keeps the cell as written, e.g. "" or "N/A".
	RawRecovered string   `json:"-"`
	Missing      FieldSet `json:"-"`
}

// FieldSet is a bitmask of columns.
type FieldSet uint16

var fieldBits = map[Field]FieldSet{
	FieldRefcode:    1 << 0,
	FieldFRUNumber:  1 << 1,
	FieldFRUName:    1 << 2,
	FieldDrawer:     1 << 3,
	FieldLocation:   1 << 4,
	FieldRecovered:  1 << 5,
	FieldSECommands: 1 << 6,
	FieldNotes:      1 << 7,
}

// With returns s with f added.
func (s FieldSet) With(f Field) FieldSet { return s | fieldBits[f] }

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool { return s&fieldBits[f] != 0 }

// Value returns the value of f and whether the record carries it.
func (r *Record) Value(f Field) (string, bool) {
	if r.Missing.Has(f) {
		return "", false
	}
	switch f {
	case FieldRefcode:
		return r.Refcode, true
	case FieldFRUNumber:
		return r.FRUNumber, true
	case FieldFRUName:
		return r.FRUName, true
	case FieldDrawer:
		return r.Drawer, true
	case FieldLocation:
		return r.Location, true
	case FieldRecovered:
		return string(r.Recovered), true
	case FieldSECommands:
		return r.SECommands, true
	case FieldNotes:
		return r.Notes, true
	}
	return "", false
}

// IsRecovered reports whether the record counts toward the recovery rate.
func (r *Record) IsRecovered() bool {
	return r.Recovered == RecoveredYes
}

// FirstCommand returns the first whitespace-separated SE command token.
func (r *Record) FirstCommand() string {
	parts := strings.Fields(r.SECommands)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// Display is a record with per-field fallbacks applied for presentation.
type Display struct {
	Refcode    string `json:"refcode"`
	FRUNumber  string `json:"fru_number"`
	FRUName    string `json:"fru_name"`
	Drawer     string `json:"drawer"`
	Location   string `json:"location"`
	Recovered  string `json:"recovered"`
	SECommands string `json:"se_commands"`
	Notes      string `json:"notes"`
}

const notAvailable = "N/A"

// Display applies the default policy for missing values.
func (r *Record) Display() Display {
	pick := func(f Field, fallback string) string {
		if v, ok := r.Value(f); ok && strings.TrimSpace(v) != "" {
			return v
		}
		return fallback
	}
	return Display{
		Refcode:    pick(FieldRefcode, notAvailable),
		FRUNumber:  pick(FieldFRUNumber, notAvailable),
		FRUName:    pick(FieldFRUName, notAvailable),
		Drawer:     pick(FieldDrawer, notAvailable),
		Location:   pick(FieldLocation, notAvailable),
		Recovered:  pick(FieldRecovered, "Unknown"),
		SECommands: pick(FieldSECommands, notAvailable),
		Notes:      pick(FieldNotes, "No notes available"),
	}
}

// CommandDescriptor documents an SE command.
type CommandDescriptor struct {
	Syntax      string `json:"command_syntax"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Usage       string `json:"usage,omitempty"`
}
