package testlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TimeLayout is the on-disk timestamp format.
const TimeLayout = "2006-01-02 15:04:05"

// Columns is the header of the log file, in order.
var Columns = []string{
	"Timestamp", "OpStep", "OpDescription", "Temperature",
	"CardID", "Technician", "Result", "Notes",
}

// Result values accepted by the log.
const (
	ResultPass = "PASS"
	ResultFail = "FAIL"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrSink indicates an entry could not be durably written.
	ErrSink = errors.New("log sink failure")
)

// Entry is one operator test-step record. Entries are never mutated once
// appended.
type Entry struct {
	Timestamp     time.Time `json:"timestamp"`
	OpStep        string    `json:"op_step"`
	OpDescription string    `json:"op_description"`
	Temperature   string    `json:"temperature"`
	CardID        string    `json:"card_id"`
	Technician    string    `json:"technician"`
	Result        string    `json:"result"`
	Notes         string    `json:"notes"`
}

// ValidationError lists the fields that prevented an entry from being logged.
type ValidationError struct {
	Missing []string
	Invalid map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	for _, f := range Columns {
		if reason, ok := e.Invalid[f]; ok {
			parts = append(parts, fmt.Sprintf("invalid %s: %s", f, reason))
		}
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var upper = cases.Upper(language.Und)

// Normalize trims every field, upper-cases the technician initials and
// canonicalizes the result. It returns a *ValidationError when CardID,
// Technician or OpStep is blank or the result is not recognized.
func Normalize(e Entry) (Entry, error) {
	e.OpStep = strings.TrimSpace(e.OpStep)
	e.OpDescription = strings.TrimSpace(e.OpDescription)
	e.Temperature = strings.TrimSpace(e.Temperature)
	e.CardID = strings.TrimSpace(e.CardID)
	e.Technician = upper.String(strings.TrimSpace(e.Technician))
	e.Notes = strings.TrimSpace(e.Notes)

	verr := &ValidationError{}
	if e.OpStep == "" {
		verr.Missing = append(verr.Missing, "OpStep")
	}
	if e.CardID == "" {
		verr.Missing = append(verr.Missing, "CardID")
	}
	if e.Technician == "" {
		verr.Missing = append(verr.Missing, "Technician")
	}

	result, ok := ParseResult(e.Result)
	if !ok {
		verr.Invalid = map[string]string{"Result": fmt.Sprintf("%q is not PASS or FAIL", e.Result)}
	}
	e.Result = result

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return Entry{}, verr
	}
	return e, nil
}

// ParseResult maps PASS/FAIL (any case, or P/F) to its canonical form.
func ParseResult(raw string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PASS", "P":
		return ResultPass, true
	case "FAIL", "F":
		return ResultFail, true
	}
	return "", false
}

// Row renders e as a log file row.
func (e Entry) Row() []string {
	return []string{
		e.Timestamp.Format(TimeLayout),
		e.OpStep, e.OpDescription, e.Temperature,
		e.CardID, e.Technician, e.Result, e.Notes,
	}
}

// ParseRow reads a log file row. Short rows leave trailing fields empty.
func ParseRow(row []string, loc *time.Location) (Entry, error) {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	var e Entry
	if ts := get(0); ts != "" {
		t, err := time.ParseInLocation(TimeLayout, ts, loc)
		if err != nil {
			return Entry{}, fmt.Errorf("parsing timestamp %q: %w", ts, err)
		}
		e.Timestamp = t
	}
	e.OpStep = get(1)
	e.OpDescription = get(2)
	e.Temperature = get(3)
	e.CardID = get(4)
	e.Technician = get(5)
	e.Result = get(6)
	e.Notes = get(7)
	return e, nil
}

// Sink is the port for the append-only log store.
type Sink interface {
	// Append durably writes e. Failures wrap ErrSink.
	Append(ctx context.Context, e Entry) error

	// Recent returns up to n of the latest entries, most recent last.
	Recent(ctx context.Context, n int) ([]Entry, error)
}
