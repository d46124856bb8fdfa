package component

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSourceMissing indicates a reference file does not exist.
	ErrSourceMissing = errors.New("reference source missing")

	// ErrMalformed indicates a reference file could not be parsed.
	ErrMalformed = errors.New("reference source malformed")
)

// LoadFailure is a non-fatal warning raised when a reference source could
// not be read. The affected table is treated as empty.
type LoadFailure struct {
	Source string
	Err    error
}

func (f *LoadFailure) Error() string {
	return fmt.Sprintf("could not load %s: %v", f.Source, f.Err)
}

func (f *LoadFailure) Unwrap() error { return f.Err }

// Source is the port for reading the reference tables.
type Source interface {
	// LoadRecords reads the refcode/FRU map.
	LoadRecords(ctx context.Context) ([]Record, error)

	// LoadCommands reads the SE command library.
	LoadCommands(ctx context.Context) ([]CommandDescriptor, error)
}
