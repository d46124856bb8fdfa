package filesystem

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sophialabs/testlabadvisor/internal/domain/testlog"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/ports"
)

var _ testlog.Sink = (*CSVSink)(nil)

// CSVSink is the append-only test log. Appends are serialized and each row
// is flushed and synced before Append returns.
type CSVSink struct {
	mu     sync.Mutex
	path   string
	loc    *time.Location
	logger ports.Logger
}

// NewCSVSink creates a sink writing to path. Timestamps read back from the
// file are interpreted in loc.
func NewCSVSink(path string, loc *time.Location, logger ports.Logger) *CSVSink {
	if loc == nil {
		loc = time.Local
	}
	return &CSVSink{path: path, loc: loc, logger: logger}
}

// Path returns the log file location.
func (s *CSVSink) Path() string { return s.path }

// Append writes e as one row, creating the file with its header first when
// it does not exist or is empty.
func (s *CSVSink) Append(ctx context.Context, e testlog.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: creating log directory: %w", testlog.ErrSink, err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", testlog.ErrSink, s.path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: stat %s: %w", testlog.ErrSink, s.path, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		_ = w.Write(testlog.Columns)
	}
	_ = w.Write(e.Row())
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("%w: encoding row: %w", testlog.ErrSink, err)
	}

	// Header and row go out in a single write.
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("%w: writing %s: %w", testlog.ErrSink, s.path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("%w: syncing %s: %w", testlog.ErrSink, s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", testlog.ErrSink, s.path, err)
	}
	return nil
}

// Recent returns up to n of the latest entries, most recent last. A missing
// file yields no entries. Rows that cannot be parsed are skipped.
func (s *CSVSink) Recent(ctx context.Context, n int) ([]testlog.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return []testlog.Entry{}, nil
	}

	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []testlog.Entry{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 && rows[0][0] == testlog.Columns[0] {
		rows = rows[1:]
	}

	entries := make([]testlog.Entry, 0, min(n, len(rows)))
	start := max(len(rows)-n, 0)
	for _, row := range rows[start:] {
		e, err := testlog.ParseRow(row, s.loc)
		if err != nil {
			s.logger.Warn("skipping malformed log row", "file", s.path, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
