package filesystem

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sophialabs/testlabadvisor/internal/domain/component"
)

var _ component.Source = (*CSVSource)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource reads the reference tables from CSV files in a data directory.
type CSVSource struct {
	recordsPath  string
	commandsPath string
}

// NewCSVSource creates a source for the given reference and command files,
// resolved relative to dataDir.
func NewCSVSource(dataDir, recordsFile, commandsFile string) *CSVSource {
	return &CSVSource{
		recordsPath:  filepath.Join(dataDir, recordsFile),
		commandsPath: filepath.Join(dataDir, commandsFile),
	}
}

// RecordsPath returns the reference table location.
func (s *CSVSource) RecordsPath() string { return s.recordsPath }

// CommandsPath returns the command library location.
func (s *CSVSource) CommandsPath() string { return s.commandsPath }

// LoadRecords reads the refcode/FRU map. Columns absent from the header are
// flagged on every record; unknown columns are ignored.
func (s *CSVSource) LoadRecords(ctx context.Context) ([]component.Record, error) {
	header, rows, err := readTable(ctx, s.recordsPath)
	if err != nil {
		return nil, err
	}

	cols := make(map[component.Field]int, len(component.Columns))
	var missing component.FieldSet
	for _, f := range component.Columns {
		i, ok := header[string(f)]
		if !ok {
			missing = missing.With(f)
			continue
		}
		cols[f] = i
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s has none of the expected columns", component.ErrMalformed, s.recordsPath)
	}

	records := make([]component.Record, 0, len(rows))
	for _, row := range rows {
		get := func(f component.Field) string {
			i, ok := cols[f]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		raw := get(component.FieldRecovered)
		records = append(records, component.Record{
			Refcode:      get(component.FieldRefcode),
			FRUNumber:    get(component.FieldFRUNumber),
			FRUName:      get(component.FieldFRUName),
			Drawer:       get(component.FieldDrawer),
			Location:     get(component.FieldLocation),
			Recovered:    component.ParseRecovered(raw),
			RawRecovered: raw,
			SECommands:   get(component.FieldSECommands),
			Notes:        get(component.FieldNotes),
			Missing:      missing,
		})
	}
	return records, nil
}

// LoadCommands reads the SE command library. Both command_syntax and
// description columns are required.
func (s *CSVSource) LoadCommands(ctx context.Context) ([]component.CommandDescriptor, error) {
	header, rows, err := readTable(ctx, s.commandsPath)
	if err != nil {
		return nil, err
	}

	syntaxCol, ok1 := header["command_syntax"]
	descCol, ok2 := header["description"]
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%w: %s needs command_syntax and description columns", component.ErrMalformed, s.commandsPath)
	}
	categoryCol, hasCategory := header["category"]
	usageCol, hasUsage := header["usage"]

	cell := func(row []string, i int, ok bool) string {
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	cmds := make([]component.CommandDescriptor, 0, len(rows))
	for _, row := range rows {
		syntax := cell(row, syntaxCol, true)
		if syntax == "" {
			continue
		}
		cmds = append(cmds, component.CommandDescriptor{
			Syntax:      syntax,
			Description: cell(row, descCol, true),
			Category:    cell(row, categoryCol, hasCategory),
			Usage:       cell(row, usageCol, hasUsage),
		})
	}
	return cmds, nil
}

// readTable reads a CSV file into a normalized header index and data rows.
func readTable(ctx context.Context, path string) (map[string]int, [][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", component.ErrSourceMissing, path)
		}
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	headerRow, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: %s is empty", component.ErrMalformed, path)
		}
		return nil, nil, fmt.Errorf("%w: %s: %v", component.ErrMalformed, path, err)
	}

	header := make(map[string]int, len(headerRow))
	for i, name := range headerRow {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := header[key]; !dup {
			header[key] = i
		}
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", component.ErrMalformed, path, err)
	}
	return header, rows, nil
}
