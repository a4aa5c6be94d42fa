package fixture

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Loader reads fixture files, synthesizing missing ones.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger uses slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load returns the records of the fixture file at path, creating the file
// from schema.Samples first if it does not exist. It never fails: problems
// are logged and an empty (non-nil) sequence is returned.
func (l *Loader) Load(path string, schema Schema) []Record {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := Synthesize(path, schema); err != nil {
			l.logger.Warn("cannot create fixture file", "path", path, "error", err)
			return []Record{}
		}
		l.logger.Info("fixture file created with sample data",
			"path", path,
			"schema", schema.Name,
			"samples", len(schema.Samples),
		)
	}

	rows, err := readRows(path)
	if err != nil {
		l.logger.Warn("cannot read fixture file", "path", path, "error", err)
		return []Record{}
	}

	records := Parse(rows, schema)
	l.logger.Debug("fixture file loaded", "path", path, "records", len(records))
	return records
}

// Synthesize writes the schema's header and sample rows to path, creating
// parent directories. An existing file is overwritten.
func Synthesize(path string, schema Schema) error {
	if len(schema.Columns) == 0 {
		return fmt.Errorf("schema %q has no columns", schema.Name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create fixture directory: %w", err)
	}

	rows := make([][]string, 0, len(schema.Samples)+1)
	rows = append(rows, schema.Header())
	for _, s := range schema.Samples {
		row := make([]string, len(schema.Columns))
		copy(row, s)
		rows = append(rows, row)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return writeWorkbook(path, rows)
	case ".tsv":
		return writeDelimited(path, rows, '\t')
	default:
		return writeDelimited(path, rows, ',')
	}
}

// Parse converts raw rows (header first) into records. Header cells map to
// schema columns tolerantly; unknown columns are kept under their own name.
// Blank schema fields take the column default. Fully blank rows are dropped.
func Parse(rows [][]string, schema Schema) []Record {
	records := []Record{}
	if len(rows) == 0 {
		return records
	}

	header := rows[0]
	mapped := make([]int, len(header))
	for i, h := range header {
		if idx, ok := schema.column(h); ok {
			mapped[i] = idx
		} else {
			mapped[i] = -1
		}
	}

	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}

		values := make([]string, len(schema.Columns))
		rec := NewRecord()
		for i, h := range header {
			if i >= len(row) {
				break
			}
			v := strings.TrimSpace(row[i])
			if mapped[i] >= 0 {
				if values[mapped[i]] == "" {
					values[mapped[i]] = v
				}
				continue
			}
			if name := strings.TrimSpace(h); name != "" {
				rec.set(name, v)
			}
		}

		// Schema columns first, in schema order, then extras in header order.
		ordered := NewRecord()
		for i, c := range schema.Columns {
			ordered.set(c.Name, values[i])
		}
		for _, name := range rec.Fields() {
			ordered.set(name, rec.Get(name))
		}
		for i, c := range schema.Columns {
			if values[i] == "" && c.Default != nil {
				ordered.set(c.Name, c.Default(ordered))
			}
		}
		records = append(records, ordered)
	}
	return records
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func readRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readWorkbook(path)
	case ".tsv":
		return readDelimited(path, '\t')
	default:
		return readDelimited(path, ',')
	}
}

func readDelimited(path string, comma rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

func writeDelimited(path string, rows [][]string, comma rune) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create fixture file: %w", err)
	}
	w := csv.NewWriter(f)
	w.Comma = comma
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write fixture file: %w", err)
	}
	return f.Close()
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
	}
	return f.GetRows(sheets[0])
}

func writeWorkbook(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, ref, &cells); err != nil {
			return fmt.Errorf("write fixture row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save fixture workbook: %w", err)
	}
	return nil
}
