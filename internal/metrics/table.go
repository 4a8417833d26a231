// Package metrics computes the metric catalog over a cleaned book dataset.
package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// Table is one computed metric. Cells hold int64, float64, string, bool or nil
// for a missing value.
type Table struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewTable returns an empty table with the given schema.
func NewTable(id, name string, columns ...string) *Table {
	return &Table{ID: id, Name: name, Columns: columns, Rows: [][]any{}}
}

// FileName is the CSV name the table is written under, e.g.
// M1_top_authors_by_weighted_rating.csv.
func (t *Table) FileName() string {
	return fmt.Sprintf("%s_%s.csv", t.ID, t.Name)
}

func (t *Table) add(cells ...any) {
	t.Rows = append(t.Rows, cells)
}

// MissingColumnsError reports a metric whose input lacks required columns.
type MissingColumnsError struct {
	Metric  string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %v", e.Metric, e.Columns)
}

func requireColumns(ds *models.Dataset, metric string, columns ...string) error {
	var missing []string
	for _, col := range columns {
		if !ds.Has(col) && !slices.Contains(missing, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return &MissingColumnsError{Metric: metric, Columns: missing}
}

// FormatCell renders a cell the way it is written to CSV. Missing is empty.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case *int64:
		if x == nil {
			return ""
		}
		return strconv.FormatInt(*x, 10)
	case *float64:
		if x == nil {
			return ""
		}
		return strconv.FormatFloat(*x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// WriteCSV writes the table into dir under FileName. The file is written to a
// temporary name first and renamed into place.
func (t *Table) WriteCSV(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, t.FileName())

	tmp, err := os.CreateTemp(dir, "."+t.ID+"-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(t.Columns); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = FormatCell(row[i])
		}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return "", fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to flush %s: %w", t.FileName(), err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", t.FileName(), err)
	}
	return path, nil
}

// ReadCSV loads a table previously written by WriteCSV. Cells are parsed back
// into int64, float64 or string; empty cells are nil.
func ReadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metric table: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read metric table %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("metric table %s has no header", path)
	}

	id, name := splitFileName(filepath.Base(path))
	t := NewTable(id, name, records[0]...)
	for _, rec := range records[1:] {
		row := make([]any, len(rec))
		for i, cell := range rec {
			row[i] = ParseCell(cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ParseCell is the inverse of FormatCell for numeric and text cells.
func ParseCell(cell string) any {
	if cell == "" {
		return nil
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	return cell
}

func splitFileName(base string) (string, string) {
	base = strings.TrimSuffix(base, filepath.Ext(base))
	id, name, ok := strings.Cut(base, "_")
	if !ok {
		return base, base
	}
	return id, name
}
