// Package compare checks SQL renditions of metrics against the Go metric tables.
package compare

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/bookclean/internal/metrics"
)

// DefaultTolerance is the largest absolute difference accepted between two
// numeric cells.
const DefaultTolerance = 1e-4

// SummaryFile is the name of the comparison summary written by WriteSummary.
const SummaryFile = "comparison_summary.csv"

// Case describes how one metric is compared: rows are joined on KeyColumns and
// CompareColumns are checked cell by cell. Rounding is applied to the named
// columns on both sides before comparing.
type Case struct {
	MetricID       string
	KeyColumns     []string
	CompareColumns []string
	Rounding       map[string]int
}

// Cases are the supported comparisons, in catalog order.
var Cases = []Case{
	{
		MetricID:       "M1",
		KeyColumns:     []string{"author_name"},
		CompareColumns: []string{"weighted_average_rating", "total_ratings", "book_count"},
		Rounding:       map[string]int{"weighted_average_rating": 4},
	},
	{
		MetricID:       "M3",
		KeyColumns:     []string{"canonical_book_id"},
		CompareColumns: []string{"title", "average_rating", "ratings_count", "ratings_count_capped", "language_code"},
		Rounding:       map[string]int{"average_rating": 4},
	},
	{
		MetricID:       "M7",
		KeyColumns:     []string{"publication_year"},
		CompareColumns: []string{"average_rating", "book_count"},
		Rounding:       map[string]int{"average_rating": 4},
	},
	{
		MetricID:       "M11",
		KeyColumns:     []string{"total_rows"},
		CompareColumns: []string{"duplicate_rows", "duplicate_share_pct"},
		Rounding:       map[string]int{"duplicate_share_pct": 4},
	},
}

// SelectCases returns the cases for ids, or every case when ids is empty.
func SelectCases(ids []string) ([]Case, error) {
	if len(ids) == 0 {
		return Cases, nil
	}
	var selected []Case
	for _, id := range ids {
		i := slices.IndexFunc(Cases, func(c Case) bool { return strings.EqualFold(c.MetricID, id) })
		if i < 0 {
			return nil, fmt.Errorf("no comparison for metric %q", id)
		}
		selected = append(selected, Cases[i])
	}
	return selected, nil
}

// Difference is one cell that disagrees between the two tables.
type Difference struct {
	Key          string
	Column       string
	SQLValue     string
	GoValue      string
	AbsoluteDiff *float64
}

// Result summarizes one comparison.
type Result struct {
	Name            string       `json:"name"`
	RowsSQL         int          `json:"rows_sql"`
	RowsGo          int          `json:"rows_go"`
	SharedRows      int          `json:"shared_rows"`
	RowMatch        bool         `json:"row_match"`
	ValueMismatches int          `json:"value_mismatches"`
	Notes           string       `json:"notes"`
	Differences     []Difference `json:"-"`
}

// OK reports whether both tables agree on rows and values.
func (r Result) OK() bool {
	return r.RowMatch && r.ValueMismatches == 0
}

// Tables compares a SQL table against its Go counterpart.
func Tables(c Case, sqlTable, goTable *metrics.Table, tolerance float64) (Result, error) {
	result := Result{Name: goTable.ID + "_" + goTable.Name}

	sqlRows, err := index(c, sqlTable)
	if err != nil {
		return result, fmt.Errorf("sql %s: %w", c.MetricID, err)
	}
	goRows, err := index(c, goTable)
	if err != nil {
		return result, fmt.Errorf("go %s: %w", c.MetricID, err)
	}
	result.RowsSQL = len(sqlTable.Rows)
	result.RowsGo = len(goTable.Rows)

	keys := make([]string, 0, len(goRows))
	unmatched := 0
	for key := range goRows {
		if _, ok := sqlRows[key]; ok {
			keys = append(keys, key)
		} else {
			unmatched++
		}
	}
	for key := range sqlRows {
		if _, ok := goRows[key]; !ok {
			unmatched++
		}
	}
	slices.Sort(keys)
	result.SharedRows = len(keys)
	result.RowMatch = unmatched == 0 && result.RowsSQL == result.RowsGo

	for _, column := range c.CompareColumns {
		places, rounded := c.Rounding[column]
		for _, key := range keys {
			sv := sqlRows[key][column]
			gv := goRows[key][column]
			if rounded {
				sv, gv = round(sv, places), round(gv, places)
			}
			if diff, equal := cellsEqual(sv, gv, tolerance); !equal {
				result.Differences = append(result.Differences, Difference{
					Key:          key,
					Column:       column,
					SQLValue:     metrics.FormatCell(sv),
					GoValue:      metrics.FormatCell(gv),
					AbsoluteDiff: diff,
				})
			}
		}
	}
	result.ValueMismatches = len(result.Differences)

	result.Notes = "Match"
	if !result.OK() {
		result.Notes = "Check differences file"
		slog.Warn("Comparison found differences",
			"metric", c.MetricID,
			"mismatches", result.ValueMismatches,
			"rows_sql", result.RowsSQL,
			"rows_go", result.RowsGo)
	}
	return result, nil
}

// index maps each row's joined key columns to its cells by column name.
func index(c Case, t *metrics.Table) (map[string]map[string]any, error) {
	positions := make(map[string]int, len(t.Columns))
	for i, col := range t.Columns {
		positions[col] = i
	}
	var missing []string
	for _, col := range slices.Concat(c.KeyColumns, c.CompareColumns) {
		if _, ok := positions[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Errorf("missing columns %v in table with columns %v", missing, t.Columns)
	}

	rows := make(map[string]map[string]any, len(t.Rows))
	for _, row := range t.Rows {
		parts := make([]string, len(c.KeyColumns))
		for i, col := range c.KeyColumns {
			parts[i] = metrics.FormatCell(row[positions[col]])
		}
		cells := make(map[string]any, len(positions))
		for col, i := range positions {
			cells[col] = row[i]
		}
		rows[strings.Join(parts, "|")] = cells
	}
	return rows, nil
}

// cellsEqual compares numerically when both cells are numbers, otherwise as
// text. Two missing cells are equal.
func cellsEqual(a, b any, tolerance float64) (*float64, bool) {
	af, aNum := number(a)
	bf, bNum := number(b)
	if aNum && bNum {
		diff := math.Abs(af - bf)
		return &diff, diff <= tolerance
	}
	return nil, metrics.FormatCell(a) == metrics.FormatCell(b)
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, !math.IsNaN(x)
	default:
		return 0, false
	}
}

func round(v any, places int) any {
	f, ok := number(v)
	if !ok {
		return v
	}
	scale := math.Pow(10, float64(places))
	return math.Round(f*scale) / scale
}

// WriteSummary writes comparison_summary.csv into dir, plus one
// <name>_differences.csv per comparison with mismatches.
func WriteSummary(dir string, results []Result) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	summary := [][]string{{"name", "rows_sql", "rows_go", "shared_rows", "row_match", "value_mismatches", "notes"}}
	for _, r := range results {
		match := "no"
		if r.RowMatch {
			match = "yes"
		}
		summary = append(summary, []string{
			r.Name,
			strconv.Itoa(r.RowsSQL),
			strconv.Itoa(r.RowsGo),
			strconv.Itoa(r.SharedRows),
			match,
			strconv.Itoa(r.ValueMismatches),
			r.Notes,
		})

		if len(r.Differences) == 0 {
			continue
		}
		diffs := [][]string{{"key", "column", "sql_value", "go_value", "absolute_diff"}}
		for _, d := range r.Differences {
			abs := ""
			if d.AbsoluteDiff != nil {
				abs = strconv.FormatFloat(*d.AbsoluteDiff, 'g', -1, 64)
			}
			diffs = append(diffs, []string{d.Key, d.Column, d.SQLValue, d.GoValue, abs})
		}
		if err := writeCSV(filepath.Join(dir, r.Name+"_differences.csv"), diffs); err != nil {
			return "", err
		}
	}

	path := filepath.Join(dir, SummaryFile)
	if err := writeCSV(path, summary); err != nil {
		return "", err
	}
	slog.Info("Wrote comparison summary", "path", path, "comparisons", len(results))
	return path, nil
}

func writeCSV(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
