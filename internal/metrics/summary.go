package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// RunSummary describes one metrics run.
type RunSummary struct {
	GeneratedAt time.Time      `json:"generated_at"`
	InputRows   int            `json:"input_rows"`
	Tables      []TableSummary `json:"tables"`
	Skipped     []string       `json:"skipped,omitempty"`
}

// TableSummary is the per-table line of a RunSummary.
type TableSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rows int    `json:"rows"`
	Path string `json:"path,omitempty"`
}

// Summarize builds a RunSummary for the written tables. paths maps table id
// to output file.
func Summarize(inputRows int, tables []*Table, paths map[string]string, selected []Metric) *RunSummary {
	s := &RunSummary{GeneratedAt: time.Now(), InputRows: inputRows}
	computed := make(map[string]bool, len(tables))
	for _, t := range tables {
		computed[t.ID] = true
		s.Tables = append(s.Tables, TableSummary{ID: t.ID, Name: t.Name, Rows: len(t.Rows), Path: paths[t.ID]})
	}
	for _, m := range selected {
		if !computed[m.ID] {
			s.Skipped = append(s.Skipped, m.ID)
		}
	}
	return s
}

// PrintSummary prints a human-readable summary of the run
func (s *RunSummary) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "METRIC CATALOG SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Generated: %s\n", s.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Input Rows: %d\n", s.InputRows)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "TABLES")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, t := range s.Tables {
		fmt.Fprintf(w, "%-4s %-42s %6d rows\n", t.ID, t.Name, t.Rows)
	}
	if len(s.Skipped) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Skipped (missing columns): %s\n", strings.Join(s.Skipped, ", "))
	}
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

// SaveToJSON saves the summary to a JSON file
func (s *RunSummary) SaveToJSON(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("failed to encode summary to JSON: %w", err)
	}

	return nil
}
