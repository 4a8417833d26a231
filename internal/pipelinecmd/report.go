package pipelinecmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/bookclean/internal/metrics"
)

func executeReport(w io.Writer, tablePath, format string) error {
	table, err := metrics.ReadCSV(tablePath)
	if err != nil {
		return fmt.Errorf("failed to load metric table: %w", err)
	}

	switch format {
	case "text":
		return printTextReport(w, table)
	case "json":
		return printJSONReport(w, table)
	case "csv":
		return printCSVReport(w, table)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(w io.Writer, table *metrics.Table) error {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "%s %s\n", table.ID, table.Name)
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Rows: %d\n\n", len(table.Rows))

	widths := make([]int, len(table.Columns))
	cells := make([][]string, len(table.Rows))
	for i, col := range table.Columns {
		widths[i] = utf8.RuneCountInString(col)
	}
	for r, row := range table.Rows {
		cells[r] = make([]string, len(row))
		for i, v := range row {
			s := truncate(metrics.FormatCell(v), 40)
			cells[r][i] = s
			widths[i] = max(widths[i], utf8.RuneCountInString(s))
		}
	}

	printRow := func(values []string) {
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = v + strings.Repeat(" ", widths[i]-utf8.RuneCountInString(v))
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(table.Columns)
	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}
	printRow(rule)
	for _, row := range cells {
		printRow(row)
	}
	return nil
}

func printJSONReport(w io.Writer, table *metrics.Table) error {
	records := make([]map[string]any, len(table.Rows))
	for r, row := range table.Rows {
		record := make(map[string]any, len(table.Columns))
		for i, col := range table.Columns {
			record[col] = row[i]
		}
		records[r] = record
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		ID   string           `json:"id"`
		Name string           `json:"name"`
		Rows []map[string]any `json:"rows"`
	}{table.ID, table.Name, records})
}

func printCSVReport(w io.Writer, table *metrics.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Columns); err != nil {
		return err
	}
	for _, row := range table.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = metrics.FormatCell(v)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
