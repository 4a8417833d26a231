// Package ingest reads the raw catalog export and the duplicate mapping table.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// Delimiter separates fields in the raw export.
const Delimiter = ','

// Stats counts what the reader saw.
type Stats struct {
	TotalRows    int `json:"total_rows" yaml:"total_rows"`
	RepairedRows int `json:"repaired_rows" yaml:"repaired_rows"`
}

// HeaderError reports a header that differs from models.SourceColumns.
type HeaderError struct {
	Got []string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("unexpected header format in books CSV: got %q", e.Got)
}

// RowError reports a data row that cannot be brought back to the expected arity.
type RowError struct {
	Line     int
	Fields   int
	Expected int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row at line %d has %d column(s); expected %d", e.Line, e.Fields, e.Expected)
}

// RepairRow returns fields with exactly len(models.SourceColumns) entries.
// Extra fields are assumed to come from unescaped delimiters inside the authors
// column and are joined back into it. The bool reports whether a repair happened.
func RepairRow(fields []string) ([]string, bool, error) {
	expected := len(models.SourceColumns)
	if len(fields) == expected {
		return fields, false, nil
	}
	if len(fields) < expected {
		return nil, false, &RowError{Fields: len(fields), Expected: expected}
	}

	extras := len(fields) - expected
	start := models.AuthorsIndex
	end := start + extras + 1

	repaired := make([]string, 0, expected)
	repaired = append(repaired, fields[:start]...)
	repaired = append(repaired, strings.Join(fields[start:end], string(Delimiter)))
	repaired = append(repaired, fields[end:]...)

	return repaired, true, nil
}

// ReadBooks parses the raw export from r. The header must match
// models.SourceColumns exactly; any short row aborts the read.
func ReadBooks(r io.Reader) ([]models.RawRecord, Stats, error) {
	var stats Stats

	reader := csv.NewReader(r)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, &HeaderError{}
		}
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !slices.Equal(header, models.SourceColumns) {
		return nil, stats, &HeaderError{Got: header}
	}

	var records []models.RawRecord
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read books CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)
		stats.TotalRows++

		repaired, wasRepaired, err := RepairRow(fields)
		if err != nil {
			var rowErr *RowError
			if errors.As(err, &rowErr) {
				rowErr.Line = line
			}
			return nil, stats, err
		}
		if wasRepaired {
			stats.RepairedRows++
			slog.Debug("Repaired row with split authors field", "line", line, "fields", len(fields))
		}

		records = append(records, models.RawRecord{Line: line, Fields: repaired})
	}

	return records, stats, nil
}

// ReadBooksFile opens path and calls ReadBooks.
func ReadBooksFile(path string) ([]models.RawRecord, Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to open books CSV: %w", err)
	}
	defer file.Close()

	return ReadBooks(file)
}
