// Package dataset reads and writes the cleaned book dataset and the author
// edge table as CSV, JSONL or Parquet.
package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// Loader handles loading of a cleaned dataset
type Loader struct {
	datasetPath string
}

// NewLoader creates a new dataset loader
func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// Load loads every record from a dataset file (CSV, JSONL or Parquet)
func (l *Loader) Load() (*models.Dataset, error) {
	return l.LoadSample(0)
}

// LoadSample loads at most limit records; a limit of 0 loads everything
func (l *Loader) LoadSample(limit int) (*models.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(l.datasetPath))

	var (
		ds  *models.Dataset
		err error
	)
	switch ext {
	case ".csv":
		ds, err = l.loadCSV(limit)
	case ".parquet":
		ds, err = l.loadParquet(limit)
	case ".jsonl", ".json":
		ds, err = l.loadJSONL(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .csv, .parquet, .jsonl)", ext)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded cleaned dataset", "path", l.datasetPath, "rows", len(ds.Books), "columns", len(ds.Columns))
	return ds, nil
}

// loadCSV reads a CSV with a header. Unknown columns are ignored and the
// dataset records which known columns were present.
func (l *Loader) loadCSV(limit int) (*models.Dataset, error) {
	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	positions := make(map[string]int)
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, known := bookColumns[name]; known {
			positions[name] = i
		}
	}
	if _, ok := positions["book_id"]; !ok {
		return nil, fmt.Errorf("dataset %s has no book_id column", l.datasetPath)
	}

	ds := &models.Dataset{}
	for _, name := range models.CleanedColumns {
		if _, ok := positions[name]; ok {
			ds.Columns = append(ds.Columns, name)
		}
	}

	lineNum := 1
	for limit == 0 || len(ds.Books) < limit {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading dataset: %w", err)
		}
		lineNum++

		var b models.Book
		for _, name := range ds.Columns {
			if err := bookColumns[name].parse(&b, rec[positions[name]]); err != nil {
				return nil, fmt.Errorf("failed to parse %s at line %d: %w", name, lineNum, err)
			}
		}
		ds.Books = append(ds.Books, b)
	}

	return ds, nil
}

// loadJSONL loads records from a JSONL file written with the models.Book encoding
func (l *Loader) loadJSONL(limit int) (*models.Dataset, error) {
	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var books []models.Book
	scanner := bufio.NewScanner(file)

	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for (limit == 0 || len(books) < limit) && scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(line) == 0 {
			continue
		}

		var b models.Book
		if err := json.Unmarshal(line, &b); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		books = append(books, b)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	return models.NewDataset(books), nil
}

// loadParquet loads records from a Parquet file
func (l *Loader) loadParquet(limit int) (*models.Dataset, error) {
	slog.Debug("Opening Parquet file", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	ds := &models.Dataset{}
	var present []string
	for _, field := range pf.Schema().Fields() {
		present = append(present, field.Name())
	}
	for _, name := range models.CleanedColumns {
		if slices.Contains(present, name) {
			ds.Columns = append(ds.Columns, name)
		}
	}

	reader := parquet.NewGenericReader[BookRow](pf)
	defer reader.Close()

	rows := make([]BookRow, 128)
	for limit == 0 || len(ds.Books) < limit {
		clear(rows)
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			if limit > 0 && len(ds.Books) >= limit {
				break
			}
			b, convErr := row.Book()
			if convErr != nil {
				return nil, fmt.Errorf("invalid row %d: %w", row.BookID, convErr)
			}
			ds.Books = append(ds.Books, b)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading parquet rows: %w", err)
		}
	}

	return ds, nil
}
