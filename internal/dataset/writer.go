package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// EdgeColumns is the header of the author edge table.
var EdgeColumns = []string{"book_id", "author_order", "author_name", "authors_raw"}

// WriteBooks writes the cleaned dataset to path; the format follows the
// extension (.csv, .parquet or .jsonl).
func WriteBooks(path string, books []models.Book) error {
	var write func(io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = func(w io.Writer) error { return writeBooksCSV(w, books) }
	case ".parquet":
		write = func(w io.Writer) error {
			rows := make([]BookRow, len(books))
			for i, b := range books {
				rows[i] = NewBookRow(b)
			}
			return writeParquet(w, rows)
		}
	case ".jsonl", ".json":
		write = func(w io.Writer) error { return writeJSONL(w, books) }
	default:
		return fmt.Errorf("unsupported output format: %s (supported: .csv, .parquet, .jsonl)", filepath.Ext(path))
	}

	if err := writeFile(path, write); err != nil {
		return err
	}
	slog.Info("Wrote cleaned dataset", "path", path, "rows", len(books))
	return nil
}

// WriteEdges writes the author edge table to path (.csv or .parquet).
func WriteEdges(path string, edges []models.AuthorEdge) error {
	var write func(io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = func(w io.Writer) error { return writeEdgesCSV(w, edges) }
	case ".parquet":
		write = func(w io.Writer) error { return writeParquet(w, edges) }
	default:
		return fmt.Errorf("unsupported output format: %s (supported: .csv, .parquet)", filepath.Ext(path))
	}

	if err := writeFile(path, write); err != nil {
		return err
	}
	slog.Info("Wrote author edges", "path", path, "rows", len(edges))
	return nil
}

// writeFile writes through a temporary file in the target directory and renames
// it into place, so a failed run never leaves a partial file at path.
func writeFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

func writeBooksCSV(w io.Writer, books []models.Book) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.CleanedColumns); err != nil {
		return err
	}

	record := make([]string, len(models.CleanedColumns))
	for i := range books {
		for j, name := range models.CleanedColumns {
			record[j] = bookColumns[name].format(&books[i])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeEdgesCSV(w io.Writer, edges []models.AuthorEdge) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EdgeColumns); err != nil {
		return err
	}
	for _, e := range edges {
		record := []string{strconv.FormatInt(e.BookID, 10), strconv.Itoa(e.Order), e.AuthorName, e.AuthorsRaw}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSONL(w io.Writer, books []models.Book) error {
	encoder := json.NewEncoder(w)
	for i := range books {
		if err := encoder.Encode(&books[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeParquet[T any](w io.Writer, rows []T) error {
	pw := parquet.NewGenericWriter[T](w)
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return err
	}
	return pw.Close()
}
