package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// LoadEdges reads an author edge table written by WriteEdges.
func LoadEdges(path string) ([]models.AuthorEdge, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadEdgesCSV(path)
	case ".parquet":
		edges, err := parquet.ReadFile[models.AuthorEdge](path)
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet edges: %w", err)
		}
		return edges, nil
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .csv, .parquet)", filepath.Ext(path))
	}
}

func loadEdgesCSV(path string) ([]models.AuthorEdge, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open edge file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if !slices.Equal(header, EdgeColumns) {
		return nil, fmt.Errorf("unexpected edge header %q", header)
	}

	var edges []models.AuthorEdge
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading edges: %w", err)
		}
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid book_id %q: %w", rec[0], err)
		}
		order, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("invalid author_order %q: %w", rec[1], err)
		}
		edges = append(edges, models.AuthorEdge{BookID: id, Order: order, AuthorName: rec[2], AuthorsRaw: rec[3]})
	}
	return edges, nil
}
