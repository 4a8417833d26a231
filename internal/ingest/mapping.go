package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// Mapping table columns, matched after trimming and lower-casing the header.
const (
	DuplicateIDColumn = "duplicate_bookid"
	CanonicalIDColumn = "canonical_bookid"
)

// ReadDuplicateMapping parses a duplicate->canonical table. Extra columns are
// ignored. Values that are blank or not numeric become nil; dropping those
// pairs is left to the resolver.
func ReadDuplicateMapping(r io.Reader) ([]models.DuplicatePair, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := readHeader(reader)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, col := range []string{DuplicateIDColumn, CanonicalIDColumn} {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("duplicate mapping missing required columns: %v", missing)
	}

	var pairs []models.DuplicatePair
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read duplicate mapping: %w", err)
		}
		if len(row) == 0 {
			continue
		}

		pairs = append(pairs, models.DuplicatePair{
			DuplicateID: parseLooseID(valueAt(header, row, DuplicateIDColumn)),
			CanonicalID: parseLooseID(valueAt(header, row, CanonicalIDColumn)),
		})
	}

	return pairs, nil
}

// ReadDuplicateMappingFile opens path and calls ReadDuplicateMapping.
func ReadDuplicateMappingFile(path string) ([]models.DuplicatePair, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duplicate mapping: %w", err)
	}
	defer file.Close()

	return ReadDuplicateMapping(file)
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseLooseID accepts "12" and "12.0"; anything else is treated as missing.
func parseLooseID(raw string) *int64 {
	if raw == "" {
		return nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil
	}
	n := int64(f)
	return &n
}
