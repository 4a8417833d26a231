package metrics

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestCalculateAverage(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected *float64
	}{
		{
			name:     "normal values",
			values:   []float64{0.8, 0.9, 1.0},
			expected: ptr(0.9),
		},
		{
			name:     "empty values",
			values:   []float64{},
			expected: nil,
		},
		{
			name:     "single value",
			values:   []float64{0.75},
			expected: ptr(0.75),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calculateAverage(tt.values)
			if (result == nil) != (tt.expected == nil) {
				t.Fatalf("calculateAverage(%v) = %v, want %v", tt.values, result, tt.expected)
			}
			if result != nil && math.Abs(*result-*tt.expected) > 1e-9 {
				t.Errorf("calculateAverage(%v) = %.4f, want %.4f", tt.values, *result, *tt.expected)
			}
		})
	}
}

func TestCalculateQuantile(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		q        float64
		expected float64
	}{
		{"median odd", []float64{3, 1, 2}, 0.5, 2},
		{"median even", []float64{4, 1, 3, 2}, 0.5, 2.5},
		{"p75 interpolated", []float64{7_000, 10_000, 20_000}, 0.75, 15_000},
		{"p75 of four", []float64{1, 2, 3, 4}, 0.75, 3.25},
		{"single", []float64{42}, 0.75, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calculateQuantile(tt.values, tt.q)
			if result == nil || math.Abs(*result-tt.expected) > 1e-9 {
				t.Errorf("calculateQuantile(%v, %v) = %v, want %v", tt.values, tt.q, result, tt.expected)
			}
		})
	}

	if calculateMedian(nil) != nil {
		t.Error("Expected median of no values to be nil")
	}
}

func TestCalculateZScores(t *testing.T) {
	scores := calculateZScores([]float64{5, 5, 5})
	if !reflect.DeepEqual(scores, []float64{0, 0, 0}) {
		t.Errorf("Expected zero-variance input to score 0, got %v", scores)
	}

	scores = calculateZScores([]float64{1, 3})
	if math.Abs(scores[0]+1) > 1e-9 || math.Abs(scores[1]-1) > 1e-9 {
		t.Errorf("Expected [-1 1], got %v", scores)
	}
}

func TestRollingMean(t *testing.T) {
	values := []*float64{ptr(1.0), ptr(2.0), nil, ptr(6.0), nil}
	got := rollingMean(values, 3, 1)

	expected := []*float64{ptr(1.0), ptr(1.5), ptr(1.5), ptr(4.0), ptr(6.0)}
	for i := range expected {
		if got[i] == nil || math.Abs(*got[i]-*expected[i]) > 1e-9 {
			t.Errorf("Position %d: expected %v, got %v", i, *expected[i], got[i])
		}
	}

	if got := rollingMean([]*float64{nil}, 3, 1); got[0] != nil {
		t.Errorf("Expected an all-missing window to be nil, got %v", *got[0])
	}
}

func TestTableCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	table := NewTable("M7", "average_rating_by_publication_year", "publication_year", "average_rating", "book_count")
	table.add(int64(1999), 3.75, int64(4))
	table.add(int64(2000), nil, int64(1))

	path, err := table.WriteCSV(dir)
	if err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if filepath.Base(path) != "M7_average_rating_by_publication_year.csv" {
		t.Errorf("Unexpected file name %s", filepath.Base(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	expected := "publication_year,average_rating,book_count\n1999,3.75,4\n2000,,1\n"
	if string(content) != expected {
		t.Errorf("Expected %q, got %q", expected, string(content))
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Errorf("Temporary file %s left behind", e.Name())
		}
	}

	loaded, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if loaded.ID != "M7" || loaded.Name != "average_rating_by_publication_year" {
		t.Errorf("Expected id/name from file name, got %s/%s", loaded.ID, loaded.Name)
	}
	if !reflect.DeepEqual(loaded.Rows, table.Rows) {
		t.Errorf("Expected rows %v, got %v", table.Rows, loaded.Rows)
	}
}
