package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

func ptr[T any](v T) *T { return &v }

func sampleBooks() []models.Book {
	date := time.Date(2006, time.September, 16, 0, 0, 0, 0, time.UTC)
	bucket := models.BucketStandard
	return []models.Book{
		{
			BookID:           1,
			Title:            ptr("Harry Potter and the Half-Blood Prince"),
			Authors:          ptr("J.K. Rowling/Mary GrandPr\u00e9"),
			AverageRating:    ptr(4.57),
			ISBN:             ptr("0439785960"),
			LanguageCode:     ptr("eng"),
			NumPages:         ptr(int64(652)),
			RatingsCount:     ptr(int64(2095690)),
			PublicationDate:  &date,
			PublicationYear:  ptr(int64(2006)),
			NumPagesRaw:      ptr(int64(652)),
			NumPagesCapped:   ptr(int64(652)),
			PageLengthBucket: &bucket,
			AuthorsRaw:       ptr("J.K. Rowling/Mary GrandPr\u00e9"),
			CanonicalBookID:  ptr(int64(1)),
		},
		{
			BookID:            2,
			AverageRating:     ptr(0.0),
			AverageRatingFlag: ptr(models.RatingFlagPlaceholderZero),
			CanonicalBookID:   ptr(int64(1)),
			IsDuplicate:       true,
		},
	}
}

func assertSameBook(t *testing.T, want, got models.Book) {
	t.Helper()
	if got.BookID != want.BookID {
		t.Errorf("Expected book_id %d, got %d", want.BookID, got.BookID)
	}
	for _, name := range models.CleanedColumns {
		w := bookColumns[name].format(&want)
		g := bookColumns[name].format(&got)
		if w != g {
			t.Errorf("book %d column %s: expected %q, got %q", want.BookID, name, w, g)
		}
	}
}

func TestNewLoader(t *testing.T) {
	path := "./books_clean.parquet"
	loader := NewLoader(path)

	if loader.datasetPath != path {
		t.Errorf("Expected path %s, got %s", path, loader.datasetPath)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, ext := range []string{".csv", ".parquet", ".jsonl"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "books_clean"+ext)
			books := sampleBooks()
			if err := WriteBooks(path, books); err != nil {
				t.Fatalf("Failed to write dataset: %v", err)
			}

			ds, err := NewLoader(path).Load()
			if err != nil {
				t.Fatalf("Failed to load dataset: %v", err)
			}
			if len(ds.Books) != len(books) {
				t.Fatalf("Expected %d books, got %d", len(books), len(ds.Books))
			}
			if len(ds.Columns) != len(models.CleanedColumns) {
				t.Errorf("Expected %d columns, got %d", len(models.CleanedColumns), len(ds.Columns))
			}
			for i := range books {
				assertSameBook(t, books[i], ds.Books[i])
			}
		})
	}
}

func TestLoadSampleLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.parquet")
	if err := WriteBooks(path, sampleBooks()); err != nil {
		t.Fatalf("Failed to write dataset: %v", err)
	}

	ds, err := NewLoader(path).LoadSample(1)
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	if len(ds.Books) != 1 {
		t.Errorf("Expected 1 book, got %d", len(ds.Books))
	}
}

func TestLoadSampleJSONLStopsAtLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.jsonl")
	if err := WriteBooks(path, sampleBooks()[:1]); err != nil {
		t.Fatalf("Failed to write dataset: %v", err)
	}

	// a second line longer than the scanner buffer fails only if it is read
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("Failed to reopen dataset: %v", err)
	}
	if _, err := f.Write(make([]byte, 2*1024*1024)); err != nil {
		t.Fatalf("Failed to append line: %v", err)
	}
	f.Close()

	ds, err := NewLoader(path).LoadSample(1)
	if err != nil {
		t.Fatalf("Expected the limit to stop reading, got %v", err)
	}
	if len(ds.Books) != 1 {
		t.Errorf("Expected 1 book, got %d", len(ds.Books))
	}

	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Expected the oversized line to fail a full load")
	}
}

func TestLoadPartialCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.csv")
	content := "book_id,authors,average_rating,extra\n10,Alice,4.5,ignored\n11,,,\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ds, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}

	expectedColumns := []string{"book_id", "authors", "average_rating"}
	if len(ds.Columns) != len(expectedColumns) {
		t.Fatalf("Expected columns %v, got %v", expectedColumns, ds.Columns)
	}
	for i, c := range expectedColumns {
		if ds.Columns[i] != c {
			t.Errorf("Expected column %d to be %s, got %s", i, c, ds.Columns[i])
		}
	}
	if ds.Has("num_pages") {
		t.Error("Expected num_pages to be absent")
	}
	if ds.Books[0].AverageRating == nil || *ds.Books[0].AverageRating != 4.5 {
		t.Errorf("Expected rating 4.5, got %v", ds.Books[0].AverageRating)
	}
	if ds.Books[1].Authors != nil || ds.Books[1].AverageRating != nil {
		t.Error("Expected empty cells to load as missing")
	}
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "no book_id column", content: "title\nfoo\n"},
		{name: "bad integer", content: "book_id,num_pages\n1,many\n"},
		{name: "blank book_id", content: "book_id,title\n,foo\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.csv")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := NewLoader(path).Load(); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input   string
		want    *int64
		wantErr bool
	}{
		{input: "", want: nil},
		{input: "12", want: ptr(int64(12))},
		{input: "12.0", want: ptr(int64(12))},
		{input: "12.5", wantErr: true},
		{input: "x", wantErr: true},
		{input: "1e30", wantErr: true},
		{input: "99999999999999999999.0", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseInt(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseInt(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if tt.want == nil && got != nil {
			t.Errorf("parseInt(%q) expected nil, got %d", tt.input, *got)
		}
		if tt.want != nil && (got == nil || *got != *tt.want) {
			t.Errorf("parseInt(%q) expected %d, got %v", tt.input, *tt.want, got)
		}
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := NewLoader("books.xlsx").Load(); err == nil {
		t.Error("Expected error for unsupported load format")
	}
	if err := WriteBooks(filepath.Join(t.TempDir(), "books.xlsx"), nil); err == nil {
		t.Error("Expected error for unsupported write format")
	}
}

func TestEdgesRoundTrip(t *testing.T) {
	edges := []models.AuthorEdge{
		{BookID: 1, Order: 1, AuthorName: "J.K. Rowling", AuthorsRaw: "J.K. Rowling/Mary GrandPr\u00e9"},
		{BookID: 1, Order: 2, AuthorName: "Mary GrandPr\u00e9", AuthorsRaw: "J.K. Rowling/Mary GrandPr\u00e9"},
		{BookID: 7, Order: 1, AuthorName: "Smith, John", AuthorsRaw: "Smith, John"},
	}

	for _, ext := range []string{".csv", ".parquet"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "book_authors"+ext)
			if err := WriteEdges(path, edges); err != nil {
				t.Fatalf("Failed to write edges: %v", err)
			}
			got, err := LoadEdges(path)
			if err != nil {
				t.Fatalf("Failed to load edges: %v", err)
			}
			if len(got) != len(edges) {
				t.Fatalf("Expected %d edges, got %d", len(edges), len(got))
			}
			for i := range edges {
				if got[i] != edges[i] {
					t.Errorf("Edge %d: expected %+v, got %+v", i, edges[i], got[i])
				}
			}
		})
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := WriteBooks(filepath.Join(dir, "out.csv"), sampleBooks()); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.csv" {
		t.Errorf("Expected only out.csv in output dir, got %d entries", len(entries))
	}
}
