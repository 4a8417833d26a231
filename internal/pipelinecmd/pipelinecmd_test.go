package pipelinecmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/bookclean/internal/dataset"
	"github.com/lehigh-university-libraries/bookclean/internal/models"
	"github.com/lehigh-university-libraries/bookclean/internal/results"
)

const rawBooks = `bookID,title,authors,average_rating,isbn,isbn13,language_code,  num_pages,ratings_count,text_reviews_count,publication_date,publisher
1,Harry Potter and the Half-Blood Prince,J.K. Rowling/Mary GrandPre,4.57,0439785960,9780439785969,eng,652,2095690,27591,9/16/2006,Scholastic Inc.
2,Harry Potter Boxed Set,J.K. Rowling,4.49,0439358078,9780439358071,eng,870,2153167,29221,9/1/2004,Scholastic
3,Split Row,Smith, John,3.5,0000000123,9780000000456,eng,200,100,5,1/1/2000,Small Press
4,Audio Edition,Someone,0,0000000111,9780000000222,eng,0,10,1,5/5/2005,Audio Pub
`

const rawMapping = "duplicate_bookid,canonical_bookid\n2,1\n"

func writeFixtures(t *testing.T) (dir, booksCSV, mappingCSV string) {
	t.Helper()
	dir = t.TempDir()
	booksCSV = filepath.Join(dir, "books.csv")
	mappingCSV = filepath.Join(dir, "mapping.csv")
	if err := os.WriteFile(booksCSV, []byte(rawBooks), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(mappingCSV, []byte(rawMapping), 0644); err != nil {
		t.Fatal(err)
	}
	return dir, booksCSV, mappingCSV
}

func runClean(t *testing.T, opts cleanOptions) *models.Dataset {
	t.Helper()
	if err := executeClean(opts); err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	ds, err := dataset.NewLoader(opts.output).Load()
	if err != nil {
		t.Fatalf("Failed to load cleaned output: %v", err)
	}
	return ds
}

func TestExecuteClean(t *testing.T) {
	dir, booksCSV, mappingCSV := writeFixtures(t)
	output := filepath.Join(dir, "out", "books_clean.parquet")

	ds := runClean(t, cleanOptions{booksCSV: booksCSV, mappingCSV: mappingCSV, output: output})

	if len(ds.Books) != 4 {
		t.Fatalf("Expected 4 cleaned rows, got %d", len(ds.Books))
	}

	split := ds.Books[2]
	if split.Authors == nil || *split.Authors != "Smith, John" {
		t.Errorf("Expected repaired authors 'Smith, John', got %v", split.Authors)
	}
	if split.AverageRating == nil || *split.AverageRating != 3.5 {
		t.Errorf("Expected rating 3.5 after repair, got %v", split.AverageRating)
	}

	dup := ds.Books[1]
	if !dup.IsDuplicate || dup.CanonicalBookID == nil || *dup.CanonicalBookID != 1 {
		t.Errorf("Expected book 2 to resolve to canonical 1, got %v (duplicate %t)", dup.CanonicalBookID, dup.IsDuplicate)
	}

	audio := ds.Books[3]
	if audio.AverageRatingFlag == nil || *audio.AverageRatingFlag != models.RatingFlagPlaceholderZero {
		t.Errorf("Expected placeholder_zero flag, got %v", audio.AverageRatingFlag)
	}
	if audio.PageLengthBucket == nil || *audio.PageLengthBucket != models.BucketZeroOrAudio {
		t.Errorf("Expected zero_or_audio bucket, got %v", audio.PageLengthBucket)
	}

	manifest, err := results.LoadManifest(filepath.Join(dir, "out", results.ManifestName))
	if err != nil {
		t.Fatalf("Expected manifest next to output: %v", err)
	}
	if manifest.Ingest == nil || manifest.Ingest.RepairedRows != 1 {
		t.Errorf("Expected 1 repaired row in manifest, got %+v", manifest.Ingest)
	}
	if manifest.Cleaning == nil || manifest.Cleaning.CleanedRows != 4 {
		t.Errorf("Expected 4 cleaned rows in manifest, got %+v", manifest.Cleaning)
	}
}

func TestExecuteCleanLimitAndMissingMapping(t *testing.T) {
	dir, booksCSV, _ := writeFixtures(t)
	output := filepath.Join(dir, "books_clean.csv")

	ds := runClean(t, cleanOptions{
		booksCSV:   booksCSV,
		mappingCSV: filepath.Join(dir, "absent.csv"),
		output:     output,
		limit:      2,
	})

	if len(ds.Books) != 2 {
		t.Fatalf("Expected 2 rows with limit, got %d", len(ds.Books))
	}
	for _, b := range ds.Books {
		if b.IsDuplicate || b.CanonicalBookID == nil || *b.CanonicalBookID != b.BookID {
			t.Errorf("Expected book %d to be its own canonical record", b.BookID)
		}
	}
}

func TestExecuteCleanWritesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	booksCSV := filepath.Join(dir, "books.csv")
	bad := strings.Replace(rawBooks, "4.57", "high", 1)
	if err := os.WriteFile(booksCSV, []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "books_clean.csv")

	if err := executeClean(cleanOptions{booksCSV: booksCSV, output: output, skipMapping: true}); err == nil {
		t.Fatal("Expected coercion failure")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("Expected no output file, got err=%v", err)
	}
}

func TestCheckDataQuality(t *testing.T) {
	rating := func(v float64) *float64 { return &v }
	pages := func(v int64) *int64 { return &v }

	tests := []struct {
		name       string
		books      []models.Book
		wantPassed bool
	}{
		{
			name:       "clean",
			books:      []models.Book{{BookID: 1, AverageRating: rating(4), NumPages: pages(100)}, {BookID: 2}},
			wantPassed: true,
		},
		{
			name:       "empty",
			books:      nil,
			wantPassed: false,
		},
		{
			name:       "rating out of range",
			books:      []models.Book{{BookID: 1, AverageRating: rating(5.5), NumPages: pages(100)}},
			wantPassed: false,
		},
		{
			name:       "non-positive pages",
			books:      []models.Book{{BookID: 1, AverageRating: rating(4), NumPages: pages(0)}},
			wantPassed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := checkDataQuality(models.NewDataset(tt.books))
			if report.Passed() != tt.wantPassed {
				t.Errorf("Expected passed=%t, got %t (errors %v)", tt.wantPassed, report.Passed(), report.Errors)
			}
		})
	}

	report := checkDataQuality(models.NewDataset([]models.Book{{BookID: 1}, {BookID: 2, NumPages: pages(3)}}))
	if report.NullCounts["average_rating"] != 2 || report.NullCounts["num_pages"] != 1 {
		t.Errorf("Unexpected null counts %v", report.NullCounts)
	}

	partial := &models.Dataset{Books: []models.Book{{BookID: 1}}, Columns: []string{"book_id"}}
	if checkDataQuality(partial).Passed() {
		t.Error("Expected missing critical columns to fail")
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	dir, booksCSV, mappingCSV := writeFixtures(t)
	cleaned := filepath.Join(dir, "books_clean.parquet")
	runClean(t, cleanOptions{booksCSV: booksCSV, mappingCSV: mappingCSV, output: cleaned})

	var out bytes.Buffer
	if err := executeCheck(&out, cleaned); err != nil {
		t.Fatalf("check failed: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "PASSED") {
		t.Errorf("Expected PASSED in check output, got:\n%s", out.String())
	}

	edges := filepath.Join(dir, "book_authors.csv")
	if err := executeAuthors(cleaned, edges); err != nil {
		t.Fatalf("authors failed: %v", err)
	}
	loadedEdges, err := dataset.LoadEdges(edges)
	if err != nil {
		t.Fatal(err)
	}
	if len(loadedEdges) != 5 {
		t.Errorf("Expected 5 author edges, got %d", len(loadedEdges))
	}

	metricsDir := filepath.Join(dir, "metrics")
	if err := executeMetrics(context.Background(), metricsOptions{datasetPath: cleaned, outputDir: metricsDir}); err != nil {
		t.Fatalf("metrics failed: %v", err)
	}
	entries, err := os.ReadDir(metricsDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 14 {
		t.Errorf("Expected 14 metric tables, got %d", len(entries))
	}

	out.Reset()
	table := filepath.Join(metricsDir, "M11_duplicate_share.csv")
	if err := executeReport(&out, table, "csv"); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if want := "total_rows,duplicate_rows,duplicate_share_pct\n4,1,25\n"; out.String() != want {
		t.Errorf("Expected report:\n%s\ngot:\n%s", want, out.String())
	}

	database := filepath.Join(dir, "books.db")
	if err := executeLoad(context.Background(), loadOptions{datasetPath: cleaned, edgesPath: edges, mappingCSV: mappingCSV, database: database}); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	out.Reset()
	compareDir := filepath.Join(dir, "compare")
	err = executeCompare(context.Background(), &out, compareOptions{
		database:    database,
		datasetPath: cleaned,
		outputDir:   compareDir,
		tolerance:   1e-4,
	})
	if err != nil {
		t.Fatalf("compare failed: %v\n%s", err, out.String())
	}
	if _, err := os.Stat(filepath.Join(compareDir, "comparison_summary.csv")); err != nil {
		t.Errorf("Expected comparison summary: %v", err)
	}
}

func TestExecuteReportFormats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "M7_average_rating_by_publication_year.csv")
	content := "publication_year,average_rating,book_count\n1998,4.25,2\n2001,,1\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := executeReport(&out, path, "text"); err != nil {
		t.Fatalf("text report failed: %v", err)
	}
	if !strings.Contains(out.String(), "M7 average_rating_by_publication_year") || !strings.Contains(out.String(), "4.25") {
		t.Errorf("Unexpected text report:\n%s", out.String())
	}

	out.Reset()
	if err := executeReport(&out, path, "json"); err != nil {
		t.Fatalf("json report failed: %v", err)
	}
	if !strings.Contains(out.String(), `"average_rating": null`) {
		t.Errorf("Expected null for missing cell, got:\n%s", out.String())
	}

	if err := executeReport(&out, path, "xml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestExecuteInspect(t *testing.T) {
	dir, booksCSV, mappingCSV := writeFixtures(t)
	cleaned := filepath.Join(dir, "books_clean.jsonl")
	runClean(t, cleanOptions{booksCSV: booksCSV, mappingCSV: mappingCSV, output: cleaned})

	var out bytes.Buffer
	err := executeInspect(context.Background(), &out, strings.NewReader("\n\n"), cleaned, 2, true, true)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !strings.Contains(out.String(), "RECORD 2/2") {
		t.Errorf("Expected two records, got:\n%s", out.String())
	}
	if strings.Contains(out.String(), "RECORD 3/") {
		t.Error("Expected limit to stop at 2 records")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out.Reset()
	if err := executeInspect(ctx, &out, strings.NewReader(""), cleaned, 0, false, false); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !strings.Contains(out.String(), "Inspection interrupted.") {
		t.Errorf("Expected interruption message, got:\n%s", out.String())
	}
}

func TestNormalizeIDs(t *testing.T) {
	got := normalizeIDs([]string{" m1", "", "M12 "})
	if len(got) != 2 || got[0] != "M1" || got[1] != "M12" {
		t.Errorf("Expected [M1 M12], got %v", got)
	}
}
