package pipelinecmd

import (
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/bookclean/internal/cleaning"
	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// criticalColumns have their null counts reported by the quality check.
var criticalColumns = []string{"average_rating", "num_pages", "ratings_count"}

// qualityReport is the outcome of the data quality check.
type qualityReport struct {
	Rows          int
	NullCounts    map[string]int
	Errors        []string
	RatingInvalid int
	PagesInvalid  int
}

// Passed reports whether every critical check passed.
func (r qualityReport) Passed() bool {
	return len(r.Errors) == 0
}

// checkDataQuality checks that the dataset is non-empty, counts nulls in the
// critical columns, and flags non-missing ratings outside [0, 5] and
// non-positive page counts.
func checkDataQuality(ds *models.Dataset) qualityReport {
	report := qualityReport{Rows: len(ds.Books), NullCounts: make(map[string]int)}
	if report.Rows == 0 {
		report.Errors = append(report.Errors, "cleaned dataset is empty")
	}

	for _, col := range criticalColumns {
		if !ds.Has(col) {
			report.Errors = append(report.Errors, fmt.Sprintf("missing expected column: %s", col))
			continue
		}
		nulls := 0
		for _, b := range ds.Books {
			var missing bool
			switch col {
			case "average_rating":
				missing = b.AverageRating == nil
			case "num_pages":
				missing = b.NumPages == nil
			case "ratings_count":
				missing = b.RatingsCount == nil
			}
			if missing {
				nulls++
			}
		}
		report.NullCounts[col] = nulls
	}

	if ds.Has("average_rating") {
		for _, b := range ds.Books {
			if r := b.AverageRating; r != nil && (*r < cleaning.MinRating || *r > cleaning.MaxRating) {
				report.RatingInvalid++
			}
		}
		if report.RatingInvalid > 0 {
			report.Errors = append(report.Errors, fmt.Sprintf("%d rows with average_rating outside [0, 5]", report.RatingInvalid))
		}
	}

	if ds.Has("num_pages") {
		for _, b := range ds.Books {
			if p := b.NumPages; p != nil && *p <= 0 {
				report.PagesInvalid++
			}
		}
		if report.PagesInvalid > 0 {
			report.Errors = append(report.Errors, fmt.Sprintf("%d rows with non-positive num_pages", report.PagesInvalid))
		}
	}

	return report
}

func executeCheck(w io.Writer, datasetPath string) error {
	ds, err := loadDataset(datasetPath)
	if err != nil {
		return err
	}

	report := checkDataQuality(ds)
	fmt.Fprintf(w, "[dq] Loaded cleaned dataset with %d rows from %s\n", report.Rows, datasetPath)
	for _, col := range criticalColumns {
		if n, ok := report.NullCounts[col]; ok {
			fmt.Fprintf(w, "[dq] Column %s: %d nulls\n", col, n)
		}
	}
	for _, msg := range report.Errors {
		fmt.Fprintf(w, "[dq] ERROR: %s\n", msg)
	}

	if !report.Passed() {
		fmt.Fprintln(w, "[dq] Data quality checks FAILED.")
		return fmt.Errorf("data quality checks failed: %d errors", len(report.Errors))
	}
	fmt.Fprintln(w, "[dq] Data quality checks PASSED.")
	return nil
}
