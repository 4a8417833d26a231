package cleaning

import (
	"log/slog"
	"strconv"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// MissingLabel stands in for a missing value in value counts.
const MissingLabel = "<missing>"

// Range is the observed min/max of an integer column. Both are nil when the
// column has no values.
type Range struct {
	Min *int64 `json:"min" yaml:"min"`
	Max *int64 `json:"max" yaml:"max"`
}

// QuickStats summarizes a cleaned dataset for logs and the run manifest.
type QuickStats struct {
	RawRows     int                       `json:"raw_rows" yaml:"raw_rows"`
	CleanedRows int                       `json:"cleaned_rows" yaml:"cleaned_rows"`
	ValueCounts map[string]map[string]int `json:"value_counts" yaml:"value_counts"`
	Ranges      map[string]Range          `json:"ranges" yaml:"ranges"`
}

// Summarize computes value counts for the flag and bucket columns and the
// range of the engagement counts.
func Summarize(rawRows int, books []models.Book) QuickStats {
	stats := QuickStats{
		RawRows:     rawRows,
		CleanedRows: len(books),
		ValueCounts: map[string]map[string]int{
			"publication_year_flag": {},
			"average_rating_flag":   {},
			"page_length_bucket":    {},
			"media_type_hint":       {},
			"is_duplicate":          {},
		},
		Ranges: map[string]Range{},
	}

	var ratings, reviews Range
	for _, b := range books {
		stats.ValueCounts["publication_year_flag"][label(b.PublicationYearFlag)]++
		stats.ValueCounts["average_rating_flag"][label(b.AverageRatingFlag)]++
		stats.ValueCounts["media_type_hint"][label(b.MediaTypeHint)]++
		stats.ValueCounts["is_duplicate"][strconv.FormatBool(b.IsDuplicate)]++
		if b.PageLengthBucket != nil {
			stats.ValueCounts["page_length_bucket"][string(*b.PageLengthBucket)]++
		} else {
			stats.ValueCounts["page_length_bucket"][MissingLabel]++
		}

		ratings.observe(b.RatingsCount)
		reviews.observe(b.TextReviewsCount)
	}
	stats.Ranges["ratings_count"] = ratings
	stats.Ranges["text_reviews_count"] = reviews

	return stats
}

// Log writes the summary at info level.
func (s QuickStats) Log() {
	slog.Info("Cleaned dataset", "raw_rows", s.RawRows, "cleaned_rows", s.CleanedRows)
	for _, column := range []string{"publication_year_flag", "average_rating_flag", "page_length_bucket", "media_type_hint", "is_duplicate"} {
		slog.Info("Value counts", "column", column, "counts", s.ValueCounts[column])
	}
	for _, column := range []string{"ratings_count", "text_reviews_count"} {
		r := s.Ranges[column]
		slog.Info("Column range", "column", column, "min", deref(r.Min), "max", deref(r.Max))
	}
}

func (r *Range) observe(v *int64) {
	if v == nil {
		return
	}
	if r.Min == nil || *v < *r.Min {
		r.Min = ptr(*v)
	}
	if r.Max == nil || *v > *r.Max {
		r.Max = ptr(*v)
	}
}

func label(v *string) string {
	if v == nil {
		return MissingLabel
	}
	return *v
}

func deref(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
