package cleaning

import (
	"errors"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/bookclean/internal/config"
	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// Rating bounds applied when casting average_rating.
const (
	MinRating = 0.0
	MaxRating = 5.0
)

// columnRenames maps raw header spellings onto cleaned column names.
var columnRenames = map[string]string{
	"bookID":             "book_id",
	"title":              "title",
	"authors":            "authors",
	"average_rating":     "average_rating",
	"isbn":               "isbn",
	"isbn13":             "isbn13",
	"language_code":      "language_code",
	"  num_pages":        "num_pages",
	"ratings_count":      "ratings_count",
	"text_reviews_count": "text_reviews_count",
	"publication_date":   "publication_date",
	"publisher":          "publisher",
}

// numericColumns are coerced in this order; errors are reported in the same order.
var numericColumns = []string{"book_id", "average_rating", "num_pages", "ratings_count", "text_reviews_count"}

var (
	missingTokens = map[string]struct{}{
		"": {}, "nan": {}, "none": {}, "null": {}, "<na>": {}, "nat": {}, "n/a": {},
	}
	// Matches identifiers that went through a float conversion, e.g. "439785960.0".
	floatIdentifierRe = regexp.MustCompile(`^(\d+)\.0+$`)
)

// fieldIndex resolves cleaned column names to positions in a raw record.
func fieldIndex() map[string]int {
	idx := make(map[string]int, len(models.SourceColumns))
	for i, name := range models.SourceColumns {
		idx[columnRenames[name]] = i
	}
	return idx
}

// Normalize turns repaired raw records into typed books: columns are renamed,
// identifiers and text trimmed, numbers coerced, ratings clipped into
// [MinRating, MaxRating] and dates parsed with the profile's layouts.
// Any value in a numeric column that is present but not a number fails the
// whole batch; the returned error joins one CoercionError per failing column.
func Normalize(records []models.RawRecord, profile config.Profile) ([]models.Book, error) {
	idx := fieldIndex()
	failures := make(map[string]*CoercionError, len(numericColumns))
	for _, col := range numericColumns {
		failures[col] = &CoercionError{Column: col}
	}

	books := make([]models.Book, 0, len(records))
	clipped := 0
	for _, rec := range records {
		get := func(col string) string { return rec.Fields[idx[col]] }
		var b models.Book

		if id, ok := coerceInt(get("book_id")); !ok || id == nil {
			failures["book_id"].add(get("book_id"))
		} else {
			b.BookID = *id
		}

		rating, ok := coerceFloat(get("average_rating"))
		if !ok {
			failures["average_rating"].add(get("average_rating"))
		} else if rating != nil {
			if v := math.Min(math.Max(*rating, MinRating), MaxRating); v != *rating {
				clipped++
				rating = &v
			}
			b.AverageRating = rating
		}

		for col, dst := range map[string]**int64{
			"num_pages":          &b.NumPages,
			"ratings_count":      &b.RatingsCount,
			"text_reviews_count": &b.TextReviewsCount,
		} {
			v, ok := coerceInt(get(col))
			if !ok {
				failures[col].add(get(col))
				continue
			}
			*dst = v
		}

		b.Title = normalizeText(get("title"))
		b.AuthorsRaw = rawText(get("authors"))
		b.Authors = normalizeText(get("authors"))
		b.ISBN = normalizeIdentifier(get("isbn"))
		b.ISBN13 = normalizeIdentifier(get("isbn13"))
		b.LanguageCode = normalizeText(get("language_code"))
		b.Publisher = normalizeText(get("publisher"))
		b.PublicationDate = ParseDate(get("publication_date"), profile.DateFormats)

		books = append(books, b)
	}

	var errs []error
	for _, col := range numericColumns {
		if f := failures[col]; f.Count > 0 {
			errs = append(errs, f)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if clipped > 0 {
		slog.Debug("Clipped average_rating into range", "rows", clipped, "min", MinRating, "max", MaxRating)
	}
	return books, nil
}

func isMissingToken(value string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// coerceInt parses an integer column. Missing tokens yield (nil, true);
// "12.0" is accepted, "12.5" and non-numbers are not.
func coerceInt(raw string) (*int64, bool) {
	value := strings.TrimSpace(raw)
	if isMissingToken(value) {
		return nil, true
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return &n, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) || !fitsInt64(f) {
		return nil, false
	}
	n := int64(f)
	return &n, true
}

// fitsInt64 reports whether f converts to int64 without wrapping.
func fitsInt64(f float64) bool {
	return f >= math.MinInt64 && f < math.MaxInt64
}

func coerceFloat(raw string) (*float64, bool) {
	value := strings.TrimSpace(raw)
	if isMissingToken(value) {
		return nil, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) {
		return nil, false
	}
	return &f, true
}

func normalizeText(raw string) *string {
	value := strings.TrimSpace(raw)
	if isMissingToken(value) {
		return nil
	}
	return &value
}

func rawText(raw string) *string {
	if isMissingToken(raw) {
		return nil
	}
	return &raw
}

// normalizeIdentifier keeps ISBN-like values as trimmed strings and undoes
// float formatting ("123.0" -> "123").
func normalizeIdentifier(raw string) *string {
	value := normalizeText(raw)
	if value == nil {
		return nil
	}
	if m := floatIdentifierRe.FindStringSubmatch(*value); m != nil {
		restored := m[1]
		return &restored
	}
	return value
}
