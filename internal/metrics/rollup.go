package metrics

import (
	"cmp"
	"slices"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// representativeColumns are taken from one record per canonical group.
var representativeColumns = []string{
	"title",
	"authors_clean",
	"language_code",
	"page_length_bucket",
	"media_type_hint",
	"publication_year",
	"average_rating",
	"num_pages",
	"num_pages_capped",
}

// engagementColumns are aggregated with max across the whole group.
var engagementColumns = []string{
	"ratings_count",
	"ratings_count_capped",
	"text_reviews_count",
	"text_reviews_count_capped",
}

// RollupColumns are the columns Rollup needs.
var RollupColumns = slices.Concat([]string{"canonical_book_id", "book_id", "is_duplicate"}, representativeColumns, engagementColumns)

// CanonicalBook is one row of the canonical rollup.
type CanonicalBook struct {
	CanonicalBookID int64

	Title            *string
	AuthorsClean     *string
	LanguageCode     *string
	PageLengthBucket *string
	MediaTypeHint    *string
	PublicationYear  *int64
	AverageRating    *float64
	NumPages         *int64
	NumPagesCapped   *int64

	RatingsCount           *int64
	RatingsCountCapped     *int64
	TextReviewsCount       *int64
	TextReviewsCountCapped *int64
}

// Rollup collapses the dataset to one row per canonical_book_id, ordered by id.
// Descriptive fields come from the group's representative record: the first
// non-duplicate by book_id, else the lowest book_id. Engagement counts take
// the maximum over the whole group.
func Rollup(ds *models.Dataset) ([]CanonicalBook, error) {
	if err := requireColumns(ds, "canonical_rollup", RollupColumns...); err != nil {
		return nil, err
	}

	ordered := slices.Clone(ds.Books)
	slices.SortStableFunc(ordered, func(a, b models.Book) int {
		if a.IsDuplicate != b.IsDuplicate {
			if !a.IsDuplicate {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.BookID, b.BookID)
	})

	groups := make(map[int64]*CanonicalBook)
	for _, b := range ordered {
		id := canonicalID(b)
		row, seen := groups[id]
		if !seen {
			row = &CanonicalBook{
				CanonicalBookID:  id,
				Title:            b.Title,
				AuthorsClean:     b.AuthorsClean,
				LanguageCode:     b.LanguageCode,
				PageLengthBucket: bucketString(b.PageLengthBucket),
				MediaTypeHint:    b.MediaTypeHint,
				PublicationYear:  b.PublicationYear,
				AverageRating:    b.AverageRating,
				NumPages:         b.NumPages,
				NumPagesCapped:   b.NumPagesCapped,
			}
			groups[id] = row
		}
		row.RatingsCount = maxOf(row.RatingsCount, b.RatingsCount)
		row.RatingsCountCapped = maxOf(row.RatingsCountCapped, b.RatingsCountCapped)
		row.TextReviewsCount = maxOf(row.TextReviewsCount, b.TextReviewsCount)
		row.TextReviewsCountCapped = maxOf(row.TextReviewsCountCapped, b.TextReviewsCountCapped)
	}

	out := make([]CanonicalBook, 0, len(groups))
	for _, row := range groups {
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b CanonicalBook) int {
		return cmp.Compare(a.CanonicalBookID, b.CanonicalBookID)
	})
	return out, nil
}

// canonicalID falls back to the record's own id when resolution never ran.
func canonicalID(b models.Book) int64 {
	if b.CanonicalBookID != nil {
		return *b.CanonicalBookID
	}
	return b.BookID
}

func bucketString(b *models.PageBucket) *string {
	if b == nil {
		return nil
	}
	s := string(*b)
	return &s
}

func cell[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
