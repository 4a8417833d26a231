package metrics

import (
	"cmp"
	"slices"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// TopBooksByRatingsCount is the canonical leaderboard by capped ratings count,
// with ties broken by the uncapped count.
func TopBooksByRatingsCount(ds *models.Dataset, topN int) (*Table, error) {
	t := NewTable("M3", "top_books_by_ratings_count",
		"canonical_book_id", "title", "average_rating", "ratings_count", "ratings_count_capped", "language_code")
	return topBooks(ds, t, topN, func(b CanonicalBook) (*int64, *int64) {
		return b.RatingsCountCapped, b.RatingsCount
	})
}

// TopBooksByTextReviews is the canonical leaderboard by capped text reviews,
// with ties broken by the uncapped count.
func TopBooksByTextReviews(ds *models.Dataset, topN int) (*Table, error) {
	t := NewTable("M4", "top_books_by_text_reviews",
		"canonical_book_id", "title", "average_rating", "text_reviews_count", "text_reviews_count_capped", "language_code")
	return topBooks(ds, t, topN, func(b CanonicalBook) (*int64, *int64) {
		return b.TextReviewsCountCapped, b.TextReviewsCount
	})
}

func topBooks(ds *models.Dataset, t *Table, topN int, key func(CanonicalBook) (capped, raw *int64)) (*Table, error) {
	rollup, err := Rollup(ds)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(rollup, func(a, b CanonicalBook) int {
		aCapped, aRaw := key(a)
		bCapped, bRaw := key(b)
		return cmp.Or(
			compareDesc(aCapped, bCapped),
			compareDesc(aRaw, bRaw),
			cmp.Compare(a.CanonicalBookID, b.CanonicalBookID),
		)
	})

	for _, b := range rollup[:min(topN, len(rollup))] {
		capped, raw := key(b)
		t.add(b.CanonicalBookID, cell(b.Title), cell(b.AverageRating), cell(raw), cell(capped), cell(b.LanguageCode))
	}
	return t, nil
}
