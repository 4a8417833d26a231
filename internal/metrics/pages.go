package metrics

import (
	"cmp"
	"slices"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

type bucketGroup struct {
	bucket  *string
	ratings []*float64
	counts  []*int64
	reviews []*int64
}

// groupByBucket groups the rollup by page_length_bucket. Books without a bucket
// form their own group, ordered last.
func groupByBucket(rollup []CanonicalBook) []*bucketGroup {
	groups := make(map[string]*bucketGroup)
	var missing *bucketGroup
	for _, b := range rollup {
		var g *bucketGroup
		if b.PageLengthBucket == nil {
			if missing == nil {
				missing = &bucketGroup{}
			}
			g = missing
		} else {
			g = groups[*b.PageLengthBucket]
			if g == nil {
				g = &bucketGroup{bucket: b.PageLengthBucket}
				groups[*b.PageLengthBucket] = g
			}
		}
		g.ratings = append(g.ratings, b.AverageRating)
		g.counts = append(g.counts, b.RatingsCountCapped)
		g.reviews = append(g.reviews, b.TextReviewsCountCapped)
	}

	out := make([]*bucketGroup, 0, len(groups)+1)
	for _, g := range groups {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b *bucketGroup) int { return cmp.Compare(*a.bucket, *b.bucket) })
	if missing != nil {
		out = append(out, missing)
	}
	return out
}

// MedianRatingByPageBucket reports the median canonical rating per bucket,
// highest first.
func MedianRatingByPageBucket(ds *models.Dataset) (*Table, error) {
	t := NewTable("M5", "median_rating_by_page_bucket", "page_length_bucket", "median_rating", "book_count")
	if err := requireColumns(ds, t.Name, "page_length_bucket", "average_rating", "canonical_book_id"); err != nil {
		return nil, err
	}
	rollup, err := Rollup(ds)
	if err != nil {
		return nil, err
	}

	type row struct {
		bucket *string
		median *float64
		count  int64
	}
	var rows []row
	for _, g := range groupByBucket(rollup) {
		rows = append(rows, row{g.bucket, calculateMedian(presentFloats(g.ratings)), int64(len(g.ratings))})
	}
	slices.SortStableFunc(rows, func(a, b row) int {
		return cmp.Or(compareDesc(a.median, b.median), compareAsc(a.bucket, b.bucket))
	})

	for _, r := range rows {
		t.add(cell(r.bucket), cell(r.median), r.count)
	}
	return t, nil
}

// PageLengthEngagementDelta compares median capped ratings with median capped
// text reviews per bucket. Buckets are listed alphabetically.
func PageLengthEngagementDelta(ds *models.Dataset) (*Table, error) {
	t := NewTable("M6", "page_length_engagement_delta",
		"page_length_bucket", "median_ratings_count_capped", "median_text_reviews_capped", "book_count", "engagement_delta")
	if err := requireColumns(ds, t.Name, "page_length_bucket", "ratings_count_capped", "text_reviews_count_capped", "canonical_book_id"); err != nil {
		return nil, err
	}
	rollup, err := Rollup(ds)
	if err != nil {
		return nil, err
	}

	for _, g := range groupByBucket(rollup) {
		ratings := calculateMedian(floats(g.counts))
		reviews := calculateMedian(floats(g.reviews))
		var delta *float64
		if ratings != nil && reviews != nil {
			delta = ptr(*ratings - *reviews)
		}
		t.add(cell(g.bucket), cell(ratings), cell(reviews), int64(len(g.counts)), cell(delta))
	}
	return t, nil
}
