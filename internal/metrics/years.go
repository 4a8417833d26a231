package metrics

import (
	"cmp"
	"slices"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

type yearGroup struct {
	year    int64
	ratings []*float64
	counts  []*int64
}

// groupByYear groups rollup rows with a publication year, oldest first.
// A non-nil minYear drops earlier years.
func groupByYear(rollup []CanonicalBook, minYear *int64) []*yearGroup {
	groups := make(map[int64]*yearGroup)
	for _, b := range rollup {
		if b.PublicationYear == nil {
			continue
		}
		year := *b.PublicationYear
		if minYear != nil && year < *minYear {
			continue
		}
		g := groups[year]
		if g == nil {
			g = &yearGroup{year: year}
			groups[year] = g
		}
		g.ratings = append(g.ratings, b.AverageRating)
		g.counts = append(g.counts, b.RatingsCountCapped)
	}

	out := make([]*yearGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b *yearGroup) int { return cmp.Compare(a.year, b.year) })
	return out
}

// AverageRatingByPublicationYear reports the mean canonical rating per year.
func AverageRatingByPublicationYear(ds *models.Dataset, minYear *int64) (*Table, error) {
	t := NewTable("M7", "average_rating_by_publication_year", "publication_year", "average_rating", "book_count")
	if err := requireColumns(ds, t.Name, "publication_year", "average_rating", "canonical_book_id"); err != nil {
		return nil, err
	}
	rollup, err := Rollup(ds)
	if err != nil {
		return nil, err
	}

	for _, g := range groupByYear(rollup, minYear) {
		t.add(g.year, cell(calculateAverage(presentFloats(g.ratings))), int64(len(g.ratings)))
	}
	return t, nil
}

// MedianRatingsCountByPublicationYear reports the median capped ratings count
// per year.
func MedianRatingsCountByPublicationYear(ds *models.Dataset, minYear *int64) (*Table, error) {
	t := NewTable("M8", "median_ratings_count_by_publication_year", "publication_year", "median_ratings_count_capped", "book_count")
	if err := requireColumns(ds, t.Name, "publication_year", "ratings_count_capped", "canonical_book_id"); err != nil {
		return nil, err
	}
	rollup, err := Rollup(ds)
	if err != nil {
		return nil, err
	}

	for _, g := range groupByYear(rollup, minYear) {
		t.add(g.year, cell(calculateMedian(floats(g.counts))), int64(len(g.counts)))
	}
	return t, nil
}

// PublicationYearRollingStats adds a trailing mean of the yearly average rating
// over window consecutive years present in the data (minimum one value).
func PublicationYearRollingStats(ds *models.Dataset, window int) (*Table, error) {
	t := NewTable("M14", "publication_year_rolling_stats", "publication_year", "average_rating", "book_count", "rolling_average_rating")
	if err := requireColumns(ds, t.Name, "publication_year", "average_rating", "canonical_book_id"); err != nil {
		return nil, err
	}
	rollup, err := Rollup(ds)
	if err != nil {
		return nil, err
	}

	groups := groupByYear(rollup, nil)
	averages := make([]*float64, len(groups))
	for i, g := range groups {
		averages[i] = calculateAverage(presentFloats(g.ratings))
	}
	rolling := rollingMean(averages, max(window, 1), 1)

	for i, g := range groups {
		t.add(g.year, cell(averages[i]), int64(len(g.ratings)), cell(rolling[i]))
	}
	return t, nil
}
