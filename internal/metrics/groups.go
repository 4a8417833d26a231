package metrics

import (
	"cmp"
	"math"
	"slices"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// Edition types reported by EngagementUpliftCanonical.
const (
	EditionCanonical = "canonical"
	EditionDuplicate = "duplicate"
)

// rowGroup collects uncanonicalized rows under one key.
type rowGroup struct {
	ratings []*float64
	counts  []*int64
	books   map[int64]struct{}
}

func (g *rowGroup) add(b models.Book) {
	if g.books == nil {
		g.books = make(map[int64]struct{})
	}
	g.ratings = append(g.ratings, b.AverageRating)
	g.counts = append(g.counts, b.RatingsCountCapped)
	if b.CanonicalBookID != nil {
		g.books[*b.CanonicalBookID] = struct{}{}
	}
}

// LanguageRatingSummary reports rating and engagement per language, keeping
// languages with at least minTitles canonical books.
func LanguageRatingSummary(ds *models.Dataset, minTitles int) (*Table, error) {
	t := NewTable("M9", "language_rating_summary", "language_code", "book_count", "average_rating", "median_ratings_count_capped")
	if err := requireColumns(ds, t.Name, "language_code", "average_rating", "canonical_book_id", "ratings_count_capped"); err != nil {
		return nil, err
	}
	rollup, err := Rollup(ds)
	if err != nil {
		return nil, err
	}

	type row struct {
		language string
		count    int64
		avg      *float64
		median   *float64
	}
	ratings := make(map[string][]*float64)
	counts := make(map[string][]*int64)
	for _, b := range rollup {
		if b.LanguageCode == nil {
			continue
		}
		ratings[*b.LanguageCode] = append(ratings[*b.LanguageCode], b.AverageRating)
		counts[*b.LanguageCode] = append(counts[*b.LanguageCode], b.RatingsCountCapped)
	}

	var rows []row
	for language, r := range ratings {
		if len(r) < minTitles {
			continue
		}
		rows = append(rows, row{
			language: language,
			count:    int64(len(r)),
			avg:      calculateAverage(presentFloats(r)),
			median:   calculateMedian(floats(counts[language])),
		})
	}
	slices.SortFunc(rows, func(a, b row) int {
		return cmp.Or(compareDesc(a.avg, b.avg), cmp.Compare(b.count, a.count), cmp.Compare(a.language, b.language))
	})

	for _, r := range rows {
		t.add(r.language, r.count, cell(r.avg), cell(r.median))
	}
	return t, nil
}

// PublisherEngagement reports the median capped ratings count per publisher
// over all rows, keeping publishers with at least minTitles canonical books.
func PublisherEngagement(ds *models.Dataset, minTitles int) (*Table, error) {
	t := NewTable("M10", "publisher_engagement", "publisher", "median_ratings_count_capped", "book_count")
	if err := requireColumns(ds, t.Name, "publisher", "ratings_count_capped", "canonical_book_id"); err != nil {
		return nil, err
	}

	groups := make(map[string]*rowGroup)
	for _, b := range ds.Books {
		if b.Publisher == nil {
			continue
		}
		g := groups[*b.Publisher]
		if g == nil {
			g = &rowGroup{}
			groups[*b.Publisher] = g
		}
		g.add(b)
	}

	type row struct {
		publisher string
		median    *float64
		count     int64
	}
	var rows []row
	for publisher, g := range groups {
		if len(g.books) < minTitles {
			continue
		}
		rows = append(rows, row{publisher, calculateMedian(floats(g.counts)), int64(len(g.books))})
	}
	slices.SortFunc(rows, func(a, b row) int {
		return cmp.Or(compareDesc(a.median, b.median), cmp.Compare(a.publisher, b.publisher))
	})

	for _, r := range rows {
		t.add(r.publisher, cell(r.median), r.count)
	}
	return t, nil
}

// DuplicateShare reports how many raw rows are flagged duplicate. The
// denominator is every row, not the canonical count.
func DuplicateShare(ds *models.Dataset) (*Table, error) {
	t := NewTable("M11", "duplicate_share", "total_rows", "duplicate_rows", "duplicate_share_pct")
	if err := requireColumns(ds, t.Name, "is_duplicate", "canonical_book_id"); err != nil {
		return nil, err
	}

	var duplicates int64
	for _, b := range ds.Books {
		if b.IsDuplicate {
			duplicates++
		}
	}
	total := int64(len(ds.Books))
	share := 0.0
	if total > 0 {
		share = float64(duplicates) / float64(total)
	}

	t.add(total, duplicates, roundTo(share*100, 4))
	return t, nil
}

// EngagementUpliftCanonical compares median capped ratings of canonical and
// duplicate rows. uplift_vs_canonical is the relative difference from the
// canonical median.
func EngagementUpliftCanonical(ds *models.Dataset) (*Table, error) {
	t := NewTable("M12", "engagement_uplift_canonical", "edition_type", "median_ratings_count", "book_count", "uplift_vs_canonical")
	if err := requireColumns(ds, t.Name, "is_duplicate", "ratings_count_capped", "canonical_book_id"); err != nil {
		return nil, err
	}

	groups := map[string]*rowGroup{}
	for _, b := range ds.Books {
		edition := EditionCanonical
		if b.IsDuplicate {
			edition = EditionDuplicate
		}
		g := groups[edition]
		if g == nil {
			g = &rowGroup{}
			groups[edition] = g
		}
		g.add(b)
	}

	var baseline *float64
	if g := groups[EditionCanonical]; g != nil {
		baseline = calculateMedian(floats(g.counts))
	}

	for _, edition := range []string{EditionCanonical, EditionDuplicate} {
		g := groups[edition]
		if g == nil {
			continue
		}
		median := calculateMedian(floats(g.counts))
		var uplift *float64
		if median != nil && baseline != nil && *baseline != 0 {
			uplift = ptr((*median - *baseline) / *baseline)
		}
		t.add(edition, cell(median), int64(len(g.books)), cell(uplift))
	}
	return t, nil
}

// PublisherLanguageRankings ranks publisher and language pairs by mean rating,
// then by the 75th percentile of capped ratings count.
func PublisherLanguageRankings(ds *models.Dataset) (*Table, error) {
	t := NewTable("M13", "publisher_language_rankings", "publisher", "language_code", "average_rating", "p75_ratings_count", "book_count")
	if err := requireColumns(ds, t.Name, "publisher", "language_code", "average_rating", "ratings_count_capped", "canonical_book_id"); err != nil {
		return nil, err
	}

	type key struct{ publisher, language string }
	groups := make(map[key]*rowGroup)
	for _, b := range ds.Books {
		if b.Publisher == nil || b.LanguageCode == nil {
			continue
		}
		k := key{*b.Publisher, *b.LanguageCode}
		g := groups[k]
		if g == nil {
			g = &rowGroup{}
			groups[k] = g
		}
		g.add(b)
	}

	type row struct {
		key
		avg   *float64
		p75   *float64
		count int64
	}
	rows := make([]row, 0, len(groups))
	for k, g := range groups {
		rows = append(rows, row{
			key:   k,
			avg:   calculateAverage(presentFloats(g.ratings)),
			p75:   calculateQuantile(floats(g.counts), 0.75),
			count: int64(len(g.books)),
		})
	}
	slices.SortFunc(rows, func(a, b row) int {
		return cmp.Or(
			compareDesc(a.avg, b.avg),
			compareDesc(a.p75, b.p75),
			cmp.Compare(a.publisher, b.publisher),
			cmp.Compare(a.language, b.language),
		)
	})

	for _, r := range rows {
		t.add(r.publisher, r.language, cell(r.avg), cell(r.p75), r.count)
	}
	return t, nil
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
