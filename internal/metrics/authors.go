package metrics

import (
	"cmp"
	"slices"

	"github.com/lehigh-university-libraries/bookclean/internal/authors"
	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// authorEdges explodes the dataset's authors and indexes each book by id.
// Rows repeating a book_id are exploded once.
func authorEdges(ds *models.Dataset) ([]models.AuthorEdge, map[int64]models.Book) {
	byID := make(map[int64]models.Book, len(ds.Books))
	unique := make([]models.Book, 0, len(ds.Books))
	for _, b := range ds.Books {
		if _, ok := byID[b.BookID]; ok {
			continue
		}
		byID[b.BookID] = b
		unique = append(unique, b)
	}
	return authors.Explode(authors.Sources(unique)), byID
}

// TopAuthorsByWeightedRating ranks authors by their ratings-weighted average
// rating. Books without a rating or ratings count are ignored, and authors
// whose summed ratings_count is below minRatings are excluded. Ties break on
// total ratings, then name.
func TopAuthorsByWeightedRating(ds *models.Dataset, minRatings int64, topN int) (*Table, error) {
	t := NewTable("M1", "top_authors_by_weighted_rating", "author_name", "weighted_average_rating", "total_ratings", "book_count")
	if err := requireColumns(ds, t.Name, "book_id", "authors_clean", "authors_raw", "average_rating", "ratings_count", "canonical_book_id"); err != nil {
		return nil, err
	}

	type group struct {
		name     string
		weighted float64
		total    int64
		books    map[int64]struct{}
	}
	groups := make(map[string]*group)

	edges, byID := authorEdges(ds)
	for _, e := range edges {
		b := byID[e.BookID]
		if b.AverageRating == nil || b.RatingsCount == nil {
			continue
		}
		g, ok := groups[e.AuthorName]
		if !ok {
			g = &group{name: e.AuthorName, books: make(map[int64]struct{})}
			groups[e.AuthorName] = g
		}
		g.weighted += *b.AverageRating * float64(*b.RatingsCount)
		g.total += *b.RatingsCount
		if b.CanonicalBookID != nil {
			g.books[*b.CanonicalBookID] = struct{}{}
		}
	}

	type ranked struct {
		*group
		avg *float64
	}
	var rows []ranked
	for _, g := range groups {
		if g.total < minRatings {
			continue
		}
		var avg *float64
		if g.total != 0 {
			avg = ptr(g.weighted / float64(g.total))
		}
		rows = append(rows, ranked{g, avg})
	}

	slices.SortFunc(rows, func(a, b ranked) int {
		return cmp.Or(
			compareDesc(a.avg, b.avg),
			cmp.Compare(b.total, a.total),
			cmp.Compare(a.name, b.name),
		)
	})

	for _, r := range rows[:min(topN, len(rows))] {
		t.add(r.name, cell(r.avg), r.total, int64(len(r.books)))
	}
	return t, nil
}

// AuthorEngagementIndex scores each author by the mean of the z-scores of their
// summed capped ratings and capped text reviews.
func AuthorEngagementIndex(ds *models.Dataset) (*Table, error) {
	t := NewTable("M2", "author_engagement_index", "author_name", "engagement_index", "ratings_count_capped", "text_reviews_count_capped", "book_count")
	if err := requireColumns(ds, t.Name, "book_id", "authors_clean", "authors_raw", "ratings_count_capped", "text_reviews_count_capped", "canonical_book_id"); err != nil {
		return nil, err
	}

	type group struct {
		name    string
		ratings int64
		reviews int64
		books   map[int64]struct{}
		index   float64
	}
	groups := make(map[string]*group)
	var order []*group

	edges, byID := authorEdges(ds)
	for _, e := range edges {
		b := byID[e.BookID]
		g, ok := groups[e.AuthorName]
		if !ok {
			g = &group{name: e.AuthorName, books: make(map[int64]struct{})}
			groups[e.AuthorName] = g
			order = append(order, g)
		}
		if b.RatingsCountCapped != nil {
			g.ratings += *b.RatingsCountCapped
		}
		if b.TextReviewsCountCapped != nil {
			g.reviews += *b.TextReviewsCountCapped
		}
		if b.CanonicalBookID != nil {
			g.books[*b.CanonicalBookID] = struct{}{}
		}
	}
	if len(order) == 0 {
		return t, nil
	}

	ratings := make([]float64, len(order))
	reviews := make([]float64, len(order))
	for i, g := range order {
		ratings[i] = float64(g.ratings)
		reviews[i] = float64(g.reviews)
	}
	zRatings := calculateZScores(ratings)
	zReviews := calculateZScores(reviews)
	for i, g := range order {
		g.index = (zRatings[i] + zReviews[i]) / 2
	}

	slices.SortFunc(order, func(a, b *group) int {
		return cmp.Or(cmp.Compare(b.index, a.index), cmp.Compare(a.name, b.name))
	})
	for _, g := range order {
		t.add(g.name, g.index, g.ratings, g.reviews, int64(len(g.books)))
	}
	return t, nil
}
