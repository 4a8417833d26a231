package store

import (
	"context"
	"fmt"

	"github.com/lehigh-university-libraries/bookclean/internal/metrics"
)

// canonicalRollupCTE mirrors metrics.Rollup: descriptive fields from the first
// non-duplicate record by book_id, engagement counts as the group maximum.
const canonicalRollupCTE = `
ranked AS (
    SELECT b.*,
           COALESCE(b.canonical_book_id, b.book_id) AS cid,
           ROW_NUMBER() OVER (
               PARTITION BY COALESCE(b.canonical_book_id, b.book_id)
               ORDER BY b.is_duplicate, b.book_id
           ) AS rn
    FROM books_clean b
),
engagement AS (
    SELECT COALESCE(canonical_book_id, book_id) AS cid,
           MAX(ratings_count) AS ratings_count,
           MAX(ratings_count_capped) AS ratings_count_capped,
           MAX(text_reviews_count) AS text_reviews_count,
           MAX(text_reviews_count_capped) AS text_reviews_count_capped
    FROM books_clean
    GROUP BY cid
),
rollup AS (
    SELECT r.cid AS canonical_book_id,
           r.title,
           r.language_code,
           r.publication_year,
           r.average_rating,
           e.ratings_count,
           e.ratings_count_capped,
           e.text_reviews_count,
           e.text_reviews_count_capped
    FROM ranked r
    JOIN engagement e ON e.cid = r.cid
    WHERE r.rn = 1
)`

// Query is the SQL rendition of one catalog metric.
type Query struct {
	ID   string
	Name string
	SQL  string
	Args func(metrics.Options) []any
}

// Queries are the metrics with a SQL rendition, keyed by metric id.
var Queries = map[string]Query{
	"M1": {
		ID:   "M1",
		Name: "top_authors_by_weighted_rating",
		SQL: `
SELECT e.author_name,
       SUM(b.average_rating * b.ratings_count) / SUM(b.ratings_count) AS weighted_average_rating,
       SUM(b.ratings_count) AS total_ratings,
       COUNT(DISTINCT b.canonical_book_id) AS book_count
FROM book_authors_stage e
JOIN books_clean b ON b.book_id = e.book_id
WHERE b.average_rating IS NOT NULL AND b.ratings_count IS NOT NULL
GROUP BY e.author_name
HAVING SUM(b.ratings_count) >= ?
ORDER BY weighted_average_rating DESC NULLS LAST, total_ratings DESC, e.author_name
LIMIT ?`,
		Args: func(o metrics.Options) []any { return []any{o.AuthorMinRatings, o.AuthorTopN} },
	},
	"M3": {
		ID:   "M3",
		Name: "top_books_by_ratings_count",
		SQL: `WITH` + canonicalRollupCTE + `
SELECT canonical_book_id, title, average_rating, ratings_count, ratings_count_capped, language_code
FROM rollup
ORDER BY ratings_count_capped DESC NULLS LAST, ratings_count DESC NULLS LAST, canonical_book_id
LIMIT ?`,
		Args: func(o metrics.Options) []any { return []any{o.BookTopN} },
	},
	"M7": {
		ID:   "M7",
		Name: "average_rating_by_publication_year",
		SQL: `WITH` + canonicalRollupCTE + `
SELECT publication_year, AVG(average_rating) AS average_rating, COUNT(*) AS book_count
FROM rollup
WHERE publication_year IS NOT NULL AND (?1 IS NULL OR publication_year >= ?1)
GROUP BY publication_year
ORDER BY publication_year`,
		Args: func(o metrics.Options) []any {
			if o.MinYear == nil {
				return []any{nil}
			}
			return []any{*o.MinYear}
		},
	},
	"M11": {
		ID:   "M11",
		Name: "duplicate_share",
		SQL: `
SELECT COUNT(*) AS total_rows,
       COALESCE(SUM(is_duplicate), 0) AS duplicate_rows,
       CASE WHEN COUNT(*) = 0 THEN 0.0
            ELSE ROUND(100.0 * COALESCE(SUM(is_duplicate), 0) / COUNT(*), 4)
       END AS duplicate_share_pct
FROM books_clean`,
		Args: func(metrics.Options) []any { return nil },
	},
}

// QueryIDs returns the ids in Queries in catalog order.
func QueryIDs() []string {
	var ids []string
	for _, m := range metrics.Catalog {
		if _, ok := Queries[m.ID]; ok {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// RunMetric executes the SQL rendition of metric id and returns it as a table
// with the same schema as the Go metric.
func (s *Store) RunMetric(ctx context.Context, id string, opts metrics.Options) (*metrics.Table, error) {
	q, ok := Queries[id]
	if !ok {
		return nil, fmt.Errorf("no SQL rendition for metric %s (available: %v)", id, QueryIDs())
	}

	rows, err := s.db.QueryContext(ctx, q.SQL, q.Args(opts)...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", id, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", id, err)
	}
	t := metrics.NewTable(q.ID, q.Name, columns...)

	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", id, err)
		}
		for i, v := range values {
			values[i] = normalizeCell(v)
		}
		t.Rows = append(t.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", id, err)
	}

	s.logger.Debug("SQL metric computed", "metric", id, "rows", len(t.Rows))
	return t, nil
}

// normalizeCell maps driver values onto the cell types metrics.Table uses.
func normalizeCell(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}
