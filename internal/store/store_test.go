package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/bookclean/internal/authors"
	"github.com/lehigh-university-libraries/bookclean/internal/metrics"
	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

// fixtureBooks has two canonical groups (1 <- 2) plus two standalone books.
func fixtureBooks() []models.Book {
	date := time.Date(1998, time.September, 1, 0, 0, 0, 0, time.UTC)
	return []models.Book{
		{
			BookID: 1, Title: ptr("One"), AuthorsClean: ptr("Alice/Bob"), AuthorsRaw: ptr("Alice/Bob"),
			AverageRating: ptr(4.0), RatingsCount: ptr(int64(10000)), RatingsCountCapped: ptr(int64(10000)),
			PublicationYear: ptr(int64(1998)), PublicationDate: &date, LanguageCode: ptr("eng"),
			CanonicalBookID: ptr(int64(1)),
		},
		{
			BookID: 2, Title: ptr("One (reissue)"), AuthorsClean: ptr("Alice"), AuthorsRaw: ptr("Alice"),
			AverageRating: ptr(3.0), RatingsCount: ptr(int64(20000)), RatingsCountCapped: ptr(int64(20000)),
			PublicationYear: ptr(int64(2001)), LanguageCode: ptr("eng"),
			CanonicalBookID: ptr(int64(1)), IsDuplicate: true,
		},
		{
			BookID: 3, Title: ptr("Three"), AuthorsClean: ptr("Carol"), AuthorsRaw: ptr("Carol"),
			AverageRating: ptr(4.5), RatingsCount: ptr(int64(6000)), RatingsCountCapped: ptr(int64(6000)),
			PublicationYear: ptr(int64(1998)), LanguageCode: ptr("spa"),
			CanonicalBookID: ptr(int64(3)),
		},
		{
			BookID: 4, Title: ptr("Four"), AuthorsClean: ptr("Bob"), AuthorsRaw: ptr("Bob"),
			RatingsCount: ptr(int64(100)), RatingsCountCapped: ptr(int64(100)),
			CanonicalBookID: ptr(int64(4)),
		},
	}
}

func loadFixture(t *testing.T, s *Store) []models.Book {
	t.Helper()
	ctx := context.Background()
	books := fixtureBooks()
	_, err := s.LoadBooks(ctx, books)
	require.NoError(t, err)
	_, err = s.LoadAuthorEdges(ctx, authors.Explode(authors.Sources(books)))
	require.NoError(t, err)
	return books
}

func TestOpenCreatesTables(t *testing.T) {
	s := newTestStore(t)

	for _, table := range Tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s not found", table)
	}

	for _, index := range []string{
		"idx_books_clean_publication_date",
		"idx_books_clean_average_rating",
		"idx_books_clean_authors",
	} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&name)
		assert.NoError(t, err, "index %s not found", index)
	}
}

func TestLoadBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	books := fixtureBooks()
	books = append(books, models.Book{BookID: 1, Title: ptr("Shadow")})

	n, err := s.LoadBooks(ctx, books)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	var title, date string
	var duplicate int
	err = s.db.QueryRow("SELECT title, publication_date, is_duplicate FROM books_clean WHERE book_id = 1").Scan(&title, &date, &duplicate)
	require.NoError(t, err)
	assert.Equal(t, "One", title)
	assert.Equal(t, "1998-09-01", date)
	assert.Equal(t, 0, duplicate)

	var rating any
	err = s.db.QueryRow("SELECT average_rating FROM books_clean WHERE book_id = 4").Scan(&rating)
	require.NoError(t, err)
	assert.Nil(t, rating)

	// Reloading replaces the table.
	n, err = s.LoadBooks(ctx, books[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["books_clean"])
}

func TestLoadDuplicateMapping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pairs := []models.DuplicatePair{
		{DuplicateID: ptr(int64(2)), CanonicalID: ptr(int64(1))},
		{DuplicateID: ptr(int64(2)), CanonicalID: ptr(int64(9))},
		{DuplicateID: nil, CanonicalID: ptr(int64(1))},
		{DuplicateID: ptr(int64(5)), CanonicalID: nil},
	}
	n, err := s.LoadDuplicateMapping(ctx, pairs)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var canonical int64
	err = s.db.QueryRow("SELECT canonical_bookid FROM bookid_canonical_map WHERE duplicate_bookid = 2").Scan(&canonical)
	require.NoError(t, err)
	assert.Equal(t, int64(1), canonical)
}

func TestLoadAuthorEdges(t *testing.T) {
	s := newTestStore(t)
	loadFixture(t, s)

	counts, err := s.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), counts["book_authors_stage"])
}

// sqlMatchesGo runs both renditions of a metric over the fixture and compares
// every cell.
func sqlMatchesGo(t *testing.T, id string, opts metrics.Options) *metrics.Table {
	t.Helper()
	s := newTestStore(t)
	books := loadFixture(t, s)

	sqlTable, err := s.RunMetric(context.Background(), id, opts)
	require.NoError(t, err)

	selected, err := metrics.Select([]string{id})
	require.NoError(t, err)
	goTable, err := selected[0].Compute(models.NewDataset(books), opts)
	require.NoError(t, err)

	assert.Equal(t, goTable.Columns, sqlTable.Columns)
	require.Len(t, sqlTable.Rows, len(goTable.Rows))
	for i := range goTable.Rows {
		for j := range goTable.Rows[i] {
			want, got := goTable.Rows[i][j], sqlTable.Rows[i][j]
			if wf, ok := want.(float64); ok {
				gf, ok := got.(float64)
				require.True(t, ok, "row %d col %d: expected float, got %T", i, j, got)
				assert.InDelta(t, wf, gf, 1e-9, "row %d col %d", i, j)
				continue
			}
			assert.Equal(t, want, got, "row %d col %d", i, j)
		}
	}
	return sqlTable
}

func TestRunMetricTopAuthors(t *testing.T) {
	opts := metrics.Options{AuthorMinRatings: 5000, AuthorTopN: 15}
	table := sqlMatchesGo(t, "M1", opts)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, "Carol", table.Rows[0][0])
	assert.Equal(t, "Bob", table.Rows[1][0])
	assert.Equal(t, "Alice", table.Rows[2][0])
	// Alice: (4*10000 + 3*20000) / 30000
	assert.InDelta(t, 10.0/3.0, table.Rows[2][1].(float64), 1e-9)
	assert.Equal(t, int64(1), table.Rows[2][3])
}

func TestRunMetricTopBooks(t *testing.T) {
	table := sqlMatchesGo(t, "M3", metrics.Options{BookTopN: 2})

	require.Len(t, table.Rows, 2)
	assert.Equal(t, int64(1), table.Rows[0][0])
	assert.Equal(t, "One", table.Rows[0][1])
	assert.Equal(t, int64(20000), table.Rows[0][4])
	assert.Equal(t, int64(3), table.Rows[1][0])
}

func TestRunMetricRatingByYear(t *testing.T) {
	table := sqlMatchesGo(t, "M7", metrics.Options{})
	require.Len(t, table.Rows, 1)
	assert.Equal(t, int64(1998), table.Rows[0][0])
	assert.InDelta(t, 4.25, table.Rows[0][1].(float64), 1e-9)
	assert.Equal(t, int64(2), table.Rows[0][2])

	filtered := sqlMatchesGo(t, "M7", metrics.Options{MinYear: ptr(int64(2000))})
	assert.Empty(t, filtered.Rows)
}

func TestRunMetricDuplicateShare(t *testing.T) {
	table := sqlMatchesGo(t, "M11", metrics.Options{})
	require.Len(t, table.Rows, 1)
	assert.Equal(t, int64(4), table.Rows[0][0])
	assert.Equal(t, int64(1), table.Rows[0][1])
	assert.InDelta(t, 25.0, table.Rows[0][2].(float64), 1e-9)
}

func TestRunMetricDuplicateShareEmpty(t *testing.T) {
	s := newTestStore(t)
	table, err := s.RunMetric(context.Background(), "M11", metrics.Options{})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, int64(0), table.Rows[0][0])
	assert.Equal(t, int64(0), table.Rows[0][1])
}

func TestRunMetricUnknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.RunMetric(context.Background(), "M2", metrics.Options{})
	assert.Error(t, err)
}

func TestQueryIDs(t *testing.T) {
	assert.Equal(t, []string{"M1", "M3", "M7", "M11"}, QueryIDs())
}
