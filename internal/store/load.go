package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/bookclean/internal/dataset"
	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// LoadBooks replaces the contents of books_clean. A book_id seen twice keeps
// its first record. It returns the number of rows stored.
func (s *Store) LoadBooks(ctx context.Context, books []models.Book) (int, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(models.CleanedColumns)), ", ")
	query := fmt.Sprintf("INSERT OR IGNORE INTO books_clean (%s) VALUES (%s)",
		strings.Join(models.CleanedColumns, ", "), placeholders)

	n, err := s.replace(ctx, "books_clean", query, len(books), func(stmt *sql.Stmt, i int) (sql.Result, error) {
		return stmt.ExecContext(ctx, bookArgs(&books[i])...)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("Loaded table", "table", "books_clean", "rows", n, "input_rows", len(books))
	return n, nil
}

// LoadAuthorEdges replaces the contents of book_authors_stage.
func (s *Store) LoadAuthorEdges(ctx context.Context, edges []models.AuthorEdge) (int, error) {
	query := "INSERT OR IGNORE INTO book_authors_stage (book_id, author_order, author_name, authors_raw) VALUES (?, ?, ?, ?)"

	n, err := s.replace(ctx, "book_authors_stage", query, len(edges), func(stmt *sql.Stmt, i int) (sql.Result, error) {
		e := edges[i]
		return stmt.ExecContext(ctx, e.BookID, e.Order, e.AuthorName, e.AuthorsRaw)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("Loaded table", "table", "book_authors_stage", "rows", n)
	return n, nil
}

// LoadDuplicateMapping replaces the contents of bookid_canonical_map. Pairs
// missing either side are skipped and the first pair for a duplicate id wins.
func (s *Store) LoadDuplicateMapping(ctx context.Context, pairs []models.DuplicatePair) (int, error) {
	query := "INSERT OR IGNORE INTO bookid_canonical_map (duplicate_bookid, canonical_bookid) VALUES (?, ?)"

	n, err := s.replace(ctx, "bookid_canonical_map", query, len(pairs), func(stmt *sql.Stmt, i int) (sql.Result, error) {
		p := pairs[i]
		if p.DuplicateID == nil || p.CanonicalID == nil {
			return nil, nil
		}
		return stmt.ExecContext(ctx, *p.DuplicateID, *p.CanonicalID)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("Loaded table", "table", "bookid_canonical_map", "rows", n)
	return n, nil
}

// replace clears table and runs exec for each of n inputs in one transaction.
// exec may return a nil result to skip an input.
func (s *Store) replace(ctx context.Context, table, query string, n int, exec func(*sql.Stmt, int) (sql.Result, error)) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare insert into %s: %w", table, err)
	}
	defer stmt.Close()

	var inserted int64
	for i := range n {
		res, err := exec(stmt, i)
		if err != nil {
			return 0, fmt.Errorf("insert into %s: %w", table, err)
		}
		if res == nil {
			continue
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert into %s: %w", table, err)
		}
		inserted += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit %s: %w", table, err)
	}
	return int(inserted), nil
}

// bookArgs returns the insert arguments in models.CleanedColumns order.
func bookArgs(b *models.Book) []any {
	var date any
	if b.PublicationDate != nil {
		date = b.PublicationDate.Format(dataset.DateLayout)
	}
	var bucket any
	if b.PageLengthBucket != nil {
		bucket = string(*b.PageLengthBucket)
	}
	duplicate := 0
	if b.IsDuplicate {
		duplicate = 1
	}

	return []any{
		b.BookID,
		nullable(b.Title),
		nullable(b.Authors),
		nullable(b.AverageRating),
		nullable(b.ISBN),
		nullable(b.ISBN13),
		nullable(b.LanguageCode),
		nullable(b.NumPages),
		nullable(b.RatingsCount),
		nullable(b.TextReviewsCount),
		date,
		nullable(b.Publisher),
		nullable(b.PublicationYear),
		nullable(b.PublicationYearFlag),
		nullable(b.AverageRatingFlag),
		nullable(b.NumPagesRaw),
		bucket,
		nullable(b.MediaTypeHint),
		nullable(b.NumPagesCapped),
		nullable(b.RatingsCountRaw),
		nullable(b.RatingsCountCapped),
		nullable(b.TextReviewsCountRaw),
		nullable(b.TextReviewsCountCapped),
		nullable(b.AuthorsRaw),
		nullable(b.AuthorsClean),
		nullable(b.CanonicalBookID),
		duplicate,
	}
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
