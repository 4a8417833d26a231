package dataset

import (
	"time"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// BookRow is the Parquet layout of a cleaned record. Missing values are nulls.
type BookRow struct {
	BookID           int64    `parquet:"book_id"`
	Title            *string  `parquet:"title,optional"`
	Authors          *string  `parquet:"authors,optional"`
	AverageRating    *float64 `parquet:"average_rating,optional"`
	ISBN             *string  `parquet:"isbn,optional"`
	ISBN13           *string  `parquet:"isbn13,optional"`
	LanguageCode     *string  `parquet:"language_code,optional"`
	NumPages         *int64   `parquet:"num_pages,optional"`
	RatingsCount     *int64   `parquet:"ratings_count,optional"`
	TextReviewsCount *int64   `parquet:"text_reviews_count,optional"`
	PublicationDate  *string  `parquet:"publication_date,optional"`
	Publisher        *string  `parquet:"publisher,optional"`

	PublicationYear     *int64  `parquet:"publication_year,optional"`
	PublicationYearFlag *string `parquet:"publication_year_flag,optional"`
	AverageRatingFlag   *string `parquet:"average_rating_flag,optional"`

	NumPagesRaw      *int64  `parquet:"num_pages_raw,optional"`
	PageLengthBucket *string `parquet:"page_length_bucket,optional"`
	MediaTypeHint    *string `parquet:"media_type_hint,optional"`
	NumPagesCapped   *int64  `parquet:"num_pages_capped,optional"`

	RatingsCountRaw        *int64 `parquet:"ratings_count_raw,optional"`
	RatingsCountCapped     *int64 `parquet:"ratings_count_capped,optional"`
	TextReviewsCountRaw    *int64 `parquet:"text_reviews_count_raw,optional"`
	TextReviewsCountCapped *int64 `parquet:"text_reviews_count_capped,optional"`

	AuthorsRaw   *string `parquet:"authors_raw,optional"`
	AuthorsClean *string `parquet:"authors_clean,optional"`

	CanonicalBookID *int64 `parquet:"canonical_book_id,optional"`
	IsDuplicate     bool   `parquet:"is_duplicate"`
}

// NewBookRow converts a cleaned record to its Parquet layout.
func NewBookRow(b models.Book) BookRow {
	row := BookRow{
		BookID:                 b.BookID,
		Title:                  b.Title,
		Authors:                b.Authors,
		AverageRating:          b.AverageRating,
		ISBN:                   b.ISBN,
		ISBN13:                 b.ISBN13,
		LanguageCode:           b.LanguageCode,
		NumPages:               b.NumPages,
		RatingsCount:           b.RatingsCount,
		TextReviewsCount:       b.TextReviewsCount,
		Publisher:              b.Publisher,
		PublicationYear:        b.PublicationYear,
		PublicationYearFlag:    b.PublicationYearFlag,
		AverageRatingFlag:      b.AverageRatingFlag,
		NumPagesRaw:            b.NumPagesRaw,
		MediaTypeHint:          b.MediaTypeHint,
		NumPagesCapped:         b.NumPagesCapped,
		RatingsCountRaw:        b.RatingsCountRaw,
		RatingsCountCapped:     b.RatingsCountCapped,
		TextReviewsCountRaw:    b.TextReviewsCountRaw,
		TextReviewsCountCapped: b.TextReviewsCountCapped,
		AuthorsRaw:             b.AuthorsRaw,
		AuthorsClean:           b.AuthorsClean,
		CanonicalBookID:        b.CanonicalBookID,
		IsDuplicate:            b.IsDuplicate,
	}
	if b.PublicationDate != nil {
		d := b.PublicationDate.Format(DateLayout)
		row.PublicationDate = &d
	}
	if b.PageLengthBucket != nil {
		bucket := string(*b.PageLengthBucket)
		row.PageLengthBucket = &bucket
	}
	return row
}

// Book converts a Parquet row back to a cleaned record.
func (r BookRow) Book() (models.Book, error) {
	b := models.Book{
		BookID:                 r.BookID,
		Title:                  r.Title,
		Authors:                r.Authors,
		AverageRating:          r.AverageRating,
		ISBN:                   r.ISBN,
		ISBN13:                 r.ISBN13,
		LanguageCode:           r.LanguageCode,
		NumPages:               r.NumPages,
		RatingsCount:           r.RatingsCount,
		TextReviewsCount:       r.TextReviewsCount,
		Publisher:              r.Publisher,
		PublicationYear:        r.PublicationYear,
		PublicationYearFlag:    r.PublicationYearFlag,
		AverageRatingFlag:      r.AverageRatingFlag,
		NumPagesRaw:            r.NumPagesRaw,
		MediaTypeHint:          r.MediaTypeHint,
		NumPagesCapped:         r.NumPagesCapped,
		RatingsCountRaw:        r.RatingsCountRaw,
		RatingsCountCapped:     r.RatingsCountCapped,
		TextReviewsCountRaw:    r.TextReviewsCountRaw,
		TextReviewsCountCapped: r.TextReviewsCountCapped,
		AuthorsRaw:             r.AuthorsRaw,
		AuthorsClean:           r.AuthorsClean,
		CanonicalBookID:        r.CanonicalBookID,
		IsDuplicate:            r.IsDuplicate,
	}
	if r.PublicationDate != nil {
		d, err := time.Parse(DateLayout, *r.PublicationDate)
		if err != nil {
			return b, err
		}
		b.PublicationDate = &d
	}
	if r.PageLengthBucket != nil {
		bucket := models.PageBucket(*r.PageLengthBucket)
		b.PageLengthBucket = &bucket
	}
	return b, nil
}
