package models

import (
	"slices"
	"time"
)

// SourceColumns is the exact header of the raw catalog export, in order.
// The page column carries two leading spaces in the export.
var SourceColumns = []string{
	"bookID",
	"title",
	"authors",
	"average_rating",
	"isbn",
	"isbn13",
	"language_code",
	"  num_pages",
	"ratings_count",
	"text_reviews_count",
	"publication_date",
	"publisher",
}

// AuthorsIndex is the position of the free-text authors field in SourceColumns.
const AuthorsIndex = 2

// RawRecord is one repaired row of the raw export (always len(SourceColumns) fields).
type RawRecord struct {
	Line   int      `json:"line"`
	Fields []string `json:"fields"`
}

// PageBucket classifies a book by page count.
type PageBucket string

const (
	BucketShortReference PageBucket = "short_reference"
	BucketStandard       PageBucket = "standard"
	BucketMultiVolume    PageBucket = "multi_volume"
	BucketZeroOrAudio    PageBucket = "zero_or_audio"
)

// Flag values written to the *_flag columns.
const (
	YearFlagBelowMin          = "below_min"
	YearFlagFuture            = "future_year"
	RatingFlagPlaceholderZero = "placeholder_zero"
	MediaHintAudioOrMisc      = "audio_or_misc"
)

// Book is a cleaned catalog record. Pointer fields are nil when the value is missing.
type Book struct {
	BookID           int64      `json:"book_id"`
	Title            *string    `json:"title"`
	Authors          *string    `json:"authors"`
	AverageRating    *float64   `json:"average_rating"`
	ISBN             *string    `json:"isbn"`
	ISBN13           *string    `json:"isbn13"`
	LanguageCode     *string    `json:"language_code"`
	NumPages         *int64     `json:"num_pages"`
	RatingsCount     *int64     `json:"ratings_count"`
	TextReviewsCount *int64     `json:"text_reviews_count"`
	PublicationDate  *time.Time `json:"publication_date"`
	Publisher        *string    `json:"publisher"`

	PublicationYear     *int64  `json:"publication_year"`
	PublicationYearFlag *string `json:"publication_year_flag"`
	AverageRatingFlag   *string `json:"average_rating_flag"`

	NumPagesRaw      *int64      `json:"num_pages_raw"`
	NumPagesCapped   *int64      `json:"num_pages_capped"`
	PageLengthBucket *PageBucket `json:"page_length_bucket"`
	MediaTypeHint    *string     `json:"media_type_hint"`

	RatingsCountRaw        *int64 `json:"ratings_count_raw"`
	RatingsCountCapped     *int64 `json:"ratings_count_capped"`
	TextReviewsCountRaw    *int64 `json:"text_reviews_count_raw"`
	TextReviewsCountCapped *int64 `json:"text_reviews_count_capped"`

	AuthorsRaw   *string `json:"authors_raw"`
	AuthorsClean *string `json:"authors_clean"`

	CanonicalBookID *int64 `json:"canonical_book_id"`
	IsDuplicate     bool   `json:"is_duplicate"`
}

// CleanedColumns lists the columns of the cleaned dataset in output order.
var CleanedColumns = []string{
	"book_id",
	"title",
	"authors",
	"average_rating",
	"isbn",
	"isbn13",
	"language_code",
	"num_pages",
	"ratings_count",
	"text_reviews_count",
	"publication_date",
	"publisher",
	"publication_year",
	"publication_year_flag",
	"average_rating_flag",
	"num_pages_raw",
	"page_length_bucket",
	"media_type_hint",
	"num_pages_capped",
	"ratings_count_raw",
	"ratings_count_capped",
	"text_reviews_count_raw",
	"text_reviews_count_capped",
	"authors_raw",
	"authors_clean",
	"canonical_book_id",
	"is_duplicate",
}

// Dataset is a cleaned record set together with the columns it actually carries.
// Records produced by the pipeline carry every column; records loaded from disk
// carry whatever the file header provided.
type Dataset struct {
	Books   []Book   `json:"books"`
	Columns []string `json:"columns"`
}

// NewDataset wraps pipeline output, which always has the full column set.
func NewDataset(books []Book) *Dataset {
	return &Dataset{Books: books, Columns: slices.Clone(CleanedColumns)}
}

// Has reports whether the dataset carries the named column.
func (d *Dataset) Has(column string) bool {
	return slices.Contains(d.Columns, column)
}

// AuthorEdge is one (book, author) pair derived from a cleaned record.
type AuthorEdge struct {
	BookID     int64  `json:"book_id" parquet:"book_id"`
	Order      int    `json:"author_order" parquet:"author_order"`
	AuthorName string `json:"author_name" parquet:"author_name"`
	AuthorsRaw string `json:"authors_raw" parquet:"authors_raw"`
}

// AuthorSource is the subset of a record needed to explode authors.
type AuthorSource struct {
	BookID       *int64
	AuthorsClean *string
	AuthorsRaw   *string
}

// DuplicatePair maps a duplicate record id onto its canonical target.
// Either side may be missing in the source table.
type DuplicatePair struct {
	DuplicateID *int64 `json:"duplicate_bookid"`
	CanonicalID *int64 `json:"canonical_bookid"`
}
