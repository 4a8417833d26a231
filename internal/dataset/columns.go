package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// DateLayout is how publication dates are written to tabular output.
const DateLayout = time.DateOnly

// column reads and writes one cleaned-dataset field as text.
type column struct {
	format func(*models.Book) string
	parse  func(*models.Book, string) error
}

// bookColumns covers every name in models.CleanedColumns.
var bookColumns = map[string]column{
	"book_id": {
		format: func(b *models.Book) string { return strconv.FormatInt(b.BookID, 10) },
		parse: func(b *models.Book, s string) error {
			v, err := parseInt(s)
			if err != nil {
				return err
			}
			if v == nil {
				return fmt.Errorf("book_id is required")
			}
			b.BookID = *v
			return nil
		},
	},
	"title":                     textColumn(func(b *models.Book) **string { return &b.Title }),
	"authors":                   textColumn(func(b *models.Book) **string { return &b.Authors }),
	"average_rating":            floatColumn(func(b *models.Book) **float64 { return &b.AverageRating }),
	"isbn":                      textColumn(func(b *models.Book) **string { return &b.ISBN }),
	"isbn13":                    textColumn(func(b *models.Book) **string { return &b.ISBN13 }),
	"language_code":             textColumn(func(b *models.Book) **string { return &b.LanguageCode }),
	"num_pages":                 intColumn(func(b *models.Book) **int64 { return &b.NumPages }),
	"ratings_count":             intColumn(func(b *models.Book) **int64 { return &b.RatingsCount }),
	"text_reviews_count":        intColumn(func(b *models.Book) **int64 { return &b.TextReviewsCount }),
	"publisher":                 textColumn(func(b *models.Book) **string { return &b.Publisher }),
	"publication_year":          intColumn(func(b *models.Book) **int64 { return &b.PublicationYear }),
	"publication_year_flag":     textColumn(func(b *models.Book) **string { return &b.PublicationYearFlag }),
	"average_rating_flag":       textColumn(func(b *models.Book) **string { return &b.AverageRatingFlag }),
	"num_pages_raw":             intColumn(func(b *models.Book) **int64 { return &b.NumPagesRaw }),
	"media_type_hint":           textColumn(func(b *models.Book) **string { return &b.MediaTypeHint }),
	"num_pages_capped":          intColumn(func(b *models.Book) **int64 { return &b.NumPagesCapped }),
	"ratings_count_raw":         intColumn(func(b *models.Book) **int64 { return &b.RatingsCountRaw }),
	"ratings_count_capped":      intColumn(func(b *models.Book) **int64 { return &b.RatingsCountCapped }),
	"text_reviews_count_raw":    intColumn(func(b *models.Book) **int64 { return &b.TextReviewsCountRaw }),
	"text_reviews_count_capped": intColumn(func(b *models.Book) **int64 { return &b.TextReviewsCountCapped }),
	"authors_raw":               textColumn(func(b *models.Book) **string { return &b.AuthorsRaw }),
	"authors_clean":             textColumn(func(b *models.Book) **string { return &b.AuthorsClean }),
	"canonical_book_id":         intColumn(func(b *models.Book) **int64 { return &b.CanonicalBookID }),
	"publication_date": {
		format: func(b *models.Book) string {
			if b.PublicationDate == nil {
				return ""
			}
			return b.PublicationDate.Format(DateLayout)
		},
		parse: func(b *models.Book, s string) error {
			if s == "" {
				b.PublicationDate = nil
				return nil
			}
			t, err := time.Parse(DateLayout, s)
			if err != nil {
				return err
			}
			b.PublicationDate = &t
			return nil
		},
	},
	"page_length_bucket": {
		format: func(b *models.Book) string {
			if b.PageLengthBucket == nil {
				return ""
			}
			return string(*b.PageLengthBucket)
		},
		parse: func(b *models.Book, s string) error {
			b.PageLengthBucket = nil
			if s != "" {
				bucket := models.PageBucket(s)
				b.PageLengthBucket = &bucket
			}
			return nil
		},
	},
	"is_duplicate": {
		format: func(b *models.Book) string { return strconv.FormatBool(b.IsDuplicate) },
		parse: func(b *models.Book, s string) error {
			if s == "" {
				b.IsDuplicate = false
				return nil
			}
			v, err := strconv.ParseBool(s)
			if err != nil {
				return err
			}
			b.IsDuplicate = v
			return nil
		},
	},
}

func textColumn(field func(*models.Book) **string) column {
	return column{
		format: func(b *models.Book) string {
			if v := *field(b); v != nil {
				return *v
			}
			return ""
		},
		parse: func(b *models.Book, s string) error {
			*field(b) = nil
			if s != "" {
				*field(b) = &s
			}
			return nil
		},
	}
}

func intColumn(field func(*models.Book) **int64) column {
	return column{
		format: func(b *models.Book) string {
			if v := *field(b); v != nil {
				return strconv.FormatInt(*v, 10)
			}
			return ""
		},
		parse: func(b *models.Book, s string) error {
			v, err := parseInt(s)
			if err != nil {
				return err
			}
			*field(b) = v
			return nil
		},
	}
}

func floatColumn(field func(*models.Book) **float64) column {
	return column{
		format: func(b *models.Book) string {
			if v := *field(b); v != nil {
				return strconv.FormatFloat(*v, 'f', -1, 64)
			}
			return ""
		},
		parse: func(b *models.Book, s string) error {
			*field(b) = nil
			if s == "" {
				return nil
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			*field(b) = &v
			return nil
		},
	}
}

// parseInt accepts "12" and the "12.0" spelling other tools write for
// nullable integer columns.
func parseInt(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &v, nil
	}
	if whole, frac, ok := strings.Cut(s, "."); ok && strings.Trim(frac, "0") == "" {
		v, err := strconv.ParseInt(whole, 10, 64)
		if err == nil {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("invalid integer %q", s)
}
