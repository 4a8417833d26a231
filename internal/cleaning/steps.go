package cleaning

import (
	"log/slog"
	"slices"

	"github.com/lehigh-university-libraries/bookclean/internal/authors"
	"github.com/lehigh-university-libraries/bookclean/internal/config"
	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// Step is one enrichment rule. Apply must not modify its input slice.
type Step struct {
	Name  string
	Apply func([]models.Book) []models.Book
}

// Steps returns the enrichment rules in the order they must run. Year bounding
// reads the year derived from the parsed date, so the order is fixed.
func Steps(profile config.Profile) []Step {
	return []Step{
		{Name: "derive_year", Apply: DeriveYear},
		{Name: "bound_years", Apply: func(b []models.Book) []models.Book { return BoundYears(b, profile) }},
		{Name: "sanitize_ratings", Apply: SanitizeRatings},
		{Name: "page_rules", Apply: func(b []models.Book) []models.Book { return ApplyPageRules(b, profile) }},
		{Name: "cap_engagement", Apply: func(b []models.Book) []models.Book { return CapEngagement(b, profile) }},
		{Name: "normalize_authors", Apply: NormalizeAuthors},
	}
}

// Enrich runs every step over books and returns the final version.
func Enrich(books []models.Book, profile config.Profile) []models.Book {
	current := books
	for _, step := range Steps(profile) {
		current = step.Apply(current)
		slog.Debug("Applied enrichment step", "step", step.Name, "rows", len(current))
	}
	return current
}

// DeriveYear sets PublicationYear from the parsed date. Records without a date
// get no year.
func DeriveYear(books []models.Book) []models.Book {
	out := slices.Clone(books)
	for i := range out {
		out[i].PublicationYear = nil
		if d := out[i].PublicationDate; d != nil {
			year := int64(d.Year())
			out[i].PublicationYear = &year
		}
	}
	return out
}

// BoundYears clears years before the historical floor or past the future-year
// buffer and records why in PublicationYearFlag. The date itself is kept.
func BoundYears(books []models.Book, profile config.Profile) []models.Book {
	minYear := int64(profile.MinPublicationYear)
	maxYear := int64(profile.MaxPublicationYear())

	out := slices.Clone(books)
	for i := range out {
		year := out[i].PublicationYear
		if year == nil {
			continue
		}
		switch {
		case *year < minYear:
			out[i].PublicationYear = nil
			out[i].PublicationYearFlag = ptr(models.YearFlagBelowMin)
		case *year > maxYear:
			out[i].PublicationYear = nil
			out[i].PublicationYearFlag = ptr(models.YearFlagFuture)
		}
	}
	return out
}

// SanitizeRatings treats a rating of exactly zero as "not yet rated".
func SanitizeRatings(books []models.Book) []models.Book {
	out := slices.Clone(books)
	for i := range out {
		if r := out[i].AverageRating; r != nil && *r == 0 {
			out[i].AverageRating = nil
			out[i].AverageRatingFlag = ptr(models.RatingFlagPlaceholderZero)
		}
	}
	return out
}

// ApplyPageRules buckets page counts and produces the capped copy.
//
//	missing or <= 0        -> zero_or_audio, media hint set, num_pages cleared
//	< ShortBookPages       -> short_reference
//	> MultiVolumePages     -> multi_volume (value kept)
//	otherwise              -> standard
//
// NumPagesRaw always keeps the coerced source value.
func ApplyPageRules(books []models.Book, profile config.Profile) []models.Book {
	out := slices.Clone(books)
	for i := range out {
		pages := out[i].NumPages
		out[i].NumPagesRaw = pages

		if pages == nil || *pages <= 0 {
			out[i].NumPages = nil
			out[i].NumPagesCapped = nil
			out[i].PageLengthBucket = ptr(models.BucketZeroOrAudio)
			out[i].MediaTypeHint = ptr(models.MediaHintAudioOrMisc)
			continue
		}

		bucket := models.BucketStandard
		switch {
		case *pages < profile.ShortBookPages:
			bucket = models.BucketShortReference
		case *pages > profile.MultiVolumePages:
			bucket = models.BucketMultiVolume
		}
		out[i].PageLengthBucket = &bucket
		out[i].NumPagesCapped = capped(pages, profile.MultiVolumePages)
	}
	return out
}

// CapEngagement keeps the raw engagement counts and winsorizes copies at the
// profile caps.
func CapEngagement(books []models.Book, profile config.Profile) []models.Book {
	out := slices.Clone(books)
	for i := range out {
		out[i].RatingsCountRaw = out[i].RatingsCount
		out[i].RatingsCountCapped = capped(out[i].RatingsCount, profile.RatingsCountCap)
		out[i].TextReviewsCountRaw = out[i].TextReviewsCount
		out[i].TextReviewsCountCapped = capped(out[i].TextReviewsCount, profile.TextReviewsCountCap)
	}
	return out
}

// NormalizeAuthors fills AuthorsClean with the whitespace-normalized text and
// Authors with the deduplicated, "/"-joined list.
func NormalizeAuthors(books []models.Book) []models.Book {
	out := slices.Clone(books)
	for i := range out {
		out[i].AuthorsClean = nil
		out[i].Authors = nil
		if out[i].AuthorsRaw == nil {
			continue
		}
		if clean, ok := authors.Clean(*out[i].AuthorsRaw); ok {
			out[i].AuthorsClean = &clean
		}
		if joined, ok := authors.Canonical(*out[i].AuthorsRaw); ok {
			out[i].Authors = &joined
		}
	}
	return out
}

func capped(v *int64, limit int64) *int64 {
	if v == nil {
		return nil
	}
	c := min(*v, limit)
	return &c
}

func ptr[T any](v T) *T { return &v }
