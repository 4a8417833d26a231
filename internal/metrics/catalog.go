package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/bookclean/internal/config"
	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// Options tunes the floors and sizes used by the catalog.
type Options struct {
	AuthorMinRatings   int64
	AuthorTopN         int
	BookTopN           int
	LanguageMinTitles  int
	PublisherMinTitles int
	RollingWindow      int
	// MinYear drops publication years below it from the per-year metrics.
	MinYear *int64
}

// OptionsFromProfile copies the profile's metric defaults.
func OptionsFromProfile(d config.MetricDefaults) Options {
	return Options{
		AuthorMinRatings:   d.AuthorMinRatings,
		AuthorTopN:         d.AuthorTopN,
		BookTopN:           d.BookTopN,
		LanguageMinTitles:  d.LanguageMinTitles,
		PublisherMinTitles: d.PublisherMinTitles,
		RollingWindow:      d.RollingWindow,
	}
}

// Metric is one entry of the catalog.
type Metric struct {
	ID      string
	Name    string
	Compute func(*models.Dataset, Options) (*Table, error)
}

// Catalog lists every metric in output order.
var Catalog = []Metric{
	{"M1", "top_authors_by_weighted_rating", func(ds *models.Dataset, o Options) (*Table, error) {
		return TopAuthorsByWeightedRating(ds, o.AuthorMinRatings, o.AuthorTopN)
	}},
	{"M2", "author_engagement_index", func(ds *models.Dataset, _ Options) (*Table, error) {
		return AuthorEngagementIndex(ds)
	}},
	{"M3", "top_books_by_ratings_count", func(ds *models.Dataset, o Options) (*Table, error) {
		return TopBooksByRatingsCount(ds, o.BookTopN)
	}},
	{"M4", "top_books_by_text_reviews", func(ds *models.Dataset, o Options) (*Table, error) {
		return TopBooksByTextReviews(ds, o.BookTopN)
	}},
	{"M5", "median_rating_by_page_bucket", func(ds *models.Dataset, _ Options) (*Table, error) {
		return MedianRatingByPageBucket(ds)
	}},
	{"M6", "page_length_engagement_delta", func(ds *models.Dataset, _ Options) (*Table, error) {
		return PageLengthEngagementDelta(ds)
	}},
	{"M7", "average_rating_by_publication_year", func(ds *models.Dataset, o Options) (*Table, error) {
		return AverageRatingByPublicationYear(ds, o.MinYear)
	}},
	{"M8", "median_ratings_count_by_publication_year", func(ds *models.Dataset, o Options) (*Table, error) {
		return MedianRatingsCountByPublicationYear(ds, o.MinYear)
	}},
	{"M9", "language_rating_summary", func(ds *models.Dataset, o Options) (*Table, error) {
		return LanguageRatingSummary(ds, o.LanguageMinTitles)
	}},
	{"M10", "publisher_engagement", func(ds *models.Dataset, o Options) (*Table, error) {
		return PublisherEngagement(ds, o.PublisherMinTitles)
	}},
	{"M11", "duplicate_share", func(ds *models.Dataset, _ Options) (*Table, error) {
		return DuplicateShare(ds)
	}},
	{"M12", "engagement_uplift_canonical", func(ds *models.Dataset, _ Options) (*Table, error) {
		return EngagementUpliftCanonical(ds)
	}},
	{"M13", "publisher_language_rankings", func(ds *models.Dataset, _ Options) (*Table, error) {
		return PublisherLanguageRankings(ds)
	}},
	{"M14", "publication_year_rolling_stats", func(ds *models.Dataset, o Options) (*Table, error) {
		return PublicationYearRollingStats(ds, o.RollingWindow)
	}},
}

// Select returns the catalog entries with the given ids, in catalog order.
// No ids selects everything.
func Select(ids []string) ([]Metric, error) {
	if len(ids) == 0 {
		return Catalog, nil
	}
	var selected []Metric
	for _, m := range Catalog {
		if slices.Contains(ids, m.ID) {
			selected = append(selected, m)
		}
	}
	for _, id := range ids {
		if !slices.ContainsFunc(Catalog, func(m Metric) bool { return m.ID == id }) {
			return nil, fmt.Errorf("unknown metric %q", id)
		}
	}
	return selected, nil
}

// ComputeAll runs the given metrics concurrently. They only read ds, so order
// of execution does not matter; results keep the order of selected. With
// skipMissing, metrics that fail on missing columns are logged and left out
// instead of failing the run.
func ComputeAll(ctx context.Context, ds *models.Dataset, selected []Metric, opts Options, skipMissing bool) ([]*Table, error) {
	results := make([]*Table, len(selected))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, m := range selected {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			table, err := m.Compute(ds, opts)
			if err != nil {
				var missing *MissingColumnsError
				if skipMissing && errors.As(err, &missing) {
					slog.Warn("Skipping metric", "metric", m.ID, "missing", missing.Columns)
					return nil
				}
				return fmt.Errorf("%s %s: %w", m.ID, m.Name, err)
			}
			slog.Debug("Computed metric", "metric", m.ID, "rows", len(table.Rows))
			results[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tables := make([]*Table, 0, len(results))
	for _, t := range results {
		if t != nil {
			tables = append(tables, t)
		}
	}
	return tables, nil
}
