package pipelinecmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookclean/internal/compare"
	"github.com/lehigh-university-libraries/bookclean/internal/config"
)

const (
	defaultBooksCSV   = "data/books.csv"
	defaultMappingCSV = "data/derived/duplicate_bookid_mapping.csv"
	defaultCleaned    = "data/derived/books_clean.parquet"
	defaultEdges      = "data/derived/book_authors.parquet"
	defaultMetricsDir = "outputs/metrics"
	defaultDatabase   = "data/derived/books.db"
)

// NewCleanCmd creates the clean command
func NewCleanCmd() *cobra.Command {
	var opts cleanOptions

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Repair, clean and canonicalize the raw books export",
		Long: `Read the raw books CSV, repair rows split by unquoted commas in the authors
field, normalize types and dates, derive the quality flags, apply the duplicate
mapping and validate the result before writing the cleaned dataset.

Nothing is written when any stage fails.`,
		Example: `  # Clean with the default paths
  bookclean clean

  # Clean the first 500 rows without canonicalization
  bookclean clean --limit 500 --skip-mapping --output ./sample.csv

  # Use a custom profile
  bookclean clean --profile ./profile.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(opts.booksCSV); os.IsNotExist(err) {
				return fmt.Errorf("books CSV not found: %s", opts.booksCSV)
			}
			return executeClean(opts)
		},
	}

	cmd.Flags().StringVar(&opts.booksCSV, "books-csv", defaultBooksCSV, "Path to the raw books CSV export")
	cmd.Flags().StringVar(&opts.mappingCSV, "mapping-csv", defaultMappingCSV, "Path to the duplicate book id mapping CSV")
	cmd.Flags().StringVar(&opts.output, "output", defaultCleaned, "Cleaned dataset path (.csv, .parquet or .jsonl)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Only clean the first N rows (0 for all)")
	cmd.Flags().BoolVar(&opts.skipMapping, "skip-mapping", false, "Do not apply the duplicate mapping")
	cmd.Flags().StringVar(&opts.profile, "profile", os.Getenv(config.ProfileEnv), "YAML profile overriding the default thresholds")
	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "Run manifest path (defaults to run_manifest.yaml next to the output)")

	return cmd
}

// NewAuthorsCmd creates the authors command
func NewAuthorsCmd() *cobra.Command {
	var datasetPath string
	var output string

	cmd := &cobra.Command{
		Use:   "authors",
		Short: "Explode a cleaned dataset into one row per (book, author)",
		Example: `  bookclean authors --dataset data/derived/books_clean.parquet --output data/derived/book_authors.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeAuthors(datasetPath, output)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", defaultCleaned, "Cleaned dataset path")
	cmd.Flags().StringVar(&output, "output", defaultEdges, "Author edge table path (.csv or .parquet)")

	return cmd
}

// NewMetricsCmd creates the metrics command
func NewMetricsCmd() *cobra.Command {
	var opts metricsOptions
	var minYear int64

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Compute the metric catalog from a cleaned dataset",
		Long: `Compute the metric catalog (M1-M14) from a cleaned dataset and write one CSV
per metric, e.g. M1_top_authors_by_weighted_rating.csv.`,
		Example: `  # Compute every metric
  bookclean metrics --dataset data/derived/books_clean.parquet

  # Only the per-year metrics from 1950 on
  bookclean metrics --only M7,M8 --min-year 1950`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("min-year") {
				opts.minYear = &minYear
			}
			return executeMetrics(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.datasetPath, "dataset", defaultCleaned, "Cleaned dataset path")
	cmd.Flags().StringVar(&opts.outputDir, "output", defaultMetricsDir, "Directory for the metric CSVs")
	cmd.Flags().StringSliceVar(&opts.only, "only", nil, "Comma separated metric ids to compute (default: all)")
	cmd.Flags().Int64Var(&minYear, "min-year", 0, "Drop publication years below this from the per-year metrics")
	cmd.Flags().BoolVar(&opts.skipMissing, "skip-missing", false, "Skip metrics whose input columns are missing instead of failing")
	cmd.Flags().StringVar(&opts.profile, "profile", os.Getenv(config.ProfileEnv), "YAML profile overriding the default thresholds")
	cmd.Flags().StringVar(&opts.summaryJSON, "summary-json", "", "Also write the run summary as JSON to this path")

	return cmd
}

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var tablePath string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a metric table",
		Example: `  bookclean report --table outputs/metrics/M9_language_rating_summary.csv --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tablePath == "" {
				return fmt.Errorf("--table is required")
			}
			return executeReport(cmd.OutOrStdout(), tablePath, format)
		},
	}

	cmd.Flags().StringVar(&tablePath, "table", "", "Path to a metric CSV (required)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, or csv)")

	_ = cmd.MarkFlagRequired("table")
	return cmd
}

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	var datasetPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run data quality checks on a cleaned dataset",
		Long: `Check that the cleaned dataset is non-empty, report null counts of the
critical columns, and fail when ratings fall outside [0, 5] or page counts are
not positive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeCheck(cmd.OutOrStdout(), datasetPath)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", defaultCleaned, "Cleaned dataset path")

	return cmd
}

// NewLoadCmd creates the load command
func NewLoadCmd() *cobra.Command {
	var opts loadOptions

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the cleaned dataset, author edges and duplicate mapping into SQLite",
		Example: `  bookclean load --dataset data/derived/books_clean.parquet --database data/derived/books.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeLoad(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.datasetPath, "dataset", defaultCleaned, "Cleaned dataset path")
	cmd.Flags().StringVar(&opts.edgesPath, "authors", "", "Author edge table (exploded from the dataset when empty)")
	cmd.Flags().StringVar(&opts.mappingCSV, "mapping-csv", defaultMappingCSV, "Duplicate book id mapping CSV (skipped when absent)")
	cmd.Flags().StringVar(&opts.database, "database", defaultDatabase, "SQLite database path")

	return cmd
}

// NewCompareCmd creates the compare command
func NewCompareCmd() *cobra.Command {
	var opts compareOptions
	var minYear int64

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare SQL renditions of metrics with the Go metric tables",
		Long: fmt.Sprintf(`Run the SQL version of each supported metric (%s) against the SQLite
store and compare it with the table computed from the cleaned dataset. Rows are
joined on the metric's key columns and numeric cells must agree within the
tolerance.`, strings.Join(caseIDs(), ", ")),
		Example: `  bookclean compare --database data/derived/books.db --dataset data/derived/books_clean.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("min-year") {
				opts.minYear = &minYear
			}
			return executeCompare(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.database, "database", defaultDatabase, "SQLite database path")
	cmd.Flags().StringVar(&opts.datasetPath, "dataset", defaultCleaned, "Cleaned dataset path")
	cmd.Flags().StringVar(&opts.outputDir, "output", "outputs/compare", "Directory for the comparison summary")
	cmd.Flags().StringSliceVar(&opts.only, "only", nil, "Comma separated metric ids to compare (default: all supported)")
	cmd.Flags().Float64Var(&opts.tolerance, "tolerance", compare.DefaultTolerance, "Largest accepted absolute numeric difference")
	cmd.Flags().Int64Var(&minYear, "min-year", 0, "Drop publication years below this from the per-year metrics")
	cmd.Flags().StringVar(&opts.profile, "profile", os.Getenv(config.ProfileEnv), "YAML profile overriding the default thresholds")

	return cmd
}

func caseIDs() []string {
	ids := make([]string, len(compare.Cases))
	for i, c := range compare.Cases {
		ids[i] = c.MetricID
	}
	return ids
}
