package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookclean/internal/pipelinecmd"
)

func NewRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "bookclean",
		Short: "Goodreads catalog repair, cleaning and metrics pipeline",
		Long: `Bookclean repairs the raw Goodreads books export, cleans and canonicalizes
it into an analysis-ready dataset, and computes a catalog of aggregate metrics.

The cleaned dataset can also be loaded into SQLite and the SQL versions of the
metrics compared with the Go results.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level, err := parseLevel(logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(pipelinecmd.NewCleanCmd())
	cmd.AddCommand(pipelinecmd.NewAuthorsCmd())
	cmd.AddCommand(pipelinecmd.NewMetricsCmd())
	cmd.AddCommand(pipelinecmd.NewReportCmd())
	cmd.AddCommand(pipelinecmd.NewInspectCmd())
	cmd.AddCommand(pipelinecmd.NewCheckCmd())
	cmd.AddCommand(pipelinecmd.NewLoadCmd())
	cmd.AddCommand(pipelinecmd.NewCompareCmd())

	return cmd
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (debug, info, warn, error)", s)
	}
}
