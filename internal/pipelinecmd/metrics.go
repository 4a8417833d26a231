package pipelinecmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/bookclean/internal/metrics"
)

type metricsOptions struct {
	datasetPath string
	outputDir   string
	only        []string
	minYear     *int64
	skipMissing bool
	profile     string
	summaryJSON string
}

func executeMetrics(ctx context.Context, opts metricsOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	profile, err := loadProfile(opts.profile)
	if err != nil {
		return err
	}
	metricOpts := metrics.OptionsFromProfile(profile.Metrics)
	metricOpts.MinYear = opts.minYear

	selected, err := metrics.Select(normalizeIDs(opts.only))
	if err != nil {
		return err
	}

	ds, err := loadDataset(opts.datasetPath)
	if err != nil {
		return err
	}

	slog.Info("Computing metrics", "metrics", len(selected))
	tables, err := metrics.ComputeAll(ctx, ds, selected, metricOpts, opts.skipMissing)
	if err != nil {
		return fmt.Errorf("failed to compute metrics: %w", err)
	}

	paths := make(map[string]string, len(tables))
	for _, t := range tables {
		path, err := t.WriteCSV(opts.outputDir)
		if err != nil {
			return err
		}
		paths[t.ID] = path
		slog.Debug("Wrote metric", "metric", t.ID, "path", path)
	}

	summary := metrics.Summarize(len(ds.Books), tables, paths, selected)
	summary.PrintSummary(os.Stdout)

	if opts.summaryJSON != "" {
		if err := summary.SaveToJSON(opts.summaryJSON); err != nil {
			return err
		}
	}

	fmt.Printf("\nMetric tables saved to: %s\n", opts.outputDir)
	return nil
}

// normalizeIDs upper-cases and trims metric ids given on the command line.
func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.ToUpper(strings.TrimSpace(id)); id != "" {
			out = append(out, id)
		}
	}
	return out
}
