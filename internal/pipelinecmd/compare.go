package pipelinecmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/bookclean/internal/compare"
	"github.com/lehigh-university-libraries/bookclean/internal/metrics"
	"github.com/lehigh-university-libraries/bookclean/internal/store"
)

type compareOptions struct {
	database    string
	datasetPath string
	outputDir   string
	only        []string
	tolerance   float64
	minYear     *int64
	profile     string
}

func executeCompare(ctx context.Context, w io.Writer, opts compareOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	profile, err := loadProfile(opts.profile)
	if err != nil {
		return err
	}
	metricOpts := metrics.OptionsFromProfile(profile.Metrics)
	metricOpts.MinYear = opts.minYear

	cases, err := compare.SelectCases(normalizeIDs(opts.only))
	if err != nil {
		return err
	}
	ids := make([]string, len(cases))
	for i, c := range cases {
		ids[i] = c.MetricID
	}
	selected, err := metrics.Select(ids)
	if err != nil {
		return err
	}

	if _, err := os.Stat(opts.database); err != nil {
		return fmt.Errorf("database not found: %s (run bookclean load first)", opts.database)
	}
	s, err := store.Open(opts.database, slog.Default())
	if err != nil {
		return err
	}
	defer s.Close()

	ds, err := loadDataset(opts.datasetPath)
	if err != nil {
		return err
	}
	goTables, err := metrics.ComputeAll(ctx, ds, selected, metricOpts, false)
	if err != nil {
		return fmt.Errorf("failed to compute metrics: %w", err)
	}

	byID := make(map[string]*metrics.Table, len(goTables))
	for _, t := range goTables {
		byID[t.ID] = t
	}

	var compared []compare.Result
	for _, c := range cases {
		slog.Info("Running SQL", "metric", c.MetricID)
		sqlTable, err := s.RunMetric(ctx, c.MetricID, metricOpts)
		if err != nil {
			return err
		}
		result, err := compare.Tables(c, sqlTable, byID[c.MetricID], opts.tolerance)
		if err != nil {
			return err
		}
		compared = append(compared, result)
	}

	if _, err := compare.WriteSummary(opts.outputDir, compared); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%-42s %8s %8s %8s %6s %10s\n", "comparison", "sql", "go", "shared", "match", "mismatches")
	failed := 0
	for _, r := range compared {
		match := "no"
		if r.RowMatch {
			match = "yes"
		}
		fmt.Fprintf(w, "%-42s %8d %8d %8d %6s %10d\n", r.Name, r.RowsSQL, r.RowsGo, r.SharedRows, match, r.ValueMismatches)
		if !r.OK() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d comparisons found differences", failed, len(compared))
	}
	slog.Info("All SQL vs Go comparisons matched")
	return nil
}
