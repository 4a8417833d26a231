// Package pipelinecmd implements the bookclean subcommands.
package pipelinecmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/bookclean/internal/cleaning"
	"github.com/lehigh-university-libraries/bookclean/internal/config"
	"github.com/lehigh-university-libraries/bookclean/internal/dataset"
	"github.com/lehigh-university-libraries/bookclean/internal/ingest"
	"github.com/lehigh-university-libraries/bookclean/internal/models"
	"github.com/lehigh-university-libraries/bookclean/internal/results"
)

type cleanOptions struct {
	booksCSV    string
	mappingCSV  string
	output      string
	limit       int
	skipMapping bool
	profile     string
	manifest    string
}

func executeClean(opts cleanOptions) error {
	profile, err := loadProfile(opts.profile)
	if err != nil {
		return err
	}

	slog.Info("Loading raw books", "path", opts.booksCSV)
	records, stats, err := ingest.ReadBooksFile(opts.booksCSV)
	if err != nil {
		return fmt.Errorf("failed to read books: %w", err)
	}
	slog.Info("Raw books loaded", "total_rows", stats.TotalRows, "repaired_rows", stats.RepairedRows)

	if opts.limit > 0 && len(records) > opts.limit {
		records = records[:opts.limit]
		slog.Info("Limiting rows", "limit", opts.limit)
	}

	var mapping []models.DuplicatePair
	if !opts.skipMapping {
		mapping, err = readMappingIfPresent(opts.mappingCSV)
		if err != nil {
			return err
		}
	}

	books, err := cleaning.Process(records, mapping, profile)
	if err != nil {
		return fmt.Errorf("cleaning failed: %w", err)
	}

	quick := cleaning.Summarize(len(records), books)
	quick.Log()

	if err := dataset.WriteBooks(opts.output, books); err != nil {
		return err
	}

	manifest := results.NewManifest("clean", profile)
	manifest.AddInput("books_csv", opts.booksCSV)
	if !opts.skipMapping && mapping != nil {
		manifest.AddInput("mapping_csv", opts.mappingCSV)
	}
	manifest.AddOutput("cleaned", opts.output)
	manifest.Ingest = &stats
	manifest.Cleaning = &quick

	manifestPath := opts.manifest
	if manifestPath == "" {
		manifestPath = filepath.Join(filepath.Dir(opts.output), results.ManifestName)
	}
	if err := manifest.SaveToYAML(manifestPath); err != nil {
		return err
	}

	fmt.Printf("\nCleaned %d rows -> %s\n", len(books), opts.output)
	return nil
}

// readMappingIfPresent returns nil pairs with a warning when path does not exist.
func readMappingIfPresent(path string) ([]models.DuplicatePair, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Duplicate mapping not found; proceeding without canonicalization", "path", path)
		return nil, nil
	}
	pairs, err := ingest.ReadDuplicateMappingFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read duplicate mapping: %w", err)
	}
	slog.Info("Duplicate mapping loaded", "path", path, "pairs", len(pairs))
	return pairs, nil
}

func loadProfile(path string) (config.Profile, error) {
	profile, err := config.Load(path)
	if err != nil {
		return profile, err
	}
	if err := profile.Validate(); err != nil {
		return profile, err
	}
	if path != "" {
		slog.Info("Using profile", "path", path)
	}
	return profile, nil
}

func loadDataset(path string) (*models.Dataset, error) {
	ds, err := dataset.NewLoader(path).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	slog.Info("Dataset loaded", "path", path, "rows", len(ds.Books))
	return ds, nil
}
