package pipelinecmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/bookclean/internal/dataset"
	"github.com/lehigh-university-libraries/bookclean/internal/models"
	"github.com/lehigh-university-libraries/bookclean/internal/store"
)

type loadOptions struct {
	datasetPath string
	edgesPath   string
	mappingCSV  string
	database    string
}

func executeLoad(ctx context.Context, opts loadOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ds, err := loadDataset(opts.datasetPath)
	if err != nil {
		return err
	}

	var edges []models.AuthorEdge
	if opts.edgesPath != "" {
		edges, err = dataset.LoadEdges(opts.edgesPath)
		if err != nil {
			return fmt.Errorf("failed to load author edges: %w", err)
		}
	} else {
		edges = explodeUnique(ds.Books)
	}

	var mapping []models.DuplicatePair
	if opts.mappingCSV != "" {
		mapping, err = readMappingIfPresent(opts.mappingCSV)
		if err != nil {
			return err
		}
	}

	s, err := store.Open(opts.database, slog.Default())
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.LoadBooks(ctx, ds.Books); err != nil {
		return err
	}
	if _, err := s.LoadAuthorEdges(ctx, edges); err != nil {
		return err
	}
	if _, err := s.LoadDuplicateMapping(ctx, mapping); err != nil {
		return err
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nLoaded into %s:\n", opts.database)
	for _, table := range store.Tables {
		fmt.Printf("  %-22s %d rows\n", table, counts[table])
	}
	return nil
}
