// Package cleaning turns repaired raw records into the typed, enriched and
// canonicalized book dataset.
package cleaning

import (
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/bookclean/internal/canonical"
	"github.com/lehigh-university-libraries/bookclean/internal/config"
	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// Process runs the whole cleaning pipeline: normalization, the enrichment
// steps, canonical resolution and validation. A nil mapping means every
// record is its own canonical entry. Nothing is returned unless every stage
// succeeds.
func Process(records []models.RawRecord, mapping []models.DuplicatePair, profile config.Profile) ([]models.Book, error) {
	books, err := Normalize(records, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize records: %w", err)
	}
	slog.Debug("Normalized records", "rows", len(books))

	books = Enrich(books, profile)
	books = canonical.Resolve(books, mapping)

	if err := Validate(books, profile); err != nil {
		return nil, err
	}
	return books, nil
}
