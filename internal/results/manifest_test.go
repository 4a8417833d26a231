package results

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/bookclean/internal/cleaning"
	"github.com/lehigh-university-libraries/bookclean/internal/config"
	"github.com/lehigh-university-libraries/bookclean/internal/ingest"
)

func TestNewManifest(t *testing.T) {
	m := NewManifest("clean", config.Default())

	if _, err := uuid.Parse(m.RunID); err != nil {
		t.Errorf("Expected a UUID run id, got %q", m.RunID)
	}
	if m.Command != "clean" {
		t.Errorf("Expected command clean, got %s", m.Command)
	}

	other := NewManifest("clean", config.Default())
	if other.RunID == m.RunID {
		t.Error("Expected distinct run ids")
	}
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := NewManifest("clean", config.Default())
	m.AddInput("books", "books.csv")
	m.AddOutput("cleaned", filepath.Join(dir, "books_clean.parquet"))
	m.Ingest = &ingest.Stats{TotalRows: 11127, RepairedRows: 4}
	m.Cleaning = &cleaning.QuickStats{
		RawRows:     11127,
		CleanedRows: 11127,
		ValueCounts: map[string]map[string]int{
			"average_rating_flag": {"placeholder_zero": 25, cleaning.MissingLabel: 11102},
		},
	}

	path := filepath.Join(dir, "nested", ManifestName)
	if err := m.SaveToYAML(path); err != nil {
		t.Fatalf("Failed to save manifest: %v", err)
	}

	loaded, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("Failed to load manifest: %v", err)
	}

	if loaded.RunID != m.RunID {
		t.Errorf("Expected run id %s, got %s", m.RunID, loaded.RunID)
	}
	if !filepath.IsAbs(loaded.Inputs["books"]) {
		t.Errorf("Expected absolute input path, got %s", loaded.Inputs["books"])
	}
	if loaded.Ingest == nil || loaded.Ingest.RepairedRows != 4 {
		t.Errorf("Expected 4 repaired rows, got %+v", loaded.Ingest)
	}
	if got := loaded.Cleaning.ValueCounts["average_rating_flag"]["placeholder_zero"]; got != 25 {
		t.Errorf("Expected 25 placeholder ratings, got %d", got)
	}
	if loaded.Profile.RatingsCountCap != config.Default().RatingsCountCap {
		t.Errorf("Expected profile to round trip, got cap %d", loaded.Profile.RatingsCountCap)
	}
}

func TestLoadManifestMissing(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing manifest")
	}
}
