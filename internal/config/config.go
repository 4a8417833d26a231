// Package config holds the cleaning and metric thresholds used by the pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ProfileEnv names the environment variable holding the default profile path.
const ProfileEnv = "BOOKCLEAN_PROFILE"

// Profile is the full set of dataset-specific constants. Default() reproduces
// the values the published outputs were generated with.
type Profile struct {
	RatingsCountCap     int64 `yaml:"ratings_count_cap" validate:"gt=0"`
	TextReviewsCountCap int64 `yaml:"text_reviews_count_cap" validate:"gt=0"`
	MultiVolumePages    int64 `yaml:"multi_volume_pages" validate:"gt=0,gtfield=ShortBookPages"`
	ShortBookPages      int64 `yaml:"short_book_pages" validate:"gt=0"`

	MinPublicationYear int `yaml:"min_publication_year" validate:"gt=0"`
	FutureYearBuffer   int `yaml:"future_year_buffer" validate:"gte=0"`
	// ReferenceYear anchors the future-year check; 0 means the current year.
	ReferenceYear int `yaml:"reference_year" validate:"gte=0"`

	DateFormats []string `yaml:"date_formats" validate:"min=1,dive,required"`

	Metrics MetricDefaults `yaml:"metrics"`
}

// MetricDefaults are the floors and sizes used by the metric catalog.
type MetricDefaults struct {
	AuthorMinRatings   int64 `yaml:"author_min_ratings" validate:"gte=0"`
	AuthorTopN         int   `yaml:"author_top_n" validate:"gt=0"`
	BookTopN           int   `yaml:"book_top_n" validate:"gt=0"`
	LanguageMinTitles  int   `yaml:"language_min_titles" validate:"gte=0"`
	PublisherMinTitles int   `yaml:"publisher_min_titles" validate:"gte=0"`
	RollingWindow      int   `yaml:"rolling_window" validate:"gt=0"`
}

// Default returns the reference profile.
func Default() Profile {
	return Profile{
		RatingsCountCap:     597_244,
		TextReviewsCountCap: 14_812,
		MultiVolumePages:    2_000,
		ShortBookPages:      10,
		MinPublicationYear:  1800,
		FutureYearBuffer:    2,
		DateFormats: []string{
			"1/2/2006",
			"1/2/06",
			"January 2006",
			"2006-01-02",
			"2006",
		},
		Metrics: MetricDefaults{
			AuthorMinRatings:   5_000,
			AuthorTopN:         15,
			BookTopN:           20,
			LanguageMinTitles:  50,
			PublisherMinTitles: 5,
			RollingWindow:      3,
		},
	}
}

// MaxPublicationYear is the last year accepted by the future-year check.
func (p Profile) MaxPublicationYear() int {
	year := p.ReferenceYear
	if year == 0 {
		year = time.Now().Year()
	}
	return year + p.FutureYearBuffer
}

// Validate checks the profile for internally inconsistent values.
func (p Profile) Validate() error {
	v := validator.New()
	if err := v.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q (%s)", fe.Namespace(), fe.Tag(), fe.Param()))
		}
		return fmt.Errorf("invalid profile: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Load reads a YAML profile. Keys absent from the file keep their default values.
// An empty path returns the default profile.
func Load(path string) (Profile, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
