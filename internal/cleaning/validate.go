package cleaning

import (
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/bookclean/internal/config"
	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// Check is one post-pipeline invariant.
type Check struct {
	Name string
	Run  func([]models.Book, config.Profile) error
}

// Checks lists the invariants every cleaned dataset must satisfy.
var Checks = []Check{
	{Name: "average_rating_bounds", Run: checkRatingBounds},
	{Name: "num_pages_cap", Run: checkPageCap},
	{Name: "engagement_caps", Run: checkEngagementCaps},
	{Name: "canonical_id_present", Run: checkCanonicalIDs},
}

// Validate runs Checks in order and stops at the first failure.
func Validate(books []models.Book, profile config.Profile) error {
	for _, c := range Checks {
		if err := c.Run(books, profile); err != nil {
			return err
		}
		slog.Info("Validation passed", "check", c.Name)
	}
	return nil
}

func checkRatingBounds(books []models.Book, _ config.Profile) error {
	present := 0
	for _, b := range books {
		if b.AverageRating == nil {
			continue
		}
		present++
		if *b.AverageRating < MinRating || *b.AverageRating > MaxRating {
			return &ValidationError{
				Check:  "average_rating_bounds",
				Detail: fmt.Sprintf("book %d has rating %v outside [%v, %v]", b.BookID, *b.AverageRating, MinRating, MaxRating),
			}
		}
	}
	if present == 0 {
		return &ValidationError{Check: "average_rating_bounds", Detail: "average_rating only contains missing data"}
	}
	return nil
}

func checkPageCap(books []models.Book, profile config.Profile) error {
	for _, b := range books {
		if b.NumPagesCapped != nil && *b.NumPagesCapped > profile.MultiVolumePages {
			return &ValidationError{
				Check:  "num_pages_cap",
				Detail: fmt.Sprintf("num_pages_capped exceeds cap of %d (book %d)", profile.MultiVolumePages, b.BookID),
			}
		}
	}
	return nil
}

func checkEngagementCaps(books []models.Book, profile config.Profile) error {
	for _, b := range books {
		if b.RatingsCountCapped != nil && *b.RatingsCountCapped > profile.RatingsCountCap {
			return &ValidationError{
				Check:  "engagement_caps",
				Detail: fmt.Sprintf("ratings_count_capped exceeds cap of %d (book %d)", profile.RatingsCountCap, b.BookID),
			}
		}
		if b.TextReviewsCountCapped != nil && *b.TextReviewsCountCapped > profile.TextReviewsCountCap {
			return &ValidationError{
				Check:  "engagement_caps",
				Detail: fmt.Sprintf("text_reviews_count_capped exceeds cap of %d (book %d)", profile.TextReviewsCountCap, b.BookID),
			}
		}
	}
	return nil
}

func checkCanonicalIDs(books []models.Book, _ config.Profile) error {
	missing := 0
	for _, b := range books {
		if b.CanonicalBookID == nil {
			missing++
			continue
		}
		if b.IsDuplicate != (*b.CanonicalBookID != b.BookID) {
			return &ValidationError{
				Check:  "canonical_id_present",
				Detail: fmt.Sprintf("book %d has is_duplicate=%v with canonical id %d", b.BookID, b.IsDuplicate, *b.CanonicalBookID),
			}
		}
	}
	if missing > 0 {
		return &ValidationError{Check: "canonical_id_present", Detail: fmt.Sprintf("canonical_book_id contains %d null rows", missing)}
	}
	return nil
}
