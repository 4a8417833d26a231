package pipelinecmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookclean/internal/dataset"
	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var datasetPath string
	var limit int
	var interactive bool
	var showFlags bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect cleaned records",
		Long: `Print records from a cleaned dataset (CSV, Parquet or JSONL), including the
derived flags and canonical identity.`,
		Example: `  # Inspect the first 5 records interactively
  bookclean inspect --dataset data/derived/books_clean.parquet --limit 5 --interactive

  # Hide the derived flag columns
  bookclean inspect --flags=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return executeInspect(ctx, os.Stdout, os.Stdin, datasetPath, limit, interactive, showFlags)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", defaultCleaned, "Cleaned dataset path")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of records to inspect (0 for all)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Pause after each record (press Enter to continue)")
	cmd.Flags().BoolVar(&showFlags, "flags", true, "Show the derived flag and bucket columns")

	return cmd
}

func executeInspect(ctx context.Context, w io.Writer, in io.Reader, datasetPath string, limit int, interactive, showFlags bool) error {
	ds, err := dataset.NewLoader(datasetPath).LoadSample(limit)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	fmt.Fprintf(w, "Loaded %d records from %s\n", len(ds.Books), datasetPath)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)

	reader := bufio.NewReader(in)

	for i, b := range ds.Books {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "\nInspection interrupted.")
			return nil
		default:
		}

		fmt.Fprintf(w, "RECORD %d/%d\n", i+1, len(ds.Books))
		fmt.Fprintln(w, strings.Repeat("-", 80))
		printBook(w, b, showFlags)
		fmt.Fprintln(w)

		if !interactive {
			continue
		}

		fmt.Fprint(w, "Press Enter to continue to next record (or Ctrl+C to quit)...")
		inputCh := make(chan struct{})
		go func() {
			_, _ = reader.ReadString('\n')
			close(inputCh)
		}()

		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "\nInspection interrupted.")
			return nil
		case <-inputCh:
			fmt.Fprintln(w)
		}
	}

	return nil
}

func printBook(w io.Writer, b models.Book, showFlags bool) {
	fmt.Fprintf(w, "Book ID:        %d\n", b.BookID)
	fmt.Fprintf(w, "Title:          %s\n", text(b.Title))
	fmt.Fprintf(w, "Authors:        %s\n", text(b.Authors))
	fmt.Fprintf(w, "Authors (raw):  %s\n", text(b.AuthorsRaw))
	fmt.Fprintf(w, "Rating:         %s\n", number(b.AverageRating))
	fmt.Fprintf(w, "ISBN / ISBN13:  %s / %s\n", text(b.ISBN), text(b.ISBN13))
	fmt.Fprintf(w, "Language:       %s\n", text(b.LanguageCode))
	fmt.Fprintf(w, "Pages:          %s (raw %s)\n", number(b.NumPages), number(b.NumPagesRaw))
	fmt.Fprintf(w, "Ratings:        %s (capped %s)\n", number(b.RatingsCount), number(b.RatingsCountCapped))
	fmt.Fprintf(w, "Text Reviews:   %s (capped %s)\n", number(b.TextReviewsCount), number(b.TextReviewsCountCapped))
	date := "-"
	if b.PublicationDate != nil {
		date = b.PublicationDate.Format(dataset.DateLayout)
	}
	fmt.Fprintf(w, "Published:      %s (year %s)\n", date, number(b.PublicationYear))
	fmt.Fprintf(w, "Publisher:      %s\n", text(b.Publisher))
	fmt.Fprintf(w, "Canonical ID:   %s (duplicate: %t)\n", number(b.CanonicalBookID), b.IsDuplicate)

	if showFlags {
		bucket := "-"
		if b.PageLengthBucket != nil {
			bucket = string(*b.PageLengthBucket)
		}
		fmt.Fprintf(w, "Year Flag:      %s\n", text(b.PublicationYearFlag))
		fmt.Fprintf(w, "Rating Flag:    %s\n", text(b.AverageRatingFlag))
		fmt.Fprintf(w, "Page Bucket:    %s\n", bucket)
		fmt.Fprintf(w, "Media Hint:     %s\n", text(b.MediaTypeHint))
	}
}

func text(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

func number[T int64 | float64](v *T) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
