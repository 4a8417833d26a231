package pipelinecmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/bookclean/internal/authors"
	"github.com/lehigh-university-libraries/bookclean/internal/dataset"
	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

func executeAuthors(datasetPath, output string) error {
	ds, err := loadDataset(datasetPath)
	if err != nil {
		return err
	}
	for _, col := range []string{"authors_clean", "authors_raw"} {
		if !ds.Has(col) {
			return fmt.Errorf("dataset %s has no %s column", datasetPath, col)
		}
	}

	edges := explodeUnique(ds.Books)
	if err := dataset.WriteEdges(output, edges); err != nil {
		return err
	}

	fmt.Printf("\nWrote %d author rows for %d books -> %s\n", len(edges), len(ds.Books), output)
	return nil
}

// explodeUnique explodes authors once per book_id.
func explodeUnique(books []models.Book) []models.AuthorEdge {
	seen := make(map[int64]bool, len(books))
	unique := make([]models.Book, 0, len(books))
	for _, b := range books {
		if seen[b.BookID] {
			continue
		}
		seen[b.BookID] = true
		unique = append(unique, b)
	}
	return authors.Explode(authors.Sources(unique))
}
