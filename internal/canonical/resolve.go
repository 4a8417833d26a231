// Package canonical assigns each cleaned record to its canonical work.
package canonical

import (
	"log/slog"
	"slices"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// Index maps duplicate ids onto canonical ids.
type Index map[int64]int64

// BuildIndex drops pairs with a missing side. When a duplicate id is listed
// more than once, the first pair wins.
func BuildIndex(pairs []models.DuplicatePair) Index {
	idx := make(Index, len(pairs))
	dropped, conflicts := 0, 0
	for _, p := range pairs {
		if p.DuplicateID == nil || p.CanonicalID == nil {
			dropped++
			continue
		}
		if prev, ok := idx[*p.DuplicateID]; ok {
			if prev != *p.CanonicalID {
				conflicts++
			}
			continue
		}
		idx[*p.DuplicateID] = *p.CanonicalID
	}
	if dropped > 0 || conflicts > 0 {
		slog.Warn("Duplicate mapping had unusable pairs", "dropped_incomplete", dropped, "ignored_conflicts", conflicts)
	}
	return idx
}

// Resolve returns a copy of books with CanonicalBookID and IsDuplicate set.
// Redirects are followed one hop only: with A->B and B->C, A resolves to B.
// A nil or empty mapping makes every record its own canonical entry.
func Resolve(books []models.Book, pairs []models.DuplicatePair) []models.Book {
	idx := BuildIndex(pairs)
	out := slices.Clone(books)

	redirected := 0
	for i := range out {
		target := out[i].BookID
		if mapped, ok := idx[target]; ok {
			target = mapped
		}
		out[i].CanonicalBookID = &target
		out[i].IsDuplicate = target != out[i].BookID
		if out[i].IsDuplicate {
			redirected++
		}
	}

	slog.Debug("Resolved canonical ids", "records", len(out), "mapping_pairs", len(idx), "duplicates", redirected)
	return out
}
