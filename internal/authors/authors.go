// Package authors normalizes free-text author lists and expands them into
// one edge per (book, author) pair.
package authors

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

// Separator is the canonical delimiter between author names.
const Separator = "/"

var (
	// Matches runs of whitespace.
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Matches any supported separator: the word "and", &, ;, |, + or /.
	// Commas are left alone since they appear inside names ("Smith, Jr.").
	separatorRe = regexp.MustCompile(`(?i)\s+and\s+|\s*[&;|+/]\s*`)
	// Matches repeated canonical separators left behind by "A & / B".
	repeatedSeparatorRe = regexp.MustCompile(`(\s*/\s*)+`)
)

// Clean applies NFC, collapses internal whitespace and trims the result.
// The bool is false when nothing is left.
func Clean(raw string) (string, bool) {
	s := norm.NFC.String(raw)
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Split tokenizes an author string on every supported separator. Tokens are
// trimmed and deduplicated, keeping the first occurrence of each name.
//
//	"Alice & Bob"     -> [Alice Bob]
//	"Alice and Bob"   -> [Alice Bob]
//	"Alice/Bob/Alice" -> [Alice Bob]
func Split(s string) []string {
	cleaned, ok := Clean(s)
	if !ok {
		return nil
	}

	standardized := separatorRe.ReplaceAllString(cleaned, Separator)
	standardized = repeatedSeparatorRe.ReplaceAllString(standardized, Separator)

	seen := make(map[string]struct{})
	var names []string
	for _, token := range strings.Split(standardized, Separator) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		names = append(names, token)
	}
	return names
}

// Canonical returns the deduplicated names joined with Separator, or false
// when the input holds no names.
func Canonical(s string) (string, bool) {
	names := Split(s)
	if len(names) == 0 {
		return "", false
	}
	return strings.Join(names, Separator), true
}

// Explode emits one edge per distinct author of each source, numbered from 1 in
// first-seen order. Sources without an id or without cleaned authors produce
// nothing.
func Explode(sources []models.AuthorSource) []models.AuthorEdge {
	var edges []models.AuthorEdge
	for _, src := range sources {
		if src.BookID == nil || src.AuthorsClean == nil {
			continue
		}
		raw := ""
		if src.AuthorsRaw != nil {
			raw = *src.AuthorsRaw
		}
		for i, name := range Split(*src.AuthorsClean) {
			edges = append(edges, models.AuthorEdge{
				BookID:     *src.BookID,
				Order:      i + 1,
				AuthorName: name,
				AuthorsRaw: raw,
			})
		}
	}
	return edges
}

// Sources projects cleaned books onto the fields Explode needs.
func Sources(books []models.Book) []models.AuthorSource {
	sources := make([]models.AuthorSource, len(books))
	for i := range books {
		id := books[i].BookID
		sources[i] = models.AuthorSource{
			BookID:       &id,
			AuthorsClean: books[i].AuthorsClean,
			AuthorsRaw:   books[i].AuthorsRaw,
		}
	}
	return sources
}
