package authors

import (
	"slices"
	"testing"

	"github.com/lehigh-university-libraries/bookclean/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestSplit(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Alice & Bob", []string{"Alice", "Bob"}},
		{"Alice and Bob", []string{"Alice", "Bob"}},
		{"Alice AND Bob", []string{"Alice", "Bob"}},
		{"Alice/Bob", []string{"Alice", "Bob"}},
		{"Alice ; Bob | Carol + Dan", []string{"Alice", "Bob", "Carol", "Dan"}},
		{"Alice & / Bob", []string{"Alice", "Bob"}},
		{"Bob/Alice/Bob", []string{"Bob", "Alice"}},
		{"  Sam   Smith,  Jr. ", []string{"Sam Smith, Jr."}},
		{"Andrew Anderson", []string{"Andrew Anderson"}},
		{"", nil},
		{" / & ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Split(tt.input)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSplit_ComposesUnicode(t *testing.T) {
	decomposed := "Mary GrandPre\u0301"
	composed := "Mary GrandPr\u00e9"
	got := Split(decomposed + "/" + composed)
	if len(got) != 1 || got[0] != composed {
		t.Errorf("Expected one composed name, got %q", got)
	}
}

func TestCanonical_IsIdempotent(t *testing.T) {
	inputs := []string{"Alice & Bob and Carol", "J.K. Rowling", "A;B;A"}
	for _, input := range inputs {
		once, ok := Canonical(input)
		if !ok {
			t.Fatalf("Expected names in %q", input)
		}
		twice, _ := Canonical(once)
		if once != twice {
			t.Errorf("Expected %q to be stable, got %q", once, twice)
		}
	}

	if _, ok := Canonical("   "); ok {
		t.Error("Expected blank input to have no canonical form")
	}
}

func TestExplode(t *testing.T) {
	sources := []models.AuthorSource{
		{BookID: ptr(int64(1)), AuthorsClean: ptr("Alice & Bob"), AuthorsRaw: ptr("Alice  &  Bob")},
		{BookID: ptr(int64(2)), AuthorsClean: ptr("Carol"), AuthorsRaw: nil},
		{BookID: nil, AuthorsClean: ptr("Skipped")},
		{BookID: ptr(int64(3)), AuthorsClean: nil, AuthorsRaw: ptr("raw only")},
	}

	edges := Explode(sources)
	if len(edges) != 3 {
		t.Fatalf("Expected 3 edges, got %d: %+v", len(edges), edges)
	}

	expected := []models.AuthorEdge{
		{BookID: 1, Order: 1, AuthorName: "Alice", AuthorsRaw: "Alice  &  Bob"},
		{BookID: 1, Order: 2, AuthorName: "Bob", AuthorsRaw: "Alice  &  Bob"},
		{BookID: 2, Order: 1, AuthorName: "Carol", AuthorsRaw: ""},
	}
	for i := range expected {
		if edges[i] != expected[i] {
			t.Errorf("Edge %d: expected %+v, got %+v", i, expected[i], edges[i])
		}
	}
}

func TestExplode_SingleNormalizedAuthor(t *testing.T) {
	name, _ := Canonical("Ursula K. Le Guin")
	edges := Explode([]models.AuthorSource{{BookID: ptr(int64(7)), AuthorsClean: &name}})
	if len(edges) != 1 {
		t.Errorf("Expected exactly one edge, got %d", len(edges))
	}
}

func TestSources(t *testing.T) {
	books := []models.Book{
		{BookID: 4, AuthorsClean: ptr("A/B"), AuthorsRaw: ptr("A & B")},
		{BookID: 5},
	}
	sources := Sources(books)
	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(sources))
	}
	if *sources[0].BookID != 4 || *sources[1].BookID != 5 {
		t.Errorf("Expected ids 4 and 5, got %d and %d", *sources[0].BookID, *sources[1].BookID)
	}
	if sources[1].AuthorsClean != nil {
		t.Errorf("Expected missing authors to stay nil")
	}
}
