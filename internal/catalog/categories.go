package catalog

import (
	"sort"

	"github.com/rabiehflowers/storefront/internal/domain"
)

// baselineCategories are always offered, regardless of catalog contents.
var baselineCategories = []string{
	"Roses",
	"Plants",
	"Indoor",
	"Outdoor",
	"Arrangement",
	"Bouquet",
}

// DeriveCategories returns the sorted union of the baseline labels and every
// distinct category present in the given catalog.
func DeriveCategories(flowers []domain.Flower) []string {
	seen := make(map[string]struct{}, len(baselineCategories)+len(flowers))
	for _, c := range baselineCategories {
		seen[c] = struct{}{}
	}
	for _, f := range flowers {
		seen[f.Category] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Categories returns the derived category set for the current catalog.
func (s *Store) Categories() []string {
	return DeriveCategories(s.List())
}
