package catalog

import (
	"sort"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Facets maps a filter-tag key to its distinct values in first-seen order.
type Facets map[string][]string

// BuildFacets collects the distinct filter values over a page of variants.
// Keys of a single variant are visited in sorted order so the value order is
// stable across calls.
func BuildFacets(variants []models.ProductVariant) Facets {
	facets := Facets{}
	seen := map[string]map[string]struct{}{}
	for _, v := range variants {
		keys := make([]string, 0, len(v.Filters))
		for key := range v.Filters {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			value := v.Filters[key]
			if seen[key] == nil {
				seen[key] = map[string]struct{}{}
			}
			if _, ok := seen[key][value]; ok {
				continue
			}
			seen[key][value] = struct{}{}
			facets[key] = append(facets[key], value)
		}
	}
	return facets
}
