package geo

import (
	"cmp"
	"slices"
)

// Ranked pairs an item with its distance from the query point.
type Ranked[T any] struct {
	Item       T
	DistanceKm float64
}

// Rank orders items by ascending distance from origin and keeps at most
// limit of them. Items at equal distance keep their input order. A
// non-positive limit yields no results.
func Rank[T any](origin Point, items []T, locate func(T) Point, limit int) []Ranked[T] {
	if limit <= 0 || len(items) == 0 {
		return nil
	}

	ranked := make([]Ranked[T], len(items))
	for i, item := range items {
		ranked[i] = Ranked[T]{Item: item, DistanceKm: Distance(origin, locate(item))}
	}

	slices.SortStableFunc(ranked, func(a, b Ranked[T]) int {
		return cmp.Compare(a.DistanceKm, b.DistanceKm)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
