// Package stats computes rollups over in-memory collections. Sums carry
// full float precision; rounding happens once, on the value that is
// returned to callers.
package stats

// Count returns the number of items matching pred, or all items when pred
// is nil.
func Count[T any](items []T, pred func(T) bool) int {
	if pred == nil {
		return len(items)
	}
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}

// Sum adds value over the items matching pred (all when pred is nil).
func Sum[T any](items []T, value func(T) float64, pred func(T) bool) float64 {
	var total float64
	for _, it := range items {
		if pred == nil || pred(it) {
			total += value(it)
		}
	}
	return total
}

// GroupSum sums value per key.
func GroupSum[T any, K comparable](items []T, key func(T) K, value func(T) float64) map[K]float64 {
	out := make(map[K]float64)
	for _, it := range items {
		out[key(it)] += value(it)
	}
	return out
}

// Average divides sum by count, returning 0 for an empty collection.
func Average(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Distinct counts the unique keys among items.
func Distinct[T any, K comparable](items []T, key func(T) K) int {
	seen := make(map[K]struct{}, len(items))
	for _, it := range items {
		seen[key(it)] = struct{}{}
	}
	return len(seen)
}
