package aggregate

import "sort"

// Rank sorts a copy of items by count, highest first, keeping input order
// among equal counts, and truncates to n. n <= 0 keeps every item.
func Rank[T any, N int | float64](items []T, count func(T) N, n int) []T {
	out := make([]T, len(items))
	copy(out, items)

	sort.SliceStable(out, func(i, j int) bool {
		return count(out[i]) > count(out[j])
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
