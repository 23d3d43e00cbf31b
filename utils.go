package vecplot

import (
	"math"

	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Float | constraints.Integer
}

func Filter[T any](slice []T, predicate func(T) bool) []T {
	filtered := make([]T, 0, len(slice))
	for _, elem := range slice {
		if predicate(elem) {
			filtered = append(filtered, elem)
		}
	}
	return filtered
}

func Min[T Number](a T, b T) T {
	if a > b {
		return b
	}

	return a
}

func Max[T Number](a T, b T) T {
	if a < b {
		return b
	}

	return a
}

// Returns the smallest and largest value of a non-empty slice. ok is false if
// the slice is empty.
func Bounds[T Number](values []T) (lo T, hi T, ok bool) {
	if len(values) == 0 {
		return lo, hi, false
	}

	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = Min(lo, v)
		hi = Max(hi, v)
	}

	return lo, hi, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
