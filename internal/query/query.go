// Package query provides the generic, order-preserving primitives the report
// catalogue composes: filtering, projection, grouping, sorting and
// aggregation over iter.Seq sources.
package query

import (
	"cmp"
	"iter"
	"math"
	"slices"
)

// Integer is the set of integer types Sum and Mean aggregate exactly.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Direction selects ascending or descending order for SortStableBy.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Group is one bucket produced by GroupBy.
type Group[K cmp.Ordered, V any] struct {
	Key    K
	Values []V
}

// Filter yields the values matching pred, in source order.
func Filter[T any](seq iter.Seq[T], pred func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range seq {
			if pred(v) && !yield(v) {
				return
			}
		}
	}
}

// Map projects every value through fn, in source order.
func Map[T, U any](seq iter.Seq[T], fn func(T) U) iter.Seq[U] {
	return func(yield func(U) bool) {
		for v := range seq {
			if !yield(fn(v)) {
				return
			}
		}
	}
}

// FilterMap projects values through fn and keeps those for which fn reports ok.
func FilterMap[T, U any](seq iter.Seq[T], fn func(T) (U, bool)) iter.Seq[U] {
	return func(yield func(U) bool) {
		for v := range seq {
			u, ok := fn(v)
			if ok && !yield(u) {
				return
			}
		}
	}
}

// Distinct yields each value once, keeping the first occurrence.
func Distinct[T comparable](seq iter.Seq[T]) iter.Seq[T] {
	return DistinctBy(seq, func(v T) T { return v })
}

// DistinctBy yields the first value seen for each key.
func DistinctBy[T any, K comparable](seq iter.Seq[T], key func(T) K) iter.Seq[T] {
	return func(yield func(T) bool) {
		seen := make(map[K]struct{})
		for v := range seq {
			k := key(v)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if !yield(v) {
				return
			}
		}
	}
}

// GroupBy buckets values by key. Groups are ordered by ascending key and the
// values inside a group are deduplicated, keeping first-seen order.
func GroupBy[T any, K cmp.Ordered, V comparable](seq iter.Seq[T], key func(T) K, value func(T) V) []Group[K, V] {
	index := make(map[K]int)
	seen := make(map[K]map[V]struct{})
	var groups []Group[K, V]
	for item := range seq {
		k := key(item)
		v := value(item)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			seen[k] = make(map[V]struct{})
			groups = append(groups, Group[K, V]{Key: k})
		}
		if _, dup := seen[k][v]; dup {
			continue
		}
		seen[k][v] = struct{}{}
		groups[i].Values = append(groups[i].Values, v)
	}
	slices.SortStableFunc(groups, func(a, b Group[K, V]) int { return cmp.Compare(a.Key, b.Key) })
	return groups
}

// SortStableBy collects seq and sorts it by key; ties keep source order.
func SortStableBy[T any, K cmp.Ordered](seq iter.Seq[T], key func(T) K, dir Direction) []T {
	out := slices.Collect(seq)
	slices.SortStableFunc(out, func(a, b T) int {
		c := cmp.Compare(key(a), key(b))
		if dir == Desc {
			return -c
		}
		return c
	})
	return out
}

// Count returns the number of values in seq.
func Count[T any](seq iter.Seq[T]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}

// Sum adds values exactly in the integer domain.
func Sum[T any, N Integer](seq iter.Seq[T], value func(T) N) int64 {
	var total int64
	for v := range seq {
		total += int64(value(v))
	}
	return total
}

// Mean returns the arithmetic mean of the projected values. ok is false when
// seq is empty.
func Mean[T any, N Integer](seq iter.Seq[T], value func(T) N) (mean float64, n int, ok bool) {
	var total int64
	for v := range seq {
		total += int64(value(v))
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return float64(total) / float64(n), n, true
}

// MinMax returns the smallest and largest projected values. ok is false when
// seq is empty.
func MinMax[T any, K cmp.Ordered](seq iter.Seq[T], key func(T) K) (lo, hi K, ok bool) {
	for v := range seq {
		k := key(v)
		if !ok {
			lo, hi, ok = k, k, true
			continue
		}
		lo = min(lo, k)
		hi = max(hi, k)
	}
	return lo, hi, ok
}

// MaxBy returns the first value with the largest key. ok is false when seq is
// empty.
func MaxBy[T any, K cmp.Ordered](seq iter.Seq[T], key func(T) K) (best T, ok bool) {
	var bestKey K
	for v := range seq {
		k := key(v)
		if !ok || k > bestKey {
			best, bestKey, ok = v, k, true
		}
	}
	return best, ok
}

// First returns the first value matching pred.
func First[T any](seq iter.Seq[T], pred func(T) bool) (T, bool) {
	for v := range seq {
		if pred(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Any reports whether some value matches pred.
func Any[T any](seq iter.Seq[T], pred func(T) bool) bool {
	_, ok := First(seq, pred)
	return ok
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
