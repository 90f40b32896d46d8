package utils

import (
	"cmp"
	"slices"
)

// SliceUnorderedEqual compares if both slices are equal with unordered positions
func SliceUnorderedEqual[T cmp.Ordered](a []T, b []T) bool {
	sortedA := slices.Clone(a)
	slices.Sort(sortedA)
	sortedB := slices.Clone(b)
	slices.Sort(sortedB)

	return slices.Equal(sortedA, sortedB)
}

// SliceUnique gets unique elements of the input slice.
func SliceUnique[T cmp.Ordered](input []T) []T {
	if len(input) == 0 {
		return []T{}
	}

	valueMap := make(map[T]bool)
	for _, elem := range input {
		valueMap[elem] = true
	}

	return GetSortedKeys(valueMap)
}

// GetSortedKeys returns the keys of m sorted ascending, used wherever map
// iteration order must be deterministic (XML field encoding, error
// messages listing candidate names).
func GetSortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}
