package feed

// Group partitions items into runs of adjacent elements that share the
// same key. A key change always starts a new group, so equal keys that are
// not adjacent end up in separate groups. Order is preserved and no group
// is empty.
func Group[T any, K comparable](items []T, key func(T) K) [][]T {
	var groups [][]T
	for i, item := range items {
		k := key(item)
		if i == 0 || k != key(items[i-1]) {
			groups = append(groups, []T{item})
			continue
		}
		last := len(groups) - 1
		groups[last] = append(groups[last], item)
	}
	return groups
}
