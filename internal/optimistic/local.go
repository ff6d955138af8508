package optimistic

// Local changes build a new slice and never write to their input.

// Edit returns a change that replaces the item keyed k with fn(item).
// Missing keys leave the collection as is.
func Edit[K comparable, T any](s *Store[K, T], k K, fn func(T) T) func([]T) []T {
	return func(items []T) []T {
		return replaceAt(items, indexOf(items, s.key, k), fn)
	}
}

// Toggle returns a change that flips the completion state of the item keyed k.
func Toggle[K comparable, T interface{ Toggled() T }](s *Store[K, T], k K) func([]T) []T {
	return Edit(s, k, func(v T) T { return v.Toggled() })
}

// Remove returns a change that drops the item keyed k.
func Remove[K comparable, T any](s *Store[K, T], k K) func([]T) []T {
	return func(items []T) []T {
		return removeAt(items, indexOf(items, s.key, k))
	}
}

// Prepend returns a change that puts v first.
func Prepend[T any](v T) func([]T) []T {
	return func(items []T) []T {
		out := make([]T, 0, len(items)+1)
		out = append(out, v)
		return append(out, items...)
	}
}

func replaceAt[T any](items []T, i int, fn func(T) T) []T {
	if i < 0 {
		return items
	}
	out := make([]T, len(items))
	copy(out, items)
	out[i] = fn(out[i])
	return out
}

func removeAt[T any](items []T, i int) []T {
	if i < 0 {
		return items
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

func insertAt[T any](items []T, i int, v T) []T {
	i = min(max(i, 0), len(items))
	out := make([]T, 0, len(items)+1)
	out = append(out, items[:i]...)
	out = append(out, v)
	return append(out, items[i:]...)
}

// restoreEntry puts the entry keyed k back to its state in snapshot,
// leaving every other entry of items as is. An entry absent from snapshot
// is dropped; one missing from items returns at its old index.
func restoreEntry[K comparable, T any](items, snapshot []T, key func(T) K, k K) []T {
	i := indexOf(items, key, k)
	j := indexOf(snapshot, key, k)
	switch {
	case j < 0:
		return removeAt(items, i)
	case i < 0:
		return insertAt(items, j, snapshot[j])
	default:
		return replaceAt(items, i, func(T) T { return snapshot[j] })
	}
}
