package pager

// Identifiable is implemented by every record a loader can hold.
type Identifiable interface {
	GetID() int
}

// Merge appends incoming to existing, dropping any record whose ID has
// already been seen. The first occurrence keeps its position.
// A new slice is always returned so snapshots handed out earlier stay valid.
func Merge[T Identifiable](existing, incoming []T) []T {
	out := make([]T, 0, len(existing)+len(incoming))
	seen := make(map[int]struct{}, len(existing)+len(incoming))

	for _, list := range [][]T{existing, incoming} {
		for _, item := range list {
			id := item.GetID()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// Dedupe removes repeated IDs from a single page
func Dedupe[T Identifiable](items []T) []T {
	return Merge[T](nil, items)
}

// Upsert replaces the record with the same ID in place, or inserts it at the
// front (front=true) or back when absent.
func Upsert[T Identifiable](items []T, item T, front bool) []T {
	out := make([]T, 0, len(items)+1)
	replaced := false
	for _, existing := range items {
		if existing.GetID() == item.GetID() {
			out = append(out, item)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if replaced {
		return out
	}
	if front {
		return append([]T{item}, out...)
	}
	return append(out, item)
}

// Remove drops the record with the given ID
func Remove[T Identifiable](items []T, id int) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.GetID() != id {
			out = append(out, item)
		}
	}
	return out
}
