package shared

import (
	"github.com/zeusync/crdt/internal/core/version"
)

// findIndex resolves a logical index to the live item holding it and the
// offset inside that item. It returns nil when index is past the end.
func (t *AbstractType) findIndex(index int) (*Item, int) {
	for n := t.first(); n != nil; n = t.next(n) {
		if !n.live() {
			continue
		}
		if index < n.Length() {
			return n, index
		}
		index -= n.Length()
	}
	return nil, 0
}

// listGet returns the value at index in the current state.
func (t *AbstractType) listGet(index int) (any, bool) {
	if index < 0 {
		return nil, false
	}
	n, offset := t.findIndex(index)
	if n == nil {
		return nil, false
	}
	return n.content.Values()[offset], true
}

// listValues returns the live values in document order.
func (t *AbstractType) listValues() []any {
	out := make([]any, 0, t.length)
	for n := t.first(); n != nil; n = t.next(n) {
		if n.live() {
			out = append(out, n.content.Values()...)
		}
	}
	return out
}

// listSlice returns the live values in [start, end).
func (t *AbstractType) listSlice(start, end int) []any {
	var out []any
	for n := t.first(); n != nil && start < end; n = t.next(n) {
		if !n.live() {
			continue
		}
		if start < n.Length() {
			values := n.content.Values()
			stop := min(len(values), end)
			out = append(out, values[start:stop]...)
		}
		start = max(start-n.Length(), 0)
		end -= n.Length()
	}
	return out
}

// listForEach calls fn with each live value and its index.
func (t *AbstractType) listForEach(fn func(v any, i int)) {
	i := 0
	for n := t.first(); n != nil; n = t.next(n) {
		if !n.live() {
			continue
		}
		for _, v := range n.content.Values() {
			fn(v, i)
			i++
		}
	}
}

// listValuesAt returns the values visible under snap in document order.
func (t *AbstractType) listValuesAt(snap *version.Snapshot) []any {
	var out []any
	for n := t.first(); n != nil; n = t.next(n) {
		if n.Countable() && snap.IsVisible(n.ID) {
			out = append(out, n.content.Values()...)
		}
	}
	return out
}

// countLive sums the length of live countable items by walking the chain.
func (t *AbstractType) countLive() int {
	total := 0
	for n := t.first(); n != nil; n = t.next(n) {
		if n.live() {
			total += n.Length()
		}
	}
	return total
}
