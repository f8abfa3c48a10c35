package shared

import (
	"fmt"

	"github.com/zeusync/crdt/internal/core/version"
)

// insertAfter integrates values directly after left, or in front of the
// head when left is nil. Runs of JSON-like values share one item; binary
// buffers and nested types get an item each.
func (t *AbstractType) insertAfter(tx *Transaction, left *Item, values []any, kinds []ContentKind) {
	var right *version.ID
	if left == nil {
		right = clone(t.head)
	} else {
		right = clone(left.right)
	}

	place := func(c Content) {
		it := &Item{
			ID:          tx.nextID(),
			right:       clone(right),
			rightOrigin: clone(right),
			parent:      t.ref(),
			content:     c,
		}
		if left != nil {
			it.left = left.ID.Ref()
			it.origin = left.LastID().Ref()
		}
		it.integrate(tx, t)
		left = it
	}

	var batch []any
	flush := func() {
		if len(batch) > 0 {
			place(&ContentAny{values: batch})
			batch = nil
		}
	}
	for i, v := range values {
		if kinds[i] == KindAny {
			batch = append(batch, v)
			continue
		}
		flush()
		place(newContent(kinds[i], v))
	}
	flush()
}

// insert splices values in at index.
func (t *AbstractType) insert(tx *Transaction, index int, values []any) error {
	kinds, err := classifyAll(values)
	if err != nil {
		return err
	}
	if index < 0 || index > t.length {
		return fmt.Errorf("%w: insert at %d, length %d", ErrIndexOutOfRange, index, t.length)
	}
	if len(values) == 0 {
		return nil
	}
	if index == 0 {
		t.insertAfter(tx, nil, values, kinds)
		return nil
	}

	n, offset := t.findIndex(index - 1)
	if offset+1 < n.Length() {
		tx.doc.store.cleanStart(tx, n.ID.Offset(uint64(offset+1)))
	}
	t.insertAfter(tx, n, values, kinds)
	return nil
}

// deleteRange tombstones count live elements starting at index. Items
// already tombstoned when the range runs out stay tombstoned.
func (t *AbstractType) deleteRange(tx *Transaction, index, count int) error {
	if index < 0 || count < 0 {
		return fmt.Errorf("%w: delete %d at %d", ErrIndexOutOfRange, count, index)
	}
	if count == 0 {
		return nil
	}
	store := tx.doc.store

	n := t.first()
	for skip := index; n != nil && skip > 0; n = t.next(n) {
		if !n.live() {
			continue
		}
		if skip < n.Length() {
			store.cleanStart(tx, n.ID.Offset(uint64(skip)))
		}
		skip -= n.Length()
	}

	remaining := count
	for ; remaining > 0 && n != nil; n = t.next(n) {
		if !n.live() {
			continue
		}
		if remaining < n.Length() {
			store.cleanEnd(tx, n.ID.Offset(uint64(remaining-1)))
		}
		n.delete(tx)
		remaining -= n.Length()
	}

	if remaining > 0 {
		return fmt.Errorf("%w: delete %d at %d, %d past the end", ErrIndexOutOfRange, count, index, remaining)
	}
	return nil
}
