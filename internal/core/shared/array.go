package shared

import (
	"fmt"
	"iter"
	"slices"

	"github.com/zeusync/crdt/internal/core/version"
	"github.com/zeusync/crdt/pkg/sequence"
)

// Array is a shared sequence of values. A detached array keeps its values
// locally until it is inserted into an integrated container, after which
// every mutation needs a transaction of the owning document.
type Array struct {
	AbstractType
	prelim []any
}

var _ Type = (*Array)(nil)

func NewArray() *Array {
	a := &Array{}
	a.init(a)
	return a
}

func (a *Array) TypeRef() TypeRef { return TypeRefArray }

func (a *Array) integrate(tx *Transaction, item *Item) {
	a.attach(tx.doc, "", &item.ID)
	values := a.prelim
	a.prelim = nil
	if len(values) > 0 {
		kinds, err := classifyAll(values)
		if err != nil {
			panic(fmt.Errorf("shared: preliminary array content passed the embed check: %w", err))
		}
		a.insertAfter(tx, nil, values, kinds)
	}
}

// Insert places values at index. Values already in place stay in place when
// an error is returned.
func (a *Array) Insert(tx *Transaction, index int, values ...any) error {
	if !a.Integrated() {
		return a.prelimInsert(index, values)
	}
	if err := tx.check(&a.AbstractType); err != nil {
		return err
	}
	return a.insert(tx, index, values)
}

// Push appends values.
func (a *Array) Push(tx *Transaction, values ...any) error {
	return a.Insert(tx, a.Len(), values...)
}

// Unshift prepends values.
func (a *Array) Unshift(tx *Transaction, values ...any) error {
	return a.Insert(tx, 0, values...)
}

// Delete removes count values starting at index.
func (a *Array) Delete(tx *Transaction, index, count int) error {
	if !a.Integrated() {
		return a.prelimDelete(index, count)
	}
	if err := tx.check(&a.AbstractType); err != nil {
		return err
	}
	return a.deleteRange(tx, index, count)
}

func (a *Array) prelimInsert(index int, values []any) error {
	if _, err := classifyAll(values); err != nil {
		return err
	}
	if err := checkEmbed(slices.Concat(a.prelim, values), a); err != nil {
		return err
	}
	if index < 0 || index > len(a.prelim) {
		return fmt.Errorf("%w: insert at %d, length %d", ErrIndexOutOfRange, index, len(a.prelim))
	}
	a.prelim = slices.Insert(a.prelim, index, values...)
	return nil
}

func (a *Array) prelimDelete(index, count int) error {
	if index < 0 || count < 0 || index+count > len(a.prelim) {
		return fmt.Errorf("%w: delete %d at %d, length %d", ErrIndexOutOfRange, count, index, len(a.prelim))
	}
	a.prelim = slices.Delete(a.prelim, index, index+count)
	return nil
}

func (a *Array) Len() int {
	if !a.Integrated() {
		return len(a.prelim)
	}
	return a.length
}

func (a *Array) Get(index int) (any, bool) {
	if !a.Integrated() {
		if index < 0 || index >= len(a.prelim) {
			return nil, false
		}
		return a.prelim[index], true
	}
	return a.listGet(index)
}

func (a *Array) ToSlice() []any {
	if !a.Integrated() {
		return slices.Clone(a.prelim)
	}
	return a.listValues()
}

// Slice returns the values in [start, end). Negative bounds count from the
// end; bounds past either end are clamped.
func (a *Array) Slice(start, end int) []any {
	n := a.Len()
	clamp := func(i int) int {
		if i < 0 {
			i += n
		}
		return min(max(i, 0), n)
	}
	start, end = clamp(start), clamp(end)
	if start >= end {
		return []any{}
	}
	if !a.Integrated() {
		return slices.Clone(a.prelim[start:end])
	}
	return a.listSlice(start, end)
}

func (a *Array) ForEach(fn func(v any, i int)) {
	if !a.Integrated() {
		for i, v := range a.prelim {
			fn(v, i)
		}
		return
	}
	a.listForEach(fn)
}

// Map returns fn applied to every value.
func (a *Array) Map(fn func(v any, i int) any) []any {
	out := make([]any, 0, a.Len())
	a.ForEach(func(v any, i int) {
		out = append(out, fn(v, i))
	})
	return out
}

// ToSliceAt returns the values as they were when snap was taken. Detached
// arrays have no history and return nothing.
func (a *Array) ToSliceAt(snap *version.Snapshot) []any {
	if !a.Integrated() || snap == nil {
		return []any{}
	}
	return a.listValuesAt(snap)
}

func (a *Array) Iterator() *Iterator {
	if !a.Integrated() {
		return newPrelimIterator(slices.Clone(a.prelim))
	}
	return newIterator(&a.AbstractType)
}

// All ranges over the values lazily.
func (a *Array) All() iter.Seq[any] {
	return func(yield func(any) bool) {
		it := a.Iterator()
		for v, ok := it.Next(); ok; v, ok = it.Next() {
			if !yield(v) {
				return
			}
		}
	}
}

// Values wraps All into a chainable pipeline.
func (a *Array) Values() *sequence.Iterator[any] {
	return sequence.FromSeq(a.All())
}

// Copy returns a detached array holding copies of the current values.
func (a *Array) Copy() Type {
	c := NewArray()
	c.prelim = a.Map(func(v any, _ int) any { return copyValue(v) })
	return c
}

func (a *Array) JSON() any {
	return a.Map(func(v any, _ int) any { return jsonValue(v) })
}

// copyValue deep-copies the mutable parts of a stored value.
func copyValue(v any) any {
	switch val := v.(type) {
	case Type:
		return val.Copy()
	case []byte:
		return slices.Clone(val)
	default:
		return v
	}
}

// jsonValue renders nested types in place.
func jsonValue(v any) any {
	if t, ok := v.(Type); ok {
		return t.JSON()
	}
	return v
}
