package shared

import (
	"github.com/zeusync/crdt/internal/core/version"
)

// parentRef locates the container an item belongs to: a root type by name,
// or a nested type by the ID of the item embedding it.
type parentRef struct {
	root  string
	owner *version.ID
}

// Item is one identified unit of content in a container's chain. Items are
// never unlinked; deletion only sets the tombstone flag. All references to
// other items are IDs resolved through the document store.
type Item struct {
	ID version.ID

	left, right         *version.ID
	origin, rightOrigin *version.ID

	parent parentRef
	key    string
	keyed  bool

	deleted bool
	content Content
}

func (it *Item) Length() int       { return it.content.Len() }
func (it *Item) Countable() bool   { return it.content.Countable() }
func (it *Item) Deleted() bool     { return it.deleted }
func (it *Item) Content() Content  { return it.content }
func (it *Item) Left() *version.ID { return clone(it.left) }

// Right is the next item in document order for sequence items, and the
// next older version for map entries.
func (it *Item) Right() *version.ID { return clone(it.right) }

// Origin and RightOrigin are the neighbours the item was inserted between.
func (it *Item) Origin() *version.ID      { return clone(it.origin) }
func (it *Item) RightOrigin() *version.ID { return clone(it.rightOrigin) }

// Key returns the map key of a map entry.
func (it *Item) Key() (string, bool) { return it.key, it.keyed }

// LastID is the ID of the last element the item holds.
func (it *Item) LastID() version.ID {
	return it.ID.Offset(uint64(it.Length() - 1))
}

// live reports whether the item contributes to current reads.
func (it *Item) live() bool {
	return !it.deleted && it.content.Countable()
}

// last returns the value a map entry stands for.
func (it *Item) last() any {
	values := it.content.Values()
	if len(values) == 0 {
		return nil
	}
	return values[len(values)-1]
}

// integrate links the item between its left and right neighbours (or in
// front of the key's version chain) and registers it with the store.
func (it *Item) integrate(tx *Transaction, parent *AbstractType) {
	store := tx.doc.store
	var shadowed *Item

	if it.keyed {
		shadowed = store.get(it.right)
		if shadowed != nil {
			shadowed.left = it.ID.Ref()
		}
		parent.entries[it.key] = it.ID
	} else {
		if left := store.get(it.left); left != nil {
			left.right = it.ID.Ref()
		} else {
			parent.head = it.ID.Ref()
		}
		if right := store.get(it.right); right != nil {
			right.left = it.ID.Ref()
		}
	}

	store.add(it)
	if !it.keyed && it.live() {
		parent.length += it.Length()
	}
	it.content.integrate(tx, it)
	tx.addChanged(parent, it.key, it.keyed)

	if shadowed != nil && !shadowed.deleted {
		shadowed.delete(tx)
	}
}

// delete tombstones the item and everything its content owns.
func (it *Item) delete(tx *Transaction) {
	if it.deleted {
		return
	}
	parent := tx.doc.resolve(it.parent)
	if !it.keyed && it.Countable() {
		parent.length -= it.Length()
	}
	it.deleted = true
	tx.deleteSet.Add(it.ID.Client, it.ID.Clock, uint64(it.Length()))
	tx.addChanged(parent, it.key, it.keyed)
	it.content.delete(tx)
}

// ItemInfo is a flat, printable view of an item.
type ItemInfo struct {
	ID      string
	Left    string
	Right   string
	Key     string `json:",omitempty"`
	Kind    string
	Length  int
	Deleted bool
	Values  []any
}

func (it *Item) info() ItemInfo {
	ref := func(id *version.ID) string {
		if id == nil {
			return ""
		}
		return id.String()
	}
	return ItemInfo{
		ID:      it.ID.String(),
		Left:    ref(it.left),
		Right:   ref(it.right),
		Key:     it.key,
		Kind:    it.content.Kind().String(),
		Length:  it.Length(),
		Deleted: it.deleted,
		Values:  it.content.Values(),
	}
}

func clone(id *version.ID) *version.ID {
	if id == nil {
		return nil
	}
	return id.Ref()
}
