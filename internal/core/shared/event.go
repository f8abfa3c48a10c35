package shared

import (
	"slices"
)

// Action describes what happened to a map key within one transaction.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// KeyChange is the net change of one key. OldValue is unset for ActionAdd.
type KeyChange struct {
	Action   Action
	OldValue any
}

// Delta is one step of a sequence change: exactly one field is set.
type Delta struct {
	Insert []any `json:"insert,omitempty"`
	Retain int   `json:"retain,omitempty"`
	Delete int   `json:"delete,omitempty"`
}

// Event describes the changes one transaction made to one container.
// Target is the changed container; CurrentTarget is the container whose
// listener is being called, an ancestor of Target for deep listeners.
type Event struct {
	Target        Type
	CurrentTarget Type
	Transaction   *Transaction

	// Keys is set when map entries changed, Delta when the sequence did.
	Keys  map[string]KeyChange
	Delta []Delta

	target  *AbstractType
	lineage []*AbstractType
	path    []any
}

// newEvent computes the change description at commit time, while the
// document is still locked.
func newEvent(t *AbstractType, tx *Transaction, cs *changeSet) *Event {
	ev := &Event{
		Target:        t.self,
		CurrentTarget: t.self,
		Transaction:   tx,
		target:        t,
	}
	ev.lineage, ev.path = t.lineage()

	if cs.keys.Cardinality() > 0 {
		ev.Keys = make(map[string]KeyChange, cs.keys.Cardinality())
		for _, key := range cs.keys.ToSlice() {
			if change, ok := keyChange(t, tx, key); ok {
				ev.Keys[key] = change
			}
		}
	}
	if cs.list {
		ev.Delta = listDelta(t, tx)
	}
	return ev
}

// Path is the key or index path from CurrentTarget down to Target. Indexes
// count live elements at commit time.
func (ev *Event) Path() []any {
	if ev.CurrentTarget != nil {
		current := ev.CurrentTarget.base()
		for i, t := range ev.lineage {
			if t == current {
				return append([]any{}, ev.path[i:]...)
			}
		}
	}
	return append([]any{}, ev.path...)
}

// Adds reports whether the item was created by the event's transaction.
func (ev *Event) Adds(it *Item) bool { return ev.Transaction.adds(it) }

// Deletes reports whether the item was tombstoned by the event's transaction.
func (ev *Event) Deletes(it *Item) bool { return ev.Transaction.deletes(it) }

// lineage returns the containers from the root down to t and the path
// segments between them: a map key or a sequence index per nesting level.
func (t *AbstractType) lineage() ([]*AbstractType, []any) {
	types := []*AbstractType{t}
	var path []any
	for cur := t; ; {
		owner := cur.ownerItem()
		if owner == nil {
			break
		}
		parent := cur.doc.resolve(owner.parent)
		if parent == nil {
			break
		}
		if owner.keyed {
			path = append(path, owner.key)
		} else {
			path = append(path, parent.indexOf(owner))
		}
		types = append(types, parent)
		cur = parent
	}
	slices.Reverse(types)
	slices.Reverse(path)
	return types, path
}

// indexOf counts the live elements in front of target.
func (t *AbstractType) indexOf(target *Item) int {
	i := 0
	for n := t.first(); n != nil && n != target; n = t.next(n) {
		if n.live() {
			i += n.Length()
		}
	}
	return i
}

// keyChange compares the head of key with the newest version that predates
// the transaction.
func keyChange(t *AbstractType, tx *Transaction, key string) (KeyChange, bool) {
	it := t.entry(key)
	if it == nil {
		return KeyChange{}, false
	}
	if !tx.adds(it) {
		if tx.deletes(it) {
			return KeyChange{Action: ActionDelete, OldValue: it.last()}, true
		}
		return KeyChange{}, false
	}

	prev := t.next(it)
	for prev != nil && tx.adds(prev) {
		prev = t.next(prev)
	}
	prevDeleted := prev != nil && tx.deletes(prev)

	switch {
	case tx.deletes(it) && prevDeleted:
		return KeyChange{Action: ActionDelete, OldValue: prev.last()}, true
	case tx.deletes(it):
		return KeyChange{}, false
	case prevDeleted:
		return KeyChange{Action: ActionUpdate, OldValue: prev.last()}, true
	default:
		return KeyChange{Action: ActionAdd}, true
	}
}

// listDelta walks the sequence and describes it as runs of retained,
// inserted and deleted elements. A trailing retain is dropped.
func listDelta(t *AbstractType, tx *Transaction) []Delta {
	var (
		out []Delta
		op  *Delta
	)
	pack := func() {
		if op != nil {
			out = append(out, *op)
			op = nil
		}
	}

	for n := t.first(); n != nil; n = t.next(n) {
		switch {
		case !n.Countable():
		case n.deleted:
			if tx.deletes(n) && !tx.adds(n) {
				if op == nil || op.Delete == 0 {
					pack()
					op = &Delta{}
				}
				op.Delete += n.Length()
			}
		case tx.adds(n):
			if op == nil || op.Insert == nil {
				pack()
				op = &Delta{Insert: []any{}}
			}
			op.Insert = append(op.Insert, n.content.Values()...)
		default:
			if op == nil || op.Retain == 0 {
				pack()
				op = &Delta{}
			}
			op.Retain += n.Length()
		}
	}
	if op != nil && op.Retain == 0 {
		pack()
	}
	return out
}
