package shared

import (
	"maps"
	"slices"

	"github.com/zeusync/crdt/internal/core/version"
)

// mapSet makes a new item the head of key's version chain. The previous
// head is tombstoned by integration and stays reachable through right.
func (t *AbstractType) mapSet(tx *Transaction, key string, value any) error {
	kind, err := classify(value)
	if err != nil {
		return err
	}
	if err := checkEmbed([]any{value}); err != nil {
		return err
	}
	it := &Item{
		ID:      tx.nextID(),
		parent:  t.ref(),
		key:     key,
		keyed:   true,
		content: newContent(kind, value),
	}
	if prev, ok := t.entries[key]; ok {
		it.right = prev.Ref()
		it.rightOrigin = prev.Ref()
	}
	it.integrate(tx, t)
	return nil
}

func (t *AbstractType) mapGet(key string) (any, bool) {
	it := t.entry(key)
	if it == nil || it.deleted {
		return nil, false
	}
	return it.last(), true
}

func (t *AbstractType) mapHas(key string) bool {
	it := t.entry(key)
	return it != nil && !it.deleted
}

// mapDelete tombstones the head of key; older versions are left alone.
func (t *AbstractType) mapDelete(tx *Transaction, key string) {
	if it := t.entry(key); it != nil && !it.deleted {
		it.delete(tx)
	}
}

// mapKeys returns the keys with a live head, sorted.
func (t *AbstractType) mapKeys() []string {
	keys := make([]string, 0, len(t.entries))
	for _, key := range slices.Sorted(maps.Keys(t.entries)) {
		if t.mapHas(key) {
			keys = append(keys, key)
		}
	}
	return keys
}

func (t *AbstractType) mapAll() map[string]any {
	out := make(map[string]any, len(t.entries))
	for key := range t.entries {
		if v, ok := t.mapGet(key); ok {
			out[key] = v
		}
	}
	return out
}

// mapGetAt reads key as it was when snap was taken: the newest version the
// snapshot knows about, if that version was not deleted by then.
func (t *AbstractType) mapGetAt(key string, snap *version.Snapshot) (any, bool) {
	it := t.entry(key)
	for it != nil && !snap.StateVector.Contains(it.ID) {
		it = t.next(it)
	}
	if it == nil || !snap.IsVisible(it.ID) {
		return nil, false
	}
	return it.last(), true
}

func (t *AbstractType) mapAllAt(snap *version.Snapshot) map[string]any {
	out := make(map[string]any)
	for key := range t.entries {
		if v, ok := t.mapGetAt(key, snap); ok {
			out[key] = v
		}
	}
	return out
}
