package shared

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/zeusync/crdt/internal/core/version"
	"github.com/zeusync/crdt/pkg/sequence"
)

// Map is a shared string-keyed map. Each key keeps its overwritten
// versions as tombstones so earlier states stay readable through
// snapshots.
type Map struct {
	AbstractType
	prelim map[string]any
}

var _ Type = (*Map)(nil)

// Entry is a key and its current value.
type Entry struct {
	Key   string
	Value any
}

func NewMap() *Map {
	m := &Map{prelim: make(map[string]any)}
	m.init(m)
	return m
}

func (m *Map) TypeRef() TypeRef { return TypeRefMap }

// integrate writes the preliminary entries in key order.
func (m *Map) integrate(tx *Transaction, item *Item) {
	m.attach(tx.doc, "", &item.ID)
	prelim := m.prelim
	m.prelim = nil
	for _, key := range slices.Sorted(maps.Keys(prelim)) {
		if err := m.mapSet(tx, key, prelim[key]); err != nil {
			panic(fmt.Errorf("shared: preliminary map entry %q passed the embed check: %w", key, err))
		}
	}
}

// Set stores value under key, replacing the current value.
func (m *Map) Set(tx *Transaction, key string, value any) error {
	if !m.Integrated() {
		if _, err := classify(value); err != nil {
			return err
		}
		others := maps.Clone(m.prelim)
		delete(others, key)
		if err := checkEmbed(append(slices.Collect(maps.Values(others)), value), m); err != nil {
			return err
		}
		m.prelim[key] = value
		return nil
	}
	if err := tx.check(&m.AbstractType); err != nil {
		return err
	}
	return m.mapSet(tx, key, value)
}

// Delete removes key. Deleting a missing key does nothing.
func (m *Map) Delete(tx *Transaction, key string) error {
	if !m.Integrated() {
		delete(m.prelim, key)
		return nil
	}
	if err := tx.check(&m.AbstractType); err != nil {
		return err
	}
	m.mapDelete(tx, key)
	return nil
}

// Clear removes every key.
func (m *Map) Clear(tx *Transaction) error {
	if !m.Integrated() {
		clear(m.prelim)
		return nil
	}
	if err := tx.check(&m.AbstractType); err != nil {
		return err
	}
	for _, key := range m.mapKeys() {
		m.mapDelete(tx, key)
	}
	return nil
}

func (m *Map) Get(key string) (any, bool) {
	if !m.Integrated() {
		v, ok := m.prelim[key]
		return v, ok
	}
	return m.mapGet(key)
}

func (m *Map) Has(key string) bool {
	if !m.Integrated() {
		_, ok := m.prelim[key]
		return ok
	}
	return m.mapHas(key)
}

func (m *Map) Size() int {
	return len(m.Keys())
}

// Keys returns the current keys, sorted.
func (m *Map) Keys() []string {
	if !m.Integrated() {
		return slices.Sorted(maps.Keys(m.prelim))
	}
	return m.mapKeys()
}

// Values returns the current values in key order.
func (m *Map) Values() []any {
	keys := m.Keys()
	out := make([]any, 0, len(keys))
	for _, key := range keys {
		v, _ := m.Get(key)
		out = append(out, v)
	}
	return out
}

// ToMap returns a copy of the current entries.
func (m *Map) ToMap() map[string]any {
	if !m.Integrated() {
		return maps.Clone(m.prelim)
	}
	return m.mapAll()
}

// Entries ranges over the current entries in key order.
func (m *Map) Entries() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, key := range m.Keys() {
			v, ok := m.Get(key)
			if !ok {
				continue
			}
			if !yield(key, v) {
				return
			}
		}
	}
}

// All wraps Entries into a chainable pipeline.
func (m *Map) All() *sequence.Iterator[Entry] {
	return sequence.FromSeq(func(yield func(Entry) bool) {
		for k, v := range m.Entries() {
			if !yield(Entry{Key: k, Value: v}) {
				return
			}
		}
	})
}

func (m *Map) ForEach(fn func(key string, v any)) {
	for k, v := range m.Entries() {
		fn(k, v)
	}
}

// GetAt reads key as of snap.
func (m *Map) GetAt(key string, snap *version.Snapshot) (any, bool) {
	if !m.Integrated() || snap == nil {
		return nil, false
	}
	return m.mapGetAt(key, snap)
}

// ToMapAt returns the entries as of snap.
func (m *Map) ToMapAt(snap *version.Snapshot) map[string]any {
	if !m.Integrated() || snap == nil {
		return map[string]any{}
	}
	return m.mapAllAt(snap)
}

// Copy returns a detached map holding copies of the current entries.
func (m *Map) Copy() Type {
	c := NewMap()
	for k, v := range m.Entries() {
		c.prelim[k] = copyValue(v)
	}
	return c
}

func (m *Map) JSON() any {
	out := make(map[string]any)
	for k, v := range m.Entries() {
		out[k] = jsonValue(v)
	}
	return out
}
