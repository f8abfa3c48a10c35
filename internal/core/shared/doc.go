package shared

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/zeusync/crdt/internal/core/observability/log"
	"github.com/zeusync/crdt/internal/core/version"
)

// Doc owns the item store and the root shared types of one replica.
type Doc struct {
	mu       sync.Mutex
	guid     string
	clientID uint64
	store    *store
	share    map[string]Type
	logger   log.Log
}

type Option func(*Doc)

func WithClientID(id uint64) Option {
	return func(d *Doc) { d.clientID = id }
}

func WithGUID(guid string) Option {
	return func(d *Doc) { d.guid = guid }
}

func WithLogger(logger log.Log) Option {
	return func(d *Doc) { d.logger = logger }
}

// ClientIDFromName derives a stable client id from a replica name.
func ClientIDFromName(name string) uint64 {
	return xxhash.Sum64String(name)
}

// NewDoc creates an empty document. Without options it gets a random GUID,
// a client id derived from it, and a Nop logger.
func NewDoc(opts ...Option) *Doc {
	d := &Doc{share: make(map[string]Type)}
	for _, opt := range opts {
		opt(d)
	}
	if d.guid == "" {
		d.guid = uuid.NewString()
	}
	if d.clientID == 0 {
		d.clientID = ClientIDFromName(d.guid)
	}
	if d.logger == nil {
		d.logger = log.Nop()
	}
	d.logger = d.logger.With(log.String("doc", d.guid), log.Uint64("client", d.clientID))
	d.store = newStore(d.logger)
	return d
}

func (d *Doc) GUID() string     { return d.guid }
func (d *Doc) ClientID() uint64 { return d.clientID }

// GetArray returns the root array called name, creating it on first use.
func (d *Doc) GetArray(name string) (*Array, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.share[name]; ok {
		a, ok := t.(*Array)
		if !ok {
			return nil, fmt.Errorf("%w: %q is a %T", ErrTypeMismatch, name, t)
		}
		return a, nil
	}
	a := NewArray()
	a.attach(d, name, nil)
	d.share[name] = a
	return a, nil
}

// GetMap returns the root map called name, creating it on first use.
func (d *Doc) GetMap(name string) (*Map, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.share[name]; ok {
		m, ok := t.(*Map)
		if !ok {
			return nil, fmt.Errorf("%w: %q is a %T", ErrTypeMismatch, name, t)
		}
		return m, nil
	}
	m := NewMap()
	m.attach(d, name, nil)
	d.share[name] = m
	return m, nil
}

// Get returns the root type called name, if it was declared.
func (d *Doc) Get(name string) (Type, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.share[name]
	return t, ok
}

// Roots returns the names of the root types, sorted.
func (d *Doc) Roots() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Sorted(maps.Keys(d.share))
}

// JSON renders every root type.
func (d *Doc) JSON() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]any, len(d.share))
	for name, t := range d.share {
		out[name] = t.JSON()
	}
	return out
}

// StateVector returns the next clock of every client known to the document.
func (d *Doc) StateVector() version.StateVector {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.stateVector()
}

// DeleteSet returns the ranges of every tombstoned item.
func (d *Doc) DeleteSet() *version.DeleteSet {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.deleteSet()
}

// Snapshot captures the current causal state for later historical reads.
func (d *Doc) Snapshot() *version.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return version.NewSnapshot(d.store.deleteSet(), d.store.stateVector())
}

// resolve finds the container an item belongs to.
func (d *Doc) resolve(ref parentRef) *AbstractType {
	if ref.owner == nil {
		if t, ok := d.share[ref.root]; ok {
			return t.base()
		}
		return nil
	}
	owner := d.store.find(*ref.owner)
	if owner == nil {
		return nil
	}
	ct, ok := owner.content.(*ContentType)
	if !ok {
		return nil
	}
	return ct.typ.base()
}
