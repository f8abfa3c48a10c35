package shared

import (
	"maps"
	"slices"

	"github.com/zeusync/crdt/internal/core/events/bus"
	"github.com/zeusync/crdt/internal/core/observability/log"
	"github.com/zeusync/crdt/internal/core/version"
)

// TypeRef tags the concrete kind of a shared type.
type TypeRef uint8

const (
	TypeRefArray TypeRef = iota
	TypeRefMap
)

func (r TypeRef) String() string {
	switch r {
	case TypeRefArray:
		return "array"
	case TypeRefMap:
		return "map"
	default:
		return "unknown"
	}
}

// Type is implemented by every shared container. Each variant supplies its
// own copy and serialization.
type Type interface {
	TypeRef() TypeRef
	// Copy returns a detached deep copy holding the current content.
	Copy() Type
	// JSON renders the current content with nested types rendered too.
	JSON() any

	Observe(fn func(*Event)) bus.Handle
	ObserveDeep(fn func([]*Event)) bus.Handle
	Unobserve(h bus.Handle) bool
	UnobserveDeep(h bus.Handle) bool

	base() *AbstractType
	integrate(tx *Transaction, item *Item)
}

// AbstractType is the state shared by all containers: the head of the item
// chain, the newest item per map key, the live length and the listeners.
type AbstractType struct {
	doc   *Doc
	root  string
	owner *version.ID

	head    *version.ID
	entries map[string]version.ID
	length  int

	observers     *bus.Registry[*Event]
	deepObservers *bus.Registry[[]*Event]

	self Type
}

func (t *AbstractType) init(self Type) {
	t.entries = make(map[string]version.ID)
	t.observers = bus.New[*Event]()
	t.deepObservers = bus.New[[]*Event]()
	t.self = self
}

func (t *AbstractType) base() *AbstractType { return t }

// attach hands the type its document. It happens once, when the type becomes
// a root or gets embedded by owner.
func (t *AbstractType) attach(d *Doc, root string, owner *version.ID) {
	t.doc = d
	t.root = root
	t.owner = clone(owner)

	obs := deliveryLogger{logger: d.logger, root: root}
	t.observers.AddObserver(obs)
	t.deepObservers.AddObserver(obs)
}

// Doc returns the document the type is integrated into, or nil while detached.
func (t *AbstractType) Doc() *Doc { return t.doc }

func (t *AbstractType) Integrated() bool { return t.doc != nil }

func (t *AbstractType) ref() parentRef {
	return parentRef{root: t.root, owner: clone(t.owner)}
}

func (t *AbstractType) first() *Item {
	if t.doc == nil {
		return nil
	}
	return t.doc.store.get(t.head)
}

func (t *AbstractType) next(it *Item) *Item {
	return t.doc.store.get(it.right)
}

// entry returns the newest item stored under key, live or not.
func (t *AbstractType) entry(key string) *Item {
	id, ok := t.entries[key]
	if !ok || t.doc == nil {
		return nil
	}
	return t.doc.store.find(id)
}

func (t *AbstractType) ownerItem() *Item {
	if t.owner == nil || t.doc == nil {
		return nil
	}
	return t.doc.store.find(*t.owner)
}

func (t *AbstractType) parentType() *AbstractType {
	owner := t.ownerItem()
	if owner == nil {
		return nil
	}
	return t.doc.resolve(owner.parent)
}

// Parent returns the type embedding this one, nil for roots and detached types.
func (t *AbstractType) Parent() Type {
	if p := t.parentType(); p != nil {
		return p.self
	}
	return nil
}

func (t *AbstractType) isDeleted() bool {
	owner := t.ownerItem()
	return owner != nil && owner.deleted
}

// Observe registers fn for the events of this type only.
func (t *AbstractType) Observe(fn func(*Event)) bus.Handle {
	return t.observers.Subscribe(fn)
}

// ObserveDeep registers fn for the events of this type and every type
// nested in it, delivered once per transaction.
func (t *AbstractType) ObserveDeep(fn func([]*Event)) bus.Handle {
	return t.deepObservers.Subscribe(fn)
}

func (t *AbstractType) Unobserve(h bus.Handle) bool {
	return t.observers.Unsubscribe(h)
}

func (t *AbstractType) UnobserveDeep(h bus.Handle) bool {
	return t.deepObservers.Unsubscribe(h)
}

// ListenerMetrics reports delivery counters of the immediate and the deep
// listeners. Counting starts when the type is integrated.
func (t *AbstractType) ListenerMetrics() (immediate, deep bus.Metrics) {
	return t.observers.GetMetrics(), t.deepObservers.GetMetrics()
}

type deliveryLogger struct {
	logger log.Log
	root   string
}

func (l deliveryLogger) OnDelivered(handlers int) {
	l.logger.Debug("listeners notified", log.String("root", l.root), log.Int("handlers", handlers))
}

// Chain lists the sequence items in document order followed by the version
// chain of every map key, newest first.
func (t *AbstractType) Chain() []ItemInfo {
	var out []ItemInfo
	for n := t.first(); n != nil; n = t.next(n) {
		out = append(out, n.info())
	}
	for _, key := range slices.Sorted(maps.Keys(t.entries)) {
		for n := t.entry(key); n != nil; n = t.next(n) {
			out = append(out, n.info())
		}
	}
	return out
}
