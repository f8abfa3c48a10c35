package bus

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// subscription binds a handle to its callback.
type subscription[E any] struct {
	handle  Handle
	handler Handler[E]
}

// Registry is an ordered set of handlers for one event type. Handlers are
// invoked synchronously in registration order. Emit snapshots the handler list
// before delivery, so handlers may subscribe or unsubscribe while running;
// the change applies from the next Emit.
type Registry[E any] struct {
	mu        sync.RWMutex
	subs      []subscription[E]
	metrics   Metrics
	observers []Observer
}

// New creates an empty Registry.
func New[E any]() *Registry[E] {
	return &Registry[E]{}
}

// Subscribe registers handler and returns its handle.
func (r *Registry[E]) Subscribe(handler Handler[E]) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := Handle(uuid.NewString())
	r.subs = append(r.subs, subscription[E]{handle: h, handler: handler})
	return h
}

// Unsubscribe removes the handler registered under h. It reports whether a
// handler was removed; unknown or already removed handles are a no-op.
func (r *Registry[E]) Unsubscribe(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.subs, func(s subscription[E]) bool { return s.handle == h })
	if i < 0 {
		return false
	}
	r.subs = slices.Delete(r.subs, i, i+1)
	return true
}

// Len returns the number of registered handlers.
func (r *Registry[E]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Emit delivers event to every handler registered at call time.
func (r *Registry[E]) Emit(event E) {
	r.mu.RLock()
	subs := slices.Clone(r.subs)
	observers := slices.Clone(r.observers)
	r.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}

	if len(observers) > 0 {
		for _, obs := range observers {
			obs.OnDelivered(len(subs))
		}
		r.mu.Lock()
		r.metrics.Published++
		r.metrics.DeliveredHandlers += uint64(len(subs))
		r.metrics.SubscribersActive = uint64(len(r.subs))
		r.mu.Unlock()
	}
}

// AddObserver registers an observer to receive delivery callbacks.
func (r *Registry[E]) AddObserver(obs Observer) {
	r.mu.Lock()
	r.observers = append(r.observers, obs)
	r.mu.Unlock()
}

// RemoveObserver unregisters a previously added observer.
func (r *Registry[E]) RemoveObserver(obs Observer) {
	r.mu.Lock()
	r.observers = slices.DeleteFunc(r.observers, func(o Observer) bool { return o == obs })
	r.mu.Unlock()
}

// GetMetrics returns a snapshot of accumulated metrics. Metrics are only
// collected while at least one observer is registered.
func (r *Registry[E]) GetMetrics() Metrics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metrics
}
