package bus

// Handle identifies one registered handler. It is the only way to remove the
// handler again; callbacks are never compared by identity.
type Handle string

// Handler is a callback invoked per delivered event.
type Handler[E any] func(event E)

// Observer is notified about deliveries. Observers should return quickly.
type Observer interface {
	OnDelivered(handlers int)
}

// Metrics is a minimal set of counters; it is updated only when at least
// one observer is registered.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	SubscribersActive uint64
}
