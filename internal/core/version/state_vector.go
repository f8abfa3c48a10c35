package version

import (
	"maps"
	"slices"
)

// StateVector maps a client to the next clock it will assign. Every clock
// below that value is known to the holder of the vector.
type StateVector map[uint64]uint64

// Get returns the next expected clock for client (0 when unknown).
func (sv StateVector) Get(client uint64) uint64 {
	return sv[client]
}

// Contains reports whether the element identified by id is covered.
func (sv StateVector) Contains(id ID) bool {
	next, ok := sv[id.Client]
	return ok && id.Clock < next
}

// Advance raises the clock of client to at least clock.
func (sv StateVector) Advance(client, clock uint64) {
	if sv[client] < clock {
		sv[client] = clock
	}
}

func (sv StateVector) Clone() StateVector {
	return maps.Clone(sv)
}

// Clients returns the known clients in ascending order.
func (sv StateVector) Clients() []uint64 {
	return slices.Sorted(maps.Keys(sv))
}

func (sv StateVector) Equal(other StateVector) bool {
	return maps.Equal(sv, other)
}
