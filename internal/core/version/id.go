// Package version holds the identity and causality primitives shared by every
// replica: item identifiers, state vectors, delete sets and snapshots.
package version

import "fmt"

// ID identifies a single element of content by the client that created it and
// the clock value that client assigned to it. Clocks grow by one per element,
// so an item of length n starting at ID{c, k} owns clocks k..k+n-1.
type ID struct {
	Client uint64
	Clock  uint64
}

// NewID builds an ID.
func NewID(client, clock uint64) ID {
	return ID{Client: client, Clock: clock}
}

// Offset returns the ID of the element n positions after id in the same run.
func (id ID) Offset(n uint64) ID {
	return ID{Client: id.Client, Clock: id.Clock + n}
}

// Ref returns a pointer to a copy of id, used for optional references.
func (id ID) Ref() *ID {
	return &id
}

func (id ID) String() string {
	return fmt.Sprintf("%d:%d", id.Client, id.Clock)
}

// Same reports whether two optional references point at the same ID.
func Same(a, b *ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
