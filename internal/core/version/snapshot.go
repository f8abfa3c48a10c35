package version

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeusync/crdt/pkg/encoding"
)

// Snapshot captures the causal state of a document: everything covered by the
// state vector, minus what the delete set tombstoned.
type Snapshot struct {
	DeleteSet   *DeleteSet
	StateVector StateVector
}

// NewSnapshot normalizes ds, after which lookups through the snapshot never
// mutate it and may run concurrently.
func NewSnapshot(ds *DeleteSet, sv StateVector) *Snapshot {
	if ds == nil {
		ds = NewDeleteSet()
	}
	ds.Normalize()
	if sv == nil {
		sv = StateVector{}
	}
	return &Snapshot{DeleteSet: ds, StateVector: sv}
}

// EmptySnapshot sees nothing.
func EmptySnapshot() *Snapshot {
	return NewSnapshot(nil, nil)
}

// IsVisible reports whether the element identified by id existed and was not
// deleted at the time the snapshot was taken.
func (s *Snapshot) IsVisible(id ID) bool {
	return s.StateVector.Contains(id) && !s.DeleteSet.Contains(id)
}

func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.StateVector.Equal(other.StateVector) && s.DeleteSet.Equal(other.DeleteSet)
}

type snapshotWire struct {
	DeleteSet   map[uint64][][2]uint64 `cbor:"ds"`
	StateVector map[uint64]uint64      `cbor:"sv"`
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// EncodeSnapshot serializes s into deterministic CBOR.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	w := snapshotWire{
		DeleteSet:   make(map[uint64][][2]uint64),
		StateVector: map[uint64]uint64(s.StateVector),
	}
	for _, client := range s.DeleteSet.Clients() {
		for _, r := range s.DeleteSet.Ranges(client) {
			w.DeleteSet[client] = append(w.DeleteSet[client], [2]uint64{r.Clock, r.Len})
		}
	}
	data, err := encMode.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeSnapshot, err)
	}
	return data, nil
}

// DecodeSnapshot parses the output of EncodeSnapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var w snapshotWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	ds := NewDeleteSet()
	for client, ranges := range w.DeleteSet {
		for _, r := range ranges {
			ds.Add(client, r[0], r[1])
		}
	}
	sv := StateVector(w.StateVector)
	if sv == nil {
		sv = StateVector{}
	}
	return NewSnapshot(ds, sv), nil
}

var _ encoding.Serializable[Snapshot] = (*Snapshot)(nil)

func (s *Snapshot) Serialize() ([]byte, error) {
	return EncodeSnapshot(s)
}

// Deserialize replaces s with the snapshot encoded in data.
func (s *Snapshot) Deserialize(data []byte) error {
	decoded, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}
