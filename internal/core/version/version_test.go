package version

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/crdt/pkg/encoding"
	"golang.org/x/sync/errgroup"
)

func TestDeleteSet(t *testing.T) {
	t.Run("merges adjacent and overlapping ranges", func(t *testing.T) {
		ds := NewDeleteSet()
		ds.Add(1, 5, 2)
		ds.Add(1, 0, 3)
		ds.Add(1, 3, 2)
		ds.Add(1, 10, 1)
		ds.Add(2, 4, 4)

		require.Equal(t, []Range{{Clock: 0, Len: 7}, {Clock: 10, Len: 1}}, ds.Ranges(1))
		require.Equal(t, []Range{{Clock: 4, Len: 4}}, ds.Ranges(2))
		require.Equal(t, []uint64{1, 2}, ds.Clients())
	})

	t.Run("contains", func(t *testing.T) {
		ds := NewDeleteSet()
		ds.Add(7, 2, 3)

		require.False(t, ds.Contains(NewID(7, 1)))
		require.True(t, ds.Contains(NewID(7, 2)))
		require.True(t, ds.Contains(NewID(7, 4)))
		require.False(t, ds.Contains(NewID(7, 5)))
		require.False(t, ds.Contains(NewID(8, 3)))
	})

	t.Run("lookups do not normalize", func(t *testing.T) {
		ds := NewDeleteSet()
		ds.Add(1, 6, 2)
		ds.Add(1, 0, 2)
		ds.Add(1, 2, 1)

		require.True(t, ds.Contains(NewID(1, 2)))
		require.True(t, ds.Contains(NewID(1, 7)))
		require.False(t, ds.Contains(NewID(1, 4)))
		require.Equal(t, []Range{{Clock: 0, Len: 3}, {Clock: 6, Len: 2}}, ds.Ranges(1))
		require.False(t, ds.normalized)
		require.Equal(t, []Range{{Clock: 6, Len: 2}, {Clock: 0, Len: 2}, {Clock: 2, Len: 1}}, ds.clients[1])
	})

	t.Run("zero length adds nothing", func(t *testing.T) {
		ds := NewDeleteSet()
		ds.Add(1, 0, 0)
		require.True(t, ds.IsEmpty())
	})

	t.Run("merge keeps both sides", func(t *testing.T) {
		a := NewDeleteSet()
		a.Add(1, 0, 1)
		b := NewDeleteSet()
		b.Add(1, 1, 1)
		b.Add(3, 9, 1)
		a.Merge(b)

		require.Equal(t, []Range{{Clock: 0, Len: 2}}, a.Ranges(1))
		require.True(t, a.Contains(NewID(3, 9)))
		require.False(t, b.Contains(NewID(1, 0)))
	})
}

func TestStateVector(t *testing.T) {
	sv := StateVector{}
	sv.Advance(1, 3)
	sv.Advance(1, 2)

	require.Equal(t, uint64(3), sv.Get(1))
	require.True(t, sv.Contains(NewID(1, 2)))
	require.False(t, sv.Contains(NewID(1, 3)))
	require.False(t, sv.Contains(NewID(2, 0)))

	clone := sv.Clone()
	clone.Advance(2, 1)
	require.False(t, sv.Equal(clone))
}

func TestSnapshot(t *testing.T) {
	ds := NewDeleteSet()
	ds.Add(1, 1, 1)
	snap := NewSnapshot(ds, StateVector{1: 3, 2: 1})

	t.Run("visibility", func(t *testing.T) {
		require.True(t, snap.IsVisible(NewID(1, 0)))
		require.False(t, snap.IsVisible(NewID(1, 1)))
		require.True(t, snap.IsVisible(NewID(1, 2)))
		require.False(t, snap.IsVisible(NewID(1, 3)))
		require.True(t, snap.IsVisible(NewID(2, 0)))
		require.False(t, EmptySnapshot().IsVisible(NewID(1, 0)))
	})

	t.Run("encode and decode", func(t *testing.T) {
		data, err := EncodeSnapshot(snap)
		require.NoError(t, err)

		again, err := EncodeSnapshot(snap)
		require.NoError(t, err)
		require.Equal(t, data, again)

		decoded, err := DecodeSnapshot(data)
		require.NoError(t, err)
		require.True(t, snap.Equal(decoded))
		require.False(t, decoded.IsVisible(NewID(1, 1)))
	})

	t.Run("decoded snapshot reads concurrently", func(t *testing.T) {
		ds := NewDeleteSet()
		ds.Add(4, 10, 5)
		ds.Add(4, 0, 3)
		ds.Add(5, 1, 1)
		data, err := EncodeSnapshot(NewSnapshot(ds, StateVector{4: 20, 5: 2}))
		require.NoError(t, err)

		decoded, err := DecodeSnapshot(data)
		require.NoError(t, err)
		require.True(t, decoded.DeleteSet.normalized)

		var g errgroup.Group
		for range 8 {
			g.Go(func() error {
				for clock := range uint64(20) {
					want := clock < 3 || (clock >= 10 && clock < 15)
					if decoded.IsVisible(NewID(4, clock)) == want {
						return fmt.Errorf("clock %d: visible=%v", clock, !want)
					}
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
	})

	t.Run("decode rejects garbage", func(t *testing.T) {
		_, err := DecodeSnapshot([]byte{0xff, 0x00, 0x13})
		require.ErrorIs(t, err, ErrMalformedSnapshot)
	})

	t.Run("serializable", func(t *testing.T) {
		data, err := snap.Serialize()
		require.NoError(t, err)

		decoded, err := encoding.Decode[Snapshot](data)
		require.NoError(t, err)
		require.True(t, snap.Equal(decoded))

		var target Snapshot
		require.ErrorIs(t, target.Deserialize([]byte{0xff}), ErrMalformedSnapshot)
	})
}
