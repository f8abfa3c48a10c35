package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/crdt/internal/core/observability/log"
	"github.com/zeusync/crdt/internal/core/version"
)

func TestNewDoc(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		d := NewDoc()
		require.NotEmpty(t, d.GUID())
		require.Equal(t, ClientIDFromName(d.GUID()), d.ClientID())
	})

	t.Run("options", func(t *testing.T) {
		d := NewDoc(WithGUID("g"), WithClientID(42), WithLogger(log.Nop()))
		require.Equal(t, "g", d.GUID())
		require.Equal(t, uint64(42), d.ClientID())
	})

	t.Run("client id from name is stable", func(t *testing.T) {
		require.Equal(t, ClientIDFromName("replica-a"), ClientIDFromName("replica-a"))
		require.NotEqual(t, ClientIDFromName("replica-a"), ClientIDFromName("replica-b"))
	})
}

func TestDocRoots(t *testing.T) {
	d := newTestDoc(t)

	a1 := rootArray(t, d, "list")
	a2 := rootArray(t, d, "list")
	require.Same(t, a1, a2)

	_, err := d.GetMap("list")
	require.ErrorIs(t, err, ErrTypeMismatch)

	m := rootMap(t, d, "meta")
	_, err = d.GetArray("meta")
	require.ErrorIs(t, err, ErrTypeMismatch)

	require.Equal(t, []string{"list", "meta"}, d.Roots())
	got, ok := d.Get("meta")
	require.True(t, ok)
	require.Same(t, m, got)
	_, ok = d.Get("nope")
	require.False(t, ok)
	require.Nil(t, a1.Parent())
	require.Equal(t, TypeRefArray, a1.TypeRef())
	require.Equal(t, TypeRefMap, m.TypeRef())

	transact(t, d, func(tx *Transaction) error {
		if err := a1.Push(tx, 1, 2); err != nil {
			return err
		}
		return m.Set(tx, "k", "v")
	})
	require.Equal(t, map[string]any{
		"list": []any{1, 2},
		"meta": map[string]any{"k": "v"},
	}, d.JSON())
	require.Equal(t, version.StateVector{1: 3}, d.StateVector())
	require.True(t, d.DeleteSet().IsEmpty())
}

func TestDocSnapshotEncoding(t *testing.T) {
	d := newTestDoc(t)
	m := rootMap(t, d, "meta")
	transact(t, d, func(tx *Transaction) error { return m.Set(tx, "k", 1) })
	transact(t, d, func(tx *Transaction) error { return m.Set(tx, "k", 2) })

	snap := d.Snapshot()
	data, err := version.EncodeSnapshot(snap)
	require.NoError(t, err)
	decoded, err := version.DecodeSnapshot(data)
	require.NoError(t, err)
	require.True(t, snap.Equal(decoded))

	transact(t, d, func(tx *Transaction) error { return m.Set(tx, "k", 3) })
	v, ok := m.GetAt("k", decoded)
	require.True(t, ok)
	require.Equal(t, 2, v)
}
