package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDoc(t *testing.T) *Doc {
	t.Helper()
	return NewDoc(WithClientID(1), WithGUID("test-doc"))
}

func transact(t *testing.T, d *Doc, fn func(tx *Transaction) error) {
	t.Helper()
	require.NoError(t, d.Transact(fn))
}

func rootArray(t *testing.T, d *Doc, name string) *Array {
	t.Helper()
	a, err := d.GetArray(name)
	require.NoError(t, err)
	return a
}

func rootMap(t *testing.T, d *Doc, name string) *Map {
	t.Helper()
	m, err := d.GetMap(name)
	require.NoError(t, err)
	return m
}

func collect(it *Iterator) []any {
	out := []any{}
	for v, ok := it.Next(); ok; v, ok = it.Next() {
		out = append(out, v)
	}
	return out
}
