package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/crdt/internal/core/observability/log"
	"github.com/zeusync/crdt/internal/core/shared"
)

func TestLoad(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		c, err := Load(strings.NewReader(`
client_name: replica-a
guid: doc-1
log_level: debug
roots:
  items: array
  meta: map
`))
		require.NoError(t, err)
		require.Equal(t, "replica-a", c.ClientName)
		require.Equal(t, "doc-1", c.ResolvedGUID())
		require.Equal(t, log.LevelDebug, c.Level())
		require.Equal(t, map[string]string{"items": RootArray, "meta": RootMap}, c.Roots)
		require.Equal(t, shared.ClientIDFromName("replica-a"), c.ResolvedClientID())
	})

	t.Run("empty input keeps defaults", func(t *testing.T) {
		c, err := Load(strings.NewReader(""))
		require.NoError(t, err)
		require.Equal(t, Default(), c)
		require.Equal(t, log.LevelSilent, c.Level())
		require.NotEmpty(t, c.ResolvedGUID())
	})

	t.Run("explicit client id wins", func(t *testing.T) {
		c, err := Load(strings.NewReader("client_id: 7\n"))
		require.NoError(t, err)
		require.Equal(t, uint64(7), c.ResolvedClientID())
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := Load(strings.NewReader("roots:\n  x: set\n"))
		require.ErrorIs(t, err, ErrInvalidConfig)

		_, err = Load(strings.NewReader("log_level: loud\n"))
		require.ErrorIs(t, err, ErrInvalidConfig)

		_, err = Load(strings.NewReader("client_name: ''\n"))
		require.ErrorIs(t, err, ErrInvalidConfig)

		_, err = Load(strings.NewReader("roots: [1, 2]\n"))
		require.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replica.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client_name: b\n"), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "b", c.ClientName)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
