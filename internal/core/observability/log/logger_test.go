package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":  LevelDebug,
		"":       LevelInfo,
		" INFO ": LevelInfo,
		"warn":   LevelWarn,
		"error":  LevelError,
		"off":    LevelSilent,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestNopLogger(t *testing.T) {
	l := Nop()
	require.Equal(t, LevelSilent, l.GetLevel())

	child := l.With(String("doc", "a"), Int("n", 1)).Named("shared")
	child.Debug("ignored",
		Bool("b", true),
		Uint64("client", 7),
		Duration("took", time.Millisecond),
		Error(errors.New("boom")),
		Any("v", []int{1}))
	require.Equal(t, LevelSilent, child.GetLevel())
}

func TestSilentLevelBuildsNop(t *testing.T) {
	require.Equal(t, LevelSilent, New(LevelSilent).GetLevel())
}
