package sequence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIterator(t *testing.T) {
	t.Run("collect and count", func(t *testing.T) {
		it := From([]int{1, 2, 3})
		require.Equal(t, []int{1, 2, 3}, it.Collect())
		require.Equal(t, 3, it.Count())
	})

	t.Run("pipeline stages", func(t *testing.T) {
		got := Map(From([]int{1, 2, 3, 4, 5, 6}).
			Filter(func(v int) bool { return v%2 == 0 }).
			Drop(1), func(v int) string { return string(rune('a' + v)) }).
			Collect()
		require.Equal(t, []string{"e", "g"}, got)
	})

	t.Run("take stops pulling", func(t *testing.T) {
		pulled := 0
		it := FromSeq(func(yield func(int) bool) {
			for i := 0; ; i++ {
				pulled++
				if !yield(i) {
					return
				}
			}
		})
		require.Equal(t, []int{0, 1, 2}, it.Take(3).Collect())
		require.Equal(t, 3, pulled)
		require.Empty(t, it.Take(0).Collect())
	})

	t.Run("find first any", func(t *testing.T) {
		it := From([]string{"x", "yy", "zzz"})
		v, ok := it.Find(func(s string) bool { return len(s) == 2 })
		require.True(t, ok)
		require.Equal(t, "yy", v)
		require.False(t, it.Any(func(s string) bool { return s == "w" }))

		first, ok := it.First()
		require.True(t, ok)
		require.Equal(t, "x", first)

		_, ok = From([]string{}).First()
		require.False(t, ok)
	})

	t.Run("pull", func(t *testing.T) {
		next, stop := From([]int{7, 8}).Pull()
		defer stop()
		v, ok := next()
		require.True(t, ok)
		require.Equal(t, 7, v)
	})

	t.Run("chain", func(t *testing.T) {
		got := Chain(From([]int{1}), From([]int{2, 3})).Take(2).Collect()
		require.Equal(t, []int{1, 2}, got)
	})
}
