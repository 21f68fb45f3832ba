package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyEdits(t *testing.T) {
	src := []byte("aaa\nbbb\nccc\n")

	t.Run("no edits returns source", func(t *testing.T) {
		out, err := ApplyEdits(src, nil)
		require.NoError(t, err)
		require.Equal(t, src, out)
	})

	t.Run("unordered edits", func(t *testing.T) {
		out, err := ApplyEdits(src, []Edit{
			{Start: 8, End: 11, Replacement: []byte("C")},
			{Start: 0, End: 3, Replacement: []byte("AAAA")},
		})
		require.NoError(t, err)
		require.Equal(t, "AAAA\nbbb\nC\n", string(out))
	})

	t.Run("insertion", func(t *testing.T) {
		out, err := ApplyEdits(src, []Edit{{Start: 4, End: 4, Replacement: []byte("new\n")}})
		require.NoError(t, err)
		require.Equal(t, "aaa\nnew\nbbb\nccc\n", string(out))
	})

	t.Run("overlap rejected", func(t *testing.T) {
		_, err := ApplyEdits(src, []Edit{{Start: 0, End: 5}, {Start: 4, End: 6}})
		require.Error(t, err)
	})

	t.Run("out of range rejected", func(t *testing.T) {
		_, err := ApplyEdits(src, []Edit{{Start: 2, End: 100}})
		require.Error(t, err)
	})
}
