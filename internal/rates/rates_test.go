package rates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		table, err := Parse([]byte(`
defaults:
  Play-by-play: 100000
  Recap: 80000
custom:
  Play-by-play:
    S2: 150000
`))
		require.NoError(t, err)

		assert.True(t, table.HasType("Play-by-play"))
		assert.True(t, table.HasType("Recap"))
		assert.False(t, table.HasType("Highlight"))
		assert.Equal(t, 100000.0, table.DefaultRate("Play-by-play"))
		assert.Equal(t, 0.0, table.DefaultRate("Highlight"))
		assert.Equal(t, 2, table.TypeCount())

		rate, ok := table.CustomRate("Play-by-play", "S2")
		assert.True(t, ok)
		assert.Equal(t, 150000.0, rate)

		_, ok = table.CustomRate("Play-by-play", "S1")
		assert.False(t, ok)
		_, ok = table.CustomRate("Recap", "S2")
		assert.False(t, ok)
	})

	t.Run("trims keys", func(t *testing.T) {
		table, err := Parse([]byte(`
defaults:
  " Recap ": 80000
custom:
  Recap:
    " S1 ": 90000
`))
		require.NoError(t, err)
		assert.True(t, table.HasType("Recap"))

		rate, ok := table.CustomRate("Recap", "S1")
		assert.True(t, ok)
		assert.Equal(t, 90000.0, rate)
	})

	t.Run("zero default is allowed", func(t *testing.T) {
		table, err := Parse([]byte("defaults:\n  Recap: 0\n"))
		require.NoError(t, err)
		assert.True(t, table.HasType("Recap"))
		assert.Equal(t, 0.0, table.DefaultRate("Recap"))
	})

	t.Run("negative default is rejected", func(t *testing.T) {
		_, err := Parse([]byte("defaults:\n  Recap: -5\n"))
		assert.Error(t, err)
	})

	t.Run("custom for unknown type is rejected", func(t *testing.T) {
		_, err := Parse([]byte(`
defaults:
  Recap: 80000
custom:
  Highlight:
    S1: 100
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown task type")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("defaults: ["))
		assert.Error(t, err)
	})

	t.Run("empty document", func(t *testing.T) {
		table, err := Parse([]byte(""))
		require.NoError(t, err)
		assert.Equal(t, 0, table.TypeCount())
		assert.False(t, table.HasType("Recap"))
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("reads from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rates.yaml")
		require.NoError(t, os.WriteFile(path, []byte("defaults:\n  Recap: 80000\n"), 0o644))

		table, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 80000.0, table.DefaultRate("Recap"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestNewTableNilMaps(t *testing.T) {
	table := NewTable(nil, nil)
	assert.False(t, table.HasType("anything"))
	_, ok := table.CustomRate("a", "b")
	assert.False(t, ok)
}
