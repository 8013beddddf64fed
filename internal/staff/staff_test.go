package staff

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		dir, err := Parse([]byte(`
staff:
  S1: Alice Nguyen
  S2: Bob Tran
  S3: Alice Nguyen
`))
		require.NoError(t, err)
		assert.Equal(t, 3, dir.Size())

		name, ok := dir.Lookup("S1")
		assert.True(t, ok)
		assert.Equal(t, "Alice Nguyen", name)

		// Two keys may share one legal name.
		name, ok = dir.Lookup("S3")
		assert.True(t, ok)
		assert.Equal(t, "Alice Nguyen", name)

		_, ok = dir.Lookup("S9")
		assert.False(t, ok)
	})

	t.Run("trims keys and names", func(t *testing.T) {
		dir, err := Parse([]byte("staff:\n  \" S1 \": \" Alice Nguyen \"\n"))
		require.NoError(t, err)

		name, ok := dir.Lookup("S1")
		assert.True(t, ok)
		assert.Equal(t, "Alice Nguyen", name)
	})

	t.Run("empty legal name is rejected", func(t *testing.T) {
		_, err := Parse([]byte("staff:\n  S1: \"  \"\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty legal name")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("staff: ["))
		assert.Error(t, err)
	})

	t.Run("empty document", func(t *testing.T) {
		dir, err := Parse([]byte(""))
		require.NoError(t, err)
		assert.Equal(t, 0, dir.Size())
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("reads from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "staff.yaml")
		require.NoError(t, os.WriteFile(path, []byte("staff:\n  S1: Alice Nguyen\n"), 0o644))

		dir, err := LoadFile(path)
		require.NoError(t, err)

		name, ok := dir.Lookup("S1")
		assert.True(t, ok)
		assert.Equal(t, "Alice Nguyen", name)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
