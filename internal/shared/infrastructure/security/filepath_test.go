package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFilePath(t *testing.T) {
	t.Run("rejects empty path", func(t *testing.T) {
		_, err := ValidateFilePath("")
		assert.ErrorContains(t, err, "cannot be empty")
	})

	t.Run("rejects shell characters", func(t *testing.T) {
		for _, char := range dangerousChars {
			_, err := ValidateFilePath("/tmp/flightwatch" + char + ".db")
			assert.ErrorContains(t, err, "forbidden character", "character %q", char)
		}
	})

	t.Run("makes relative paths absolute", func(t *testing.T) {
		result, err := ValidateFilePath("data.db")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(result))
	})

	t.Run("cleans traversal", func(t *testing.T) {
		dir := t.TempDir()
		result, err := ValidateFilePath(filepath.Join(dir, "a", "..", "data.db"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "data.db"), result)
	})

	t.Run("resolves symlinks of existing files", func(t *testing.T) {
		dir := t.TempDir()
		real := filepath.Join(dir, "real.db")
		require.NoError(t, os.WriteFile(real, nil, 0o600))
		link := filepath.Join(dir, "link.db")
		require.NoError(t, os.Symlink(real, link))

		result, err := ValidateFilePath(link)
		require.NoError(t, err)
		expected, _ := filepath.EvalSymlinks(real)
		assert.Equal(t, expected, result)
	})
}
