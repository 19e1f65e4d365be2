package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.hcl"))
	writeFile(t, filepath.Join(root, "nested", "a.hcl"))
	writeFile(t, filepath.Join(root, "notes.txt"))

	files, err := FindFilesByExtension(root, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "nested", "a.hcl"),
	}, files)
}

func TestFindFilesByExtension_PanicsOnEmptyExtension(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = FindFilesByExtension(t.TempDir(), "")
	})
}

func TestCollectFiles(t *testing.T) {
	root := t.TempDir()
	single := filepath.Join(root, "single.hcl")
	writeFile(t, single)
	writeFile(t, filepath.Join(root, "dir", "one.hcl"))
	writeFile(t, filepath.Join(root, "dir", "skip.yaml"))

	t.Run("files and directories are merged without duplicates", func(t *testing.T) {
		files, err := CollectFiles([]string{single, filepath.Join(root, "dir"), single}, ".hcl")
		require.NoError(t, err)
		assert.Equal(t, []string{single, filepath.Join(root, "dir", "one.hcl")}, files)
	})

	t.Run("missing path is an error", func(t *testing.T) {
		_, err := CollectFiles([]string{filepath.Join(root, "nope")}, ".hcl")
		assert.ErrorContains(t, err, "error accessing path")
	})
}
