package pkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "a", "b")

	require.Error(t, EnsureDir(dir, false))
	require.NoError(t, EnsureDir(dir, true))
	require.NoError(t, EnsureDir(dir, true), "existing directory must be accepted")

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	file := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))
	assert.Error(t, EnsureDir(file, true))
}

func TestCopyFileOverwrites(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "lib.dll")
	dest := filepath.Join(base, "out.dll")

	require.NoError(t, os.WriteFile(src, []byte("new content"), 0600))
	require.NoError(t, os.WriteFile(dest, []byte("old content which is longer"), 0600))

	written, n, err := CopyFile(src, dest, true)
	require.NoError(t, err)
	assert.Equal(t, dest, written)
	assert.Equal(t, int64(len("new content")), n)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "new content", string(data))
}

func TestCopyFileIntoDirectory(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "lib.dll")
	destDir := filepath.Join(base, "data")

	require.NoError(t, os.WriteFile(src, []byte("payload"), 0600))
	require.NoError(t, os.Mkdir(destDir, 0700))

	written, _, err := CopyFile(src, destDir, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "lib.dll"), written)
	assert.FileExists(t, written)
}

func TestCopyFileMissingSource(t *testing.T) {
	base := t.TempDir()
	_, _, err := CopyFile(filepath.Join(base, "missing.dll"), filepath.Join(base, "out.dll"), true)
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(base, "out.dll"))
}

func TestFindProjectRoot(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "libcudaimg"), 0700))
	nested := filepath.Join(base, "some", "nested", "dir")
	require.NoError(t, os.MkdirAll(nested, 0700))

	root, err := FindProjectRoot(nested, "libcudaimg")
	require.NoError(t, err)
	assert.Equal(t, base, root)

	lonely := t.TempDir()
	root, err = FindProjectRoot(lonely, "does-not-exist-anywhere-3f9a")
	require.NoError(t, err)
	assert.Equal(t, lonely, root)
}
