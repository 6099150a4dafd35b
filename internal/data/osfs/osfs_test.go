package osfs

import (
	"os"
	"path/filepath"
	"testing"

	"codeindex/internal/core/index"

	"github.com/stretchr/testify/require"
)

func TestFS_GetBuffer_CachesUntilInvalidated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	fs := New()
	b, err := fs.GetBuffer(index.AbsolutePath(path))
	require.NoError(t, err)
	require.Equal(t, "v1", string(b))

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))

	b, err = fs.GetBuffer(index.AbsolutePath(path))
	require.NoError(t, err)
	require.Equal(t, "v1", string(b), "a cached buffer is served even after the file on disk changes")

	fs.Invalidate(index.AbsolutePath(path))

	b, err = fs.GetBuffer(index.AbsolutePath(path))
	require.NoError(t, err)
	require.Equal(t, "v2", string(b), "invalidation forces a re-read")
}

func TestFS_GetBuffer_MissingFileErrors(t *testing.T) {
	fs := New()
	_, err := fs.GetBuffer(index.AbsolutePath(filepath.Join(t.TempDir(), "missing.go")))
	require.Error(t, err)
}

func TestFS_SetCurrentDirectoryAndAbs(t *testing.T) {
	fs := New()
	fs.SetCurrentDirectory("/p/dir")
	require.Equal(t, "/p/dir", fs.CurrentDirectory())

	abs, err := fs.Abs("a.go")
	require.NoError(t, err)
	require.Equal(t, "/p/dir/a.go", abs)

	abs, err = fs.Abs("/other/b.go")
	require.NoError(t, err)
	require.Equal(t, "/other/b.go", abs)
}
