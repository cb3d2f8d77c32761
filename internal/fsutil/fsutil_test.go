package fsutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"b.hcl", "a.hcl", "sub/c.hcl", "sub/d.txt"} {
		full := filepath.Join(dir, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, nil, 0o644))
	}

	files, err := FindFilesByExtension(dir, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.hcl"),
		filepath.Join(dir, "b.hcl"),
		filepath.Join(dir, "sub", "c.hcl"),
	}, files)

	assert.Panics(t, func() { _, _ = FindFilesByExtension(dir, "") })
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested", "deeper"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "top.txt"), []byte("top"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "deeper", "leaf.txt"), []byte("leaf"), 0o644))

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, CopyDir(context.Background(), src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "nested", "deeper", "leaf.txt"))
	require.NoError(t, err)
	assert.Equal(t, "leaf", string(data))

	fi, err := os.Stat(filepath.Join(dst, "top.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	assert.ErrorContains(t, CopyDir(context.Background(), src, dst), "already exists")
}

func TestCopyDir_Cancelled(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "f"), nil, 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, CopyDir(ctx, src, filepath.Join(t.TempDir(), "x")), context.Canceled)
}
