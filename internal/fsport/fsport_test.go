package fsport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))
	dst := filepath.Join(dir, "nested", "dst.txt")

	p := New()
	require.NoError(t, p.Move(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	_, err = os.Stat(src)
	require.True(t, os.IsNotExist(err), "expected src removed, got err=%v", err)
}

func TestCreateAndRepairSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	link := filepath.Join(dir, "library", "link.txt")

	p := New()
	require.NoError(t, p.CreateSymlink(target, link))

	resolved, err := filepath.EvalSymlinks(link)
	require.NoError(t, err)
	require.Equal(t, target, resolved)

	newTarget := filepath.Join(dir, "target2.txt")
	require.NoError(t, os.WriteFile(newTarget, []byte("y"), 0o644))
	require.NoError(t, p.RepairSymlink(newTarget, link))

	resolved, err = filepath.EvalSymlinks(link)
	require.NoError(t, err)
	require.Equal(t, newTarget, resolved)
}

func TestSweepOrphans(t *testing.T) {
	dir := t.TempDir()
	libRoot := filepath.Join(dir, "library")
	trashRoot := filepath.Join(dir, "trash")
	target := filepath.Join(dir, "gone.txt")
	require.NoError(t, os.WriteFile(target, []byte("z"), 0o644))
	link := filepath.Join(libRoot, "Movies", "gone.txt")

	p := New()
	require.NoError(t, p.CreateSymlink(target, link))
	require.NoError(t, os.Remove(target))

	swept, err := p.SweepOrphans(libRoot, trashRoot)
	require.NoError(t, err)
	require.Len(t, swept, 1, "expected 1 orphan swept")

	_, err = os.Lstat(link)
	require.True(t, os.IsNotExist(err), "expected orphan link removed from library, got err=%v", err)
}
