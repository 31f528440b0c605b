package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrosolowski/videolib/internal/store"
)

func TestLoadUsesDefaultsWhenUnset(t *testing.T) {
	c := Load()
	require.Equal(t, "/storage", c.StorageRoot, "expected default storage root")
	require.Equal(t, 4, c.WorkerConcurrency, "expected default worker concurrency")
}

func TestLoadHonorsEnvOverride(t *testing.T) {
	t.Setenv("VIDEOLIB_STORAGE_ROOT", "/mnt/media/storage")
	t.Setenv("VIDEOLIB_WORKER_CONCURRENCY", "8")

	c := Load()
	require.Equal(t, "/mnt/media/storage", c.StorageRoot, "expected env override")
	require.Equal(t, 8, c.WorkerConcurrency, "expected env override")
}

func TestMergeFromSettingsOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "videolib.db"))
	require.NoError(t, err)
	defer db.Close()

	settings := store.NewSettingsRepository(db)
	require.NoError(t, settings.Set("storage_root", "/archive/storage"))
	require.NoError(t, settings.Set("worker_concurrency", "2"))

	c := Load()
	c.MergeFromSettings(db)

	require.Equal(t, "/archive/storage", c.StorageRoot, "expected settings override")
	require.Equal(t, 2, c.WorkerConcurrency, "expected settings override")
}
