package transfer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrosolowski/videolib/internal/fingerprint"
	"github.com/jrosolowski/videolib/internal/fsport"
	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/store"
	"github.com/jrosolowski/videolib/internal/videoerr"
)

func newTestTransferer(t *testing.T) (*Transferer, *store.MovieRepository, string, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "videolib.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	movies := store.NewMovieRepository(db)
	episodes := store.NewEpisodeRepository(db)
	storageRoot := filepath.Join(dir, "storage")
	videoRoot := filepath.Join(dir, "video")
	tr := New(fsport.New(), movies, episodes, storageRoot, videoRoot, filepath.Join(dir, "storage.lock"))
	return tr, movies, storageRoot, videoRoot
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func drain(events <-chan Event) []Event {
	var out []Event
	for e := range events {
		out = append(out, e)
	}
	return out
}

func TestTransferMovesAndSymlinksNewFile(t *testing.T) {
	tr, movies, storageRoot, _ := newTestTransferer(t)

	year := 1999
	m := &model.Movie{Title: "The Matrix", Year: &year, Genres: []string{"Action"}}
	require.NoError(t, movies.Create(m))

	src := filepath.Join(t.TempDir(), "The.Matrix.1999.mkv")
	writeFile(t, src, "movie-bytes")

	dest := MovieDestination(storageRoot, m, "mkv")
	item := Item{EntityType: model.EntityMovie, EntityID: m.ID, SourcePath: src, Destination: dest}

	events := drain(tr.Run(context.Background(), []Item{item}, false, nil))

	last := events[len(events)-1]
	require.Equal(t, EventFinished, last.Kind)
	require.Equal(t, 1, last.Report.Transferred)
	require.True(t, fileExists(dest), "expected file at destination %s", dest)

	got, err := movies.GetByID(m.ID)
	require.NoError(t, err)
	require.Equal(t, dest, got.FilePath)
	require.NotEmpty(t, got.SymlinkPath, "expected symlink path recorded")
}

func TestTransferDuplicateIsSkipped(t *testing.T) {
	tr, movies, storageRoot, _ := newTestTransferer(t)

	year := 1999
	m := &model.Movie{Title: "The Matrix", Year: &year}
	require.NoError(t, movies.Create(m))

	dest := MovieDestination(storageRoot, m, "mkv")
	writeFile(t, dest, "same-bytes")

	src := filepath.Join(t.TempDir(), "dup.mkv")
	writeFile(t, src, "same-bytes")

	item := Item{EntityType: model.EntityMovie, EntityID: m.ID, SourcePath: src, Destination: dest, FileHash: mustHash(t, dest)}
	events := drain(tr.Run(context.Background(), []Item{item}, false, nil))

	last := events[len(events)-1]
	require.Equal(t, 1, last.Report.Duplicates)
	require.Equal(t, 0, last.Report.Transferred)
	require.True(t, fileExists(src), "duplicate source should be left untouched on disk")
}

func TestTransferNameCollisionAwaitsResolution(t *testing.T) {
	tr, movies, storageRoot, _ := newTestTransferer(t)

	year := 1999
	m := &model.Movie{Title: "The Matrix", Year: &year}
	require.NoError(t, movies.Create(m))

	dest := MovieDestination(storageRoot, m, "mkv")
	writeFile(t, dest, "unrelated-bytes")

	src := filepath.Join(t.TempDir(), "collision.mkv")
	writeFile(t, src, "new-bytes")

	item := Item{EntityType: model.EntityMovie, EntityID: m.ID, SourcePath: src, Destination: dest, FileHash: "deadbeef"}

	resolve := func(ctx context.Context, it Item, subkind videoerr.ConflictSubkind) (Resolution, error) {
		require.Equal(t, videoerr.NameCollision, subkind)
		return KeepNew, nil
	}

	events := drain(tr.Run(context.Background(), []Item{item}, false, resolve))
	last := events[len(events)-1]
	require.Equal(t, 1, last.Report.Transferred, "expected keep_new to transfer")
}

func TestTransferDryRunTouchesNoFiles(t *testing.T) {
	tr, movies, storageRoot, _ := newTestTransferer(t)

	year := 2001
	m := &model.Movie{Title: "Example", Year: &year}
	require.NoError(t, movies.Create(m))

	src := filepath.Join(t.TempDir(), "Example.2001.mkv")
	writeFile(t, src, "bytes")
	dest := MovieDestination(storageRoot, m, "mkv")

	item := Item{EntityType: model.EntityMovie, EntityID: m.ID, SourcePath: src, Destination: dest}
	events := drain(tr.Run(context.Background(), []Item{item}, true, nil))

	last := events[len(events)-1]
	require.Equal(t, 1, last.Report.Transferred, "expected dry-run to count as transferred")
	require.False(t, fileExists(dest), "dry-run must not create the destination file")
	require.True(t, fileExists(src), "dry-run must not move the source file")
}

func mustHash(t *testing.T, path string) string {
	t.Helper()
	h, err := fingerprint.FileHash(path)
	require.NoError(t, err)
	return h
}
