package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrosolowski/videolib/internal/model"
)

func openCatalogTestDB(t *testing.T) (*MovieRepository, *SeriesRepository, *EpisodeRepository, *TrashRepository, *CatalogStore) {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "videolib.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	movies := NewMovieRepository(db)
	series := NewSeriesRepository(db)
	episodes := NewEpisodeRepository(db)
	trash := NewTrashRepository(db)
	return movies, series, episodes, trash, NewCatalogStore(movies, series, episodes, trash)
}

func TestMovieSoftDeleteAndRestoreFromTrash(t *testing.T) {
	movies, _, _, trash, cat := openCatalogTestDB(t)

	m := &model.Movie{Title: "Predator", Year: intPtrStore(1987)}
	require.NoError(t, movies.Create(m))
	id := m.ID

	require.NoError(t, movies.SoftDeleteToTrash(trash, id))
	_, err := movies.GetByID(id)
	require.Error(t, err, "expected movie to be gone after soft delete")

	require.NoError(t, cat.RestoreFromTrash(id))

	restored, err := movies.GetByID(id)
	require.NoError(t, err)
	require.Equal(t, "Predator", restored.Title)
}

func TestSetWatchedAndPersonalRating(t *testing.T) {
	movies, _, _, _, _ := openCatalogTestDB(t)

	m := &model.Movie{Title: "The Thing"}
	require.NoError(t, movies.Create(m))

	require.NoError(t, movies.SetWatched(m.ID, true))
	rating := 5
	require.NoError(t, movies.SetPersonalRating(m.ID, &rating))

	got, err := movies.GetByID(m.ID)
	require.NoError(t, err)
	require.True(t, got.Watched, "expected watched=true")
	require.NotNil(t, got.PersonalRating)
	require.Equal(t, 5, *got.PersonalRating)
}

func intPtrStore(v int) *int { return &v }
