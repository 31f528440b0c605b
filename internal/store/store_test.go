package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrosolowski/videolib/internal/model"
)

func openTestDB(t *testing.T) *MovieRepository {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "videolib.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMovieRepository(db)
}

func TestMovieCreateAndGetByID(t *testing.T) {
	repo := openTestDB(t)

	year := 1986
	m := &model.Movie{
		Title: "Aliens",
		Year:  &year,
	}
	require.NoError(t, repo.Create(m))

	got, err := repo.GetByID(m.ID)
	require.NoError(t, err)
	require.Equal(t, "Aliens", got.Title)
	require.NotNil(t, got.Year)
	require.Equal(t, 1986, *got.Year)
}

func TestMovieSearchByTitle(t *testing.T) {
	repo := openTestDB(t)

	require.NoError(t, repo.Create(&model.Movie{Title: "Le Fabuleux Destin d'Amélie Poulain"}))

	results, err := repo.SearchByTitle("amelie")
	require.NoError(t, err)
	require.Len(t, results, 1, "expected 1 result for accent-insensitive search")
}

func TestMovieGetByIDNotFound(t *testing.T) {
	repo := openTestDB(t)

	_, err := repo.GetByID(mustParseUUID(t, "00000000-0000-0000-0000-000000000000"))
	require.Error(t, err, "expected not-found error")
}
