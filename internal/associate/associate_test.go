package associate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jrosolowski/videolib/internal/catalog"
	"github.com/jrosolowski/videolib/internal/catalog/catalogmock"
	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/store"
)

// fakeInspector stands in for infoExtractor, a single-method interface
// private to this package; mockgen has no exported interface here to
// target, so a hand-rolled stub stays the idiom for it.
type fakeInspector struct {
	info *model.MediaInfo
	err  error
}

func (f *fakeInspector) Extract(path string) (*model.MediaInfo, error) {
	return f.info, f.err
}

func stubClient(t *testing.T, series catalog.SeriesResult) *catalogmock.MockClient {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	client := catalogmock.NewMockClient(ctrl)
	client.EXPECT().GetSeriesDetails(gomock.Any(), gomock.Any()).Return(&series, nil).AnyTimes()
	client.EXPECT().GetSeriesExternalIDs(gomock.Any(), gomock.Any()).
		Return(series.IMDBID, series.TVDBID, nil).AnyTimes()
	return client
}

func newTestChecker(t *testing.T, inspector infoExtractor, client catalog.Client) (*Checker, *store.MovieRepository, *store.EpisodeRepository, *store.SeriesRepository) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "videolib.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	movies := store.NewMovieRepository(db)
	episodes := store.NewEpisodeRepository(db)
	series := store.NewSeriesRepository(db)
	confirmed := store.NewConfirmedAssociationRepository(db)
	cache := store.NewAssociationScanCacheRepository(db)

	return New(movies, episodes, series, confirmed, cache, inspector, client), movies, episodes, series
}

func intPtr(v int) *int { return &v }

func TestCheckMovieFlagsTitleDrift(t *testing.T) {
	checker, movies, _, _ := newTestChecker(t, &fakeInspector{info: &model.MediaInfo{DurationSeconds: 7200}}, stubClient(t, catalog.SeriesResult{}))

	m := &model.Movie{
		Title:           "The Matrix",
		Year:            intPtr(1999),
		DurationSeconds: 7200,
		FilePath:        "/video/Totally Different Name (1999).mkv",
	}
	require.NoError(t, movies.Create(m))

	suspicions := drainScan(t, checker)
	require.Len(t, suspicions, 1)
	require.Equal(t, "title_drift", suspicions[0].Reason)
}

func TestCheckMovieNoSuspicionWhenConsistent(t *testing.T) {
	checker, movies, _, _ := newTestChecker(t, &fakeInspector{info: &model.MediaInfo{DurationSeconds: 7200}}, stubClient(t, catalog.SeriesResult{}))

	m := &model.Movie{
		Title:           "The Matrix",
		Year:            intPtr(1999),
		DurationSeconds: 7200,
		FilePath:        "/video/The Matrix (1999).mkv",
	}
	require.NoError(t, movies.Create(m))

	suspicions := drainScan(t, checker)
	require.Empty(t, suspicions)
}

func TestCheckMovieFlagsDurationDrift(t *testing.T) {
	checker, movies, _, _ := newTestChecker(t, &fakeInspector{info: &model.MediaInfo{DurationSeconds: 1200}}, stubClient(t, catalog.SeriesResult{}))

	m := &model.Movie{
		Title:           "The Matrix",
		Year:            intPtr(1999),
		DurationSeconds: 7200,
		FilePath:        "/video/The Matrix (1999).mkv",
	}
	require.NoError(t, movies.Create(m))

	suspicions := drainScan(t, checker)
	require.Len(t, suspicions, 1)
	require.Equal(t, "duration_drift", suspicions[0].Reason)
}

func TestCheckMovieSkipsConfirmedAssociation(t *testing.T) {
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "videolib.db"))
	require.NoError(t, err)
	defer db.Close()

	movies := store.NewMovieRepository(db)
	episodes := store.NewEpisodeRepository(db)
	series := store.NewSeriesRepository(db)
	confirmed := store.NewConfirmedAssociationRepository(db)
	cache := store.NewAssociationScanCacheRepository(db)
	inspector := &fakeInspector{info: &model.MediaInfo{DurationSeconds: 100}}
	checker := New(movies, episodes, series, confirmed, cache, inspector, stubClient(t, catalog.SeriesResult{}))

	m := &model.Movie{
		Title:           "The Matrix",
		Year:            intPtr(1999),
		DurationSeconds: 7200,
		FilePath:        "/video/Nonsense Title.mkv",
	}
	require.NoError(t, movies.Create(m))
	require.NoError(t, confirmed.Confirm(model.EntityMovie, m.ID))

	suspicions := drainScan(t, checker)
	require.Empty(t, suspicions)
}

func TestCheckMovieResultIsCached(t *testing.T) {
	inspector := &fakeInspector{info: &model.MediaInfo{DurationSeconds: 7200}}
	checker, movies, _, _ := newTestChecker(t, inspector, stubClient(t, catalog.SeriesResult{}))

	m := &model.Movie{
		Title:           "The Matrix",
		Year:            intPtr(1999),
		DurationSeconds: 7200,
		FilePath:        "/video/Totally Different Name (1999).mkv",
	}
	require.NoError(t, movies.Create(m))

	first := drainScan(t, checker)
	require.Len(t, first, 1)

	inspector.err = context.DeadlineExceeded // prove the second scan doesn't re-probe
	second := drainScan(t, checker)
	require.Len(t, second, 1)
	require.Equal(t, "title_drift", second[0].Reason)
}

func TestEntityFingerprintDiffersPerInput(t *testing.T) {
	a := entityFingerprint(model.EntityMovie, uuid.New().String(), "/video/a.mkv")
	b := entityFingerprint(model.EntityMovie, a, "/video/a.mkv")
	require.NotEqual(t, a, b)
}

func drainScan(t *testing.T, checker *Checker) []Suspicion {
	t.Helper()
	var out []Suspicion
	for s := range checker.Scan(context.Background()) {
		out = append(out, s)
	}
	return out
}
