package validate

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jrosolowski/videolib/internal/catalog"
	"github.com/jrosolowski/videolib/internal/catalog/catalogmock"
	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/store"
)

// stubClient wires a MockClient to always return a fixed movie/series
// record regardless of query, mirroring the fixture-style catalog fakes
// these tests exercise Accept/Reject/ResetToPending against.
func stubClient(t *testing.T, movie catalog.MovieResult, series catalog.SeriesResult) *catalogmock.MockClient {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	client := catalogmock.NewMockClient(ctrl)
	client.EXPECT().SearchMovies(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]catalog.MovieResult{movie}, nil).AnyTimes()
	client.EXPECT().GetMovieDetails(gomock.Any(), gomock.Any()).
		Return(&movie, nil).AnyTimes()
	client.EXPECT().FindMovieByExternalID(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&movie, nil).AnyTimes()
	client.EXPECT().SearchSeries(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]catalog.SeriesResult{series}, nil).AnyTimes()
	client.EXPECT().GetSeriesDetails(gomock.Any(), gomock.Any()).
		Return(&series, nil).AnyTimes()
	client.EXPECT().GetSeriesExternalIDs(gomock.Any(), gomock.Any()).
		Return(series.IMDBID, series.TVDBID, nil).AnyTimes()
	client.EXPECT().GetEpisodeTitles(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]catalog.EpisodeTitle{{Season: 1, Episode: 1, Title: "Pilot"}}, nil).AnyTimes()
	return client
}

func newTestService(t *testing.T, client catalog.Client) (*Service, *store.PendingRepository, *store.VideoFileRepository) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "videolib.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pending := store.NewPendingRepository(db)
	movies := store.NewMovieRepository(db)
	series := store.NewSeriesRepository(db)
	episodes := store.NewEpisodeRepository(db)
	files := store.NewVideoFileRepository(db)

	return New(pending, movies, series, episodes, client), pending, files
}

func newPendingMovie(t *testing.T, pending *store.PendingRepository, files *store.VideoFileRepository, score float64) *model.PendingValidation {
	t.Helper()
	vf := &model.VideoFile{Path: "/downloads/Films/Example.2020.mkv", Filename: "Example.2020.mkv", SizeBytes: 1024}
	require.NoError(t, files.Upsert(vf))

	p := &model.PendingValidation{
		VideoFileID: vf.ID,
		Status:      model.StatusPending,
		Candidates: []model.CandidateSnapshot{
			{Source: model.SourceTMDB, ExternalID: "603", Title: "Example", Score: score},
		},
	}
	require.NoError(t, pending.Create(p))
	return p
}

func TestAcceptMaterializesMovieAndValidates(t *testing.T) {
	year := 2020
	client := stubClient(t, catalog.MovieResult{ExternalID: "603", Title: "Example", Year: &year, IMDBID: "tt0001"}, catalog.SeriesResult{})
	svc, pending, files := newTestService(t, client)
	p := newPendingMovie(t, pending, files, 90)

	require.NoError(t, svc.Accept(context.Background(), p.ID, "603"))

	got, err := pending.GetByID(p.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusValidated, got.Status)
	require.Equal(t, "603", got.SelectedCandidateID)
}

func TestAcceptUnknownCandidateRejected(t *testing.T) {
	client := stubClient(t, catalog.MovieResult{}, catalog.SeriesResult{})
	svc, pending, files := newTestService(t, client)
	p := newPendingMovie(t, pending, files, 90)

	require.Error(t, svc.Accept(context.Background(), p.ID, "does-not-exist"))
}

func TestRejectLeavesStatusRejected(t *testing.T) {
	client := stubClient(t, catalog.MovieResult{}, catalog.SeriesResult{})
	svc, pending, files := newTestService(t, client)
	p := newPendingMovie(t, pending, files, 40)

	require.NoError(t, svc.Reject(p.ID))
	got, err := pending.GetByID(p.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusRejected, got.Status)
}

func TestResetToPendingClearsSelection(t *testing.T) {
	year := 2020
	client := stubClient(t, catalog.MovieResult{ExternalID: "603", Title: "Example", Year: &year}, catalog.SeriesResult{})
	svc, pending, files := newTestService(t, client)
	p := newPendingMovie(t, pending, files, 90)

	require.NoError(t, svc.Accept(context.Background(), p.ID, "603"))
	require.NoError(t, svc.ResetToPending(p.ID))

	got, err := pending.GetByID(p.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, got.Status)
	require.Empty(t, got.SelectedCandidateID)
	require.Len(t, got.Candidates, 1)
}

func TestSeriesCascadeAcceptAndReset(t *testing.T) {
	client := stubClient(t, catalog.MovieResult{}, catalog.SeriesResult{ExternalID: "70992", TVDBID: "70992", Title: "Lost", Year: intPtr(2004)})
	svc, pending, files := newTestService(t, client)

	root := newPendingEpisode(t, pending, files, "lost", 1, 1)
	sibling := newPendingEpisode(t, pending, files, "lost", 1, 2)

	require.NoError(t, svc.Accept(context.Background(), root.ID, "70992"))

	gotSibling, err := pending.GetByID(sibling.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusValidated, gotSibling.Status)
	require.True(t, gotSibling.AutoValidated)
	require.NotNil(t, gotSibling.CascadeRoot)
	require.Equal(t, root.ID, *gotSibling.CascadeRoot)

	require.NoError(t, svc.ResetToPending(root.ID))
	gotSibling, err = pending.GetByID(sibling.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, gotSibling.Status)
}

func newPendingEpisode(t *testing.T, pending *store.PendingRepository, files *store.VideoFileRepository, seriesKey string, season, episode int) *model.PendingValidation {
	t.Helper()
	vf := &model.VideoFile{Path: "/downloads/Series/Lost/S01E0" + strconv.Itoa(episode) + ".mkv", Filename: "episode.mkv", SizeBytes: 1024}
	require.NoError(t, files.Upsert(vf))

	p := &model.PendingValidation{
		VideoFileID: vf.ID,
		Status:      model.StatusPending,
		SeriesKey:   seriesKey,
		Season:      &season,
		Episode:     &episode,
		Candidates: []model.CandidateSnapshot{
			{Source: model.SourceTVDB, ExternalID: "70992", Title: "Lost", Score: 90},
		},
	}
	require.NoError(t, pending.Create(p))
	return p
}

func intPtr(v int) *int { return &v }
