package workflow

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jrosolowski/videolib/internal/catalog"
	"github.com/jrosolowski/videolib/internal/catalog/catalogmock"
	"github.com/jrosolowski/videolib/internal/match"
	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/store"
	"github.com/jrosolowski/videolib/internal/validate"
)

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
		Return(nil, nil).AnyTimes()
	return client
}

func intPtr(v int) *int { return &v }

func newTestOrchestrator(t *testing.T, client catalog.Client) (*Orchestrator, *store.MovieRepository, *store.PendingRepository) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "videolib.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	movies := store.NewMovieRepository(db)
	series := store.NewSeriesRepository(db)
	episodes := store.NewEpisodeRepository(db)
	pending := store.NewPendingRepository(db)
	files := store.NewVideoFileRepository(db)

	matcher := match.New(client)
	validator := validate.New(pending, movies, series, episodes, client)
	o := New(nil, matcher, validator, files, pending, nil)
	return o, movies, pending
}

func TestProcessOneAutoValidatesConfidentMovie(t *testing.T) {
	client := stubClient(t, catalog.MovieResult{
		ExternalID: "603", Title: "The Matrix", OriginalTitle: "The Matrix",
		Year: intPtr(1999), DurationSeconds: 8160, VoteCount: 1000,
	}, catalog.SeriesResult{})
	o, movies, pending := newTestOrchestrator(t, client)

	scan := model.ScanResult{
		File: model.VideoFile{ID: uuid.New(), Path: "/downloads/Films/The Matrix (1999).mkv"},
		Parsed: model.ParsedFilename{
			Title: "The Matrix", Year: intPtr(1999), Type: model.KindMovie,
		},
	}

	auto, err := o.ProcessOne(context.Background(), scan)
	require.NoError(t, err)
	require.True(t, auto, "expected auto-validation for a single strong match")

	validated, err := pending.ListByStatus(model.StatusValidated)
	require.NoError(t, err)
	require.Len(t, validated, 1)

	m, err := movies.GetByTMDBID(603)
	require.NoError(t, err)
	require.Equal(t, "The Matrix", m.Title)
}

func TestProcessOneLeavesLowConfidenceMatchPending(t *testing.T) {
	client := stubClient(t, catalog.MovieResult{
		ExternalID: "1", Title: "Some Other Film", Year: intPtr(2010), DurationSeconds: 5400,
	}, catalog.SeriesResult{})
	o, _, pending := newTestOrchestrator(t, client)

	scan := model.ScanResult{
		File: model.VideoFile{ID: uuid.New(), Path: "/downloads/Films/Totally Unrelated Name.mkv"},
		Parsed: model.ParsedFilename{
			Title: "Totally Unrelated Name", Type: model.KindMovie,
		},
	}

	auto, err := o.ProcessOne(context.Background(), scan)
	require.NoError(t, err)
	require.False(t, auto, "expected no auto-validation for a low-confidence match")

	pendingItems, err := pending.ListByStatus(model.StatusPending)
	require.NoError(t, err)
	require.Len(t, pendingItems, 1)
}

func TestSeriesKeyForNormalizesTitleAndIgnoresMovies(t *testing.T) {
	movieScan := model.ScanResult{Parsed: model.ParsedFilename{Type: model.KindMovie, Title: "The Matrix"}}
	require.Empty(t, seriesKeyFor(movieScan))

	seriesScan := model.ScanResult{Parsed: model.ParsedFilename{Type: model.KindSeries, BaseTitle: "Breaking Bad"}}
	require.NotEmpty(t, seriesKeyFor(seriesScan))
}

func TestClassifyHintDetectsSeriesDirectories(t *testing.T) {
	require.Equal(t, model.KindSeries, classifyHint("/downloads/Series/Breaking Bad/S01E01.mkv"))
	require.Equal(t, model.KindMovie, classifyHint("/downloads/Films/The Matrix (1999).mkv"))
}
