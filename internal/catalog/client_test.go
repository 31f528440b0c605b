package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/time/rate"
)

func newTestClient(movies movieSource) *CachedClient {
	return &CachedClient{
		tmdb:    movies,
		limiter: rate.NewLimiter(rate.Inf, 1),
		mem:     newMemCache(),
	}
}

func TestSearchMoviesCachesSecondCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	results := []MovieResult{{ExternalID: "1", Title: "Aliens"}}
	mock := newMockMovieSource(ctrl)
	mock.EXPECT().SearchMovies(gomock.Any(), "Aliens", gomock.Any()).Return(results, nil).Times(1)
	c := newTestClient(mock)

	ctx := context.Background()
	first, err := c.SearchMovies(ctx, "Aliens", nil)
	require.NoError(t, err)
	second, err := c.SearchMovies(ctx, "Aliens", nil)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	require.Equal(t, first[0].Title, second[0].Title)
}

func TestSearchMoviesDistinctQueriesMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	results := []MovieResult{{ExternalID: "1", Title: "Aliens"}}
	mock := newMockMovieSource(ctrl)
	mock.EXPECT().SearchMovies(gomock.Any(), "Aliens", gomock.Any()).Return(results, nil).Times(1)
	mock.EXPECT().SearchMovies(gomock.Any(), "Alien", gomock.Any()).Return(results, nil).Times(1)
	c := newTestClient(mock)

	ctx := context.Background()
	_, err := c.SearchMovies(ctx, "Aliens", nil)
	require.NoError(t, err)
	_, err = c.SearchMovies(ctx, "Alien", nil)
	require.NoError(t, err)
}
