package scanner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrosolowski/videolib/internal/model"
)

func TestParseMovie(t *testing.T) {
	p := NewParser()
	r := p.Parse("Aliens (1986) [1080p].mkv", model.KindMovie)

	require.Equal(t, model.KindMovie, r.Type)
	require.Equal(t, "Aliens", r.Title)
	require.NotNil(t, r.Year)
	require.Equal(t, 1986, *r.Year)
	require.Equal(t, "1080p", r.Resolution)
}

func TestParseSeriesSingleEpisode(t *testing.T) {
	p := NewParser()
	r := p.Parse("Breaking Bad - S03E07.mkv", model.KindSeries)

	require.Equal(t, model.KindSeries, r.Type)
	require.Equal(t, "Breaking Bad", r.Title)
	require.NotNil(t, r.Season)
	require.Equal(t, 3, *r.Season)
	require.NotNil(t, r.Episode)
	require.Equal(t, 7, *r.Episode)
	require.Nil(t, r.EpisodeEnd, "expected no episode end")
}

func TestParseSeriesMultiEpisodeRange(t *testing.T) {
	p := NewParser()
	r := p.Parse("Breaking Bad - S03E07-08.mkv", model.KindSeries)

	require.NotNil(t, r.Episode)
	require.Equal(t, 7, *r.Episode)
	require.NotNil(t, r.EpisodeEnd)
	require.Equal(t, 8, *r.EpisodeEnd)
}

func TestParseSeriesMultiEpisodeDoubleE(t *testing.T) {
	p := NewParser()
	r := p.Parse("Breaking Bad - S03E07E08.mkv", model.KindSeries)

	require.NotNil(t, r.Episode)
	require.Equal(t, 7, *r.Episode)
	require.NotNil(t, r.EpisodeEnd)
	require.Equal(t, 8, *r.EpisodeEnd)
}

func TestParseStackedMoviePart(t *testing.T) {
	p := NewParser()
	r := p.Parse("Gone With The Wind (1939) CD1.mkv", model.KindMovie)

	require.NotNil(t, r.PartNumber)
	require.Equal(t, 1, *r.PartNumber)
	require.Equal(t, "CD", r.PartType)
	require.NotEmpty(t, r.BaseTitle)
}

func TestRetitleFromParent(t *testing.T) {
	p := NewParser()
	r := p.Parse("S03E07.mkv", model.KindSeries)
	require.Empty(t, r.Title, "expected empty title before retitling")

	r = p.RetitleFromParent(r, "Breaking Bad")
	require.Equal(t, "Breaking Bad", r.Title)
}
