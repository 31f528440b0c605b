package match

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrosolowski/videolib/internal/catalog"
	"github.com/jrosolowski/videolib/internal/model"
)

func intp(v int) *int { return &v }

func TestFinalizeAutoValidatesSingleHighScore(t *testing.T) {
	candidates := []model.CandidateSnapshot{
		{ExternalID: "1", Score: 90},
	}
	result := finalize(candidates)
	require.True(t, result.AutoValidated, "expected auto-validation for single candidate >= 85")
}

func TestFinalizeAutoValidatesOnGap(t *testing.T) {
	candidates := []model.CandidateSnapshot{
		{ExternalID: "1", Score: 90},
		{ExternalID: "2", Score: 75},
	}
	result := finalize(candidates)
	require.True(t, result.AutoValidated, "expected auto-validation when top candidate has >= 10pt gap")
}

func TestFinalizeWithholdsOnNarrowGap(t *testing.T) {
	candidates := []model.CandidateSnapshot{
		{ExternalID: "1", Score: 90},
		{ExternalID: "2", Score: 84},
	}
	result := finalize(candidates)
	require.False(t, result.AutoValidated, "expected no auto-validation when gap is under 10pt")
}

func TestFinalizeTiesBreakOnExternalID(t *testing.T) {
	candidates := []model.CandidateSnapshot{
		{ExternalID: "999", Score: 80},
		{ExternalID: "100", Score: 80},
	}
	result := finalize(candidates)
	require.Equal(t, "100", result.Candidates[0].ExternalID, "expected lexicographically smaller external ID to sort first on tie")
}

func TestFinalizeTrimsToTopN(t *testing.T) {
	var candidates []model.CandidateSnapshot
	for i := 0; i < topK; i++ {
		candidates = append(candidates, model.CandidateSnapshot{ExternalID: string(rune('a' + i)), Score: float64(i)})
	}
	result := finalize(candidates)
	require.Len(t, result.Candidates, topN)
}

func TestYearProximityScore(t *testing.T) {
	require.Equal(t, 100.0, yearProximityScore(intp(1986), intp(1986)), "exact year match")
	require.Equal(t, 0.0, yearProximityScore(intp(1986), intp(1990)), "4 years apart is past the ±3 floor")
	require.Equal(t, 0.0, yearProximityScore(intp(1986), intp(1989)), "exactly 3 years apart scores 0")
	require.InDelta(t, 66.67, yearProximityScore(intp(1986), intp(1987)), 0.01, "1 year apart decays linearly")
	require.Equal(t, 60.0, yearProximityScore(nil, intp(1990)), "missing year scores 60")
	require.Equal(t, 60.0, yearProximityScore(intp(1990), nil), "missing year scores 60 regardless of side")
}

func TestDurationProximityScore(t *testing.T) {
	require.Equal(t, 100.0, durationProximityScore(7200, 7200), "exact match")
	require.Equal(t, 100.0, durationProximityScore(6120, 7200), "15% difference still scores full points")
	require.Equal(t, 0.0, durationProximityScore(5040, 7200), "30% difference scores 0")
	require.InDelta(t, 50.0, durationProximityScore(5580, 7200), 0.5, "midway between 15% and 30% decays linearly")
}

func TestEpisodeEnvelopeScore(t *testing.T) {
	counts := map[int]int{1: 10}
	require.Equal(t, 100.0, episodeEnvelopeScore(intp(1), intp(5), counts), "episode within the declared envelope")
	require.Equal(t, 0.0, episodeEnvelopeScore(intp(1), intp(20), counts), "episode beyond the declared envelope")
	require.Equal(t, 0.0, episodeEnvelopeScore(intp(1), nil, counts), "no parsed episode number")
	require.Equal(t, 50.0, episodeEnvelopeScore(nil, intp(5), counts), "episode with no parsed season")
	require.Equal(t, 50.0, episodeEnvelopeScore(intp(2), intp(5), counts), "candidate has no envelope for this season")
}

func TestScoreSeriesPenalizesOutOfRangeEpisode(t *testing.T) {
	scan := model.ScanResult{
		Parsed: model.ParsedFilename{
			Title: "Lost", Season: intp(1), Episode: intp(99),
		},
	}
	hit := catalog.SeriesResult{
		Title:               "Lost",
		SeasonEpisodeCounts: map[int]int{1: 24},
	}
	// A wildly out-of-range episode should score far lower on the episode
	// bucket than an in-range one, not the full 100 a presence-only check
	// would award.
	inRange := scan
	inRange.Parsed.Episode = intp(5)

	outOfRange := scoreSeries(scan, hit)
	within := scoreSeries(inRange, hit)
	require.Less(t, outOfRange, within)
}
