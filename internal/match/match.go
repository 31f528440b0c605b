// Package match implements the Matcher (C4, spec §4.4): scores catalog
// candidates against a scanned file's parsed filename and decides whether
// the result is confident enough to auto-validate.
package match

import (
	"context"
	"fmt"
	"sort"

	"github.com/jrosolowski/videolib/internal/catalog"
	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/normalize"
)

const (
	topK = 10 // candidates retrieved from the catalog per search
	topN = 5  // candidates retained on the PendingValidation

	weightTitle    = 0.60
	weightYear     = 0.25
	weightDuration = 0.15

	autoValidateMinScore = 85.0
	autoValidateGap      = 10.0

	// episodeOverflowPenalty is subtracted when a parsed episode number
	// exceeds every season a series candidate is known to have, a strong
	// signal the candidate is the wrong show (spec §4.4).
	episodeOverflowPenalty = 20.0
)

// Matcher scores catalog candidates for a single scanned file.
type Matcher struct {
	client catalog.Client
}

func New(client catalog.Client) *Matcher {
	return &Matcher{client: client}
}

// Result is the scored, ranked candidate list for one ScanResult.
type Result struct {
	Candidates    []model.CandidateSnapshot
	AutoValidated bool
}

// Match dispatches on the parsed file's kind and returns up to topN scored
// candidates, sorted descending, plus whether the top candidate clears the
// auto-validation bar.
func (m *Matcher) Match(ctx context.Context, scan model.ScanResult) (Result, error) {
	switch scan.Parsed.Type {
	case model.KindSeries:
		return m.matchSeries(ctx, scan)
	default:
		return m.matchMovie(ctx, scan)
	}
}

func (m *Matcher) matchMovie(ctx context.Context, scan model.ScanResult) (Result, error) {
	hits, err := m.client.SearchMovies(ctx, scan.Parsed.Title, scan.Parsed.Year)
	if err != nil {
		return Result{}, fmt.Errorf("match: search movies: %w", err)
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}

	candidates := make([]model.CandidateSnapshot, 0, len(hits))
	for _, h := range hits {
		score := scoreMovie(scan, h)
		candidates = append(candidates, model.CandidateSnapshot{
			Source:          model.SourceTMDB,
			ExternalID:      h.ExternalID,
			Title:           h.Title,
			OriginalTitle:   h.OriginalTitle,
			Year:            h.Year,
			Score:           score,
			PosterURL:       h.PosterURL,
			Overview:        h.Overview,
			DurationSeconds: h.DurationSeconds,
		})
	}

	return finalize(candidates), nil
}

func (m *Matcher) matchSeries(ctx context.Context, scan model.ScanResult) (Result, error) {
	hits, err := m.client.SearchSeries(ctx, scan.Parsed.Title, scan.Parsed.Year)
	if err != nil {
		return Result{}, fmt.Errorf("match: search series: %w", err)
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}

	candidates := make([]model.CandidateSnapshot, 0, len(hits))
	for _, h := range hits {
		score := scoreSeries(scan, h)
		candidates = append(candidates, model.CandidateSnapshot{
			Source:     model.SourceTVDB,
			ExternalID: h.ExternalID,
			Title:      h.Title,
			Year:       h.Year,
			Score:      score,
			PosterURL:  h.PosterURL,
			Overview:   h.Overview,
		})
	}

	return finalize(candidates), nil
}

func scoreMovie(scan model.ScanResult, hit catalog.MovieResult) float64 {
	titleScore := normalize.TokenSetRatio(scan.Parsed.Title, hit.Title)
	yearScore := yearProximityScore(scan.Parsed.Year, hit.Year)
	durationScore := 0.0
	if scan.File.MediaInfo != nil && hit.DurationSeconds > 0 {
		durationScore = durationProximityScore(scan.File.MediaInfo.DurationSeconds, hit.DurationSeconds)
	} else if hit.DurationSeconds > 0 {
		durationScore = 50.0 // presence without a local duration to compare against
	}

	return clamp(titleScore*weightTitle + yearScore*weightYear + durationScore*weightDuration)
}

func scoreSeries(scan model.ScanResult, hit catalog.SeriesResult) float64 {
	titleScore := normalize.TokenSetRatio(scan.Parsed.Title, hit.Title)
	yearScore := yearProximityScore(scan.Parsed.Year, hit.Year)

	episodeScore := episodeEnvelopeScore(scan.Parsed.Season, scan.Parsed.Episode, hit.SeasonEpisodeCounts)

	score := clamp(titleScore*weightTitle + yearScore*weightYear + episodeScore*weightDuration)

	if scan.Parsed.Episode != nil && len(hit.SeasonEpisodeCounts) > 0 {
		largest := 0
		for _, count := range hit.SeasonEpisodeCounts {
			if count > largest {
				largest = count
			}
		}
		if *scan.Parsed.Episode > largest {
			score -= episodeOverflowPenalty
		}
	}

	return clamp(score)
}

// episodeEnvelopeScore reports whether the candidate's declared
// episode-count envelope for the parsed season includes the parsed episode
// number, the series-specific 15%-weight bucket (spec §4.3).
func episodeEnvelopeScore(season, episode *int, counts map[int]int) float64 {
	if episode == nil {
		return 0.0
	}
	if season == nil {
		return 50.0 // episode number with no season to check it against
	}
	maxEp, ok := counts[*season]
	if !ok {
		return 50.0 // candidate doesn't declare this season, no envelope to check
	}
	if *episode >= 1 && *episode <= maxEp {
		return 100.0
	}
	return 0.0
}

// yearProximityScore decays linearly from 100 at an exact match to 0 at
// ±3 years; either year missing scores 60 (spec §4.3).
func yearProximityScore(parsed, candidate *int) float64 {
	if parsed == nil || candidate == nil {
		return 60.0
	}
	diff := *parsed - *candidate
	if diff < 0 {
		diff = -diff
	}
	if diff >= 3 {
		return 0.0
	}
	return 100.0 * (1.0 - float64(diff)/3.0)
}

// durationProximityScore holds full points through a 15% difference, then
// decays linearly to 0 at a 30% difference (spec §4.3).
func durationProximityScore(localSeconds, candidateSeconds int) float64 {
	if localSeconds <= 0 || candidateSeconds <= 0 {
		return 50.0
	}
	diff := localSeconds - candidateSeconds
	if diff < 0 {
		diff = -diff
	}
	ratio := float64(diff) / float64(candidateSeconds)
	switch {
	case ratio <= 0.15:
		return 100.0
	case ratio <= 0.30:
		return 100.0 * (1.0 - (ratio-0.15)/0.15)
	default:
		return 0.0
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// finalize sorts candidates by descending score, breaking ties by
// lexicographic external ID only (year match and vote count are not
// consulted), trims to topN, and decides auto-validation.
func finalize(candidates []model.CandidateSnapshot) Result {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ExternalID < candidates[j].ExternalID
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	auto := false
	if len(candidates) == 1 && candidates[0].Score >= autoValidateMinScore {
		auto = true
	} else if len(candidates) >= 2 &&
		candidates[0].Score >= autoValidateMinScore &&
		candidates[0].Score-candidates[1].Score >= autoValidateGap {
		auto = true
	}

	return Result{Candidates: candidates, AutoValidated: auto}
}
