// Package associate implements the Association Checker (C8, spec §4.7): a
// lazy stream of suspicious Movie/Episode associations, detected by
// comparing the file's actual name and technical profile against the
// catalog metadata it was matched to.
package associate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jrosolowski/videolib/internal/catalog"
	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/normalize"
	"github.com/jrosolowski/videolib/internal/scanner"
	"github.com/jrosolowski/videolib/internal/store"
)

const (
	titleDriftThreshold    = 75.0 // token-set ratio below this is suspicious
	yearDriftThreshold     = 2    // |Δyear| at or above this is suspicious
	durationDriftFraction  = 0.30 // |Δduration|/entity_duration above this is suspicious
	episodeCountDriftDelta = 0    // any local episode number past the catalog's count for the season is suspicious

	associationCacheTTL = 24 * time.Hour
)

// Suspicion is one flagged entity: a confidence score (0-100, lower is
// more suspect) and the reason tag that drove it.
type Suspicion struct {
	EntityType model.EntityType
	EntityID   string
	FilePath   string
	Confidence int
	Reason     string
}

// infoExtractor is the slice of mediainfo.Inspector the checker needs,
// narrowed so tests can supply a fake instead of shelling out to ffprobe.
type infoExtractor interface {
	Extract(path string) (*model.MediaInfo, error)
}

// Checker runs on-demand suspicion scans over every transferred entity.
type Checker struct {
	movies    *store.MovieRepository
	episodes  *store.EpisodeRepository
	series    *store.SeriesRepository
	confirmed *store.ConfirmedAssociationRepository
	cache     *store.AssociationScanCacheRepository
	inspector infoExtractor
	client    catalog.Client
	parser    *scanner.Parser
}

func New(movies *store.MovieRepository, episodes *store.EpisodeRepository, series *store.SeriesRepository,
	confirmed *store.ConfirmedAssociationRepository, cache *store.AssociationScanCacheRepository,
	inspector infoExtractor, client catalog.Client) *Checker {
	return &Checker{
		movies: movies, episodes: episodes, series: series,
		confirmed: confirmed, cache: cache, inspector: inspector, client: client,
		parser: scanner.NewParser(),
	}
}

// Scan yields suspicious associations on a channel as they're found,
// honoring ctx cancellation between entities (spec §5 suspension points).
// The channel is closed once every transferred entity has been checked.
func (c *Checker) Scan(ctx context.Context) <-chan Suspicion {
	out := make(chan Suspicion, 1)

	go func() {
		defer close(out)

		movies, err := c.movies.ListWithFilePath()
		if err == nil {
			for _, m := range movies {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if s, ok := c.checkMovie(ctx, m); ok {
					out <- s
				}
			}
		}

		episodes, err := c.episodes.ListWithFilePath()
		if err == nil {
			for _, ep := range episodes {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if s, ok := c.checkEpisode(ctx, ep); ok {
					out <- s
				}
			}
		}
	}()

	return out
}

func (c *Checker) checkMovie(ctx context.Context, m *model.Movie) (Suspicion, bool) {
	if confirmed, _ := c.confirmed.IsConfirmed(model.EntityMovie, m.ID); confirmed {
		return Suspicion{}, false
	}

	fp := entityFingerprint(model.EntityMovie, m.ID.String(), m.FilePath)
	if cached, hit, _ := c.cache.Get(fp, associationCacheTTL); hit {
		return suspicionFromCache(model.EntityMovie, m.ID.String(), m.FilePath, cached), cached.Confidence < 100
	}

	parsed := c.parser.Parse(filepath.Base(m.FilePath), model.KindMovie)
	info, err := c.inspector.Extract(m.FilePath)
	if err != nil {
		return Suspicion{}, false
	}

	confidence := 100
	reason := ""

	if titleScore := normalize.TokenSetRatio(parsed.Title, m.Title); titleScore < titleDriftThreshold {
		if altScore := normalize.TokenSetRatio(parsed.Title, m.OriginalTitle); altScore < titleDriftThreshold {
			confidence, reason = worseOf(confidence, reason, int(titleScore), "title_drift")
		}
	}
	if parsed.Year != nil && m.Year != nil && absInt(*parsed.Year-*m.Year) >= yearDriftThreshold {
		confidence, reason = worseOf(confidence, reason, 40, "year_drift")
	}
	if m.DurationSeconds > 0 {
		delta := absInt(info.DurationSeconds - m.DurationSeconds)
		if float64(delta)/float64(m.DurationSeconds) > durationDriftFraction {
			confidence, reason = worseOf(confidence, reason, 50, "duration_drift")
		}
	}

	_ = c.cache.Set(fp, confidence, reason)
	if confidence >= 100 {
		return Suspicion{}, false
	}
	return Suspicion{EntityType: model.EntityMovie, EntityID: m.ID.String(), FilePath: m.FilePath, Confidence: confidence, Reason: reason}, true
}

func (c *Checker) checkEpisode(ctx context.Context, ep *model.Episode) (Suspicion, bool) {
	if confirmed, _ := c.confirmed.IsConfirmed(model.EntityEpisode, ep.ID); confirmed {
		return Suspicion{}, false
	}

	fp := entityFingerprint(model.EntityEpisode, ep.ID.String(), ep.FilePath)
	if cached, hit, _ := c.cache.Get(fp, associationCacheTTL); hit {
		return suspicionFromCache(model.EntityEpisode, ep.ID.String(), ep.FilePath, cached), cached.Confidence < 100
	}

	ser, err := c.series.GetByID(ep.SeriesID)
	if err != nil {
		return Suspicion{}, false
	}

	parsed := c.parser.Parse(filepath.Base(ep.FilePath), model.KindSeries)

	confidence := 100
	reason := ""

	if titleScore := normalize.TokenSetRatio(parsed.Title, ser.Title); titleScore < titleDriftThreshold {
		confidence, reason = worseOf(confidence, reason, int(titleScore), "title_drift")
	}
	if parsed.Year != nil && ser.Year != nil && absInt(*parsed.Year-*ser.Year) >= yearDriftThreshold {
		confidence, reason = worseOf(confidence, reason, 40, "year_drift")
	}

	if ser.TVDBID != nil {
		if details, derr := c.client.GetSeriesDetails(ctx, fmt.Sprintf("%d", *ser.TVDBID)); derr == nil {
			if maxEp, ok := details.SeasonEpisodeCounts[ep.SeasonNumber]; ok {
				localMax, _ := c.episodes.MaxEpisodeForSeason(ser.ID, ep.SeasonNumber)
				if localMax > maxEp+episodeCountDriftDelta {
					confidence, reason = worseOf(confidence, reason, 45, "episode_count_drift")
				}
			}
		}
	}

	_ = c.cache.Set(fp, confidence, reason)
	if confidence >= 100 {
		return Suspicion{}, false
	}
	return Suspicion{EntityType: model.EntityEpisode, EntityID: ep.ID.String(), FilePath: ep.FilePath, Confidence: confidence, Reason: reason}, true
}

// Invalidate drops the cached verdict for an entity, called on any write
// to it (re-association, manual edit); the cache is invalidated
// per-entity, never wholesale (spec §4.7).
func (c *Checker) Invalidate(entityType model.EntityType, entityID, filePath string) error {
	return c.cache.Invalidate(entityFingerprint(entityType, entityID, filePath))
}

// worseOf keeps the lowest confidence (most suspicious) reason seen so far.
func worseOf(confidence int, reason string, candidateScore int, candidateReason string) (int, string) {
	if candidateScore < confidence {
		return candidateScore, candidateReason
	}
	return confidence, reason
}

func suspicionFromCache(entityType model.EntityType, entityID, filePath string, cached *store.ScanCacheEntry) Suspicion {
	return Suspicion{EntityType: entityType, EntityID: entityID, FilePath: filePath, Confidence: cached.Confidence, Reason: cached.Reason}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func entityFingerprint(entityType model.EntityType, entityID, filePath string) string {
	h := sha256.New()
	for _, p := range []string{string(entityType), entityID, filePath} {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
