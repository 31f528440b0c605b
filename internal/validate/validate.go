// Package validate implements the Validation Service (C6, spec §4.4): the
// operator-facing half of confirmation, sitting between the matcher's
// scored candidates and the transferer. It accepts, rejects, and resets
// PendingValidation items, cascades series decisions across sibling
// episodes, and re-invokes the catalog for manual search without
// persisting anything until the operator calls Accept.
package validate

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jrosolowski/videolib/internal/catalog"
	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/store"
	"github.com/jrosolowski/videolib/internal/videoerr"
)

// Service is the Validation Service. Reads are concurrent; mutating
// operations are serialized per pending_id (spec §4.4 concurrency note).
type Service struct {
	pending  *store.PendingRepository
	movies   *store.MovieRepository
	series   *store.SeriesRepository
	episodes *store.EpisodeRepository
	client   catalog.Client

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

func New(pending *store.PendingRepository, movies *store.MovieRepository, series *store.SeriesRepository,
	episodes *store.EpisodeRepository, client catalog.Client) *Service {
	return &Service{
		pending:  pending,
		movies:   movies,
		series:   series,
		episodes: episodes,
		client:   client,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Service) lockFor(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

// ListPending returns every item awaiting an operator decision.
func (s *Service) ListPending() ([]*model.PendingValidation, error) {
	return s.pending.ListByStatus(model.StatusPending)
}

// ListAutoValidated returns items the matcher validated without operator input.
func (s *Service) ListAutoValidated() ([]*model.PendingValidation, error) {
	return s.pending.ListAutoValidated()
}

// ListValidated returns items in the given terminal or in-flight status.
func (s *Service) ListValidated(status model.PendingStatus) ([]*model.PendingValidation, error) {
	return s.pending.ListByStatus(status)
}

// SearchManual re-invokes the catalog for an operator-entered query and
// returns enriched candidates inline; nothing is persisted until Accept.
func (s *Service) SearchManual(ctx context.Context, kind model.MediaKind, query string, year *int) ([]model.CandidateSnapshot, error) {
	if kind == model.KindSeries {
		hits, err := s.client.SearchSeries(ctx, query, year)
		if err != nil {
			return nil, fmt.Errorf("validate: search manual series: %w", err)
		}
		out := make([]model.CandidateSnapshot, 0, len(hits))
		for _, h := range hits {
			out = append(out, model.CandidateSnapshot{Source: model.SourceTVDB, ExternalID: h.ExternalID, Title: h.Title,
				Year: h.Year, PosterURL: h.PosterURL, Overview: h.Overview})
		}
		return out, nil
	}

	hits, err := s.client.SearchMovies(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("validate: search manual movies: %w", err)
	}
	out := make([]model.CandidateSnapshot, 0, len(hits))
	for _, h := range hits {
		out = append(out, model.CandidateSnapshot{Source: model.SourceTMDB, ExternalID: h.ExternalID, Title: h.Title,
			OriginalTitle: h.OriginalTitle, Year: h.Year, PosterURL: h.PosterURL, Overview: h.Overview,
			DurationSeconds: h.DurationSeconds})
	}
	return out, nil
}

// SearchByExternalID resolves a single external id to a candidate snapshot
// without persisting it.
func (s *Service) SearchByExternalID(ctx context.Context, source model.CandidateSource, externalID string) (*model.CandidateSnapshot, error) {
	switch source {
	case model.SourceTVDB:
		hit, err := s.client.GetSeriesDetails(ctx, externalID)
		if err != nil {
			return nil, fmt.Errorf("validate: search by external id: %w", err)
		}
		return &model.CandidateSnapshot{Source: model.SourceTVDB, ExternalID: hit.ExternalID, Title: hit.Title,
			Year: hit.Year, PosterURL: hit.PosterURL, Overview: hit.Overview}, nil
	default:
		hit, err := s.client.GetMovieDetails(ctx, externalID)
		if err != nil {
			return nil, fmt.Errorf("validate: search by external id: %w", err)
		}
		return &model.CandidateSnapshot{Source: model.SourceTMDB, ExternalID: hit.ExternalID, Title: hit.Title,
			OriginalTitle: hit.OriginalTitle, Year: hit.Year, PosterURL: hit.PosterURL, Overview: hit.Overview,
			DurationSeconds: hit.DurationSeconds}, nil
	}
}

// Accept confirms candidateExternalID as the match for pendingID, marks it
// Validated, and — for series members — cascades the same decision to
// sibling episodes sharing a series key that are still Pending.
func (s *Service) Accept(ctx context.Context, pendingID uuid.UUID, candidateExternalID string) error {
	lock := s.lockFor(pendingID)
	lock.Lock()
	defer lock.Unlock()

	p, err := s.pending.GetByID(pendingID)
	if err != nil {
		return err
	}

	candidate := findCandidate(p.Candidates, candidateExternalID)
	if candidate == nil {
		return videoerr.New(videoerr.InvalidInput, "validate.Accept", fmt.Errorf("candidate %q not among snapshot", candidateExternalID))
	}

	if err := s.materialize(ctx, p, *candidate); err != nil {
		return err
	}

	if err := s.pending.UpdateStatus(p.ID, model.StatusValidated, candidateExternalID, false, nil); err != nil {
		return err
	}

	if p.SeriesKey != "" {
		if err := s.cascadeAccept(ctx, p, *candidate); err != nil {
			return err
		}
	}
	return nil
}

// cascadeAccept auto-validates every sibling pending item in the same
// series that has not yet been resolved, tagging each with p's id as the
// cascade root (spec §4.4).
func (s *Service) cascadeAccept(ctx context.Context, root *model.PendingValidation, candidate model.CandidateSnapshot) error {
	siblings, err := s.pending.ListCascadeSiblings(root.SeriesKey, root.ID)
	if err != nil {
		return err
	}
	for _, sib := range siblings {
		if err := s.materialize(ctx, sib, candidate); err != nil {
			return err
		}
		rootID := root.ID
		if err := s.pending.UpdateStatus(sib.ID, model.StatusValidated, candidate.ExternalID, true, &rootID); err != nil {
			return err
		}
	}
	return nil
}

// materialize turns an accepted candidate into a persisted Movie or
// Episode (creating the owning Series first if needed).
func (s *Service) materialize(ctx context.Context, p *model.PendingValidation, candidate model.CandidateSnapshot) error {
	if p.Season != nil && p.Episode != nil {
		return s.materializeEpisode(ctx, p, candidate)
	}
	return s.materializeMovie(ctx, candidate)
}

func (s *Service) materializeMovie(ctx context.Context, candidate model.CandidateSnapshot) error {
	if candidate.ExternalID != "" {
		if _, err := s.movies.GetByTMDBID(mustAtoi(candidate.ExternalID)); err == nil {
			return nil
		}
	}

	details, err := s.client.GetMovieDetails(ctx, candidate.ExternalID)
	if err != nil {
		return fmt.Errorf("validate: fetch movie details: %w", err)
	}

	tmdbID := mustAtoi(details.ExternalID)
	movie := &model.Movie{
		TMDBID:          &tmdbID,
		Title:           details.Title,
		OriginalTitle:   details.OriginalTitle,
		Year:            details.Year,
		Genres:          details.Genres,
		DurationSeconds: details.DurationSeconds,
		Overview:        details.Overview,
		PosterURL:       details.PosterURL,
		Director:        details.Director,
		Cast:            details.Cast,
	}
	if details.IMDBID != "" {
		movie.IMDBID = &details.IMDBID
	}
	return s.movies.Create(movie)
}

func (s *Service) materializeEpisode(ctx context.Context, p *model.PendingValidation, candidate model.CandidateSnapshot) error {
	tvdbID := mustAtoi(candidate.ExternalID)
	ser, err := s.series.GetByTVDBID(tvdbID)
	if videoerr.Is(err, videoerr.NotFound) {
		details, ferr := s.client.GetSeriesDetails(ctx, candidate.ExternalID)
		if ferr != nil {
			return fmt.Errorf("validate: fetch series details: %w", ferr)
		}
		ser = &model.Series{
			TVDBID:    &tvdbID,
			Title:     details.Title,
			Year:      details.Year,
			Genres:    details.Genres,
			Overview:  details.Overview,
			PosterURL: details.PosterURL,
			CreatedBy: details.CreatedBy,
			Cast:      details.Cast,
		}
		if details.IMDBID != "" {
			ser.IMDBID = &details.IMDBID
		}
		if cerr := s.series.Create(ser); cerr != nil {
			return cerr
		}
	} else if err != nil {
		return err
	}

	titles, _ := s.client.GetEpisodeTitles(ctx, candidate.ExternalID, *p.Season)
	title := ""
	airDate := ""
	for _, t := range titles {
		if t.Episode == *p.Episode {
			title, airDate = t.Title, t.AirDate
			break
		}
	}

	episode := &model.Episode{
		SeriesID:      ser.ID,
		SeasonNumber:  *p.Season,
		EpisodeNumber: *p.Episode,
		Title:         title,
		AirDate:       airDate,
	}
	return s.episodes.Create(episode)
}

// Reject marks pendingID Rejected; the underlying file is left untouched.
// If it is a cascade root, every sibling auto-validated as part of that
// cascade reverts to Pending (the inverse propagation spec §4.4 requires).
func (s *Service) Reject(pendingID uuid.UUID) error {
	lock := s.lockFor(pendingID)
	lock.Lock()
	defer lock.Unlock()

	p, err := s.pending.GetByID(pendingID)
	if err != nil {
		return err
	}
	if err := s.pending.UpdateStatus(p.ID, model.StatusRejected, "", false, nil); err != nil {
		return err
	}
	return s.revertCascadeChildren(p.ID)
}

// ResetToPending clears the selection and auto_validated flag on
// pendingID, preserving its candidates, and reverts any cascade children.
func (s *Service) ResetToPending(pendingID uuid.UUID) error {
	lock := s.lockFor(pendingID)
	lock.Lock()
	defer lock.Unlock()

	p, err := s.pending.GetByID(pendingID)
	if err != nil {
		return err
	}
	if err := s.pending.UpdateStatus(p.ID, model.StatusPending, "", false, nil); err != nil {
		return err
	}
	return s.revertCascadeChildren(p.ID)
}

// revertCascadeChildren reverts every item whose cascade root is rootID
// back to Pending with its selection cleared (spec §4.4).
func (s *Service) revertCascadeChildren(rootID uuid.UUID) error {
	validated, err := s.pending.ListByStatus(model.StatusValidated)
	if err != nil {
		return err
	}
	for _, c := range validated {
		if c.CascadeRoot != nil && *c.CascadeRoot == rootID {
			if err := s.pending.UpdateStatus(c.ID, model.StatusPending, "", false, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func findCandidate(candidates []model.CandidateSnapshot, externalID string) *model.CandidateSnapshot {
	for i := range candidates {
		if candidates[i].ExternalID == externalID {
			return &candidates[i]
		}
	}
	return nil
}

func mustAtoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
