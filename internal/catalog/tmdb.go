package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TMDBSource talks directly to the TMDB v3 API. It has no cache or rate
// limiting of its own; Client wraps it with both.
type TMDBSource struct {
	apiKey string
	client *http.Client
}

func NewTMDBSource(apiKey string) *TMDBSource {
	return &TMDBSource{apiKey: apiKey, client: &http.Client{Timeout: 15 * time.Second}}
}

type tmdbSearchResponse struct {
	Results []tmdbSearchHit `json:"results"`
}

type tmdbSearchHit struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	Name          string  `json:"name"`
	OriginalTitle string  `json:"original_title"`
	OriginalName  string  `json:"original_name"`
	Overview      string  `json:"overview"`
	PosterPath    string  `json:"poster_path"`
	ReleaseDate   string  `json:"release_date"`
	FirstAirDate  string  `json:"first_air_date"`
	VoteCount     int     `json:"vote_count"`
}

func (s *TMDBSource) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	query.Set("api_key", s.apiKey)
	u := fmt.Sprintf("https://api.themoviedb.org/3%s?%s", path, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return s.client.Do(req)
}

func (s *TMDBSource) SearchMovies(ctx context.Context, query string, year *int) ([]MovieResult, error) {
	q := url.Values{"query": {query}}
	if year != nil {
		q.Set("year", strconv.Itoa(*year))
	}
	resp, err := s.get(ctx, "/search/movie", q)
	if err != nil {
		return nil, fmt.Errorf("tmdb search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	var parsed tmdbSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("tmdb search decode: %w", err)
	}

	out := make([]MovieResult, 0, len(parsed.Results))
	for _, hit := range parsed.Results {
		out = append(out, hitToMovie(hit))
	}
	return out, nil
}

func (s *TMDBSource) GetMovieDetails(ctx context.Context, externalID string) (*MovieResult, error) {
	resp, err := s.get(ctx, "/movie/"+externalID, url.Values{"append_to_response": {"credits,external_ids"}})
	if err != nil {
		return nil, fmt.Errorf("tmdb details: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	var detail struct {
		tmdbSearchHit
		Runtime int `json:"runtime"`
		Genres  []struct {
			Name string `json:"name"`
		} `json:"genres"`
		ExternalIDs struct {
			IMDBID string `json:"imdb_id"`
		} `json:"external_ids"`
		Credits struct {
			Crew []struct {
				Job  string `json:"job"`
				Name string `json:"name"`
			} `json:"crew"`
			Cast []struct {
				Name string `json:"name"`
			} `json:"cast"`
		} `json:"credits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, fmt.Errorf("tmdb details decode: %w", err)
	}

	m := hitToMovie(detail.tmdbSearchHit)
	m.DurationSeconds = detail.Runtime * 60
	m.IMDBID = detail.ExternalIDs.IMDBID
	for _, g := range detail.Genres {
		m.Genres = append(m.Genres, g.Name)
	}
	for _, c := range detail.Credits.Crew {
		if c.Job == "Director" {
			m.Director = c.Name
			break
		}
	}
	for i, c := range detail.Credits.Cast {
		if i >= 5 {
			break
		}
		m.Cast = append(m.Cast, c.Name)
	}
	return &m, nil
}

func (s *TMDBSource) FindByIMDBID(ctx context.Context, imdbID string) (*MovieResult, error) {
	resp, err := s.get(ctx, "/find/"+imdbID, url.Values{"external_source": {"imdb_id"}})
	if err != nil {
		return nil, fmt.Errorf("tmdb find: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	var found struct {
		MovieResults []tmdbSearchHit `json:"movie_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&found); err != nil {
		return nil, fmt.Errorf("tmdb find decode: %w", err)
	}
	if len(found.MovieResults) == 0 {
		return nil, nil
	}
	m := hitToMovie(found.MovieResults[0])
	return &m, nil
}

func hitToMovie(hit tmdbSearchHit) MovieResult {
	title := hit.Title
	if title == "" {
		title = hit.Name
	}
	orig := hit.OriginalTitle
	if orig == "" {
		orig = hit.OriginalName
	}
	date := hit.ReleaseDate
	if date == "" {
		date = hit.FirstAirDate
	}

	var year *int
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil {
			year = &y
		}
	}

	var poster string
	if hit.PosterPath != "" {
		poster = "https://image.tmdb.org/t/p/w500" + hit.PosterPath
	}

	return MovieResult{
		ExternalID:    strconv.Itoa(hit.ID),
		Source:        "tmdb",
		Title:         title,
		OriginalTitle: orig,
		Year:          year,
		Overview:      hit.Overview,
		PosterURL:     poster,
		VoteCount:     hit.VoteCount,
	}
}

func statusError(code int) error {
	return fmt.Errorf("upstream status %d: %s", code, strings.TrimSpace(http.StatusText(code)))
}
