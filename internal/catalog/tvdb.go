package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TVDBSource talks to TheTVDB API v4. It lazily authenticates and caches
// the bearer token for the lifetime of the process (tokens are long-lived;
// re-authenticating per request would burn an extra round trip on every call).
type TVDBSource struct {
	apiKey string
	client *http.Client

	mu    sync.Mutex
	token string
}

func NewTVDBSource(apiKey string) *TVDBSource {
	return &TVDBSource{apiKey: apiKey, client: &http.Client{Timeout: 15 * time.Second}}
}

func (s *TVDBSource) authenticate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return s.token, nil
	}

	body := fmt.Sprintf(`{"apikey":%q}`, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api4.thetvdb.com/v4/login", strings.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tvdb login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode)
	}

	var parsed struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("tvdb login decode: %w", err)
	}
	s.token = parsed.Data.Token
	return s.token, nil
}

func (s *TVDBSource) request(ctx context.Context, path string) (*http.Response, error) {
	token, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api4.thetvdb.com/v4"+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return s.client.Do(req)
}

type tvdbSearchHit struct {
	TVDBID     string `json:"tvdb_id"`
	Name       string `json:"name"`
	Overview   string `json:"overview"`
	Year       string `json:"year"`
	ImageURL   string `json:"image_url"`
	Score      float64 `json:"score"`
}

func (s *TVDBSource) SearchSeries(ctx context.Context, query string, year *int) ([]SeriesResult, error) {
	path := fmt.Sprintf("/search?query=%s&type=series", url.QueryEscape(query))
	if year != nil {
		path += fmt.Sprintf("&year=%d", *year)
	}
	resp, err := s.request(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("tvdb search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	var parsed struct {
		Data []tvdbSearchHit `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("tvdb search decode: %w", err)
	}

	out := make([]SeriesResult, 0, len(parsed.Data))
	for _, hit := range parsed.Data {
		out = append(out, hitToSeries(hit))
	}
	return out, nil
}

func (s *TVDBSource) GetSeriesDetails(ctx context.Context, externalID string) (*SeriesResult, error) {
	resp, err := s.request(ctx, "/series/"+externalID+"/extended")
	if err != nil {
		return nil, fmt.Errorf("tvdb details: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	var detail struct {
		Data struct {
			ID       int    `json:"id"`
			Name     string `json:"name"`
			Overview string `json:"overview"`
			Year     string `json:"year"`
			Image    string `json:"image"`
			RemoteIDs []struct {
				ID      string `json:"id"`
				SourceName string `json:"sourceName"`
			} `json:"remoteIds"`
			Seasons []struct {
				Number int `json:"number"`
			} `json:"seasons"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, fmt.Errorf("tvdb details decode: %w", err)
	}

	result := hitToSeries(tvdbSearchHit{
		TVDBID:   strconv.Itoa(detail.Data.ID),
		Name:     detail.Data.Name,
		Overview: detail.Data.Overview,
		Year:     detail.Data.Year,
		ImageURL: detail.Data.Image,
	})
	for _, r := range detail.Data.RemoteIDs {
		if strings.EqualFold(r.SourceName, "IMDB") {
			result.IMDBID = r.ID
		}
	}
	return &result, nil
}

func (s *TVDBSource) GetEpisodeTitles(ctx context.Context, seriesExternalID string, season int) ([]EpisodeTitle, error) {
	resp, err := s.request(ctx, fmt.Sprintf("/series/%s/episodes/default", seriesExternalID))
	if err != nil {
		return nil, fmt.Errorf("tvdb episodes: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	var parsed struct {
		Data struct {
			Episodes []struct {
				SeasonNumber  int    `json:"seasonNumber"`
				EpisodeNumber int    `json:"number"`
				Name          string `json:"name"`
				Aired         string `json:"aired"`
				Overview      string `json:"overview"`
			} `json:"episodes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("tvdb episodes decode: %w", err)
	}

	var out []EpisodeTitle
	for _, e := range parsed.Data.Episodes {
		if e.SeasonNumber != season {
			continue
		}
		out = append(out, EpisodeTitle{
			Season:   e.SeasonNumber,
			Episode:  e.EpisodeNumber,
			Title:    e.Name,
			AirDate:  e.Aired,
			Overview: e.Overview,
		})
	}
	return out, nil
}

func hitToSeries(hit tvdbSearchHit) SeriesResult {
	var year *int
	if hit.Year != "" {
		if y, err := strconv.Atoi(hit.Year); err == nil {
			year = &y
		}
	}
	return SeriesResult{
		ExternalID: hit.TVDBID,
		Source:     "tvdb",
		Title:      hit.Name,
		Year:       year,
		Overview:   hit.Overview,
		PosterURL:  hit.ImageURL,
		TVDBID:     hit.TVDBID,
	}
}
