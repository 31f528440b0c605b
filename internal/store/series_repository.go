package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/normalize"
	"github.com/jrosolowski/videolib/internal/videoerr"
)

// SeriesRepository persists model.Series rows.
type SeriesRepository struct {
	db *sql.DB
}

func NewSeriesRepository(db *sql.DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

func (r *SeriesRepository) Create(s *model.Series) error {
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	genres, _ := json.Marshal(s.Genres)
	cast, _ := json.Marshal(s.Cast)

	_, err := r.db.Exec(`
		INSERT INTO series (id, tmdb_id, tvdb_id, imdb_id, title, sort_key, year, genres_json,
			overview, poster_url, created_by, cast_json, watched, personal_rating, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.ID.String(), s.TMDBID, s.TVDBID, s.IMDBID, s.Title, normalize.SortKey(s.Title), s.Year, string(genres),
		s.Overview, s.PosterURL, s.CreatedBy, string(cast), s.Watched, s.PersonalRating,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.SeriesRepository.Create", err)
	}
	return nil
}

func (r *SeriesRepository) GetByID(id uuid.UUID) (*model.Series, error) {
	row := r.db.QueryRow(seriesSelectColumns()+" WHERE id = ?", id.String())
	return scanSeries(row)
}

func (r *SeriesRepository) GetByTVDBID(tvdbID int) (*model.Series, error) {
	row := r.db.QueryRow(seriesSelectColumns()+" WHERE tvdb_id = ?", tvdbID)
	return scanSeries(row)
}

// SearchByTitle matches query against each series' normalized sort key, so
// accent and case differences between the query and the stored title don't
// prevent a match (sqlite's LIKE is ASCII-only case-insensitive).
func (r *SeriesRepository) SearchByTitle(query string) ([]*model.Series, error) {
	key := normalize.SortKey(query)
	if key == "" {
		return nil, nil
	}

	rows, err := r.db.Query(seriesSelectColumns()+" WHERE sort_key LIKE ? ORDER BY title", "%"+key+"%")
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.SeriesRepository.SearchByTitle", err)
	}
	defer rows.Close()

	var out []*model.Series
	for rows.Next() {
		s, err := scanSeriesInto(rows)
		if err != nil {
			return nil, videoerr.New(videoerr.StoreConsistency, "store.SeriesRepository.SearchByTitle", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SoftDeleteToTrash snapshots the series into trash as opaque JSON, then
// removes the row. Episodes owned by the series cascade to trash too
// (spec's "delete-cascade via soft-delete to Trash"), via the caller
// iterating EpisodeRepository.SoftDeleteToTrash for each one first.
func (r *SeriesRepository) SoftDeleteToTrash(trash *TrashRepository, id uuid.UUID) error {
	s, err := r.GetByID(id)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.SeriesRepository.SoftDeleteToTrash", err)
	}
	if err := trash.Create(&model.Trash{EntityType: model.EntitySeries, OriginalID: id, Payload: payload}); err != nil {
		return err
	}
	return r.Delete(id)
}

func (r *SeriesRepository) Delete(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM series WHERE id = ?`, id.String())
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.SeriesRepository.Delete", err)
	}
	return nil
}

// SetWatched records the operator's watched/unwatched toggle.
func (r *SeriesRepository) SetWatched(id uuid.UUID, watched bool) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(`UPDATE series SET watched = ?, updated_at = ? WHERE id = ?`, watched, now, id.String())
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.SeriesRepository.SetWatched", err)
	}
	return nil
}

// SetPersonalRating records the operator's 1..5 rating, or clears it when nil.
func (r *SeriesRepository) SetPersonalRating(id uuid.UUID, rating *int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(`UPDATE series SET personal_rating = ?, updated_at = ? WHERE id = ?`, rating, now, id.String())
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.SeriesRepository.SetPersonalRating", err)
	}
	return nil
}

func seriesSelectColumns() string {
	return `SELECT id, tmdb_id, tvdb_id, imdb_id, title, year, genres_json,
		overview, poster_url, created_by, cast_json, watched, personal_rating, created_at, updated_at
		FROM series`
}

func scanSeries(row *sql.Row) (*model.Series, error) {
	s, err := scanSeriesInto(row)
	if err == sql.ErrNoRows {
		return nil, videoerr.New(videoerr.NotFound, "store.SeriesRepository", err)
	}
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.SeriesRepository", err)
	}
	return s, nil
}

func scanSeriesInto(s rowScanner) (*model.Series, error) {
	var (
		series               model.Series
		id                   string
		genres, cast         string
		createdAt, updatedAt string
	)

	err := s.Scan(&id, &series.TMDBID, &series.TVDBID, &series.IMDBID, &series.Title, &series.Year,
		&genres, &series.Overview, &series.PosterURL, &series.CreatedBy, &cast,
		&series.Watched, &series.PersonalRating, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	series.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse series id: %w", err)
	}
	_ = json.Unmarshal([]byte(genres), &series.Genres)
	_ = json.Unmarshal([]byte(cast), &series.Cast)
	series.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	series.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &series, nil
}
