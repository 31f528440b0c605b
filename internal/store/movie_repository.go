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

// MovieRepository persists model.Movie rows.
type MovieRepository struct {
	db *sql.DB
}

func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

func (r *MovieRepository) Create(m *model.Movie) error {
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	genres, _ := json.Marshal(m.Genres)
	cast, _ := json.Marshal(m.Cast)
	audioCodecs, _ := json.Marshal(m.AudioCodecs)
	audioLangs, _ := json.Marshal(m.AudioLanguages)

	_, err := r.db.Exec(`
		INSERT INTO movies (id, tmdb_id, imdb_id, title, sort_key, original_title, year, genres_json,
			duration_seconds, overview, poster_url, director, cast_json,
			resolution_width, resolution_height, resolution_label, video_codec,
			audio_codecs_json, audio_channels, audio_languages_json, container,
			file_path, symlink_path, watched, personal_rating, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.ID.String(), m.TMDBID, m.IMDBID, m.Title, normalize.SortKey(m.Title), m.OriginalTitle, m.Year, string(genres),
		m.DurationSeconds, m.Overview, m.PosterURL, m.Director, string(cast),
		m.Resolution.Width, m.Resolution.Height, string(m.Resolution.Label), m.VideoCodec,
		string(audioCodecs), m.AudioChannels, string(audioLangs), m.Container,
		m.FilePath, m.SymlinkPath, m.Watched, m.PersonalRating, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.MovieRepository.Create", err)
	}
	return nil
}

func (r *MovieRepository) GetByID(id uuid.UUID) (*model.Movie, error) {
	row := r.db.QueryRow(movieSelectColumns()+" WHERE id = ?", id.String())
	return scanMovie(row)
}

func (r *MovieRepository) GetByTMDBID(tmdbID int) (*model.Movie, error) {
	row := r.db.QueryRow(movieSelectColumns()+" WHERE tmdb_id = ?", tmdbID)
	return scanMovie(row)
}

func (r *MovieRepository) GetByFileHash(hash string) (*model.Movie, error) {
	row := r.db.QueryRow(movieSelectColumns()+` WHERE id IN (
		SELECT m.id FROM movies m JOIN video_files vf ON vf.file_path = m.file_path WHERE vf.file_hash = ?)`, hash)
	return scanMovie(row)
}

// SearchByTitle matches query against each movie's normalized sort key, so
// accent and case differences between the query and the stored title don't
// prevent a match (sqlite's LIKE is ASCII-only case-insensitive).
func (r *MovieRepository) SearchByTitle(query string) ([]*model.Movie, error) {
	key := normalize.SortKey(query)
	if key == "" {
		return nil, nil
	}

	rows, err := r.db.Query(movieSelectColumns()+" WHERE sort_key LIKE ? ORDER BY title", "%"+key+"%")
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.MovieRepository.SearchByTitle", err)
	}
	defer rows.Close()

	var out []*model.Movie
	for rows.Next() {
		m, err := scanMovieRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListWithFilePath returns every movie that has completed a transfer, the
// population the Association Checker (C8) audits.
func (r *MovieRepository) ListWithFilePath() ([]*model.Movie, error) {
	rows, err := r.db.Query(movieSelectColumns() + " WHERE file_path != '' ORDER BY title")
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.MovieRepository.ListWithFilePath", err)
	}
	defer rows.Close()

	var out []*model.Movie
	for rows.Next() {
		m, err := scanMovieRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListWithoutFilePath returns every movie still awaiting a transfer, the
// backlog the periodic transfer sweep (C7) drains.
func (r *MovieRepository) ListWithoutFilePath() ([]*model.Movie, error) {
	rows, err := r.db.Query(movieSelectColumns() + " WHERE file_path = '' ORDER BY title")
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.MovieRepository.ListWithoutFilePath", err)
	}
	defer rows.Close()

	var out []*model.Movie
	for rows.Next() {
		m, err := scanMovieRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MovieRepository) ListWatched(watched bool) ([]*model.Movie, error) {
	rows, err := r.db.Query(movieSelectColumns()+" WHERE watched = ? ORDER BY title", watched)
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.MovieRepository.ListWatched", err)
	}
	defer rows.Close()

	var out []*model.Movie
	for rows.Next() {
		m, err := scanMovieRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SetWatched records the operator's watched/unwatched toggle.
func (r *MovieRepository) SetWatched(id uuid.UUID, watched bool) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(`UPDATE movies SET watched = ?, updated_at = ? WHERE id = ?`, watched, now, id.String())
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.MovieRepository.SetWatched", err)
	}
	return nil
}

// SetPersonalRating records the operator's 1..5 rating, or clears it when nil.
func (r *MovieRepository) SetPersonalRating(id uuid.UUID, rating *int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(`UPDATE movies SET personal_rating = ?, updated_at = ? WHERE id = ?`, rating, now, id.String())
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.MovieRepository.SetPersonalRating", err)
	}
	return nil
}

func (r *MovieRepository) UpdatePaths(id uuid.UUID, filePath, symlinkPath string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(`UPDATE movies SET file_path = ?, symlink_path = ?, updated_at = ? WHERE id = ?`,
		filePath, symlinkPath, now, id.String())
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.MovieRepository.UpdatePaths", err)
	}
	return nil
}

// SoftDeleteToTrash snapshots the movie into trash as opaque JSON, then
// removes the row, so it can later be reinstated via RestoreFromTrash.
func (r *MovieRepository) SoftDeleteToTrash(trash *TrashRepository, id uuid.UUID) error {
	m, err := r.GetByID(id)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.MovieRepository.SoftDeleteToTrash", err)
	}
	if err := trash.Create(&model.Trash{EntityType: model.EntityMovie, OriginalID: id, Payload: payload}); err != nil {
		return err
	}
	return r.Delete(id)
}

func (r *MovieRepository) Delete(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM movies WHERE id = ?`, id.String())
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.MovieRepository.Delete", err)
	}
	return nil
}

func movieSelectColumns() string {
	return `SELECT id, tmdb_id, imdb_id, title, original_title, year, genres_json,
		duration_seconds, overview, poster_url, director, cast_json,
		resolution_width, resolution_height, resolution_label, video_codec,
		audio_codecs_json, audio_channels, audio_languages_json, container,
		file_path, symlink_path, watched, personal_rating, created_at, updated_at
		FROM movies`
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMovie(row *sql.Row) (*model.Movie, error) {
	m, err := scanMovieInto(row)
	if err == sql.ErrNoRows {
		return nil, videoerr.New(videoerr.NotFound, "store.MovieRepository", err)
	}
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.MovieRepository", err)
	}
	return m, nil
}

func scanMovieRows(rows *sql.Rows) (*model.Movie, error) {
	return scanMovieInto(rows)
}

func scanMovieInto(s rowScanner) (*model.Movie, error) {
	var (
		m                              model.Movie
		id                             string
		genres, cast, audioCodecs, audioLangs string
		resLabel                       string
		createdAt, updatedAt           string
	)

	err := s.Scan(&id, &m.TMDBID, &m.IMDBID, &m.Title, &m.OriginalTitle, &m.Year, &genres,
		&m.DurationSeconds, &m.Overview, &m.PosterURL, &m.Director, &cast,
		&m.Resolution.Width, &m.Resolution.Height, &resLabel, &m.VideoCodec,
		&audioCodecs, &m.AudioChannels, &audioLangs, &m.Container,
		&m.FilePath, &m.SymlinkPath, &m.Watched, &m.PersonalRating, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	m.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse movie id: %w", err)
	}
	m.Resolution.Label = model.ResolutionLabel(resLabel)
	_ = json.Unmarshal([]byte(genres), &m.Genres)
	_ = json.Unmarshal([]byte(cast), &m.Cast)
	_ = json.Unmarshal([]byte(audioCodecs), &m.AudioCodecs)
	_ = json.Unmarshal([]byte(audioLangs), &m.AudioLanguages)
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	m.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &m, nil
}
