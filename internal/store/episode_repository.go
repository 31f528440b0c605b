package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/videoerr"
)

// EpisodeRepository persists model.Episode rows, each owned by exactly one series.
type EpisodeRepository struct {
	db *sql.DB
}

func NewEpisodeRepository(db *sql.DB) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

func (r *EpisodeRepository) Create(e *model.Episode) error {
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	audioCodecs, _ := json.Marshal(e.AudioCodecs)
	audioLangs, _ := json.Marshal(e.AudioLanguages)

	_, err := r.db.Exec(`
		INSERT INTO episodes (id, series_id, season_number, episode_number, title, air_date,
			overview, file_path, symlink_path, resolution_width, resolution_height, resolution_label,
			video_codec, audio_codecs_json, audio_channels, audio_languages_json, container,
			duration_seconds, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID.String(), e.SeriesID.String(), e.SeasonNumber, e.EpisodeNumber, e.Title, e.AirDate,
		e.Overview, e.FilePath, e.SymlinkPath, e.Resolution.Width, e.Resolution.Height, string(e.Resolution.Label),
		e.VideoCodec, string(audioCodecs), e.AudioChannels, string(audioLangs), e.Container,
		e.DurationSeconds, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.EpisodeRepository.Create", err)
	}
	return nil
}

func (r *EpisodeRepository) GetByID(id uuid.UUID) (*model.Episode, error) {
	row := r.db.QueryRow(episodeSelectColumns()+" WHERE id = ?", id.String())
	return scanEpisode(row)
}

// GetBySeriesSeasonEpisode looks up the composite key the spec calls out
// for episode uniqueness (series_id, season, episode).
func (r *EpisodeRepository) GetBySeriesSeasonEpisode(seriesID uuid.UUID, season, episode int) (*model.Episode, error) {
	row := r.db.QueryRow(episodeSelectColumns()+" WHERE series_id = ? AND season_number = ? AND episode_number = ?",
		seriesID.String(), season, episode)
	return scanEpisode(row)
}

func (r *EpisodeRepository) ListBySeries(seriesID uuid.UUID) ([]*model.Episode, error) {
	rows, err := r.db.Query(episodeSelectColumns()+" WHERE series_id = ? ORDER BY season_number, episode_number", seriesID.String())
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.EpisodeRepository.ListBySeries", err)
	}
	defer rows.Close()

	var out []*model.Episode
	for rows.Next() {
		ep, err := scanEpisodeInto(rows)
		if err != nil {
			return nil, videoerr.New(videoerr.StoreConsistency, "store.EpisodeRepository.ListBySeries", err)
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// ListWithFilePath returns every episode that has completed a transfer,
// the population the Association Checker (C8) audits.
func (r *EpisodeRepository) ListWithFilePath() ([]*model.Episode, error) {
	rows, err := r.db.Query(episodeSelectColumns() + " WHERE file_path != '' ORDER BY series_id, season_number, episode_number")
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.EpisodeRepository.ListWithFilePath", err)
	}
	defer rows.Close()

	var out []*model.Episode
	for rows.Next() {
		ep, err := scanEpisodeInto(rows)
		if err != nil {
			return nil, videoerr.New(videoerr.StoreConsistency, "store.EpisodeRepository.ListWithFilePath", err)
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// ListWithoutFilePath returns every episode still awaiting a transfer, the
// backlog the periodic transfer sweep (C7) drains.
func (r *EpisodeRepository) ListWithoutFilePath() ([]*model.Episode, error) {
	rows, err := r.db.Query(episodeSelectColumns() + " WHERE file_path = '' ORDER BY series_id, season_number, episode_number")
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.EpisodeRepository.ListWithoutFilePath", err)
	}
	defer rows.Close()

	var out []*model.Episode
	for rows.Next() {
		ep, err := scanEpisodeInto(rows)
		if err != nil {
			return nil, videoerr.New(videoerr.StoreConsistency, "store.EpisodeRepository.ListWithoutFilePath", err)
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// MaxEpisodeForSeason returns the highest known episode number in a
// season, used by the association checker's episode-count drift check.
func (r *EpisodeRepository) MaxEpisodeForSeason(seriesID uuid.UUID, season int) (int, error) {
	var max sql.NullInt64
	err := r.db.QueryRow(`SELECT MAX(episode_number) FROM episodes WHERE series_id = ? AND season_number = ?`,
		seriesID.String(), season).Scan(&max)
	if err != nil {
		return 0, videoerr.New(videoerr.StoreConsistency, "store.EpisodeRepository.MaxEpisodeForSeason", err)
	}
	return int(max.Int64), nil
}

// UpdatePaths records the storage path and presentation symlink after a
// successful transfer (C7).
func (r *EpisodeRepository) UpdatePaths(id uuid.UUID, filePath, symlinkPath string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(`UPDATE episodes SET file_path = ?, symlink_path = ?, updated_at = ? WHERE id = ?`,
		filePath, symlinkPath, now, id.String())
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.EpisodeRepository.UpdatePaths", err)
	}
	return nil
}

// SoftDeleteToTrash snapshots the episode into trash as opaque JSON, then
// removes the row, so it can later be reinstated via RestoreFromTrash.
func (r *EpisodeRepository) SoftDeleteToTrash(trash *TrashRepository, id uuid.UUID) error {
	e, err := r.GetByID(id)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.EpisodeRepository.SoftDeleteToTrash", err)
	}
	if err := trash.Create(&model.Trash{EntityType: model.EntityEpisode, OriginalID: id, Payload: payload}); err != nil {
		return err
	}
	return r.Delete(id)
}

func (r *EpisodeRepository) Delete(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM episodes WHERE id = ?`, id.String())
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.EpisodeRepository.Delete", err)
	}
	return nil
}

func episodeSelectColumns() string {
	return `SELECT id, series_id, season_number, episode_number, title, air_date, overview,
		file_path, symlink_path, resolution_width, resolution_height, resolution_label,
		video_codec, audio_codecs_json, audio_channels, audio_languages_json, container,
		duration_seconds, created_at, updated_at
		FROM episodes`
}

func scanEpisode(row *sql.Row) (*model.Episode, error) {
	e, err := scanEpisodeInto(row)
	if err == sql.ErrNoRows {
		return nil, videoerr.New(videoerr.NotFound, "store.EpisodeRepository", err)
	}
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.EpisodeRepository", err)
	}
	return e, nil
}

func scanEpisodeInto(s rowScanner) (*model.Episode, error) {
	var (
		e                      model.Episode
		id, seriesID           string
		resLabel               string
		audioCodecs, audioLangs string
		createdAt, updatedAt   string
	)

	err := s.Scan(&id, &seriesID, &e.SeasonNumber, &e.EpisodeNumber, &e.Title, &e.AirDate, &e.Overview,
		&e.FilePath, &e.SymlinkPath, &e.Resolution.Width, &e.Resolution.Height, &resLabel,
		&e.VideoCodec, &audioCodecs, &e.AudioChannels, &audioLangs, &e.Container,
		&e.DurationSeconds, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	e.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse episode id: %w", err)
	}
	e.SeriesID, err = uuid.Parse(seriesID)
	if err != nil {
		return nil, fmt.Errorf("parse episode series id: %w", err)
	}
	e.Resolution.Label = model.ResolutionLabel(resLabel)
	_ = json.Unmarshal([]byte(audioCodecs), &e.AudioCodecs)
	_ = json.Unmarshal([]byte(audioLangs), &e.AudioLanguages)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &e, nil
}
