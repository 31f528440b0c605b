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

// VideoFileRepository persists the scanner's raw file discoveries.
type VideoFileRepository struct {
	db *sql.DB
}

func NewVideoFileRepository(db *sql.DB) *VideoFileRepository {
	return &VideoFileRepository{db: db}
}

func (r *VideoFileRepository) Upsert(f *model.VideoFile) error {
	now := time.Now().UTC()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.DiscoveredAt.IsZero() {
		f.DiscoveredAt = now
	}
	f.UpdatedAt = now

	mediaInfoJSON, _ := json.Marshal(f.MediaInfo)

	_, err := r.db.Exec(`
		INSERT INTO video_files (id, path, filename, size_bytes, file_hash, media_info_json, discovered_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(path) DO UPDATE SET
			size_bytes = excluded.size_bytes,
			file_hash = excluded.file_hash,
			media_info_json = excluded.media_info_json,
			updated_at = excluded.updated_at`,
		f.ID.String(), f.Path, f.Filename, f.SizeBytes, f.FileHash, string(mediaInfoJSON),
		f.DiscoveredAt.Format(time.RFC3339), f.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.VideoFileRepository.Upsert", err)
	}
	return nil
}

func (r *VideoFileRepository) GetByPath(path string) (*model.VideoFile, error) {
	row := r.db.QueryRow(videoFileSelectColumns()+" WHERE path = ?", path)
	return scanVideoFile(row)
}

func (r *VideoFileRepository) GetByHash(hash string) (*model.VideoFile, error) {
	row := r.db.QueryRow(videoFileSelectColumns()+" WHERE file_hash = ?", hash)
	return scanVideoFile(row)
}

func (r *VideoFileRepository) GetByID(id uuid.UUID) (*model.VideoFile, error) {
	row := r.db.QueryRow(videoFileSelectColumns()+" WHERE id = ?", id.String())
	return scanVideoFile(row)
}

func videoFileSelectColumns() string {
	return `SELECT id, path, filename, size_bytes, file_hash, media_info_json, discovered_at, updated_at FROM video_files`
}

func scanVideoFile(row *sql.Row) (*model.VideoFile, error) {
	var (
		f                    model.VideoFile
		id                   string
		fileHash             sql.NullString
		mediaInfoJSON        string
		discoveredAt, updatedAt string
	)

	err := row.Scan(&id, &f.Path, &f.Filename, &f.SizeBytes, &fileHash, &mediaInfoJSON, &discoveredAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, videoerr.New(videoerr.NotFound, "store.VideoFileRepository", err)
	}
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.VideoFileRepository", err)
	}

	f.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.VideoFileRepository", fmt.Errorf("parse video file id: %w", err))
	}
	if fileHash.Valid {
		f.FileHash = &fileHash.String
	}
	if mediaInfoJSON != "" && mediaInfoJSON != "null" {
		var info model.MediaInfo
		if json.Unmarshal([]byte(mediaInfoJSON), &info) == nil {
			f.MediaInfo = &info
		}
	}
	f.DiscoveredAt, _ = time.Parse(time.RFC3339, discoveredAt)
	f.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &f, nil
}
