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

// PendingRepository persists model.PendingValidation rows: the matcher's
// output awaiting operator (or automatic) confirmation.
type PendingRepository struct {
	db *sql.DB
}

func NewPendingRepository(db *sql.DB) *PendingRepository {
	return &PendingRepository{db: db}
}

func (r *PendingRepository) Create(p *model.PendingValidation) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	candidates, _ := json.Marshal(p.Candidates)
	var cascadeRoot interface{}
	if p.CascadeRoot != nil {
		cascadeRoot = p.CascadeRoot.String()
	}

	_, err := r.db.Exec(`
		INSERT INTO pending_validations (id, video_file_id, status, auto_validated, selected_candidate_id,
			candidates_json, cascade_root, series_key, season, episode, episode_end, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID.String(), p.VideoFileID.String(), string(p.Status), p.AutoValidated, p.SelectedCandidateID,
		string(candidates), cascadeRoot, p.SeriesKey, p.Season, p.Episode, p.EpisodeEnd,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.PendingRepository.Create", err)
	}
	return nil
}

func (r *PendingRepository) GetByID(id uuid.UUID) (*model.PendingValidation, error) {
	row := r.db.QueryRow(pendingSelectColumns()+" WHERE id = ?", id.String())
	return scanPending(row)
}

func (r *PendingRepository) ListByStatus(status model.PendingStatus) ([]*model.PendingValidation, error) {
	return r.queryList(pendingSelectColumns()+" WHERE status = ? ORDER BY created_at", string(status))
}

func (r *PendingRepository) ListAutoValidated() ([]*model.PendingValidation, error) {
	return r.queryList(pendingSelectColumns()+" WHERE status = ? AND auto_validated = 1 ORDER BY created_at", string(model.StatusValidated))
}

// ListCascadeSiblings finds the other pending items that share seriesKey
// and have not yet been resolved, for series cascade validation.
func (r *PendingRepository) ListCascadeSiblings(seriesKey string, excludeID uuid.UUID) ([]*model.PendingValidation, error) {
	return r.queryList(pendingSelectColumns()+" WHERE series_key = ? AND id != ? AND status = ?",
		seriesKey, excludeID.String(), string(model.StatusPending))
}

func (r *PendingRepository) queryList(query string, args ...interface{}) ([]*model.PendingValidation, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.PendingRepository.queryList", err)
	}
	defer rows.Close()

	var out []*model.PendingValidation
	for rows.Next() {
		p, err := scanPendingInto(rows)
		if err != nil {
			return nil, videoerr.New(videoerr.StoreConsistency, "store.PendingRepository.queryList", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateStatus transitions a pending item's lifecycle state (accept,
// reject, or reset to pending); callers serialize this per pending ID
// (spec §9).
func (r *PendingRepository) UpdateStatus(id uuid.UUID, status model.PendingStatus, selectedCandidateID string, autoValidated bool, cascadeRoot *uuid.UUID) error {
	var cascade interface{}
	if cascadeRoot != nil {
		cascade = cascadeRoot.String()
	}
	_, err := r.db.Exec(`UPDATE pending_validations SET status = ?, selected_candidate_id = ?, auto_validated = ?,
		cascade_root = ?, updated_at = ? WHERE id = ?`,
		string(status), selectedCandidateID, autoValidated, cascade, time.Now().UTC().Format(time.RFC3339), id.String())
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.PendingRepository.UpdateStatus", err)
	}
	return nil
}

func pendingSelectColumns() string {
	return `SELECT id, video_file_id, status, auto_validated, selected_candidate_id, candidates_json,
		cascade_root, series_key, season, episode, episode_end, created_at, updated_at FROM pending_validations`
}

func scanPending(row *sql.Row) (*model.PendingValidation, error) {
	p, err := scanPendingInto(row)
	if err == sql.ErrNoRows {
		return nil, videoerr.New(videoerr.NotFound, "store.PendingRepository", err)
	}
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.PendingRepository", err)
	}
	return p, nil
}

func scanPendingInto(s rowScanner) (*model.PendingValidation, error) {
	var (
		p                          model.PendingValidation
		id, videoFileID            string
		status                     string
		candidatesJSON             string
		cascadeRoot                sql.NullString
		createdAt, updatedAt       string
	)

	err := s.Scan(&id, &videoFileID, &status, &p.AutoValidated, &p.SelectedCandidateID, &candidatesJSON,
		&cascadeRoot, &p.SeriesKey, &p.Season, &p.Episode, &p.EpisodeEnd, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse pending id: %w", err)
	}
	p.VideoFileID, err = uuid.Parse(videoFileID)
	if err != nil {
		return nil, fmt.Errorf("parse pending video file id: %w", err)
	}
	p.Status = model.PendingStatus(status)
	_ = json.Unmarshal([]byte(candidatesJSON), &p.Candidates)
	if cascadeRoot.Valid {
		if parsed, err := uuid.Parse(cascadeRoot.String); err == nil {
			p.CascadeRoot = &parsed
		}
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &p, nil
}
