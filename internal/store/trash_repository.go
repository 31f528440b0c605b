package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/videoerr"
)

// TrashRepository persists soft-deleted entity snapshots for restore.
type TrashRepository struct {
	db *sql.DB
}

func NewTrashRepository(db *sql.DB) *TrashRepository {
	return &TrashRepository{db: db}
}

func (r *TrashRepository) Create(t *model.Trash) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.DeletedAt = time.Now().UTC()

	_, err := r.db.Exec(`INSERT INTO trash (id, entity_type, original_id, payload, deleted_at) VALUES (?,?,?,?,?)`,
		t.ID.String(), string(t.EntityType), t.OriginalID.String(), t.Payload, t.DeletedAt.Format(time.RFC3339))
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.TrashRepository.Create", err)
	}
	return nil
}

func (r *TrashRepository) GetByOriginalID(originalID uuid.UUID) (*model.Trash, error) {
	row := r.db.QueryRow(`SELECT id, entity_type, original_id, payload, deleted_at FROM trash WHERE original_id = ?`,
		originalID.String())

	var (
		t                     model.Trash
		id, entityType, origID string
		deletedAt             string
	)
	err := row.Scan(&id, &entityType, &origID, &t.Payload, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, videoerr.New(videoerr.NotFound, "store.TrashRepository.GetByOriginalID", err)
	}
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.TrashRepository.GetByOriginalID", err)
	}

	t.ID, _ = uuid.Parse(id)
	t.EntityType = model.EntityType(entityType)
	t.OriginalID, _ = uuid.Parse(origID)
	t.DeletedAt, _ = time.Parse(time.RFC3339, deletedAt)
	return &t, nil
}

func (r *TrashRepository) Delete(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM trash WHERE id = ?`, id.String())
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.TrashRepository.Delete", err)
	}
	return nil
}

// ConfirmedAssociationRepository persists operator-approved matches,
// excluding them from future association-drift scans.
type ConfirmedAssociationRepository struct {
	db *sql.DB
}

func NewConfirmedAssociationRepository(db *sql.DB) *ConfirmedAssociationRepository {
	return &ConfirmedAssociationRepository{db: db}
}

func (r *ConfirmedAssociationRepository) Confirm(entityType model.EntityType, entityID uuid.UUID) error {
	_, err := r.db.Exec(`
		INSERT INTO confirmed_associations (id, entity_type, entity_id, confirmed_at)
		VALUES (?,?,?,?)
		ON CONFLICT(entity_type, entity_id) DO UPDATE SET confirmed_at = excluded.confirmed_at`,
		uuid.New().String(), string(entityType), entityID.String(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.ConfirmedAssociationRepository.Confirm", err)
	}
	return nil
}

func (r *ConfirmedAssociationRepository) IsConfirmed(entityType model.EntityType, entityID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM confirmed_associations WHERE entity_type = ? AND entity_id = ?)`,
		string(entityType), entityID.String()).Scan(&exists)
	if err != nil {
		return false, videoerr.New(videoerr.StoreConsistency, "store.ConfirmedAssociationRepository.IsConfirmed", err)
	}
	return exists, nil
}

func (r *ConfirmedAssociationRepository) Revoke(entityType model.EntityType, entityID uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM confirmed_associations WHERE entity_type = ? AND entity_id = ?`,
		string(entityType), entityID.String())
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.ConfirmedAssociationRepository.Revoke", err)
	}
	return nil
}
