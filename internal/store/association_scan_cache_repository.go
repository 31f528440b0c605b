package store

import (
	"database/sql"
	"time"

	"github.com/jrosolowski/videolib/internal/videoerr"
)

// AssociationScanCacheRepository persists the Association Checker's (C8)
// 24h-TTL result cache, keyed by entity fingerprint.
type AssociationScanCacheRepository struct {
	db *sql.DB
}

func NewAssociationScanCacheRepository(db *sql.DB) *AssociationScanCacheRepository {
	return &AssociationScanCacheRepository{db: db}
}

// ScanCacheEntry is a cached suspicion verdict for one entity fingerprint.
type ScanCacheEntry struct {
	Confidence int
	Reason     string
	ScannedAt  time.Time
}

// Get returns the cached entry if it was scanned within ttl of now.
func (r *AssociationScanCacheRepository) Get(fingerprint string, ttl time.Duration) (*ScanCacheEntry, bool, error) {
	var (
		scannedAt  string
		confidence int
		reason     string
	)
	err := r.db.QueryRow(`SELECT scanned_at, confidence, reason FROM association_scan_cache WHERE entity_fingerprint = ?`,
		fingerprint).Scan(&scannedAt, &confidence, &reason)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, videoerr.New(videoerr.StoreConsistency, "store.AssociationScanCacheRepository.Get", err)
	}

	at, _ := time.Parse(time.RFC3339, scannedAt)
	if time.Since(at) > ttl {
		return nil, false, nil
	}
	return &ScanCacheEntry{Confidence: confidence, Reason: reason, ScannedAt: at}, true, nil
}

// Set records (or replaces) the cached verdict for fingerprint.
func (r *AssociationScanCacheRepository) Set(fingerprint string, confidence int, reason string) error {
	_, err := r.db.Exec(`
		INSERT INTO association_scan_cache (entity_fingerprint, scanned_at, confidence, reason)
		VALUES (?,?,?,?)
		ON CONFLICT(entity_fingerprint) DO UPDATE SET
			scanned_at = excluded.scanned_at, confidence = excluded.confidence, reason = excluded.reason`,
		fingerprint, time.Now().UTC().Format(time.RFC3339), confidence, reason)
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.AssociationScanCacheRepository.Set", err)
	}
	return nil
}

// Invalidate drops the cached verdict for fingerprint, used when the
// underlying entity is re-associated (targeted, not wholesale, per spec).
func (r *AssociationScanCacheRepository) Invalidate(fingerprint string) error {
	_, err := r.db.Exec(`DELETE FROM association_scan_cache WHERE entity_fingerprint = ?`, fingerprint)
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.AssociationScanCacheRepository.Invalidate", err)
	}
	return nil
}
