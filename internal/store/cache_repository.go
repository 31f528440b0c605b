package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jrosolowski/videolib/internal/videoerr"
)

// CacheRepository is the persistent tier of the catalog client's two-tier
// cache, implementing catalog.PersistentCache against sqlite.
type CacheRepository struct {
	db *sql.DB
}

func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	var (
		value     []byte
		expiresAt string
	)
	err := r.db.QueryRowContext(ctx, `SELECT value, expires_at FROM catalog_cache WHERE cache_key = ?`, key).
		Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, videoerr.New(videoerr.StoreConsistency, "store.CacheRepository.Get", err)
	}

	expires, _ := time.Parse(time.RFC3339, expiresAt)
	if time.Now().After(expires) {
		return nil, time.Time{}, false, nil
	}
	return value, expires, true, nil
}

func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, expires time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO catalog_cache (cache_key, value, expires_at) VALUES (?,?,?)
		ON CONFLICT(cache_key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expires.UTC().Format(time.RFC3339))
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.CacheRepository.Set", err)
	}
	return nil
}

// PurgeExpired deletes cache rows past their TTL; meant to be called
// periodically rather than on every lookup.
func (r *CacheRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM catalog_cache WHERE expires_at < ?`, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, videoerr.New(videoerr.StoreConsistency, "store.CacheRepository.PurgeExpired", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
