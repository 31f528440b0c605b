package store

import (
	"database/sql"

	"github.com/jrosolowski/videolib/internal/videoerr"
)

// SettingsRepository persists operator-overridable config (spec §6): keys
// set here take precedence over environment defaults via
// config.MergeFromSettings.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, videoerr.New(videoerr.StoreConsistency, "store.SettingsRepository.Get", err)
	}
	return value, true, nil
}

func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return videoerr.New(videoerr.StoreConsistency, "store.SettingsRepository.Set", err)
	}
	return nil
}

// All returns every stored setting, used by config.MergeFromSettings at startup.
func (r *SettingsRepository) All() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, videoerr.New(videoerr.StoreConsistency, "store.SettingsRepository.All", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, videoerr.New(videoerr.StoreConsistency, "store.SettingsRepository.All", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}
