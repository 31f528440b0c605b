// Package config loads videolib's runtime configuration from
// VIDEOLIB_-prefixed environment variables, with the catalog store's
// settings table able to override a subset of keys at startup.
package config

import (
	"database/sql"
	"log"
	"os"
	"strconv"

	"github.com/jrosolowski/videolib/internal/store"
)

type Config struct {
	DatabasePath string

	DownloadFilmsRoot  string
	DownloadSeriesRoot string
	StorageRoot        string
	VideoRoot          string
	StorageLockPath    string

	TMDBAPIKey string
	TVDBAPIKey string

	FFprobePath string

	RedisAddr         string
	WorkerConcurrency int

	AssociationScanCron string
	CacheSweepCron      string
	TransferSweepCron   string

	HTTPPort int
}

func Load() *Config {
	return &Config{
		DatabasePath: env("VIDEOLIB_DATABASE_PATH", "./videolib.db"),

		DownloadFilmsRoot:  env("VIDEOLIB_DOWNLOAD_FILMS_ROOT", "/downloads/Films"),
		DownloadSeriesRoot: env("VIDEOLIB_DOWNLOAD_SERIES_ROOT", "/downloads/Series"),
		StorageRoot:        env("VIDEOLIB_STORAGE_ROOT", "/storage"),
		VideoRoot:          env("VIDEOLIB_VIDEO_ROOT", "/video"),
		StorageLockPath:    env("VIDEOLIB_STORAGE_LOCK_PATH", "/storage/.videolib.lock"),

		TMDBAPIKey: env("VIDEOLIB_TMDB_API_KEY", ""),
		TVDBAPIKey: env("VIDEOLIB_TVDB_API_KEY", ""),

		FFprobePath: env("VIDEOLIB_FFPROBE_PATH", "ffprobe"),

		RedisAddr:         env("VIDEOLIB_REDIS_ADDR", "127.0.0.1:6379"),
		WorkerConcurrency: envInt("VIDEOLIB_WORKER_CONCURRENCY", 4),

		AssociationScanCron: env("VIDEOLIB_ASSOCIATION_SCAN_CRON", "0 */6 * * *"),
		CacheSweepCron:      env("VIDEOLIB_CACHE_SWEEP_CRON", "0 3 * * *"),
		TransferSweepCron:   env("VIDEOLIB_TRANSFER_SWEEP_CRON", "*/15 * * * *"),

		HTTPPort: envInt("VIDEOLIB_HTTP_PORT", 8080),
	}
}

// MergeFromSettings overrides a fixed subset of keys from the catalog
// store's settings table, mirroring the teacher's Config.MergeFromDB —
// operator-tunable knobs an admin UI can write to that table, layered on
// top of (never widening) the environment-derived defaults. The merge runs
// once, at startup, so a changed row takes effect on the next start.
func (c *Config) MergeFromSettings(db *sql.DB) {
	settings, err := store.NewSettingsRepository(db).All()
	if err != nil {
		log.Printf("config: skipping settings merge: %v", err)
		return
	}

	for key, value := range settings {
		switch key {
		case "storage_root":
			c.StorageRoot = value
		case "video_root":
			c.VideoRoot = value
		case "tmdb_api_key":
			c.TMDBAPIKey = value
		case "tvdb_api_key":
			c.TVDBAPIKey = value
		case "worker_concurrency":
			if v, err := strconv.Atoi(value); err == nil {
				c.WorkerConcurrency = v
			}
		case "association_scan_cron":
			c.AssociationScanCron = value
		}
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
