package store

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/videoerr"
)

// CatalogStore composes the per-entity repositories for the one operation
// that genuinely spans them: restoring a soft-deleted Movie/Series/Episode
// from its Trash snapshot (spec.md §4's Trash entity "supports restore").
type CatalogStore struct {
	movies   *MovieRepository
	series   *SeriesRepository
	episodes *EpisodeRepository
	trash    *TrashRepository
}

func NewCatalogStore(movies *MovieRepository, series *SeriesRepository, episodes *EpisodeRepository, trash *TrashRepository) *CatalogStore {
	return &CatalogStore{movies: movies, series: series, episodes: episodes, trash: trash}
}

// RestoreFromTrash re-materializes originalID's entity from its stored
// JSON payload, under its original id, and removes the trash row.
func (c *CatalogStore) RestoreFromTrash(originalID uuid.UUID) error {
	t, err := c.trash.GetByOriginalID(originalID)
	if err != nil {
		return err
	}

	switch t.EntityType {
	case model.EntityMovie:
		var m model.Movie
		if err := json.Unmarshal(t.Payload, &m); err != nil {
			return videoerr.New(videoerr.StoreConsistency, "store.CatalogStore.RestoreFromTrash", err)
		}
		if err := c.movies.Create(&m); err != nil {
			return err
		}
	case model.EntitySeries:
		var s model.Series
		if err := json.Unmarshal(t.Payload, &s); err != nil {
			return videoerr.New(videoerr.StoreConsistency, "store.CatalogStore.RestoreFromTrash", err)
		}
		if err := c.series.Create(&s); err != nil {
			return err
		}
	case model.EntityEpisode:
		var e model.Episode
		if err := json.Unmarshal(t.Payload, &e); err != nil {
			return videoerr.New(videoerr.StoreConsistency, "store.CatalogStore.RestoreFromTrash", err)
		}
		if err := c.episodes.Create(&e); err != nil {
			return err
		}
	default:
		return videoerr.New(videoerr.InvalidInput, "store.CatalogStore.RestoreFromTrash",
			fmt.Errorf("unknown trashed entity type %q", t.EntityType))
	}

	return c.trash.Delete(t.ID)
}
