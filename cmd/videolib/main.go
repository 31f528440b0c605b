// Command videolib is the ingestion daemon's composition root: it loads
// configuration, opens the sqlite store, wires the catalog client, scanner,
// matcher, validator, transferer and association checker together, and
// drives them from a match/persist task queue plus three cron schedules.
package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"

	"github.com/jrosolowski/videolib/internal/associate"
	"github.com/jrosolowski/videolib/internal/catalog"
	"github.com/jrosolowski/videolib/internal/config"
	"github.com/jrosolowski/videolib/internal/fsport"
	"github.com/jrosolowski/videolib/internal/match"
	"github.com/jrosolowski/videolib/internal/mediainfo"
	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/scanner"
	"github.com/jrosolowski/videolib/internal/store"
	"github.com/jrosolowski/videolib/internal/transfer"
	"github.com/jrosolowski/videolib/internal/validate"
	"github.com/jrosolowski/videolib/internal/videoerr"
	"github.com/jrosolowski/videolib/internal/workflow"
)

const bannerArt = `
 __     ___     _            _ _ _
 \ \   / (_) __| | ___  ___ | (_) |__
  \ \ / /| |/ _' |/ _ \/ _ \| | | '_ \
   \ V / | | (_| |  __/ (_) | | | |_) |
    \_/  |_|\__,_|\___|\___/|_|_|_.__/
`

func main() {
	fmt.Println(bannerArt)
	fmt.Println("  Library Ingestion Pipeline")

	cfg := config.Load()

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()
	log.Printf("store opened at %s", cfg.DatabasePath)

	cfg.MergeFromSettings(db)

	movies := store.NewMovieRepository(db)
	series := store.NewSeriesRepository(db)
	episodes := store.NewEpisodeRepository(db)
	pending := store.NewPendingRepository(db)
	files := store.NewVideoFileRepository(db)
	confirmed := store.NewConfirmedAssociationRepository(db)
	scanCache := store.NewAssociationScanCacheRepository(db)
	catalogCache := store.NewCacheRepository(db)

	tmdb := catalog.NewTMDBSource(cfg.TMDBAPIKey)
	tvdb := catalog.NewTVDBSource(cfg.TVDBAPIKey)
	client := catalog.NewCachedClient(tmdb, tvdb, catalogCache)

	inspector := mediainfo.NewInspector(cfg.FFprobePath)
	sc := scanner.New(scanner.DefaultOptions(cfg.DownloadFilmsRoot, cfg.DownloadSeriesRoot), inspector)

	matcher := match.New(client)
	validator := validate.New(pending, movies, series, episodes, client)

	port := fsport.New()
	transferer := transfer.New(port, movies, episodes, cfg.StorageRoot, cfg.VideoRoot, cfg.StorageLockPath)

	checker := associate.New(movies, episodes, series, confirmed, scanCache, inspector, client)

	queue := workflow.NewQueue(cfg.RedisAddr, cfg.WorkerConcurrency)
	orchestrator := workflow.New(sc, matcher, validator, files, pending, queue)
	orchestrator.RegisterHandlers()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Println("workflow queue worker starting")
		if err := queue.Run(); err != nil {
			log.Printf("workflow queue worker stopped: %v", err)
		}
	}()
	defer queue.Shutdown()

	go func() {
		for ev := range orchestrator.Run(ctx) {
			switch ev.Kind {
			case workflow.EventScanStarted:
				log.Printf("scan started: %d files discovered", ev.Total)
			case workflow.EventFileEnqueued:
				log.Printf("enqueued %s (%d/%d)", ev.Path, ev.Done, ev.Total)
			case workflow.EventFileMatched, workflow.EventAutoValidated:
				log.Printf("processed %s (%d/%d)", ev.Path, ev.Done, ev.Total)
			case workflow.EventFileError:
				log.Printf("error processing %s: %s", ev.Path, ev.Err)
			case workflow.EventScanFinished:
				log.Printf("scan finished: %d files", ev.Done)
			}
		}
	}()

	c := cron.New()
	if _, err := c.AddFunc(cfg.AssociationScanCron, func() {
		runAssociationScan(ctx, checker)
	}); err != nil {
		log.Fatalf("failed to schedule association scan: %v", err)
	}
	if _, err := c.AddFunc(cfg.CacheSweepCron, func() {
		runCacheSweep(ctx, catalogCache)
	}); err != nil {
		log.Fatalf("failed to schedule cache sweep: %v", err)
	}
	if _, err := c.AddFunc(cfg.TransferSweepCron, func() {
		runTransferSweep(ctx, transferer, pending, files, movies, series, episodes, cfg.StorageRoot)
	}); err != nil {
		log.Fatalf("failed to schedule transfer sweep: %v", err)
	}
	c.Start()
	defer c.Stop()

	log.Printf("videolib running (http port %d, configured but unserved in this build)", cfg.HTTPPort)
	select {}
}

func runAssociationScan(ctx context.Context, checker *associate.Checker) {
	start := time.Now()
	count := 0
	for s := range checker.Scan(ctx) {
		log.Printf("suspicious association: %s %s (%s, confidence %d)", s.EntityType, s.EntityID, s.Reason, s.Confidence)
		count++
	}
	log.Printf("association scan finished: %d suspicions in %s", count, time.Since(start))
}

func runCacheSweep(ctx context.Context, cache *store.CacheRepository) {
	purged, err := cache.PurgeExpired(ctx)
	if err != nil {
		log.Printf("cache sweep failed: %v", err)
		return
	}
	log.Printf("cache sweep purged %d expired entries", purged)
}

// runTransferSweep drains every validated pending item whose materialized
// movie or episode has not yet been moved into storage/. Conflicts are
// always skipped here; an operator resolves them interactively through a
// future manual run rather than this unattended sweep guessing.
func runTransferSweep(ctx context.Context, transferer *transfer.Transferer, pending *store.PendingRepository,
	files *store.VideoFileRepository, movies *store.MovieRepository, series *store.SeriesRepository,
	episodes *store.EpisodeRepository, storageRoot string) {
	validated, err := pending.ListByStatus(model.StatusValidated)
	if err != nil {
		log.Printf("transfer sweep: list validated: %v", err)
		return
	}

	var items []transfer.Item
	for _, p := range validated {
		vf, err := files.GetByID(p.VideoFileID)
		if err != nil {
			log.Printf("transfer sweep: load video file for pending %s: %v", p.ID, err)
			continue
		}

		item, ok := buildTransferItem(p, vf, movies, series, episodes, storageRoot)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return
	}

	skipOnConflict := func(ctx context.Context, it transfer.Item, subkind videoerr.ConflictSubkind) (transfer.Resolution, error) {
		return transfer.Skip, nil
	}

	for ev := range transferer.Run(ctx, items, false, skipOnConflict) {
		if ev.Kind == transfer.EventFinished && ev.Report != nil {
			log.Printf("transfer sweep finished: %d transferred (%s), %d duplicates, %d skipped, %d errors",
				ev.Report.Transferred, humanize.Bytes(uint64(ev.Report.BytesMoved)), ev.Report.Duplicates, ev.Report.Skipped, len(ev.Report.Errors))
		}
	}

	swept, err := transferer.SweepOrphans(ctx)
	if err != nil {
		log.Printf("orphan sweep failed: %v", err)
		return
	}
	if len(swept) > 0 {
		log.Printf("orphan sweep relocated %d dead symlinks", len(swept))
	}
}

func buildTransferItem(p *model.PendingValidation, vf *model.VideoFile, movies *store.MovieRepository,
	series *store.SeriesRepository, episodes *store.EpisodeRepository, storageRoot string) (transfer.Item, bool) {
	hash := ""
	if vf.FileHash != nil {
		hash = *vf.FileHash
	}

	if p.Season != nil && p.Episode != nil {
		ser, err := series.GetByTVDBID(mustAtoiOrZero(p.SelectedCandidateID))
		if err != nil || ser == nil {
			return transfer.Item{}, false
		}
		ep, err := episodes.GetBySeriesSeasonEpisode(ser.ID, *p.Season, *p.Episode)
		if err != nil || ep == nil || ep.FilePath != "" {
			return transfer.Item{}, false
		}
		return transfer.Item{
			EntityType:  model.EntityEpisode,
			EntityID:    ep.ID,
			SourcePath:  vf.Path,
			FileHash:    hash,
			Destination: transfer.SeriesEpisodeDestination(storageRoot, ser, ep, ep.Container),
		}, true
	}

	m, err := movies.GetByTMDBID(mustAtoiOrZero(p.SelectedCandidateID))
	if err != nil || m == nil || m.FilePath != "" {
		return transfer.Item{}, false
	}
	return transfer.Item{
		EntityType:  model.EntityMovie,
		EntityID:    m.ID,
		SourcePath:  vf.Path,
		FileHash:    hash,
		Destination: transfer.MovieDestination(storageRoot, m, m.Container),
	}, true
}

func mustAtoiOrZero(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
