// Package transfer implements the Transferer (C7, spec §4.5): pre-flight
// conflict detection, move-plus-symlink execution against storage/ and
// video/, dry-run mode, and a typed progress-event channel the HTTP layer
// (SSE) and CLI both consume without the core speaking either protocol.
package transfer

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/gofrs/flock"
	"github.com/jrosolowski/videolib/internal/fingerprint"
	"github.com/jrosolowski/videolib/internal/fsport"
	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/store"
	"github.com/jrosolowski/videolib/internal/videoerr"
)

// Resolution is the operator's answer to a NameCollision/SimilarContent
// conflict event (spec §4.5).
type Resolution string

const (
	KeepOld  Resolution = "keep_old"
	KeepNew  Resolution = "keep_new"
	KeepBoth Resolution = "keep_both"
	Skip     Resolution = "skip"
)

// Item is one validated entity queued for transfer.
type Item struct {
	EntityType  model.EntityType
	EntityID    uuid.UUID
	SourcePath  string
	FileHash    string
	Destination string // canonical storage/ path, computed by the caller via naming.go helpers
	// PreviousDestination is the entity's last recorded storage path, if
	// any; a file already present there for the same entity is a re-encode
	// (SimilarContent), not a collision with unrelated content.
	PreviousDestination string
}

// Report summarizes a completed (or dry-run) batch.
type Report struct {
	Transferred int
	Duplicates  int
	Skipped     int
	BytesMoved  int64
	Errors      []string
}

// EventKind distinguishes the five progress-contract events (spec §4.5).
type EventKind string

const (
	EventStarted  EventKind = "started"
	EventProgress EventKind = "progress"
	EventConflict EventKind = "conflict"
	EventResolved EventKind = "resolved"
	EventFinished EventKind = "finished"
)

// Event is the single type sent on the transferer's progress channel;
// callers switch on Kind and read the field(s) that kind populates.
type Event struct {
	Kind            EventKind
	Total           int    // started, progress
	Done            int    // progress
	CurrentFilename string // progress
	Item            *Item  // conflict, resolved
	Conflict        videoerr.ConflictSubkind
	Options         []Resolution // conflict
	Choice          Resolution   // resolved
	Report          *Report      // finished
}

// ResolveFunc is how the caller answers a conflict event; it blocks the
// batch until a choice is available, honoring ctx cancellation.
type ResolveFunc func(ctx context.Context, it Item, subkind videoerr.ConflictSubkind) (Resolution, error)

// Transferer executes validated items against storage/ and video/.
type Transferer struct {
	port        *fsport.Port
	movies      *store.MovieRepository
	episodes    *store.EpisodeRepository
	storageRoot string
	videoRoot   string
	lockPath    string
}

func New(port *fsport.Port, movies *store.MovieRepository, episodes *store.EpisodeRepository, storageRoot, videoRoot, lockPath string) *Transferer {
	return &Transferer{port: port, movies: movies, episodes: episodes, storageRoot: storageRoot, videoRoot: videoRoot, lockPath: lockPath}
}

// Run executes a batch, emitting events on the returned channel. The
// channel is closed after EventFinished is sent. dryRun performs every
// check and emits every event but never touches the filesystem.
func (t *Transferer) Run(ctx context.Context, items []Item, dryRun bool, resolve ResolveFunc) <-chan Event {
	events := make(chan Event, 1)

	go func() {
		defer close(events)

		lock := flock.New(t.lockPath)
		if !dryRun {
			locked, err := lock.TryLockContext(ctx, lockRetryInterval)
			if err != nil || !locked {
				events <- Event{Kind: EventFinished, Report: &Report{Errors: []string{"could not acquire storage lock"}}}
				return
			}
			defer lock.Unlock()
		}

		report := &Report{}
		events <- Event{Kind: EventStarted, Total: len(items)}

		for i, it := range items {
			select {
			case <-ctx.Done():
				events <- Event{Kind: EventFinished, Report: report}
				return
			default:
			}

			if err := t.runOne(ctx, it, dryRun, report, events, resolve); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", it.SourcePath, err))
			}

			events <- Event{Kind: EventProgress, Done: i + 1, Total: len(items), CurrentFilename: it.SourcePath}
		}

		events <- Event{Kind: EventFinished, Report: report}
	}()

	return events
}

func (t *Transferer) runOne(ctx context.Context, it Item, dryRun bool, report *Report, events chan<- Event, resolve ResolveFunc) error {
	subkind, exists, err := t.checkConflict(it)
	if err != nil {
		return err
	}

	choice := KeepNew
	if exists {
		events <- Event{Kind: EventConflict, Item: &it, Conflict: subkind, Options: conflictOptions(subkind)}

		switch subkind {
		case videoerr.Duplicate:
			report.Duplicates++
			report.Skipped++
			events <- Event{Kind: EventResolved, Item: &it, Choice: Skip}
			return nil
		default:
			if resolve == nil {
				report.Skipped++
				events <- Event{Kind: EventResolved, Item: &it, Choice: Skip}
				return nil
			}
			choice, err = resolve(ctx, it, subkind)
			if err != nil {
				if videoerr.Is(err, videoerr.Cancelled) {
					return err
				}
				choice = Skip
			}
			events <- Event{Kind: EventResolved, Item: &it, Choice: choice}
		}
	}

	switch choice {
	case Skip:
		report.Skipped++
		return nil
	case KeepOld:
		report.Skipped++
		return nil
	case KeepBoth:
		it.Destination = differentiatedName(it.Destination)
	}

	if dryRun {
		report.Transferred++
		return nil
	}

	if err := t.port.Move(it.SourcePath, it.Destination); err != nil {
		return err
	}

	presentation, err := PresentationPath(t.videoRoot, t.storageRoot, it.Destination)
	if err != nil {
		return err
	}
	if err := t.port.CreateSymlink(it.Destination, presentation); err != nil {
		return err
	}

	if err := t.recordPaths(it, presentation); err != nil {
		return err
	}

	if fi, err := os.Stat(it.Destination); err == nil {
		report.BytesMoved += fi.Size()
	}

	report.Transferred++
	return nil
}

// SweepOrphans relocates every dead presentation symlink under video/ to
// trash/orphans/, preserving its relative path, instead of deleting it
// silently. No timestamp is added to the moved link's name.
func (t *Transferer) SweepOrphans(ctx context.Context) ([]string, error) {
	return t.port.SweepOrphans(t.videoRoot, t.storageRoot+"/trash")
}

// checkConflict classifies the pre-flight state of it.Destination against
// the taxonomy in spec §4.5.
func (t *Transferer) checkConflict(it Item) (videoerr.ConflictSubkind, bool, error) {
	if !fileExists(it.Destination) {
		return "", false, nil
	}

	existingHash, err := fingerprint.FileHash(it.Destination)
	if err != nil {
		return "", false, videoerr.New(videoerr.FilesystemIO, "transfer.checkConflict", err)
	}

	if it.FileHash != "" && existingHash == it.FileHash {
		return videoerr.Duplicate, true, nil
	}
	if it.PreviousDestination == it.Destination {
		return videoerr.SimilarContent, true, nil
	}
	return videoerr.NameCollision, true, nil
}

func (t *Transferer) recordPaths(it Item, symlinkPath string) error {
	switch it.EntityType {
	case model.EntityMovie:
		return t.movies.UpdatePaths(it.EntityID, it.Destination, symlinkPath)
	case model.EntityEpisode:
		return t.episodes.UpdatePaths(it.EntityID, it.Destination, symlinkPath)
	default:
		return videoerr.New(videoerr.InvalidInput, "transfer.recordPaths", fmt.Errorf("unsupported entity type %q", it.EntityType))
	}
}

func conflictOptions(subkind videoerr.ConflictSubkind) []Resolution {
	if subkind == videoerr.Duplicate {
		return []Resolution{Skip}
	}
	return []Resolution{KeepOld, KeepNew, KeepBoth, Skip}
}
