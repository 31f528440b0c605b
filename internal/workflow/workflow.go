// Package workflow implements the Workflow Orchestrator (C9, spec §9): the
// driver that turns the scanner's file descriptors into matched,
// persisted, and where confident enough auto-validated library entries,
// reporting progress and honoring cancellation throughout.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/jrosolowski/videolib/internal/match"
	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/normalize"
	"github.com/jrosolowski/videolib/internal/scanner"
	"github.com/jrosolowski/videolib/internal/store"
	"github.com/jrosolowski/videolib/internal/validate"
)

// EventKind tags a workflow progress event.
type EventKind string

const (
	EventScanStarted  EventKind = "scan_started"
	EventFileEnqueued EventKind = "file_enqueued"
	EventFileMatched  EventKind = "file_matched"
	EventAutoValidated EventKind = "auto_validated"
	EventFileError    EventKind = "file_error"
	EventScanFinished EventKind = "scan_finished"
)

// Event is one step of progress, delivered to any registered observer (the
// HTTP layer's SSE stream, or the CLI's terminal progress bar).
type Event struct {
	Kind     EventKind
	Path     string
	Total    int
	Done     int
	Err      string
}

// Orchestrator drives scan → match → persist → auto-validate. Scanning and
// per-file persistence are ordered; matching against the catalog is
// dispatched through Queue so independent files can proceed concurrently
// (spec §9's cross-item parallelism, limited to the steps that only touch
// the catalog client and per-item state).
type Orchestrator struct {
	scan      *scanner.Scanner
	matcher   *match.Matcher
	validator *validate.Service
	files     *store.VideoFileRepository
	pending   *store.PendingRepository
	queue     *Queue
}

func New(sc *scanner.Scanner, matcher *match.Matcher, validator *validate.Service,
	files *store.VideoFileRepository, pending *store.PendingRepository, queue *Queue) *Orchestrator {
	return &Orchestrator{scan: sc, matcher: matcher, validator: validator, files: files, pending: pending, queue: queue}
}

// RegisterHandlers wires the orchestrator's task handler into its Queue.
// Call once, before Queue.Run.
func (o *Orchestrator) RegisterHandlers() {
	o.queue.RegisterHandler(TaskMatchAndPersist, asynq.HandlerFunc(o.handleTask))
}

type matchPersistPayload struct {
	Path string `json:"path"`
}

func (o *Orchestrator) handleTask(ctx context.Context, task *asynq.Task) error {
	var payload matchPersistPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("workflow: unmarshal task payload: %w", err)
	}
	vf, err := o.files.GetByPath(payload.Path)
	if err != nil {
		return fmt.Errorf("workflow: load video file %s: %w", payload.Path, err)
	}
	_, err = o.ProcessOne(ctx, rehydrateScanResult(*vf))
	return err
}

// rehydrateScanResult reconstructs enough of a ScanResult from a persisted
// VideoFile to re-run matching from inside an asynq task, where only the
// file path crosses the queue boundary.
func rehydrateScanResult(vf model.VideoFile) model.ScanResult {
	hint := classifyHint(vf.Path)
	parsed := scanner.NewParser().Parse(filepath.Base(vf.Path), hint)
	return model.ScanResult{File: vf, Parsed: parsed, TypeHint: hint}
}

func classifyHint(path string) model.MediaKind {
	dir := strings.ToLower(filepath.Dir(path))
	if strings.Contains(dir, "series") || strings.Contains(dir, "tv") {
		return model.KindSeries
	}
	return model.KindMovie
}

// Run scans every configured root and dispatches one match-and-persist
// task per discovered file, deduplicated by path so a file already queued
// or mid-flight from a prior run is never double-processed. It returns a
// channel of progress events that is closed after the last file is
// handled. With a queue, each file yields a file_enqueued event and the
// queue workers report nothing on this channel; without one, each file is
// processed inline and yields file_matched or auto_validated.
func (o *Orchestrator) Run(ctx context.Context) <-chan Event {
	events := make(chan Event, 1)

	go func() {
		defer close(events)

		results, err := o.scan.Scan(ctx)
		if err != nil {
			events <- Event{Kind: EventFileError, Err: err.Error()}
			return
		}

		events <- Event{Kind: EventScanStarted, Total: len(results)}

		for i, r := range results {
			select {
			case <-ctx.Done():
				events <- Event{Kind: EventScanFinished, Done: i}
				return
			default:
			}

			vf := r.File
			if err := o.files.Upsert(&vf); err != nil {
				events <- Event{Kind: EventFileError, Path: r.File.Path, Err: err.Error()}
				continue
			}

			if o.queue != nil {
				if _, err := o.queue.EnqueueUnique(TaskMatchAndPersist, matchPersistPayload{Path: vf.Path}, vf.Path); err != nil {
					events <- Event{Kind: EventFileError, Path: vf.Path, Err: err.Error()}
					continue
				}
				events <- Event{Kind: EventFileEnqueued, Path: vf.Path, Done: i + 1, Total: len(results)}
				continue
			}

			r.File = vf
			autoValidated, err := o.ProcessOne(ctx, r)
			if err != nil {
				events <- Event{Kind: EventFileError, Path: vf.Path, Err: err.Error()}
				continue
			}
			kind := EventFileMatched
			if autoValidated {
				kind = EventAutoValidated
			}
			events <- Event{Kind: kind, Path: vf.Path, Done: i + 1, Total: len(results)}
		}

		events <- Event{Kind: EventScanFinished, Done: len(results), Total: len(results)}
	}()

	return events
}

// ProcessOne runs the per-item pipeline for a single scanned file: match
// against the catalog, persist a PendingValidation, and — when the
// matcher's confidence clears the auto-validation bar — immediately
// accept the top candidate through the Validation Service. Low-confidence
// results are left Pending for an operator (spec §4.4/§9 data flow).
func (o *Orchestrator) ProcessOne(ctx context.Context, scan model.ScanResult) (autoValidated bool, err error) {
	result, err := o.matcher.Match(ctx, scan)
	if err != nil {
		return false, fmt.Errorf("workflow: match %s: %w", scan.File.Path, err)
	}

	p := &model.PendingValidation{
		VideoFileID: scan.File.ID,
		Status:      model.StatusPending,
		Candidates:  result.Candidates,
		SeriesKey:   seriesKeyFor(scan),
		Season:      scan.Parsed.Season,
		Episode:     scan.Parsed.Episode,
		EpisodeEnd:  scan.Parsed.EpisodeEnd,
	}
	if err := o.pending.Create(p); err != nil {
		return false, fmt.Errorf("workflow: persist pending validation for %s: %w", scan.File.Path, err)
	}

	if result.AutoValidated && len(result.Candidates) > 0 {
		top := result.Candidates[0]
		if err := o.validator.Accept(ctx, p.ID, top.ExternalID); err != nil {
			return false, fmt.Errorf("workflow: auto-validate %s: %w", scan.File.Path, err)
		}
		return true, nil
	}
	return false, nil
}

// seriesKeyFor derives the cascade grouping key for a series episode: its
// normalized parsed title, so episodes of the same show scattered across
// season subdirectories still cascade together (spec §4.4).
func seriesKeyFor(scan model.ScanResult) string {
	if scan.Parsed.Type != model.KindSeries {
		return ""
	}
	title := scan.Parsed.BaseTitle
	if title == "" {
		title = scan.Parsed.Title
	}
	return normalize.SortKey(title)
}
