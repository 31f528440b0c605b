// Package scanner walks the download roots and turns every eligible video
// file into a model.ScanResult: parsed filename, probed media info, and a
// sampled content hash.
package scanner

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jrosolowski/videolib/internal/fingerprint"
	"github.com/jrosolowski/videolib/internal/mediainfo"
	"github.com/jrosolowski/videolib/internal/model"

	"github.com/google/uuid"
)

// videoExtensions is the set of containers the scanner will consider.
var videoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".mov": true,
	".m4v": true, ".webm": true, ".wmv": true, ".ts": true, ".m2ts": true,
}

var excludePattern = regexp.MustCompile(`(?i)\b(sample|trailer|extras?|bonus|featurette)\b`)

// seasonDirPattern matches a per-season folder name ("Season 3", "Saison 03").
var seasonDirPattern = regexp.MustCompile(`(?i)^(season|saison)[ ._-]*\d+$`)

// Options configures a single scan pass.
type Options struct {
	FilmsRoot        string
	SeriesRoot       string
	MinFileSizeBytes int64
	Concurrency      int
}

func DefaultOptions(filmsRoot, seriesRoot string) Options {
	return Options{
		FilmsRoot:        filmsRoot,
		SeriesRoot:       seriesRoot,
		MinFileSizeBytes: 100 * 1024 * 1024,
		Concurrency:      4,
	}
}

// Scanner discovers and classifies video files under the configured roots.
type Scanner struct {
	opts      Options
	parser    *Parser
	inspector *mediainfo.Inspector
}

func New(opts Options, inspector *mediainfo.Inspector) *Scanner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Scanner{opts: opts, parser: NewParser(), inspector: inspector}
}

// Scan walks both roots and returns every eligible ScanResult. It probes
// media info and computes file hashes concurrently, bounded by
// opts.Concurrency, and stops early (returning ctx.Err()) if ctx is
// cancelled mid-walk.
func (s *Scanner) Scan(ctx context.Context) ([]model.ScanResult, error) {
	var candidates []candidateFile

	if s.opts.FilmsRoot != "" {
		found, err := s.walk(s.opts.FilmsRoot, model.KindMovie)
		if err != nil {
			return nil, fmt.Errorf("scanner: walk films root: %w", err)
		}
		candidates = append(candidates, found...)
	}
	if s.opts.SeriesRoot != "" {
		found, err := s.walk(s.opts.SeriesRoot, model.KindSeries)
		if err != nil {
			return nil, fmt.Errorf("scanner: walk series root: %w", err)
		}
		candidates = append(candidates, found...)
	}

	results := make([]model.ScanResult, len(candidates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := s.classify(c)
			if err != nil {
				log.Printf("scanner: skip %s: %v", c.path, err)
				return nil
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, r := range results {
		if r.File.Path != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

type candidateFile struct {
	path      string
	size      int64
	typeHint  model.MediaKind
	parentDir string
}

func (s *Scanner) walk(root string, hint model.MediaKind) ([]candidateFile, error) {
	var found []candidateFile

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		// Symlinks under a source root are not re-ingested; the transferer
		// is the only component that creates them.
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !videoExtensions[ext] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		// Name-based exclusion only applies below the size floor: a large
		// file named like a sample/trailer/extras/featurette is kept.
		if info.Size() < s.opts.MinFileSizeBytes && excludePattern.MatchString(path) {
			return nil
		}
		if info.Size() < s.opts.MinFileSizeBytes {
			return nil
		}

		// A per-season folder names no show, so look one level up for it.
		parentDir := filepath.Dir(path)
		if seasonDirPattern.MatchString(filepath.Base(parentDir)) {
			parentDir = filepath.Dir(parentDir)
		}

		found = append(found, candidateFile{
			path:      path,
			size:      info.Size(),
			typeHint:  hint,
			parentDir: filepath.Base(parentDir),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *Scanner) classify(c candidateFile) (model.ScanResult, error) {
	filename := filepath.Base(c.path)
	parsed := s.parser.Parse(filename, c.typeHint)
	if parsed.Title == "" {
		parsed = s.parser.RetitleFromParent(parsed, c.parentDir)
	}

	correctedLocation := parsed.Type != model.KindUnknown && parsed.Type != c.typeHint

	now := time.Now()
	file := model.VideoFile{
		ID:           uuid.New(),
		Path:         c.path,
		Filename:     filename,
		SizeBytes:    c.size,
		DiscoveredAt: now,
		UpdatedAt:    now,
	}

	if hash, err := fingerprint.FileHash(c.path); err == nil {
		file.FileHash = &hash
	} else {
		log.Printf("scanner: fingerprint failed for %s: %v", c.path, err)
	}

	if s.inspector != nil {
		if info, err := s.inspector.Extract(c.path); err == nil {
			file.MediaInfo = info
		} else {
			log.Printf("scanner: mediainfo failed for %s: %v", c.path, err)
		}
	}

	return model.ScanResult{
		File:              file,
		Parsed:            parsed,
		TypeHint:          c.typeHint,
		CorrectedLocation: correctedLocation,
	}, nil
}
