// Package fsport is the file system port: every filesystem mutation the
// pipeline performs (moves, symlink creation and repair, orphan sweeps)
// goes through here so callers never touch os.Rename/os.Symlink directly.
package fsport

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jrosolowski/videolib/internal/videoerr"
)

// Port is the filesystem boundary. It is safe for concurrent use; callers
// serialize per-destination-path writes themselves (spec §9's "per-entity
// write serialization"), this type only guarantees each individual
// operation is atomic.
type Port struct{}

func New() *Port { return &Port{} }

// Move atomically relocates a file from src to dst, creating dst's parent
// directory as needed. It stages the write under a temp name in dst's
// directory and renames into place, so a crash mid-write never leaves a
// partially written file at the final path (spec §9 scoped-resource
// discipline). Falls back to copy+verify+delete on cross-device renames;
// src is only removed once the copy is confirmed intact.
func (p *Port) Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return videoerr.New(videoerr.FilesystemIO, "fsport.Move", fmt.Errorf("mkdir %s: %w", filepath.Dir(dst), err))
	}

	tmp := dst + ".videolib-tmp-" + randSuffix()

	if err := os.Rename(src, tmp); err != nil {
		if isCrossDevice(err) {
			if cerr := copyFile(src, tmp); cerr != nil {
				return videoerr.New(videoerr.FilesystemIO, "fsport.Move", fmt.Errorf("copy %s to %s: %w", src, tmp, cerr))
			}
			if verr := verifyCopy(src, tmp); verr != nil {
				_ = os.Remove(tmp)
				return videoerr.New(videoerr.FilesystemIO, "fsport.Move", fmt.Errorf("verify copy %s to %s: %w", src, tmp, verr))
			}
		} else {
			return videoerr.New(videoerr.FilesystemIO, "fsport.Move", fmt.Errorf("rename %s to %s: %w", src, tmp, err))
		}
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return videoerr.New(videoerr.FilesystemIO, "fsport.Move", fmt.Errorf("finalize rename to %s: %w", dst, err))
	}

	if isCrossDevice0(src, dst) {
		_ = os.Remove(src)
	}

	return nil
}

// CreateSymlink creates an absolute symlink at linkPath pointing at target,
// replacing any existing entry. This is the only call site in the pipeline
// permitted to create library-facing symlinks (spec §4.4).
func (p *Port) CreateSymlink(target, linkPath string) error {
	if err := os.MkdirAll(filepath.Dir(linkPath), 0o755); err != nil {
		return videoerr.New(videoerr.FilesystemIO, "fsport.CreateSymlink", err)
	}

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return videoerr.New(videoerr.FilesystemIO, "fsport.CreateSymlink", err)
	}

	if err := p.removeIfExists(linkPath); err != nil {
		return err
	}

	if err := os.Symlink(absTarget, linkPath); err != nil {
		return videoerr.New(videoerr.FilesystemIO, "fsport.CreateSymlink", fmt.Errorf("symlink %s -> %s: %w", linkPath, absTarget, err))
	}
	return nil
}

// RepairSymlink re-points an existing symlink whose target has moved. A
// no-op if linkPath already resolves to target.
func (p *Port) RepairSymlink(target, linkPath string) error {
	current, err := os.Readlink(linkPath)
	if err == nil {
		absTarget, aerr := filepath.Abs(target)
		if aerr == nil && current == absTarget {
			return nil
		}
	}
	return p.CreateSymlink(target, linkPath)
}

// SweepOrphans scans libraryRoot for symlinks whose target no longer
// exists and relocates them under trashRoot/orphans, preserving their
// relative path, instead of deleting them outright.
func (p *Port) SweepOrphans(libraryRoot, trashRoot string) ([]string, error) {
	var swept []string

	err := filepath.Walk(libraryRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return nil
		}
		target, rerr := os.Readlink(path)
		if rerr != nil {
			return nil
		}
		if _, serr := os.Stat(target); serr == nil {
			return nil // target still present
		}

		rel, rerr := filepath.Rel(libraryRoot, path)
		if rerr != nil {
			rel = filepath.Base(path)
		}
		dest := filepath.Join(trashRoot, "orphans", rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil
		}
		if err := os.Rename(path, dest); err != nil {
			return nil
		}
		swept = append(swept, path)
		return nil
	})
	if err != nil {
		return swept, videoerr.New(videoerr.FilesystemIO, "fsport.SweepOrphans", err)
	}
	return swept, nil
}

func (p *Port) removeIfExists(path string) error {
	if _, err := os.Lstat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return videoerr.New(videoerr.FilesystemIO, "fsport.removeIfExists", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	buf := make([]byte, 4*1024*1024)
	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
		if n == 0 {
			break
		}
	}
	return out.Sync()
}

// verifyCopy confirms dst has the same size as src before Move removes
// the source, the copy+verify+delete discipline spec §4.5 requires for
// cross-device transfers. Only sizes are compared; byte contents are not.
func verifyCopy(src, dst string) error {
	si, err := os.Stat(src)
	if err != nil {
		return err
	}
	di, err := os.Stat(dst)
	if err != nil {
		return err
	}
	if si.Size() != di.Size() {
		return fmt.Errorf("size mismatch: src %d bytes, dst %d bytes", si.Size(), di.Size())
	}
	return nil
}

func isCrossDevice(err error) bool {
	return strings.Contains(err.Error(), "cross-device") || strings.Contains(err.Error(), "invalid cross-device link")
}

// isCrossDevice0 reports whether src and dst were handled via copy+remove
// (best-effort, based on whether src still exists after the rename path ran).
func isCrossDevice0(src, dst string) bool {
	_, err := os.Stat(src)
	return err == nil
}

func randSuffix() string {
	return uuid.New().String()
}
