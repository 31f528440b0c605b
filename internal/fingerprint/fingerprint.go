// Package fingerprint computes the sampled content hash used as
// VideoFile.FileHash for duplicate detection (spec §3, §4.5).
package fingerprint

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// sampleSize is how many bytes are read from each sample point.
const sampleSize = 256 * 1024

// FileHash computes a deterministic content hash without reading the whole
// file: it samples fixed-size chunks at the start, middle, and end, plus
// the file size, and folds them into a single xxhash digest. Two files
// with identical bytes at these sample points and identical size always
// produce the same hash (invariant 6); this is a sampling approximation,
// not a full-content hash, so it is advisory for dedup, never a proof of
// byte-for-byte identity.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fingerprint: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("fingerprint: stat %s: %w", path, err)
	}
	size := info.Size()

	h := xxhash.New()
	fmt.Fprintf(h, "%d|", size)

	offsets := sampleOffsets(size)
	buf := make([]byte, sampleSize)
	for _, off := range offsets {
		n, err := readAt(f, buf, off)
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("fingerprint: read %s at %d: %w", path, off, err)
		}
		h.Write(buf[:n])
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// sampleOffsets picks deterministic byte offsets to sample: start, three
// interior points, and a tail anchor (clamped so small files aren't
// sampled past their own length).
func sampleOffsets(size int64) []int64 {
	if size <= 0 {
		return []int64{0}
	}
	points := []float64{0, 0.25, 0.5, 0.75, 0.95}
	offsets := make([]int64, 0, len(points))
	for _, p := range points {
		off := int64(float64(size) * p)
		if off >= size {
			off = size - 1
		}
		if off < 0 {
			off = 0
		}
		offsets = append(offsets, off)
	}
	return offsets
}

func readAt(f *os.File, buf []byte, offset int64) (int, error) {
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := io.ReadFull(f, buf)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}
