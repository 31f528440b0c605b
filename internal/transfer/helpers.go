package transfer

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// lockRetryInterval is how often TryLockContext polls the storage/ advisory
// lock while waiting for a concurrent batch to release it.
const lockRetryInterval = 200 * time.Millisecond

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// differentiatedName appends a disambiguating suffix ahead of the
// extension for a "keep_both" resolution (spec §4.5).
func differentiatedName(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + " (kept)" + ext
}
