package transfer

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/jrosolowski/videolib/internal/model"
	"github.com/jrosolowski/videolib/internal/normalize"
)

// forbiddenChars are the filename characters the naming rules (spec §4.5)
// require replaced before a title becomes a path segment.
const forbiddenChars = `<>:"/\|?*`

// sanitizeSegment replaces forbidden filename characters deterministically:
// a colon becomes " -", every other forbidden character becomes a space,
// and repeated whitespace collapses to one.
func sanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ':':
			b.WriteString(" -")
		case strings.ContainsRune(forbiddenChars, r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// letterFor buckets a title into the single-uppercase-letter directory
// storage/Films and storage/Series are partitioned by, derived from the
// title's sort key so accented and articled titles bucket the same as
// their plain-ASCII equivalents. A sort key that reaches a digit before
// any letter, or has no letter at all, buckets under "#".
func letterFor(title string) string {
	key := normalize.SortKey(title)
	for _, r := range key {
		if unicode.IsLetter(r) {
			return strings.ToUpper(string(r))
		}
		if unicode.IsDigit(r) {
			return "#"
		}
	}
	return "#"
}

func yearSuffix(year *int) string {
	if year == nil {
		return ""
	}
	return fmt.Sprintf(" (%d)", *year)
}

func primaryGenre(genres []string) string {
	if len(genres) == 0 {
		return "Unknown"
	}
	return sanitizeSegment(genres[0])
}

// MovieDestination computes the canonical storage path for a validated
// movie: storage/Films/<Genre>/<Letter>/<Title (Year)>/<Title (Year)>.ext.
func MovieDestination(storageRoot string, m *model.Movie, container string) string {
	title := sanitizeSegment(m.Title) + yearSuffix(m.Year)
	dir := filepath.Join(storageRoot, "Films", primaryGenre(m.Genres), letterFor(m.Title), title)
	return filepath.Join(dir, title+extWithDot(container))
}

// SeriesEpisodeDestination computes the canonical storage path for a
// validated episode: storage/Series/<Letter>/<SeriesTitle (Year)>/Season
// NN/<SeriesTitle (Year)> - SxxEyy - <Episode Title>.ext.
func SeriesEpisodeDestination(storageRoot string, series *model.Series, ep *model.Episode, container string) string {
	seriesTitle := sanitizeSegment(series.Title) + yearSuffix(series.Year)
	season := fmt.Sprintf("Season %02d", ep.SeasonNumber)
	dir := filepath.Join(storageRoot, "Series", letterFor(series.Title), seriesTitle, season)

	code := fmt.Sprintf("S%02dE%02d", ep.SeasonNumber, ep.EpisodeNumber)
	filename := seriesTitle + " - " + code
	if title := sanitizeSegment(ep.Title); title != "" {
		filename += " - " + title
	}
	return filepath.Join(dir, filename+extWithDot(container))
}

// PresentationPath mirrors a storage path under the presentation tree,
// preserving everything below the canonical root (spec §6 "video/…").
func PresentationPath(videoRoot, storageRoot, storagePath string) (string, error) {
	rel, err := filepath.Rel(storageRoot, storagePath)
	if err != nil {
		return "", fmt.Errorf("transfer: relativize %s under %s: %w", storagePath, storageRoot, err)
	}
	return filepath.Join(videoRoot, rel), nil
}

func extWithDot(container string) string {
	container = strings.TrimPrefix(strings.ToLower(container), ".")
	if container == "" {
		return ""
	}
	return "." + container
}
