package scanner

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jrosolowski/videolib/internal/model"
)

// Movie: Title (Year) [resolution]
// Example: Aliens (1986) [1080p]
var moviePattern = regexp.MustCompile(
	`(?i)^(.+?)\s*\((\d{4})\)\s*(?:\[([^\]]+)\])?\s*$`)

// Series multi-episode: Title - SxxEyy[-yy][Eyy...]
// Examples: "Breaking Bad - S03E07", "Breaking Bad - S03E07-08",
// "Breaking Bad - S03E07E08"
var seriesPattern = regexp.MustCompile(
	`(?i)^(.*?)\s*-?\s*S(\d{1,3})E(\d{1,3})(?:[-E](\d{1,3}))?\s*(?:\[([^\]]+)\])?\s*$`)

// multiPartPattern matches stacked-movie part indicators at the end of a
// base name: CD1, DISC-2, PART3, pt.A.
var multiPartPattern = regexp.MustCompile(
	`(?i)\s*[-._ ]?(CD|DISC|PART|PT)\.?-?\s?([0-9]+|[A-D])\s*$`)

var yearPattern = regexp.MustCompile(`[\(\[]?((?:19|20)\d{2})[\)\]]?`)
var resPattern = regexp.MustCompile(`(?i)(2160p|1080p|720p|480p|4K|UHD)`)

// Parser turns a raw filename plus a directory type hint into a
// ParsedFilename. It never touches the filesystem; callers supply the
// filename and any parent-directory context.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

// Parse extracts everything it can from filename. The series pattern is
// always tried first, then the movie pattern. typeHint comes from which
// root the file was discovered under (downloads/Films vs downloads/Series)
// and is only used as the type when neither pattern matches; it never
// overrides what the filename itself indicates.
func (p *Parser) Parse(filename string, typeHint model.MediaKind) model.ParsedFilename {
	ext := filepath.Ext(filename)
	container := strings.ToLower(strings.TrimPrefix(ext, "."))
	base := strings.TrimSuffix(filename, ext)

	result := model.ParsedFilename{Container: container}

	if m := multiPartPattern.FindStringSubmatch(base); len(m) == 3 {
		result.PartType = strings.ToUpper(m[1])
		if n, err := strconv.Atoi(m[2]); err == nil {
			result.PartNumber = &n
		} else {
			// letter part (ptA/ptB): map A=1, B=2, ...
			letter := strings.ToUpper(m[2])
			if len(letter) == 1 && letter[0] >= 'A' && letter[0] <= 'D' {
				n := int(letter[0]-'A') + 1
				result.PartNumber = &n
			}
		}
		result.BaseTitle = strings.TrimSpace(multiPartPattern.ReplaceAllString(base, ""))
		base = result.BaseTitle
	}

	if sm := seriesPattern.FindStringSubmatch(base); len(sm) > 0 {
		result.Type = model.KindSeries
		result.Title = cleanTitle(sm[1])
		season, _ := strconv.Atoi(sm[2])
		ep, _ := strconv.Atoi(sm[3])
		result.Season = &season
		result.Episode = &ep
		if sm[4] != "" {
			end, err := strconv.Atoi(sm[4])
			if err == nil && end > ep {
				result.EpisodeEnd = &end
			}
		}
		if sm[5] != "" {
			result.Resolution = sm[5]
		} else if res := resPattern.FindString(base); res != "" {
			result.Resolution = res
		}
		return result
	}

	if mm := moviePattern.FindStringSubmatch(base); len(mm) > 0 {
		result.Type = model.KindMovie
		result.Title = cleanTitle(mm[1])
		if year, err := strconv.Atoi(mm[2]); err == nil && year >= 1900 && year <= 2100 {
			result.Year = &year
		}
		if mm[3] != "" {
			result.Resolution = strings.TrimSpace(mm[3])
		} else if res := resPattern.FindString(base); res != "" {
			result.Resolution = res
		}
		return result
	}

	// Neither pattern matched cleanly: fall back to the directory's type
	// hint and best-effort title/year extraction so the file still reaches
	// the matcher instead of being dropped.
	result.Type = typeHint
	result.Title = cleanTitle(base)
	if ym := yearPattern.FindStringSubmatch(base); len(ym) > 1 {
		if year, err := strconv.Atoi(ym[1]); err == nil {
			result.Year = &year
			result.Title = cleanTitle(strings.SplitN(base, ym[0], 2)[0])
		}
	}
	if res := resPattern.FindString(base); res != "" {
		result.Resolution = res
	}
	return result
}

// RetitleFromParent re-derives a series title from its parent directory
// name when the filename itself carries no usable title (spec §4.2: a
// bare "S03E07.mkv" inside "Breaking Bad/Season 3/" should still resolve).
func (p *Parser) RetitleFromParent(parsed model.ParsedFilename, parentDir string) model.ParsedFilename {
	if parsed.Title != "" {
		return parsed
	}
	title := parentDir
	if ym := yearPattern.FindStringSubmatch(parentDir); len(ym) > 1 {
		title = strings.SplitN(parentDir, ym[0], 2)[0]
	}
	parsed.Title = cleanTitle(title)
	return parsed
}

func cleanTitle(raw string) string {
	s := strings.ReplaceAll(raw, ".", " ")
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
