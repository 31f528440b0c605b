// Package mediainfo extracts a video file's technical profile via ffprobe
// and normalizes it into the shape the catalog store persists (spec §4.1).
package mediainfo

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jrosolowski/videolib/internal/model"
)

// Inspector runs ffprobe against a file and normalizes its output.
type Inspector struct {
	ffprobePath string
}

func NewInspector(ffprobePath string) *Inspector {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Inspector{ffprobePath: ffprobePath}
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Channels     int    `json:"channels"`
	Language     string `json:"tags.language"`
	Tags         struct {
		Language string `json:"language"`
	} `json:"tags"`
}

type probeFormat struct {
	// DurationMs mirrors the real-world pitfall called out in spec §4.1:
	// the underlying media-inspection facility reports duration in
	// milliseconds, and callers that forget to convert silently produce
	// durations 1000x too large.
	DurationMs string `json:"duration_ms"`
}

// Extract probes path and returns a normalized, immutable MediaInfo.
func (i *Inspector) Extract(path string) (*model.MediaInfo, error) {
	cmd := exec.Command(i.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_entries", "format=duration_ms",
		path)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("mediainfo: ffprobe %s: %w", path, err)
	}

	var data probeOutput
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("mediainfo: parse ffprobe output for %s: %w", path, err)
	}

	info := &model.MediaInfo{}
	for _, s := range data.Streams {
		switch s.CodecType {
		case "video":
			if info.VideoCodec == "" {
				info.VideoCodec = normalizeVideoCodec(s.CodecName)
				info.Resolution = model.Resolution{
					Width:  s.Width,
					Height: s.Height,
					Label:  model.LabelFor(s.Height),
				}
			}
		case "audio":
			info.AudioCodecs = append(info.AudioCodecs, normalizeAudioCodec(s.CodecName))
			if info.AudioChannels == "" {
				info.AudioChannels = normalizeChannels(s.Channels)
			}
			lang := s.Tags.Language
			if lang != "" {
				info.AudioLanguages = append(info.AudioLanguages, strings.ToLower(lang))
			}
		}
	}

	if data.Format.DurationMs != "" {
		ms, convErr := strconv.ParseFloat(data.Format.DurationMs, 64)
		if convErr == nil {
			info.DurationSeconds = int(ms / 1000.0)
		}
	}

	info.Container = strings.ToLower(extByContainer(path))

	return info, nil
}

// videoCodecAliases maps raw ffprobe codec names to the spec's normalized
// names (HEVC→x265, AVC→x264, ...).
var videoCodecAliases = map[string]string{
	"h264":  "x264",
	"avc":   "x264",
	"h265":  "x265",
	"hevc":  "x265",
	"av1":   "av1",
	"vp9":   "vp9",
	"mpeg4": "mpeg4",
}

func normalizeVideoCodec(raw string) string {
	key := strings.ToLower(raw)
	if n, ok := videoCodecAliases[key]; ok {
		return n
	}
	return key
}

var audioCodecAliases = map[string]string{
	"ac3":        "AC3",
	"ac-3":       "AC3",
	"eac3":       "EAC3",
	"dts":        "DTS",
	"dtshd":      "DTS-HD",
	"dts-hd ma":  "DTS-HD",
	"dts-hd":     "DTS-HD",
	"truehd":     "TrueHD",
	"aac":        "AAC",
	"flac":       "FLAC",
	"mp3":        "MP3",
	"opus":       "Opus",
	"vorbis":     "Vorbis",
}

func normalizeAudioCodec(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if n, ok := audioCodecAliases[key]; ok {
		return n
	}
	return strings.ToUpper(raw)
}

// normalizeChannels maps a raw channel count to the spec's label (6→5.1, 8→7.1).
func normalizeChannels(channels int) string {
	switch channels {
	case 1:
		return "1.0"
	case 2:
		return "2.0"
	case 6:
		return "5.1"
	case 8:
		return "7.1"
	default:
		if channels <= 0 {
			return ""
		}
		return fmt.Sprintf("%d.0", channels)
	}
}

func extByContainer(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || idx == len(path)-1 {
		return ""
	}
	return path[idx+1:]
}
