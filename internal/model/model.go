// Package model holds the entities the ingestion pipeline persists and
// passes between components: scanned files, parsed filenames, catalog
// entities, and the pending-validation workflow state.
package model

import (
	"time"

	"github.com/google/uuid"
)

// MediaKind classifies a scanned file or a parsed filename result.
type MediaKind string

const (
	KindMovie   MediaKind = "movie"
	KindSeries  MediaKind = "series"
	KindUnknown MediaKind = "unknown"
)

// ResolutionLabel buckets a video's pixel height into the spec's coarse labels.
type ResolutionLabel string

const (
	ResolutionSD   ResolutionLabel = "SD"
	Resolution720  ResolutionLabel = "720p"
	Resolution1080 ResolutionLabel = "1080p"
	Resolution4K   ResolutionLabel = "4K"
)

// Resolution describes pixel dimensions plus the derived label.
type Resolution struct {
	Width  int
	Height int
	Label  ResolutionLabel
}

// LabelFor buckets a pixel height into the spec's resolution labels.
func LabelFor(height int) ResolutionLabel {
	switch {
	case height >= 2160:
		return Resolution4K
	case height >= 1080:
		return Resolution1080
	case height >= 720:
		return Resolution720
	default:
		return ResolutionSD
	}
}

// MediaInfo is the immutable technical profile of a video file.
type MediaInfo struct {
	Resolution      Resolution
	VideoCodec      string // normalized: x264, x265, ...
	AudioCodecs     []string
	AudioChannels   string // e.g. "5.1", "7.1"
	AudioLanguages  []string
	DurationSeconds int
	Container       string
}

// ParsedFilename is the immutable output of the filename parser.
type ParsedFilename struct {
	Title             string
	Year              *int
	Season            *int
	Episode           *int
	EpisodeEnd        *int // set for multi-episode files (SxxEyy-yy, SxxEyyEzz)
	Type              MediaKind
	Resolution        string // opportunistic hint straight from the filename
	Container         string
	PartNumber        *int // stacked movies: CD1/PART1/ptA
	PartType          string
	BaseTitle         string // cleaned name without the part indicator
}

// VideoFile is a file the scanner discovered under a download root.
type VideoFile struct {
	ID          uuid.UUID
	Path        string
	Filename    string
	SizeBytes   int64
	FileHash    *string // sampled XXH64 (xxhash), hex-encoded; optional
	MediaInfo   *MediaInfo
	DiscoveredAt time.Time
	UpdatedAt    time.Time
}

// ScanResult is the descriptor the scanner yields per video file: the raw
// file plus everything the parser could extract, and the directory-intent
// flags the matcher and workflow rely on.
type ScanResult struct {
	File               VideoFile
	Parsed             ParsedFilename
	TypeHint           MediaKind // directory intent (downloads/Films vs downloads/Series)
	CorrectedLocation  bool      // parser type contradicts directory intent
}

// CandidateSource identifies which upstream catalog a candidate snapshot came from.
type CandidateSource string

const (
	SourceTMDB CandidateSource = "tmdb"
	SourceTVDB CandidateSource = "tvdb"
	SourceIMDB CandidateSource = "imdb"
)

// CandidateSnapshot is a minimal, self-contained view of an external
// catalog entry, embedded in a PendingValidation so the UI can render it
// without re-calling the upstream.
type CandidateSnapshot struct {
	Source      CandidateSource
	ExternalID  string
	Title       string
	OriginalTitle string
	Year        *int
	Score       float64 // 0-100
	PosterURL   string
	Overview    string
	CastSummary string
	DurationSeconds int
}

// PendingStatus is the lifecycle state of a PendingValidation.
type PendingStatus string

const (
	StatusPending   PendingStatus = "pending"
	StatusValidated PendingStatus = "validated"
	StatusRejected  PendingStatus = "rejected"
)

// PendingValidation is a matcher-produced item awaiting confirmation.
type PendingValidation struct {
	ID                  uuid.UUID
	VideoFileID         uuid.UUID
	Status              PendingStatus
	AutoValidated       bool
	SelectedCandidateID string
	Candidates          []CandidateSnapshot
	CascadeRoot         *uuid.UUID // set on siblings auto-validated via series cascade
	SeriesKey           string     // directory/parsed-title key used to find cascade siblings
	Season              *int
	Episode             *int
	EpisodeEnd          *int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// EntityType names the kind of catalog entity a ConfirmedAssociation or
// Trash row refers to.
type EntityType string

const (
	EntityMovie   EntityType = "movie"
	EntityEpisode EntityType = "episode"
	EntitySeries  EntityType = "series"
)

// ConfirmedAssociation records operator approval of a Movie/Episode's
// metadata match, excluding it from future suspicion scans.
type ConfirmedAssociation struct {
	ID          uuid.UUID
	EntityType  EntityType
	EntityID    uuid.UUID
	ConfirmedAt time.Time
}

// Trash holds a soft-deleted entity's snapshot for restore.
type Trash struct {
	ID         uuid.UUID
	EntityType EntityType
	OriginalID uuid.UUID
	Payload    []byte // opaque JSON snapshot
	DeletedAt  time.Time
}

// Movie is a fully validated, cataloged movie.
type Movie struct {
	ID              uuid.UUID
	TMDBID          *int
	IMDBID          *string
	Title           string
	OriginalTitle   string
	Year            *int
	Genres          []string
	DurationSeconds int
	Overview        string
	PosterURL       string
	Director        string
	Cast            []string // ordered, ≤5

	Resolution     Resolution
	VideoCodec     string
	AudioCodecs    []string
	AudioChannels  string
	AudioLanguages []string
	Container      string

	FilePath        string
	SymlinkPath     string
	Watched         bool
	PersonalRating  *int // 1..5

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Series is a TV show; Episodes are owned by it.
type Series struct {
	ID            uuid.UUID
	TMDBID        *int
	TVDBID        *int
	IMDBID        *string
	Title         string
	Year          *int
	Genres        []string
	Overview      string
	PosterURL     string
	CreatedBy     string
	Cast          []string
	Watched       bool
	PersonalRating *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Episode belongs to exactly one Series.
type Episode struct {
	ID            uuid.UUID
	SeriesID      uuid.UUID
	SeasonNumber  int
	EpisodeNumber int
	Title         string
	AirDate       string
	Overview      string
	FilePath      string
	SymlinkPath   string

	Resolution     Resolution
	VideoCodec     string
	AudioCodecs    []string
	AudioChannels  string
	AudioLanguages []string
	Container      string
	DurationSeconds int

	CreatedAt time.Time
	UpdatedAt time.Time
}
