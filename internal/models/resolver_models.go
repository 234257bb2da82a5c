package models

import "time"

// ParsedTitle is the structured descriptor produced by the title parser.
type ParsedTitle struct {
	Title        string
	Year         int
	Seasons      []int
	Episodes     []int
	Resolution   string
	Quality      string
	Codec        string
	Audio        []string
	Container    string
	VisualTags   []string
	Is3D         bool
	Language     []string
	ReleaseGroup string
	IsSeasonPack bool
}

// HasSeasonInfo reports whether any season number was extracted.
func (p ParsedTitle) HasSeasonInfo() bool { return len(p.Seasons) > 0 }

// Alias is a title alias with an optional language tag.
type Alias struct {
	Title    string
	Language string
}

// SeasonInfo records the episode count for one season, used for absolute
// episode computation and bitrate backfill.
type SeasonInfo struct {
	Number       int
	EpisodeCount int
}

// TitleMetadata is the merged, read-only metadata view for one request,
// exclusively owned by the RequestContext that created it.
type TitleMetadata struct {
	Primary                 string
	Aliases                 []Alias
	Year                    int
	YearEnd                 int
	OriginalLanguage        string
	Seasons                 []SeasonInfo
	AbsoluteEpisode         int
	RelativeAbsoluteEpisode int
	Genres                  map[string]struct{}
	RuntimeMinutes          int
	FirstAired              *time.Time
	LastAired               *time.Time
	NextAir                 *time.Time
}

// AnimeMapping cross-references an anime database entry across id schemes.
type AnimeMapping struct {
	ImdbID           string
	TmdbID           string
	TvdbID           string
	AnilistID        string
	MalID            string
	StartingSeason   int
	NonImdbEpisodes  map[uint]struct{}
	SeasonYear       int
}

// CandidateTorrent is a pre-resolution torrent candidate produced by a
// search adapter. Either Hash is a real 40-hex info-hash, or
// PlaceholderHash is true and Hash is sha1(DownloadURL).
type CandidateTorrent struct {
	Hash            string
	PlaceholderHash bool
	Title           string
	Size            int64
	DownloadURL     string
	TrackerSources  []string
	Private         bool
	Library         bool
	Indexer         string
	Seeders         int
	AgeHours        float64
	Parsed          *ParsedTitle
	Confirmed       bool
}

// CandidateNZB is a pre-resolution usenet candidate.
type CandidateNZB struct {
	Hash         string
	NzbURL       string
	Title        string
	Size         int64
	EasynewsURL  string
	Library      bool
	Indexer      string
	AgeHours     float64
	Parsed       *ParsedTitle
}

// DebridStatus enumerates the DebridDownload state machine.
type DebridStatus string

const (
	DebridStatusCached      DebridStatus = "cached"
	DebridStatusDownloaded  DebridStatus = "downloaded"
	DebridStatusDownloading DebridStatus = "downloading"
	DebridStatusQueued      DebridStatus = "queued"
	DebridStatusUploading   DebridStatus = "uploading"
	DebridStatusProcessing  DebridStatus = "processing"
	DebridStatusFailed      DebridStatus = "failed"
	DebridStatusInvalid     DebridStatus = "invalid"
	DebridStatusUnknown     DebridStatus = "unknown"
)

// IsTerminalNegative reports whether the status can never progress further.
func (s DebridStatus) IsTerminalNegative() bool {
	return s == DebridStatusFailed || s == DebridStatusInvalid
}

// DebridFile is one file inside a DebridDownload.
type DebridFile struct {
	Index    int
	Name     string
	Size     int64
	Path     string
	Link     string
	MimeType string
}

var videoExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {},
	".webm": {}, ".m4v": {}, ".mpg": {}, ".mpeg": {}, ".ts": {}, ".m2ts": {},
}

var blacklistExtensions = map[string]struct{}{
	".txt": {}, ".nfo": {}, ".srt": {}, ".sub": {}, ".idx": {}, ".ass": {},
	".jpg": {}, ".jpeg": {}, ".png": {}, ".zip": {}, ".rar": {}, ".r00": {},
	".exe": {}, ".url": {}, ".sfv": {}, ".md5": {},
}

func extOf(name string) string {
	for i := len(name) - 1; i >= 0 && i > len(name)-10; i-- {
		if name[i] == '.' {
			ext := name[i:]
			lower := make([]byte, len(ext))
			for j, c := range []byte(ext) {
				if c >= 'A' && c <= 'Z' {
					c += 'a' - 'A'
				}
				lower[j] = c
			}
			return string(lower)
		}
	}
	return ""
}

// IsBlacklisted reports whether the file is a non-video document/subtitle/
// archive member. Blacklist takes precedence over video classification.
func (f DebridFile) IsBlacklisted() bool {
	_, bad := blacklistExtensions[extOf(f.Name)]
	return bad
}

// IsVideo reports whether the file qualifies as a playable video file.
func (f DebridFile) IsVideo() bool {
	if f.IsBlacklisted() {
		return false
	}
	if len(f.MimeType) >= 5 && f.MimeType[:5] == "video" {
		return true
	}
	_, ok := videoExtensions[extOf(f.Name)]
	return ok
}

// DebridDownload is a single library/check/resolve item returned by an adapter.
type DebridDownload struct {
	ID      string
	Hash    string
	Name    string
	Status  DebridStatus
	Size    int64
	Files   []DebridFile
	Library bool
	AddedAt *time.Time
}

// StreamKind discriminates ParsedStream's tagged union.
type StreamKind string

const (
	StreamKindDebrid   StreamKind = "debrid"
	StreamKindP2P      StreamKind = "p2p"
	StreamKindUsenet   StreamKind = "usenet"
	StreamKindHTTP     StreamKind = "http"
	StreamKindYoutube  StreamKind = "youtube"
	StreamKindLive     StreamKind = "live"
	StreamKindExternal StreamKind = "external"
	StreamKindInfo     StreamKind = "info"
	StreamKindError    StreamKind = "error"
)

// ServiceAnnotation records which debrid service produced a stream and its
// cache/library state.
type ServiceAnnotation struct {
	ID      string
	Cached  bool
	Library bool
}

// SeadexInfo carries SeaDex best-release tagging for anime streams.
type SeadexInfo struct {
	IsBest   bool
	IsSeadex bool
}

// SelectedFile identifies the file chosen inside a multi-file download.
type SelectedFile struct {
	Name  string
	Size  int64
	Index int
}

// ParsedStream (SelectedStream) is the immutable per-request emission type.
type ParsedStream struct {
	ID                      string
	AddonInstanceID         string
	Type                    StreamKind
	Service                 *ServiceAnnotation
	ParsedFile              *ParsedTitle
	Filename                string
	FolderName              string
	Size                    int64
	FolderSize              int64
	Bitrate                 *float64
	Indexer                 string
	AgeHours                float64
	Seeders                 int
	Languages               map[string]struct{}
	File                    SelectedFile
	URL                     string
	ExternalURL             string
	InfoHash                string
	FileIdx                 int
	Sources                 []string
	Passthrough             map[string]struct{}
	Seadex                  *SeadexInfo
	RankedRegexesMatched    []string
	RegexScore              int
	StreamExpressionScore   int
	RegexMatched            bool
	KeywordMatched          bool
	StreamExpressionMatched bool

	// Sort/dedup/limit bookkeeping, not part of the wire shape.
	PinTop    bool
	PinBottom bool
}

// HasPassthrough reports whether this stream is exempted from stage name.
func (p *ParsedStream) HasPassthrough(stage string) bool {
	if p.Passthrough == nil {
		return false
	}
	_, ok := p.Passthrough[stage]
	return ok
}

// EnumFilter is an allow/deny enumeration filter over one stream attribute.
type EnumFilter struct {
	Excluded []string
	Required []string
	Included []string
}

// RangeFilter bounds a numeric attribute, 0 meaning "unset" on either side.
type RangeFilter struct {
	Min float64
	Max float64
}

// SortKey is one element of a user sort-criteria tuple.
type SortKey struct {
	Field      string // "resolution" | "cached" | "size" | "seeders" | "score" | ...
	Descending bool
}

// LimitMode controls how Deduplicator & Limiter combines multiple caps.
type LimitMode string

const (
	LimitModeIndependent LimitMode = "independent"
	LimitModeConjunctive LimitMode = "conjunctive"
)

// Limits caps stream cardinality per category.
type Limits struct {
	Mode       LimitMode
	Global     int
	Indexer    int
	ReleaseGrp int
	Resolution int
	Quality    int
	Addon      int
	StreamType int
	Service    int
}

// ServiceCredential is an opaque per-service credential blob.
type ServiceCredential struct {
	ServiceID string
	Kind      string // "multistore" | "sabnzbd-webdav"
	Token     string
	Extra     map[string]string
}

// UserData is the declarative, opaque-to-transport configuration accepted
// by the core pipeline.
type UserData struct {
	Resolution    EnumFilter
	Quality       EnumFilter
	Encode        EnumFilter
	VisualTags    EnumFilter
	AudioTags     EnumFilter
	AudioChannels EnumFilter
	Languages     EnumFilter
	StreamTypes   EnumFilter
	ReleaseGroup  EnumFilter
	Keywords      EnumFilter

	RegexExcluded []string
	RegexRequired []string
	RegexIncluded []string

	SELExcluded []string
	SELRequired []string
	SELIncluded []string
	SELRanked   []string
	SELPreferred []string

	Size    RangeFilter
	Bitrate RangeFilter
	Seeders RangeFilter
	Age     RangeFilter

	SortCriteria []SortKey
	Limits       Limits

	Services        []ServiceCredential
	ServicePriority []string

	DigitalReleaseGateEnabled bool
	DigitalReleaseTolerance   time.Duration
	RuntimeBitrateEnabled     bool // metadata-runtime bitrate backfill (§4.5 episode details trigger)
	BestReleaseEnabled        bool
	CheckOwned                bool
	ExcludePrivateTrackers    bool
	SkipSeasonEpisodeCheck    bool
	EmitDiagnostics           bool
	RegexAccess               string // "all" | "trusted" | "none"

	ChosenIndex    *int
	ChosenFilename string

	ProxyConfig *ProxyConfig
}

// ProxyConfig is an optional outbound proxy configuration.
type ProxyConfig struct {
	URL      string
	Username string
	Password string
}

// StageResult is the errors-as-data envelope every pipeline stage returns.
type StageResult struct {
	Streams []*ParsedStream
	Errors  []error
}
