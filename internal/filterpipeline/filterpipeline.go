// Package filterpipeline implements the §4.9 ordered filter stages. Each
// stage consumes the surviving stream set and returns a smaller (or equal)
// set; passthrough-tagged streams skip their named stage. Grounded on no direct teacher equivalent — gostremiofr
// filters inline during candidate collection — so the stage shape follows
// the spec's rule table directly, in the teacher's errors-as-data idiom.
package filterpipeline

import (
	"regexp"
	"strings"
	"time"

	"github.com/streamforge/resolver/internal/fileselector"
	"github.com/streamforge/resolver/internal/models"
	"github.com/streamforge/resolver/internal/requestcontext"
	"github.com/streamforge/resolver/internal/sel"
)

// Context bundles the request-scoped data every stage may need.
type Context struct {
	UserData       *models.UserData
	Metadata       *models.TitleMetadata
	ReleaseDates   *requestcontext.ReleaseDates
	EpisodeDetails *requestcontext.EpisodeDetails
	MediaType      string
	ID             models.ContentId
	Now            time.Time
	SeadexBest     map[string]struct{}
	SeadexAll      map[string]struct{}
}

// Counters tallies removal/inclusion reasons for diagnostics.
type Counters map[string]int

func (c Counters) add(reason string, n int) {
	if n == 0 {
		return
	}
	c[reason] += n
}

type stageFunc func(streams []*models.ParsedStream, ctx Context, counters Counters) []*models.ParsedStream

// Run executes every stage in order and returns the final set plus the
// per-stage removal counts. Stages report no errors, so the result's
// Errors is always empty.
func Run(streams []*models.ParsedStream, ctx Context) (models.StageResult, Counters) {
	counters := Counters{}
	stages := []struct {
		name string
		fn   stageFunc
	}{
		{"digital_release_gate", digitalReleaseGate},
		{"included_accelerator", includedAccelerator},
		{"enum_filters", enumFilters},
		{"regex", regexFilters},
		{"keyword", keywordFilters},
		{"cache_state", cacheStateGate},
		{"seeders_age", seedersAgeRange},
		{"match", matchStage},
		{"size_bitrate", sizeBitrateRange},
		{"sel", selStage},
	}

	var errs []error
	for _, st := range stages {
		before := len(streams)
		streams = st.fn(streams, ctx, counters)
		counters.add(st.name, before-len(streams))
	}

	return models.StageResult{Streams: streams, Errors: errs}, counters
}

// acceleratedStages names the stages an included-accelerator match skips.
// sel has its own SELIncluded accelerator and digital_release_gate runs
// before the accelerator, so neither is listed here.
var acceleratedStages = []string{
	"resolution", "quality", "releaseGroup", "streamType",
	"encode", "visualTags", "audioTags", "audioChannels", "language",
	"regex", "keyword", "cacheState", "seedersAge", "match", "sizeBitrate",
}

func passthrough(s *models.ParsedStream, stage string) bool { return s.HasPassthrough(stage) }

// digitalReleaseGate implements the lettered rule table a-k.
func digitalReleaseGate(streams []*models.ParsedStream, ctx Context, counters Counters) []*models.ParsedStream {
	if ctx.UserData == nil || !ctx.UserData.DigitalReleaseGateEnabled {
		return streams
	}
	tolerance := ctx.UserData.DigitalReleaseTolerance
	if tolerance == 0 {
		tolerance = 72 * time.Hour
	}
	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	out := streams[:0:0]
	for _, s := range streams {
		if passthrough(s, "digitalRelease") {
			out = append(out, s)
			continue
		}
		if allowByDigitalReleaseGate(s, ctx, now, tolerance) {
			out = append(out, s)
		}
	}
	return out
}

func allowByDigitalReleaseGate(s *models.ParsedStream, ctx Context, now time.Time, tolerance time.Duration) bool {
	isSeries := ctx.MediaType == "series" || ctx.MediaType == "anime"

	if isSeries {
		if ctx.EpisodeDetails == nil || ctx.EpisodeDetails.AirDate == nil {
			return true // c
		}
		air := time.Unix(*ctx.EpisodeDetails.AirDate, 0)
		age := now.Sub(air)
		if age >= -tolerance && age <= tolerance {
			return true // a/d
		}
		if air.After(now) {
			return false // b/e
		}
		return true
	}

	// movie
	if ctx.ReleaseDates == nil {
		return true // g
	}
	if ctx.ReleaseDates.Theatrical != nil {
		theatrical := time.Unix(ctx.ReleaseDates.Theatrical.Unix, 0)
		if now.Sub(theatrical) > 365*24*time.Hour {
			return true // f
		}
	}
	allDates := make([]*requestcontext.ReleaseDate, 0, len(ctx.ReleaseDates.Digital)+len(ctx.ReleaseDates.Physical)+len(ctx.ReleaseDates.TV))
	allDates = append(allDates, ctx.ReleaseDates.Digital...)
	allDates = append(allDates, ctx.ReleaseDates.Physical...)
	allDates = append(allDates, ctx.ReleaseDates.TV...)
	for _, d := range allDates {
		if d == nil {
			continue
		}
		t := time.Unix(d.Unix, 0)
		if !t.After(now) {
			return true // h
		}
	}
	var closestFuture *time.Time
	for _, d := range ctx.ReleaseDates.Digital {
		if d == nil {
			continue
		}
		t := time.Unix(d.Unix, 0)
		if t.After(now) && (closestFuture == nil || t.Before(*closestFuture)) {
			closestFuture = &t
		}
	}
	if closestFuture != nil {
		if closestFuture.Sub(now) <= tolerance {
			return true // i
		}
		return false // j
	}
	return false // k
}

// enumCheck binds one of the nine §4.9 stage-3 enumerable attributes to its
// filter config and a value extractor. Attributes with a single parsed
// value (resolution, quality, release group, stream type, encode) wrap a
// string extractor; attributes that can carry several tags at once
// (visual tags, audio tags, audio channels, language) extract a slice, any
// element of which can satisfy exclusion/requirement/inclusion.
type enumCheck struct {
	name   string
	filter models.EnumFilter
	values func(*models.ParsedStream) []string
}

func single(f func(*models.ParsedStream) string) func(*models.ParsedStream) []string {
	return func(s *models.ParsedStream) []string { return []string{f(s)} }
}

var audioChannelPattern = regexp.MustCompile(`\d(?:\.\d)?`)

// audioChannelValues pulls the channel token (e.g. "5.1", "2.0") out of each
// parsed audio tag; title_parser.go folds channel counts into tags like
// "dd5.1" rather than tracking them separately.
func audioChannelValues(s *models.ParsedStream) []string {
	if s.ParsedFile == nil {
		return nil
	}
	var out []string
	for _, tag := range s.ParsedFile.Audio {
		if m := audioChannelPattern.FindString(tag); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func buildEnumChecks(ud *models.UserData) []enumCheck {
	return []enumCheck{
		{"resolution", ud.Resolution, single(func(s *models.ParsedStream) string {
			if s.ParsedFile == nil {
				return "Unknown"
			}
			return orUnknown(s.ParsedFile.Resolution)
		})},
		{"quality", ud.Quality, single(func(s *models.ParsedStream) string {
			if s.ParsedFile == nil {
				return "Unknown"
			}
			return orUnknown(s.ParsedFile.Quality)
		})},
		{"encode", ud.Encode, single(func(s *models.ParsedStream) string {
			if s.ParsedFile == nil {
				return "Unknown"
			}
			return orUnknown(s.ParsedFile.Codec)
		})},
		{"visualTags", ud.VisualTags, func(s *models.ParsedStream) []string {
			if s.ParsedFile == nil {
				return nil
			}
			return s.ParsedFile.VisualTags
		}},
		{"audioTags", ud.AudioTags, func(s *models.ParsedStream) []string {
			if s.ParsedFile == nil {
				return nil
			}
			return s.ParsedFile.Audio
		}},
		{"audioChannels", ud.AudioChannels, audioChannelValues},
		{"language", ud.Languages, func(s *models.ParsedStream) []string {
			if s.ParsedFile == nil {
				return nil
			}
			return s.ParsedFile.Language
		}},
		{"releaseGroup", ud.ReleaseGroup, single(func(s *models.ParsedStream) string {
			if s.ParsedFile == nil {
				return "Unknown"
			}
			return orUnknown(s.ParsedFile.ReleaseGroup)
		})},
		{"streamType", ud.StreamTypes, single(func(s *models.ParsedStream) string { return string(s.Type) })},
	}
}

func anyContains(list []string, values []string) bool {
	for _, v := range values {
		if contains(list, v) {
			return true
		}
	}
	return false
}

// includedAccelerator flags streams matching an explicit Included criterion
// (enum, keyword, or regex) to skip the exclude/require stages that follow,
// per the §4.9 stage 2 accelerator. Non-matching streams are left
// untouched and still go through normal exclude/require evaluation.
func includedAccelerator(streams []*models.ParsedStream, ctx Context, counters Counters) []*models.ParsedStream {
	if ctx.UserData == nil {
		return streams
	}
	checks := buildEnumChecks(ctx.UserData)
	includedRegex := compileAll(ctx.UserData.RegexIncluded)

	for _, s := range streams {
		matched := false
		for _, c := range checks {
			if len(c.filter.Included) == 0 {
				continue
			}
			if anyContains(c.filter.Included, c.values(s)) {
				matched = true
				break
			}
		}
		if !matched && len(ctx.UserData.Keywords.Included) > 0 {
			matched = streamHasKeyword(s, ctx.UserData.Keywords.Included)
		}
		if !matched && len(includedRegex) > 0 {
			matched = matchesAny(includedRegex, streamHaystacks(s))
		}
		if matched {
			if s.Passthrough == nil {
				s.Passthrough = map[string]struct{}{}
			}
			for _, stage := range acceleratedStages {
				s.Passthrough[stage] = struct{}{}
			}
		}
	}
	return streams
}

func streamHaystacks(s *models.ParsedStream) []string {
	haystacks := []string{s.Filename, s.FolderName, s.Indexer}
	if s.ParsedFile != nil {
		haystacks = append(haystacks, s.ParsedFile.ReleaseGroup)
	}
	return haystacks
}

func streamHasKeyword(s *models.ParsedStream, words []string) bool {
	return hasKeyword(s.Filename, words)
}

func enumFilters(streams []*models.ParsedStream, ctx Context, counters Counters) []*models.ParsedStream {
	if ctx.UserData == nil {
		return streams
	}
	checks := buildEnumChecks(ctx.UserData)

	out := streams
	for _, c := range checks {
		if len(c.filter.Excluded) == 0 && len(c.filter.Required) == 0 {
			continue
		}
		next := out[:0:0]
		for _, s := range out {
			if passthrough(s, c.name) {
				next = append(next, s)
				continue
			}
			vs := c.values(s)
			if anyContains(c.filter.Excluded, vs) {
				continue
			}
			if len(c.filter.Required) > 0 && !anyContains(c.filter.Required, vs) {
				continue
			}
			next = append(next, s)
		}
		out = next
	}
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

func regexFilters(streams []*models.ParsedStream, ctx Context, counters Counters) []*models.ParsedStream {
	if ctx.UserData == nil || (len(ctx.UserData.RegexExcluded) == 0 && len(ctx.UserData.RegexRequired) == 0) {
		return streams
	}
	excluded := compileAll(ctx.UserData.RegexExcluded)
	required := compileAll(ctx.UserData.RegexRequired)

	out := streams[:0:0]
	for _, s := range streams {
		if passthrough(s, "regex") {
			out = append(out, s)
			continue
		}
		haystacks := []string{s.Filename, s.FolderName, s.Indexer}
		if s.ParsedFile != nil {
			haystacks = append(haystacks, s.ParsedFile.ReleaseGroup)
		}
		if matchesAny(excluded, haystacks) {
			continue
		}
		if len(required) > 0 && !matchesAny(required, haystacks) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			out = append(out, re)
		}
	}
	return out
}

func matchesAny(res []*regexp.Regexp, haystacks []string) bool {
	for _, re := range res {
		for _, h := range haystacks {
			if re.MatchString(h) {
				return true
			}
		}
	}
	return false
}

func keywordFilters(streams []*models.ParsedStream, ctx Context, counters Counters) []*models.ParsedStream {
	if ctx.UserData == nil || (len(ctx.UserData.Keywords.Excluded) == 0 && len(ctx.UserData.Keywords.Required) == 0) {
		return streams
	}
	out := streams[:0:0]
	for _, s := range streams {
		if passthrough(s, "keyword") {
			out = append(out, s)
			continue
		}
		if hasKeyword(s.Filename, ctx.UserData.Keywords.Excluded) {
			continue
		}
		if len(ctx.UserData.Keywords.Required) > 0 && !hasKeyword(s.Filename, ctx.UserData.Keywords.Required) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// hasKeyword reports whether filename contains any of words as a whole
// word, case-insensitively: the match must be bounded by the ends of the
// name or by characters that are neither letters nor digits.
func hasKeyword(filename string, words []string) bool {
	lower := strings.ToLower(filename)
	for _, w := range words {
		if w == "" {
			continue
		}
		re := regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(strings.ToLower(w)) + `(?:$|[^\p{L}\p{N}])`)
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func cacheStateGate(streams []*models.ParsedStream, ctx Context, counters Counters) []*models.ParsedStream {
	if ctx.UserData == nil {
		return streams
	}
	wantCached := contains(ctx.UserData.StreamTypes.Required, "cached")
	wantUncached := contains(ctx.UserData.StreamTypes.Required, "uncached")
	if !wantCached && !wantUncached {
		return streams
	}
	out := streams[:0:0]
	for _, s := range streams {
		if passthrough(s, "cacheState") {
			out = append(out, s)
			continue
		}
		cached := s.Service != nil && (s.Service.Cached || s.Service.Library)
		if wantCached && !wantUncached && !cached {
			continue
		}
		if wantUncached && !wantCached && cached {
			continue
		}
		out = append(out, s)
	}
	return out
}

func seedersAgeRange(streams []*models.ParsedStream, ctx Context, counters Counters) []*models.ParsedStream {
	if ctx.UserData == nil {
		return streams
	}
	out := streams[:0:0]
	for _, s := range streams {
		if passthrough(s, "seedersAge") {
			out = append(out, s)
			continue
		}
		if s.Type == models.StreamKindP2P && !inRange(float64(s.Seeders), ctx.UserData.Seeders) {
			continue
		}
		if !inRange(s.AgeHours, ctx.UserData.Age) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func inRange(v float64, r models.RangeFilter) bool {
	if r.Min != 0 && v < r.Min {
		return false
	}
	if r.Max != 0 && v > r.Max {
		return false
	}
	return true
}

// matchStage reapplies the year/season/episode/title checks at the
// aggregate level (per-candidate checks already ran in the processor;
// this stage additionally honours strict year mode for movies).
func matchStage(streams []*models.ParsedStream, ctx Context, counters Counters) []*models.ParsedStream {
	if ctx.Metadata == nil {
		return streams
	}
	out := streams[:0:0]
	for _, s := range streams {
		if passthrough(s, "match") {
			out = append(out, s)
			continue
		}
		if ctx.MediaType == "movie" && ctx.Metadata.Year != 0 && s.ParsedFile != nil && s.ParsedFile.Year == 0 {
			continue // strict year mode: movies without a detectable year fail
		}
		req := fileselector.Request{
			Season:  ctx.ID.Season2Int(),
			Episode: ctx.ID.Episode2Int(),
			Title:   ctx.Metadata.Primary,
			Aliases: ctx.Metadata.Aliases,
		}
		if s.ParsedFile != nil && (fileselector.IsSeasonWrong(*s.ParsedFile, req) || fileselector.IsEpisodeWrong(*s.ParsedFile, req)) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func sizeBitrateRange(streams []*models.ParsedStream, ctx Context, counters Counters) []*models.ParsedStream {
	if ctx.UserData == nil {
		return streams
	}
	out := streams[:0:0]
	for _, s := range streams {
		if passthrough(s, "sizeBitrate") {
			out = append(out, s)
			continue
		}
		if !inRange(float64(s.Size), ctx.UserData.Size) {
			continue
		}
		backfillBitrate(s, ctx)
		if s.Bitrate != nil && !inRange(*s.Bitrate, ctx.UserData.Bitrate) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// backfillBitrate estimates bitrate from runtime and size when unknown,
// dividing by total episode count across included seasons only when every
// included season's episode count is known (Open Question #3).
func backfillBitrate(s *models.ParsedStream, ctx Context) {
	if s.Bitrate != nil || ctx.Metadata == nil || ctx.Metadata.RuntimeMinutes == 0 {
		return
	}
	runtimeSeconds := float64(ctx.Metadata.RuntimeMinutes * 60)
	episodeCount := 1
	if s.ParsedFile != nil && s.ParsedFile.IsSeasonPack {
		total, known := totalEpisodesKnown(s.ParsedFile.Seasons, ctx.Metadata.Seasons)
		if !known {
			return
		}
		episodeCount = total
		runtimeSeconds *= float64(episodeCount)
	}
	if runtimeSeconds <= 0 {
		return
	}
	bitrate := float64(s.Size) * 8 / runtimeSeconds
	s.Bitrate = &bitrate
}

func totalEpisodesKnown(seasons []int, seasonInfo []models.SeasonInfo) (int, bool) {
	byNumber := map[int]int{}
	for _, si := range seasonInfo {
		byNumber[si.Number] = si.EpisodeCount
	}
	total := 0
	for _, n := range seasons {
		count, ok := byNumber[n]
		if !ok {
			return 0, false
		}
		total += count
	}
	return total, total > 0
}

func selStage(streams []*models.ParsedStream, ctx Context, counters Counters) []*models.ParsedStream {
	if ctx.UserData == nil {
		return streams
	}
	excluded := compileSel(ctx.UserData.SELExcluded)
	required := compileSel(ctx.UserData.SELRequired)
	included := compileSel(ctx.UserData.SELIncluded)

	out := streams[:0:0]
	for _, s := range streams {
		if passthrough(s, "sel") {
			out = append(out, s)
			continue
		}
		evalCtx := sel.EvalContext{Stream: s, AllStreams: streams, SeadexBest: ctx.SeadexBest, SeadexAll: ctx.SeadexAll}

		if evalAny(included, evalCtx) {
			out = append(out, s)
			continue
		}
		if evalAny(excluded, evalCtx) {
			continue
		}
		if len(required) > 0 && !evalAll(required, evalCtx) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func compileSel(exprs []string) []sel.Expr {
	out := make([]sel.Expr, 0, len(exprs))
	for _, src := range exprs {
		body, _ := sel.ParsePin(src)
		if e, err := sel.Parse(body); err == nil {
			out = append(out, e)
		}
	}
	return out
}

func evalAny(exprs []sel.Expr, ctx sel.EvalContext) bool {
	for _, e := range exprs {
		if e.Eval(ctx) {
			return true
		}
	}
	return false
}

func evalAll(exprs []sel.Expr, ctx sel.EvalContext) bool {
	for _, e := range exprs {
		if !e.Eval(ctx) {
			return false
		}
	}
	return true
}
