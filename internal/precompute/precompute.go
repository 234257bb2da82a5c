// Package precompute implements §4.10: ranked regex/SEL scoring, preferred
// tagging, and the final stable sort with pin partitions. Grounded on the
// teacher's SortTorrents stable-sort idiom in
// internal/services/torrent_service.go, generalized to a user-declared
// multi-key sortCriteria tuple plus SEL-driven pin partitioning.
package precompute

import (
	"regexp"
	"sort"

	"github.com/streamforge/resolver/internal/models"
	"github.com/streamforge/resolver/internal/sel"
)

// Apply scores, tags, and sorts streams in place (returning the same slice
// reordered) per §4.10.
func Apply(streams []*models.ParsedStream, ud *models.UserData) []*models.ParsedStream {
	if ud == nil {
		sortStreams(streams, nil)
		return streams
	}

	applyRankedRegex(streams, ud.RegexRequired)
	applyRankedSEL(streams, ud.SELRanked)
	applyPreferred(streams, ud)
	applyPins(streams, ud.SELRequired, ud.SELExcluded, ud.SELIncluded)

	sortStreams(streams, ud.SortCriteria)
	return partitionPins(streams)
}

func applyRankedRegex(streams []*models.ParsedStream, patterns []string) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	names := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			compiled = append(compiled, re)
			names = append(names, p)
		}
	}
	for _, s := range streams {
		for i, re := range compiled {
			if re.MatchString(s.Filename) {
				s.RegexScore++
				s.RegexMatched = true
				s.RankedRegexesMatched = append(s.RankedRegexesMatched, names[i])
			}
		}
	}
}

func applyRankedSEL(streams []*models.ParsedStream, exprs []string) {
	compiled := make([]sel.Expr, 0, len(exprs))
	for _, src := range exprs {
		body, _ := sel.ParsePin(src)
		if e, err := sel.Parse(body); err == nil {
			compiled = append(compiled, e)
		}
	}
	for _, s := range streams {
		ctx := sel.EvalContext{Stream: s}
		for _, e := range compiled {
			if e.Eval(ctx) {
				s.StreamExpressionScore++
				s.StreamExpressionMatched = true
			}
		}
	}
}

// applyPreferred sets KeywordMatched on each stream that matches at least
// one SELPreferred expression, trying them in declaration order and
// stopping at the first match. Which expression matched is not recorded.
func applyPreferred(streams []*models.ParsedStream, ud *models.UserData) {
	compiled := make([]sel.Expr, 0, len(ud.SELPreferred))
	for _, src := range ud.SELPreferred {
		body, _ := sel.ParsePin(src)
		if e, err := sel.Parse(body); err == nil {
			compiled = append(compiled, e)
		}
	}
	for _, s := range streams {
		ctx := sel.EvalContext{Stream: s}
		for _, e := range compiled {
			if e.Eval(ctx) {
				s.KeywordMatched = true
				break
			}
		}
	}
}

func applyPins(streams []*models.ParsedStream, sources ...[]string) {
	for _, list := range sources {
		for _, src := range list {
			_, pin := sel.ParsePin(src)
			if pin == sel.PinNone {
				continue
			}
			body, _ := sel.ParsePin(src)
			e, err := sel.Parse(body)
			if err != nil {
				continue
			}
			for _, s := range streams {
				if e.Eval(sel.EvalContext{Stream: s}) {
					if pin == sel.PinTop {
						s.PinTop = true
					} else {
						s.PinBottom = true
					}
				}
			}
		}
	}
}

func sortStreams(streams []*models.ParsedStream, criteria []models.SortKey) {
	sort.SliceStable(streams, func(i, j int) bool {
		a, b := streams[i], streams[j]
		for _, key := range criteria {
			cmp := compareField(a, b, key.Field)
			if cmp == 0 {
				continue
			}
			if key.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		// tie-break by combined ranked score, descending
		return a.RegexScore+a.StreamExpressionScore > b.RegexScore+b.StreamExpressionScore
	})
}

func compareField(a, b *models.ParsedStream, field string) int {
	switch field {
	case "resolution":
		return compareStr(resolutionOf(a), resolutionOf(b))
	case "cached":
		return compareBool(isCached(a), isCached(b))
	case "size":
		return compareInt64(a.Size, b.Size)
	case "seeders":
		return compareInt(a.Seeders, b.Seeders)
	case "score":
		return compareInt(a.RegexScore+a.StreamExpressionScore, b.RegexScore+b.StreamExpressionScore)
	default:
		return 0
	}
}

func resolutionOf(s *models.ParsedStream) string {
	if s.ParsedFile == nil {
		return ""
	}
	return s.ParsedFile.Resolution
}

func isCached(s *models.ParsedStream) bool { return s.Service != nil && (s.Service.Cached || s.Service.Library) }

func compareStr(a, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return 1
	}
	return -1
}

func compareInt64(a, b int64) int {
	switch {
	case a == b:
		return 0
	case a < b:
		return -1
	default:
		return 1
	}
}

func compareInt(a, b int) int {
	switch {
	case a == b:
		return 0
	case a < b:
		return -1
	default:
		return 1
	}
}

// partitionPins stably moves pinned-top streams to the front and
// pinned-bottom streams to the tail, preserving relative order otherwise.
func partitionPins(streams []*models.ParsedStream) []*models.ParsedStream {
	var top, mid, bottom []*models.ParsedStream
	for _, s := range streams {
		switch {
		case s.PinTop:
			top = append(top, s)
		case s.PinBottom:
			bottom = append(bottom, s)
		default:
			mid = append(mid, s)
		}
	}
	out := make([]*models.ParsedStream, 0, len(streams))
	out = append(out, top...)
	out = append(out, mid...)
	out = append(out, bottom...)
	return out
}
