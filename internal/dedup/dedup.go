// Package dedup implements §4.11: hash/fingerprint deduplication followed
// by independent or conjunctive cardinality limits. No teacher equivalent
// exists; the shape follows the spec's decision table directly.
package dedup

import "github.com/streamforge/resolver/internal/models"

// Apply deduplicates then limits streams according to ud.Limits.
func Apply(streams []*models.ParsedStream, ud *models.UserData) []*models.ParsedStream {
	deduped := dedupe(streams)
	if ud == nil {
		return deduped
	}
	return limit(deduped, ud.Limits)
}

func dedupe(streams []*models.ParsedStream) []*models.ParsedStream {
	seen := map[string]struct{}{}
	out := make([]*models.ParsedStream, 0, len(streams))
	for _, s := range streams {
		key := fingerprint(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

func fingerprint(s *models.ParsedStream) string {
	if s.InfoHash != "" {
		return "hash:" + s.InfoHash
	}
	svc := ""
	if s.Service != nil {
		svc = s.Service.ID
	}
	return "name:" + s.Filename + "|" + itoa64(s.Size) + "|" + svc
}

func itoa64(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

type category struct {
	name string
	cap  int
	key  func(*models.ParsedStream) string
}

func limit(streams []*models.ParsedStream, limits models.Limits) []*models.ParsedStream {
	categories := []category{
		{"indexer", limits.Indexer, func(s *models.ParsedStream) string { return s.Indexer }},
		{"releaseGroup", limits.ReleaseGrp, func(s *models.ParsedStream) string {
			if s.ParsedFile == nil {
				return ""
			}
			return s.ParsedFile.ReleaseGroup
		}},
		{"resolution", limits.Resolution, func(s *models.ParsedStream) string {
			if s.ParsedFile == nil {
				return ""
			}
			return s.ParsedFile.Resolution
		}},
		{"quality", limits.Quality, func(s *models.ParsedStream) string {
			if s.ParsedFile == nil {
				return ""
			}
			return s.ParsedFile.Quality
		}},
		{"addon", limits.Addon, func(s *models.ParsedStream) string { return s.AddonInstanceID }},
		{"streamType", limits.StreamType, func(s *models.ParsedStream) string { return string(s.Type) }},
		{"service", limits.Service, func(s *models.ParsedStream) string {
			if s.Service == nil {
				return ""
			}
			return s.Service.ID
		}},
	}

	if limits.Mode == models.LimitModeConjunctive {
		return limitConjunctive(streams, limits.Global, categories)
	}
	return limitIndependent(streams, limits.Global, categories)
}

func limitIndependent(streams []*models.ParsedStream, global int, categories []category) []*models.ParsedStream {
	counts := make([]map[string]int, len(categories))
	for i := range counts {
		counts[i] = map[string]int{}
	}
	globalCount := 0

	out := make([]*models.ParsedStream, 0, len(streams))
	for _, s := range streams {
		if s.HasPassthrough("limit") {
			out = append(out, s)
			continue
		}
		if global > 0 && globalCount >= global {
			continue
		}
		drop := false
		for i, c := range categories {
			if c.cap <= 0 {
				continue
			}
			k := c.key(s)
			if counts[i][k] >= c.cap {
				drop = true
				break
			}
		}
		if drop {
			continue
		}
		for i, c := range categories {
			if c.cap <= 0 {
				continue
			}
			counts[i][c.key(s)]++
		}
		globalCount++
		out = append(out, s)
	}
	return out
}

// limitConjunctive caps by the tuple of every *enabled* category (cap==0
// means disabled for that key, per Open Question #2), using the minimum
// enabled cap as the shared ceiling for the combined key.
func limitConjunctive(streams []*models.ParsedStream, global int, categories []category) []*models.ParsedStream {
	enabled := make([]category, 0, len(categories))
	minCap := -1
	for _, c := range categories {
		if c.cap <= 0 {
			continue
		}
		enabled = append(enabled, c)
		if minCap == -1 || c.cap < minCap {
			minCap = c.cap
		}
	}

	counts := map[string]int{}
	globalCount := 0
	out := make([]*models.ParsedStream, 0, len(streams))
	for _, s := range streams {
		if s.HasPassthrough("limit") {
			out = append(out, s)
			continue
		}
		if global > 0 && globalCount >= global {
			continue
		}
		if len(enabled) == 0 {
			globalCount++
			out = append(out, s)
			continue
		}
		key := ""
		for _, c := range enabled {
			key += "|" + c.key(s)
		}
		if counts[key] >= minCap {
			continue
		}
		counts[key]++
		globalCount++
		out = append(out, s)
	}
	return out
}
