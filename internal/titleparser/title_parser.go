// Package titleparser turns a torrent/NZB/file name into a structured
// descriptor. Parse is a pure function: deterministic, no I/O, invariant
// under repeated invocation on the same input.
package titleparser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/streamforge/resolver/internal/models"
)

// matcher inspects title and mutates acc, returning the index of the
// leftmost match it consumed, or -1 if it found nothing new. Parse keeps
// the smallest index across every matcher and treats everything before it
// as the title.
type matcher func(title string, acc *models.ParsedTitle) int

var matchers = []matcher{
	parseYear(`(?:\b((?:19[0-9]|20[0-9])[0-9])\b)|(?:\(((?:19[0-9]|20[0-9])[0-9])\))`),
	parseResolution(`(?i)\b([0-9]{3,4})[pi]\b`),
	matchAndSetResolution(`(?i)\b(4k)\b`, "2160p"),
	matchAndSetQuality(`(?i)\b(?:HD-?)?CAM(?:rip)?\b`, "cam"),
	matchAndSetQuality(`(?i)\b(?:HD-?)?T(?:ELE)?S(?:YNC)?\b`, "telesync"),
	parseQuality(`(?i)\bHD-?Rip\b`),
	parseQuality(`(?i)\bBRRip\b`),
	parseQuality(`(?i)\bBDRip\b`),
	parseQuality(`(?i)\bDVDRip\b`),
	matchAndSetQuality(`(?i)\bDVD(?:R[0-9])?\b`, "dvd"),
	matchAndSetQuality(`(?i)\bBlu-?ray(?:[\s.]|.+\b)Remux\b`, "brremux"),
	matchAndSetQuality(`(?i)\bBlu-?ray\b`, "bluray"),
	parseQuality(`(?i)\bWEB-?DL\b`),
	parseQuality(`(?i)\bWEB-?Rip\b`),
	parseQuality(`(?i)\bHDTV\b`),
	parseCodec(`(?i)\bhevc|x265|h265|x264|h264|avc|xvid|divx\b`),
	parseAudioTag(`(?i)\bAtmos\b`),
	parseAudioTag(`(?i)\bDTS(?:-HD)?\b`),
	parseAudioTag(`(?i)\bTrueHD\b`),
	parseAudioTag(`(?i)\bAC-?3\b`),
	parseAudioTag(`(?i)\bDD5[. ]?1\b`),
	parseAudioTag(`(?i)\bAAC(?:[. ]?2[. ]0)?\b`),
	parseVisualTag(`(?i)\bHDR10\+?\b`),
	parseVisualTag(`(?i)\bDolby[ .]?Vision\b`),
	parseVisualTag(`(?i)\bHDR\b`),
	parseVisualTag(`(?i)\bSDR\b`),
	parseContainer(`(?i)\b(MKV|AVI|MP4)\b`),
	parse3D(`(?i)\b(3D)\b`),
	parseSeasonEpisodeRange(`(?i)\bS(\d{1,2})E(\d{1,3})(?:[-\s]E?|E)(\d{1,3})\b`),
	parseSeasonEpisode(`(?i)\bS(\d{1,2})[.\s-]?E(\d{1,3})\b`),
	parseMultiSeasonRange(`(?i)\bS(\d{1,2})\s*(?:to|-)\s*S(\d{1,2})\b`),
	parseSeasonOnly(`(?i)\bS(\d{1,2})\b`),
	parseSeasonOnly(`(?i)\bseason[- ]?(\d{1,2})\b`),
	parseAbsoluteEpisode(`(?i)\bE(?:P(?:isode)?)?[. ]?(\d{2,4})\b`),
	parseLanguageTag(`(?i)\b(VOSTFR|MULTI|FRENCH|TRUEFRENCH|VFF|VFQ|VO|ENGLISH)\b`),
	parseReleaseGroup(`-([A-Za-z0-9]+)$`),
}

// Parse maps a file/folder name to a structured descriptor.
func Parse(name string) models.ParsedTitle {
	acc := models.ParsedTitle{}
	cut := len(name)

	for _, m := range matchers {
		if idx := m(name, &acc); idx >= 0 && idx < cut {
			cut = idx
		}
	}

	acc.Title = cleanTitle(name[:cut])
	acc.IsSeasonPack = len(acc.Seasons) > 0 && len(acc.Episodes) == 0
	return acc
}

func cleanTitle(s string) string {
	s = strings.NewReplacer(".", " ", "_", " ").Replace(s)
	s = strings.TrimSpace(s)
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.Trim(s, " -([")
}

func lastMatch(re *regexp.Regexp, title string) []int {
	all := re.FindAllStringSubmatchIndex(title, -1)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func parseYear(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		if acc.Year > 0 {
			return -1
		}
		loc := lastMatch(re, title)
		if loc == nil {
			return -1
		}
		for i := 2; i+1 < len(loc); i += 2 {
			if loc[i] >= 0 {
				y, _ := strconv.Atoi(title[loc[i]:loc[i+1]])
				acc.Year = y
				return loc[0]
			}
		}
		return -1
	}
}

func parseResolution(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		if acc.Resolution != "" {
			return -1
		}
		loc := lastMatch(re, title)
		if loc == nil || len(loc) < 4 {
			return -1
		}
		acc.Resolution = strings.ToLower(title[loc[2]:loc[3]]) + "p"
		return loc[0]
	}
}

func matchAndSetResolution(pattern, value string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		if acc.Resolution != "" {
			return -1
		}
		loc := re.FindStringIndex(title)
		if loc == nil {
			return -1
		}
		acc.Resolution = value
		return loc[0]
	}
}

func parseQuality(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		if acc.Quality != "" {
			return -1
		}
		loc := re.FindStringIndex(title)
		if loc == nil {
			return -1
		}
		acc.Quality = strings.ToLower(title[loc[0]:loc[1]])
		return loc[0]
	}
}

func matchAndSetQuality(pattern, value string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		if acc.Quality != "" {
			return -1
		}
		loc := re.FindStringIndex(title)
		if loc == nil {
			return -1
		}
		acc.Quality = value
		return loc[0]
	}
}

func parseCodec(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		if acc.Codec != "" {
			return -1
		}
		loc := re.FindStringIndex(title)
		if loc == nil {
			return -1
		}
		acc.Codec = strings.ToLower(strings.NewReplacer("-", "", ".", "", " ", "").Replace(title[loc[0]:loc[1]]))
		return loc[0]
	}
}

func parseAudioTag(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		loc := re.FindStringIndex(title)
		if loc == nil {
			return -1
		}
		tag := strings.ToLower(title[loc[0]:loc[1]])
		if !containsStr(acc.Audio, tag) {
			acc.Audio = append(acc.Audio, tag)
		}
		return loc[0]
	}
}

func parseVisualTag(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		loc := re.FindStringIndex(title)
		if loc == nil {
			return -1
		}
		tag := strings.ToUpper(title[loc[0]:loc[1]])
		if !containsStr(acc.VisualTags, tag) {
			acc.VisualTags = append(acc.VisualTags, tag)
		}
		return loc[0]
	}
}

func parseContainer(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		if acc.Container != "" {
			return -1
		}
		loc := re.FindStringIndex(title)
		if loc == nil {
			return -1
		}
		acc.Container = strings.ToLower(title[loc[0]:loc[1]])
		return loc[0]
	}
}

func parse3D(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		if acc.Is3D {
			return -1
		}
		loc := re.FindStringIndex(title)
		if loc == nil {
			return -1
		}
		acc.Is3D = true
		return loc[0]
	}
}

// parseSeasonEpisodeRange handles "S02E01E02"/"S02E01-E03" batch markers,
// recording every episode in the inclusive range.
func parseSeasonEpisodeRange(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		if len(acc.Episodes) > 0 {
			return -1
		}
		loc := lastMatch(re, title)
		if loc == nil || len(loc) < 8 || loc[6] < 0 {
			return -1
		}
		season, _ := strconv.Atoi(title[loc[2]:loc[3]])
		from, _ := strconv.Atoi(title[loc[4]:loc[5]])
		to, _ := strconv.Atoi(title[loc[6]:loc[7]])
		acc.Seasons = []int{season}
		for e := from; e <= to; e++ {
			acc.Episodes = append(acc.Episodes, e)
		}
		return loc[0]
	}
}

func parseSeasonEpisode(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		if len(acc.Episodes) > 0 || len(acc.Seasons) > 0 {
			return -1
		}
		loc := lastMatch(re, title)
		if loc == nil || len(loc) < 6 {
			return -1
		}
		season, _ := strconv.Atoi(title[loc[2]:loc[3]])
		episode, _ := strconv.Atoi(title[loc[4]:loc[5]])
		acc.Seasons = []int{season}
		acc.Episodes = []int{episode}
		return loc[0]
	}
}

func parseMultiSeasonRange(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		if len(acc.Seasons) > 0 {
			return -1
		}
		loc := lastMatch(re, title)
		if loc == nil || len(loc) < 6 {
			return -1
		}
		from, _ := strconv.Atoi(title[loc[2]:loc[3]])
		to, _ := strconv.Atoi(title[loc[4]:loc[5]])
		for s := from; s <= to; s++ {
			acc.Seasons = append(acc.Seasons, s)
		}
		return loc[0]
	}
}

func parseSeasonOnly(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		if len(acc.Seasons) > 0 {
			return -1
		}
		loc := lastMatch(re, title)
		if loc == nil || len(loc) < 4 {
			return -1
		}
		season, _ := strconv.Atoi(title[loc[2]:loc[3]])
		acc.Seasons = []int{season}
		return loc[0]
	}
}

// parseAbsoluteEpisode handles bare "E37"-style absolute-episode numbers
// when no season was ever found (anime releases that don't number seasons).
func parseAbsoluteEpisode(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		if len(acc.Episodes) > 0 || len(acc.Seasons) > 0 {
			return -1
		}
		loc := lastMatch(re, title)
		if loc == nil || len(loc) < 4 {
			return -1
		}
		episode, _ := strconv.Atoi(title[loc[2]:loc[3]])
		acc.Episodes = []int{episode}
		return loc[0]
	}
}

func parseLanguageTag(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		loc := re.FindStringIndex(title)
		if loc == nil {
			return -1
		}
		tag := strings.ToLower(title[loc[0]:loc[1]])
		if !containsStr(acc.Language, tag) {
			acc.Language = append(acc.Language, tag)
		}
		return loc[0]
	}
}

func parseReleaseGroup(pattern string) matcher {
	re := regexp.MustCompile(pattern)
	return func(title string, acc *models.ParsedTitle) int {
		if acc.ReleaseGroup != "" {
			return -1
		}
		loc := re.FindStringSubmatchIndex(title)
		if loc == nil || len(loc) < 4 {
			return -1
		}
		group := title[loc[2]:loc[3]]
		if len(group) < 2 || len(group) > 20 {
			return -1
		}
		acc.ReleaseGroup = group
		return -1 // release group is a suffix: never trims the title
	}
}

func containsStr(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
