// Package fileselector implements the §4.8 weighted scoring table: pick the
// one file inside a multi-file download that best matches the request.
package fileselector

import (
	"regexp"
	"strings"

	"github.com/streamforge/resolver/internal/models"
	"github.com/streamforge/resolver/internal/titlematch"
	"github.com/streamforge/resolver/internal/titleparser"
)

var opEdPattern = regexp.MustCompile(`(?i)NCOP|NCED|\bOP\d*\b|\bED\d*\b|Opening\d*|Ending\d*`)
var sampleTrailerPattern = regexp.MustCompile(`(?i)\bsample\b|\btrailer\b|\bpreview\b`)

const maxSizeScore = 50.0

// Request carries the request-side context the scorer needs.
type Request struct {
	Season                 *int
	Episode                *int
	AbsoluteEpisode        int
	RelativeAbsoluteEpisode int
	HasRelativeNumbering   bool
	Title                  string
	Aliases                []models.Alias
	Year                   int
	SeasonYear             int // anime season-year, 0 when not anime
	Confirmed              bool
	SkipSeasonEpisodeCheck bool
	ChosenIndex            *int
	ChosenFilename         string
}

// Result is the outcome of Select.
type Result struct {
	File   models.DebridFile
	Parsed models.ParsedTitle
	Score  int
	Found  bool
	Reason string
}

// Select scores every file in files and returns the best match, per §4.8.
func Select(files []models.DebridFile, req Request) Result {
	var best Result
	bestScore := -1 << 30
	maxSize := int64(0)
	for _, f := range files {
		if f.Size > maxSize {
			maxSize = f.Size
		}
	}

	for _, f := range files {
		if !f.IsVideo() {
			continue
		}
		parsed := titleparser.Parse(f.Name)
		score, reason := score(f, parsed, req, maxSize)
		if score > bestScore {
			bestScore = score
			best = Result{File: f, Parsed: parsed, Score: score, Found: true, Reason: reason}
		}
	}

	if !best.Found {
		return Result{Reason: "no video file in download"}
	}

	if !req.SkipSeasonEpisodeCheck {
		if isSeasonWrong(best.Parsed, req) || isEpisodeWrong(best.Parsed, req) {
			if !req.Confirmed {
				return Result{Reason: "selected file failed final season/episode re-assertion"}
			}
		}
	}

	return best
}

func score(f models.DebridFile, parsed models.ParsedTitle, req Request, maxSize int64) (int, string) {
	total := 1000 // video file base

	if sampleTrailerPattern.MatchString(f.Name) {
		total -= 500
	}
	if opEdPattern.MatchString(f.Name) {
		total -= 500
	}

	if req.Year != 0 && parsed.Year == req.Year {
		total += 500
	}
	if req.SeasonYear != 0 && parsed.Year == req.SeasonYear {
		total += 750
	}

	total += seasonScore(parsed, req)
	total += episodeScore(parsed, req)

	if req.Title != "" {
		candidates := titlematch.PreprocessTitle(parsed, f.Name, req.Aliases)
		for _, c := range candidates {
			if titlematch.TitleMatch(c, req.Aliases, 0.82) {
				total += 100
				break
			}
		}
	}

	if maxSize > 0 {
		sizeScore := float64(f.Size) / float64(maxSize) * maxSizeScore
		if sizeScore > maxSizeScore {
			sizeScore = maxSizeScore
		}
		total += int(sizeScore)
	}

	if req.ChosenIndex != nil && *req.ChosenIndex == f.Index {
		total += 25
	}
	if req.ChosenFilename != "" && strings.Contains(strings.ToLower(f.Name), strings.ToLower(req.ChosenFilename)) {
		total += 25
	}

	return total, ""
}

func seasonScore(parsed models.ParsedTitle, req Request) int {
	if req.Season == nil {
		return 0
	}
	if !parsed.HasSeasonInfo() {
		return -500
	}
	for _, s := range parsed.Seasons {
		if s == *req.Season {
			return 500
		}
	}
	return -2000
}

func isSeasonWrong(parsed models.ParsedTitle, req Request) bool {
	if req.Season == nil || !parsed.HasSeasonInfo() {
		return false
	}
	for _, s := range parsed.Seasons {
		if s == *req.Season {
			return false
		}
	}
	return true
}

// episodeScore scores the episode match. Files with season info are scored
// on the regular season/episode axis only (750 exact, 250 batch); absolute
// and relative-absolute numbering are not tried for them. Files without
// season info are scored on absolute numbering (2000 exact, 500 batch)
// and, when HasRelativeNumbering is set, relative-absolute numbering (1000
// exact, 300 batch), exact before batch and relative before absolute; a
// regular episode-number match is not scored for them. Any other case
// scores -500, except that no requested episode on a file with season info,
// or on a file without episode numbers, scores 0.
func episodeScore(parsed models.ParsedTitle, req Request) int {
	hasSeason := parsed.HasSeasonInfo()

	if hasSeason {
		if req.Episode == nil {
			return 0
		}
		exact, batch := matchKind(parsed.Episodes, *req.Episode)
		switch {
		case exact:
			return 750
		case batch:
			return 250
		default:
			return -500
		}
	}

	if len(parsed.Episodes) == 0 {
		if req.Episode != nil {
			return -500
		}
		return 0
	}

	absExact, absBatch := matchKind(parsed.Episodes, req.AbsoluteEpisode)
	if req.HasRelativeNumbering {
		relExact, relBatch := matchKind(parsed.Episodes, req.RelativeAbsoluteEpisode)
		switch {
		case relExact:
			return 1000
		case absExact:
			return 2000
		case relBatch:
			return 300
		case absBatch:
			return 500
		}
	} else {
		switch {
		case absExact:
			return 2000
		case absBatch:
			return 500
		}
	}
	return -500
}

func matchKind(episodes []int, requested int) (exact, batch bool) {
	if len(episodes) == 0 {
		return false, false
	}
	if len(episodes) == 1 {
		return episodes[0] == requested, false
	}
	for _, e := range episodes {
		if e == requested {
			return false, true
		}
	}
	return false, false
}

// isEpisodeWrong reports whether the final selected file, re-checked
// against the request, fails the episode assertion.
func isEpisodeWrong(parsed models.ParsedTitle, req Request) bool {
	if req.Episode == nil {
		return false
	}
	if parsed.HasSeasonInfo() {
		exact, batch := matchKind(parsed.Episodes, *req.Episode)
		return !exact && !batch
	}
	if len(parsed.Episodes) == 0 {
		return true
	}
	absExact, absBatch := matchKind(parsed.Episodes, req.AbsoluteEpisode)
	if absExact || absBatch {
		return false
	}
	if req.HasRelativeNumbering {
		relExact, relBatch := matchKind(parsed.Episodes, req.RelativeAbsoluteEpisode)
		return !relExact && !relBatch
	}
	return true
}

// IsTitleWrong applies a coarse title mismatch check, used by the processor
// before any per-file scoring happens.
func IsTitleWrong(candidateTitle string, req Request) bool {
	if req.Title == "" || candidateTitle == "" {
		return false
	}
	return !titlematch.TitleMatch(candidateTitle, req.Aliases, 0.72)
}

// IsSeasonWrong exposes the season mismatch check for the coarse
// candidate-level validation pass in §4.7 step 5.
func IsSeasonWrong(parsed models.ParsedTitle, req Request) bool { return isSeasonWrong(parsed, req) }

// IsEpisodeWrong exposes the episode mismatch check for §4.7 step 5.
func IsEpisodeWrong(parsed models.ParsedTitle, req Request) bool { return isEpisodeWrong(parsed, req) }
