// Package titlematch normalises titles and fuzzily compares them against a
// set of aliases, tolerant of transliteration, umlauts, punctuation, and
// multilingual aliases.
package titlematch

import (
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/streamforge/resolver/internal/models"
)

var umlautReplacer = strings.NewReplacer(
	"ä", "a", "ö", "o", "ü", "u", "ß", "ss",
	"Ä", "a", "Ö", "o", "Ü", "u",
	"&", "and",
)

var levenshtein = &metrics.Levenshtein{
	CaseSensitive: false,
	InsertCost:    1,
	DeleteCost:    1,
	ReplaceCost:   2,
}

// Normalise maps umlauts to ASCII, "&" to "and", drops Unicode combining
// marks (precomposed accented letters such as "é" are kept as they are),
// strips any character that isn't a letter, digit, space or apostrophe, then
// lowercases.
func Normalise(s string) string {
	s = umlautReplacer.Replace(s)
	s = stripDiacritics(s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == ' ', r == '\'':
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
	}
	return collapseSpaces(b.String())
}

func stripDiacritics(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func collapseSpaces(s string) string {
	fields := strings.Fields(s)
	return strings.TrimSpace(strings.Join(fields, " "))
}

// Similarity scores two already-normalised strings in [0,1] using a
// Levenshtein-based ratio (exact match == 1).
func Similarity(a, b string) float64 {
	return strutil.Similarity(a, b, levenshtein)
}

// TitleMatch returns true when any alias exceeds threshold under the
// similarity scorer.
func TitleMatch(s string, aliases []models.Alias, threshold float64) bool {
	matched, _ := TitleMatchWithLang(s, aliases, threshold)
	return matched
}

// TitleMatchWithLang additionally reports the language tag of the
// best-scoring alias that cleared the threshold.
func TitleMatchWithLang(s string, aliases []models.Alias, threshold float64) (bool, string) {
	ns := Normalise(s)
	best := 0.0
	bestLang := ""
	for _, alias := range aliases {
		score := Similarity(ns, Normalise(alias.Title))
		if score > best {
			best = score
			bestLang = alias.Language
		}
	}
	if best < threshold {
		return false, ""
	}
	return true, bestLang
}

// PreprocessTitle splits compound aliases like "A / B" or "X aka Y" and
// trailing "(...)" alternates into a flat candidate list, unless at least
// 20% of the request's aliases already contain the same separator (in
// which case the separator is assumed to be part of the canonical title
// and left alone). It appends " Saga" when the request aliases and the
// filename both mention "saga" but the parsed title does not.
func PreprocessTitle(parsed models.ParsedTitle, filename string, aliases []models.Alias) []string {
	candidates := []string{parsed.Title}

	for _, sep := range []string{" / ", " aka ", " AKA "} {
		if aliasSeparatorShare(aliases, sep) >= 0.20 {
			continue
		}
		if strings.Contains(parsed.Title, sep) {
			parts := strings.Split(parsed.Title, sep)
			candidates = append(candidates, parts...)
		}
	}

	if idx := strings.Index(parsed.Title, " ("); idx > 0 && strings.HasSuffix(parsed.Title, ")") {
		candidates = append(candidates, parsed.Title[:idx], parsed.Title[idx+2:len(parsed.Title)-1])
	}

	lowerTitle := strings.ToLower(parsed.Title)
	lowerFile := strings.ToLower(filename)
	if !strings.Contains(lowerTitle, "saga") && strings.Contains(lowerFile, "saga") && aliasesContainSaga(aliases) {
		candidates = append(candidates, parsed.Title+" Saga")
	}

	return dedupeStrings(candidates)
}

func aliasSeparatorShare(aliases []models.Alias, sep string) float64 {
	if len(aliases) == 0 {
		return 0
	}
	count := 0
	for _, a := range aliases {
		if strings.Contains(a.Title, sep) {
			count++
		}
	}
	return float64(count) / float64(len(aliases))
}

func aliasesContainSaga(aliases []models.Alias) bool {
	for _, a := range aliases {
		if strings.Contains(strings.ToLower(a.Title), "saga") {
			return true
		}
	}
	return false
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
