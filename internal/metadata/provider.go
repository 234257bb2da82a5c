// Package metadata unifies titles/years/runtime/seasons from up to five
// upstream providers (TMDB, TVDB, Trakt aliases, IMDB cinemeta + suggestion,
// and an in-memory anime database), implementing retry and per-id
// single-flight per §4.4.
package metadata

import (
	"context"

	"github.com/streamforge/resolver/internal/models"
)

// ProviderResult is the partial metadata contribution of a single source.
// Zero values mean "this source had no opinion" and must not overwrite an
// earlier, more authoritative source's value during merge.
type ProviderResult struct {
	Source           string
	Title            string
	Aliases          []models.Alias
	Year             int
	YearEnd          int
	OriginalLanguage string
	Seasons          []models.SeasonInfo
	RuntimeMinutes   int
	Genres           []string
}

// Provider is one upstream metadata source.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, id models.ContentId, mediaType string) (ProviderResult, error)
}
