package metadata

import (
	"context"
	"fmt"

	"github.com/streamforge/resolver/internal/models"
)

// TMDBLookup is the subset of the legacy TMDB service the metadata provider
// needs: id-based title/year/language resolution, already keyed by the
// Stremio IMDB/TMDB id schemes.
type TMDBLookup interface {
	GetIMDBInfo(imdbID string) (mediaType, title, originalTitle string, year int, originalLanguage string, err error)
	GetTMDBInfoWithType(tmdbID, mediaType string) (resolvedType, title, originalTitle string, year int, originalLanguage string, err error)
}

// TMDBProvider adapts the teacher's TMDB client to the Provider contract,
// grounded on the id-dispatch the legacy stream handler used to perform
// inline before every request.
type TMDBProvider struct {
	lookup TMDBLookup
}

// NewTMDBProvider builds a Provider backed by an existing TMDB lookup.
func NewTMDBProvider(lookup TMDBLookup) *TMDBProvider {
	return &TMDBProvider{lookup: lookup}
}

func (p *TMDBProvider) Name() string { return "tmdb" }

func (p *TMDBProvider) Fetch(ctx context.Context, id models.ContentId, mediaType string) (ProviderResult, error) {
	var title string
	var year int
	var lang string
	var err error

	switch id.Kind {
	case models.IDKindIMDB:
		_, title, _, year, lang, err = p.lookup.GetIMDBInfo(id.Value)
	case models.IDKindTMDB:
		tmdbMediaType := mediaType
		if mediaType == "series" {
			tmdbMediaType = "tv"
		}
		_, title, _, year, lang, err = p.lookup.GetTMDBInfoWithType(id.Value, tmdbMediaType)
	default:
		return ProviderResult{}, fmt.Errorf("tmdb provider: unsupported id kind %s", id.Kind)
	}
	if err != nil {
		return ProviderResult{}, err
	}

	return ProviderResult{Source: "tmdb", Title: title, Year: year, OriginalLanguage: lang}, nil
}
