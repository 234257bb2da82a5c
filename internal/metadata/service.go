package metadata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"github.com/streamforge/resolver/internal/animedb"
	resolvererrors "github.com/streamforge/resolver/internal/errors"
	"github.com/streamforge/resolver/internal/lock"
	"github.com/streamforge/resolver/internal/models"
)

// sourceRank orders sources by the primary-title preference rule:
// TMDB -> TVDB -> IMDB cinemeta -> IMDB suggestion -> anime.
var sourceRank = map[string]int{
	"tmdb":           0,
	"tvdb":           1,
	"imdb_cinemeta":  2,
	"imdb_suggest":   3,
	"anime":          4,
}

// Service fans out to every configured Provider in parallel, merges their
// results per §4.4, and single-flights identical concurrent requests.
type Service struct {
	providers []Provider
	anime     *animedb.DB
	locks     *lock.DistributedLock
	retries   uint
	authFlags string
}

// New builds a MetadataService over the given providers.
func New(providers []Provider, anime *animedb.DB, locks *lock.DistributedLock, retries uint, authFlags string) *Service {
	return &Service{providers: providers, anime: anime, locks: locks, retries: retries, authFlags: authFlags}
}

// GetMetadata implements the §4.4 operation.
func (s *Service) GetMetadata(ctx context.Context, id models.ContentId, mediaType string) (models.TitleMetadata, error) {
	key := fmt.Sprintf("metadata:%s:%s:%s:%s", mediaType, id.Kind, id.Value, s.authFlags)

	v, err := s.locks.WithLock(ctx, key, lock.Options{Timeout: 20 * time.Second, TTL: 15 * time.Second}, func(ctx context.Context) (interface{}, error) {
		return s.fetchAndMerge(ctx, id, mediaType)
	})
	if err != nil {
		return models.TitleMetadata{}, err
	}
	return v.(models.TitleMetadata), nil
}

func (s *Service) fetchAndMerge(ctx context.Context, id models.ContentId, mediaType string) (models.TitleMetadata, error) {
	results := make([]ProviderResult, len(s.providers))
	grp, gctx := errgroup.WithContext(ctx)

	for i, p := range s.providers {
		i, p := i, p
		grp.Go(func() error {
			res, err := s.fetchOne(gctx, p, id, mediaType)
			if err != nil {
				// transient upstream failures are retried at this layer;
				// a final failure from one provider must not abort others.
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = grp.Wait()

	merged := merge(results)

	if s.anime != nil {
		if mapping, ok := s.anime.Lookup(id.Kind, id.Value); ok {
			applyAnime(&merged, mapping, id)
		}
	}

	if merged.Primary == "" && mediaType == "movie" && merged.Year == 0 {
		return models.TitleMetadata{}, resolvererrors.NewStreamError("METADATA_NOT_FOUND", fmt.Sprintf("no metadata source returned a title for %s", id), nil)
	}

	return merged, nil
}

func (s *Service) fetchOne(ctx context.Context, p Provider, id models.ContentId, mediaType string) (ProviderResult, error) {
	var res ProviderResult
	err := retry.Do(
		func() error {
			r, err := p.Fetch(ctx, id, mediaType)
			if err != nil {
				return err
			}
			res = r
			return nil
		},
		retry.Attempts(s.retries+1),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	return res, err
}

func merge(results []ProviderResult) models.TitleMetadata {
	out := models.TitleMetadata{Genres: map[string]struct{}{}}

	bestRank := 1 << 30
	aliasSeen := map[string]struct{}{}

	for _, r := range results {
		if r.Source == "" {
			continue // provider produced nothing (skipped/failed)
		}
		if r.Title != "" {
			if rank, ok := sourceRank[r.Source]; ok && rank < bestRank {
				out.Primary = r.Title
				bestRank = rank
			}
		}
		for _, a := range r.Aliases {
			key := strings.ToLower(a.Title)
			if _, dup := aliasSeen[key]; dup {
				continue
			}
			aliasSeen[key] = struct{}{}
			out.Aliases = append(out.Aliases, a)
		}
		if out.Year == 0 && r.Source == "tmdb" && r.Year != 0 {
			out.Year = r.Year
		}
		if out.YearEnd == 0 && (r.Source == "tvdb" || strings.HasPrefix(r.Source, "imdb")) && r.YearEnd != 0 {
			out.YearEnd = r.YearEnd
		}
		if out.RuntimeMinutes == 0 && r.RuntimeMinutes != 0 {
			out.RuntimeMinutes = r.RuntimeMinutes
		}
		if len(out.Seasons) == 0 && r.Source == "tmdb" && len(r.Seasons) > 0 {
			out.Seasons = r.Seasons
		}
		if len(out.Seasons) == 0 && strings.HasPrefix(r.Source, "imdb") && len(r.Seasons) > 0 {
			out.Seasons = r.Seasons
		}
		if out.OriginalLanguage == "" && r.Source == "tmdb" {
			out.OriginalLanguage = r.OriginalLanguage
		}
		for _, g := range r.Genres {
			out.Genres[g] = struct{}{}
		}
	}

	// Year fallback: movie year may come from any source when TMDB is silent.
	if out.Year == 0 {
		for _, r := range results {
			if r.Year != 0 {
				out.Year = r.Year
				break
			}
		}
	}

	return out
}

// applyAnime computes AbsoluteEpisode/RelativeAbsoluteEpisode per §4.4:
// absoluteEpisode = sum of episodeCount of prior seasons (skipping season 0)
// + requested episode; relativeAbsoluteEpisode is the same relative to the
// mapping's starting season; non-IMDB episodes preceding the absolute
// episode add their count.
func applyAnime(meta *models.TitleMetadata, mapping models.AnimeMapping, id models.ContentId) {
	if id.Season == nil || id.Episode == nil {
		return
	}
	requestedSeason := int(*id.Season)
	requestedEpisode := int(*id.Episode)

	absolute := requestedEpisode
	for _, s := range meta.Seasons {
		if s.Number == 0 || s.Number >= requestedSeason {
			continue
		}
		absolute += s.EpisodeCount
	}

	relative := requestedEpisode
	if mapping.StartingSeason > 0 {
		relative = absolute
		for _, s := range meta.Seasons {
			if s.Number == 0 || s.Number >= mapping.StartingSeason {
				continue
			}
			relative -= s.EpisodeCount
		}
	}

	nonImdbBefore := 0
	for ep := range mapping.NonImdbEpisodes {
		if int(ep) <= absolute {
			nonImdbBefore++
		}
	}
	absolute += nonImdbBefore

	meta.AbsoluteEpisode = absolute
	meta.RelativeAbsoluteEpisode = relative
}
