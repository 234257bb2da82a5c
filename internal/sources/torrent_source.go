// Package sources adapts the teacher's pkg/torrentsearch aggregator to the
// orchestrator's CandidateSource contract, translating its per-provider
// TorrentInfo results into models.CandidateTorrent.
package sources

import (
	"context"

	"github.com/streamforge/resolver/internal/models"
	"github.com/streamforge/resolver/pkg/torrentsearch"
	tsmodels "github.com/streamforge/resolver/pkg/torrentsearch/models"
)

// TorrentSearchSource wraps a configured *torrentsearch.TorrentSearch.
type TorrentSearchSource struct {
	Search *torrentsearch.TorrentSearch
}

// Torrents fans the request out to every registered provider via SearchSmart
// and flattens the combined results into candidates.
func (s *TorrentSearchSource) Torrents(ctx context.Context, id models.ContentId, mediaType string, meta *models.TitleMetadata) ([]*models.CandidateTorrent, error) {
	if s.Search == nil {
		return nil, nil
	}

	season, episode := 0, 0
	specific := false
	if id.Season != nil && id.Episode != nil {
		season, episode = int(*id.Season), int(*id.Episode)
		specific = true
	}

	query := id.String()
	if meta != nil && meta.Primary != "" {
		query = meta.Primary
	}

	combined, _, err := s.Search.SearchSmart(query, mediaType, season, episode, specific)
	if err != nil || combined == nil {
		return nil, err
	}

	var out []*models.CandidateTorrent
	for provider, results := range combined.Results {
		if results == nil {
			continue
		}
		out = append(out, fromInfos(provider, results.MovieTorrents)...)
		out = append(out, fromInfos(provider, results.CompleteSeriesTorrents)...)
		out = append(out, fromInfos(provider, results.CompleteSeasonTorrents)...)
		out = append(out, fromInfos(provider, results.EpisodeTorrents)...)
	}
	return out, nil
}

// Nzbs is a no-op: pkg/torrentsearch only aggregates torrent providers.
func (s *TorrentSearchSource) Nzbs(ctx context.Context, id models.ContentId, mediaType string, meta *models.TitleMetadata) ([]*models.CandidateNZB, error) {
	return nil, nil
}

func fromInfos(provider string, infos []tsmodels.TorrentInfo) []*models.CandidateTorrent {
	out := make([]*models.CandidateTorrent, 0, len(infos))
	for _, info := range infos {
		if info.Hash == "" {
			continue
		}
		out = append(out, &models.CandidateTorrent{
			Hash:     info.Hash,
			Title:    info.Title,
			Size:     info.Size,
			Indexer:  provider,
			Seeders:  info.Seeders,
			Private:  isPrivateProvider(provider),
		})
	}
	return out
}

// isPrivateProvider reports whether a provider is a private-tracker source,
// so filterPrivateTrackers can exclude it when requested. Only the provider
// name "sharewood" counts as private; the aggregator's own providers (ygg,
// apibay, torrentscsv) are all treated as public.
func isPrivateProvider(provider string) bool {
	return provider == "sharewood"
}
