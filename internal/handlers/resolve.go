// Package handlers implements HTTP request handlers for the Stremio addon.
package handlers

import (
	"fmt"

	"github.com/streamforge/resolver/internal/config"
	"github.com/streamforge/resolver/internal/debrid"
	"github.com/streamforge/resolver/internal/models"
	"github.com/streamforge/resolver/internal/orchestrator"
	"github.com/streamforge/resolver/internal/requestcontext"
	"github.com/streamforge/resolver/internal/sources"
)

// buildOrchestrator assembles a per-request Orchestrator around the
// account's debrid credential, reusing the shared cache/lock/metadata/
// search services from the container. Adapters carry the caller's own
// API key, so they cannot be built once at startup.
func (h *Handler) buildOrchestrator(apiKey string) *orchestrator.Orchestrator {
	rc := h.resolverConfig()

	var adapters []debrid.Adapter
	if apiKey != "" && h.services.ResolverCache != nil && h.services.Locks != nil {
		store := debrid.NewMultiStore("alldebrid", apiKey, h.services.ResolverCache, h.services.Locks,
			h.services.Logger, rc.LibraryCacheTTL, rc.LibraryStaleThreshold)
		adapters = append(adapters, store)
	}

	var srcs []orchestrator.CandidateSource
	if h.services.TorrentSearch != nil {
		srcs = append(srcs, &sources.TorrentSearchSource{Search: h.services.TorrentSearch})
	}

	var metaFetch requestcontext.MetadataFetcher
	if h.services.Metadata != nil {
		metaFetch = h.services.Metadata.GetMetadata
	}

	return &orchestrator.Orchestrator{
		Adapters:      adapters,
		Sources:       srcs,
		MetadataFetch: metaFetch,
	}
}

func (h *Handler) resolverConfig() config.ResolverConfig {
	if h.config == nil {
		return config.ResolverConfig{}
	}
	return h.config.Resolver
}

// streamsFromResult converts the pipeline's internal stream shape into the
// public Stremio response shape.
func streamsFromResult(res orchestrator.Result) []models.Stream {
	out := make([]models.Stream, 0, len(res.Streams))
	for _, s := range res.Streams {
		name := s.Indexer
		if s.Service != nil && s.Service.ID != "" {
			name = s.Service.ID
		}
		title := s.Filename
		if title == "" {
			title = s.FolderName
		}
		if s.Size > 0 {
			title = fmt.Sprintf("%s\n💾 %.2f GB", title, float64(s.Size)/bytesToGB)
		}
		out = append(out, models.Stream{Name: name, Title: title, URL: s.URL})
	}
	return out
}

const bytesToGB = 1024 * 1024 * 1024
