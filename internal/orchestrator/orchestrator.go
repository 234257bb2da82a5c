// Package orchestrator implements §4.12: the single entrypoint that parses
// a request id, builds a RequestContext, fans candidates across debrid
// adapters, and runs the full filter/sort/dedup/limit sequence. Grounded on
// the teacher's internal/handlers/stream.go sequencing (parse id -> gather
// candidates -> process -> respond), generalized from its sequential
// first-match loop into the spec's concurrent fan-out pipeline; diagnostic
// request IDs follow the k8v-streamx idiom of tagging a request with a
// uuid for cross-log correlation.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/streamforge/resolver/internal/debrid"
	"github.com/streamforge/resolver/internal/dedup"
	"github.com/streamforge/resolver/internal/filterpipeline"
	"github.com/streamforge/resolver/internal/models"
	"github.com/streamforge/resolver/internal/precompute"
	"github.com/streamforge/resolver/internal/processor"
	"github.com/streamforge/resolver/internal/requestcontext"
)

const (
	defaultAdapterDeadline     = 30 * time.Second
	cacheAndPlayAdapterDeadline = 120 * time.Second
)

// CandidateSource gathers torrent/NZB candidates ahead of the debrid fan-out
// (search providers, library scrape, etc). Implementations run
// concurrently with metadata resolution.
type CandidateSource interface {
	Torrents(ctx context.Context, id models.ContentId, mediaType string, meta *models.TitleMetadata) ([]*models.CandidateTorrent, error)
	Nzbs(ctx context.Context, id models.ContentId, mediaType string, meta *models.TitleMetadata) ([]*models.CandidateNZB, error)
}

// SeadexSource resolves the best-release tag set used by sel.seadex().
type SeadexSource interface {
	BestReleases(ctx context.Context, id models.ContentId) (bestHashes, allHashes map[string]struct{}, err error)
}

// Orchestrator wires every stage together for one request.
type Orchestrator struct {
	Adapters      []debrid.Adapter
	Sources       []CandidateSource
	Seadex        SeadexSource
	MetadataFetch requestcontext.MetadataFetcher
	ReleaseFetch  requestcontext.ReleaseDatesFetcher
	EpisodeFetch  requestcontext.EpisodeDetailsFetcher
	BestFetch     requestcontext.BestReleaseFetcher
}

// Result is the final emission: the stream list plus every error
// encountered, tagged with a request id for cross-log correlation.
type Result struct {
	RequestID string
	Streams   []*models.ParsedStream
	Errors    []error
}

// Resolve runs the full pipeline for one (type, id) request.
func (o *Orchestrator) Resolve(ctx context.Context, mediaType, rawID string, ud *models.UserData) Result {
	requestID := uuid.NewString()

	id, err := models.ParseContentId(rawID)
	if err != nil {
		return Result{RequestID: requestID, Errors: []error{err}}
	}

	rc := requestcontext.New(ctx, mediaType, id, ud, o.MetadataFetch, o.ReleaseFetch, o.EpisodeFetch, o.BestFetch)
	defer rc.Cancel()
	rc.StartAllFetches()

	meta, metaErr := rc.AwaitMetadata()
	var errs []error
	if metaErr != nil {
		errs = append(errs, metaErr)
	}

	torrents, nzbs := o.gatherCandidates(rc.Context(), id, mediaType, &meta)

	deadline := defaultAdapterDeadline
	if ud != nil && ud.CheckOwned {
		deadline = cacheAndPlayAdapterDeadline
	}
	adapterCtx, cancel := context.WithTimeout(rc.Context(), deadline)
	defer cancel()

	in := processor.Input{ID: id, MediaType: mediaType, Metadata: &meta, UserData: ud}

	var streams []*models.ParsedStream
	if len(torrents) > 0 {
		tr := processor.ProcessTorrents(adapterCtx, torrents, o.Adapters, in)
		streams = append(streams, tr.Streams...)
		errs = append(errs, tr.Errors...)
	}
	if len(nzbs) > 0 {
		nr := processor.ProcessNzbs(adapterCtx, nzbs, o.Adapters, in)
		streams = append(streams, nr.Streams...)
		errs = append(errs, nr.Errors...)
	}

	var seadexBest, seadexAll map[string]struct{}
	if o.Seadex != nil && mediaType == "anime" {
		seadexBest, seadexAll, _ = o.Seadex.BestReleases(rc.Context(), id)
		tagSeadex(streams, seadexBest, seadexAll)
	}

	releaseDates, _ := rc.AwaitReleaseDates()
	episodeDetails, _ := rc.AwaitEpisodeDetails()

	filterCtx := filterpipeline.Context{
		UserData:       ud,
		Metadata:       &meta,
		ReleaseDates:   &releaseDates,
		EpisodeDetails: &episodeDetails,
		MediaType:      mediaType,
		ID:             id,
		SeadexBest:     seadexBest,
		SeadexAll:      seadexAll,
	}
	filtered, _ := filterpipeline.Run(streams, filterCtx)
	errs = append(errs, filtered.Errors...)

	sorted := precompute.Apply(filtered.Streams, ud)
	final := dedup.Apply(sorted, ud)

	for i, s := range final {
		s.ID = requestID + ":" + itoa(i)
	}

	return Result{RequestID: requestID, Streams: final, Errors: errs}
}

func (o *Orchestrator) gatherCandidates(ctx context.Context, id models.ContentId, mediaType string, meta *models.TitleMetadata) ([]*models.CandidateTorrent, []*models.CandidateNZB) {
	var torrents []*models.CandidateTorrent
	var nzbs []*models.CandidateNZB

	grp, gctx := errgroup.WithContext(ctx)
	results := make([][]*models.CandidateTorrent, len(o.Sources))
	nzbResults := make([][]*models.CandidateNZB, len(o.Sources))

	for i, src := range o.Sources {
		i, src := i, src
		grp.Go(func() error {
			ts, err := src.Torrents(gctx, id, mediaType, meta)
			if err == nil {
				results[i] = ts
			}
			ns, err := src.Nzbs(gctx, id, mediaType, meta)
			if err == nil {
				nzbResults[i] = ns
			}
			return nil
		})
	}
	_ = grp.Wait()

	for _, r := range results {
		torrents = append(torrents, r...)
	}
	for _, r := range nzbResults {
		nzbs = append(nzbs, r...)
	}
	return torrents, nzbs
}

func tagSeadex(streams []*models.ParsedStream, best, all map[string]struct{}) {
	for _, s := range streams {
		if s.InfoHash == "" {
			continue
		}
		_, isBest := best[s.InfoHash]
		_, isAll := all[s.InfoHash]
		if isBest || isAll {
			s.Seadex = &models.SeadexInfo{IsBest: isBest, IsSeadex: isAll || isBest}
		}
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}
