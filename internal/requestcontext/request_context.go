// Package requestcontext implements the per-request lazy, concurrent future
// layer from §4.5: startMetadataFetch/startReleaseDatesFetch/
// startEpisodeDetailsFetch/startBestReleaseFetch/startAllFetches, and
// idempotent-memoised await* getters. Cancellation propagates to every
// outstanding fetch; a partial context still answers getMetadata with
// whatever completed.
package requestcontext

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/streamforge/resolver/internal/models"
)

// ReleaseDate is a single TMDB release entry reduced to a unix timestamp.
type ReleaseDate struct{ Unix int64 }

// ReleaseDates is the TMDB release-date set used by the digital-release gate.
type ReleaseDates struct {
	Theatrical *ReleaseDate
	Digital    []*ReleaseDate
	Physical   []*ReleaseDate
	TV         []*ReleaseDate
}

// EpisodeDetails is the per-episode data needed by the digital-release gate
// and metadata-runtime bitrate backfill.
type EpisodeDetails struct {
	AirDate *int64
	Runtime int
}

// BestReleaseSet is the SeaDex-style "best release" tag set for anime.
type BestReleaseSet struct {
	BestHashes map[string]struct{}
	AllHashes  map[string]struct{}
	BestGroups map[string]struct{}
	AllGroups  map[string]struct{}
}

// MetadataFetcher resolves TitleMetadata for a request's id/mediaType.
type MetadataFetcher func(ctx context.Context, id models.ContentId, mediaType string) (models.TitleMetadata, error)

// ReleaseDatesFetcher resolves TMDB release windows for movies.
type ReleaseDatesFetcher func(ctx context.Context, id models.ContentId) (ReleaseDates, error)

// EpisodeDetailsFetcher resolves per-episode air date / runtime.
type EpisodeDetailsFetcher func(ctx context.Context, id models.ContentId) (EpisodeDetails, error)

// BestReleaseFetcher resolves the SeaDex-style best-release set for anime.
type BestReleaseFetcher func(ctx context.Context, id models.ContentId) (BestReleaseSet, error)

type future[T any] struct {
	once   sync.Once
	done   chan struct{}
	value  T
	err    error
	start  func()
}

func newFuture[T any]() *future[T] {
	return &future[T]{done: make(chan struct{})}
}

func (f *future[T]) run(ctx context.Context, fn func(context.Context) (T, error)) {
	f.once.Do(func() {
		go func() {
			defer close(f.done)
			f.value, f.err = fn(ctx)
		}()
	})
}

// resolveZero marks the future done with its zero value, for the case
// where no fetcher was ever wired; without this, await would block
// forever since nothing would close done.
func (f *future[T]) resolveZero() {
	f.once.Do(func() { close(f.done) })
}

func (f *future[T]) await(ctx context.Context) (T, error) {
	// A value that has already completed wins over a cancelled context.
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// RequestContext is constructed synchronously from (type, id, userData) and
// gathers metadata, release dates, episode details, and best-release tags
// lazily and concurrently.
type RequestContext struct {
	ctx       context.Context
	cancel    context.CancelFunc
	mediaType string
	id        models.ContentId
	userData  *models.UserData

	metadataFetch MetadataFetcher
	releaseFetch  ReleaseDatesFetcher
	episodeFetch  EpisodeDetailsFetcher
	bestFetch     BestReleaseFetcher

	metadataFuture *future[models.TitleMetadata]
	releaseFuture  *future[ReleaseDates]
	episodeFuture  *future[EpisodeDetails]
	bestFuture     *future[BestReleaseSet]

	wg conc.WaitGroup
}

// New constructs a RequestContext for one resolution request.
func New(parent context.Context, mediaType string, id models.ContentId, userData *models.UserData,
	metadataFetch MetadataFetcher, releaseFetch ReleaseDatesFetcher,
	episodeFetch EpisodeDetailsFetcher, bestFetch BestReleaseFetcher) *RequestContext {

	ctx, cancel := context.WithCancel(parent)
	return &RequestContext{
		ctx: ctx, cancel: cancel,
		mediaType: mediaType, id: id, userData: userData,
		metadataFetch: metadataFetch, releaseFetch: releaseFetch,
		episodeFetch: episodeFetch, bestFetch: bestFetch,
		metadataFuture: newFuture[models.TitleMetadata](),
		releaseFuture:  newFuture[ReleaseDates](),
		episodeFuture:  newFuture[EpisodeDetails](),
		bestFuture:     newFuture[BestReleaseSet](),
	}
}

// Cancel aborts every outstanding fetch at its next suspension point.
func (r *RequestContext) Cancel() { r.cancel() }

// StartMetadataFetch kicks off metadata resolution if not already started.
func (r *RequestContext) StartMetadataFetch() {
	if r.metadataFetch == nil {
		r.metadataFuture.resolveZero()
		return
	}
	r.metadataFuture.run(r.ctx, func(ctx context.Context) (models.TitleMetadata, error) {
		return r.metadataFetch(ctx, r.id, r.mediaType)
	})
}

// StartReleaseDatesFetch kicks off TMDB release-date resolution; callers
// gate this on "movie + digital-release filter enabled" per §4.5.
func (r *RequestContext) StartReleaseDatesFetch() {
	if r.releaseFetch == nil {
		r.releaseFuture.resolveZero()
		return
	}
	r.releaseFuture.run(r.ctx, func(ctx context.Context) (ReleaseDates, error) {
		return r.releaseFetch(ctx, r.id)
	})
}

// StartEpisodeDetailsFetch kicks off per-episode air date/runtime
// resolution; callers gate this on series/anime per §4.5.
func (r *RequestContext) StartEpisodeDetailsFetch() {
	if r.episodeFetch == nil {
		r.episodeFuture.resolveZero()
		return
	}
	r.episodeFuture.run(r.ctx, func(ctx context.Context) (EpisodeDetails, error) {
		return r.episodeFetch(ctx, r.id)
	})
}

// StartBestReleaseFetch kicks off the SeaDex-style best-release lookup;
// callers gate this on "anime with an AniList id" + feature flag.
func (r *RequestContext) StartBestReleaseFetch() {
	if r.bestFetch == nil {
		r.bestFuture.resolveZero()
		return
	}
	r.bestFuture.run(r.ctx, func(ctx context.Context) (BestReleaseSet, error) {
		return r.bestFetch(ctx, r.id)
	})
}

// StartAllFetches starts every applicable fetch based on userData's feature
// flags and the request's media type. When userData is set, fetches that do
// not apply are resolved with their zero value, so their await* getters
// return at once without fetching.
func (r *RequestContext) StartAllFetches() {
	r.StartMetadataFetch()

	if r.userData == nil {
		return
	}
	if r.mediaType == "movie" && r.userData.DigitalReleaseGateEnabled {
		r.StartReleaseDatesFetch()
	} else {
		r.releaseFuture.resolveZero()
	}
	if (r.mediaType == "series" || r.mediaType == "anime") &&
		(r.userData.DigitalReleaseGateEnabled || r.userData.RuntimeBitrateEnabled) {
		r.StartEpisodeDetailsFetch()
	} else {
		r.episodeFuture.resolveZero()
	}
	if r.mediaType == "anime" && r.id.Kind == models.IDKindAnilist && r.userData.BestReleaseEnabled {
		r.StartBestReleaseFetch()
	} else {
		r.bestFuture.resolveZero()
	}
}

// AwaitMetadata blocks until metadata resolves or the context is cancelled.
// A partial/cancelled context still returns whatever completed, with error set.
func (r *RequestContext) AwaitMetadata() (models.TitleMetadata, error) {
	r.StartMetadataFetch()
	return r.metadataFuture.await(r.ctx)
}

// AwaitReleaseDates blocks until release dates resolve.
func (r *RequestContext) AwaitReleaseDates() (ReleaseDates, error) {
	r.StartReleaseDatesFetch()
	return r.releaseFuture.await(r.ctx)
}

// AwaitEpisodeDetails blocks until episode details resolve.
func (r *RequestContext) AwaitEpisodeDetails() (EpisodeDetails, error) {
	r.StartEpisodeDetailsFetch()
	return r.episodeFuture.await(r.ctx)
}

// AwaitBestRelease blocks until the best-release set resolves.
func (r *RequestContext) AwaitBestRelease() (BestReleaseSet, error) {
	r.StartBestReleaseFetch()
	return r.bestFuture.await(r.ctx)
}

// Context exposes the cancellable context backing this request, for
// adapters/processors spawned on its behalf.
func (r *RequestContext) Context() context.Context { return r.ctx }
