// Package processor implements the §4.7 RequestProcessor: fan a candidate
// batch across every capability-matched debrid adapter, validate title/
// season/episode per result, select a file, and annotate the stream with
// its owning service. Grounded on the per-provider goroutine + mutex
// collection idiom from the teacher's pkg/torrentsearch/search.go,
// generalized from torrent-provider search results to debrid cache checks.
package processor

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/streamforge/resolver/internal/cache"
	"github.com/streamforge/resolver/internal/debrid"
	"github.com/streamforge/resolver/internal/fileselector"
	"github.com/streamforge/resolver/internal/models"
	"github.com/streamforge/resolver/internal/titleparser"
)

// Input bundles every parameter the processor needs for one request.
type Input struct {
	ID          models.ContentId
	MediaType   string
	Metadata    *models.TitleMetadata
	ClientIP    string
	UserData    *models.UserData
	PlaceholderResolver *cache.ResolverCache
}

// ServiceError pairs a failed adapter with its error, per §4.7 step 4.
type ServiceError struct {
	ServiceID string
	Err       error
}

func (e ServiceError) Error() string { return fmt.Sprintf("%s: %v", e.ServiceID, e.Err) }

// ProcessTorrents implements §4.7 for torrent candidates.
func ProcessTorrents(ctx context.Context, candidates []*models.CandidateTorrent, adapters []debrid.Adapter, in Input) models.StageResult {
	candidates = filterPrivateTrackers(candidates, in.UserData)
	torrentAdapters := filterCapable(adapters, func(c debrid.Capabilities) bool { return c.SupportsTorrents })
	resolvePlaceholders(candidates, torrentAdapters, in.PlaceholderResolver)

	req := requestFromInput(in)

	var wg conc.WaitGroup
	var mu sync.Mutex
	var out []*models.ParsedStream
	var errs []error

	for _, adapter := range torrentAdapters {
		adapter := adapter
		wg.Go(func() {
			hashes := make([]string, 0, len(candidates))
			byHash := map[string]*models.CandidateTorrent{}
			for _, c := range candidates {
				hashes = append(hashes, c.Hash)
				byHash[c.Hash] = c
			}

			results, err := adapter.CheckMagnets(ctx, hashes, in.ID.String(), in.UserData != nil && in.UserData.CheckOwned)
			if err != nil {
				mu.Lock()
				errs = append(errs, ServiceError{ServiceID: adapter.ID(), Err: err})
				mu.Unlock()
				return
			}

			var streams []*models.ParsedStream
			for hash, dl := range results {
				if dl.Status != models.DebridStatusCached && dl.Status != models.DebridStatusDownloaded && !dl.Library {
					continue
				}
				cand, ok := byHash[hash]
				if !ok {
					continue
				}
				if cand.Parsed == nil {
					p := titleparser.Parse(cand.Title)
					cand.Parsed = &p
				}
				candReq := req
				candReq.Confirmed = cand.Confirmed
				if !cand.Confirmed {
					if fileselector.IsTitleWrong(cand.Title, candReq) || fileselector.IsSeasonWrong(*cand.Parsed, candReq) || fileselector.IsEpisodeWrong(*cand.Parsed, candReq) {
						continue
					}
				}

				files := dl.Files
				if len(files) == 0 {
					if full, err := adapter.GetMagnet(ctx, dl.ID); err == nil {
						files = full.Files
					}
				}

				var stream *models.ParsedStream
				if len(files) == 0 {
					// Empty file list: emit a stub stream rather than
					// dropping the candidate, per the file-selection
					// boundary behaviour.
					stream = buildStream(adapter.ID(), dl, fileselector.Result{
						File: models.DebridFile{Name: cand.Title, Size: cand.Size, Index: -1},
					}, cand.Size, models.StreamKindDebrid)
				} else {
					sel := fileselector.Select(files, candReq)
					if !sel.Found {
						continue
					}
					stream = buildStream(adapter.ID(), dl, sel, cand.Size, models.StreamKindDebrid)
				}
				stream.InfoHash = hash
				stream.Indexer = cand.Indexer
				stream.Seeders = cand.Seeders
				stream.AgeHours = cand.AgeHours
				stream.Sources = cand.TrackerSources
				streams = append(streams, stream)
			}

			mu.Lock()
			out = append(out, streams...)
			mu.Unlock()
		})
	}
	wg.Wait()

	sortByServiceOrder(out, adapterOrder(torrentAdapters))
	return models.StageResult{Streams: out, Errors: errs}
}

// ProcessNzbs implements §4.7 for usenet candidates.
func ProcessNzbs(ctx context.Context, candidates []*models.CandidateNZB, adapters []debrid.Adapter, in Input) models.StageResult {
	usenetAdapters := filterCapable(adapters, func(c debrid.Capabilities) bool { return c.SupportsUsenet })
	req := requestFromInput(in)

	var wg conc.WaitGroup
	var mu sync.Mutex
	var out []*models.ParsedStream
	var errs []error

	for _, adapter := range usenetAdapters {
		adapter := adapter
		wg.Go(func() {
			items := make([]debrid.NzbCheckItem, 0, len(candidates))
			byHash := map[string]*models.CandidateNZB{}
			for _, c := range candidates {
				items = append(items, debrid.NzbCheckItem{Hash: c.Hash, Name: c.Title})
				byHash[c.Hash] = c
			}

			results, err := adapter.CheckNzbs(ctx, items, in.UserData != nil && in.UserData.CheckOwned)
			if err != nil {
				mu.Lock()
				errs = append(errs, ServiceError{ServiceID: adapter.ID(), Err: err})
				mu.Unlock()
				return
			}

			var streams []*models.ParsedStream
			for hash, dl := range results {
				if dl.Status != models.DebridStatusCached && dl.Status != models.DebridStatusDownloaded && !dl.Library {
					continue
				}
				cand, ok := byHash[hash]
				if !ok {
					continue
				}
				if cand.Parsed == nil {
					p := titleparser.Parse(cand.Title)
					cand.Parsed = &p
				}
				if fileselector.IsTitleWrong(cand.Title, req) || fileselector.IsSeasonWrong(*cand.Parsed, req) || fileselector.IsEpisodeWrong(*cand.Parsed, req) {
					continue
				}

				files := dl.Files
				if len(files) == 0 {
					if full, err := adapter.GetNzb(ctx, dl.ID); err == nil {
						files = full.Files
					}
				}

				var stream *models.ParsedStream
				if len(files) == 0 {
					stream = buildStream(adapter.ID(), dl, fileselector.Result{
						File: models.DebridFile{Name: cand.Title, Size: cand.Size, Index: -1},
					}, cand.Size, models.StreamKindUsenet)
				} else {
					sel := fileselector.Select(files, req)
					if !sel.Found {
						continue
					}
					stream = buildStream(adapter.ID(), dl, sel, cand.Size, models.StreamKindUsenet)
				}
				stream.Indexer = cand.Indexer
				stream.AgeHours = cand.AgeHours
				streams = append(streams, stream)
			}

			mu.Lock()
			out = append(out, streams...)
			mu.Unlock()
		})
	}
	wg.Wait()

	sortByServiceOrder(out, adapterOrder(usenetAdapters))
	return models.StageResult{Streams: out, Errors: errs}
}

func buildStream(serviceID string, dl models.DebridDownload, sel fileselector.Result, containerSize int64, kind models.StreamKind) *models.ParsedStream {
	return &models.ParsedStream{
		Type:       kind,
		Service:    &models.ServiceAnnotation{ID: serviceID, Cached: dl.Status == models.DebridStatusCached || dl.Status == models.DebridStatusDownloaded, Library: dl.Library},
		ParsedFile: &sel.Parsed,
		Filename:   sel.File.Name,
		Size:       sel.File.Size,
		FolderSize: containerSize,
		File:       models.SelectedFile{Name: sel.File.Name, Size: sel.File.Size, Index: sel.File.Index},
		FileIdx:    sel.File.Index,
	}
}

func filterPrivateTrackers(candidates []*models.CandidateTorrent, ud *models.UserData) []*models.CandidateTorrent {
	if ud == nil || !ud.ExcludePrivateTrackers {
		return candidates
	}
	out := make([]*models.CandidateTorrent, 0, len(candidates))
	for _, c := range candidates {
		if c.Private {
			continue
		}
		out = append(out, c)
	}
	return out
}

func filterCapable(adapters []debrid.Adapter, pred func(debrid.Capabilities) bool) []debrid.Adapter {
	out := make([]debrid.Adapter, 0, len(adapters))
	for _, a := range adapters {
		if pred(a.Capabilities()) {
			out = append(out, a)
		}
	}
	return out
}

// resolvePlaceholders swaps a placeholder hash (sha1 of the download URL)
// for the real info-hash once a service has already seen that URL and
// recorded the mapping in the resolver cache.
func resolvePlaceholders(candidates []*models.CandidateTorrent, adapters []debrid.Adapter, c *cache.ResolverCache) {
	if c == nil {
		return
	}
	for _, cand := range candidates {
		if !cand.PlaceholderHash {
			continue
		}
		for _, a := range adapters {
			key := placeholderKey(a.ID(), cand.DownloadURL)
			if v, ok := c.Get(key); ok {
				if real, ok := v.(string); ok && real != "" {
					cand.Hash = real
					cand.PlaceholderHash = false
					break
				}
			}
		}
	}
}

// RecordHashMapping lets the caller (after an AddTorrent resolves a real
// hash) populate the placeholder cache for future requests.
func RecordHashMapping(c *cache.ResolverCache, serviceID, downloadURL, realHash string) {
	c.Set(placeholderKey(serviceID, downloadURL), realHash, 24*time.Hour, 0)
}

func placeholderKey(serviceID, downloadURL string) string {
	sum := sha1.Sum([]byte(downloadURL))
	return fmt.Sprintf("placeholder:%s:%s", serviceID, hex.EncodeToString(sum[:]))
}

func adapterOrder(adapters []debrid.Adapter) map[string]int {
	order := make(map[string]int, len(adapters))
	for i, a := range adapters {
		order[a.ID()] = i
	}
	return order
}

// sortByServiceOrder preserves per-service input order while concatenating
// results in declared service order, per §4.7's ordering guarantee.
func sortByServiceOrder(streams []*models.ParsedStream, order map[string]int) {
	sort.SliceStable(streams, func(i, j int) bool {
		return order[streams[i].Service.ID] < order[streams[j].Service.ID]
	})
}

func requestFromInput(in Input) fileselector.Request {
	req := fileselector.Request{
		Season:  in.ID.Season2Int(),
		Episode: in.ID.Episode2Int(),
	}
	if in.Metadata != nil {
		req.Title = in.Metadata.Primary
		req.Aliases = in.Metadata.Aliases
		req.Year = in.Metadata.Year
		req.AbsoluteEpisode = in.Metadata.AbsoluteEpisode
		req.RelativeAbsoluteEpisode = in.Metadata.RelativeAbsoluteEpisode
		req.HasRelativeNumbering = in.Metadata.RelativeAbsoluteEpisode != in.Metadata.AbsoluteEpisode
	}
	if in.UserData != nil {
		req.SkipSeasonEpisodeCheck = in.UserData.SkipSeasonEpisodeCheck
		req.ChosenIndex = in.UserData.ChosenIndex
		req.ChosenFilename = in.UserData.ChosenFilename
	}
	return req
}
