package debrid

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/streamforge/resolver/internal/cache"
	resolvererrors "github.com/streamforge/resolver/internal/errors"
	"github.com/streamforge/resolver/internal/lock"
	"github.com/streamforge/resolver/internal/models"
	"github.com/streamforge/resolver/pkg/alldebrid"
	"github.com/streamforge/resolver/pkg/logger"
)

// MultiStore wraps a generic multi-store debrid backend (AllDebrid-shaped):
// magnet/torrent listing, batched hash availability checks, add/resolve/
// remove, all keyed by a per-account API token. The teacher's hand-rolled
// AllDebrid client backs upload/unlock/files/delete; a resty client backs
// the listing and batch-check endpoints the teacher's client never needed.
type MultiStore struct {
	id         string
	apiKey     string
	classic    *alldebrid.Client
	rest       *resty.Client
	cache      *cache.ResolverCache
	locks      *lock.DistributedLock
	log        logger.Logger
	libraryTTL time.Duration
	staleAfter time.Duration
}

// NewMultiStore builds a MultiStore adapter for one account.
func NewMultiStore(id, apiKey string, c *cache.ResolverCache, locks *lock.DistributedLock, log logger.Logger, libraryTTL, staleAfter time.Duration) *MultiStore {
	return &MultiStore{
		id:         id,
		apiKey:     apiKey,
		classic:    alldebrid.NewClient(),
		rest:       resty.New().SetBaseURL("https://api.alldebrid.com/v4").SetTimeout(20 * time.Second),
		cache:      c,
		locks:      locks,
		log:        log,
		libraryTTL: libraryTTL,
		staleAfter: staleAfter,
	}
}

func (m *MultiStore) ID() string { return m.id }

func (m *MultiStore) Capabilities() Capabilities {
	return Capabilities{SupportsTorrents: true, SupportsUsenet: false}
}

type magnetStatusResponse struct {
	Data struct {
		Magnets []struct {
			ID       int64  `json:"id"`
			Hash     string `json:"hash"`
			Filename string `json:"filename"`
			Size     int64  `json:"size"`
			Status   string `json:"status"`
			StatusCode int  `json:"statusCode"`
		} `json:"magnets"`
	} `json:"data"`
}

// ListMagnets returns the library with stale-while-revalidate caching keyed
// by (type, serviceId, token); refresh happens under a separate lock so
// readers of the stale value are never blocked on the network call.
func (m *MultiStore) ListMagnets(ctx context.Context) ([]models.DebridDownload, error) {
	key := fmt.Sprintf("library:torrent:%s:%s", m.id, tokenFingerprint(m.apiKey))

	if cached, ok := m.cache.Get(key); ok {
		if _, stale, _ := m.cache.GetTTL(key); stale {
			go m.refreshLibrary(context.Background(), key)
		}
		return cached.([]models.DebridDownload), nil
	}

	return m.refreshLibrary(ctx, key)
}

func (m *MultiStore) refreshLibrary(ctx context.Context, key string) ([]models.DebridDownload, error) {
	v, err := m.locks.WithLock(ctx, "refresh:"+key, lock.Options{Timeout: 15 * time.Second, TTL: 30 * time.Second}, func(ctx context.Context) (interface{}, error) {
		var resp magnetStatusResponse
		r, err := m.rest.R().SetContext(ctx).
			SetQueryParam("agent", "resolver").
			SetQueryParam("apikey", m.apiKey).
			SetResult(&resp).
			Get("/magnet/status")
		if err != nil {
			return nil, resolvererrors.NewDebridError(resolvererrors.DebridServiceUnavailable, err.Error())
		}
		if r.IsError() {
			return nil, httpStatusToDebridError(r.StatusCode())
		}

		downloads := make([]models.DebridDownload, 0, len(resp.Data.Magnets))
		for _, mg := range resp.Data.Magnets {
			downloads = append(downloads, models.DebridDownload{
				ID:      fmt.Sprintf("%d", mg.ID),
				Hash:    mg.Hash,
				Name:    mg.Filename,
				Size:    mg.Size,
				Status:  classifyStatus(mg.Status),
				Library: true,
			})
		}
		m.cache.Set(key, downloads, m.libraryTTL, m.staleAfter)
		return downloads, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.DebridDownload), nil
}

func (m *MultiStore) ListNzbs(ctx context.Context) ([]models.DebridDownload, error) {
	return nil, resolvererrors.NewDebridError(resolvererrors.DebridNotImplemented, "multi-store adapter does not support usenet")
}

// CheckMagnets batches at ≤500 hashes, per §4.6/§5.
func (m *MultiStore) CheckMagnets(ctx context.Context, hashes []string, stremioID string, checkOwned bool) (map[string]models.DebridDownload, error) {
	out := map[string]models.DebridDownload{}

	var library []models.DebridDownload
	if checkOwned {
		var err error
		library, err = m.ListMagnets(ctx)
		if err != nil {
			library = nil // library lookup failure never blocks a fresh check
		}
	}
	libraryByHash := map[string]models.DebridDownload{}
	for _, d := range library {
		libraryByHash[d.Hash] = d
	}

	key := fmt.Sprintf("check:torrent:%s", m.id)
	for _, batch := range BatchHashes(hashes) {
		statuses, err := m.checkBatch(ctx, key, batch)
		if err != nil {
			return out, err
		}
		for hash, status := range statuses {
			dl := models.DebridDownload{Hash: hash, Status: status}
			if lib, ok := libraryByHash[hash]; ok {
				dl.Library = true
				dl.Status = models.DebridStatusCached
				dl.ID = lib.ID
				dl.Name = lib.Name
				dl.Size = lib.Size
			} else if status.IsTerminalNegative() {
				dl.Status = models.DebridStatusFailed
			}
			out[hash] = dl
		}
	}
	return out, nil
}

func (m *MultiStore) checkBatch(ctx context.Context, cacheKeyPrefix string, hashes []string) (map[string]models.DebridStatus, error) {
	result := map[string]models.DebridStatus{}
	remaining := make([]string, 0, len(hashes))
	for _, h := range hashes {
		if cached, ok := m.cache.Get(cacheKeyPrefix + ":" + h); ok {
			result[h] = cached.(models.DebridStatus)
			continue
		}
		remaining = append(remaining, h)
	}
	if len(remaining) == 0 {
		return result, nil
	}

	var resp magnetStatusResponse
	r, err := m.rest.R().SetContext(ctx).
		SetQueryParam("agent", "resolver").
		SetQueryParam("apikey", m.apiKey).
		SetQueryParamsFromValues(map[string][]string{"magnets[]": remaining}).
		SetResult(&resp).
		Get("/magnet/instant")
	if err != nil {
		return result, resolvererrors.NewDebridError(resolvererrors.DebridServiceUnavailable, err.Error())
	}
	if r.IsError() {
		return result, httpStatusToDebridError(r.StatusCode())
	}

	seen := map[string]struct{}{}
	for _, mg := range resp.Data.Magnets {
		status := classifyStatus(mg.Status)
		result[mg.Hash] = status
		seen[mg.Hash] = struct{}{}
		m.cache.Set(cacheKeyPrefix+":"+mg.Hash, status, 5*time.Minute, 0)
	}
	for _, h := range remaining {
		if _, ok := seen[h]; !ok {
			result[h] = models.DebridStatusUnknown
		}
	}
	return result, nil
}

func (m *MultiStore) CheckNzbs(ctx context.Context, items []NzbCheckItem, checkOwned bool) (map[string]models.DebridDownload, error) {
	return nil, resolvererrors.NewDebridError(resolvererrors.DebridNotImplemented, "multi-store adapter does not support usenet")
}

func (m *MultiStore) AddMagnet(ctx context.Context, magnetURI string) (models.DebridDownload, error) {
	resp, err := m.classic.UploadMagnet(m.apiKey, []string{magnetURI})
	if err != nil {
		return models.DebridDownload{}, resolvererrors.NewDebridError(resolvererrors.DebridServiceUnavailable, err.Error())
	}
	if len(resp.Data.Magnets) == 0 {
		return models.DebridDownload{}, resolvererrors.NewDebridError(resolvererrors.DebridBadRequest, "no magnet accepted")
	}
	mg := resp.Data.Magnets[0]
	if mg.Error != nil {
		return models.DebridDownload{}, resolvererrors.NewDebridError(resolvererrors.DebridBadRequest, mg.Error.Message)
	}
	status := models.DebridStatusDownloading
	if mg.Ready {
		status = models.DebridStatusCached
	}
	return models.DebridDownload{
		ID:     fmt.Sprintf("%d", mg.ID),
		Hash:   mg.Hash,
		Name:   mg.Name,
		Size:   mg.Size,
		Status: status,
	}, nil
}

// AddTorrent resolves a placeholder hash to a real info-hash once the
// backend reports one, per §3's placeholder-hash invariant. Until that
// happens, the caller's placeholder hash (sha1 of downloadUrl) is kept.
func (m *MultiStore) AddTorrent(ctx context.Context, downloadURL string) (models.DebridDownload, error) {
	return m.AddMagnet(ctx, downloadURL)
}

func (m *MultiStore) AddNzb(ctx context.Context, url, name string) (models.DebridDownload, error) {
	return models.DebridDownload{}, resolvererrors.NewDebridError(resolvererrors.DebridNotImplemented, "multi-store adapter does not support usenet")
}

// Resolve polls up to MaxWaitTime at PollingInterval when CacheAndPlay is
// set; returns empty + caches a short negative entry when not cached and
// CacheAndPlay is false; raises UNKNOWN on terminal negative status.
func (m *MultiStore) Resolve(ctx context.Context, req ResolveRequest) (string, error) {
	negKey := fmt.Sprintf("resolve-neg:%s:%s:%s", m.id, req.Hash, req.Filename)
	if _, ok := m.cache.Get(negKey); ok {
		return "", nil
	}

	deadline := time.Now().Add(req.MaxWaitTime)
	if req.MaxWaitTime <= 0 {
		deadline = time.Now().Add(30 * time.Second)
	}
	interval := req.PollingInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	for {
		dl, err := m.GetMagnet(ctx, req.Hash)
		if err != nil {
			return "", err
		}
		if dl.Status.IsTerminalNegative() {
			return "", resolvererrors.NewDebridError(resolvererrors.DebridUnknown, "download failed or invalid")
		}
		if dl.Status == models.DebridStatusCached || dl.Status == models.DebridStatusDownloaded {
			link := firstMatchingLink(dl.Files, req)
			if link == "" {
				return "", resolvererrors.NewDebridError(resolvererrors.DebridNoMatchingFile, "no file matched selector")
			}
			resp, err := m.classic.UnlockLink(m.apiKey, link)
			if err != nil {
				return "", resolvererrors.NewDebridError(resolvererrors.DebridServiceUnavailable, err.Error())
			}
			if resp.Error != nil {
				return "", resolvererrors.NewDebridError(resolvererrors.DebridBadRequest, resp.Error.Message)
			}
			if req.AutoRemove {
				_ = m.RemoveMagnet(ctx, dl.ID)
			}
			return resp.Data.Link, nil
		}

		if !req.CacheAndPlay {
			m.cache.Set(negKey, true, 30*time.Second, 0)
			return "", nil
		}
		if time.Now().After(deadline) {
			return "", resolvererrors.NewDebridError(resolvererrors.DebridUnknown, "resolve timed out waiting for cache")
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}
	}
}

func firstMatchingLink(files []models.DebridFile, req ResolveRequest) string {
	if req.FileIndex != nil {
		for _, f := range files {
			if f.Index == *req.FileIndex {
				return f.Link
			}
		}
	}
	for _, f := range files {
		if f.IsVideo() {
			return f.Link
		}
	}
	if len(files) > 0 {
		return files[0].Link
	}
	return ""
}

func (m *MultiStore) RemoveMagnet(ctx context.Context, id string) error {
	if err := m.classic.DeleteMagnet(m.apiKey, id); err != nil {
		return resolvererrors.NewDebridError(resolvererrors.DebridServiceUnavailable, err.Error())
	}
	return nil
}

func (m *MultiStore) RemoveNzb(ctx context.Context, id string) error {
	return resolvererrors.NewDebridError(resolvererrors.DebridNotImplemented, "multi-store adapter does not support usenet")
}

func (m *MultiStore) RefreshLibraryCache(ctx context.Context, sources []string) error {
	key := fmt.Sprintf("library:torrent:%s:%s", m.id, tokenFingerprint(m.apiKey))
	_, err := m.refreshLibrary(ctx, key)
	return err
}

func (m *MultiStore) GetMagnet(ctx context.Context, id string) (models.DebridDownload, error) {
	resp, err := m.classic.GetMagnetFiles(m.apiKey, id)
	if err != nil {
		return models.DebridDownload{}, resolvererrors.NewDebridError(resolvererrors.DebridServiceUnavailable, err.Error())
	}
	if len(resp.Data.Magnets) == 0 {
		return models.DebridDownload{}, resolvererrors.NewDebridError(resolvererrors.DebridNotFound, "magnet not found")
	}
	mg := resp.Data.Magnets[0]
	files := make([]models.DebridFile, 0, len(mg.Links))
	for i, l := range mg.Links {
		files = append(files, models.DebridFile{Index: i, Name: l.Filename, Size: l.Size, Link: l.Link})
	}
	status := models.DebridStatusDownloading
	if mg.Ready {
		status = models.DebridStatusCached
	}
	return models.DebridDownload{ID: fmt.Sprintf("%d", mg.ID), Hash: mg.Hash, Name: mg.Name, Size: mg.Size, Status: status, Files: files}, nil
}

func (m *MultiStore) GetNzb(ctx context.Context, id string) (models.DebridDownload, error) {
	return models.DebridDownload{}, resolvererrors.NewDebridError(resolvererrors.DebridNotImplemented, "multi-store adapter does not support usenet")
}

func classifyStatus(s string) models.DebridStatus {
	switch s {
	case "Ready":
		return models.DebridStatusCached
	case "Downloading":
		return models.DebridStatusDownloading
	case "Queued":
		return models.DebridStatusQueued
	case "Uploading":
		return models.DebridStatusUploading
	case "Error":
		return models.DebridStatusFailed
	default:
		return models.DebridStatusUnknown
	}
}

func httpStatusToDebridError(status int) error {
	switch status {
	case 401:
		return resolvererrors.NewDebridError(resolvererrors.DebridUnauthorized, "")
	case 403:
		return resolvererrors.NewDebridError(resolvererrors.DebridForbidden, "")
	case 404:
		return resolvererrors.NewDebridError(resolvererrors.DebridNotFound, "")
	case 429:
		return resolvererrors.NewDebridError(resolvererrors.DebridTooManyRequests, "")
	case 503:
		return resolvererrors.NewDebridError(resolvererrors.DebridServiceUnavailable, "")
	default:
		return resolvererrors.NewDebridError(resolvererrors.DebridInternalServerError, fmt.Sprintf("http %d", status))
	}
}

func tokenFingerprint(token string) string {
	sum := sha1.Sum([]byte(token))
	return hex.EncodeToString(sum[:])[:12]
}
