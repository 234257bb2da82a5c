// Package debrid implements the §4.6 DebridServiceAdapter contract: one
// interface, a capability-flags struct, and concrete variants wrapping (a)
// a generic multi-store backend and (b) a SABnzbd-compatible streaming
// WebDAV backend.
package debrid

import (
	"context"
	"time"

	"github.com/streamforge/resolver/internal/models"
)

// MaxCheckBatch is the spec-mandated batching ceiling for checkMagnets/checkNzbs.
const MaxCheckBatch = 500

// Capabilities flags which candidate kinds an adapter can service.
type Capabilities struct {
	SupportsTorrents bool
	SupportsUsenet   bool
}

// NzbCheckItem identifies one usenet candidate for a checkNzbs call.
type NzbCheckItem struct {
	Hash string
	Name string
}

// ResolveRequest is the input to Resolve.
type ResolveRequest struct {
	Hash           string
	Filename       string
	CacheAndPlay   bool
	AutoRemove     bool
	MaxWaitTime    time.Duration
	PollingInterval time.Duration
	FileIndex      *int
}

// Adapter is the single interface every debrid-shaped backend implements.
// Variants carry only the fields relevant to their transport; the
// processor and orchestrator branch only on Capabilities, never on
// concrete type.
type Adapter interface {
	ID() string
	Capabilities() Capabilities

	ListMagnets(ctx context.Context) ([]models.DebridDownload, error)
	ListNzbs(ctx context.Context) ([]models.DebridDownload, error)

	CheckMagnets(ctx context.Context, hashes []string, stremioID string, checkOwned bool) (map[string]models.DebridDownload, error)
	CheckNzbs(ctx context.Context, items []NzbCheckItem, checkOwned bool) (map[string]models.DebridDownload, error)

	AddMagnet(ctx context.Context, magnetURI string) (models.DebridDownload, error)
	AddTorrent(ctx context.Context, downloadURL string) (models.DebridDownload, error)
	AddNzb(ctx context.Context, url, name string) (models.DebridDownload, error)

	Resolve(ctx context.Context, req ResolveRequest) (string, error)

	RemoveMagnet(ctx context.Context, id string) error
	RemoveNzb(ctx context.Context, id string) error

	RefreshLibraryCache(ctx context.Context, sources []string) error

	GetMagnet(ctx context.Context, id string) (models.DebridDownload, error)
	GetNzb(ctx context.Context, id string) (models.DebridDownload, error)
}

// BatchHashes splits hashes into chunks of at most MaxCheckBatch, per the
// §4.6/§5 backpressure rule.
func BatchHashes(hashes []string) [][]string {
	if len(hashes) == 0 {
		return nil
	}
	var batches [][]string
	for i := 0; i < len(hashes); i += MaxCheckBatch {
		end := i + MaxCheckBatch
		if end > len(hashes) {
			end = len(hashes)
		}
		batches = append(batches, hashes[i:end])
	}
	return batches
}

// BatchNzbItems splits items into chunks of at most MaxCheckBatch.
func BatchNzbItems(items []NzbCheckItem) [][]NzbCheckItem {
	if len(items) == 0 {
		return nil
	}
	var batches [][]NzbCheckItem
	for i := 0; i < len(items); i += MaxCheckBatch {
		end := i + MaxCheckBatch
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}
