package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamforge/resolver/internal/debrid"
	"github.com/streamforge/resolver/internal/models"
)

type fakeAdapter struct {
	id    string
	caps  debrid.Capabilities
	check map[string]models.DebridDownload
}

func (f *fakeAdapter) ID() string                         { return f.id }
func (f *fakeAdapter) Capabilities() debrid.Capabilities  { return f.caps }
func (f *fakeAdapter) ListMagnets(ctx context.Context) ([]models.DebridDownload, error) { return nil, nil }
func (f *fakeAdapter) ListNzbs(ctx context.Context) ([]models.DebridDownload, error)    { return nil, nil }
func (f *fakeAdapter) CheckMagnets(ctx context.Context, hashes []string, stremioID string, checkOwned bool) (map[string]models.DebridDownload, error) {
	return f.check, nil
}
func (f *fakeAdapter) CheckNzbs(ctx context.Context, items []debrid.NzbCheckItem, checkOwned bool) (map[string]models.DebridDownload, error) {
	return f.check, nil
}
func (f *fakeAdapter) AddMagnet(ctx context.Context, uri string) (models.DebridDownload, error) { return models.DebridDownload{}, nil }
func (f *fakeAdapter) AddTorrent(ctx context.Context, url string) (models.DebridDownload, error) { return models.DebridDownload{}, nil }
func (f *fakeAdapter) AddNzb(ctx context.Context, url, name string) (models.DebridDownload, error) { return models.DebridDownload{}, nil }
func (f *fakeAdapter) Resolve(ctx context.Context, req debrid.ResolveRequest) (string, error) { return "", nil }
func (f *fakeAdapter) RemoveMagnet(ctx context.Context, id string) error { return nil }
func (f *fakeAdapter) RemoveNzb(ctx context.Context, id string) error    { return nil }
func (f *fakeAdapter) RefreshLibraryCache(ctx context.Context, sources []string) error { return nil }
func (f *fakeAdapter) GetMagnet(ctx context.Context, id string) (models.DebridDownload, error) { return models.DebridDownload{}, nil }
func (f *fakeAdapter) GetNzb(ctx context.Context, id string) (models.DebridDownload, error)    { return models.DebridDownload{}, nil }

func TestProcessTorrentsBuildsStreamForCachedHash(t *testing.T) {
	adapter := &fakeAdapter{
		id:   "ad1",
		caps: debrid.Capabilities{SupportsTorrents: true},
		check: map[string]models.DebridDownload{
			"hash1": {
				ID:     "dl1",
				Status: models.DebridStatusCached,
				Files: []models.DebridFile{
					{Index: 0, Name: "Movie.2020.1080p.mkv", Size: 5_000_000_000},
				},
			},
		},
	}
	candidates := []*models.CandidateTorrent{
		{Hash: "hash1", Title: "Movie.2020.1080p.mkv", Size: 5_000_000_000, Confirmed: true},
	}

	result := ProcessTorrents(context.Background(), candidates, []debrid.Adapter{adapter}, Input{})
	require.Empty(t, result.Errors)
	require.Len(t, result.Streams, 1)
	assert.Equal(t, "ad1", result.Streams[0].Service.ID)
	assert.Equal(t, "hash1", result.Streams[0].InfoHash)
}

func TestProcessTorrentsEmitsStubStreamForEmptyFileList(t *testing.T) {
	adapter := &fakeAdapter{
		id:   "ad1",
		caps: debrid.Capabilities{SupportsTorrents: true},
		check: map[string]models.DebridDownload{
			"hash1": {ID: "dl1", Status: models.DebridStatusCached},
		},
	}
	candidates := []*models.CandidateTorrent{
		{Hash: "hash1", Title: "Movie.2020.mkv", Size: 123, Confirmed: true},
	}

	result := ProcessTorrents(context.Background(), candidates, []debrid.Adapter{adapter}, Input{})
	require.Len(t, result.Streams, 1)
	assert.Equal(t, -1, result.Streams[0].FileIdx)
}

func TestProcessTorrentsSkipsIncapableAdapters(t *testing.T) {
	usenetOnly := &fakeAdapter{id: "ad1", caps: debrid.Capabilities{SupportsUsenet: true}}
	candidates := []*models.CandidateTorrent{{Hash: "hash1", Title: "Movie.mkv", Confirmed: true}}

	result := ProcessTorrents(context.Background(), candidates, []debrid.Adapter{usenetOnly}, Input{})
	assert.Empty(t, result.Streams)
}

func TestFilterPrivateTrackersExcludesWhenRequested(t *testing.T) {
	candidates := []*models.CandidateTorrent{
		{Hash: "a", Private: true},
		{Hash: "b", Private: false},
	}
	out := filterPrivateTrackers(candidates, &models.UserData{ExcludePrivateTrackers: true})
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].Hash)
}
