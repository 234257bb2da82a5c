package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamforge/resolver/internal/debrid"
	"github.com/streamforge/resolver/internal/models"
	"github.com/streamforge/resolver/internal/requestcontext"
)

type fakeSource struct {
	torrents []*models.CandidateTorrent
}

func (f *fakeSource) Torrents(ctx context.Context, id models.ContentId, mediaType string, meta *models.TitleMetadata) ([]*models.CandidateTorrent, error) {
	return f.torrents, nil
}
func (f *fakeSource) Nzbs(ctx context.Context, id models.ContentId, mediaType string, meta *models.TitleMetadata) ([]*models.CandidateNZB, error) {
	return nil, nil
}

type fakeAdapter struct {
	check map[string]models.DebridDownload
}

func (f *fakeAdapter) ID() string                        { return "ad1" }
func (f *fakeAdapter) Capabilities() debrid.Capabilities { return debrid.Capabilities{SupportsTorrents: true} }
func (f *fakeAdapter) ListMagnets(ctx context.Context) ([]models.DebridDownload, error) { return nil, nil }
func (f *fakeAdapter) ListNzbs(ctx context.Context) ([]models.DebridDownload, error)    { return nil, nil }
func (f *fakeAdapter) CheckMagnets(ctx context.Context, hashes []string, stremioID string, checkOwned bool) (map[string]models.DebridDownload, error) {
	return f.check, nil
}
func (f *fakeAdapter) CheckNzbs(ctx context.Context, items []debrid.NzbCheckItem, checkOwned bool) (map[string]models.DebridDownload, error) {
	return nil, nil
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

func noopMetadata(ctx context.Context, id models.ContentId, mediaType string) (models.TitleMetadata, error) {
	return models.TitleMetadata{Primary: "Movie"}, nil
}

func TestResolveReturnsErrorForMalformedID(t *testing.T) {
	o := &Orchestrator{}
	res := o.Resolve(context.Background(), "movie", "not-an-id!!", nil)
	require.Len(t, res.Errors, 1)
	assert.Empty(t, res.Streams)
	assert.NotEmpty(t, res.RequestID)
}

func TestResolveProducesStreamFromSource(t *testing.T) {
	adapter := &fakeAdapter{
		check: map[string]models.DebridDownload{
			"hash1": {
				ID:     "dl1",
				Status: models.DebridStatusCached,
				Files:  []models.DebridFile{{Index: 0, Name: "Movie.2020.1080p.mkv", Size: 1_000_000}},
			},
		},
	}
	source := &fakeSource{torrents: []*models.CandidateTorrent{
		{Hash: "hash1", Title: "Movie.2020.1080p.mkv", Size: 1_000_000, Confirmed: true},
	}}

	o := &Orchestrator{
		Adapters:      []debrid.Adapter{adapter},
		Sources:       []CandidateSource{source},
		MetadataFetch: requestcontext.MetadataFetcher(noopMetadata),
	}

	res := o.Resolve(context.Background(), "movie", "tt0944947", nil)
	require.Len(t, res.Streams, 1)
	assert.Equal(t, res.RequestID+":0", res.Streams[0].ID)
}
