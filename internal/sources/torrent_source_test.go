package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamforge/resolver/internal/models"
	tsmodels "github.com/streamforge/resolver/pkg/torrentsearch/models"
)

func TestFromInfosSkipsMissingHash(t *testing.T) {
	infos := []tsmodels.TorrentInfo{
		{Hash: "", Title: "no hash"},
		{Hash: "abc", Title: "Movie", Size: 100, Seeders: 5},
	}
	out := fromInfos("ygg", infos)
	assert.Len(t, out, 1)
	assert.Equal(t, "abc", out[0].Hash)
	assert.Equal(t, "ygg", out[0].Indexer)
}

func TestFromInfosFlagsSharewoodAsPrivate(t *testing.T) {
	infos := []tsmodels.TorrentInfo{{Hash: "abc", Title: "Movie"}}
	out := fromInfos("sharewood", infos)
	assert.True(t, out[0].Private)
}

func TestTorrentsReturnsNilWithoutSearch(t *testing.T) {
	s := &TorrentSearchSource{}
	out, err := s.Torrents(context.Background(), models.ContentId{}, "movie", nil)
	assert.NoError(t, err)
	assert.Nil(t, out)
}
