package requestcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamforge/resolver/internal/models"
)

func episodeFetcher(called *bool) EpisodeDetailsFetcher {
	return func(ctx context.Context, id models.ContentId) (EpisodeDetails, error) {
		*called = true
		return EpisodeDetails{}, nil
	}
}

func TestStartAllFetchesSkipsEpisodeDetailsWhenNeitherFlagSet(t *testing.T) {
	var called bool
	rc := New(context.Background(), "series", models.ContentId{}, &models.UserData{},
		nil, nil, episodeFetcher(&called), nil)

	rc.StartAllFetches()
	_, err := rc.episodeFuture.await(context.Background())

	assert.NoError(t, err)
	assert.False(t, called, "episode details should not be fetched when neither digital-release gate nor runtime-bitrate backfill is enabled")
}

func TestStartAllFetchesRunsEpisodeDetailsForRuntimeBitrateAlone(t *testing.T) {
	var called bool
	ud := &models.UserData{RuntimeBitrateEnabled: true}
	rc := New(context.Background(), "series", models.ContentId{}, ud,
		nil, nil, episodeFetcher(&called), nil)

	rc.StartAllFetches()
	_, err := rc.episodeFuture.await(context.Background())

	assert.NoError(t, err)
	assert.True(t, called)
}

func TestStartAllFetchesRunsEpisodeDetailsForDigitalReleaseGateAlone(t *testing.T) {
	var called bool
	ud := &models.UserData{DigitalReleaseGateEnabled: true}
	rc := New(context.Background(), "anime", models.ContentId{}, ud,
		nil, nil, episodeFetcher(&called), nil)

	rc.StartAllFetches()
	_, err := rc.episodeFuture.await(context.Background())

	assert.NoError(t, err)
	assert.True(t, called)
}
