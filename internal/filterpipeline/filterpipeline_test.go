package filterpipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamforge/resolver/internal/models"
)

func mkStream(filename, resolution string, size int64, seeders int) *models.ParsedStream {
	return &models.ParsedStream{
		Filename:   filename,
		ParsedFile: &models.ParsedTitle{Resolution: resolution},
		Size:       size,
		Seeders:    seeders,
		Type:       models.StreamKindP2P,
	}
}

func TestEnumFiltersExcludesByResolution(t *testing.T) {
	streams := []*models.ParsedStream{
		mkStream("a.mkv", "720p", 1, 10),
		mkStream("b.mkv", "1080p", 1, 10),
	}
	ud := &models.UserData{Resolution: models.EnumFilter{Excluded: []string{"720p"}}}
	out := enumFilters(streams, Context{UserData: ud}, Counters{})
	assert.Len(t, out, 1)
	assert.Equal(t, "1080p", out[0].ParsedFile.Resolution)
}

func TestEnumFiltersRequiredUnknownBucket(t *testing.T) {
	streams := []*models.ParsedStream{
		{Filename: "noparsed.mkv"},
		mkStream("b.mkv", "1080p", 1, 10),
	}
	ud := &models.UserData{Resolution: models.EnumFilter{Required: []string{"Unknown"}}}
	out := enumFilters(streams, Context{UserData: ud}, Counters{})
	assert.Len(t, out, 1)
	assert.Equal(t, "noparsed.mkv", out[0].Filename)
}

func TestRegexFiltersExcludesMatchingFilename(t *testing.T) {
	streams := []*models.ParsedStream{
		mkStream("CAM.Release.mkv", "1080p", 1, 10),
		mkStream("Good.Release.mkv", "1080p", 1, 10),
	}
	ud := &models.UserData{RegexExcluded: []string{`(?i)cam`}}
	out := regexFilters(streams, Context{UserData: ud}, Counters{})
	assert.Len(t, out, 1)
	assert.Equal(t, "Good.Release.mkv", out[0].Filename)
}

func TestSeedersAgeRangeAppliesOnlyToP2P(t *testing.T) {
	p2p := mkStream("a.mkv", "1080p", 1, 2)
	debrid := mkStream("b.mkv", "1080p", 1, 2)
	debrid.Type = models.StreamKindDebrid

	ud := &models.UserData{Seeders: models.RangeFilter{Min: 5}}
	out := seedersAgeRange([]*models.ParsedStream{p2p, debrid}, Context{UserData: ud}, Counters{})
	assert.Len(t, out, 1)
	assert.Equal(t, models.StreamKindDebrid, out[0].Type)
}

func TestSizeBitrateRangeFiltersOutOfBounds(t *testing.T) {
	small := mkStream("a.mkv", "1080p", 100, 10)
	big := mkStream("b.mkv", "1080p", 10_000, 10)
	ud := &models.UserData{Size: models.RangeFilter{Min: 1000}}
	out := sizeBitrateRange([]*models.ParsedStream{small, big}, Context{UserData: ud}, Counters{})
	assert.Len(t, out, 1)
	assert.Equal(t, "b.mkv", out[0].Filename)
}

func TestPassthroughExemptsStageRemoval(t *testing.T) {
	exempt := mkStream("CAM.mkv", "1080p", 1, 10)
	exempt.Passthrough = map[string]struct{}{"regex": {}}
	ud := &models.UserData{RegexExcluded: []string{`(?i)cam`}}
	out := regexFilters([]*models.ParsedStream{exempt}, Context{UserData: ud}, Counters{})
	assert.Len(t, out, 1)
}

func TestRunProducesStageResult(t *testing.T) {
	streams := []*models.ParsedStream{mkStream("a.mkv", "1080p", 1, 10)}
	result, counters := Run(streams, Context{})
	assert.Len(t, result.Streams, 1)
	assert.NotNil(t, counters)
}

func TestEnumFiltersCoversAudioAndVisualTags(t *testing.T) {
	hdr := mkStream("hdr.mkv", "1080p", 1, 10)
	hdr.ParsedFile.VisualTags = []string{"HDR"}
	sdr := mkStream("sdr.mkv", "1080p", 1, 10)
	sdr.ParsedFile.VisualTags = []string{"SDR"}

	ud := &models.UserData{VisualTags: models.EnumFilter{Excluded: []string{"SDR"}}}
	out := enumFilters([]*models.ParsedStream{hdr, sdr}, Context{UserData: ud}, Counters{})
	assert.Len(t, out, 1)
	assert.Equal(t, "hdr.mkv", out[0].Filename)
}

func TestEnumFiltersAudioChannelsExtractsTokenFromTag(t *testing.T) {
	surround := mkStream("surround.mkv", "1080p", 1, 10)
	surround.ParsedFile.Audio = []string{"dd5.1"}
	stereo := mkStream("stereo.mkv", "1080p", 1, 10)
	stereo.ParsedFile.Audio = []string{"aac2.0"}

	ud := &models.UserData{AudioChannels: models.EnumFilter{Required: []string{"5.1"}}}
	out := enumFilters([]*models.ParsedStream{surround, stereo}, Context{UserData: ud}, Counters{})
	assert.Len(t, out, 1)
	assert.Equal(t, "surround.mkv", out[0].Filename)
}

func TestIncludedAcceleratorSkipsLaterExcludeOnlyForMatches(t *testing.T) {
	match := mkStream("a.720p.mkv", "720p", 1, 10)
	nonMatch := mkStream("b.480p.mkv", "480p", 1, 10)

	ud := &models.UserData{
		Resolution: models.EnumFilter{Included: []string{"720p"}, Excluded: []string{"720p", "480p"}},
	}
	streams := includedAccelerator([]*models.ParsedStream{match, nonMatch}, Context{UserData: ud}, Counters{})
	out := enumFilters(streams, Context{UserData: ud}, Counters{})

	assert.Len(t, out, 1)
	assert.Equal(t, "a.720p.mkv", out[0].Filename)
}

func TestIncludedAcceleratorKeywordMatch(t *testing.T) {
	s := mkStream("remux.mkv", "1080p", 1, 10)
	ud := &models.UserData{Keywords: models.EnumFilter{Included: []string{"remux"}}}
	includedAccelerator([]*models.ParsedStream{s}, Context{UserData: ud}, Counters{})
	assert.True(t, s.HasPassthrough("regex"))
	assert.True(t, s.HasPassthrough("seedersAge"))
}
