package fileselector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamforge/resolver/internal/models"
)

func intPtr(v int) *int { return &v }

func TestSelectPicksLargestVideoBySeasonEpisode(t *testing.T) {
	files := []models.DebridFile{
		{Index: 0, Name: "Show.S01E01.1080p.mkv", Size: 1_000_000_000},
		{Index: 1, Name: "Show.S01E02.1080p.mkv", Size: 1_200_000_000},
		{Index: 2, Name: "Show.S01E02.sample.mkv", Size: 10_000_000},
		{Index: 3, Name: "Show.nfo", Size: 100},
	}
	req := Request{Season: intPtr(1), Episode: intPtr(2)}

	res := Select(files, req)
	assert.True(t, res.Found)
	assert.Equal(t, 1, res.File.Index)
}

func TestSelectSkipsNonVideoFiles(t *testing.T) {
	files := []models.DebridFile{
		{Index: 0, Name: "readme.txt", Size: 100},
		{Index: 1, Name: "subs.srt", Size: 100},
	}
	res := Select(files, Request{})
	assert.False(t, res.Found)
}

func TestSeasonMismatchRejectedUnlessConfirmed(t *testing.T) {
	files := []models.DebridFile{
		{Index: 0, Name: "Show.S02E01.mkv", Size: 1_000_000_000},
	}
	req := Request{Season: intPtr(1), Episode: intPtr(1)}

	res := Select(files, req)
	assert.False(t, res.Found)

	req.Confirmed = true
	res = Select(files, req)
	assert.True(t, res.Found)
}

func TestEpisodeBatchMatchScoresLowerThanExact(t *testing.T) {
	exact := models.ParsedTitle{Seasons: []int{1}, Episodes: []int{2}}
	batch := models.ParsedTitle{Seasons: []int{1}, Episodes: []int{1, 2, 3}}
	req := Request{Season: intPtr(1), Episode: intPtr(2)}

	exactScore := episodeScore(exact, req)
	batchScore := episodeScore(batch, req)
	assert.Greater(t, exactScore, batchScore)
}

func TestAbsoluteEpisodeScoringPrefersRelativeExact(t *testing.T) {
	parsed := models.ParsedTitle{Episodes: []int{5}}
	req := Request{
		AbsoluteEpisode:         25,
		RelativeAbsoluteEpisode: 5,
		HasRelativeNumbering:    true,
	}
	assert.Equal(t, 1000, episodeScore(parsed, req))
}

func TestIsSeasonWrongIgnoresFilesWithoutSeasonInfo(t *testing.T) {
	parsed := models.ParsedTitle{Episodes: []int{5}}
	req := Request{Season: intPtr(1)}
	assert.False(t, isSeasonWrong(parsed, req))
}

func TestSkipSeasonEpisodeCheckBypassesFinalReassertion(t *testing.T) {
	files := []models.DebridFile{
		{Index: 0, Name: "Show.S09E09.mkv", Size: 1_000_000_000},
	}
	req := Request{Season: intPtr(1), Episode: intPtr(1), SkipSeasonEpisodeCheck: true}

	res := Select(files, req)
	assert.True(t, res.Found)
}
