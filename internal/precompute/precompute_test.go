package precompute

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamforge/resolver/internal/models"
)

func TestApplyRankedRegexTagsScore(t *testing.T) {
	s := &models.ParsedStream{Filename: "Show.S01E01.1080p.mkv"}
	ud := &models.UserData{RegexRequired: []string{`(?i)1080p`}}
	Apply([]*models.ParsedStream{s}, ud)
	assert.True(t, s.RegexMatched)
	assert.Equal(t, 1, s.RegexScore)
}

func TestSortStreamsBySizeDescending(t *testing.T) {
	small := &models.ParsedStream{Filename: "small.mkv", Size: 100}
	big := &models.ParsedStream{Filename: "big.mkv", Size: 1000}
	streams := []*models.ParsedStream{small, big}

	out := Apply(streams, &models.UserData{SortCriteria: []models.SortKey{{Field: "size", Descending: true}}})
	assert.Equal(t, "big.mkv", out[0].Filename)
	assert.Equal(t, "small.mkv", out[1].Filename)
}

func TestPartitionPinsMovesTopAndBottom(t *testing.T) {
	mid := &models.ParsedStream{Filename: "mid.mkv"}
	top := &models.ParsedStream{Filename: "top.mkv", PinTop: true}
	bottom := &models.ParsedStream{Filename: "bottom.mkv", PinBottom: true}

	out := partitionPins([]*models.ParsedStream{mid, top, bottom})
	assert.Equal(t, []string{"top.mkv", "mid.mkv", "bottom.mkv"}, []string{out[0].Filename, out[1].Filename, out[2].Filename})
}

func TestApplyPreferredTagsFirstMatchOnly(t *testing.T) {
	s := &models.ParsedStream{InfoHash: "abc", Service: &models.ServiceAnnotation{Cached: true}}
	ud := &models.UserData{SELPreferred: []string{"cached", `hash("abc")`}}
	Apply([]*models.ParsedStream{s}, ud)
	assert.True(t, s.KeywordMatched)
}

func TestApplyNilUserDataStillSorts(t *testing.T) {
	a := &models.ParsedStream{Filename: "a.mkv"}
	out := Apply([]*models.ParsedStream{a}, nil)
	assert.Len(t, out, 1)
}
