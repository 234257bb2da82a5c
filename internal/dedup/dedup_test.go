package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamforge/resolver/internal/models"
)

func stream(hash, indexer string, size int64) *models.ParsedStream {
	return &models.ParsedStream{InfoHash: hash, Indexer: indexer, Size: size}
}

func TestDedupeByHash(t *testing.T) {
	in := []*models.ParsedStream{
		stream("h1", "a", 100),
		stream("h1", "b", 200),
		stream("h2", "a", 100),
	}
	out := Apply(in, nil)
	assert.Len(t, out, 2)
}

func TestLimitIndependentDropsOverCap(t *testing.T) {
	in := []*models.ParsedStream{
		stream("h1", "idx1", 1),
		stream("h2", "idx1", 2),
		stream("h3", "idx2", 3),
	}
	ud := &models.UserData{Limits: models.Limits{Mode: models.LimitModeIndependent, Indexer: 1}}
	out := Apply(in, ud)
	assert.Len(t, out, 2) // one per indexer
}

func TestLimitConjunctiveZeroCapDisabled(t *testing.T) {
	in := []*models.ParsedStream{
		stream("h1", "idx1", 1),
		stream("h2", "idx1", 2),
	}
	ud := &models.UserData{Limits: models.Limits{Mode: models.LimitModeConjunctive, Indexer: 0, Resolution: 0}}
	out := Apply(in, ud)
	assert.Len(t, out, 2) // no enabled caps -> nothing dropped
}

func TestLimitPassthroughExempt(t *testing.T) {
	exempt := stream("h1", "idx1", 1)
	exempt.Passthrough = map[string]struct{}{"limit": {}}
	other := stream("h2", "idx1", 2)
	ud := &models.UserData{Limits: models.Limits{Mode: models.LimitModeIndependent, Indexer: 0, Global: 1}}
	out := Apply([]*models.ParsedStream{exempt, other}, ud)
	assert.Len(t, out, 2)
}
