package sel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamforge/resolver/internal/models"
)

func TestParseAndEvalPredicates(t *testing.T) {
	s := &models.ParsedStream{
		Filename: "Movie.2024.1080p.mkv",
		InfoHash: "abc123",
		Service:  &models.ServiceAnnotation{ID: "ad1", Cached: true},
	}

	e, err := Parse(`cached and hash("abc123")`)
	require.NoError(t, err)
	assert.True(t, e.Eval(EvalContext{Stream: s}))

	e2, err := Parse(`uncached or filename(".*1080p.*")`)
	require.NoError(t, err)
	assert.True(t, e2.Eval(EvalContext{Stream: s}))

	e3, err := Parse(`not cached`)
	require.NoError(t, err)
	assert.False(t, e3.Eval(EvalContext{Stream: s}))
}

func TestParsePin(t *testing.T) {
	body, pin := ParsePin(`cached pin(top)`)
	assert.Equal(t, "cached", body)
	assert.Equal(t, PinTop, pin)

	body, pin = ParsePin(`seadex()`)
	assert.Equal(t, "seadex()", body)
	assert.Equal(t, PinNone, pin)
}

func TestSeadexPredicate(t *testing.T) {
	s := &models.ParsedStream{InfoHash: "h1"}
	e, err := Parse(`seadex()`)
	require.NoError(t, err)

	assert.False(t, e.Eval(EvalContext{Stream: s}))
	assert.True(t, e.Eval(EvalContext{Stream: s, SeadexAll: map[string]struct{}{"h1": {}}}))
}
