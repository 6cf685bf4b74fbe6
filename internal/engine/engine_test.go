package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absearch/internal/search"
)

func TestCompressionStepFindsSharedBinaryOp(t *testing.T) {
	data := []byte(`["(+ 1 2)", "(+ 3 4)", "(+ 5 6)"]`)
	cfg := Config{
		InputKind: 0, // format.ProgramsList
		Search:    search.DefaultConfig(),
	}
	cfg.Search.InvCandidates = 5

	res, err := CompressionStep(cfg, data, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Steps)

	best := res.Steps[0]
	assert.Equal(t, "fn_0", best.Name)
	assert.Equal(t, 2, best.Arity)
	assert.Greater(t, best.Multiplier, 1.0)
	assert.Len(t, best.Rewritten, 3)
	assert.NotEmpty(t, best.Uses)
	assert.Contains(t, best.DreamCoder, "#(lambda")
}

func TestCompressionStepRejectsMalformedProgram(t *testing.T) {
	data := []byte(`["(+ 1"]`)
	cfg := Config{Search: search.DefaultConfig()}
	_, err := CompressionStep(cfg, data, nil)
	assert.Error(t, err)
}

func TestCompressionStepAbstractionNamingOffsetsByPrevCount(t *testing.T) {
	data := []byte(`["(+ 1 2)", "(+ 3 4)", "(+ 5 6)"]`)
	cfg := Config{
		Search:               search.DefaultConfig(),
		PrevAbstractionCount: 7,
	}
	cfg.Search.InvCandidates = 5

	res, err := CompressionStep(cfg, data, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Steps)
	assert.Equal(t, "fn_7", res.Steps[0].Name)
}
