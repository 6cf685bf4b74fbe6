package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absearch/internal/corpus"
	"absearch/internal/pattern"
	"absearch/internal/term"
	"absearch/internal/utility"
	"absearch/internal/zipper"
)

// buildSharedBinaryOp constructs the §8 scenario 1 corpus and the
// finished "(+ #0 #1)" pattern matched against all three roots.
func buildSharedBinaryOp(t *testing.T) (*term.Store, *corpus.Corpus, *zipper.Index, *pattern.Pattern) {
	t.Helper()
	store := term.NewStore()
	progs := []string{"(+ 1 2)", "(+ 3 4)", "(+ 5 6)"}
	roots := make([]term.Id, len(progs))
	tasks := make([]string, len(progs))
	for i, p := range progs {
		id, err := term.Parse(store, "t", p)
		require.NoError(t, err)
		roots[i] = id
		tasks[i] = string(rune('a' + i))
	}
	c := corpus.Build(store, roots, tasks)
	idx := zipper.Build(store, c.TreeNodes)

	pat := pattern.NewInitial(store, c.Roots, false)
	hole, rest := pat.ChooseHole(pattern.DepthFirst, 0)
	pat.Holes = rest
	pat = pat.Expand(idx, hole, pattern.Expansion{Kind: pattern.ExpandApp}, pat.MatchLocations)

	for len(pat.Holes) > 0 {
		h, rest := pat.ChooseHole(pattern.DepthFirst, 0)
		pat.Holes = rest
		cls := pattern.ClassifyLocation(store, idx, h, c.Roots[0])
		switch {
		case cls.Kind == pattern.ExpandApp:
			pat = pat.Expand(idx, h, cls, pat.MatchLocations)
		case cls.Kind == pattern.ExpandPrim && cls.Sym == "+":
			pat = pat.Expand(idx, h, cls, pat.MatchLocations)
		default:
			pat = pat.Expand(idx, h, pattern.Expansion{Kind: pattern.ExpandNewIVar, IVar: pat.Arity()}, pat.MatchLocations)
		}
	}
	require.True(t, pat.IsFinished())
	return store, c, idx, pat
}

func TestApplyRewritesEveryRootToACall(t *testing.T) {
	store, c, idx, pat := buildSharedBinaryOp(t)
	calc := utility.Compute(store, c, idx, pat, false)
	res := Apply(store, c, idx, pat, calc, "fn0")

	require.Len(t, res.Roots, 3)
	for i, r := range res.Roots {
		got := term.Print(store, r)
		want := "(fn0 " + []string{"1", "3", "5"}[i] + " " + []string{"2", "4", "6"}[i] + ")"
		assert.Equal(t, want, got)
	}
}

func TestApplyCostMatchesUtility(t *testing.T) {
	store, c, idx, pat := buildSharedBinaryOp(t)
	calc := utility.Compute(store, c, idx, pat, false)
	res := Apply(store, c, idx, pat, calc, "fn0")

	total := 0
	for _, r := range res.Roots {
		total += store.Cost(r)
	}
	assert.Equal(t, c.InitCost()-calc.CompressiveUtility, total)
}
