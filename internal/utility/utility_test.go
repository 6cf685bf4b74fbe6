package utility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absearch/internal/corpus"
	"absearch/internal/pattern"
	"absearch/internal/term"
	"absearch/internal/zipper"
)

// TestSharedBinaryOpYieldsPositiveUtility reproduces spec.md §8 scenario
// 1: three programs "(+ a b)" against the finished pattern "(+ #0 #1)".
func TestSharedBinaryOpYieldsPositiveUtility(t *testing.T) {
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

	pat := pattern.NewInitial(store, c.TreeNodes, false)
	hole, rest := pat.ChooseHole(pattern.DepthFirst, 0)
	pat.Holes = rest
	pat = pat.Expand(idx, hole, pattern.Expansion{Kind: pattern.ExpandApp}, pat.MatchLocations)

	for len(pat.Holes) > 0 {
		h, rest := pat.ChooseHole(pattern.DepthFirst, 0)
		pat.Holes = rest
		cls := pattern.ClassifyLocation(store, idx, h, c.Roots[0])
		if cls.Kind == pattern.ExpandApp {
			pat = pat.Expand(idx, h, cls, pat.MatchLocations)
			continue
		}
		if cls.Kind == pattern.ExpandPrim && cls.Sym == "+" {
			pat = pat.Expand(idx, h, cls, pat.MatchLocations)
			continue
		}
		pat = pat.Expand(idx, h, pattern.Expansion{Kind: pattern.ExpandNewIVar, IVar: pat.Arity()}, pat.MatchLocations)
	}
	require.True(t, pat.IsFinished())
	assert.Equal(t, 2, pat.Arity())

	calc := Compute(store, c, idx, pat, false)
	assert.Greater(t, calc.Total, 0)
	for _, r := range c.Roots {
		assert.True(t, calc.Accept[r])
	}
}

// TestMultiUseParamWithSelfNestedArgCountsSlotsOncePerIVar covers the
// conflict-resolution DP's handling of a multi-use parameter (two
// ArgSlot entries sharing one IVar) whose shared argument is itself an
// accepted match location. The pattern "(f #0 #0)" matches both
// "(f (f 1 1) (f 1 1))" (outer, arg #0 = "(f 1 1)") and "(f 1 1)"
// itself (inner, arg #0 = "1"), so the outer location's CumUtil
// contribution from its shared argument must be added once, not once
// per ArgSlot occurrence — mirroring what internal/rewrite's
// orderedArgZids keeps: one representative zid per ivar.
func TestMultiUseParamWithSelfNestedArgCountsSlotsOncePerIVar(t *testing.T) {
	store := term.NewStore()
	root, err := term.Parse(store, "t", "(f (f 1 1) (f 1 1))")
	require.NoError(t, err)
	c := corpus.Build(store, []term.Id{root}, []string{"t"})
	idx := zipper.Build(store, c.TreeNodes)

	innerF := store.Node(root).Arg // "(f 1 1)", shared by both root.Func.Arg and root.Arg

	pat := pattern.NewInitial(store, c.TreeNodes, false)
	outerHole, rest := pat.ChooseHole(pattern.DepthFirst, 0)
	pat.Holes = rest
	pat = pat.Expand(idx, outerHole, pattern.Expansion{Kind: pattern.ExpandApp}, []term.Id{root, innerF})

	funcHole, rest := pat.ChooseHole(pattern.DepthFirst, 0)
	pat.Holes = rest
	pat = pat.Expand(idx, funcHole, pattern.Expansion{Kind: pattern.ExpandApp}, []term.Id{root, innerF})

	ffHole, rest := pat.ChooseHole(pattern.DepthFirst, 0)
	pat.Holes = rest
	pat = pat.Expand(idx, ffHole, pattern.Expansion{Kind: pattern.ExpandPrim, Sym: "f"}, []term.Id{root, innerF})

	faHole, rest := pat.ChooseHole(pattern.DepthFirst, 0)
	pat.Holes = rest
	pat = pat.Expand(idx, faHole, pattern.Expansion{Kind: pattern.ExpandNewIVar, IVar: 0}, []term.Id{root, innerF})

	argHole, rest := pat.ChooseHole(pattern.DepthFirst, 0)
	pat.Holes = rest
	require.True(t, pattern.MatchesExistingSlot(store, idx, argHole, root, pat.ArgSlots[0]))
	require.True(t, pattern.MatchesExistingSlot(store, idx, argHole, innerF, pat.ArgSlots[0]))
	pat = pat.Expand(idx, argHole, pattern.Expansion{Kind: pattern.ExpandExistingIVar, IVar: 0}, []term.Id{root, innerF})

	require.True(t, pat.IsFinished())
	require.Equal(t, 1, pat.Arity())
	require.Len(t, pat.ArgSlots, 2)
	assert.Equal(t, pat.ArgSlots[0].IVar, pat.ArgSlots[1].IVar)

	calc := Compute(store, c, idx, pat, false)

	require.True(t, calc.Accept[innerF])
	assert.Equal(t, 602, calc.CumUtil[innerF])

	require.True(t, calc.Accept[root])
	assert.Equal(t, 1509, calc.CumUtil[root])
}

func TestUpperBoundDominatesActualUtility(t *testing.T) {
	store := term.NewStore()
	id, err := term.Parse(store, "t", "(+ 1 2)")
	require.NoError(t, err)
	c := corpus.Build(store, []term.Id{id}, []string{"t"})
	bound := UpperBound(store, c, c.TreeNodes)
	assert.GreaterOrEqual(t, bound, 0)
}
