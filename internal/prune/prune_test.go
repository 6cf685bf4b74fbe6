package prune

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absearch/internal/corpus"
	"absearch/internal/pattern"
	"absearch/internal/term"
	"absearch/internal/zipper"
)

func setup(t *testing.T, progs ...string) (*term.Store, *corpus.Corpus, *zipper.Index) {
	t.Helper()
	store := term.NewStore()
	roots := make([]term.Id, len(progs))
	tasks := make([]string, len(progs))
	for i, p := range progs {
		id, err := term.Parse(store, "t", p)
		require.NoError(t, err)
		roots[i] = id
		tasks[i] = "t"
	}
	c := corpus.Build(store, roots, tasks)
	return store, c, zipper.Build(store, c.TreeNodes)
}

func TestFreeVarsInBodyRejectsEscapingVar(t *testing.T) {
	_, _, idx := setup(t, "(lam $1)")
	// depth at the Body hole is 1 (one Lam crossed); Var(1) escapes.
	var bodyZid zipper.ZID
	for _, z := range idx.ZidsOfNode(1) {
		_ = z
	}
	// Find the zid whose path is exactly [Body].
	for z := 0; z < idx.NumZids(); z++ {
		if len(idx.Path(zipper.ZID(z))) == 1 && idx.Path(zipper.ZID(z))[0] == zipper.DirBody {
			bodyZid = zipper.ZID(z)
		}
	}
	assert.True(t, FreeVarsInBody(idx, bodyZid, 1))
	assert.False(t, FreeVarsInBody(idx, bodyZid, 0))
}

func TestSingleUseBlocksLoneClosedLocation(t *testing.T) {
	store, c, _ := setup(t, "(a b c)")
	p := pattern.NewInitial(store, c.TreeNodes, false)
	// The whole root "(a b c)" has no free vars and is the only location
	// of its exact shape, but MatchLocations here is every corpus node;
	// restrict to just the root to exercise the single-use check directly.
	single := &pattern.Pattern{MatchLocations: []term.Id{c.Roots[0]}}
	assert.True(t, SingleUse(store, single))
	_ = p
}

func TestSingleTaskDetectsUniformTask(t *testing.T) {
	store, c, _ := setup(t, "(f x)")
	assert.True(t, SingleTask(c, []term.Id{c.Roots[0]}))
	_ = store
}

func TestPrimeArityZeroSkipsOpenTerms(t *testing.T) {
	store, c, _ := setup(t, "(lam $0)")
	candidates := PrimeArityZero(store, c.TreeNodes)
	for _, cand := range candidates {
		assert.True(t, store.FreeVars(cand.Node).Empty())
	}
	// The lam itself is closed (its free var is bound); its body "$0" is
	// open and must not appear among the candidates.
	root := c.Roots[0]
	body := store.Node(root).Body
	for _, cand := range candidates {
		assert.NotEqual(t, body, cand.Node)
	}
}
