package zipper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absearch/internal/corpus"
	"absearch/internal/term"
)

func buildIndex(t *testing.T, progs ...string) (*term.Store, *corpus.Corpus, *Index) {
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
	return store, c, Build(store, c.TreeNodes)
}

func TestEmptyZidIsSelf(t *testing.T) {
	store, c, idx := buildIndex(t, "(+ 1 2)")
	root := c.Roots[0]
	assert.True(t, idx.HasArg(EmptyZID, root))
	assert.Equal(t, root, idx.RawArg(EmptyZID, root))
	assert.Equal(t, 0, idx.Depth(EmptyZID, root))
	assert.Equal(t, root, idx.Arg(store, EmptyZID, root))
}

func TestFuncArgZids(t *testing.T) {
	_, c, idx := buildIndex(t, "(+ 1 2)")
	root := c.Roots[0]
	zids := idx.ZidsOfNode(root)
	// root: App(App(+,1),2) has zippers: ε, Arg (->2), Func (->App(+,1)),
	// Func.Arg (->1), Func.Func (->+).
	assert.Len(t, zids, 5)
}

func TestBodyCrossingConvertsEscapingVar(t *testing.T) {
	store, c, idx := buildIndex(t, "(lam $0)")
	root := c.Roots[0]
	var bodyZid *ZID
	for _, z := range idx.ZidsOfNode(root) {
		if len(idx.Path(z)) == 1 && idx.Path(z)[0] == DirBody {
			cp := z
			bodyZid = &cp
		}
	}
	require.NotNil(t, bodyZid)
	assert.Equal(t, 1, idx.Depth(*bodyZid, root))
	abstracted := idx.Arg(store, *bodyZid, root)
	assert.Equal(t, "#0", term.Print(store, abstracted))
}

func TestExtensionsLinkRegisteredZids(t *testing.T) {
	_, c, idx := buildIndex(t, "(+ 1 2)")
	root := c.Roots[0]
	_ = root
	ext := idx.ExtensionsOf(EmptyZID)
	require.NotNil(t, ext.Func)
	require.NotNil(t, ext.Arg)
	assert.Nil(t, ext.Body)
}

func TestFirstMergeableZidSkipsPrefixExtensions(t *testing.T) {
	_, c, idx := buildIndex(t, "(+ 1 2)")
	root := c.Roots[0]

	var funcZid *ZID
	for _, z := range idx.ZidsOfNode(root) {
		if len(idx.Path(z)) == 1 && idx.Path(z)[0] == DirFunc {
			cp := z
			funcZid = &cp
		}
	}
	require.NotNil(t, funcZid)

	boundary := idx.FirstMergeableZID(*funcZid)
	if boundary != ZID(idx.NumZids()) {
		assert.False(t, hasPrefix(idx.Path(boundary), idx.Path(*funcZid)))
	}

	empty := idx.FirstMergeableZID(EmptyZID)
	assert.Equal(t, ZID(idx.NumZids()), empty, "every zid extends the empty path, so nothing is ever mergeable past it")
}

func TestSharedSubtreeSharesZidSet(t *testing.T) {
	// Two programs sharing the identical subtree "(+ 1 2)" should hash-cons
	// to the same node and thus the same zipper set.
	_, c, idx := buildIndex(t, "(f (+ 1 2))", "(g (+ 1 2))")
	// Find the shared "(+ 1 2)" node: it is the Arg child of both roots.
	store := c.Store
	n1 := store.Node(c.Roots[0]).Arg
	n2 := store.Node(c.Roots[1]).Arg
	assert.Equal(t, n1, n2)
	assert.Equal(t, idx.ZidsOfNode(n1), idx.ZidsOfNode(n2))
	assert.Equal(t, 2, c.NumPathsToNode[n1])
}
