// Package rewrite implements spec.md §4.9: substituting an accepted
// pattern's match locations with calls to its extracted abstraction
// across every program root in the corpus.
package rewrite

import (
	"sort"

	"absearch/internal/corpus"
	"absearch/internal/diag"
	"absearch/internal/pattern"
	"absearch/internal/term"
	"absearch/internal/utility"
	"absearch/internal/zipper"
)

// Result is the rewritten corpus: one new root per original root, over
// the same term.Store (rewriting only ever adds new hash-consed nodes,
// never mutates existing ones).
type Result struct {
	Roots []term.Id
}

// Apply rewrites every corpus root: at each node where calc.Accept is
// true it emits App*(name, arg1, ..., argk) using the unshifted argument
// subterms recorded by idx (substituting back into the node's own
// original context, per spec.md §4.9), recursing into both the accepted
// call's own arguments and into any node's ordinary children otherwise.
// Structural hash-consing on the way up means a subtree rewritten the
// same way at two different positions collapses to one new node, same
// as the original corpus's own sharing.
func Apply(store *term.Store, c *corpus.Corpus, idx *zipper.Index, p *pattern.Pattern, calc *utility.Calculation, name string) *Result {
	fn := store.Prim(name)
	argZids := orderedArgZids(p)
	memo := make(map[term.Id]term.Id, len(c.TreeNodes))

	roots := make([]term.Id, len(c.Roots))
	for i, r := range c.Roots {
		roots[i] = rewriteNode(store, idx, calc, fn, argZids, memo, r)
	}

	assertCost(store, c, calc, roots)
	return &Result{Roots: roots}
}

// orderedArgZids picks one representative zid per parameter index,
// ordered by ivar — arg1 is #0, arg2 is #1, and so on.
func orderedArgZids(p *pattern.Pattern) []zipper.ZID {
	firstZid := make(map[int]zipper.ZID)
	for _, s := range p.ArgSlots {
		if _, ok := firstZid[s.IVar]; !ok {
			firstZid[s.IVar] = s.Zid
		}
	}
	ivars := make([]int, 0, len(firstZid))
	for iv := range firstZid {
		ivars = append(ivars, iv)
	}
	sort.Ints(ivars)

	out := make([]zipper.ZID, len(ivars))
	for i, iv := range ivars {
		out[i] = firstZid[iv]
	}
	return out
}

func rewriteNode(store *term.Store, idx *zipper.Index, calc *utility.Calculation, fn term.Id, argZids []zipper.ZID, memo map[term.Id]term.Id, node term.Id) term.Id {
	if v, ok := memo[node]; ok {
		return v
	}

	var out term.Id
	if calc.Accept[node] {
		out = fn
		for _, z := range argZids {
			raw := idx.RawArg(z, node)
			out = store.App(out, rewriteNode(store, idx, calc, fn, argZids, memo, raw))
		}
	} else {
		n := store.Node(node)
		switch n.Kind {
		case term.KindApp:
			f := rewriteNode(store, idx, calc, fn, argZids, memo, n.Func)
			x := rewriteNode(store, idx, calc, fn, argZids, memo, n.Arg)
			out = store.App(f, x)
		case term.KindLam:
			b := rewriteNode(store, idx, calc, fn, argZids, memo, n.Body)
			out = store.Lam(b)
		default:
			out = node
		}
	}

	memo[node] = out
	return out
}

// assertCost is spec.md §4.9's fatal sanity check: the total cost of the
// rewritten roots must equal the total cost saved by every node's own
// accept/skip choice. This holds node-by-node by construction
// (rewriteNode always follows calc.CumUtil's own decision), so any
// mismatch means the pattern's commits, the zipper's argument
// descriptors, or the utility DP have drifted out of sync with each
// other — an invariant violation, not a recoverable error.
//
// The expected total is summed per root (cost minus CumUtil). It equals
// init_cost - calc.CompressiveUtility only when every task has exactly
// one root; internal/engine passes every parsed program to corpus.Build
// as its own root, so with several programs in one task the two figures
// differ and this check compares against the per-root sum.
func assertCost(store *term.Store, c *corpus.Corpus, calc *utility.Calculation, rewrittenRoots []term.Id) {
	want := 0
	for _, r := range c.Roots {
		want += store.Cost(r) - calc.CumUtil[r]
	}
	got := 0
	for _, r := range rewrittenRoots {
		got += store.Cost(r)
	}
	if got != want {
		diag.Panicf("E4001", "rewrite: rewritten corpus cost %d does not match init_cost - compressive_utility %d", got, want)
	}
}
