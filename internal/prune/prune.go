// Package prune implements spec.md §4.4's seven soundness-preserving
// pruning rules. Each rule is a small, independently testable predicate
// over a Pattern (or an about-to-be-committed Expansion); internal/search
// calls all of them during expansion enumeration and donelist admission.
package prune

import (
	"absearch/internal/corpus"
	"absearch/internal/pattern"
	"absearch/internal/term"
	"absearch/internal/zipper"
)

// BodyDepth returns the number of Lam binders the pattern has committed
// between its root and zid — the "body-depth d" spec.md §4.4 rule 1
// refers to. It is exactly the count of Body hops in zid's zipper path,
// since every ExpandLam commit corresponds 1:1 with one Body hop.
func BodyDepth(idx *zipper.Index, zid zipper.ZID) int {
	depth := 0
	for _, d := range idx.Path(zid) {
		if d == zipper.DirBody {
			depth++
		}
	}
	return depth
}

// FreeVarsInBody is rule 1: committing Var(k) at body-depth d is
// discarded when k >= d, since the variable would escape the abstraction
// (point above its own binder once extracted into a standalone body).
func FreeVarsInBody(idx *zipper.Index, zid zipper.ZID, varIdx int) bool {
	return varIdx >= BodyDepth(idx, zid)
}

// SingleUse is rule 2: a pattern matching exactly one corpus node with
// no free variables can never beat the arity-0 abstraction already
// primed for that same node, so any further expansion of it is wasted
// search.
func SingleUse(store *term.Store, p *pattern.Pattern) bool {
	if len(p.MatchLocations) != 1 {
		return false
	}
	return store.FreeVars(p.MatchLocations[0]).Empty()
}

// SingleTask is rule 3: if every surviving match location's task set has
// size 1 and they all name the same task, the pattern is task-specific
// and discarded — it could never generalize across tasks.
func SingleTask(c *corpus.Corpus, locations []term.Id) bool {
	if len(locations) == 0 {
		return false
	}
	var only string
	for i, loc := range locations {
		tasks := c.TasksOfNode[loc]
		if len(tasks) != 1 {
			return false
		}
		var t string
		for k := range tasks {
			t = k
		}
		if i == 0 {
			only = t
		} else if t != only {
			return false
		}
	}
	return true
}

// UpperBoundExceeded is rule 4: a pattern whose cached upper bound no
// longer exceeds the current cutoff can be discarded outright.
func UpperBoundExceeded(upperBound, cutoff int) bool {
	return upperBound <= cutoff
}

// RedundantArgument is rule 5: if two distinct parameters take the
// identical (already binder-corrected) subterm at every surviving match
// location, a smaller pattern reusing one parameter dominates this one.
func RedundantArgument(store *term.Store, idx *zipper.Index, p *pattern.Pattern) bool {
	slots := p.ArgSlots
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			if slots[i].IVar == slots[j].IVar {
				continue
			}
			if sameArgEverywhere(store, idx, p.MatchLocations, slots[i], slots[j]) {
				return true
			}
		}
	}
	return false
}

func sameArgEverywhere(store *term.Store, idx *zipper.Index, locs []term.Id, a, b pattern.ArgSlot) bool {
	for _, loc := range locs {
		if idx.Arg(store, a.Zid, loc) != idx.Arg(store, b.Zid, loc) {
			return false
		}
	}
	return true
}

// ArgumentCapture is rule 6 ("useless abstraction"): if a single
// parameter takes the exact same subterm at every match location, it
// carries no real variation and is better left inlined — the inlined
// variant will be discovered as its own (cheaper) pattern independently.
func ArgumentCapture(store *term.Store, idx *zipper.Index, p *pattern.Pattern) bool {
	for _, slot := range p.ArgSlots {
		if constantAcrossLocations(store, idx, p.MatchLocations, slot) {
			return true
		}
	}
	return false
}

func constantAcrossLocations(store *term.Store, idx *zipper.Index, locs []term.Id, slot pattern.ArgSlot) bool {
	if len(locs) == 0 {
		return false
	}
	first := idx.Arg(store, slot.Zid, locs[0])
	for _, loc := range locs[1:] {
		if idx.Arg(store, slot.Zid, loc) != first {
			return false
		}
	}
	return true
}

// ArityZeroCandidate is one whole-subtree abstraction primed before
// search begins (rule 7).
type ArityZeroCandidate struct {
	Node term.Id
}

// PrimeArityZero enumerates every corpus node with no free variables as
// an arity-0 candidate. Per DESIGN.md's Open Question resolution, this
// does not itself gate on task count (the original this spec was
// distilled from doesn't either); SingleTask is applied uniformly by
// the caller alongside every other candidate instead of specially here.
func PrimeArityZero(store *term.Store, nodes []term.Id) []ArityZeroCandidate {
	var out []ArityZeroCandidate
	for _, n := range nodes {
		if store.FreeVars(n).Empty() {
			out = append(out, ArityZeroCandidate{Node: n})
		}
	}
	return out
}
