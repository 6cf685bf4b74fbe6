// Package utility implements spec.md §4.6: the compressive and
// noncompressive utility model, upper bounds used to drive search
// pruning, and the bottom-up conflict-resolution dynamic program that
// decides, for every corpus node, whether accepting a match there beats
// leaving its descendants free to be rewritten instead.
package utility

import (
	"sort"

	"absearch/internal/corpus"
	"absearch/internal/pattern"
	"absearch/internal/term"
	"absearch/internal/zipper"
)

// Calculation is the full utility record for a finished pattern: the
// final compressive utility plus the per-node accept/reject decisions
// the Rewriter consumes.
type Calculation struct {
	CompressiveUtility    int
	NoncompressiveUtility int
	Total                 int

	// PerLocationUtility is util_once per match location, before the
	// conflict-resolution DP (multiplicity already applied).
	PerLocationUtility map[term.Id]int

	// CumUtil and Accept are the conflict-resolution DP's outputs, keyed
	// over every indexed corpus node (not just match locations).
	CumUtil map[term.Id]int
	Accept  map[term.Id]bool
}

// invocationCost is the fixed cost of placing the invention primitive
// plus one application per parameter.
func invocationCost(arity int) int {
	return term.CostTerminal + term.CostNonterminal*arity
}

// PerUseUtility computes spec.md §4.6's per-location utility for one
// match location, before multiplicity: the cost of the original subtree
// at this location minus the cost of replacing it with a call (the
// per-use savings), plus a bonus for every parameter used more than once
// at this location, with autoreject to 0 if any parameter's argument
// here still has free IVars (the slot didn't fully close).
//
// The one-time cost of the invented function's own body is deliberately
// not subtracted here — it is paid once, not per use, and is exactly
// what NoncompressiveUtility (−body_utility) already accounts for.
// Folding it into every location's share (as a literal reading of
// "body_utility − invocation_cost" per use would) double-counts it once
// per use instead of once total, and makes every abstraction whose body
// costs as much as its own invocation net to zero regardless of how
// many times it's reused — which contradicts spec.md §8 scenario 1's
// worked example, where three uses of a 2-node body are expected to
// yield a large positive utility. Using the matched subtree's own cost
// here is the reading that reproduces that example.
func PerUseUtility(store *term.Store, idx *zipper.Index, p *pattern.Pattern, loc term.Id) int {
	base := store.Cost(loc) - invocationCost(p.Arity())

	byIVar := make(map[int][]zipper.ZID)
	for _, slot := range p.ArgSlots {
		byIVar[slot.IVar] = append(byIVar[slot.IVar], slot.Zid)
	}

	for _, zids := range byIVar {
		for _, z := range zids {
			if !idx.HasArg(z, loc) {
				return 0
			}
			arg := idx.Arg(store, z, loc)
			if !store.FreeIVars(arg).Empty() {
				return 0
			}
		}
	}

	bonus := 0
	for _, zids := range byIVar {
		if len(zids) <= 1 {
			continue
		}
		argCost := store.Cost(idx.Arg(store, zids[0], loc))
		bonus += (len(zids) - 1) * argCost
	}

	return base + bonus
}

// UpperBound is spec.md §4.6's pruning bound: best-case compressive
// utility assuming no conflicts, plus a conservative 0 for noncompressive
// (which is never positive).
func UpperBound(store *term.Store, c *corpus.Corpus, locations []term.Id) int {
	total := 0
	for _, m := range locations {
		total += store.Cost(m) - term.CostTerminal*c.NumPathsToNode[m]
	}
	return total
}

// Compute runs the full utility calculation for a finished pattern:
// per-location utility (with multiplicity), the bottom-up
// conflict-resolution DP over the whole corpus, and the final
// per-task-minimum aggregation.
func Compute(store *term.Store, c *corpus.Corpus, idx *zipper.Index, p *pattern.Pattern, noncompressive bool) *Calculation {
	calc := &Calculation{
		PerLocationUtility: make(map[term.Id]int, len(p.MatchLocations)),
	}

	matchSet := make(map[term.Id]bool, len(p.MatchLocations))
	for _, loc := range p.MatchLocations {
		u := PerUseUtility(store, idx, p, loc) * c.NumPathsToNode[loc]
		calc.PerLocationUtility[loc] = u
		matchSet[loc] = true
	}

	calc.CumUtil = make(map[term.Id]int, len(c.TreeNodes))
	calc.Accept = make(map[term.Id]bool, len(p.MatchLocations))

	for _, n := range c.TreeNodes {
		skip := sumChildren(store, calc.CumUtil, n)
		if !matchSet[n] {
			calc.CumUtil[n] = skip
			continue
		}
		rewriteHere := calc.PerLocationUtility[n]
		seenIVar := make(map[int]bool, len(p.ArgSlots))
		for _, slot := range p.ArgSlots {
			if seenIVar[slot.IVar] || !idx.HasArg(slot.Zid, n) {
				continue
			}
			seenIVar[slot.IVar] = true
			raw := idx.RawArg(slot.Zid, n)
			rewriteHere += calc.CumUtil[raw]
		}
		if rewriteHere >= skip {
			calc.CumUtil[n] = rewriteHere
			calc.Accept[n] = true
		} else {
			calc.CumUtil[n] = skip
			calc.Accept[n] = false
		}
	}

	calc.CompressiveUtility = finalCompressive(c, calc.CumUtil)
	if !noncompressive {
		calc.NoncompressiveUtility = -p.BodyUtility
	}
	calc.Total = calc.CompressiveUtility + calc.NoncompressiveUtility
	return calc
}

func sumChildren(store *term.Store, cum map[term.Id]int, n term.Id) int {
	node := store.Node(n)
	switch node.Kind {
	case term.KindApp:
		return cum[node.Func] + cum[node.Arg]
	case term.KindLam:
		return cum[node.Body]
	default:
		return 0
	}
}

// finalCompressive aggregates per-root cumulative utility into one
// scalar, taking the best (max cum_util, i.e. min residual cost) root
// per task — spec.md §4.6's acknowledgement that a task may have
// several candidate root programs ("frontiers") tried in parallel, so
// only the best one needs to benefit for the task to count.
func finalCompressive(c *corpus.Corpus, cum map[term.Id]int) int {
	byTask := make(map[string][]int) // residual cost per root, per task
	for i, r := range c.Roots {
		residual := c.Store.Cost(r) - cum[r]
		byTask[c.Tasks[i]] = append(byTask[c.Tasks[i]], residual)
	}

	tasks := make([]string, 0, len(byTask))
	for t := range byTask {
		tasks = append(tasks, t)
	}
	sort.Strings(tasks)

	sumMinResidual := 0
	for _, t := range tasks {
		residuals := byTask[t]
		min := residuals[0]
		for _, r := range residuals[1:] {
			if r < min {
				min = r
			}
		}
		sumMinResidual += min
	}
	return c.InitCost() - sumMinResidual
}
