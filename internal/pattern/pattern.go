// Package pattern implements spec.md §4.3: the Pattern search node (a
// partial abstraction with ordered holes, committed argument slots, a
// running body-cost accumulator, and its surviving match locations) and
// the primitive per-hole expansion operation search.Scheduler drives.
package pattern

import (
	"sort"

	"absearch/internal/term"
	"absearch/internal/zipper"
)

// HolePolicy selects which open hole to expand next.
type HolePolicy uint8

const (
	DepthFirst HolePolicy = iota
	BreadthFirst
	Random
	MaxCost
	MinCost
	FewApps
	MaxLargestSubset
)

// ExpansionKind is one of the six ways a hole can be committed.
type ExpansionKind uint8

const (
	ExpandApp ExpansionKind = iota
	ExpandLam
	ExpandVar
	ExpandPrim
	ExpandExistingIVar
	ExpandNewIVar
)

// Expansion describes one concrete commitment for a hole.
type Expansion struct {
	Kind  ExpansionKind
	Var   int    // ExpandVar
	Sym   string // ExpandPrim
	IVar  int    // ExpandExistingIVar / ExpandNewIVar
}

// commit is the recorded decision at a zipper position, kept so a
// finished pattern's body can be rebuilt into a real term.Id.
type commit struct {
	kind Expansion
}

// ArgSlot is one committed parameter: the zipper reaching it and which
// ivar index it was bound to. arity = max(ivar)+1 over all slots.
type ArgSlot struct {
	Zid  zipper.ZID
	IVar int
}

// Pattern is a partial (or, with no holes left, finished) abstraction.
type Pattern struct {
	Holes          []zipper.ZID // DFS stack: last element expands next under DepthFirst
	ArgSlots       []ArgSlot
	MatchLocations []term.Id // always sorted ascending
	BodyUtility    int
	UpperBound     int
	Tracked        bool

	commits map[zipper.ZID]commit
}

// NewInitial builds the single-hole pattern spec.md §4.3 "Construction"
// describes: one hole at the empty zipper, no slots, match_locations =
// every given corpus node. excludeTopLambda, when set, drops Lam-kinded
// locations from the initial set (spec.md §6's `no_top_lambda` flag).
func NewInitial(store *term.Store, candidates []term.Id, excludeTopLambda bool) *Pattern {
	locs := make([]term.Id, 0, len(candidates))
	for _, id := range candidates {
		if excludeTopLambda && store.Node(id).Kind == term.KindLam {
			continue
		}
		locs = append(locs, id)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i] < locs[j] })
	return &Pattern{
		Holes:          []zipper.ZID{zipper.EmptyZID},
		MatchLocations: locs,
		commits:        make(map[zipper.ZID]commit),
	}
}

// IsFinished reports whether every hole has been committed.
func (p *Pattern) IsFinished() bool { return len(p.Holes) == 0 }

// Arity is the number of distinct parameters committed so far.
func (p *Pattern) Arity() int {
	max := -1
	for _, s := range p.ArgSlots {
		if s.IVar > max {
			max = s.IVar
		}
	}
	return max + 1
}

// ChooseHole selects and removes one hole per policy, returning it and
// the remaining holes. DepthFirst takes the last hole and BreadthFirst
// the first. Every other policy (Random, MaxCost, MinCost, FewApps,
// MaxLargestSubset) takes the hole at index pick, as supplied by the
// caller; ChooseHole does no cost, shape or random selection of its own.
func (p *Pattern) ChooseHole(policy HolePolicy, pick int) (zipper.ZID, []zipper.ZID) {
	switch policy {
	case BreadthFirst:
		z := p.Holes[0]
		rest := append([]zipper.ZID{}, p.Holes[1:]...)
		return z, rest
	case DepthFirst:
		last := len(p.Holes) - 1
		z := p.Holes[last]
		rest := append([]zipper.ZID{}, p.Holes[:last]...)
		return z, rest
	default:
		// MaxCost/MinCost/FewApps/MaxLargestSubset/Random: the caller
		// passes the index in as `pick` (search's step always passes 0).
		z := p.Holes[pick]
		rest := make([]zipper.ZID, 0, len(p.Holes)-1)
		rest = append(rest, p.Holes[:pick]...)
		rest = append(rest, p.Holes[pick+1:]...)
		return z, rest
	}
}

// ClassifyLocation inspects the subtree a hole reaches at one match
// location and returns the Expansion it is structurally compatible
// with: App, Lam, Var or Prim. The "existing #i" refinement check of
// spec.md §4.3 is done separately, by MatchesExistingSlot.
func ClassifyLocation(store *term.Store, idx *zipper.Index, zid zipper.ZID, location term.Id) Expansion {
	raw := idx.RawArg(zid, location)
	n := store.Node(raw)
	switch n.Kind {
	case term.KindApp:
		return Expansion{Kind: ExpandApp}
	case term.KindLam:
		return Expansion{Kind: ExpandLam}
	case term.KindVar:
		return Expansion{Kind: ExpandVar, Var: n.Index}
	case term.KindPrim:
		return Expansion{Kind: ExpandPrim, Sym: n.Sym}
	default:
		// IVar can't appear as a fresh corpus subtree (it only exists
		// inside abstraction bodies, which corpus programs never contain).
		return Expansion{Kind: ExpandPrim, Sym: "<ivar>"}
	}
}

// MatchesExistingSlot reports whether location's subtree at zid equals
// the argument already committed to parameter ivar, after each is put
// through its own zipper's binder-crossing correction — the "existing
// #i" consistency check spec.md §4.3 requires before a location can
// survive that expansion.
func MatchesExistingSlot(store *term.Store, idx *zipper.Index, zid zipper.ZID, location term.Id, slot ArgSlot) bool {
	if !idx.HasArg(zid, location) || !idx.HasArg(slot.Zid, location) {
		return false
	}
	a := idx.Arg(store, zid, location)
	b := idx.Arg(store, slot.Zid, location)
	return a == b
}

// Expand commits zid to exp, returning a new child Pattern restricted to
// matchLocations (already filtered by the caller per spec.md §4.3's
// match-location refinement) with holes, slots, and body_utility updated.
func (p *Pattern) Expand(idx *zipper.Index, zid zipper.ZID, exp Expansion, matchLocations []term.Id) *Pattern {
	holes := make([]zipper.ZID, 0, len(p.Holes)+1)
	holes = append(holes, p.Holes...)

	slots := append([]ArgSlot{}, p.ArgSlots...)
	commits := make(map[zipper.ZID]commit, len(p.commits)+1)
	for k, v := range p.commits {
		commits[k] = v
	}
	commits[zid] = commit{kind: exp}

	bodyUtility := p.BodyUtility
	ext := idx.ExtensionsOf(zid)

	switch exp.Kind {
	case ExpandApp:
		bodyUtility += term.CostNonterminal
		// Pushed Arg-then-Func so that under DepthFirst (which pops the
		// stack's tail) Func is chosen before Arg, matching the
		// Func < Body < Arg tie-break order spec.md §3 defines.
		if ext.Arg != nil {
			holes = append(holes, *ext.Arg)
		}
		if ext.Func != nil {
			holes = append(holes, *ext.Func)
		}
	case ExpandLam:
		bodyUtility += term.CostNonterminal
		if ext.Body != nil {
			holes = append(holes, *ext.Body)
		}
	case ExpandVar, ExpandPrim:
		bodyUtility += term.CostTerminal
	case ExpandExistingIVar:
		// No new holes, no body cost: the parameter itself is free. Still
		// recorded as a slot occurrence — reusing #i at a second position
		// is exactly what the utility model's multi-use bonus rewards, and
		// what RedundantArgument/ArgumentCapture compare against.
		slots = append(slots, ArgSlot{Zid: zid, IVar: exp.IVar})
	case ExpandNewIVar:
		slots = append(slots, ArgSlot{Zid: zid, IVar: exp.IVar})
	}

	locs := append([]term.Id{}, matchLocations...)
	sort.Slice(locs, func(i, j int) bool { return locs[i] < locs[j] })

	return &Pattern{
		Holes:          holes,
		ArgSlots:       slots,
		MatchLocations: locs,
		BodyUtility:    bodyUtility,
		commits:        commits,
	}
}

// BuildBody reconstructs the finished pattern's body as a real term.Id,
// walking commits from the pattern root (EMPTY_ZID) down. Panics (a
// malformed-pattern invariant violation) if called before IsFinished.
func (p *Pattern) BuildBody(store *term.Store, idx *zipper.Index) term.Id {
	return p.buildAt(store, idx, zipper.EmptyZID)
}

func (p *Pattern) buildAt(store *term.Store, idx *zipper.Index, zid zipper.ZID) term.Id {
	c, ok := p.commits[zid]
	if !ok {
		panic("pattern: BuildBody called on a position with no commit (pattern not finished)")
	}
	ext := idx.ExtensionsOf(zid)
	switch c.kind.Kind {
	case ExpandApp:
		f := p.buildAt(store, idx, *ext.Func)
		x := p.buildAt(store, idx, *ext.Arg)
		return store.App(f, x)
	case ExpandLam:
		b := p.buildAt(store, idx, *ext.Body)
		return store.Lam(b)
	case ExpandVar:
		return store.Var(c.kind.Var)
	case ExpandPrim:
		return store.Prim(c.kind.Sym)
	case ExpandExistingIVar, ExpandNewIVar:
		return store.IVar(c.kind.IVar)
	default:
		panic("pattern: unknown expansion kind")
	}
}

// FromClosedSubtree builds a fully-committed, zero-hole pattern whose
// body is exactly the subtree rooted at node — i.e. the arity-0
// candidate spec.md §4.4 rule 7 primes before search begins. node must
// have no free IVars (corpus subtrees never do) and idx must have been
// built over a node set that includes node's full subtree.
func FromClosedSubtree(store *term.Store, idx *zipper.Index, node term.Id) *Pattern {
	p := &Pattern{
		MatchLocations: []term.Id{node},
		BodyUtility:    store.Cost(node),
		commits:        make(map[zipper.ZID]commit),
	}
	p.commitSubtree(store, idx, zipper.EmptyZID, node)
	return p
}

func (p *Pattern) commitSubtree(store *term.Store, idx *zipper.Index, zid zipper.ZID, node term.Id) {
	n := store.Node(node)
	ext := idx.ExtensionsOf(zid)
	switch n.Kind {
	case term.KindApp:
		p.commits[zid] = commit{kind: Expansion{Kind: ExpandApp}}
		p.commitSubtree(store, idx, *ext.Func, n.Func)
		p.commitSubtree(store, idx, *ext.Arg, n.Arg)
	case term.KindLam:
		p.commits[zid] = commit{kind: Expansion{Kind: ExpandLam}}
		p.commitSubtree(store, idx, *ext.Body, n.Body)
	case term.KindVar:
		p.commits[zid] = commit{kind: Expansion{Kind: ExpandVar, Var: n.Index}}
	case term.KindPrim:
		p.commits[zid] = commit{kind: Expansion{Kind: ExpandPrim, Sym: n.Sym}}
	}
}

// Clone returns a deep-enough copy for pruning rules that need to
// inspect a hypothetical expansion without mutating the parent.
func (p *Pattern) Clone() *Pattern {
	commits := make(map[zipper.ZID]commit, len(p.commits))
	for k, v := range p.commits {
		commits[k] = v
	}
	return &Pattern{
		Holes:          append([]zipper.ZID{}, p.Holes...),
		ArgSlots:       append([]ArgSlot{}, p.ArgSlots...),
		MatchLocations: append([]term.Id{}, p.MatchLocations...),
		BodyUtility:    p.BodyUtility,
		UpperBound:     p.UpperBound,
		Tracked:        p.Tracked,
		commits:        commits,
	}
}
