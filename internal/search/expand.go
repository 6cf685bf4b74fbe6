package search

import (
	"absearch/internal/pattern"
	"absearch/internal/prune"
	"absearch/internal/term"
	"absearch/internal/utility"
	"absearch/internal/zipper"
)

// expKey groups match locations that classify identically at one hole,
// so each distinct structural shape only spawns one child pattern
// instead of one per location. Existing-parameter reuse is grouped
// separately in step.
type expKey struct {
	kind pattern.ExpansionKind
	i    int    // Var index
	sym  string // Prim symbol
}

// step expands one worklist pattern: spec.md §4.7's inner loop. A
// finished pattern is scored and handed to the donelist; a partial one
// picks a hole, groups its surviving match locations by the expansion
// they admit there, and walks every group through the full pruning
// chain (§4.4) before either re-queuing a surviving child or discarding it.
func (s *Scheduler) step(p *pattern.Pattern) {
	if p.IsFinished() {
		s.finish(p)
		return
	}

	zid, rest := p.ChooseHole(s.cfg.HoleChoice, 0)
	p.Holes = rest

	groups := make(map[expKey][]term.Id)
	for _, loc := range p.MatchLocations {
		if !s.idx.HasArg(zid, loc) {
			continue
		}
		exp := pattern.ClassifyLocation(s.store, s.idx, zid, loc)
		k := expKey{kind: exp.Kind, i: exp.Var, sym: exp.Sym}
		groups[k] = append(groups[k], loc)
	}

	for key, locs := range groups {
		var exp pattern.Expansion
		switch key.kind {
		case pattern.ExpandApp:
			exp = pattern.Expansion{Kind: pattern.ExpandApp}
		case pattern.ExpandLam:
			exp = pattern.Expansion{Kind: pattern.ExpandLam}
		case pattern.ExpandVar:
			exp = pattern.Expansion{Kind: pattern.ExpandVar, Var: key.i}
			if prune.FreeVarsInBody(s.idx, zid, key.i) {
				s.stats.incr(&s.stats.FreeVarsWipFired)
				continue
			}
		case pattern.ExpandPrim:
			exp = pattern.Expansion{Kind: pattern.ExpandPrim, Sym: key.sym}
		}
		s.tryExpansion(p, zid, exp, locs)
	}

	// Existing-parameter reuse: try every already-committed ivar against
	// every surviving location at this hole.
	seen := map[int]bool{}
	for _, slot := range p.ArgSlots {
		if seen[slot.IVar] {
			continue
		}
		seen[slot.IVar] = true
		var matching []term.Id
		for _, loc := range p.MatchLocations {
			if pattern.MatchesExistingSlot(s.store, s.idx, zid, loc, slot) {
				matching = append(matching, loc)
			}
		}
		if len(matching) == 0 {
			continue
		}
		s.tryExpansion(p, zid, pattern.Expansion{Kind: pattern.ExpandExistingIVar, IVar: slot.IVar}, matching)

		// force-multiuse short-circuit (SPEC_FULL §12): this one existing
		// parameter alone already covers every surviving match location,
		// so no other existing ivar could possibly produce a larger
		// offspring group at this hole — stop scanning the rest.
		if len(matching) == len(p.MatchLocations) {
			s.stats.incr(&s.stats.ForceMultiuseFired)
			break
		}
	}

	// Fresh parameter: any location whose binder-converted arg here has no
	// free ivars can have this hole abstracted into a brand new parameter.
	if p.Arity() < s.cfg.MaxArity {
		var fresh []term.Id
		for _, loc := range p.MatchLocations {
			if !s.idx.HasArg(zid, loc) {
				continue
			}
			arg := s.idx.Arg(s.store, zid, loc)
			if s.store.FreeIVars(arg).Empty() {
				fresh = append(fresh, loc)
			}
		}
		if len(fresh) > 0 {
			s.tryExpansion(p, zid, pattern.Expansion{Kind: pattern.ExpandNewIVar, IVar: p.Arity()}, fresh)
		}
	}
}

// tryExpansion builds the child pattern for one (zid, exp, locations)
// candidate and runs it through the remaining pruning rules, then either
// finishes it, re-queues it, or drops it.
func (s *Scheduler) tryExpansion(p *pattern.Pattern, zid zipper.ZID, exp pattern.Expansion, locs []term.Id) {
	child := p.Expand(s.idx, zid, exp, locs)

	if prune.SingleUse(s.store, child) {
		s.stats.incr(&s.stats.SingleUseWipFired)
		return
	}
	if prune.SingleTask(s.corpus, child.MatchLocations) {
		s.stats.incr(&s.stats.SingleTaskFired)
		return
	}
	if len(child.ArgSlots) >= 2 && prune.RedundantArgument(s.store, s.idx, child) {
		s.stats.incr(&s.stats.RedundantArgFired)
		return
	}
	if len(child.ArgSlots) >= 1 && prune.ArgumentCapture(s.store, s.idx, child) {
		s.stats.incr(&s.stats.ArgCaptureFired)
		return
	}

	child.UpperBound = utility.UpperBound(s.store, s.corpus, child.MatchLocations)
	cutoff := s.currentCutoff()
	if prune.UpperBoundExceeded(child.UpperBound, cutoff) {
		s.stats.incr(&s.stats.UpperBoundFired)
		return
	}

	if child.IsFinished() {
		s.finish(child)
		return
	}

	s.stats.incr(&s.stats.PartialInvs)
	s.pushWork(child)
}

// finish scores a fully-committed pattern and admits it to the donelist.
func (s *Scheduler) finish(p *pattern.Pattern) {
	if prune.SingleUse(s.store, p) {
		s.stats.incr(&s.stats.SingleUseDoneFired)
		return
	}
	if prune.SingleTask(s.corpus, p.MatchLocations) {
		s.stats.incr(&s.stats.SingleTaskFired)
		return
	}
	calc := utility.Compute(s.store, s.corpus, s.idx, p, s.cfg.NoOtherUtil)
	s.stats.incr(&s.stats.FinishedInvs)
	s.insertDone(Candidate{Pattern: p, Calc: calc})
}
