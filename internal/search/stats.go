package search

import "sync/atomic"

// Stats are the per-rule counters SPEC_FULL.md §12 supplements from the
// original implementation: incremented via atomics (so no separate lock
// is needed) and returned once at the end of a compression step in
// search.Result and engine.Result, not logged per-pattern or at all.
type Stats struct {
	PartialInvs        int64
	FinishedInvs        int64
	UpperBoundFired     int64
	FreeVarsDoneFired   int64
	FreeVarsWipFired    int64
	SingleUseDoneFired  int64
	SingleUseWipFired   int64
	SingleTaskFired     int64
	RedundantArgFired   int64
	ArgCaptureFired     int64
	ForceMultiuseFired  int64
}

func (s *Stats) incr(counter *int64) { atomic.AddInt64(counter, 1) }
