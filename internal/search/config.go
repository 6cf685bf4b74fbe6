package search

import "absearch/internal/pattern"

// Config mirrors spec.md §6's configuration flags plus the supplemented
// knobs from SPEC_FULL.md §12 pulled out of the original Rust
// implementation's compression_step config. Every cobra flag in
// cmd/absearch binds directly to one of these fields, except --input,
// --format and --prev_abstraction_count, which feed engine.Config.
type Config struct {
	MaxArity      int
	Threads       int
	InvCandidates int
	HoleChoice    pattern.HolePolicy

	NoTopLambda  bool // exclude top-level Lam from initial match locations
	NoOtherUtil  bool // disable noncompressive utility
	RewriteCheck bool // has no effect: rewrite.Apply treats every cost mismatch as fatal; there is no warning-only mode

	// MaxRefinementArity is accepted for config-format compatibility but
	// inert: the refinement extension (spec.md §9's open question) is not
	// implemented, per spec.md §9's own instruction that it is optional
	// future work rather than required behavior.
	MaxRefinementArity int

	// Lossy is SPEC_FULL.md §12's supplemented cutoff-laxness knob,
	// carried over from the original implementation's lossy_candidates
	// mode: when set, the pruning cutoff tracks the donelist's best
	// utility instead of its worst. The original's other worklist-order
	// knobs (batch sizing, ascending/FIFO ordering) are not restored —
	// this scheduler always drains a single canonical max-heap one
	// pattern per lock acquisition, so there is no batch or alternate
	// ordering for such flags to select between; see SPEC_FULL.md §12.
	Lossy bool

	Track   bool
	Verbose bool
}

// DefaultConfig returns the engine's defaults, matching spec.md §4.3's
// "Default DepthFirst" and reasonable thread sizing.
func DefaultConfig() Config {
	return Config{
		MaxArity:      2,
		Threads:       1,
		InvCandidates: 1,
		HoleChoice:    pattern.DepthFirst,
	}
}
