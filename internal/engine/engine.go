// Package engine ties every other package together into spec.md §6's
// compression_step(): parse input, build the corpus and zipper indexes,
// run the search, rewrite the corpus for each accepted abstraction, and
// assemble the output records the CLI prints as JSON.
package engine

import (
	"fmt"
	"strings"

	"absearch/internal/corpus"
	"absearch/internal/diag"
	"absearch/internal/format"
	"absearch/internal/obslog"
	"absearch/internal/rewrite"
	"absearch/internal/search"
	"absearch/internal/term"
	"absearch/internal/zipper"
)

// Config is this compression step's full configuration: which input
// format to parse, the search engine's own knobs, and the bookkeeping
// needed for correct multi-step abstraction naming (spec.md §6:
// "fn_i with i = count of previously accepted abstractions + index
// within this step").
type Config struct {
	InputKind            format.Kind
	Search               search.Config
	PrevAbstractionCount int

	// OrigInitCost, when nonzero, is the very first compression step's
	// init_cost in a multi-step chain, letting multiplier_wrt_orig track
	// overall progress instead of just this step's. Defaults to this
	// step's own init_cost (multiplier_wrt_orig == multiplier) when zero,
	// i.e. for a standalone or first step.
	OrigInitCost int
}

// Use is one concrete call site's rendered arguments, keyed the way
// spec.md §6 describes: "name arg1 … argk" mapping to the substituted
// expression.
type Use struct {
	Key  string
	Expr string
}

// StepResult is one accepted abstraction's full output record, per
// spec.md §6's Output bullet and SPEC_FULL §12's concrete typing of it.
type StepResult struct {
	Body  string
	Name  string
	Arity int

	Utility      int
	ExpectedCost int
	FinalCost    int

	Multiplier        float64
	MultiplierWrtOrig float64

	NumUses int
	Uses    []Use

	Rewritten           []string
	DreamCoder          string
	RewrittenDreamCoder []string
}

// Result is everything one compression step produces.
type Result struct {
	Steps []*StepResult
	Stats search.Stats

	// PrevInventions passes format.Input.PrevInventions through
	// unchanged — spec.md §6's "these placeholders reappear verbatim in
	// outputs alongside the #(lambda …) original" requirement, satisfied
	// by never re-expanding prev_dc_inv_i text, just carrying the
	// original productions' source alongside it for the caller to match up.
	PrevInventions []string
}

// CompressionStep runs one full compression pass: parse data in the
// given input format, build the corpus and search indexes, run the
// search, and rewrite the corpus for every donelist candidate.
func CompressionStep(cfg Config, data []byte, log *obslog.Logger) (*Result, error) {
	if log == nil {
		log = obslog.Nop()
	}
	elog := log.With("engine")

	in, err := format.Parse(cfg.InputKind, data)
	if err != nil {
		return nil, fmt.Errorf("engine: parsing input: %w", err)
	}

	store := term.NewStore()
	roots := make([]term.Id, len(in.Programs))
	for i, src := range in.Programs {
		id, perr := term.Parse(store, in.Tasks[i], src)
		if perr != nil {
			return nil, fmt.Errorf("engine: parsing program %d (task %s): %w", i, in.Tasks[i], perr)
		}
		roots[i] = id
	}

	c := corpus.Build(store, roots, in.Tasks)
	idx := zipper.Build(store, c.TreeNodes)

	origInit := cfg.OrigInitCost
	if origInit == 0 {
		origInit = c.InitCost()
	}

	elog.Infow("corpus built", "programs", len(in.Programs), "nodes", len(c.TreeNodes))

	res := search.RunSearch(store, c, idx, cfg.Search, log)
	elog.Infow("search finished", "candidates", len(res.Donelist))

	steps := make([]*StepResult, 0, len(res.Donelist))
	for i, cand := range res.Donelist {
		name := fmt.Sprintf("fn_%d", cfg.PrevAbstractionCount+i)
		step, rerr := buildStepResult(store, c, idx, cand, name, origInit)
		if rerr != nil {
			return nil, rerr
		}
		steps = append(steps, step)
	}

	return &Result{Steps: steps, Stats: res.Stats, PrevInventions: in.PrevInventions}, nil
}

func buildStepResult(store *term.Store, c *corpus.Corpus, idx *zipper.Index, cand search.Candidate, name string, origInit int) (*StepResult, error) {
	p, calc := cand.Pattern, cand.Calc

	rw := rewrite.Apply(store, c, idx, p, calc, name)

	rewritten := make([]string, len(rw.Roots))
	for i, r := range rw.Roots {
		rewritten[i] = term.Print(store, r)
	}

	finalCost := 0
	for _, r := range rw.Roots {
		finalCost += store.Cost(r)
	}
	expectedCost := c.InitCost()

	multiplier := ratio(expectedCost, finalCost)
	multiplierWrtOrig := ratio(origInit, finalCost)

	body := term.Print(store, p.BuildBody(store, idx))

	uses := collectUses(store, idx, p, calc, name)

	dcBody := ivarsToVars(store, p.BuildBody(store, idx), p.Arity(), 0)
	for i := 0; i < p.Arity(); i++ {
		dcBody = store.Lam(dcBody)
	}
	dreamcoder := "#" + lamToLambda(term.Print(store, dcBody))

	rewrittenDC := make([]string, len(rewritten))
	for i, r := range rewritten {
		rewrittenDC[i] = lamToLambda(r)
	}

	if len(calc.Accept) == 0 {
		diag.Panicf("E3001", "engine: pattern %s has no match locations", name)
	}

	return &StepResult{
		Body:                body,
		Name:                name,
		Arity:               p.Arity(),
		Utility:             calc.Total,
		ExpectedCost:        expectedCost,
		FinalCost:           finalCost,
		Multiplier:          multiplier,
		MultiplierWrtOrig:   multiplierWrtOrig,
		NumUses:             len(uses),
		Uses:                uses,
		Rewritten:           rewritten,
		DreamCoder:          dreamcoder,
		RewrittenDreamCoder: rewrittenDC,
	}, nil
}

func ratio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

// lamToLambda reverses internal/format's DreamCoder lambda/lam syntax
// synonym, for rendering this grammar's terms back into DreamCoder's own
// surface syntax in dreamcoder/rewritten_dreamcoder output fields.
func lamToLambda(s string) string {
	return strings.ReplaceAll(s, "(lam ", "(lambda ")
}

// ivarsToVars closes a finished pattern's body into a standalone
// function term: every IVar(i) parameter reference found under depth
// of the body's own Lam binders becomes a bound Var(arity-1-i+depth), so
// wrapping the result in `arity` Lam binders produces exactly the curried
// function spec.md §6's "#(lambda …)" form expects (the innermost binder
// binds the last-applied argument, matching how Pattern.Expand's App
// ordering applies arguments left to right).
func ivarsToVars(store *term.Store, id term.Id, arity, depth int) term.Id {
	n := store.Node(id)
	switch n.Kind {
	case term.KindIVar:
		return store.Var(arity - 1 - n.Index + depth)
	case term.KindVar, term.KindPrim:
		return id
	case term.KindApp:
		f := ivarsToVars(store, n.Func, arity, depth)
		x := ivarsToVars(store, n.Arg, arity, depth)
		return store.App(f, x)
	case term.KindLam:
		b := ivarsToVars(store, n.Body, arity, depth+1)
		return store.Lam(b)
	default:
		return id
	}
}
