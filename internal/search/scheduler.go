// Package search implements spec.md §4.7 (search control loop) and §5
// (the multi-threaded worklist/donelist scheduler), tying together
// internal/pattern, internal/prune, and internal/utility.
package search

import (
	"container/heap"
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"absearch/internal/corpus"
	"absearch/internal/obslog"
	"absearch/internal/pattern"
	"absearch/internal/prune"
	"absearch/internal/term"
	"absearch/internal/utility"
	"absearch/internal/zipper"
)

// Candidate is one accepted finished pattern sitting on the donelist.
type Candidate struct {
	Pattern *pattern.Pattern
	Calc    *utility.Calculation
}

// workHeap is a max-heap over Pattern.UpperBound, implementing
// spec.md §5's "priority worklist (max-heap keyed by utility_upper_bound)".
type workHeap []*pattern.Pattern

func (h workHeap) Len() int            { return len(h) }
func (h workHeap) Less(i, j int) bool  { return h[i].UpperBound > h[j].UpperBound }
func (h workHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *workHeap) Push(x interface{}) { *h = append(*h, x.(*pattern.Pattern)) }
func (h *workHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler holds every piece of shared mutable state spec.md §5
// describes as living behind one critical section: the worklist heap,
// the bounded sorted donelist, the pruning cutoff, and the active
// worker count. The active count is maintained but not consulted for
// termination: a worker exits as soon as it finds the worklist empty.
type Scheduler struct {
	mu     sync.Mutex
	heap   workHeap
	done   []Candidate
	cutoff int
	active int

	cfg    Config
	store  *term.Store
	corpus *corpus.Corpus
	idx    *zipper.Index
	log    *obslog.Logger
	stats  Stats
}

// Result is everything RunSearch produces.
type Result struct {
	Donelist []Candidate
	Stats    Stats
}

// RunSearch primes the arity-0 donelist, seeds the worklist with the
// single-hole initial pattern, and drives cfg.Threads worker goroutines
// via errgroup (grounded on zmux-server's errgroup-based pool) until the
// worklist is empty and no worker is active.
func RunSearch(store *term.Store, c *corpus.Corpus, idx *zipper.Index, cfg Config, log *obslog.Logger) *Result {
	if log == nil {
		log = obslog.Nop()
	}
	s := &Scheduler{cfg: cfg, store: store, corpus: c, idx: idx, log: log.With("search")}

	s.primeArityZero()

	initial := pattern.NewInitial(store, c.TreeNodes, cfg.NoTopLambda)
	initial.UpperBound = utility.UpperBound(store, c, initial.MatchLocations)
	s.heap = workHeap{initial}
	heap.Init(&s.heap)

	threads := cfg.Threads
	if threads < 1 {
		threads = 1
	}

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < threads; i++ {
		g.Go(func() error { return s.worker(ctx) })
	}
	_ = g.Wait() // worker never returns an error; errgroup just gives us the pool

	sort.SliceStable(s.done, func(i, j int) bool { return s.done[i].Calc.Total > s.done[j].Calc.Total })
	return &Result{Donelist: s.done, Stats: s.stats}
}

// worker is one scheduler thread: spec.md §4.7's loop. It returns as
// soon as pop finds the worklist empty, without waiting for workers that
// are still expanding and may push more patterns.
func (s *Scheduler) worker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		p, ok := s.pop()
		if !ok {
			return nil
		}
		s.step(p)
		s.release()
	}
}

// pop acquires the critical section, registers the caller as active if
// it actually receives work, and pops the best-bound pattern still
// above cutoff. It returns ok=false whenever the worklist is empty,
// whether or not other workers are still active.
func (s *Scheduler) pop() (*pattern.Pattern, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.heap.Len() > 0 && s.heap[0].UpperBound <= s.cutoff {
		heap.Pop(&s.heap)
		s.stats.incr(&s.stats.UpperBoundFired)
	}
	if s.heap.Len() == 0 {
		return nil, false
	}
	p := heap.Pop(&s.heap).(*pattern.Pattern)
	s.active++
	return p, true
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.active--
	s.mu.Unlock()
}

// primeArityZero seeds the donelist with every closed corpus subtree as
// an arity-0 candidate (rule 7), applying SingleTask uniformly rather
// than gating priming itself — see DESIGN.md's Open Question resolution.
func (s *Scheduler) primeArityZero() {
	candidates := prune.PrimeArityZero(s.store, s.corpus.TreeNodes)
	for _, cand := range candidates {
		p := pattern.FromClosedSubtree(s.store, s.idx, cand.Node)
		if prune.SingleTask(s.corpus, p.MatchLocations) {
			s.stats.incr(&s.stats.SingleTaskFired)
			continue
		}
		calc := utility.Compute(s.store, s.corpus, s.idx, p, s.cfg.NoOtherUtil)
		s.stats.incr(&s.stats.FinishedInvs)
		s.insertDone(Candidate{Pattern: p, Calc: calc})
	}
}

// insertDoneLocked adds a finished candidate to the bounded, sorted donelist
// and updates the cutoff. Must be called with s.mu held.
func (s *Scheduler) insertDoneLocked(c Candidate) {
	s.done = append(s.done, c)
	sort.SliceStable(s.done, func(i, j int) bool { return s.done[i].Calc.Total > s.done[j].Calc.Total })
	if s.cfg.InvCandidates > 0 && len(s.done) > s.cfg.InvCandidates {
		s.done = s.done[:s.cfg.InvCandidates]
	}
	if len(s.done) == 0 {
		return
	}
	if s.cfg.Lossy {
		// lossy_candidates (SPEC_FULL §12): track the *best* utility seen
		// so far instead of the worst survivor, pruning far more
		// aggressively at the cost of potentially missing candidates that
		// would have displaced a weaker donelist entry later.
		s.cutoff = s.done[0].Calc.Total
	} else {
		s.cutoff = s.done[len(s.done)-1].Calc.Total
	}
}

func (s *Scheduler) insertDone(c Candidate) {
	s.mu.Lock()
	s.insertDoneLocked(c)
	s.mu.Unlock()
}

func (s *Scheduler) pushWork(p *pattern.Pattern) {
	s.mu.Lock()
	heap.Push(&s.heap, p)
	s.mu.Unlock()
}

func (s *Scheduler) currentCutoff() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cutoff
}
