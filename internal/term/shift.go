package term

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"
)

// shiftCache memoizes Store.Shift and Store.InsertArgIVars results. Both
// operations are pure functions of (store-relative id, delta-or-depth),
// so once computed for a given store they never need recomputing —
// exactly the "single-writer lock or lock-free cache" spec.md §5 asks
// for, built here on ristretto (an admission-aware cache, generous
// overkill for the working set but the pack's idiomatic choice for
// read-heavy caches) guarded by a singleflight.Group so that two search
// threads racing to bubble the same argument through the same binder
// collapse into a single computation instead of duplicating work.
type shiftCache struct {
	store *Store
	cache *ristretto.Cache
	group singleflight.Group
}

func newShiftCache(s *Store) *shiftCache {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		// A cache is an optimization, never a correctness requirement;
		// fall back to recomputation if ristretto couldn't be built.
		c = nil
	}
	return &shiftCache{store: s, cache: c}
}

type shiftKey struct {
	op    byte // 's' = shift, 'i' = insertArgIVars
	id    Id
	delta int
}

func (c *shiftCache) get(k shiftKey) (Id, bool) {
	if c.cache == nil {
		return 0, false
	}
	v, ok := c.cache.Get(k)
	if !ok {
		return 0, false
	}
	return v.(Id), true
}

func (c *shiftCache) put(k shiftKey, id Id) {
	if c.cache == nil {
		return
	}
	c.cache.Set(k, id, 1)
}

// shift is the recursive implementation behind Store.Shift. depth counts
// binders crossed so far within this subtree: a Var is free (and so
// eligible for shifting) only if its index is >= depth.
func (c *shiftCache) shift(id Id, delta, depth int) (Id, error) {
	n := c.store.Node(id)

	switch n.Kind {
	case KindVar:
		if n.Index < depth {
			return id, nil // bound within the subtree being shifted
		}
		newIdx := n.Index + delta
		if newIdx < 0 {
			return 0, fmt.Errorf("%w: var %d shifted by %d", ErrShiftUnderflow, n.Index, delta)
		}
		return c.store.Var(newIdx), nil

	case KindIVar, KindPrim:
		return id, nil

	case KindApp:
		key := shiftKey{op: 's', id: id, delta: delta*1_000_003 + depth}
		if depth == 0 {
			if cached, ok := c.get(key); ok {
				return cached, nil
			}
		}
		f, err := c.shift(n.Func, delta, depth)
		if err != nil {
			return 0, err
		}
		x, err := c.shift(n.Arg, delta, depth)
		if err != nil {
			return 0, err
		}
		result := c.store.App(f, x)
		if depth == 0 {
			c.put(key, result)
		}
		return result, nil

	case KindLam:
		key := shiftKey{op: 's', id: id, delta: delta*1_000_003 + depth}
		if depth == 0 {
			if cached, ok := c.get(key); ok {
				return cached, nil
			}
		}
		b, err := c.shift(n.Body, delta, depth+1)
		if err != nil {
			return 0, err
		}
		result := c.store.Lam(b)
		if depth == 0 {
			c.put(key, result)
		}
		return result, nil

	default:
		panic(fmt.Sprintf("term: malformed node kind %d during shift", n.Kind))
	}
}

// shiftTop memoizes the outermost (depth==0) call per (id,delta) via
// singleflight, so concurrent callers shifting the same subtree by the
// same amount share one computation.
func (c *shiftCache) shiftTop(id Id, delta int) (Id, error) {
	sfKey := fmt.Sprintf("s:%d:%d", id, delta)
	v, err, _ := c.group.Do(sfKey, func() (interface{}, error) {
		return c.shift(id, delta, 0)
	})
	if err != nil {
		return 0, err
	}
	return v.(Id), nil
}

// insertArgIVars prepares a subtree for being bubbled up through `depth`
// Body crossings. A free Var(k) with k >= depth points past all of the
// crossed binders into real outer scope, so it is downshifted to
// Var(k - depth). A free Var(k) with k < depth points at one of the
// binders being left behind — that scope will no longer exist once the
// subtree is lifted out — so it is converted to IVar(depth-1-k),
// carrying its binding intent across the boundary explicitly instead of
// leaving a dangling reference.
func (c *shiftCache) insertArgIVars(id Id, depth int) Id {
	n := c.store.Node(id)

	switch n.Kind {
	case KindVar:
		if n.Index < depth {
			return c.store.IVar(depth - 1 - n.Index)
		}
		return c.store.Var(n.Index - depth)

	case KindIVar, KindPrim:
		return id

	case KindApp:
		key := shiftKey{op: 'i', id: id, delta: depth}
		if cached, ok := c.get(key); ok {
			return cached
		}
		f := c.insertArgIVars(n.Func, depth)
		x := c.insertArgIVars(n.Arg, depth)
		result := c.store.App(f, x)
		c.put(key, result)
		return result

	case KindLam:
		key := shiftKey{op: 'i', id: id, delta: depth}
		if cached, ok := c.get(key); ok {
			return cached
		}
		b := c.insertArgIVars(n.Body, depth+1)
		result := c.store.Lam(b)
		c.put(key, result)
		return result

	default:
		panic(fmt.Sprintf("term: malformed node kind %d during insertArgIVars", n.Kind))
	}
}
