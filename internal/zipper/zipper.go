// Package zipper builds the zipper index described in spec.md §4.2: a
// global table of canonical paths ("zippers") through the corpus's
// shared node DAG, plus, for every (zipper, anchor node) pair that
// actually occurs, the subtree that would be abstracted were a pattern
// hole placed there.
package zipper

import (
	"sort"
	"strconv"
	"strings"

	"absearch/internal/term"
)

// Direction is one step of a zipper. The ordering Func < Body < Arg
// mirrors spec.md §4's tie-breaking rule and is also iota's natural
// ordering here, so direction comparison is just integer comparison.
type Direction uint8

const (
	DirFunc Direction = iota
	DirBody
	DirArg
)

func (d Direction) String() string {
	switch d {
	case DirFunc:
		return "Func"
	case DirBody:
		return "Body"
	case DirArg:
		return "Arg"
	default:
		return "?"
	}
}

// ZID canonically identifies a zipper (a sequence of Directions).
// EmptyZID is the empty zipper: "this node itself".
type ZID int

const EmptyZID ZID = 0

// Extensions lists, for a zid, the zid reached by appending one more
// direction to its path — when that longer path is one any corpus node
// actually exercises.
type Extensions struct {
	Func, Body, Arg *ZID
}

// arg is the argument descriptor for one (zid, anchor node) pair: the
// raw (unconverted) descendant reached by walking the zipper, and the
// number of Body hops crossed along the way. The final, abstraction-
// ready subtree is computed on demand via Index.Arg, since it depends
// on term.Store's shift cache and is cheap to recompute from raw+depth.
type arg struct {
	raw   term.Id
	depth int
}

// Index is the built zipper index: the global zip table plus, per
// corpus node, the zids reachable from it and their argument descriptors.
type Index struct {
	zips       [][]Direction
	zidOf      map[string]ZID
	extensions []Extensions

	zidsOfNode map[term.Id][]ZID
	argOf      map[ZID]map[term.Id]arg

	// firstMergeable[z] is the first zid, in path-sorted order, whose
	// path is not an extension of z's own — see FirstMergeableZID.
	firstMergeable []ZID
}

func key(dirs []Direction) string {
	var b strings.Builder
	for _, d := range dirs {
		b.WriteByte(byte('0' + d))
	}
	return b.String()
}

func (idx *Index) registerZip(dirs []Direction) ZID {
	k := key(dirs)
	if z, ok := idx.zidOf[k]; ok {
		return z
	}
	z := ZID(len(idx.zips))
	cp := make([]Direction, len(dirs))
	copy(cp, dirs)
	idx.zips = append(idx.zips, cp)
	idx.zidOf[k] = z
	return z
}

// Build indexes every zipper reachable from the given nodes, which must
// be in child-first (ascending Id) order — corpus.Corpus.TreeNodes
// satisfies this directly, since term.Store assigns Ids that way.
func Build(store *term.Store, nodes []term.Id) *Index {
	idx := &Index{
		zidOf:      make(map[string]ZID),
		zidsOfNode: make(map[term.Id][]ZID),
		argOf:      make(map[ZID]map[term.Id]arg),
	}
	idx.registerZip(nil) // EmptyZID

	for _, n := range nodes {
		idx.seed(n)
		node := store.Node(n)
		switch node.Kind {
		case term.KindApp:
			idx.inherit(n, DirFunc, node.Func, false)
			idx.inherit(n, DirArg, node.Arg, false)
		case term.KindLam:
			idx.inherit(n, DirBody, node.Body, true)
		}
	}

	idx.buildExtensions()
	idx.buildFirstMergeable()
	return idx
}

func (idx *Index) seed(n term.Id) {
	idx.zidsOfNode[n] = append(idx.zidsOfNode[n], EmptyZID)
	idx.setArg(EmptyZID, n, arg{raw: n, depth: 0})
}

// inherit prepends dir to every zipper already known at child, attaching
// the extended zipper to n. crossesBody is true only for the Body
// direction: per spec.md §4.2 step 3, crossing a Body accumulates one
// more binder that the argument descriptor will need to account for
// (handled lazily by Index.Arg via term.InsertArgIVars).
func (idx *Index) inherit(n term.Id, dir Direction, child term.Id, crossesBody bool) {
	for _, zc := range idx.zidsOfNode[child] {
		dirs := append([]Direction{dir}, idx.zips[zc]...)
		z := idx.registerZip(dirs)
		idx.zidsOfNode[n] = append(idx.zidsOfNode[n], z)

		childArg := idx.argOf[zc][child]
		depth := childArg.depth
		if crossesBody {
			depth++
		}
		idx.setArg(z, n, arg{raw: childArg.raw, depth: depth})
	}
}

func (idx *Index) setArg(z ZID, n term.Id, a arg) {
	m, ok := idx.argOf[z]
	if !ok {
		m = make(map[term.Id]arg)
		idx.argOf[z] = m
	}
	m[n] = a
}

func (idx *Index) buildExtensions() {
	idx.extensions = make([]Extensions, len(idx.zips))
	for z, dirs := range idx.zips {
		var ext Extensions
		for _, d := range []Direction{DirFunc, DirBody, DirArg} {
			longer := append(append([]Direction{}, dirs...), d)
			if zc, ok := idx.zidOf[key(longer)]; ok {
				v := zc
				switch d {
				case DirFunc:
					ext.Func = &v
				case DirBody:
					ext.Body = &v
				case DirArg:
					ext.Arg = &v
				}
			}
		}
		idx.extensions[z] = ext
	}
}

// ZidsOfNode returns every zipper reachable from n.
func (idx *Index) ZidsOfNode(n term.Id) []ZID { return idx.zidsOfNode[n] }

// ExtensionsOf returns the zids reached by appending one more direction
// to z's path, when any corpus node actually has that longer path.
func (idx *Index) ExtensionsOf(z ZID) Extensions { return idx.extensions[z] }

// Path returns the direction sequence a zid denotes.
func (idx *Index) Path(z ZID) []Direction { return idx.zips[z] }

// HasArg reports whether zipper z reaches any descendant at all from n
// (i.e. n's subtree is deep enough along that path).
func (idx *Index) HasArg(z ZID, n term.Id) bool {
	_, ok := idx.argOf[z][n]
	return ok
}

// RawArg returns the unconverted descendant reached by walking z from n,
// without any binder-crossing correction applied. Used by match-location
// refinement, which only needs to inspect the descendant's own Kind.
func (idx *Index) RawArg(z ZID, n term.Id) term.Id {
	return idx.argOf[z][n].raw
}

// Arg returns the abstraction-ready argument subtree: the descendant
// reached by walking z from n, with any references to binders crossed
// along the way converted to IVars and everything else downshifted, per
// spec.md §4.2 step 3.
func (idx *Index) Arg(store *term.Store, z ZID, n term.Id) term.Id {
	a := idx.argOf[z][n]
	return store.InsertArgIVars(a.raw, a.depth)
}

// Depth returns the number of Body crossings accumulated along z from n.
func (idx *Index) Depth(z ZID, n term.Id) int {
	return idx.argOf[z][n].depth
}

// NumZids is the number of distinct zippers indexed.
func (idx *Index) NumZids() int { return len(idx.zips) }

// buildFirstMergeable precomputes, per zid, the boundary the original
// implementation calls first_mergeable_zid: sorting every zid
// lexicographically by its Direction path puts every zid whose path
// extends a given zid's path into one contiguous run starting right
// after it, so a caller scanning for zids that still share a prefix with
// z can binary-search/skip straight to FirstMergeableZID(z) instead of
// testing each candidate one at a time.
func (idx *Index) buildFirstMergeable() {
	type entry struct {
		zid  ZID
		path []Direction
	}
	entries := make([]entry, len(idx.zips))
	for z, p := range idx.zips {
		entries[z] = entry{zid: ZID(z), path: p}
	}
	sort.Slice(entries, func(i, j int) bool { return lessPath(entries[i].path, entries[j].path) })

	idx.firstMergeable = make([]ZID, len(idx.zips))
	for i, e := range entries {
		j := i + 1
		for j < len(entries) && hasPrefix(entries[j].path, e.path) {
			j++
		}
		boundary := ZID(len(idx.zips)) // sentinel: nothing left to merge
		if j < len(entries) {
			boundary = entries[j].zid
		}
		idx.firstMergeable[e.zid] = boundary
	}
}

func hasPrefix(path, prefix []Direction) bool {
	if len(path) < len(prefix) {
		return false
	}
	for i, d := range prefix {
		if path[i] != d {
			return false
		}
	}
	return true
}

func lessPath(a, b []Direction) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// FirstMergeableZID returns the first zid (in path-sorted order) whose
// path is not an extension of z's own path — SPEC_FULL.md §12's
// first_mergeable_zid acceleration. Returns NumZids() as a sentinel when
// every remaining zid in sorted order still extends z.
func (idx *Index) FirstMergeableZID(z ZID) ZID { return idx.firstMergeable[z] }

// String renders a zid as "Func.Body.Arg"-style path, for diagnostics.
func (idx *Index) String(z ZID) string {
	dirs := idx.zips[z]
	if len(dirs) == 0 {
		return "ε"
	}
	parts := make([]string, len(dirs))
	for i, d := range dirs {
		parts[i] = d.String()
	}
	return strings.Join(parts, ".") + "#" + strconv.Itoa(int(z))
}
