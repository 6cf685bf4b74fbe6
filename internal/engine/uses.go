package engine

import (
	"sort"
	"strings"

	"absearch/internal/pattern"
	"absearch/internal/term"
	"absearch/internal/utility"
	"absearch/internal/zipper"
)

// collectUses renders one entry per accepted match location: spec.md
// §6's "uses: [{"name arg1 … argk": use_expr}]", where use_expr is the
// original (unshifted) expression the call replaces there — the same
// value internal/rewrite substitutes in, recomputed here for reporting
// rather than threaded through rewrite.Apply, since rewrite only needs
// the rewritten tree and engine only needs the text.
func collectUses(store *term.Store, idx *zipper.Index, p *pattern.Pattern, calc *utility.Calculation, name string) []Use {
	argZids := orderedArgZids(p)

	var locs []term.Id
	for _, loc := range p.MatchLocations {
		if calc.Accept[loc] {
			locs = append(locs, loc)
		}
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i] < locs[j] })

	uses := make([]Use, 0, len(locs))
	for _, loc := range locs {
		args := make([]string, len(argZids))
		keyParts := make([]string, 0, len(argZids)+1)
		keyParts = append(keyParts, name)
		for i, z := range argZids {
			raw := idx.RawArg(z, loc)
			args[i] = term.Print(store, raw)
			keyParts = append(keyParts, args[i])
		}
		uses = append(uses, Use{
			Key:  strings.Join(keyParts, " "),
			Expr: term.Print(store, loc),
		})
	}
	return uses
}

// orderedArgZids mirrors internal/rewrite's own helper: one
// representative zid per parameter index, ordered by ivar.
func orderedArgZids(p *pattern.Pattern) []zipper.ZID {
	firstZid := make(map[int]zipper.ZID)
	for _, s := range p.ArgSlots {
		if _, ok := firstZid[s.IVar]; !ok {
			firstZid[s.IVar] = s.Zid
		}
	}
	ivars := make([]int, 0, len(firstZid))
	for iv := range firstZid {
		ivars = append(ivars, iv)
	}
	sort.Ints(ivars)

	out := make([]zipper.ZID, len(ivars))
	for i, iv := range ivars {
		out[i] = firstZid[iv]
	}
	return out
}
