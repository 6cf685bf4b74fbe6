package term

import (
	"strconv"
	"strings"
)

// Print renders the subtree rooted at id back into program syntax.
// Print(store, id) followed by Parse round-trips to the same Id for any
// subtree that contains no free IVars pointing outside an abstraction
// body (IVars print as "#i" just like in abstraction bodies).
func Print(store *Store, id Id) string {
	var b strings.Builder
	print1(store, id, &b)
	return b.String()
}

func print1(store *Store, id Id, b *strings.Builder) {
	n := store.Node(id)
	switch n.Kind {
	case KindVar:
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n.Index))
	case KindIVar:
		b.WriteByte('#')
		b.WriteString(strconv.Itoa(n.Index))
	case KindPrim:
		b.WriteString(n.Sym)
	case KindLam:
		b.WriteString("(lam ")
		print1(store, n.Body, b)
		b.WriteByte(')')
	case KindApp:
		// Flatten a left-leaning spine of Apps back into one
		// "(f a1 a2 ... an)" so printed output matches the surface
		// syntax's variadic-application sugar instead of nesting parens.
		var args []Id
		cur := id
		for {
			cn := store.Node(cur)
			if cn.Kind != KindApp {
				break
			}
			args = append(args, cn.Arg)
			cur = cn.Func
		}
		b.WriteByte('(')
		print1(store, cur, b)
		for i := len(args) - 1; i >= 0; i-- {
			b.WriteByte(' ')
			print1(store, args[i], b)
		}
		b.WriteByte(')')
	}
}
