package term

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// exprLexer tokenizes the program syntax shared across all three input
// formats (spec.md §6): s-expressions, "(lam BODY)" binders, "(f x)"
// application, "$i"/"#i" de Bruijn and ivar references, and bare
// identifiers as primitives. Built the way kanso's own KansoLexer is
// built: a single stateful rule set, ordered so punctuation and sigils
// are matched before the catch-all atom rule.
var exprLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Whitespace", `[ \t\r\n]+`, nil},
		{"LParen", `\(`, nil},
		{"RParen", `\)`, nil},
		{"Dollar", `\$`, nil},
		{"Hash", `#`, nil},
		{"Atom", `[^\s()$#]+`, nil},
	},
})

// astVar is "$i": a de Bruijn variable reference.
type astVar struct {
	Pos lexer.Position
	Idx string `"$" @Atom`
}

// astIVar is "#i": an abstraction-parameter placeholder reference.
type astIVar struct {
	Pos lexer.Position
	Idx string `"#" @Atom`
}

// astLam is "(lam BODY)".
type astLam struct {
	Pos  lexer.Position
	Body *astExpr `"(" "lam" @@ ")"`
}

// astList is "(e1 e2 ... en)", folded into left-associative application
// during conversion (n==1 is just a parenthesized sub-expression).
type astList struct {
	Pos   lexer.Position
	Elems []*astExpr `"(" @@+ ")"`
}

// astExpr is the union of every expression shape. Branches are tried in
// order and the first that parses wins; Lam is tried before the general
// List so "(lam ...)" commits to the binder reading whenever the body is
// exactly one expression, falling back to treating "lam" as an ordinary
// primitive symbol in any other shape (e.g. "(lam a b)").
type astExpr struct {
	Pos  lexer.Position
	Var  *astVar  `  @@`
	IVar *astIVar `| @@`
	Lam  *astLam  `| @@`
	List *astList `| @@`
	Sym  *string  `| @Atom`
}

// astDocument is the grammar's top-level rule: exactly one expression.
type astDocument struct {
	Pos  lexer.Position
	Root *astExpr `@@`
}
