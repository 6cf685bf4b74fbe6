package term

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var docParser = buildParser()

func buildParser() *participle.Parser[astDocument] {
	p, err := participle.Build[astDocument](
		participle.Lexer(exprLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(4),
	)
	if err != nil {
		panic(fmt.Errorf("term: failed to build parser: %w", err))
	}
	return p
}

// Position locates a point in program source, mirroring participle's
// lexer.Position so internal/diag can render carets without importing
// participle itself.
type Position struct {
	Filename string
	Line     int
	Column   int
}

// ParseError is returned by Parse on malformed program source. It always
// carries a Position so callers can render a caret diagnostic.
type ParseError struct {
	Pos     Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Message)
}

// Parse parses one program string into the given store, returning the Id
// of its root node. name is used only for error messages (e.g. a task
// label or an index like "program[3]").
func Parse(store *Store, name, source string) (Id, error) {
	doc, err := docParser.ParseString(name, source)
	if err != nil {
		pos := Position{Filename: name}
		if pe, ok := err.(participle.Error); ok {
			p := pe.Position()
			pos = Position{Filename: p.Filename, Line: p.Line, Column: p.Column}
		}
		return 0, &ParseError{Pos: pos, Message: err.Error()}
	}
	return convert(store, doc.Root)
}

func convert(store *Store, e *astExpr) (Id, error) {
	switch {
	case e.Var != nil:
		idx, err := strconv.Atoi(e.Var.Idx)
		if err != nil || idx < 0 {
			return 0, &ParseError{Pos: fromLexer(e.Var.Pos), Message: fmt.Sprintf("invalid variable index %q", e.Var.Idx)}
		}
		return store.Var(idx), nil

	case e.IVar != nil:
		idx, err := strconv.Atoi(e.IVar.Idx)
		if err != nil || idx < 0 {
			return 0, &ParseError{Pos: fromLexer(e.IVar.Pos), Message: fmt.Sprintf("invalid ivar index %q", e.IVar.Idx)}
		}
		return store.IVar(idx), nil

	case e.Lam != nil:
		body, err := convert(store, e.Lam.Body)
		if err != nil {
			return 0, err
		}
		return store.Lam(body), nil

	case e.List != nil:
		if len(e.List.Elems) == 0 {
			return 0, &ParseError{Pos: fromLexer(e.List.Pos), Message: "empty parenthesized expression"}
		}
		acc, err := convert(store, e.List.Elems[0])
		if err != nil {
			return 0, err
		}
		for _, rest := range e.List.Elems[1:] {
			x, err := convert(store, rest)
			if err != nil {
				return 0, err
			}
			acc = store.App(acc, x)
		}
		return acc, nil

	case e.Sym != nil:
		return store.Prim(*e.Sym), nil

	default:
		return 0, &ParseError{Pos: fromLexer(e.Pos), Message: "empty expression"}
	}
}

func fromLexer(p lexer.Position) Position {
	return Position{Filename: p.Filename, Line: p.Line, Column: p.Column}
}
