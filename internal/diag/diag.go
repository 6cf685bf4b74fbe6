// Package diag renders caret-style diagnostics for parse and invariant
// errors, adapted from kanso's compiler error reporter: same header,
// gutter, and underline-marker layout, retargeted at program-syntax
// positions (internal/term.Position) instead of an AST.
//
// Error codes are grouped by the subsystem that raised them:
//
//	E1xxx  program-syntax parse errors (internal/term)
//	E2xxx  store/shift invariant violations (internal/term)
//	E3xxx  search invariant violations (internal/search, internal/prune)
//	E4xxx  rewrite invariant violations (internal/rewrite)
package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"absearch/internal/term"
)

// Level is the severity of a Diagnostic.
type Level string

const (
	LevelError Level = "error"
	LevelWarn  Level = "warning"
	LevelNote  Level = "note"
)

// Diagnostic is one reportable problem, located in program source.
type Diagnostic struct {
	Level    Level
	Code     string // e.g. "E1001"
	Message  string
	Pos      term.Position
	Length   int
	Notes    []string
	HelpText string
}

// FromParseError converts a term.ParseError into a Diagnostic with
// code E1000.
func FromParseError(err *term.ParseError) Diagnostic {
	return Diagnostic{
		Level:   LevelError,
		Code:    "E1000",
		Message: err.Message,
		Pos:     err.Pos,
		Length:  1,
	}
}

// Reporter formats Diagnostics against one source file, the way kanso's
// ErrorReporter renders CompilerErrors: a header line, a "--> file:L:C"
// location line, one line of surrounding context either side, and an
// underline marker under the offending span.
type Reporter struct {
	filename string
	lines    []string
}

// NewReporter builds a Reporter over source, splitting it once so
// repeated Format calls don't re-split.
func NewReporter(filename, source string) *Reporter {
	return &Reporter{filename: filename, lines: strings.Split(source, "\n")}
}

// Format renders d as a multi-line, colorized diagnostic.
func (r *Reporter) Format(d Diagnostic) string {
	var b strings.Builder

	levelColor := levelColorOf(d.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if d.Code != "" {
		fmt.Fprintf(&b, "%s[%s]: %s\n", levelColor(string(d.Level)), d.Code, d.Message)
	} else {
		fmt.Fprintf(&b, "%s: %s\n", levelColor(string(d.Level)), d.Message)
	}

	width := lineNumberWidth(d.Pos.Line)
	indent := strings.Repeat(" ", width)
	fmt.Fprintf(&b, "%s %s %s:%d:%d\n", indent, dim("-->"), r.filename, d.Pos.Line, d.Pos.Column)
	fmt.Fprintf(&b, "%s %s\n", indent, dim("│"))

	if d.Pos.Line > 1 && d.Pos.Line-1 <= len(r.lines) {
		fmt.Fprintf(&b, "%s %s %s\n", dim(pad(d.Pos.Line-1, width)), dim("│"), r.lines[d.Pos.Line-2])
	}

	if d.Pos.Line >= 1 && d.Pos.Line <= len(r.lines) {
		fmt.Fprintf(&b, "%s %s %s\n", bold(pad(d.Pos.Line, width)), dim("│"), r.lines[d.Pos.Line-1])
		marker := strings.Repeat(" ", max0(d.Pos.Column-1)) + color.New(color.FgRed, color.Bold).SprintFunc()(strings.Repeat("^", max1(d.Length)))
		fmt.Fprintf(&b, "%s %s %s\n", indent, dim("│"), marker)
	}

	if d.Pos.Line < len(r.lines) {
		fmt.Fprintf(&b, "%s %s %s\n", dim(pad(d.Pos.Line+1, width)), dim("│"), r.lines[d.Pos.Line])
	}

	for _, note := range d.Notes {
		fmt.Fprintf(&b, "%s %s %s %s\n", indent, dim("│"), color.New(color.FgBlue).Sprint("note:"), note)
	}
	if d.HelpText != "" {
		fmt.Fprintf(&b, "%s %s %s %s\n", indent, dim("│"), color.New(color.FgGreen).Sprint("help:"), d.HelpText)
	}

	b.WriteByte('\n')
	return b.String()
}

func levelColorOf(l Level) func(a ...interface{}) string {
	switch l {
	case LevelWarn:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case LevelNote:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

func lineNumberWidth(line int) int {
	w := len(fmt.Sprintf("%d", line))
	if w < 3 {
		w = 3
	}
	return w
}

func pad(n, width int) string {
	return fmt.Sprintf("%*d", width, n)
}

func max0(n int) int {
	if n > 0 {
		return n
	}
	return 0
}

func max1(n int) int {
	if n > 0 {
		return n
	}
	return 1
}
