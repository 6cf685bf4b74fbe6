package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"absearch/internal/term"
)

func TestFormatParseErrorIncludesCaret(t *testing.T) {
	src := "(+ 1\n"
	r := NewReporter("bad.prog", src)
	d := FromParseError(&term.ParseError{
		Pos:     term.Position{Filename: "bad.prog", Line: 1, Column: 5},
		Message: "unexpected end of input",
	})
	out := r.Format(d)
	assert.Contains(t, out, "E1000")
	assert.Contains(t, out, "bad.prog:1:5")
	assert.Contains(t, out, "unexpected end of input")
}

func TestInvariantViolationPanicsWithCode(t *testing.T) {
	defer func() {
		r := recover()
		iv, ok := r.(InvariantViolation)
		assert.True(t, ok)
		assert.Equal(t, "E2001", iv.Code)
	}()
	Panicf("E2001", "store corrupted: id %d out of range", 42)
}
