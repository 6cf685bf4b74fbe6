package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrintRoundTrip(t *testing.T) {
	cases := []string{
		"(+ 1 2)",
		"(lam (+ $0 1))",
		"(f (g 1))",
		"$0",
		"#0",
		"foo",
	}
	for _, src := range cases {
		s := NewStore()
		id, err := Parse(s, "t", src)
		require.NoError(t, err, src)
		assert.Equal(t, src, Print(s, id), src)
	}
}

func TestHashConsing(t *testing.T) {
	s := NewStore()
	a, err := Parse(s, "t", "(+ 1 2)")
	require.NoError(t, err)
	b, err := Parse(s, "t", "(+ 1 2)")
	require.NoError(t, err)
	assert.Equal(t, a, b, "structurally equal subterms must share one Id")
}

func TestCost(t *testing.T) {
	s := NewStore()
	id, err := Parse(s, "t", "(+ 1 2)")
	require.NoError(t, err)
	// App(App(+,1),2): 2 Apps * COST_NONTERMINAL + 3 terminals * COST_TERMINAL
	assert.Equal(t, 2*CostNonterminal+3*CostTerminal, s.Cost(id))
}

func TestFreeVars(t *testing.T) {
	s := NewStore()
	id, err := Parse(s, "t", "(lam (+ $0 $1))")
	require.NoError(t, err)
	// $0 is bound by the lam; $1 is free and, after crossing one binder,
	// shows up as free variable 0 of the Lam node itself.
	fv := s.FreeVars(id)
	assert.Equal(t, 1, fv.Len())
	assert.True(t, fv.Contains(0))
}

func TestShiftBasic(t *testing.T) {
	s := NewStore()
	id, err := Parse(s, "t", "(+ $0 $1)")
	require.NoError(t, err)
	shifted, err := s.Shift(id, 2)
	require.NoError(t, err)
	assert.Equal(t, "(+ $2 $3)", Print(s, shifted))
}

func TestShiftUnderflow(t *testing.T) {
	s := NewStore()
	id, err := Parse(s, "t", "$0")
	require.NoError(t, err)
	_, err = s.Shift(id, -1)
	assert.ErrorIs(t, err, ErrShiftUnderflow)
}

func TestShiftRespectsBinders(t *testing.T) {
	s := NewStore()
	// $0 here is bound by the lam; only $1 (free) should shift.
	id, err := Parse(s, "t", "(lam (+ $0 $1))")
	require.NoError(t, err)
	shifted, err := s.Shift(id, 3)
	require.NoError(t, err)
	assert.Equal(t, "(lam (+ $0 $4))", Print(s, shifted))
}

func TestInsertArgIVars(t *testing.T) {
	s := NewStore()
	id, err := Parse(s, "t", "(+ $0 $1)")
	require.NoError(t, err)
	lifted := s.InsertArgIVars(id, 1)
	assert.Equal(t, "(+ #0 $0)", Print(s, lifted))
}

func TestShiftCacheConcurrent(t *testing.T) {
	s := NewStore()
	id, err := Parse(s, "t", "(+ $0 $1)")
	require.NoError(t, err)

	done := make(chan Id, 16)
	for i := 0; i < 16; i++ {
		go func() {
			shifted, err := s.Shift(id, 5)
			require.NoError(t, err)
			done <- shifted
		}()
	}
	var first Id
	for i := 0; i < 16; i++ {
		got := <-done
		if i == 0 {
			first = got
		} else {
			assert.Equal(t, first, got)
		}
	}
}

func TestParseErrorHasPosition(t *testing.T) {
	s := NewStore()
	_, err := Parse(s, "bad.prog", "(+ 1")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "bad.prog", pe.Pos.Filename)
}
