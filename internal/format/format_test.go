package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProgramsListAssignsOneTaskPerProgram(t *testing.T) {
	data := []byte(`["(+ 1 2)", "(+ 3 4)"]`)
	in, err := Parse(ProgramsList, data)
	require.NoError(t, err)
	require.Len(t, in.Programs, 2)
	assert.NotEqual(t, in.Tasks[0], in.Tasks[1])
}

func TestParseSplitProgramsListUsesOnlyTrain(t *testing.T) {
	data := []byte(`[["(+ 1 2)"], ["(+ 9 9)"]]`)
	in, err := Parse(SplitProgramsList, data)
	require.NoError(t, err)
	require.Len(t, in.Programs, 1)
	assert.Equal(t, "(+ 1 2)", in.Programs[0])
}

func TestParseDreamCoderSubstitutesInventionsAndSynonym(t *testing.T) {
	data := []byte(`{
		"DSL": {"productions": [{"expression": "#(lambda (+ $0 1))"}]},
		"frontiers": [
			{"task": "t1", "programs": [{"program": "(lambda (+ $0 1))"}]},
			{"task": "t2", "programs": [{"program": "(+ (lambda (+ $0 1)) 2)"}]}
		]
	}`)
	in, err := Parse(DreamCoder, data)
	require.NoError(t, err)
	require.Len(t, in.PrevInventions, 1)
	assert.Equal(t, "(lambda (+ $0 1))", in.PrevInventions[0])

	require.Len(t, in.Programs, 2)
	assert.Equal(t, "prev_dc_inv_0", in.Programs[0])
	assert.Equal(t, "(+ prev_dc_inv_0 2)", in.Programs[1])
	assert.Equal(t, []string{"t1", "t2"}, in.Tasks)
}

func TestLambdaSynonymAppliesOutsidePlaceholders(t *testing.T) {
	got := lambdaSynonym("(lambda (+ $0 1))")
	assert.Equal(t, "(lam (+ $0 1))", got)
}
