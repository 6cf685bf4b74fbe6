// Package format implements spec.md §6's three program input formats
// and the DreamCoder-specific preprocessing (existing-abstraction
// placeholder substitution and the lambda/lam syntax synonym) that must
// run before any program string reaches internal/term's parser.
package format

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"absearch/internal/diag"
)

// Kind selects one of spec.md §6's three program input formats.
type Kind int

const (
	ProgramsList Kind = iota
	SplitProgramsList
	DreamCoder
)

// Input is a parsed (but not yet term.Parse'd) set of program sources,
// one task label per program, plus any prior DreamCoder inventions that
// were substituted out and must reappear verbatim in output records.
type Input struct {
	Programs []string
	Tasks    []string

	// PrevInventions[i] is the "(lambda ...)" text (its "#" prefix
	// stripped) that "prev_dc_inv_i" stands for; empty outside DreamCoder
	// input.
	PrevInventions []string
}

// Parse dispatches to the format-specific decoder. data is the raw file
// contents; for ProgramsList/SplitProgramsList this is a JSON array, for
// DreamCoder a JSON object.
func Parse(kind Kind, data []byte) (*Input, error) {
	switch kind {
	case ProgramsList:
		return parseProgramsList(data)
	case SplitProgramsList:
		return parseSplitProgramsList(data)
	case DreamCoder:
		return parseDreamCoder(data)
	default:
		diag.Panicf("E1100", "format: unknown input kind %d", kind)
		return nil, nil
	}
}

func parseProgramsList(data []byte) (*Input, error) {
	var progs []string
	if err := json.Unmarshal(data, &progs); err != nil {
		return nil, err
	}
	in := &Input{Programs: progs, Tasks: make([]string, len(progs))}
	for i := range progs {
		in.Tasks[i] = taskLabel(i)
	}
	return in, nil
}

func parseSplitProgramsList(data []byte) (*Input, error) {
	var split [][]string
	if err := json.Unmarshal(data, &split); err != nil {
		return nil, err
	}
	if len(split) != 2 {
		return nil, fmt.Errorf("format: split-programs-list must have exactly two arrays, got %d", len(split))
	}
	train := split[0]
	in := &Input{Programs: train, Tasks: make([]string, len(train))}
	for i := range train {
		in.Tasks[i] = taskLabel(i)
	}
	return in, nil
}

type dcFrontier struct {
	Task     string `json:"task"`
	Programs []struct {
		Program string `json:"program"`
	} `json:"programs"`
}

type dcProduction struct {
	Expression string `json:"expression"`
}

type dcFile struct {
	Frontiers []dcFrontier `json:"frontiers"`
	DSL       struct {
		Productions []dcProduction `json:"productions"`
	} `json:"DSL"`
}

// parseDreamCoder implements spec.md §6's DreamCoder format: every
// frontier program, task-labelled, with pre-existing abstractions
// (DSL.productions[].expression entries prefixed "#") replaced by
// prev_dc_inv_i placeholders, substituted in increasing expression-length
// order per spec.md §6, before the "(lambda ...)" -> "(lam ...)" syntax
// synonym is applied.
func parseDreamCoder(data []byte) (*Input, error) {
	var f dcFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	var inventions []string
	for _, p := range f.DSL.Productions {
		if strings.HasPrefix(p.Expression, "#") {
			inventions = append(inventions, strings.TrimPrefix(p.Expression, "#"))
		}
	}
	sort.Slice(inventions, func(i, j int) bool { return len(inventions[i]) < len(inventions[j]) })

	in := &Input{PrevInventions: inventions}
	for _, fr := range f.Frontiers {
		for _, p := range fr.Programs {
			in.Programs = append(in.Programs, substitutePrevInventions(p.Program, inventions))
			in.Tasks = append(in.Tasks, fr.Task)
		}
	}
	return in, nil
}

func substitutePrevInventions(program string, inventions []string) string {
	for i, expr := range inventions {
		program = strings.ReplaceAll(program, expr, placeholderName(i))
	}
	return lambdaSynonym(program)
}

// lambdaSynonym applies spec.md §6's DreamCoder-only surface-syntax
// rewrite: "(lambda " is accepted as a synonym of this grammar's "(lam ".
func lambdaSynonym(program string) string {
	return strings.ReplaceAll(program, "(lambda ", "(lam ")
}

func placeholderName(i int) string {
	return "prev_dc_inv_" + strconv.Itoa(i)
}

func taskLabel(i int) string {
	return "task_" + strconv.Itoa(i)
}
