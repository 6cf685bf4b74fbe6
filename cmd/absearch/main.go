// Command absearch runs one library-learning compression step over a
// corpus of lambda-calculus programs: cobra flag plumbing around
// engine.CompressionStep, no business logic of its own, in the manner of
// arx-os's cmd/arx.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"absearch/internal/diag"
	"absearch/internal/engine"
	"absearch/internal/format"
	"absearch/internal/obslog"
	"absearch/internal/pattern"
	"absearch/internal/search"
	"absearch/internal/term"
)

var (
	inputPath     string
	inputFormat   string
	maxArity      int
	threads       int
	invCandidates int
	holeChoice    string
	noTopLambda   bool
	noOtherUtil   bool
	rewriteCheck  bool
	lossy         bool
	prevCount     int
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "absearch",
	Short: "Search for reusable abstractions across a corpus of programs",
	Long: `absearch runs one compression step of library learning over a corpus
of small lambda-calculus programs: it searches for an abstraction that,
once extracted and used to rewrite the corpus, most reduces total
program size, and prints the top candidates as JSON.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCompressionStep,
}

func init() {
	rootCmd.Flags().StringVar(&inputPath, "input", "", "path to the program corpus (required)")
	rootCmd.Flags().StringVar(&inputFormat, "format", "programs-list", "input format: programs-list, split-programs-list, dreamcoder")
	rootCmd.Flags().IntVar(&maxArity, "max_arity", 2, "maximum abstraction arity")
	rootCmd.Flags().IntVar(&threads, "threads", 1, "number of worker threads")
	rootCmd.Flags().IntVar(&invCandidates, "inv_candidates", 1, "number of top candidates to keep")
	rootCmd.Flags().StringVar(&holeChoice, "hole_choice", "depth_first", "hole expansion policy: depth_first, breadth_first")
	rootCmd.Flags().BoolVar(&noTopLambda, "no_top_lambda", false, "exclude top-level lambdas from initial match locations")
	rootCmd.Flags().BoolVar(&noOtherUtil, "no_other_util", false, "disable the noncompressive utility penalty")
	rootCmd.Flags().BoolVar(&rewriteCheck, "rewrite_check", true, "has no effect: a rewritten-cost mismatch is always fatal")
	rootCmd.Flags().BoolVar(&lossy, "lossy_candidates", false, "track the donelist's best utility as the cutoff instead of its worst")
	rootCmd.Flags().IntVar(&prevCount, "prev_abstraction_count", 0, "count of previously accepted abstractions, for fn_i naming")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable development-style logging")
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			if iv, ok := r.(diag.InvariantViolation); ok {
				fmt.Fprintln(os.Stderr, iv.Error())
				os.Exit(1)
			}
			panic(r)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCompressionStep(cmd *cobra.Command, args []string) error {
	if inputPath == "" {
		return fmt.Errorf("absearch: --input is required")
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("absearch: reading %s: %w", inputPath, err)
	}

	kind, err := parseFormatFlag(inputFormat)
	if err != nil {
		return err
	}
	policy, err := parseHoleChoiceFlag(holeChoice)
	if err != nil {
		return err
	}

	log := obslog.New(verbose)
	defer log.Sync()

	cfg := engine.Config{
		InputKind:            kind,
		PrevAbstractionCount: prevCount,
		Search: search.Config{
			MaxArity:      maxArity,
			Threads:       threads,
			InvCandidates: invCandidates,
			HoleChoice:    policy,
			NoTopLambda:   noTopLambda,
			NoOtherUtil:   noOtherUtil,
			RewriteCheck:  rewriteCheck,
			Lossy:         lossy,
			Verbose:       verbose,
		},
	}

	res, err := engine.CompressionStep(cfg, data, log)
	if err != nil {
		if reportParseError(kind, data, err) {
			os.Exit(1)
		}
		return err
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("absearch: encoding result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// reportParseError renders err as a caret diagnostic, the way
// cmd/kanso-cli's own reportParseError renders the compiler's syntax
// errors, when err wraps a *term.ParseError. It re-parses the input to
// recover the offending program's source text (not threaded through
// engine.CompressionStep's error chain), matching by task label and,
// where a label is reused across several programs in one frontier,
// by re-deriving the identical parse error to disambiguate. Returns
// false, printing nothing, for any other kind of error, leaving the
// caller to fall back to cobra's plain error path.
func reportParseError(kind format.Kind, data []byte, err error) bool {
	var pe *term.ParseError
	if !errors.As(err, &pe) {
		return false
	}

	source := ""
	if in, ferr := format.Parse(kind, data); ferr == nil {
		for i, task := range in.Tasks {
			if task != pe.Pos.Filename {
				continue
			}
			store := term.NewStore()
			_, reerr := term.Parse(store, task, in.Programs[i])
			if candidate, ok := reerr.(*term.ParseError); ok && *candidate == *pe {
				source = in.Programs[i]
				break
			}
		}
	}

	reporter := diag.NewReporter(pe.Pos.Filename, source)
	fmt.Fprint(os.Stderr, reporter.Format(diag.FromParseError(pe)))
	return true
}

func parseFormatFlag(s string) (format.Kind, error) {
	switch s {
	case "programs-list":
		return format.ProgramsList, nil
	case "split-programs-list":
		return format.SplitProgramsList, nil
	case "dreamcoder":
		return format.DreamCoder, nil
	default:
		return 0, fmt.Errorf("absearch: unknown --format %q", s)
	}
}

func parseHoleChoiceFlag(s string) (pattern.HolePolicy, error) {
	switch s {
	case "depth_first":
		return pattern.DepthFirst, nil
	case "breadth_first":
		return pattern.BreadthFirst, nil
	default:
		return 0, fmt.Errorf("absearch: unknown --hole_choice %q", s)
	}
}
