package diag

import "fmt"

// InvariantViolation is panicked by internal code that detects a broken
// soundness invariant (malformed store, upper-bound violation, cost
// mismatch after rewriting) — conditions that indicate a bug rather than
// bad input, and so are never recovered from deep in the call stack.
// cmd/absearch recovers exactly one of these at the top level and exits
// nonzero with the code and message attached.
type InvariantViolation struct {
	Code    string // E2xxx store, E3xxx search, E4xxx rewrite
	Message string
}

func (e InvariantViolation) Error() string {
	return fmt.Sprintf("[%s]: %s", e.Code, e.Message)
}

// Panicf panics with an InvariantViolation built from code and a
// formatted message.
func Panicf(code, format string, args ...any) {
	panic(InvariantViolation{Code: code, Message: fmt.Sprintf(format, args...)})
}
