// Package diag implements the pipeline's diagnostics: per-pass counters
// that let the driver detect suspicious yield without aborting the run
// (§7 of the specification), plus an optional trace sink modeled on the
// teacher's debug-gated dumps and other_examples/you-not-fish-yoru's
// DumpBefore/DumpAfter stderr writer.
package diag

import (
	"fmt"
	"io"
	"strings"
)

// PassStats accumulates the outcome of running one pass once (or, for a
// fixed-point pass, one iteration of it).
type PassStats struct {
	Pass          string
	Iteration     int
	NodesVisited  int
	Rewrites      int
	Skipped       int // PatternMismatch, silently expected
	GuardFailures int // SemanticGuardFailure, logged but non-fatal
}

func (s PassStats) String() string {
	return fmt.Sprintf("%s[%d]: visited=%d rewrites=%d skipped=%d guard_failures=%d",
		s.Pass, s.Iteration, s.NodesVisited, s.Rewrites, s.Skipped, s.GuardFailures)
}

// GuardFailure records a SemanticGuardFailure: a pass recognized a
// pattern but declined to rewrite it because a safety precondition did
// not hold (e.g. P2's rotation count wasn't statically determinable).
type GuardFailure struct {
	Pass   string
	Reason string
}

// Report is the full diagnostics record for one pipeline run, returned
// alongside the transformed AST so callers can inspect what happened
// without the driver having to abort for anything short of an
// InvariantViolation.
type Report struct {
	Stats          []PassStats
	GuardFailures  []GuardFailure
	BudgetExceeded []string // pass names that hit max_fixed_point_iterations

	// ObjectDispatcherSeen counts SPEC_FULL.md's P1 diagnostic-only
	// detection of object-literal-driven control-flow dispatch, a shape
	// P1 recognizes but intentionally never rewrites (§9 Open Questions).
	ObjectDispatcherSeen int

	// WebpackModulesAnnotated counts the modules P19 identified inside a
	// bundler runtime's module table. go-fast's AST carries no comment
	// nodes to attach a human-readable label to (§9 Open Questions), so
	// annotation is diagnostic-only: each module's position in the table
	// is traced instead of attached to the tree itself; module keys and
	// names are not traced.
	WebpackModulesAnnotated int

	trace io.Writer
}

// New creates a Report. trace may be nil, in which case Trace is a no-op;
// this mirrors the teacher's `debug bool` gate rather than requiring a
// logging framework the corpus never reaches for.
func New(trace io.Writer) *Report {
	return &Report{trace: trace}
}

// Trace writes a line to the optional trace sink. Never fails the pipeline.
func (r *Report) Trace(format string, args ...any) {
	if r == nil || r.trace == nil {
		return
	}
	fmt.Fprintf(r.trace, format+"\n", args...)
}

// Record appends a pass's stats to the report and traces them.
func (r *Report) Record(s PassStats) {
	r.Stats = append(r.Stats, s)
	r.Trace("%s", s.String())
}

// RecordGuardFailure appends a semantic guard failure and traces it at
// what the spec calls debug level (i.e. only when a trace sink is set).
func (r *Report) RecordGuardFailure(pass, reason string) {
	r.GuardFailures = append(r.GuardFailures, GuardFailure{Pass: pass, Reason: reason})
	r.Trace("%s: guard failure: %s", pass, reason)
}

// RecordWebpackModule traces one identified bundler module without
// mutating the tree, per WebpackModulesAnnotated's doc comment.
func (r *Report) RecordWebpackModule(index int) {
	r.WebpackModulesAnnotated++
	r.Trace("webpack-module-annotate: module %d", index)
}

// RecordBudgetExceeded notes that a fixed-point pass hit its iteration
// cap and proceeded anyway with the partially simplified AST (§7,
// BudgetExceeded).
func (r *Report) RecordBudgetExceeded(pass string) {
	r.BudgetExceeded = append(r.BudgetExceeded, pass)
	r.Trace("%s: budget exceeded, proceeding with partial result", pass)
}

// Summary renders a compact human-readable digest, used by the CLI's
// --source-maps-free plain text summary and by tests asserting on shape
// rather than exact counts.
func (r *Report) Summary() string {
	var b strings.Builder
	for _, s := range r.Stats {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	if r.ObjectDispatcherSeen > 0 {
		fmt.Fprintf(&b, "object-literal dispatchers detected (unrewritten): %d\n", r.ObjectDispatcherSeen)
	}
	if r.WebpackModulesAnnotated > 0 {
		fmt.Fprintf(&b, "webpack modules annotated: %d\n", r.WebpackModulesAnnotated)
	}
	for _, p := range r.BudgetExceeded {
		fmt.Fprintf(&b, "%s: budget exceeded\n", p)
	}
	return b.String()
}

// TotalRewrites sums rewrites across every recorded pass invocation,
// used by tests checking idempotence (a second full run should total 0).
func (r *Report) TotalRewrites() int {
	total := 0
	for _, s := range r.Stats {
		total += s.Rewrites
	}
	return total
}
