// Package pipeline implements the pass framework and driver of §4.3 and
// the external pipeline entry point of §6: a fixed, ordered table of
// passes run over an AST produced by the (external) parser and consumed
// by the (external) printer. It is deliberately unaware of what any
// individual pass does — that lives in internal/passes — mirroring
// other_examples/opencost-opencost's CompilerPass/ApplyAll split between
// "a pass is a function over the tree" and "the driver applies all of
// them in order", and other_examples/xyproto-flapc's fixed-point
// Optimizer loop for the passes that must repeat to convergence.
package pipeline

import (
	"fmt"

	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
)

// RenameStyle selects how P12 derives human-readable names.
type RenameStyle int

const (
	RenameRoleDerived RenameStyle = iota
	RenameDeterministicFresh
)

// PassID enumerates the 19 spec passes plus the two SPEC_FULL.md
// additions (P3a decoder-proxy resolution, P20 final peephole sweep) as a
// bitset so Options.EnabledPasses can turn any subset off, per §6's
// enable_pass bitset.
type PassID uint32

const (
	P1 PassID = 1 << iota
	P2
	P3a
	P3
	P4
	P5
	P6
	P7
	P8
	P9
	P10
	P11
	P12
	P13
	P14
	P15
	P16
	P17
	P18
	P19
	P20
)

// AllPasses is every pass identifier the driver knows about, in run order.
var AllPasses = []PassID{P1, P2, P3a, P3, P4, P5, P6, P7, P8, P9, P10, P11, P12, P13, P14, P15, P16, P17, P18, P19, P20}

// DefaultEnabled is every numbered pass P1-P19 plus P3a, matching §6's
// "default: all enabled" for the 19 spec passes. P20 (the SPEC_FULL.md
// final sweep) defaults to off since it is additive, not part of the
// numbered 19.
func DefaultEnabled() PassID {
	var mask PassID
	for _, p := range AllPasses {
		if p != P20 {
			mask |= p
		}
	}
	return mask
}

// Options is DeobfuscateOptions from §6.
type Options struct {
	EnabledPasses           PassID
	MaxFixedPointIterations int
	RenameStyle             RenameStyle
	PreserveComments        bool
	AnnotateWebpackModules  bool

	// Trace, if non-nil, receives one line per pass invocation (§2.6
	// Diagnostics); nil disables tracing entirely, mirroring the
	// teacher's `debug bool` gate rather than a logging framework.
	Trace TraceSink
}

// TraceSink is satisfied by any io.Writer; kept as its own tiny interface
// so callers don't need to import "io" just to pass os.Stderr in.
type TraceSink interface {
	Write(p []byte) (int, error)
}

// DefaultOptions returns the DeobfuscateOptions defaults from §6.
func DefaultOptions() Options {
	return Options{
		EnabledPasses:           DefaultEnabled(),
		MaxFixedPointIterations: 50,
		RenameStyle:             RenameRoleDerived,
		PreserveComments:        true,
		AnnotateWebpackModules:  true,
	}
}

func (o Options) enabled(id PassID) bool { return o.EnabledPasses&id != 0 }

// Pass is one entry in the fixed table: a name, whether the driver should
// repeat it to a fixed point, its identifier bit, and the function that
// applies it once.
type Pass struct {
	ID         PassID
	Name       string
	FixedPoint bool
	// Run applies the pass exactly once and reports what happened. It
	// must never panic on a malformed match; anything it cannot handle
	// safely is a skip, not a crash.
	Run func(p *fast.Program, report *diag.Report) diag.PassStats
}

// InvariantViolation is fatal per §7: a pass produced a tree that fails
// the post-pass structural validator. It names the offending pass so the
// caller can report a distinctive exit code and location.
type InvariantViolation struct {
	Pass   string
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation after pass %q: %s", e.Pass, e.Detail)
}

// Deobfuscate runs passes over p in the given order, applying
// fixed-point passes to convergence (bounded by
// MaxFixedPointIterations) and one-shot passes exactly once, per §4.3.
// It returns the (mutated in place) program, a diagnostics report, and a
// non-nil error only for an InvariantViolation — every other failure
// mode is folded into the report per §7's propagation policy.
func Deobfuscate(p *fast.Program, passes []Pass, opts Options) (*fast.Program, *diag.Report, error) {
	report := diag.New(traceWriter(opts.Trace))

	for _, pass := range passes {
		if !opts.enabled(pass.ID) {
			continue
		}

		if !pass.FixedPoint {
			stats := pass.Run(p, report)
			stats.Pass = pass.Name
			report.Record(stats)
			if err := validate(p, pass.Name); err != nil {
				return p, report, err
			}
			continue
		}

		iter := 0
		for {
			iter++
			stats := pass.Run(p, report)
			stats.Pass = pass.Name
			stats.Iteration = iter
			report.Record(stats)
			if err := validate(p, pass.Name); err != nil {
				return p, report, err
			}
			if stats.Rewrites == 0 {
				break
			}
			if iter >= opts.MaxFixedPointIterations {
				report.RecordBudgetExceeded(pass.Name)
				break
			}
		}
	}

	return p, report, nil
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func traceWriter(t TraceSink) TraceSink {
	if t == nil {
		return nopWriter{}
	}
	return t
}
