package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	deast "github.com/fxnatic/jsdeobf/internal/ast"
	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

// PeepholeSweep is SPEC_FULL.md's P20, off by default: a final pass over
// a handful of idioms obfuscators use to spell trivial constants without
// touching a keyword the earlier passes' matchers already look for
// (`!![]`, `![]`, `+[]`, `[]+[]`, `+!+[]`), grounded on
// original_source's oxc_optimize.rs peephole list. It runs once, after
// every other pass has already had its chance, so it never fights P6's
// fixed point over the same nodes.
func PeepholeSweep() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P20, Name: "peephole-sweep", FixedPoint: false, Run: runPeepholeSweep}
}

func runPeepholeSweep(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}
	v := &peepholeVisitor{stats: &stats}
	v.V = v
	p.VisitWith(v)
	return stats
}

type peepholeVisitor struct {
	fast.NoopVisitor
	stats *diag.PassStats
}

func (v *peepholeVisitor) VisitExpression(n *fast.Expression) {
	n.VisitChildrenWith(v)
	v.stats.NodesVisited++

	if folded, ok := foldPeephole(n.Expr); ok {
		n.Expr = folded
		v.stats.Rewrites++
	}
}

func foldPeephole(e fast.Expr) (fast.Expr, bool) {
	switch x := e.(type) {
	case *fast.UnaryExpression:
		switch x.Operator.String() {
		case "!":
			if isEmptyArray(x.Operand.Expr) {
				return deast.Bool(false), true // ![] === false
			}
			if b, ok := truthiness(x.Operand.Expr); ok {
				return deast.Bool(!b), true // !![] === true once the inner ![] is false; !+[] === true once +[] is 0
			}
		case "+":
			if isEmptyArray(x.Operand.Expr) {
				return deast.Num(0), true // +[] === 0
			}
			if b, ok := x.Operand.Expr.(*fast.BooleanLiteral); ok {
				if b.Value {
					return deast.Num(1), true // +!+[] === 1 once !+[] is true
				}
				return deast.Num(0), true
			}
		}
	case *fast.BinaryExpression:
		if x.Operator.String() == "+" && isEmptyArray(x.Left.Expr) && isEmptyArray(x.Right.Expr) {
			return deast.Str(""), true // []+[] === ""
		}
	}
	return nil, false
}

func isEmptyArray(e fast.Expr) bool {
	arr, ok := e.(*fast.ArrayLiteral)
	return ok && len(arr.Value) == 0
}
