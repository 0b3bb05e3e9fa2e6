package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	deast "github.com/fxnatic/jsdeobf/internal/ast"
	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

// ShortCircuitToIf is P17 (§4.2): an expression statement whose whole
// expression is a `&&` or `||` used only for its side effect
// (`cond && doThing();` / `cond || doThing();`) is rewritten to an `if`
// statement: `if (cond) doThing();` for `&&`, and
// `if (cond) {} else doThing();` for `||` (an empty consequent with the
// call in the else branch; the test is not negated). Only the top-level
// operator is converted: `a && b && c();` becomes `if (a && b) c();`.
// A statement whose left operand is not pure is left unchanged.
func ShortCircuitToIf() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P17, Name: "short-circuit-to-if", FixedPoint: false, Run: runShortCircuitToIf}
}

func runShortCircuitToIf(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}
	p.Body = shortCircuitInList(p.Body, &stats)
	return stats
}

func shortCircuitInList(list []fast.Statement, stats *diag.PassStats) []fast.Statement {
	for i := range list {
		stats.NodesVisited++
		switch s := list[i].Stmt.(type) {
		case *fast.BlockStatement:
			s.List = shortCircuitInList(s.List, stats)
		case *fast.FunctionDeclaration:
			if s.Function != nil && s.Function.Body != nil {
				s.Function.Body.List = shortCircuitInList(s.Function.Body.List, stats)
			}
		case *fast.ExpressionStatement:
			if s.Expression == nil {
				continue
			}
			bin, ok := s.Expression.Expr.(*fast.BinaryExpression)
			if !ok {
				continue
			}
			op := bin.Operator.String()
			if op != "&&" && op != "||" {
				continue
			}
			if !deast.IsPure(bin.Left.Expr) {
				continue
			}
			ifStmt := &fast.IfStatement{Test: bin.Left}
			if op == "&&" {
				ifStmt.Consequent = exprStatementPtr(bin.Right)
			} else {
				// `cond || f()` runs f() only when cond is falsy; expressed
				// without a synthesized "!" token as an empty-then branch
				// with the call moved to else.
				ifStmt.Consequent = &fast.Statement{Stmt: &fast.BlockStatement{}}
				ifStmt.Alternate = exprStatementPtr(bin.Right)
			}
			list[i] = fast.Statement{Stmt: ifStmt}
			stats.Rewrites++
		}
	}
	return list
}
