package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

// TernaryToIf is P16 (§4.2): an expression statement whose whole
// expression is a conditional used only for its side effects
// (`cond ? f() : g();`) is rewritten to an `if`/`else` statement, which
// reads far closer to what the obfuscator flattened out of in the first
// place than a value-discarding ternary does.
func TernaryToIf() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P16, Name: "ternary-to-if", FixedPoint: false, Run: runTernaryToIf}
}

func runTernaryToIf(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}
	p.Body = ternaryToIfInList(p.Body, &stats)
	return stats
}

func ternaryToIfInList(list []fast.Statement, stats *diag.PassStats) []fast.Statement {
	for i := range list {
		stats.NodesVisited++
		switch s := list[i].Stmt.(type) {
		case *fast.BlockStatement:
			s.List = ternaryToIfInList(s.List, stats)
		case *fast.FunctionDeclaration:
			if s.Function != nil && s.Function.Body != nil {
				s.Function.Body.List = ternaryToIfInList(s.Function.Body.List, stats)
			}
		case *fast.ExpressionStatement:
			if s.Expression == nil {
				continue
			}
			cond, ok := s.Expression.Expr.(*fast.ConditionalExpression)
			if !ok {
				continue
			}
			list[i] = fast.Statement{Stmt: &fast.IfStatement{
				Test:       cond.Test,
				Consequent: exprStatementPtr(cond.Consequent),
				Alternate:  exprStatementPtr(cond.Alternate),
			}}
			stats.Rewrites++
		}
	}
	return list
}

func exprStatementPtr(e *fast.Expression) *fast.Statement {
	return &fast.Statement{Stmt: &fast.ExpressionStatement{Expression: e}}
}
