package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	deast "github.com/fxnatic/jsdeobf/internal/ast"
	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
	"github.com/fxnatic/jsdeobf/internal/scope"
)

// DeadVariableEliminate is P8 (§4.2), a fixed-point pass: removes a
// variable declarator whose binding is never read and whose initializer
// is provably pure (§3's purity rule, shared with P6/P9/P10/P17), and
// drops an expression-statement whose expression is pure and whose value
// is discarded. Like P6 and P7 it is a fixed-point pass, which the driver
// repeats on its own until it makes no rewrite, since removing one
// declarator can drive another binding's read count to zero.
func DeadVariableEliminate() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P8, Name: "dead-variable-eliminate", FixedPoint: true, Run: runDeadVariableEliminate}
}

func runDeadVariableEliminate(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}
	table := scope.Analyze(p)
	p.Body = eliminateDeadVars(p.Body, table, &stats)
	return stats
}

func eliminateDeadVars(list []fast.Statement, table *scope.Table, stats *diag.PassStats) []fast.Statement {
	var out []fast.Statement
	for i := range list {
		stats.NodesVisited++
		switch s := list[i].Stmt.(type) {
		case *fast.VariableDeclaration:
			s.List = filterDeadDeclarators(s.List, table, stats)
			if len(s.List) == 0 {
				continue
			}
		case *fast.ExpressionStatement:
			if s.Expression != nil && deast.IsPure(s.Expression.Expr) {
				stats.Rewrites++
				continue
			}
		case *fast.BlockStatement:
			s.List = eliminateDeadVars(s.List, table, stats)
		case *fast.FunctionDeclaration:
			if s.Function != nil && s.Function.Body != nil {
				s.Function.Body.List = eliminateDeadVars(s.Function.Body.List, table, stats)
			}
		}
		out = append(out, list[i])
	}
	return out
}

func filterDeadDeclarators(decls []fast.VariableDeclarator, table *scope.Table, stats *diag.PassStats) []fast.VariableDeclarator {
	var out []fast.VariableDeclarator
	for i := range decls {
		id, ok := decls[i].Target.Target.(*fast.Identifier)
		if !ok {
			out = append(out, decls[i])
			continue
		}
		b := table.Get(id.ToId())
		hasSideEffect := decls[i].Initializer != nil && !deast.IsPure(decls[i].Initializer.Expr)
		if b != nil && b.Reads == 0 && !b.Captured && !hasSideEffect {
			stats.Rewrites++
			continue
		}
		out = append(out, decls[i])
	}
	return out
}
