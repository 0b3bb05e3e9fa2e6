package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

// DeadCodeEliminate is P7 (§4.2), a fixed-point pass: drops statements
// that follow an unconditional return/throw/break/continue in the same
// block, resolves `if` statements whose test folded to a literal boolean
// to their taken branch, and drops `while(false)`/an empty statement.
// Like P6 and P8 it is a fixed-point pass: the driver repeats each of
// the three on its own until it makes no rewrite (grounded on
// xyproto-flapc__optimizer.go's iterate-to-fixed-point pattern).
func DeadCodeEliminate() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P7, Name: "dead-code-eliminate", FixedPoint: true, Run: runDeadCodeEliminate}
}

func runDeadCodeEliminate(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}
	p.Body = eliminateInList(p.Body, &stats)
	return stats
}

func eliminateInList(list []fast.Statement, stats *diag.PassStats) []fast.Statement {
	var out []fast.Statement
	terminated := false
	for i := range list {
		stats.NodesVisited++
		if terminated {
			stats.Rewrites++
			continue
		}

		stmt := list[i]
		switch s := stmt.Stmt.(type) {
		case *fast.BlockStatement:
			s.List = eliminateInList(s.List, stats)
		case *fast.IfStatement:
			if resolved, ok := resolveIf(s, stats); ok {
				out = append(out, resolved...)
				continue
			}
			if s.Consequent != nil {
				if b, ok := s.Consequent.Stmt.(*fast.BlockStatement); ok {
					b.List = eliminateInList(b.List, stats)
				}
			}
			if s.Alternate != nil {
				if b, ok := s.Alternate.Stmt.(*fast.BlockStatement); ok {
					b.List = eliminateInList(b.List, stats)
				}
			}
		case *fast.WhileStatement:
			if b, ok := truthiness(s.Test.Expr); ok && !b {
				stats.Rewrites++
				continue
			}
			if b, ok := s.Body.Stmt.(*fast.BlockStatement); ok {
				b.List = eliminateInList(b.List, stats)
			}
		case *fast.FunctionDeclaration:
			if s.Function != nil && s.Function.Body != nil {
				s.Function.Body.List = eliminateInList(s.Function.Body.List, stats)
			}
		case *fast.EmptyStatement:
			stats.Rewrites++
			continue
		}

		out = append(out, stmt)
		switch stmt.Stmt.(type) {
		case *fast.ReturnStatement, *fast.ThrowStatement, *fast.BreakStatement, *fast.ContinueStatement:
			terminated = true
		}
	}
	return out
}

// resolveIf collapses `if (<literal>) A else B` to A or B's statement
// list when the test folds to a known boolean, per §4.2 P7.
func resolveIf(s *fast.IfStatement, stats *diag.PassStats) ([]fast.Statement, bool) {
	b, ok := truthiness(s.Test.Expr)
	if !ok {
		return nil, false
	}
	stats.Rewrites++
	if b {
		return branchBody(s.Consequent), true
	}
	if s.Alternate == nil {
		return nil, true
	}
	return branchBody(s.Alternate), true
}

func branchBody(s *fast.Statement) []fast.Statement {
	if s == nil {
		return nil
	}
	if b, ok := s.Stmt.(*fast.BlockStatement); ok {
		return b.List
	}
	return []fast.Statement{*s}
}
