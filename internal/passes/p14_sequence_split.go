package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

// SequenceSplit is P14 (§4.2): an expression statement whose top-level
// expression is a comma sequence (`a(), b(), c();`) is split into one
// expression statement per operand, in source order. Sequences appearing
// anywhere other than statement position (a for-loop's update clause, an
// argument list) are left alone since splitting them there would change
// the grammar, not just the surface form.
func SequenceSplit() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P14, Name: "sequence-split", FixedPoint: false, Run: runSequenceSplit}
}

func runSequenceSplit(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}
	p.Body = splitSequencesInList(p.Body, &stats)
	return stats
}

func splitSequencesInList(list []fast.Statement, stats *diag.PassStats) []fast.Statement {
	var out []fast.Statement
	for i := range list {
		stats.NodesVisited++
		switch s := list[i].Stmt.(type) {
		case *fast.BlockStatement:
			s.List = splitSequencesInList(s.List, stats)
		case *fast.FunctionDeclaration:
			if s.Function != nil && s.Function.Body != nil {
				s.Function.Body.List = splitSequencesInList(s.Function.Body.List, stats)
			}
		case *fast.ExpressionStatement:
			if s.Expression == nil {
				break
			}
			if seq, ok := s.Expression.Expr.(*fast.SequenceExpression); ok && len(seq.Sequence) > 1 {
				for j := range seq.Sequence {
					out = append(out, fast.Statement{Stmt: &fast.ExpressionStatement{Expression: &seq.Sequence[j]}})
				}
				stats.Rewrites++
				continue
			}
		}
		out = append(out, list[i])
	}
	return out
}
