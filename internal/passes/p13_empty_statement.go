package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

// EmptyStatementCleanup is P13 (§4.2): strips stray `;` empty statements
// from every statement list the tree can hold one in, including switch
// case bodies and loop bodies that P7's dead-code fixed point never
// visits directly (P7 only removes an EmptyStatement it encounters while
// walking a block's top-level list; this pass reaches every list shape).
func EmptyStatementCleanup() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P13, Name: "empty-statement-cleanup", FixedPoint: false, Run: runEmptyStatementCleanup}
}

func runEmptyStatementCleanup(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}
	v := &emptyStmtVisitor{stats: &stats}
	v.V = v
	p.VisitWith(v)
	p.Body = stripEmpty(p.Body, &stats)
	return stats
}

type emptyStmtVisitor struct {
	fast.NoopVisitor
	stats *diag.PassStats
}

func (v *emptyStmtVisitor) VisitStatement(n *fast.Statement) {
	n.VisitChildrenWith(v)
	v.stats.NodesVisited++
	switch s := n.Stmt.(type) {
	case *fast.BlockStatement:
		s.List = stripEmpty(s.List, v.stats)
	case *fast.SwitchStatement:
		for i := range s.Body {
			s.Body[i].Consequent = stripEmpty(s.Body[i].Consequent, v.stats)
		}
	case *fast.FunctionDeclaration:
		if s.Function != nil && s.Function.Body != nil {
			s.Function.Body.List = stripEmpty(s.Function.Body.List, v.stats)
		}
	}
}

func stripEmpty(list []fast.Statement, stats *diag.PassStats) []fast.Statement {
	var out []fast.Statement
	for i := range list {
		if _, ok := list[i].Stmt.(*fast.EmptyStatement); ok {
			stats.Rewrites++
			continue
		}
		out = append(out, list[i])
	}
	return out
}
