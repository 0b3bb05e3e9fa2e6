package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

// VariableSplit is P15 (§4.2): a single declaration statement naming
// several variables (`var a = 1, b = 2, c;`) is split into one
// declaration statement per declarator, preserving both order and the
// original declaration kind (var/let/const).
func VariableSplit() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P15, Name: "variable-split", FixedPoint: false, Run: runVariableSplit}
}

func runVariableSplit(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}
	p.Body = splitVarsInList(p.Body, &stats)
	return stats
}

func splitVarsInList(list []fast.Statement, stats *diag.PassStats) []fast.Statement {
	var out []fast.Statement
	for i := range list {
		stats.NodesVisited++
		switch s := list[i].Stmt.(type) {
		case *fast.BlockStatement:
			s.List = splitVarsInList(s.List, stats)
		case *fast.FunctionDeclaration:
			if s.Function != nil && s.Function.Body != nil {
				s.Function.Body.List = splitVarsInList(s.Function.Body.List, stats)
			}
		case *fast.VariableDeclaration:
			if len(s.List) > 1 {
				for j := range s.List {
					out = append(out, fast.Statement{Stmt: &fast.VariableDeclaration{
						Kind: s.Kind,
						List: []fast.VariableDeclarator{s.List[j]},
					}})
				}
				stats.Rewrites++
				continue
			}
		}
		out = append(out, list[i])
	}
	return out
}
