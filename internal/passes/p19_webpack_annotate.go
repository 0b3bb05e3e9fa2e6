package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

// WebpackModuleAnnotate is P19 (§4.2): recognizes the common webpack
// bootstrap shape, `(function(modules){ ... })({0: function(...){...},
// "./src/index.js": function(...){...}, ...})` (or the array-of-functions
// variant), and records each module's position in the table (for an
// object table, its position among the function-valued entries; the key
// itself is not recorded) so a downstream reader can tell the bundler's own module boundaries apart from the
// application code the pipeline just finished simplifying. Detection is
// gated behind opts.AnnotateWebpackModules (§6) since it is purely
// informational and has no effect on program semantics.
func WebpackModuleAnnotate(enabled bool) pipeline.Pass {
	return pipeline.Pass{
		ID:         pipeline.P19,
		Name:       "webpack-module-annotate",
		FixedPoint: false,
		Run: func(p *fast.Program, report *diag.Report) diag.PassStats {
			stats := diag.PassStats{}
			if !enabled {
				return stats
			}
			annotateWebpackModules(p, report, &stats)
			return stats
		},
	}
}

func annotateWebpackModules(p *fast.Program, report *diag.Report, stats *diag.PassStats) {
	for i := range p.Body {
		es, ok := p.Body[i].Stmt.(*fast.ExpressionStatement)
		if !ok || es.Expression == nil {
			continue
		}
		call, ok := es.Expression.Expr.(*fast.CallExpression)
		if !ok || len(call.ArgumentList) != 1 {
			continue
		}
		if _, ok := call.Callee.Expr.(*fast.FunctionLiteral); !ok {
			continue
		}
		stats.NodesVisited++

		switch modules := call.ArgumentList[0].Expr.(type) {
		case *fast.ArrayLiteral:
			for idx, entry := range modules.Value {
				if _, isFn := entry.Expr.(*fast.FunctionLiteral); isFn {
					report.RecordWebpackModule(idx)
					stats.NodesVisited++
				}
			}
		case *fast.ObjectLiteral:
			idx := 0
			for _, entry := range modules.Value {
				prop, ok := entry.Prop.(*fast.PropertyKeyed)
				if !ok || prop.Value == nil {
					continue
				}
				if _, isFn := prop.Value.Expr.(*fast.FunctionLiteral); isFn {
					report.RecordWebpackModule(idx)
					stats.NodesVisited++
					idx++
				}
			}
		}
	}
}
