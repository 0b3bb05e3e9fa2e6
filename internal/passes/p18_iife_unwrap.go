package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

// IIFEUnwrap is P18 (§4.2): an immediately-invoked function expression
// statement `(function(){ ... })();` with no parameters and whose body
// contains no `return` statement (so unwrapping cannot discard a value
// anyone depended on) is replaced by its body's statements spliced
// directly into the enclosing list. Parameterized IIFEs and ones that
// return a value are left in place — inlining those safely needs the
// call-site argument substitution P9 already applies to plain functions,
// and reusing it here would risk the substitution firing twice.
func IIFEUnwrap() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P18, Name: "iife-unwrap", FixedPoint: false, Run: runIIFEUnwrap}
}

func runIIFEUnwrap(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}
	p.Body = unwrapIIFEsInList(p.Body, &stats, report)
	return stats
}

func unwrapIIFEsInList(list []fast.Statement, stats *diag.PassStats, report *diag.Report) []fast.Statement {
	var out []fast.Statement
	for i := range list {
		stats.NodesVisited++
		switch s := list[i].Stmt.(type) {
		case *fast.BlockStatement:
			s.List = unwrapIIFEsInList(s.List, stats, report)
		case *fast.FunctionDeclaration:
			if s.Function != nil && s.Function.Body != nil {
				s.Function.Body.List = unwrapIIFEsInList(s.Function.Body.List, stats, report)
			}
		case *fast.ExpressionStatement:
			if body, ok := iifeBody(s.Expression); ok {
				out = append(out, unwrapIIFEsInList(body, stats, report)...)
				stats.Rewrites++
				continue
			}
		}
		out = append(out, list[i])
	}
	return out
}

func iifeBody(expr *fast.Expression) ([]fast.Statement, bool) {
	if expr == nil {
		return nil, false
	}
	call, ok := expr.Expr.(*fast.CallExpression)
	if !ok || len(call.ArgumentList) != 0 {
		return nil, false
	}
	fn, ok := call.Callee.Expr.(*fast.FunctionLiteral)
	if !ok || fn.Body == nil || (fn.ParameterList != nil && len(fn.ParameterList.List) != 0) {
		return nil, false
	}
	if containsReturn(fn.Body.List) {
		return nil, false
	}
	return fn.Body.List, true
}

// containsReturn reports whether any statement at the top level of body
// (not descending into nested function bodies) is a return, which would
// make splicing the body into the caller's list observably different.
func containsReturn(body []fast.Statement) bool {
	for i := range body {
		switch s := body[i].Stmt.(type) {
		case *fast.ReturnStatement:
			return true
		case *fast.BlockStatement:
			if containsReturn(s.List) {
				return true
			}
		case *fast.IfStatement:
			if s.Consequent != nil && containsReturn([]fast.Statement{*s.Consequent}) {
				return true
			}
			if s.Alternate != nil && containsReturn([]fast.Statement{*s.Alternate}) {
				return true
			}
		}
	}
	return false
}
