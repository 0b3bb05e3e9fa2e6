package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	deast "github.com/fxnatic/jsdeobf/internal/ast"
	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
	"github.com/fxnatic/jsdeobf/internal/scope"
)

// FunctionInline is P9 (§4.2): a function declared as
// `function f(p1, ..., pn) { return <expr>; }` and referenced exactly
// once is inlined at its call site by substituting each parameter with
// its corresponding argument expression, provided every argument is pure
// (§3's purity rule) so substitution cannot reorder side effects. The
// declaration is then removed. Functions referenced more than once, or
// whose body is not a single return of an expression, are left in place;
// aggressive multi-site inlining is out of scope per §4.2's "call sites
// only" restriction.
func FunctionInline() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P9, Name: "function-inline", FixedPoint: false, Run: runFunctionInline}
}

func runFunctionInline(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}

	table := scope.Analyze(p)
	candidates := findInlineCandidates(p, table)
	stats.NodesVisited = len(candidates)
	if len(candidates) == 0 {
		return stats
	}

	v := &inlineVisitor{candidates: candidates, stats: &stats, report: report}
	v.V = v
	p.VisitWith(v)

	var dead map[string]bool
	if v.stats.Rewrites > 0 {
		table = scope.Analyze(p)
		dead = make(map[string]bool, len(candidates))
		for _, c := range candidates {
			if c.inlined {
				dead[c.name] = true
			}
		}
	}
	p.Body = pruneDeadFunctions(p.Body, dead, table)

	return stats
}

type inlineCandidate struct {
	name    string
	params  []string
	body    fast.Expr
	inlined bool
}

func findInlineCandidates(p *fast.Program, table *scope.Table) map[fast.Id]*inlineCandidate {
	out := make(map[fast.Id]*inlineCandidate)
	for i := range p.Body {
		fd, ok := p.Body[i].Stmt.(*fast.FunctionDeclaration)
		if !ok || fd.Function == nil || fd.Function.Name == nil || fd.Function.Body == nil {
			continue
		}
		id := fd.Function.Name.ToId()
		b := table.Get(id)
		if b == nil || b.Reads != 1 || b.Captured {
			continue
		}
		if len(fd.Function.Body.List) != 1 {
			continue
		}
		ret, ok := fd.Function.Body.List[0].Stmt.(*fast.ReturnStatement)
		if !ok || ret.Argument == nil {
			continue
		}
		if fd.Function.ParameterList == nil {
			continue
		}
		paramList := fd.Function.ParameterList.List
		params := make([]string, len(paramList))
		ok = true
		for j, prm := range paramList {
			pid, isID := prm.Target.Target.(*fast.Identifier)
			if !isID {
				ok = false
				break
			}
			params[j] = pid.Name
		}
		if !ok {
			continue
		}
		out[id] = &inlineCandidate{name: fd.Function.Name.Name, params: params, body: ret.Argument.Expr}
	}
	return out
}

type inlineVisitor struct {
	fast.NoopVisitor
	candidates map[fast.Id]*inlineCandidate
	stats      *diag.PassStats
	report     *diag.Report
}

func (v *inlineVisitor) VisitExpression(n *fast.Expression) {
	n.VisitChildrenWith(v)
	v.stats.NodesVisited++

	call, ok := n.Expr.(*fast.CallExpression)
	if !ok {
		return
	}
	callee, ok := call.Callee.Expr.(*fast.Identifier)
	if !ok {
		return
	}
	cand := v.candidates[callee.ToId()]
	if cand == nil || cand.inlined {
		return
	}
	if len(call.ArgumentList) != len(cand.params) {
		v.report.RecordGuardFailure("function-inline", "call-site arity does not match declared signature")
		v.stats.Skipped++
		return
	}
	for i := range call.ArgumentList {
		if !deast.IsPure(call.ArgumentList[i].Expr) {
			v.report.RecordGuardFailure("function-inline", "argument is not provably pure")
			v.stats.Skipped++
			return
		}
	}

	subst := make(map[string]fast.Expr, len(cand.params))
	for i, p := range cand.params {
		subst[p] = call.ArgumentList[i].Expr
	}
	n.Expr = substituteIdentifiers(cand.body, subst)
	cand.inlined = true
	v.stats.Rewrites++
}

// substituteIdentifiers clones e, replacing every bare identifier
// reference found in subst. Since candidates are only ever built from a
// single-return function body with no nested function literals rebinding
// the same names (those would shadow and are handled by not descending
// past a param of the same name), a straightforward recursive rewrite is
// sufficient.
func substituteIdentifiers(e fast.Expr, subst map[string]fast.Expr) fast.Expr {
	switch x := e.(type) {
	case *fast.Identifier:
		if r, ok := subst[x.Name]; ok {
			return r
		}
		return x
	case *fast.BinaryExpression:
		return &fast.BinaryExpression{
			Operator: x.Operator,
			Left:     deast.ExprPtr(substituteIdentifiers(x.Left.Expr, subst)),
			Right:    deast.ExprPtr(substituteIdentifiers(x.Right.Expr, subst)),
		}
	case *fast.UnaryExpression:
		return &fast.UnaryExpression{
			Operator: x.Operator,
			Operand:  deast.ExprPtr(substituteIdentifiers(x.Operand.Expr, subst)),
		}
	case *fast.ConditionalExpression:
		return &fast.ConditionalExpression{
			Test:       deast.ExprPtr(substituteIdentifiers(x.Test.Expr, subst)),
			Consequent: deast.ExprPtr(substituteIdentifiers(x.Consequent.Expr, subst)),
			Alternate:  deast.ExprPtr(substituteIdentifiers(x.Alternate.Expr, subst)),
		}
	case *fast.MemberExpression:
		clone := *x
		clone.Object = deast.ExprPtr(substituteIdentifiers(x.Object.Expr, subst))
		return &clone
	case *fast.CallExpression:
		clone := *x
		clone.Callee = deast.ExprPtr(substituteIdentifiers(x.Callee.Expr, subst))
		clone.ArgumentList = make([]fast.Expression, len(x.ArgumentList))
		for i := range x.ArgumentList {
			clone.ArgumentList[i] = fast.Expression{Expr: substituteIdentifiers(x.ArgumentList[i].Expr, subst)}
		}
		return &clone
	default:
		return e
	}
}
