package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
	"github.com/fxnatic/jsdeobf/internal/scope"
)

// CallProxyInline is P4 (§4.2): a "call proxy" is a single-statement
// function `function p(a, b, c) { return a(b, c); }` whose only purpose
// is to forward its call through a first-parameter callee. Every call
// site `p(f, x, y)` is rewritten to `f(x, y)`, and the proxy declaration
// is removed once its read count drops to zero.
func CallProxyInline() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P4, Name: "call-proxy-inline", FixedPoint: false, Run: runCallProxyInline}
}

func runCallProxyInline(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}

	proxies := findCallProxies(p)
	stats.NodesVisited = len(proxies)
	if len(proxies) == 0 {
		return stats
	}

	v := &callProxyVisitor{proxies: proxies, stats: &stats, report: report}
	v.V = v
	p.VisitWith(v)

	table := scope.Analyze(p)
	p.Body = pruneDeadFunctions(p.Body, proxyNames(proxies), table)

	return stats
}

// callProxy describes one detected forwarding function.
type callProxy struct {
	name       string
	calleeParm string
	forwarded  []string // remaining parameter names, in order
}

func findCallProxies(p *fast.Program) map[fast.Id]*callProxy {
	out := make(map[fast.Id]*callProxy)
	var walk func(list []fast.Statement)
	walk = func(list []fast.Statement) {
		for i := range list {
			switch s := list[i].Stmt.(type) {
			case *fast.FunctionDeclaration:
				if s.Function == nil || s.Function.Name == nil || s.Function.Body == nil {
					continue
				}
				if cand, ok := analyzeCallProxyBody(s.Function); ok {
					out[s.Function.Name.ToId()] = cand
				}
				if s.Function.Body != nil {
					walk(s.Function.Body.List)
				}
			case *fast.BlockStatement:
				walk(s.List)
			}
		}
	}
	walk(p.Body)
	return out
}

// analyzeCallProxyBody matches `function p(a, ...rest) { return a(...rest); }`
// where the return statement's arguments are exactly the remaining
// parameters, in the same order, each used at most once.
func analyzeCallProxyBody(fn *fast.FunctionLiteral) (*callProxy, bool) {
	if len(fn.Body.List) != 1 {
		return nil, false
	}
	if fn.ParameterList == nil || len(fn.ParameterList.List) < 1 {
		return nil, false
	}
	calleeID, ok := fn.ParameterList.List[0].Target.Target.(*fast.Identifier)
	if !ok {
		return nil, false
	}

	ret, ok := fn.Body.List[0].Stmt.(*fast.ReturnStatement)
	if !ok || ret.Argument == nil {
		return nil, false
	}
	call, ok := ret.Argument.Expr.(*fast.CallExpression)
	if !ok {
		return nil, false
	}
	calleeRef, ok := call.Callee.Expr.(*fast.Identifier)
	if !ok || calleeRef.Name != calleeID.Name {
		return nil, false
	}

	rest := fn.ParameterList.List[1:]
	if len(call.ArgumentList) != len(rest) {
		return nil, false
	}
	names := make([]string, len(rest))
	for i := range rest {
		paramID, ok := rest[i].Target.Target.(*fast.Identifier)
		if !ok {
			return nil, false
		}
		argID, ok := call.ArgumentList[i].Expr.(*fast.Identifier)
		if !ok || argID.Name != paramID.Name {
			return nil, false
		}
		names[i] = paramID.Name
	}

	return &callProxy{name: fn.Name.Name, calleeParm: calleeID.Name, forwarded: names}, true
}

type callProxyVisitor struct {
	fast.NoopVisitor
	proxies map[fast.Id]*callProxy
	stats   *diag.PassStats
	report  *diag.Report
}

func (v *callProxyVisitor) VisitExpression(n *fast.Expression) {
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
	proxy := v.proxies[callee.ToId()]
	if proxy == nil {
		return
	}
	if len(call.ArgumentList) != len(proxy.forwarded)+1 {
		v.report.RecordGuardFailure("call-proxy-inline", "call-site arity does not match proxy signature")
		v.stats.Skipped++
		return
	}

	newCall := &fast.CallExpression{
		Callee:       &call.ArgumentList[0],
		ArgumentList: append([]fast.Expression{}, call.ArgumentList[1:]...),
	}
	n.Expr = newCall
	v.stats.Rewrites++
}

func proxyNames(proxies map[fast.Id]*callProxy) map[string]bool {
	out := make(map[string]bool, len(proxies))
	for _, p := range proxies {
		out[p.name] = true
	}
	return out
}

// pruneDeadFunctions removes top-level function declarations named in
// candidates whose binding's read count has dropped to zero, shared by
// P4, P5 and P9's identical "no longer called" cleanup.
func pruneDeadFunctions(list []fast.Statement, candidates map[string]bool, table *scope.Table) []fast.Statement {
	if len(candidates) == 0 {
		return list
	}
	var out []fast.Statement
	for i := range list {
		if fd, ok := list[i].Stmt.(*fast.FunctionDeclaration); ok && fd.Function != nil && fd.Function.Name != nil {
			name := fd.Function.Name.Name
			if candidates[name] {
				b := table.Get(fd.Function.Name.ToId())
				if b != nil && b.Reads == 0 {
					continue
				}
			}
		}
		out = append(out, list[i])
	}
	return out
}
