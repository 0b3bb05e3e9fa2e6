package passes

import (
	fast "github.com/t14raptor/go-fast/ast"
	"github.com/t14raptor/go-fast/token"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
	"github.com/fxnatic/jsdeobf/internal/scope"
)

// OperatorProxyInline is P5 (§4.2): an "operator proxy" is a two-parameter
// function whose body is a single binary expression over its two
// parameters, e.g. `function o(a, b) { return a + b; }`, used to hide
// arithmetic/comparison/logical operators behind a call. Every call site
// `o(x, y)` is rewritten to the direct binary expression `x + y`, and the
// proxy declaration is removed once its read count drops to zero. The
// original operator token is carried through unchanged from the detected
// proxy body rather than re-derived from a string, so this pass never
// needs its own table of operator spellings.
func OperatorProxyInline() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P5, Name: "operator-proxy-inline", FixedPoint: false, Run: runOperatorProxyInline}
}

func runOperatorProxyInline(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}

	proxies := findOperatorProxies(p)
	stats.NodesVisited = len(proxies)
	if len(proxies) == 0 {
		return stats
	}

	v := &operatorProxyVisitor{proxies: proxies, stats: &stats, report: report}
	v.V = v
	p.VisitWith(v)

	table := scope.Analyze(p)
	p.Body = pruneDeadFunctions(p.Body, operatorProxyNames(proxies), table)

	return stats
}

type operatorProxy struct {
	name        string
	op          token.Token
	swapOperand bool // body returns `b OP a` instead of `a OP b`
}

func findOperatorProxies(p *fast.Program) map[fast.Id]*operatorProxy {
	out := make(map[fast.Id]*operatorProxy)
	var walk func(list []fast.Statement)
	walk = func(list []fast.Statement) {
		for i := range list {
			switch s := list[i].Stmt.(type) {
			case *fast.FunctionDeclaration:
				if s.Function == nil || s.Function.Name == nil || s.Function.Body == nil {
					continue
				}
				if cand, ok := analyzeOperatorProxyBody(s.Function); ok {
					out[s.Function.Name.ToId()] = cand
				}
				walk(s.Function.Body.List)
			case *fast.BlockStatement:
				walk(s.List)
			}
		}
	}
	walk(p.Body)
	return out
}

// analyzeOperatorProxyBody matches `function o(a, b) { return a OP b; }`
// (or the operands swapped), where OP is any binary operator go-fast
// parses into a *fast.BinaryExpression, which covers arithmetic,
// comparison, bitwise, and logical (&&, ||, ??) operators alike.
func analyzeOperatorProxyBody(fn *fast.FunctionLiteral) (*operatorProxy, bool) {
	if fn.ParameterList == nil || len(fn.ParameterList.List) != 2 || len(fn.Body.List) != 1 {
		return nil, false
	}
	leftID, ok := fn.ParameterList.List[0].Target.Target.(*fast.Identifier)
	if !ok {
		return nil, false
	}
	rightID, ok := fn.ParameterList.List[1].Target.Target.(*fast.Identifier)
	if !ok {
		return nil, false
	}

	ret, ok := fn.Body.List[0].Stmt.(*fast.ReturnStatement)
	if !ok || ret.Argument == nil {
		return nil, false
	}
	bin, ok := ret.Argument.Expr.(*fast.BinaryExpression)
	if !ok {
		return nil, false
	}

	lName, lOK := identName(bin.Left.Expr)
	rName, rOK := identName(bin.Right.Expr)
	if !lOK || !rOK {
		return nil, false
	}
	switch {
	case lName == leftID.Name && rName == rightID.Name:
		return &operatorProxy{name: fn.Name.Name, op: bin.Operator}, true
	case lName == rightID.Name && rName == leftID.Name:
		return &operatorProxy{name: fn.Name.Name, op: bin.Operator, swapOperand: true}, true
	default:
		return nil, false
	}
}

func identName(e fast.Expr) (string, bool) {
	id, ok := e.(*fast.Identifier)
	if !ok {
		return "", false
	}
	return id.Name, true
}

type operatorProxyVisitor struct {
	fast.NoopVisitor
	proxies map[fast.Id]*operatorProxy
	stats   *diag.PassStats
	report  *diag.Report
}

func (v *operatorProxyVisitor) VisitExpression(n *fast.Expression) {
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
	if len(call.ArgumentList) != 2 {
		v.report.RecordGuardFailure("operator-proxy-inline", "call-site arity does not match proxy signature")
		v.stats.Skipped++
		return
	}

	left, right := &call.ArgumentList[0], &call.ArgumentList[1]
	if proxy.swapOperand {
		left, right = right, left
	}

	n.Expr = &fast.BinaryExpression{Operator: proxy.op, Left: left, Right: right}
	v.stats.Rewrites++
}

func operatorProxyNames(proxies map[fast.Id]*operatorProxy) map[string]bool {
	out := make(map[string]bool, len(proxies))
	for _, p := range proxies {
		out[p.name] = true
	}
	return out
}
