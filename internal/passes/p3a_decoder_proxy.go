package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

// DecoderProxyResolve is SPEC_FULL.md's P3a, run immediately before P3.
// It is grounded on original_source's dispatcher_inline.rs and the
// teacher's own wkMapFinder: an object literal mapping short keys to
// bare identifiers (typically decoder or call-proxy functions; the pass
// does not check what the identifiers name), invoked as `obj.key(args)` / `obj['key'](args)`. P3a rewrites such a
// call to a direct call of the referenced function so P3's decoder
// matcher (which only looks at direct calls) can proceed without needing
// its own copy of this indirection logic.
func DecoderProxyResolve() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P3a, Name: "decoder-proxy-resolve", FixedPoint: false, Run: runDecoderProxyResolve}
}

func runDecoderProxyResolve(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}

	proxies := collectFunctionRefObjects(p)
	stats.NodesVisited = len(proxies)
	if len(proxies) == 0 {
		return stats
	}

	v := &decoderProxyVisitor{proxies: proxies, stats: &stats}
	v.V = v
	p.VisitWith(v)
	return stats
}

// collectFunctionRefObjects finds `var obj = {k1: f1, k2: f2, ...}`
// declarations (an `obj = {...}` assignment is not collected) where
// every value is a bare identifier, the
// "WK map" shape from the teacher's wkMapFinder generalized to any
// object of function references, not just numeric ones.
func collectFunctionRefObjects(p *fast.Program) map[fast.Id]map[string]string {
	out := make(map[fast.Id]map[string]string)
	collector := &funcRefCollector{out: out}
	collector.V = collector
	p.VisitWith(collector)
	return out
}

type funcRefCollector struct {
	fast.NoopVisitor
	out map[fast.Id]map[string]string
}

func (c *funcRefCollector) VisitStatement(n *fast.Statement) {
	n.VisitChildrenWith(c)
	decl, ok := n.Stmt.(*fast.VariableDeclaration)
	if !ok {
		return
	}
	for i := range decl.List {
		d := &decl.List[i]
		id, ok := d.Target.Target.(*fast.Identifier)
		if !ok || d.Initializer == nil {
			continue
		}
		obj, ok := d.Initializer.Expr.(*fast.ObjectLiteral)
		if !ok {
			continue
		}
		if refs, ok := functionRefMap(obj); ok {
			c.out[id.ToId()] = refs
		}
	}
}

func functionRefMap(obj *fast.ObjectLiteral) (map[string]string, bool) {
	refs := make(map[string]string)
	for _, entry := range obj.Value {
		prop, ok := entry.Prop.(*fast.PropertyKeyed)
		if !ok || prop.Value == nil {
			return nil, false
		}
		key, ok := literalKeyName(prop.Key)
		if !ok {
			return nil, false
		}
		id, ok := prop.Value.Expr.(*fast.Identifier)
		if !ok {
			return nil, false
		}
		refs[key] = id.Name
	}
	if len(refs) < 1 {
		return nil, false
	}
	return refs, true
}

func literalKeyName(keyExpr *fast.Expression) (string, bool) {
	if keyExpr == nil || keyExpr.Expr == nil {
		return "", false
	}
	switch k := keyExpr.Expr.(type) {
	case *fast.Identifier:
		return k.Name, true
	case *fast.StringLiteral:
		return k.Value, true
	default:
		return "", false
	}
}

type decoderProxyVisitor struct {
	fast.NoopVisitor
	proxies map[fast.Id]map[string]string
	stats   *diag.PassStats
}

func (v *decoderProxyVisitor) VisitExpression(n *fast.Expression) {
	n.VisitChildrenWith(v)
	v.stats.NodesVisited++

	call, ok := n.Expr.(*fast.CallExpression)
	if !ok {
		return
	}
	member, ok := call.Callee.Expr.(*fast.MemberExpression)
	if !ok {
		return
	}
	objID, ok := member.Object.Expr.(*fast.Identifier)
	if !ok {
		return
	}
	refs, ok := v.proxies[objID.ToId()]
	if !ok {
		return
	}
	propName, ok := memberPropName(member.Property)
	if !ok {
		return
	}
	target, ok := refs[propName]
	if !ok {
		return
	}

	call.Callee.Expr = &fast.Identifier{Name: target}
	v.stats.Rewrites++
}
