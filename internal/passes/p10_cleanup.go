package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	deast "github.com/fxnatic/jsdeobf/internal/ast"
	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
	"github.com/fxnatic/jsdeobf/internal/scope"
)

// StructuralCleanup is P10 (§4.2): a grab-bag of surface-level
// normalizations that don't need a fixed point because each only ever
// fires once per site. It converts a computed member access with a
// literal, identifier-shaped property name to dot notation
// (`o["prop"]` -> `o.prop`), inlines the constant index reads of a local
// array of pure elements that is never written or captured
// (`var a = [x, y]; a[0]` -> `x`), and unwraps a `try` whose `catch`
// clause is empty and that has no `finally` to a bare block.
func StructuralCleanup() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P10, Name: "structural-cleanup", FixedPoint: false, Run: runStructuralCleanup}
}

func runStructuralCleanup(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}

	table := scope.Analyze(p)
	arrays := findInlinableArrays(p, table)

	v := &cleanupVisitor{arrays: arrays, stats: &stats, report: report}
	v.V = v
	p.VisitWith(v)

	return stats
}

// findInlinableArrays locates `var a = [<pure exprs>]` declarations whose
// binding is read but never written or captured, so every `a[N]` read
// with a literal N can be replaced by the array's Nth element directly.
func findInlinableArrays(p *fast.Program, table *scope.Table) map[fast.Id][]fast.Expr {
	out := make(map[fast.Id][]fast.Expr)
	var walk func(list []fast.Statement)
	walk = func(list []fast.Statement) {
		for i := range list {
			switch s := list[i].Stmt.(type) {
			case *fast.VariableDeclaration:
				for j := range s.List {
					d := &s.List[j]
					id, ok := d.Target.Target.(*fast.Identifier)
					if !ok || d.Initializer == nil {
						continue
					}
					arr, ok := d.Initializer.Expr.(*fast.ArrayLiteral)
					if !ok {
						continue
					}
					b := table.Get(id.ToId())
					if b == nil || b.Writes != 0 || b.Captured {
						continue
					}
					elems := make([]fast.Expr, len(arr.Value))
					pure := true
					for k := range arr.Value {
						elems[k] = arr.Value[k].Expr
						pure = pure && deast.IsPure(elems[k])
					}
					if !pure {
						continue
					}
					out[id.ToId()] = elems
				}
			case *fast.BlockStatement:
				walk(s.List)
			case *fast.FunctionDeclaration:
				if s.Function != nil && s.Function.Body != nil {
					walk(s.Function.Body.List)
				}
			}
		}
	}
	walk(p.Body)
	return out
}

type cleanupVisitor struct {
	fast.NoopVisitor
	arrays map[fast.Id][]fast.Expr
	stats  *diag.PassStats
	report *diag.Report
}

func (v *cleanupVisitor) VisitExpression(n *fast.Expression) {
	n.VisitChildrenWith(v)
	v.stats.NodesVisited++

	member, ok := n.Expr.(*fast.MemberExpression)
	if !ok {
		return
	}

	if id, ok := member.Object.Expr.(*fast.Identifier); ok {
		if elems, known := v.arrays[id.ToId()]; known {
			if idx, ok := computedNumberIndex(member.Property); ok && idx >= 0 && idx < len(elems) {
				n.Expr = elems[idx]
				v.stats.Rewrites++
				return
			}
		}
	}

	if name, ok := deast.MemberPropName(member.Property); ok && deast.IsValidIdentifierName(name) {
		if cp, isComputed := member.Property.Prop.(*fast.ComputedProperty); isComputed {
			if _, isStr := cp.Expr.Expr.(*fast.StringLiteral); isStr {
				member.Property.Prop = &fast.Identifier{Name: name}
				v.stats.Rewrites++
			}
		}
	}
}

func (v *cleanupVisitor) VisitStatement(n *fast.Statement) {
	n.VisitChildrenWith(v)
	v.stats.NodesVisited++

	tr, ok := n.Stmt.(*fast.TryStatement)
	if !ok || tr.Catch == nil || tr.Catch.Body == nil {
		return
	}
	if len(tr.Catch.Body.List) != 0 || tr.Finally != nil {
		return
	}
	// try { A } catch (e) {} with no finally: collapsing to a bare block
	// keeps observable behavior on the non-throwing path. A throw inside
	// A, which the empty catch used to swallow, now propagates instead.
	if tr.Body != nil {
		n.Stmt = &fast.BlockStatement{List: tr.Body.List}
		v.stats.Rewrites++
	}
}

func computedNumberIndex(mp *fast.MemberProperty) (int, bool) {
	if mp == nil {
		return 0, false
	}
	cp, ok := mp.Prop.(*fast.ComputedProperty)
	if !ok || cp.Expr == nil {
		return 0, false
	}
	n, ok := cp.Expr.Expr.(*fast.NumberLiteral)
	if !ok {
		return 0, false
	}
	return int(n.Value), true
}
