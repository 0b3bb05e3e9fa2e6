// Package scope implements the scope & usage analyzer of §4.1: for every
// binding, its declaration site, read/write counts, and whether it is
// captured by a nested function. It is rebuilt on demand after any
// mutation that may have introduced or removed bindings (§3 invariants);
// callers must not query a stale Table.
//
// go-fast already resolves each *ast.Identifier to a stable, hygienic
// *ast.Id via Identifier.ToId() (the same "(name, context)" trick the
// teacher's deobVisitor relies on when keying numbers/aliases maps by
// ast.Id), so this analyzer does not need to re-implement lexical
// resolution from scratch; it walks the tree once to record declarations
// and once more to tally references, the way viant-linager's Scope/Find
// and lcalzada-xor-xxss's Scope/Variable model a parent-chained symbol
// table, but keyed on go-fast's Id instead of a hand-rolled chain lookup.
package scope

import (
	fast "github.com/t14raptor/go-fast/ast"
)

// Kind classifies how a binding was introduced.
type Kind int

const (
	KindVar Kind = iota
	KindLet
	KindConst
	KindFunction
	KindParameter
	KindCatch
)

// Binding is everything the passes need to know about one declared name.
type Binding struct {
	Id        fast.Id
	Name      string
	Kind      Kind
	Reads     int
	Writes    int
	Captured  bool // referenced from a function scope nested below the declaring one
	Immutable bool // const, or never written after initialization

	declDepth int
}

// Table is the result of one analysis pass: every binding reachable from
// the program, keyed by its resolved Id.
type Table struct {
	Bindings map[fast.Id]*Binding
}

// Get looks up a binding by identifier, returning nil if the identifier
// has no recorded declaration (e.g. a global not declared in this file).
func (t *Table) Get(id fast.Id) *Binding {
	return t.Bindings[id]
}

// Analyze walks p once to collect declarations and once more to tally
// reads/writes/capture, returning a fresh Table. Call it again after any
// pass that mutates bindings; per §3, stale Tables must not be queried.
func Analyze(p *fast.Program) *Table {
	t := &Table{Bindings: make(map[fast.Id]*Binding)}

	collector := &declCollector{table: t}
	collector.V = collector
	p.VisitWith(collector)

	usage := &usageWalker{table: t}
	usage.V = usage
	p.VisitWith(usage)

	for _, b := range t.Bindings {
		b.Immutable = b.Kind == KindConst || (b.Writes == 0)
	}

	return t
}

type declCollector struct {
	fast.NoopVisitor
	table *Table
	depth int
}

func (v *declCollector) declare(id *fast.Identifier, kind Kind) {
	if id == nil {
		return
	}
	rid := id.ToId()
	if _, exists := v.table.Bindings[rid]; exists {
		return
	}
	v.table.Bindings[rid] = &Binding{Id: rid, Name: id.Name, Kind: kind, declDepth: v.depth}
}

func (v *declCollector) VisitStatement(n *fast.Statement) {
	switch s := n.Stmt.(type) {
	case *fast.VariableDeclaration:
		kind := declKind(s.Kind)
		for i := range s.List {
			if id, ok := s.List[i].Target.Target.(*fast.Identifier); ok {
				v.declare(id, kind)
			}
		}
	case *fast.FunctionDeclaration:
		if s.Function != nil && s.Function.Name != nil {
			v.declare(s.Function.Name, KindFunction)
		}
		if s.Function != nil && s.Function.ParameterList != nil {
			v.depth++
			for i := range s.Function.ParameterList.List {
				if id, ok := s.Function.ParameterList.List[i].Target.Target.(*fast.Identifier); ok {
					v.declare(id, KindParameter)
				}
			}
		}
	case *fast.TryStatement:
		if s.Catch != nil && s.Catch.Parameter != nil {
			if id, ok := s.Catch.Parameter.Target.(*fast.Identifier); ok {
				v.declare(id, KindCatch)
			}
		}
	}
	n.VisitChildrenWith(v)
	if _, ok := n.Stmt.(*fast.FunctionDeclaration); ok {
		v.depth--
	}
}

func (v *declCollector) VisitExpression(n *fast.Expression) {
	switch e := n.Expr.(type) {
	case *fast.FunctionLiteral, *fast.ArrowFunctionLiteral:
		v.depth++
		for _, id := range paramIdentifiers(e) {
			v.declare(id, KindParameter)
		}
		n.VisitChildrenWith(v)
		v.depth--
		return
	}
	n.VisitChildrenWith(v)
}

func declKind(k fast.VariableDeclarationKind) Kind {
	switch k.String() {
	case "let":
		return KindLet
	case "const":
		return KindConst
	default:
		return KindVar
	}
}

func paramIdentifiers(e fast.Expr) []*fast.Identifier {
	var params *fast.ParameterList
	switch fn := e.(type) {
	case *fast.FunctionLiteral:
		params = fn.ParameterList
	case *fast.ArrowFunctionLiteral:
		params = fn.ParameterList
	}
	if params == nil {
		return nil
	}
	out := make([]*fast.Identifier, 0, len(params.List))
	for i := range params.List {
		if id, ok := params.List[i].Target.Target.(*fast.Identifier); ok {
			out = append(out, id)
		}
	}
	return out
}

type usageWalker struct {
	fast.NoopVisitor
	table *Table
	depth int
}

func (v *usageWalker) VisitStatement(n *fast.Statement) {
	if _, ok := n.Stmt.(*fast.FunctionDeclaration); ok {
		v.depth++
		n.VisitChildrenWith(v)
		v.depth--
		return
	}
	n.VisitChildrenWith(v)
}

func (v *usageWalker) VisitExpression(n *fast.Expression) {
	switch e := n.Expr.(type) {
	case *fast.FunctionLiteral, *fast.ArrowFunctionLiteral:
		v.depth++
		n.VisitChildrenWith(v)
		v.depth--
		return
	case *fast.Identifier:
		v.touch(e, false)
	case *fast.AssignExpression:
		if id, ok := e.Left.Expr.(*fast.Identifier); ok {
			v.touch(id, true)
			n.VisitChildrenWith(v)
			return
		}
	case *fast.UpdateExpression:
		if id, ok := e.Operand.Expr.(*fast.Identifier); ok {
			v.touch(id, true)
			n.VisitChildrenWith(v)
			return
		}
	}
	n.VisitChildrenWith(v)
}

func (v *usageWalker) touch(id *fast.Identifier, write bool) {
	b := v.table.Bindings[id.ToId()]
	if b == nil {
		return
	}
	if write {
		b.Writes++
	} else {
		b.Reads++
	}
	if v.depth > b.declDepth {
		b.Captured = true
	}
}
