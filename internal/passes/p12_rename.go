package passes

import (
	"strconv"

	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
	"github.com/fxnatic/jsdeobf/internal/scope"
)

// IdentifierRename is P12 (§4.2): every binding whose original name looks
// obfuscated (a name starting with `_0x` or `_0X`) is given a fresh,
// readable name. Every candidate name is checked against the names of all
// bindings declared anywhere in the program (not just the current scope)
// before being assigned. Names that are only referenced and never
// declared in the program, such as globals, are not in that set and are
// not checked.
func IdentifierRename(style pipeline.RenameStyle) pipeline.Pass {
	return pipeline.Pass{
		ID:         pipeline.P12,
		Name:       "identifier-rename",
		FixedPoint: false,
		Run: func(p *fast.Program, report *diag.Report) diag.PassStats {
			return runIdentifierRename(p, report, style)
		},
	}
}

func runIdentifierRename(p *fast.Program, report *diag.Report, style pipeline.RenameStyle) diag.PassStats {
	stats := diag.PassStats{}

	table := scope.Analyze(p)
	stats.NodesVisited = len(table.Bindings)

	used := make(map[string]bool, len(table.Bindings))
	for _, b := range table.Bindings {
		if !isObfuscatedName(b.Name) {
			used[b.Name] = true
		}
	}

	rename := make(map[fast.Id]string)
	counters := make(map[string]int)
	for id, b := range table.Bindings {
		if !isObfuscatedName(b.Name) {
			continue
		}
		base := roleBase(b.Kind, style)
		name := nextUnused(base, counters, used)
		used[name] = true
		rename[id] = name
	}
	if len(rename) == 0 {
		return stats
	}

	v := &renameVisitor{rename: rename, stats: &stats}
	v.V = v
	p.VisitWith(v)

	return stats
}

func roleBase(k scope.Kind, style pipeline.RenameStyle) string {
	if style == pipeline.RenameDeterministicFresh {
		return "v"
	}
	switch k {
	case scope.KindFunction:
		return "fn"
	case scope.KindParameter:
		return "arg"
	case scope.KindCatch:
		return "err"
	case scope.KindConst:
		return "c"
	case scope.KindLet:
		return "l"
	default:
		return "v"
	}
}

func nextUnused(base string, counters map[string]int, used map[string]bool) string {
	for {
		counters[base]++
		name := base + strconv.Itoa(counters[base])
		if !used[name] {
			return name
		}
	}
}

type renameVisitor struct {
	fast.NoopVisitor
	rename map[fast.Id]string
	stats  *diag.PassStats
}

func (v *renameVisitor) VisitExpression(n *fast.Expression) {
	n.VisitChildrenWith(v)
	v.stats.NodesVisited++
	switch e := n.Expr.(type) {
	case *fast.Identifier:
		v.applyTo(e)
	case *fast.FunctionLiteral:
		if e.Name != nil {
			v.applyTo(e.Name)
		}
		if e.ParameterList != nil {
			for i := range e.ParameterList.List {
				if id, ok := e.ParameterList.List[i].Target.Target.(*fast.Identifier); ok {
					v.applyTo(id)
				}
			}
		}
	case *fast.ArrowFunctionLiteral:
		if e.ParameterList != nil {
			for i := range e.ParameterList.List {
				if id, ok := e.ParameterList.List[i].Target.Target.(*fast.Identifier); ok {
					v.applyTo(id)
				}
			}
		}
	}
}

func (v *renameVisitor) VisitStatement(n *fast.Statement) {
	n.VisitChildrenWith(v)
	v.stats.NodesVisited++
	switch s := n.Stmt.(type) {
	case *fast.VariableDeclaration:
		for i := range s.List {
			if id, ok := s.List[i].Target.Target.(*fast.Identifier); ok {
				v.applyTo(id)
			}
		}
	case *fast.FunctionDeclaration:
		if s.Function != nil {
			if s.Function.Name != nil {
				v.applyTo(s.Function.Name)
			}
			if s.Function.ParameterList != nil {
				for i := range s.Function.ParameterList.List {
					if id, ok := s.Function.ParameterList.List[i].Target.Target.(*fast.Identifier); ok {
						v.applyTo(id)
					}
				}
			}
		}
	case *fast.TryStatement:
		if s.Catch != nil && s.Catch.Parameter != nil {
			if id, ok := s.Catch.Parameter.Target.(*fast.Identifier); ok {
				v.applyTo(id)
			}
		}
	}
}

func (v *renameVisitor) applyTo(id *fast.Identifier) {
	if name, ok := v.rename[id.ToId()]; ok && id.Name != name {
		id.Name = name
		v.stats.Rewrites++
	}
}
