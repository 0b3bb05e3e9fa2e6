// Package match implements the declarative pattern matcher of §4.1: pure
// predicates over AST shapes, with placeholders (Any), captures (Bind),
// and guards evaluated against captured bindings. Every pass in
// internal/passes builds its recognizers by composing these primitives
// instead of hand-rolling nested type switches, the way the teacher's
// deobVisitor did for a single narrow pattern.
package match

import (
	fast "github.com/t14raptor/go-fast/ast"
)

// Env is the binding environment produced by a successful match: captured
// subexpressions keyed by the name given to Bind.
type Env struct {
	captures map[string]fast.Expr
}

func newEnv() *Env { return &Env{captures: make(map[string]fast.Expr)} }

// Expr returns the expression captured under name, or nil if nothing was
// captured under that name (a programmer error in the pattern, not a
// runtime condition passes need to check for defensively).
func (e *Env) Expr(name string) fast.Expr {
	if e == nil {
		return nil
	}
	return e.captures[name]
}

// String is a convenience accessor for a captured string literal's value.
func (e *Env) String(name string) (string, bool) {
	lit, ok := e.Expr(name).(*fast.StringLiteral)
	if !ok {
		return "", false
	}
	return lit.Value, true
}

// Number is a convenience accessor for a captured numeric literal's value.
func (e *Env) Number(name string) (float64, bool) {
	lit, ok := e.Expr(name).(*fast.NumberLiteral)
	if !ok {
		return 0, false
	}
	return lit.Value, true
}

// Ident is a convenience accessor for a captured identifier's name.
func (e *Env) Ident(name string) (string, bool) {
	id, ok := e.Expr(name).(*fast.Identifier)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// Pattern matches a single expression, optionally recording captures into
// the environment it is given.
type Pattern interface {
	match(e fast.Expr, env *Env) bool
}

// Match runs p against e with a fresh environment. On success it returns
// the environment with all captures populated; on failure it returns nil,
// false — a PatternMismatch per §7, never an error.
func Match(p Pattern, e fast.Expr) (*Env, bool) {
	env := newEnv()
	if p.match(e, env) {
		return env, true
	}
	return nil, false
}

type patternFunc func(fast.Expr, *Env) bool

func (f patternFunc) match(e fast.Expr, env *Env) bool { return f(e, env) }

// Any matches any non-nil expression without capturing it.
func Any() Pattern {
	return patternFunc(func(e fast.Expr, _ *Env) bool { return e != nil })
}

// Bind wraps p so that, on success, the matched expression is recorded in
// env under name. Nested Binds are legal; the outermost successful bind
// for a given name wins since each capture is written after its inner
// pattern already matched, so an outer Bind overwrites an inner one.
func Bind(name string, p Pattern) Pattern {
	return patternFunc(func(e fast.Expr, env *Env) bool {
		if !p.match(e, env) {
			return false
		}
		env.captures[name] = e
		return true
	})
}

// Guard wraps p so that it only succeeds when cond(env) also holds,
// evaluated after p has populated its captures. This is how passes encode
// the "semantic precondition" checks the spec calls out (e.g. "dispatcher
// is assigned exactly once from a literal").
func Guard(p Pattern, cond func(*Env) bool) Pattern {
	return patternFunc(func(e fast.Expr, env *Env) bool {
		return p.match(e, env) && cond(env)
	})
}

// StringLit matches any string literal.
func StringLit() Pattern {
	return patternFunc(func(e fast.Expr, _ *Env) bool { _, ok := e.(*fast.StringLiteral); return ok })
}

// NumberLit matches any numeric literal.
func NumberLit() Pattern {
	return patternFunc(func(e fast.Expr, _ *Env) bool { _, ok := e.(*fast.NumberLiteral); return ok })
}

// ExactNumber matches a numeric literal equal to v.
func ExactNumber(v float64) Pattern {
	return patternFunc(func(e fast.Expr, _ *Env) bool {
		n, ok := e.(*fast.NumberLiteral)
		return ok && n.Value == v
	})
}

// Ident matches any identifier.
func Ident() Pattern {
	return patternFunc(func(e fast.Expr, _ *Env) bool { _, ok := e.(*fast.Identifier); return ok })
}

// NamedIdent matches an identifier with exactly this name.
func NamedIdent(name string) Pattern {
	return patternFunc(func(e fast.Expr, _ *Env) bool {
		id, ok := e.(*fast.Identifier)
		return ok && id.Name == name
	})
}

// Call matches a CallExpression whose callee matches callee and whose
// arguments, in order, match args. If args is nil, the argument list is
// not constrained.
func Call(callee Pattern, args ...Pattern) Pattern {
	return patternFunc(func(e fast.Expr, env *Env) bool {
		c, ok := e.(*fast.CallExpression)
		if !ok {
			return false
		}
		if callee != nil && !callee.match(c.Callee.Expr, env) {
			return false
		}
		if args == nil {
			return true
		}
		if len(c.ArgumentList) != len(args) {
			return false
		}
		for i, a := range args {
			if !a.match(c.ArgumentList[i].Expr, env) {
				return false
			}
		}
		return true
	})
}

// Member matches a MemberExpression on obj with the given property name.
func Member(obj Pattern, prop string) Pattern {
	return patternFunc(func(e fast.Expr, env *Env) bool {
		m, ok := e.(*fast.MemberExpression)
		if !ok {
			return false
		}
		name, ok := memberPropName(m)
		if !ok || name != prop {
			return false
		}
		return obj == nil || obj.match(objExpr(m), env)
	})
}

// Binary matches a BinaryExpression with the given operator.
func Binary(op string, left, right Pattern) Pattern {
	return patternFunc(func(e fast.Expr, env *Env) bool {
		b, ok := e.(*fast.BinaryExpression)
		if !ok || b.Operator.String() != op {
			return false
		}
		return (left == nil || left.match(exprOf(b.Left), env)) &&
			(right == nil || right.match(exprOf(b.Right), env))
	})
}

// Unary matches a UnaryExpression with the given operator.
func Unary(op string, operand Pattern) Pattern {
	return patternFunc(func(e fast.Expr, env *Env) bool {
		u, ok := e.(*fast.UnaryExpression)
		if !ok || u.Operator.String() != op {
			return false
		}
		return operand == nil || operand.match(exprOf(u.Operand), env)
	})
}

// Or tries each alternative in order and takes the first that matches
// (local alternation only, no backtracking across an outer pattern once
// one alternative has committed captures).
func Or(alts ...Pattern) Pattern {
	return patternFunc(func(e fast.Expr, env *Env) bool {
		for _, a := range alts {
			if a.match(e, env) {
				return true
			}
		}
		return false
	})
}

func exprOf(e *fast.Expression) fast.Expr {
	if e == nil {
		return nil
	}
	return e.Expr
}

func objExpr(m *fast.MemberExpression) fast.Expr {
	if m.Object == nil {
		return nil
	}
	return m.Object.Expr
}

func memberPropName(m *fast.MemberExpression) (string, bool) {
	if m.Property == nil || m.Property.Prop == nil {
		return "", false
	}
	switch p := m.Property.Prop.(type) {
	case *fast.Identifier:
		return p.Name, true
	case *fast.ComputedProperty:
		if p.Expr == nil {
			return "", false
		}
		if lit, ok := p.Expr.Expr.(*fast.StringLiteral); ok {
			return lit.Value, true
		}
	}
	return "", false
}
