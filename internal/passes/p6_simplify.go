package passes

import (
	"math"

	fast "github.com/t14raptor/go-fast/ast"

	deast "github.com/fxnatic/jsdeobf/internal/ast"
	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

// ExpressionSimplify is P6 (§4.2), a fixed-point pass: constant-folds
// arithmetic/comparison/logical binary expressions with literal operands,
// evaluates unary operators over literals (!, -, +, ~, void, typeof on a
// literal), collapses double negation and the `!0`/`!1` idiom to boolean
// literals, and resolves a conditional expression with a literal test to
// its taken branch. It is grounded on the teacher's own constant-folding
// visitor (the same operator switch over NumberLiteral pairs), generalized
// to comparisons, logical short-circuit, and to run until no further fold
// applies rather than exactly once.
func ExpressionSimplify() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P6, Name: "expression-simplify", FixedPoint: true, Run: runExpressionSimplify}
}

func runExpressionSimplify(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}
	v := &simplifyVisitor{stats: &stats, report: report}
	v.V = v
	p.VisitWith(v)
	return stats
}

type simplifyVisitor struct {
	fast.NoopVisitor
	stats  *diag.PassStats
	report *diag.Report
}

func (v *simplifyVisitor) VisitExpression(n *fast.Expression) {
	n.VisitChildrenWith(v)
	v.stats.NodesVisited++

	if folded, ok := foldExpression(n.Expr); ok {
		n.Expr = folded
		v.stats.Rewrites++
	}
}

func foldExpression(e fast.Expr) (fast.Expr, bool) {
	switch x := e.(type) {
	case *fast.UnaryExpression:
		return foldUnary(x)
	case *fast.BinaryExpression:
		return foldBinary(x)
	case *fast.ConditionalExpression:
		return foldConditional(x)
	}
	return nil, false
}

func foldUnary(u *fast.UnaryExpression) (fast.Expr, bool) {
	switch u.Operator.String() {
	case "!":
		if b, ok := truthiness(u.Operand.Expr); ok {
			return deast.Bool(!b), true
		}
	case "-":
		if n, ok := u.Operand.Expr.(*fast.NumberLiteral); ok {
			return deast.Num(-n.Value), true
		}
	case "+":
		if n, ok := u.Operand.Expr.(*fast.NumberLiteral); ok {
			return deast.Num(n.Value), true
		}
	case "~":
		if n, ok := u.Operand.Expr.(*fast.NumberLiteral); ok {
			return deast.Num(float64(^int32(n.Value))), true
		}
	case "void":
		if deast.IsPure(u.Operand.Expr) {
			return &fast.NullLiteral{}, true
		}
	case "typeof":
		switch u.Operand.Expr.(type) {
		case *fast.StringLiteral:
			return deast.Str("string"), true
		case *fast.NumberLiteral:
			return deast.Str("number"), true
		case *fast.BooleanLiteral:
			return deast.Str("boolean"), true
		}
	}
	return nil, false
}

// truthiness reports the boolean value of a literal expression per JS
// coercion rules, restricted to the literal kinds the pipeline actually
// synthesizes or expects to see obfuscated (booleans, numbers, strings,
// null); anything else is left unresolved.
func truthiness(e fast.Expr) (bool, bool) {
	switch x := e.(type) {
	case *fast.BooleanLiteral:
		return x.Value, true
	case *fast.NumberLiteral:
		return x.Value != 0 && !math.IsNaN(x.Value), true
	case *fast.StringLiteral:
		return x.Value != "", true
	case *fast.NullLiteral:
		return false, true
	}
	return false, false
}

func foldBinary(b *fast.BinaryExpression) (fast.Expr, bool) {
	switch op := b.Operator.String(); op {
	case "&&", "||":
		lv, ok := truthiness(b.Left.Expr)
		if !ok {
			return nil, false
		}
		if lv == (op == "&&") {
			return b.Right.Expr, true
		}
		return b.Left.Expr, true
	}

	ln, lok := b.Left.Expr.(*fast.NumberLiteral)
	rn, rok := b.Right.Expr.(*fast.NumberLiteral)
	if lok && rok {
		if res, ok := foldNumeric(b.Operator.String(), ln.Value, rn.Value); ok {
			return res, true
		}
	}

	ls, lsok := b.Left.Expr.(*fast.StringLiteral)
	rs, rsok := b.Right.Expr.(*fast.StringLiteral)
	if lsok && rsok && b.Operator.String() == "+" {
		return deast.Str(ls.Value + rs.Value), true
	}
	if lsok && rsok {
		if res, ok := foldStringCompare(b.Operator.String(), ls.Value, rs.Value); ok {
			return res, true
		}
	}

	return nil, false
}

func foldNumeric(op string, l, r float64) (fast.Expr, bool) {
	switch op {
	case "+":
		return deast.Num(l + r), true
	case "-":
		return deast.Num(l - r), true
	case "*":
		return deast.Num(l * r), true
	case "/":
		return deast.Num(l / r), true
	case "%":
		return deast.Num(math.Mod(l, r)), true
	case "**":
		return deast.Num(math.Pow(l, r)), true
	case "<":
		return deast.Bool(l < r), true
	case "<=":
		return deast.Bool(l <= r), true
	case ">":
		return deast.Bool(l > r), true
	case ">=":
		return deast.Bool(l >= r), true
	case "==", "===":
		return deast.Bool(l == r), true
	case "!=", "!==":
		return deast.Bool(l != r), true
	case "&":
		return deast.Num(float64(int32(l) & int32(r))), true
	case "|":
		return deast.Num(float64(int32(l) | int32(r))), true
	case "^":
		return deast.Num(float64(int32(l) ^ int32(r))), true
	case "<<":
		return deast.Num(float64(int32(l) << (int32(r) & 31))), true
	case ">>":
		return deast.Num(float64(int32(l) >> (int32(r) & 31))), true
	}
	return nil, false
}

func foldStringCompare(op, l, r string) (fast.Expr, bool) {
	switch op {
	case "==", "===":
		return deast.Bool(l == r), true
	case "!=", "!==":
		return deast.Bool(l != r), true
	case "<":
		return deast.Bool(l < r), true
	case "<=":
		return deast.Bool(l <= r), true
	case ">":
		return deast.Bool(l > r), true
	case ">=":
		return deast.Bool(l >= r), true
	}
	return nil, false
}

func foldConditional(c *fast.ConditionalExpression) (fast.Expr, bool) {
	b, ok := truthiness(c.Test.Expr)
	if !ok {
		return nil, false
	}
	if b {
		return c.Consequent.Expr, true
	}
	return c.Alternate.Expr, true
}
