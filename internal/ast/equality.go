package ast

import fast "github.com/t14raptor/go-fast/ast"

// EqualExpr reports whether two expressions are structurally identical,
// ignoring source location. It only needs to be complete for the shapes
// the passes actually compare (literals, identifiers, simple member
// chains, calls); anything else falls back to false rather than risking a
// false positive that would let a pass merge two subtly different
// subtrees.
func EqualExpr(a, b fast.Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case *fast.Identifier:
		bv, ok := b.(*fast.Identifier)
		return ok && av.Name == bv.Name
	case *fast.StringLiteral:
		bv, ok := b.(*fast.StringLiteral)
		return ok && av.Value == bv.Value
	case *fast.NumberLiteral:
		bv, ok := b.(*fast.NumberLiteral)
		return ok && av.Value == bv.Value
	case *fast.BooleanLiteral:
		bv, ok := b.(*fast.BooleanLiteral)
		return ok && av.Value == bv.Value
	case *fast.NullLiteral:
		_, ok := b.(*fast.NullLiteral)
		return ok
	case *fast.MemberExpression:
		bv, ok := b.(*fast.MemberExpression)
		if !ok {
			return false
		}
		aProp, aOK := MemberPropName(av.Property)
		bProp, bOK := MemberPropName(bv.Property)
		return aOK && bOK && aProp == bProp && EqualExpr(exprOf(av.Object), exprOf(bv.Object))
	case *fast.CallExpression:
		bv, ok := b.(*fast.CallExpression)
		if !ok || len(av.ArgumentList) != len(bv.ArgumentList) {
			return false
		}
		if !EqualExpr(exprOf(av.Callee), exprOf(bv.Callee)) {
			return false
		}
		for i := range av.ArgumentList {
			if !EqualExpr(av.ArgumentList[i].Expr, bv.ArgumentList[i].Expr) {
				return false
			}
		}
		return true
	case *fast.UnaryExpression:
		bv, ok := b.(*fast.UnaryExpression)
		return ok && av.Operator.String() == bv.Operator.String() && EqualExpr(exprOf(av.Operand), exprOf(bv.Operand))
	case *fast.BinaryExpression:
		bv, ok := b.(*fast.BinaryExpression)
		return ok && av.Operator.String() == bv.Operator.String() &&
			EqualExpr(exprOf(av.Left), exprOf(bv.Left)) && EqualExpr(exprOf(av.Right), exprOf(bv.Right))
	default:
		return false
	}
}
