package ast

import (
	"testing"

	fast "github.com/t14raptor/go-fast/ast"
)

func TestIsPureLiterals(t *testing.T) {
	cases := []struct {
		name string
		e    fast.Expr
		want bool
	}{
		{"nil", nil, true},
		{"identifier", &fast.Identifier{Name: "x"}, true},
		{"string", Str("a"), true},
		{"number", Num(1), true},
		{"boolean", Bool(true), true},
		{"call", &fast.CallExpression{Callee: ExprPtr(&fast.Identifier{Name: "f"})}, false},
	}
	for _, c := range cases {
		if got := IsPure(c.e); got != c.want {
			t.Errorf("IsPure(%s) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestIsPureUnaryAndBinary(t *testing.T) {
	unary := &fast.UnaryExpression{Operand: &fast.Expression{Expr: Num(1)}}
	if !IsPure(unary) {
		t.Errorf("unary over a pure operand should be pure")
	}

	impureCall := &fast.Expression{Expr: &fast.CallExpression{Callee: ExprPtr(&fast.Identifier{Name: "f"})}}
	bin := &fast.BinaryExpression{Left: ExprPtr(Num(1)), Right: impureCall}
	if IsPure(bin) {
		t.Errorf("binary with an impure operand should not be pure")
	}
}

func TestIsPureSequenceAndArray(t *testing.T) {
	seq := &fast.SequenceExpression{Sequence: []fast.Expression{
		{Expr: Num(1)},
		{Expr: Str("a")},
	}}
	if !IsPure(seq) {
		t.Errorf("sequence of pure operands should be pure")
	}

	arr := &fast.ArrayLiteral{Value: []fast.Expression{
		{Expr: Num(1)},
		{Expr: &fast.CallExpression{Callee: ExprPtr(&fast.Identifier{Name: "f"})}},
	}}
	if IsPure(arr) {
		t.Errorf("array literal containing an impure element should not be pure")
	}
}

func TestMemberPropName(t *testing.T) {
	dotted := &fast.MemberProperty{Prop: &fast.Identifier{Name: "prop"}}
	if name, ok := MemberPropName(dotted); !ok || name != "prop" {
		t.Errorf("dotted member: got (%q, %v), want (\"prop\", true)", name, ok)
	}

	computedStr := &fast.MemberProperty{Prop: &fast.ComputedProperty{Expr: &fast.Expression{Expr: Str("prop")}}}
	if name, ok := MemberPropName(computedStr); !ok || name != "prop" {
		t.Errorf("computed string member: got (%q, %v), want (\"prop\", true)", name, ok)
	}

	computedNum := &fast.MemberProperty{Prop: &fast.ComputedProperty{Expr: &fast.Expression{Expr: Num(3)}}}
	if name, ok := MemberPropName(computedNum); !ok || name != "3" {
		t.Errorf("computed numeric member: got (%q, %v), want (\"3\", true)", name, ok)
	}

	computedExpr := &fast.MemberProperty{Prop: &fast.ComputedProperty{Expr: &fast.Expression{Expr: &fast.Identifier{Name: "i"}}}}
	if _, ok := MemberPropName(computedExpr); ok {
		t.Errorf("computed non-literal member should not resolve")
	}
}

func TestLiteralKeyName(t *testing.T) {
	if name, ok := LiteralKeyName(&fast.Expression{Expr: &fast.Identifier{Name: "k"}}); !ok || name != "k" {
		t.Errorf("identifier key: got (%q, %v)", name, ok)
	}
	if name, ok := LiteralKeyName(&fast.Expression{Expr: Str("k")}); !ok || name != "k" {
		t.Errorf("string key: got (%q, %v)", name, ok)
	}
	if _, ok := LiteralKeyName(nil); ok {
		t.Errorf("nil key expression should not resolve")
	}
}

func TestIsValidIdentifierName(t *testing.T) {
	valid := []string{"a", "_a", "$a", "abc123", "A1"}
	invalid := []string{"", "1a", "a-b", "a.b", "var", "function", "true"}
	for _, s := range valid {
		if !IsValidIdentifierName(s) {
			t.Errorf("IsValidIdentifierName(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsValidIdentifierName(s) {
			t.Errorf("IsValidIdentifierName(%q) = true, want false", s)
		}
	}
}

func TestUnwrapSequenceTail(t *testing.T) {
	seq := &fast.SequenceExpression{Sequence: []fast.Expression{
		{Expr: Num(1)},
		{Expr: Num(2)},
		{Expr: Str("last")},
	}}
	got := UnwrapSequenceTail(seq)
	str, ok := got.(*fast.StringLiteral)
	if !ok || str.Value != "last" {
		t.Errorf("UnwrapSequenceTail = %#v, want string literal \"last\"", got)
	}

	var nonSeq fast.Expr = Num(5)
	if got := UnwrapSequenceTail(nonSeq); got != nonSeq {
		t.Errorf("UnwrapSequenceTail on non-sequence should return the input unchanged")
	}
}

func TestExprKindAndStmtKind(t *testing.T) {
	if ExprKind(&fast.Identifier{Name: "x"}) != KindIdentifier {
		t.Errorf("ExprKind(Identifier) mismatch")
	}
	if ExprKind(Str("a")) != KindStringLiteral {
		t.Errorf("ExprKind(StringLiteral) mismatch")
	}
	if StmtKind(&fast.EmptyStatement{}) != KindEmptyStatement {
		t.Errorf("StmtKind(EmptyStatement) mismatch")
	}
	if StmtKind(&fast.ReturnStatement{}) != KindReturnStatement {
		t.Errorf("StmtKind(ReturnStatement) mismatch")
	}
}
