package match

import (
	"testing"

	fast "github.com/t14raptor/go-fast/ast"
	"github.com/t14raptor/go-fast/parser"
)

func exprPtr(e fast.Expr) *fast.Expression { return &fast.Expression{Expr: e} }

func TestNamedIdentAndAny(t *testing.T) {
	id := &fast.Identifier{Name: "x"}
	if _, ok := Match(NamedIdent("x"), id); !ok {
		t.Errorf("NamedIdent(x) should match identifier x")
	}
	if _, ok := Match(NamedIdent("y"), id); ok {
		t.Errorf("NamedIdent(y) should not match identifier x")
	}
	if _, ok := Match(Any(), id); !ok {
		t.Errorf("Any() should match any non-nil expression")
	}
	if _, ok := Match(Any(), nil); ok {
		t.Errorf("Any() should not match a nil expression")
	}
}

func TestBindCapturesMatchedExpression(t *testing.T) {
	num := &fast.NumberLiteral{Value: 42}
	env, ok := Match(Bind("n", NumberLit()), num)
	if !ok {
		t.Fatalf("Bind(NumberLit) should match a number literal")
	}
	if v, ok := env.Number("n"); !ok || v != 42 {
		t.Errorf("captured number = (%v, %v), want (42, true)", v, ok)
	}
}

func TestGuardRejectsOnFailedCondition(t *testing.T) {
	pat := Guard(Bind("n", NumberLit()), func(e *Env) bool {
		v, _ := e.Number("n")
		return v > 100
	})
	if _, ok := Match(pat, &fast.NumberLiteral{Value: 5}); ok {
		t.Errorf("Guard should reject when the condition is false")
	}
	if _, ok := Match(pat, &fast.NumberLiteral{Value: 200}); !ok {
		t.Errorf("Guard should accept when the condition is true")
	}
}

func TestCallMatchesCalleeAndArguments(t *testing.T) {
	call := &fast.CallExpression{
		Callee: exprPtr(&fast.Identifier{Name: "f"}),
		ArgumentList: []fast.Expression{
			{Expr: &fast.NumberLiteral{Value: 1}},
			{Expr: &fast.StringLiteral{Value: "a"}},
		},
	}
	pat := Call(NamedIdent("f"), NumberLit(), StringLit())
	if _, ok := Match(pat, call); !ok {
		t.Errorf("Call pattern should match callee and both arguments")
	}
	if _, ok := Match(Call(NamedIdent("g")), call); ok {
		t.Errorf("Call pattern should reject a mismatched callee")
	}
	if _, ok := Match(Call(NamedIdent("f"), NumberLit()), call); ok {
		t.Errorf("Call pattern should reject a mismatched argument count")
	}
}

func TestCallWithNilCalleeAndArgs(t *testing.T) {
	call := &fast.CallExpression{
		Callee: exprPtr(&fast.Identifier{Name: "f"}),
	}
	if _, ok := Match(Call(nil), call); !ok {
		t.Errorf("Call(nil) should accept any callee")
	}
}

func TestCallRejectsNonCallExpression(t *testing.T) {
	if _, ok := Match(Call(nil), &fast.Identifier{Name: "f"}); ok {
		t.Errorf("Call should reject a non-CallExpression node")
	}
}

func TestMemberMatchesDottedAndComputedAccess(t *testing.T) {
	obj := &fast.Identifier{Name: "obj"}
	dotted := &fast.MemberExpression{
		Object:   exprPtr(obj),
		Property: &fast.MemberProperty{Prop: &fast.Identifier{Name: "prop"}},
	}
	if _, ok := Match(Member(NamedIdent("obj"), "prop"), dotted); !ok {
		t.Errorf("Member should match a dotted access on the right object/property")
	}
	if _, ok := Match(Member(NamedIdent("obj"), "other"), dotted); ok {
		t.Errorf("Member should reject a mismatched property name")
	}

	computed := &fast.MemberExpression{
		Object: exprPtr(obj),
		Property: &fast.MemberProperty{Prop: &fast.ComputedProperty{
			Expr: exprPtr(&fast.StringLiteral{Value: "prop"}),
		}},
	}
	if _, ok := Match(Member(nil, "prop"), computed); !ok {
		t.Errorf("Member should resolve a computed string-literal property")
	}
}

// parseExprStatement parses a single-statement program and returns the
// expression it evaluates, so tests exercise real token.Token values
// produced by the parser instead of fabricating one out of thin air —
// nowhere in the corpus constructs a token.Token from a string literal.
func parseExprStatement(t *testing.T, src string) fast.Expr {
	t.Helper()
	prog, err := parser.ParseFile(src)
	if err != nil {
		t.Fatalf("ParseFile(%q) error: %v", src, err)
	}
	if len(prog.Body) != 1 {
		t.Fatalf("ParseFile(%q) produced %d statements, want 1", src, len(prog.Body))
	}
	stmt, ok := prog.Body[0].Stmt.(*fast.ExpressionStatement)
	if !ok {
		t.Fatalf("ParseFile(%q) did not produce an expression statement", src)
	}
	return stmt.Expression.Expr
}

func TestBinaryMatchesOperatorAndOperands(t *testing.T) {
	bin, ok := parseExprStatement(t, "1 + 2;").(*fast.BinaryExpression)
	if !ok {
		t.Fatalf("expected a BinaryExpression")
	}
	if _, ok := Match(Binary("+", NumberLit(), NumberLit()), bin); !ok {
		t.Errorf("Binary should match a matching operator with matching operands")
	}
	if _, ok := Match(Binary("-", NumberLit(), NumberLit()), bin); ok {
		t.Errorf("Binary should reject a mismatched operator")
	}
}

func TestUnaryMatchesOperatorAndOperand(t *testing.T) {
	u, ok := parseExprStatement(t, "!x;").(*fast.UnaryExpression)
	if !ok {
		t.Fatalf("expected a UnaryExpression")
	}
	if _, ok := Match(Unary("!", Ident()), u); !ok {
		t.Errorf("Unary should match a matching operator with a matching operand")
	}
	if _, ok := Match(Unary("-", Ident()), u); ok {
		t.Errorf("Unary should reject a mismatched operator")
	}
}

func TestOrTriesEachAlternative(t *testing.T) {
	pat := Or(NamedIdent("a"), NamedIdent("b"))
	if _, ok := Match(pat, &fast.Identifier{Name: "b"}); !ok {
		t.Errorf("Or should match the second alternative when the first fails")
	}
	if _, ok := Match(pat, &fast.Identifier{Name: "c"}); ok {
		t.Errorf("Or should reject when no alternative matches")
	}
}
