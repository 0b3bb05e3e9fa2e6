package passes

import (
	"math"
	"testing"

	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
)

// TestExpressionSimplifySeedScenario exercises §8 seed scenario 4:
// !0/!1/void 0/1/0 fold to true/false/undefined(null)/Infinity.
func TestExpressionSimplifySeedScenario(t *testing.T) {
	prog := mustParse(t, `var x=!0, y=!1, z=void 0, w=1/0;`)
	report := diag.New(nil)
	stats := runExpressionSimplify(prog, report)

	if stats.Rewrites != 4 {
		t.Fatalf("Rewrites = %d, want 4", stats.Rewrites)
	}

	decl, ok := prog.Body[0].Stmt.(*fast.VariableDeclaration)
	if !ok || len(decl.List) != 4 {
		t.Fatalf("expected one VariableDeclaration with 4 declarators, got %#v", prog.Body[0].Stmt)
	}

	xLit, ok := decl.List[0].Initializer.Expr.(*fast.BooleanLiteral)
	if !ok || xLit.Value != true {
		t.Errorf("x initializer = %#v, want boolean literal true", decl.List[0].Initializer.Expr)
	}
	yLit, ok := decl.List[1].Initializer.Expr.(*fast.BooleanLiteral)
	if !ok || yLit.Value != false {
		t.Errorf("y initializer = %#v, want boolean literal false", decl.List[1].Initializer.Expr)
	}
	if _, ok := decl.List[2].Initializer.Expr.(*fast.NullLiteral); !ok {
		t.Errorf("z initializer = %#v, want a null/undefined literal", decl.List[2].Initializer.Expr)
	}
	wLit, ok := decl.List[3].Initializer.Expr.(*fast.NumberLiteral)
	if !ok || !math.IsInf(wLit.Value, 1) {
		t.Errorf("w initializer = %#v, want +Infinity", decl.List[3].Initializer.Expr)
	}
}

func TestExpressionSimplifyFoldsConditionalOnLiteralTest(t *testing.T) {
	prog := mustParse(t, `var r = true ? a() : b();`)
	report := diag.New(nil)
	stats := runExpressionSimplify(prog, report)
	if stats.Rewrites == 0 {
		t.Fatalf("expected at least one fold")
	}
	decl := prog.Body[0].Stmt.(*fast.VariableDeclaration)
	call, ok := decl.List[0].Initializer.Expr.(*fast.CallExpression)
	if !ok {
		t.Fatalf("expected the conditional to fold to its consequent call, got %#v", decl.List[0].Initializer.Expr)
	}
	callee, ok := call.Callee.Expr.(*fast.Identifier)
	if !ok || callee.Name != "a" {
		t.Errorf("folded conditional callee = %#v, want identifier a", call.Callee.Expr)
	}
}
