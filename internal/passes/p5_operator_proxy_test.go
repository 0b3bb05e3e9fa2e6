package passes

import (
	"testing"

	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
)

func TestOperatorProxyInlineRewritesCallSite(t *testing.T) {
	prog := mustParse(t, `
		function o(a, b) { return a + b; }
		var r = o(1, 2);
	`)
	report := diag.New(nil)
	stats := runOperatorProxyInline(prog, report)

	if stats.Rewrites != 1 {
		t.Fatalf("Rewrites = %d, want 1", stats.Rewrites)
	}
	if len(prog.Body) != 1 {
		t.Fatalf("proxy declaration should be pruned once unread, got %d statements", len(prog.Body))
	}
	decl := prog.Body[0].Stmt.(*fast.VariableDeclaration)
	bin, ok := decl.List[0].Initializer.Expr.(*fast.BinaryExpression)
	if !ok {
		t.Fatalf("expected the call to be replaced with a BinaryExpression, got %T", decl.List[0].Initializer.Expr)
	}
	if bin.Operator.String() != "+" {
		t.Errorf("operator should be carried through unchanged, got %q", bin.Operator.String())
	}
	left, ok := bin.Left.Expr.(*fast.NumberLiteral)
	if !ok || left.Value != 1 {
		t.Errorf("left operand should be the first call argument, got %#v", bin.Left.Expr)
	}
	right, ok := bin.Right.Expr.(*fast.NumberLiteral)
	if !ok || right.Value != 2 {
		t.Errorf("right operand should be the second call argument, got %#v", bin.Right.Expr)
	}
}

func TestOperatorProxyInlineSkipsArityMismatch(t *testing.T) {
	prog := mustParse(t, `
		function o(a, b) { return a + b; }
		var r = o(1);
	`)
	report := diag.New(nil)
	stats := runOperatorProxyInline(prog, report)
	if stats.Rewrites != 0 {
		t.Errorf("a call site with the wrong arity should be left unrewritten")
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
}
