package passes

import (
	"testing"

	fast "github.com/t14raptor/go-fast/ast"
	"github.com/t14raptor/go-fast/parser"

	"github.com/fxnatic/jsdeobf/internal/diag"
)

func mustParse(t *testing.T, src string) *fast.Program {
	t.Helper()
	p, err := parser.ParseFile(src)
	if err != nil {
		t.Fatalf("ParseFile(%q) error: %v", src, err)
	}
	return p
}

func TestTernaryToIfRewritesSideEffectTernary(t *testing.T) {
	prog := mustParse(t, "cond ? f() : g();")
	report := diag.New(nil)
	stats := runTernaryToIf(prog, report)

	if stats.Rewrites != 1 {
		t.Fatalf("Rewrites = %d, want 1", stats.Rewrites)
	}
	if len(prog.Body) != 1 {
		t.Fatalf("expected exactly one top-level statement, got %d", len(prog.Body))
	}
	ifStmt, ok := prog.Body[0].Stmt.(*fast.IfStatement)
	if !ok {
		t.Fatalf("expected an IfStatement, got %T", prog.Body[0].Stmt)
	}
	if ifStmt.Test == nil || ifStmt.Test.Expr == nil {
		t.Errorf("if statement is missing its test expression")
	}
	if _, ok := ifStmt.Test.Expr.(*fast.Identifier); !ok {
		t.Errorf("if statement's test should be the ternary's condition, got %T", ifStmt.Test.Expr)
	}
	if ifStmt.Consequent == nil || ifStmt.Alternate == nil {
		t.Errorf("if statement should carry both a consequent and an alternate branch")
	}
}

func TestTernaryToIfLeavesValueProducingTernaryAlone(t *testing.T) {
	prog := mustParse(t, "var x = cond ? 1 : 2;")
	report := diag.New(nil)
	stats := runTernaryToIf(prog, report)
	if stats.Rewrites != 0 {
		t.Errorf("a ternary used for its value, not as a standalone statement, should not be rewritten")
	}
}

func TestTernaryToIfDescendsIntoFunctionBodies(t *testing.T) {
	prog := mustParse(t, "function f() { cond ? a() : b(); }")
	report := diag.New(nil)
	stats := runTernaryToIf(prog, report)
	if stats.Rewrites != 1 {
		t.Fatalf("Rewrites = %d, want 1 (nested inside a function body)", stats.Rewrites)
	}
}
