package passes

import (
	"testing"

	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
)

func TestShortCircuitToIfRewritesAnd(t *testing.T) {
	prog := mustParse(t, "cond && f();")
	report := diag.New(nil)
	stats := runShortCircuitToIf(prog, report)

	if stats.Rewrites != 1 {
		t.Fatalf("Rewrites = %d, want 1", stats.Rewrites)
	}
	ifStmt, ok := prog.Body[0].Stmt.(*fast.IfStatement)
	if !ok {
		t.Fatalf("expected an IfStatement, got %T", prog.Body[0].Stmt)
	}
	if _, ok := ifStmt.Test.Expr.(*fast.Identifier); !ok {
		t.Errorf("if statement's test should be the && left operand")
	}
	if ifStmt.Consequent == nil {
		t.Errorf("&& should produce a consequent running the right operand")
	}
	if ifStmt.Alternate != nil {
		t.Errorf("&& should not produce an alternate branch")
	}
}

func TestShortCircuitToIfRewritesOr(t *testing.T) {
	prog := mustParse(t, "cond || f();")
	report := diag.New(nil)
	stats := runShortCircuitToIf(prog, report)

	if stats.Rewrites != 1 {
		t.Fatalf("Rewrites = %d, want 1", stats.Rewrites)
	}
	ifStmt, ok := prog.Body[0].Stmt.(*fast.IfStatement)
	if !ok {
		t.Fatalf("expected an IfStatement, got %T", prog.Body[0].Stmt)
	}
	if ifStmt.Alternate == nil {
		t.Errorf("|| should move the right operand to the alternate branch")
	}
}

func TestShortCircuitToIfSkipsImpureLeftOperand(t *testing.T) {
	prog := mustParse(t, "f() && g();")
	report := diag.New(nil)
	stats := runShortCircuitToIf(prog, report)
	if stats.Rewrites != 0 {
		t.Errorf("an impure left operand can't be safely duplicated into an if-test, should be skipped")
	}
}

func TestShortCircuitToIfLeavesValueProducingExpressionAlone(t *testing.T) {
	prog := mustParse(t, "var x = cond && f();")
	report := diag.New(nil)
	stats := runShortCircuitToIf(prog, report)
	if stats.Rewrites != 0 {
		t.Errorf("&& used for its value should not be rewritten")
	}
}
