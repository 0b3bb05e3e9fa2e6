package passes

import (
	"testing"

	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
)

// TestControlFlowUnflattenSeedScenario exercises §8 seed scenario 3: the
// switch's case bodies must be concatenated in dispatch order with no
// stray break left over from the while(true) loop's own exit break.
func TestControlFlowUnflattenSeedScenario(t *testing.T) {
	prog := mustParse(t, `var s="3|1|0|2|4".split("|"),i=0; while(true){switch(s[i++]){case "0":log("three");continue;case "1":log("two");continue;case "2":log("four");continue;case "3":log("one");continue;case "4":log("five");break;}break;}`)
	report := diag.New(nil)
	stats := runControlFlowUnflatten(prog, report)

	if stats.Rewrites != 1 {
		t.Fatalf("Rewrites = %d, want 1", stats.Rewrites)
	}

	var calls []string
	for _, s := range prog.Body {
		es, ok := s.Stmt.(*fast.ExpressionStatement)
		if !ok {
			if _, isBreak := s.Stmt.(*fast.BreakStatement); isBreak {
				t.Fatalf("no break statement should remain once the while(true) loop is replaced by straight-line code")
			}
			continue
		}
		call, ok := es.Expression.Expr.(*fast.CallExpression)
		if !ok {
			continue
		}
		callee, ok := call.Callee.Expr.(*fast.Identifier)
		if !ok || callee.Name != "log" || len(call.ArgumentList) != 1 {
			continue
		}
		arg, ok := call.ArgumentList[0].Expr.(*fast.StringLiteral)
		if !ok {
			continue
		}
		calls = append(calls, arg.Value)
	}

	want := []string{"one", "two", "three", "four", "five"}
	if len(calls) != len(want) {
		t.Fatalf("log() calls = %v, want %v", calls, want)
	}
	for i, w := range want {
		if calls[i] != w {
			t.Fatalf("log() calls = %v, want %v", calls, want)
		}
	}

	for _, s := range prog.Body {
		if _, ok := s.Stmt.(*fast.WhileStatement); ok {
			t.Fatalf("while(true) loop should have been replaced")
		}
	}
}
