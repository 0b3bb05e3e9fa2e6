package passes

import (
	"testing"

	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
)

// TestStringArrayRotationSeedScenario exercises §8 seed scenario 1: the
// rotation IIFE runs its while(--n) loop the full seed number of times,
// not seed-1, so d(0) must resolve to "b" once P3 inlines it.
func TestStringArrayRotationSeedScenario(t *testing.T) {
	prog := mustParse(t, `var a=["c","a","b"]; (function(x,n){while(--n)x.push(x.shift());})(a,2); function d(i){return a[i];} console.log(d(0));`)
	report := diag.New(nil)
	stats := runStringArrayRotation(prog, report)

	if stats.Rewrites != 1 {
		t.Fatalf("Rewrites = %d, want 1", stats.Rewrites)
	}

	decl, ok := prog.Body[0].Stmt.(*fast.VariableDeclaration)
	if !ok {
		t.Fatalf("expected the array declaration to remain first, got %T", prog.Body[0].Stmt)
	}
	arrLit, ok := decl.List[0].Initializer.Expr.(*fast.ArrayLiteral)
	if !ok {
		t.Fatalf("expected an ArrayLiteral initializer, got %T", decl.List[0].Initializer.Expr)
	}
	if len(arrLit.Value) != 3 {
		t.Fatalf("expected 3 elements after rotation, got %d", len(arrLit.Value))
	}
	first, ok := arrLit.Value[0].Expr.(*fast.StringLiteral)
	if !ok || first.Value != "b" {
		t.Fatalf("rotated array[0] = %#v, want \"b\" (seed 2 rotates by 2, not 1)", arrLit.Value[0].Expr)
	}

	for _, s := range prog.Body {
		if es, ok := s.Stmt.(*fast.ExpressionStatement); ok {
			if call, ok := es.Expression.Expr.(*fast.CallExpression); ok {
				if _, isIIFE := call.Callee.Expr.(*fast.FunctionLiteral); isIIFE {
					t.Fatalf("rotation IIFE call should have been removed, found: %#v", es)
				}
			}
		}
	}
}

func TestApplyRotationBySeedNotSeedMinusOne(t *testing.T) {
	rotated, shift := applyRotation([]string{"c", "a", "b"}, 2, true)
	if shift != 2 {
		t.Fatalf("shift = %d, want 2 (rotate-by-seed, not seed-1)", shift)
	}
	want := []string{"b", "c", "a"}
	for i, w := range want {
		if rotated[i] != w {
			t.Fatalf("rotated = %v, want %v", rotated, want)
		}
	}
}
