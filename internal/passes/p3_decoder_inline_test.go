package passes

import (
	"testing"

	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/strarray"
)

// TestDecoderInlineSeedScenario exercises §8 seed scenario 2: the offset
// decoder resolves d(100) to a["apple","banana"][100-100] and both the
// decoder and the array are removed once nothing else reads them.
func TestDecoderInlineSeedScenario(t *testing.T) {
	prog := mustParse(t, `var a=["apple","banana"]; function d(i){i=i-100; return a[i];} console.log(d(100));`)
	report := diag.New(nil)
	stats := runDecoderInline(prog, report)

	if stats.Rewrites != 1 {
		t.Fatalf("Rewrites = %d, want 1", stats.Rewrites)
	}

	if len(prog.Body) != 1 {
		t.Fatalf("expected only the console.log call to remain, got %d statements: %#v", len(prog.Body), prog.Body)
	}
	es, ok := prog.Body[0].Stmt.(*fast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected an ExpressionStatement, got %T", prog.Body[0].Stmt)
	}
	call, ok := es.Expression.Expr.(*fast.CallExpression)
	if !ok || len(call.ArgumentList) != 1 {
		t.Fatalf("expected console.log(<one arg>), got %#v", es.Expression.Expr)
	}
	lit, ok := call.ArgumentList[0].Expr.(*fast.StringLiteral)
	if !ok || lit.Value != "apple" {
		t.Fatalf("inlined argument = %#v, want string literal \"apple\"", call.ArgumentList[0].Expr)
	}
}

func TestApplyTransformXORCyclesFullKey(t *testing.T) {
	cand := &decoderCandidate{transform: strarray.TransformXOR, xorKey: "ab"}
	raw := string([]byte{'a' ^ 'a', 'b' ^ 'b', 'c' ^ 'a'})
	got, ok := applyTransform(raw, cand)
	if !ok {
		t.Fatalf("applyTransform returned ok=false")
	}
	if got != "abc" {
		t.Fatalf("applyTransform(XOR) = %q, want %q", got, "abc")
	}
}

func TestApplyTransformXORRejectsEmptyKey(t *testing.T) {
	cand := &decoderCandidate{transform: strarray.TransformXOR}
	if _, ok := applyTransform("x", cand); ok {
		t.Fatalf("applyTransform(XOR) with no key should fail rather than silently no-op")
	}
}

func TestRC4DecodeBase64PreDecodesAndValidatesKeyLength(t *testing.T) {
	if _, ok := rc4Decode("aGVsbG8=", "short"); ok {
		t.Fatalf("rc4Decode should reject a key that isn't 8/16/32 bytes, got ok=true for %q (len %d)", "short", len("short"))
	}
	if _, ok := rc4Decode("not-base64!!", "01234567"); ok {
		t.Fatalf("rc4Decode should fail on non-base64 ciphertext")
	}
}
