package pipeline

import (
	"testing"

	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
)

func TestDefaultEnabledExcludesP20(t *testing.T) {
	mask := DefaultEnabled()
	if mask&P20 != 0 {
		t.Errorf("DefaultEnabled should not include P20 (additive, off by default)")
	}
	for _, id := range AllPasses {
		if id == P20 {
			continue
		}
		if mask&id == 0 {
			t.Errorf("DefaultEnabled is missing %v", id)
		}
	}
}

func TestDeobfuscateRunsOneShotPassOnce(t *testing.T) {
	calls := 0
	passes := []Pass{
		{ID: P1, Name: "counts-calls", FixedPoint: false, Run: func(p *fast.Program, r *diag.Report) diag.PassStats {
			calls++
			return diag.PassStats{Rewrites: 1}
		}},
	}
	p := &fast.Program{}
	opts := Options{EnabledPasses: P1, MaxFixedPointIterations: 50}
	_, report, err := Deobfuscate(p, passes, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("one-shot pass ran %d times, want 1", calls)
	}
	if report.TotalRewrites() != 1 {
		t.Errorf("TotalRewrites = %d, want 1", report.TotalRewrites())
	}
}

func TestDeobfuscateSkipsDisabledPass(t *testing.T) {
	calls := 0
	passes := []Pass{
		{ID: P1, Name: "should-not-run", Run: func(p *fast.Program, r *diag.Report) diag.PassStats {
			calls++
			return diag.PassStats{}
		}},
	}
	p := &fast.Program{}
	opts := Options{EnabledPasses: P2}
	if _, _, err := Deobfuscate(p, passes, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Errorf("disabled pass ran %d times, want 0", calls)
	}
}

func TestDeobfuscateFixedPointConverges(t *testing.T) {
	remaining := 3
	passes := []Pass{
		{ID: P6, Name: "converge", FixedPoint: true, Run: func(p *fast.Program, r *diag.Report) diag.PassStats {
			if remaining == 0 {
				return diag.PassStats{Rewrites: 0}
			}
			remaining--
			return diag.PassStats{Rewrites: 1}
		}},
	}
	p := &fast.Program{}
	opts := Options{EnabledPasses: P6, MaxFixedPointIterations: 50}
	_, report, err := Deobfuscate(p, passes, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalRewrites() != 3 {
		t.Errorf("TotalRewrites = %d, want 3", report.TotalRewrites())
	}
	if len(report.Stats) != 4 {
		t.Errorf("expected 4 recorded iterations (3 rewriting + 1 final zero), got %d", len(report.Stats))
	}
}

func TestDeobfuscateFixedPointHitsBudget(t *testing.T) {
	passes := []Pass{
		{ID: P6, Name: "never-converges", FixedPoint: true, Run: func(p *fast.Program, r *diag.Report) diag.PassStats {
			return diag.PassStats{Rewrites: 1}
		}},
	}
	p := &fast.Program{}
	opts := Options{EnabledPasses: P6, MaxFixedPointIterations: 5}
	_, report, err := Deobfuscate(p, passes, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.BudgetExceeded) != 1 || report.BudgetExceeded[0] != "never-converges" {
		t.Errorf("expected budget-exceeded record for never-converges, got %v", report.BudgetExceeded)
	}
	if len(report.Stats) != 5 {
		t.Errorf("expected exactly MaxFixedPointIterations recorded iterations, got %d", len(report.Stats))
	}
}

func TestDeobfuscatePropagatesInvariantViolation(t *testing.T) {
	passes := []Pass{
		{ID: P7, Name: "breaks-tree", Run: func(p *fast.Program, r *diag.Report) diag.PassStats {
			p.Body = append(p.Body, fast.Statement{Stmt: nil})
			return diag.PassStats{}
		}},
	}
	p := &fast.Program{}
	opts := Options{EnabledPasses: P7}
	_, _, err := Deobfuscate(p, passes, opts)
	var iv *InvariantViolation
	if err == nil {
		t.Fatalf("expected an InvariantViolation, got nil error")
	}
	if !asInvariantViolation(err, &iv) {
		t.Fatalf("expected *InvariantViolation, got %T: %v", err, err)
	}
	if iv.Pass != "breaks-tree" {
		t.Errorf("InvariantViolation.Pass = %q, want %q", iv.Pass, "breaks-tree")
	}
}

func asInvariantViolation(err error, target **InvariantViolation) bool {
	iv, ok := err.(*InvariantViolation)
	if !ok {
		return false
	}
	*target = iv
	return true
}
