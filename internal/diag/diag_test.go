package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestRecordAndSummary(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Record(PassStats{Pass: "p1", NodesVisited: 3, Rewrites: 2})
	r.RecordGuardFailure("p2", "operand not provably pure")
	r.RecordWebpackModule(4)
	r.RecordBudgetExceeded("p6")

	summary := r.Summary()
	for _, want := range []string{"p1[0]", "guard failure", "webpack modules annotated: 1", "p6: budget exceeded"} {
		if !strings.Contains(buf.String(), want) && !strings.Contains(summary, want) {
			t.Errorf("expected trace or summary to contain %q; trace=%q summary=%q", want, buf.String(), summary)
		}
	}
	if r.TotalRewrites() != 2 {
		t.Errorf("TotalRewrites = %d, want 2", r.TotalRewrites())
	}
}

func TestNilTraceIsNoop(t *testing.T) {
	r := New(nil)
	r.Trace("should not panic %d", 1)
	r.Record(PassStats{Pass: "p1"})
	if len(r.Stats) != 1 {
		t.Errorf("Record should still append with a nil trace sink")
	}
}

func TestTotalRewritesEmpty(t *testing.T) {
	r := New(nil)
	if r.TotalRewrites() != 0 {
		t.Errorf("TotalRewrites on an empty report should be 0")
	}
}
