package cli

import (
	"testing"

	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

func TestParsePassSelectionAllowList(t *testing.T) {
	mask, err := parsePassSelection("call-proxy-inline,operator-proxy-inline", pipeline.DefaultEnabled())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mask != pipeline.P4|pipeline.P5 {
		t.Errorf("mask = %v, want P4|P5", mask)
	}
}

func TestParsePassSelectionDenyList(t *testing.T) {
	def := pipeline.DefaultEnabled()
	mask, err := parsePassSelection("!identifier-rename,!peephole-sweep", def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mask&pipeline.P12 != 0 {
		t.Errorf("P12 should be disabled by the deny list")
	}
	if mask != def&^pipeline.P12 {
		t.Errorf("deny list should only remove the named passes from the default set, got %v want %v", mask, def&^pipeline.P12)
	}
}

func TestParsePassSelectionRejectsMixedForms(t *testing.T) {
	if _, err := parsePassSelection("call-proxy-inline,!identifier-rename", pipeline.DefaultEnabled()); err == nil {
		t.Errorf("mixing allow and deny forms should be rejected")
	}
}

func TestParsePassSelectionRejectsUnknownName(t *testing.T) {
	if _, err := parsePassSelection("not-a-real-pass", pipeline.DefaultEnabled()); err == nil {
		t.Errorf("an unknown pass name should be rejected")
	}
}

func TestReindentSpaces(t *testing.T) {
	in := "if (x) {\n\tf();\n}\n"
	out := reindent(in, 4, false)
	want := "if (x) {\n    f();\n}\n"
	if out != want {
		t.Errorf("reindent(4 spaces) = %q, want %q", out, want)
	}
}

func TestReindentTabsIsNoop(t *testing.T) {
	in := "if (x) {\n\tf();\n}\n"
	out := reindent(in, 2, true)
	if out != in {
		t.Errorf("reindent(tabs) should leave tab-indented input unchanged, got %q", out)
	}
}

func TestReindentPreservesNonLeadingTabs(t *testing.T) {
	in := "\tvar s = \"a\\tb\";\n"
	out := reindent(in, 2, false)
	want := "  var s = \"a\\tb\";\n"
	if out != want {
		t.Errorf("reindent should only rewrite leading tabs, got %q want %q", out, want)
	}
}
