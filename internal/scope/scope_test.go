package scope

import (
	"testing"

	fast "github.com/t14raptor/go-fast/ast"
	"github.com/t14raptor/go-fast/parser"
)

func mustParse(t *testing.T, src string) *fast.Program {
	t.Helper()
	p, err := parser.ParseFile(src)
	if err != nil {
		t.Fatalf("ParseFile(%q) error: %v", src, err)
	}
	return p
}

func TestAnalyzeCountsPlainReads(t *testing.T) {
	prog := mustParse(t, `
		var x = 1;
		console.log(x);
		console.log(x);
	`)
	table := Analyze(prog)

	var xID fast.Id
	for id, b := range table.Bindings {
		if b.Name == "x" {
			xID = id
		}
	}
	b := table.Get(xID)
	if b == nil {
		t.Fatalf("expected a binding for x")
	}
	if b.Reads != 2 {
		t.Errorf("Reads = %d, want 2", b.Reads)
	}
	if b.Kind != KindVar {
		t.Errorf("Kind = %v, want KindVar", b.Kind)
	}
}

func TestAnalyzeCountsWrite(t *testing.T) {
	prog := mustParse(t, `
		var x;
		x = 5;
	`)
	table := Analyze(prog)

	var xID fast.Id
	for id, b := range table.Bindings {
		if b.Name == "x" {
			xID = id
		}
	}
	b := table.Get(xID)
	if b == nil {
		t.Fatalf("expected a binding for x")
	}
	if b.Writes != 1 {
		t.Errorf("Writes = %d, want 1", b.Writes)
	}
}

func TestAnalyzeDetectsCapture(t *testing.T) {
	prog := mustParse(t, `
		var x = 1;
		function f() { return x; }
	`)
	table := Analyze(prog)

	var xID fast.Id
	for id, b := range table.Bindings {
		if b.Name == "x" {
			xID = id
		}
	}
	b := table.Get(xID)
	if b == nil || !b.Captured {
		t.Errorf("x should be marked Captured since it is read from inside f's nested scope")
	}
}

func TestAnalyzeUndeclaredIdentifierHasNoBinding(t *testing.T) {
	prog := mustParse(t, `console.log(y);`)
	table := Analyze(prog)
	for _, b := range table.Bindings {
		if b.Name == "y" {
			t.Errorf("y is never declared in this program and should have no binding")
		}
	}
}

func TestAnalyzeFunctionParameterBinding(t *testing.T) {
	prog := mustParse(t, `function f(a) { return a; }`)
	table := Analyze(prog)

	var aID fast.Id
	found := false
	for id, b := range table.Bindings {
		if b.Name == "a" {
			aID = id
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a binding for parameter a")
	}
	b := table.Get(aID)
	if b.Kind != KindParameter {
		t.Errorf("Kind = %v, want KindParameter", b.Kind)
	}
	if b.Reads != 1 {
		t.Errorf("Reads = %d, want 1", b.Reads)
	}
}
