package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
	"github.com/fxnatic/jsdeobf/internal/strarray"
)

// StringArrayRotation is P2 (§4.2): finds the IIFE that rotates a string
// array via push(shift())/unshift(pop()) inside a while(--n) loop,
// simulates the rotation analytically, rewrites the array literal to its
// rotated contents, and removes the IIFE. If the rotation count is not
// statically determinable the array is left untouched (§9 Open
// Questions: "non-literal seeds should be left unchanged rather than
// guessed").
func StringArrayRotation() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P2, Name: "string-array-rotation", FixedPoint: false, Run: runStringArrayRotation}
}

func runStringArrayRotation(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}
	arrays := findStringArrays(p)
	stats.NodesVisited = len(arrays)

	var removeIIFE []int
	var arrayDeclByName = make(map[string]int)
	for i := range p.Body {
		decl, ok := p.Body[i].Stmt.(*fast.VariableDeclaration)
		if !ok {
			continue
		}
		for j := range decl.List {
			if id, ok := decl.List[j].Target.Target.(*fast.Identifier); ok {
				if _, known := arrays[id.ToId()]; known {
					arrayDeclByName[id.Name] = i
				}
			}
		}
	}

	for name, declIdx := range arrayDeclByName {
		iife, found := findRotationIIFE(p.Body, name)
		if !found {
			continue
		}
		if iife.seed <= 0 {
			report.RecordGuardFailure("string-array-rotation", "rotation seed is not a positive literal")
			stats.GuardFailures++
			continue
		}

		decl := p.Body[declIdx].Stmt.(*fast.VariableDeclaration)
		var target *fast.VariableDeclarator
		for j := range decl.List {
			if id, ok := decl.List[j].Target.Target.(*fast.Identifier); ok && id.Name == name {
				target = &decl.List[j]
			}
		}
		if target == nil {
			continue
		}
		arrLit, ok := target.Initializer.Expr.(*fast.ArrayLiteral)
		if !ok {
			continue
		}
		sa, ok := literalStringArray(arrLit)
		if !ok {
			continue
		}

		rotated, shift := applyRotation(sa.Contents, iife.seed, iife.pushShift)
		newElems := make([]fast.Expression, len(rotated))
		for i, s := range rotated {
			newElems[i] = fast.Expression{Expr: &fast.StringLiteral{Value: s}}
		}
		arrLit.Value = newElems
		stats.Rewrites++
		report.Trace("string-array-rotation: %s rotated by %d", name, shift)

		removeIIFE = append(removeIIFE, iife.stmtIndex)
	}

	if len(removeIIFE) > 0 {
		p.Body = removeStatementIndices(p.Body, removeIIFE)
	}

	return stats
}

func removeStatementIndices(list []fast.Statement, indices []int) []fast.Statement {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}
	out := list[:0:0]
	for i, s := range list {
		if !drop[i] {
			out = append(out, s)
		}
	}
	return out
}
