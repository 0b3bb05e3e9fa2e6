package passes

import (
	fast "github.com/t14raptor/go-fast/ast"

	deast "github.com/fxnatic/jsdeobf/internal/ast"
	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

// ControlFlowUnflatten is P1 (§4.2): rewrites a
// `while(true){switch(dispatcher){case K1:...;continue; ...}break;}`
// pattern to the straight-line concatenation of case bodies in dispatch
// order, when the dispatcher is a variable whose declaration in the
// enclosing statement list is initialized from a literal sequence (e.g.
// `"3|1|0|2|4".split("|")` with a cursor `i++`). Only that initializer is
// examined; later assignments to the dispatcher are not checked.
//
// SPEC_FULL.md also asks P1 to recognize, but never rewrite, the
// object-literal dispatcher shape from original_source's
// object_dispatcher.rs (an `{'0': fn, ...}` table invoked in a loop
// instead of a switch); §9's Open Questions calls for "detect and skip"
// on any dispatcher shape other than while(true){switch}, so that
// detector only increments diag.Report.ObjectDispatcherSeen.
func ControlFlowUnflatten() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P1, Name: "control-flow-unflatten", FixedPoint: false, Run: runControlFlowUnflatten}
}

func runControlFlowUnflatten(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}
	p.Body, stats = unflattenList(p.Body, stats, report)
	return stats
}

// unflattenList recurses into nested blocks/functions since the
// flattened loop is rarely at top level in a real bundle. It carries the
// enclosing statement list into tryUnflattenWhile so the dispatcher's
// literal-sequence initializer (typically a sibling `var` declaration)
// can be located without a global lookup table.
func unflattenList(list []fast.Statement, stats diag.PassStats, report *diag.Report) ([]fast.Statement, diag.PassStats) {
	for i := 0; i < len(list); i++ {
		stats.NodesVisited++
		switch s := list[i].Stmt.(type) {
		case *fast.BlockStatement:
			s.List, stats = unflattenList(s.List, stats, report)
		case *fast.FunctionDeclaration:
			if s.Function != nil && s.Function.Body != nil {
				s.Function.Body.List, stats = unflattenList(s.Function.Body.List, stats, report)
			}
		case *fast.WhileStatement:
			countObjectDispatcher(s, report, &stats)
			if replacement, ok := tryUnflattenWhile(s, list, report, &stats); ok {
				list = deast.ReplaceAt(list, i, replacement...)
				stats.Rewrites++
				i += len(replacement) - 1
				continue
			}
		}
	}
	return list, stats
}

func tryUnflattenWhile(ws *fast.WhileStatement, enclosing []fast.Statement, report *diag.Report, stats *diag.PassStats) ([]fast.Statement, bool) {
	if !isTrueLiteral(ws.Test.Expr) {
		return nil, false
	}
	block, ok := stmtBlock(ws.Body)
	if !ok {
		return nil, false
	}

	var sw *fast.SwitchStatement
	swIdx := -1
	for i := range block {
		if s, ok := block[i].Stmt.(*fast.SwitchStatement); ok {
			sw, swIdx = s, i
			break
		}
	}
	if sw == nil {
		return nil, false
	}

	if _, ok := identifierName(sw.Discriminant.Expr); !ok {
		// Discriminant is a computed expression (e.g. arr[i++]); the
		// sequence lookup below handles the common `seq[cursor++]` shape
		// directly from the discriminant instead of requiring a bare name.
	}

	order, ok := dispatchOrderFor(sw.Discriminant.Expr, enclosing)
	if !ok {
		report.RecordGuardFailure("control-flow-unflatten", "dispatcher not assigned exactly once from a literal sequence")
		return nil, false
	}

	bodies := make(map[string][]fast.Statement, len(sw.Body))
	terminal := ""
	for _, c := range sw.Body {
		label, ok := caseLabel(c.Test)
		if !ok {
			return nil, false
		}
		body, isTerminal, ok := caseBody(c.Consequent)
		if !ok {
			report.RecordGuardFailure("control-flow-unflatten", "case does not end in continue/break as required")
			return nil, false
		}
		bodies[label] = body
		if isTerminal {
			terminal = label
		}
	}
	if terminal == "" {
		return nil, false
	}

	var out []fast.Statement
	for _, label := range order {
		body, ok := bodies[label]
		if !ok {
			return nil, false
		}
		out = append(out, body...)
	}

	final := append(append([]fast.Statement{}, block[:swIdx]...), out...)
	final = append(final, dropLoopExitBreak(block[swIdx+1:])...)
	stats.NodesVisited++
	return final, true
}

// dropLoopExitBreak strips the unlabeled `break;` that terminates the
// while(true) loop from the statements following the switch, since that
// break has no enclosing loop once the while is replaced by straight-line
// code. Any other trailing statement is kept as-is.
func dropLoopExitBreak(tail []fast.Statement) []fast.Statement {
	var out []fast.Statement
	for i := range tail {
		if _, ok := tail[i].Stmt.(*fast.BreakStatement); ok {
			continue
		}
		out = append(out, tail[i])
	}
	return out
}

// dispatchOrderFor resolves the switch discriminant to the literal
// sequence driving it. It handles two shapes: a bare identifier declared
// elsewhere in enclosing as `var seq = "...".split(sep)`, and a direct
// `seq[i++]` member expression where seq is likewise declared nearby.
func dispatchOrderFor(discriminant fast.Expr, enclosing []fast.Statement) ([]string, bool) {
	seqName := ""
	switch e := discriminant.(type) {
	case *fast.Identifier:
		seqName = e.Name
	case *fast.MemberExpression:
		if id, ok := e.Object.Expr.(*fast.Identifier); ok {
			seqName = id.Name
		}
	}
	if seqName == "" {
		return nil, false
	}
	for i := range enclosing {
		decl, ok := enclosing[i].Stmt.(*fast.VariableDeclaration)
		if !ok {
			continue
		}
		for j := range decl.List {
			d := &decl.List[j]
			id, ok := d.Target.Target.(*fast.Identifier)
			if !ok || id.Name != seqName || d.Initializer == nil {
				continue
			}
			if seq, ok := splitLiteralSequence(d.Initializer.Expr); ok {
				return seq, true
			}
		}
	}
	return nil, false
}

func isTrueLiteral(e fast.Expr) bool {
	b, ok := e.(*fast.BooleanLiteral)
	return ok && b.Value
}

func stmtBlock(s *fast.Statement) ([]fast.Statement, bool) {
	if s == nil {
		return nil, false
	}
	if b, ok := s.Stmt.(*fast.BlockStatement); ok {
		return b.List, true
	}
	return []fast.Statement{*s}, true
}

func identifierName(e fast.Expr) (string, bool) {
	if id, ok := e.(*fast.Identifier); ok {
		return id.Name, true
	}
	return "", false
}

func splitLiteralSequence(e fast.Expr) ([]string, bool) {
	call, ok := e.(*fast.CallExpression)
	if !ok || len(call.ArgumentList) != 1 {
		return nil, false
	}
	member, ok := call.Callee.Expr.(*fast.MemberExpression)
	if !ok {
		return nil, false
	}
	strLit, ok := member.Object.Expr.(*fast.StringLiteral)
	if !ok {
		return nil, false
	}
	name, ok := memberPropName(member.Property)
	if !ok || name != "split" {
		return nil, false
	}
	sepLit, ok := call.ArgumentList[0].Expr.(*fast.StringLiteral)
	if !ok || len(sepLit.Value) == 0 {
		return nil, false
	}
	return splitOn(strLit.Value, sepLit.Value), true
}

func splitOn(s, sep string) []string {
	var out []string
	start := 0
	for i := 0; i+len(sep) <= len(s); i++ {
		if s[i:i+len(sep)] == sep {
			out = append(out, s[start:i])
			start = i + len(sep)
			i += len(sep) - 1
		}
	}
	out = append(out, s[start:])
	return out
}

// caseLabel resolves a switch case's test expression to a string label
// (P1 only supports string-literal case labels, the shape the spec's
// seed scenario 3 uses).
func caseLabel(test *fast.Expression) (string, bool) {
	if test == nil {
		return "", false
	}
	lit, ok := test.Expr.(*fast.StringLiteral)
	if !ok {
		return "", false
	}
	return lit.Value, true
}

// caseBody strips a trailing `continue` (non-terminal case) or `break`
// (terminal case) from body, per §4.2 P1's precondition that every case
// ends in one or the other with no fallthrough.
func caseBody(body []fast.Statement) ([]fast.Statement, bool, bool) {
	if len(body) == 0 {
		return nil, false, false
	}
	last := body[len(body)-1]
	switch last.Stmt.(type) {
	case *fast.ContinueStatement:
		return body[:len(body)-1], false, true
	case *fast.BreakStatement:
		return body[:len(body)-1], true, true
	default:
		return nil, false, false
	}
}

// countObjectDispatcher is SPEC_FULL.md's diagnostic-only detector for
// the object-literal dispatch shape (`{'0': fn, ...}` invoked in a loop):
// recognized and counted, never rewritten, per §9's guidance to skip
// dispatcher shapes other than while(true){switch}.
func countObjectDispatcher(ws *fast.WhileStatement, report *diag.Report, stats *diag.PassStats) {
	block, ok := stmtBlock(ws.Body)
	if !ok {
		return
	}
	for i := range block {
		es, ok := block[i].Stmt.(*fast.ExpressionStatement)
		if !ok || es.Expression == nil {
			continue
		}
		call, ok := es.Expression.Expr.(*fast.CallExpression)
		if !ok {
			continue
		}
		member, ok := call.Callee.Expr.(*fast.MemberExpression)
		if !ok {
			continue
		}
		if _, ok := member.Object.Expr.(*fast.ObjectLiteral); ok {
			report.ObjectDispatcherSeen++
			stats.Skipped++
		}
	}
}
