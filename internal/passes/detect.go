// Package passes implements the 19 deobfuscation passes of §4.2 plus the
// two SPEC_FULL.md additions (P3a decoder-proxy resolution, P20 final
// peephole sweep). Each file implements one pass as a pipeline.Pass; this
// file holds detection helpers shared by the string-array/decoder/
// control-flow trio (P1-P3), grounded on the teacher's deobVisitor
// helpers (wkMapFinder, offsetFinder, stringTableFinder,
// decoderFunctionFinder) generalized from the one Cloudflare-specific
// shape the teacher recognized into the general shapes §3 and §4.2
// describe.
package passes

import (
	"strings"

	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/strarray"
)

// findStringArrays walks p for `var name = [<string literals>];`
// declarations, the shape §4.2 P2 and the GLOSSARY's "String array" both
// describe. It does not attempt rotation here; that is P2's job.
func findStringArrays(p *fast.Program) map[fast.Id]*strarray.StringArray {
	out := make(map[fast.Id]*strarray.StringArray)
	var walk func(list []fast.Statement)
	walk = func(list []fast.Statement) {
		for i := range list {
			switch s := list[i].Stmt.(type) {
			case *fast.VariableDeclaration:
				for j := range s.List {
					d := &s.List[j]
					if d.Initializer == nil || d.Target == nil {
						continue
					}
					id, ok := d.Target.Target.(*fast.Identifier)
					if !ok {
						continue
					}
					arr, ok := d.Initializer.Expr.(*fast.ArrayLiteral)
					if !ok {
						continue
					}
					if sa, ok := literalStringArray(arr); ok {
						out[id.ToId()] = sa
					}
				}
			case *fast.BlockStatement:
				walk(s.List)
			case *fast.FunctionDeclaration:
				if s.Function != nil && s.Function.Body != nil {
					walk(s.Function.Body.List)
				}
			}
		}
	}
	walk(p.Body)
	return out
}

func literalStringArray(arr *fast.ArrayLiteral) (*strarray.StringArray, bool) {
	if arr == nil || len(arr.Value) == 0 {
		return nil, false
	}
	contents := make([]string, 0, len(arr.Value))
	for i := range arr.Value {
		lit, ok := arr.Value[i].Expr.(*fast.StringLiteral)
		if !ok {
			return nil, false
		}
		contents = append(contents, lit.Value)
	}
	return &strarray.StringArray{Contents: contents}, true
}

// rotationIIFE describes a `(function(arr, n){ while(--n){arr.push(arr.
// shift())} })(name, seed)` (or unshift/pop) call detected by P2.
type rotationIIFE struct {
	stmtIndex  int
	arrayParam string
	countParam string
	seed       int
	pushShift  bool // true: push(shift()); false: unshift(pop())
}

// findRotationIIFE scans top-level statements for the rotation IIFE shape
// operating on arrayName. Per §4.2 P2 and §9's Open Questions, only the
// push/shift and unshift/pop shapes with a statically-known integer seed
// are recognized; anything else is left alone.
func findRotationIIFE(list []fast.Statement, arrayName string) (*rotationIIFE, bool) {
	for i := range list {
		exprStmt, ok := list[i].Stmt.(*fast.ExpressionStatement)
		if !ok || exprStmt.Expression == nil {
			continue
		}
		call, ok := exprStmt.Expression.Expr.(*fast.CallExpression)
		if !ok || len(call.ArgumentList) != 2 {
			continue
		}
		arg0, ok := call.ArgumentList[0].Expr.(*fast.Identifier)
		if !ok || arg0.Name != arrayName {
			continue
		}
		seedLit, ok := call.ArgumentList[1].Expr.(*fast.NumberLiteral)
		if !ok {
			continue
		}
		fn, ok := calleeFunctionLiteral(call.Callee)
		if !ok || fn.Body == nil || fn.ParameterList == nil || len(fn.ParameterList.List) != 2 {
			continue
		}
		arrParamID, ok := fn.ParameterList.List[0].Target.Target.(*fast.Identifier)
		if !ok {
			continue
		}
		cntParamID, ok := fn.ParameterList.List[1].Target.Target.(*fast.Identifier)
		if !ok {
			continue
		}
		pushShift, found := bodyHasRotationLoop(fn.Body.List, arrParamID.Name, cntParamID.Name)
		if !found {
			continue
		}
		return &rotationIIFE{
			stmtIndex:  i,
			arrayParam: arrParamID.Name,
			countParam: cntParamID.Name,
			seed:       int(seedLit.Value),
			pushShift:  pushShift,
		}, true
	}
	return nil, false
}

func calleeFunctionLiteral(callee *fast.Expression) (*fast.FunctionLiteral, bool) {
	if callee == nil {
		return nil, false
	}
	fn, ok := callee.Expr.(*fast.FunctionLiteral)
	return fn, ok
}

// bodyHasRotationLoop looks for `while(--count) { arr.push(arr.shift()) }`
// or `while(--count) { arr.unshift(arr.pop()) }` among body's statements.
func bodyHasRotationLoop(body []fast.Statement, arrName, cntName string) (pushShift bool, found bool) {
	for i := range body {
		ws, ok := body[i].Stmt.(*fast.WhileStatement)
		if !ok || ws.Test == nil {
			continue
		}
		if !isPreDecrementOf(ws.Test.Expr, cntName) {
			continue
		}
		block, ok := stmtAsBlock(ws.Body)
		if !ok {
			continue
		}
		for j := range block {
			es, ok := block[j].Stmt.(*fast.ExpressionStatement)
			if !ok || es.Expression == nil {
				continue
			}
			if isRotationCall(es.Expression.Expr, arrName, "push", "shift") {
				return true, true
			}
			if isRotationCall(es.Expression.Expr, arrName, "unshift", "pop") {
				return false, true
			}
		}
	}
	return false, false
}

func stmtAsBlock(s *fast.Statement) ([]fast.Statement, bool) {
	if s == nil {
		return nil, false
	}
	if block, ok := s.Stmt.(*fast.BlockStatement); ok {
		return block.List, true
	}
	return []fast.Statement{*s}, true
}

func isPreDecrementOf(e fast.Expr, name string) bool {
	u, ok := e.(*fast.UpdateExpression)
	if !ok || u.Postfix || u.Operator.String() != "--" {
		return false
	}
	id, ok := u.Operand.Expr.(*fast.Identifier)
	return ok && id.Name == name
}

// isRotationCall matches `arrName.outer(arrName.inner())`.
func isRotationCall(e fast.Expr, arrName, outer, inner string) bool {
	call, ok := e.(*fast.CallExpression)
	if !ok || len(call.ArgumentList) != 1 {
		return false
	}
	outerMember, ok := call.Callee.Expr.(*fast.MemberExpression)
	if !ok {
		return false
	}
	if !isMemberOn(outerMember, arrName, outer) {
		return false
	}
	innerCall, ok := call.ArgumentList[0].Expr.(*fast.CallExpression)
	if !ok || len(innerCall.ArgumentList) != 0 {
		return false
	}
	innerMember, ok := innerCall.Callee.Expr.(*fast.MemberExpression)
	if !ok {
		return false
	}
	return isMemberOn(innerMember, arrName, inner)
}

func isMemberOn(m *fast.MemberExpression, objName, prop string) bool {
	id, ok := m.Object.Expr.(*fast.Identifier)
	if !ok || id.Name != objName {
		return false
	}
	name, ok := memberPropName(m.Property)
	return ok && name == prop
}

func memberPropName(mp *fast.MemberProperty) (string, bool) {
	if mp == nil || mp.Prop == nil {
		return "", false
	}
	switch p := mp.Prop.(type) {
	case *fast.Identifier:
		return p.Name, true
	case *fast.ComputedProperty:
		if p.Expr == nil {
			return "", false
		}
		if lit, ok := p.Expr.Expr.(*fast.StringLiteral); ok {
			return lit.Value, true
		}
	}
	return "", false
}

// applyRotation performs the analytic rotation described by §4.2 P2: the
// IIFE's while(--n) loop runs the rotation seed times before the guard
// trips. push(shift()) rotates the slice left by one each iteration;
// unshift(pop()) rotates it right by one.
func applyRotation(contents []string, seed int, pushShift bool) ([]string, int) {
	n := seed
	if n <= 0 || len(contents) == 0 {
		return contents, 0
	}
	shift := n % len(contents)
	out := make([]string, len(contents))
	copy(out, contents)
	if pushShift {
		out = append(out[shift:], out[:shift]...)
	} else {
		k := len(out) - shift
		out = append(out[k:], out[:k]...)
	}
	return out, shift
}

// decoderCandidate describes a function that looks like it might be a
// decoder: single required index parameter (optionally a second key
// parameter), whose body is dominated by `return array[idx - offset]`
// possibly wrapped in a post-processing call.
type decoderCandidate struct {
	fn         *fast.FunctionLiteral
	name       string
	arrayName  string
	offset     int
	keyArg     bool
	transform  strarray.Transform
	rc4Key     string
	xorKey     string
	charDelta  int
	lzAlphabet string
}

// findDecoders scans function declarations for the decoder shape of §3
// and §4.2 P3: `function d(i){ i = i - OFFSET; return arr[i]; }` or the
// arithmetic folded directly into the index expression, optionally with
// a wrapping transform around the raw element: an atob call, a
// 2-argument call whose name contains "rc4" or "xor" with a string key,
// an "lz"-named 1-argument call, or a char-code shift.
func findDecoders(p *fast.Program, arrays map[fast.Id]*strarray.StringArray) map[fast.Id]*decoderCandidate {
	out := make(map[fast.Id]*decoderCandidate)
	var walk func(list []fast.Statement)
	walk = func(list []fast.Statement) {
		for i := range list {
			switch s := list[i].Stmt.(type) {
			case *fast.FunctionDeclaration:
				if s.Function == nil || s.Function.Name == nil || s.Function.Body == nil {
					continue
				}
				if cand, ok := analyzeDecoderBody(s.Function, arrays); ok {
					cand.name = s.Function.Name.Name
					out[s.Function.Name.ToId()] = cand
				}
			case *fast.BlockStatement:
				walk(s.List)
			}
		}
	}
	walk(p.Body)
	return out
}

func analyzeDecoderBody(fn *fast.FunctionLiteral, arrays map[fast.Id]*strarray.StringArray) (*decoderCandidate, bool) {
	if fn.ParameterList == nil || len(fn.ParameterList.List) < 1 || len(fn.ParameterList.List) > 2 {
		return nil, false
	}
	idxParam, ok := fn.ParameterList.List[0].Target.Target.(*fast.Identifier)
	if !ok {
		return nil, false
	}

	offset := 0
	var returnExpr fast.Expr
	for i := range fn.Body.List {
		switch s := fn.Body.List[i].Stmt.(type) {
		case *fast.ExpressionStatement:
			if assign, ok := s.Expression.Expr.(*fast.AssignExpression); ok && assign.Operator.String() == "=" {
				if left, ok := assign.Left.Expr.(*fast.Identifier); ok && left.Name == idxParam.Name {
					if off, ok := binarySubtractLiteral(assign.Right.Expr, idxParam.Name); ok {
						offset = off
					}
				}
			}
		case *fast.ReturnStatement:
			if s.Argument != nil {
				returnExpr = s.Argument.Expr
			}
		}
	}
	if returnExpr == nil {
		return nil, false
	}

	transform := strarray.TransformIdentity
	var rc4Key string
	var xorKey string
	var charDelta int
	var lzAlphabet string
	inner := returnExpr

	if call, ok := returnExpr.(*fast.CallExpression); ok && len(call.ArgumentList) == 1 {
		if id, ok := call.Callee.Expr.(*fast.Identifier); ok {
			switch {
			case id.Name == "atob":
				transform = strarray.TransformBase64
				inner = call.ArgumentList[0].Expr
			case strings.Contains(strings.ToLower(id.Name), "lz"):
				// `LZString.decompressFromBase64(arr[i])` inlined behind a
				// bundle-local wrapper; the teacher's fingerprint decoder
				// used this shape with its own keyStrBase64 alphabet, so a
				// wrapper with no custom alphabet argument falls back to
				// the standard one.
				transform = strarray.TransformLZString
				lzAlphabet = strarray.StandardBase64Alphabet
				inner = call.ArgumentList[0].Expr
			}
		}
	}
	// `xorDecode(arr[i], "key")` / `rc4Decode(arr[i], "key")`: the wrapping
	// call's own name carries the transform, and its second argument is
	// the literal key, matching original_source's extract_xor_key /
	// extract_rc4_key (name-sniffed, not shape-sniffed).
	if call, ok := returnExpr.(*fast.CallExpression); ok && len(call.ArgumentList) == 2 {
		if id, ok := call.Callee.Expr.(*fast.Identifier); ok {
			if keyLit, ok := call.ArgumentList[1].Expr.(*fast.StringLiteral); ok && keyLit.Value != "" {
				lower := strings.ToLower(id.Name)
				switch {
				case strings.Contains(lower, "xor"):
					transform = strarray.TransformXOR
					xorKey = keyLit.Value
					inner = call.ArgumentList[0].Expr
				case strings.Contains(lower, "rc4"):
					transform = strarray.TransformRC4
					rc4Key = keyLit.Value
					inner = call.ArgumentList[0].Expr
				}
			}
		}
	}
	if bin, ok := returnExpr.(*fast.BinaryExpression); ok && bin.Operator.String() == "+" {
		if n, ok := bin.Right.Expr.(*fast.NumberLiteral); ok {
			transform = strarray.TransformCharOffset
			charDelta = int(n.Value)
			inner = bin.Left.Expr
		}
	}

	member, ok := inner.(*fast.MemberExpression)
	if !ok {
		return nil, false
	}
	arrID, ok := member.Object.Expr.(*fast.Identifier)
	if !ok {
		return nil, false
	}
	if _, known := arrays[arrID.ToId()]; !known {
		return nil, false
	}
	if off, ok := binarySubtractLiteral(indexExprOf(member.Property), idxParam.Name); ok && offset == 0 {
		offset = off
	}

	return &decoderCandidate{
		fn:         fn,
		arrayName:  arrID.Name,
		offset:     offset,
		keyArg:     len(fn.ParameterList.List) == 2,
		transform:  transform,
		rc4Key:     rc4Key,
		xorKey:     xorKey,
		charDelta:  charDelta,
		lzAlphabet: lzAlphabet,
	}, true
}

func indexExprOf(mp *fast.MemberProperty) fast.Expr {
	if mp == nil || mp.Prop == nil {
		return nil
	}
	if cp, ok := mp.Prop.(*fast.ComputedProperty); ok && cp.Expr != nil {
		return cp.Expr.Expr
	}
	return nil
}

// binarySubtractLiteral matches `name - N` and returns int(N).
func binarySubtractLiteral(e fast.Expr, name string) (int, bool) {
	bin, ok := e.(*fast.BinaryExpression)
	if !ok || bin.Operator.String() != "-" {
		return 0, false
	}
	id, ok := bin.Left.Expr.(*fast.Identifier)
	if !ok || id.Name != name {
		return 0, false
	}
	lit, ok := bin.Right.Expr.(*fast.NumberLiteral)
	if !ok {
		return 0, false
	}
	return int(lit.Value), true
}

func isObfuscatedName(name string) bool {
	return strings.HasPrefix(name, "_0x") || strings.HasPrefix(name, "_0X")
}
