package passes

import (
	"encoding/base64"

	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
	"github.com/fxnatic/jsdeobf/internal/scope"
	"github.com/fxnatic/jsdeobf/internal/strarray"
)

// DecoderInline is P3 (§4.2): for each detected decoder function, every
// call `decoder(literal, ...)` is replaced with the string the decoder
// would return; calls with non-literal arguments are left unchanged.
// After all calls to a decoder are resolved, the decoder is removed if
// its read count drops to zero, and the string array is removed once all
// its decoders are gone (§4.2 P3's removal chain, and §8's "decoder
// correctness" testable property: every inlined string must equal what
// an independent evaluator produces from the decoder's own body).
func DecoderInline() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P3, Name: "decoder-inline", FixedPoint: false, Run: runDecoderInline}
}

func runDecoderInline(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}

	arrays := findStringArrays(p)
	decoders := findDecoders(p, arrays)
	stats.NodesVisited = len(arrays) + len(decoders)
	if len(decoders) == 0 {
		return stats
	}

	arrayByName := stringArraysByName(p, arrays)

	v := &decoderInlineVisitor{decoders: decoders, arrays: arrayByName, stats: &stats, report: report}
	v.V = v
	p.VisitWith(v)

	table := scope.Analyze(p)
	p.Body = pruneDeadDecodersAndArrays(p.Body, decoders, table)

	return stats
}

// stringArraysByName re-keys the Id-keyed arrays map by declared name, the
// form the decoder candidates (which only carry a source-text arrayName)
// need for lookup. It mirrors the declaration walk in findStringArrays
// rather than assuming fast.Id carries a recoverable name.
func stringArraysByName(p *fast.Program, arrays map[fast.Id]*strarray.StringArray) map[string]*strarray.StringArray {
	out := make(map[string]*strarray.StringArray, len(arrays))
	var walk func(list []fast.Statement)
	walk = func(list []fast.Statement) {
		for i := range list {
			switch s := list[i].Stmt.(type) {
			case *fast.VariableDeclaration:
				for j := range s.List {
					d := &s.List[j]
					if d.Target == nil {
						continue
					}
					id, ok := d.Target.Target.(*fast.Identifier)
					if !ok {
						continue
					}
					if sa, known := arrays[id.ToId()]; known {
						out[id.Name] = sa
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

type decoderInlineVisitor struct {
	fast.NoopVisitor
	decoders map[fast.Id]*decoderCandidate
	arrays   map[string]*strarray.StringArray
	stats    *diag.PassStats
	report   *diag.Report
}

func (v *decoderInlineVisitor) VisitExpression(n *fast.Expression) {
	n.VisitChildrenWith(v)
	v.stats.NodesVisited++

	call, ok := n.Expr.(*fast.CallExpression)
	if !ok {
		return
	}
	callee, ok := call.Callee.Expr.(*fast.Identifier)
	if !ok {
		return
	}
	cand := v.decoders[callee.ToId()]
	if cand == nil {
		return
	}
	if len(call.ArgumentList) < 1 {
		return
	}
	idxLit, ok := call.ArgumentList[0].Expr.(*fast.NumberLiteral)
	if !ok {
		v.report.RecordGuardFailure("decoder-inline", "decoder call argument is not a literal")
		v.stats.Skipped++
		return
	}

	arr, ok := v.arrays[cand.arrayName]
	if !ok {
		return
	}
	raw, ok := arr.At(int(idxLit.Value) - cand.offset)
	if !ok {
		v.report.RecordGuardFailure("decoder-inline", "decoder index out of range")
		v.stats.Skipped++
		return
	}

	decoded, ok := applyTransform(raw, cand)
	if !ok {
		v.report.RecordGuardFailure("decoder-inline", "unsupported or unresolvable decoder transform")
		v.stats.Skipped++
		return
	}

	n.Expr = &fast.StringLiteral{Value: decoded}
	v.stats.Rewrites++
}

func applyTransform(raw string, cand *decoderCandidate) (string, bool) {
	switch cand.transform {
	case strarray.TransformIdentity, strarray.TransformOffset:
		return raw, true
	case strarray.TransformBase64:
		dec, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return "", false
		}
		return string(dec), true
	case strarray.TransformCharOffset:
		out := make([]rune, 0, len(raw))
		for _, r := range raw {
			out = append(out, r+rune(cand.charDelta))
		}
		return string(out), true
	case strarray.TransformXOR:
		if cand.xorKey == "" {
			return "", false
		}
		out := make([]byte, len(raw))
		for i := 0; i < len(raw); i++ {
			out[i] = raw[i] ^ cand.xorKey[i%len(cand.xorKey)]
		}
		return string(out), true
	case strarray.TransformRC4:
		return rc4Decode(raw, cand.rc4Key)
	case strarray.TransformLZString:
		return strarray.DecompressLZStringBase64(cand.lzAlphabet, raw), true
	default:
		return "", false
	}
}

// rc4Decode matches the obfuscator's own rc4Decode wrapper: the raw array
// element is base64 first, then RC4-decrypted with the key taken from
// the second argument of the rc4 call that wraps the array read inside
// the decoder's body. RC4 is not in Go's standard crypto
// suite as a standalone primitive usable this way, so a same-shape
// implementation is the only option available to either side. The key
// must be 8, 16, or 32 bytes, matching the Rc4 crate original_source uses.
func rc4Decode(data, key string) (string, bool) {
	switch len(key) {
	case 8, 16, 32:
	default:
		return "", false
	}
	cipher, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", false
	}
	var s [256]byte
	for i := range s {
		s[i] = byte(i)
	}
	j := 0
	for i := 0; i < 256; i++ {
		j = (j + int(s[i]) + int(key[i%len(key)])) % 256
		s[i], s[j] = s[j], s[i]
	}
	out := make([]byte, len(cipher))
	i, j := 0, 0
	for k := 0; k < len(cipher); k++ {
		i = (i + 1) % 256
		j = (j + int(s[i])) % 256
		s[i], s[j] = s[j], s[i]
		out[k] = cipher[k] ^ s[(int(s[i])+int(s[j]))%256]
	}
	return string(out), true
}

// pruneDeadDecodersAndArrays removes decoder function declarations whose
// read count has dropped to zero, and the string-array declarations they
// depended on once every decoder referencing them is gone.
func pruneDeadDecodersAndArrays(list []fast.Statement, decoders map[fast.Id]*decoderCandidate, table *scope.Table) []fast.Statement {
	deadDecoderNames := make(map[string]bool)
	for id, cand := range decoders {
		b := table.Get(id)
		if b != nil && b.Reads == 0 {
			deadDecoderNames[cand.name] = true
		}
	}
	if len(deadDecoderNames) == 0 {
		return list
	}

	stillUsed := make(map[string]bool)
	for _, cand := range decoders {
		if !deadDecoderNames[cand.name] {
			stillUsed[cand.arrayName] = true
		}
	}

	var out []fast.Statement
	for i := range list {
		if fd, ok := list[i].Stmt.(*fast.FunctionDeclaration); ok && fd.Function != nil && fd.Function.Name != nil {
			if deadDecoderNames[fd.Function.Name.Name] {
				continue
			}
		}
		if decl, ok := list[i].Stmt.(*fast.VariableDeclaration); ok && len(decl.List) == 1 {
			if id, ok := decl.List[0].Target.Target.(*fast.Identifier); ok && !stillUsed[id.Name] {
				if _, isArr := decl.List[0].Initializer.Expr.(*fast.ArrayLiteral); isArr && isReferencedArray(decoders, id.Name) {
					continue
				}
			}
		}
		out = append(out, list[i])
	}
	return out
}

func isReferencedArray(decoders map[fast.Id]*decoderCandidate, name string) bool {
	for _, cand := range decoders {
		if cand.arrayName == name {
			return true
		}
	}
	return false
}
