package passes

import (
	"strconv"
	"strings"

	fast "github.com/t14raptor/go-fast/ast"

	"github.com/fxnatic/jsdeobf/internal/diag"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

// LiteralNormalize is P11 (§4.2, with the unicode-mangling supplement
// folded in per original_source's unicode_mangling.rs): decodes any
// `\uXXXX` / `\u{XXXXXX}` escape sequences surviving in an identifier's
// name into the literal Unicode character they denote, since bundlers
// sometimes emit identifiers as escape sequences specifically to make
// them harder to read without changing their binding identity. String
// and number literals arrive from the parser already decoded to their
// runtime value, so there is nothing further to normalize on those node
// kinds.
func LiteralNormalize() pipeline.Pass {
	return pipeline.Pass{ID: pipeline.P11, Name: "literal-normalize", FixedPoint: false, Run: runLiteralNormalize}
}

func runLiteralNormalize(p *fast.Program, report *diag.Report) diag.PassStats {
	stats := diag.PassStats{}
	v := &literalNormalizeVisitor{stats: &stats}
	v.V = v
	p.VisitWith(v)
	return stats
}

type literalNormalizeVisitor struct {
	fast.NoopVisitor
	stats *diag.PassStats
}

func (v *literalNormalizeVisitor) VisitExpression(n *fast.Expression) {
	n.VisitChildrenWith(v)
	v.stats.NodesVisited++

	id, ok := n.Expr.(*fast.Identifier)
	if !ok || !strings.Contains(id.Name, `\u`) {
		return
	}
	if decoded, changed := decodeUnicodeEscapes(id.Name); changed {
		id.Name = decoded
		v.stats.Rewrites++
	}
}

// decodeUnicodeEscapes rewrites every `\uXXXX` and `\u{X...}` escape in s
// to the literal rune it encodes, leaving any malformed escape untouched.
func decodeUnicodeEscapes(s string) (string, bool) {
	var b strings.Builder
	changed := false
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == 'u' {
			if i+2 < len(s) && s[i+2] == '{' {
				end := strings.IndexByte(s[i+3:], '}')
				if end >= 0 {
					hex := s[i+3 : i+3+end]
					if r, err := strconv.ParseInt(hex, 16, 32); err == nil {
						b.WriteRune(rune(r))
						i += 3 + end + 1
						changed = true
						continue
					}
				}
			} else if i+6 <= len(s) {
				hex := s[i+2 : i+6]
				if r, err := strconv.ParseInt(hex, 16, 32); err == nil {
					b.WriteRune(rune(r))
					i += 6
					changed = true
					continue
				}
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String(), changed
}
