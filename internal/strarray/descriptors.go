// Package strarray holds the transient per-run descriptors of §3: string
// arrays, their decoders, and control-flow-switch dispatchers. P2 and P3
// build and consume StringArray values and the Transform kinds; Decoder
// and ControlFlowSwitch are not used by any pass (P1 and P3 keep their
// own local types). They are throwaway analysis results, not part of the
// AST, and are rebuilt fresh on every pipeline run.
package strarray

import fast "github.com/t14raptor/go-fast/ast"

// Transform identifies how a decoder post-processes a raw string-array
// element before returning it.
type Transform int

const (
	TransformIdentity Transform = iota
	TransformOffset
	TransformBase64
	TransformRC4
	TransformXOR
	TransformCharOffset
	TransformLZString
)

// StringArray describes one detected string-array literal after P2's
// rotation has already been analytically applied (§4.2 P2): the
// identifier it is bound to and its final, de-rotated contents.
type StringArray struct {
	Name     fast.Id
	Contents []string
	Rotated  bool
	Rotation int // net left-rotation applied, 0 if none detected
}

// At returns the element at idx, or ("", false) if idx is out of range —
// callers use this instead of indexing directly since decoder calls with
// out-of-range literal indices must be left unrewritten rather than
// panicking.
func (s *StringArray) At(idx int) (string, bool) {
	if idx < 0 || idx >= len(s.Contents) {
		return "", false
	}
	return s.Contents[idx], true
}

// Decoder describes one function whose only purpose is to project an
// index (and optional key argument) through a StringArray into a
// concrete string, per §3's Decoder descriptor and §4.2 P3.
type Decoder struct {
	Name       fast.Id
	Array      *StringArray
	Kind       Transform
	Offset     int    // subtracted from the index before indexing, if TransformOffset
	RC4Key     string // if TransformRC4
	XORKey     string // if TransformXOR, cycled across the raw bytes
	CharDelta  int    // if TransformCharOffset
	LZAlphabet string // custom base-N alphabet, if TransformLZString
	KeyArg     bool   // decoder takes a second (idx, key) argument
}

// ControlFlowSwitch describes one detected `while(true){switch(dispatcher)
// {...}}` flattening target for P1, per §3's descriptor and §4.2 P1.
type ControlFlowSwitch struct {
	Dispatcher   fast.Id
	Order        []string // case labels in dispatch order, e.g. ["3","1","0","2","4"]
	CaseBodies   map[string][]fast.Statement
	TerminalCase string // the case that breaks instead of continuing
}

// OrderedBodies returns the case bodies concatenated in dispatch order,
// the straight-line sequence that replaces the loop.
func (c *ControlFlowSwitch) OrderedBodies() []fast.Statement {
	var out []fast.Statement
	for _, label := range c.Order {
		out = append(out, c.CaseBodies[label]...)
	}
	return out
}
