// Package ast is a thin facade over github.com/t14raptor/go-fast/ast that
// gives the deobfuscation passes a small, uniform vocabulary for querying
// and mutating the tree instead of having every pass hand-roll its own
// type switches. It never copies go-fast's node types; it operates on them
// directly and owns nothing.
package ast

import (
	"strings"

	fast "github.com/t14raptor/go-fast/ast"
)

// Kind discriminates the AST node shapes the passes care about. It is
// deliberately coarser than go-fast's own type set: passes match on Kind
// first and type-assert to the concrete go-fast type only once a Kind
// check has already narrowed things down.
type Kind int

const (
	KindOther Kind = iota
	KindProgram
	KindIdentifier
	KindStringLiteral
	KindNumberLiteral
	KindBooleanLiteral
	KindNullLiteral
	KindRegExpLiteral
	KindTemplateLiteral
	KindArrayLiteral
	KindObjectLiteral
	KindFunctionLiteral
	KindArrowFunctionLiteral
	KindCallExpression
	KindNewExpression
	KindMemberExpression
	KindBinaryExpression
	KindUnaryExpression
	KindUpdateExpression
	KindAssignExpression
	KindConditionalExpression
	KindSequenceExpression
	KindVariableDeclaration
	KindFunctionDeclaration
	KindBlockStatement
	KindExpressionStatement
	KindEmptyStatement
	KindIfStatement
	KindSwitchStatement
	KindWhileStatement
	KindDoWhileStatement
	KindForStatement
	KindForInStatement
	KindForOfStatement
	KindReturnStatement
	KindBreakStatement
	KindContinueStatement
	KindThrowStatement
	KindTryStatement
	KindLabeledStatement
)

// ExprKind reports the Kind of an expression node's dynamic type.
func ExprKind(e fast.Expr) Kind {
	switch e.(type) {
	case *fast.Identifier:
		return KindIdentifier
	case *fast.StringLiteral:
		return KindStringLiteral
	case *fast.NumberLiteral:
		return KindNumberLiteral
	case *fast.BooleanLiteral:
		return KindBooleanLiteral
	case *fast.NullLiteral:
		return KindNullLiteral
	case *fast.RegExpLiteral:
		return KindRegExpLiteral
	case *fast.TemplateLiteral:
		return KindTemplateLiteral
	case *fast.ArrayLiteral:
		return KindArrayLiteral
	case *fast.ObjectLiteral:
		return KindObjectLiteral
	case *fast.FunctionLiteral:
		return KindFunctionLiteral
	case *fast.ArrowFunctionLiteral:
		return KindArrowFunctionLiteral
	case *fast.CallExpression:
		return KindCallExpression
	case *fast.NewExpression:
		return KindNewExpression
	case *fast.MemberExpression:
		return KindMemberExpression
	case *fast.BinaryExpression:
		return KindBinaryExpression
	case *fast.UnaryExpression:
		return KindUnaryExpression
	case *fast.UpdateExpression:
		return KindUpdateExpression
	case *fast.AssignExpression:
		return KindAssignExpression
	case *fast.ConditionalExpression:
		return KindConditionalExpression
	case *fast.SequenceExpression:
		return KindSequenceExpression
	default:
		return KindOther
	}
}

// StmtKind reports the Kind of a statement node's dynamic type.
func StmtKind(s fast.Stmt) Kind {
	switch s.(type) {
	case *fast.VariableDeclaration:
		return KindVariableDeclaration
	case *fast.FunctionDeclaration:
		return KindFunctionDeclaration
	case *fast.BlockStatement:
		return KindBlockStatement
	case *fast.ExpressionStatement:
		return KindExpressionStatement
	case *fast.EmptyStatement:
		return KindEmptyStatement
	case *fast.IfStatement:
		return KindIfStatement
	case *fast.SwitchStatement:
		return KindSwitchStatement
	case *fast.WhileStatement:
		return KindWhileStatement
	case *fast.DoWhileStatement:
		return KindDoWhileStatement
	case *fast.ForStatement:
		return KindForStatement
	case *fast.ForInStatement:
		return KindForInStatement
	case *fast.ForOfStatement:
		return KindForOfStatement
	case *fast.ReturnStatement:
		return KindReturnStatement
	case *fast.BreakStatement:
		return KindBreakStatement
	case *fast.ContinueStatement:
		return KindContinueStatement
	case *fast.ThrowStatement:
		return KindThrowStatement
	case *fast.TryStatement:
		return KindTryStatement
	case *fast.LabeledStatement:
		return KindLabeledStatement
	default:
		return KindOther
	}
}

// IsPure reports whether evaluating e can be proven to have no observable
// side effect and cannot throw. It is intentionally conservative: anything
// not recognized is treated as impure. Used by P6/P8/P9/P10/P17 to decide
// whether a rewrite that drops or reorders an expression is safe.
func IsPure(e fast.Expr) bool {
	switch v := e.(type) {
	case nil:
		return true
	case *fast.Identifier, *fast.StringLiteral, *fast.NumberLiteral,
		*fast.BooleanLiteral, *fast.NullLiteral, *fast.RegExpLiteral,
		*fast.FunctionLiteral, *fast.ArrowFunctionLiteral:
		return true
	case *fast.UnaryExpression:
		return IsPure(exprOf(v.Operand))
	case *fast.BinaryExpression:
		return IsPure(exprOf(v.Left)) && IsPure(exprOf(v.Right))
	case *fast.ConditionalExpression:
		return IsPure(exprOf(v.Test)) && IsPure(exprOf(v.Consequent)) && IsPure(exprOf(v.Alternate))
	case *fast.SequenceExpression:
		for i := range v.Sequence {
			if !IsPure(v.Sequence[i].Expr) {
				return false
			}
		}
		return true
	case *fast.ArrayLiteral:
		for i := range v.Value {
			if !IsPure(v.Value[i].Expr) {
				return false
			}
		}
		return true
	case *fast.ObjectLiteral:
		for _, entry := range v.Value {
			prop, ok := entry.Prop.(*fast.PropertyKeyed)
			if !ok || prop.Value == nil {
				return false
			}
			if !IsPure(prop.Value.Expr) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func exprOf(e *fast.Expression) fast.Expr {
	if e == nil {
		return nil
	}
	return e.Expr
}

// MemberPropName resolves a member access's property name whether it is a
// dotted identifier or a computed literal, e.g. obj.prop and obj["prop"]
// both yield ("prop", true).
func MemberPropName(mp *fast.MemberProperty) (string, bool) {
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
		if lit, ok := p.Expr.Expr.(*fast.NumberLiteral); ok {
			return formatNumberKey(lit.Value), true
		}
		return "", false
	default:
		return "", false
	}
}

// LiteralKeyName resolves an object property key expression (identifier or
// string literal) to its plain name.
func LiteralKeyName(keyExpr *fast.Expression) (string, bool) {
	if keyExpr == nil || keyExpr.Expr == nil {
		return "", false
	}
	switch k := keyExpr.Expr.(type) {
	case *fast.Identifier:
		return k.Name, true
	case *fast.StringLiteral:
		return k.Value, true
	case *fast.NumberLiteral:
		return formatNumberKey(k.Value), true
	default:
		return "", false
	}
}

func formatNumberKey(v float64) string {
	if v == float64(int64(v)) {
		return itoa(int64(v))
	}
	return ""
}

func itoa(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// UnwrapSequenceTail follows a chain of comma expressions to its final,
// value-producing operand.
func UnwrapSequenceTail(expr fast.Expr) fast.Expr {
	for {
		seq, ok := expr.(*fast.SequenceExpression)
		if !ok || len(seq.Sequence) == 0 {
			return expr
		}
		expr = seq.Sequence[len(seq.Sequence)-1].Expr
	}
}

// IsValidIdentifierName reports whether s could be used as a bare
// identifier, i.e. obj["s"] could be rewritten to obj.s. This is
// deliberately restricted to ASCII since obfuscated bundles rarely emit
// non-ASCII property names and go-fast's printer would otherwise need to
// escape them, defeating the point of the rewrite.
func IsValidIdentifierName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return !reservedWords[s]
}

var reservedWords = func() map[string]bool {
	words := strings.Fields(`break case catch class const continue debugger default
		delete do else export extends finally for function if import in
		instanceof new return super switch this throw try typeof var void
		while with yield let static enum await implements package protected
		interface private public null true false`)
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()

// Bool is a tiny convenience constructor mirroring the shape passes need
// when synthesizing !0/!1-style literal replacements as real booleans.
func Bool(v bool) *fast.BooleanLiteral { return &fast.BooleanLiteral{Value: v} }

// Num constructs a numeric literal node.
func Num(v float64) *fast.NumberLiteral { return &fast.NumberLiteral{Value: v} }

// Str constructs a string literal node.
func Str(v string) *fast.StringLiteral { return &fast.StringLiteral{Value: v} }

// ExprPtr boxes e into a fresh *fast.Expression, the shape every
// pointer-typed expression field (BinaryExpression.Left/Right,
// CallExpression.Callee, MemberExpression.Object,
// ConditionalExpression.Test/Consequent/Alternate, UnaryExpression.Operand)
// takes, per the teacher's own nil-comparison and dereference usage of
// those fields in visitors/deob.go.
func ExprPtr(e fast.Expr) *fast.Expression { return &fast.Expression{Expr: e} }
