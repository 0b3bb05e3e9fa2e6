package pipeline

import fast "github.com/t14raptor/go-fast/ast"

// validate is the cheap post-pass structural validator required by §7:
// it never rejects a semantically odd but well-formed tree, only a
// tree that violates the invariants of §3 (no nil payload where a
// child is required, no statement list holding a totally empty
// wrapper). A pass that trips this indicates a compiler bug, not a
// malformed *input* — malformed input is rejected earlier by the
// external parser (§6 ParseError).
func validate(p *fast.Program, pass string) error {
	for i := range p.Body {
		if err := validateStatement(&p.Body[i]); err != nil {
			return &InvariantViolation{Pass: pass, Detail: err.Error()}
		}
	}
	return nil
}

func validateStatement(s *fast.Statement) error {
	if s == nil {
		return errStr("nil statement box in statement list")
	}
	if s.Stmt == nil {
		return errStr("statement box with nil payload")
	}
	switch stmt := s.Stmt.(type) {
	case *fast.BlockStatement:
		for i := range stmt.List {
			if err := validateStatement(&stmt.List[i]); err != nil {
				return err
			}
		}
	case *fast.IfStatement:
		if stmt.Test == nil || stmt.Test.Expr == nil {
			return errStr("if statement missing test expression")
		}
		if stmt.Consequent != nil {
			if err := validateStatement(stmt.Consequent); err != nil {
				return err
			}
		}
		if stmt.Alternate != nil {
			if err := validateStatement(stmt.Alternate); err != nil {
				return err
			}
		}
	case *fast.WhileStatement:
		if stmt.Test == nil || stmt.Test.Expr == nil {
			return errStr("while statement missing test expression")
		}
	case *fast.ExpressionStatement:
		if stmt.Expression == nil || stmt.Expression.Expr == nil {
			return errStr("expression statement missing expression")
		}
	case *fast.TryStatement:
		if stmt.Body == nil {
			return errStr("try statement missing body")
		}
	}
	return nil
}

type errStr string

func (e errStr) Error() string { return string(e) }
