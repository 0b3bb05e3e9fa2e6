package ast

import (
	fast "github.com/t14raptor/go-fast/ast"
)

// ReplaceExpr overwrites the payload of an *ast.Expression wrapper in
// place. go-fast represents every expression position as a boxed
// Expression{Expr Expr} so replacement never requires the caller to hold a
// parent pointer: whoever is walking the tree already has the box.
func ReplaceExpr(box *fast.Expression, with fast.Expr) {
	if box == nil {
		return
	}
	box.Expr = with
}

// ReplaceStmt overwrites the payload of an *ast.Statement wrapper in place.
func ReplaceStmt(box *fast.Statement, with fast.Stmt) {
	if box == nil {
		return
	}
	box.Stmt = with
}

// RemoveStatements deletes the statements at the given indices (which must
// be sorted ascending) from list, returning the shortened slice. Passes
// collect indices to remove during a read-only walk and apply them in one
// pass so they never mutate a slice they are still ranging over.
func RemoveStatements(list []fast.Statement, indices []int) []fast.Statement {
	if len(indices) == 0 {
		return list
	}
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

// InsertBefore inserts extra immediately before list[at], shifting
// subsequent elements right.
func InsertBefore(list []fast.Statement, at int, extra ...fast.Statement) []fast.Statement {
	if len(extra) == 0 {
		return list
	}
	out := make([]fast.Statement, 0, len(list)+len(extra))
	out = append(out, list[:at]...)
	out = append(out, extra...)
	out = append(out, list[at:]...)
	return out
}

// ReplaceAt swaps list[at] for the statements in with (0, 1, or many),
// used by P1 to replace a flattened loop with its straight-line case
// bodies.
func ReplaceAt(list []fast.Statement, at int, with ...fast.Statement) []fast.Statement {
	out := make([]fast.Statement, 0, len(list)-1+len(with))
	out = append(out, list[:at]...)
	out = append(out, with...)
	out = append(out, list[at+1:]...)
	return out
}

// WrapStmt turns a bare Stmt into a go-fast Statement box.
func WrapStmt(s fast.Stmt) fast.Statement { return fast.Statement{Stmt: s} }

// WrapExpr turns a bare Expr into a go-fast Expression box.
func WrapExpr(e fast.Expr) fast.Expression { return fast.Expression{Expr: e} }

// ExprStatement builds an expression-statement wrapping e.
func ExprStatement(e fast.Expr) fast.Statement {
	return WrapStmt(&fast.ExpressionStatement{Expression: &fast.Expression{Expr: e}})
}
