// Package diag defines the error values produced by the Rill analysis core.
//
// Analysis errors are plain values, never panics: each carries a stable code,
// a rendered source location, a message, and the child errors that caused it.
// A chain of context frames therefore forms a tree which callers can flatten
// for display or inspect programmatically.
package diag

import (
	"fmt"
	"strings"
)

// Code identifies the category of an analysis error.
type Code string

const (
	// CodeNameNotFound indicates a reference that resolves to no binding.
	CodeNameNotFound Code = "NAME_NOT_FOUND"

	// CodeArityMismatch indicates an operator applied to the wrong number of
	// arguments, including a failed tuple unpacking.
	CodeArityMismatch Code = "ARITY_MISMATCH"

	// CodeIncompatibleKinds indicates two effects whose shapes cannot unify.
	CodeIncompatibleKinds Code = "INCOMPATIBLE_KINDS"

	// CodeVariablesMismatch indicates two concrete variable sets that denote
	// different state variables.
	CodeVariablesMismatch Code = "VARIABLES_MISMATCH"

	// CodeUnsupportedUnion indicates an attempt to unify two non-trivial
	// unions of variable sets, which the unifier deliberately rejects.
	CodeUnsupportedUnion Code = "UNSUPPORTED_UNION"

	// CodeCyclicalBinding indicates an occurs-check failure: a name bound to
	// a term containing that same name.
	CodeCyclicalBinding Code = "CYCLICAL_BINDING"

	// CodeContext marks a wrapping frame added while descending into a
	// subproblem; the real cause is in Children.
	CodeContext Code = "CONTEXT"
)

// Error is a tree-structured analysis error. Leaf nodes describe a concrete
// failure; interior nodes are context frames wrapped around their causes.
type Error struct {
	Code     Code
	Location string
	Message  string
	Children []*Error
}

// New creates a leaf error.
func New(code Code, location, format string, args ...interface{}) *Error {
	return &Error{Code: code, Location: location, Message: fmt.Sprintf(format, args...)}
}

// Wrap adds a context frame around one or more child errors.
func Wrap(location, message string, children ...*Error) *Error {
	return &Error{Code: CodeContext, Location: location, Message: message, Children: children}
}

// RootCode returns the code of the deepest first cause. Context frames are
// skipped so callers can classify an error without walking the tree.
func (e *Error) RootCode() Code {
	if len(e.Children) == 0 {
		return e.Code
	}
	return e.Children[0].RootCode()
}

// Error implements the error interface by flattening the tree, outermost
// frame first.
func (e *Error) Error() string {
	var b strings.Builder
	e.write(&b, 0)
	return b.String()
}

func (e *Error) write(b *strings.Builder, depth int) {
	if depth > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Repeat("  ", depth))
	}
	if e.Location != "" {
		fmt.Fprintf(b, "%s: %s", e.Location, e.Message)
	} else {
		b.WriteString(e.Message)
	}
	for _, child := range e.Children {
		child.write(b, depth+1)
	}
}
