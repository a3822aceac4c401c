// Package ir defines the intermediate representation the Rill analysis core
// operates on: a tree of modules, definitions and expressions in which every
// node carries a unique numeric id assigned at parse time.
//
// Ids are the sole handle used to attach analysis results; analyses keep
// side tables keyed by id instead of decorating nodes, so IR values stay
// immutable once produced.
package ir

import (
	"fmt"
	"strings"

	"github.com/rill-lang/rill/internal/position"
)

// NodeID is the unique, stable identifier of an IR node.
type NodeID int64

// SourceMap locates IR nodes in source text. It is produced together with the
// IR and consulted only when rendering diagnostics.
type SourceMap map[NodeID]position.Span

// SpanOf returns the span recorded for id, or an invalid span.
func (m SourceMap) SpanOf(id NodeID) position.Span {
	return m[id]
}

// Node is the base interface for all IR nodes.
type Node interface {
	// ID returns the node's unique identifier.
	ID() NodeID
	// String returns a human-readable representation of the node.
	String() string
}

// Def represents all definition nodes.
type Def interface {
	Node
	defNode()
}

// Expr represents all expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Qualifier distinguishes the flavors of operator definitions.
type Qualifier int

const (
	QualVal Qualifier = iota
	QualDef
	QualDefRec
	QualPureVal
	QualPureDef
	QualAction
	QualRun
	QualTemporal
)

// String returns the surface keyword for the qualifier.
func (q Qualifier) String() string {
	switch q {
	case QualVal:
		return "val"
	case QualDef:
		return "def"
	case QualDefRec:
		return "defrec"
	case QualPureVal:
		return "pureval"
	case QualPureDef:
		return "puredef"
	case QualAction:
		return "action"
	case QualRun:
		return "run"
	case QualTemporal:
		return "temporal"
	default:
		return fmt.Sprintf("Qualifier(%d)", int(q))
	}
}

// Visibility controls whether a definition is exported from its module.
type Visibility int

const (
	Public Visibility = iota
	Private
)

// ===== Modules =====

// Module is an ordered sequence of definitions under a name.
type Module struct {
	NodeID  NodeID
	Name    string
	Defs    []Def
	Extends []string // names of extended modules
}

func (m *Module) ID() NodeID { return m.NodeID }
func (m *Module) defNode()   {}
func (m *Module) String() string {
	parts := make([]string, 0, len(m.Defs))
	for _, d := range m.Defs {
		parts = append(parts, d.String())
	}
	return fmt.Sprintf("module %s { %s }", m.Name, strings.Join(parts, " "))
}

// ===== Definitions =====

// Param is a formal parameter of an operator definition or lambda. Params
// carry their own id so scope lookups can name the defining occurrence.
type Param struct {
	NodeID NodeID
	Name   string
}

// ConstDef declares an immutable module-level constant.
type ConstDef struct {
	NodeID NodeID
	Name   string
	Type   ValueType
}

func (d *ConstDef) ID() NodeID     { return d.NodeID }
func (d *ConstDef) defNode()       {}
func (d *ConstDef) String() string { return fmt.Sprintf("const %s: %s", d.Name, d.Type) }

// VarDef declares a mutable state variable at module scope.
type VarDef struct {
	NodeID NodeID
	Name   string
	Type   ValueType
}

func (d *VarDef) ID() NodeID     { return d.NodeID }
func (d *VarDef) defNode()       {}
func (d *VarDef) String() string { return fmt.Sprintf("var %s: %s", d.Name, d.Type) }

// OpDef defines a named operator: a value when it has no parameters, an
// operator proper otherwise.
type OpDef struct {
	NodeID     NodeID
	Qualifier  Qualifier
	Visibility Visibility
	Name       string
	Params     []Param
	Type       *ValueType // optional annotation
	Body       Expr
}

func (d *OpDef) ID() NodeID { return d.NodeID }
func (d *OpDef) defNode()   {}
func (d *OpDef) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", d.Qualifier, d.Name)
	if len(d.Params) > 0 {
		names := make([]string, len(d.Params))
		for i, p := range d.Params {
			names[i] = p.Name
		}
		fmt.Fprintf(&b, "(%s)", strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, " = %s", d.Body)
	return b.String()
}

// TypeDef introduces a type alias or an abstract type.
type TypeDef struct {
	NodeID NodeID
	Name   string
	Type   *ValueType // nil for abstract types
}

func (d *TypeDef) ID() NodeID { return d.NodeID }
func (d *TypeDef) defNode()   {}
func (d *TypeDef) String() string {
	if d.Type == nil {
		return fmt.Sprintf("type %s", d.Name)
	}
	return fmt.Sprintf("type %s = %s", d.Name, *d.Type)
}

// Assume states a named assumption over the module's constants.
type Assume struct {
	NodeID NodeID
	Name   string
	Expr   Expr
}

func (d *Assume) ID() NodeID     { return d.NodeID }
func (d *Assume) defNode()       {}
func (d *Assume) String() string { return fmt.Sprintf("assume %s = %s", d.Name, d.Expr) }

// Import brings another module's definitions into scope.
type Import struct {
	NodeID NodeID
	Module string
	Name   string // "*" for all definitions
}

func (d *Import) ID() NodeID     { return d.NodeID }
func (d *Import) defNode()       {}
func (d *Import) String() string { return fmt.Sprintf("import %s.%s", d.Module, d.Name) }

// Instance instantiates a parameterized module, overriding constants.
type Instance struct {
	NodeID    NodeID
	Name      string
	Module    string
	Overrides []InstanceOverride
}

// InstanceOverride binds one constant of the instantiated module.
type InstanceOverride struct {
	Name string
	Expr Expr
}

func (d *Instance) ID() NodeID { return d.NodeID }
func (d *Instance) defNode()   {}
func (d *Instance) String() string {
	parts := make([]string, len(d.Overrides))
	for i, o := range d.Overrides {
		parts[i] = fmt.Sprintf("%s = %s", o.Name, o.Expr)
	}
	return fmt.Sprintf("import %s(%s) as %s", d.Module, strings.Join(parts, ", "), d.Name)
}

// ===== Expressions =====

// IntLit is an integer literal.
type IntLit struct {
	NodeID NodeID
	Value  int64
}

func (e *IntLit) ID() NodeID     { return e.NodeID }
func (e *IntLit) exprNode()      {}
func (e *IntLit) String() string { return fmt.Sprintf("%d", e.Value) }

// BoolLit is a boolean literal.
type BoolLit struct {
	NodeID NodeID
	Value  bool
}

func (e *BoolLit) ID() NodeID     { return e.NodeID }
func (e *BoolLit) exprNode()      {}
func (e *BoolLit) String() string { return fmt.Sprintf("%t", e.Value) }

// StrLit is a string literal.
type StrLit struct {
	NodeID NodeID
	Value  string
}

func (e *StrLit) ID() NodeID     { return e.NodeID }
func (e *StrLit) exprNode()      {}
func (e *StrLit) String() string { return fmt.Sprintf("%q", e.Value) }

// Name references a definition or parameter by name.
type Name struct {
	NodeID NodeID
	Value  string
}

func (e *Name) ID() NodeID     { return e.NodeID }
func (e *Name) exprNode()      {}
func (e *Name) String() string { return e.Value }

// App applies an operator, builtin or user-defined, to ordered arguments.
// The special opcode "_" stands for a hole whose effect is unconstrained.
type App struct {
	NodeID NodeID
	Opcode string
	Args   []Expr
}

func (e *App) ID() NodeID { return e.NodeID }
func (e *App) exprNode()  {}
func (e *App) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Opcode, strings.Join(args, ", "))
}

// Lambda is an anonymous operator over ordered parameters.
type Lambda struct {
	NodeID NodeID
	Params []Param
	Body   Expr
}

func (e *Lambda) ID() NodeID { return e.NodeID }
func (e *Lambda) exprNode()  {}
func (e *Lambda) String() string {
	names := make([]string, len(e.Params))
	for i, p := range e.Params {
		names[i] = p.Name
	}
	return fmt.Sprintf("(%s) => %s", strings.Join(names, ", "), e.Body)
}

// LetIn binds a local operator definition inside an expression.
type LetIn struct {
	NodeID NodeID
	Def    *OpDef
	Body   Expr
}

func (e *LetIn) ID() NodeID     { return e.NodeID }
func (e *LetIn) exprNode()      {}
func (e *LetIn) String() string { return fmt.Sprintf("%s { %s }", e.Def, e.Body) }

// ChildExprs returns the ordered expression children of an expression, the
// order a post-order traversal must visit them in.
func ChildExprs(e Expr) []Expr {
	switch n := e.(type) {
	case *App:
		return n.Args
	case *Lambda:
		return []Expr{n.Body}
	case *LetIn:
		children := []Expr{}
		if n.Def != nil && n.Def.Body != nil {
			children = append(children, n.Def.Body)
		}
		return append(children, n.Body)
	default:
		return nil
	}
}
