package ir

import (
	"fmt"
	"strings"
)

// TypeKind enumerates the value-type tags carried on definitions. The effect
// analysis carries these through untouched; only the evaluator and the value
// type checker consume them.
type TypeKind int

const (
	TypeInt TypeKind = iota
	TypeStr
	TypeBool
	TypeUntyped
	TypeSet
	TypeSeq
	TypeFun
	TypeOper
	TypeTuple
	TypeRecord
	TypeUnion
)

// ValueType is the tagged value-type annotation of a definition.
type ValueType struct {
	Kind TypeKind

	// ParamArities is set for TypeUntyped operator annotations.
	ParamArities []int

	// Elem is the element type of sets and sequences, the result type of
	// functions and operators.
	Elem *ValueType

	// Args holds function/operator argument types and tuple element types.
	Args []ValueType

	// Fields holds record fields, and per-tag records for unions.
	Fields []Field

	// Tag names the discriminator field of a union type.
	Tag string
}

// Field is one named component of a record type.
type Field struct {
	Name string
	Type ValueType
}

// String renders the type tag in surface syntax.
func (t ValueType) String() string {
	switch t.Kind {
	case TypeInt:
		return "int"
	case TypeStr:
		return "str"
	case TypeBool:
		return "bool"
	case TypeUntyped:
		return "untyped"
	case TypeSet:
		return fmt.Sprintf("Set[%s]", t.Elem)
	case TypeSeq:
		return fmt.Sprintf("List[%s]", t.Elem)
	case TypeFun:
		return fmt.Sprintf("(%s -> %s)", joinTypes(t.Args), t.Elem)
	case TypeOper:
		return fmt.Sprintf("(%s) => %s", joinTypes(t.Args), t.Elem)
	case TypeTuple:
		return fmt.Sprintf("(%s)", joinTypes(t.Args))
	case TypeRecord:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case TypeUnion:
		return fmt.Sprintf("union(%s)", t.Tag)
	default:
		return fmt.Sprintf("TypeKind(%d)", int(t.Kind))
	}
}

func joinTypes(ts []ValueType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
