// Package effect implements the effect algebra of the Rill analysis core:
// abstract summaries of which state variables an expression reads, updates,
// or references temporally.
//
// An effect is either concrete (a set of kinded components over variable
// sets), an arrow (the effect of applying an operator), or a quantified
// effect variable awaiting substitution. Variable sets themselves may be
// concrete, quantified, or unions of both, which gives the algebra its
// row-like flavor: unification solves for whole sets of state variables at
// once.
package effect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rill-lang/rill/internal/ir"
)

// ComponentKind distinguishes the three ways an expression can interact with
// state.
type ComponentKind int

const (
	Read ComponentKind = iota
	Update
	Temporal
)

// String returns the component kind's canonical name.
func (k ComponentKind) String() string {
	switch k {
	case Read:
		return "Read"
	case Update:
		return "Update"
	case Temporal:
		return "Temporal"
	default:
		return fmt.Sprintf("ComponentKind(%d)", int(k))
	}
}

// Effect is the tagged variant at the center of the algebra. Exactly three
// implementations exist: Concrete, Arrow, and Quantified.
type Effect interface {
	effectNode()
	String() string
}

// Concrete is an effect described by its components. An empty component list
// is the pure effect.
type Concrete struct {
	Components []Component
}

// Component is one (kind, variable set) pair inside a concrete effect.
type Component struct {
	Kind ComponentKind
	Vars Variables
}

func (e *Concrete) effectNode() {}

// String renders the effect with components in Read, Update, Temporal order.
func (e *Concrete) String() string {
	if len(e.Components) == 0 {
		return "Pure"
	}
	comps := make([]Component, len(e.Components))
	copy(comps, e.Components)
	sort.SliceStable(comps, func(i, j int) bool { return comps[i].Kind < comps[j].Kind })

	parts := make([]string, len(comps))
	for i, c := range comps {
		parts[i] = fmt.Sprintf("%s[%s]", c.Kind, c.Vars)
	}
	return strings.Join(parts, " & ")
}

// Arrow is the effect of an operator: the effects of its parameters and of
// its result.
type Arrow struct {
	Params []Effect
	Result Effect
}

func (e *Arrow) effectNode() {}

func (e *Arrow) String() string {
	params := make([]string, len(e.Params))
	for i, p := range e.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("(%s) => %s", strings.Join(params, ", "), e.Result)
}

// Quantified is an effect-level variable to be solved by unification.
type Quantified struct {
	Name string
}

func (e *Quantified) effectNode()    {}
func (e *Quantified) String() string { return e.Name }

// ===== Variable sets =====

// StateVar names one state variable. RefID points back at the IR node that
// mentioned the variable; it only feeds diagnostics. Two state variables are
// the same variable iff their names are equal.
type StateVar struct {
	Name  string
	RefID ir.NodeID
}

// Variables is a possibly-symbolic set of state variables: concrete,
// quantified, or a union of both.
type Variables interface {
	variablesNode()
	String() string
}

// ConcreteVars is a literal set of state variables.
type ConcreteVars struct {
	Vars []StateVar
}

func (v *ConcreteVars) variablesNode() {}

// String renders the set with names quoted and sorted.
func (v *ConcreteVars) String() string {
	names := make([]string, len(v.Vars))
	for i, sv := range v.Vars {
		names[i] = sv.Name
	}
	sort.Strings(names)
	for i, n := range names {
		names[i] = "'" + n + "'"
	}
	return strings.Join(names, ", ")
}

// QuantifiedVars is a variable standing for a whole set of state variables.
type QuantifiedVars struct {
	Name string
}

func (v *QuantifiedVars) variablesNode() {}
func (v *QuantifiedVars) String() string { return v.Name }

// UnionVars is a union of variable sets, collapsed by simplification.
type UnionVars struct {
	Members []Variables
}

func (v *UnionVars) variablesNode() {}

// String renders concrete members first, then quantified names, each group
// sorted lexicographically.
func (v *UnionVars) String() string {
	var stateNames, quantNames, rest []string
	for _, m := range v.Members {
		switch mv := m.(type) {
		case *ConcreteVars:
			for _, sv := range mv.Vars {
				stateNames = append(stateNames, "'"+sv.Name+"'")
			}
		case *QuantifiedVars:
			quantNames = append(quantNames, mv.Name)
		default:
			rest = append(rest, m.String())
		}
	}
	sort.Strings(stateNames)
	sort.Strings(quantNames)
	parts := append(stateNames, quantNames...)
	parts = append(parts, rest...)
	return strings.Join(parts, ", ")
}

// ===== Schemes =====

// Scheme is the storage form of an inference result: an effect universally
// quantified over the listed effect-level and variable-set-level names.
type Scheme struct {
	EffectVars []string
	EntityVars []string
	Effect     Effect
}

// NewScheme builds a scheme, sorting and deduplicating the quantifier sets.
func NewScheme(effectVars, entityVars []string, e Effect) Scheme {
	return Scheme{
		EffectVars: sortedUnique(effectVars),
		EntityVars: sortedUnique(entityVars),
		Effect:     e,
	}
}

// Mono wraps an effect in a scheme with empty quantifier sets.
func Mono(e Effect) Scheme {
	return Scheme{Effect: e}
}

func (s Scheme) String() string {
	quantified := append(append([]string{}, s.EffectVars...), s.EntityVars...)
	if len(quantified) == 0 {
		return s.Effect.String()
	}
	return fmt.Sprintf("∀%s.%s", strings.Join(quantified, ","), s.Effect)
}

// ===== Free names =====

// Names is the set of quantified names occurring in a term, split by kind.
type Names struct {
	Effect map[string]bool // effect-level variables
	Entity map[string]bool // variable-set variables
}

func newNames() Names {
	return Names{Effect: make(map[string]bool), Entity: make(map[string]bool)}
}

// EffectNames returns the effect-level names in stable sorted order.
func (n Names) EffectNames() []string { return sortedKeys(n.Effect) }

// EntityNames returns the variable-set names in stable sorted order.
func (n Names) EntityNames() []string { return sortedKeys(n.Entity) }

// FreeNames collects every quantified name occurring in the effect.
func FreeNames(e Effect) Names {
	names := newNames()
	collectEffectNames(e, names)
	return names
}

// FreeVarNames collects every quantified name occurring in a variable set.
func FreeVarNames(v Variables) Names {
	names := newNames()
	collectVarNames(v, names)
	return names
}

func collectEffectNames(e Effect, names Names) {
	switch n := e.(type) {
	case *Quantified:
		names.Effect[n.Name] = true
	case *Arrow:
		for _, p := range n.Params {
			collectEffectNames(p, names)
		}
		collectEffectNames(n.Result, names)
	case *Concrete:
		for _, c := range n.Components {
			collectVarNames(c.Vars, names)
		}
	}
}

func collectVarNames(v Variables, names Names) {
	switch n := v.(type) {
	case *QuantifiedVars:
		names.Entity[n.Name] = true
	case *UnionVars:
		for _, m := range n.Members {
			collectVarNames(m, names)
		}
	}
}

func sortedUnique(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// sortedKeys returns a name set in stable order.
func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
