package effect

import (
	"github.com/rill-lang/rill/internal/diag"
)

// BindingKind separates the two disjoint namespaces a substitution binds.
type BindingKind int

const (
	// EffectBinding maps an effect-level variable to an effect.
	EffectBinding BindingKind = iota
	// EntityBinding maps a variable-set variable to a variable set.
	EntityBinding
)

// Binding maps one quantified name to a value of matching kind. Effect is set
// for EffectBinding, Vars for EntityBinding.
type Binding struct {
	Kind   BindingKind
	Name   string
	Effect Effect
	Vars   Variables
}

// Substitution is an ordered sequence of bindings. Application iterates the
// bindings in order, so later bindings see the results of earlier ones.
type Substitution []Binding

// Apply substitutes every bound name in the effect and returns the result in
// canonical form. The input is never mutated.
func (s Substitution) Apply(e Effect) Effect {
	for _, b := range s {
		e = applyBinding(b, e)
	}
	return Simplify(e)
}

// ApplyVars substitutes every bound entity name in a variable set, returning
// a flattened result.
func (s Substitution) ApplyVars(v Variables) Variables {
	for _, b := range s {
		v = applyBindingVars(b, v)
	}
	return FlattenVars(v)
}

func applyBinding(b Binding, e Effect) Effect {
	switch n := e.(type) {
	case *Quantified:
		if b.Kind == EffectBinding && b.Name == n.Name {
			return b.Effect
		}
		return n
	case *Arrow:
		params := make([]Effect, len(n.Params))
		for i, p := range n.Params {
			params[i] = applyBinding(b, p)
		}
		return &Arrow{Params: params, Result: applyBinding(b, n.Result)}
	case *Concrete:
		components := make([]Component, len(n.Components))
		for i, c := range n.Components {
			components[i] = Component{Kind: c.Kind, Vars: applyBindingVars(b, c.Vars)}
		}
		return &Concrete{Components: components}
	default:
		return e
	}
}

func applyBindingVars(b Binding, v Variables) Variables {
	switch n := v.(type) {
	case *QuantifiedVars:
		if b.Kind == EntityBinding && b.Name == n.Name {
			return b.Vars
		}
		return n
	case *UnionVars:
		members := make([]Variables, len(n.Members))
		for i, m := range n.Members {
			members[i] = applyBindingVars(b, m)
		}
		return &UnionVars{Members: members}
	default:
		return v
	}
}

// BindEffect produces the singleton substitution name ↦ e. Binding a name to
// itself yields the empty substitution; binding a name to a larger term that
// contains it fails the occurs check.
func BindEffect(name string, e Effect) (Substitution, *diag.Error) {
	if q, ok := e.(*Quantified); ok && q.Name == name {
		return Substitution{}, nil
	}
	if FreeNames(e).Effect[name] {
		return nil, diag.New(diag.CodeCyclicalBinding, "",
			"cyclical binding: %s occurs in %s", name, e)
	}
	return Substitution{{Kind: EffectBinding, Name: name, Effect: e}}, nil
}

// BindVars produces the singleton substitution name ↦ v over variable sets,
// with the same occurs-check behavior as BindEffect.
func BindVars(name string, v Variables) (Substitution, *diag.Error) {
	if q, ok := v.(*QuantifiedVars); ok && q.Name == name {
		return Substitution{}, nil
	}
	if FreeVarNames(v).Entity[name] {
		return nil, diag.New(diag.CodeCyclicalBinding, "",
			"cyclical binding: %s occurs in [%s]", name, v)
	}
	return Substitution{{Kind: EntityBinding, Name: name, Vars: v}}, nil
}

// Compose applies s1 to every value of s2 and concatenates s1 with the
// result, deduplicating by (kind, name) with the first occurrence winning.
// Composing fails if it would re-bind a name to a different value.
func Compose(s1, s2 Substitution) (Substitution, *diag.Error) {
	type key struct {
		kind BindingKind
		name string
	}

	out := make(Substitution, 0, len(s1)+len(s2))
	seen := make(map[key]Binding, len(s1)+len(s2))

	add := func(b Binding) *diag.Error {
		k := key{b.Kind, b.Name}
		if prev, dup := seen[k]; dup {
			if !sameBindingValue(prev, b) {
				return diag.New(diag.CodeIncompatibleKinds, "",
					"conflicting bindings for %s: %s and %s",
					b.Name, bindingValue(prev), bindingValue(b))
			}
			return nil
		}
		seen[k] = b
		out = append(out, b)
		return nil
	}

	for _, b := range s1 {
		if err := add(b); err != nil {
			return nil, err
		}
	}
	for _, b := range s2 {
		switch b.Kind {
		case EffectBinding:
			b.Effect = s1.Apply(b.Effect)
		case EntityBinding:
			b.Vars = s1.ApplyVars(b.Vars)
		}
		if err := add(b); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func sameBindingValue(a, b Binding) bool {
	return bindingValue(a) == bindingValue(b)
}

// bindingValue is the canonical string of a binding's value, used to decide
// whether two bindings for the same name agree.
func bindingValue(b Binding) string {
	if b.Kind == EffectBinding {
		return Simplify(b.Effect).String()
	}
	return FlattenVars(b.Vars).String()
}
