package effect

import (
	"fmt"
	"strings"

	"github.com/rill-lang/rill/internal/diag"
)

// maxUnifyDepth bounds recursion through malformed or adversarial terms.
const maxUnifyDepth = 1000

// Unify computes a most-general substitution making the two effects equal, or
// reports why none exists. Both inputs are simplified first; canonically
// equal effects unify with the empty substitution.
func Unify(e1, e2 Effect) (Substitution, *diag.Error) {
	return unify(e1, e2, 0)
}

func unify(e1, e2 Effect, depth int) (Substitution, *diag.Error) {
	if depth > maxUnifyDepth {
		return nil, diag.New(diag.CodeIncompatibleKinds, "",
			"unification depth limit exceeded while unifying %s and %s", e1, e2)
	}

	e1, e2 = Simplify(e1), Simplify(e2)
	if e1.String() == e2.String() {
		return Substitution{}, nil
	}

	s, err := unifyShapes(e1, e2, depth)
	if err != nil {
		return nil, diag.Wrap("", fmt.Sprintf("trying to unify %s and %s", e1, e2), err)
	}
	return s, nil
}

func unifyShapes(e1, e2 Effect, depth int) (Substitution, *diag.Error) {
	if q, ok := e1.(*Quantified); ok {
		return BindEffect(q.Name, e2)
	}
	if q, ok := e2.(*Quantified); ok {
		return BindEffect(q.Name, e1)
	}

	a1, arrow1 := e1.(*Arrow)
	a2, arrow2 := e2.(*Arrow)
	if arrow1 && arrow2 {
		return unifyArrows(a1, a2, depth)
	}

	c1, concrete1 := e1.(*Concrete)
	c2, concrete2 := e2.(*Concrete)
	if concrete1 && concrete2 {
		return unifyConcrete(c1, c2, depth)
	}

	return nil, diag.New(diag.CodeIncompatibleKinds, "",
		"can't unify different kinds of effects: %s and %s", e1, e2)
}

// ===== Arrows =====

func unifyArrows(a1, a2 *Arrow, depth int) (Substitution, *diag.Error) {
	if len(a1.Params) != len(a2.Params) {
		var err *diag.Error
		a1, a2, err = unpackArrows(a1, a2)
		if err != nil {
			return nil, err
		}
	}

	// Canonicalize self-shaped unary arrows before pairwise unification.
	// This lets arrows of originally different arity agree on a common
	// hashed variable.
	s := hashArrow(a1)
	s2, err := Compose(s, hashArrow(a2))
	if err != nil {
		return nil, err
	}
	s = s2

	for i := range a1.Params {
		si, err := unify(s.Apply(a1.Params[i]), s.Apply(a2.Params[i]), depth+1)
		if err != nil {
			return nil, err
		}
		if s, err = Compose(s, si); err != nil {
			return nil, err
		}
	}

	sr, err := unify(s.Apply(a1.Result), s.Apply(a2.Result), depth+1)
	if err != nil {
		return nil, err
	}
	return Compose(s, sr)
}

// hashArrow returns the hashed-variable canonicalization bindings for a unary
// arrow whose single parameter is concrete and prints equal to its result:
// every quantified name inside one component is bound to a synthetic variable
// whose name joins the component's quantified names with '#'. This is a
// correctness mechanism, not an optimization: it is what allows a unary
// (Read[a,b]) => Read[a,b] to later unify with (Read[c]) => Read[c] by
// funneling a, b and c into one shared variable.
func hashArrow(a *Arrow) Substitution {
	if len(a.Params) != 1 {
		return Substitution{}
	}
	param, ok := a.Params[0].(*Concrete)
	if !ok || a.Params[0].String() != a.Result.String() {
		return Substitution{}
	}

	var s Substitution
	for _, c := range param.Components {
		names := sortedKeys(FreeVarNames(c.Vars).Entity)
		if len(names) < 2 {
			continue
		}
		hash := &QuantifiedVars{Name: strings.Join(names, "#")}
		for _, name := range names {
			s = append(s, Binding{Kind: EntityBinding, Name: name, Vars: hash})
		}
	}
	return s
}

// unpackArrows resolves an arity mismatch between two arrows. It succeeds
// only when the shorter parameter list has length one and its single element
// is concrete: the longer list's components are then combined kind-wise into
// a single concrete effect standing in for the missing parameters.
func unpackArrows(a1, a2 *Arrow) (*Arrow, *Arrow, *diag.Error) {
	arityErr := diag.New(diag.CodeArityMismatch, "",
		"expected %d arguments, got %d", len(a1.Params), len(a2.Params))

	short, long := a1, a2
	if len(a2.Params) < len(a1.Params) {
		short, long = a2, a1
	}
	if len(short.Params) != 1 {
		return nil, nil, arityErr
	}
	if _, ok := short.Params[0].(*Concrete); !ok {
		return nil, nil, arityErr
	}

	var components []Component
	for _, p := range long.Params {
		c, ok := p.(*Concrete)
		if !ok {
			return nil, nil, arityErr
		}
		components = append(components, c.Components...)
	}
	packed := &Arrow{
		Params: []Effect{simplifyConcrete(&Concrete{Components: components})},
		Result: long.Result,
	}

	if short == a1 {
		return a1, packed, nil
	}
	return packed, a2, nil
}

// ===== Concrete effects =====

// unifyConcrete walks every component pair, dispatching on the kind
// interaction table: equal kinds unify their variable sets, Read is
// compatible with both Update and Temporal, and Update dominates Temporal by
// forcing the temporal variables to the empty set. Kinds present on only one
// side are unified with the empty set as well.
func unifyConcrete(c1, c2 *Concrete, depth int) (Substitution, *diag.Error) {
	s := Substitution{}

	compose := func(si Substitution) *diag.Error {
		combined, err := Compose(s, si)
		if err != nil {
			return err
		}
		s = combined
		return nil
	}

	for _, comp1 := range c1.Components {
		for _, comp2 := range c2.Components {
			v1 := s.ApplyVars(comp1.Vars)
			v2 := s.ApplyVars(comp2.Vars)

			switch {
			case comp1.Kind == comp2.Kind:
				si, err := unifyVars(v1, v2, depth+1)
				if err != nil {
					return nil, err
				}
				if err := compose(si); err != nil {
					return nil, err
				}
			case dominates(comp1.Kind, comp2.Kind):
				si, err := nullifyVars(comp2.Kind, v2, depth)
				if err != nil {
					return nil, err
				}
				if err := compose(si); err != nil {
					return nil, err
				}
			case dominates(comp2.Kind, comp1.Kind):
				si, err := nullifyVars(comp1.Kind, v1, depth)
				if err != nil {
					return nil, err
				}
				if err := compose(si); err != nil {
					return nil, err
				}
			case compatible(comp1.Kind, comp2.Kind):
				// No constraint between these components.
			default:
				return nil, diag.New(diag.CodeIncompatibleKinds, "",
					"can't unify %s and %s effects", comp1.Kind, comp2.Kind)
			}
		}
	}

	// A kind present on one side and absent on the other constrains that
	// side's variables to the empty set.
	for _, comp := range missingKinds(c1, c2) {
		si, err := nullifyVars(comp.Kind, s.ApplyVars(comp.Vars), depth)
		if err != nil {
			return nil, err
		}
		if err := compose(si); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// nullifyVars unifies a component's variables with the empty set, wrapping
// failures so the offending kind is visible in the error tree.
func nullifyVars(kind ComponentKind, v Variables, depth int) (Substitution, *diag.Error) {
	s, err := unifyVars(v, &ConcreteVars{}, depth+1)
	if err != nil {
		return nil, diag.Wrap("",
			fmt.Sprintf("%s[%s] must be pure here", kind, v), err)
	}
	return s, nil
}

func compatible(k1, k2 ComponentKind) bool {
	if k1 > k2 {
		k1, k2 = k2, k1
	}
	return (k1 == Read && k2 == Update) || (k1 == Read && k2 == Temporal)
}

// dominates reports whether components of kind k1 nullify components of kind
// k2 when the two meet.
func dominates(k1, k2 ComponentKind) bool {
	return k1 == Update && k2 == Temporal
}

// missingKinds returns the components of each effect whose kind has no
// counterpart in the other effect.
func missingKinds(c1, c2 *Concrete) []Component {
	present := func(c *Concrete, kind ComponentKind) bool {
		for _, comp := range c.Components {
			if comp.Kind == kind {
				return true
			}
		}
		return false
	}

	var missing []Component
	for _, comp := range c1.Components {
		if !present(c2, comp.Kind) {
			missing = append(missing, comp)
		}
	}
	for _, comp := range c2.Components {
		if !present(c1, comp.Kind) {
			missing = append(missing, comp)
		}
	}
	return missing
}

// ===== Variable sets =====

// UnifyVars computes a substitution making two variable sets equal.
func UnifyVars(v1, v2 Variables) (Substitution, *diag.Error) {
	return unifyVars(v1, v2, 0)
}

func unifyVars(v1, v2 Variables, depth int) (Substitution, *diag.Error) {
	if depth > maxUnifyDepth {
		return nil, diag.New(diag.CodeIncompatibleKinds, "",
			"unification depth limit exceeded while unifying [%s] and [%s]", v1, v2)
	}

	v1, v2 = FlattenVars(v1), FlattenVars(v2)
	if v1.String() == v2.String() {
		return Substitution{}, nil
	}

	if q, ok := v1.(*QuantifiedVars); ok {
		return BindVars(q.Name, v2)
	}
	if q, ok := v2.(*QuantifiedVars); ok {
		return BindVars(q.Name, v1)
	}

	_, concrete1 := v1.(*ConcreteVars)
	_, concrete2 := v2.(*ConcreteVars)
	if concrete1 && concrete2 {
		// Canonical prints differ, so the name sets differ.
		return nil, diag.New(diag.CodeVariablesMismatch, "",
			"expected variables [%s] and [%s] to be the same", v1, v2)
	}

	u1, union1 := v1.(*UnionVars)
	u2, union2 := v2.(*UnionVars)
	if union1 && union2 {
		return nil, diag.New(diag.CodeUnsupportedUnion, "",
			"unification of two unions is not supported: [%s] and [%s]", v1, v2)
	}

	// Union against a concrete set: every member must unify with it.
	union, other := u1, v2
	if union2 {
		union, other = u2, v1
	}

	s := Substitution{}
	for _, m := range union.Members {
		si, err := unifyVars(s.ApplyVars(m), s.ApplyVars(other), depth+1)
		if err != nil {
			return nil, err
		}
		combined, err := Compose(s, si)
		if err != nil {
			return nil, err
		}
		s = combined
	}
	return s, nil
}
