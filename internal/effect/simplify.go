package effect

import "sort"

// Simplify rewrites an effect into canonical form:
//
//   - duplicate components of one kind are merged by unioning their variables
//   - unions of variable sets are flattened and deduplicated, empty concrete
//     members dropped and singletons unwrapped
//   - components whose variable set is empty are dropped
//   - components are ordered Read, Update, Temporal
//
// Arrow params and result are simplified independently; arrow structure
// itself is never flattened. Simplify never mutates its argument.
func Simplify(e Effect) Effect {
	switch n := e.(type) {
	case *Quantified:
		return n
	case *Arrow:
		params := make([]Effect, len(n.Params))
		for i, p := range n.Params {
			params[i] = Simplify(p)
		}
		return &Arrow{Params: params, Result: Simplify(n.Result)}
	case *Concrete:
		return simplifyConcrete(n)
	default:
		return e
	}
}

func simplifyConcrete(e *Concrete) *Concrete {
	byKind := make(map[ComponentKind][]Variables)
	for _, c := range e.Components {
		byKind[c.Kind] = append(byKind[c.Kind], c.Vars)
	}

	components := make([]Component, 0, len(byKind))
	for _, kind := range []ComponentKind{Read, Update, Temporal} {
		members, ok := byKind[kind]
		if !ok {
			continue
		}
		vars := FlattenVars(&UnionVars{Members: members})
		if isEmptyVars(vars) {
			continue
		}
		components = append(components, Component{Kind: kind, Vars: vars})
	}
	return &Concrete{Components: components}
}

// FlattenVars collapses nested unions into at most one concrete member plus
// deduplicated quantified members. Empty unions become an empty concrete set;
// singletons are unwrapped.
func FlattenVars(v Variables) Variables {
	var stateVars []StateVar
	quantified := make(map[string]bool)
	collectMembers(v, &stateVars, quantified)

	members := make([]Variables, 0, 1+len(quantified))
	if len(stateVars) > 0 {
		members = append(members, &ConcreteVars{Vars: dedupStateVars(stateVars)})
	}
	for _, name := range sortedKeys(quantified) {
		members = append(members, &QuantifiedVars{Name: name})
	}

	switch len(members) {
	case 0:
		return &ConcreteVars{}
	case 1:
		return members[0]
	default:
		return &UnionVars{Members: members}
	}
}

func collectMembers(v Variables, stateVars *[]StateVar, quantified map[string]bool) {
	switch n := v.(type) {
	case *ConcreteVars:
		*stateVars = append(*stateVars, n.Vars...)
	case *QuantifiedVars:
		quantified[n.Name] = true
	case *UnionVars:
		for _, m := range n.Members {
			collectMembers(m, stateVars, quantified)
		}
	}
}

// dedupStateVars keeps one entry per variable name, first reference wins,
// sorted for canonical structure.
func dedupStateVars(vars []StateVar) []StateVar {
	seen := make(map[string]bool, len(vars))
	out := make([]StateVar, 0, len(vars))
	for _, sv := range vars {
		if !seen[sv.Name] {
			seen[sv.Name] = true
			out = append(out, sv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func isEmptyVars(v Variables) bool {
	cv, ok := v.(*ConcreteVars)
	return ok && len(cv.Vars) == 0
}
