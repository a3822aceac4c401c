package infer

import (
	"fmt"

	"github.com/rill-lang/rill/internal/effect"
)

// Signature produces a builtin operator's effect template at a given arity.
// The arity parameter exists because operators such as and, tuple and record
// take a variable number of arguments. The quantified names inside a
// signature are schematic: the inferrer freshens them per call site.
type Signature func(arity int) effect.Effect

// BuiltinSignature returns the signature registered for an operator name.
func BuiltinSignature(op string) (Signature, bool) {
	sig, ok := builtinSignatures[op]
	return sig, ok
}

// builtinSignatures is the effect signature table for the builtin operators.
// Purity here means "no effect of its own": pure operators still propagate
// the effects of their arguments.
var builtinSignatures = map[string]Signature{
	// Arithmetic.
	"iadd":    propagate(effect.Read, effect.Temporal),
	"isub":    propagate(effect.Read, effect.Temporal),
	"imul":    propagate(effect.Read, effect.Temporal),
	"idiv":    propagate(effect.Read, effect.Temporal),
	"imod":    propagate(effect.Read, effect.Temporal),
	"ipow":    propagate(effect.Read, effect.Temporal),
	"iuminus": propagate(effect.Read, effect.Temporal),

	// Comparison.
	"eq":   propagate(effect.Read, effect.Temporal),
	"neq":  propagate(effect.Read, effect.Temporal),
	"ilt":  propagate(effect.Read, effect.Temporal),
	"ilte": propagate(effect.Read, effect.Temporal),
	"igt":  propagate(effect.Read, effect.Temporal),
	"igte": propagate(effect.Read, effect.Temporal),

	// Logical connectives. These also combine actions, so updates propagate
	// through them as well.
	"and":     propagate(effect.Read, effect.Update, effect.Temporal),
	"or":      propagate(effect.Read, effect.Update, effect.Temporal),
	"not":     propagate(effect.Read, effect.Update, effect.Temporal),
	"iff":     propagate(effect.Read, effect.Update, effect.Temporal),
	"implies": propagate(effect.Read, effect.Update, effect.Temporal),

	// Value constructors.
	"Set":   propagate(effect.Read, effect.Temporal),
	"List":  propagate(effect.Read, effect.Temporal),
	"Map":   propagate(effect.Read, effect.Temporal),
	"Rec":   propagate(effect.Read, effect.Temporal),
	"Tup":   propagate(effect.Read, effect.Temporal),
	"range": propagate(effect.Read, effect.Temporal),
	"item":  propagate(effect.Read, effect.Temporal),
	"field": propagate(effect.Read, effect.Temporal),

	// State access: assigning e to x reads whatever e reads and updates x.
	// The missing Temporal row rejects temporal operands.
	"assign": fixed(func() effect.Effect {
		return &effect.Arrow{
			Params: []effect.Effect{
				readOf(quantVars("r1")),
				readOf(quantVars("r2")),
			},
			Result: &effect.Concrete{Components: []effect.Component{
				{Kind: effect.Read, Vars: quantVars("r2")},
				{Kind: effect.Update, Vars: quantVars("r1")},
			}},
		}
	}),

	// Control. Both branches of ite share one update row, so they must
	// update the same state variables.
	"ite": fixed(func() effect.Effect {
		return &effect.Arrow{
			Params: []effect.Effect{
				readTemporalOf(quantVars("r1"), quantVars("t1")),
				&effect.Concrete{Components: []effect.Component{
					{Kind: effect.Read, Vars: quantVars("r2")},
					{Kind: effect.Update, Vars: quantVars("u")},
					{Kind: effect.Temporal, Vars: quantVars("t2")},
				}},
				&effect.Concrete{Components: []effect.Component{
					{Kind: effect.Read, Vars: quantVars("r3")},
					{Kind: effect.Update, Vars: quantVars("u")},
					{Kind: effect.Temporal, Vars: quantVars("t3")},
				}},
			},
			Result: &effect.Concrete{Components: []effect.Component{
				{Kind: effect.Read, Vars: unionVars("r1", "r2", "r3")},
				{Kind: effect.Update, Vars: quantVars("u")},
				{Kind: effect.Temporal, Vars: unionVars("t1", "t2", "t3")},
			}},
		}
	}),

	// Action combinators. Their scheduling semantics (snapshotting,
	// committing, state shifting) live in the evaluator; structurally they
	// just combine reads and updates.
	"actionAll": propagate(effect.Read, effect.Update),
	"actionAny": propagate(effect.Read, effect.Update),
	"then":      propagate(effect.Read, effect.Update),

	// Temporal operators fold their operand's reads into a temporal
	// reference.
	"always":     temporalUnary(),
	"eventually": temporalUnary(),
	"next":       temporalUnary(),
	"orKeep":     stutter(),
	"mustChange": stutter(),

	// Iterators and quantifiers: the callback sees the collection's reads.
	"map":    iterator(),
	"filter": iterator(),
	"forall": iterator(),
	"exists": iterator(),
	"fold":   foldSignature(),
}

// rowPrefix names the quantified row variable for a component kind.
func rowPrefix(kind effect.ComponentKind) string {
	switch kind {
	case effect.Read:
		return "r"
	case effect.Update:
		return "u"
	default:
		return "t"
	}
}

// propagate builds the n-ary propagation signature over the given component
// kinds: each parameter gets its own row variable per kind and the result
// unions the rows kind-wise.
func propagate(kinds ...effect.ComponentKind) Signature {
	return func(arity int) effect.Effect {
		params := make([]effect.Effect, arity)
		rows := make(map[effect.ComponentKind][]effect.Variables)

		for i := 0; i < arity; i++ {
			components := make([]effect.Component, len(kinds))
			for j, kind := range kinds {
				v := &effect.QuantifiedVars{Name: fmt.Sprintf("%s%d", rowPrefix(kind), i+1)}
				components[j] = effect.Component{Kind: kind, Vars: v}
				rows[kind] = append(rows[kind], v)
			}
			params[i] = &effect.Concrete{Components: components}
		}

		result := make([]effect.Component, len(kinds))
		for j, kind := range kinds {
			result[j] = effect.Component{Kind: kind, Vars: &effect.UnionVars{Members: rows[kind]}}
		}
		return &effect.Arrow{Params: params, Result: &effect.Concrete{Components: result}}
	}
}

// fixed wraps a fixed-arity signature constructor.
func fixed(build func() effect.Effect) Signature {
	return func(int) effect.Effect { return build() }
}

// temporalUnary is (Read[r1] & Temporal[t1]) => Temporal[r1, t1].
func temporalUnary() Signature {
	return fixed(func() effect.Effect {
		return &effect.Arrow{
			Params: []effect.Effect{readTemporalOf(quantVars("r1"), quantVars("t1"))},
			Result: &effect.Concrete{Components: []effect.Component{
				{Kind: effect.Temporal, Vars: unionVars("r1", "t1")},
			}},
		}
	})
}

// stutter is (Read[r1] & Update[u1]) => Temporal[r1, u1], the shape of
// operators that close an action over unchanged variables.
func stutter() Signature {
	return fixed(func() effect.Effect {
		return &effect.Arrow{
			Params: []effect.Effect{&effect.Concrete{Components: []effect.Component{
				{Kind: effect.Read, Vars: quantVars("r1")},
				{Kind: effect.Update, Vars: quantVars("u1")},
			}}},
			Result: &effect.Concrete{Components: []effect.Component{
				{Kind: effect.Temporal, Vars: unionVars("r1", "u1")},
			}},
		}
	})
}

// iterator is the common shape of map, filter, forall and exists:
// (Read[r1] & Temporal[t1], (Read[r1]) => Read[r2] & Temporal[t2])
//   => Read[r1, r2] & Temporal[t1, t2].
// The callback's parameter carries the collection's read row, so whatever the
// callback does to an element counts against the collection.
func iterator() Signature {
	return fixed(func() effect.Effect {
		return &effect.Arrow{
			Params: []effect.Effect{
				readTemporalOf(quantVars("r1"), quantVars("t1")),
				&effect.Arrow{
					Params: []effect.Effect{readOf(quantVars("r1"))},
					Result: readTemporalOf(quantVars("r2"), quantVars("t2")),
				},
			},
			Result: readTemporalOf(unionVars("r1", "r2"), unionVars("t1", "t2")),
		}
	})
}

// foldSignature is
// (Read[r1] & Temporal[t1], Read[r2] & Temporal[t2], (Read[r1, r2]) => Read[r3] & Temporal[t3])
//   => Read[r1, r2, r3] & Temporal[t1, t2, t3].
// The callback is declared with a single packed parameter; a caller passing a
// two-parameter lambda matches through tuple unpacking.
func foldSignature() Signature {
	return fixed(func() effect.Effect {
		return &effect.Arrow{
			Params: []effect.Effect{
				readTemporalOf(quantVars("r1"), quantVars("t1")),
				readTemporalOf(quantVars("r2"), quantVars("t2")),
				&effect.Arrow{
					Params: []effect.Effect{readOf(unionVars("r1", "r2"))},
					Result: readTemporalOf(quantVars("r3"), quantVars("t3")),
				},
			},
			Result: readTemporalOf(unionVars("r1", "r2", "r3"), unionVars("t1", "t2", "t3")),
		}
	})
}

func quantVars(name string) effect.Variables {
	return &effect.QuantifiedVars{Name: name}
}

func unionVars(names ...string) effect.Variables {
	members := make([]effect.Variables, len(names))
	for i, n := range names {
		members[i] = &effect.QuantifiedVars{Name: n}
	}
	return &effect.UnionVars{Members: members}
}

func readOf(v effect.Variables) effect.Effect {
	return &effect.Concrete{Components: []effect.Component{{Kind: effect.Read, Vars: v}}}
}

func readTemporalOf(r, t effect.Variables) effect.Effect {
	return &effect.Concrete{Components: []effect.Component{
		{Kind: effect.Read, Vars: r},
		{Kind: effect.Temporal, Vars: t},
	}}
}
