package effect

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func readVars(names ...string) Variables {
	vars := make([]StateVar, len(names))
	for i, n := range names {
		vars[i] = StateVar{Name: n}
	}
	return &ConcreteVars{Vars: vars}
}

func readEffect(names ...string) Effect {
	return &Concrete{Components: []Component{{Kind: Read, Vars: readVars(names...)}}}
}

func updateEffect(names ...string) Effect {
	return &Concrete{Components: []Component{{Kind: Update, Vars: readVars(names...)}}}
}

func TestPrintCanonicalForms(t *testing.T) {
	effects := []Effect{
		&Concrete{},
		readEffect("s"),
		// Components supplied out of order print in Read, Update, Temporal
		// order.
		&Concrete{Components: []Component{
			{Kind: Temporal, Vars: &QuantifiedVars{Name: "t1"}},
			{Kind: Update, Vars: readVars("y")},
			{Kind: Read, Vars: readVars("x")},
		}},
		// Unions print state variables first, then quantified names, each
		// sorted.
		&Concrete{Components: []Component{{
			Kind: Read,
			Vars: &UnionVars{Members: []Variables{
				&QuantifiedVars{Name: "v2"},
				readVars("b", "a"),
				&QuantifiedVars{Name: "v1"},
			}},
		}}},
		&Arrow{
			Params: []Effect{&Concrete{}, readEffect("s")},
			Result: updateEffect("s"),
		},
		&Quantified{Name: "e1"},
	}

	lines := make([]string, 0, len(effects)+1)
	for _, e := range effects {
		lines = append(lines, e.String())
	}
	lines = append(lines, NewScheme([]string{"e1"}, []string{"v1"}, &Quantified{Name: "e1"}).String())

	g := goldie.New(t)
	g.Assert(t, "print", []byte(strings.Join(lines, "\n")+"\n"))
}

func TestStateVarsCompareByName(t *testing.T) {
	a := &ConcreteVars{Vars: []StateVar{{Name: "x", RefID: 1}}}
	b := &ConcreteVars{Vars: []StateVar{{Name: "x", RefID: 99}}}
	assert.Equal(t, a.String(), b.String(), "reference ids must not affect identity")
}

func TestFreeNames(t *testing.T) {
	e := &Arrow{
		Params: []Effect{
			&Quantified{Name: "e1"},
			&Concrete{Components: []Component{{
				Kind: Read,
				Vars: &UnionVars{Members: []Variables{
					&QuantifiedVars{Name: "v1"},
					readVars("s"),
				}},
			}}},
		},
		Result: &Quantified{Name: "e2"},
	}

	names := FreeNames(e)
	assert.Equal(t, []string{"e1", "e2"}, names.EffectNames())
	assert.Equal(t, []string{"v1"}, names.EntityNames())
}
