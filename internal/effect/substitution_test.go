package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/diag"
)

func TestApplyIteratesBindingsInOrder(t *testing.T) {
	s := Substitution{
		{Kind: EffectBinding, Name: "e1", Effect: &Quantified{Name: "e2"}},
		{Kind: EffectBinding, Name: "e2", Effect: readEffect("x")},
	}

	// The second binding sees the result of the first.
	assert.Equal(t, "Read['x']", s.Apply(&Quantified{Name: "e1"}).String())
}

func TestApplyRecursesIntoArrowsAndUnions(t *testing.T) {
	s := Substitution{
		{Kind: EntityBinding, Name: "v1", Vars: readVars("x")},
	}

	e := &Arrow{
		Params: []Effect{&Concrete{Components: []Component{{
			Kind: Read,
			Vars: &UnionVars{Members: []Variables{
				&QuantifiedVars{Name: "v1"},
				readVars("y"),
			}},
		}}}},
		Result: &Concrete{},
	}

	assert.Equal(t, "(Read['x', 'y']) => Pure", s.Apply(e).String())
}

func TestApplyIsPure(t *testing.T) {
	s := Substitution{{Kind: EffectBinding, Name: "e1", Effect: readEffect("x")}}
	original := &Arrow{Params: []Effect{&Quantified{Name: "e1"}}, Result: &Concrete{}}

	s.Apply(original)

	q, ok := original.Params[0].(*Quantified)
	require.True(t, ok)
	assert.Equal(t, "e1", q.Name)
}

func TestApplyIdempotence(t *testing.T) {
	s1 := Substitution{{Kind: EntityBinding, Name: "v1", Vars: &QuantifiedVars{Name: "v2"}}}
	s2 := Substitution{{Kind: EntityBinding, Name: "v2", Vars: readVars("x")}}
	s, err := Compose(s1, s2)
	require.Nil(t, err)

	e := &Concrete{Components: []Component{{Kind: Read, Vars: &QuantifiedVars{Name: "v1"}}}}
	once := s.Apply(e)
	twice := s.Apply(once)
	assert.Equal(t, once.String(), twice.String())
}

func TestBindEffectOccursCheck(t *testing.T) {
	_, err := BindEffect("e1", &Arrow{
		Params: []Effect{&Quantified{Name: "e1"}},
		Result: &Concrete{},
	})
	require.NotNil(t, err)
	assert.Equal(t, diag.CodeCyclicalBinding, err.Code)
}

func TestBindEffectToItselfIsEmpty(t *testing.T) {
	s, err := BindEffect("e1", &Quantified{Name: "e1"})
	require.Nil(t, err)
	assert.Empty(t, s)
}

func TestBindVarsOccursCheck(t *testing.T) {
	_, err := BindVars("v1", &UnionVars{Members: []Variables{
		&QuantifiedVars{Name: "v1"},
		readVars("x"),
	}})
	require.NotNil(t, err)
	assert.Equal(t, diag.CodeCyclicalBinding, err.Code)
}

func TestComposeAppliesFirstToSecond(t *testing.T) {
	s1 := Substitution{{Kind: EntityBinding, Name: "v1", Vars: readVars("x")}}
	s2 := Substitution{{Kind: EntityBinding, Name: "v2", Vars: &UnionVars{Members: []Variables{
		&QuantifiedVars{Name: "v1"},
		readVars("y"),
	}}}}

	s, err := Compose(s1, s2)
	require.Nil(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, "'x', 'y'", s.ApplyVars(&QuantifiedVars{Name: "v2"}).String())
}

func TestComposeDeduplicatesConsistentBindings(t *testing.T) {
	s1 := Substitution{{Kind: EntityBinding, Name: "v1", Vars: readVars("x")}}

	s, err := Compose(s1, s1)
	require.Nil(t, err)
	assert.Len(t, s, 1)
}

func TestComposeRejectsConflictingBindings(t *testing.T) {
	s1 := Substitution{{Kind: EntityBinding, Name: "v1", Vars: readVars("x")}}
	s2 := Substitution{{Kind: EntityBinding, Name: "v1", Vars: readVars("y")}}

	_, err := Compose(s1, s2)
	require.NotNil(t, err)
	assert.Contains(t, err.Message, "conflicting bindings")
}

func TestComposeKeepsKindsApart(t *testing.T) {
	// The same name may be bound in both namespaces without conflict.
	s1 := Substitution{{Kind: EffectBinding, Name: "n", Effect: readEffect("x")}}
	s2 := Substitution{{Kind: EntityBinding, Name: "n", Vars: readVars("y")}}

	s, err := Compose(s1, s2)
	require.Nil(t, err)
	assert.Len(t, s, 2)
}
