package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/effect"
)

func TestPropagationSignatureShape(t *testing.T) {
	sig, ok := BuiltinSignature("and")
	require.True(t, ok)

	arrow, ok := sig(3).(*effect.Arrow)
	require.True(t, ok)
	require.Len(t, arrow.Params, 3)

	for _, p := range arrow.Params {
		c, ok := p.(*effect.Concrete)
		require.True(t, ok)
		assert.Len(t, c.Components, 3, "read, update and temporal rows per parameter")
	}

	result, ok := arrow.Result.(*effect.Concrete)
	require.True(t, ok)
	assert.Len(t, result.Components, 3)
}

func TestPropagationSignatureZeroArity(t *testing.T) {
	sig, ok := BuiltinSignature("Set")
	require.True(t, ok)

	arrow, ok := sig(0).(*effect.Arrow)
	require.True(t, ok)
	assert.Empty(t, arrow.Params)
	assert.Equal(t, "Pure", effect.Simplify(arrow.Result).String(),
		"an empty constructor is pure")
}

func TestArithmeticRejectsUpdates(t *testing.T) {
	sig, ok := BuiltinSignature("iadd")
	require.True(t, ok)

	arrow := sig(2).(*effect.Arrow)
	for _, p := range arrow.Params {
		c := p.(*effect.Concrete)
		for _, comp := range c.Components {
			assert.NotEqual(t, effect.Update, comp.Kind,
				"arithmetic has no update row, so updating operands cannot unify")
		}
	}
}

func TestAssignSignature(t *testing.T) {
	sig, ok := BuiltinSignature("assign")
	require.True(t, ok)

	arrow := sig(2).(*effect.Arrow)
	require.Len(t, arrow.Params, 2)

	result := effect.Simplify(arrow.Result).(*effect.Concrete)
	require.Len(t, result.Components, 2)
	assert.Equal(t, effect.Read, result.Components[0].Kind)
	assert.Equal(t, effect.Update, result.Components[1].Kind)
}

func TestUnknownBuiltin(t *testing.T) {
	_, ok := BuiltinSignature("definitelyNotAnOperator")
	assert.False(t, ok)
}

func TestSignatureTableCoverage(t *testing.T) {
	for _, op := range []string{
		"iadd", "isub", "imul", "idiv", "imod", "ipow", "iuminus",
		"eq", "neq", "ilt", "ilte", "igt", "igte",
		"and", "or", "not", "iff", "implies",
		"Set", "List", "Map", "Rec", "Tup",
		"assign", "ite", "actionAll", "actionAny", "then",
		"always", "eventually", "next", "orKeep", "mustChange",
		"map", "filter", "forall", "exists", "fold",
	} {
		_, ok := BuiltinSignature(op)
		assert.True(t, ok, "missing builtin signature for %s", op)
	}
}
