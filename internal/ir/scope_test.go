package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildModule assembles the module
//
//	module test {
//	  const n: int
//	  var s: int
//	  val v = s
//	  def f(x) = x
//	  val w = val y = n { (z) => z }
//	}
//
// with hand-assigned ids.
func buildModule() (*Module, map[string]NodeID) {
	ids := map[string]NodeID{
		"module": 1, "const": 2, "var": 3,
		"v": 4, "vBody": 5,
		"f": 6, "fParam": 7, "fBody": 8,
		"w": 9, "let": 10, "y": 11, "yBody": 12, "lambda": 13, "lParam": 14, "lBody": 15,
	}

	m := &Module{
		NodeID: ids["module"],
		Name:   "test",
		Defs: []Def{
			&ConstDef{NodeID: ids["const"], Name: "n", Type: ValueType{Kind: TypeInt}},
			&VarDef{NodeID: ids["var"], Name: "s", Type: ValueType{Kind: TypeInt}},
			&OpDef{
				NodeID: ids["v"], Qualifier: QualVal, Name: "v",
				Body: &Name{NodeID: ids["vBody"], Value: "s"},
			},
			&OpDef{
				NodeID: ids["f"], Qualifier: QualDef, Name: "f",
				Params: []Param{{NodeID: ids["fParam"], Name: "x"}},
				Body:   &Name{NodeID: ids["fBody"], Value: "x"},
			},
			&OpDef{
				NodeID: ids["w"], Qualifier: QualVal, Name: "w",
				Body: &LetIn{
					NodeID: ids["let"],
					Def: &OpDef{
						NodeID: ids["y"], Qualifier: QualVal, Name: "y",
						Body: &Name{NodeID: ids["yBody"], Value: "n"},
					},
					Body: &Lambda{
						NodeID: ids["lambda"],
						Params: []Param{{NodeID: ids["lParam"], Name: "z"}},
						Body:   &Name{NodeID: ids["lBody"], Value: "z"},
					},
				},
			},
		},
	}
	return m, ids
}

func TestLookupModuleLevelDefinitions(t *testing.T) {
	m, ids := buildModule()
	scopes := BuildScopeTable(m)

	res, ok := scopes.Lookup("s", ids["vBody"])
	require.True(t, ok)
	assert.Equal(t, KindVar, res.Kind)
	assert.Equal(t, ids["var"], res.DefID)

	res, ok = scopes.Lookup("n", ids["yBody"])
	require.True(t, ok)
	assert.Equal(t, KindConst, res.Kind)

	res, ok = scopes.Lookup("v", ids["vBody"])
	require.True(t, ok, "definitions are visible in every module body")
	assert.Equal(t, KindVal, res.Kind)
}

func TestLookupParameters(t *testing.T) {
	m, ids := buildModule()
	scopes := BuildScopeTable(m)

	res, ok := scopes.Lookup("x", ids["fBody"])
	require.True(t, ok)
	assert.Equal(t, KindParam, res.Kind)
	assert.Equal(t, ids["fParam"], res.DefID)

	// Parameters are invisible outside their operator's body.
	_, ok = scopes.Lookup("x", ids["vBody"])
	assert.False(t, ok)

	res, ok = scopes.Lookup("z", ids["lBody"])
	require.True(t, ok)
	assert.Equal(t, KindParam, res.Kind)
	assert.Equal(t, ids["lParam"], res.DefID)
}

func TestLookupLetBinding(t *testing.T) {
	m, ids := buildModule()
	scopes := BuildScopeTable(m)

	res, ok := scopes.Lookup("y", ids["lBody"])
	require.True(t, ok)
	assert.Equal(t, KindVal, res.Kind)
	assert.Equal(t, ids["y"], res.DefID)

	// The let binding does not leak outside the let body.
	_, ok = scopes.Lookup("y", ids["vBody"])
	assert.False(t, ok)
}

func TestLookupShadowing(t *testing.T) {
	// def f(s) = s shadows the state variable s inside the body only.
	m := &Module{
		NodeID: 1,
		Name:   "shadow",
		Defs: []Def{
			&VarDef{NodeID: 2, Name: "s", Type: ValueType{Kind: TypeInt}},
			&OpDef{
				NodeID: 3, Qualifier: QualDef, Name: "f",
				Params: []Param{{NodeID: 4, Name: "s"}},
				Body:   &Name{NodeID: 5, Value: "s"},
			},
		},
	}
	scopes := BuildScopeTable(m)

	res, ok := scopes.Lookup("s", 5)
	require.True(t, ok)
	assert.Equal(t, KindParam, res.Kind, "innermost binding wins")
	assert.Equal(t, NodeID(4), res.DefID)
}

func TestLookupMissingNameIsNotFound(t *testing.T) {
	m, ids := buildModule()
	scopes := BuildScopeTable(m)

	_, ok := scopes.Lookup("nonexistent", ids["vBody"])
	assert.False(t, ok)
}

func TestLookupNestedModuleShadowsOuter(t *testing.T) {
	inner := &Module{
		NodeID: 10,
		Name:   "inner",
		Defs: []Def{
			&VarDef{NodeID: 11, Name: "s", Type: ValueType{Kind: TypeBool}},
			&OpDef{NodeID: 12, Qualifier: QualVal, Name: "p",
				Body: &Name{NodeID: 13, Value: "s"}},
		},
	}
	outer := &Module{
		NodeID: 1,
		Name:   "outer",
		Defs: []Def{
			&VarDef{NodeID: 2, Name: "s", Type: ValueType{Kind: TypeInt}},
			inner,
		},
	}
	scopes := BuildScopeTable(outer)

	res, ok := scopes.Lookup("s", 13)
	require.True(t, ok)
	assert.Equal(t, NodeID(11), res.DefID, "nested definition shadows the outer one")
}

func TestChildExprs(t *testing.T) {
	app := &App{NodeID: 1, Opcode: "iadd", Args: []Expr{
		&IntLit{NodeID: 2, Value: 1},
		&IntLit{NodeID: 3, Value: 2},
	}}
	children := ChildExprs(app)
	require.Len(t, children, 2)
	assert.Equal(t, NodeID(2), children[0].ID())
	assert.Equal(t, NodeID(3), children[1].ID())

	let := &LetIn{
		NodeID: 4,
		Def:    &OpDef{NodeID: 5, Name: "x", Body: &IntLit{NodeID: 6, Value: 1}},
		Body:   &Name{NodeID: 7, Value: "x"},
	}
	children = ChildExprs(let)
	require.Len(t, children, 2)
	assert.Equal(t, NodeID(6), children[0].ID(), "definition body comes before the let body")
	assert.Equal(t, NodeID(7), children[1].ID())

	assert.Nil(t, ChildExprs(&IntLit{NodeID: 8}))
}
