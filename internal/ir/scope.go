package ir

import "fmt"

// BindingKind classifies what a name resolves to.
type BindingKind int

const (
	KindParam BindingKind = iota
	KindConst
	KindVar
	KindVal
	KindDef
	KindTypeDef
)

// String returns the lookup-table name of the kind.
func (k BindingKind) String() string {
	switch k {
	case KindParam:
		return "param"
	case KindConst:
		return "const"
	case KindVar:
		return "var"
	case KindVal:
		return "val"
	case KindDef:
		return "def"
	case KindTypeDef:
		return "typedef"
	default:
		return fmt.Sprintf("BindingKind(%d)", int(k))
	}
}

// LookupResult is the answer to a scope lookup: what kind of binding the name
// denotes and the id of its defining node.
type LookupResult struct {
	Kind  BindingKind
	DefID NodeID
}

// ScopeTable answers name lookups for every node of a module tree. It is
// built once after parsing and is read-only afterwards.
type ScopeTable struct {
	scopes map[NodeID]*scope
}

type scope struct {
	parent   *scope
	bindings map[string]LookupResult
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, bindings: make(map[string]LookupResult)}
}

func (s *scope) bind(name string, res LookupResult) {
	s.bindings[name] = res
}

// BuildScopeTable constructs the scope tree for a module. Module-level names
// are visible throughout the module, including before their definition;
// lambda parameters are visible only inside that lambda's body; let-bound
// names are visible in the let body, and inside their own defining expression
// only for defrec.
func BuildScopeTable(m *Module) *ScopeTable {
	t := &ScopeTable{scopes: make(map[NodeID]*scope)}
	t.buildModule(m, nil)
	return t
}

// Lookup resolves name starting from the scope in force at node id, walking
// outwards to the module root. The innermost binding wins. A missing name
// yields ok == false, never a panic.
func (t *ScopeTable) Lookup(name string, at NodeID) (LookupResult, bool) {
	for sc := t.scopes[at]; sc != nil; sc = sc.parent {
		if res, ok := sc.bindings[name]; ok {
			return res, true
		}
	}
	return LookupResult{}, false
}

func (t *ScopeTable) buildModule(m *Module, parent *scope) {
	sc := newScope(parent)
	t.scopes[m.NodeID] = sc

	// Bind every module-level definition up front so bodies may refer to
	// later and mutually recursive definitions.
	for _, def := range m.Defs {
		switch d := def.(type) {
		case *ConstDef:
			sc.bind(d.Name, LookupResult{Kind: KindConst, DefID: d.NodeID})
		case *VarDef:
			sc.bind(d.Name, LookupResult{Kind: KindVar, DefID: d.NodeID})
		case *OpDef:
			sc.bind(d.Name, LookupResult{Kind: opDefKind(d), DefID: d.NodeID})
		case *TypeDef:
			sc.bind(d.Name, LookupResult{Kind: KindTypeDef, DefID: d.NodeID})
		}
	}

	for _, def := range m.Defs {
		switch d := def.(type) {
		case *ConstDef, *VarDef, *TypeDef, *Import:
			t.scopes[def.ID()] = sc
		case *OpDef:
			t.buildOpDef(d, sc)
		case *Assume:
			t.scopes[d.NodeID] = sc
			t.buildExpr(d.Expr, sc)
		case *Instance:
			t.scopes[d.NodeID] = sc
			for _, o := range d.Overrides {
				t.buildExpr(o.Expr, sc)
			}
		case *Module:
			t.buildModule(d, sc)
		}
	}
}

func (t *ScopeTable) buildOpDef(d *OpDef, outer *scope) {
	t.scopes[d.NodeID] = outer

	bodyScope := outer
	if d.Qualifier == QualDefRec {
		rec := newScope(outer)
		rec.bind(d.Name, LookupResult{Kind: opDefKind(d), DefID: d.NodeID})
		bodyScope = rec
	}
	if len(d.Params) > 0 {
		params := newScope(bodyScope)
		for _, p := range d.Params {
			params.bind(p.Name, LookupResult{Kind: KindParam, DefID: p.NodeID})
		}
		bodyScope = params
	}
	if d.Body != nil {
		t.buildExpr(d.Body, bodyScope)
	}
}

func (t *ScopeTable) buildExpr(e Expr, sc *scope) {
	t.scopes[e.ID()] = sc

	switch n := e.(type) {
	case *App:
		for _, arg := range n.Args {
			t.buildExpr(arg, sc)
		}
	case *Lambda:
		inner := newScope(sc)
		for _, p := range n.Params {
			inner.bind(p.Name, LookupResult{Kind: KindParam, DefID: p.NodeID})
		}
		t.buildExpr(n.Body, inner)
	case *LetIn:
		t.buildOpDef(n.Def, sc)
		body := newScope(sc)
		body.bind(n.Def.Name, LookupResult{Kind: opDefKind(n.Def), DefID: n.Def.NodeID})
		t.buildExpr(n.Body, body)
	}
}

// opDefKind maps an operator definition's qualifier onto the lookup-table
// kind: parameterless value qualifiers resolve as val, everything else as def.
func opDefKind(d *OpDef) BindingKind {
	switch d.Qualifier {
	case QualVal, QualPureVal:
		return KindVal
	default:
		return KindDef
	}
}
