// Package infer implements effect inference for Rill modules: a
// Hindley-Milner-style pass that walks the IR in post-order and produces, for
// every expression id, either an effect scheme or a tree-structured error.
//
// One Inferrer owns one run. Its running substitution only ever grows, the
// result and error maps are append-only, and fresh variable names come from a
// deterministic counter, so identical inputs produce identical outputs.
package infer

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/rill-lang/rill/internal/diag"
	"github.com/rill-lang/rill/internal/effect"
	"github.com/rill-lang/rill/internal/ir"
)

// Config controls an inference run.
type Config struct {
	// Logger receives debug traces of per-node results and unifications.
	Logger *slog.Logger

	// Sources renders node ids into source locations for diagnostics.
	// Optional; without it locations fall back to node ids.
	Sources ir.SourceMap
}

// DefaultConfig returns a configuration with a discarding logger.
func DefaultConfig() Config {
	return Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Inferrer carries the mutable state of one inference run.
type Inferrer struct {
	cfg    Config
	log    *slog.Logger
	scopes *ir.ScopeTable

	sub     effect.Substitution
	results map[ir.NodeID]effect.Scheme
	errors  map[ir.NodeID]*diag.Error
	counter int

	modules []string // names of enclosing modules, innermost last
}

// New creates an inferrer over the given scope table.
func New(scopes *ir.ScopeTable, cfg Config) *Inferrer {
	if cfg.Logger == nil {
		cfg.Logger = DefaultConfig().Logger
	}
	return &Inferrer{
		cfg:     cfg,
		log:     cfg.Logger,
		scopes:  scopes,
		sub:     effect.Substitution{},
		results: map[ir.NodeID]effect.Scheme{},
		errors:  map[ir.NodeID]*diag.Error{},
	}
}

// Infer runs effect inference over every definition of the module and returns
// the result and error maps. Either map may be empty. The maps are owned by
// the caller afterwards; the inferrer must not be reused.
func (inf *Inferrer) Infer(m *ir.Module) (map[ir.NodeID]effect.Scheme, map[ir.NodeID]*diag.Error) {
	inf.inferModule(m)
	return inf.results, inf.errors
}

// EffectOf fetches the scheme recorded for id. Asking for an id that has no
// entry is a caller bug and panics; inference failures are in the error map,
// never here.
func (inf *Inferrer) EffectOf(id ir.NodeID) effect.Scheme {
	sch, ok := inf.results[id]
	if !ok {
		panic(fmt.Sprintf("infer: no effect recorded for node %d", id))
	}
	return sch
}

func (inf *Inferrer) inferModule(m *ir.Module) {
	inf.modules = append(inf.modules, m.Name)
	defer func() { inf.modules = inf.modules[:len(inf.modules)-1] }()

	for _, def := range m.Defs {
		switch d := def.(type) {
		case *ir.OpDef:
			inf.inferOpDef(d)
		case *ir.Assume:
			inf.inferExpr(d.Expr)
		case *ir.Instance:
			for _, o := range d.Overrides {
				inf.inferExpr(o.Expr)
			}
		case *ir.Module:
			inf.inferModule(d)
		}
	}
}

// inferOpDef infers a definition's body and records the definition's scheme
// at its own id. Parameterized definitions get an arrow over their parameter
// variables, generalized the same way lambdas are.
func (inf *Inferrer) inferOpDef(d *ir.OpDef) {
	if d.Body == nil {
		return
	}
	inf.inferExpr(d.Body)
	if !inf.inferred(d.Body) {
		return
	}

	if len(d.Params) > 0 {
		inf.recordScheme(d.NodeID, inf.arrowScheme(d.Params, d.Body))
		return
	}

	// A value definition's effect is its body's effect; leftover quantified
	// names are underconstrained and generalize.
	eff := inf.sub.Apply(inf.EffectOf(d.Body.ID()).Effect)
	free := effect.FreeNames(eff)
	inf.recordScheme(d.NodeID, effect.NewScheme(free.EffectNames(), free.EntityNames(), eff))
}

// inferExpr visits e's children, then e itself. A node whose child failed
// contributes neither a result nor a fresh error, so one defect does not
// cascade; sibling subtrees are still fully inferred.
func (inf *Inferrer) inferExpr(e ir.Expr) {
	if let, ok := e.(*ir.LetIn); ok {
		inf.inferLetIn(let)
		return
	}

	for _, child := range ir.ChildExprs(e) {
		inf.inferExpr(child)
	}
	for _, child := range ir.ChildExprs(e) {
		if !inf.inferred(child) {
			// The child failed, or sits above a failure; adding results or
			// errors here would only echo the original defect.
			return
		}
	}

	switch n := e.(type) {
	case *ir.IntLit, *ir.BoolLit, *ir.StrLit:
		inf.record(e.ID(), &effect.Concrete{})
	case *ir.Name:
		inf.inferName(n)
	case *ir.App:
		inf.inferApp(n)
	case *ir.Lambda:
		inf.recordScheme(n.NodeID, inf.arrowScheme(n.Params, n.Body))
	}
}

// inferLetIn records the local definition's scheme at its id before the let
// body runs, so references to the binding resolve to it. The let's own effect
// is the body's effect.
func (inf *Inferrer) inferLetIn(let *ir.LetIn) {
	inf.inferOpDef(let.Def)
	inf.inferExpr(let.Body)
	if !inf.inferred(let.Body) {
		return
	}
	inf.results[let.NodeID] = inf.EffectOf(let.Body.ID())
}

// inferName resolves a reference and records its effect: parameters yield
// their distinguished quantified variable, constants are pure, state
// variables are read, and operator definitions are instantiated afresh.
func (inf *Inferrer) inferName(n *ir.Name) {
	res, ok := inf.scopes.Lookup(n.Value, n.NodeID)
	if !ok {
		inf.fail(n.NodeID, diag.New(diag.CodeNameNotFound, inf.locationOf(n.NodeID),
			"couldn't find %s in the lookup table", n.Value))
		return
	}

	switch res.Kind {
	case ir.KindParam:
		inf.record(n.NodeID, &effect.Quantified{Name: paramVarName(n.Value, res.DefID)})
	case ir.KindConst, ir.KindTypeDef:
		inf.record(n.NodeID, &effect.Concrete{})
	case ir.KindVar:
		inf.record(n.NodeID, readStateVar(n.Value, n.NodeID))
	case ir.KindVal, ir.KindDef:
		sch, inferred := inf.results[res.DefID]
		if !inferred {
			eff, err := inf.fallbackSignature(n.Value, n.NodeID)
			if err != nil {
				inf.fail(n.NodeID, err)
				return
			}
			inf.record(n.NodeID, eff)
			return
		}
		inf.record(n.NodeID, inf.instantiate(sch))
	}
}

// inferApp implements the operator-application rule: build an actual arrow
// from freshly instantiated argument schemes and a fresh result variable,
// unify it with the operator's signature, fold the unifier into the running
// substitution, and refine every argument's recorded effect.
func (inf *Inferrer) inferApp(e *ir.App) {
	// Instantiate under the running substitution: a sibling's inference may
	// have refined an argument's effect since it was recorded.
	instances := make([]effect.Effect, len(e.Args))
	for i, arg := range e.Args {
		instances[i] = inf.sub.Apply(inf.instantiate(inf.EffectOf(arg.ID())))
	}

	result := &effect.Quantified{Name: inf.freshEffectName()}
	actual := &effect.Arrow{Params: instances, Result: result}

	signature, err := inf.signatureFor(e)
	if err != nil {
		inf.fail(e.NodeID, err)
		return
	}

	unifier, uerr := effect.Unify(signature, actual)
	if uerr != nil {
		inf.fail(e.NodeID, diag.Wrap(inf.locationOf(e.NodeID),
			fmt.Sprintf("inferring effect of %s application", e.Opcode), uerr))
		return
	}

	combined, cerr := effect.Compose(inf.sub, unifier)
	if cerr != nil {
		inf.fail(e.NodeID, diag.Wrap(inf.locationOf(e.NodeID),
			fmt.Sprintf("inferring effect of %s application", e.Opcode), cerr))
		return
	}
	inf.sub = combined

	// Refine the arguments so the stored effects reflect everything known
	// at this point.
	for _, arg := range e.Args {
		sch := inf.results[arg.ID()]
		sch.Effect = inf.sub.Apply(sch.Effect)
		inf.results[arg.ID()] = sch
	}

	inf.record(e.NodeID, result)
	inf.log.Debug("inferred application",
		"op", e.Opcode, "id", e.NodeID, "effect", inf.results[e.NodeID].Effect.String())
}

// signatureFor resolves the effect signature of an application's operator:
// the hole "_" is unconstrained, builtins come from the signature table at
// the application's arity, and user-defined operators use their recorded
// scheme via the scope table.
func (inf *Inferrer) signatureFor(e *ir.App) (effect.Effect, *diag.Error) {
	if e.Opcode == "_" {
		return &effect.Quantified{Name: inf.freshEffectName()}, nil
	}

	if sig, ok := BuiltinSignature(e.Opcode); ok {
		return inf.instantiateSignature(sig(len(e.Args))), nil
	}

	res, ok := inf.scopes.Lookup(e.Opcode, e.NodeID)
	if !ok {
		return nil, diag.New(diag.CodeNameNotFound, inf.locationOf(e.NodeID),
			"couldn't find %s in the lookup table", e.Opcode)
	}

	switch res.Kind {
	case ir.KindParam:
		return &effect.Quantified{Name: paramVarName(e.Opcode, res.DefID)}, nil
	case ir.KindConst, ir.KindTypeDef:
		return &effect.Concrete{}, nil
	case ir.KindVar:
		return readStateVar(e.Opcode, e.NodeID), nil
	default:
		sch, inferred := inf.results[res.DefID]
		if !inferred {
			return inf.fallbackSignature(e.Opcode, e.NodeID)
		}
		return inf.instantiate(sch), nil
	}
}

// fallbackSignature handles a val/def reference whose definition has not been
// inferred yet: builtin operators shadowed into the table still resolve, at
// the unary shape; anything else is a forward reference the effect system
// does not support.
func (inf *Inferrer) fallbackSignature(name string, at ir.NodeID) (effect.Effect, *diag.Error) {
	if sig, ok := BuiltinSignature(name); ok {
		return inf.instantiateSignature(sig(1)), nil
	}
	return nil, diag.New(diag.CodeNameNotFound, inf.locationOf(at),
		"effect signature for %s is not available", name)
}

// arrowScheme builds the scheme of a lambda or parameterized definition after
// its body has been inferred: the arrow's parameter effects are the
// distinguished parameter variables under the running substitution, and the
// quantifier sets are the free names of the parameters only, so per-call-site
// instantiation freshens parameters while the body's effect stays fixed.
func (inf *Inferrer) arrowScheme(params []ir.Param, body ir.Expr) effect.Scheme {
	paramEffects := make([]effect.Effect, len(params))
	effectVars := []string{}
	entityVars := []string{}
	for i, p := range params {
		pe := inf.sub.Apply(&effect.Quantified{Name: paramVarName(p.Name, p.NodeID)})
		paramEffects[i] = pe
		free := effect.FreeNames(pe)
		effectVars = append(effectVars, free.EffectNames()...)
		entityVars = append(entityVars, free.EntityNames()...)
	}

	arrow := &effect.Arrow{
		Params: paramEffects,
		Result: inf.sub.Apply(inf.EffectOf(body.ID()).Effect),
	}
	return effect.NewScheme(effectVars, entityVars, arrow)
}

// instantiate replaces every quantified name of a scheme with a freshly
// minted variable of the same kind.
func (inf *Inferrer) instantiate(sch effect.Scheme) effect.Effect {
	s := make(effect.Substitution, 0, len(sch.EffectVars)+len(sch.EntityVars))
	for _, name := range sch.EffectVars {
		s = append(s, effect.Binding{
			Kind: effect.EffectBinding, Name: name,
			Effect: &effect.Quantified{Name: inf.freshEffectName()},
		})
	}
	for _, name := range sch.EntityVars {
		s = append(s, effect.Binding{
			Kind: effect.EntityBinding, Name: name,
			Vars: &effect.QuantifiedVars{Name: inf.freshEntityName()},
		})
	}
	return s.Apply(sch.Effect)
}

// instantiateSignature freshens every quantified name of a builtin signature
// template, which is schematic in all of its names.
func (inf *Inferrer) instantiateSignature(e effect.Effect) effect.Effect {
	free := effect.FreeNames(e)
	return inf.instantiate(effect.NewScheme(free.EffectNames(), free.EntityNames(), e))
}

// ===== Bookkeeping =====

// record stores a monomorphic scheme for id, fully substituted as of now.
func (inf *Inferrer) record(id ir.NodeID, e effect.Effect) {
	inf.results[id] = effect.Mono(inf.sub.Apply(e))
}

func (inf *Inferrer) recordScheme(id ir.NodeID, sch effect.Scheme) {
	inf.results[id] = sch
}

func (inf *Inferrer) fail(id ir.NodeID, err *diag.Error) {
	inf.errors[id] = err
	inf.log.Debug("inference error",
		"module", inf.currentModule(), "id", id, "error", err.Message)
}

func (inf *Inferrer) inferred(e ir.Expr) bool {
	_, ok := inf.results[e.ID()]
	return ok
}

func (inf *Inferrer) currentModule() string {
	if len(inf.modules) == 0 {
		return ""
	}
	return inf.modules[len(inf.modules)-1]
}

func (inf *Inferrer) freshEffectName() string {
	name := fmt.Sprintf("_e%d", inf.counter)
	inf.counter++
	return name
}

func (inf *Inferrer) freshEntityName() string {
	name := fmt.Sprintf("_v%d", inf.counter)
	inf.counter++
	return name
}

func (inf *Inferrer) locationOf(id ir.NodeID) string {
	if span := inf.cfg.Sources.SpanOf(id); span.IsValid() {
		return span.String()
	}
	return fmt.Sprintf("id %d", id)
}

// paramVarName is the distinguished effect variable of a parameter: naming it
// by the parameter's defining occurrence lets lambdas rebuild the same
// variable without fresh-name churn.
func paramVarName(name string, defID ir.NodeID) string {
	return fmt.Sprintf("e_%s_%d", name, defID)
}

func readStateVar(name string, ref ir.NodeID) effect.Effect {
	return &effect.Concrete{Components: []effect.Component{{
		Kind: effect.Read,
		Vars: &effect.ConcreteVars{Vars: []effect.StateVar{{Name: name, RefID: ref}}},
	}}}
}
