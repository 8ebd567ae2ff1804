package semval

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/primop"
)

// Sem is a semantic value produced by internal/evalcore. Closures are
// represented as host Go functions rather than as a name-indexed
// environment, the same normalization-by-evaluation encoding
// internal/eval/value.go uses for its Value interface, generalized
// here so that forcing a closure never needs to look a name up in a
// map — it just calls the Go function.
type Sem interface{ semNode() }

// Lam is a single-argument closure. F captures its defining
// environment directly.
type Lam struct {
	Id *ident.Ident
	F  func(Sem) Sem
}

// MkFn is one link of an uncurried-abstraction chain (spec.md §3
// "MkFn(kont)"): each link either asks for one more argument
// (MkFnNext) or, once all parameters are supplied, holds the
// evaluated body (MkFnApplied). Reifying an uncurried function walks
// the chain collecting one Param per MkFnNext.
type MkFn interface{ mkFnNode() }

type MkFnNext struct {
	Id   *ident.Ident
	Next func(Sem) MkFn
}

type MkFnApplied struct {
	Value Sem
}

func (MkFnNext) mkFnNode()    {}
func (MkFnApplied) mkFnNode() {}

// MkFnV wraps a non-effectful uncurried closure chain.
type MkFnV struct{ Chain MkFn }

// MkEffectFnV wraps an effectful uncurried closure chain; it is only
// ever invoked at an effect-call site (evalcore keeps the two
// distinct so a pure call can never accidentally run effects).
type MkEffectFnV struct{ Chain MkFn }

// Let/LetRec/EffectBind/EffectPure are preserved rather than reduced
// away by evaluation (spec.md §3): they carry enough of the original
// binding structure that the quoter can re-emit a Let/LetRec/
// EffectBind/EffectPure node instead of inlining the binding at every
// use, which is exactly what would happen if Eval immediately
// substituted the bound value into Kont's closure.
type Let struct {
	Id      *ident.Ident
	Value   Sem
	Kont    func(Sem) Sem
	Binding backend.Expr // re-quoted binding, filled in by quote on demand
}

// RecBinding is one binder of a preserved LetRec group: Thunk is the
// (possibly not yet forced) recursive value, Id is cosmetic.
type RecBinding struct {
	Id    *ident.Ident
	Lvl   ident.Level
	Thunk *Thunk[Sem]
}

type LetRec struct {
	Bindings []RecBinding
	Kont     func() Sem
}

type EffectBind struct {
	Id   *ident.Ident
	M    Sem
	Kont func(Sem) Sem
}

type EffectPure struct {
	Value Sem
}

func (Lam) semNode()        {}
func (MkFnV) semNode()      {}
func (MkEffectFnV) semNode() {}
func (Let) semNode()        {}
func (LetRec) semNode()     {}
func (EffectBind) semNode() {}
func (EffectPure) semNode() {}

// ---- Branch -----------------------------------------------------------

// Cond is one guarded arm of a preserved Branch: Guard is the already
// evaluated (or to-be-forced) condition, Kont receives the remaining
// arms (as a Try) so the evaluator only forces as many guards as it
// needs to find the first truthy one.
type Cond struct {
	Guard Sem
	Kont  func(*Try) Sem
}

// Try threads the not-yet-tried remainder of a Branch through
// short-circuiting evaluation; Default is nil when the branch has no
// fallthrough (spec.md §4.2.4 — a missing default that is reached at
// runtime is a Fail, not a panic).
type Try struct {
	Remaining []*Thunk[Cond]
	Default   *Thunk[Sem]
}

// Branch preserves the guarded chain so the quoter can re-emit the
// same ordered BranchPair list spec.md's Branch node requires; folding
// away arms whose guard is a literal happens in evalcore, not here.
type Branch struct {
	Conds   []*Thunk[Cond]
	Default *Thunk[Sem] // nil if the branch has no default
}

func (Branch) semNode() {}

// ---- Neutrals -----------------------------------------------------------

// Neutral marks a Sem stuck on a free variable, module-level
// reference, or an operation the evaluator could not reduce further;
// Freeze's output corresponds 1:1 with the neutral forms below.
type Neutral interface {
	Sem
	neutralNode()
}

type NeutLocal struct {
	Id  *ident.Ident
	Lvl ident.Level
}

type NeutVar struct{ Q ident.Qualified }

// NeutStop marks a reference that directive policy has forbidden
// further inlining on for this pass (spec.md §4.7 RewriteStop origin).
type NeutStop struct{ Q ident.Qualified }

// NeutField is one field of a stuck constructor application.
type NeutField struct {
	Name  ident.Ident
	Value Sem
}

type NeutData struct {
	Q        ident.Qualified
	CtorType backend.CtorType
	TyName   ident.Ident
	Tag      ident.Ident
	Fields   []NeutField
}

type NeutCtorDef struct {
	Q        ident.Qualified
	CtorType backend.CtorType
	TyName   ident.Ident
	Tag      ident.Ident
	Fields   []ident.Ident
}

type NeutApp struct {
	Head Sem
	Args []Sem
}

type NeutUncurriedApp struct {
	Head Sem
	Args []Sem
}

type NeutUncurriedEffectApp struct {
	Head Sem
	Args []Sem
}

type NeutAccessor struct {
	Expr Sem
	Acc  backend.Accessor
}

// NeutProp is one field of a stuck record update.
type NeutProp struct {
	Key   string
	Value Sem
}

type NeutUpdate struct {
	Expr  Sem
	Props []NeutProp
}

// NeutLiteral mirrors backend.Literal but over evaluated Sem children,
// so an array/record literal can still contain stuck sub-expressions
// without losing its literal shape (needed to fold OpArrayLength and
// structural equality against it, spec.md §4.2.5).
type NeutLiteral interface{ neutLitNode() }

type NeutLitInt struct{ Value int32 }
type NeutLitNumber struct{ Value float64 }
type NeutLitString struct{ Value string }
type NeutLitChar struct{ Value rune }
type NeutLitBool struct{ Value bool }
type NeutLitArray struct{ Elements []Sem }
type NeutLitRecord struct{ Props []NeutProp }

func (NeutLitInt) neutLitNode()    {}
func (NeutLitNumber) neutLitNode() {}
func (NeutLitString) neutLitNode() {}
func (NeutLitChar) neutLitNode()   {}
func (NeutLitBool) neutLitNode()   {}
func (NeutLitArray) neutLitNode()  {}
func (NeutLitRecord) neutLitNode() {}

type NeutLit struct{ Value NeutLiteral }

type NeutPrimOp struct {
	Op   primop.Op
	Args []Sem
}

// NeutFail is a stuck pattern-match failure (spec.md §4.2.4): unlike
// backend.Fail it can still appear as an operand the evaluator chose
// not to force, e.g. the untaken branch of a Cond.
type NeutFail struct{ Msg string }

func (NeutLocal) semNode()             {}
func (NeutVar) semNode()               {}
func (NeutStop) semNode()              {}
func (NeutData) semNode()              {}
func (NeutCtorDef) semNode()           {}
func (NeutApp) semNode()               {}
func (NeutUncurriedApp) semNode()       {}
func (NeutUncurriedEffectApp) semNode() {}
func (NeutAccessor) semNode()          {}
func (NeutUpdate) semNode()            {}
func (NeutLit) semNode()               {}
func (NeutPrimOp) semNode()            {}
func (NeutFail) semNode()              {}

func (NeutLocal) neutralNode()             {}
func (NeutVar) neutralNode()               {}
func (NeutStop) neutralNode()              {}
func (NeutData) neutralNode()              {}
func (NeutCtorDef) neutralNode()           {}
func (NeutApp) neutralNode()               {}
func (NeutUncurriedApp) neutralNode()       {}
func (NeutUncurriedEffectApp) neutralNode() {}
func (NeutAccessor) neutralNode()          {}
func (NeutUpdate) neutralNode()            {}
func (NeutLit) neutralNode()               {}
func (NeutPrimOp) neutralNode()            {}
func (NeutFail) neutralNode()              {}

// ---- Extern -------------------------------------------------------------

// ExternSpine is one link applied on top of a stuck module-level
// reference: consecutive ExternApp links must be coalesced into one
// by whatever builds the spine (spec.md §3 "Extern" invariant) so
// that re-quoting never splits a single saturated call into several
// App nodes.
type ExternSpine interface{ externSpineNode() }

type ExternApp struct{ Args []Sem }
type ExternAccessor struct{ Acc backend.Accessor }
type ExternPrimOp struct {
	Op      primop.Op
	Operand Sem // the other, already-evaluated operand of a binary op
	OnLeft  bool
}

func (ExternApp) externSpineNode()      {}
func (ExternAccessor) externSpineNode() {}
func (ExternPrimOp) externSpineNode()   {}

// Extern is a reference to a not-yet-inlined module-level binding,
// together with whatever spine of applications/accessors/operators
// has accumulated on top of it, and a Fallback thunk that reifies to
// the original Var if directive policy ultimately refuses to inline
// it (spec.md §3, §4.7).
type Extern struct {
	Q        ident.Qualified
	Spine    []ExternSpine
	Fallback *Thunk[Sem]
}

func (Extern) semNode() {}

// PushApp appends an application to e's spine, coalescing it into a
// trailing ExternApp if one is already there (the normalization
// invariant spec.md calls out for Extern).
func (e Extern) PushApp(args []Sem) Extern {
	if n := len(e.Spine); n > 0 {
		if prev, ok := e.Spine[n-1].(ExternApp); ok {
			merged := make([]Sem, 0, len(prev.Args)+len(args))
			merged = append(merged, prev.Args...)
			merged = append(merged, args...)
			spine := make([]ExternSpine, n)
			copy(spine, e.Spine)
			spine[n-1] = ExternApp{Args: merged}
			return Extern{Q: e.Q, Spine: spine, Fallback: e.Fallback}
		}
	}
	spine := make([]ExternSpine, len(e.Spine), len(e.Spine)+1)
	copy(spine, e.Spine)
	spine = append(spine, ExternApp{Args: args})
	return Extern{Q: e.Q, Spine: spine, Fallback: e.Fallback}
}

// PushAccessor appends a projection to e's spine.
func (e Extern) PushAccessor(acc backend.Accessor) Extern {
	spine := make([]ExternSpine, len(e.Spine), len(e.Spine)+1)
	copy(spine, e.Spine)
	spine = append(spine, ExternAccessor{Acc: acc})
	return Extern{Q: e.Q, Spine: spine, Fallback: e.Fallback}
}
