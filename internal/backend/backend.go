// Package backend defines the build IR (spec.md §3 "Build IR
// (BackendExpr)"): the ANF-like tree the evaluator, quoter and
// rewriter operate on, plus the rewrite-annotation forms that Build
// (internal/build) introduces and Freeze (internal/freeze) removes.
//
// The shape follows internal/core's CoreExpr design from the teacher
// (a base struct embedded in every node, a closed interface switched
// on by the walker) generalized to carry an Analysis, de Bruijn levels
// instead of names, and the extra syntactic forms spec.md §3 names.
package backend

import (
	"sort"

	"github.com/sigma-andex/purescript-backend-optimizer/internal/analysis"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ast"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/primop"
)

// Expr is the interface implemented by every build-IR node, syntactic
// or rewrite. A NeutralExpr is any Expr produced by internal/freeze —
// by construction it never contains a Rewrite* node, but that
// invariant is a phase guarantee rather than a distinct Go type, the
// same way the teacher threads a single CoreExpr interface through
// elaboration, linking and evaluation.
type Expr interface {
	Anno() analysis.Analysis
	Span() ast.Span
	exprNode()
}

// NeutralExpr is Expr restricted (by the freeze phase, not the type
// system) to rewrite-free nodes.
type NeutralExpr = Expr

// base is embedded by every concrete node to provide Anno/Span.
type base struct {
	An  analysis.Analysis
	Spn ast.Span
}

func (b base) Anno() analysis.Analysis { return b.An }
func (b base) Span() ast.Span          { return b.Spn }

// ---- Literals -------------------------------------------------------

// Literal is the payload of a Lit node.
type Literal interface{ literalNode() }

type LitInt struct{ Value int32 }
type LitNumber struct{ Value float64 }
type LitString struct{ Value string }
type LitChar struct{ Value rune }
type LitBool struct{ Value bool }
type LitArray struct{ Elements []Expr }

// Prop is one field of a LitRecord, Update, or CtorSaturated field
// list. LitRecord's Props are normalized by NewLitRecord to "stable
// sort by key, first occurrence wins" per spec.md invariant 3.
type Prop struct {
	Key   string
	Value Expr
}

type LitRecord struct{ Props []Prop }

func (LitInt) literalNode()    {}
func (LitNumber) literalNode() {}
func (LitString) literalNode() {}
func (LitChar) literalNode()   {}
func (LitBool) literalNode()   {}
func (LitArray) literalNode()  {}
func (LitRecord) literalNode() {}

// ---- Accessors, params, patterns of construction --------------------

// Accessor is a projection: a record field, an array index, or a
// constructor field offset (spec.md §3).
type Accessor interface{ accessorNode() }

type GetProp struct{ Key string }
type GetIndex struct{ Index int }
type GetOffset struct{ Index int }

func (GetProp) accessorNode()   {}
func (GetIndex) accessorNode()  {}
func (GetOffset) accessorNode() {}

// Param is one parameter of an Abs/UncurriedAbs/UncurriedEffectAbs.
// Id is optional (purely cosmetic — the evaluator and quoter only
// ever use Lvl).
type Param struct {
	Id  *ident.Ident
	Lvl ident.Level
}

// RecBinding is one binder of a LetRec group.
type RecBinding struct {
	Id    *ident.Ident
	Lvl   ident.Level
	Value Expr
}

// BranchPair is one guarded arm of a Branch.
type BranchPair struct {
	Guard Expr
	Body  Expr
}

// CtorType distinguishes single-constructor ("Product") types from
// true sum types (spec.md §3). Convert carries it over from the input
// module as given; it is not inferred from the number of constructors.
type CtorType int

const (
	ProductType CtorType = iota
	SumType
)

// CtorField is one field of an applied constructor (CtorSaturated).
type CtorField struct {
	Name  ident.Ident
	Value Expr
}

// ---- Syntactic forms -------------------------------------------------

type Var struct {
	base
	Q ident.Qualified
}

type Local struct {
	base
	Id  *ident.Ident
	Lvl ident.Level
}

type Lit struct {
	base
	Value Literal
}

// App is curried application; Args must be non-empty by construction
// (spec.md invariant 2) — callers should use NewApp.
type App struct {
	base
	Head Expr
	Args []Expr
}

// Abs is curried abstraction; Params must be non-empty.
type Abs struct {
	base
	Params []Param
	Body   Expr
}

// UncurriedApp/UncurriedAbs are flat multi-argument call/abstraction
// forms used at effect-free interop boundaries.
type UncurriedApp struct {
	base
	Head Expr
	Args []Expr
}

type UncurriedAbs struct {
	base
	Params []Param
	Body   Expr
}

// UncurriedEffectApp/UncurriedEffectAbs are the effectful counterparts.
type UncurriedEffectApp struct {
	base
	Head Expr
	Args []Expr
}

type UncurriedEffectAbs struct {
	base
	Params []Param
	Body   Expr
}

// Let is a non-recursive binding.
type Let struct {
	base
	Id      *ident.Ident
	Lvl     ident.Level
	Binding Expr
	Body    Expr
}

// LetRec is a mutually recursive binding group; Bindings must be
// non-empty (an empty recursive group is a programmer IR bug, spec.md
// §7).
type LetRec struct {
	base
	Bindings []RecBinding
	Body     Expr
}

// EffectBind is monadic bind-then-continue.
type EffectBind struct {
	base
	Id   *ident.Ident
	Lvl  ident.Level
	M    Expr
	Kont Expr
}

// EffectPure injects a pure value into the effect.
type EffectPure struct {
	base
	Value Expr
}

type AccessorExpr struct {
	base
	Expr Expr
	Acc  Accessor
}

// Update is functional record update; Props are normalized the same
// way LitRecord's are (spec.md invariant 3).
type Update struct {
	base
	Expr  Expr
	Props []Prop
}

// Branch is an ordered guarded expression: pairs are tried in order
// until a guard commits; Default is the fallthrough (nil if absent).
// Pairs must be non-empty (spec.md §3).
type Branch struct {
	base
	Pairs   []BranchPair
	Default Expr
}

// PrimOpExpr applies a primitive operator to its (already-evaluated
// position) operands. Arity is primop.Op.Arity(); Args must match.
type PrimOpExpr struct {
	base
	Op   primop.Op
	Args []Expr
}

// Fail is a diverging pattern-match failure, preserved structurally
// for the code emitter (spec.md §7); the optimizer never raises it.
type Fail struct {
	base
	Msg string
}

// CtorDef is a constructor used as a first-class value (not yet
// applied to its fields).
type CtorDef struct {
	base
	CtorType CtorType
	TyName   ident.Ident
	Tag      ident.Ident
	Fields   []ident.Ident
}

// CtorSaturated is an applied constructor.
type CtorSaturated struct {
	base
	Q        ident.Qualified
	CtorType CtorType
	TyName   ident.Ident
	Tag      ident.Ident
	Fields   []CtorField
}

func (Var) exprNode()                {}
func (Local) exprNode()              {}
func (Lit) exprNode()                {}
func (App) exprNode()                {}
func (Abs) exprNode()                {}
func (UncurriedApp) exprNode()       {}
func (UncurriedAbs) exprNode()       {}
func (UncurriedEffectApp) exprNode() {}
func (UncurriedEffectAbs) exprNode() {}
func (Let) exprNode()                {}
func (LetRec) exprNode()             {}
func (EffectBind) exprNode()         {}
func (EffectPure) exprNode()         {}
func (AccessorExpr) exprNode()       {}
func (Update) exprNode()             {}
func (Branch) exprNode()             {}
func (PrimOpExpr) exprNode()         {}
func (Fail) exprNode()               {}
func (CtorDef) exprNode()            {}
func (CtorSaturated) exprNode()      {}

// ---- Rewrite forms ----------------------------------------------------

// RewriteInline marks a Let whose binding the build-time inline policy
// has queued for inlining; Freeze re-emits it as a plain Let
// (spec.md §3, §4.6).
type RewriteInline struct {
	base
	Id      *ident.Ident
	Lvl     ident.Level
	Binding Expr
	Body    Expr
}

// LetBinding is one binding of a RewriteLetAssoc chain.
type LetBinding struct {
	Id      *ident.Ident
	Lvl     ident.Level
	Binding Expr
}

// RewriteLetAssoc is a right-associated let chain flattened
// left-to-right by Build; Freeze re-nests it as a right-nested Let
// chain (spec.md §4.6). Bindings is never empty by construction.
type RewriteLetAssoc struct {
	base
	Bindings []LetBinding
	Body     Expr
}

// RewriteStop marks that q must not be inlined further during this
// pass; Freeze re-emits it as a bare Var.
type RewriteStop struct {
	base
	Q ident.Qualified
}

func (RewriteInline) exprNode()   {}
func (RewriteLetAssoc) exprNode() {}
func (RewriteStop) exprNode()     {}

// ---- Constructors that enforce the non-empty invariants --------------

// NewApp builds an App node, flattening one level of nested App per
// spec.md §4.4 rule 1. Args must be non-empty.
func NewApp(an analysis.Analysis, span ast.Span, head Expr, args []Expr) Expr {
	if inner, ok := head.(App); ok {
		merged := make([]Expr, 0, len(inner.Args)+len(args))
		merged = append(merged, inner.Args...)
		merged = append(merged, args...)
		return App{base{an, span}, inner.Head, merged}
	}
	return App{base{an, span}, head, args}
}

// NewAbs builds an Abs node, flattening one level of nested Abs per
// spec.md §4.4 rule 2.
func NewAbs(an analysis.Analysis, span ast.Span, params []Param, body Expr) Expr {
	if inner, ok := body.(Abs); ok {
		merged := make([]Param, 0, len(params)+len(inner.Params))
		merged = append(merged, params...)
		merged = append(merged, inner.Params...)
		return Abs{base{an, span}, merged, inner.Body}
	}
	return Abs{base{an, span}, params, body}
}

// NewVar, NewLocal, NewLit, and the remaining plain constructors give
// every node a uniform way to attach its Analysis/Span without
// exporting the base struct.
func NewVar(an analysis.Analysis, span ast.Span, q ident.Qualified) Expr {
	return Var{base{an, span}, q}
}

func NewLocal(an analysis.Analysis, span ast.Span, id *ident.Ident, lvl ident.Level) Expr {
	return Local{base{an, span}, id, lvl}
}

func NewLit(an analysis.Analysis, span ast.Span, lit Literal) Expr {
	return Lit{base{an, span}, lit}
}

// NewLitRecord normalizes props to "stable sort by key, first
// occurrence wins" (spec.md invariant 3) before building the literal.
func NewLitRecord(props []Prop) LitRecord {
	return LitRecord{Props: NormalizeProps(props)}
}

// NormalizeProps implements spec.md invariant 3: stable sort by key,
// then keep only the first occurrence of each key.
func NormalizeProps(props []Prop) []Prop {
	sorted := stableSortProps(props)
	seen := make(map[string]bool, len(sorted))
	out := make([]Prop, 0, len(sorted))
	for _, p := range sorted {
		if seen[p.Key] {
			continue
		}
		seen[p.Key] = true
		out = append(out, p)
	}
	return out
}

func stableSortProps(props []Prop) []Prop {
	out := make([]Prop, len(props))
	copy(out, props)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// NewUncurriedApp, NewUncurriedAbs, NewUncurriedEffectApp and
// NewUncurriedEffectAbs build the flat multi-argument forms; they have
// no flattening invariant of their own (spec.md §3).
func NewUncurriedApp(an analysis.Analysis, span ast.Span, head Expr, args []Expr) Expr {
	return UncurriedApp{base{an, span}, head, args}
}

func NewUncurriedAbs(an analysis.Analysis, span ast.Span, params []Param, body Expr) Expr {
	return UncurriedAbs{base{an, span}, params, body}
}

func NewUncurriedEffectApp(an analysis.Analysis, span ast.Span, head Expr, args []Expr) Expr {
	return UncurriedEffectApp{base{an, span}, head, args}
}

func NewUncurriedEffectAbs(an analysis.Analysis, span ast.Span, params []Param, body Expr) Expr {
	return UncurriedEffectAbs{base{an, span}, params, body}
}

// NewLet builds a plain (non-recursive) Let; Freeze produces these
// when eliminating RewriteInline/RewriteLetAssoc (spec.md §4.6). Build
// itself never constructs one directly — it always goes through the
// rewrite forms below.
func NewLet(an analysis.Analysis, span ast.Span, id *ident.Ident, lvl ident.Level, binding, body Expr) Expr {
	return Let{base{an, span}, id, lvl, binding, body}
}

// NewLetRec builds a LetRec group; Bindings must be non-empty
// (spec.md §7).
func NewLetRec(an analysis.Analysis, span ast.Span, bindings []RecBinding, body Expr) Expr {
	return LetRec{base{an, span}, bindings, body}
}

func NewEffectBind(an analysis.Analysis, span ast.Span, id *ident.Ident, lvl ident.Level, m, kont Expr) Expr {
	return EffectBind{base{an, span}, id, lvl, m, kont}
}

func NewEffectPure(an analysis.Analysis, span ast.Span, value Expr) Expr {
	return EffectPure{base{an, span}, value}
}

func NewAccessorExpr(an analysis.Analysis, span ast.Span, expr Expr, acc Accessor) Expr {
	return AccessorExpr{base{an, span}, expr, acc}
}

// NewUpdate normalizes props the same way NewLitRecord does (spec.md
// invariant 3).
func NewUpdate(an analysis.Analysis, span ast.Span, expr Expr, props []Prop) Expr {
	return Update{base{an, span}, expr, NormalizeProps(props)}
}

// NewBranch builds a Branch; Pairs must be non-empty (spec.md §3).
func NewBranch(an analysis.Analysis, span ast.Span, pairs []BranchPair, def Expr) Expr {
	return Branch{base{an, span}, pairs, def}
}

func NewPrimOp(an analysis.Analysis, span ast.Span, op primop.Op, args []Expr) Expr {
	return PrimOpExpr{base{an, span}, op, args}
}

func NewFail(an analysis.Analysis, span ast.Span, msg string) Expr {
	return Fail{base{an, span}, msg}
}

func NewCtorDef(an analysis.Analysis, span ast.Span, ctorType CtorType, tyName, tag ident.Ident, fields []ident.Ident) Expr {
	return CtorDef{base{an, span}, ctorType, tyName, tag, fields}
}

func NewCtorSaturated(an analysis.Analysis, span ast.Span, q ident.Qualified, ctorType CtorType, tyName, tag ident.Ident, fields []CtorField) Expr {
	return CtorSaturated{base{an, span}, q, ctorType, tyName, tag, fields}
}

// NewRewriteInline marks a Let whose binding Build has queued for
// inlining (spec.md §4.4 rule 4, §4.6).
func NewRewriteInline(an analysis.Analysis, span ast.Span, id *ident.Ident, lvl ident.Level, binding, body Expr) Expr {
	return RewriteInline{base{an, span}, id, lvl, binding, body}
}

// NewRewriteLetAssoc builds a flattened let chain; Bindings must be
// non-empty (spec.md §4.4 rule 3).
func NewRewriteLetAssoc(an analysis.Analysis, span ast.Span, bindings []LetBinding, body Expr) Expr {
	return RewriteLetAssoc{base{an, span}, bindings, body}
}

// NewRewriteStop marks an extern reference that must not be inlined
// further during this pass (spec.md §4.2.6, §4.6).
func NewRewriteStop(an analysis.Analysis, span ast.Span, q ident.Qualified) Expr {
	return RewriteStop{base{an, span}, q}
}
