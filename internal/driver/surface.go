package driver

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/directive"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/primop"
)

// SurfaceExpr is the input to Convert: the surface IR of spec.md §3,
// plus the surface-only forms spec.md §4.7 names (unqualified
// variables resolved by local-scope-then-global lookup, and newtype
// constructor applications that Convert erases). Unlike backend.Expr,
// binders carry only a name — levels are assigned during conversion —
// and there is no Analysis to carry, since the first Eval/Quote pass
// recomputes it from scratch and never reads whatever Convert would
// have guessed.
type SurfaceExpr interface{ surfaceNode() }

// SurfaceVar is resolved against the local scope map first, then
// against re-exports, then defaults to a reference in the current
// module (spec.md §4.7).
type SurfaceVar struct{ Name ident.Ident }

// SurfaceLit carries a scalar literal (Int/Number/String/Char/Bool);
// arrays and records are their own surface forms below since their
// children are SurfaceExpr, not backend.Expr.
type SurfaceLit struct{ Value backend.Literal }

type SurfaceProp struct {
	Key   string
	Value SurfaceExpr
}

type SurfaceArray struct{ Elements []SurfaceExpr }
type SurfaceRecord struct{ Props []SurfaceProp }

type SurfaceApp struct {
	Head SurfaceExpr
	Args []SurfaceExpr
}

type SurfaceAbs struct {
	Params []ident.Ident
	Body   SurfaceExpr
}

type SurfaceUncurriedApp struct {
	Head SurfaceExpr
	Args []SurfaceExpr
}

type SurfaceUncurriedAbs struct {
	Params []ident.Ident
	Body   SurfaceExpr
}

type SurfaceUncurriedEffectApp struct {
	Head SurfaceExpr
	Args []SurfaceExpr
}

type SurfaceUncurriedEffectAbs struct {
	Params []ident.Ident
	Body   SurfaceExpr
}

type SurfaceLet struct {
	Name    ident.Ident
	Binding SurfaceExpr
	Body    SurfaceExpr
}

type SurfaceRecBinding struct {
	Name    ident.Ident
	Binding SurfaceExpr
}

type SurfaceLetRec struct {
	Bindings []SurfaceRecBinding
	Body     SurfaceExpr
}

type SurfaceEffectBind struct {
	Name ident.Ident
	M    SurfaceExpr
	Kont SurfaceExpr
}

type SurfaceEffectPure struct{ Value SurfaceExpr }

type SurfaceAccessor struct {
	Expr SurfaceExpr
	Acc  backend.Accessor
}

type SurfaceUpdate struct {
	Expr  SurfaceExpr
	Props []SurfaceProp
}

type SurfaceBranchPair struct {
	Guard SurfaceExpr
	Body  SurfaceExpr
}

type SurfaceBranch struct {
	Pairs   []SurfaceBranchPair
	Default SurfaceExpr // nil if absent
}

type SurfacePrimOp struct {
	Op   primop.Op
	Args []SurfaceExpr
}

type SurfaceFail struct{ Msg string }

type SurfaceCtorDef struct {
	CtorType backend.CtorType
	TyName   ident.Ident
	Tag      ident.Ident
	Fields   []ident.Ident
}

type SurfaceCtorField struct {
	Name  ident.Ident
	Value SurfaceExpr
}

type SurfaceCtorSaturated struct {
	Q        ident.Qualified
	CtorType backend.CtorType
	TyName   ident.Ident
	Tag      ident.Ident
	Fields   []SurfaceCtorField
}

// SurfaceNewtypeApp is a newtype constructor applied to exactly one
// argument; Convert erases it to the argument itself (spec.md §4.7).
type SurfaceNewtypeApp struct {
	Ctor ident.Qualified
	Arg  SurfaceExpr
}

func (SurfaceVar) surfaceNode()               {}
func (SurfaceLit) surfaceNode()               {}
func (SurfaceArray) surfaceNode()             {}
func (SurfaceRecord) surfaceNode()            {}
func (SurfaceApp) surfaceNode()               {}
func (SurfaceAbs) surfaceNode()               {}
func (SurfaceUncurriedApp) surfaceNode()       {}
func (SurfaceUncurriedAbs) surfaceNode()       {}
func (SurfaceUncurriedEffectApp) surfaceNode() {}
func (SurfaceUncurriedEffectAbs) surfaceNode() {}
func (SurfaceLet) surfaceNode()               {}
func (SurfaceLetRec) surfaceNode()            {}
func (SurfaceEffectBind) surfaceNode()        {}
func (SurfaceEffectPure) surfaceNode()        {}
func (SurfaceAccessor) surfaceNode()          {}
func (SurfaceUpdate) surfaceNode()            {}
func (SurfaceBranch) surfaceNode()            {}
func (SurfacePrimOp) surfaceNode()            {}
func (SurfaceFail) surfaceNode()              {}
func (SurfaceCtorDef) surfaceNode()           {}
func (SurfaceCtorSaturated) surfaceNode()     {}
func (SurfaceNewtypeApp) surfaceNode()        {}

// Bind is one top-level binding of a module.
type Bind struct {
	Name ident.Ident
	Expr SurfaceExpr
}

// BindGroup is one non-recursive binding or one mutually-recursive
// group of top-level bindings, already ordered by the caller
// (topological sorting of module bindings is out of scope per
// spec.md §1).
type BindGroup struct {
	Recursive bool
	Binds     []Bind
}

// SurfaceModule is one module of the pre-sorted program the driver
// folds over (spec.md §4.7 "Input").
type SurfaceModule struct {
	Name       ident.ModuleName
	Exports    []ident.Ident
	ReExports  map[ident.Ident]ident.Qualified
	Directives map[ident.Ident]directive.Directive
	Groups     []BindGroup
}
