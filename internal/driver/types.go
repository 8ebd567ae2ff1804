// Package driver implements the module-level pipeline (spec.md §4.7,
// §4.8): Convert takes a pre-sorted surface module and produces build
// IR; Optimize iterates Eval/Quote/Build to a fixpoint; Impl derives
// the publishable shape of each optimized declaration; RunModules
// folds all of that across a whole program.
//
// Grounded on internal/link/module_linker.go's two-phase "parse then
// resolve" module handling from the teacher, adapted from runtime
// linking (interfaces, evaluated export cache) to static optimization
// (directives, frozen implementations).
package driver

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/analysis"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/directive"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
)

// Impl is the published shape of an optimized top-level declaration
// (spec.md §3 "Impl", §4.8). Later modules' inliner reads this instead
// of re-optimizing the declaration's body.
type Impl interface{ implNode() }

// ImplExpr is a normal value; Group is the set of qualified idents in
// its recursive binding group (empty if non-recursive).
type ImplExpr struct {
	Group []ident.Qualified
	Expr  backend.Expr
}

// ImplRec is spec.md's legacy/equivalent form of ImplExpr for the
// recursive case; the driver only ever constructs ImplExpr (Group
// already distinguishes recursive from non-recursive), but the type
// is kept distinct so a caller pattern-matching on Impl shapes can
// still special-case "recursive publish" the way the teacher's
// iface.Export does for ImplRec-shaped entries.
type ImplRec struct {
	Group []ident.Qualified
	Expr  backend.Expr
}

// ImplDictProp is one field of a dictionary-shaped implementation.
type ImplDictProp struct {
	Key   string
	Anno  analysis.Analysis
	Expr  backend.Expr
}

// ImplDict is a literal record binding: a class-like dictionary whose
// fields can be inlined independently of the whole record.
type ImplDict struct {
	Group []ident.Qualified
	Props []ImplDictProp
}

// ImplCtor marks the declaration as a constructor definition.
type ImplCtor struct {
	CtorType backend.CtorType
	TyName   ident.Ident
	Tag      ident.Ident
	Fields   []ident.Ident
}

func (ImplExpr) implNode() {}
func (ImplRec) implNode()  {}
func (ImplDict) implNode() {}
func (ImplCtor) implNode() {}

// DataTypeInfo is one constructor's entry in a module's dataTypes
// table (spec.md §4.7): CtorType is the constructor's CtorType as given
// in the input module; it is not derived from the constructor count.
type DataTypeInfo struct {
	CtorType backend.CtorType
	Fields   []ident.Ident
	Tag      ident.Ident
}

// Directives snapshot, indexed by qualified name, shared across
// modules as the fold progresses (spec.md §4.7 "directives").
type Directives = directive.Table

// ImplEntry pairs a declaration's retained Analysis with its published
// Impl, the (Analysis, Impl) tuple spec.md §4.7/§4.8 calls for.
type ImplEntry struct {
	Anno analysis.Analysis
	Impl Impl
}

// Implementations is the fully-qualified-name → ImplEntry map threaded
// across the module fold and exposed to evalExternFromImpl.
type Implementations map[string]ImplEntry

func qualifiedKey(q ident.Qualified) string { return q.String() }

// Lookup resolves q's published implementation, if any.
func (impls Implementations) Lookup(q ident.Qualified) (ImplEntry, bool) {
	e, ok := impls[qualifiedKey(q)]
	return e, ok
}

// Publish records a declaration's implementation under its qualified
// name.
func (impls Implementations) Publish(q ident.Qualified, e ImplEntry) {
	impls[qualifiedKey(q)] = e
}
