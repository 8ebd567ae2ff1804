// Package directive carries the per-binding inlining policy that
// module authors and the cross-module driver attach to top-level
// declarations (spec.md §4.7 "Directives"). internal/evalcore consults
// it when deciding whether to unfold an Extern, where only InlineNever
// is acted on; internal/driver reads InlineArity when propagating arity
// to partial applications.
//
// Grounded on the resolved-symbol-table style of internal/link's
// resolver and internal/iface, generalized from PureScript foreign
// import pragmas to the spec's three-directive policy.
package directive

import "github.com/sigma-andex/purescript-backend-optimizer/internal/ident"

// Directive is the inlining policy attached to one module-level
// binding.
type Directive interface{ directiveNode() }

// InlineNever forbids inlining the binding at any call site; evalcore
// must always leave it as a Var/Extern fallback.
type InlineNever struct{}

// InlineAlways marks a binding as always inlinable; Allows reports
// true for it. The extern inliner does not consult it: whether a
// reference is inlined depends on its implementation's shape alone.
type InlineAlways struct{}

// InlineArity marks a binding as inlinable once a call site supplies at
// least N arguments; Allows reports that threshold. The extern inliner
// does not consult it; the driver uses it only to publish a reduced
// InlineArity for partial applications (spec.md §4.7).
type InlineArity struct{ N int }

func (InlineNever) directiveNode()  {}
func (InlineAlways) directiveNode() {}
func (InlineArity) directiveNode()  {}

// EvalRef identifies what an evaluation-time reference resolves to:
// either a cross-module Extern lookup (by qualified name, with an
// optional accessor already applied at the reference site) or a
// same-module local binding (spec.md §4.7 "EvalRef").
type EvalRef interface{ evalRefNode() }

type EvalExtern struct {
	Q   ident.Qualified
	Acc *ident.Ident // optional: non-nil when the reference is to a record field of the extern, not the extern itself
}

type EvalLocal struct {
	Id  *ident.Ident
	Lvl ident.Level
}

func (EvalExtern) evalRefNode() {}
func (EvalLocal) evalRefNode()  {}

// Table is the per-module directive/EvalRef map the driver builds up
// incrementally as modules are processed (spec.md §4.8).
type Table struct {
	directives map[ident.Qualified]Directive
	refs       map[ident.Qualified]EvalRef
}

func NewTable() *Table {
	return &Table{
		directives: make(map[ident.Qualified]Directive),
		refs:       make(map[ident.Qualified]EvalRef),
	}
}

func (t *Table) SetDirective(q ident.Qualified, d Directive) {
	t.directives[q] = d
}

func (t *Table) Directive(q ident.Qualified) (Directive, bool) {
	d, ok := t.directives[q]
	return d, ok
}

// Clone returns a Table carrying the same entries but backed by fresh
// maps, so a caller can layer temporary overrides (the cross-module
// inliner's per-inlining group-stop, spec.md §4.2.6) without mutating
// the shared table other declarations still read from.
func (t *Table) Clone() *Table {
	out := NewTable()
	for q, d := range t.directives {
		out.directives[q] = d
	}
	for q, r := range t.refs {
		out.refs[q] = r
	}
	return out
}

func (t *Table) SetRef(q ident.Qualified, r EvalRef) {
	t.refs[q] = r
}

func (t *Table) Ref(q ident.Qualified) (EvalRef, bool) {
	r, ok := t.refs[q]
	return r, ok
}

// Allows reports whether a call site carrying argCount accumulated
// arguments may inline q under d. InlineNever always refuses;
// InlineAlways always allows; InlineArity requires the threshold met.
func Allows(d Directive, argCount int) bool {
	switch v := d.(type) {
	case InlineNever:
		return false
	case InlineAlways:
		return true
	case InlineArity:
		return argCount >= v.N
	default:
		return false
	}
}
