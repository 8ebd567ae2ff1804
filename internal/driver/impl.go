package driver

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/directive"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
)

// DeriveImpl classifies a frozen declaration body into the published
// shape later modules' inliner reads (spec.md §4.8): a literal record
// publishes per-field so each field can be inlined independently, a
// constructor definition publishes its shape, anything else publishes
// as a plain expression.
func DeriveImpl(group []ident.Qualified, body backend.Expr) Impl {
	switch n := body.(type) {
	case backend.Lit:
		if rec, ok := n.Value.(backend.LitRecord); ok {
			props := make([]ImplDictProp, len(rec.Props))
			for i, p := range rec.Props {
				props[i] = ImplDictProp{Key: p.Key, Anno: p.Value.Anno(), Expr: p.Value}
			}
			return ImplDict{Group: group, Props: props}
		}
		return ImplExpr{Group: group, Expr: body}

	case backend.CtorDef:
		return ImplCtor{CtorType: n.CtorType, TyName: n.TyName, Tag: n.Tag, Fields: n.Fields}

	default:
		return ImplExpr{Group: group, Expr: body}
	}
}

// PropagateArity implements spec.md §4.8's cross-module arity rule:
// when decl's frozen body is App (Var q) args and q carries an
// InlineArity n directive with fewer args supplied than n, decl
// itself is published with InlineArity (n - length(args)), so a
// partial application composes across module boundaries instead of
// resetting the threshold.
func PropagateArity(directives *directive.Table, decl ident.Qualified, body backend.Expr) {
	app, ok := body.(backend.App)
	if !ok {
		return
	}
	v, ok := app.Head.(backend.Var)
	if !ok {
		return
	}
	d, ok := directives.Directive(v.Q)
	if !ok {
		return
	}
	arity, ok := d.(directive.InlineArity)
	if !ok {
		return
	}
	remaining := arity.N - len(app.Args)
	if remaining <= 0 {
		return
	}
	directives.SetDirective(decl, directive.InlineArity{N: remaining})
}
