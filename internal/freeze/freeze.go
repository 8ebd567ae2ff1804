// Package freeze implements the last stage of the Optimize pipeline
// (spec.md §4.6): it walks a build-IR tree produced by Quote/Build and
// strips every rewrite-annotation node down to the plain syntactic
// form it stands for, producing a NeutralExpr no later phase ever
// needs to re-examine for Rewrite/RewriteLetAssoc/RewriteStop shapes.
//
// Grounded on the teacher's internal/dtree compiled-decision-tree
// walk: a single recursive pass over a closed tree of node kinds, no
// shared state threaded between siblings.
package freeze

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
)

// Expr walks e, replacing RewriteInline, RewriteLetAssoc and
// RewriteStop nodes with their rewrite-free equivalents, recursively,
// everywhere in the tree (spec.md §4.6).
func Expr(e backend.Expr) backend.Expr {
	switch n := e.(type) {
	case backend.RewriteInline:
		binding := Expr(n.Binding)
		body := Expr(n.Body)
		return backend.NewLet(n.Anno(), n.Span(), n.Id, n.Lvl, binding, body)

	case backend.RewriteLetAssoc:
		return freezeLetAssoc(n)

	case backend.RewriteStop:
		return backend.NewVar(n.Anno(), n.Span(), n.Q)

	case backend.Var, backend.Local, backend.Lit, backend.Fail, backend.CtorDef:
		return n

	case backend.App:
		return backend.NewApp(n.Anno(), n.Span(), Expr(n.Head), freezeAll(n.Args))

	case backend.Abs:
		return backend.NewAbs(n.Anno(), n.Span(), n.Params, Expr(n.Body))

	case backend.UncurriedApp:
		return backend.NewUncurriedApp(n.Anno(), n.Span(), Expr(n.Head), freezeAll(n.Args))

	case backend.UncurriedAbs:
		return backend.NewUncurriedAbs(n.Anno(), n.Span(), n.Params, Expr(n.Body))

	case backend.UncurriedEffectApp:
		return backend.NewUncurriedEffectApp(n.Anno(), n.Span(), Expr(n.Head), freezeAll(n.Args))

	case backend.UncurriedEffectAbs:
		return backend.NewUncurriedEffectAbs(n.Anno(), n.Span(), n.Params, Expr(n.Body))

	case backend.Let:
		return backend.NewLet(n.Anno(), n.Span(), n.Id, n.Lvl, Expr(n.Binding), Expr(n.Body))

	case backend.LetRec:
		bindings := make([]backend.RecBinding, len(n.Bindings))
		for i, b := range n.Bindings {
			bindings[i] = backend.RecBinding{Id: b.Id, Lvl: b.Lvl, Value: Expr(b.Value)}
		}
		return backend.NewLetRec(n.Anno(), n.Span(), bindings, Expr(n.Body))

	case backend.EffectBind:
		return backend.NewEffectBind(n.Anno(), n.Span(), n.Id, n.Lvl, Expr(n.M), Expr(n.Kont))

	case backend.EffectPure:
		return backend.NewEffectPure(n.Anno(), n.Span(), Expr(n.Value))

	case backend.AccessorExpr:
		return backend.NewAccessorExpr(n.Anno(), n.Span(), Expr(n.Expr), n.Acc)

	case backend.Update:
		props := make([]backend.Prop, len(n.Props))
		for i, p := range n.Props {
			props[i] = backend.Prop{Key: p.Key, Value: Expr(p.Value)}
		}
		return backend.NewUpdate(n.Anno(), n.Span(), Expr(n.Expr), props)

	case backend.Branch:
		pairs := make([]backend.BranchPair, len(n.Pairs))
		for i, p := range n.Pairs {
			pairs[i] = backend.BranchPair{Guard: Expr(p.Guard), Body: Expr(p.Body)}
		}
		var def backend.Expr
		if n.Default != nil {
			def = Expr(n.Default)
		}
		return backend.NewBranch(n.Anno(), n.Span(), pairs, def)

	case backend.PrimOpExpr:
		return backend.NewPrimOp(n.Anno(), n.Span(), n.Op, freezeAll(n.Args))

	case backend.CtorSaturated:
		fields := make([]backend.CtorField, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = backend.CtorField{Name: f.Name, Value: Expr(f.Value)}
		}
		return backend.NewCtorSaturated(n.Anno(), n.Span(), n.Q, n.CtorType, n.TyName, n.Tag, fields)

	default:
		return e
	}
}

func freezeAll(es []backend.Expr) []backend.Expr {
	out := make([]backend.Expr, len(es))
	for i, e := range es {
		out[i] = Expr(e)
	}
	return out
}

// freezeLetAssoc re-nests a flattened RewriteLetAssoc chain as a
// right-nested Let chain, one binding at a time from the last to the
// first (spec.md §4.6). Bindings is never empty by construction.
func freezeLetAssoc(n backend.RewriteLetAssoc) backend.Expr {
	body := Expr(n.Body)
	for i := len(n.Bindings) - 1; i >= 0; i-- {
		b := n.Bindings[i]
		binding := Expr(b.Binding)
		an := binding.Anno().Then(body.Anno())
		body = backend.NewLet(an, n.Span(), b.Id, b.Lvl, binding, body)
	}
	return body
}
