// Package build implements the smart constructors / local rewriter
// invoked at every quoted node (spec.md §4.4). Where internal/backend's
// NewApp/NewAbs already enforce the non-nesting invariants structurally,
// this package adds the policy-driven rewrites: let-associativity,
// the inline-decision heuristic, EffectBind-of-EffectPure collapse,
// branch simplification/fusion, double negation, and the two
// quote-time boolean-folding helpers BuildPair/BuildBranchCond.
//
// Grounded on internal/dtree's pattern-directed-dispatch style from
// the teacher (a chain of shape checks against a compiled decision
// procedure) — not a literal port, since dtree compiles pattern
// matches upstream of this module's scope, but its "try rule after
// rule, first match wins" structure is what every function below
// follows.
package build

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/analysis"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ast"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/primop"
)

// App flattens nested App spines (spec.md §4.4 rule 1); the invariant
// itself lives in backend.NewApp so every caller gets it for free.
func App(an analysis.Analysis, span ast.Span, head backend.Expr, args []backend.Expr) backend.Expr {
	return backend.NewApp(an, span, head, args)
}

// Abs flattens nested Abs (spec.md §4.4 rule 2).
func Abs(an analysis.Analysis, span ast.Span, params []backend.Param, body backend.Expr) backend.Expr {
	return backend.NewAbs(an, span, params, body)
}

// Let applies rules 3 and 4: shouldInlineLet decides whether the
// binding is re-emitted as a RewriteInline; otherwise it is folded
// into a RewriteLetAssoc, merging with one already at the head of
// body so a chain of lets never nests.
func Let(an analysis.Analysis, span ast.Span, id *ident.Ident, lvl ident.Level, binding, body backend.Expr) backend.Expr {
	rewritten := an.WithRewrite()
	if shouldInlineLet(lvl, binding, body) {
		return backend.NewRewriteInline(rewritten, span, id, lvl, binding, body)
	}
	entry := backend.LetBinding{Id: id, Lvl: lvl, Binding: binding}
	if chain, ok := body.(backend.RewriteLetAssoc); ok {
		bindings := make([]backend.LetBinding, 0, len(chain.Bindings)+1)
		bindings = append(bindings, entry)
		bindings = append(bindings, chain.Bindings...)
		return backend.NewRewriteLetAssoc(rewritten, span, bindings, chain.Body)
	}
	return backend.NewRewriteLetAssoc(rewritten, span, []backend.LetBinding{entry}, body)
}

// shouldInlineLet implements spec.md §4.4 rule 4.
func shouldInlineLet(lvl ident.Level, binding, body backend.Expr) bool {
	usage := body.Anno().UsageOf(lvl)
	if usage.Count == 0 {
		return true // dead binding
	}
	bAnno := binding.Anno()
	if !usage.Captured {
		if usage.Count == 1 {
			return true
		}
		if bAnno.Complexity <= analysis.Deref && bAnno.Size < 5 {
			return true
		}
	}
	if _, isAbs := binding.(backend.Abs); isAbs {
		if usage.Count == 1 || len(bAnno.Usages) == 0 || bAnno.Size < 16 {
			return true
		}
	}
	if bAnno.Complexity == analysis.Trivial && bAnno.Size < 5 {
		return true
	}
	return false
}

// EffectBind implements rule 5: EffectBind id lvl (EffectPure v) k ->
// Let id lvl v k.
func EffectBind(an analysis.Analysis, span ast.Span, id *ident.Ident, lvl ident.Level, m, kont backend.Expr) backend.Expr {
	if pure, ok := m.(backend.EffectPure); ok {
		return Let(an, span, id, lvl, pure.Value, kont)
	}
	return backend.NewEffectBind(an, span, id, lvl, m, kont)
}

// PrimOp implements rule 7: eliminate a double logical negation at
// build time (the identical rule also applies inside Eval, over Sem,
// for the not-yet-quoted form — see internal/evalcore/primop.go).
func PrimOp(an analysis.Analysis, span ast.Span, op primop.Op, args []backend.Expr) backend.Expr {
	if op == primop.OpNot {
		if inner, ok := args[0].(backend.PrimOpExpr); ok && inner.Op == primop.OpNot {
			return inner.Args[0]
		}
	}
	return backend.NewPrimOp(an, span, op, args)
}

// Branch implements rule 6 (simplifyBranches): fuse a Branch default
// into its parent, collapse a single boolean-valued pair against a
// boolean default into the guard itself (or its negation), and
// collapse the classic "if l then a else if not l then b else fail"
// shape down to a plain two-armed conditional.
func Branch(an analysis.Analysis, span ast.Span, pairs []backend.BranchPair, def backend.Expr) backend.Expr {
	pairs, def = fuseBranchDefault(pairs, def)

	if len(pairs) == 1 {
		if lit, ok := isBoolLit(pairs[0].Body); ok && lit {
			if dlit, ok := isBoolLit(def); ok && !dlit {
				return pairs[0].Guard
			}
		}
		if lit, ok := isBoolLit(pairs[0].Body); ok && !lit {
			if dlit, ok := isBoolLit(def); ok && dlit {
				return PrimOp(an, span, primop.OpNot, []backend.Expr{pairs[0].Guard})
			}
		}
	}

	if len(pairs) == 2 && isFailExpr(def) {
		if sameLevelNegated(pairs[0].Guard, pairs[1].Guard) {
			return backend.NewBranch(an, span, []backend.BranchPair{pairs[0]}, pairs[1].Body)
		}
	}

	return backend.NewBranch(an, span, pairs, def)
}

func fuseBranchDefault(pairs []backend.BranchPair, def backend.Expr) ([]backend.BranchPair, backend.Expr) {
	inner, ok := def.(backend.Branch)
	if !ok {
		return pairs, def
	}
	merged := make([]backend.BranchPair, 0, len(pairs)+len(inner.Pairs))
	merged = append(merged, pairs...)
	merged = append(merged, inner.Pairs...)
	return merged, inner.Default
}

func isBoolLit(e backend.Expr) (bool, bool) {
	if e == nil {
		return false, false
	}
	lit, ok := e.(backend.Lit)
	if !ok {
		return false, false
	}
	b, ok := lit.Value.(backend.LitBool)
	if !ok {
		return false, false
	}
	return b.Value, true
}

func isFailExpr(e backend.Expr) bool {
	_, ok := e.(backend.Fail)
	return ok
}

// sameLevelNegated reports whether b is syntactically "not a" where a
// is a Local reference and b is a Not applied to a Local of the same
// level. Other guard shapes, such as negated comparisons, are not
// recognised.
func sameLevelNegated(a, b backend.Expr) bool {
	neg, ok := b.(backend.PrimOpExpr)
	if !ok || neg.Op != primop.OpNot || len(neg.Args) != 1 {
		return false
	}
	la, aIsLocal := a.(backend.Local)
	lb, bIsLocal := neg.Args[0].(backend.Local)
	if aIsLocal && bIsLocal {
		return la.Lvl == lb.Lvl
	}
	return false
}

// Update implements the record-update-of-record-literal fusion: an
// Update whose target has collapsed to a record literal (typically
// after inlining re-exposes one) folds directly into the literal with
// its fields overridden, mirroring the Eval-time fold in
// internal/evalcore/app.go (evalUpdate) for trees where the literal
// only appears once the tree is already quoted. Props are merged with
// update keys first so NormalizeProps' first-occurrence-wins rule
// keeps the new value when a key is shared.
func Update(an analysis.Analysis, span ast.Span, expr backend.Expr, props []backend.Prop) backend.Expr {
	if lit, ok := expr.(backend.Lit); ok {
		if rec, ok := lit.Value.(backend.LitRecord); ok {
			merged := make([]backend.Prop, 0, len(props)+len(rec.Props))
			merged = append(merged, props...)
			merged = append(merged, rec.Props...)
			return backend.NewLit(an, span, backend.NewLitRecord(merged))
		}
	}
	return backend.NewUpdate(an, span, expr, props)
}

// etaContractKnownArity would reduce Abs [p] (App (Var q) [p]) to Var
// q when q's declared arity matches, but is withheld: proving q is not
// the enclosing recursive binder requires the same recursion-tracking
// this package does not yet do (spec.md §9 "eta reduction"), so no
// such rule exists here until that tracking lands.

// BuildPair implements spec.md §4.4 rule 8 (pair-compression), called
// while Quote reifies a conditional: if body2 is itself a single-pair
// default-less branch, the two guards combine under conjunction.
func BuildPair(an analysis.Analysis, span ast.Span, guard1 backend.Expr, pairs2 []backend.BranchPair, def2 backend.Expr) (backend.Expr, backend.Expr, bool) {
	if len(pairs2) == 1 && def2 == nil {
		conj := backend.NewPrimOp(an, span, primop.OpAnd, []backend.Expr{guard1, pairs2[0].Guard})
		return conj, pairs2[0].Body, true
	}
	return nil, nil, false
}

// BuildBranchCond implements spec.md §4.4 rule 9: when a branch's body
// is a literal boolean and the else side is a "boolean tail" (a
// literal, Var, Local, or PrimOp), fold the whole conditional into a
// boolean expression over the guard.
func BuildBranchCond(an analysis.Analysis, span ast.Span, guard, body, elseTail backend.Expr) (backend.Expr, bool) {
	lit, ok := isBoolLit(body)
	if !ok || !isBooleanTail(elseTail) {
		return nil, false
	}
	if lit {
		return backend.NewPrimOp(an, span, primop.OpOr, []backend.Expr{guard, elseTail}), true
	}
	notGuard := backend.NewPrimOp(an, span, primop.OpNot, []backend.Expr{guard})
	return backend.NewPrimOp(an, span, primop.OpOr, []backend.Expr{notGuard, elseTail}), true
}

func isBooleanTail(e backend.Expr) bool {
	switch e.(type) {
	case backend.Lit, backend.Var, backend.Local, backend.PrimOpExpr:
		return true
	default:
		return false
	}
}
