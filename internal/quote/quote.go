// Package quote implements the reifier (spec.md §4.3): it turns a
// semantic value produced by internal/evalcore back into build IR,
// allocating fresh de Bruijn levels for every closure it enters and
// routing every constructed node through internal/build so the local
// rewriter runs at each quoted node.
//
// Grounded on the Eval/Quote split internal/eval + internal/typedast
// imply in the teacher: internal/eval holds semantic values, while
// reification back to a concrete tree happens at the call site that
// needs one (e.g. internal/eval/decision_tree.go turning a decision
// procedure back into branches). Quote generalizes that one-shot
// pattern into a standalone recursive walker.
package quote

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/analysis"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ast"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/build"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/diag"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/semval"
)

// LookupExtern resolves a previously compiled declaration's Analysis
// (spec.md §4.1); Quote consults it to attach accurate module-
// dependency and complexity information to a reified Var/Stop
// reference instead of falling back to a generic DepOn guess.
type LookupExtern func(q ident.Qualified) (analysis.Analysis, bool)

// Ctx carries the quoter's monotonic level counter, the extern lookup
// collaborator, and a diagnostics sink (spec.md §4.3 — ambient, no
// diagnostics are raised yet, but the field exists so a future check
// doesn't need a signature change).
type Ctx struct {
	LookupExtern LookupExtern
	Sink         *diag.Sink

	level *ident.Level
}

// NewCtx builds a Ctx with a fresh, zeroed level counter.
func NewCtx(lookupExtern LookupExtern, sink *diag.Sink) Ctx {
	var start ident.Level
	return Ctx{LookupExtern: lookupExtern, Sink: sink, level: &start}
}

// nextLevel allocates the next de Bruijn level; the counter is shared
// (via pointer) across every Ctx value derived from the same NewCtx
// call, so levels stay monotonic across the whole declaration being
// quoted even though Ctx itself is passed by value.
func (c Ctx) nextLevel() ident.Level {
	lvl := *c.level
	*c.level++
	return lvl
}

func (c Ctx) externAnalysis(q ident.Qualified) analysis.Analysis {
	if c.LookupExtern != nil {
		if an, ok := c.LookupExtern(q); ok {
			return an
		}
	}
	if q.Module != nil {
		return analysis.DepOn(*q.Module)
	}
	return analysis.Leaf(analysis.Deref)
}

var zeroSpan ast.Span

// Quote reifies sem into a build-IR expression (spec.md §4.3).
func Quote(ctx Ctx, sem semval.Sem) backend.Expr {
	switch v := sem.(type) {
	case semval.Lam:
		lvl := ctx.nextLevel()
		id := v.Id
		body := Quote(ctx, v.F(semval.NeutLocal{Id: id, Lvl: lvl}))
		an := body.Anno().Bound(lvl).UnderAbs()
		return build.Abs(an, zeroSpan, []backend.Param{{Id: id, Lvl: lvl}}, body)

	case semval.MkFnV:
		return quoteMkFn(ctx, v.Chain, false)

	case semval.MkEffectFnV:
		return quoteMkFn(ctx, v.Chain, true)

	case semval.Let:
		lvl := ctx.nextLevel()
		binding := Quote(ctx, v.Value)
		body := Quote(ctx, v.Kont(semval.NeutLocal{Id: v.Id, Lvl: lvl}))
		an := binding.Anno().Then(body.Anno().Bound(lvl))
		return build.Let(an, zeroSpan, v.Id, lvl, binding, body)

	case semval.LetRec:
		return quoteLetRec(ctx, v)

	case semval.EffectBind:
		lvl := ctx.nextLevel()
		m := Quote(ctx, v.M)
		kont := Quote(ctx, v.Kont(semval.NeutLocal{Id: v.Id, Lvl: lvl}))
		an := m.Anno().Then(kont.Anno().Bound(lvl))
		return build.EffectBind(an, zeroSpan, v.Id, lvl, m, kont)

	case semval.EffectPure:
		value := Quote(ctx, v.Value)
		return backend.NewEffectPure(value.Anno(), zeroSpan, value)

	case semval.Branch:
		return quoteBranch(ctx, v)

	case semval.Extern:
		return Quote(ctx, v.Fallback.Force())

	case semval.NeutLocal:
		return backend.NewLocal(analysis.VarUsage(v.Lvl), zeroSpan, v.Id, v.Lvl)

	case semval.NeutVar:
		return backend.NewVar(ctx.externAnalysis(v.Q), zeroSpan, v.Q)

	case semval.NeutStop:
		return backend.NewVar(ctx.externAnalysis(v.Q), zeroSpan, v.Q)

	case semval.NeutData:
		return quoteNeutData(ctx, v)

	case semval.NeutCtorDef:
		return backend.NewCtorDef(analysis.Leaf(analysis.KnownSize), zeroSpan, v.CtorType, v.TyName, v.Tag, v.Fields)

	case semval.NeutApp:
		head := Quote(ctx, v.Head)
		args := make([]backend.Expr, len(v.Args))
		an := head.Anno()
		for i, a := range v.Args {
			args[i] = Quote(ctx, a)
			an = an.Then(args[i].Anno())
		}
		return build.App(an, zeroSpan, head, args)

	case semval.NeutUncurriedApp:
		head := Quote(ctx, v.Head)
		args := make([]backend.Expr, len(v.Args))
		an := head.Anno()
		for i, a := range v.Args {
			args[i] = Quote(ctx, a)
			an = an.Then(args[i].Anno())
		}
		return backend.NewUncurriedApp(an, zeroSpan, head, args)

	case semval.NeutUncurriedEffectApp:
		head := Quote(ctx, v.Head)
		args := make([]backend.Expr, len(v.Args))
		an := head.Anno()
		for i, a := range v.Args {
			args[i] = Quote(ctx, a)
			an = an.Then(args[i].Anno())
		}
		return backend.NewUncurriedEffectApp(an, zeroSpan, head, args)

	case semval.NeutAccessor:
		expr := Quote(ctx, v.Expr)
		return backend.NewAccessorExpr(expr.Anno().Then(analysis.Leaf(analysis.Deref)), zeroSpan, expr, v.Acc)

	case semval.NeutUpdate:
		expr := Quote(ctx, v.Expr)
		an := expr.Anno()
		props := make([]backend.Prop, len(v.Props))
		for i, p := range v.Props {
			val := Quote(ctx, p.Value)
			props[i] = backend.Prop{Key: p.Key, Value: val}
			an = an.Then(val.Anno())
		}
		return build.Update(an, zeroSpan, expr, props)

	case semval.NeutLit:
		return quoteLiteral(ctx, v.Value)

	case semval.NeutPrimOp:
		args := make([]backend.Expr, len(v.Args))
		an := analysis.Leaf(analysis.NonTrivial)
		for i, a := range v.Args {
			args[i] = Quote(ctx, a)
			an = an.Then(args[i].Anno())
		}
		return build.PrimOp(an, zeroSpan, v.Op, args)

	case semval.NeutFail:
		return backend.NewFail(analysis.Leaf(analysis.NonTrivial), zeroSpan, v.Msg)

	default:
		panic(diag.NewError(diag.CodeQuoteLevelMismatch, ident.Qualified{}, "Quote: unhandled semantic value"))
	}
}

// quoteMkFn walks an uncurried closure chain, allocating one fresh
// level per MkFnNext link, and reifies it as an UncurriedAbs or
// UncurriedEffectAbs (spec.md §4.2.7, §4.3).
func quoteMkFn(ctx Ctx, chain semval.MkFn, effect bool) backend.Expr {
	params, body := quoteMkFnChain(ctx, chain)
	an := body.Anno()
	for _, p := range params {
		an = an.Bound(p.Lvl)
	}
	an = an.UnderAbs()
	if effect {
		return backend.NewUncurriedEffectAbs(an, zeroSpan, params, body)
	}
	return backend.NewUncurriedAbs(an, zeroSpan, params, body)
}

func quoteMkFnChain(ctx Ctx, chain semval.MkFn) ([]backend.Param, backend.Expr) {
	switch c := chain.(type) {
	case semval.MkFnApplied:
		return nil, Quote(ctx, c.Value)
	case semval.MkFnNext:
		lvl := ctx.nextLevel()
		rest, body := quoteMkFnChain(ctx, c.Next(semval.NeutLocal{Id: c.Id, Lvl: lvl}))
		params := append([]backend.Param{{Id: c.Id, Lvl: lvl}}, rest...)
		return params, body
	default:
		panic(diag.NewError(diag.CodeQuoteLevelMismatch, ident.Qualified{}, "Quote: unhandled MkFn link"))
	}
}

// quoteLetRec quotes every binder's thunk under a shared set of fresh
// levels before quoting the continuation, mirroring how evalcore ties
// the knot on the way in.
func quoteLetRec(ctx Ctx, v semval.LetRec) backend.Expr {
	bindings := make([]backend.RecBinding, len(v.Bindings))
	an := analysis.Empty()
	for i, b := range v.Bindings {
		value := Quote(ctx, b.Thunk.Force())
		bindings[i] = backend.RecBinding{Id: b.Id, Lvl: b.Lvl, Value: value}
		an = an.Then(value.Anno())
	}
	body := Quote(ctx, v.Kont())
	an = an.Then(body.Anno())
	for _, b := range bindings {
		an = an.Bound(b.Lvl)
	}
	return backend.NewLetRec(an, zeroSpan, bindings, body)
}

func quoteNeutData(ctx Ctx, v semval.NeutData) backend.Expr {
	if len(v.Fields) == 0 {
		return backend.NewVar(analysis.Leaf(analysis.KnownSize), zeroSpan, v.Q)
	}
	fields := make([]backend.CtorField, len(v.Fields))
	an := analysis.Leaf(analysis.KnownSize)
	for i, f := range v.Fields {
		val := Quote(ctx, f.Value)
		fields[i] = backend.CtorField{Name: f.Name, Value: val}
		an = an.Then(val.Anno())
	}
	return backend.NewCtorSaturated(an, zeroSpan, v.Q, v.CtorType, v.TyName, v.Tag, fields)
}

func quoteLiteral(ctx Ctx, lit semval.NeutLiteral) backend.Expr {
	switch l := lit.(type) {
	case semval.NeutLitInt:
		return backend.NewLit(analysis.Leaf(analysis.Trivial), zeroSpan, backend.LitInt{Value: l.Value})
	case semval.NeutLitNumber:
		return backend.NewLit(analysis.Leaf(analysis.Trivial), zeroSpan, backend.LitNumber{Value: l.Value})
	case semval.NeutLitString:
		return backend.NewLit(analysis.Leaf(analysis.Trivial), zeroSpan, backend.LitString{Value: l.Value})
	case semval.NeutLitChar:
		return backend.NewLit(analysis.Leaf(analysis.Trivial), zeroSpan, backend.LitChar{Value: l.Value})
	case semval.NeutLitBool:
		return backend.NewLit(analysis.Leaf(analysis.Trivial), zeroSpan, backend.LitBool{Value: l.Value})
	case semval.NeutLitArray:
		els := make([]backend.Expr, len(l.Elements))
		an := analysis.Leaf(analysis.KnownSize)
		for i, e := range l.Elements {
			els[i] = Quote(ctx, e)
			an = an.Then(els[i].Anno())
		}
		return backend.NewLit(an, zeroSpan, backend.LitArray{Elements: els})
	case semval.NeutLitRecord:
		props := make([]backend.Prop, len(l.Props))
		an := analysis.Leaf(analysis.KnownSize)
		for i, p := range l.Props {
			val := Quote(ctx, p.Value)
			props[i] = backend.Prop{Key: p.Key, Value: val}
			an = an.Then(val.Anno())
		}
		return backend.NewLit(an, zeroSpan, backend.NewLitRecord(props))
	default:
		panic(diag.NewError(diag.CodeQuoteLevelMismatch, ident.Qualified{}, "Quote: unhandled literal form"))
	}
}
