package evalcore

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/directive"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/semval"
)

// evalExtern implements spec.md §4.2.6. It first checks directive
// policy for the two short-circuit cases (an empty spine or a single
// accessor against an InlineNever binding becomes NeutStop), then
// defers to env.EvalExtern; a miss, or an InlineNever binding with any
// other spine, falls back to a thunked neutralization of the original
// reference plus its spine.
func evalExtern(env Env, q ident.Qualified, spine []semval.ExternSpine) semval.Sem {
	never := false
	if d, ok := env.Directives.Directive(q); ok {
		if _, never = d.(directive.InlineNever); never {
			if len(spine) == 0 {
				return semval.NeutStop{Q: q}
			}
			if len(spine) == 1 {
				if acc, ok := spine[0].(semval.ExternAccessor); ok {
					return neutralizeAccessor(semval.NeutStop{Q: q}, acc.Acc)
				}
			}
		}
	}
	if env.EvalExtern != nil && !never {
		if v, ok := env.EvalExtern(env, q, spine); ok {
			return v
		}
	}
	spineCopy := append([]semval.ExternSpine{}, spine...)
	return semval.Extern{
		Q:     q,
		Spine: spineCopy,
		Fallback: semval.NewThunk(func() semval.Sem {
			return neutralizeSpine(semval.NeutVar{Q: q}, spineCopy)
		}),
	}
}

func neutralizeAccessor(base semval.Sem, acc backend.Accessor) semval.Sem {
	return semval.NeutAccessor{Expr: base, Acc: acc}
}

// neutralizeSpine re-applies an accumulated extern spine onto a stuck
// base value, used both for Extern's fallback thunk and for Quote's
// treatment of an Extern it ultimately declines to inline.
func neutralizeSpine(base semval.Sem, spine []semval.ExternSpine) semval.Sem {
	cur := base
	for _, link := range spine {
		switch s := link.(type) {
		case semval.ExternApp:
			cur = semval.NeutApp{Head: cur, Args: s.Args}
		case semval.ExternAccessor:
			cur = semval.NeutAccessor{Expr: cur, Acc: s.Acc}
		case semval.ExternPrimOp:
			if s.OnLeft {
				cur = semval.NeutPrimOp{Op: s.Op, Args: []semval.Sem{s.Operand, cur}}
			} else {
				cur = semval.NeutPrimOp{Op: s.Op, Args: []semval.Sem{cur, s.Operand}}
			}
		}
	}
	return cur
}

// evalMkFn implements spec.md §4.2.7: coerce sem into an n-ary
// uncurried closure chain, consuming existing Lam layers and
// synthesizing fresh parameters (applied immediately via evalApp) once
// sem stops being a Lam.
func evalMkFn(env Env, n int, sem semval.Sem) semval.MkFn {
	if n == 0 {
		return semval.MkFnApplied{Value: sem}
	}
	if lam, ok := sem.(semval.Lam); ok {
		return semval.MkFnNext{Id: lam.Id, Next: func(a semval.Sem) semval.MkFn {
			return evalMkFn(env, n-1, lam.F(a))
		}}
	}
	return semval.MkFnNext{Next: func(a semval.Sem) semval.MkFn {
		return evalMkFn(env, n-1, evalApp(env, sem, []semval.Sem{a}))
	}}
}
