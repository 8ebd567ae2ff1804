package evalcore

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/semval"
)

// evalBranches implements spec.md §4.2.4: walk guarded pairs in order,
// forcing each guard; a literal-True guard commits (exposing the
// remaining pairs and default as env.try to the committed body, so
// nested conditionals can merge with this branch's fallthrough); a
// literal-False guard is dropped; anything else is kept as a pending
// conditional.
func evalBranches(env Env, pairs []backend.BranchPair, def backend.Expr) semval.Sem {
	return evalBranchesFrom(env, pairs, 0, def)
}

func evalBranchesFrom(env Env, pairs []backend.BranchPair, i int, def backend.Expr) semval.Sem {
	for ; i < len(pairs); i++ {
		guard := Eval(env, pairs[i].Guard)
		if lit, ok := guard.(semval.NeutLit); ok {
			if b, ok := lit.Value.(semval.NeutLitBool); ok {
				if b.Value {
					remaining := buildRemaining(env, pairs, i+1, def)
					try := &semval.Try{Remaining: remaining, Default: defaultThunk(env, def)}
					return Eval(env.WithTry(try), pairs[i].Body)
				}
				continue
			}
		}
		// Guard did not reduce to a literal: keep this and every
		// following pair as a pending SemBranch.
		remaining := buildRemaining(env, pairs, i, def)
		return semval.Branch{Conds: remaining, Default: defaultThunk(env, def)}
	}
	if def != nil {
		return Eval(env, def)
	}
	if env.Try != nil {
		if env.Try.Default != nil {
			return env.Try.Default.Force()
		}
		if len(env.Try.Remaining) > 0 {
			return semval.Branch{Conds: env.Try.Remaining, Default: nil}
		}
	}
	return semval.NeutFail{Msg: "Failed pattern match"}
}

func buildRemaining(env Env, pairs []backend.BranchPair, from int, def backend.Expr) []*semval.Thunk[semval.Cond] {
	out := make([]*semval.Thunk[semval.Cond], 0, len(pairs)-from)
	for i := from; i < len(pairs); i++ {
		pair := pairs[i]
		idx := i
		out = append(out, semval.NewThunk(func() semval.Cond {
			return semval.Cond{
				Guard: Eval(env, pair.Guard),
				Kont: func(try *semval.Try) semval.Sem {
					next := env
					if try != nil {
						next = env.WithTry(try)
					}
					return evalBranchesFrom(next, pairs, idx+1, def)
				},
			}
		}))
	}
	return out
}

func defaultThunk(env Env, def backend.Expr) *semval.Thunk[semval.Sem] {
	if def == nil {
		return nil
	}
	return semval.NewThunk(func() semval.Sem { return Eval(env, def) })
}
