package quote

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/analysis"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/build"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/semval"
)

// quoteBranch reifies a preserved semval.Branch chain, quoting each
// guard and forcing its continuation against the remaining arms to
// obtain the corresponding body (spec.md §4.2.4, §4.3). Once every
// pair is in hand it applies the quote-time pair-compression and
// branch-to-boolean foldings (spec.md §4.4 rules 8, 9) before handing
// the result to build.Branch for the rest of the local rewrite.
func quoteBranch(ctx Ctx, v semval.Branch) backend.Expr {
	pairs := make([]backend.BranchPair, 0, len(v.Conds))
	an := analysis.Empty()

	for i, thunk := range v.Conds {
		cond := thunk.Force()
		guard := Quote(ctx, cond.Guard)
		an = an.Then(guard.Anno())

		try := &semval.Try{Remaining: v.Conds[i+1:], Default: v.Default}
		body := Quote(ctx, cond.Kont(try))
		an = an.Then(body.Anno())

		guard, body = fusePair(guard, body)
		pairs = append(pairs, backend.BranchPair{Guard: guard, Body: body})
	}

	var def backend.Expr
	if v.Default != nil {
		def = Quote(ctx, v.Default.Force())
		an = an.Then(def.Anno())
	}

	if len(pairs) == 1 && def != nil {
		if folded, ok := build.BuildBranchCond(an, zeroSpan, pairs[0].Guard, pairs[0].Body, def); ok {
			return folded
		}
	}

	return build.Branch(an, zeroSpan, pairs, def)
}

// fusePair implements spec.md §4.4 rule 8: when a pair's body is
// itself a single-pair, default-less branch, combine the two guards
// under conjunction rather than nesting one Branch inside another.
func fusePair(guard, body backend.Expr) (backend.Expr, backend.Expr) {
	inner, ok := body.(backend.Branch)
	if !ok {
		return guard, body
	}
	an := guard.Anno().Then(body.Anno())
	if fused, newBody, ok := build.BuildPair(an, zeroSpan, guard, inner.Pairs, inner.Default); ok {
		return fused, newBody
	}
	return guard, body
}
