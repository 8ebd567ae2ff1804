package driver

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/diag"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/evalcore"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/quote"
)

// Optimize drives the Eval -> Quote -> Build fixpoint loop (spec.md
// §4.5): each iteration evaluates e to a semantic value and reifies it
// back, re-running the local rewriter at every quoted node; the loop
// stops as soon as the reified tree's Analysis carries no pending
// rewrite (Rewrite == false), or fails with CodeOptNonTermination once
// limit iterations have passed without reaching one.
//
// Eval and Quote panic with *diag.Error on malformed IR rather than
// returning one (see evalcore's package doc); Optimize is the boundary
// that recovers those panics into an ordinary error return, the same
// split internal/parser draws between recoverable parse errors and
// invariant-violation panics in the teacher.
func Optimize(ctx quote.Ctx, env evalcore.Env, decl ident.Qualified, e backend.Expr, limit int) (result backend.Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			if de, ok := r.(*diag.Error); ok {
				err = de
				return
			}
			panic(r)
		}
	}()

	cur := e
	for iter := 1; iter <= limit; iter++ {
		sem := evalcore.Eval(env, cur)
		next := quote.Quote(ctx, sem)
		if !next.Anno().Rewrite {
			return next, nil
		}
		cur = next
	}
	return nil, diag.NewNonTermination(decl, limit)
}
