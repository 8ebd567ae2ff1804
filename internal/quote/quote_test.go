package quote

import (
	"testing"

	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/primop"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/semval"
)

func newCtx() Ctx { return NewCtx(nil, nil) }

func TestQuoteLamAllocatesFreshLevelAndBuildsAbs(t *testing.T) {
	ctx := newCtx()
	id := ident.Ident("x")
	lam := semval.Lam{Id: &id, F: func(v semval.Sem) semval.Sem { return v }}

	got := Quote(ctx, lam)
	abs, ok := got.(backend.Abs)
	if !ok {
		t.Fatalf("Quote(Lam) = %T, want backend.Abs", got)
	}
	if len(abs.Params) != 1 {
		t.Fatalf("Abs.Params = %v, want 1 param", abs.Params)
	}
	local, ok := abs.Body.(backend.Local)
	if !ok {
		t.Fatalf("Abs.Body = %T, want backend.Local", abs.Body)
	}
	if local.Lvl != abs.Params[0].Lvl {
		t.Fatalf("Local.Lvl = %v, want %v", local.Lvl, abs.Params[0].Lvl)
	}
}

func TestQuoteAllocatesIncreasingLevels(t *testing.T) {
	ctx := newCtx()
	idOuter := ident.Ident("a")
	idInner := ident.Ident("b")
	lam := semval.Lam{Id: &idOuter, F: func(outer semval.Sem) semval.Sem {
		return semval.Lam{Id: &idInner, F: func(inner semval.Sem) semval.Sem {
			return semval.NeutApp{Head: outer, Args: []semval.Sem{inner}}
		}}
	}}

	got := Quote(ctx, lam)
	abs, ok := got.(backend.Abs)
	if !ok {
		t.Fatalf("Quote(Lam) = %T, want backend.Abs", got)
	}
	if len(abs.Params) != 2 {
		t.Fatalf("Abs.Params = %v, want 2 params (nested Abs flattened)", abs.Params)
	}
	if abs.Params[0].Lvl >= abs.Params[1].Lvl {
		t.Fatalf("levels not monotonically increasing: %v, %v", abs.Params[0].Lvl, abs.Params[1].Lvl)
	}
}

func TestQuoteLetBuildsLetAndBindsLevel(t *testing.T) {
	ctx := newCtx()
	id := ident.Ident("x")
	let := semval.Let{
		Id:    &id,
		Value: semval.NeutLit{Value: semval.NeutLitInt{Value: 1}},
		Kont:  func(v semval.Sem) semval.Sem { return v },
	}
	got := Quote(ctx, let)
	// Build's rule 3/4 may emit RewriteInline or RewriteLetAssoc
	// depending on the inline heuristic; a single trivial binding used
	// once should be inlined away by rule 4.
	if _, ok := got.(backend.RewriteInline); !ok {
		t.Fatalf("Quote(Let) = %T, want RewriteInline (trivial single-use binding)", got)
	}
}

func TestQuoteBranchCommitsAndQuotesRemainder(t *testing.T) {
	ctx := newCtx()
	trueLit := semval.NeutLit{Value: semval.NeutLitBool{Value: true}}
	one := semval.NeutLit{Value: semval.NeutLitInt{Value: 1}}

	cond := semval.NewThunk(func() semval.Cond {
		return semval.Cond{
			Guard: trueLit,
			Kont:  func(*semval.Try) semval.Sem { return one },
		}
	})
	branch := semval.Branch{Conds: []*semval.Thunk[semval.Cond]{cond}}

	got := Quote(ctx, branch)
	br, ok := got.(backend.Branch)
	if !ok {
		t.Fatalf("Quote(Branch) with an int body and no default = %T, want backend.Branch (not boolean-foldable)", got)
	}
	if len(br.Pairs) != 1 {
		t.Fatalf("Branch.Pairs = %v, want 1 pair", br.Pairs)
	}
	if br.Pairs[0].Body.(backend.Lit).Value.(backend.LitInt).Value != 1 {
		t.Fatalf("Branch.Pairs[0].Body = %v, want literal 1", br.Pairs[0].Body)
	}
}

func TestQuotePrimOpEliminatesDoubleNegation(t *testing.T) {
	ctx := newCtx()
	inner := semval.NeutPrimOp{Op: primop.OpNot, Args: []semval.Sem{semval.NeutLocal{Lvl: 0}}}
	outer := semval.NeutPrimOp{Op: primop.OpNot, Args: []semval.Sem{inner}}

	got := Quote(ctx, outer)
	if _, ok := got.(backend.Local); !ok {
		t.Fatalf("Quote(not (not x)) = %T, want backend.Local", got)
	}
}

func TestQuoteNeutAppFlattensNestedApp(t *testing.T) {
	ctx := newCtx()
	head := semval.NeutLocal{Lvl: 0}
	inner := semval.NeutApp{Head: head, Args: []semval.Sem{semval.NeutLit{Value: semval.NeutLitInt{Value: 1}}}}
	outer := semval.NeutApp{Head: inner, Args: []semval.Sem{semval.NeutLit{Value: semval.NeutLitInt{Value: 2}}}}

	got := Quote(ctx, outer)
	app, ok := got.(backend.App)
	if !ok {
		t.Fatalf("Quote(NeutApp) = %T, want backend.App", got)
	}
	if len(app.Args) != 2 {
		t.Fatalf("App.Args = %v, want 2 (nested App flattened)", app.Args)
	}
}

func TestQuoteExternForcesFallback(t *testing.T) {
	ctx := newCtx()
	q := ident.Local(ident.Ident("thing"))
	ext := semval.Extern{
		Q: q,
		Fallback: semval.NewThunk(func() semval.Sem {
			return semval.NeutVar{Q: q}
		}),
	}
	got := Quote(ctx, ext)
	v, ok := got.(backend.Var)
	if !ok {
		t.Fatalf("Quote(Extern) = %T, want backend.Var", got)
	}
	if !v.Q.Equal(q) {
		t.Fatalf("Var.Q = %v, want %v", v.Q, q)
	}
}

func TestQuoteLamMarksOuterLetUsageCapturedSoItStaysLetBound(t *testing.T) {
	ctx := newCtx()
	idLet := ident.Ident("x")
	idLam := ident.Ident("y")

	let := semval.Let{
		Id: &idLet,
		// A cheap variable reference: Deref complexity, size 1 — exactly
		// the tier shouldInlineLet's uncaptured shortcut would inline on
		// sight if the captured bit were lost.
		Value: semval.NeutLocal{Lvl: 99},
		Kont: func(x semval.Sem) semval.Sem {
			return semval.Lam{Id: &idLam, F: func(semval.Sem) semval.Sem {
				return semval.NeutPrimOp{Op: primop.OpAnd, Args: []semval.Sem{x, x}}
			}}
		},
	}

	got := Quote(ctx, let)
	if _, ok := got.(backend.RewriteInline); ok {
		t.Fatalf("Quote(Let) = RewriteInline, want the binding to stay let-bound: "+
			"it is referenced twice from inside a closure body, so the use must be "+
			"marked captured and the cheap-duplication shortcut must not apply")
	}
	if _, ok := got.(backend.RewriteLetAssoc); !ok {
		t.Fatalf("Quote(Let) = %T, want backend.RewriteLetAssoc", got)
	}
}

func TestQuoteUpdateOfRecordLiteralFusesToLiteral(t *testing.T) {
	ctx := newCtx()
	rec := semval.NeutLit{Value: semval.NeutLitRecord{Props: []semval.NeutProp{
		{Key: "a", Value: semval.NeutLit{Value: semval.NeutLitInt{Value: 1}}},
		{Key: "b", Value: semval.NeutLit{Value: semval.NeutLitInt{Value: 2}}},
	}}}
	update := semval.NeutUpdate{Expr: rec, Props: []semval.NeutProp{
		{Key: "b", Value: semval.NeutLit{Value: semval.NeutLitInt{Value: 20}}},
	}}

	got := Quote(ctx, update)
	lit, ok := got.(backend.Lit)
	if !ok {
		t.Fatalf("Quote(Update of a record literal) = %T, want backend.Lit (fused)", got)
	}
	rec2, ok := lit.Value.(backend.LitRecord)
	if !ok {
		t.Fatalf("Lit.Value = %T, want backend.LitRecord", lit.Value)
	}
	if len(rec2.Props) != 2 {
		t.Fatalf("LitRecord.Props = %v, want 2 fields (updated key replaces, not appends)", rec2.Props)
	}
	for _, p := range rec2.Props {
		if p.Key == "b" && p.Value.(backend.Lit).Value.(backend.LitInt).Value != 20 {
			t.Fatalf("field %q = %v, want the update's value 20", p.Key, p.Value)
		}
	}
}

func TestQuoteNeutDataZeroFieldsQuotesAsVar(t *testing.T) {
	ctx := newCtx()
	q := ident.Local(ident.Ident("Nothing"))
	data := semval.NeutData{Q: q, CtorType: backend.SumType, TyName: ident.Ident("Maybe"), Tag: ident.Ident("Nothing")}

	got := Quote(ctx, data)
	if _, ok := got.(backend.Var); !ok {
		t.Fatalf("Quote(NeutData with zero fields) = %T, want backend.Var", got)
	}
}
