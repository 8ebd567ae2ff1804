package build

import (
	"reflect"
	"testing"

	"github.com/sigma-andex/purescript-backend-optimizer/internal/analysis"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ast"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/primop"
)

func boolLit(v bool) backend.Expr {
	return backend.NewLit(analysis.Empty(), ast.Span{}, backend.LitBool{Value: v})
}

func local(lvl ident.Level) backend.Expr {
	id := ident.Ident("g")
	return backend.NewLocal(analysis.Empty(), ast.Span{}, &id, lvl)
}

func TestPrimOpCollapsesDoubleNegation(t *testing.T) {
	inner := PrimOp(analysis.Empty(), ast.Span{}, primop.OpNot, []backend.Expr{local(0)})
	got := PrimOp(analysis.Empty(), ast.Span{}, primop.OpNot, []backend.Expr{inner})
	loc, ok := got.(backend.Local)
	if !ok {
		t.Fatalf("PrimOp(not (not g)) = %T, want backend.Local", got)
	}
	if loc.Lvl != 0 {
		t.Fatalf("PrimOp(not (not g)).Lvl = %v, want 0", loc.Lvl)
	}
}

func TestPrimOpLeavesSingleNegationAlone(t *testing.T) {
	got := PrimOp(analysis.Empty(), ast.Span{}, primop.OpNot, []backend.Expr{local(0)})
	if _, ok := got.(backend.Local); ok {
		t.Fatalf("PrimOp(not g) collapsed to Local, want a PrimOpExpr wrapping g")
	}
	po, ok := got.(backend.PrimOpExpr)
	if !ok {
		t.Fatalf("PrimOp(not g) = %T, want backend.PrimOpExpr", got)
	}
	if po.Op != primop.OpNot {
		t.Fatalf("PrimOp(not g).Op = %v, want OpNot", po.Op)
	}
}

func TestBranchSingleTrueBodyFalseDefaultReducesToGuard(t *testing.T) {
	guard := local(0)
	pairs := []backend.BranchPair{{Guard: guard, Body: boolLit(true)}}
	got := Branch(analysis.Empty(), ast.Span{}, pairs, boolLit(false))
	if !reflect.DeepEqual(got, guard) {
		t.Fatalf("Branch(l -> true; false) = %#v, want the guard itself", got)
	}
}

func TestBranchSingleFalseBodyTrueDefaultReducesToNegatedGuard(t *testing.T) {
	guard := local(0)
	pairs := []backend.BranchPair{{Guard: guard, Body: boolLit(false)}}
	got := Branch(analysis.Empty(), ast.Span{}, pairs, boolLit(true))
	po, ok := got.(backend.PrimOpExpr)
	if !ok {
		t.Fatalf("Branch(l -> false; true) = %T, want backend.PrimOpExpr", got)
	}
	if po.Op != primop.OpNot || !reflect.DeepEqual(po.Args[0], guard) {
		t.Fatalf("Branch(l -> false; true) = %#v, want not(guard)", po)
	}
}

func TestBranchMergesNegatedGuardFailDefaultIntoTwoArms(t *testing.T) {
	l := local(3)
	notL := PrimOp(analysis.Empty(), ast.Span{}, primop.OpNot, []backend.Expr{l})
	a := boolLit(true)
	b := boolLit(false)
	pairs := []backend.BranchPair{
		{Guard: l, Body: a},
		{Guard: notL, Body: b},
	}
	fail := backend.NewFail(analysis.Empty(), ast.Span{}, "no match")

	got := Branch(analysis.Empty(), ast.Span{}, pairs, fail)
	br, ok := got.(backend.Branch)
	if !ok {
		t.Fatalf("Branch merge = %T, want backend.Branch", got)
	}
	if len(br.Pairs) != 1 || !reflect.DeepEqual(br.Pairs[0].Guard, l) || !reflect.DeepEqual(br.Pairs[0].Body, a) {
		t.Fatalf("Branch merge pairs = %#v, want single (l, a) pair", br.Pairs)
	}
	if !reflect.DeepEqual(br.Default, b) {
		t.Fatalf("Branch merge default = %#v, want b", br.Default)
	}
}

func TestBranchFusesDefaultBranch(t *testing.T) {
	outerGuard := local(0)
	innerGuard := local(1)
	innerPairs := []backend.BranchPair{{Guard: innerGuard, Body: boolLit(true)}}
	innerDefault := boolLit(false)
	inner := backend.NewBranch(analysis.Empty(), ast.Span{}, innerPairs, innerDefault)

	outerPairs := []backend.BranchPair{{Guard: outerGuard, Body: boolLit(false)}}
	got := Branch(analysis.Empty(), ast.Span{}, outerPairs, inner)

	br, ok := got.(backend.Branch)
	if !ok {
		t.Fatalf("Branch fuse = %T, want backend.Branch", got)
	}
	if len(br.Pairs) != 2 {
		t.Fatalf("Branch fuse pairs = %d, want 2 (outer's arm plus inner's arm)", len(br.Pairs))
	}
	if !reflect.DeepEqual(br.Default, innerDefault) {
		t.Fatalf("Branch fuse default = %#v, want the inner branch's own default", br.Default)
	}
}

func TestLetInlinesUnusedBinding(t *testing.T) {
	id := ident.Ident("x")
	bodyAnno := analysis.Empty() // Empty carries no usage of lvl 0, so it reads as dead.
	body := backend.NewLit(bodyAnno, ast.Span{}, backend.LitInt{Value: 1})
	binding := boolLit(true)

	got := Let(analysis.Empty(), ast.Span{}, &id, 0, binding, body)
	if _, ok := got.(backend.RewriteInline); !ok {
		t.Fatalf("Let(dead binding) = %T, want backend.RewriteInline", got)
	}
}

func TestLetAssociatesChainedLetsIntoOneRewrite(t *testing.T) {
	idInner := ident.Ident("y")
	idOuter := ident.Ident("x")

	// A binding expensive enough (NonTrivial, Size >= 5) that shouldInlineLet
	// never takes its cheap-duplication shortcuts, regardless of which level
	// it is bound at.
	nonTrivial := analysis.Analysis{Complexity: analysis.NonTrivial, Size: 10}
	binding := backend.NewApp(nonTrivial, ast.Span{}, local(0), []backend.Expr{local(0)})

	// innerBody references level 1 twice, uncaptured: enough usage to avoid
	// the dead-binding and single-use shortcuts.
	usesLvl1Twice := analysis.Analysis{Complexity: analysis.NonTrivial, Size: 10,
		Usages: map[ident.Level]analysis.Usage{1: {Count: 2}}}
	innerBody := backend.NewLit(usesLvl1Twice, ast.Span{}, backend.LitInt{Value: 2})

	// The analysis attached to the inner Let node as seen from outside it:
	// level 0 used twice beneath it, so the outer Let also declines to inline.
	innerLetAnno := analysis.Analysis{Complexity: analysis.NonTrivial, Size: 10,
		Usages: map[ident.Level]analysis.Usage{0: {Count: 2}}}
	innerLet := Let(innerLetAnno, ast.Span{}, &idInner, 1, binding, innerBody)

	got := Let(analysis.Empty(), ast.Span{}, &idOuter, 0, binding, innerLet)
	chain, ok := got.(backend.RewriteLetAssoc)
	if !ok {
		t.Fatalf("Let(outer, innerLet) = %T, want backend.RewriteLetAssoc", got)
	}
	if len(chain.Bindings) != 2 {
		t.Fatalf("RewriteLetAssoc.Bindings = %d, want 2 merged entries", len(chain.Bindings))
	}
	if chain.Bindings[0].Lvl != 0 || chain.Bindings[1].Lvl != 1 {
		t.Fatalf("RewriteLetAssoc.Bindings levels = %v, %v, want 0 then 1 (outer first)",
			chain.Bindings[0].Lvl, chain.Bindings[1].Lvl)
	}
}

func TestEffectBindOfEffectPureCollapsesToLet(t *testing.T) {
	id := ident.Ident("x")
	pure := backend.NewEffectPure(analysis.Empty(), ast.Span{}, boolLit(true))
	kont := backend.NewLit(analysis.Empty(), ast.Span{}, backend.LitInt{Value: 1})

	got := EffectBind(analysis.Empty(), ast.Span{}, &id, 0, pure, kont)
	if _, ok := got.(backend.EffectBind); ok {
		t.Fatalf("EffectBind(EffectPure v, k) stayed an EffectBind, want it folded into Let")
	}
}

func TestBuildPairCombinesNestedSingleArmBranchUnderConjunction(t *testing.T) {
	guard1 := local(0)
	guard2 := local(1)
	body2 := boolLit(true)

	conj, body, ok := BuildPair(analysis.Empty(), ast.Span{}, guard1, []backend.BranchPair{{Guard: guard2, Body: body2}}, nil)
	if !ok {
		t.Fatalf("BuildPair did not fire on a single-pair default-less branch")
	}
	po, isOp := conj.(backend.PrimOpExpr)
	if !isOp || po.Op != primop.OpAnd {
		t.Fatalf("BuildPair conjunction = %#v, want PrimOp And", conj)
	}
	if !reflect.DeepEqual(body, body2) {
		t.Fatalf("BuildPair body = %#v, want inner pair's body", body)
	}
}

func TestBuildPairDeclinesWhenDefaultPresent(t *testing.T) {
	_, _, ok := BuildPair(analysis.Empty(), ast.Span{}, local(0), []backend.BranchPair{{Guard: local(1), Body: boolLit(true)}}, boolLit(false))
	if ok {
		t.Fatalf("BuildPair fired despite a present default, want it to decline")
	}
}

func TestBuildBranchCondFoldsTrueBodyIntoDisjunction(t *testing.T) {
	guard := local(0)
	elseTail := local(1)

	got, ok := BuildBranchCond(analysis.Empty(), ast.Span{}, guard, boolLit(true), elseTail)
	if !ok {
		t.Fatalf("BuildBranchCond did not fire on a boolean body with a boolean-tail else")
	}
	po, isOp := got.(backend.PrimOpExpr)
	if !isOp || po.Op != primop.OpOr || !reflect.DeepEqual(po.Args[0], guard) || !reflect.DeepEqual(po.Args[1], elseTail) {
		t.Fatalf("BuildBranchCond(true-body) = %#v, want guard || elseTail", got)
	}
}

func TestBuildBranchCondFoldsFalseBodyIntoNegatedDisjunction(t *testing.T) {
	guard := local(0)
	elseTail := local(1)

	got, ok := BuildBranchCond(analysis.Empty(), ast.Span{}, guard, boolLit(false), elseTail)
	if !ok {
		t.Fatalf("BuildBranchCond did not fire on a boolean body with a boolean-tail else")
	}
	po, isOp := got.(backend.PrimOpExpr)
	if !isOp || po.Op != primop.OpOr {
		t.Fatalf("BuildBranchCond(false-body) = %#v, want a top-level Or", got)
	}
	notGuard, isNot := po.Args[0].(backend.PrimOpExpr)
	if !isNot || notGuard.Op != primop.OpNot || !reflect.DeepEqual(notGuard.Args[0], guard) {
		t.Fatalf("BuildBranchCond(false-body) first disjunct = %#v, want not(guard)", po.Args[0])
	}
}

func TestUpdateFusesIntoRecordLiteral(t *testing.T) {
	recExpr := backend.NewLit(analysis.Empty(), ast.Span{}, backend.NewLitRecord([]backend.Prop{
		{Key: "a", Value: boolLit(true)},
		{Key: "b", Value: boolLit(false)},
	}))
	update := []backend.Prop{{Key: "b", Value: boolLit(true)}}

	got := Update(analysis.Empty(), ast.Span{}, recExpr, update)
	lit, ok := got.(backend.Lit)
	if !ok {
		t.Fatalf("Update(record literal, kvs) = %T, want backend.Lit", got)
	}
	rec, ok := lit.Value.(backend.LitRecord)
	if !ok {
		t.Fatalf("Lit.Value = %T, want backend.LitRecord", lit.Value)
	}
	if len(rec.Props) != 2 {
		t.Fatalf("LitRecord.Props = %v, want 2 fields", rec.Props)
	}
	for _, p := range rec.Props {
		if p.Key == "b" {
			b, isBool := p.Value.(backend.Lit).Value.(backend.LitBool)
			if !isBool || !b.Value {
				t.Fatalf("field %q = %v, want the update's value true", p.Key, p.Value)
			}
		}
	}
}

func TestUpdateLeavesNonLiteralTargetAlone(t *testing.T) {
	got := Update(analysis.Empty(), ast.Span{}, local(0), []backend.Prop{{Key: "b", Value: boolLit(true)}})
	if _, ok := got.(backend.Update); !ok {
		t.Fatalf("Update(non-literal target, kvs) = %T, want backend.Update (unfused)", got)
	}
}

func TestBuildBranchCondDeclinesOnNonBooleanBody(t *testing.T) {
	_, ok := BuildBranchCond(analysis.Empty(), ast.Span{}, local(0), local(2), local(1))
	if ok {
		t.Fatalf("BuildBranchCond fired on a non-boolean-literal body, want it to decline")
	}
}
