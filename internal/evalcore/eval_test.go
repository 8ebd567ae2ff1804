package evalcore

import (
	"testing"

	"github.com/sigma-andex/purescript-backend-optimizer/internal/analysis"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ast"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/directive"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/primop"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/semval"
)

func lvl(n uint64) ident.Level { return ident.Level(n) }

func newEnv() Env {
	return NewEnv(ident.NewModuleName("Test"), nil, directive.NewTable())
}

func intLit(v int32) backend.Expr {
	return backend.NewLit(analysis.Empty(), ast.Span{}, backend.LitInt{Value: v})
}

func boolLit(v bool) backend.Expr {
	return backend.NewLit(analysis.Empty(), ast.Span{}, backend.LitBool{Value: v})
}

func TestEvalVarMissesToExternFallback(t *testing.T) {
	env := newEnv()
	q := ident.Local(ident.Ident("unknownThing"))
	got := Eval(env, backend.NewVar(analysis.Empty(), ast.Span{}, q))
	ext, ok := got.(semval.Extern)
	if !ok {
		t.Fatalf("Eval(Var) on a miss = %T, want semval.Extern", got)
	}
	if !ext.Q.Equal(q) {
		t.Fatalf("Extern.Q = %v, want %v", ext.Q, q)
	}
}

func TestEvalLocalMissingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Eval to panic on an unbound local")
		}
	}()
	env := newEnv()
	Eval(env, backend.NewLocal(analysis.Empty(), ast.Span{}, nil, lvl(0)))
}

func TestEvalAbsAppliesViaEvalApp(t *testing.T) {
	env := newEnv()
	id := ident.Ident("x")
	body := backend.NewLocal(analysis.Empty(), ast.Span{}, &id, lvl(0))
	abs := backend.NewAbs(analysis.Empty(), ast.Span{}, []backend.Param{{Id: &id, Lvl: lvl(0)}}, body)

	sem := Eval(env, abs)
	lam, ok := sem.(semval.Lam)
	if !ok {
		t.Fatalf("Eval(Abs) = %T, want semval.Lam", sem)
	}
	result := lam.F(semval.NeutLit{Value: semval.NeutLitInt{Value: 7}})
	lit, ok := result.(semval.NeutLit)
	if !ok {
		t.Fatalf("applying Lam = %T, want NeutLit", result)
	}
	if lit.Value.(semval.NeutLitInt).Value != 7 {
		t.Fatalf("applying Lam = %v, want 7", lit.Value)
	}
}

func TestEvalPrimOpFoldsIntAdd(t *testing.T) {
	env := newEnv()
	expr := backend.PrimOpExpr{Op: primop.OpIntAdd, Args: []backend.Expr{intLit(2), intLit(3)}}
	sem := Eval(env, expr)
	lit, ok := sem.(semval.NeutLit)
	if !ok {
		t.Fatalf("Eval(PrimOp) = %T, want NeutLit", sem)
	}
	if lit.Value.(semval.NeutLitInt).Value != 5 {
		t.Fatalf("2 + 3 = %v, want 5", lit.Value)
	}
}

func TestEvalPrimOpEliminatesDoubleNegation(t *testing.T) {
	env := newEnv()
	inner := semval.NeutPrimOp{Op: primop.OpNot, Args: []semval.Sem{semval.NeutAccessor{}}}
	got := applyUnary(env, primop.OpNot, inner)
	if _, ok := got.(semval.NeutAccessor); !ok {
		t.Fatalf("not (not x) = %T, want the original x", got)
	}
}

func TestEvalPrimOpNegatesComparison(t *testing.T) {
	env := newEnv()
	lt := semval.NeutPrimOp{Op: primop.OpIntLt, Args: []semval.Sem{
		semval.NeutLit{Value: semval.NeutLitInt{Value: 1}},
		semval.NeutLit{Value: semval.NeutLitInt{Value: 2}},
	}}
	got := applyUnary(env, primop.OpNot, lt)
	lit, ok := got.(semval.NeutLit)
	if !ok {
		t.Fatalf("not (1 < 2) = %T, want a folded literal", got)
	}
	if lit.Value.(semval.NeutLitBool).Value != false {
		t.Fatalf("not (1 < 2) = %v, want false", lit.Value)
	}
}

func TestEvalBranchCommitsOnLiteralTrue(t *testing.T) {
	env := newEnv()
	branch := backend.Branch{
		Pairs: []backend.BranchPair{
			{Guard: boolLit(true), Body: intLit(1)},
			{Guard: boolLit(true), Body: intLit(2)},
		},
	}
	got := Eval(env, branch)
	lit, ok := got.(semval.NeutLit)
	if !ok {
		t.Fatalf("Eval(Branch) = %T, want NeutLit", got)
	}
	if lit.Value.(semval.NeutLitInt).Value != 1 {
		t.Fatalf("committed branch = %v, want 1 (first truthy arm)", lit.Value)
	}
}

func TestEvalBranchSkipsLiteralFalse(t *testing.T) {
	env := newEnv()
	branch := backend.Branch{
		Pairs: []backend.BranchPair{
			{Guard: boolLit(false), Body: intLit(1)},
			{Guard: boolLit(true), Body: intLit(2)},
		},
	}
	got := Eval(env, branch)
	lit, ok := got.(semval.NeutLit)
	if !ok {
		t.Fatalf("Eval(Branch) = %T, want NeutLit", got)
	}
	if lit.Value.(semval.NeutLitInt).Value != 2 {
		t.Fatalf("committed branch = %v, want 2", lit.Value)
	}
}

func TestEvalBranchNoMatchNoDefaultFails(t *testing.T) {
	env := newEnv()
	branch := backend.Branch{
		Pairs: []backend.BranchPair{
			{Guard: boolLit(false), Body: intLit(1)},
		},
	}
	got := Eval(env, branch)
	if _, ok := got.(semval.NeutFail); !ok {
		t.Fatalf("Eval(Branch) with no matching arm and no default = %T, want NeutFail", got)
	}
}
