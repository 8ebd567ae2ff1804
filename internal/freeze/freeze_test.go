package freeze

import (
	"testing"

	"github.com/sigma-andex/purescript-backend-optimizer/internal/analysis"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ast"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
)

func intLit(v int32) backend.Expr {
	return backend.NewLit(analysis.Leaf(analysis.Trivial), ast.Span{}, backend.LitInt{Value: v})
}

func TestFreezeRewriteInlineBecomesLet(t *testing.T) {
	id := ident.Ident("x")
	lvl := ident.Level(0)
	n := backend.NewRewriteInline(analysis.Empty(), ast.Span{}, &id, lvl, intLit(1), intLit(2))

	got := Expr(n)
	let, ok := got.(backend.Let)
	if !ok {
		t.Fatalf("Expr(RewriteInline) = %T, want backend.Let", got)
	}
	if let.Lvl != lvl {
		t.Fatalf("Let.Lvl = %v, want %v", let.Lvl, lvl)
	}
}

func TestFreezeRewriteStopBecomesVar(t *testing.T) {
	q := ident.Local(ident.Ident("thing"))
	n := backend.NewRewriteStop(analysis.Empty(), ast.Span{}, q)

	got := Expr(n)
	v, ok := got.(backend.Var)
	if !ok {
		t.Fatalf("Expr(RewriteStop) = %T, want backend.Var", got)
	}
	if !v.Q.Equal(q) {
		t.Fatalf("Var.Q = %v, want %v", v.Q, q)
	}
}

func TestFreezeRewriteLetAssocNestsRightward(t *testing.T) {
	idA := ident.Ident("a")
	idB := ident.Ident("b")
	bindings := []backend.LetBinding{
		{Id: &idA, Lvl: 0, Binding: intLit(1)},
		{Id: &idB, Lvl: 1, Binding: intLit(2)},
	}
	n := backend.NewRewriteLetAssoc(analysis.Empty(), ast.Span{}, bindings, intLit(3))

	got := Expr(n)
	outer, ok := got.(backend.Let)
	if !ok {
		t.Fatalf("Expr(RewriteLetAssoc) = %T, want backend.Let", got)
	}
	if outer.Lvl != 0 {
		t.Fatalf("outer Let.Lvl = %v, want 0", outer.Lvl)
	}
	inner, ok := outer.Body.(backend.Let)
	if !ok {
		t.Fatalf("outer.Body = %T, want backend.Let (right-nested)", outer.Body)
	}
	if inner.Lvl != 1 {
		t.Fatalf("inner Let.Lvl = %v, want 1", inner.Lvl)
	}
	if _, ok := inner.Body.(backend.Lit); !ok {
		t.Fatalf("inner.Body = %T, want backend.Lit", inner.Body)
	}
}

func TestFreezeRecursesIntoSubexpressions(t *testing.T) {
	id := ident.Ident("x")
	lvl := ident.Level(0)
	q := ident.Local(ident.Ident("stopped"))
	stop := backend.NewRewriteStop(analysis.Empty(), ast.Span{}, q)
	inline := backend.NewRewriteInline(analysis.Empty(), ast.Span{}, &id, lvl, intLit(1), stop)
	app := backend.NewApp(analysis.Empty(), ast.Span{}, inline, []backend.Expr{intLit(9)})

	got := Expr(app)
	a, ok := got.(backend.App)
	if !ok {
		t.Fatalf("Expr(App) = %T, want backend.App", got)
	}
	let, ok := a.Head.(backend.Let)
	if !ok {
		t.Fatalf("App.Head = %T, want backend.Let (RewriteInline frozen)", a.Head)
	}
	if _, ok := let.Body.(backend.Var); !ok {
		t.Fatalf("Let.Body = %T, want backend.Var (RewriteStop frozen)", let.Body)
	}
}
