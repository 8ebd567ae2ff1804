package backend

import (
	"testing"

	"github.com/sigma-andex/purescript-backend-optimizer/internal/analysis"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ast"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
)

func lvl(n uint64) ident.Level { return ident.Level(n) }

func TestNewAppFlattensNestedApp(t *testing.T) {
	head := NewVar(analysis.Empty(), ast.Span{}, ident.Local(ident.Ident("f")))
	a1 := NewLocal(analysis.Empty(), ast.Span{}, nil, lvl(0))
	a2 := NewLocal(analysis.Empty(), ast.Span{}, nil, lvl(1))
	inner := NewApp(analysis.Empty(), ast.Span{}, head, []Expr{a1})
	outer := NewApp(analysis.Empty(), ast.Span{}, inner, []Expr{a2})

	got, ok := outer.(App)
	if !ok {
		t.Fatalf("expected App, got %T", outer)
	}
	if len(got.Args) != 2 {
		t.Fatalf("Args = %v, want 2 flattened args", got.Args)
	}
	if _, nested := got.Head.(App); nested {
		t.Fatalf("App.Head must not itself be an App (invariant 2)")
	}
}

func TestNewAbsFlattensNestedAbs(t *testing.T) {
	body := NewLocal(analysis.Empty(), ast.Span{}, nil, lvl(1))
	inner := NewAbs(analysis.Empty(), ast.Span{}, []Param{{Lvl: lvl(1)}}, body)
	outer := NewAbs(analysis.Empty(), ast.Span{}, []Param{{Lvl: lvl(0)}}, inner)

	got, ok := outer.(Abs)
	if !ok {
		t.Fatalf("expected Abs, got %T", outer)
	}
	if len(got.Params) != 2 {
		t.Fatalf("Params = %v, want 2 flattened params", got.Params)
	}
	if _, nested := got.Body.(Abs); nested {
		t.Fatalf("Abs.Body must not itself be an Abs")
	}
}

func TestNormalizePropsSortsAndDedupsFirstWins(t *testing.T) {
	first := NewLocal(analysis.Empty(), ast.Span{}, nil, lvl(0))
	second := NewLocal(analysis.Empty(), ast.Span{}, nil, lvl(1))
	props := []Prop{
		{Key: "b", Value: first},
		{Key: "a", Value: first},
		{Key: "b", Value: second}, // later occurrence of "b" must lose
	}
	got := NormalizeProps(props)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].Key != "a" || got[1].Key != "b" {
		t.Fatalf("got = %v, want sorted [a b]", got)
	}
	winner, ok := got[1].Value.(Local)
	if !ok || winner.Lvl != lvl(0) {
		t.Fatalf("expected first occurrence of %q (level 0) to win, got %#v", "b", got[1].Value)
	}
}
