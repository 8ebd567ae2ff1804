package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
)

func modName(s string) ident.ModuleName { return ident.ParseModuleName(s) }

func TestConvertVarResolvesLocalScopeBeforeGlobal(t *testing.T) {
	m := SurfaceModule{
		Name: modName("Main"),
		Groups: []BindGroup{
			{Binds: []Bind{
				{Name: "id", Expr: SurfaceAbs{
					Params: []ident.Ident{"x"},
					Body:   SurfaceVar{Name: "x"},
				}},
			}},
		},
	}

	bm, err := Convert(m)
	require.NoError(t, err)
	require.Len(t, bm.Groups, 1)
	require.Len(t, bm.Groups[0].Binds, 1)

	abs, ok := bm.Groups[0].Binds[0].Expr.(backend.Abs)
	require.True(t, ok, "expected backend.Abs, got %T", bm.Groups[0].Binds[0].Expr)
	require.Len(t, abs.Params, 1)

	local, ok := abs.Body.(backend.Local)
	require.True(t, ok, "expected backend.Local, got %T", abs.Body)
	assert.Equal(t, abs.Params[0].Lvl, local.Lvl)
}

func TestConvertVarDefaultsToCurrentModule(t *testing.T) {
	m := SurfaceModule{
		Name: modName("Main"),
		Groups: []BindGroup{
			{Binds: []Bind{
				{Name: "useOther", Expr: SurfaceVar{Name: "helper"}},
			}},
		},
	}

	bm, err := Convert(m)
	require.NoError(t, err)

	v, ok := bm.Groups[0].Binds[0].Expr.(backend.Var)
	require.True(t, ok, "expected backend.Var, got %T", bm.Groups[0].Binds[0].Expr)
	assert.Equal(t, ident.NewQualified(modName("Main"), "helper"), v.Q)
}

func TestConvertVarResolvesReExport(t *testing.T) {
	other := ident.NewQualified(modName("Other"), "thing")
	m := SurfaceModule{
		Name:      modName("Main"),
		ReExports: map[ident.Ident]ident.Qualified{"thing": other},
		Groups: []BindGroup{
			{Binds: []Bind{
				{Name: "reuse", Expr: SurfaceVar{Name: "thing"}},
			}},
		},
	}

	bm, err := Convert(m)
	require.NoError(t, err)

	v, ok := bm.Groups[0].Binds[0].Expr.(backend.Var)
	require.True(t, ok)
	assert.True(t, v.Q.Equal(other), "Var.Q = %v, want %v", v.Q, other)
}

func TestConvertErasesNewtypeApp(t *testing.T) {
	m := SurfaceModule{
		Name: modName("Main"),
		Groups: []BindGroup{
			{Binds: []Bind{
				{Name: "wrapped", Expr: SurfaceNewtypeApp{
					Ctor: ident.NewQualified(modName("Main"), "Wrap"),
					Arg:  SurfaceLit{Value: backend.LitInt{Value: 42}},
				}},
			}},
		},
	}

	bm, err := Convert(m)
	require.NoError(t, err)

	lit, ok := bm.Groups[0].Binds[0].Expr.(backend.Lit)
	require.True(t, ok, "expected the newtype wrapper to vanish, got %T", bm.Groups[0].Binds[0].Expr)
	assert.Equal(t, int32(42), lit.Value.(backend.LitInt).Value)
}

func TestConvertAllocatesIncreasingLevelsAcrossNestedBinders(t *testing.T) {
	m := SurfaceModule{
		Name: modName("Main"),
		Groups: []BindGroup{
			{Binds: []Bind{
				{Name: "f", Expr: SurfaceAbs{
					Params: []ident.Ident{"a"},
					Body: SurfaceLet{
						Name:    "b",
						Binding: SurfaceVar{Name: "a"},
						Body:    SurfaceVar{Name: "b"},
					},
				}},
			}},
		},
	}

	bm, err := Convert(m)
	require.NoError(t, err)

	abs := bm.Groups[0].Binds[0].Expr.(backend.Abs)
	let := abs.Body.(backend.Let)
	assert.Less(t, abs.Params[0].Lvl, let.Lvl, "levels must increase monotonically across nested binders")

	local := let.Body.(backend.Local)
	assert.Equal(t, let.Lvl, local.Lvl)
}

func TestConvertLetRecRejectsEmptyBindings(t *testing.T) {
	m := SurfaceModule{
		Name: modName("Main"),
		Groups: []BindGroup{
			{Binds: []Bind{
				{Name: "bad", Expr: SurfaceLetRec{Body: SurfaceLit{Value: backend.LitBool{Value: true}}}},
			}},
		},
	}

	_, err := Convert(m)
	require.Error(t, err)
}

func TestConvertLetRecBindsEachMemberBeforeBody(t *testing.T) {
	m := SurfaceModule{
		Name: modName("Main"),
		Groups: []BindGroup{
			{Binds: []Bind{
				{Name: "top", Expr: SurfaceLetRec{
					Bindings: []SurfaceRecBinding{
						{Name: "even", Binding: SurfaceVar{Name: "odd"}},
						{Name: "odd", Binding: SurfaceVar{Name: "even"}},
					},
					Body: SurfaceVar{Name: "even"},
				}},
			}},
		},
	}

	bm, err := Convert(m)
	require.NoError(t, err)

	letrec, ok := bm.Groups[0].Binds[0].Expr.(backend.LetRec)
	require.True(t, ok, "expected backend.LetRec, got %T", bm.Groups[0].Binds[0].Expr)
	require.Len(t, letrec.Bindings, 2)

	evenLvl := letrec.Bindings[0].Lvl
	oddLvl := letrec.Bindings[1].Lvl
	assert.Equal(t, oddLvl, letrec.Bindings[0].Value.(backend.Local).Lvl)
	assert.Equal(t, evenLvl, letrec.Bindings[1].Value.(backend.Local).Lvl)
	assert.Equal(t, evenLvl, letrec.Body.(backend.Local).Lvl)
}
