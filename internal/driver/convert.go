package driver

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/analysis"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ast"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/diag"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
)

var zeroSpan ast.Span

// moduleCtx carries what a single module's Convert pass needs to
// resolve a bare SurfaceVar: its own module name (for the default
// "global in this module" case) and the re-export table (spec.md
// §4.7 "the name resolves to the re-exported Qualified").
type moduleCtx struct {
	current   ident.ModuleName
	reExports map[ident.Ident]ident.Qualified
}

// scope is the local-scope map built up as Convert descends through
// binders; it is extended (never mutated) at each Abs/Let/LetRec,
// following evalcore.Env's copy-on-write shadowing discipline.
type scope struct {
	vars map[ident.Ident]ident.Level
}

func (s scope) with(name ident.Ident, lvl ident.Level) scope {
	out := make(map[ident.Ident]ident.Level, len(s.vars)+1)
	for k, v := range s.vars {
		out[k] = v
	}
	out[name] = lvl
	return scope{vars: out}
}

// levelCounter allocates convert-time levels monotonically per
// top-level binding, the same pointer-shared-counter pattern
// quote.Ctx uses for its own (separately numbered) levels.
type levelCounter struct{ next ident.Level }

func (c *levelCounter) alloc() ident.Level {
	lvl := c.next
	c.next++
	return lvl
}

// BackendBind is one converted top-level binding.
type BackendBind struct {
	Name ident.Ident
	Expr backend.Expr
}

// BackendGroup mirrors BindGroup after conversion.
type BackendGroup struct {
	Recursive bool
	Binds     []BackendBind
}

// BackendModule is a module whose surface IR has been fully resolved
// to build IR (spec.md §4.7).
type BackendModule struct {
	Name   ident.ModuleName
	Groups []BackendGroup
}

// Convert resolves m's surface IR into build IR (spec.md §4.7 step 2,
// the "Convert" half; dataTypes/exports bookkeeping beyond what
// Impl derivation needs is left to the caller, since this module's
// contract is the optimizer core, not a full front end).
func Convert(m SurfaceModule) (BackendModule, error) {
	mctx := moduleCtx{current: m.Name, reExports: m.ReExports}
	out := BackendModule{Name: m.Name}
	for _, group := range m.Groups {
		bg := BackendGroup{Recursive: group.Recursive}
		for _, b := range group.Binds {
			var counter levelCounter
			expr, err := convertExpr(mctx, scope{}, &counter, b.Expr)
			if err != nil {
				return BackendModule{}, err
			}
			bg.Binds = append(bg.Binds, BackendBind{Name: b.Name, Expr: expr})
		}
		out.Groups = append(out.Groups, bg)
	}
	return out, nil
}

func convertVar(mctx moduleCtx, sc scope, name ident.Ident) backend.Expr {
	if lvl, ok := sc.vars[name]; ok {
		id := name
		return backend.NewLocal(analysis.Empty(), zeroSpan, &id, lvl)
	}
	if q, ok := mctx.reExports[name]; ok {
		return backend.NewVar(analysis.Empty(), zeroSpan, q)
	}
	return backend.NewVar(analysis.Empty(), zeroSpan, ident.NewQualified(mctx.current, name))
}

func convertAll(mctx moduleCtx, sc scope, c *levelCounter, es []SurfaceExpr) ([]backend.Expr, error) {
	out := make([]backend.Expr, len(es))
	for i, e := range es {
		conv, err := convertExpr(mctx, sc, c, e)
		if err != nil {
			return nil, err
		}
		out[i] = conv
	}
	return out, nil
}

func convertExpr(mctx moduleCtx, sc scope, c *levelCounter, e SurfaceExpr) (backend.Expr, error) {
	switch n := e.(type) {
	case SurfaceVar:
		return convertVar(mctx, sc, n.Name), nil

	case SurfaceLit:
		return backend.NewLit(analysis.Empty(), zeroSpan, n.Value), nil

	case SurfaceArray:
		els, err := convertAll(mctx, sc, c, n.Elements)
		if err != nil {
			return nil, err
		}
		return backend.NewLit(analysis.Empty(), zeroSpan, backend.LitArray{Elements: els}), nil

	case SurfaceRecord:
		props, err := convertProps(mctx, sc, c, n.Props)
		if err != nil {
			return nil, err
		}
		return backend.NewLit(analysis.Empty(), zeroSpan, backend.NewLitRecord(props)), nil

	case SurfaceApp:
		head, err := convertExpr(mctx, sc, c, n.Head)
		if err != nil {
			return nil, err
		}
		args, err := convertAll(mctx, sc, c, n.Args)
		if err != nil {
			return nil, err
		}
		return backend.NewApp(analysis.Empty(), zeroSpan, head, args), nil

	case SurfaceAbs:
		params, inner := bindParams(sc, c, n.Params)
		body, err := convertExpr(mctx, inner, c, n.Body)
		if err != nil {
			return nil, err
		}
		return backend.NewAbs(analysis.Empty(), zeroSpan, params, body), nil

	case SurfaceUncurriedApp:
		head, err := convertExpr(mctx, sc, c, n.Head)
		if err != nil {
			return nil, err
		}
		args, err := convertAll(mctx, sc, c, n.Args)
		if err != nil {
			return nil, err
		}
		return backend.NewUncurriedApp(analysis.Empty(), zeroSpan, head, args), nil

	case SurfaceUncurriedAbs:
		params, inner := bindParams(sc, c, n.Params)
		body, err := convertExpr(mctx, inner, c, n.Body)
		if err != nil {
			return nil, err
		}
		return backend.NewUncurriedAbs(analysis.Empty(), zeroSpan, params, body), nil

	case SurfaceUncurriedEffectApp:
		head, err := convertExpr(mctx, sc, c, n.Head)
		if err != nil {
			return nil, err
		}
		args, err := convertAll(mctx, sc, c, n.Args)
		if err != nil {
			return nil, err
		}
		return backend.NewUncurriedEffectApp(analysis.Empty(), zeroSpan, head, args), nil

	case SurfaceUncurriedEffectAbs:
		params, inner := bindParams(sc, c, n.Params)
		body, err := convertExpr(mctx, inner, c, n.Body)
		if err != nil {
			return nil, err
		}
		return backend.NewUncurriedEffectAbs(analysis.Empty(), zeroSpan, params, body), nil

	case SurfaceLet:
		binding, err := convertExpr(mctx, sc, c, n.Binding)
		if err != nil {
			return nil, err
		}
		lvl := c.alloc()
		id := n.Name
		body, err := convertExpr(mctx, sc.with(n.Name, lvl), c, n.Body)
		if err != nil {
			return nil, err
		}
		return backend.NewLet(analysis.Empty(), zeroSpan, &id, lvl, binding, body), nil

	case SurfaceLetRec:
		return convertLetRec(mctx, sc, c, n)

	case SurfaceEffectBind:
		m, err := convertExpr(mctx, sc, c, n.M)
		if err != nil {
			return nil, err
		}
		lvl := c.alloc()
		id := n.Name
		kont, err := convertExpr(mctx, sc.with(n.Name, lvl), c, n.Kont)
		if err != nil {
			return nil, err
		}
		return backend.NewEffectBind(analysis.Empty(), zeroSpan, &id, lvl, m, kont), nil

	case SurfaceEffectPure:
		value, err := convertExpr(mctx, sc, c, n.Value)
		if err != nil {
			return nil, err
		}
		return backend.NewEffectPure(analysis.Empty(), zeroSpan, value), nil

	case SurfaceAccessor:
		expr, err := convertExpr(mctx, sc, c, n.Expr)
		if err != nil {
			return nil, err
		}
		return backend.NewAccessorExpr(analysis.Empty(), zeroSpan, expr, n.Acc), nil

	case SurfaceUpdate:
		expr, err := convertExpr(mctx, sc, c, n.Expr)
		if err != nil {
			return nil, err
		}
		props, err := convertProps(mctx, sc, c, n.Props)
		if err != nil {
			return nil, err
		}
		return backend.NewUpdate(analysis.Empty(), zeroSpan, expr, props), nil

	case SurfaceBranch:
		pairs := make([]backend.BranchPair, len(n.Pairs))
		for i, p := range n.Pairs {
			guard, err := convertExpr(mctx, sc, c, p.Guard)
			if err != nil {
				return nil, err
			}
			body, err := convertExpr(mctx, sc, c, p.Body)
			if err != nil {
				return nil, err
			}
			pairs[i] = backend.BranchPair{Guard: guard, Body: body}
		}
		var def backend.Expr
		if n.Default != nil {
			var err error
			def, err = convertExpr(mctx, sc, c, n.Default)
			if err != nil {
				return nil, err
			}
		}
		return backend.NewBranch(analysis.Empty(), zeroSpan, pairs, def), nil

	case SurfacePrimOp:
		args, err := convertAll(mctx, sc, c, n.Args)
		if err != nil {
			return nil, err
		}
		return backend.NewPrimOp(analysis.Empty(), zeroSpan, n.Op, args), nil

	case SurfaceFail:
		return backend.NewFail(analysis.Empty(), zeroSpan, n.Msg), nil

	case SurfaceCtorDef:
		return backend.NewCtorDef(analysis.Empty(), zeroSpan, n.CtorType, n.TyName, n.Tag, n.Fields), nil

	case SurfaceCtorSaturated:
		fields := make([]backend.CtorField, len(n.Fields))
		for i, f := range n.Fields {
			val, err := convertExpr(mctx, sc, c, f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = backend.CtorField{Name: f.Name, Value: val}
		}
		return backend.NewCtorSaturated(analysis.Empty(), zeroSpan, n.Q, n.CtorType, n.TyName, n.Tag, fields), nil

	case SurfaceNewtypeApp:
		return convertExpr(mctx, sc, c, n.Arg)

	default:
		return nil, diag.NewError(diag.CodeConvertUnsupportedForm, ident.Qualified{}, "Convert: unhandled surface form")
	}
}

func convertProps(mctx moduleCtx, sc scope, c *levelCounter, props []SurfaceProp) ([]backend.Prop, error) {
	out := make([]backend.Prop, len(props))
	for i, p := range props {
		val, err := convertExpr(mctx, sc, c, p.Value)
		if err != nil {
			return nil, err
		}
		out[i] = backend.Prop{Key: p.Key, Value: val}
	}
	return out, nil
}

func bindParams(sc scope, c *levelCounter, names []ident.Ident) ([]backend.Param, scope) {
	params := make([]backend.Param, len(names))
	cur := sc
	for i, name := range names {
		lvl := c.alloc()
		id := name
		params[i] = backend.Param{Id: &id, Lvl: lvl}
		cur = cur.with(name, lvl)
	}
	return params, cur
}

func convertLetRec(mctx moduleCtx, sc scope, c *levelCounter, n SurfaceLetRec) (backend.Expr, error) {
	if len(n.Bindings) == 0 {
		return nil, diag.NewError(diag.CodeEvalEmptyRecGroup, ident.Qualified{}, "Convert: LetRec with no bindings")
	}
	inner := sc
	lvls := make([]ident.Level, len(n.Bindings))
	for i, b := range n.Bindings {
		lvls[i] = c.alloc()
		inner = inner.with(b.Name, lvls[i])
	}
	bindings := make([]backend.RecBinding, len(n.Bindings))
	for i, b := range n.Bindings {
		value, err := convertExpr(mctx, inner, c, b.Binding)
		if err != nil {
			return nil, err
		}
		id := b.Name
		bindings[i] = backend.RecBinding{Id: &id, Lvl: lvls[i], Value: value}
	}
	body, err := convertExpr(mctx, inner, c, n.Body)
	if err != nil {
		return nil, err
	}
	return backend.NewLetRec(analysis.Empty(), zeroSpan, bindings, body), nil
}
