package evalcore

import (
	"sort"

	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/diag"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/primop"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/semval"
)

// Eval interprets a build-IR node into a semantic value under env
// (spec.md §4.2). It is total on well-formed IR; malformed IR (an
// unbound local, an empty recursive group) panics with a *diag.Error
// rather than returning one, the same split the teacher uses between
// ordinary errors and "should never happen" invariant violations —
// callers driving a full Optimize pass recover at that boundary,
// mirroring internal/parser's recover-at-entry-point style.
func Eval(env Env, expr backend.Expr) semval.Sem {
	switch e := expr.(type) {
	case backend.Var:
		return evalExtern(env, e.Q, nil)

	case backend.Local:
		return lookupLocal(env, e.Id, e.Lvl)

	case backend.Lit:
		return semval.NeutLit{Value: evalLiteral(env, e.Value)}

	case backend.Fail:
		return semval.NeutFail{Msg: e.Msg}

	case backend.App:
		args := make([]semval.Sem, len(e.Args))
		for i, a := range e.Args {
			args[i] = Eval(env, a)
		}
		return evalApp(env, Eval(env, e.Head), args)

	case backend.Abs:
		return buildLam(env, e.Params, e.Body)

	case backend.UncurriedAbs:
		return semval.MkFnV{Chain: buildMkFnChain(env, e.Params, e.Body)}

	case backend.UncurriedEffectAbs:
		return semval.MkEffectFnV{Chain: buildMkFnChain(env, e.Params, e.Body)}

	case backend.UncurriedApp:
		args := make([]semval.Sem, len(e.Args))
		for i, a := range e.Args {
			args[i] = Eval(env, a)
		}
		return semval.NeutUncurriedApp{Head: Eval(env, e.Head), Args: args}

	case backend.UncurriedEffectApp:
		args := make([]semval.Sem, len(e.Args))
		for i, a := range e.Args {
			args[i] = Eval(env, a)
		}
		return semval.NeutUncurriedEffectApp{Head: Eval(env, e.Head), Args: args}

	case backend.Let:
		value := Eval(env, e.Binding)
		return semval.Let{
			Id:    e.Id,
			Value: value,
			Kont: func(v semval.Sem) semval.Sem {
				return Eval(env.WithOne(e.Lvl, v), e.Body)
			},
		}

	case backend.LetRec:
		return evalLetRec(env, e)

	case backend.EffectBind:
		return semval.EffectBind{
			Id: e.Id,
			M:  Eval(env, e.M),
			Kont: func(v semval.Sem) semval.Sem {
				return Eval(env.WithOne(e.Lvl, v), e.Kont)
			},
		}

	case backend.EffectPure:
		return semval.EffectPure{Value: Eval(env, e.Value)}

	case backend.AccessorExpr:
		return evalAccessor(env, Eval(env, e.Expr), e.Acc)

	case backend.Update:
		props := make([]semval.NeutProp, len(e.Props))
		for i, p := range e.Props {
			props[i] = semval.NeutProp{Key: p.Key, Value: Eval(env, p.Value)}
		}
		return evalUpdate(env, Eval(env, e.Expr), props)

	case backend.Branch:
		return evalBranches(env, e.Pairs, e.Default)

	case backend.PrimOpExpr:
		args := make([]semval.Sem, len(e.Args))
		for i, a := range e.Args {
			args[i] = Eval(env, a)
		}
		return evalPrimOp(env, e.Op, args)

	case backend.CtorDef:
		return semval.NeutCtorDef{
			Q:        ident.NewQualified(env.CurrentModule, e.Tag),
			CtorType: e.CtorType,
			TyName:   e.TyName,
			Tag:      e.Tag,
			Fields:   e.Fields,
		}

	case backend.CtorSaturated:
		fields := make([]semval.NeutField, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = semval.NeutField{Name: f.Name, Value: Eval(env, f.Value)}
		}
		return semval.NeutData{Q: e.Q, CtorType: e.CtorType, TyName: e.TyName, Tag: e.Tag, Fields: fields}

	case backend.RewriteInline:
		v := Eval(env, e.Binding)
		return Eval(env.WithOne(e.Lvl, v), e.Body)

	case backend.RewriteLetAssoc:
		cur := env
		for _, b := range e.Bindings {
			v := Eval(cur, b.Binding)
			cur = cur.WithOne(b.Lvl, v)
		}
		return Eval(cur, e.Body)

	case backend.RewriteStop:
		return semval.NeutStop{Q: e.Q}

	default:
		panic(diag.NewError(diag.CodeEvalUnboundLocal, ident.Qualified{}, "Eval: unhandled build-IR node"))
	}
}

func lookupLocal(env Env, id *ident.Ident, lvl ident.Level) semval.Sem {
	binding, ok := env.Locals[lvl]
	if !ok {
		panic(diag.NewError(diag.CodeEvalUnboundLocal, ident.Qualified{}, "unbound local at level "+lvl.String()))
	}
	switch b := binding.(type) {
	case OneBinding:
		return b.Value
	case GroupBinding:
		for _, m := range b.Members {
			if m.Id != nil && id != nil && *m.Id == *id {
				return m.Thunk.Force()
			}
		}
		if len(b.Members) == 1 {
			return b.Members[0].Thunk.Force()
		}
		panic(diag.NewError(diag.CodeEvalUnboundLocal, ident.Qualified{}, "unbound group member at level "+lvl.String()))
	default:
		panic(diag.NewError(diag.CodeEvalUnboundLocal, ident.Qualified{}, "malformed local binding"))
	}
}

func evalLetRec(env Env, e backend.LetRec) semval.Sem {
	if len(e.Bindings) == 0 {
		panic(diag.NewError(diag.CodeEvalEmptyRecGroup, ident.Qualified{}, "LetRec with no bindings"))
	}
	lvls := make([]ident.Level, len(e.Bindings))
	members := make([]GroupMember, len(e.Bindings))
	// The thunks close over recEnv, which is only fully populated once
	// WithGroup below runs; tying the knot this way lets a sibling's
	// rhs reference any other sibling by id through the shared group.
	var recEnv Env
	for i, b := range e.Bindings {
		lvls[i] = b.Lvl
		binding := b.Value
		members[i] = GroupMember{Id: b.Id, Thunk: semval.NewThunk(func() semval.Sem {
			return Eval(recEnv, binding)
		})}
	}
	recEnv = env.WithGroup(lvls, members)

	recBindings := make([]semval.RecBinding, len(e.Bindings))
	for i, m := range members {
		recBindings[i] = semval.RecBinding{Id: m.Id, Lvl: lvls[i], Thunk: m.Thunk}
	}
	return semval.LetRec{
		Bindings: recBindings,
		Kont: func() semval.Sem {
			return Eval(recEnv, e.Body)
		},
	}
}

func buildLam(env Env, params []backend.Param, body backend.Expr) semval.Sem {
	p := params[0]
	rest := params[1:]
	return semval.Lam{
		Id: p.Id,
		F: func(v semval.Sem) semval.Sem {
			next := env.WithOne(p.Lvl, v)
			if len(rest) == 0 {
				return Eval(next, body)
			}
			return buildLam(next, rest, body)
		},
	}
}

func buildMkFnChain(env Env, params []backend.Param, body backend.Expr) semval.MkFn {
	if len(params) == 0 {
		return semval.MkFnApplied{Value: Eval(env, body)}
	}
	p := params[0]
	rest := params[1:]
	return semval.MkFnNext{
		Id: p.Id,
		Next: func(v semval.Sem) semval.MkFn {
			return buildMkFnChain(env.WithOne(p.Lvl, v), rest, body)
		},
	}
}

func evalLiteral(env Env, lit backend.Literal) semval.NeutLiteral {
	switch l := lit.(type) {
	case backend.LitInt:
		return semval.NeutLitInt{Value: l.Value}
	case backend.LitNumber:
		return semval.NeutLitNumber{Value: l.Value}
	case backend.LitString:
		return semval.NeutLitString{Value: l.Value}
	case backend.LitChar:
		return semval.NeutLitChar{Value: l.Value}
	case backend.LitBool:
		return semval.NeutLitBool{Value: l.Value}
	case backend.LitArray:
		els := make([]semval.Sem, len(l.Elements))
		for i, el := range l.Elements {
			els[i] = Eval(env, el)
		}
		return semval.NeutLitArray{Elements: els}
	case backend.LitRecord:
		props := make([]semval.NeutProp, len(l.Props))
		for i, p := range l.Props {
			props[i] = semval.NeutProp{Key: p.Key, Value: Eval(env, p.Value)}
		}
		return semval.NeutLitRecord{Props: normalizeNeutProps(props)}
	default:
		panic(diag.NewError(diag.CodeEvalUnboundLocal, ident.Qualified{}, "unknown literal form"))
	}
}

// normalizeNeutProps re-applies invariant 3 (stable sort by key, first
// occurrence wins, spec.md invariant 3) to evaluated record props.
// backend.NormalizeProps implements the identical rule over
// backend.Prop; it can't be reused directly here without backend
// importing semval (a cycle), so the same three-line algorithm is
// duplicated over semval.NeutProp instead.
func normalizeNeutProps(props []semval.NeutProp) []semval.NeutProp {
	sorted := make([]semval.NeutProp, len(props))
	copy(sorted, props)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	seen := make(map[string]bool, len(sorted))
	out := make([]semval.NeutProp, 0, len(sorted))
	for _, p := range sorted {
		if seen[p.Key] {
			continue
		}
		seen[p.Key] = true
		out = append(out, p)
	}
	return out
}

func evalPrimOp(env Env, op primop.Op, args []semval.Sem) semval.Sem {
	return applyPrimOp(env, op, args)
}
