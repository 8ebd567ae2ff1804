package driver

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/directive"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/evalcore"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/semval"
)

// ExternFromImpl builds the evalcore.ExternLookup that resolves a
// module-level reference against already-published implementations
// (spec.md §4.2.6 "evalExternFromImpl"), the decision evalExtern
// defers to once a miss falls through the directive short-circuits.
func ExternFromImpl(impls Implementations) evalcore.ExternLookup {
	return func(env evalcore.Env, q ident.Qualified, spine []semval.ExternSpine) (semval.Sem, bool) {
		entry, ok := impls.Lookup(q)
		if !ok {
			return nil, false
		}
		switch impl := entry.Impl.(type) {
		case ImplCtor:
			return inlineCtor(q, impl, spine)
		case ImplExpr:
			return inlineExpr(env, impl.Group, impl.Expr, spine)
		case ImplRec:
			return inlineExpr(env, impl.Group, impl.Expr, spine)
		case ImplDict:
			return inlineDict(env, impl, spine)
		default:
			return nil, false
		}
	}
}

func inlineCtor(q ident.Qualified, impl ImplCtor, spine []semval.ExternSpine) (semval.Sem, bool) {
	if len(spine) == 0 {
		return semval.NeutData{Q: q, CtorType: impl.CtorType, TyName: impl.TyName, Tag: impl.Tag}, true
	}
	if len(spine) != 1 {
		return nil, false
	}
	app, ok := spine[0].(semval.ExternApp)
	if !ok || len(app.Args) != len(impl.Fields) {
		return nil, false
	}
	fields := make([]semval.NeutField, len(impl.Fields))
	for i, name := range impl.Fields {
		fields[i] = semval.NeutField{Name: name, Value: app.Args[i]}
	}
	return semval.NeutData{Q: q, CtorType: impl.CtorType, TyName: impl.TyName, Tag: impl.Tag, Fields: fields}, true
}

func inlineExpr(env evalcore.Env, group []ident.Qualified, expr backend.Expr, spine []semval.ExternSpine) (semval.Sem, bool) {
	if len(spine) == 0 {
		switch expr.(type) {
		case backend.Var:
			return withGroupStop(env, group, expr), true
		case backend.Lit:
			if shouldInlineExternLiteral(expr.(backend.Lit)) {
				return withGroupStop(env, group, expr), true
			}
		}
		return nil, false
	}
	app, ok := spine[len(spine)-1].(semval.ExternApp)
	if !ok || len(spine) != 1 || !shouldInlineExternApp(app) {
		return nil, false
	}
	return evalcore.Apply(env, withGroupStop(env, group, expr), app.Args), true
}

func inlineDict(env evalcore.Env, impl ImplDict, spine []semval.ExternSpine) (semval.Sem, bool) {
	if len(spine) == 0 || len(spine) > 2 {
		return nil, false
	}
	acc, ok := spine[0].(semval.ExternAccessor)
	if !ok {
		return nil, false
	}
	gp, ok := acc.Acc.(backend.GetProp)
	if !ok {
		return nil, false
	}
	var field *ImplDictProp
	for i := range impl.Props {
		if impl.Props[i].Key == gp.Key {
			field = &impl.Props[i]
			break
		}
	}
	if field == nil {
		return nil, false
	}
	if len(spine) == 1 {
		if !shouldInlineExternAccessor(*field) {
			return nil, false
		}
		return withGroupStop(env, impl.Group, field.Expr), true
	}
	app, ok := spine[1].(semval.ExternApp)
	if !ok || !shouldInlineExternApp(app) {
		return nil, false
	}
	return evalcore.Apply(env, withGroupStop(env, impl.Group, field.Expr), app.Args), true
}

// withGroupStop prevents mutual recursion through an inlined
// declaration's own recursive group from unfolding forever: every
// sibling in group is evaluated under a directive that forces it back
// to a NeutStop the moment it is referenced again during this
// inlining (spec.md §4.2.6 "local addStop on the whole group").
func withGroupStop(env evalcore.Env, group []ident.Qualified, expr backend.Expr) semval.Sem {
	if len(group) == 0 {
		return evalcore.Eval(env, expr)
	}
	table := env.Directives.Clone()
	for _, q := range group {
		table.SetDirective(q, directive.InlineNever{})
	}
	env.Directives = table
	return evalcore.Eval(env, expr)
}

// shouldInlineExternLiteral restricts unconditional literal inlining
// to scalars: arrays and records have unbounded size, so they defer
// to the ordinary Let-inlining policy instead of inlining at every
// call site regardless of size.
func shouldInlineExternLiteral(lit backend.Lit) bool {
	switch lit.Value.(type) {
	case backend.LitInt, backend.LitNumber, backend.LitString, backend.LitChar, backend.LitBool:
		return true
	default:
		return false
	}
}

// shouldInlineExternApp and shouldInlineExternAccessor gate
// cross-module inlining of a non-trivial expression applied to or
// accessed with a spine. evalExtern never reaches here for an
// InlineNever binding; InlineAlways and InlineArity are not checked
// anywhere on this path, so call-site shape is the only restriction
// and these gates accept every call.
func shouldInlineExternApp(semval.ExternApp) bool { return true }

func shouldInlineExternAccessor(ImplDictProp) bool { return true }
