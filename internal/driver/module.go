package driver

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/analysis"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/config"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/diag"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/directive"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/evalcore"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/freeze"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/quote"
)

// PublishedModule is one module's output from the fold (spec.md §6
// "Output per module"), scoped to what this optimizer core computes;
// a full front end would additionally thread imports/foreign lists
// this package has no input for.
type PublishedModule struct {
	Name       ident.ModuleName
	Groups     []BackendGroup
	Digest     string
	DataTypes  map[string]DataTypeInfo
}

// RunModules folds Convert/Optimize/Freeze/DeriveImpl across a
// pre-sorted module list (spec.md §4.7), threading directives and
// published implementations forward so a later module's Convert can
// resolve references into earlier ones.
func RunModules(modules []SurfaceModule, opts config.Options) ([]PublishedModule, Implementations, error) {
	directives := directive.NewTable()
	impls := Implementations{}
	limit := opts.EffectiveRewriteLimit()

	var out []PublishedModule
	for _, m := range modules {
		for name, d := range m.Directives {
			directives.SetDirective(ident.NewQualified(m.Name, name), d)
		}

		bm, err := Convert(m)
		if err != nil {
			return nil, nil, err
		}

		lookupAnno := func(q ident.Qualified) (analysis.Analysis, bool) {
			e, ok := impls.Lookup(q)
			if !ok {
				return analysis.Analysis{}, false
			}
			return e.Anno, true
		}
		ctx := quote.NewCtx(lookupAnno, diag.NewSink())
		lookupExtern := ExternFromImpl(impls)

		published := PublishedModule{Name: m.Name, DataTypes: map[string]DataTypeInfo{}}
		bindings := map[string]string{}

		for _, group := range bm.Groups {
			names := make([]ident.Qualified, len(group.Binds))
			for i, b := range group.Binds {
				names[i] = ident.NewQualified(m.Name, b.Name)
			}
			grp := []ident.Qualified{}
			if group.Recursive {
				grp = names
			}

			frozenBinds := make([]BackendBind, len(group.Binds))
			for i, b := range group.Binds {
				q := names[i]
				env := evalcore.NewEnv(m.Name, lookupExtern, directives)
				optimized, err := Optimize(ctx, env, q, b.Expr, limit)
				if err != nil {
					return nil, nil, err
				}
				body := freeze.Expr(optimized)
				frozenBinds[i] = BackendBind{Name: b.Name, Expr: body}

				impl := DeriveImpl(grp, body)
				if ctorDef, ok := impl.(ImplCtor); ok {
					published.DataTypes[ctorDef.TyName.String()] = DataTypeInfo{
						CtorType: ctorDef.CtorType,
						Fields:   ctorDef.Fields,
						Tag:      ctorDef.Tag,
					}
				}
				impls.Publish(q, ImplEntry{Anno: body.Anno(), Impl: impl})
				PropagateArity(directives, q, body)

				bindings[q.String()] = RenderExpr(body)
			}
			published.Groups = append(published.Groups, BackendGroup{Recursive: group.Recursive, Binds: frozenBinds})
		}

		published.Digest = Digest(m.Name, bindings)
		out = append(out, published)
	}
	return out, impls, nil
}
