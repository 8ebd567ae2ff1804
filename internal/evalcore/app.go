package evalcore

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/semval"
)

// Apply exposes evalApp to callers outside this package (the driver's
// cross-module Impl inliner, spec.md §4.2.6 "evalExternFromImpl"),
// which must apply an already-evaluated implementation body to a
// spine's pending arguments the same way ordinary application does.
func Apply(env Env, h semval.Sem, args []semval.Sem) semval.Sem {
	return evalApp(env, h, args)
}

// evalApp implements spec.md §4.2.1: consume h against args, pushing
// the application under Lam closures and SemLets (letting the
// argument's sharing survive), coalescing into an Extern's spine, or
// else producing a flattened NeutApp.
func evalApp(env Env, h semval.Sem, args []semval.Sem) semval.Sem {
	if len(args) == 0 {
		return h
	}
	switch head := h.(type) {
	case semval.Lam:
		a := args[0]
		rest := args[1:]
		return semval.Let{
			Value: a,
			Kont: func(v semval.Sem) semval.Sem {
				return evalApp(env, head.F(v), rest)
			},
		}

	case semval.Extern:
		return evalApp(env, evalExtern(env, head.Q, append(append([]semval.ExternSpine{}, head.Spine...), semval.ExternApp{Args: args})), nil)

	case semval.Let:
		kont := head.Kont
		return semval.Let{
			Id:    head.Id,
			Value: head.Value,
			Kont: func(v1 semval.Sem) semval.Sem {
				inner := kont(v1)
				return semval.Let{
					Value: inner,
					Kont: func(f semval.Sem) semval.Sem {
						return evalApp(env, f, args)
					},
				}
			},
		}

	case semval.NeutApp:
		merged := make([]semval.Sem, 0, len(head.Args)+len(args))
		merged = append(merged, head.Args...)
		merged = append(merged, args...)
		return semval.NeutApp{Head: head.Head, Args: merged}

	default:
		return semval.NeutApp{Head: h, Args: args}
	}
}

// evalAccessor implements spec.md §4.2.2.
func evalAccessor(env Env, e semval.Sem, acc backend.Accessor) semval.Sem {
	switch v := e.(type) {
	case semval.Let:
		kont := v.Kont
		return semval.Let{Id: v.Id, Value: v.Value, Kont: func(x semval.Sem) semval.Sem {
			return evalAccessor(env, kont(x), acc)
		}}

	case semval.Extern:
		return evalExtern(env, v.Q, append(append([]semval.ExternSpine{}, v.Spine...), semval.ExternAccessor{Acc: acc}))

	case semval.NeutLit:
		switch lit := v.Value.(type) {
		case semval.NeutLitRecord:
			if gp, ok := acc.(backend.GetProp); ok {
				for _, p := range lit.Props {
					if p.Key == gp.Key {
						return p.Value
					}
				}
			}
		case semval.NeutLitArray:
			if gi, ok := acc.(backend.GetIndex); ok {
				if gi.Index >= 0 && gi.Index < len(lit.Elements) {
					return lit.Elements[gi.Index]
				}
			}
		}

	case semval.NeutData:
		if go_, ok := acc.(backend.GetOffset); ok {
			if go_.Index >= 0 && go_.Index < len(v.Fields) {
				return v.Fields[go_.Index].Value
			}
		}
	}
	return semval.NeutAccessor{Expr: e, Acc: acc}
}

// evalUpdate implements spec.md §4.2.3.
func evalUpdate(env Env, e semval.Sem, props []semval.NeutProp) semval.Sem {
	if let, ok := e.(semval.Let); ok {
		kont := let.Kont
		return semval.Let{Id: let.Id, Value: let.Value, Kont: func(x semval.Sem) semval.Sem {
			return evalUpdate(env, kont(x), props)
		}}
	}
	if lit, ok := e.(semval.NeutLit); ok {
		if rec, ok := lit.Value.(semval.NeutLitRecord); ok {
			merged := make([]semval.NeutProp, 0, len(rec.Props)+len(props))
			merged = append(merged, props...)
			merged = append(merged, rec.Props...)
			return semval.NeutLit{Value: semval.NeutLitRecord{Props: normalizeNeutProps(merged)}}
		}
	}
	return semval.NeutUpdate{Expr: e, Props: props}
}
