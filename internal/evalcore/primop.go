package evalcore

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/primop"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/semval"
)

// applyPrimOp implements spec.md §4.2.5. Literal operands fold via
// internal/primop; a handful of shape-driven simplifications (double
// negation, negated comparisons, boolean absorbers/identities, and
// shallow string-append associativity) apply even when an operand
// isn't literal; everything else pushes under a surrounding SemLet or
// settles as a stuck NeutPrimOp.
func applyPrimOp(env Env, op primop.Op, args []semval.Sem) semval.Sem {
	if op.Arity() == 1 {
		return applyUnary(env, op, args[0])
	}
	return applyBinary(env, op, args[0], args[1])
}

func asLit(v semval.Sem) (semval.NeutLiteral, bool) {
	if lit, ok := v.(semval.NeutLit); ok {
		return lit.Value, true
	}
	return nil, false
}

func litToPrimop(v semval.NeutLiteral) (primop.Lit, bool) {
	switch l := v.(type) {
	case semval.NeutLitInt:
		return primop.Int(l.Value), true
	case semval.NeutLitNumber:
		return primop.Num(l.Value), true
	case semval.NeutLitString:
		return primop.Str(l.Value), true
	case semval.NeutLitChar:
		return primop.Char(l.Value), true
	case semval.NeutLitBool:
		return primop.Bool(l.Value), true
	default:
		return primop.Lit{}, false
	}
}

func primopToSem(l primop.Lit) semval.Sem {
	switch l.Kind {
	case primop.KindInt:
		return semval.NeutLit{Value: semval.NeutLitInt{Value: l.I}}
	case primop.KindNum:
		return semval.NeutLit{Value: semval.NeutLitNumber{Value: l.N}}
	case primop.KindString:
		return semval.NeutLit{Value: semval.NeutLitString{Value: l.S}}
	case primop.KindChar:
		return semval.NeutLit{Value: semval.NeutLitChar{Value: l.C}}
	case primop.KindBool:
		return semval.NeutLit{Value: semval.NeutLitBool{Value: l.B}}
	default:
		return nil
	}
}

func applyUnary(env Env, op primop.Op, a semval.Sem) semval.Sem {
	if let, ok := a.(semval.Let); ok {
		kont := let.Kont
		return semval.Let{Id: let.Id, Value: let.Value, Kont: func(v semval.Sem) semval.Sem {
			return applyUnary(env, op, kont(v))
		}}
	}

	if op == primop.OpNot {
		// not (not x) -> x
		if inner, ok := a.(semval.NeutPrimOp); ok && inner.Op == primop.OpNot {
			return inner.Args[0]
		}
		// not (x `cmp` y) -> x `negate(cmp)` y
		if inner, ok := a.(semval.NeutPrimOp); ok && inner.Op.IsComparison() {
			if neg, ok := inner.Op.Negate(); ok {
				return applyBinary(env, neg, inner.Args[0], inner.Args[1])
			}
		}
	}

	if lit, ok := asLit(a); ok {
		if pl, ok := litToPrimop(lit); ok {
			if folded, ok := primop.FoldUnary(op, pl); ok {
				return primopToSem(folded)
			}
		}
	}

	if ext, ok := a.(semval.Extern); ok {
		// Coalesce a unary op applied directly to an extern reference
		// into its spine (spec.md §4.2.5 "if the head of a unary op is
		// an Extern, coalesce").
		spine := append(append([]semval.ExternSpine{}, ext.Spine...), semval.ExternPrimOp{Op: op})
		return evalExtern(env, ext.Q, spine)
	}

	return semval.NeutPrimOp{Op: op, Args: []semval.Sem{a}}
}

func applyBinary(env Env, op primop.Op, a, b semval.Sem) semval.Sem {
	if let, ok := a.(semval.Let); ok {
		kont := let.Kont
		return semval.Let{Id: let.Id, Value: let.Value, Kont: func(v semval.Sem) semval.Sem {
			return applyBinary(env, op, kont(v), b)
		}}
	}

	switch op {
	case primop.OpAnd:
		if lit, ok := asLit(a); ok {
			if bb, ok := lit.(semval.NeutLitBool); ok {
				if !bb.Value {
					return semval.NeutLit{Value: semval.NeutLitBool{Value: false}}
				}
				return b
			}
		}
	case primop.OpOr:
		if lit, ok := asLit(a); ok {
			if bb, ok := lit.(semval.NeutLitBool); ok {
				if bb.Value {
					return semval.NeutLit{Value: semval.NeutLitBool{Value: true}}
				}
				return b
			}
		}
	case primop.OpEq, primop.OpNeq:
		if lit, ok := asLit(a); ok {
			if bb, ok := lit.(semval.NeutLitBool); ok {
				want := bb.Value
				if op == primop.OpNeq {
					want = !want
				}
				if want {
					return b
				}
				return applyUnary(env, primop.OpNot, b)
			}
		}
		if lit, ok := asLit(b); ok {
			if bb, ok := lit.(semval.NeutLitBool); ok {
				want := bb.Value
				if op == primop.OpNeq {
					want = !want
				}
				if want {
					return a
				}
				return applyUnary(env, primop.OpNot, a)
			}
		}
	case primop.OpStringAppend:
		if s := foldAssocAppend(a, b); s != nil {
			return s
		}
	}

	if litA, okA := asLit(a); okA {
		if litB, okB := asLit(b); okB {
			if plA, ok := litToPrimop(litA); ok {
				if plB, ok := litToPrimop(litB); ok {
					if folded, ok := primop.FoldBinary(op, plA, plB); ok {
						return primopToSem(folded)
					}
				}
			}
		}
	}

	return semval.NeutPrimOp{Op: op, Args: []semval.Sem{a, b}}
}

// foldAssocAppend implements evalPrimOpAssocL (spec.md §4.2.5): when
// either operand is itself a string-append whose other side is a
// literal, combine the adjacent literal runs up to two nodes deep
// while preserving the rest of the associativity shape.
func foldAssocAppend(a, b semval.Sem) semval.Sem {
	litA, aIsLit := stringLit(a)
	litB, bIsLit := stringLit(b)

	if aIsLit && bIsLit {
		return semval.NeutLit{Value: semval.NeutLitString{Value: litA + litB}}
	}

	// (x ++ "lit") ++ b, with b a literal: x ++ ("lit" ++ b)
	if inner, ok := a.(semval.NeutPrimOp); ok && inner.Op == primop.OpStringAppend && bIsLit {
		if rhsLit, ok := stringLit(inner.Args[1]); ok {
			return semval.NeutPrimOp{Op: primop.OpStringAppend, Args: []semval.Sem{
				inner.Args[0],
				semval.NeutLit{Value: semval.NeutLitString{Value: rhsLit + litB}},
			}}
		}
	}
	// a ++ (b ++ y), with a a literal: (a ++ "lit") ++ y
	if inner, ok := b.(semval.NeutPrimOp); ok && inner.Op == primop.OpStringAppend && aIsLit {
		if lhsLit, ok := stringLit(inner.Args[0]); ok {
			return semval.NeutPrimOp{Op: primop.OpStringAppend, Args: []semval.Sem{
				semval.NeutLit{Value: semval.NeutLitString{Value: litA + lhsLit}},
				inner.Args[1],
			}}
		}
	}
	return nil
}

func stringLit(v semval.Sem) (string, bool) {
	if lit, ok := asLit(v); ok {
		if s, ok := lit.(semval.NeutLitString); ok {
			return s.Value, true
		}
	}
	return "", false
}
