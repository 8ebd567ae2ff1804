// Package evalcore implements Eval (spec.md §4.2): interpreting build
// IR into semantic values under an Env, by-need forcing of thunks, and
// extern dispatch against cached cross-module implementations.
//
// Grounded on internal/eval/env.go's environment-threading style from
// the teacher (values looked up by binder rather than substituted
// eagerly), generalized from a name-keyed scope chain to a
// level-keyed one, since normalization-by-evaluation needs locals
// addressed by de Bruijn level rather than by name.
package evalcore

import (
	"github.com/sigma-andex/purescript-backend-optimizer/internal/directive"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/semval"
)

// LocalBinding is one slot of Env.Locals: either a single value bound
// by an Abs/Let parameter (One), or a mutually recursive group of
// named thunks sharing one binding site (Group) — spec.md §3
// "LocalBinding = One(Sem) | Group(nonEmpty([(id, thunk(Sem))]))".
type LocalBinding interface{ localBindingNode() }

type OneBinding struct{ Value semval.Sem }

type GroupMember struct {
	Id    *ident.Ident
	Thunk *semval.Thunk[semval.Sem]
}

type GroupBinding struct{ Members []GroupMember }

func (OneBinding) localBindingNode()   {}
func (GroupBinding) localBindingNode() {}

// ExternLookup dispatches an extern reference to a semantic value,
// trying foreign semantics first and cached implementations second
// (spec.md §4.2.6). ok is false on a miss, in which case the caller
// builds a fallback Extern.
type ExternLookup func(env Env, q ident.Qualified, spine []semval.ExternSpine) (semval.Sem, bool)

// Env is the evaluation environment threaded through Eval (spec.md
// "Environment (Env)"). It is a plain value: every With* method
// returns a new Env, never mutating the receiver's maps in place, so
// that a closure captured at one point in evaluation cannot observe
// bindings introduced later at a different call site.
type Env struct {
	CurrentModule ident.ModuleName
	EvalExtern    ExternLookup
	Locals        map[ident.Level]LocalBinding
	Directives    *directive.Table
	Try           *semval.Try
}

// NewEnv builds an empty environment for evaluating one top-level
// declaration, per spec.md §4.7 ("build Env with empty locals").
func NewEnv(mod ident.ModuleName, lookup ExternLookup, directives *directive.Table) Env {
	return Env{
		CurrentModule: mod,
		EvalExtern:    lookup,
		Locals:        map[ident.Level]LocalBinding{},
		Directives:    directives,
	}
}

func (e Env) cloneLocals() map[ident.Level]LocalBinding {
	out := make(map[ident.Level]LocalBinding, len(e.Locals)+1)
	for k, v := range e.Locals {
		out[k] = v
	}
	return out
}

// WithOne binds a single value at lvl.
func (e Env) WithOne(lvl ident.Level, v semval.Sem) Env {
	locals := e.cloneLocals()
	locals[lvl] = OneBinding{Value: v}
	e.Locals = locals
	return e
}

// WithGroup binds a mutually recursive group at every member's lvl,
// all sharing the same Members slice so a reference from any sibling
// can find any other by id.
func (e Env) WithGroup(lvls []ident.Level, members []GroupMember) Env {
	locals := e.cloneLocals()
	binding := GroupBinding{Members: members}
	for _, lvl := range lvls {
		locals[lvl] = binding
	}
	e.Locals = locals
	return e
}

// WithTry replaces the pending else-chain (spec.md "Branch
// continuation threading").
func (e Env) WithTry(try *semval.Try) Env {
	e.Try = try
	return e
}
