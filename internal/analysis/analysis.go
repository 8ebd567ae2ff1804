// Package analysis implements the per-node Analysis record described
// in spec.md §4.1: a monoid that tracks how expensive a node is to
// duplicate, how its formal parameters and bound levels are used, what
// modules it depends on, and whether it still contains a pending
// rewrite. The rewriter (internal/build) and the inline-decision policy
// read these fields directly, so the tier ordering and the exact
// composition rules below must be preserved.
package analysis

import "github.com/sigma-andex/purescript-backend-optimizer/internal/ident"

// Complexity buckets a node by how safe it is to duplicate at a use
// site. The ordering is significant: Trivial < Deref < KnownSize <
// NonTrivial, and the rewriter compares tiers with plain <=/< (spec.md
// §4.1, §4.4 rule 4).
type Complexity int

const (
	// Trivial nodes (variables, literals) can always be duplicated.
	Trivial Complexity = iota
	// Deref nodes do one level of indirection (a projection of a
	// trivial value) — cheap, but not free.
	Deref
	// KnownSize nodes have a statically bounded cost (a saturated
	// constructor or small record of trivial fields).
	KnownSize
	// NonTrivial nodes may perform arbitrary work.
	NonTrivial
)

func (c Complexity) String() string {
	switch c {
	case Trivial:
		return "Trivial"
	case Deref:
		return "Deref"
	case KnownSize:
		return "KnownSize"
	default:
		return "NonTrivial"
	}
}

// max returns the more conservative (higher) of two complexity tiers.
func max(a, b Complexity) Complexity {
	if a > b {
		return a
	}
	return b
}

// ArgUsage describes how a single formal parameter of a declaration is
// used in its body: whether it is read at all, and whether every use
// is in a "Deref"-or-cheaper position (which lets later passes unbox
// or specialize the parameter).
type ArgUsage struct {
	Used        bool
	OnlyTrivial bool
}

// Usage records how many times a bound level is referenced, and
// whether any of those references occur underneath an abstraction
// boundary (a Lam/Abs introduced between the binding site and the use
// site). A captured use cannot be inlined for free: duplicating the
// binding's right-hand side would re-run it once per call of the
// enclosing closure instead of once per enclosing let (spec.md §4.4
// rule 4, §9 "closures as host functions").
type Usage struct {
	Count    int
	Captured bool
}

// Analysis is the monoid every build-IR node carries alongside its
// syntactic shape.
type Analysis struct {
	Complexity Complexity
	Size       int
	Args       []ArgUsage
	Usages     map[ident.Level]Usage
	Deps       map[ident.ModuleName]struct{}
	Rewrite    bool
}

// Empty is the identity element of the Then monoid.
func Empty() Analysis {
	return Analysis{Complexity: Trivial}
}

// Leaf builds the analysis for a node with no children: a fixed
// complexity tier and a unit size.
func Leaf(c Complexity) Analysis {
	return Analysis{Complexity: c, Size: 1}
}

// VarUsage builds the analysis for a single reference to a bound
// level: Deref complexity, unit size, one uncaptured use of that
// level.
func VarUsage(lvl ident.Level) Analysis {
	return Analysis{
		Complexity: Deref,
		Size:       1,
		Usages:     map[ident.Level]Usage{lvl: {Count: 1}},
	}
}

// DepOn builds the analysis for a reference to a qualified global in
// another module: Deref complexity, unit size, one module dependency.
func DepOn(mod ident.ModuleName) Analysis {
	return Analysis{
		Complexity: Deref,
		Size:       1,
		Deps:       map[ident.ModuleName]struct{}{mod: {}},
	}
}

func cloneUsages(m map[ident.Level]Usage) map[ident.Level]Usage {
	if len(m) == 0 {
		return nil
	}
	out := make(map[ident.Level]Usage, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneDeps(m map[ident.ModuleName]struct{}) map[ident.ModuleName]struct{} {
	if len(m) == 0 {
		return nil
	}
	out := make(map[ident.ModuleName]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

// Then sequentially composes two analyses, as when combining the
// analyses of sibling subexpressions (e.g. an App's head and its
// arguments, or a Branch's guard and body). Sizes add; complexity
// takes the more conservative tier; level usages and module deps
// union, with usage counts summing and the captured bit OR'd.
func (a Analysis) Then(b Analysis) Analysis {
	out := Analysis{
		Complexity: max(a.Complexity, b.Complexity),
		Size:       a.Size + b.Size,
		Rewrite:    a.Rewrite || b.Rewrite,
	}
	out.Usages = cloneUsages(a.Usages)
	for lvl, u := range b.Usages {
		if out.Usages == nil {
			out.Usages = make(map[ident.Level]Usage)
		}
		prev := out.Usages[lvl]
		out.Usages[lvl] = Usage{
			Count:    prev.Count + u.Count,
			Captured: prev.Captured || u.Captured,
		}
	}
	out.Deps = cloneDeps(a.Deps)
	for mod := range b.Deps {
		if out.Deps == nil {
			out.Deps = make(map[ident.ModuleName]struct{})
		}
		out.Deps[mod] = struct{}{}
	}
	if len(a.Args) >= len(b.Args) {
		out.Args = mergeArgs(a.Args, b.Args)
	} else {
		out.Args = mergeArgs(b.Args, a.Args)
	}
	return out
}

// mergeArgs merges two ArgUsage slices positionally; long is assumed
// to be at least as long as short.
func mergeArgs(long, short []ArgUsage) []ArgUsage {
	if len(long) == 0 {
		return nil
	}
	out := make([]ArgUsage, len(long))
	copy(out, long)
	for i, u := range short {
		out[i] = ArgUsage{
			Used:        out[i].Used || u.Used,
			OnlyTrivial: out[i].OnlyTrivial && u.OnlyTrivial,
		}
	}
	return out
}

// Bound removes a level from the usages map, as when quoting the
// binding site that introduced it — the level no longer exists above
// this point, so no further analysis should report uses of it
// (spec.md invariant 5).
func (a Analysis) Bound(lvl ident.Level) Analysis {
	if _, ok := a.Usages[lvl]; !ok {
		return a
	}
	out := a
	out.Usages = cloneUsages(a.Usages)
	delete(out.Usages, lvl)
	return out
}

// Power scales every usage count by n, as when an expression's
// analysis is folded into a context where it is evaluated n times
// (e.g. a branch arm whose duplication the rewriter is considering).
func (a Analysis) Power(n int) Analysis {
	if n == 1 || len(a.Usages) == 0 {
		return a
	}
	out := a
	out.Usages = make(map[ident.Level]Usage, len(a.Usages))
	for lvl, u := range a.Usages {
		out.Usages[lvl] = Usage{Count: u.Count * n, Captured: u.Captured}
	}
	return out
}

// UnderAbs marks every current usage as captured, modelling the
// analysis crossing one abstraction boundary on its way outward
// (spec.md §4.4 rule 4, §9).
func (a Analysis) UnderAbs() Analysis {
	if len(a.Usages) == 0 {
		return a
	}
	out := a
	out.Usages = make(map[ident.Level]Usage, len(a.Usages))
	for lvl, u := range a.Usages {
		out.Usages[lvl] = Usage{Count: u.Count, Captured: true}
	}
	return out
}

// WithRewrite sets the rewrite-pending bit.
func (a Analysis) WithRewrite() Analysis {
	out := a
	out.Rewrite = true
	return out
}

// UsageOf returns the usage recorded for lvl, or the zero Usage if
// lvl is unused.
func (a Analysis) UsageOf(lvl ident.Level) Usage {
	return a.Usages[lvl]
}
