// Package ident defines the identifier forms shared by every other
// package in this module: opaque names, segmented module paths,
// qualified globals, and de Bruijn levels (spec.md §3 "Identifier
// forms").
package ident

import (
	"strconv"
	"strings"
)

// Ident is an opaque, unique local name. Two Idents are the same
// binder iff they compare equal; the zero value is never a valid
// binder name produced by Convert.
type Ident string

// String returns the raw name, mostly useful for diagnostics.
func (i Ident) String() string { return string(i) }

// ModuleName is an opaque, segmented module path, e.g. "Data.Array".
type ModuleName string

// NewModuleName builds a ModuleName from its dot-separated segments.
func NewModuleName(segments ...string) ModuleName {
	return ModuleName(strings.Join(segments, "."))
}

// ParseModuleName splits a dotted path into a ModuleName.
func ParseModuleName(path string) ModuleName {
	return ModuleName(path)
}

func (m ModuleName) String() string { return string(m) }

// Segments returns the dot-separated path components.
func (m ModuleName) Segments() []string {
	if m == "" {
		return []string{}
	}
	return strings.Split(string(m), ".")
}

func (m ModuleName) Equal(other ModuleName) bool {
	return m == other
}

// Qualified is a reference to a global declaration: an optional module
// (nil means "current module", e.g. a locally-defined top-level
// binding referenced before qualification) plus an identifier.
type Qualified struct {
	Module *ModuleName
	Name   Ident
}

// NewQualified builds a Qualified reference in a specific module.
func NewQualified(mod ModuleName, name Ident) Qualified {
	m := mod
	return Qualified{Module: &m, Name: name}
}

// Local builds a Qualified reference with no module (resolved against
// the "current module" by the caller).
func Local(name Ident) Qualified {
	return Qualified{Name: name}
}

func (q Qualified) String() string {
	if q.Module == nil {
		return string(q.Name)
	}
	return q.Module.String() + "." + string(q.Name)
}

// Equal compares two Qualified references structurally.
func (q Qualified) Equal(other Qualified) bool {
	if q.Name != other.Name {
		return false
	}
	if (q.Module == nil) != (other.Module == nil) {
		return false
	}
	if q.Module == nil {
		return true
	}
	return q.Module.Equal(*other.Module)
}

// Level is a de Bruijn *level* — counted from the outermost binder
// inward, stable across body motion (unlike a de Bruijn index, which
// counts from the use site outward and shifts when an expression
// moves). Levels are allocated monotonically per declaration by the
// quoter (spec.md §4.3).
type Level uint64

func (l Level) String() string {
	return "#" + strconv.FormatUint(uint64(l), 10)
}
