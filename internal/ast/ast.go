// Package ast holds the minimal position bookkeeping shared by the rest
// of the module. The surface-language AST itself is produced by the
// front-end parser, which is out of scope here (see spec.md §1); all we
// need is a stable source span to thread through Convert and into
// diagnostics.
package ast

import "fmt"

// Pos is a single point in a source file.
type Pos struct {
	Line   int
	Column int
	File   string
	Offset int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a half-open range [Start, End) in a source file.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%d:%d", s.Start, s.End.Line, s.End.Column)
}
