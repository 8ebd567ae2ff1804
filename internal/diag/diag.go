// Package diag implements the error taxonomy and report accumulator
// shared by every optimizer phase (spec.md §7). Grounded on
// internal/errors' codes.go/report.go/json_encoder.go: a closed set of
// "XXX###" string codes by phase, an error type carrying the
// offending qualified name, and an ordered report assembled into JSON.
package diag

import (
	"fmt"

	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
)

// Code is one closed taxonomy entry. Unlike the teacher's codes.go,
// which enumerates dozens of parser/type-checker codes, this module's
// phases are narrow enough to fit in one block.
type Code string

const (
	// Convert (front-end AST -> build IR).
	CodeConvertUnsupportedForm Code = "CNV001"
	CodeConvertBadArity        Code = "CNV002"

	// Eval fatal bugs: these indicate a malformed build IR, not a
	// recoverable optimization failure.
	CodeEvalUnboundLocal    Code = "EVA001"
	CodeEvalEmptyRecGroup   Code = "EVA002"
	CodeEvalUnboundExtern   Code = "EVA003"

	// Quote.
	CodeQuoteLevelMismatch Code = "QUO001"

	// Build.
	CodeBuildInvariantViolation Code = "BLD001"

	// Optimize (fixpoint driving Eval -> Quote -> Build).
	CodeOptNonTermination Code = "OPT001"

	// Driver (cross-module).
	CodeDriverUnresolvedModule Code = "DRV001"
	CodeDriverCyclicModules    Code = "DRV002"
)

// Error is the fatal-error shape every phase raises: a code, a
// human-readable message, and the qualified declaration it occurred
// in, mirroring errors.ImportError/errors.CycleError's {Code, Message}
// shape.
type Error struct {
	Code    Code
	Message string
	Decl    ident.Qualified
	// Iteration is set only for CodeOptNonTermination: the rewrite
	// pass count reached when the limit was exceeded.
	Iteration int
}

func (e *Error) Error() string {
	if e.Iteration > 0 {
		return fmt.Sprintf("%s: %s (%s, iteration %d)", e.Code, e.Message, e.Decl, e.Iteration)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Decl)
}

func NewError(code Code, decl ident.Qualified, message string) *Error {
	return &Error{Code: code, Message: message, Decl: decl}
}

func NewNonTermination(decl ident.Qualified, iteration int) *Error {
	return &Error{Code: CodeOptNonTermination, Decl: decl, Iteration: iteration,
		Message: "rewrite limit exceeded before reaching a fixpoint"}
}

// entry is one JSON-serializable line of a Report.
type entry struct {
	Code        Code   `json:"code"`
	Message     string `json:"message"`
	Decl        string `json:"decl"`
	Iteration   int    `json:"iteration,omitempty"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// Sink accumulates non-fatal notices during a single Convert/Optimize
// pass (spec.md §6 "trace logging", §7 "diag.Sink"). It is not safe
// for concurrent use — the pipeline is single-threaded (spec.md §5).
type Sink struct {
	entries []entry
}

func NewSink() *Sink { return &Sink{} }

// Notice records a non-fatal diagnostic with an optional suggestion,
// grounded on link.LinkReport's {ResolutionTrace, Suggestions} shape.
func (s *Sink) Notice(code Code, decl ident.Qualified, message, suggestion string) {
	s.entries = append(s.entries, entry{
		Code: code, Message: message, Decl: decl.String(), Suggestion: suggestion,
	})
}

// Fatal records a fatal Error as a report entry without raising it —
// callers that need to fail the pass immediately should still return
// the *Error from their own function.
func (s *Sink) Fatal(err *Error) {
	s.entries = append(s.entries, entry{
		Code: err.Code, Message: err.Message, Decl: err.Decl.String(), Iteration: err.Iteration,
	})
}

// Empty reports whether no diagnostics were recorded.
func (s *Sink) Empty() bool { return len(s.entries) == 0 }

// Report is the ordered, JSON-serializable view of a Sink's contents
// (spec.md §7 "diag.Report"), grounded on errors/json_encoder.go's
// conventions.
type Report struct {
	Diagnostics []entry `json:"diagnostics"`
}

func (s *Sink) Report() Report {
	out := make([]entry, len(s.entries))
	copy(out, s.entries)
	return Report{Diagnostics: out}
}
