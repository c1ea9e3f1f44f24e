// vm - error handling with stack traces.
package vm

import (
	"fmt"
	"strings"

	"github.com/caiquetorres/lumi/pkg/span"
)

// RuntimeErrorKind tags the variant of a RuntimeError. The set is
// exhaustive; no other runtime error kind is introduced anywhere in the
// evaluator.
type RuntimeErrorKind int

// Runtime error kinds.
const (
	Custom RuntimeErrorKind = iota
	SymbolNotFound
	CannotReadProperty
	InvalidBinaryOperands
	SymbolNotCallable
	InvalidInstantiation
)

func (k RuntimeErrorKind) String() string {
	switch k {
	case Custom:
		return "error"
	case SymbolNotFound:
		return "symbol not found"
	case CannotReadProperty:
		return "cannot read property"
	case InvalidBinaryOperands:
		return "invalid binary operands"
	case SymbolNotCallable:
		return "symbol not callable"
	case InvalidInstantiation:
		return "invalid instantiation"
	default:
		return "unknown error"
	}
}

// RuntimeError is a fatal, unrecoverable error raised by the evaluator.
// There is no user-level try/catch in Lumi: execution stops at the first
// RuntimeError and it propagates out of Run. Every kind carries the
// offending span and a snapshot of the call stack's trace entries,
// captured innermost-first.
type RuntimeError struct {
	Kind RuntimeErrorKind

	// Custom
	Message string
	// SymbolNotFound, SymbolNotCallable
	Name string
	// CannotReadProperty
	ClassName string
	Prop      string

	Span  span.Span
	Trace []Trace
}

// newRuntimeError builds a RuntimeError of kind Custom with a formatted
// message.
func newRuntimeError(sp span.Span, trace []Trace, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: Custom, Message: fmt.Sprintf(format, args...), Span: sp, Trace: trace}
}

func newSymbolNotFound(sp span.Span, trace []Trace, name string) *RuntimeError {
	return &RuntimeError{Kind: SymbolNotFound, Name: name, Span: sp, Trace: trace}
}

func newCannotReadProperty(sp span.Span, trace []Trace, class, prop string) *RuntimeError {
	return &RuntimeError{Kind: CannotReadProperty, ClassName: class, Prop: prop, Span: sp, Trace: trace}
}

func newInvalidBinaryOperands(sp span.Span, trace []Trace) *RuntimeError {
	return &RuntimeError{Kind: InvalidBinaryOperands, Span: sp, Trace: trace}
}

func newSymbolNotCallable(sp span.Span, trace []Trace, name string) *RuntimeError {
	return &RuntimeError{Kind: SymbolNotCallable, Name: name, Span: sp, Trace: trace}
}

func newInvalidInstantiation(sp span.Span, trace []Trace) *RuntimeError {
	return &RuntimeError{Kind: InvalidInstantiation, Span: sp, Trace: trace}
}

// Headline renders the kind-specific one-line description of this
// error, with no location or trace information - the shared text the
// plain-text Error() string and pkg/diagnostics' colorized renderer
// both build on.
func (e *RuntimeError) Headline() string { return e.shortMessage() }

// shortMessage renders the kind-specific one-line description used as
// both Error()'s summary and the diagnostic's headline message.
func (e *RuntimeError) shortMessage() string {
	switch e.Kind {
	case Custom:
		return e.Message
	case SymbolNotFound:
		return fmt.Sprintf("undefined symbol %q", e.Name)
	case CannotReadProperty:
		return fmt.Sprintf("class %s has no property %q", e.ClassName, e.Prop)
	case InvalidBinaryOperands:
		return "invalid operands to binary operator"
	case SymbolNotCallable:
		return fmt.Sprintf("%q is not callable", e.Name)
	case InvalidInstantiation:
		return "value is not a class and cannot be instantiated"
	default:
		return "runtime error"
	}
}

// Error implements the error interface, formatting the message with a
// plain-text (uncolored) stack trace built via strings.Builder, extended
// with span information.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.shortMessage())
	fmt.Fprintf(&b, "\n--> %s", e.Span)

	if len(e.Trace) > 0 {
		for _, t := range e.Trace {
			if t.IsMethod {
				fmt.Fprintf(&b, "\n  at %s.%s %s", t.ClassName, t.FunctionName, t.CallSite)
			} else {
				fmt.Fprintf(&b, "\n  at %s %s", t.FunctionName, t.CallSite)
			}
		}
	}
	return b.String()
}
