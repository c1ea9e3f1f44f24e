// Package diagnostics renders compile-time diagnostics and runtime
// errors through one shared formatter, so a parse error and a
// RuntimeError look the same on stderr: a headline, a "-->" location
// line, the offending source line with a caret underline, and (for
// runtime errors) a stack trace of "at Class.method file:line:col"
// entries innermost-first.
package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/caiquetorres/lumi/pkg/span"
	"github.com/caiquetorres/lumi/pkg/vm"
)

// Diagnostic is one compile-time (lexer or parser) error. Diagnostics
// are collected into a slice and all reported before exit; if any exist
// the chunk is never emitted or executed.
type Diagnostic struct {
	Message string
	Sp      span.Span
}

// Diagnostics collects compile-time errors as they're discovered.
type Diagnostics struct {
	items []Diagnostic
}

// Add records a new diagnostic.
func (d *Diagnostics) Add(sp span.Span, format string, args ...interface{}) {
	d.items = append(d.items, Diagnostic{Message: fmt.Sprintf(format, args...), Sp: sp})
}

// HasErrors reports whether any diagnostics were recorded.
func (d *Diagnostics) HasErrors() bool { return len(d.items) > 0 }

// All returns every recorded diagnostic.
func (d *Diagnostics) All() []Diagnostic { return d.items }

// Render writes every diagnostic to w, colorized if colorize is true.
func Render(w io.Writer, diags []Diagnostic, colorize bool) {
	for _, d := range diags {
		renderHeader(w, "error", d.Message, d.Sp, colorize)
		renderSourceLine(w, d.Sp, colorize)
		fmt.Fprintf(w, "%s\n\n", locationLine(d.Sp))
	}
}

// RenderRuntimeError writes a RuntimeError's full diagnostic: headline,
// location, source line with caret, and stack trace innermost-first.
func RenderRuntimeError(w io.Writer, err *vm.RuntimeError, colorize bool) {
	renderHeader(w, err.Kind.String(), err.Headline(), err.Span, colorize)
	renderSourceLine(w, err.Span, colorize)

	for _, t := range err.Trace {
		line := fmt.Sprintf("  at %s %s", t.FunctionName, t.CallSite)
		if t.IsMethod {
			line = fmt.Sprintf("  at %s.%s %s", t.ClassName, t.FunctionName, t.CallSite)
		}
		if colorize {
			line = color.New(color.FgCyan).Sprint(line)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "%s\n", locationLine(err.Span))
}

func renderHeader(w io.Writer, kind, message string, sp span.Span, colorize bool) {
	header := fmt.Sprintf("%s: %s", kind, message)
	if colorize {
		header = color.New(color.FgRed, color.Bold).Sprint(header)
	}
	fmt.Fprintln(w, header)
	arrow := fmt.Sprintf("--> %s", sp)
	if colorize {
		arrow = color.New(color.FgBlue).Sprint(arrow)
	}
	fmt.Fprintln(w, arrow)
}

func renderSourceLine(w io.Writer, sp span.Span, colorize bool) {
	src := sp.Source()
	if src == nil {
		return
	}
	line, col := sp.LineCol()
	text := src.Line(line)
	gutter := fmt.Sprintf("%d | ", line)
	fmt.Fprintf(w, "%s%s\n", gutter, text)

	width := sp.End() - sp.Start()
	if width < 1 {
		width = 1
	}
	underline := strings.Repeat(" ", col-1) + strings.Repeat("^", width)
	padding := strings.Repeat(" ", len(gutter))
	if colorize {
		underline = color.New(color.FgRed, color.Bold).Sprint(underline)
	}
	fmt.Fprintf(w, "%s%s\n", padding, underline)
}

func locationLine(sp span.Span) string {
	return fmt.Sprintf("--> %s", sp)
}
