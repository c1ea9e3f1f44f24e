// Package span identifies slices of source text so every later stage of
// the pipeline - lexer, parser, emitter, VM - can point back at exactly
// where a token, AST node, or bytecode instruction came from.
//
// Architecture:
//
// A SourceCode wraps a file path and its full text once per compilation
// unit; every Span holds a cheap reference to it (a pointer) plus a byte
// range. Line and column are computed from the range's start on demand.
// Cloning a Span never copies the underlying source text.
//
// Example:
//
//	sc := span.NewSourceCode("main.lumi", "let x = 1;\n")
//	sp := sc.Slice(4, 5) // the "x"
//	sp.SourceText()      // "x"
//	sp.String()          // "main.lumi:1:5"
package span

import (
	"fmt"
	"strings"
)

// SourceCode is the full text of one compilation unit, shared by every
// Span produced while lexing, parsing, and emitting it.
type SourceCode struct {
	path string
	text string
	// lineStarts[i] is the byte offset of the first byte of line i+1.
	lineStarts []int
}

// NewSourceCode indexes line-start offsets once so that byte-offset ->
// line/column lookups during error reporting are O(log n) instead of
// O(n) per lookup.
func NewSourceCode(path, text string) *SourceCode {
	starts := []int{0}
	for i, r := range text {
		if r == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &SourceCode{path: path, text: text, lineStarts: starts}
}

// Path returns the file path this source code was read from.
func (sc *SourceCode) Path() string { return sc.path }

// Text returns the full source text.
func (sc *SourceCode) Text() string { return sc.text }

// LineColumn converts a byte offset into a 1-based line and column pair.
func (sc *SourceCode) LineColumn(offset int) (line, col int) {
	// Binary search for the last line start <= offset.
	lo, hi := 0, len(sc.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if sc.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	line = lo + 1
	col = offset - sc.lineStarts[lo] + 1
	return
}

// Line returns the raw text of the given 1-based line number, without its
// trailing newline.
func (sc *SourceCode) Line(line int) string {
	if line < 1 || line > len(sc.lineStarts) {
		return ""
	}
	start := sc.lineStarts[line-1]
	end := len(sc.text)
	if line < len(sc.lineStarts) {
		end = sc.lineStarts[line] - 1
	}
	if end < start {
		end = start
	}
	return strings.TrimRight(sc.text[start:end], "\r")
}

// Slice builds a Span covering the byte range [start, end) of this source.
func (sc *SourceCode) Slice(start, end int) Span {
	return Span{source: sc, start: start, end: end}
}

// Span is a (file, start, end) slice of source text, the unit every
// bytecode instruction and AST node is tagged with for diagnostics.
type Span struct {
	source *SourceCode
	start  int
	end    int
}

// Start returns the byte offset of the first byte covered by the span.
func (s Span) Start() int { return s.start }

// End returns the byte offset one past the last byte covered by the span.
func (s Span) End() int { return s.end }

// Source returns the SourceCode this span was sliced from.
func (s Span) Source() *SourceCode { return s.source }

// SourceText returns the literal substring of source text this span
// covers.
func (s Span) SourceText() string {
	if s.source == nil {
		return ""
	}
	return s.source.text[s.start:s.end]
}

// Range combines two spans from the same source into one spanning from
// the start of the first to the end of the second - used whenever a
// grammar rule builds a composite node from sub-nodes (e.g. a binary
// expression's span is the range of its left and right operands).
func Range(start, end Span) Span {
	return Span{source: start.source, start: start.start, end: end.end}
}

// LineCol returns the 1-based line and column of the span's start.
func (s Span) LineCol() (line, col int) {
	if s.source == nil {
		return 0, 0
	}
	return s.source.LineColumn(s.start)
}

// String renders the span as "path:line:col", the shape used in every
// diagnostic's "-->" location line.
func (s Span) String() string {
	if s.source == nil {
		return "<unknown>"
	}
	line, col := s.LineCol()
	return fmt.Sprintf("%s:%d:%d", s.source.path, line, col)
}
