// Package lexer implements the lexical analyzer (tokenizer) for Lumi.
//
// Lexer Architecture:
//
// The lexer scans the source text rune by rune, classifying runs of
// characters into tokens and tagging every token with the span of source
// text it came from. It supports `//` line comments and `/* */` block
// comments, both skipped as whitespace.
//
// Example:
//
//	Source: let x = 1 + 2;
//
//	Tokens: LET IDENT("x") EQUAL NUMBER("1") PLUS NUMBER("2") SEMICOLON EOF
//
// Error Handling:
//
// Unrecognized characters and unterminated strings produce a Bad token
// rather than aborting the scan, so the parser (or a future diagnostic
// aggregator) can report every lexical error found in one pass rather
// than stopping at the first one. An unterminated block comment is not
// reported: it is skipped to the end of input, which then yields Eof.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/caiquetorres/lumi/pkg/span"
	"github.com/caiquetorres/lumi/pkg/token"
)

// Lexer scans a single SourceCode into a stream of tokens.
//
// The lexer is stateful and single-use: create a new Lexer for each
// compilation unit.
type Lexer struct {
	source *span.SourceCode
	input  string
	pos    int // current byte offset
	rdPos  int // next byte offset
	ch     rune
}

// New creates a Lexer over the given source code.
func New(source *span.SourceCode) *Lexer {
	l := &Lexer{source: source, input: source.Text()}
	l.advance()
	return l
}

// advance reads the next rune into l.ch, advancing l.pos/l.rdPos.
func (l *Lexer) advance() {
	if l.rdPos >= len(l.input) {
		l.ch = 0
		l.pos = l.rdPos
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.rdPos:])
	l.pos = l.rdPos
	l.rdPos += size
	l.ch = r
}

func (l *Lexer) peekAt(offset int) rune {
	idx := l.pos + offset
	if idx >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[idx:])
	return r
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.advance()
		case l.ch == '/' && l.peekAt(1) == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.advance()
			}
		case l.ch == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			for !(l.ch == '*' && l.peekAt(1) == '/') && l.ch != 0 {
				l.advance()
			}
			if l.ch != 0 {
				l.advance()
				l.advance()
			}
		default:
			return
		}
	}
}

func isLetter(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || r >= utf8.RuneSelf
}

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

// NextToken scans and returns the next token from the source, advancing
// past it. Calling NextToken after an Eof token keeps returning Eof.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	start := l.pos
	mk := func(kind token.Kind, lit string) token.Token {
		return token.Token{Kind: kind, Literal: lit, Span: l.source.Slice(start, l.pos)}
	}

	switch {
	case l.ch == 0:
		return mk(token.Eof, "")
	case isLetter(l.ch):
		return l.scanIdent(start)
	case isDigit(l.ch):
		return l.scanNumber(start)
	case l.ch == '"':
		return l.scanString(start)
	}

	ch := l.ch
	l.advance()
	switch ch {
	case '(':
		return mk(token.LeftParen, "(")
	case ')':
		return mk(token.RightParen, ")")
	case '{':
		return mk(token.LeftBrace, "{")
	case '}':
		return mk(token.RightBrace, "}")
	case ';':
		return mk(token.Semicolon, ";")
	case ',':
		return mk(token.Comma, ",")
	case ':':
		return mk(token.Colon, ":")
	case '.':
		if l.ch == '.' {
			l.advance()
			if l.ch == '=' {
				l.advance()
				return mk(token.DotDotEqual, "..=")
			}
			return mk(token.DotDot, "..")
		}
		return mk(token.Dot, ".")
	case '+':
		return mk(token.Plus, "+")
	case '-':
		if l.ch == '>' {
			l.advance()
			return mk(token.MinusGreater, "->")
		}
		return mk(token.Minus, "-")
	case '*':
		return mk(token.Star, "*")
	case '/':
		return mk(token.Slash, "/")
	case '?':
		return mk(token.Interrogation, "?")
	case '=':
		if l.ch == '=' {
			l.advance()
			return mk(token.EqualEqual, "==")
		}
		return mk(token.Equal, "=")
	case '!':
		if l.ch == '=' {
			l.advance()
			return mk(token.BangEqual, "!=")
		}
		return mk(token.Bang, "!")
	case '>':
		if l.ch == '=' {
			l.advance()
			return mk(token.GreaterEqual, ">=")
		}
		return mk(token.Greater, ">")
	case '<':
		if l.ch == '=' {
			l.advance()
			return mk(token.LessEqual, "<=")
		}
		return mk(token.Less, "<")
	default:
		return mk(token.Bad, string(ch))
	}
}

func (l *Lexer) scanIdent(start int) token.Token {
	for isLetter(l.ch) || isDigit(l.ch) {
		l.advance()
	}
	lit := l.input[start:l.pos]
	return token.Token{Kind: token.LookupIdent(lit), Literal: lit, Span: l.source.Slice(start, l.pos)}
}

func (l *Lexer) scanNumber(start int) token.Token {
	for isDigit(l.ch) {
		l.advance()
	}
	if l.ch == '.' && isDigit(l.peekAt(1)) {
		l.advance()
		for isDigit(l.ch) {
			l.advance()
		}
	}
	lit := l.input[start:l.pos]
	return token.Token{Kind: token.Number, Literal: lit, Span: l.source.Slice(start, l.pos)}
}

// scanString scans a double-quoted string literal. The returned token's
// Literal is the unescaped contents (no surrounding quotes). An
// unterminated string yields Bad at end of input.
func (l *Lexer) scanString(start int) token.Token {
	l.advance() // opening quote
	var b strings.Builder
	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\\' {
			l.advance()
			switch l.ch {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteRune(l.ch)
			}
			l.advance()
			continue
		}
		b.WriteRune(l.ch)
		l.advance()
	}
	if l.ch == 0 {
		return token.Token{Kind: token.Bad, Literal: "unterminated string", Span: l.source.Slice(start, l.pos)}
	}
	l.advance() // closing quote
	return token.Token{Kind: token.String, Literal: b.String(), Span: l.source.Slice(start, l.pos)}
}
