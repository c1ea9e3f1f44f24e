// Package token defines the lexical token kinds recognized by the Lumi
// lexer and parser.
package token

import "github.com/caiquetorres/lumi/pkg/span"

// Kind identifies the lexical category of a Token.
type Kind int

// Token kinds, grouped by category.
const (
	Bad Kind = iota
	Eof

	// Literals and identifiers.
	Ident
	Number
	String

	// Keywords.
	If
	Else
	For
	In
	Fun
	Extern
	Let
	Const
	Class
	Trait
	Impl
	Return
	Break
	Continue
	While
	Println
	True
	False
	Nil
	Static

	// Punctuation.
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	Semicolon
	Comma
	Colon
	Dot
	DotDot
	DotDotEqual
	MinusGreater
	Interrogation

	// Operators.
	Plus
	Minus
	Star
	Slash
	Equal
	EqualEqual
	Bang
	BangEqual
	Greater
	GreaterEqual
	Less
	LessEqual
)

var names = map[Kind]string{
	Bad: "BAD", Eof: "EOF",
	Ident: "IDENT", Number: "NUMBER", String: "STRING",
	If: "if", Else: "else", For: "for", In: "in", Fun: "fun", Extern: "extern",
	Let: "let", Const: "const", Class: "class", Trait: "trait", Impl: "impl",
	Return: "return", Break: "break", Continue: "continue", While: "while",
	Println: "println", True: "true", False: "false", Nil: "nil", Static: "static",
	LeftParen: "(", RightParen: ")", LeftBrace: "{", RightBrace: "}",
	Semicolon: ";", Comma: ",", Colon: ":", Dot: ".", DotDot: "..", DotDotEqual: "..=",
	MinusGreater: "->", Interrogation: "?",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Equal: "=", EqualEqual: "==",
	Bang: "!", BangEqual: "!=", Greater: ">", GreaterEqual: ">=", Less: "<", LessEqual: "<=",
}

// String returns the canonical source spelling (or a category name for
// EOF/BAD/literal kinds) of a token kind - used for both error messages
// and grammar doc comments.
func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// keywords maps reserved identifiers to their keyword Kind; anything not
// in this table lexes as Ident.
var keywords = map[string]Kind{
	"if": If, "else": Else, "for": For, "in": In, "fun": Fun, "extern": Extern,
	"let": Let, "const": Const, "class": Class, "trait": Trait, "impl": Impl,
	"return": Return, "break": Break, "continue": Continue, "while": While,
	"println": Println, "true": True, "false": False, "nil": Nil, "static": Static,
}

// LookupIdent classifies an identifier-shaped lexeme as a keyword Kind if
// it matches a reserved word, or Ident otherwise.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return Ident
}

// Token is one lexeme: its kind, literal text, and source span.
type Token struct {
	Kind    Kind
	Literal string
	Span    span.Span
}
