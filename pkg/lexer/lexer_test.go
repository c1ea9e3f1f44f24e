package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/caiquetorres/lumi/pkg/span"
	"github.com/caiquetorres/lumi/pkg/token"
)

func scanAll(src string) []token.Token {
	l := New(span.NewSourceCode("test.lumi", src))
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == token.Eof {
			return toks
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestLexerKeywordsAndIdent(t *testing.T) {
	toks := scanAll("let x fun class")
	assert.Equal(t, []token.Kind{token.Let, token.Ident, token.Fun, token.Class, token.Eof}, kinds(toks))
	assert.Equal(t, "x", toks[1].Literal)
}

func TestLexerNumberLiteral(t *testing.T) {
	toks := scanAll("1 2.5 10")
	assert.Equal(t, []token.Kind{token.Number, token.Number, token.Number, token.Eof}, kinds(toks))
	assert.Equal(t, "2.5", toks[1].Literal)
}

func TestLexerNumberDotNotFollowedByDigitStopsAtInteger(t *testing.T) {
	// "1.." is a range operator applied to 1, not a malformed float.
	toks := scanAll("1..2")
	assert.Equal(t, []token.Kind{token.Number, token.DotDot, token.Number, token.Eof}, kinds(toks))
}

func TestLexerStringEscapes(t *testing.T) {
	toks := scanAll(`"hello\nworld\t\"quoted\""`)
	require := toks[0]
	assert.Equal(t, token.String, require.Kind)
	assert.Equal(t, "hello\nworld\t\"quoted\"", require.Literal)
}

func TestLexerUnterminatedStringIsBad(t *testing.T) {
	toks := scanAll(`"hello`)
	assert.Equal(t, token.Bad, toks[0].Kind)
}

func TestLexerLineCommentSkipped(t *testing.T) {
	toks := scanAll("1 // a comment\n2")
	assert.Equal(t, []token.Kind{token.Number, token.Number, token.Eof}, kinds(toks))
}

func TestLexerBlockCommentSkipped(t *testing.T) {
	toks := scanAll("1 /* multi\nline */ 2")
	assert.Equal(t, []token.Kind{token.Number, token.Number, token.Eof}, kinds(toks))
}

func TestLexerUnterminatedBlockCommentReachesEof(t *testing.T) {
	toks := scanAll("1 /* never closed")
	assert.Equal(t, []token.Kind{token.Number, token.Eof}, kinds(toks))
}

func TestLexerOperatorsAndTwoCharLookahead(t *testing.T) {
	toks := scanAll("== != >= <= -> ..= = ! > <")
	assert.Equal(t, []token.Kind{
		token.EqualEqual, token.BangEqual, token.GreaterEqual, token.LessEqual,
		token.MinusGreater, token.DotDotEqual, token.Equal, token.Bang,
		token.Greater, token.Less, token.Eof,
	}, kinds(toks))
}

func TestLexerSpansCoverExactText(t *testing.T) {
	sc := span.NewSourceCode("test.lumi", "let x")
	l := New(sc)
	tok := l.NextToken() // "let"
	assert.Equal(t, "let", tok.Span.SourceText())
}

func TestLexerEofIsSticky(t *testing.T) {
	l := New(span.NewSourceCode("test.lumi", ""))
	first := l.NextToken()
	second := l.NextToken()
	assert.Equal(t, token.Eof, first.Kind)
	assert.Equal(t, token.Eof, second.Kind)
}

func TestLexerBadCharacter(t *testing.T) {
	toks := scanAll("@")
	assert.Equal(t, token.Bad, toks[0].Kind)
	assert.Equal(t, "@", toks[0].Literal)
}
