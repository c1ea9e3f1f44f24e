// Package parser implements a recursive-descent, Pratt-style parser for
// Lumi, producing the AST consumed by the emitter.
//
// Parser Architecture:
//
// The parser maintains a two-token lookahead window (curTok/peekTok), the
// same scheme used throughout this codebase's lexer/parser pairs.
// Expression parsing uses precedence climbing (Pratt parsing): each
// operator token is associated with a binding power, and `parseExpr`
// loops consuming infix operators whose precedence is greater than the
// caller's minimum.
//
// Error Handling:
//
// Parse errors are accumulated in `errors` rather than aborting
// immediately, so a single pass can surface every syntax problem in a
// source file. `Parse` returns a non-nil error (joining all messages)
// when `errors` is non-empty; callers should not execute the (possibly
// partial) AST in that case.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/caiquetorres/lumi/pkg/ast"
	"github.com/caiquetorres/lumi/pkg/lexer"
	"github.com/caiquetorres/lumi/pkg/span"
	"github.com/caiquetorres/lumi/pkg/token"
)

// Precedence levels, lowest to highest binding power.
const (
	precLowest = iota
	precAssign
	precEquals
	precCompare
	precSum
	precProduct
	precUnary
	precCall
)

var precedences = map[token.Kind]int{
	token.Equal:        precAssign,
	token.EqualEqual:   precEquals,
	token.BangEqual:    precEquals,
	token.Greater:      precCompare,
	token.GreaterEqual: precCompare,
	token.Less:         precCompare,
	token.LessEqual:    precCompare,
	token.Plus:         precSum,
	token.Minus:        precSum,
	token.Star:         precProduct,
	token.Slash:        precProduct,
	token.Dot:          precCall,
	token.LeftParen:    precCall,
}

// Parser turns a token stream into an *ast.Program.
type Parser struct {
	l       *lexer.Lexer
	curTok  token.Token
	peekTok token.Token
	errors  []string

	// noClassLit suppresses parsing `Ident { ... }` as a class-construction
	// expression - needed while parsing if/while conditions, where the
	// opening brace belongs to the statement body, not a class literal
	// (the same ambiguity Rust-family grammars resolve the same way).
	noClassLit bool
}

// New creates a Parser over source, reading the first two tokens to
// populate the lookahead window.
func New(source *span.SourceCode) *Parser {
	p := &Parser{l: lexer.New(source)}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(kind token.Kind) (token.Token, bool) {
	if p.curTok.Kind != kind {
		p.errorf("expected %s, got %s (%q) at %s", kind, p.curTok.Kind, p.curTok.Literal, p.curTok.Span)
		return token.Token{}, false
	}
	tok := p.curTok
	p.next()
	return tok, true
}

// Parse parses the whole token stream into a Program, returning an error
// joining every accumulated syntax diagnostic if any occurred.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}
	for p.curTok.Kind != token.Eof {
		stmt := p.parseStmt()
		if stmt != nil {
			prog.Stmts = append(prog.Stmts, stmt)
		}
	}
	if len(p.errors) > 0 {
		return prog, errors.New(strings.Join(p.errors, "\n"))
	}
	return prog, nil
}

// --- Statements ---

func (p *Parser) parseStmt() ast.Stmt {
	switch p.curTok.Kind {
	case token.LeftBrace:
		return p.parseBlock()
	case token.Let, token.Const:
		return p.parseVarDecl()
	case token.Class:
		return p.parseClassDecl()
	case token.Return:
		return p.parseReturnStmt()
	case token.Fun:
		return p.parseFunDecl()
	case token.Impl:
		return p.parseImplDecl()
	case token.If:
		return p.parseIfStmt()
	case token.While:
		return p.parseWhileStmt()
	case token.For:
		return p.parseForStmt()
	case token.Break:
		sp := p.curTok.Span
		p.next()
		p.skipSemicolon()
		return &ast.BreakStmt{Sp: sp}
	case token.Continue:
		sp := p.curTok.Span
		p.next()
		p.skipSemicolon()
		return &ast.ContinueStmt{Sp: sp}
	case token.Trait:
		return p.parseTraitDecl()
	case token.Println:
		return p.parsePrintlnStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) skipSemicolon() {
	if p.curTok.Kind == token.Semicolon {
		p.next()
	}
}

func (p *Parser) parseBlock() *ast.Block {
	start := p.curTok.Span
	p.next() // {
	var stmts []ast.Stmt
	for p.curTok.Kind != token.RightBrace && p.curTok.Kind != token.Eof {
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
	}
	end := p.curTok.Span
	p.expect(token.RightBrace)
	return &ast.Block{Stmts: stmts, Sp: span.Range(start, end)}
}

func (p *Parser) parseVarDecl() ast.Stmt {
	isConst := p.curTok.Kind == token.Const
	start := p.curTok.Span
	p.next() // let|const
	name, _ := p.expect(token.Ident)
	ty := ""
	if p.curTok.Kind == token.Colon {
		p.next()
		t, _ := p.expect(token.Ident)
		ty = t.Literal
	}
	p.expect(token.Equal)
	value := p.parseExpr(precLowest)
	end := p.curTok.Span
	p.skipSemicolon()
	return &ast.VarDecl{IsConst: isConst, Name: name.Literal, Type: ty, Value: value, Sp: span.Range(start, end)}
}

func (p *Parser) parseClassDecl() ast.Stmt {
	start := p.curTok.Span
	p.next() // class
	name, _ := p.expect(token.Ident)
	p.expect(token.LeftBrace)
	var fields []string
	for p.curTok.Kind != token.RightBrace && p.curTok.Kind != token.Eof {
		f, _ := p.expect(token.Ident)
		fields = append(fields, f.Literal)
		if p.curTok.Kind == token.Colon {
			p.next()
			p.expect(token.Ident) // field type, not tracked at runtime
		}
		if p.curTok.Kind == token.Comma {
			p.next()
		}
	}
	end := p.curTok.Span
	p.expect(token.RightBrace)
	return &ast.ClassDecl{Name: name.Literal, Fields: fields, Sp: span.Range(start, end)}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.curTok.Span
	p.next() // return
	var value ast.Expr
	if p.curTok.Kind != token.Semicolon && p.curTok.Kind != token.RightBrace {
		value = p.parseExpr(precLowest)
	}
	end := p.curTok.Span
	p.skipSemicolon()
	return &ast.ReturnStmt{Value: value, Sp: span.Range(start, end)}
}

func (p *Parser) parseParams() []ast.Param {
	p.expect(token.LeftParen)
	var params []ast.Param
	for p.curTok.Kind != token.RightParen && p.curTok.Kind != token.Eof {
		name, _ := p.expect(token.Ident)
		ty := ""
		if p.curTok.Kind == token.Colon {
			p.next()
			t, _ := p.expect(token.Ident)
			ty = t.Literal
		}
		params = append(params, ast.Param{Name: name.Literal, Type: ty})
		if p.curTok.Kind == token.Comma {
			p.next()
		}
	}
	p.expect(token.RightParen)
	return params
}

func (p *Parser) parseFunDecl() *ast.FunDecl {
	start := p.curTok.Span
	p.next() // fun
	name, _ := p.expect(token.Ident)
	params := p.parseParams()
	retTy := ""
	if p.curTok.Kind == token.MinusGreater {
		p.next()
		t, _ := p.expect(token.Ident)
		retTy = t.Literal
	}
	body := p.parseBlock()
	return &ast.FunDecl{Name: name.Literal, Params: params, ReturnType: retTy, Body: body.Stmts, Sp: span.Range(start, body.Sp)}
}

func (p *Parser) parseImplDecl() ast.Stmt {
	start := p.curTok.Span
	p.next() // impl
	first, _ := p.expect(token.Ident)
	traitName := ""
	typeName := first.Literal
	if p.curTok.Kind == token.For {
		// `impl Trait for Type`.
		p.next()
		t, _ := p.expect(token.Ident)
		traitName = typeName
		typeName = t.Literal
	}
	p.expect(token.LeftBrace)
	var methods []*ast.FunDecl
	for p.curTok.Kind != token.RightBrace && p.curTok.Kind != token.Eof {
		if p.curTok.Kind == token.Fun {
			methods = append(methods, p.parseFunDecl())
		} else {
			p.errorf("expected method in impl block, got %s", p.curTok.Kind)
			p.next()
		}
	}
	end := p.curTok.Span
	p.expect(token.RightBrace)
	return &ast.ImplDecl{Trait: traitName, Type: typeName, Methods: methods, Sp: span.Range(start, end)}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.curTok.Span
	p.next() // if
	p.noClassLit = true
	cond := p.parseExpr(precLowest)
	p.noClassLit = false
	body := p.parseBlock()
	var elseBody []ast.Stmt
	end := body.Sp
	if p.curTok.Kind == token.Else {
		p.next()
		elseBlock := p.parseBlock()
		elseBody = elseBlock.Stmts
		end = elseBlock.Sp
	}
	return &ast.IfStmt{Cond: cond, Body: body.Stmts, ElseBody: elseBody, Sp: span.Range(start, end)}
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.curTok.Span
	p.next() // while
	p.noClassLit = true
	cond := p.parseExpr(precLowest)
	p.noClassLit = false
	body := p.parseBlock()
	return &ast.WhileStmt{Cond: cond, Body: body.Stmts, Sp: span.Range(start, body.Sp)}
}

func (p *Parser) parseForStmt() ast.Stmt {
	start := p.curTok.Span
	p.next() // for
	name, _ := p.expect(token.Ident)
	p.expect(token.In)
	p.noClassLit = true
	iterable := p.parseExpr(precLowest)
	p.noClassLit = false
	body := p.parseBlock()
	return &ast.ForStmt{Name: name.Literal, Iterable: iterable, Body: body.Stmts, Sp: span.Range(start, body.Sp)}
}

func (p *Parser) parseTraitDecl() ast.Stmt {
	start := p.curTok.Span
	p.next() // trait
	name, _ := p.expect(token.Ident)
	p.expect(token.LeftBrace)
	var methods []string
	for p.curTok.Kind != token.RightBrace && p.curTok.Kind != token.Eof {
		if p.curTok.Kind == token.Fun {
			p.next()
			m, _ := p.expect(token.Ident)
			methods = append(methods, m.Literal)
			p.parseParams()
			if p.curTok.Kind == token.MinusGreater {
				p.next()
				p.expect(token.Ident)
			}
			p.skipSemicolon()
		} else {
			p.errorf("expected method signature in trait, got %s", p.curTok.Kind)
			p.next()
		}
	}
	end := p.curTok.Span
	p.expect(token.RightBrace)
	return &ast.TraitDecl{Name: name.Literal, Methods: methods, Sp: span.Range(start, end)}
}

func (p *Parser) parsePrintlnStmt() ast.Stmt {
	start := p.curTok.Span
	p.next() // println
	value := p.parseExpr(precLowest)
	end := p.curTok.Span
	p.skipSemicolon()
	return &ast.PrintlnStmt{Expr: value, Sp: span.Range(start, end)}
}

func (p *Parser) parseExprStmt() ast.Stmt {
	start := p.curTok.Span
	expr := p.parseExpr(precLowest)
	end := p.curTok.Span
	p.skipSemicolon()
	return &ast.ExprStmt{Expr: expr, Sp: span.Range(start, end)}
}

// --- Expressions (Pratt parsing) ---

func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}
	for p.curTok.Kind != token.Semicolon && minPrec < p.curPrecedence() {
		switch p.curTok.Kind {
		case token.Dot:
			left = p.parseGet(left)
		case token.LeftParen:
			left = p.parseCall(left)
		default:
			left = p.parseBinary(left)
		}
	}
	return left
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curTok.Kind]; ok {
		return prec
	}
	return precLowest
}

func (p *Parser) parsePrefix() ast.Expr {
	switch p.curTok.Kind {
	case token.Ident:
		return p.parseIdentOrClassLit()
	case token.Number:
		return p.parseNumber()
	case token.String:
		tok := p.curTok
		p.next()
		return &ast.Lit{Kind: ast.LitString, Str: tok.Literal, Sp: tok.Span}
	case token.True, token.False:
		tok := p.curTok
		p.next()
		return &ast.Lit{Kind: ast.LitBool, Bool: tok.Kind == token.True, Sp: tok.Span}
	case token.Nil:
		tok := p.curTok
		p.next()
		return &ast.Lit{Kind: ast.LitNil, Sp: tok.Span}
	case token.LeftParen:
		start := p.curTok.Span
		p.next()
		inner := p.parseExpr(precLowest)
		end := p.curTok.Span
		p.expect(token.RightParen)
		return &ast.Paren{Inner: inner, Sp: span.Range(start, end)}
	case token.Minus:
		start := p.curTok.Span
		p.next()
		operand := p.parseExpr(precUnary)
		return &ast.Unary{Op: ast.UnaryNeg, Operand: operand, Sp: span.Range(start, operand.Span())}
	case token.Bang:
		start := p.curTok.Span
		p.next()
		operand := p.parseExpr(precUnary)
		return &ast.Unary{Op: ast.UnaryNot, Operand: operand, Sp: span.Range(start, operand.Span())}
	default:
		p.errorf("unexpected token %s (%q) at %s", p.curTok.Kind, p.curTok.Literal, p.curTok.Span)
		p.next()
		return nil
	}
}

func (p *Parser) parseNumber() ast.Expr {
	tok := p.curTok
	p.next()
	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errorf("invalid number literal %q at %s", tok.Literal, tok.Span)
	}
	return &ast.Lit{Kind: ast.LitNumber, Number: v, Sp: tok.Span}
}

func (p *Parser) parseIdentOrClassLit() ast.Expr {
	tok := p.curTok
	p.next()
	ident := &ast.Ident{Name: tok.Literal, Sp: tok.Span}
	if p.noClassLit || p.curTok.Kind != token.LeftBrace {
		return ident
	}
	return p.parseClassLit(ident)
}

func (p *Parser) parseClassLit(class ast.Expr) ast.Expr {
	p.next() // {
	var fields []ast.FieldInit
	for p.curTok.Kind != token.RightBrace && p.curTok.Kind != token.Eof {
		name, _ := p.expect(token.Ident)
		var value ast.Expr
		if p.curTok.Kind == token.Colon {
			p.next()
			value = p.parseExpr(precLowest)
		}
		fields = append(fields, ast.FieldInit{Name: name.Literal, Value: value})
		if p.curTok.Kind == token.Comma {
			p.next()
		}
	}
	end := p.curTok.Span
	p.expect(token.RightBrace)
	return &ast.ClassLit{Class: class, Fields: fields, Sp: span.Range(class.Span(), end)}
}

func (p *Parser) parseGet(object ast.Expr) ast.Expr {
	p.next() // .
	name, _ := p.expect(token.Ident)
	return &ast.Get{Object: object, Name: name.Literal, Sp: span.Range(object.Span(), name.Span)}
}

func (p *Parser) parseCall(callee ast.Expr) ast.Expr {
	p.next() // (
	var args []ast.Expr
	for p.curTok.Kind != token.RightParen && p.curTok.Kind != token.Eof {
		args = append(args, p.parseExpr(precLowest))
		if p.curTok.Kind == token.Comma {
			p.next()
		}
	}
	end := p.curTok.Span
	p.expect(token.RightParen)
	return &ast.Call{Callee: callee, Args: args, Sp: span.Range(callee.Span(), end)}
}

var binOps = map[token.Kind]ast.BinaryOp{
	token.Equal:      ast.BinAssign,
	token.Plus:       ast.BinAdd,
	token.Minus:      ast.BinSub,
	token.Star:       ast.BinMul,
	token.Slash:      ast.BinDiv,
	token.EqualEqual: ast.BinEq,
	token.BangEqual:  ast.BinNeq,
	token.Greater:    ast.BinGt,
	token.Less:       ast.BinLt,
}

func (p *Parser) parseBinary(left ast.Expr) ast.Expr {
	opTok := p.curTok
	prec := p.curPrecedence()
	p.next()
	// Assignment is right-associative: 'a = b = c' parses as 'a = (b = c)'.
	nextMin := prec
	if opTok.Kind == token.Equal {
		nextMin = prec - 1
	}
	right := p.parseExpr(nextMin)
	op, ok := binOps[opTok.Kind]
	if !ok {
		p.errorf("unsupported binary operator %s at %s", opTok.Kind, opTok.Span)
	}
	return &ast.Binary{Left: left, Op: op, Right: right, Sp: span.Range(left.Span(), right.Span())}
}
