// Package ast defines the Abstract Syntax Tree node types produced by the
// Lumi parser and consumed by the emitter.
//
// Every node carries the span of source text it was parsed from, so the
// emitter can tag every bytecode instruction it produces with a span for
// diagnostics.
package ast

import "github.com/caiquetorres/lumi/pkg/span"

// Node is the interface every AST node implements.
type Node interface {
	Span() span.Span
}

// Expr is an expression node - it evaluates to a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node - it performs an action, possibly with no
// value.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of an AST: a sequence of top-level statements.
type Program struct {
	Stmts []Stmt
}

// --- Expressions ---

// LitKind distinguishes the kind of value a Lit expression denotes.
type LitKind int

// Literal kinds.
const (
	LitNumber LitKind = iota
	LitBool
	LitNil
	LitString
)

// Lit is a literal expression: a number, boolean, nil, or string.
type Lit struct {
	Kind   LitKind
	Number float64
	Bool   bool
	Str    string
	Sp     span.Span
}

func (l *Lit) exprNode()        {}
func (l *Lit) Span() span.Span  { return l.Sp }

// Ident is a bare identifier reference, e.g. a variable or function name.
type Ident struct {
	Name string
	Sp   span.Span
}

func (i *Ident) exprNode()       {}
func (i *Ident) Span() span.Span { return i.Sp }

// Paren is a parenthesized expression, kept as its own node so the
// emitter's assignment rule can see through it when classifying an
// assignment target.
type Paren struct {
	Inner Expr
	Sp    span.Span
}

func (p *Paren) exprNode()       {}
func (p *Paren) Span() span.Span { return p.Sp }

// Get is a property access `obj.name`.
type Get struct {
	Object Expr
	Name   string
	Sp     span.Span
}

func (g *Get) exprNode()       {}
func (g *Get) Span() span.Span { return g.Sp }

// Call is a function/method call `callee(args...)`.
type Call struct {
	Callee Expr
	Args   []Expr
	Sp     span.Span
}

func (c *Call) exprNode()       {}
func (c *Call) Span() span.Span { return c.Sp }

// UnaryOp identifies a prefix unary operator.
type UnaryOp int

// Unary operators.
const (
	UnaryNeg UnaryOp = iota // -e
	UnaryNot                // !e
)

// Unary is a prefix unary expression.
type Unary struct {
	Op      UnaryOp
	Operand Expr
	Sp      span.Span
}

func (u *Unary) exprNode()       {}
func (u *Unary) Span() span.Span { return u.Sp }

// BinaryOp identifies an infix binary operator, including assignment.
type BinaryOp int

// Binary operators.
const (
	BinAssign BinaryOp = iota // =
	BinAdd                    // +
	BinSub                    // -
	BinMul                    // *
	BinDiv                    // /
	BinEq                     // ==
	BinNeq                    // !=
	BinGt                     // >
	BinLt                     // <
)

// Binary is an infix binary expression, including assignment (`=`).
type Binary struct {
	Left  Expr
	Op    BinaryOp
	Right Expr
	Sp    span.Span
}

func (b *Binary) exprNode()       {}
func (b *Binary) Span() span.Span { return b.Sp }

// FieldInit is one `name: value` (or bare `name` shorthand) entry in a
// class construction expression.
type FieldInit struct {
	Name  string
	Value Expr // nil for the bare-identifier shorthand; emitter loads Name as a symbol instead
}

// ClassLit is a class construction expression `Type { field: value, ... }`.
type ClassLit struct {
	Class  Expr
	Fields []FieldInit
	Sp     span.Span
}

func (c *ClassLit) exprNode()       {}
func (c *ClassLit) Span() span.Span { return c.Sp }

// --- Statements ---

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	Expr Expr
	Sp   span.Span
}

func (e *ExprStmt) stmtNode()      {}
func (e *ExprStmt) Span() span.Span { return e.Sp }

// PrintlnStmt is `println expr;`.
type PrintlnStmt struct {
	Expr Expr
	Sp   span.Span
}

func (p *PrintlnStmt) stmtNode()      {}
func (p *PrintlnStmt) Span() span.Span { return p.Sp }

// Block is a `{ ... }` statement sequence with its own scope.
type Block struct {
	Stmts []Stmt
	Sp    span.Span
}

func (b *Block) stmtNode()      {}
func (b *Block) Span() span.Span { return b.Sp }

// VarDecl is `let name (: ty)? = expr;` or `const name ... = expr;`.
type VarDecl struct {
	IsConst bool
	Name    string
	Type    string // empty if omitted
	Value   Expr
	Sp      span.Span
}

func (v *VarDecl) stmtNode()      {}
func (v *VarDecl) Span() span.Span { return v.Sp }

// ClassDecl is `class Name { field, field2 }`.
type ClassDecl struct {
	Name   string
	Fields []string
	Sp     span.Span
}

func (c *ClassDecl) stmtNode()      {}
func (c *ClassDecl) Span() span.Span { return c.Sp }

// ReturnStmt is `return expr?;`.
type ReturnStmt struct {
	Value Expr // nil if bare `return;`
	Sp    span.Span
}

func (r *ReturnStmt) stmtNode()      {}
func (r *ReturnStmt) Span() span.Span { return r.Sp }

// Param is one `name: Type` function/method parameter.
type Param struct {
	Name string
	Type string
}

// FunDecl is `fun name(params) (-> ty)? { body }`.
type FunDecl struct {
	Name       string
	Params     []Param
	ReturnType string
	Body       []Stmt
	Sp         span.Span
}

func (f *FunDecl) stmtNode()      {}
func (f *FunDecl) Span() span.Span { return f.Sp }

// ImplDecl is `impl (Trait for)? Type { methods... }`.
type ImplDecl struct {
	Trait   string // empty if this isn't a trait implementation
	Type    string
	Methods []*FunDecl
	Sp      span.Span
}

func (i *ImplDecl) stmtNode()      {}
func (i *ImplDecl) Span() span.Span { return i.Sp }

// IfStmt is `if cond { body } (else elseBody)?`. The else branch is
// parsed (see TraitDecl for the analogous case) but the emitter does not
// yet generate code for it.
type IfStmt struct {
	Cond     Expr
	Body     []Stmt
	ElseBody []Stmt // nil if no else clause
	Sp       span.Span
}

func (i *IfStmt) stmtNode()      {}
func (i *IfStmt) Span() span.Span { return i.Sp }

// WhileStmt is `while cond { body }`. Parsed only; the emitter does not
// generate code for it.
type WhileStmt struct {
	Cond Expr
	Body []Stmt
	Sp   span.Span
}

func (w *WhileStmt) stmtNode()      {}
func (w *WhileStmt) Span() span.Span { return w.Sp }

// ForStmt is `for name in iterable { body }`. Parsed only; the emitter
// does not generate code for it.
type ForStmt struct {
	Name     string
	Iterable Expr
	Body     []Stmt
	Sp       span.Span
}

func (f *ForStmt) stmtNode()      {}
func (f *ForStmt) Span() span.Span { return f.Sp }

// BreakStmt is `break;`. Parsed only; never emitted.
type BreakStmt struct{ Sp span.Span }

func (b *BreakStmt) stmtNode()      {}
func (b *BreakStmt) Span() span.Span { return b.Sp }

// ContinueStmt is `continue;`. Parsed only; never emitted.
type ContinueStmt struct{ Sp span.Span }

func (c *ContinueStmt) stmtNode()      {}
func (c *ContinueStmt) Span() span.Span { return c.Sp }

// TraitDecl is `trait Name { method signatures... }`. Traits are a
// parsing-only construct in the core: they reach the emitter but produce
// no bytecode.
type TraitDecl struct {
	Name    string
	Methods []string
	Sp      span.Span
}

func (t *TraitDecl) stmtNode()      {}
func (t *TraitDecl) Span() span.Span { return t.Sp }
