// Package emitter lowers a Lumi AST into a bytecode.Chunk.
//
// The emitter is a pure post-order tree walk: each AST node has exactly
// one emission rule, enumerated below, producing a sequence of
// PushConstant/PushInstruction calls tagged with that node's span. The
// two interesting wrinkles are the forward-reference patching protocol
// used for function/method declarations (a function's body is emitted
// inline, so its start/end offsets aren't known until after the body is
// walked) and the similar - but distinct - relative-offset patching used
// by If's JumpIfFalse.
//
// Example:
//
//	Source:  println 1 + 2;
//
//	Code:    LoadConstant 0   ; Number(1)
//	         ConvertConstant
//	         LoadConstant 1   ; Number(2)
//	         ConvertConstant
//	         Add
//	         PrintLn
package emitter

import (
	"fmt"
	"math"

	"github.com/caiquetorres/lumi/pkg/ast"
	"github.com/caiquetorres/lumi/pkg/bytecode"
	"github.com/caiquetorres/lumi/pkg/span"
)

const maxUint32Placeholder = math.MaxUint32

// Emitter walks an AST, writing into a single Chunk.
type Emitter struct {
	chunk *bytecode.Chunk
}

// New creates an Emitter over a fresh, empty Chunk.
func New() *Emitter {
	return &Emitter{chunk: bytecode.New()}
}

// Emit lowers an entire program into a Chunk.
func Emit(prog *ast.Program) (*bytecode.Chunk, error) {
	e := New()
	for _, stmt := range prog.Stmts {
		if err := e.emitStmt(stmt); err != nil {
			return nil, err
		}
	}
	return e.chunk, nil
}

// --- Statements ---

func (e *Emitter) emitStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.ExprStmt:
		if err := e.emitExpr(st.Expr); err != nil {
			return err
		}
		e.chunk.PushInstruction(bytecode.Pop, st.Sp)
		return nil
	case *ast.PrintlnStmt:
		if err := e.emitExpr(st.Expr); err != nil {
			return err
		}
		e.chunk.PushInstruction(bytecode.PrintLn, st.Sp)
		return nil
	case *ast.Block:
		return e.emitBlock(st)
	case *ast.VarDecl:
		return e.emitVarDecl(st)
	case *ast.ClassDecl:
		e.chunk.PushConstant(bytecode.NewStringConstant(st.Name), st.Sp)
		e.chunk.PushInstruction(bytecode.DeclareClass, st.Sp)
		return nil
	case *ast.ReturnStmt:
		return e.emitReturnStmt(st)
	case *ast.FunDecl:
		return e.emitFunDecl(st)
	case *ast.ImplDecl:
		return e.emitImplDecl(st)
	case *ast.IfStmt:
		return e.emitIfStmt(st)
	case *ast.TraitDecl, *ast.WhileStmt, *ast.ForStmt, *ast.BreakStmt, *ast.ContinueStmt:
		// Traits are a parsing-only construct, nominal interfaces with no
		// runtime representation. While/for/break/continue parse but have
		// no loop-control bytecode yet; both produce no bytecode.
		return nil
	default:
		return fmt.Errorf("emitter: unhandled statement type %T at %s", s, s.Span())
	}
}

func (e *Emitter) emitBlock(b *ast.Block) error {
	e.chunk.PushInstruction(bytecode.BeginScope, b.Sp)
	for _, s := range b.Stmts {
		if err := e.emitStmt(s); err != nil {
			return err
		}
	}
	e.chunk.PushInstruction(bytecode.EndScope, b.Sp)
	return nil
}

func (e *Emitter) emitVarDecl(v *ast.VarDecl) error {
	// Const emits identical bytecode to Let: both bind through
	// DeclareVariable. There is no distinct runtime notion of immutability
	// here; const is enforced only at the source level, if at all.
	if err := e.emitExpr(v.Value); err != nil {
		return err
	}
	e.chunk.PushConstant(bytecode.NewStringConstant(v.Name), v.Sp)
	e.chunk.PushInstruction(bytecode.DeclareVariable, v.Sp)
	return nil
}

func (e *Emitter) emitReturnStmt(r *ast.ReturnStmt) error {
	if r.Value != nil {
		if err := e.emitExpr(r.Value); err != nil {
			return err
		}
	} else {
		e.chunk.PushConstant(bytecode.NewNilConstant(), r.Sp)
		e.chunk.PushInstruction(bytecode.ConvertConstant, r.Sp)
	}
	e.chunk.PushInstruction(bytecode.Return, r.Sp)
	return nil
}

// emitFunctionBody implements the forward-reference patching protocol
// shared by Fun and Impl's methods: reserve end/start placeholder
// constants, emit the parameter names in reverse, the param count, and
// the name (plus an optional leading class-name constant for methods,
// pushed by the caller before this runs), emit the declare opcode, walk
// the body with a leading BeginScope and a trailing implicit-nil Return
// (but no matching EndScope - the call protocol's Return restores the
// scope instead), then patch the reserved constants with the body's real
// start/end offsets.
func (e *Emitter) emitFunctionBody(params []ast.Param, body []ast.Stmt, name string, declareOp bytecode.Opcode, sp span.Span) error {
	endIdx := e.chunk.PushConstant(bytecode.NewSizeConstant(maxUint32Placeholder), sp)
	startIdx := e.chunk.PushConstant(bytecode.NewSizeConstant(maxUint32Placeholder), sp)
	for i := len(params) - 1; i >= 0; i-- {
		e.chunk.PushConstant(bytecode.NewStringConstant(params[i].Name), sp)
	}
	e.chunk.PushConstant(bytecode.NewSizeConstant(uint32(len(params))), sp)
	e.chunk.PushConstant(bytecode.NewStringConstant(name), sp)
	e.chunk.PushInstruction(declareOp, sp)

	start := e.chunk.Len()
	e.chunk.PushInstruction(bytecode.BeginScope, sp)
	for _, s := range body {
		if err := e.emitStmt(s); err != nil {
			return err
		}
	}
	e.chunk.PushConstant(bytecode.NewNilConstant(), sp)
	e.chunk.PushInstruction(bytecode.ConvertConstant, sp)
	e.chunk.PushInstruction(bytecode.Return, sp)
	end := e.chunk.Len()

	e.chunk.PatchConstant(startIdx, bytecode.NewSizeConstant(uint32(start)))
	e.chunk.PatchConstant(endIdx, bytecode.NewSizeConstant(uint32(end)))
	return nil
}

func (e *Emitter) emitFunDecl(f *ast.FunDecl) error {
	return e.emitFunctionBody(f.Params, f.Body, f.Name, bytecode.DeclareFunction, f.Sp)
}

func (e *Emitter) emitImplDecl(i *ast.ImplDecl) error {
	for _, m := range i.Methods {
		// The owning type name is pushed before each method's own
		// forward-patch sequence, so DeclareMethod consumes it last
		// (LIFO) after the method's name/params/start/end.
		e.chunk.PushConstant(bytecode.NewStringConstant(i.Type), m.Sp)
		if err := e.emitFunctionBody(m.Params, m.Body, m.Name, bytecode.DeclareMethod, m.Sp); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitIfStmt(s *ast.IfStmt) error {
	if err := e.emitExpr(s.Cond); err != nil {
		return err
	}
	thenIdx := e.chunk.PushConstant(bytecode.NewSizeConstant(maxUint32Placeholder), s.Sp)
	e.chunk.PushInstruction(bytecode.JumpIfFalse, s.Sp)

	start := e.chunk.Len()
	e.chunk.PushInstruction(bytecode.BeginScope, s.Sp)
	for _, st := range s.Body {
		if err := e.emitStmt(st); err != nil {
			return err
		}
	}
	e.chunk.PushInstruction(bytecode.EndScope, s.Sp)
	end := e.chunk.Len()

	e.chunk.PatchConstant(thenIdx, bytecode.NewSizeConstant(uint32(end-start)))
	// No bytecode is generated for an else clause; completing this would
	// patch an unconditional Jump over the else block here.
	return nil
}

// --- Expressions ---

func (e *Emitter) emitExpr(expr ast.Expr) error {
	switch ex := expr.(type) {
	case *ast.Ident:
		e.chunk.PushConstant(bytecode.NewStringConstant(ex.Name), ex.Sp)
		e.chunk.PushInstruction(bytecode.GetSymbol, ex.Sp)
		return nil
	case *ast.Lit:
		return e.emitLit(ex)
	case *ast.Paren:
		return e.emitExpr(ex.Inner)
	case *ast.Get:
		if err := e.emitExpr(ex.Object); err != nil {
			return err
		}
		e.chunk.PushConstant(bytecode.NewStringConstant(ex.Name), ex.Sp)
		e.chunk.PushInstruction(bytecode.GetProperty, ex.Sp)
		return nil
	case *ast.Call:
		return e.emitCall(ex)
	case *ast.Unary:
		return e.emitUnary(ex)
	case *ast.Binary:
		return e.emitBinary(ex)
	case *ast.ClassLit:
		return e.emitClassLit(ex)
	default:
		return fmt.Errorf("emitter: unhandled expression type %T at %s", expr, expr.Span())
	}
}

func (e *Emitter) emitLit(l *ast.Lit) error {
	switch l.Kind {
	case ast.LitNumber:
		e.chunk.PushConstant(bytecode.NewNumberConstant(l.Number), l.Sp)
	case ast.LitBool:
		e.chunk.PushConstant(bytecode.NewBoolConstant(l.Bool), l.Sp)
	case ast.LitNil:
		e.chunk.PushConstant(bytecode.NewNilConstant(), l.Sp)
	case ast.LitString:
		// Strings have no runtime object representation - no String
		// class, no heap string value - so using one as a value
		// expression is a compile-time error.
		return fmt.Errorf("string literals cannot be used as values at %s", l.Sp)
	default:
		return fmt.Errorf("emitter: unknown literal kind at %s", l.Sp)
	}
	e.chunk.PushInstruction(bytecode.ConvertConstant, l.Sp)
	return nil
}

func (e *Emitter) emitCall(c *ast.Call) error {
	if err := e.emitExpr(c.Callee); err != nil {
		return err
	}
	for i := len(c.Args) - 1; i >= 0; i-- {
		if err := e.emitExpr(c.Args[i]); err != nil {
			return err
		}
	}
	e.chunk.PushConstant(bytecode.NewSizeConstant(uint32(len(c.Args))), c.Sp)
	e.chunk.PushInstruction(bytecode.CallFunction, c.Sp)
	return nil
}

func (e *Emitter) emitUnary(u *ast.Unary) error {
	if err := e.emitExpr(u.Operand); err != nil {
		return err
	}
	switch u.Op {
	case ast.UnaryNeg:
		e.chunk.PushInstruction(bytecode.Negate, u.Sp)
	case ast.UnaryNot:
		e.chunk.PushInstruction(bytecode.Not, u.Sp)
	}
	return nil
}

func (e *Emitter) emitBinary(b *ast.Binary) error {
	if b.Op == ast.BinAssign {
		return e.emitAssign(b)
	}
	if err := e.emitExpr(b.Left); err != nil {
		return err
	}
	if err := e.emitExpr(b.Right); err != nil {
		return err
	}
	switch b.Op {
	case ast.BinAdd:
		e.chunk.PushInstruction(bytecode.Add, b.Sp)
	case ast.BinSub:
		e.chunk.PushInstruction(bytecode.Subtract, b.Sp)
	case ast.BinMul:
		e.chunk.PushInstruction(bytecode.Multiply, b.Sp)
	case ast.BinDiv:
		e.chunk.PushInstruction(bytecode.Divide, b.Sp)
	case ast.BinEq:
		e.chunk.PushInstruction(bytecode.Equals, b.Sp)
	case ast.BinNeq:
		e.chunk.PushInstruction(bytecode.Equals, b.Sp)
		e.chunk.PushInstruction(bytecode.Not, b.Sp)
	case ast.BinGt:
		e.chunk.PushInstruction(bytecode.Greater, b.Sp)
	case ast.BinLt:
		e.chunk.PushInstruction(bytecode.Less, b.Sp)
	default:
		return fmt.Errorf("emitter: unknown binary operator at %s", b.Sp)
	}
	return nil
}

func unwrapParen(e ast.Expr) ast.Expr {
	for {
		if p, ok := e.(*ast.Paren); ok {
			e = p.Inner
			continue
		}
		return e
	}
}

func (e *Emitter) emitAssign(b *ast.Binary) error {
	if err := e.emitExpr(b.Right); err != nil {
		return err
	}
	switch lhs := unwrapParen(b.Left).(type) {
	case *ast.Ident:
		e.chunk.PushConstant(bytecode.NewStringConstant(lhs.Name), b.Sp)
		e.chunk.PushInstruction(bytecode.SetVariable, b.Sp)
	case *ast.Get:
		e.chunk.PushConstant(bytecode.NewStringConstant(lhs.Name), b.Sp)
		if err := e.emitExpr(lhs.Object); err != nil {
			return err
		}
		e.chunk.PushInstruction(bytecode.SetProperty, b.Sp)
	default:
		return fmt.Errorf("invalid assignment target at %s", b.Sp)
	}
	return nil
}

func (e *Emitter) emitClassLit(c *ast.ClassLit) error {
	if err := e.emitExpr(c.Class); err != nil {
		return err
	}
	for i := len(c.Fields) - 1; i >= 0; i-- {
		field := c.Fields[i]
		if field.Value != nil {
			if err := e.emitExpr(field.Value); err != nil {
				return err
			}
		} else {
			// Bare-identifier shorthand: load a variable of the same
			// name as the field.
			e.chunk.PushConstant(bytecode.NewStringConstant(field.Name), c.Sp)
			e.chunk.PushInstruction(bytecode.GetSymbol, c.Sp)
		}
		e.chunk.PushConstant(bytecode.NewStringConstant(field.Name), c.Sp)
	}
	e.chunk.PushConstant(bytecode.NewSizeConstant(uint32(len(c.Fields))), c.Sp)
	e.chunk.PushInstruction(bytecode.Instantiate, c.Sp)
	return nil
}
