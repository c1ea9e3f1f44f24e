// Package bytecode defines the bytecode format for Lumi: the opcode set,
// the constant pool entries, and the Chunk container the emitter writes
// into and the VM reads from.
//
// Architecture:
//
// Unlike a stack machine with a fixed-width Instruction array, a Lumi
// Chunk is a flat byte buffer. Every opcode is one byte; only
// LoadConstant carries an inline operand (a 3-byte big-endian index into
// the constant pool). Every other instruction's "operands" arrive via the
// constant stack or the object stack at runtime rather than being encoded
// inline - see the vm package for how values flow between the two.
//
// Example compilation:
//
//	Source:  println 1 + 2;
//
//	Code:
//	  LoadConstant  0        ; constants[0] = Number(1)
//	  ConvertConstant
//	  LoadConstant  1        ; constants[1] = Number(2)
//	  ConvertConstant
//	  Add
//	  PrintLn
//
// Every opcode offset in Code has a matching entry in the chunk's source
// map, used to render diagnostics and stack traces.
//
// Design Philosophy:
//
//   - A flat byte buffer keeps function bodies inline in the same buffer
//     as the code that declares them: DeclareFunction records the body's
//     start/end as constants and jumps ip past it, rather than needing a
//     separate table of function bodies.
//   - The constant pool doubles as a channel for compile-time metadata
//     (sizes, jump offsets, names) as well as literal values - see
//     Constant's Size variant.
package bytecode

import (
	"fmt"

	"github.com/caiquetorres/lumi/pkg/span"
)

// Opcode is a single bytecode operation.
type Opcode byte

// The Lumi instruction set. Only LoadConstant has an inline operand (a
// 3-byte big-endian constant pool index); every other opcode reads its
// arguments from the constant stack and/or the object stack at runtime.
const (
	// LoadConstant pushes constants[index] onto the constant stack.
	// Inline operand: 3-byte big-endian index.
	LoadConstant Opcode = iota

	// ConvertConstant pops a Constant and pushes the equivalent heap
	// Primitive object.
	ConvertConstant

	// BeginScope pushes a new scope node, seeded with the current frame's
	// slots.
	BeginScope

	// EndScope restores the parent scope.
	EndScope

	// DeclareVariable pops a name constant and an object, binding the
	// name in the current scope.
	DeclareVariable

	// DeclareClass pops a name constant, creates a Class object, and
	// binds it in the current scope.
	DeclareClass

	// DeclareFunction consumes, in order, constants for end, start,
	// params (reverse), param_count, and name; it materializes a
	// Function, binds it, and jumps ip to end.
	DeclareFunction

	// DeclareMethod is like DeclareFunction but additionally consumes a
	// class-name constant and installs the function into the current
	// scope's method table instead of its symbol table.
	DeclareMethod

	// GetSymbol pops a name constant and pushes the resolved object,
	// failing SymbolNotFound if unbound.
	GetSymbol

	// SetVariable pops a name constant and an object, assigning through
	// the nearest enclosing binding (or installing one in the current
	// scope if none exists), then pushes the assigned object back.
	SetVariable

	// GetProperty pops a name constant and an object, pushing the field
	// value, or a bound-method sequence if the name resolves to a method.
	GetProperty

	// SetProperty pops the lhs object, a name constant, and the rhs
	// object, mutates lhs.fields[name] = rhs, then pushes rhs back.
	SetProperty

	// Instantiate pops a field-count constant, that many (name, value)
	// pairs, and a class object, pushing a new Instance.
	Instantiate

	// CallFunction pops an argument-count constant, that many arguments
	// (in reverse), and a callee object, invoking it.
	CallFunction

	// Add dispatches the "add" method on the left operand's class.
	Add
	// Subtract dispatches "sub".
	Subtract
	// Multiply dispatches "mul".
	Multiply
	// Divide dispatches "div".
	Divide
	// Equals dispatches "eq".
	Equals
	// Greater dispatches "gt".
	Greater
	// Less dispatches "lt".
	Less
	// Not dispatches "not" on the sole operand's class.
	Not
	// Negate dispatches "neg" on the sole operand's class.
	Negate

	// PrintLn pops an object and writes its textual representation to
	// stdout.
	PrintLn

	// JumpIfFalse pops an offset constant and a condition object; if the
	// condition is falsy, advances ip by offset (relative to the byte
	// following this instruction), else steps by one.
	JumpIfFalse

	// Jump pops an offset constant and advances ip by it, unconditionally.
	Jump

	// Return pops the current call frame, restores return_scope, and
	// pops one stack trace entry.
	Return

	// Pop discards the top of the object stack.
	Pop
)

var opcodeNames = [...]string{
	"LOAD_CONSTANT", "CONVERT_CONSTANT", "BEGIN_SCOPE", "END_SCOPE",
	"DECLARE_VARIABLE", "DECLARE_CLASS", "DECLARE_FUNCTION", "DECLARE_METHOD",
	"GET_SYMBOL", "SET_VARIABLE", "GET_PROPERTY", "SET_PROPERTY",
	"INSTANTIATE", "CALL_FUNCTION",
	"ADD", "SUBTRACT", "MULTIPLY", "DIVIDE", "EQUALS", "GREATER", "LESS",
	"NOT", "NEGATE", "PRINTLN", "JUMP_IF_FALSE", "JUMP", "RETURN", "POP",
}

// String returns a human-readable opcode mnemonic, used by the
// disassembler and in panic messages for malformed chunks.
func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("UNKNOWN(%d)", op)
}

// Size returns the number of bytes this opcode occupies in a chunk's code
// buffer, including its inline operand if any. Every opcode is one byte
// except LoadConstant, which carries a 3-byte inline operand.
func (op Opcode) Size() int {
	if op == LoadConstant {
		return 4
	}
	return 1
}

// ConstantKind tags the variant of a Constant.
type ConstantKind int

// Constant kinds.
const (
	KindNil ConstantKind = iota
	KindBool
	KindNumber
	KindString
	KindSize
)

// Constant is an inert literal or emission-time metadata value stored in
// a chunk's constant pool. Constants are converted to heap objects by
// ConvertConstant, or consumed directly as opcode metadata (sizes,
// names) by other instructions - never both for the same pool entry.
type Constant struct {
	Kind ConstantKind
	Bool bool
	Num  float64
	Str  string
	Size uint32
}

// NewNilConstant builds a Nil constant.
func NewNilConstant() Constant { return Constant{Kind: KindNil} }

// NewBoolConstant builds a Bool constant.
func NewBoolConstant(v bool) Constant { return Constant{Kind: KindBool, Bool: v} }

// NewNumberConstant builds a Number constant.
func NewNumberConstant(v float64) Constant { return Constant{Kind: KindNumber, Num: v} }

// NewStringConstant builds a String constant.
func NewStringConstant(v string) Constant { return Constant{Kind: KindString, Str: v} }

// NewSizeConstant builds a Size constant, used for argument/field counts,
// jump offsets, and forward-patched function start/end positions.
func NewSizeConstant(v uint32) Constant { return Constant{Kind: KindSize, Size: v} }

// AsBool returns the Bool payload, panicking if the constant isn't a
// Bool - a mismatch here is an emitter bug, not a user-facing error.
func (c Constant) AsBool() bool {
	if c.Kind != KindBool {
		panic(fmt.Sprintf("constant is not a bool: %v", c))
	}
	return c.Bool
}

// AsNumber returns the Number payload, panicking on mismatch.
func (c Constant) AsNumber() float64 {
	if c.Kind != KindNumber {
		panic(fmt.Sprintf("constant is not a number: %v", c))
	}
	return c.Num
}

// AsString returns the String payload, panicking on mismatch.
func (c Constant) AsString() string {
	if c.Kind != KindString {
		panic(fmt.Sprintf("constant is not a string: %v", c))
	}
	return c.Str
}

// AsSize returns the Size payload, panicking on mismatch.
func (c Constant) AsSize() uint32 {
	if c.Kind != KindSize {
		panic(fmt.Sprintf("constant is not a size: %v", c))
	}
	return c.Size
}

// maxConstantPoolSize is the largest index a 24-bit big-endian operand
// can address.
const maxConstantPoolSize = 1 << 24

// Chunk aggregates a chunk's three parallel structures: the byte code,
// the constant pool, and the offset-to-span source map.
//
// Invariants:
//   - Every LoadConstant opcode is followed by exactly 3 operand bytes.
//   - Every opcode byte has an entry in SourceMap.
//   - A Chunk is append-only during emission, read-only during execution.
type Chunk struct {
	Code         []byte
	ConstantPool []Constant
	SourceMap    map[int]span.Span
}

// New creates an empty Chunk.
func New() *Chunk {
	return &Chunk{SourceMap: make(map[int]span.Span)}
}

// Len returns the current length of the code buffer - equivalently, the
// offset the next emitted instruction will occupy.
func (c *Chunk) Len() int { return len(c.Code) }

// PushInstruction appends a single-byte opcode (anything but
// LoadConstant) tagged with sp, returning its offset.
func (c *Chunk) PushInstruction(op Opcode, sp span.Span) int {
	if op == LoadConstant {
		panic("PushInstruction called with LoadConstant; use PushConstant")
	}
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	c.SourceMap[offset] = sp
	return offset
}

// PushConstant appends val to the constant pool and emits a LoadConstant
// instruction referencing it, tagged with sp. It returns the constant
// pool index, which callers may later overwrite via PatchConstant to
// implement the forward-reference patching protocol (DeclareFunction,
// DeclareMethod, JumpIfFalse's offset, and the If-statement's relative
// jump all reserve a placeholder Size constant this way).
func (c *Chunk) PushConstant(val Constant, sp span.Span) int {
	idx := len(c.ConstantPool)
	if idx >= maxConstantPoolSize {
		panic("constant pool overflow: more than 2^24 constants")
	}
	c.ConstantPool = append(c.ConstantPool, val)

	offset := len(c.Code)
	c.Code = append(c.Code, byte(LoadConstant))
	c.Code = append(c.Code, byte(idx>>16), byte(idx>>8), byte(idx))
	c.SourceMap[offset] = sp

	return idx
}

// PatchConstant overwrites the constant pool entry at idx - used to
// backfill forward-referenced Size(MAX) placeholders once their real
// value (a jump offset, or a function's start/end) is known.
func (c *Chunk) PatchConstant(idx int, val Constant) {
	c.ConstantPool[idx] = val
}

// ConstantAt returns the constant pool entry at idx.
func (c *Chunk) ConstantAt(idx int) Constant {
	return c.ConstantPool[idx]
}

// ByteAt returns the raw opcode byte at offset.
func (c *Chunk) ByteAt(offset int) Opcode {
	return Opcode(c.Code[offset])
}

// ConstantIndexAt decodes the 3-byte big-endian constant pool index
// immediately following the LoadConstant opcode at offset.
func (c *Chunk) ConstantIndexAt(offset int) int {
	return int(c.Code[offset+1])<<16 | int(c.Code[offset+2])<<8 | int(c.Code[offset+3])
}

// SpanAt returns the source span tagging the opcode at offset.
func (c *Chunk) SpanAt(offset int) span.Span {
	return c.SourceMap[offset]
}
