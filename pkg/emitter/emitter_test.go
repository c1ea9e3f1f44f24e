package emitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caiquetorres/lumi/pkg/bytecode"
	"github.com/caiquetorres/lumi/pkg/parser"
	"github.com/caiquetorres/lumi/pkg/span"
)

func mustEmit(t *testing.T, src string) *bytecode.Chunk {
	t.Helper()
	sc := span.NewSourceCode("test.lumi", src)
	prog, err := parser.New(sc).Parse()
	require.NoError(t, err)
	chunk, err := Emit(prog)
	require.NoError(t, err)
	return chunk
}

func opcodes(c *bytecode.Chunk) []bytecode.Opcode {
	var ops []bytecode.Opcode
	offset := 0
	for offset < len(c.Code) {
		op := c.ByteAt(offset)
		ops = append(ops, op)
		offset += op.Size()
	}
	return ops
}

func TestEmitNumberLiteralConvertsConstant(t *testing.T) {
	c := mustEmit(t, "println 1;")
	assert.Equal(t, []bytecode.Opcode{
		bytecode.LoadConstant, bytecode.ConvertConstant, bytecode.PrintLn,
	}, opcodes(c))
}

func TestEmitBinaryAddDispatchesOperator(t *testing.T) {
	c := mustEmit(t, "println 1 + 2;")
	assert.Equal(t, []bytecode.Opcode{
		bytecode.LoadConstant, bytecode.ConvertConstant,
		bytecode.LoadConstant, bytecode.ConvertConstant,
		bytecode.Add, bytecode.PrintLn,
	}, opcodes(c))
}

func TestEmitNotEqualExpandsToEqualsThenNot(t *testing.T) {
	c := mustEmit(t, "println 1 != 2;")
	ops := opcodes(c)
	assert.Equal(t, bytecode.Equals, ops[len(ops)-3])
	assert.Equal(t, bytecode.Not, ops[len(ops)-2])
}

func TestEmitLetDeclaresVariable(t *testing.T) {
	c := mustEmit(t, "let x = 1;")
	ops := opcodes(c)
	assert.Contains(t, ops, bytecode.DeclareVariable)
}

func TestEmitAssignmentToIdentUsesSetVariable(t *testing.T) {
	c := mustEmit(t, "let x = 1; x = 2;")
	ops := opcodes(c)
	assert.Contains(t, ops, bytecode.SetVariable)
}

func TestEmitAssignmentToPropertyUsesSetProperty(t *testing.T) {
	c := mustEmit(t, "class Point { x } let p = Point { x: 1 }; p.x = 2;")
	ops := opcodes(c)
	assert.Contains(t, ops, bytecode.SetProperty)
	assert.Contains(t, ops, bytecode.Instantiate)
}

func TestEmitClassDeclAndInstantiate(t *testing.T) {
	c := mustEmit(t, "class Point { x, y } let p = Point { x: 1, y: 2 };")
	ops := opcodes(c)
	assert.Contains(t, ops, bytecode.DeclareClass)
	assert.Contains(t, ops, bytecode.Instantiate)
}

func TestEmitFunDeclPatchesStartAndEnd(t *testing.T) {
	c := mustEmit(t, "fun add(a, b) { return a + b; }")
	// end, start, params (reverse), param_count, name - six LoadConstant
	// slots before DeclareFunction, all patched to real (non-placeholder)
	// values once the body has been walked.
	idx := -1
	for i, op := range opcodes(c) {
		if op == bytecode.DeclareFunction {
			idx = i
			break
		}
	}
	require.NotEqual(t, -1, idx)

	startSize := c.ConstantAt(1).AsSize()
	endSize := c.ConstantAt(0).AsSize()
	assert.Less(t, startSize, endSize)
	assert.NotEqual(t, uint32(0xFFFFFFFF), startSize)
	assert.NotEqual(t, uint32(0xFFFFFFFF), endSize)
}

func TestEmitImplPushesTypeNameBeforeMethod(t *testing.T) {
	c := mustEmit(t, "class Point { x } impl Point { fun get() { return this.x; } }")
	ops := opcodes(c)
	assert.Contains(t, ops, bytecode.DeclareMethod)
	// constants[0] is the class declaration's name; constants[1] is the
	// impl's type name, pushed ahead of the method's end placeholder.
	assert.Equal(t, "Point", c.ConstantAt(1).AsString())
	assert.Equal(t, bytecode.KindSize, c.ConstantAt(2).Kind)
}

func TestEmitIfPatchesRelativeOffset(t *testing.T) {
	c := mustEmit(t, "if true { println 1; }")
	ops := opcodes(c)
	assert.Contains(t, ops, bytecode.JumpIfFalse)
	// The then-block spans BeginScope, LoadConstant (4 bytes),
	// ConvertConstant, PrintLn, EndScope: 8 bytes past JumpIfFalse.
	assert.Equal(t, uint32(8), c.ConstantAt(1).AsSize())
}

func TestEmitStringLiteralExpressionIsCompileTimeError(t *testing.T) {
	sc := span.NewSourceCode("test.lumi", `println "hi";`)
	prog, err := parser.New(sc).Parse()
	require.NoError(t, err)
	_, err = Emit(prog)
	assert.Error(t, err)
}

func TestEmitInvalidAssignmentTargetIsCompileTimeError(t *testing.T) {
	sc := span.NewSourceCode("test.lumi", "1 = 2;")
	prog, err := parser.New(sc).Parse()
	require.NoError(t, err)
	_, err = Emit(prog)
	assert.Error(t, err)
}
