package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caiquetorres/lumi/pkg/span"
)

func testSpan() span.Span {
	sc := span.NewSourceCode("test.lumi", "x")
	return sc.Slice(0, 1)
}

func TestChunkPushInstruction(t *testing.T) {
	c := New()
	off := c.PushInstruction(Add, testSpan())
	assert.Equal(t, 0, off)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, Add, c.ByteAt(off))
}

func TestChunkPushInstructionRejectsLoadConstant(t *testing.T) {
	c := New()
	assert.Panics(t, func() { c.PushInstruction(LoadConstant, testSpan()) })
}

func TestChunkPushConstant(t *testing.T) {
	c := New()
	idx := c.PushConstant(NewNumberConstant(42), testSpan())
	require.Equal(t, 0, idx)
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, LoadConstant, c.ByteAt(0))
	assert.Equal(t, idx, c.ConstantIndexAt(0))
	assert.Equal(t, float64(42), c.ConstantAt(idx).AsNumber())
}

func TestChunkPatchConstant(t *testing.T) {
	c := New()
	idx := c.PushConstant(NewSizeConstant(0xFFFFFFFF), testSpan())
	c.PatchConstant(idx, NewSizeConstant(7))
	assert.Equal(t, uint32(7), c.ConstantAt(idx).AsSize())
}

func TestConstantAccessorsPanicOnMismatch(t *testing.T) {
	cases := []struct {
		name string
		fn   func()
	}{
		{"bool-as-number", func() { NewBoolConstant(true).AsNumber() }},
		{"number-as-string", func() { NewNumberConstant(1).AsString() }},
		{"string-as-size", func() { NewStringConstant("x").AsSize() }},
		{"size-as-bool", func() { NewSizeConstant(1).AsBool() }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Panics(t, tc.fn)
		})
	}
}

func TestOpcodeSize(t *testing.T) {
	assert.Equal(t, 4, LoadConstant.Size())
	assert.Equal(t, 1, Add.Size())
	assert.Equal(t, 1, Return.Size())
}

func TestMultipleInstructionsAdvanceOffsetsBySize(t *testing.T) {
	c := New()
	sp := testSpan()
	c.PushConstant(NewNumberConstant(1), sp)
	c.PushInstruction(ConvertConstant, sp)
	c.PushConstant(NewNumberConstant(2), sp)
	c.PushInstruction(ConvertConstant, sp)
	c.PushInstruction(Add, sp)
	c.PushInstruction(PrintLn, sp)

	assert.Equal(t, ConvertConstant, c.ByteAt(4))
	assert.Equal(t, Add, c.ByteAt(10))
	assert.Equal(t, PrintLn, c.ByteAt(11))
	assert.Equal(t, 12, c.Len())
}
