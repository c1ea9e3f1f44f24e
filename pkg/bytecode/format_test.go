package bytecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisassemble(t *testing.T) {
	c := New()
	sp := testSpan()
	c.PushConstant(NewNumberConstant(1), sp)
	c.PushInstruction(ConvertConstant, sp)
	c.PushInstruction(PrintLn, sp)

	out := Disassemble(c)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require := assert.New(t)
	require.Len(lines, 3)
	require.Contains(lines[0], "LOAD_CONSTANT")
	require.Contains(lines[0], "Number(1)")
	require.Contains(lines[1], "CONVERT_CONSTANT")
	require.Contains(lines[2], "PRINTLN")
}
