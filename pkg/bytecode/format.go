package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a Chunk as a human-readable instruction listing,
// one line per opcode, in the traditional "OFFSET OPCODE operand"
// layout used by the `lumi disasm` CLI subcommand.
//
// Example output:
//
//	0000 LOAD_CONSTANT        0 ; Number(1)
//	0004 CONVERT_CONSTANT
//	0005 LOAD_CONSTANT        1 ; Number(2)
//	0009 CONVERT_CONSTANT
//	0010 ADD
//	0011 PRINTLN
func Disassemble(c *Chunk) string {
	var b strings.Builder
	offset := 0
	for offset < len(c.Code) {
		op := c.ByteAt(offset)
		fmt.Fprintf(&b, "%04d %-18s", offset, op)
		if op == LoadConstant {
			idx := c.ConstantIndexAt(offset)
			fmt.Fprintf(&b, "%4d ; %s", idx, formatConstant(c.ConstantAt(idx)))
		}
		b.WriteByte('\n')
		offset += op.Size()
	}
	return b.String()
}

func formatConstant(c Constant) string {
	switch c.Kind {
	case KindNil:
		return "Nil"
	case KindBool:
		return fmt.Sprintf("Bool(%v)", c.Bool)
	case KindNumber:
		return fmt.Sprintf("Number(%g)", c.Num)
	case KindString:
		return fmt.Sprintf("String(%q)", c.Str)
	case KindSize:
		return fmt.Sprintf("Size(%d)", c.Size)
	default:
		return "?"
	}
}
