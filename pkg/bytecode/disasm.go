package bytecode

import (
	"fmt"
	"strings"
)

// String returns the disassembly listing of the chunk:
//
//	-- demo --
//	0000    1 LoadConstant        0 '3.14'
//	0002    2 Return
//
// The walk is total: an undecodable byte is reported and skipped, and a
// truncated or out-of-pool LoadConstant is still rendered.
func (c *Chunk) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "-- %s --\n", c.name)

	for offset := 0; offset < c.Len(); {
		line, instrLen := c.DisassembleInstruction(offset)
		sb.WriteString(line)
		sb.WriteByte('\n')
		offset += instrLen
	}

	return sb.String()
}

// Disassemble is an alias for String.
func (c *Chunk) Disassemble() string {
	return c.String()
}

// DisassembleInstruction renders the instruction at offset, without a
// trailing newline, and returns the number of bytes it occupies.
func (c *Chunk) DisassembleInstruction(offset int) (string, int) {
	if offset < 0 || offset >= c.Len() {
		return "<end of code>", 0
	}

	op, err := DecodeOpcode(c.GetByte(offset))
	if err != nil {
		return err.Error(), 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%04d ", offset)
	if offset > 0 && c.LineAt(offset) == c.LineAt(offset-1) {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(&sb, "%4d ", c.LineAt(offset))
	}

	switch op {
	case OpLoadConstant:
		c.constantInstruction(&sb, op, offset)
	default:
		sb.WriteString(op.String())
	}

	return sb.String(), op.InstructionLen()
}

// constantInstruction writes "<name> <index> '<value>'" for an instruction
// with a one-byte pool index operand.
func (c *Chunk) constantInstruction(sb *strings.Builder, op Opcode, offset int) {
	if offset+1 >= c.Len() {
		fmt.Fprintf(sb, "%-16s %4s '<invalid>'", op, "?")
		return
	}
	idx := int(c.GetByte(offset + 1))
	if idx >= c.ConstantCount() {
		fmt.Fprintf(sb, "%-16s %4d '<invalid>'", op, idx)
		return
	}
	fmt.Fprintf(sb, "%-16s %4d '%s'", op, idx, FormatValue(c.GetConstant(idx)))
}

// DisassembleToLines returns the instruction lines of the listing,
// without the header.
func (c *Chunk) DisassembleToLines() []string {
	var lines []string
	for offset := 0; offset < c.Len(); {
		line, instrLen := c.DisassembleInstruction(offset)
		lines = append(lines, line)
		offset += instrLen
	}
	return lines
}

// InstructionCount returns the number of instructions in the chunk,
// counting each undecodable byte as one.
func (c *Chunk) InstructionCount() int {
	count := 0
	for offset := 0; offset < c.Len(); count++ {
		_, instrLen := c.DisassembleInstruction(offset)
		offset += instrLen
	}
	return count
}
