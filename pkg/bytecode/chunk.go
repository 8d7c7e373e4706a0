package bytecode

import (
	"fmt"
	"math"
	"strconv"

	"github.com/chazu/loxvm/pkg/buffer"
)

// Value is the only constant type the VM models.
type Value = float64

// Chunk is a named unit of bytecode: the instruction stream, the constant
// pool it references and the source line of every byte.
//
// Chunks are assembled directly by callers; Write performs no validation,
// so a chunk is only executable if every LoadConstant operand is an index
// previously returned by AddConstant and the stream ends on an instruction
// boundary.
type Chunk struct {
	name      string
	bytecode  *buffer.Growable[byte]
	constants *buffer.Growable[Value]
	lines     *buffer.Growable[int] // one entry per bytecode byte
}

// NewChunk creates a new empty chunk.
func NewChunk(name string) *Chunk {
	return &Chunk{
		name:      name,
		bytecode:  buffer.New[byte](),
		constants: buffer.New[Value](),
		lines:     buffer.New[int](),
	}
}

// Name returns the chunk's diagnostic name.
func (c *Chunk) Name() string {
	return c.name
}

// Write appends a raw byte and the source line it came from.
func (c *Chunk) Write(b byte, line int) {
	c.bytecode.Push(b)
	c.lines.Push(line)
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op Opcode, line int) {
	c.Write(byte(op), line)
}

// MaxConstantIndex is the largest pool index a LoadConstant operand holds.
const MaxConstantIndex = 255

// EmitConstant adds value to the pool and emits a LoadConstant for it.
// Returns the pool index. Panics if the index does not fit the operand.
func (c *Chunk) EmitConstant(value Value, line int) int {
	idx := c.AddConstant(value)
	if idx > MaxConstantIndex {
		panic(fmt.Sprintf("bytecode: constant index %d exceeds %d", idx, MaxConstantIndex))
	}
	c.WriteOp(OpLoadConstant, line)
	c.Write(byte(idx), line)
	return idx
}

// AddConstant appends value to the constant pool and returns its index.
// Equal values are not deduplicated.
func (c *Chunk) AddConstant(value Value) int {
	c.constants.Push(value)
	return c.constants.Len() - 1
}

// GetByte returns the byte at offset. Panics if offset is out of range.
func (c *Chunk) GetByte(offset int) byte {
	return c.bytecode.At(offset)
}

// GetConstant returns the constant at index. Panics if index is out of range.
func (c *Chunk) GetConstant(index int) Value {
	return c.constants.At(index)
}

// UpdateConstant overwrites a constant slot in place.
func (c *Chunk) UpdateConstant(index int, value Value) {
	c.constants.Set(index, value)
}

// LineAt returns the source line recorded for the byte at offset.
func (c *Chunk) LineAt(offset int) int {
	return c.lines.At(offset)
}

// Len returns the length of the bytecode stream.
func (c *Chunk) Len() int {
	return c.bytecode.Len()
}

// ConstantCount returns the number of constants in the pool.
func (c *Chunk) ConstantCount() int {
	return c.constants.Len()
}

// Code returns a read-only view of the bytecode stream.
func (c *Chunk) Code() buffer.View[byte] {
	return c.bytecode.View()
}

// Constants returns a read-only view of the constant pool.
func (c *Chunk) Constants() buffer.View[Value] {
	return c.constants.View()
}

// Lines returns a read-only view of the line table.
func (c *Chunk) Lines() buffer.View[int] {
	return c.lines.View()
}

// Release frees the chunk's buffers. The chunk is empty afterwards.
func (c *Chunk) Release() {
	c.bytecode.Release()
	c.constants.Release()
	c.lines.Release()
}

// FormatValue renders a constant the way the disassembler and the VM
// report it: shortest round-trip decimal, never in exponent form.
func FormatValue(v Value) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
