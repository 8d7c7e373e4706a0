// Package bytecode provides a small stack-based virtual machine for
// double-precision arithmetic.
//
// # Architecture Overview
//
//   - Opcodes: seven single-byte instructions. LoadConstant carries a
//     one-byte constant pool index; every other opcode has no operand.
//
//   - Chunk: a named instruction stream plus its constant pool and a line
//     table holding the source line of every byte. Chunks are assembled
//     by the caller with Write and AddConstant; there is no compiler.
//     Chunks can be serialized to CBOR for storage or transport.
//
//   - Disassembler: Chunk.String renders a deterministic listing used as
//     the golden output in tests.
//
//   - VM: interprets a chunk until Return, reporting the returned value.
//
// # Operand Stack
//
// The operand stack holds constant pool indices rather than values.
// Negate therefore rewrites the pool slot on top of the stack in place,
// and arithmetic appends its result to the pool and pushes the new index.
// Two LoadConstants of the same index alias the same slot; a negation
// through one is visible through the other.
//
// All storage is backed by buffer.Growable.
package bytecode
