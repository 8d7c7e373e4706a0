package bytecode

import (
	"errors"
	"fmt"
)

// ErrInvalidOpcode is returned when a byte does not map to an instruction.
var ErrInvalidOpcode = errors.New("Invalid opcode")

// Opcode represents a bytecode instruction.
type Opcode byte

const (
	OpReturn       Opcode = 0 // Pop top of stack (if any) and report it
	OpLoadConstant Opcode = 1 // Push constant index: OpLoadConstant <index:u8>
	OpNegate       Opcode = 2 // Negate the constant referenced by top of stack, in place
	OpAdd          Opcode = 3 // Pop two, push index of new constant a + b
	OpSubtract     Opcode = 4 // Pop two, push index of new constant a - b (b is TOS)
	OpMultiply     Opcode = 5 // Pop two, push index of new constant a * b
	OpDivide       Opcode = 6 // Pop two, push index of new constant a / b
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string // Mnemonic used by the disassembler
	StackPop   int    // How many indices popped from stack (-1 = optional)
	StackPush  int    // How many indices pushed to stack
	OperandLen int    // Number of operand bytes following the opcode
}

// opcodeInfoTable is indexed by opcode byte.
var opcodeInfoTable = [...]OpcodeInfo{
	OpReturn:       {"Return", -1, 0, 0},
	OpLoadConstant: {"LoadConstant", 0, 1, 1},
	OpNegate:       {"Negate", 0, 0, 0}, // peeks, does not pop
	OpAdd:          {"Add", 2, 1, 0},
	OpSubtract:     {"Subtract", 2, 1, 0},
	OpMultiply:     {"Multiply", 2, 1, 0},
	OpDivide:       {"Divide", 2, 1, 0},
}

// DecodeOpcode converts a raw byte into an Opcode.
func DecodeOpcode(b byte) (Opcode, error) {
	if int(b) >= len(opcodeInfoTable) {
		return 0, ErrInvalidOpcode
	}
	return Opcode(b), nil
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if int(op) < len(opcodeInfoTable) {
		return opcodeInfoTable[op]
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsArithmetic reports whether op is one of the binary arithmetic opcodes.
func (op Opcode) IsArithmetic() bool {
	return op >= OpAdd && op <= OpDivide
}

// AllOpcodes returns every defined opcode in encoding order.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, len(opcodeInfoTable))
	for i := range opcodeInfoTable {
		opcodes[i] = Opcode(i)
	}
	return opcodes
}
