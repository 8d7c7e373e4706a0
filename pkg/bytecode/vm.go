package bytecode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/loxvm/pkg/buffer"
)

var (
	// ErrStackUnderflow is returned when an instruction needs more operands
	// than the stack holds.
	ErrStackUnderflow = errors.New("stack underflow")

	// ErrUnexpectedEnd is returned when execution runs past the last byte,
	// including a LoadConstant missing its operand.
	ErrUnexpectedEnd = errors.New("unexpected end of bytecode")

	// ErrConstantIndex is returned when a LoadConstant operand does not
	// name a slot in the constant pool.
	ErrConstantIndex = errors.New("constant index out of range")
)

// ErrorKind classifies an InterpretError.
type ErrorKind int

const (
	// CompileError is reserved for a front end; the VM never produces it.
	CompileError ErrorKind = iota
	RuntimeError
)

func (k ErrorKind) String() string {
	switch k {
	case CompileError:
		return "compile"
	case RuntimeError:
		return "runtime"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// InterpretError reports why a run failed and where.
type InterpretError struct {
	Kind   ErrorKind
	Offset int   // instruction offset of the failing step
	Err    error // underlying cause
}

func (e *InterpretError) Error() string {
	return fmt.Sprintf("%s error at %04d: %v", e.Kind, e.Offset, e.Err)
}

func (e *InterpretError) Unwrap() error {
	return e.Err
}

// IsRuntimeError reports whether err is an InterpretError of kind RuntimeError.
func IsRuntimeError(err error) bool {
	var ie *InterpretError
	return errors.As(err, &ie) && ie.Kind == RuntimeError
}

// VM executes one chunk. The operand stack holds constant-pool indices,
// not values: LoadConstant pushes its operand, Negate rewrites the pool
// slot on top of the stack, and arithmetic appends its result to the pool.
type VM struct {
	chunk *Chunk
	ip    int
	stack *buffer.Growable[int]

	out    io.Writer
	trace  bool
	log    commonlog.Logger
	result Value
	hasRes bool
}

// Option configures a VM.
type Option func(*VM)

// WithOutput sets where Return reports its value. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) {
		vm.out = w
	}
}

// WithTrace logs the stack and each instruction at debug level before it
// executes.
func WithTrace(trace bool) Option {
	return func(vm *VM) {
		vm.trace = trace
	}
}

// NewVM creates a new VM instance.
func NewVM(opts ...Option) *VM {
	vm := &VM{
		stack: buffer.New[int](),
		out:   os.Stdout,
		log:   commonlog.GetLogger("loxvm.vm"),
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Result returns the value reported by the last successful Return.
// ok is false when the run has not returned a value.
func (vm *VM) Result() (v Value, ok bool) {
	return vm.result, vm.hasRes
}

// StackDepth returns the number of indices on the operand stack.
func (vm *VM) StackDepth() int {
	return vm.stack.Len()
}

// Interpret runs chunk from its first byte until Return or failure.
// The chunk's constant pool is mutated by Negate and grown by arithmetic.
func (vm *VM) Interpret(chunk *Chunk) error {
	vm.chunk = chunk
	vm.ip = 0
	vm.stack.Release()
	vm.result, vm.hasRes = 0, false
	defer func() { vm.chunk = nil }()

	return vm.run()
}

// run is the main execution loop.
func (vm *VM) run() error {
	for {
		start := vm.ip
		if vm.ip >= vm.chunk.Len() {
			return vm.fail(start, ErrUnexpectedEnd)
		}

		op, err := DecodeOpcode(vm.chunk.GetByte(vm.ip))
		if err != nil {
			return vm.fail(start, fmt.Errorf("%w: %d", err, vm.chunk.GetByte(vm.ip)))
		}

		if vm.trace && vm.log.AllowLevel(commonlog.Debug) {
			line, _ := vm.chunk.DisassembleInstruction(vm.ip)
			vm.log.Debugf("%s", strings.TrimRight(vm.String(), "\n"))
			vm.log.Debugf("%s", line)
		}

		switch op {
		case OpReturn:
			if idx, ok := vm.stack.Pop(); ok {
				vm.result = vm.chunk.GetConstant(idx)
				vm.hasRes = true
				fmt.Fprintln(vm.out, FormatValue(vm.result))
			}
			return nil

		case OpLoadConstant:
			if vm.ip+1 >= vm.chunk.Len() {
				return vm.fail(start, ErrUnexpectedEnd)
			}
			idx := int(vm.chunk.GetByte(vm.ip + 1))
			if idx >= vm.chunk.ConstantCount() {
				return vm.fail(start, fmt.Errorf("%w: %d (pool size %d)", ErrConstantIndex, idx, vm.chunk.ConstantCount()))
			}
			vm.stack.Push(idx)

		case OpNegate:
			idx, ok := vm.stack.Last()
			if !ok {
				return vm.fail(start, ErrStackUnderflow)
			}
			vm.chunk.UpdateConstant(idx, -vm.chunk.GetConstant(idx))

		case OpAdd, OpSubtract, OpMultiply, OpDivide:
			if err := vm.binaryOp(op); err != nil {
				return vm.fail(start, err)
			}
		}

		vm.ip += op.InstructionLen()
	}
}

// binaryOp pops b then a, appends a <op> b to the pool and pushes its index.
func (vm *VM) binaryOp(op Opcode) error {
	if vm.stack.Len() < 2 {
		return ErrStackUnderflow
	}
	bIdx, _ := vm.stack.Pop()
	aIdx, _ := vm.stack.Pop()
	a, b := vm.chunk.GetConstant(aIdx), vm.chunk.GetConstant(bIdx)

	var r Value
	switch op {
	case OpAdd:
		r = a + b
	case OpSubtract:
		r = a - b
	case OpMultiply:
		r = a * b
	case OpDivide:
		r = a / b
	}

	vm.stack.Push(vm.chunk.AddConstant(r))
	return nil
}

func (vm *VM) fail(offset int, err error) error {
	vm.log.Debugf("halting at %04d: %v", offset, err)
	return &InterpretError{Kind: RuntimeError, Offset: offset, Err: err}
}

// String renders the operand stack as a trace line:
//
//	          [ 0 ][ 1 ]
func (vm *VM) String() string {
	var sb strings.Builder
	sb.WriteString("          ")
	for _, idx := range vm.stack.All() {
		fmt.Fprintf(&sb, "[ %d ]", idx)
	}
	sb.WriteByte('\n')
	return sb.String()
}
