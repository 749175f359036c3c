// Package vm implements Meon's stack-based bytecode interpreter: a
// fetch-decode-dispatch loop over a bounded value stack and a bounded array
// of call frames, grounded on spec.md's §4.5 description (original_source's
// vm.c is an early, reduced revision with no call-frame or closure
// machinery at all — see DESIGN.md).
package vm

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sync/atomic"

	"github.com/mna/meon/lang/chunk"
	"github.com/mna/meon/lang/table"
	"github.com/mna/meon/lang/value"
)

const (
	// FramesMax is the largest number of nested calls the VM allows.
	FramesMax = 256
	// maxLocalsPerFrame matches lang/compiler's per-function locals cap, so
	// that FramesMax frames each fully using their cap exactly fill StackMax.
	maxLocalsPerFrame = 256
	// StackMax is the total number of value slots across every active frame.
	StackMax = FramesMax * maxLocalsPerFrame
)

// frame records one active call: the closure being executed, the next
// instruction to fetch, and the stack slot its locals begin at (slot 0 is
// conventionally the closure itself, per lang/compiler's reserved "" local).
type frame struct {
	closure *value.Closure
	ip      int
	base    int
	// opStart is the offset of the opcode byte the frame last began
	// executing, used to look up a source line for a backtrace even when the
	// opcode's operands have already been consumed by the time an error is
	// raised.
	opStart int
}

// VM is a single-use interpreter for one compiled program. It owns the
// value stack, the call-frame array, the globals table, the list of open
// upvalues, and the allocator every opcode that creates a heap value goes
// through.
type VM struct {
	stack    [StackMax]value.Value
	stackTop int

	frames     [FramesMax]frame
	frameCount int

	globals      *table.Globals
	openUpvalues *value.Upvalue

	alloc value.Allocator
	out   io.Writer

	// MaxSteps bounds the number of dispatch-loop iterations Interpret will
	// run before cancelling the program, a deliberately unspecified measure
	// of execution time (not a Meon language feature) that lets a host guard
	// against a runaway script. A value <= 0 means no limit.
	MaxSteps int

	// OnStep, when set, is called once per dispatch-loop iteration just
	// before the next instruction is decoded, with the frame's instruction
	// pointer already positioned at that instruction. lang/disasm.Trace
	// reads exactly that state, which is how the CLI's debug level 2 traces
	// execution without vm importing disasm.
	OnStep func(*VM)

	ctx       context.Context
	ctxCancel context.CancelCauseFunc
	cancelled atomic.Bool
	steps     uint64
	maxSteps  uint64
}

// New returns a VM ready to Interpret one compiled script. alloc is
// typically a *gc.Collector; out defaults to os.Stdout if nil.
func New(alloc value.Allocator, globals *table.Globals, out io.Writer) *VM {
	if out == nil {
		out = os.Stdout
	}
	return &VM{alloc: alloc, globals: globals, out: out}
}

// initCtx wires ctx (or context.Background if nil) into the VM's own
// cancellable context and starts the goroutine that watches for external
// cancellation, mirroring lang/machine/thread.go's Thread.init.
func (vm *VM) initCtx(ctx context.Context) {
	if vm.MaxSteps <= 0 {
		vm.maxSteps--
	} else {
		vm.maxSteps = uint64(vm.MaxSteps)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancelCause(ctx)
	vm.ctx = ctx
	vm.ctxCancel = cancel
	go func() {
		<-ctx.Done()
		vm.cancelled.Store(true)
	}()
}

// GCStack implements gc.VMRoots.
func (vm *VM) GCStack() []value.Value { return vm.stack[:vm.stackTop] }

// GCOpenUpvalues implements gc.VMRoots.
func (vm *VM) GCOpenUpvalues() *value.Upvalue { return vm.openUpvalues }

// CurrentFrame returns the closure and instruction pointer of the
// innermost active frame, for lang/disasm's debug-level-2 trace hook. It
// returns (nil, 0) once there is no active frame.
func (vm *VM) CurrentFrame() (*value.Closure, int) {
	if vm.frameCount == 0 {
		return nil, 0
	}
	fr := &vm.frames[vm.frameCount-1]
	return fr.closure, fr.ip
}

// DefineNative registers fn under name as a global, for the host's native
// function interface (time, clock).
func (vm *VM) DefineNative(name string, fn value.NativeFn) {
	vm.globals.Define(name, vm.alloc.NewNative(name, fn))
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// Interpret runs fn (the implicit top-level script Function the compiler
// produced) to completion, or until ctx is cancelled or MaxSteps dispatch
// iterations have run.
func (vm *VM) Interpret(ctx context.Context, fn *value.Function) error {
	vm.initCtx(ctx)
	defer vm.ctxCancel(nil)

	closure := vm.alloc.NewClosure(fn)
	vm.push(closure)
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	return vm.run()
}

// run is the dispatch loop: it fetches one instruction from the current
// frame, advances past its operands, and executes it, until the outermost
// frame returns or a runtime error aborts execution.
func (vm *VM) run() error {
	fr := &vm.frames[vm.frameCount-1]

	readByte := func() byte {
		b := fr.closure.Fn.Chunk.Code[fr.ip]
		fr.ip++
		return b
	}
	readUint16 := func() uint16 {
		v := fr.closure.Fn.Chunk.ReadUint16(fr.ip)
		fr.ip += 2
		return v
	}
	readConstant := func() value.Value {
		return fr.closure.Fn.Chunk.Constants[readByte()].(value.Value)
	}

	for {
		vm.steps++
		if vm.steps >= vm.maxSteps {
			vm.ctxCancel(fmt.Errorf("exceeded max steps (%d)", vm.maxSteps))
			return vm.runtimeError("execution cancelled: %s", context.Cause(vm.ctx))
		}
		if vm.cancelled.Load() {
			return vm.runtimeError("execution cancelled: %s", context.Cause(vm.ctx))
		}

		fr.opStart = fr.ip
		if vm.OnStep != nil {
			vm.OnStep(vm)
		}
		op := chunk.Op(readByte())

		switch op {
		case chunk.CONSTANT:
			vm.push(readConstant())

		case chunk.NULL:
			vm.push(value.Null{})
		case chunk.TRUE:
			vm.push(value.Bool(true))
		case chunk.FALSE:
			vm.push(value.Bool(false))

		case chunk.POP:
			vm.pop()

		case chunk.DEFINE_GLOBAL:
			name := readConstant().(*value.String)
			vm.globals.Define(name.Chars, vm.pop())

		case chunk.GET_GLOBAL:
			name := readConstant().(*value.String)
			v, ok := vm.globals.Get(name.Chars)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)

		case chunk.SET_GLOBAL:
			name := readConstant().(*value.String)
			if !vm.globals.Has(name.Chars) {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.globals.Define(name.Chars, vm.peek(0))

		case chunk.GET_LOCAL:
			slot := readByte()
			vm.push(vm.stack[fr.base+int(slot)])

		case chunk.SET_LOCAL:
			slot := readByte()
			vm.stack[fr.base+int(slot)] = vm.peek(0)

		case chunk.GET_UPVALUE:
			slot := readByte()
			vm.push(fr.closure.Upvalues[slot].Get())

		case chunk.SET_UPVALUE:
			slot := readByte()
			fr.closure.Upvalues[slot].Set(vm.peek(0))

		case chunk.CLOSE_UPVALUE:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case chunk.EQUAL:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case chunk.NOT_EQUAL:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(!value.Equal(a, b)))

		case chunk.GREATER, chunk.GREATER_EQUAL, chunk.LESS, chunk.LESS_EQUAL:
			bn, aok1 := vm.peek(0).(value.Number)
			an, aok2 := vm.peek(1).(value.Number)
			if !aok1 || !aok2 {
				return vm.runtimeError("Operands must be numbers.")
			}
			vm.pop()
			vm.pop()
			var result bool
			switch op {
			case chunk.GREATER:
				result = an > bn
			case chunk.GREATER_EQUAL:
				result = an >= bn
			case chunk.LESS:
				result = an < bn
			case chunk.LESS_EQUAL:
				result = an <= bn
			}
			vm.push(value.Bool(result))

		case chunk.ADD, chunk.SUBTRACT, chunk.MULTIPLY, chunk.DIVIDE:
			bn, bok := vm.peek(0).(value.Number)
			an, aok := vm.peek(1).(value.Number)
			if !aok || !bok {
				return vm.runtimeError("Operands must be numbers.")
			}
			vm.pop()
			vm.pop()
			var result value.Number
			switch op {
			case chunk.ADD:
				result = an + bn
			case chunk.SUBTRACT:
				result = an - bn
			case chunk.MULTIPLY:
				result = an * bn
			case chunk.DIVIDE:
				if bn == 0 {
					return vm.runtimeError("Division by zero.")
				}
				result = an / bn
			}
			vm.push(result)

		case chunk.MODULO, chunk.EXPONENT:
			bn, bok := vm.peek(0).(value.Number)
			an, aok := vm.peek(1).(value.Number)
			if !aok || !bok {
				return vm.runtimeError("Operands must be numbers.")
			}
			vm.pop()
			vm.pop()
			ta, tb := math.Trunc(float64(an)), math.Trunc(float64(bn))
			var result float64
			if op == chunk.MODULO {
				if tb == 0 {
					return vm.runtimeError("Modulo by zero.")
				}
				result = math.Mod(ta, tb)
			} else {
				result = math.Pow(ta, tb)
			}
			vm.push(value.Number(result))

		case chunk.CONCAT:
			bs, bok := vm.peek(0).(*value.String)
			as, aok := vm.peek(1).(*value.String)
			if !aok || !bok {
				return vm.runtimeError("Operands must be strings.")
			}
			vm.pop()
			vm.pop()
			vm.push(vm.alloc.NewString(as.Chars + bs.Chars))

		case chunk.NOT:
			vm.push(value.Bool(!vm.pop().Truthy()))

		case chunk.NEGATE:
			n, ok := vm.peek(0).(value.Number)
			if !ok {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.pop()
			vm.push(-n)

		case chunk.OUTPUT:
			fmt.Fprintln(vm.out, vm.pop().String())

		case chunk.JUMP:
			disp := readUint16()
			fr.ip += int(disp)

		case chunk.JUMP_IF_FALSE:
			disp := readUint16()
			if !vm.peek(0).Truthy() {
				fr.ip += int(disp)
			}

		case chunk.LOOP:
			disp := readUint16()
			fr.ip -= int(disp)

		case chunk.CALL:
			argc := int(readByte())
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}
			fr = &vm.frames[vm.frameCount-1]

		case chunk.CLOSURE:
			fn := readConstant().(*value.Function)
			cl := vm.alloc.NewClosure(fn)
			vm.push(cl)
			for i := range cl.Upvalues {
				isLocal := readByte()
				index := int(readByte())
				if isLocal != 0 {
					cl.Upvalues[i] = vm.captureUpvalue(fr.base + index)
				} else {
					cl.Upvalues[i] = fr.closure.Upvalues[index]
				}
			}

		case chunk.RETURN:
			result := vm.pop()
			vm.closeUpvalues(fr.base)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop() // the script closure itself
				return nil
			}
			vm.stackTop = fr.base
			vm.push(result)
			fr = &vm.frames[vm.frameCount-1]

		default:
			return vm.runtimeError("internal error: illegal opcode %d", byte(op))
		}
	}
}
