package vm

import (
	"fmt"

	"github.com/mna/meon/lang/value"
)

// callValue dispatches a CALL instruction: callee must be a Closure or a
// Native, with its argc arguments on top of the stack and the callee itself
// in the slot just below them.
func (vm *VM) callValue(callee value.Value, argc int) error {
	switch c := callee.(type) {
	case *value.Closure:
		return vm.call(c, argc)
	case *value.Native:
		args := vm.stack[vm.stackTop-argc : vm.stackTop]
		result, err := c.Fn(args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stackTop -= argc + 1
		vm.push(result)
		return nil
	default:
		return vm.runtimeError("Can only call functions.")
	}
}

// call pushes a new frame for closure, verifying its arity and that the
// frame array is not already full.
func (vm *VM) call(closure *value.Closure, argc int) error {
	if argc != closure.Fn.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Fn.Arity, argc)
	}
	if vm.frameCount >= FramesMax {
		return vm.runtimeError("Oops! stack OVERFLOW.")
	}
	fr := &vm.frames[vm.frameCount]
	fr.closure = closure
	fr.ip = 0
	fr.base = vm.stackTop - argc - 1
	vm.frameCount++
	return nil
}

// FrameTrace is one entry of a RuntimeError's backtrace: the function
// active in a call frame and the source line it was executing.
type FrameTrace struct {
	Function string
	Line     int
}

// RuntimeError is returned by Interpret when a Meon program fails during
// execution. Backtrace lists the active call frames at the point of
// failure, innermost first.
type RuntimeError struct {
	Msg       string
	Backtrace []FrameTrace
}

func (e *RuntimeError) Error() string {
	s := e.Msg
	for _, f := range e.Backtrace {
		s += fmt.Sprintf("\n[line %d] in %s()", f.Line, f.Function)
	}
	return s
}

// runtimeError builds a RuntimeError from the current call stack (innermost
// frame first, the conventional backtrace order), then resets the VM to an
// empty stack so a host embedding the VM (e.g. a REPL) can keep running
// after reporting the failure.
func (vm *VM) runtimeError(format string, args ...any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	bt := make([]FrameTrace, 0, vm.frameCount)
	for i := vm.frameCount - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		fn := fr.closure.Fn
		name := fn.Name
		if name == "" {
			name = "script"
		}
		bt = append(bt, FrameTrace{Function: name, Line: fn.Chunk.Line(fr.opStart)})
	}

	vm.resetStack()
	return &RuntimeError{Msg: msg, Backtrace: bt}
}
