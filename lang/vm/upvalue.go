package vm

import (
	"unsafe"

	"github.com/mna/meon/lang/value"
)

// slotOf recovers the absolute index into vm.stack that an open upvalue's
// Location points at. Location is always a pointer obtained from
// &vm.stack[i], so the offset from the stack's base address is exact.
func (vm *VM) slotOf(loc *value.Value) int {
	base := unsafe.Pointer(&vm.stack[0])
	return int((uintptr(unsafe.Pointer(loc)) - uintptr(base)) / unsafe.Sizeof(vm.stack[0]))
}

// captureUpvalue returns the open upvalue for the stack slot at absolute
// index slot, reusing an existing one if two closures capture the same
// enclosing local (they must share one cell so writes through either are
// visible to both), otherwise inserting a new one into the VM's
// open-upvalues list, kept sorted by descending slot so this search can
// stop the moment it passes slot.
func (vm *VM) captureUpvalue(slot int) *value.Upvalue {
	var prev *value.Upvalue
	uv := vm.openUpvalues
	for uv != nil && vm.slotOf(uv.Location) > slot {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && vm.slotOf(uv.Location) == slot {
		return uv
	}

	created := vm.alloc.NewUpvalue(&vm.stack[slot])
	created.Next = uv
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue whose location is at or above the
// absolute stack index last, copying each one's current value into its own
// storage before the frame that owned that stack slot is popped (on
// RETURN) or before that one slot is reused (on CLOSE_UPVALUE, for a
// single local leaving a block's scope).
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.slotOf(vm.openUpvalues.Location) >= last {
		uv := vm.openUpvalues
		uv.Close()
		vm.openUpvalues = uv.Next
	}
}
