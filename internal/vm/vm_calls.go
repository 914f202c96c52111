package vm

import "unsafe"

// Get returns an upvalue's current value, whether open (still on the
// stack) or closed (owns the value directly).
func (u *ObjUpvalue) Get() Value {
	if u.Location != nil {
		return *u.Location
	}
	return u.Closed
}

// Set writes through an upvalue, mutating the live stack slot while open
// or the owned value once closed.
func (u *ObjUpvalue) Set(v Value) {
	if u.Location != nil {
		*u.Location = v
		return
	}
	u.Closed = v
}

// callValue dispatches a CALL instruction on the value at the call site:
// a closure pushes a new frame, a native invokes immediately, a class
// constructs an instance, anything else is a runtime error.
func (vm *VM) callValue(callee Value, argCount int) error {
	if callee.Kind != ValObj {
		return vm.newError("Can only call functions and classes.")
	}

	switch callee.Obj.Kind() {
	case ObjClosureKind:
		return vm.call(callee.AsClosure(), argCount)
	case ObjNativeKind:
		native := callee.AsNative()
		args := vm.stack[vm.sp-argCount : vm.sp]
		result, err := native.Fn(vm, args)
		if err != nil {
			return err
		}
		vm.sp -= argCount + 1
		vm.push(result)
		return nil
	case ObjClassKind:
		class := callee.AsClass()
		if argCount != 0 {
			return vm.newError("Expected 0 arguments but got %d.", argCount)
		}
		instance := vm.gc.NewInstance(class)
		vm.sp -= argCount + 1
		vm.push(ObjVal(instance))
		return nil
	default:
		return vm.newError("Can only call functions and classes.")
	}
}

// call pushes a new call frame for closure, after checking arity and
// call depth.
func (vm *VM) call(closure *ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.newError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameCount == FramesMax {
		return vm.newError("Stack overflow.")
	}

	vm.frames[vm.frameCount] = CallFrame{
		closure: closure,
		ip:      0,
		base:    vm.sp - argCount - 1,
	}
	vm.frameCount++
	return nil
}

// captureUpvalue finds or creates an open upvalue for the stack slot at
// location, keeping the VM's open-upvalue list sorted by descending stack
// address so there is exactly one upvalue per live captured slot.
func (vm *VM) captureUpvalue(location int) *ObjUpvalue {
	var prev *ObjUpvalue
	upvalue := vm.openUpvalues

	for upvalue != nil && upvalue.Location != nil && vm.slotIndex(upvalue.Location) > location {
		prev = upvalue
		upvalue = upvalue.NextOpen
	}

	if upvalue != nil && upvalue.Location != nil && vm.slotIndex(upvalue.Location) == location {
		return upvalue
	}

	created := vm.gc.NewUpvalue(&vm.stack[location])
	created.NextOpen = upvalue

	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// slotIndex recovers the stack index an open upvalue's Location points at,
// by pointer arithmetic against the VM's own backing array.
func (vm *VM) slotIndex(p *Value) int {
	base := unsafe.Pointer(&vm.stack[0])
	off := uintptr(unsafe.Pointer(p)) - uintptr(base)
	return int(off / unsafe.Sizeof(Value{}))
}

// closeUpvalues closes every open upvalue at or above lastSlot, copying
// its stack value into its own storage and unlinking it from the open
// list. Invoked on CLOSE_UPVALUE and on RETURN.
func (vm *VM) closeUpvalues(lastSlot int) {
	for vm.openUpvalues != nil && vm.slotIndex(vm.openUpvalues.Location) >= lastSlot {
		upvalue := vm.openUpvalues
		upvalue.Closed = *upvalue.Location
		upvalue.Location = nil
		vm.openUpvalues = upvalue.NextOpen
	}
}
