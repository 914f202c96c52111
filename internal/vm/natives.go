package vm

import "time"

// registerNatives binds the fixed builtin surface: clock, append, and
// delete. Native functions shadow no keyword but do collide with a user
// global of the same name — intentionally; last write to the shared
// globals table wins.
func registerNatives(vm *VM) {
	define := func(name string, fn NativeFn) {
		vm.globals.Set(vm.gc.NewString(name), ObjVal(vm.gc.NewNative(name, fn)))
	}

	define("clock", nativeClock)
	define("append", nativeAppend)
	define("delete", nativeDelete)
}

func nativeClock(vm *VM, args []Value) (Value, error) {
	if len(args) != 0 {
		return Nil(), vm.newError("clock() takes no arguments.")
	}
	return NumberVal(float64(time.Now().UnixNano()) / 1e9), nil
}

func nativeAppend(vm *VM, args []Value) (Value, error) {
	if len(args) != 2 {
		return Nil(), vm.newError("append() expects 2 arguments.")
	}
	if !args[0].IsList() {
		return Nil(), vm.newError("append() expects a list as its first argument.")
	}
	list := args[0].AsList()
	list.Items = append(list.Items, args[1])
	return Nil(), nil
}

func nativeDelete(vm *VM, args []Value) (Value, error) {
	if len(args) != 2 {
		return Nil(), vm.newError("delete() expects 2 arguments.")
	}
	if !args[0].IsList() {
		return Nil(), vm.newError("delete() expects a list as its first argument.")
	}
	if !args[1].IsNumber() {
		return Nil(), vm.newError("delete() expects a number index.")
	}
	list := args[0].AsList()
	i := int(args[1].Number)
	if i < 0 || i >= len(list.Items) {
		return Nil(), vm.newError("List index out of range")
	}
	// Shift down, then drop the last logical slot without shrinking
	// capacity.
	copy(list.Items[i:], list.Items[i+1:])
	list.Items[len(list.Items)-1] = Nil()
	list.Items = list.Items[:len(list.Items)-1]
	return Nil(), nil
}
