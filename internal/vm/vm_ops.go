package vm

// binaryOp implements SUBTRACT/MULTIPLY/DIVIDE: both operands must be
// numbers.
func (vm *VM) binaryOp(f func(a, b float64) float64) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.newError("Operand must be numbers.")
	}
	b := vm.pop().Number
	a := vm.pop().Number
	vm.push(NumberVal(f(a, b)))
	return nil
}

// comparisonOp implements GREATER/LESS: both operands must be numbers.
func (vm *VM) comparisonOp(f func(a, b float64) bool) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.newError("Operand must be numbers.")
	}
	b := vm.pop().Number
	a := vm.pop().Number
	vm.push(BoolVal(f(a, b)))
	return nil
}

// addOp implements ADD: number+number adds, string+string concatenates by
// interning the joined byte sequence, anything else is a type error.
func (vm *VM) addOp() error {
	a := vm.peek(1)
	b := vm.peek(0)

	switch {
	case a.IsString() && b.IsString():
		bs := vm.pop().AsString()
		as := vm.pop().AsString()
		vm.push(ObjVal(vm.gc.NewString(as.Chars + bs.Chars)))
		return nil
	case a.IsNumber() && b.IsNumber():
		bv := vm.pop().Number
		av := vm.pop().Number
		vm.push(NumberVal(av + bv))
		return nil
	default:
		return vm.newError("Operand must be numbers.")
	}
}

// listInit implements LIST_INIT n: allocate an empty list, push it so it
// is GC-reachable while the n preceding stack slots are attached to it,
// then collapse the n source slots and leave just the list.
func (vm *VM) listInit(n int) error {
	list := vm.gc.NewList(nil)
	vm.push(ObjVal(list))

	list.Items = make([]Value, n)
	copy(list.Items, vm.stack[vm.sp-1-n:vm.sp-1])

	vm.stack[vm.sp-1-n] = vm.stack[vm.sp-1]
	vm.sp -= n
	return nil
}

func (vm *VM) listGetIndex() error {
	idx := vm.pop()
	obj := vm.pop()
	if !obj.IsList() {
		return vm.newError("Invalid type to index into.")
	}
	if !idx.IsNumber() {
		return vm.newError("List index is not a number.")
	}
	list := obj.AsList()
	i := int(idx.Number)
	if i < 0 || i >= len(list.Items) {
		return vm.newError("List index out of range")
	}
	vm.push(list.Items[i])
	return nil
}

func (vm *VM) listSetIndex() error {
	value := vm.pop()
	idx := vm.pop()
	obj := vm.pop()
	if !obj.IsList() {
		return vm.newError("Invalid type to index into.")
	}
	if !idx.IsNumber() {
		return vm.newError("List index is not a number.")
	}
	list := obj.AsList()
	i := int(idx.Number)
	if i < 0 || i >= len(list.Items) {
		return vm.newError("List index out of range")
	}
	list.Items[i] = value
	vm.push(value)
	return nil
}
