package vm

import "fmt"

func (vm *VM) readByte(frame *CallFrame) byte {
	b := frame.closure.Function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (vm *VM) readShort(frame *CallFrame) int {
	hi := frame.closure.Function.Chunk.Code[frame.ip]
	lo := frame.closure.Function.Chunk.Code[frame.ip+1]
	frame.ip += 2
	return int(hi)<<8 | int(lo)
}

func (vm *VM) readConstant(frame *CallFrame) Value {
	idx := vm.readByte(frame)
	return frame.closure.Function.Chunk.Constants[idx]
}

func (vm *VM) readString(frame *CallFrame) *ObjString {
	return vm.readConstant(frame).AsString()
}

// run is the dispatch loop: read one opcode byte from the active frame and
// route to its handler, advancing ip as operands are consumed. The active
// frame is always the top of vm.frames.
func (vm *VM) run() error {
	frame := vm.frame()

	for {
		op := OpCode(vm.readByte(frame))

		switch op {
		case OP_CONSTANT:
			vm.push(vm.readConstant(frame))

		case OP_NIL:
			vm.push(Nil())
		case OP_TRUE:
			vm.push(BoolVal(true))
		case OP_FALSE:
			vm.push(BoolVal(false))
		case OP_POP:
			vm.pop()

		case OP_GET_LOCAL:
			slot := vm.readByte(frame)
			vm.push(vm.stack[frame.base+int(slot)])
		case OP_SET_LOCAL:
			slot := vm.readByte(frame)
			vm.stack[frame.base+int(slot)] = vm.peek(0)

		case OP_GET_GLOBAL:
			name := vm.readString(frame)
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.newError("Undefined symbol '%s'.", name.Chars)
			}
			vm.push(v)
		case OP_DEFINE_GLOBAL:
			name := vm.readString(frame)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case OP_SET_GLOBAL:
			name := vm.readString(frame)
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.newError("Undefined variable '%s'.", name.Chars)
			}

		case OP_GET_UPVALUE:
			slot := vm.readByte(frame)
			vm.push(frame.closure.Upvalues[slot].Get())
		case OP_SET_UPVALUE:
			slot := vm.readByte(frame)
			frame.closure.Upvalues[slot].Set(vm.peek(0))
		case OP_CLOSE_UPVALUE:
			vm.closeUpvalues(vm.sp - 1)
			vm.pop()

		case OP_GET_PROPERTY:
			name := vm.readString(frame)
			if !vm.peek(0).IsInstance() {
				return vm.newError("Only instances have properties.")
			}
			inst := vm.peek(0).AsInstance()
			v, ok := inst.Fields.Get(name)
			if !ok {
				return vm.newError("Undefined property '%s'.", name.Chars)
			}
			vm.pop()
			vm.push(v)
		case OP_SET_PROPERTY:
			name := vm.readString(frame)
			if !vm.peek(1).IsInstance() {
				return vm.newError("Only instances have fields.")
			}
			inst := vm.peek(1).AsInstance()
			inst.Fields.Set(name, vm.peek(0))
			value := vm.pop()
			vm.pop()
			vm.push(value)
		case OP_GET_SUPER, OP_INVOKE, OP_SUPER_INVOKE, OP_INHERIT, OP_METHOD:
			// Declared in the opcode set but never emitted by this compiler
			// (see DESIGN.md's class-member Open Question decision) —
			// unreachable in practice.
			return vm.newError("class member access is not supported")

		case OP_EQUAL:
			b := vm.pop()
			a := vm.pop()
			vm.push(BoolVal(a.Equals(b)))
		case OP_GREATER:
			if err := vm.comparisonOp(func(a, b float64) bool { return a > b }); err != nil {
				return err
			}
		case OP_LESS:
			if err := vm.comparisonOp(func(a, b float64) bool { return a < b }); err != nil {
				return err
			}
		case OP_ADD:
			if err := vm.addOp(); err != nil {
				return err
			}
		case OP_SUBTRACT:
			if err := vm.binaryOp(func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case OP_MULTIPLY:
			if err := vm.binaryOp(func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case OP_DIVIDE:
			if err := vm.binaryOp(func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}
		case OP_NOT:
			vm.push(BoolVal(vm.pop().IsFalsey()))
		case OP_NEGATE:
			if !vm.peek(0).IsNumber() {
				return vm.newError("Operand must be a number")
			}
			vm.push(NumberVal(-vm.pop().Number))

		case OP_PRINT:
			fmt.Fprintln(vm.Out, vm.pop().Inspect())

		case OP_JUMP:
			offset := vm.readShort(frame)
			frame.ip += offset
		case OP_JUMP_IF_FALSE:
			offset := vm.readShort(frame)
			if vm.peek(0).IsFalsey() {
				frame.ip += offset
			}
		case OP_LOOP:
			offset := vm.readShort(frame)
			frame.ip -= offset

		case OP_CALL:
			argCount := int(vm.readByte(frame))
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = vm.frame()

		case OP_CLOSURE:
			fn := vm.readConstant(frame).AsFunction()
			closure := vm.gc.NewClosure(fn)
			// Push before capturing upvalues: captureUpvalue can allocate
			// and trigger a collection, and closure must be root-reachable
			// by then.
			vm.push(ObjVal(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte(frame)
				index := vm.readByte(frame)
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.base + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case OP_LIST_INIT:
			if err := vm.listInit(int(vm.readByte(frame))); err != nil {
				return err
			}
		case OP_LIST_GETIDX:
			if err := vm.listGetIndex(); err != nil {
				return err
			}
		case OP_LIST_SETIDX:
			if err := vm.listSetIndex(); err != nil {
				return err
			}

		case OP_CLASS:
			name := vm.readString(frame)
			vm.push(ObjVal(vm.gc.NewClass(name)))

		case OP_RETURN:
			result := vm.pop()
			vm.closeUpvalues(frame.base)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop() // the implicit top-level script closure
				return nil
			}
			vm.sp = frame.base
			vm.push(result)
			frame = vm.frame()

		default:
			return vm.newError("unknown opcode %d", op)
		}
	}
}
