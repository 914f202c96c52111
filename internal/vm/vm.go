// Package vm implements the compile-and-execute core of pebble: the
// single-pass Pratt compiler, the stack-based bytecode interpreter, and
// the tracing garbage collector that backs both. They share one package
// because the three cooperate through a single rooted engine value
// rather than through narrow package boundaries.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// FramesMax bounds call-stack depth.
const FramesMax = 64

// StackMax is the value stack's fixed capacity: FramesMax frames times the
// maximum locals a single frame can address.
const StackMax = FramesMax * 256

// CallFrame is a single ongoing function invocation: the closure being
// executed, its instruction pointer, and the stack index its locals start
// at.
type CallFrame struct {
	closure *ObjClosure
	ip      int
	base    int
}

// InterpretResult is the three-valued status Interpret returns.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// VM is the stack-based interpreter: the sole owner of the managed heap,
// the value stack, the call-frame stack, and the open-upvalue list.
type VM struct {
	stack [StackMax]Value
	sp    int

	frames     [FramesMax]CallFrame
	frameCount int

	globals      *Table
	openUpvalues *ObjUpvalue

	gc *GC

	// compiler is the innermost active Compiler during Compile, nil
	// otherwise. Its function chain is a GC root.
	compiler *Compiler

	// initString is a reserved, always-rooted string handle, kept for
	// forward compatibility with a completed OOP implementation even
	// though the current compiler never looks it up.
	initString *ObjString

	// RunID is a fresh identifier set at the start of each Interpret
	// call. The engine's own diagnostics do not print it.
	RunID uuid.UUID

	Out    io.Writer
	ErrOut io.Writer
}

// New returns a VM with globals bound and natives registered.
func New() *VM {
	vm := &VM{
		globals: NewTable(),
		Out:     os.Stdout,
		ErrOut:  os.Stderr,
	}
	vm.gc = NewGC(vm)
	vm.initString = vm.gc.NewString("init")
	registerNatives(vm)
	return vm
}

// GC exposes the VM's collector, e.g. so cmd/pebble can wire config flags
// (stress mode, trace logging) before running a script.
func (vm *VM) GC() *GC { return vm.gc }

func (vm *VM) push(v Value) {
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() Value {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[vm.sp-1-distance]
}

func (vm *VM) resetStack() {
	vm.sp = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) frame() *CallFrame {
	return &vm.frames[vm.frameCount-1]
}

// Interpret compiles and runs source, returning a three-valued status:
// ok, compile error, or runtime error.
func (vm *VM) Interpret(source string) InterpretResult {
	vm.RunID = uuid.New()

	fn, errs := Compile(vm, source)
	if fn == nil {
		for _, e := range errs {
			fmt.Fprintln(vm.ErrOut, e)
		}
		return InterpretCompileError
	}

	closure := vm.gc.NewClosure(fn)
	vm.push(ObjVal(closure))
	vm.frames[0] = CallFrame{closure: closure, ip: 0, base: 0}
	vm.frameCount = 1

	if err := vm.run(); err != nil {
		vm.reportRuntimeError(err)
		vm.resetStack()
		return InterpretRuntimeError
	}
	return InterpretOK
}
