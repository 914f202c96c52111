package vm

import "fmt"

// runtimeError is a plain VM error: binaryOp, callValue, and friends
// return one of these and let run's caller attach the backtrace.
type runtimeError struct {
	message string
}

func (e *runtimeError) Error() string { return e.message }

func (vm *VM) newError(format string, args ...interface{}) error {
	return &runtimeError{message: fmt.Sprintf(format, args...)}
}

// reportRuntimeError prints the one-line message followed by a backtrace,
// innermost frame first.
func (vm *VM) reportRuntimeError(err error) {
	fmt.Fprintln(vm.ErrOut, err.Error())

	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.closure.Function
		line := 0
		if frame.ip-1 >= 0 && frame.ip-1 < len(fn.Chunk.Lines) {
			line = fn.Chunk.Lines[frame.ip-1]
		}
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		fmt.Fprintf(vm.ErrOut, "[line %d] in %s\n", line, funcLabel(name, fn.Name != nil))
	}
}

func funcLabel(name string, isFunction bool) string {
	if isFunction {
		return name + "()"
	}
	return name
}
