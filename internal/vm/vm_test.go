package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, source string) (stdout, stderr string, result InterpretResult) {
	t.Helper()
	var out, errOut bytes.Buffer
	machine := New()
	machine.Out = &out
	machine.ErrOut = &errOut
	result = machine.Interpret(source)
	return out.String(), errOut.String(), result
}

func TestVM_ClosuresCounter(t *testing.T) {
	out, _, result := run(t, `fun makeCounter(){var c=0; fun inc(){c=c+1; return c;} return inc;} var f=makeCounter(); print f(); print f(); print f();`)
	assert.Equal(t, InterpretOK, result)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestVM_Fibonacci(t *testing.T) {
	out, _, result := run(t, `fun fib(n){if (n<2) return n; return fib(n-1)+fib(n-2);} print fib(10);`)
	assert.Equal(t, InterpretOK, result)
	assert.Equal(t, "55\n", out)
}

func TestVM_ListAppendIndex(t *testing.T) {
	out, _, result := run(t, `var xs=[1,2,3]; append(xs,4); xs[0]=9; print xs; print xs[3];`)
	assert.Equal(t, InterpretOK, result)
	assert.Equal(t, "[9, 2, 3, 4]\n4\n", out)
}

func TestVM_StringInterning(t *testing.T) {
	out, _, result := run(t, `var a="foo"; var b="f"+"oo"; print a==b;`)
	assert.Equal(t, InterpretOK, result)
	assert.Equal(t, "true\n", out)
}

func TestVM_UndefinedGlobalIsRuntimeError(t *testing.T) {
	out, errOut, result := run(t, `print xyz;`)
	assert.Equal(t, InterpretRuntimeError, result)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Undefined symbol 'xyz'.")
}

func TestVM_ForLoopShadowsEachIteration(t *testing.T) {
	out, _, result := run(t, `for (var i=0; i<3; i=i+1) { fun p(){print i;} p(); }`)
	assert.Equal(t, InterpretOK, result)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestVM_CompileErrorReportsAndStops(t *testing.T) {
	_, errOut, result := run(t, `var x = ;`)
	assert.Equal(t, InterpretCompileError, result)
	assert.Contains(t, errOut, "Expect expression.")
}

func TestVM_InvalidAssignmentTarget(t *testing.T) {
	_, errOut, result := run(t, `1 + 2 = 3;`)
	assert.Equal(t, InterpretCompileError, result)
	assert.Contains(t, errOut, "Invalid assignment target.")
}

func TestVM_DuplicateLocalInSameScope(t *testing.T) {
	_, errOut, result := run(t, `{ var a = 1; var a = 2; }`)
	assert.Equal(t, InterpretCompileError, result)
	assert.Contains(t, errOut, "Already a variable with this name in this scope.")
}

func TestVM_ReturnAtTopLevel(t *testing.T) {
	_, errOut, result := run(t, `return 1;`)
	assert.Equal(t, InterpretCompileError, result)
	assert.Contains(t, errOut, "Can't return from top-level code.")
}

func TestVM_ArityMismatchIsRuntimeError(t *testing.T) {
	out, errOut, result := run(t, `fun f(a,b){return a+b;} f(1);`)
	assert.Equal(t, InterpretRuntimeError, result)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Expected 2 arguments but got 1.")
}

func TestVM_StackOverflowOnUnboundedRecursion(t *testing.T) {
	_, errOut, result := run(t, `fun loop(){return loop();} loop();`)
	assert.Equal(t, InterpretRuntimeError, result)
	assert.Contains(t, errOut, "Stack overflow.")
}

func TestVM_NegatingNonNumberIsRuntimeError(t *testing.T) {
	_, errOut, result := run(t, `print -"x";`)
	assert.Equal(t, InterpretRuntimeError, result)
	assert.Contains(t, errOut, "Operand must be a number")
}

func TestVM_ListIndexOutOfRange(t *testing.T) {
	_, errOut, result := run(t, `var xs=[1,2]; print xs[5];`)
	assert.Equal(t, InterpretRuntimeError, result)
	assert.Contains(t, errOut, "out of range")
}

// TestVM_GCStressModeProducesIdenticalOutput is testable property 4: a
// script's observable behavior must not change whether the collector runs
// opportunistically or before every single allocation.
func TestVM_GCStressModeProducesIdenticalOutput(t *testing.T) {
	source := `
	fun makeAdder(x) {
		fun add(y) { return x + y; }
		return add;
	}
	var adders = [];
	for (var i = 0; i < 20; i = i + 1) {
		append(adders, makeAdder(i));
	}
	for (var i = 0; i < 20; i = i + 1) {
		print adders[i](100);
	}
	`

	var normalOut bytes.Buffer
	normal := New()
	normal.Out = &normalOut
	normal.ErrOut = &bytes.Buffer{}
	require.Equal(t, InterpretOK, normal.Interpret(source))

	var stressOut bytes.Buffer
	stressed := New()
	stressed.Out = &stressOut
	stressed.ErrOut = &bytes.Buffer{}
	stressed.GC().StressMode = true
	require.Equal(t, InterpretOK, stressed.Interpret(source))

	assert.Equal(t, normalOut.String(), stressOut.String())
	assert.True(t, strings.HasPrefix(normalOut.String(), "100\n101\n"))
}

func TestVM_NativeClockReturnsNumber(t *testing.T) {
	out, _, result := run(t, `print clock() >= 0;`)
	assert.Equal(t, InterpretOK, result)
	assert.Equal(t, "true\n", out)
}

func TestVM_DeleteShiftsElementsDown(t *testing.T) {
	out, _, result := run(t, `var xs=[1,2,3]; delete(xs,1); print xs;`)
	assert.Equal(t, InterpretOK, result)
	assert.Equal(t, "[1, 3]\n", out)
}

func TestVM_EmptyClassBodyConstructsInstance(t *testing.T) {
	out, _, result := run(t, `class Point {} var p = Point(); p.x = 1; print p.x;`)
	assert.Equal(t, InterpretOK, result)
	assert.Equal(t, "1\n", out)
}

func TestVM_AndOrShortCircuit(t *testing.T) {
	out, _, result := run(t, `print false and (1/0); print true or (1/0);`)
	assert.Equal(t, InterpretOK, result)
	assert.Equal(t, "false\ntrue\n", out)
}
