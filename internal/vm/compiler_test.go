package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, source string) (*ObjFunction, []string) {
	t.Helper()
	vm := New()
	return Compile(vm, source)
}

func TestCompile_TooManyLocals(t *testing.T) {
	var src string
	src += "{\n"
	for i := 0; i < 257; i++ {
		src += "var a" + itoa(i) + " = 0;\n"
	}
	src += "}\n"

	_, errs := compile(t, src)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[len(errs)-1], "Too many local variables in function.")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestCompile_UndefinedPropertyErrorsAtRuntimeNotCompileTime(t *testing.T) {
	fn, errs := compile(t, `class C {} var c = C(); print c.missing;`)
	assert.Empty(t, errs)
	require.NotNil(t, fn)
}

func TestCompile_PrintlnIsReservedButUnbound(t *testing.T) {
	// println is lexed as a keyword but has no parse rule at all, so using
	// it as an expression falls through prefix-rule resolution exactly
	// like any other syntax error.
	_, errs := compile(t, `println(1);`)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "Expect expression.")
}

func TestCompile_UpvalueCapturesEnclosingLocal(t *testing.T) {
	fn, errs := compile(t, `
	fun outer() {
		var x = 1;
		fun inner() { return x; }
		return inner;
	}
	`)
	require.Empty(t, errs)
	require.NotNil(t, fn)

	// The top-level chunk's only function constant of interest is outer;
	// walk its constants for the nested inner function and check its
	// upvalue count reflects the one captured local.
	var inner *ObjFunction
	for _, c := range fn.Chunk.Constants {
		if c.IsFunction() && c.AsFunction().Name != nil && c.AsFunction().Name.Chars == "outer" {
			outer := c.AsFunction()
			for _, oc := range outer.Chunk.Constants {
				if oc.IsFunction() {
					inner = oc.AsFunction()
				}
			}
		}
	}
	require.NotNil(t, inner, "expected to find the compiled inner function among outer's constants")
	assert.Equal(t, 1, inner.UpvalueCount)
}

func TestCompile_ResolvesNestedUpvalueThroughTwoLevels(t *testing.T) {
	// A variable captured two function levels deep forwards through an
	// upvalue-of-an-upvalue rather than erroring.
	_, errs := compile(t, `
	fun a() {
		var x = 1;
		fun b() {
			fun c() { return x; }
			return c;
		}
		return b;
	}
	`)
	assert.Empty(t, errs)
}

func TestCompile_SelfReferenceInInitializerErrors(t *testing.T) {
	_, errs := compile(t, `{ var a = a; }`)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "Can't read local variable in its own initializer.")
}

func TestCompile_TooManyArguments(t *testing.T) {
	var src = "fun f(){} f("
	for i := 0; i < 256; i++ {
		if i > 0 {
			src += ","
		}
		src += "nil"
	}
	src += ");"

	_, errs := compile(t, src)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "Can't have more than 255 arguments.")
}

func TestCompile_AllErrorsCollectedAcrossStatements(t *testing.T) {
	_, errs := compile(t, `
	var = 1;
	var = 2;
	`)
	require.Len(t, errs, 2, "synchronize must resume at the next statement so both errors are reported")
}
