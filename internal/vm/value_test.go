package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_IsFalsey(t *testing.T) {
	assert.True(t, Nil().IsFalsey())
	assert.True(t, BoolVal(false).IsFalsey())
	assert.False(t, BoolVal(true).IsFalsey())
	assert.False(t, NumberVal(0).IsFalsey(), "zero is truthy, unlike many scripting languages")
	assert.False(t, ObjVal(newTestString("")).IsFalsey())
}

func TestValue_Equals(t *testing.T) {
	assert.True(t, NumberVal(1).Equals(NumberVal(1)))
	assert.False(t, NumberVal(1).Equals(NumberVal(2)))
	assert.False(t, NumberVal(1).Equals(BoolVal(true)), "cross-kind comparisons are always false")
	assert.True(t, Nil().Equals(Nil()))

	nan := NumberVal(math.NaN())
	assert.False(t, nan.Equals(nan), "NaN never equals itself, per IEEE-754")
}

func TestValue_Equals_InternedStringIdentity(t *testing.T) {
	a := newTestString("hi")
	b := newTestString("hi")
	// Two separately constructed ObjStrings with equal bytes are NOT
	// automatically equal here: Equals trusts pointer identity, relying on
	// the GC's interning to never hand out two pointers for the same bytes.
	assert.False(t, ObjVal(a).Equals(ObjVal(b)))
	assert.True(t, ObjVal(a).Equals(ObjVal(a)))
}

func TestValue_Inspect(t *testing.T) {
	assert.Equal(t, "nil", Nil().Inspect())
	assert.Equal(t, "true", BoolVal(true).Inspect())
	assert.Equal(t, "3", NumberVal(3).Inspect())
	assert.Equal(t, "3.5", NumberVal(3.5).Inspect())
}

func TestValue_TypeName(t *testing.T) {
	assert.Equal(t, "nil", Nil().TypeName())
	assert.Equal(t, "bool", BoolVal(true).TypeName())
	assert.Equal(t, "number", NumberVal(1).TypeName())
	assert.Equal(t, "string", ObjVal(newTestString("x")).TypeName())
}
