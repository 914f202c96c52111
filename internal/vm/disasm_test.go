package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisassemble_SimpleChunk(t *testing.T) {
	c := NewChunk()
	idx := c.AddConstant(NumberVal(1))
	c.WriteOp(OP_CONSTANT, 1)
	c.Write(byte(idx), 1)
	c.WriteOp(OP_RETURN, 1)

	out := Disassemble(c, "test")

	assert.Contains(t, out, "== test (")
	assert.Contains(t, out, "OP_CONSTANT")
	assert.Contains(t, out, "'1'")
	assert.Contains(t, out, "OP_RETURN")
}

func TestDisassemble_JumpShowsTarget(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OP_JUMP, 1)
	c.Write(0, 1)
	c.Write(1, 1) // jump 1 byte ahead of the 3-byte instruction
	c.WriteOp(OP_RETURN, 1)

	out := Disassemble(c, "test")
	assert.Contains(t, out, "OP_JUMP")
	assert.Contains(t, out, "-> 4")
}

func TestDisassemble_MatchesEndToEndCompile(t *testing.T) {
	fn, errs := compile(t, `print 1 + 2;`)
	if len(errs) > 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	out := Disassemble(fn.Chunk, "script")
	assert.Contains(t, out, "OP_ADD")
	assert.Contains(t, out, "OP_PRINT")
}
