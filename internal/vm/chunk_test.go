package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_WriteTracksLines(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OP_NIL, 1)
	c.WriteOp(OP_PRINT, 1)
	c.WriteOp(OP_RETURN, 2)

	require.Equal(t, 3, c.Len())
	assert.Equal(t, []int{1, 1, 2}, c.Lines)
	assert.Equal(t, []byte{byte(OP_NIL), byte(OP_PRINT), byte(OP_RETURN)}, c.Code)
}

func TestChunk_AddConstant(t *testing.T) {
	c := NewChunk()
	i := c.AddConstant(NumberVal(42))
	j := c.AddConstant(NumberVal(43))

	assert.Equal(t, 0, i)
	assert.Equal(t, 1, j)
	assert.Equal(t, float64(42), c.Constants[i].Number)
}

func TestChunk_IDIsUniquePerChunk(t *testing.T) {
	a := NewChunk()
	b := NewChunk()
	assert.NotEqual(t, a.ID, b.ID)
}
