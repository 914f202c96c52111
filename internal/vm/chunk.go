package vm

import "github.com/google/uuid"

// Chunk is three parallel structures: the byte code, a same-length
// line-number sidetable, and a constant pool capped at 256 entries
// (one-byte indices).
type Chunk struct {
	// ID stamps each compiled chunk with a unique identifier. Disassemble
	// prints its first eight characters in the chunk header; runtime
	// backtraces do not include it.
	ID uuid.UUID

	Code      []byte
	Lines     []int
	Constants []Value
}

// NewChunk returns an empty chunk.
func NewChunk() *Chunk {
	return &Chunk{ID: uuid.New()}
}

// Write appends a raw byte with its source line.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp appends an opcode with its source line.
func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Write(byte(op), line)
}

// AddConstant appends value to the pool and returns its index. The caller
// is responsible for checking the 256-entry cap before compiling a
// CONSTANT instruction that references it.
func (c *Chunk) AddConstant(value Value) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

// Len returns the number of bytes emitted so far.
func (c *Chunk) Len() int {
	return len(c.Code)
}
