// Package chunk defines the bytecode container produced by lang/compiler and
// executed by lang/vm: a flat byte array of instructions, a constant pool,
// and a compact line table for error reporting.
package chunk

import "github.com/mna/meon/lang/token"

// Value is the type of a constant pool entry; lang/value's Value satisfies
// it. It is declared here rather than imported from lang/value so that
// lang/value can in turn hold a *Chunk (a compiled Function's body) without
// the two packages importing each other. It has no methods: an unexported
// method declared here could only be implemented by this package's types.
type Value interface{}

// MaxConstants is the largest number of distinct constants a single Chunk
// may hold: CONSTANT, CLOSURE, and the global-name opcodes all address the
// pool with a single byte operand.
const MaxConstants = 256

// lineRun run-length encodes one or more consecutive instruction bytes that
// originated from the same source line, so the line table grows with the
// number of distinct lines rather than the number of bytes.
type lineRun struct {
	startOffset int
	line        int
}

// Chunk holds one compiled function's bytecode, constants and debug line
// information.
type Chunk struct {
	Code      []byte
	Constants []Value
	lines     []lineRun
}

// New returns an empty Chunk ready to be written to.
func New() *Chunk {
	return &Chunk{}
}

// Write appends a single byte to the code array, recording that it
// originated at pos, and returns its offset.
func (c *Chunk) Write(b byte, pos token.Position) int {
	off := len(c.Code)
	c.Code = append(c.Code, b)
	if n := len(c.lines); n == 0 || c.lines[n-1].line != pos.Line {
		c.lines = append(c.lines, lineRun{startOffset: off, line: pos.Line})
	}
	return off
}

// WriteOp appends op and returns the offset of the opcode byte.
func (c *Chunk) WriteOp(op Op, pos token.Position) int {
	return c.Write(byte(op), pos)
}

// WriteByte appends a raw operand byte, for use right after WriteOp.
func (c *Chunk) WriteByte(b byte, pos token.Position) {
	c.Write(b, pos)
}

// WriteUint16 appends a big-endian 16-bit operand, used for jump
// displacements.
func (c *Chunk) WriteUint16(v uint16, pos token.Position) {
	c.Write(byte(v>>8), pos)
	c.Write(byte(v), pos)
}

// PatchUint16 overwrites the big-endian 16-bit value at offset, used to back
// patch a jump target once it is known.
func (c *Chunk) PatchUint16(offset int, v uint16) {
	c.Code[offset] = byte(v >> 8)
	c.Code[offset+1] = byte(v)
}

// ReadUint16 reads the big-endian 16-bit value at offset.
func (c *Chunk) ReadUint16(offset int) uint16 {
	return uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1])
}

// AddConstant appends v to the constant pool and returns its index. It
// panics if the pool would exceed MaxConstants; the compiler is expected to
// check Chunk.NumConstants against MaxConstants before calling this and
// raise a compile error instead.
func (c *Chunk) AddConstant(v Value) int {
	if len(c.Constants) >= MaxConstants {
		panic("chunk: constant pool overflow")
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// NumConstants reports how many constants are currently in the pool.
func (c *Chunk) NumConstants() int { return len(c.Constants) }

// Line returns the source line that produced the instruction byte at
// offset, via binary search over the run-length-encoded line table.
func (c *Chunk) Line(offset int) int {
	if len(c.lines) == 0 {
		return 0
	}
	lo, hi := 0, len(c.lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.lines[mid].startOffset <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return c.lines[lo].line
}

// SameLineAsPrevious reports whether the instruction at offset starts on the
// same source line as the instruction immediately before it, used by the
// disassembler to elide repeated line numbers.
func (c *Chunk) SameLineAsPrevious(offset int) bool {
	if offset == 0 {
		return false
	}
	return c.Line(offset) == c.Line(offset-1)
}
