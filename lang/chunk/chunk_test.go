package chunk_test

import (
	"testing"

	"github.com/mna/meon/lang/chunk"
	"github.com/mna/meon/lang/token"
	"github.com/stretchr/testify/assert"
)

func TestWriteAndLine(t *testing.T) {
	c := chunk.New()
	c.WriteOp(chunk.NULL, token.Position{Line: 1, Column: 1})
	c.WriteOp(chunk.NULL, token.Position{Line: 1, Column: 5})
	c.WriteOp(chunk.POP, token.Position{Line: 2, Column: 1})

	assert.Equal(t, 1, c.Line(0))
	assert.Equal(t, 1, c.Line(1))
	assert.Equal(t, 2, c.Line(2))
	assert.True(t, c.SameLineAsPrevious(1))
	assert.False(t, c.SameLineAsPrevious(2))
	assert.False(t, c.SameLineAsPrevious(0))
}

func TestJumpPatching(t *testing.T) {
	c := chunk.New()
	c.WriteOp(chunk.JUMP_IF_FALSE, token.Position{Line: 1})
	off := len(c.Code)
	c.WriteUint16(0xFFFF, token.Position{Line: 1})
	c.WriteOp(chunk.POP, token.Position{Line: 2})

	target := len(c.Code)
	c.PatchUint16(off, uint16(target-off-2))
	assert.Equal(t, uint16(target-off-2), c.ReadUint16(off))
}
