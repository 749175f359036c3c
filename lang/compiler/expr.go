package compiler

import (
	"strconv"

	"github.com/mna/meon/lang/chunk"
	"github.com/mna/meon/lang/token"
	"github.com/mna/meon/lang/value"
)

func parseGrouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func parseNumberLit(c *Compiler, _ bool) {
	n, err := strconv.ParseFloat(c.prev.lexeme, 64)
	if err != nil {
		c.errorAtPrev("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

func parseStringLit(c *Compiler, _ bool) {
	c.emitConstant(c.alloc.NewString(c.prev.lexeme))
}

func parseLiteral(c *Compiler, _ bool) {
	switch c.prev.kind {
	case token.FALSE:
		c.emitByte(byte(chunk.FALSE))
	case token.TRUE:
		c.emitByte(byte(chunk.TRUE))
	case token.NULL:
		c.emitByte(byte(chunk.NULL))
	}
}

// parseUnary handles the prefix operators ! and -. It re-enters
// parsePrecedence at precUnary so "-a.b" parses as "(-a).b" and "-a^b"
// parses as "(-a)^b", since UNARY binds tighter than CONCAT and POWER.
func parseUnary(c *Compiler, _ bool) {
	op := c.prev.kind
	c.parsePrecedence(precUnary)
	switch op {
	case token.MINUS:
		c.emitByte(byte(chunk.NEGATE))
	case token.BANG:
		c.emitByte(byte(chunk.NOT))
	}
}

// parseBinary handles every left-associative binary operator, plus the
// right-associative ^ (POWER): POWER re-enters parsePrecedence at its own
// level rather than one above it, so "2^3^2" parses as "2^(3^2)".
func parseBinary(c *Compiler, _ bool) {
	op := c.prev.kind
	pr := getRule(op)
	if op == token.CARET {
		c.parsePrecedence(precPower)
	} else {
		c.parsePrecedence(pr.prec + 1)
	}

	switch op {
	case token.PLUS:
		c.emitByte(byte(chunk.ADD))
	case token.MINUS:
		c.emitByte(byte(chunk.SUBTRACT))
	case token.STAR:
		c.emitByte(byte(chunk.MULTIPLY))
	case token.SLASH:
		c.emitByte(byte(chunk.DIVIDE))
	case token.PERCENT:
		c.emitByte(byte(chunk.MODULO))
	case token.CARET:
		c.emitByte(byte(chunk.EXPONENT))
	case token.DOT:
		c.emitByte(byte(chunk.CONCAT))
	case token.EQEQ:
		c.emitByte(byte(chunk.EQUAL))
	case token.BANGEQ:
		c.emitByte(byte(chunk.NOT_EQUAL))
	case token.GT:
		c.emitByte(byte(chunk.GREATER))
	case token.GE:
		c.emitByte(byte(chunk.GREATER_EQUAL))
	case token.LT:
		c.emitByte(byte(chunk.LESS))
	case token.LE:
		c.emitByte(byte(chunk.LESS_EQUAL))
	}
}

// parseAnd implements short-circuit and: if the left operand is false, its
// value is left on the stack and the right operand is never evaluated.
func parseAnd(c *Compiler, _ bool) {
	endJump := c.emitJump(chunk.JUMP_IF_FALSE)
	c.emitByte(byte(chunk.POP))
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

// parseOr implements short-circuit or: if the left operand is truthy, its
// value is left on the stack and the right operand is never evaluated.
func parseOr(c *Compiler, _ bool) {
	elseJump := c.emitJump(chunk.JUMP_IF_FALSE)
	endJump := c.emitJump(chunk.JUMP)
	c.patchJump(elseJump)
	c.emitByte(byte(chunk.POP))
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func parseVariable(c *Compiler, canAssign bool) {
	c.namedVariable(c.prev.lexeme, canAssign)
}

// namedVariable resolves name to a local slot, an upvalue, or falls back to
// a global, emitting the matching GET/SET pair. canAssign guards whether a
// trailing "= value" is accepted here at all: it is false when the name is
// the operand of a tighter-binding operator, as in "a + b = c".
func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp chunk.Op
	var arg byte

	if idx := c.resolveLocal(c.fs, name); idx != -1 {
		getOp, setOp, arg = chunk.GET_LOCAL, chunk.SET_LOCAL, byte(idx)
	} else if idx := c.resolveUpvalue(c.fs, name); idx != -1 {
		getOp, setOp, arg = chunk.GET_UPVALUE, chunk.SET_UPVALUE, byte(idx)
	} else {
		getOp, setOp, arg = chunk.GET_GLOBAL, chunk.SET_GLOBAL, c.identifierConstant(name)
	}

	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitBytes(byte(setOp), arg)
		return
	}
	c.emitBytes(byte(getOp), arg)
}

const maxCallArgs = 255

func parseCall(c *Compiler, _ bool) {
	argc := c.argumentList()
	c.emitBytes(byte(chunk.CALL), argc)
}

func (c *Compiler) argumentList() byte {
	var argc int
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if argc == maxCallArgs {
				c.errorAtPrev("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(argc)
}
