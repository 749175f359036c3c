// Package compiler implements Meon's single-pass compiler: a Pratt parser
// that emits bytecode directly as it recognizes each expression or
// statement, with no intermediate AST. This mirrors original_source's
// compiler.c, adapted to Go and to lang/chunk's fixed-width instruction
// encoding.
package compiler

import (
	"github.com/mna/meon/lang/chunk"
	"github.com/mna/meon/lang/scanner"
	"github.com/mna/meon/lang/token"
	"github.com/mna/meon/lang/value"
)

type funcType int

const (
	funcTypeScript funcType = iota
	funcTypeFunction
)

// loopState tracks the bookkeeping needed by break and continue within one
// enclosing loop. Unlike original_source's single shared breakJump slot
// (confirmed by original_source/src/compiler.c to be a genuine bug: a loop
// with two breaks only ever patches the second one), breakJumps accumulates
// every pending break so all of them are patched once the loop's exit
// address is known.
type loopState struct {
	parent     *loopState
	start      int // address continue jumps back to
	scopeDepth int // scope depth at loop entry, locals above this are discarded on break/continue
	breakJumps []int
}

// funcState holds the compiler state specific to one function body,
// chained to its lexically enclosing function so upvalue resolution can
// walk outward.
type funcState struct {
	enclosing  *funcState
	fn         *value.Function
	fnType     funcType
	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
	loop       *loopState
}

// tokenInfo is the token last read from the scanner, copied out because the
// scanner itself holds no lookahead buffer beyond the one token Scan
// returns.
type tokenInfo struct {
	kind   token.Token
	lexeme string
	pos    token.Position
}

// Compiler is a single-use, single-pass compiler for one source file.
type Compiler struct {
	sc   *scanner.Scanner
	cur  tokenInfo
	prev tokenInfo

	alloc value.Allocator

	errs      ErrorList
	panicMode bool

	fs *funcState
}

// Compile compiles src into a top-level Function representing the implicit
// script body. alloc is used for every heap allocation the compiler makes
// (interned strings, the Function objects for the script and every nested
// function literal) so they are visible to the garbage collector from the
// moment they are created.
func Compile(src string, alloc value.Allocator) (*value.Function, error) {
	c := &Compiler{alloc: alloc}

	var sc scanner.Scanner
	sc.Init([]byte(src), c.scanError)
	c.sc = &sc

	c.beginFunction(funcTypeScript, "")
	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	fn, _ := c.endFunction()
	return fn, c.errs.Err()
}

func (c *Compiler) scanError(pos token.Position, msg string) {
	c.errs.Add(pos, msg)
}

func (c *Compiler) currentChunk() *chunk.Chunk { return c.fs.fn.Chunk }

func (c *Compiler) beginFunction(ft funcType, name string) {
	fn := c.alloc.NewFunction(name)
	fs := &funcState{enclosing: c.fs, fn: fn, fnType: ft}
	// Slot 0 is reserved for the called closure itself; user locals start at
	// index 1. It is never read by user code, only by CALL's calling
	// convention.
	fs.locals = append(fs.locals, local{name: "", depth: 0})
	c.fs = fs
	c.alloc.PushCompilerRoot(fn)
}

// endFunction finalizes the current function, always appending an implicit
// "return null" (NULL, RETURN), and pops back to the enclosing function. It returns the compiled function and the upvalue
// descriptors the caller must encode into the CLOSURE instruction that
// creates it.
func (c *Compiler) endFunction() (*value.Function, []upvalueRef) {
	c.emitReturn()
	fs := c.fs
	fs.fn.NumUpvalues = len(fs.upvalues)
	c.fs = fs.enclosing
	c.alloc.PopCompilerRoot()
	return fs.fn, fs.upvalues
}

func (c *Compiler) beginScope() { c.fs.scopeDepth++ }

// endScope closes the current scope, popping every local declared in it
// (or closing it, if it was captured by a nested function's closure) and
// discarding it from the compiler's view of the stack.
func (c *Compiler) endScope() {
	c.fs.scopeDepth--
	locals := c.fs.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.fs.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			c.emitByte(byte(chunk.CLOSE_UPVALUE))
		} else {
			c.emitByte(byte(chunk.POP))
		}
		locals = locals[:len(locals)-1]
	}
	c.fs.locals = locals
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.prev = c.cur
	for {
		kind, lit, pos := c.sc.Scan()
		c.cur = tokenInfo{kind: kind, lexeme: lit, pos: pos}
		if kind != token.ILLEGAL {
			break
		}
		// The scanner already reported the lexical error via scanError.
	}
}

func (c *Compiler) check(t token.Token) bool { return c.cur.kind == t }

func (c *Compiler) match(t token.Token) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.Token, msg string) {
	if c.cur.kind == t {
		c.advance()
		return
	}
	c.errorAtCur(msg)
}

// --- error reporting ----------------------------------------------------

func (c *Compiler) errorAt(tok tokenInfo, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.errs.Add(tok.pos, msg)
}

func (c *Compiler) errorAtCur(msg string)  { c.errorAt(c.cur, msg) }
func (c *Compiler) errorAtPrev(msg string) { c.errorAt(c.prev, msg) }

// synchronize skips tokens after a parse error up to the next likely
// statement boundary, so one mistake is reported once instead of cascading
// into spurious follow-on errors.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.cur.kind != token.EOF {
		if c.prev.kind == token.SEMI {
			return
		}
		switch c.cur.kind {
		case token.BLOCK, token.FUNC, token.LET, token.FOR, token.WHILE, token.IF, token.OUTPUT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- bytecode emission --------------------------------------------------

func (c *Compiler) emitByte(b byte) { c.currentChunk().Write(b, c.prev.pos) }

func (c *Compiler) emitBytes(b1, b2 byte) {
	c.emitByte(b1)
	c.emitByte(b2)
}

func (c *Compiler) emitReturn() {
	c.emitByte(byte(chunk.NULL))
	c.emitByte(byte(chunk.RETURN))
}

// makeConstant adds v to the current chunk's constant pool and returns its
// index, reporting an error instead of overflowing the one-byte operand.
func (c *Compiler) makeConstant(v value.Value) byte {
	if c.currentChunk().NumConstants() >= chunk.MaxConstants {
		c.errorAtPrev("Too many constants in one chunk.")
		return 0
	}
	return byte(c.currentChunk().AddConstant(v))
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitBytes(byte(chunk.CONSTANT), c.makeConstant(v))
}

// identifierConstant interns name and adds it to the constant pool, for use
// by the GLOBAL-addressed opcodes.
func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(c.alloc.NewString(name))
}

// emitJump emits a jump instruction with a placeholder 16-bit operand and
// returns the offset of that operand, to be patched once the target address
// is known.
func (c *Compiler) emitJump(op chunk.Op) int {
	c.emitByte(byte(op))
	off := len(c.currentChunk().Code)
	c.currentChunk().WriteUint16(0xFFFF, c.prev.pos)
	return off
}

// patchJump backpatches the jump operand at off to point at the current
// instruction address.
func (c *Compiler) patchJump(off int) {
	disp := len(c.currentChunk().Code) - off - 2
	if disp > 0xFFFF {
		c.errorAtPrev("Too much code to jump over.")
		return
	}
	c.currentChunk().PatchUint16(off, uint16(disp))
}

// emitLoop emits a LOOP instruction that jumps back to start.
func (c *Compiler) emitLoop(start int) {
	c.emitByte(byte(chunk.LOOP))
	disp := len(c.currentChunk().Code) - start + 2
	if disp > 0xFFFF {
		c.errorAtPrev("Loop body too large.")
	}
	c.currentChunk().WriteUint16(uint16(disp), c.prev.pos)
}
