package compiler

// maxLocals and maxUpvalues match the one-byte GET_LOCAL/SET_LOCAL and
// GET_UPVALUE/SET_UPVALUE operands.
const (
	maxLocals   = 256
	maxUpvalues = 256
)

// local tracks one declared-but-possibly-not-yet-initialized local
// variable's stack slot. depth is -1 between "let x" being parsed and its
// initializer finishing, so a reference to x inside its own initializer can
// be rejected (original_source's "Can't read local variable in its own
// initializer.").
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef records how a function's Nth upvalue is captured: either
// directly from a local slot in the immediately enclosing function (index
// is a locals index), or from the enclosing function's own upvalue list
// (index is an upvalues index there).
type upvalueRef struct {
	index   int
	isLocal bool
}

// addLocal declares name as a new local in the current scope. It reports an
// error instead of appending once maxLocals is reached.
func (c *Compiler) addLocal(name string) {
	if len(c.fs.locals) >= maxLocals {
		c.errorAtPrev("Too many local variables in function.")
		return
	}
	c.fs.locals = append(c.fs.locals, local{name: name, depth: -1})
}

// declareVariable registers c.prev's lexeme as a new local, rejecting a
// redeclaration in the same scope. It is a no-op at global scope: globals
// are resolved by name at run time, not by slot.
func (c *Compiler) declareVariable() {
	if c.fs.scopeDepth == 0 {
		return
	}
	name := c.prev.lexeme
	for i := len(c.fs.locals) - 1; i >= 0; i-- {
		l := &c.fs.locals[i]
		if l.depth != -1 && l.depth < c.fs.scopeDepth {
			break
		}
		if l.name == name {
			c.errorAtPrev("Variable exists with this name in this scope.")
		}
	}
	c.addLocal(name)
}

// resolveLocal returns the slot index of name in fs's own locals, or -1 if
// fs has no such local.
func (c *Compiler) resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		l := &fs.locals[i]
		if l.name != name {
			continue
		}
		if l.depth == -1 {
			c.errorAtPrev("Can't read local variable in its own initializer.")
		}
		return i
	}
	return -1
}

// addUpvalue records that fs's function must capture a free variable,
// either a local slot in its immediate enclosing function (isLocal true) or
// one of that enclosing function's own upvalues (isLocal false). Repeated
// captures of the same source are deduplicated.
func (c *Compiler) addUpvalue(fs *funcState, index int, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= maxUpvalues {
		c.errorAtPrev("Too many closure variables in function.")
		return 0
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fs.upvalues) - 1
}

// resolveUpvalue looks for name as a local or upvalue of fs's enclosing
// function, recursively, capturing it through every intermediate function
// so each one's closure carries the chain down to fs.
func (c *Compiler) resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if idx := c.resolveLocal(fs.enclosing, name); idx != -1 {
		fs.enclosing.locals[idx].isCaptured = true
		return c.addUpvalue(fs, idx, true)
	}
	if idx := c.resolveUpvalue(fs.enclosing, name); idx != -1 {
		return c.addUpvalue(fs, idx, false)
	}
	return -1
}
