// Package disasm turns compiled bytecode back into the human-readable
// listing format spec.md §6 describes, and renders a live instruction trace
// for the VM's debug level 2. Grounded on the teacher's
// lang/compiler/asm.go Dasm (a round-trip assembler/disassembler for
// nenuphar's open-ended, LEB128-varint opcode set with defers, catches,
// cells and freevars); Meon's fixed-width operand encoding and much smaller
// instruction set make most of that machinery unnecessary, so only the
// disassembly half is adapted, not the assembler half (see DESIGN.md).
package disasm

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/mna/meon/lang/chunk"
	"github.com/mna/meon/lang/value"
	"github.com/mna/meon/lang/vm"
)

// Instruction formats the single instruction at offset in c, returning the
// formatted line and the offset of the next instruction. The format is
// spec.md §6's "NNNN [LINE|  |] MNEM OPERAND(s)", with one extra
// "NNNN      |                     (local|upvalue) INDEX" line per upvalue
// directly appended for CLOSURE.
func Instruction(c *chunk.Chunk, offset int) (string, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)

	if c.SameLineAsPrevious(offset) {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", c.Line(offset))
	}

	op := chunk.Op(c.Code[offset])
	b.WriteString(op.String())

	next := offset + 1
	switch chunk.OperandWidth(op) {
	case 1:
		arg := c.Code[next]
		next++
		if op == chunk.CONSTANT || op == chunk.DEFINE_GLOBAL || op == chunk.GET_GLOBAL || op == chunk.SET_GLOBAL || op == chunk.CLOSURE {
			fmt.Fprintf(&b, " %d (%s)", arg, constantString(c.Constants[arg]))
		} else {
			fmt.Fprintf(&b, " %d", arg)
		}
	case 2:
		disp := c.ReadUint16(next)
		target := next + 2
		if op == chunk.LOOP {
			target -= int(disp)
		} else {
			target += int(disp)
		}
		fmt.Fprintf(&b, " %d -> %04d", disp, target)
		next += 2
	}

	if op == chunk.CLOSURE {
		fn, _ := c.Constants[c.Code[offset+1]].(*value.Function)
		if fn != nil {
			for i := 0; i < fn.NumUpvalues; i++ {
				isLocal := c.Code[next]
				index := c.Code[next+1]
				next += 2
				kind := "upvalue"
				if isLocal != 0 {
					kind = "local"
				}
				fmt.Fprintf(&b, "\n%04d      |                     %s %d", offset, kind, index)
			}
		}
	}

	return b.String(), next
}

// constantString renders a constant pool entry for CONSTANT/CLOSURE's inline
// comment: strings are shown quoted, every other value the way it prints.
func constantString(v chunk.Value) string {
	if val, ok := v.(value.Value); ok {
		if s, ok := val.(*value.String); ok {
			return s.Quoted()
		}
		return val.String()
	}
	return fmt.Sprintf("%v", v)
}

// Chunk disassembles every instruction in c under a "== name ==" header,
// matching original_source/src/debug.c's disassembleChunk.
func Chunk(name string, c *chunk.Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		line, next := Instruction(c, offset)
		b.WriteString(line)
		b.WriteString("\n")
		offset = next
	}
	return b.String()
}

// Function recursively disassembles fn and every function literal in its
// constant pool, so a single call dumps a whole compiled program the way
// CLI debug level 1 does after a successful compile.
func Function(fn *value.Function) string {
	var b strings.Builder
	b.WriteString(Chunk(chunkName(fn), fn.Chunk))
	for _, k := range fn.Chunk.Constants {
		if child, ok := k.(*value.Function); ok {
			b.WriteString(Function(child))
		}
	}
	return b.String()
}

func chunkName(fn *value.Function) string {
	if fn.Name == "" {
		return "script"
	}
	return fn.Name
}

// Trace renders the instruction about to execute in v, along with the
// current contents of v's value stack, for CLI debug level 2. It returns
// the empty string once v has no active frame (interpretation finished).
func Trace(v *vm.VM) string {
	cl, ip := v.CurrentFrame()
	if cl == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("          ")
	for _, val := range v.GCStack() {
		fmt.Fprintf(&b, "[ %s ]", traceValue(val))
	}
	b.WriteString("\n")
	line, _ := Instruction(cl.Fn.Chunk, ip)
	b.WriteString(line)
	return b.String()
}

// traceValue renders a stack slot for the trace dump: simple values print
// the way they would to a script's own output, while closures, natives and
// upvalue chains are dumped with spew since their String() forms collapse
// structure a debugger session wants visible (which closure, how many
// upvalues, whether one is still open).
func traceValue(v value.Value) string {
	switch v.(type) {
	case *value.Closure, *value.Native, *value.Upvalue:
		return spew.Sdump(v)
	default:
		return v.String()
	}
}
