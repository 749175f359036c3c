package chunk

import "fmt"

// Op identifies a single bytecode instruction.
type Op uint8

//nolint:revive
const (
	CONSTANT Op = iota // CONSTANT<const>      -    value

	NULL  // -    -
	TRUE  // -    -
	FALSE // -    -

	POP // value    -

	DEFINE_GLOBAL // GLOBAL<const>      value   -
	GET_GLOBAL    // GLOBAL<const>      -       value
	SET_GLOBAL    // GLOBAL<const>      value   value

	GET_LOCAL // LOCAL<slot>     -       value
	SET_LOCAL // LOCAL<slot>     value   value

	GET_UPVALUE // UPVALUE<idx>   -       value
	SET_UPVALUE // UPVALUE<idx>   value   value

	CLOSE_UPVALUE // value    -

	EQUAL         // a b   bool
	NOT_EQUAL     // a b   bool
	GREATER       // a b   bool
	GREATER_EQUAL // a b   bool
	LESS          // a b   bool
	LESS_EQUAL    // a b   bool

	ADD      // a b   a+b
	SUBTRACT // a b   a-b
	MULTIPLY // a b   a*b
	DIVIDE   // a b   a/b
	MODULO   // a b   a%b           (operands truncated to integers first)
	EXPONENT // a b   a^b           (operands truncated to integers first)
	CONCAT   // a b   a..b          (strings only)

	NOT    // a     !a
	NEGATE // a     -a

	OUTPUT // value    -

	JUMP          // JUMP<disp>           -       -
	JUMP_IF_FALSE // JUMP<disp>           cond    cond   (does not pop)
	LOOP          // JUMP<disp>           -       -

	CALL // CALL<argc>   callee arg1..argn   result

	CLOSURE // CLOSURE<const>   -   closure   (followed by NumUpvalues (isLocal,index) pairs)

	RETURN // value   -

	opMax
)

var opNames = [...]string{
	CONSTANT:      "const",
	NULL:          "null",
	TRUE:          "true",
	FALSE:         "false",
	POP:           "pop",
	DEFINE_GLOBAL: "defglobal",
	GET_GLOBAL:    "getglobal",
	SET_GLOBAL:    "setglobal",
	GET_LOCAL:     "getlocal",
	SET_LOCAL:     "setlocal",
	GET_UPVALUE:   "getupval",
	SET_UPVALUE:   "setupval",
	CLOSE_UPVALUE: "closeupval",
	EQUAL:         "eq",
	NOT_EQUAL:     "neq",
	GREATER:       "gt",
	GREATER_EQUAL: "ge",
	LESS:          "lt",
	LESS_EQUAL:    "le",
	ADD:           "add",
	SUBTRACT:      "sub",
	MULTIPLY:      "mul",
	DIVIDE:        "div",
	MODULO:        "mod",
	EXPONENT:      "exp",
	CONCAT:        "concat",
	NOT:           "not",
	NEGATE:        "neg",
	OUTPUT:        "output",
	JUMP:          "jump",
	JUMP_IF_FALSE: "jumpf",
	LOOP:          "loop",
	CALL:          "call",
	CLOSURE:       "closure",
	RETURN:        "ret",
}

func (op Op) String() string {
	if op < opMax {
		if name := opNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// operandWidths gives the number of immediate operand bytes that follow an
// instruction's opcode byte. CALL's operand is the positional argument
// count; CLOSURE's trailing upvalue descriptor pairs are not counted here
// since their length depends on the constant they reference.
var operandWidths = [opMax]int{
	CONSTANT:      1, // constant pool index, pool is capped at 256 entries
	DEFINE_GLOBAL: 1,
	GET_GLOBAL:    1,
	SET_GLOBAL:    1,
	GET_LOCAL:     1,
	SET_LOCAL:     1,
	GET_UPVALUE:   1,
	SET_UPVALUE:   1,
	JUMP:          2, // big-endian displacement
	JUMP_IF_FALSE: 2,
	LOOP:          2,
	CALL:          1,
	CLOSURE:       1,
}

// OperandWidth returns the number of bytes the immediate operand of op
// occupies, not counting CLOSURE's trailing upvalue pairs.
func OperandWidth(op Op) int { return operandWidths[op] }
