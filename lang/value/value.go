// Package value defines the runtime representation of Meon values: the
// three unboxed kinds (null, bool, number) and the heap-allocated object
// kinds (string, function, closure, native function, upvalue) tracked by
// lang/gc.
package value

import (
	"fmt"

	"github.com/mna/meon/lang/chunk"
)

// Value is implemented by every kind of Meon value. It embeds chunk.Value so
// that a Chunk's constant pool can hold values directly without lang/chunk
// importing this package.
type Value interface {
	chunk.Value
	// meonValue is unexported so only this package's types can implement
	// Value.
	meonValue()
	String() string
	Type() string
	// Truthy reports whether the value is considered true in a boolean
	// context (an if/while condition, an and/or operand). Only the boolean
	// false is falsy; every other value, including null and the number 0,
	// is truthy.
	Truthy() bool
}

// Null is the single value of Meon's null type.
type Null struct{}

func (Null) meonValue()     {}
func (Null) String() string { return "null" }
func (Null) Type() string   { return "null" }

// Truthy is true for Null: only the boolean false is falsy in Meon, a
// deliberate preservation of the original implementation's behavior (see
// DESIGN.md's truthiness Open Question entry) rather than the more
// conventional choice of treating null as falsy.
func (Null) Truthy() bool { return true }

// Bool is a Meon boolean.
type Bool bool

func (Bool) meonValue()      {}
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "bool" }
func (b Bool) Truthy() bool { return bool(b) }

// Number is a Meon number: all arithmetic is done in double precision, with
// no separate integer representation.
type Number float64

func (Number) meonValue()   {}
func (Number) Type() string { return "number" }
func (Number) Truthy() bool { return true }

// String formats n the way original_source's printValue does (%g), so e.g.
// 3.0 prints as "3" and 0.1 prints as "0.1" rather than carrying a long
// double-precision tail.
func (n Number) String() string { return fmt.Sprintf("%g", float64(n)) }

// Equal reports whether a and b are equal under Meon's == operator.
// Distinct-kind comparisons are always false rather than an error, matching
// the original implementation's loose-but-total equality. Strings compare
// by content (the interning table guarantees pointer equality too, but
// content comparison does not depend on that invariant holding). Every
// other heap kind compares by identity.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case *String:
		bv, ok := b.(*String)
		return ok && av.Chars == bv.Chars
	default:
		ao, aok := a.(Object)
		bo, bok := b.(Object)
		return aok && bok && ao.Obj() == bo.Obj()
	}
}
