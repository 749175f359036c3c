// Package table wraps github.com/dolthub/swiss's open-addressed hash map
// for the two hash tables the runtime needs: the interpreter's global
// variables (Globals), and the string interning table (Strings) consulted
// by the compiler and VM every time a string literal or
// identifier needs a *value.String.
package table

import (
	"github.com/dolthub/swiss"

	"github.com/mna/meon/lang/value"
)

// Globals holds the top-level variable bindings created by "let" at script
// scope. Keys are variable names; unlike locals and upvalues, globals are
// resolved by name at run time rather than by slot, so a swiss.Map keyed by
// string is a direct fit.
type Globals struct {
	m *swiss.Map[string, value.Value]
}

// NewGlobals returns an empty globals table.
func NewGlobals() *Globals {
	return &Globals{m: swiss.NewMap[string, value.Value](8)}
}

// Get returns the value bound to name, or (nil, false) if name is not
// defined.
func (g *Globals) Get(name string) (value.Value, bool) {
	return g.m.Get(name)
}

// Define binds name to v, creating or overwriting the binding.
func (g *Globals) Define(name string, v value.Value) {
	g.m.Put(name, v)
}

// Has reports whether name is currently bound.
func (g *Globals) Has(name string) bool {
	_, ok := g.m.Get(name)
	return ok
}

// Delete removes name's binding, if any.
func (g *Globals) Delete(name string) {
	g.m.Delete(name)
}

// Len reports the number of bound globals.
func (g *Globals) Len() int { return g.m.Count() }

// Range calls f for every bound global, in unspecified order, stopping
// early if f returns false. Used by the garbage collector to mark the
// globals table as a strong root.
func (g *Globals) Range(f func(name string, v value.Value) bool) {
	g.m.Iter(func(k string, v value.Value) bool {
		return !f(k, v)
	})
}
