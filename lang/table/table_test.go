package table_test

import (
	"testing"

	"github.com/mna/meon/lang/table"
	"github.com/mna/meon/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobals(t *testing.T) {
	g := table.NewGlobals()
	assert.False(t, g.Has("x"))

	g.Define("x", value.Number(1))
	v, ok := g.Get("x")
	require.True(t, ok)
	assert.Equal(t, value.Number(1), v)
	assert.Equal(t, 1, g.Len())

	g.Delete("x")
	assert.False(t, g.Has("x"))
}

func TestStringsInterning(t *testing.T) {
	s := table.NewStrings()
	var allocs int
	alloc := func(chars string) *value.String {
		allocs++
		return value.NewString(chars)
	}

	a := s.Intern("hello", alloc)
	b := s.Intern("hello", alloc)
	assert.Same(t, a, b, "interning the same text twice returns the same object")
	assert.Equal(t, 1, allocs)
	assert.Equal(t, 1, s.Len())
}

func TestStringsSweepDropsUnmarked(t *testing.T) {
	s := table.NewStrings()
	kept := s.Intern("kept", value.NewString)
	s.Intern("dropped", value.NewString)

	s.Sweep(func(str *value.String) bool { return str == kept })
	assert.Equal(t, 1, s.Len())

	v := s.Intern("kept", func(string) *value.String {
		t.Fatal("kept should still be interned after sweep")
		return nil
	})
	assert.Same(t, kept, v)
}
