package value_test

import (
	"testing"

	"github.com/mna/meon/lang/value"
	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	assert.True(t, value.Null{}.Truthy(), "only the boolean false is falsy; null is truthy")
	assert.False(t, value.Bool(false).Truthy())
	assert.True(t, value.Bool(true).Truthy())
	assert.True(t, value.Number(0).Truthy(), "0 is truthy")
	assert.True(t, value.NewString("").Truthy())
}

func TestEqual(t *testing.T) {
	assert.True(t, value.Equal(value.Null{}, value.Null{}))
	assert.True(t, value.Equal(value.Number(1), value.Number(1)))
	assert.False(t, value.Equal(value.Number(1), value.Number(2)))
	assert.False(t, value.Equal(value.Number(1), value.Bool(true)), "different kinds are never equal")

	a, b := value.NewString("hi"), value.NewString("hi")
	assert.True(t, value.Equal(a, b), "strings compare by content")

	fn := value.NewClosure(value.NewFunction("f"))
	other := value.NewClosure(value.NewFunction("f"))
	assert.False(t, value.Equal(fn, other), "closures compare by identity")
	assert.True(t, value.Equal(fn, fn))
}

func TestStringRepresentations(t *testing.T) {
	assert.Equal(t, "null", value.Null{}.String())
	assert.Equal(t, "true", value.Bool(true).String())
	assert.Equal(t, "<script>", value.NewFunction("").String())
	assert.Equal(t, "<fn add>", value.NewFunction("add").String())

	nat := value.NewNative("clock", func([]value.Value) (value.Value, error) { return value.Number(0), nil })
	assert.Equal(t, "<native fn clock>", nat.String())
}
