package value

// NativeFn is the signature of a function implemented in Go and exposed to
// Meon programs as a global, such as time and clock.
type NativeFn func(args []Value) (Value, error)

// Native wraps a Go function so it can be called from Meon code like any
// other closure.
type Native struct {
	Header
	Name string
	Fn   NativeFn
}

func (n *Native) meonValue()     {}
func (n *Native) Obj() *Header   { return &n.Header }
func (n *Native) Type() string   { return "native function" }
func (n *Native) Truthy() bool   { return true }
func (n *Native) String() string { return "<native fn " + n.Name + ">" }

// NewNative constructs a Native wrapping fn.
func NewNative(name string, fn NativeFn) *Native {
	return &Native{Header: Header{Kind: KindNative}, Name: name, Fn: fn}
}
