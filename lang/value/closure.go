package value

// Closure pairs a compiled Function with the upvalues captured at the point
// it was created. Every callable Meon value the VM executes is a Closure,
// even a top-level function with no free variables: OP_CLOSURE always runs,
// so the call machinery in lang/vm only has one calling convention.
type Closure struct {
	Header
	Fn       *Function
	Upvalues []*Upvalue
}

func (c *Closure) meonValue()     {}
func (c *Closure) Obj() *Header   { return &c.Header }
func (c *Closure) Type() string   { return "function" }
func (c *Closure) Truthy() bool   { return true }
func (c *Closure) String() string { return c.Fn.String() }

// NewClosure wraps fn, allocating room for its declared number of upvalues.
func NewClosure(fn *Function) *Closure {
	return &Closure{
		Header:   Header{Kind: KindClosure},
		Fn:       fn,
		Upvalues: make([]*Upvalue, fn.NumUpvalues),
	}
}
