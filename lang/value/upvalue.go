package value

// Upvalue is the runtime cell behind a captured local variable. While the
// enclosing frame is still on the stack, Location points directly at the
// stack slot so reads and writes made through the upvalue and through the
// local are the same memory. Close copies the current value into Closed and
// clears Location, after which the upvalue is self-contained and survives
// the frame's stack slots being reused.
//
// Upvalue is a heap object tracked by the collector but is never itself a
// first-class Meon value: it is only ever reachable through a Closure's
// Upvalues slice.
type Upvalue struct {
	Header
	Location *Value  // non-nil while open
	Closed   Value   // valid once Location is nil
	Next     *Upvalue // next node in the VM's open-upvalues list, ordered by stack slot
}

func (u *Upvalue) Obj() *Header { return &u.Header }

// Get returns the upvalue's current value, whether open or closed.
func (u *Upvalue) Get() Value {
	if u.Location != nil {
		return *u.Location
	}
	return u.Closed
}

// Set stores v into the upvalue's current location, open or closed.
func (u *Upvalue) Set(v Value) {
	if u.Location != nil {
		*u.Location = v
		return
	}
	u.Closed = v
}

// Close detaches the upvalue from the stack, preserving its current value.
func (u *Upvalue) Close() {
	u.Closed = *u.Location
	u.Location = nil
}

// NewUpvalue constructs an open Upvalue pointing at slot.
func NewUpvalue(slot *Value) *Upvalue {
	return &Upvalue{Header: Header{Kind: KindUpvalue}, Location: slot}
}
