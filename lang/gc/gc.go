// Package gc implements Meon's tracing mark-sweep collector. It is the sole
// value.Allocator: every *value.String, *value.Function, *value.Closure,
// *value.Native and *value.Upvalue that the compiler or VM create
// passes through a Collector first, so nothing is ever invisible to a
// collection triggered immediately afterwards.
package gc

import (
	"github.com/mna/meon/lang/table"
	"github.com/mna/meon/lang/value"
)

// initialGCThreshold is the number of estimated live bytes that must be
// allocated before the first collection runs.
const initialGCThreshold = 1 << 20 // 1 MiB

// VMRoots is implemented by the running VM so the collector can enumerate
// its roots without gc importing vm (which would cycle back, since vm
// depends on gc for allocation). Nil until a VM registers itself with
// SetVMRoots; until then, only the globals table and any in-flight compiler
// functions are roots, which is exactly the set alive during Compile.
type VMRoots interface {
	// GCStack returns the live portion of the value stack, [0, stackTop).
	GCStack() []value.Value
	// GCOpenUpvalues returns the head of the VM's open-upvalues list.
	GCOpenUpvalues() *value.Upvalue
}

// Collector is the heap: it owns the intrusive all-objects list, the string
// interning table, and the byte-accounting that decides when to collect.
type Collector struct {
	strings *table.Strings
	globals *table.Globals

	objects value.Object
	grey    []value.Object

	bytesAllocated uint64
	nextGC         uint64
	stress         bool

	vmRoots       VMRoots
	compilerRoots []*value.Function
}

// Config controls collector behaviour not implied by spec.md's fixed
// defaults, read from the environment the way the rest of the runtime reads
// its tunables.
type Config struct {
	// StressGC forces a collection on every allocation that grows live
	// bytes, exercising the collector far more aggressively than production
	// use would. Set via the MEON_GC_STRESS environment variable.
	StressGC bool `env:"MEON_GC_STRESS" envDefault:"false"`

	// InitialThreshold overrides initialGCThreshold, the estimated live
	// byte count that must be allocated before the first collection runs.
	// Set via the MEON_GC_INITIAL_THRESHOLD environment variable; a value
	// <= 0 (including an unset variable) keeps the built-in default.
	InitialThreshold int64 `env:"MEON_GC_INITIAL_THRESHOLD" envDefault:"0"`
}

// New returns a Collector backed by globals (the VM's single strong-rooted
// table of top-level bindings) and cfg's tunables.
func New(globals *table.Globals, cfg Config) *Collector {
	nextGC := uint64(initialGCThreshold)
	if cfg.InitialThreshold > 0 {
		nextGC = uint64(cfg.InitialThreshold)
	}
	return &Collector{
		strings: table.NewStrings(),
		globals: globals,
		nextGC:  nextGC,
		stress:  cfg.StressGC,
	}
}

// SetVMRoots registers the running VM as an additional root source, once
// Compile has finished and Interpret is about to start.
func (c *Collector) SetVMRoots(v VMRoots) { c.vmRoots = v }

// PushCompilerRoot marks fn as reachable for as long as it remains the
// function currently being compiled: a child function literal nested inside
// it can trigger a collection (via string interning) before fn is linked
// into any chunk's constant pool or closure.
func (c *Collector) PushCompilerRoot(fn *value.Function) {
	c.compilerRoots = append(c.compilerRoots, fn)
}

// PopCompilerRoot unmarks the most recently pushed compiler root, once that
// function's compilation has finished and it is reachable some other way
// (its enclosing chunk's constant pool, or the CLOSURE instruction about to
// reference it).
func (c *Collector) PopCompilerRoot() {
	c.compilerRoots = c.compilerRoots[:len(c.compilerRoots)-1]
}

// link prepends obj to the all-objects list and accounts for its estimated
// size, triggering a collection first if the new total would grow past the
// current threshold (or stress mode is on).
func (c *Collector) link(obj value.Object, size uint64) {
	if c.stress || c.bytesAllocated+size > c.nextGC {
		c.Collect()
	}
	obj.Obj().NextObj = c.objects
	c.objects = obj
	c.bytesAllocated += size
}

// NewString interns chars, allocating a new *value.String only the first
// time chars is seen.
func (c *Collector) NewString(chars string) *value.String {
	return c.strings.Intern(chars, func(s string) *value.String {
		str := value.NewString(s)
		c.link(str, uint64(len(s))+32)
		return str
	})
}

// NewFunction allocates an empty, not-yet-compiled Function.
func (c *Collector) NewFunction(name string) *value.Function {
	fn := value.NewFunction(name)
	c.link(fn, 64)
	return fn
}

// NewClosure wraps fn, allocating its upvalue array.
func (c *Collector) NewClosure(fn *value.Function) *value.Closure {
	cl := value.NewClosure(fn)
	c.link(cl, uint64(24+8*len(cl.Upvalues)))
	return cl
}

// NewNative wraps a Go function as a callable Meon value.
func (c *Collector) NewNative(name string, fn value.NativeFn) *value.Native {
	nat := value.NewNative(name, fn)
	c.link(nat, 32)
	return nat
}

// NewUpvalue allocates an open upvalue pointing at slot.
func (c *Collector) NewUpvalue(slot *value.Value) *value.Upvalue {
	uv := value.NewUpvalue(slot)
	c.link(uv, 40)
	return uv
}

// Collect runs one full mark-sweep cycle: mark every object reachable from
// the current roots, drop string-table entries for unmarked strings, then
// sweep the all-objects list, unlinking and discarding anything left
// unmarked. nextGC is doubled against the bytes still live afterwards, so
// the threshold grows with the program's real working set.
func (c *Collector) Collect() {
	c.markRoots()
	c.traceGrey()
	c.strings.Sweep(func(s *value.String) bool { return s.Marked })
	c.sweep()
	c.nextGC = c.bytesAllocated * 2
}

func (c *Collector) markRoots() {
	if c.vmRoots != nil {
		for _, v := range c.vmRoots.GCStack() {
			c.markValue(v)
		}
		for uv := c.vmRoots.GCOpenUpvalues(); uv != nil; uv = uv.Next {
			c.markObject(uv)
		}
	}
	c.globals.Range(func(_ string, v value.Value) bool {
		c.markValue(v)
		return true
	})
	for _, fn := range c.compilerRoots {
		c.markObject(fn)
	}
}

// markValue marks v if it is a heap object; the three unboxed kinds (null,
// bool, number) have nothing for the collector to track.
func (c *Collector) markValue(v value.Value) {
	if obj, ok := v.(value.Object); ok {
		c.markObject(obj)
	}
}

func (c *Collector) markObject(obj value.Object) {
	if obj == nil {
		return
	}
	h := obj.Obj()
	if h.Marked {
		return
	}
	h.Marked = true
	c.grey = append(c.grey, obj)
}

// traceGrey drains the grey worklist, blackening each object by marking
// whatever it references in turn, until nothing new is discovered.
func (c *Collector) traceGrey() {
	for len(c.grey) > 0 {
		n := len(c.grey) - 1
		obj := c.grey[n]
		c.grey = c.grey[:n]
		c.blacken(obj)
	}
}

// blacken marks every object obj references directly, per spec.md's
// traversal table: Closure -> Function + Upvalue array; Function ->
// constant-pool values (its name is a plain Go string, not a heap object);
// Upvalue -> its closed value, if closed (an open upvalue's referent is
// already covered by scanning the stack); String and Native have no
// outgoing references.
func (c *Collector) blacken(obj value.Object) {
	switch o := obj.(type) {
	case *value.Closure:
		c.markObject(o.Fn)
		for _, uv := range o.Upvalues {
			c.markObject(uv)
		}
	case *value.Function:
		for _, k := range o.Chunk.Constants {
			if v, ok := k.(value.Value); ok {
				c.markValue(v)
			}
		}
	case *value.Upvalue:
		if o.Location == nil {
			c.markValue(o.Closed)
		}
	}
}

// sweep walks the all-objects list, dropping (and no longer accounting for)
// every object left unmarked, and clears the mark bit on every object that
// survives for the next cycle.
func (c *Collector) sweep() {
	var prev value.Object
	obj := c.objects
	for obj != nil {
		h := obj.Obj()
		next := h.NextObj
		if h.Marked {
			h.Marked = false
			prev = obj
		} else {
			c.bytesAllocated -= objectSize(obj)
			if prev == nil {
				c.objects = next
			} else {
				prev.Obj().NextObj = next
			}
		}
		obj = next
	}
}

// objectSize approximates the estimate link used when obj was allocated, so
// sweep can reverse the accounting. The exact number does not need to match
// byte-for-byte; it only needs to move bytesAllocated back in the same
// ballpark it came from, since nextGC is itself just a heuristic threshold.
func objectSize(obj value.Object) uint64 {
	switch o := obj.(type) {
	case *value.String:
		return uint64(len(o.Chars)) + 32
	case *value.Function:
		return 64
	case *value.Closure:
		return uint64(24 + 8*len(o.Upvalues))
	case *value.Native:
		return 32
	case *value.Upvalue:
		return 40
	default:
		return 0
	}
}

// Stats reports the collector's current bookkeeping, for tests.
type Stats struct {
	BytesAllocated uint64
	NextGC         uint64
}

func (c *Collector) Stats() Stats {
	return Stats{BytesAllocated: c.bytesAllocated, NextGC: c.nextGC}
}
