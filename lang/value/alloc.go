package value

// Allocator creates heap objects and registers them with the garbage
// collector's all-objects list in the same step, so that nothing allocated
// by the compiler or VM is ever invisible to a collection that
// runs immediately afterwards. lang/gc.Collector is the only real
// implementation; lang/compiler and lang/vm depend only on this interface,
// not on lang/gc itself, so that neither package needs to import the other.
type Allocator interface {
	NewString(chars string) *String
	NewFunction(name string) *Function
	NewClosure(fn *Function) *Closure
	NewNative(name string, fn NativeFn) *Native
	NewUpvalue(slot *Value) *Upvalue

	// PushCompilerRoot and PopCompilerRoot root a *Function still being
	// compiled: it is reachable only through the compiler's own function-
	// state chain, not yet through any chunk's constant pool or closure, so
	// a collection triggered by a nested function literal's string interning
	// must not sweep it.
	PushCompilerRoot(fn *Function)
	PopCompilerRoot()
}
