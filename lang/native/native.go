// Package native implements Meon's host-provided global functions: time and
// clock. original_source/src/native.c wires both names to the same
// getUnixEpoch helper, which looks like a bug left over from an incomplete
// implementation (a CPU-time native would not be implemented with a
// wall-clock syscall) rather than intended behavior to preserve; see
// DESIGN.md's native time/clock resolution.
package native

import (
	"runtime"
	"time"

	"github.com/mna/meon/lang/value"
)

// processStart is captured at package init, giving clock a zero point to
// measure elapsed process time against.
var processStart = time.Now()

// Registerer is satisfied by *vm.VM; declared here instead of imported
// directly so this package does not need to depend on lang/vm.
type Registerer interface {
	DefineNative(name string, fn value.NativeFn)
}

// Register installs every native function as a global on r.
func Register(r Registerer) {
	r.DefineNative("time", timeNative)
	r.DefineNative("clock", clockNative)
}

// timeNative returns the current wall-clock time as Unix seconds.
func timeNative(args []value.Value) (value.Value, error) {
	return value.Number(float64(time.Now().UnixNano()) / 1e9), nil
}

// clockNative approximates CPU time consumed by the process: Go's standard
// library has no portable process CPU-time reader, and nothing else in the
// example corpus wires one in, so wall-clock time elapsed since the runtime
// started is scaled by the number of available CPUs, a practical proxy for
// a single-threaded, CPU-bound script (which Meon's interpreter always is).
func clockNative(args []value.Value) (value.Value, error) {
	elapsed := time.Since(processStart).Seconds()
	return value.Number(elapsed * float64(runtime.NumCPU())), nil
}
