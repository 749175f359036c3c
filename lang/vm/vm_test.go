package vm_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mna/meon/lang/compiler"
	"github.com/mna/meon/lang/gc"
	"github.com/mna/meon/lang/table"
	"github.com/mna/meon/lang/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run compiles and interprets src, returning everything written via output
// statements (one line each).
func run(t *testing.T, src string) string {
	t.Helper()
	globals := table.NewGlobals()
	coll := gc.New(globals, gc.Config{})

	fn, err := compiler.Compile(src, coll)
	require.NoError(t, err)

	var out bytes.Buffer
	m := vm.New(coll, globals, &out)
	coll.SetVMRoots(m)

	require.NoError(t, m.Interpret(context.Background(), fn))
	return out.String()
}

func runErr(t *testing.T, src string) error {
	t.Helper()
	globals := table.NewGlobals()
	coll := gc.New(globals, gc.Config{})

	fn, err := compiler.Compile(src, coll)
	require.NoError(t, err)

	var out bytes.Buffer
	m := vm.New(coll, globals, &out)
	coll.SetVMRoots(m)

	return m.Interpret(context.Background(), fn)
}

func lines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestPrecedence(t *testing.T) {
	assert.Equal(t, []string{"7"}, lines(run(t, `output 1 + 2 * 3 ;`)))
}

func TestExponentRightAssociativeAndPrecedence(t *testing.T) {
	assert.Equal(t, []string{"512"}, lines(run(t, `output 2 ^ 3 ^ 2 ;`)))
	assert.Equal(t, []string{"7"}, lines(run(t, `output 2 ^ 3 - 1 ;`)))
}

func TestConcatVsAddTypeError(t *testing.T) {
	out := run(t, `let a = "foo"; let b = "bar"; output a . b ;`)
	assert.Equal(t, []string{"foobar"}, lines(out))

	err := runErr(t, `let a = "foo"; let b = "bar"; output a + b ;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Operands must be numbers.")
}

func TestClosureCounter(t *testing.T) {
	src := `
func makeCounter()
	let n = 0;
	func step()
		n = n + 1;
		return n;
	endfunc
	return step;
endfunc
let c = makeCounter();
output c(); output c(); output c();
`
	assert.Equal(t, []string{"1", "2", "3"}, lines(run(t, src)))
}

func TestForLoop(t *testing.T) {
	out := run(t, `for (let i = 0; i < 3; i = i + 1) output i; endfor`)
	assert.Equal(t, []string{"0", "1", "2"}, lines(out))
}

func TestBlockScopeShadowing(t *testing.T) {
	out := run(t, `let x = 10; block let x = 20; output x; endblock output x;`)
	assert.Equal(t, []string{"20", "10"}, lines(out))
}

func TestTruthinessLaw(t *testing.T) {
	// Only bool(false) is falsy; null, 0 and "" are all truthy.
	out := run(t, `
if (null) then output "null-truthy";
if (0) then output "zero-truthy";
if ("") then output "empty-string-truthy";
if (!false) then output "not-false-is-true";
`)
	assert.Equal(t, []string{"null-truthy", "zero-truthy", "empty-string-truthy", "not-false-is-true"}, lines(out))
}

func TestModuloAndExponentTruncateOperands(t *testing.T) {
	out := run(t, `output 7.9 % 2.9; output 2.9 ^ 2.9;`)
	// Both operands truncate to integers first: 7 % 2 == 1, 2 ^ 2 == 4.
	assert.Equal(t, []string{"1", "4"}, lines(out))
}

func TestDivisionByZero(t *testing.T) {
	err := runErr(t, `output 1 / 0;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Division by zero.")
}

func TestUndefinedGlobalRead(t *testing.T) {
	err := runErr(t, `output nope;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable 'nope'.")
}

func TestUndefinedGlobalAssign(t *testing.T) {
	err := runErr(t, `nope = 1;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable 'nope'.")
}

func TestArityMismatch(t *testing.T) {
	err := runErr(t, `
func f(a, b)
	return a + b;
endfunc
f(1);
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected 2 arguments but got 1.")
}

func TestCallNonCallable(t *testing.T) {
	err := runErr(t, `let x = 1; x();`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can only call functions.")
}

func TestBreakInWhileLoopPatchesEveryBreak(t *testing.T) {
	src := `
let i = 0;
while (true)
	if (i == 1) then output "one";
	if (i == 2)
		break;
	endif
	if (i == 5)
		break;
	endif
	i = i + 1;
endwhile
output "done";
`
	assert.Equal(t, []string{"one", "done"}, lines(run(t, src)))
}

func TestRecursionAndStackStayBalanced(t *testing.T) {
	src := `
func fib(n)
	if (n < 2) then return n;
	return fib(n - 1) + fib(n - 2);
endfunc
output fib(10);
`
	assert.Equal(t, []string{"55"}, lines(run(t, src)))
}

func TestStringEqualityByContent(t *testing.T) {
	out := run(t, `let a = "x" . "y"; output a == "xy";`)
	assert.Equal(t, []string{"true"}, lines(out))
}

func TestMaxStepsCancelsRunawayLoop(t *testing.T) {
	globals := table.NewGlobals()
	coll := gc.New(globals, gc.Config{})

	fn, err := compiler.Compile(`while (true) endwhile`, coll)
	require.NoError(t, err)

	var out bytes.Buffer
	m := vm.New(coll, globals, &out)
	coll.SetVMRoots(m)
	m.MaxSteps = 1000

	err = m.Interpret(context.Background(), fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution cancelled")
}

func TestContextCancellationStopsExecution(t *testing.T) {
	globals := table.NewGlobals()
	coll := gc.New(globals, gc.Config{})

	fn, err := compiler.Compile(`while (true) endwhile`, coll)
	require.NoError(t, err)

	var out bytes.Buffer
	m := vm.New(coll, globals, &out)
	coll.SetVMRoots(m)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = m.Interpret(ctx, fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution cancelled")
}
