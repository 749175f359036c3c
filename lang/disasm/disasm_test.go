package disasm_test

import (
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/meon/lang/chunk"
	"github.com/mna/meon/lang/compiler"
	"github.com/mna/meon/lang/disasm"
	"github.com/mna/meon/lang/value"
)

// assertGoldenListing compares got against want line by line, printing a
// unified diff on mismatch instead of testify's single-string dump, since a
// multi-line disassembly listing is much easier to read as a diff.
func assertGoldenListing(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	require.NoError(t, err)
	t.Fatalf("listing mismatch:\n%s", text)
}

// plainAlloc mirrors lang/compiler's test allocator: no GC bookkeeping, just
// enough to let the compiler run.
type plainAlloc struct{ interned map[string]*value.String }

func newPlainAlloc() *plainAlloc { return &plainAlloc{interned: map[string]*value.String{}} }

func (a *plainAlloc) NewString(chars string) *value.String {
	if s, ok := a.interned[chars]; ok {
		return s
	}
	s := value.NewString(chars)
	a.interned[chars] = s
	return s
}
func (a *plainAlloc) NewFunction(name string) *value.Function { return value.NewFunction(name) }
func (a *plainAlloc) NewClosure(fn *value.Function) *value.Closure {
	return value.NewClosure(fn)
}
func (a *plainAlloc) NewNative(name string, fn value.NativeFn) *value.Native {
	return value.NewNative(name, fn)
}
func (a *plainAlloc) NewUpvalue(slot *value.Value) *value.Upvalue {
	return value.NewUpvalue(slot)
}
func (a *plainAlloc) PushCompilerRoot(fn *value.Function) {}
func (a *plainAlloc) PopCompilerRoot()                    {}

func TestInstructionFormatsOneLinePerOpcode(t *testing.T) {
	fn, err := compiler.Compile(`output 1 + 2;`, newPlainAlloc())
	require.NoError(t, err)

	var lineCount int
	for offset := 0; offset < len(fn.Chunk.Code); {
		line, next := disasm.Instruction(fn.Chunk, offset)
		require.Greater(t, next, offset)
		assert.True(t, strings.HasPrefix(line, "0000") || len(line) > 4)
		lineCount++
		offset = next
	}
	assert.Greater(t, lineCount, 0)
}

func TestInstructionAnnotatesConstants(t *testing.T) {
	fn, err := compiler.Compile(`output "hi";`, newPlainAlloc())
	require.NoError(t, err)

	line, _ := disasm.Instruction(fn.Chunk, 0)
	assert.Contains(t, line, "const")
	assert.Contains(t, line, `"hi"`)
}

func TestInstructionShowsJumpTarget(t *testing.T) {
	fn, err := compiler.Compile(`if (true) then output 1;`, newPlainAlloc())
	require.NoError(t, err)

	var sawArrow bool
	for offset := 0; offset < len(fn.Chunk.Code); {
		line, next := disasm.Instruction(fn.Chunk, offset)
		if strings.Contains(line, "->") {
			sawArrow = true
		}
		offset = next
	}
	assert.True(t, sawArrow, "a jump instruction should render its target address")
}

func TestClosureEmitsOneLinePerUpvalue(t *testing.T) {
	fn, err := compiler.Compile(`
func outer()
	let x = 1;
	func inner()
		output x;
	endfunc
endfunc
`, newPlainAlloc())
	require.NoError(t, err)

	listing := disasm.Function(fn)
	assert.Contains(t, listing, "local 1")
}

func TestChunkHeader(t *testing.T) {
	fn, err := compiler.Compile(`output 1;`, newPlainAlloc())
	require.NoError(t, err)
	assert.Contains(t, disasm.Chunk("script", fn.Chunk), "== script ==")
}

func TestChunkListingGolden(t *testing.T) {
	fn, err := compiler.Compile(`output 1;`, newPlainAlloc())
	require.NoError(t, err)

	want := "== script ==\n" +
		"0000    1 const 0 (1)\n" +
		"0002    | output\n" +
		"0003    | null\n" +
		"0004    | ret\n"
	assertGoldenListing(t, want, disasm.Chunk("script", fn.Chunk))
}

func TestRoundTripEveryOperandWidthMatchesDeclaredArity(t *testing.T) {
	fn, err := compiler.Compile(`
let i = 0;
while (i < 3)
	i = i + 1;
endwhile
output i;
`, newPlainAlloc())
	require.NoError(t, err)

	for offset := 0; offset < len(fn.Chunk.Code); {
		op := chunk.Op(fn.Chunk.Code[offset])
		_, next := disasm.Instruction(fn.Chunk, offset)
		assert.Equal(t, 1+chunk.OperandWidth(op), next-offset, "opcode %s consumed an unexpected number of bytes", op)
		offset = next
	}
}
