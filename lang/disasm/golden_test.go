package disasm_test

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/meon/internal/filetest"
	"github.com/mna/meon/lang/compiler"
	"github.com/mna/meon/lang/disasm"
)

var testUpdateDisasmTests = flag.Bool("test.update-disasm-tests", false, "If set, replace expected disasm golden files with actual results.")

// TestChunkListingGoldenFiles compiles every testdata/in/*.meon source and
// diffs its full disassembly against testdata/out/<name>.want, the same
// source-directory-driven shape the teacher used for its own scanner golden
// tests, adapted from one CLI command's output (tokenize) to another
// (disassembly).
func TestChunkListingGoldenFiles(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".meon") {
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			require.NoError(t, err)

			fn, err := compiler.Compile(string(src), newPlainAlloc())
			require.NoError(t, err)

			filetest.DiffOutput(t, fi, disasm.Function(fn), resultDir, testUpdateDisasmTests)
		})
	}
}
