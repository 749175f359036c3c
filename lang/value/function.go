package value

import "github.com/mna/meon/lang/chunk"

// Function is a compiled function body: its bytecode, how many parameters
// it takes, and how many upvalues its closures must capture. A Function on
// its own is never called; the compiler always wraps it in a Closure (even
// one that captures nothing), matching the OP_CLOSURE encoding described in
// lang/chunk.
type Function struct {
	Header
	Name        string // empty for the implicit top-level script
	Arity       int
	NumUpvalues int
	Chunk       *chunk.Chunk
}

func (f *Function) meonValue()   {}
func (f *Function) Obj() *Header { return &f.Header }
func (f *Function) Type() string { return "function" }
func (f *Function) Truthy() bool { return true }

func (f *Function) String() string {
	if f.Name == "" {
		return "<script>"
	}
	return "<fn " + f.Name + ">"
}

// NewFunction constructs a Function ready to be populated by the compiler.
func NewFunction(name string) *Function {
	return &Function{Header: Header{Kind: KindFunction}, Name: name, Chunk: chunk.New()}
}
