package value

import "strconv"

// String is an interned, immutable byte string. The VM and compiler never
// allocate a *String directly; they go through a table.Strings so that two
// equal strings are always the same object. Meon's == on strings still
// compares contents (see Equal).
type String struct {
	Header
	Chars string
}

func (s *String) meonValue()     {}
func (s *String) Obj() *Header   { return &s.Header }
func (s *String) String() string { return s.Chars }
func (s *String) Type() string   { return "string" }
func (s *String) Truthy() bool   { return true }

// Quoted returns the string's value as a Meon string literal, used by the
// disassembler to show a string constant rather than print it.
func (s *String) Quoted() string { return strconv.Quote(s.Chars) }

// NewString constructs a *String with its header initialized to KindString.
// Callers that need interning should use table.Strings.Intern instead of
// calling this directly.
func NewString(chars string) *String {
	return &String{Header: Header{Kind: KindString}, Chars: chars}
}
