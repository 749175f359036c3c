package compiler

import (
	"fmt"
	"strings"

	"github.com/mna/meon/lang/token"
)

// Error is a single compile-time diagnostic, with the source position it
// was raised at.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

// ErrorList collects every diagnostic raised while compiling one source
// file, in the order they were raised, mirroring the accumulate-then-report
// shape of go/scanner.ErrorList that the teacher package aliases directly.
type ErrorList []*Error

// Add appends a new diagnostic.
func (p *ErrorList) Add(pos token.Position, msg string) {
	*p = append(*p, &Error{Pos: pos, Msg: msg})
}

// Err returns p as an error, or nil if p is empty.
func (p ErrorList) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

func (p ErrorList) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (and %d more errors)", p[0], len(p)-1)
	return sb.String()
}
