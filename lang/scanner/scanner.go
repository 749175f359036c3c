// Package scanner tokenizes Meon source text for the compiler. Unlike the
// multi-file, UTF-8-aware scanner it is adapted from, Meon source is treated
// as a single ASCII-oriented byte stream: the language has no notion of
// identifiers outside of [A-Za-z_][A-Za-z0-9_]*, so there is no need to
// decode runes to scan it.
package scanner

import (
	"fmt"
	"strings"

	"github.com/mna/meon/lang/token"
)

// Scanner tokenizes a single Meon source file.
type Scanner struct {
	// immutable state after Init
	src []byte
	err func(pos token.Position, msg string)

	// mutable scanning state
	sb   strings.Builder // accumulates the decoded value of the string literal being scanned
	cur  byte            // current byte, 0 at end of file
	off  int             // byte offset of cur
	roff int             // byte offset following cur
	line int             // line of cur, 1-based
	col  int              // column of cur, 1-based
}

// Init (re)initializes the scanner to tokenize src. errHandler, if non-nil,
// is invoked once per lexical error; scanning continues afterwards so every
// error in the source can be collected in one pass.
func (s *Scanner) Init(src []byte, errHandler func(token.Position, string)) {
	s.src = src
	s.err = errHandler
	s.sb.Reset()
	s.off, s.roff = 0, 0
	s.line, s.col = 1, 0
	s.advance()
}

func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

// advance reads the next byte into s.cur, tracking line and column. s.cur is
// 0 at and beyond end of file.
func (s *Scanner) advance() {
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		s.cur = 0
		return
	}
	if s.cur == '\n' {
		s.line++
		s.col = 0
	}
	s.off = s.roff
	s.cur = s.src[s.roff]
	s.roff++
	s.col++
}

// advanceIf advances past cur and returns true if cur equals want.
func (s *Scanner) advanceIf(want byte) bool {
	if s.cur != want {
		return false
	}
	s.advance()
	return true
}

func (s *Scanner) atEnd() bool { return s.off >= len(s.src) }

func (s *Scanner) error(line, col int, msg string) {
	if s.err != nil {
		s.err(token.Position{Line: line, Column: col}, msg)
	}
}

func (s *Scanner) errorf(line, col int, format string, args ...any) {
	s.error(line, col, fmt.Sprintf(format, args...))
}

// Scan returns the next token in the source, along with its literal text and
// starting position. Once EOF is returned, every subsequent call returns EOF
// again.
func (s *Scanner) Scan() (tok token.Token, lit string, pos token.Position) {
	s.skipWhitespaceAndComments()

	startOff, startLine, startCol := s.off, s.line, s.col
	pos = token.Position{Line: startLine, Column: startCol}

	switch cur := s.cur; {
	case isAlpha(cur):
		s.ident()
		lit = string(s.src[startOff:s.off])
		return token.Lookup(lit), lit, pos
	case isDigit(cur):
		tok = s.number()
		return tok, string(s.src[startOff:s.off]), pos
	}

	cur := s.cur
	s.advance() // always make progress
	switch cur {
	case 0:
		return token.EOF, "", pos
	case '(':
		tok = token.LPAREN
	case ')':
		tok = token.RPAREN
	case ',':
		tok = token.COMMA
	case '.':
		tok = token.DOT
	case ';':
		tok = token.SEMI
	case '+':
		tok = token.PLUS
	case '-':
		tok = token.MINUS
	case '*':
		tok = token.STAR
	case '/':
		tok = token.SLASH
	case '%':
		tok = token.PERCENT
	case '^':
		tok = token.CARET
	case '!':
		tok = token.BANG
		if s.advanceIf('=') {
			tok = token.BANGEQ
		}
	case '=':
		tok = token.EQ
		if s.advanceIf('=') {
			tok = token.EQEQ
		} else if s.advanceIf('>') {
			tok = token.ARROW
		}
	case '<':
		tok = token.LT
		if s.advanceIf('=') {
			tok = token.LE
		} else if s.advanceIf('>') {
			tok = token.BANGEQ
		}
	case '>':
		tok = token.GT
		if s.advanceIf('=') {
			tok = token.GE
		}
	case '"':
		tok = token.STRING
		lit := s.string(startLine, startCol)
		return tok, lit, pos
	default:
		s.errorf(startLine, startCol, "Unexpected character %q.", cur)
		tok = token.ILLEGAL
	}
	return tok, string(s.src[startOff:s.off]), pos
}

func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch s.cur {
		case ' ', '\t', '\r', '\n':
			s.advance()
		case '/':
			if s.peek() != '/' {
				return
			}
			for s.cur != '\n' && !s.atEnd() {
				s.advance()
			}
		default:
			return
		}
	}
}

func (s *Scanner) ident() {
	for isAlpha(s.cur) || isDigit(s.cur) {
		s.advance()
	}
}

func isAlpha(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
