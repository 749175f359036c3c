package scanner

import "github.com/mna/meon/lang/token"

// number scans a NUMBER literal: a run of decimal digits, optionally
// followed by a '.' and another run of digits. Meon has no integer/float
// distinction at the lexical level (see lang/value for how the single
// number kind is represented), no digit separators and no exponent or
// alternate-base notation.
func (s *Scanner) number() token.Token {
	for isDigit(s.cur) {
		s.advance()
	}
	if s.cur == '.' && isDigit(s.peek()) {
		s.advance() // consume '.'
		for isDigit(s.cur) {
			s.advance()
		}
	}
	return token.NUMBER
}
