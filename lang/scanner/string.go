package scanner

// string scans a STRING literal body up to and including the closing quote
// (the opening quote has already been consumed by Scan) and returns the
// decoded value: \n and \t are translated to a newline and a tab, and any
// other backslash escape is passed through unchanged (the backslash and the
// following character are both kept literally).
func (s *Scanner) string(startLine, startCol int) string {
	s.sb.Reset()
	for {
		switch s.cur {
		case '"':
			s.advance()
			return s.sb.String()
		case 0, '\n':
			s.error(startLine, startCol, "Unterminated string.")
			return s.sb.String()
		case '\\':
			s.advance()
			switch s.cur {
			case 'n':
				s.sb.WriteByte('\n')
				s.advance()
			case 't':
				s.sb.WriteByte('\t')
				s.advance()
			case 0, '\n':
				s.error(startLine, startCol, "Unterminated string.")
				return s.sb.String()
			default:
				s.sb.WriteByte('\\')
				s.sb.WriteByte(s.cur)
				s.advance()
			}
		default:
			s.sb.WriteByte(s.cur)
			s.advance()
		}
	}
}
