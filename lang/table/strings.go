package table

import (
	"github.com/dolthub/swiss"

	"github.com/mna/meon/lang/value"
)

// Strings interns every *value.String the compiler and VM produce, so that
// two occurrences of the same text are always the same object. It is a
// "weak" table: it does
// not by itself keep an interned string alive. Sweep must be called at the
// end of every GC cycle to drop entries whose string was not marked, or the
// table would pin every string ever seen for the life of the program.
type Strings struct {
	m *swiss.Map[string, *value.String]
}

// NewStrings returns an empty interning table.
func NewStrings() *Strings {
	return &Strings{m: swiss.NewMap[string, *value.String](64)}
}

// Intern returns the canonical *value.String for chars, allocating and
// registering one via alloc if this is the first time chars is seen. alloc
// is provided by the caller (rather than Strings constructing the value
// itself) so allocation always goes through the garbage collector's
// bookkeeping.
func (s *Strings) Intern(chars string, alloc func(string) *value.String) *value.String {
	if v, ok := s.m.Get(chars); ok {
		return v
	}
	v := alloc(chars)
	s.m.Put(chars, v)
	return v
}

// Sweep removes every entry whose string is not marked, according to
// isMarked. It is called once per GC cycle, after the mark phase and before
// objects are freed, so that an interned string with no remaining
// references can be collected instead of living forever in this table.
func (s *Strings) Sweep(isMarked func(*value.String) bool) {
	var dead []string
	s.m.Iter(func(k string, v *value.String) bool {
		if !isMarked(v) {
			dead = append(dead, k)
		}
		return false
	})
	for _, k := range dead {
		s.m.Delete(k)
	}
}

// Len reports the number of interned strings.
func (s *Strings) Len() int { return s.m.Count() }
