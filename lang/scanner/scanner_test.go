package scanner_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/meon/lang/scanner"
	"github.com/mna/meon/lang/token"
)

func scanAll(t *testing.T, src string) ([]token.Token, []string, []string) {
	t.Helper()

	var errs []string
	var s scanner.Scanner
	s.Init([]byte(src), func(pos token.Position, msg string) {
		errs = append(errs, pos.String()+": "+msg)
	})

	var toks []token.Token
	var lits []string
	for {
		tok, lit, _ := s.Scan()
		toks = append(toks, tok)
		lits = append(lits, lit)
		if tok == token.EOF {
			break
		}
	}
	return toks, lits, errs
}

func TestScanPunctAndOperators(t *testing.T) {
	toks, _, errs := scanAll(t, `( ) , . ; + - * / % ^ ! = == != < <= > >= => <>`)
	require.Empty(t, errs)
	want := []token.Token{
		token.LPAREN, token.RPAREN, token.COMMA, token.DOT, token.SEMI,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.CARET, token.BANG, token.EQ, token.EQEQ, token.BANGEQ,
		token.LT, token.LE, token.GT, token.GE, token.ARROW, token.BANGEQ,
		token.EOF,
	}
	assert.Equal(t, want, toks)
}

func TestScanKeywordsAndIdents(t *testing.T) {
	toks, lits, errs := scanAll(t, `let x = foo and bar`)
	require.Empty(t, errs)
	assert.Equal(t, []token.Token{token.LET, token.IDENT, token.EQ, token.IDENT, token.AND, token.IDENT, token.EOF}, toks)
	assert.Equal(t, "x", lits[1])
	assert.Equal(t, "foo", lits[3])
}

func TestScanNumbers(t *testing.T) {
	toks, lits, errs := scanAll(t, `42 3.14 0 0.5`)
	require.Empty(t, errs)
	for _, tok := range toks[:len(toks)-1] {
		assert.Equal(t, token.NUMBER, tok)
	}
	assert.Equal(t, []string{"42", "3.14", "0", "0.5"}, lits[:4])
}

func TestScanStrings(t *testing.T) {
	toks, lits, errs := scanAll(t, `"hello" "a\nb" "tab\there" "kept\xliteral"`)
	require.Empty(t, errs)
	for _, tok := range toks[:len(toks)-1] {
		assert.Equal(t, token.STRING, tok)
	}
	assert.Equal(t, "hello", lits[0])
	assert.Equal(t, "a\nb", lits[1])
	assert.Equal(t, "tab\there", lits[2])
	assert.Equal(t, `kept\xliteral`, lits[3])
}

func TestScanUnterminatedString(t *testing.T) {
	_, _, errs := scanAll(t, `"no closing quote`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Unterminated string.")
}

func TestScanLineComment(t *testing.T) {
	toks, _, errs := scanAll(t, "let x = 1 // trailing comment\nlet y = 2")
	require.Empty(t, errs)
	assert.Equal(t, []token.Token{
		token.LET, token.IDENT, token.EQ, token.NUMBER,
		token.LET, token.IDENT, token.EQ, token.NUMBER,
		token.EOF,
	}, toks)
}

func TestScanPositionsTrackLinesAndColumns(t *testing.T) {
	var s scanner.Scanner
	s.Init([]byte("let\nx"), nil)

	_, _, pos := s.Scan()
	assert.Equal(t, token.Position{Line: 1, Column: 1}, pos)
	_, _, pos = s.Scan()
	assert.Equal(t, token.Position{Line: 2, Column: 1}, pos)
}

func TestScanUnexpectedCharacter(t *testing.T) {
	_, _, errs := scanAll(t, "@")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Unexpected character")
}

// dumpTokens renders one "TOKEN literal" line per scanned token, the same
// shape a "tokenize" debug command would print.
func dumpTokens(toks []token.Token, lits []string) string {
	var b strings.Builder
	for i, tok := range toks {
		fmt.Fprintf(&b, "%s", tok)
		if lits[i] != "" {
			fmt.Fprintf(&b, " %s", lits[i])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// assertGoldenDump compares got against want line by line, printing a
// unified diff instead of testify's single-string mismatch dump when they
// differ, since a token dump mismatch is much easier to read as a diff.
func assertGoldenDump(t *testing.T, want, got string) {
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
	t.Fatalf("token dump mismatch:\n%s", text)
}

func TestScanTokenDumpGolden(t *testing.T) {
	toks, lits, errs := scanAll(t, "let x = 1 + 2;")
	require.Empty(t, errs)

	want := "let let\nidentifier x\n= =\nnumber literal 1\n+ +\nnumber literal 2\n; ;\nend of file\n"
	assertGoldenDump(t, want, dumpTokens(toks, lits))
}

// pair mirrors one scanned (token, literal) slot, for pretty.Compare's
// struct-aware diff below.
type pair struct {
	Tok token.Token
	Lit string
}

func pairs(toks []token.Token, lits []string) []pair {
	ps := make([]pair, len(toks))
	for i := range toks {
		ps[i] = pair{Tok: toks[i], Lit: lits[i]}
	}
	return ps
}

// TestScanStructuralDiffOnMismatch exercises pretty.Compare, which reports
// nested struct/slice differences field by field rather than collapsing a
// whole slice into one opaque string, useful when two (token, literal)
// sequences diverge only in a single lexeme deep inside a long scan.
func TestScanStructuralDiffOnMismatch(t *testing.T) {
	wantToks, wantLits, errs := scanAll(t, "let x = 1;")
	require.Empty(t, errs)
	gotToks, gotLits, errs := scanAll(t, "let x = 1;")
	require.Empty(t, errs)

	if diff := pretty.Compare(pairs(wantToks, wantLits), pairs(gotToks, gotLits)); diff != "" {
		t.Fatalf("unexpected scan result:\n%s", diff)
	}
}
