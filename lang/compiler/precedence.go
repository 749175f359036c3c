package compiler

import "github.com/mna/meon/lang/token"

// precedence mirrors original_source's Precedence ladder: each level binds
// tighter than the one above it. UNARY sits above POWER (so -x^2 parses as
// (-x)^2) and POWER is right-associative, unlike every binary level below it.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * / %
	precPower                 // ^
	precUnary                 // ! -
	precCall                  // ()
	precPrimary
)

// parseFn parses one grammar production starting at c.prev (already
// consumed). canAssign is true only when the production appears in a
// context where trailing "= value" would be a valid assignment, so that
// "a + b = c" can be rejected as an invalid assignment target.
type parseFn func(c *Compiler, canAssign bool)

type rule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

var rules = map[token.Token]rule{
	token.LPAREN:  {prefix: parseGrouping, infix: parseCall, prec: precCall},
	token.MINUS:   {prefix: parseUnary, infix: parseBinary, prec: precTerm},
	token.PLUS:    {infix: parseBinary, prec: precTerm},
	token.DOT:     {infix: parseBinary, prec: precTerm},
	token.SLASH:   {infix: parseBinary, prec: precFactor},
	token.STAR:    {infix: parseBinary, prec: precFactor},
	token.PERCENT: {infix: parseBinary, prec: precFactor},
	token.CARET:   {infix: parseBinary, prec: precPower},
	token.BANG:    {prefix: parseUnary},
	token.BANGEQ:  {infix: parseBinary, prec: precEquality},
	token.EQEQ:    {infix: parseBinary, prec: precEquality},
	token.GT:      {infix: parseBinary, prec: precComparison},
	token.GE:      {infix: parseBinary, prec: precComparison},
	token.LT:      {infix: parseBinary, prec: precComparison},
	token.LE:      {infix: parseBinary, prec: precComparison},
	token.IDENT:   {prefix: parseVariable},
	token.STRING:  {prefix: parseStringLit},
	token.NUMBER:  {prefix: parseNumberLit},
	token.AND:     {infix: parseAnd, prec: precAnd},
	token.OR:      {infix: parseOr, prec: precOr},
	token.FALSE:   {prefix: parseLiteral},
	token.TRUE:    {prefix: parseLiteral},
	token.NULL:    {prefix: parseLiteral},
}

func getRule(t token.Token) rule { return rules[t] }

// parsePrecedence parses the expression starting at c.cur whose operators
// all bind at least as tightly as prec, matching original_source's
// parsePrecedence. POWER's rule is registered at precPower but handled as
// right-associative by parseBinary re-entering at precPower rather than
// precPower+1 for that one operator.
func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	pr := getRule(c.prev.kind)
	if pr.prefix == nil {
		c.errorAtPrev("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	pr.prefix(c, canAssign)

	for prec <= getRule(c.cur.kind).prec {
		c.advance()
		infix := getRule(c.prev.kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQ) {
		c.errorAtPrev("Invalid assignment target.")
	}
}

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}
