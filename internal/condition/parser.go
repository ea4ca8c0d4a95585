package condition

import (
	"fmt"
	"strconv"
)

// comparisonOps maps DSL operator spellings to normalized names. Any
// operator token not in this map (and not a logical connective) is
// unsupported.
var comparisonOps = map[string]Op{
	"==": OpEq,
	"!=": OpNe,
	"<":  OpLt,
	"<=": OpLe,
	">":  OpGt,
	">=": OpGe,
}

type parser struct {
	lex  *lexer
	tok  token
	err  error
	seen bool
}

func newParser(input string) *parser {
	return &parser{lex: newLexer(input)}
}

// advance moves to the next token, latching the first lex error.
func (p *parser) advance() {
	if p.err != nil {
		return
	}
	tok, err := p.lex.next()
	if err != nil {
		p.err = err
		return
	}
	p.tok = tok
}

func (p *parser) parse() (*Condition, error) {
	p.advance()
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.tok.kind != tokEOF {
		if p.tok.kind == tokOperator {
			return nil, &UnsupportedOperatorError{Operator: p.tok.text}
		}
		return nil, fmt.Errorf("unexpected %q at offset %d", p.tok.text, p.tok.pos)
	}
	return cond, nil
}

// parseOr handles | chains. & binds tighter, so each operand is a full
// AND expression. Same-operator chains collapse into one N-ary node.
func (p *parser) parseOr() (*Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	var conds []*Condition
	for p.tok.kind == tokOperator && (p.tok.text == "|" || p.tok.text == "||") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if conds == nil {
			conds = flattenInto(nil, OpOr, left)
		}
		conds = flattenInto(conds, OpOr, right)
	}
	if conds == nil {
		return left, nil
	}
	return &Condition{Op: OpOr, Conditions: conds}, nil
}

func (p *parser) parseAnd() (*Condition, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	var conds []*Condition
	for p.tok.kind == tokOperator && (p.tok.text == "&" || p.tok.text == "&&") {
		p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		if conds == nil {
			conds = flattenInto(nil, OpAnd, left)
		}
		conds = flattenInto(conds, OpAnd, right)
	}
	if conds == nil {
		return left, nil
	}
	return &Condition{Op: OpAnd, Conditions: conds}, nil
}

// flattenInto appends cond to conds, splicing its children in when it is
// itself a composite of the same operator. This is what normalizes
// (a & b) & c and a & b & c to the same tree.
func flattenInto(conds []*Condition, op Op, cond *Condition) []*Condition {
	if cond.Op == op {
		return append(conds, cond.Conditions...)
	}
	return append(conds, cond)
}

func (p *parser) parsePrimary() (*Condition, error) {
	if p.err != nil {
		return nil, p.err
	}
	switch p.tok.kind {
	case tokLParen:
		p.advance()
		cond, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("expected ) at offset %d", p.tok.pos)
		}
		p.advance()
		return cond, nil
	case tokIdent:
		return p.parseComparison()
	case tokOperator:
		// A leading operator (!, not-spellings, stray =) has nothing to
		// negate or compare here.
		return nil, &UnsupportedOperatorError{Operator: p.tok.text}
	default:
		return nil, fmt.Errorf("expected a variable name at offset %d, got %q", p.tok.pos, p.tok.text)
	}
}

// parseComparison parses `var OP literal` or `var in [literal, ...]`.
func (p *parser) parseComparison() (*Condition, error) {
	name := p.tok.text
	p.advance()
	if p.err != nil {
		return nil, p.err
	}

	switch p.tok.kind {
	case tokIdent:
		if p.tok.text == "in" {
			p.advance()
			vals, err := p.parseList()
			if err != nil {
				return nil, err
			}
			return &Condition{Op: OpIn, Var: name, Val: vals}, nil
		}
		// Any other bare word in operator position (contains, matches,
		// like, ...) is an operator we do not support.
		return nil, &UnsupportedOperatorError{Operator: p.tok.text}
	case tokOperator:
		op, ok := comparisonOps[p.tok.text]
		if !ok {
			return nil, &UnsupportedOperatorError{Operator: p.tok.text}
		}
		p.advance()
		val, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return &Condition{Op: op, Var: name, Val: val}, nil
	default:
		return nil, fmt.Errorf("expected an operator after %q at offset %d", name, p.tok.pos)
	}
}

func (p *parser) parseList() ([]any, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.tok.kind != tokLBracket {
		return nil, fmt.Errorf("expected [ after \"in\" at offset %d", p.tok.pos)
	}
	p.advance()
	var vals []any
	for {
		if p.tok.kind == tokRBracket {
			p.advance()
			return vals, nil
		}
		if len(vals) > 0 {
			if p.tok.kind != tokComma {
				return nil, fmt.Errorf("expected , or ] at offset %d", p.tok.pos)
			}
			p.advance()
		}
		val, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		vals = append(vals, val)
	}
}

func (p *parser) parseLiteral() (any, error) {
	if p.err != nil {
		return nil, p.err
	}
	switch p.tok.kind {
	case tokString:
		s := p.tok.text
		p.advance()
		return s, nil
	case tokNumber:
		f, err := strconv.ParseFloat(p.tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at offset %d", p.tok.text, p.tok.pos)
		}
		p.advance()
		return f, nil
	case tokBool:
		b := p.tok.text == "true"
		p.advance()
		return b, nil
	case tokOperator:
		// Negative numbers arrive as an operator run "-" then a number.
		if p.tok.text == "-" {
			p.advance()
			if p.tok.kind != tokNumber {
				return nil, fmt.Errorf("expected a number after - at offset %d", p.tok.pos)
			}
			f, err := strconv.ParseFloat(p.tok.text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q at offset %d", p.tok.text, p.tok.pos)
			}
			p.advance()
			return -f, nil
		}
		return nil, &UnsupportedOperatorError{Operator: p.tok.text}
	default:
		return nil, fmt.Errorf("expected a literal value at offset %d, got %q", p.tok.pos, p.tok.text)
	}
}
