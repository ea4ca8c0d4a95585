package condition

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokBool
	tokOperator // any run of symbol characters; validated by the parser
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// operator characters that may form comparison or logical operators.
const opChars = "=!<>&|~^%+-*/?"

type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

// next returns the next token, or an error for characters that cannot
// start any token.
func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	switch {
	case ch == '(':
		l.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case ch == ')':
		l.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case ch == '[':
		l.pos++
		return token{kind: tokLBracket, text: "[", pos: start}, nil
	case ch == ']':
		l.pos++
		return token{kind: tokRBracket, text: "]", pos: start}, nil
	case ch == ',':
		l.pos++
		return token{kind: tokComma, text: ",", pos: start}, nil
	case ch == '"' || ch == '\'':
		return l.scanString(ch)
	case ch >= '0' && ch <= '9':
		return l.scanNumber()
	case isIdentStart(ch):
		return l.scanIdent()
	case strings.IndexByte(opChars, ch) >= 0:
		for l.pos < len(l.input) && strings.IndexByte(opChars, l.input[l.pos]) >= 0 {
			l.pos++
		}
		return token{kind: tokOperator, text: l.input[start:l.pos], pos: start}, nil
	default:
		return token{}, fmt.Errorf("unexpected character %q at offset %d", ch, start)
	}
}

func (l *lexer) scanString(quote byte) (token, error) {
	start := l.pos
	l.pos++ // consume the opening quote
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\\' && l.pos+1 < len(l.input) {
			sb.WriteByte(l.input[l.pos+1])
			l.pos += 2
			continue
		}
		if ch == quote {
			l.pos++
			return token{kind: tokString, text: sb.String(), pos: start}, nil
		}
		sb.WriteByte(ch)
		l.pos++
	}
	return token{}, fmt.Errorf("unterminated string starting at offset %d", start)
}

func (l *lexer) scanNumber() (token, error) {
	start := l.pos
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.pos++
	}
	return token{kind: tokNumber, text: l.input[start:l.pos], pos: start}, nil
}

func (l *lexer) scanIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	text := l.input[start:l.pos]
	if text == "true" || text == "false" {
		return token{kind: tokBool, text: text, pos: start}, nil
	}
	return token{kind: tokIdent, text: text, pos: start}, nil
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '.'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
