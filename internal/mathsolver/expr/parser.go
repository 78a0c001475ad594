package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp  // + - * / ^
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case c >= '0' && c <= '9' || c == '.':
		for l.pos < len(l.input) && (l.input[l.pos] >= '0' && l.input[l.pos] <= '9' || l.input[l.pos] == '.') {
			l.pos++
		}
		text := l.input[start:l.pos]
		if strings.Count(text, ".") > 1 {
			return token{}, fmt.Errorf("malformed number %q at position %d", text, start)
		}
		return token{kind: tokNumber, text: text, pos: start}, nil

	case unicode.IsLetter(rune(c)):
		for l.pos < len(l.input) && unicode.IsLetter(rune(l.input[l.pos])) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.input[start:l.pos], pos: start}, nil

	case c == '+' || c == '-' || c == '*' || c == '/' || c == '^':
		l.pos++
		return token{kind: tokOp, text: string(c), pos: start}, nil

	case c == '(':
		l.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil

	case c == ')':
		l.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	}

	return token{}, fmt.Errorf("unexpected character %q at position %d", string(c), start)
}

var functions = map[string]bool{
	"sin":  true,
	"cos":  true,
	"tan":  true,
	"exp":  true,
	"log":  true,
	"sqrt": true,
}

type parser struct {
	lex  *lexer
	cur  token
	peek token
}

// Parse parses an expression. Multi-character identifiers must be one
// of the supported functions; any single letter is accepted as a
// variable (validation of allowed variable names is the caller's
// concern).
func Parse(input string) (Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("empty expression")
	}

	p := &parser{lex: &lexer{input: input}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, fmt.Errorf("unexpected token %q at position %d", p.cur.text, p.cur.pos)
	}
	return node, nil
}

func (p *parser) advance() error {
	p.cur = p.peek
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

func (p *parser) parseExpr() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokOp && (p.cur.text == "+" || p.cur.text == "-") {
		op := p.cur.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, L: left, R: right}
	}
	return left, nil
}

// parseTerm handles explicit * and / plus implicit multiplication
// (2x, 3sin(x), 2(x+1)).
func (p *parser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.cur.kind == tokOp && (p.cur.text == "*" || p.cur.text == "/"):
			op := p.cur.text[0]
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: op, L: left, R: right}

		case p.cur.kind == tokNumber || p.cur.kind == tokIdent || p.cur.kind == tokLParen:
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: '*', L: left, R: right}

		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (Node, error) {
	if p.cur.kind == tokOp && p.cur.text == "-" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: '-', X: x}, nil
	}
	if p.cur.kind == tokOp && p.cur.text == "+" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseUnary()
	}
	return p.parsePower()
}

// parsePower is right-associative: 2^3^2 is 2^(3^2).
func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.cur.kind == tokOp && p.cur.text == "^" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Binary{Op: '^', L: base, R: exp}, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.cur.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(p.cur.text, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed number %q at position %d", p.cur.text, p.cur.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Num{Value: v}, nil

	case tokIdent:
		name := p.cur.text
		pos := p.cur.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		if functions[name] {
			if p.cur.kind != tokLParen {
				return nil, fmt.Errorf("function %q requires parentheses at position %d", name, pos)
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.cur.kind != tokRParen {
				return nil, fmt.Errorf("missing closing parenthesis at position %d", p.cur.pos)
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			return Call{Fn: name, Arg: arg}, nil
		}
		if len(name) > 1 {
			return nil, fmt.Errorf("unknown identifier %q at position %d", name, pos)
		}
		return Var{Name: name}, nil

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis at position %d", p.cur.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil

	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	}

	return nil, fmt.Errorf("unexpected token %q at position %d", p.cur.text, p.cur.pos)
}
