package effect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadStatement is returned for a function id that does not parse.
var ErrBadStatement = errors.New("malformed effect statement")

// Statement is a parsed function id such as hit(10) or roll_hit("2d6+1").
// Args hold float64, string or bool values.
type Statement struct {
	Name string
	Args []any
}

// String renders s back into statement form.
func (s Statement) String() string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		switch v := a.(type) {
		case string:
			parts[i] = strconv.Quote(v)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return s.Name + "(" + strings.Join(parts, ", ") + ")"
}

// ParseStatement parses name or name(arg, ...). Arguments may be numbers,
// quoted strings, true/false, or bare words, which are taken as strings.
func ParseStatement(src string) (Statement, error) {
	p := &parser{src: strings.TrimSpace(src)}
	st, err := p.statement()
	if err != nil {
		return Statement{}, fmt.Errorf("%w: %q: %v", ErrBadStatement, src, err)
	}
	return st, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) statement() (Statement, error) {
	name := p.ident()
	if name == "" {
		return Statement{}, errors.New("expected function name")
	}
	st := Statement{Name: name}
	p.skipSpace()
	if p.eof() {
		return st, nil
	}
	if p.peek() != '(' {
		return Statement{}, fmt.Errorf("unexpected %q at %d", p.peek(), p.pos)
	}
	p.pos++
	p.skipSpace()
	if p.consume(')') {
		return st, p.end()
	}
	for {
		p.skipSpace()
		arg, err := p.arg()
		if err != nil {
			return Statement{}, err
		}
		st.Args = append(st.Args, arg)
		p.skipSpace()
		if p.consume(')') {
			return st, p.end()
		}
		if !p.consume(',') {
			return Statement{}, fmt.Errorf("expected ',' or ')' at %d", p.pos)
		}
	}
}

func (p *parser) end() error {
	p.skipSpace()
	if !p.eof() {
		return fmt.Errorf("trailing input at %d", p.pos)
	}
	return nil
}

func (p *parser) arg() (any, error) {
	if p.eof() {
		return nil, errors.New("unexpected end of input")
	}
	switch c := p.peek(); {
	case c == '"' || c == '\'':
		return p.quoted(c)
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		start := p.pos
		p.pos++
		for !p.eof() && (isDigit(p.peek()) || p.peek() == '.' || p.peek() == 'e' || p.peek() == 'E') {
			p.pos++
		}
		f, err := strconv.ParseFloat(p.src[start:p.pos], 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", p.src[start:p.pos])
		}
		return f, nil
	default:
		word := p.ident()
		if word == "" {
			return nil, fmt.Errorf("unexpected %q at %d", c, p.pos)
		}
		switch word {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return word, nil
	}
}

func (p *parser) quoted(q byte) (string, error) {
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.peek()
		p.pos++
		switch {
		case c == q:
			return b.String(), nil
		case c == '\\' && !p.eof():
			b.WriteByte(p.peek())
			p.pos++
		default:
			b.WriteByte(c)
		}
	}
	return "", errors.New("unterminated string")
}

func (p *parser) ident() string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if c == '_' || isLetter(c) || (p.pos > start && isDigit(c)) {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t') {
		p.pos++
	}
}

func (p *parser) consume(c byte) bool {
	if !p.eof() && p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) eof() bool  { return p.pos >= len(p.src) }
func (p *parser) peek() byte { return p.src[p.pos] }

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
