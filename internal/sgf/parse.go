// Package sgf reads and writes SGF game records and replays them onto a board.
package sgf

import (
	"fmt"
	"strings"
	"unicode"

	"omega/internal/domain/sgf"
	errs "omega/internal/errors"
)

type parser struct {
	s   string
	pos int
}

// Parse reads the first game tree of text. Anything before "(;" is ignored.
func Parse(text string) (*sgf.SGF, error) {
	start := indexTreeStart(text)
	if start < 0 {
		return nil, fmt.Errorf("%w: no game tree", errs.ErrMalformedRecord)
	}
	p := &parser{s: text, pos: start}
	tree, err := p.tree()
	if err != nil {
		return nil, err
	}
	return &sgf.SGF{Root: tree}, nil
}

// indexTreeStart finds the first '(' followed, after optional space, by ';'.
func indexTreeStart(text string) int {
	for i := 0; i < len(text); i++ {
		if text[i] != '(' {
			continue
		}
		rest := strings.TrimLeftFunc(text[i+1:], unicode.IsSpace)
		if strings.HasPrefix(rest, ";") {
			return i
		}
	}
	return -1
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: offset %d: %s", errs.ErrMalformedRecord, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) && unicode.IsSpace(rune(p.s[p.pos])) {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) tree() (*sgf.GameTree, error) {
	p.skipSpace()
	if p.peek() != '(' {
		return nil, p.errorf("expected '('")
	}
	p.pos++

	t := &sgf.GameTree{}
	for {
		p.skipSpace()
		if p.peek() != ';' {
			break
		}
		p.pos++
		n, err := p.node()
		if err != nil {
			return nil, err
		}
		t.Nodes = append(t.Nodes, n)
	}
	if len(t.Nodes) == 0 {
		return nil, p.errorf("empty game tree")
	}

	for {
		p.skipSpace()
		switch p.peek() {
		case '(':
			child, err := p.tree()
			if err != nil {
				return nil, err
			}
			t.Children = append(t.Children, child)
		case ')':
			p.pos++
			return t, nil
		default:
			return nil, p.errorf("unterminated game tree")
		}
	}
}

func (p *parser) node() (sgf.Node, error) {
	n := sgf.Node{Properties: map[string][]string{}}
	for {
		p.skipSpace()
		start := p.pos
		for p.pos < len(p.s) && isIdentByte(p.s[p.pos]) {
			p.pos++
		}
		if start == p.pos {
			return n, nil
		}
		id := propertyID(p.s[start:p.pos])

		p.skipSpace()
		if p.peek() != '[' {
			return n, p.errorf("property %s has no value", id)
		}
		for p.peek() == '[' {
			v, err := p.value()
			if err != nil {
				return n, err
			}
			if id != "" {
				n.Properties[id] = append(n.Properties[id], v)
			}
			p.skipSpace()
		}
	}
}

func isIdentByte(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}

// propertyID drops lower-case letters of the long FF[1] names,
// so "PlayerBlack" reads as "PB".
func propertyID(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLower(r) {
			return -1
		}
		return r
	}, raw)
}

// value reads one bracketed value. A backslash escapes the next byte and an
// escaped newline is dropped.
func (p *parser) value() (string, error) {
	p.pos++ // [
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		switch c {
		case '\\':
			p.pos++
			if p.pos >= len(p.s) {
				return "", p.errorf("dangling escape")
			}
			if p.s[p.pos] != '\n' {
				b.WriteByte(p.s[p.pos])
			}
		case ']':
			p.pos++
			return b.String(), nil
		default:
			b.WriteByte(c)
		}
		p.pos++
	}
	return "", p.errorf("unterminated value")
}
