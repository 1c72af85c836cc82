package sgf

import (
	"fmt"
	"regexp"
	"strings"

	sgfDomain "lizboard/internal/domain/sgf"
	"lizboard/internal/errors"
)

// clipPattern picks "(; ... ])...)" out of surrounding text such as a
// clipboard dump or a mail body.
var clipPattern = regexp.MustCompile(`\(\s*;[\s\S]*\][\s)]*\)`)

func Clip(text string) (string, error) {
	clipped := clipPattern.FindString(text)
	if clipped == "" {
		return "", fmt.Errorf("no game tree found: %w", errors.ErrMalformedRecord)
	}
	return clipped, nil
}

// Parse reads an SGF collection. Only the first game is kept.
func Parse(text string) (*sgfDomain.SGF, error) {
	p := &parser{src: text}
	p.skipSpace()
	if !p.peek('(') {
		return nil, p.fail("expected '('")
	}
	root, err := p.gameTree(nil)
	if err != nil {
		return nil, err
	}
	return &sgfDomain.SGF{Root: root}, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) fail(msg string) error {
	return fmt.Errorf("sgf offset %d: %s: %w", p.pos, msg, errors.ErrMalformedRecord)
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek(c byte) bool {
	return !p.eof() && p.src[p.pos] == c
}

func (p *parser) skipSpace() {
	for !p.eof() && strings.IndexByte(" \t\r\n", p.src[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *parser) gameTree(parent *sgfDomain.GameTree) (*sgfDomain.GameTree, error) {
	p.pos++ // '('
	tree := &sgfDomain.GameTree{Parent: parent}
	p.skipSpace()
	for p.peek(';') {
		node, err := p.node()
		if err != nil {
			return nil, err
		}
		tree.Nodes = append(tree.Nodes, node)
		p.skipSpace()
	}
	if len(tree.Nodes) == 0 {
		return nil, p.fail("game tree without nodes")
	}
	for p.peek('(') {
		child, err := p.gameTree(tree)
		if err != nil {
			return nil, err
		}
		tree.Children = append(tree.Children, child)
		p.skipSpace()
	}
	if !p.peek(')') {
		return nil, p.fail("expected ')'")
	}
	p.pos++
	return tree, nil
}

func (p *parser) node() (sgfDomain.Node, error) {
	p.pos++ // ';'
	node := sgfDomain.Node{Properties: map[string][]string{}}
	for {
		p.skipSpace()
		if p.eof() || p.src[p.pos] == ';' || p.src[p.pos] == '(' || p.src[p.pos] == ')' {
			return node, nil
		}
		ident := p.ident()
		if ident == "" {
			return node, p.fail("expected property identifier")
		}
		p.skipSpace()
		if !p.peek('[') {
			return node, p.fail("property " + ident + " without value")
		}
		for p.peek('[') {
			v, err := p.value()
			if err != nil {
				return node, err
			}
			node.Properties[ident] = append(node.Properties[ident], v)
			p.skipSpace()
		}
	}
}

// ident keeps upper-case letters only; FF[3] files may carry lower-case
// letters inside identifiers (e.g. "AddBlack").
func (p *parser) ident() string {
	var sb strings.Builder
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if c >= 'A' && c <= 'Z' {
			sb.WriteByte(c)
		} else if c < 'a' || c > 'z' {
			break
		}
		p.pos++
	}
	if sb.Len() == 0 {
		p.pos = start
	}
	return sb.String()
}

func (p *parser) value() (string, error) {
	p.pos++ // '['
	var sb strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch c {
		case '\\':
			p.pos++
			if p.eof() {
				return "", p.fail("dangling escape")
			}
			if p.src[p.pos] != '\n' && p.src[p.pos] != '\r' {
				sb.WriteByte(p.src[p.pos])
			}
		case ']':
			p.pos++
			return sb.String(), nil
		default:
			sb.WriteByte(c)
		}
		p.pos++
	}
	return "", p.fail("unterminated property value")
}
