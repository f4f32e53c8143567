package selector

import (
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// pseudo-elements allowed with legacy single colon syntax
var legacyElements = map[string]bool{
	"before":       true,
	"after":        true,
	"first-line":   true,
	"first-letter": true,
}

type token struct {
	tt   css.TokenType
	data string
}

func tokenize(s string) ([]token, error) {
	l := css.NewLexer(parse.NewInput(strings.NewReader(s)))
	var tokens []token
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("unable to tokenize selector %q: %w", s, err)
			}
			return tokens, nil
		}
		if tt == css.CommentToken {
			continue
		}
		tokens = append(tokens, token{tt: tt, data: string(data)})
	}
}

type parser struct {
	src    string
	tokens []token
	pos    int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) skipSpace() {
	for t, ok := p.peek(); ok && t.tt == css.WhitespaceToken; t, ok = p.peek() {
		p.pos++
	}
}

func (p *parser) isDelim(d string) bool {
	t, ok := p.peek()
	return ok && t.tt == css.DelimToken && t.data == d
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("invalid selector %q: %s", p.src, fmt.Sprintf(format, args...))
}

// Parse parses selector list.
func Parse(s string) ([]*Complex, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	p := &parser{src: s, tokens: tokens}

	var (
		list []*Complex
		cx   = &Complex{}
		cur  *Compound
		comb = None
	)
	flush := func() {
		if cur != nil {
			cx.Compounds = append(cx.Compounds, cur)
			cur = nil
		}
	}
	add := func(n Node) {
		if cur == nil {
			cur = &Compound{Combinator: comb}
			comb = None
		}
		cur.Nodes = append(cur.Nodes, n)
	}
	finish := func() error {
		flush()
		if comb != None && comb != Descendant {
			return p.errorf("dangling combinator %q", string(comb))
		}
		if len(cx.Compounds) == 0 {
			return p.errorf("empty selector")
		}
		list = append(list, cx)
		cx, comb = &Complex{}, None
		return nil
	}

	for {
		t, ok := p.next()
		if !ok {
			break
		}
		switch t.tt {
		case css.WhitespaceToken:
			if cur != nil {
				flush()
				comb = Descendant
			}
		case css.CommaToken:
			if err := finish(); err != nil {
				return nil, err
			}
		case css.HashToken:
			add(ID{Name: strings.TrimPrefix(t.data, "#")})
		case css.IdentToken:
			if p.isDelim("|") {
				p.pos++
				name, ok := p.next()
				if !ok || (name.tt != css.IdentToken && !(name.tt == css.DelimToken && name.data == "*")) {
					return nil, p.errorf("bad namespaced type selector")
				}
				add(Tag{Namespace: t.data, Name: name.data})
				continue
			}
			add(Tag{Name: t.data})
		case css.ColonToken:
			n, err := p.pseudo()
			if err != nil {
				return nil, err
			}
			add(n)
		case css.LeftBracketToken:
			n, err := p.attribute()
			if err != nil {
				return nil, err
			}
			add(n)
		case css.DelimToken:
			switch t.data {
			case ".":
				name, ok := p.next()
				if !ok || name.tt != css.IdentToken {
					return nil, p.errorf("expected class name after '.'")
				}
				add(Class{Name: name.data})
			case "*":
				add(Universal{})
			case ">", "+", "~":
				flush()
				if len(cx.Compounds) == 0 {
					return nil, p.errorf("selector cannot start with combinator %q", t.data)
				}
				if comb != None && comb != Descendant {
					return nil, p.errorf("unexpected combinator %q", t.data)
				}
				comb = Combinator(t.data)
			default:
				return nil, p.errorf("unexpected %q", t.data)
			}
		default:
			return nil, p.errorf("unexpected %q", t.data)
		}
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return list, nil
}

// ParseComplex parses selector which must not be a list.
func ParseComplex(s string) (*Complex, error) {
	list, err := Parse(s)
	if err != nil {
		return nil, err
	}
	if len(list) != 1 {
		return nil, fmt.Errorf("expected single selector, got %d in %q", len(list), s)
	}
	return list[0], nil
}

func (p *parser) pseudo() (Node, error) {
	element := false
	if t, ok := p.peek(); ok && t.tt == css.ColonToken {
		element = true
		p.pos++
	}
	t, ok := p.next()
	if !ok {
		return nil, p.errorf("expected pseudo selector name")
	}
	switch t.tt {
	case css.IdentToken:
		name := strings.ToLower(t.data)
		return Pseudo{Name: name, IsElement: element || legacyElements[name]}, nil
	case css.FunctionToken:
		args, err := p.args()
		if err != nil {
			return nil, err
		}
		return Pseudo{Name: strings.ToLower(strings.TrimSuffix(t.data, "(")), IsElement: element, Func: true, Args: args}, nil
	}
	return nil, p.errorf("unexpected %q after ':'", t.data)
}

// args collects raw text up to the matching closing parenthesis.
func (p *parser) args() (string, error) {
	var sb strings.Builder
	depth := 0
	for {
		t, ok := p.next()
		if !ok {
			return "", p.errorf("unterminated argument list")
		}
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			if depth == 0 {
				return strings.TrimSpace(sb.String()), nil
			}
			depth--
		case css.WhitespaceToken:
			sb.WriteByte(' ')
			continue
		}
		sb.WriteString(t.data)
	}
}

func (p *parser) attribute() (Node, error) {
	var a Attribute

	p.skipSpace()
	t, ok := p.next()
	if !ok {
		return nil, p.errorf("unterminated attribute selector")
	}
	switch {
	case t.tt == css.IdentToken:
		a.Name = t.data
	case t.tt == css.DelimToken && (t.data == "*" || t.data == "|"):
		a.Name = t.data
	default:
		return nil, p.errorf("unexpected %q in attribute selector", t.data)
	}
	if a.Name == "|" {
		// "[|name]" means no namespace
		name, ok := p.next()
		if !ok || name.tt != css.IdentToken {
			return nil, p.errorf("expected attribute name")
		}
		a.Name = name.data
	} else if p.isDelim("|") {
		p.pos++
		name, ok := p.next()
		if !ok || name.tt != css.IdentToken {
			return nil, p.errorf("expected attribute name after namespace %q", a.Name)
		}
		a.Namespace, a.Name = a.Name, name.data
	}

	p.skipSpace()
	t, ok = p.next()
	if !ok {
		return nil, p.errorf("unterminated attribute selector")
	}
	switch t.tt {
	case css.RightBracketToken:
		return a, nil
	case css.IncludeMatchToken, css.DashMatchToken, css.PrefixMatchToken, css.SuffixMatchToken, css.SubstringMatchToken:
		a.Op = t.data
	case css.DelimToken:
		if t.data != "=" {
			return nil, p.errorf("unexpected %q in attribute selector", t.data)
		}
		a.Op = "="
	default:
		return nil, p.errorf("unexpected %q in attribute selector", t.data)
	}

	p.skipSpace()
	t, ok = p.next()
	if !ok {
		return nil, p.errorf("expected attribute value")
	}
	switch t.tt {
	case css.IdentToken, css.NumberToken, css.DimensionToken:
		a.Value = t.data
	case css.StringToken:
		a.Value, a.Quoted = unquote(t.data), true
	default:
		return nil, p.errorf("unexpected %q as attribute value", t.data)
	}

	p.skipSpace()
	t, ok = p.next()
	if ok && t.tt == css.IdentToken {
		a.Modifier = strings.ToLower(t.data)
		p.skipSpace()
		t, ok = p.next()
	}
	if !ok || t.tt != css.RightBracketToken {
		return nil, p.errorf("expected ']'")
	}
	return a, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		sb.WriteRune(r)
	}
	return sb.String()
}
