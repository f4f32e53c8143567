package block

import (
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"cssblocks/blockerr"
)

// Path is a parsed block path: "alias.class[ns|name=value]". Every part is
// optional, empty path addresses the root of the current block.
type Path struct {
	Block     string // referenced block alias, empty for the current block
	Class     string // RootClass when not specified
	Namespace string
	Attribute string // empty when path does not address an attribute
	Value     string
}

func (p Path) String() string {
	var sb strings.Builder
	sb.WriteString(p.Block)
	if p.Class == RootClass {
		if p.Block == "" || p.Attribute == "" {
			sb.WriteString(RootClass)
		}
	} else {
		sb.WriteString("." + p.Class)
	}
	if p.Attribute != "" {
		sb.WriteString("[" + attributeKey(p.Namespace, p.Attribute))
		if p.Value != "" {
			sb.WriteString("=" + p.Value)
		}
		sb.WriteString("]")
	}
	return sb.String()
}

type pathToken struct {
	tt   css.TokenType
	data string
}

// ParsePath parses block path expression.
func ParsePath(s string) (Path, error) {
	p := Path{Class: RootClass}
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return p, nil
	}

	var tokens []pathToken
	l := css.NewLexer(parse.NewInput(strings.NewReader(s)))
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return p, fmt.Errorf("unable to read block path %q: %w", s, err)
			}
			break
		}
		if tt == css.WhitespaceToken {
			return p, fmt.Errorf("whitespace is not allowed in block path %q", s)
		}
		tokens = append(tokens, pathToken{tt, string(data)})
	}

	i := 0
	at := func(tt css.TokenType, data string) bool {
		return i < len(tokens) && tokens[i].tt == tt && (data == "" || tokens[i].data == data)
	}
	fail := func(what string) (Path, error) {
		if i < len(tokens) {
			return p, fmt.Errorf("%s in block path %q, found %q", what, s, tokens[i].data)
		}
		return p, fmt.Errorf("%s in block path %q, found end of path", what, s)
	}

	if at(css.IdentToken, "") {
		p.Block = tokens[i].data
		i++
	}

	switch {
	case at(css.DelimToken, "."):
		i++
		if !at(css.IdentToken, "") {
			return fail("expected class name")
		}
		p.Class = tokens[i].data
		i++
	case at(css.ColonToken, ""):
		i++
		if !at(css.IdentToken, "scope") {
			return fail("expected :scope")
		}
		i++
	}

	if at(css.LeftBracketToken, "") {
		i++
		if !at(css.IdentToken, "") {
			return fail("expected attribute name")
		}
		p.Namespace, p.Attribute = DefaultNamespace, tokens[i].data
		i++
		if at(css.DelimToken, "|") {
			i++
			if !at(css.IdentToken, "") {
				return fail("expected attribute name after namespace")
			}
			p.Namespace, p.Attribute = p.Attribute, tokens[i].data
			i++
		}
		if at(css.DelimToken, "=") {
			i++
			switch {
			case at(css.IdentToken, ""), at(css.NumberToken, ""), at(css.DimensionToken, ""):
				p.Value = tokens[i].data
			case at(css.StringToken, ""):
				p.Value = strings.Trim(tokens[i].data, `"'`)
			default:
				return fail("expected attribute value")
			}
			if p.Value == "" {
				return fail("attribute value cannot be empty")
			}
			i++
		}
		if !at(css.RightBracketToken, "") {
			return fail("expected ']'")
		}
		i++
	}

	if i != len(tokens) {
		return fail("unexpected token")
	}
	return p, nil
}

// Lookup resolves path against this block and its references. Malformed paths
// are always errors, styles which cannot be found are errors only when loc is
// given and nil otherwise.
func (b *Block) Lookup(path string, loc *blockerr.Location) (Style, error) {
	return b.lookup(path, loc, b.GetReferencedBlock)
}

// ExternalLookup resolves path the way importing blocks see this block: the
// leading name is resolved against exported blocks.
func (b *Block) ExternalLookup(path string, loc *blockerr.Location) (Style, error) {
	return b.lookup(path, loc, b.GetExportedBlock)
}

func (b *Block) lookup(path string, loc *blockerr.Location, named func(string) *Block) (Style, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, blockerr.Path(loc, "%v", err)
	}

	target := b
	if p.Block != "" {
		if target = named(p.Block); target == nil {
			if loc == nil {
				return nil, nil
			}
			return nil, blockerr.Syntax(loc, "No Block named %q found in scope: %s", p.Block, path)
		}
	}

	class := target.ResolveClass(p.Class)
	if class == nil {
		if loc == nil {
			return nil, nil
		}
		return nil, blockerr.Syntax(loc, "No style %q found on block %q: %s", "."+p.Class, target.Name(), path)
	}
	if p.Attribute == "" {
		return class, nil
	}

	value := class.ResolveAttributeValue(p.Namespace, p.Attribute, p.Value)
	if value == nil {
		if loc == nil {
			return nil, nil
		}
		return nil, blockerr.Syntax(loc, "No attribute %q found on %q of block %q: %s",
			"["+attributeKey(p.Namespace, p.Attribute)+"]", class.AsSource(), target.Name(), path)
	}
	return value, nil
}
