package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	"cssblocks/blockerr"
)

// Parser parses CSS stylesheets into mutable tree.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

var reImportant = regexp.MustCompile(`(?i)\s*!\s*important\s*$`)

// Parse parses CSS text into a Stylesheet. Source is the file path nodes
// locations refer to and it cannot be empty.
func (p *Parser) Parse(data []byte, source string) (*Stylesheet, error) {
	if source == "" {
		return nil, blockerr.MissingSourcePath()
	}
	p.log.Debug("Parsing CSS", zap.String("source", source), zap.Int("bytes", len(data)))

	sheet := NewStylesheet(source)
	lines := newLineIndex(data)

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	stack := []Container{sheet}
	top := func() Container { return stack[len(stack)-1] }

	// selectors of a list reported one by one before ruleset begins
	var pending []string

	for {
		start := input.Offset()
		gt, _, chunk := parser.Next()
		loc := lines.locate(source, data, start)

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, blockerr.Syntax(&loc, "unable to parse stylesheet: %v", err)
			}
			if len(stack) > 1 {
				p.log.Debug("Unterminated block at end of input", zap.String("source", source))
			}
			return sheet, nil

		case css.CommentGrammar:
			text := strings.TrimSuffix(strings.TrimPrefix(string(chunk), "/*"), "*/")
			c := NewComment(text)
			c.loc = loc
			top().Append(c)

		case css.AtRuleGrammar, css.BeginAtRuleGrammar:
			at := NewAtRule(strings.TrimPrefix(strings.ToLower(string(chunk)), "@"), tokensText(nil, parser.Values()), gt == css.BeginAtRuleGrammar)
			at.loc = loc
			top().Append(at)
			if at.HasBlock {
				stack = append(stack, at)
			}

		case css.QualifiedRuleGrammar:
			pending = append(pending, tokensText(chunk, parser.Values()))

		case css.BeginRulesetGrammar:
			sel := append(pending, tokensText(chunk, parser.Values()))
			pending = nil
			r := NewRule(strings.Join(sel, ", "))
			r.loc = loc
			top().Append(r)
			stack = append(stack, r)

		case css.EndRulesetGrammar, css.EndAtRuleGrammar:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}

		case css.DeclarationGrammar:
			d := NewDeclaration(strings.ToLower(string(chunk)), tokensText(nil, parser.Values()))
			if m := reImportant.FindStringIndex(d.Value); m != nil {
				d.Value, d.Important = strings.TrimSpace(d.Value[:m[0]]), true
			}
			d.loc = loc
			top().Append(d)

		case css.CustomPropertyGrammar:
			var sb strings.Builder
			for _, v := range parser.Values() {
				sb.Write(v.Data)
			}
			d := NewDeclaration(string(chunk), strings.TrimSpace(strings.TrimPrefix(sb.String(), ":")))
			d.loc = loc
			top().Append(d)

		default:
			p.log.Debug("Skipping CSS grammar", zap.Stringer("grammar", gt), zap.String("data", string(chunk)))
		}
	}
}

// tokensText joins grammar values back into text, collapsing whitespace runs
// into a single space.
func tokensText(data []byte, values []css.Token) string {
	var sb strings.Builder
	if len(data) > 0 && !bytes.Equal(data, []byte("{")) && !bytes.Equal(data, []byte(",")) {
		sb.Write(data)
	}
	space := false
	for _, t := range values {
		switch t.TokenType {
		case css.WhitespaceToken:
			space = true
		case css.CommentToken:
			// dropped
		default:
			if space && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			space = false
			sb.Write(t.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}

// lineIndex maps byte offsets to line and column.
type lineIndex []int

func newLineIndex(data []byte) lineIndex {
	idx := lineIndex{0}
	for i, b := range data {
		if b == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

// locate returns position of the first significant character at or after
// offset.
func (idx lineIndex) locate(source string, data []byte, offset int) blockerr.Location {
	for offset < len(data) && strings.IndexByte(" \t\r\n\f;}", data[offset]) >= 0 {
		offset++
	}
	line := sort.Search(len(idx), func(i int) bool { return idx[i] > offset })
	return blockerr.Location{Filename: source, Line: line, Column: offset - idx[line-1] + 1}
}

// ParseString parses CSS text wrapping any error with the source name.
func (p *Parser) ParseString(text, source string) (*Stylesheet, error) {
	sheet, err := p.Parse([]byte(text), source)
	if err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", source, err)
	}
	return sheet, nil
}
