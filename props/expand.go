// Package props knows which physical CSS properties a declaration touches.
//
// ExpandProp maps a shorthand to every longhand it sets (and a longhand to
// itself) so two declarations can be checked for overlap without comparing
// property names literally. Values are synthesized only as far as they help
// readers of debug output, conflict detection uses the keys.
package props

import (
	"errors"
	"io"
	"regexp"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

var (
	reResolve = regexp.MustCompile(`^\s*resolve(-inherited)?\(\s*("[^"]*"|'[^']*')\s*\)\s*$`)
	reVar     = regexp.MustCompile(`(?i)\bvar\(`)
)

// Resolution is a parsed "resolve(...)" or "resolve-inherited(...)" value.
type Resolution struct {
	Path      string
	Inherited bool
}

// ParseResolution recognizes conflict resolution values.
func ParseResolution(value string) (Resolution, bool) {
	m := reResolve.FindStringSubmatch(value)
	if m == nil {
		return Resolution{}, false
	}
	return Resolution{Path: m[2][1 : len(m[2])-1], Inherited: m[1] != ""}, true
}

// IsResolution reports whether value is a resolution call.
func IsResolution(value string) bool {
	return reResolve.MatchString(value)
}

var globalKeywords = map[string]bool{
	"inherit":      true,
	"initial":      true,
	"unset":        true,
	"revert":       true,
	"revert-layer": true,
}

var sides = []string{"top", "right", "bottom", "left"}

type expander func(prop string, parts []string) map[string]string

var shorthands = map[string]expander{
	"margin":        box("margin-%s"),
	"padding":       box("padding-%s"),
	"inset":         box("%s"),
	"border-width":  box("border-%s-width"),
	"border-style":  box("border-%s-style"),
	"border-color":  box("border-%s-color"),
	"border-radius": corners,
	"border":        lineParts("border-width", "border-style", "border-color"),
	"outline":       lineParts("outline-width", "outline-style", "outline-color"),
	"column-rule":   lineParts("column-rule-width", "column-rule-style", "column-rule-color"),
	"font":          font,
	"background": whole("background-color", "background-image", "background-repeat", "background-attachment",
		"background-position", "background-size", "background-origin", "background-clip"),
	"list-style":      whole("list-style-type", "list-style-position", "list-style-image"),
	"transition":      whole("transition-property", "transition-duration", "transition-timing-function", "transition-delay"),
	"text-decoration": whole("text-decoration-line", "text-decoration-style", "text-decoration-color"),
	"animation": whole("animation-name", "animation-duration", "animation-timing-function", "animation-delay",
		"animation-iteration-count", "animation-direction", "animation-fill-mode", "animation-play-state"),
	"flex":          flex,
	"flex-flow":     whole("flex-direction", "flex-wrap"),
	"columns":       whole("column-width", "column-count"),
	"overflow":      pair("overflow-x", "overflow-y"),
	"gap":           pair("row-gap", "column-gap"),
	"place-items":   pair("align-items", "justify-items"),
	"place-content": pair("align-content", "justify-content"),
	"place-self":    pair("align-self", "justify-self"),
}

// IsShorthand reports whether prop expands into other properties.
func IsShorthand(prop string) bool {
	_, ok := shorthands[strings.ToLower(prop)]
	return ok
}

func borderSide(prop string) (string, bool) {
	for _, s := range sides {
		if prop == "border-"+s {
			return s, true
		}
	}
	return "", false
}

// ExpandProp returns every property implicated by setting prop to value,
// prop itself included, mapped to its synthesized value.
//
// font-family is kept atomic. Values with var() or a resolution call expand as
// "inherit" since their parts are unknown. Border side shorthands only report
// their own side.
func ExpandProp(prop, value string) map[string]string {
	prop = strings.ToLower(strings.TrimSpace(prop))
	out := map[string]string{prop: value}
	if prop == "font-family" || strings.HasPrefix(prop, "--") {
		return out
	}

	expanded := value
	if reVar.MatchString(value) || IsResolution(value) {
		expanded = "inherit"
	}

	side, isSide := borderSide(prop)
	name := prop
	if isSide {
		name = "border"
	}
	expandInto(out, name, expanded)

	if isSide {
		delete(out, "border")
		for _, k := range []string{"width", "style", "color"} {
			delete(out, "border-"+k)
			for _, s := range sides {
				if s != side {
					delete(out, "border-"+s+"-"+k)
				}
			}
		}
	}
	out[prop] = value
	return out
}

func expandInto(out map[string]string, prop, value string) {
	out[prop] = value
	fn, ok := shorthands[prop]
	if !ok {
		return
	}
	parts := SplitValue(value)
	if len(parts) == 1 && globalKeywords[strings.ToLower(parts[0])] {
		for sub := range fn(prop, nil) {
			expandInto(out, sub, parts[0])
		}
		return
	}
	for sub, v := range fn(prop, parts) {
		expandInto(out, sub, v)
	}
}

// Overlap returns properties set by both declarations.
func Overlap(propA, valueA, propB, valueB string) []string {
	a := ExpandProp(propA, valueA)
	b := ExpandProp(propB, valueB)
	var common []string
	for k := range a {
		if _, ok := b[k]; ok {
			common = append(common, k)
		}
	}
	return common
}

// SplitValue splits value into top level space separated components keeping
// function arguments together.
func SplitValue(value string) []string {
	l := css.NewLexer(parse.NewInput(strings.NewReader(value)))
	var (
		parts []string
		cur   strings.Builder
		depth int
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
	}
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				// unparsable value is treated as a single opaque part
				return []string{strings.TrimSpace(value)}
			}
			break
		}
		switch tt {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
		case css.WhitespaceToken:
			if depth == 0 {
				flush()
				continue
			}
		}
		cur.Write(data)
	}
	flush()
	return parts
}
