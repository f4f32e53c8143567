package props

import (
	"fmt"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// box handles 1 to 4 value top/right/bottom/left shorthands.
func box(pattern string) expander {
	return func(_ string, parts []string) map[string]string {
		out := make(map[string]string, 4)
		vals := positional(parts, 4)
		for i, s := range sides {
			out[fmt.Sprintf(pattern, s)] = vals[i]
		}
		return out
	}
}

var cornerNames = []string{
	"border-top-left-radius",
	"border-top-right-radius",
	"border-bottom-right-radius",
	"border-bottom-left-radius",
}

func corners(_ string, parts []string) map[string]string {
	// only horizontal radii before "/" participate in positional expansion
	var horizontal []string
	for _, p := range parts {
		if p == "/" {
			break
		}
		horizontal = append(horizontal, p)
	}
	vals := positional(horizontal, 4)
	out := make(map[string]string, 4)
	for i, n := range cornerNames {
		out[n] = vals[i]
	}
	return out
}

// positional spreads CSS box values: a -> a a a a, a b -> a b a b,
// a b c -> a b c b.
func positional(parts []string, n int) []string {
	out := make([]string, n)
	switch len(parts) {
	case 0:
		return out
	case 1:
		for i := range out {
			out[i] = parts[0]
		}
	case 2:
		out[0], out[1] = parts[0], parts[1]
		if n == 4 {
			out[2], out[3] = parts[0], parts[1]
		}
	case 3:
		out[0], out[1] = parts[0], parts[1]
		if n == 4 {
			out[2], out[3] = parts[2], parts[1]
		}
	default:
		copy(out, parts)
	}
	return out
}

func pair(first, second string) expander {
	return func(_ string, parts []string) map[string]string {
		vals := positional(parts, 2)
		return map[string]string{first: vals[0], second: vals[1]}
	}
}

// whole assigns entire value to each longhand.
func whole(longhands ...string) expander {
	return func(_ string, parts []string) map[string]string {
		v := strings.Join(parts, " ")
		out := make(map[string]string, len(longhands))
		for _, l := range longhands {
			out[l] = v
		}
		return out
	}
}

var lineStyles = map[string]bool{
	"none": true, "hidden": true, "dotted": true, "dashed": true, "solid": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true, "auto": true,
}

var lineWidths = map[string]bool{"thin": true, "medium": true, "thick": true}

// lineParts classifies "<width> || <style> || <color>" components.
func lineParts(width, style, color string) expander {
	return func(_ string, parts []string) map[string]string {
		out := map[string]string{width: "medium", style: "none", color: "currentcolor"}
		if parts == nil {
			return out
		}
		for _, p := range parts {
			lp := strings.ToLower(p)
			switch {
			case lineStyles[lp]:
				out[style] = p
			case lineWidths[lp] || isLength(p):
				out[width] = p
			default:
				out[color] = p
			}
		}
		return out
	}
}

func isLength(p string) bool {
	l := css.NewLexer(parse.NewInput(strings.NewReader(p)))
	tt, _ := l.Next()
	switch tt {
	case css.DimensionToken, css.NumberToken, css.PercentageToken:
		return true
	case css.FunctionToken:
		return strings.HasPrefix(strings.ToLower(p), "calc(")
	}
	return false
}

var fontSizes = map[string]bool{
	"xx-small": true, "x-small": true, "small": true, "medium": true, "large": true,
	"x-large": true, "xx-large": true, "xxx-large": true, "larger": true, "smaller": true,
}

var fontWeights = map[string]bool{"bold": true, "bolder": true, "lighter": true}

var fontStretches = map[string]bool{
	"ultra-condensed": true, "extra-condensed": true, "condensed": true, "semi-condensed": true,
	"semi-expanded": true, "expanded": true, "extra-expanded": true, "ultra-expanded": true,
}

// font handles "[style || variant || weight || stretch]? size[/line-height]? family".
func font(_ string, parts []string) map[string]string {
	out := map[string]string{
		"font-style":   "normal",
		"font-variant": "normal",
		"font-weight":  "normal",
		"font-stretch": "normal",
		"font-size":    "medium",
		"line-height":  "normal",
		"font-family":  "initial",
	}
	if parts == nil {
		return out
	}
	for i, p := range parts {
		lp := strings.ToLower(p)
		size, lh, hasLH := strings.Cut(p, "/")
		switch {
		case fontSizes[strings.ToLower(size)] || (isLength(size) && !isUnitless(size)):
			out["font-size"] = size
			rest := parts[i+1:]
			if hasLH && lh != "" {
				out["line-height"] = lh
			} else if len(rest) > 1 && rest[0] == "/" {
				out["line-height"], rest = rest[1], rest[2:]
			} else if len(rest) > 0 && strings.HasPrefix(rest[0], "/") {
				out["line-height"], rest = strings.TrimPrefix(rest[0], "/"), rest[1:]
			}
			if len(rest) > 0 {
				out["font-family"] = strings.Join(rest, " ")
			}
			return out
		case lp == "italic" || lp == "oblique":
			out["font-style"] = p
		case lp == "small-caps":
			out["font-variant"] = p
		case fontWeights[lp] || isLength(p):
			out["font-weight"] = p
		case fontStretches[lp]:
			out["font-stretch"] = p
		case lp == "normal":
		default:
			// system font keyword (caption, menu, ...) sets everything
			for k := range out {
				out[k] = p
			}
			return out
		}
	}
	return out
}

func flex(_ string, parts []string) map[string]string {
	out := map[string]string{"flex-grow": "0", "flex-shrink": "1", "flex-basis": "auto"}
	if parts == nil {
		return out
	}
	switch {
	case len(parts) == 1 && strings.EqualFold(parts[0], "none"):
		out["flex-shrink"] = "0"
	case len(parts) == 1 && strings.EqualFold(parts[0], "auto"):
		out["flex-grow"] = "1"
	case len(parts) == 1 && isUnitless(parts[0]):
		out["flex-grow"], out["flex-basis"] = parts[0], "0%"
	case len(parts) == 1:
		out["flex-grow"], out["flex-basis"] = "1", parts[0]
	case len(parts) == 2 && isUnitless(parts[1]):
		out["flex-grow"], out["flex-shrink"], out["flex-basis"] = parts[0], parts[1], "0%"
	case len(parts) == 2:
		out["flex-grow"], out["flex-basis"] = parts[0], parts[1]
	default:
		out["flex-grow"], out["flex-shrink"], out["flex-basis"] = parts[0], parts[1], strings.Join(parts[2:], " ")
	}
	return out
}

func isUnitless(p string) bool {
	l := css.NewLexer(parse.NewInput(strings.NewReader(p)))
	tt, _ := l.Next()
	return tt == css.NumberToken
}
