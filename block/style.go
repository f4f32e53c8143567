package block

import (
	"cssblocks/common"
)

// Style is a block object that can be targeted by a selector key: either a
// *BlockClass or an *AttrValue.
type Style interface {
	// Name returns the local name of the style.
	Name() string
	// Block returns the owning block.
	Block() *Block
	// AsSource returns the block source text addressing this style.
	AsSource() string
	// CSSClass returns output class name. This is the only place output mode
	// makes a difference.
	CSSClass(mode common.OutputMode, reserved map[string]bool) string
	// CSSClasses returns output class plus its aliases.
	CSSClasses(mode common.OutputMode, reserved map[string]bool) []string
	// Rulesets returns declarations targeting the style.
	Rulesets() *RulesetContainer
	// BaseStyle returns inherited style or nil.
	BaseStyle() Style
	// ResolveStyles returns every style applied when this one is applied.
	ResolveStyles() []Style
	// Class returns the block class: itself or the owner of attribute value.
	Class() *BlockClass

	AddAlias(alias string)
	Aliases() []string

	isStyle()
}

// styleCommon holds state shared by both style kinds.
type styleCommon struct {
	rulesets *RulesetContainer
	aliases  []string
	styles   []Style
}

func (s *styleCommon) Rulesets() *RulesetContainer {
	return s.rulesets
}

func (s *styleCommon) AddAlias(alias string) {
	for _, a := range s.aliases {
		if a == alias {
			return
		}
	}
	s.aliases = append(s.aliases, alias)
}

func (s *styleCommon) Aliases() []string {
	return s.aliases
}

// resolveStyles computes transitive closure of s over inheritance and implied
// styles. Result is memoized on the style and starts with s itself.
func resolveStyles(s Style, memo *[]Style) []Style {
	if *memo != nil {
		return *memo
	}
	var (
		out  []Style
		seen = map[Style]bool{}
	)
	var visit func(st Style)
	visit = func(st Style) {
		if st == nil || seen[st] {
			return
		}
		seen[st] = true
		out = append(out, st)
		for _, b := range styleInheritance(st) {
			visit(b)
		}
		for _, implied := range impliedStyles(st) {
			visit(implied)
		}
	}
	visit(s)
	*memo = out
	return out
}

func styleInheritance(s Style) []Style {
	var out []Style
	switch v := s.(type) {
	case *BlockClass:
		for _, b := range v.ResolveInheritance() {
			out = append(out, b)
		}
	case *AttrValue:
		for _, b := range v.ResolveInheritance() {
			out = append(out, b)
		}
	}
	return out
}

// impliedStyles: attribute value implies its class, class implies its
// unconditional compositions.
func impliedStyles(s Style) []Style {
	switch v := s.(type) {
	case *AttrValue:
		return []Style{v.Class()}
	case *BlockClass:
		var out []Style
		for _, c := range v.ResolveCompositions() {
			if len(c.Conditions) == 0 {
				out = append(out, c.Style)
			}
		}
		return out
	}
	return nil
}

func withAliases(class string, aliases []string) []string {
	out := make([]string, 0, len(aliases)+1)
	out = append(out, class)
	return append(out, aliases...)
}
