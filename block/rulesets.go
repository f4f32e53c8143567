package block

import (
	"slices"

	"cssblocks/css"
	"cssblocks/props"
	"cssblocks/selector"
)

// SelfPseudo is the pseudo-element key for rules without pseudo-element.
const SelfPseudo = "::self"

// Block declarations, never emitted and never part of rulesets.
const (
	PropBlockName  = "block-name"
	PropExtends    = "extends"
	PropImplements = "implements"
	PropComposes   = "composes"
	PropBlockAlias = "block-alias"
)

// IsBlockProp reports whether prop is a block declaration.
func IsBlockProp(prop string) bool {
	switch prop {
	case PropBlockName, PropExtends, PropImplements, PropComposes, PropBlockAlias:
		return true
	}
	return false
}

// PseudoOf returns pseudo-element key of the compound.
func PseudoOf(c *selector.Compound) string {
	if pe, ok := c.PseudoElement(); ok {
		return pe.String()
	}
	return SelfPseudo
}

// Ruleset is a rule of a block stylesheet seen from the style its selector
// key targets.
type Ruleset struct {
	File   string
	Rule   *css.Rule
	Style  Style
	Pseudo string
	// Selectors of the rule whose key targets Style.
	Selectors []*selector.Complex
	// Declarations by every property they set, after expansion.
	Properties map[string][]*css.Declaration
	// Explicit resolutions by property.
	Resolutions map[string]Style
}

// DeclarationsFor returns non resolution declarations of the rule overlapping
// prop, in source order.
func (r *Ruleset) DeclarationsFor(prop string) []*css.Declaration {
	var out []*css.Declaration
	for k := range props.ExpandProp(prop, "inherit") {
		for _, d := range r.Properties[k] {
			if !slices.Contains(out, d) {
				out = append(out, d)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b *css.Declaration) int {
		return declIndex(r.Rule, a) - declIndex(r.Rule, b)
	})
	return out
}

func declIndex(rule *css.Rule, d *css.Declaration) int {
	return slices.Index(rule.Nodes(), css.Node(d))
}

// AddResolution records explicit resolution request.
func (r *Ruleset) AddResolution(prop string, target Style) {
	if r.Resolutions == nil {
		r.Resolutions = make(map[string]Style)
	}
	r.Resolutions[prop] = target
}

// RulesetContainer keeps every ruleset of a style indexed by pseudo-element
// and expanded property.
type RulesetContainer struct {
	style    Style
	rulesets []*Ruleset
	index    map[string]map[string][]*Ruleset // pseudo -> prop -> rulesets
}

func newRulesetContainer(s Style) *RulesetContainer {
	return &RulesetContainer{style: s, index: make(map[string]map[string][]*Ruleset)}
}

// AddRuleset records rule whose selector key targets the style. Selectors of
// a list sharing rule and pseudo-element end up in the same ruleset.
func (c *RulesetContainer) AddRuleset(file string, rule *css.Rule, sel *selector.Complex) *Ruleset {
	pseudo := PseudoOf(sel.Key())
	for _, rs := range c.rulesets {
		if rs.Rule == rule && rs.Pseudo == pseudo {
			rs.Selectors = append(rs.Selectors, sel)
			return rs
		}
	}

	rs := &Ruleset{
		File:       file,
		Rule:       rule,
		Style:      c.style,
		Pseudo:     pseudo,
		Selectors:  []*selector.Complex{sel},
		Properties: make(map[string][]*css.Declaration),
	}
	c.rulesets = append(c.rulesets, rs)

	byProp := c.index[pseudo]
	if byProp == nil {
		byProp = make(map[string][]*Ruleset)
		c.index[pseudo] = byProp
	}
	for _, d := range rule.Declarations() {
		if props.IsResolution(d.Value) || IsBlockProp(d.Prop) {
			continue
		}
		for prop := range props.ExpandProp(d.Prop, d.Value) {
			rs.Properties[prop] = append(rs.Properties[prop], d)
			if !slices.Contains(byProp[prop], rs) {
				byProp[prop] = append(byProp[prop], rs)
			}
		}
	}
	return rs
}

// Rulesets returns every ruleset in the order they were added.
func (c *RulesetContainer) Rulesets() []*Ruleset {
	return c.rulesets
}

// Pseudos returns pseudo-elements with at least one ruleset.
func (c *RulesetContainer) Pseudos() []string {
	var out []string
	for _, rs := range c.rulesets {
		if !slices.Contains(out, rs.Pseudo) {
			out = append(out, rs.Pseudo)
		}
	}
	return out
}

// Properties returns set of expanded properties under pseudo-element.
func (c *RulesetContainer) Properties(pseudo string) map[string]bool {
	out := make(map[string]bool, len(c.index[pseudo]))
	for prop := range c.index[pseudo] {
		out[prop] = true
	}
	return out
}

// GetRulesets returns rulesets setting prop (after expansion) under
// pseudo-element in source order.
func (c *RulesetContainer) GetRulesets(prop, pseudo string) []*Ruleset {
	byProp := c.index[pseudo]
	if byProp == nil {
		return nil
	}
	var out []*Ruleset
	for k := range props.ExpandProp(prop, "inherit") {
		for _, rs := range byProp[k] {
			if !slices.Contains(out, rs) {
				out = append(out, rs)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b *Ruleset) int {
		return slices.Index(c.rulesets, a) - slices.Index(c.rulesets, b)
	})
	return out
}

// GetResolution returns explicit resolution target recorded for prop.
func (c *RulesetContainer) GetResolution(prop, pseudo string) Style {
	for _, rs := range c.rulesets {
		if rs.Pseudo != pseudo {
			continue
		}
		if s, ok := rs.Resolutions[prop]; ok {
			return s
		}
	}
	return nil
}
