package parser

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"cssblocks/block"
	"cssblocks/blockerr"
	"cssblocks/css"
	"cssblocks/props"
	"cssblocks/selector"
)

var reResolveCall = regexp.MustCompile(`^\s*resolve(-inherited)?\s*\(`)

// ensureValue declares attribute value on class. Presence only and enumerated
// values of the same attribute are mutually exclusive.
func ensureValue(class *block.BlockClass, attr selector.Attribute, loc *blockerr.Location) (*block.AttrValue, error) {
	if attr.Op != "" && attr.Op != "=" {
		return nil, blockerr.Syntax(loc, "Only the '=' operator is allowed for states, found %q: %s", attr.Op, attr)
	}
	a := class.EnsureAttribute(attr.Namespace, attr.Name)
	if (attr.Value == "" && a.HasEnumValues()) || (attr.Value != "" && a.HasPresence()) {
		return nil, blockerr.Syntax(loc, "Cannot mix presence and enumerated values of %s", a.AsSource())
	}
	return a.EnsureValue(attr.Value), nil
}

// construct declares classes and attributes used by rule selectors and
// records rulesets on styles targeted by selector keys.
func (ps *parseState) construct() error {
	return css.WalkRules(ps.sheet, func(rule *css.Rule) error {
		if rule.InKeyframes() {
			return nil
		}
		loc := locOf(rule)
		list, err := ps.b.ParseSelectors(rule.Selector)
		if err != nil {
			ps.b.AddError(blockerr.Syntax(loc, "Error parsing selector %q: %v", rule.Selector, err))
			return nil
		}

		var rulesets []*block.Ruleset
		for _, sel := range list {
			style, err := ps.constructSelector(sel, loc)
			if err != nil {
				ps.b.AddError(err)
				continue
			}
			rs := style.Rulesets().AddRuleset(ps.sheet.Source, rule, sel)
			if len(rulesets) == 0 || rulesets[len(rulesets)-1] != rs {
				rulesets = append(rulesets, rs)
			}
		}
		ps.checkDeclarations(rule, rulesets)
		return nil
	})
}

// constructSelector validates every compound and returns the style targeted
// by the selector key.
func (ps *parseState) constructSelector(sel *selector.Complex, loc *blockerr.Location) (block.Style, error) {
	last := len(sel.Compounds) - 1
	for i, c := range sel.Compounds {
		anchor, err := ps.constructCompound(c, i == last, sel, loc)
		if err != nil {
			return nil, err
		}
		if i == last && anchor == nil {
			return nil, blockerr.Syntax(loc, "Missing block object in selector component %q: %s", c, sel)
		}
	}
	return ps.b.StyleForCompound(sel.Key()), nil
}

func (ps *parseState) constructCompound(c *selector.Compound, isKey bool, sel *selector.Complex, loc *blockerr.Location) (*block.BlockClass, error) {
	var (
		className     string
		classes       int
		scopes        int
		tags          int
		states, other []selector.Attribute
	)
	for _, n := range c.Nodes {
		switch v := n.(type) {
		case selector.ID:
			return nil, blockerr.Syntax(loc, "Cannot use ID selectors in blocks: %s", sel)
		case selector.Tag, selector.Universal:
			tags++
		case selector.Class:
			classes++
			className = v.Name
		case selector.Pseudo:
			if selector.IsScope(v) {
				scopes++
			}
		case selector.Attribute:
			switch v.Namespace {
			case block.DefaultNamespace:
				states = append(states, v)
			case "":
			default:
				if ps.b.GetReferencedBlock(v.Namespace) == nil {
					return nil, blockerr.Syntax(loc, "No Block named %q found in scope: %s", v.Namespace, sel)
				}
				other = append(other, v)
			}
		}
	}

	switch {
	case classes > 1:
		return nil, blockerr.Syntax(loc, "Two distinct classes cannot be selected on the same element: %s", sel)
	case classes == 1 && scopes > 0:
		return nil, blockerr.Syntax(loc, "Cannot put block classes on the block's root element: %s", sel)
	case classes+scopes > 0 && tags > 0:
		return nil, blockerr.Syntax(loc, "Tag name selectors are not allowed: %s", sel)
	case classes+scopes == 0 && len(states) > 0:
		return nil, blockerr.Syntax(loc, "States without an explicit :scope or class selector are not allowed: %s", sel)
	case isKey && len(other) > 0:
		return nil, blockerr.Syntax(loc, "States of referenced blocks cannot be the key of a selector: %s", sel)
	}

	for _, attr := range other {
		ref := ps.b.GetReferencedBlock(attr.Namespace)
		value := ref.RootClass().ResolveAttributeValue(block.DefaultNamespace, attr.Name, attr.Value)
		if value == nil {
			return nil, blockerr.Syntax(loc, "No state %q found on block %q: %s", attr.Name, attr.Namespace, sel)
		}
		if !value.IsGlobal() {
			return nil, blockerr.Syntax(loc, "State %s of block %q is not global: %s", value.AsSource(), attr.Namespace, sel)
		}
	}

	var anchor *block.BlockClass
	switch {
	case classes == 1:
		anchor = ps.b.EnsureClass(className)
	case scopes > 0:
		anchor = ps.b.RootClass()
	default:
		return nil, nil
	}
	for _, attr := range states {
		if _, err := ensureValue(anchor, attr, loc); err != nil {
			return nil, err
		}
	}
	return anchor, nil
}

// checkDeclarations rejects !important and records explicit resolutions on
// every ruleset of the rule.
func (ps *parseState) checkDeclarations(rule *css.Rule, rulesets []*block.Ruleset) {
	for _, d := range rule.Declarations() {
		if d.Important {
			ps.b.AddError(blockerr.Syntax(locOf(d), "!important is not allowed for `%s` in `%s`", d.Prop, rule.Selector))
		}
		if !reResolveCall.MatchString(d.Value) {
			continue
		}
		res, ok := props.ParseResolution(d.Value)
		if !ok {
			ps.b.AddError(blockerr.Syntax(locOf(d), "Malformed resolution: `%s`", d))
			continue
		}
		if res.Inherited {
			continue
		}
		target, err := ps.b.Lookup(res.Path, locOf(d))
		if err != nil {
			ps.b.AddError(err)
			continue
		}
		for _, rs := range rulesets {
			rs.AddResolution(d.Prop, target)
		}
	}
}

// ruleDecls calls fn for every declaration of prop in rules outside of
// keyframes, together with parsed selectors of the rule.
func (ps *parseState) ruleDecls(prop string, fn func(d *css.Declaration, list []*selector.Complex)) error {
	return css.WalkRules(ps.sheet, func(rule *css.Rule) error {
		if rule.InKeyframes() {
			return nil
		}
		list, err := ps.b.ParseSelectors(rule.Selector)
		if err != nil {
			// already reported by construct
			return nil
		}
		for _, d := range rule.Declarations() {
			if d.Prop == prop {
				fn(d, list)
			}
		}
		return nil
	})
}

// composes handles "composes: other.class, other.class2;".
func (ps *parseState) composes() error {
	return ps.ruleDecls(block.PropComposes, func(d *css.Declaration, list []*selector.Complex) {
		loc := locOf(d)
		for _, sel := range list {
			if len(sel.Compounds) > 1 {
				ps.b.AddError(blockerr.Syntax(loc, "Style composition is not allowed in rule sets with a scope selector, context or combinators: %s", sel))
				continue
			}
			if _, ok := sel.Key().PseudoElement(); ok {
				ps.b.AddError(blockerr.Syntax(loc, "Style composition is not allowed in pseudo-element rules: %s", sel))
				continue
			}
			anchor, conditions := ps.b.CompoundStyles(sel.Key())
			if anchor == nil {
				continue
			}
			for path := range strings.SplitSeq(d.Value, ",") {
				path = strings.TrimSpace(path)
				target, err := ps.b.Lookup(path, loc)
				if err != nil {
					ps.b.AddError(err)
					continue
				}
				class, ok := target.(*block.BlockClass)
				if !ok {
					ps.b.AddError(blockerr.Syntax(loc, "Style composition can only target block classes, found %q", path))
					continue
				}
				if class.Block() == ps.b || class.Block().IsAncestorOf(ps.b) {
					ps.b.AddError(blockerr.Syntax(loc, "Styles from the same block may not be composed together: %s", path))
					continue
				}
				anchor.AddComposition(class, conditions)
				ps.log.Debug("Composition", zap.Stringer("selector", sel), zap.String("target", path))
			}
		}
	})
}

// aliases handles "block-alias: name other-name;".
func (ps *parseState) aliases() error {
	return ps.ruleDecls(block.PropBlockAlias, func(d *css.Declaration, list []*selector.Complex) {
		var names []string
		for name := range strings.FieldsSeq(strings.ReplaceAll(d.Value, ",", " ")) {
			name = unquote(name)
			if !block.IsValidName(name) {
				ps.b.AddError(blockerr.Syntax(locOf(d), "Illegal block alias. %q is not a legal CSS identifier.", name))
				continue
			}
			names = append(names, name)
		}
		for _, sel := range list {
			style := ps.b.StyleForCompound(sel.Key())
			if style == nil {
				continue
			}
			for _, name := range names {
				style.AddAlias(name)
			}
		}
	})
}
