package compiler

import (
	"slices"

	"go.uber.org/zap"

	"cssblocks/block"
	"cssblocks/blockerr"
	"cssblocks/common"
	"cssblocks/css"
	"cssblocks/props"
	"cssblocks/selector"
)

// Resolver turns conflicts between blocks into additional rules.
type Resolver struct {
	log      *zap.Logger
	mode     common.OutputMode
	reserved map[string]bool
}

// NewResolver creates resolver producing class names for mode.
func NewResolver(mode common.OutputMode, reserved map[string]bool, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{log: log.Named("conflict-resolver"), mode: mode, reserved: reserved}
}

func locOf(n css.Node) *blockerr.Location {
	loc := n.Loc()
	return &loc
}

// ResolveInheritance makes implicit overrides of inherited styles explicit:
// every declaration of a rule conflicting with the base style of the rule
// target gets a resolve-inherited() declaration prepended to the rule. It
// must run on selectors as they are written in the block source.
func (r *Resolver) ResolveInheritance(root css.Container, b *block.Block) error {
	base := b.Base()
	if base == nil {
		return nil
	}
	alias, ok := b.GetReferencedBlockLocalName(base)
	if !ok {
		return nil
	}

	return css.WalkRules(root, func(rule *css.Rule) error {
		if rule.InKeyframes() {
			return nil
		}
		list, err := b.ParseSelectors(rule.Selector)
		if err != nil {
			return blockerr.Syntax(locOf(rule), "Error parsing selector %q: %v", rule.Selector, err)
		}

		type target struct {
			style  block.Style
			pseudo string
		}
		var (
			seen     []target
			handled  = make(map[string]bool)
			injected []css.Node
		)
		for _, sel := range list {
			style := b.StyleForCompound(sel.Key())
			if style == nil {
				continue
			}
			t := target{style, block.PseudoOf(sel.Key())}
			if slices.Contains(seen, t) {
				continue
			}
			seen = append(seen, t)

			baseStyle := style.BaseStyle()
			if baseStyle == nil {
				continue
			}
			conflicts := block.DetectConflicts(style, baseStyle)
			if len(conflicts[t.pseudo]) == 0 {
				continue
			}
			path := alias + baseStyle.AsSource()
			for _, d := range rule.Declarations() {
				if handled[d.Prop] || block.IsBlockProp(d.Prop) || props.IsResolution(d.Value) {
					continue
				}
				for prop := range props.ExpandProp(d.Prop, d.Value) {
					if !conflicts.Has(t.pseudo, prop) {
						continue
					}
					handled[d.Prop] = true
					res := css.NewDeclaration(d.Prop, `resolve-inherited("`+path+`")`)
					res.SetLoc(d.Loc())
					injected = append(injected, res)
					r.log.Debug("Inherited conflict", zap.String("selector", rule.Selector),
						zap.String("property", d.Prop), zap.String("base", path))
					break
				}
			}
		}
		rule.Prepend(injected...)
		return nil
	})
}

// Resolve replaces every resolve() and resolve-inherited() declaration with
// rules merging selectors of the rule with selectors of the resolution
// target. Sources maps rules to their selectors as written in the block
// source, rules missing there are expected to carry source selectors.
func (r *Resolver) Resolve(root css.Container, b *block.Block, sources map[*css.Rule]string) error {
	return css.WalkRules(root, func(rule *css.Rule) error {
		if rule.InKeyframes() {
			return nil
		}
		var resolutions []*css.Declaration
		for _, d := range rule.Declarations() {
			if props.IsResolution(d.Value) {
				resolutions = append(resolutions, d)
			}
		}
		if len(resolutions) == 0 {
			return nil
		}

		text, ok := sources[rule]
		if !ok {
			text = rule.Selector
		}
		list, err := b.ParseSelectors(text)
		if err != nil {
			return blockerr.Syntax(locOf(rule), "Error parsing selector %q: %v", text, err)
		}

		rs := &ruleState{
			Resolver: r,
			b:        b,
			rule:     rule,
			list:     list,
			after:    rule,
			emitted:  make(map[string]bool),
		}
		for _, d := range resolutions {
			if err := rs.resolve(d); err != nil {
				return err
			}
			d.Remove()
		}
		return nil
	})
}

// ruleState tracks rules generated for a single source rule.
type ruleState struct {
	*Resolver
	b       *block.Block
	rule    *css.Rule
	list    []*selector.Complex
	after   css.Node // last node inserted after rule
	emitted map[string]bool
}

// localDecls returns non resolution declarations of the rule overlapping
// prop and whether resolution d comes after them.
func (rs *ruleState) localDecls(d *css.Declaration) ([]*css.Declaration, bool, error) {
	var (
		locals         []*css.Declaration
		before, behind int
		override       = -1
	)
	// injected resolve-inherited() always sits first and does not take part
	// in position checks
	own, _ := props.ParseResolution(d.Value)
	inherited := own.Inherited
	for _, other := range rs.rule.Declarations() {
		if other == d {
			override = len(locals)
			continue
		}
		if res, ok := props.ParseResolution(other.Value); ok {
			if other.Prop == d.Prop && !inherited && !res.Inherited {
				// resolutions for the same property must agree on position
				if len(locals) > 0 {
					behind++
				} else {
					before++
				}
			}
			continue
		}
		if len(props.Overlap(d.Prop, "inherit", other.Prop, other.Value)) > 0 {
			locals = append(locals, other)
		}
	}
	if len(locals) == 0 {
		return nil, false, blockerr.Syntax(locOf(d), "Cannot resolve %s without a concrete value.", d.Prop)
	}
	isOverride := override > 0
	if (isOverride && before > 0) || (!isOverride && behind > 0) {
		return nil, false, blockerr.Syntax(locOf(d), "Cannot resolve %s: resolutions are placed both before and after local values.", d.Prop)
	}
	return locals, isOverride, nil
}

func (rs *ruleState) resolve(d *css.Declaration) error {
	res, _ := props.ParseResolution(d.Value)
	loc := locOf(d)

	locals, isOverride, err := rs.localDecls(d)
	if err != nil {
		return err
	}

	target, err := rs.b.Lookup(res.Path, loc)
	if err != nil {
		return err
	}
	switch {
	case target.Block() == rs.b:
		return blockerr.Syntax(loc, "Cannot resolve conflicts with your own block.")
	case !res.Inherited && target.Block().IsAncestorOf(rs.b):
		return blockerr.Syntax(loc, "Cannot resolve conflicts with ancestors of your own block.")
	}

	found := false
	for _, sel := range rs.list {
		if rs.b.StyleForCompound(sel.Key()) == nil {
			continue
		}
		pseudo := block.PseudoOf(sel.Key())
		current := rs.b.RewriteSelector(sel, rs.mode, rs.reserved)

		for other := target; other != nil; other = other.BaseStyle() {
			conflict := false
			for _, remote := range other.Rulesets().GetRulesets(d.Prop, pseudo) {
				values := remote.DeclarationsFor(d.Prop)
				if len(values) == 0 {
					continue
				}
				conflict = true
				if sameValues(locals, values) {
					continue
				}
				body := values
				if !isOverride {
					body = locals
				}
				if err := rs.emit(other, remote, current, body, loc); err != nil {
					return err
				}
			}
			if conflict {
				found = true
				break
			}
		}
	}
	if !found && !res.Inherited {
		return blockerr.Syntax(loc, "There are no conflicting values for %s found in any selectors targeting %s.", d.Prop, res.Path)
	}
	return nil
}

// emit inserts rule with body for every selector of remote ruleset merged
// with current selector.
func (rs *ruleState) emit(other block.Style, remote *block.Ruleset, current *selector.Complex, body []*css.Declaration, loc *blockerr.Location) error {
	var merged []*selector.Complex
	for _, sel := range remote.Selectors {
		list, err := MergeSelectors(other.Block().RewriteSelector(sel, rs.mode, rs.reserved), current)
		if err != nil {
			return blockerr.Syntax(loc, "%v", err)
		}
		merged = append(merged, list...)
	}
	text := selector.Join(merged, ",\n")

	wrappers := remoteAtRules(remote.Rule, rs.rule)

	rule := css.NewRule(text)
	rule.SetLoc(*loc)
	for _, d := range body {
		key := atRulesKey(wrappers) + text + "\x00" + d.String()
		if rs.emitted[key] {
			continue
		}
		rs.emitted[key] = true
		rule.Append(d.Clone())
	}
	if len(rule.Nodes()) == 0 {
		return nil
	}

	var out css.Node = rule
	for i := len(wrappers) - 1; i >= 0; i-- {
		at := css.NewAtRule(wrappers[i].Name, wrappers[i].Params, true)
		at.SetLoc(*loc)
		at.Append(out)
		out = at
	}
	rs.rule.Parent().InsertAfter(rs.after, out)
	rs.after = out
	rs.log.Debug("Resolved conflict", zap.String("selector", text), zap.Int("declarations", len(rule.Nodes())))
	return nil
}

// remoteAtRules returns at-rules enclosing remote rule which do not already
// enclose local one, outermost first.
func remoteAtRules(remote, local *css.Rule) []*css.AtRule {
	if remote == nil {
		return nil
	}
	outer, inner := css.AtRules(local), css.AtRules(remote)
	i := 0
	for i < len(outer) && i < len(inner) && sameAtRule(outer[i], inner[i]) {
		i++
	}
	return inner[i:]
}

func sameAtRule(a, b *css.AtRule) bool {
	return a.Name == b.Name && a.Params == b.Params
}

func atRulesKey(list []*css.AtRule) string {
	var key string
	for _, at := range list {
		key += "@" + at.Name + " " + at.Params + "\x00"
	}
	return key
}

// sameValues reports whether both lists set the same values in the same
// order.
func sameValues(a, b []*css.Declaration) bool {
	return slices.EqualFunc(a, b, func(x, y *css.Declaration) bool {
		return x.Value == y.Value
	})
}
