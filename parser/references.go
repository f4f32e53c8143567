package parser

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"cssblocks/block"
	"cssblocks/blockerr"
	"cssblocks/css"
	"cssblocks/selector"
)

var (
	reImport = regexp.MustCompile(`^(?:([-\w]+)|\(([^)]*)\))\s+from\s+("[^"]+"|'[^']+')$`)
	reExport = regexp.MustCompile(`^(?:([-\w]+)|\(([^)]*)\))(?:\s+from\s+("[^"]+"|'[^']+'))?$`)
	reIdent  = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)
)

// aliases which cannot name an imported block
var reservedAliases = map[string]bool{
	"default": true,
	"state":   true,
	"html":    true,
	"svg":     true,
}

type namePair struct {
	name, alias string
}

// parseNameList parses "a, b as c, default as d".
func parseNameList(list string, loc *blockerr.Location) ([]namePair, error) {
	var out []namePair
	for item := range strings.SplitSeq(list, ",") {
		fields := strings.Fields(item)
		switch {
		case len(fields) == 1:
			out = append(out, namePair{fields[0], fields[0]})
		case len(fields) == 3 && fields[1] == "as":
			out = append(out, namePair{fields[0], fields[2]})
		default:
			return nil, blockerr.Syntax(loc, "Malformed block name list: %q", strings.TrimSpace(item))
		}
	}
	return out, nil
}

func unquote(s string) string {
	return strings.Trim(s, `"'`)
}

func (ps *parseState) importFrom(path string, loc *blockerr.Location) (*block.Block, error) {
	if ps.importer == nil {
		return nil, blockerr.Syntax(loc, "Unable to import %q: no importer configured", path)
	}
	other, err := ps.importer.ImportBlock(ps.ctx, ps.b, path, loc)
	if err != nil {
		return nil, err
	}
	ps.b.AddDependency(other.Identifier())
	return other, nil
}

// importBlocks handles "@block name from "path";" and
// "@block (default as a, exported as b) from "path";".
func (ps *parseState) importBlocks() error {
	isImport := func(name string) bool { return name == "block" || name == "block-reference" }
	return css.WalkAtRules(ps.sheet, isImport, func(at *css.AtRule) error {
		loc := locOf(at)
		m := reImport.FindStringSubmatch(strings.TrimSpace(at.Params))
		if m == nil {
			return blockerr.Syntax(loc, "Malformed block reference: `@%s %s`", at.Name, at.Params)
		}
		other, err := ps.importFrom(unquote(m[3]), loc)
		if err != nil {
			return err
		}

		pairs := []namePair{{"default", m[1]}}
		if m[1] == "" {
			if pairs, err = parseNameList(m[2], loc); err != nil {
				return err
			}
		}
		for _, np := range pairs {
			if !reIdent.MatchString(np.alias) || reservedAliases[np.alias] {
				return blockerr.Syntax(loc, "Illegal block name in import: %q", np.alias)
			}
			if ps.b.GetReferencedBlock(np.alias) != nil {
				return blockerr.Syntax(loc, "Block name %q is already in use", np.alias)
			}
			target := other
			if np.name != "default" {
				if target = other.GetExportedBlock(np.name); target == nil {
					return blockerr.Syntax(loc, "Cannot import %q from %q: no such export", np.name, other.Identifier())
				}
			}
			ps.b.AddBlockReference(np.alias, target)
			ps.log.Debug("Block reference", zap.String("alias", np.alias), zap.String("target", target.Identifier()))
		}
		return nil
	})
}

// exportBlocks handles "@export a;", "@export (a as b, c);" and
// "@export (default as b) from "path";".
func (ps *parseState) exportBlocks() error {
	isExport := func(name string) bool { return name == "export" }
	return css.WalkAtRules(ps.sheet, isExport, func(at *css.AtRule) error {
		loc := locOf(at)
		m := reExport.FindStringSubmatch(strings.TrimSpace(at.Params))
		if m == nil {
			return blockerr.Syntax(loc, "Malformed block export: `@export %s`", at.Params)
		}

		var (
			from *block.Block
			err  error
		)
		if m[3] != "" {
			if from, err = ps.importFrom(unquote(m[3]), loc); err != nil {
				return err
			}
		}
		pairs := []namePair{{m[1], m[1]}}
		if m[1] == "" {
			if pairs, err = parseNameList(m[2], loc); err != nil {
				return err
			}
		}

		for _, np := range pairs {
			if !reIdent.MatchString(np.alias) || np.alias == "default" {
				return blockerr.Syntax(loc, "Cannot export block as reserved name %q", np.alias)
			}
			var target *block.Block
			switch {
			case from != nil && np.name == "default":
				target = from
			case from != nil:
				target = from.GetExportedBlock(np.name)
			case np.name == "default":
				return blockerr.Syntax(loc, "Default block export requires a source path")
			default:
				target = ps.b.GetReferencedBlock(np.name)
			}
			if target == nil {
				return blockerr.Syntax(loc, "Cannot export %q: no such block", np.name)
			}
			ps.b.AddBlockExport(np.alias, target)
		}
		return nil
	})
}

// isRootRule reports whether every selector of the rule is plain ":scope".
func isRootRule(b *block.Block, rule *css.Rule) bool {
	list, err := b.ParseSelectors(rule.Selector)
	if err != nil || len(list) == 0 {
		return false
	}
	for _, sel := range list {
		if len(sel.Compounds) != 1 || len(sel.Key().Nodes) != 1 || !selector.IsScope(sel.Key().Nodes[0]) {
			return false
		}
	}
	return true
}

// rootDecls calls fn for declarations of prop in top level root rules.
func (ps *parseState) rootDecls(prop string, fn func(d *css.Declaration) error) error {
	for _, n := range ps.sheet.Nodes() {
		rule, ok := n.(*css.Rule)
		if !ok || !isRootRule(ps.b, rule) {
			continue
		}
		for _, d := range rule.Declarations() {
			if d.Prop != prop {
				continue
			}
			if err := fn(d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ps *parseState) blockName() error {
	return ps.rootDecls(block.PropBlockName, func(d *css.Declaration) error {
		name := unquote(strings.TrimSpace(d.Value))
		if !block.IsValidName(name) {
			return blockerr.Syntax(locOf(d), "Illegal block name. %q is not a legal CSS identifier.", name)
		}
		if err := ps.b.SetName(name); err != nil {
			return blockerr.Syntax(locOf(d), "Cannot set block name more than once.")
		}
		return nil
	})
}

// globalStates handles "@block-global [state|name];".
func (ps *parseState) globalStates() error {
	isGlobal := func(name string) bool { return name == "block-global" }
	return css.WalkAtRules(ps.sheet, isGlobal, func(at *css.AtRule) error {
		loc := locOf(at)
		sel, err := selector.ParseComplex(at.Params)
		if err != nil || len(sel.Compounds) != 1 || len(sel.Key().Nodes) != 1 {
			return blockerr.Syntax(loc, "Malformed global state: `@block-global %s`", at.Params)
		}
		attr, ok := sel.Key().Nodes[0].(selector.Attribute)
		if !ok || attr.Namespace != block.DefaultNamespace || (attr.Op != "" && attr.Op != "=") {
			return blockerr.Syntax(loc, "Can only declare states of the block root as global: `@block-global %s`", at.Params)
		}
		value, err := ensureValue(ps.b.RootClass(), attr, loc)
		if err != nil {
			return err
		}
		value.SetGlobal(true)
		return nil
	})
}

func (ps *parseState) blockList(value string, d *css.Declaration) ([]*block.Block, error) {
	var out []*block.Block
	for name := range strings.SplitSeq(value, ",") {
		name = strings.TrimSpace(name)
		other := ps.b.GetReferencedBlock(name)
		if other == nil {
			return nil, blockerr.Syntax(locOf(d), "No Block named %q found in scope.", name)
		}
		out = append(out, other)
	}
	return out, nil
}

func (ps *parseState) extends() error {
	return ps.rootDecls(block.PropExtends, func(d *css.Declaration) error {
		if ps.b.Base() != nil {
			return blockerr.Syntax(locOf(d), "A block can only extend one other block.")
		}
		list, err := ps.blockList(d.Value, d)
		if err != nil {
			return err
		}
		if len(list) != 1 {
			return blockerr.Syntax(locOf(d), "A block can only extend one other block.")
		}
		base := list[0]
		if base == ps.b || ps.b.IsAncestorOf(base) {
			return blockerr.Syntax(locOf(d), "A block cannot extend itself.")
		}
		ps.b.SetBase(strings.TrimSpace(d.Value), base)
		return nil
	})
}

func (ps *parseState) implements() error {
	return ps.rootDecls(block.PropImplements, func(d *css.Declaration) error {
		list, err := ps.blockList(d.Value, d)
		if err != nil {
			return err
		}
		for _, other := range list {
			ps.b.AddImplements(other)
		}
		return nil
	})
}
