// Package compiler turns block stylesheets into plain CSS.
//
// Compilation strips block syntax, rewrites selectors to output class names
// and resolves conflicts between blocks. Conflict resolution runs in two
// passes: the first makes overrides of inherited styles explicit by adding
// resolve-inherited() declarations, the second replaces every resolution with
// rules whose selectors merge both sides of the conflict.
package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"cssblocks/block"
	"cssblocks/blockerr"
	"cssblocks/common"
	"cssblocks/css"
)

// at-rules which only make sense to block parser
var blockAtRules = map[string]bool{
	"block":           true,
	"block-reference": true,
	"export":          true,
	"block-global":    true,
	"block-debug":     true,
}

var reDebug = regexp.MustCompile(`^([-\w]+)\s+to\s+(comment|stderr|stdout)$`)

// Compiler compiles blocks for a particular output mode.
type Compiler struct {
	log  *zap.Logger
	mode common.OutputMode
}

// New creates block compiler.
func New(mode common.OutputMode, log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{log: log.Named("block-compiler"), mode: mode}
}

// Compile compiles root, the stylesheet of b, in place and returns it. When
// root is nil a copy of the block stylesheet is compiled. Reserved class
// names force unique class names for styles which would collide with them.
func (c *Compiler) Compile(b *block.Block, root *css.Stylesheet, reserved map[string]bool) (*css.Stylesheet, error) {
	if root == nil {
		if b.Stylesheet() == nil {
			return nil, blockerr.MissingSourcePath()
		}
		root = b.Stylesheet().Clone()
	}
	if root.Source == "" {
		return nil, blockerr.MissingSourcePath()
	}
	log := c.log.With(zap.String("block", b.Name()), zap.String("source", root.Source))

	if err := c.processDebug(root, b, log); err != nil {
		return nil, err
	}
	c.strip(root)

	resolver := NewResolver(c.mode, reserved, c.log)
	if err := resolver.ResolveInheritance(root, b); err != nil {
		return nil, fmt.Errorf("unable to resolve inherited conflicts: %w", err)
	}

	sources := make(map[*css.Rule]string)
	err := css.WalkRules(root, func(rule *css.Rule) error {
		if rule.InKeyframes() {
			return nil
		}
		list, err := b.ParseSelectors(rule.Selector)
		if err != nil {
			return blockerr.Syntax(locOf(rule), "Error parsing selector %q: %v", rule.Selector, err)
		}
		sources[rule] = rule.Selector
		rule.Selector = b.RewriteSelectorToString(list, c.mode, reserved, ",\n")
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := resolver.Resolve(root, b, sources); err != nil {
		return nil, fmt.Errorf("unable to resolve conflicts: %w", err)
	}
	log.Debug("Block compiled", zap.Int("rules", len(sources)))
	return root, nil
}

// processDebug handles "@block-debug name to comment|stderr|stdout;". Debug
// output not going into a comment is sent to the log.
func (c *Compiler) processDebug(root *css.Stylesheet, b *block.Block, log *zap.Logger) error {
	isDebug := func(name string) bool { return name == "block-debug" }
	return css.WalkAtRules(root, isDebug, func(at *css.AtRule) error {
		m := reDebug.FindStringSubmatch(strings.TrimSpace(at.Params))
		if m == nil {
			return blockerr.Syntax(locOf(at), "Malformed block debug: `@block-debug %s`", at.Params)
		}
		target := b
		if m[1] != "self" {
			if target = b.GetReferencedBlock(m[1]); target == nil {
				return blockerr.Syntax(locOf(at), "Invalid block debug: No Block named %q found in scope.", m[1])
			}
		}
		text := target.Debug(c.mode)
		if m[2] != "comment" {
			log.Info("Block debug", zap.String("channel", m[2]), zap.String("tree", text))
			at.Remove()
			return nil
		}
		at.Parent().InsertAfter(at, css.NewComment("\n"+text))
		at.Remove()
		return nil
	})
}

// strip removes block at-rules and declarations. Rules left without
// declarations by that are removed too.
func (c *Compiler) strip(root *css.Stylesheet) {
	isBlock := func(name string) bool { return blockAtRules[name] }
	css.WalkAtRules(root, isBlock, func(at *css.AtRule) error { //nolint:errcheck
		at.Remove()
		return nil
	})
	css.WalkRules(root, func(rule *css.Rule) error { //nolint:errcheck
		stripped := false
		for _, d := range rule.Declarations() {
			if block.IsBlockProp(d.Prop) {
				d.Remove()
				stripped = true
			}
		}
		if stripped && len(rule.Nodes()) == 0 {
			rule.Remove()
		}
		return nil
	})
}
