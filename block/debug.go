package block

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maruel/natural"

	"cssblocks/common"
	"cssblocks/utils/debug"
)

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}

func styleLine(s Style, mode common.OutputMode) string {
	return fmt.Sprintf("%s (.%s)", s.AsSource(), strings.Join(s.CSSClasses(mode, nil), " ."))
}

func debugClass(node *debug.Node, c *BlockClass, mode common.OutputMode) {
	if values := c.AttributeValues(); len(values) > 0 {
		states := node.Add("states:")
		for _, v := range values {
			states.Add("%s", styleLine(v, mode))
		}
	}
	if comps := c.Compositions(); len(comps) > 0 {
		composes := node.Add("composes:")
		for _, comp := range comps {
			name := comp.Style.AsSource()
			if alias, ok := c.block.GetReferencedBlockLocalName(comp.Style.block); ok {
				name = alias + name
			}
			if len(comp.Conditions) == 0 {
				composes.Add("%s", name)
				continue
			}
			conds := make([]string, 0, len(comp.Conditions))
			for _, v := range comp.Conditions {
				conds = append(conds, v.AsSource())
			}
			composes.Add("%s when %s", name, strings.Join(conds, " and "))
		}
	}
}

// Debug returns human readable tree of the block: root class first then the
// rest of the classes in natural order, each with its states and compositions.
func (b *Block) Debug(mode common.OutputMode) string {
	tw := debug.NewTreeWriter()
	tw.TextBlock(0, "Source", b.identifier)

	root := debug.NewNode("%s", styleLine(b.rootClass, mode))
	debugClass(root, b.rootClass, mode)

	classes := make(map[string]*BlockClass)
	for _, c := range b.Classes() {
		if !c.IsRoot() {
			classes[c.name] = c
		}
	}
	for _, name := range sortedKeys(classes) {
		c := classes[name]
		debugClass(root.Add("%s", styleLine(c, mode)), c, mode)
	}

	tw.Tree(0, root)
	return tw.String()
}
