package block

import (
	"cssblocks/common"
	"cssblocks/selector"
)

// StyleForCompound returns the style a compound selector of this block
// targets: the last local attribute value when present, the anchor class
// otherwise. Nil when compound has no local anchor.
func (b *Block) StyleForCompound(c *selector.Compound) Style {
	anchor, values := b.CompoundStyles(c)
	if anchor == nil {
		return nil
	}
	if len(values) > 0 {
		return values[len(values)-1]
	}
	return anchor
}

// CompoundStyles finds anchor class and local attribute values of compound.
// Values which do not exist are skipped.
func (b *Block) CompoundStyles(c *selector.Compound) (*BlockClass, []*AttrValue) {
	var anchor *BlockClass
	for _, n := range c.Nodes {
		switch v := n.(type) {
		case selector.Class:
			anchor = b.ResolveClass(v.Name)
		case selector.Pseudo:
			if selector.IsScope(v) {
				anchor = b.rootClass
			}
		}
	}
	if anchor == nil {
		return nil, nil
	}
	var values []*AttrValue
	for _, n := range c.Nodes {
		if a, ok := n.(selector.Attribute); ok && a.Namespace == DefaultNamespace {
			if v := anchor.ResolveAttributeValue(a.Namespace, a.Name, a.Value); v != nil {
				values = append(values, v)
			}
		}
	}
	return anchor, values
}

// RewriteSelector returns copy of sel where block objects are replaced by
// output classes. Within a compound the anchor and its local attributes
// collapse to attribute classes (or to the anchor class when there are no
// attributes), attributes of referenced blocks become their classes, and
// anything else is kept as is.
func (b *Block) RewriteSelector(sel *selector.Complex, mode common.OutputMode, reserved map[string]bool) *selector.Complex {
	out := &selector.Complex{Compounds: make([]*selector.Compound, 0, len(sel.Compounds))}
	for _, c := range sel.Compounds {
		out.Compounds = append(out.Compounds, b.rewriteCompound(c, mode, reserved))
	}
	return out
}

func (b *Block) rewriteCompound(c *selector.Compound, mode common.OutputMode, reserved map[string]bool) *selector.Compound {
	anchor, values := b.CompoundStyles(c)

	var classes, rest []selector.Node
	for _, n := range c.Nodes {
		switch v := n.(type) {
		case selector.Class:
			if anchor != nil && b.ResolveClass(v.Name) == anchor {
				continue
			}
		case selector.Pseudo:
			if selector.IsScope(v) && anchor != nil {
				continue
			}
		case selector.Attribute:
			if v.Namespace == DefaultNamespace && anchor != nil {
				if anchor.ResolveAttributeValue(v.Namespace, v.Name, v.Value) != nil {
					continue
				}
			}
			if other := b.GetReferencedBlock(v.Namespace); other != nil && v.Namespace != "" {
				if val := other.rootClass.ResolveAttributeValue(DefaultNamespace, v.Name, v.Value); val != nil {
					classes = append(classes, selector.Class{Name: val.CSSClass(mode, reserved)})
					continue
				}
			}
		}
		rest = append(rest, n)
	}

	var own []selector.Node
	switch {
	case len(values) > 0:
		for _, v := range values {
			own = append(own, selector.Class{Name: v.CSSClass(mode, reserved)})
		}
	case anchor != nil:
		own = append(own, selector.Class{Name: anchor.CSSClass(mode, reserved)})
	}

	nodes := make([]selector.Node, 0, len(own)+len(classes)+len(rest))
	// type selectors must stay in front
	for _, n := range rest {
		if _, ok := n.(selector.Tag); ok {
			nodes = append(nodes, n)
		}
		if _, ok := n.(selector.Universal); ok {
			nodes = append(nodes, n)
		}
	}
	nodes = append(nodes, own...)
	nodes = append(nodes, classes...)
	for _, n := range rest {
		switch n.(type) {
		case selector.Tag, selector.Universal:
		default:
			nodes = append(nodes, n)
		}
	}
	return &selector.Compound{Combinator: c.Combinator, Nodes: nodes}
}

// RewriteSelectorToString rewrites every selector of the list and joins them
// with sep.
func (b *Block) RewriteSelectorToString(list []*selector.Complex, mode common.OutputMode, reserved map[string]bool, sep string) string {
	out := make([]*selector.Complex, 0, len(list))
	for _, s := range list {
		out = append(out, b.RewriteSelector(s, mode, reserved))
	}
	return selector.Join(out, sep)
}

// CompiledClassesMap maps source name of every local style to its output
// class.
func (b *Block) CompiledClassesMap(mode common.OutputMode, reserved map[string]bool) map[string]string {
	out := make(map[string]string)
	for _, s := range b.All(true) {
		out[s.AsSource()] = s.CSSClass(mode, reserved)
	}
	return out
}
