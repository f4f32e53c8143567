package block

import (
	"cssblocks/common"
)

// RootClass is the name of the block root class.
const RootClass = ":scope"

// DefaultNamespace is the namespace of block local attributes.
const DefaultNamespace = "state"

// Composition records that a class composes another block class, optionally
// only when all Conditions are set.
type Composition struct {
	Style      *BlockClass
	Conditions []*AttrValue
}

// BlockClass is a class of a block, including its root ":scope".
type BlockClass struct {
	styleCommon
	children[*Attribute]
	lazyBase[*BlockClass]

	name         string
	block        *Block
	compositions []Composition
}

func newBlockClass(name string, b *Block) *BlockClass {
	c := &BlockClass{name: name, block: b}
	c.rulesets = newRulesetContainer(c)
	return c
}

func (*BlockClass) isStyle() {}

func (c *BlockClass) Name() string {
	return c.name
}

func (c *BlockClass) Block() *Block {
	return c.block
}

func (c *BlockClass) Class() *BlockClass {
	return c
}

// IsRoot reports whether this is the block ":scope" class.
func (c *BlockClass) IsRoot() bool {
	return c.name == RootClass
}

// Base returns class with the same name in the base block chain.
func (c *BlockClass) Base() *BlockClass {
	return c.memo(func() *BlockClass {
		if base := c.block.Base(); base != nil {
			return base.ResolveClass(c.name)
		}
		return nil
	})
}

func (c *BlockClass) BaseStyle() Style {
	if b := c.Base(); b != nil {
		return b
	}
	return nil
}

// ResolveInheritance returns inherited classes, furthest ancestor first.
func (c *BlockClass) ResolveInheritance() []*BlockClass {
	return inheritanceOf(c)
}

func (c *BlockClass) ResolveStyles() []Style {
	return resolveStyles(c, &c.styles)
}

func (c *BlockClass) AsSource() string {
	if c.IsRoot() {
		return RootClass
	}
	return "." + c.name
}

func (c *BlockClass) CSSClass(mode common.OutputMode, reserved map[string]bool) string {
	name := c.block.Name()
	if !c.IsRoot() {
		name += "__" + c.name
	}
	if mode.Unique() || reserved[name] {
		name = c.block.Name() + "_" + c.block.GUID()
		if !c.IsRoot() {
			name += "__" + c.name
		}
	}
	return name
}

func (c *BlockClass) CSSClasses(mode common.OutputMode, reserved map[string]bool) []string {
	return withAliases(c.CSSClass(mode, reserved), c.aliases)
}

func attributeKey(namespace, name string) string {
	return namespace + "|" + name
}

// GetAttribute returns attribute declared on this class.
func (c *BlockClass) GetAttribute(namespace, name string) *Attribute {
	return c.getChild(attributeKey(namespace, name))
}

// EnsureAttribute returns attribute creating it when missing.
func (c *BlockClass) EnsureAttribute(namespace, name string) *Attribute {
	return c.ensureChild(attributeKey(namespace, name), func() *Attribute {
		return newAttribute(namespace, name, c)
	})
}

// ResolveAttribute finds attribute on this class or any inherited class.
func (c *BlockClass) ResolveAttribute(namespace, name string) *Attribute {
	return resolveIn(c, func(cls *BlockClass) *Attribute {
		return cls.GetAttribute(namespace, name)
	})
}

// ResolveAttributeValue finds attribute value on this class or any inherited
// class.
func (c *BlockClass) ResolveAttributeValue(namespace, name, value string) *AttrValue {
	return resolveIn(c, func(cls *BlockClass) *AttrValue {
		if a := cls.GetAttribute(namespace, name); a != nil {
			return a.GetValue(value)
		}
		return nil
	})
}

// Attributes returns attributes declared on this class in declaration order.
func (c *BlockClass) Attributes() []*Attribute {
	return c.all()
}

// AttributeValues returns every value of every local attribute.
func (c *BlockClass) AttributeValues() []*AttrValue {
	var out []*AttrValue
	for _, a := range c.all() {
		out = append(out, a.Values()...)
	}
	return out
}

// AddComposition records that this class composes other.
func (c *BlockClass) AddComposition(other *BlockClass, conditions []*AttrValue) {
	c.compositions = append(c.compositions, Composition{Style: other, Conditions: conditions})
}

// Compositions returns locally declared compositions.
func (c *BlockClass) Compositions() []Composition {
	return c.compositions
}

// ResolveCompositions returns compositions of this class and of inherited
// classes, nearest first.
func (c *BlockClass) ResolveCompositions() []Composition {
	out := append([]Composition(nil), c.compositions...)
	inherited := c.ResolveInheritance()
	for i := len(inherited) - 1; i >= 0; i-- {
		out = append(out, inherited[i].compositions...)
	}
	return out
}

// Composes reports whether this class (or optionally one of its ancestors)
// composes other.
func (c *BlockClass) Composes(other *BlockClass, resolve bool) bool {
	list := c.compositions
	if resolve {
		list = c.ResolveCompositions()
	}
	for _, comp := range list {
		if comp.Style == other {
			return true
		}
	}
	return false
}
